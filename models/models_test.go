package models

import (
	"testing"
)

func TestParsePlayer(t *testing.T) {
	cases := []struct {
		in      string
		want    Player
		wantErr bool
	}{
		{in: "1", want: Player1},
		{in: "p2", want: Player2},
		{in: "player1", want: Player1},
		{in: "0", wantErr: true},
		{in: "player", wantErr: true},
		{in: "x", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePlayer(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFighterRecord_Entry(t *testing.T) {
	rec := FighterRecord{Name: "Doge", Avatar: "doge.png", Locked: true, UnlockKey: "unlock.wins", UnlockArg: []any{10}}
	e := rec.Entry()

	if e.Unlock.IsUnlocked() {
		t.Fatal("expected locked entry")
	}
	if e.Unlock.Reason.Key != "unlock.wins" || len(e.Unlock.Reason.Args) != 1 {
		t.Fatalf("unexpected reason: %+v", e.Unlock.Reason)
	}

	open := FighterRecord{Name: "Cat"}.Entry()
	if !open.Unlock.IsUnlocked() {
		t.Fatal("expected unlocked entry")
	}
}

func TestGormFighter_RecordArgs(t *testing.T) {
	f := GormFighter{Name: "Doge", Locked: true, UnlockKey: "unlock.wins",
		UnlockParam: map[string]interface{}{"args": []interface{}{float64(10)}}}

	rec := f.Record()
	if len(rec.UnlockArg) != 1 || rec.UnlockArg[0] != float64(10) {
		t.Fatalf("unexpected args: %#v", rec.UnlockArg)
	}
}

func TestNewGormFighter(t *testing.T) {
	rec := FighterRecord{TeamLabel: "red", Slot: 2, Name: "Blaze", Locked: true, UnlockKey: "unlock.wins", UnlockArg: []any{10}}
	back := NewGormFighter(rec).Record()

	if back.TeamLabel != "red" || back.Slot != 2 || !back.Locked || back.UnlockKey != "unlock.wins" {
		t.Fatalf("unexpected record: %+v", back)
	}
	if len(back.UnlockArg) != 1 || back.UnlockArg[0] != 10 {
		t.Fatalf("unexpected args: %#v", back.UnlockArg)
	}
}
