package screen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/fighterselect/broadcast"
	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/network"
	"github.com/wfunc/fighterselect/selection"
	"github.com/wfunc/fighterselect/slot"
)

// MockBroadcaster is a test double for the Broadcaster interface.
type MockBroadcaster struct {
	mu   sync.Mutex
	sent []uint16
}

func (m *MockBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msgID)
	return nil
}

func (m *MockBroadcaster) BroadcastToPlayer(player models.Player, msgID uint16, data []byte) error {
	return m.BroadcastToAll(msgID, data)
}

func (m *MockBroadcaster) count(msgID uint16) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range m.sent {
		if id == msgID {
			n++
		}
	}
	return n
}

func testRoster() models.Roster {
	return models.Roster{
		"red": {
			{Name: "Ace", Avatar: "ace.png", Unlock: models.Unlocked()},
			{Name: "Blaze", Avatar: "blaze.png", Unlock: models.LockedBecause(models.LocalizedMessage{Key: "locked"})},
			{Name: "Cobra", Avatar: "cobra.png", Unlock: models.Unlocked()},
		},
		"blue": {
			{Name: "Dune", Avatar: "dune.png", Unlock: models.Unlocked()},
		},
	}
}

func newTestScreen(t *testing.T, joins *broadcast.JoinBroadcaster) (*Screen, *MockBroadcaster) {
	t.Helper()
	b := &MockBroadcaster{}
	s, err := New(context.Background(), "screen_1", Options{
		Roster:            testRoster(),
		Teams:             []models.TeamInfo{{Label: "red", Name: "Red Team"}, {Label: "blue", Name: "Blue Team"}},
		Joins:             joins,
		Broadcaster:       b,
		SelectFirstOnJoin: true,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(s.Shutdown)
	return s, b
}

func mustView(t *testing.T, s *Screen) View {
	t.Helper()
	v, err := s.View(context.Background())
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	return v
}

func TestManager_CreateAndGetScreen(t *testing.T) {
	manager := NewManager(context.Background())
	t.Cleanup(manager.ShutdownAll)

	s, err := manager.CreateScreen(Options{Roster: testRoster()})
	if err != nil {
		t.Fatalf("CreateScreen failed: %v", err)
	}
	if s.ID == "" {
		t.Fatal("CreateScreen should assign an ID")
	}

	retrieved, exists := manager.GetScreen(s.ID)
	if !exists || retrieved != s {
		t.Fatal("GetScreen should return the created screen")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 screen, got %d", manager.Count())
	}

	manager.RemoveScreen(s.ID)
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("removed screen did not stop")
	}
	if _, exists := manager.GetScreen(s.ID); exists {
		t.Error("screen should be gone after RemoveScreen")
	}
}

func TestScreen_InitialView(t *testing.T) {
	s, _ := newTestScreen(t, nil)
	v := mustView(t, s)

	if v.Status != "open" || v.Joining || v.StartEnabled || !v.BackVisible {
		t.Errorf("unexpected initial view: %+v", v)
	}
	if len(v.Seats) != 2 {
		t.Fatalf("Expected 2 seats, got %d", len(v.Seats))
	}
	for _, seat := range v.Seats {
		if seat.State != selection.StateIdle {
			t.Errorf("%s should start idle, got %s", seat.Player, seat.State)
		}
		if seat.Panel.Team != "red" || seat.Panel.TeamName != "Red Team" {
			t.Errorf("%s shows team %q (%q)", seat.Player, seat.Panel.Team, seat.Panel.TeamName)
		}
	}
}

func TestScreen_ClaimSeat(t *testing.T) {
	s, _ := newTestScreen(t, nil)
	ctx := context.Background()

	if err := s.ClaimSeat(ctx, "sess_a", models.Player1); err != nil {
		t.Fatalf("ClaimSeat failed: %v", err)
	}
	if err := s.ClaimSeat(ctx, "sess_b", models.Player1); !errors.Is(err, ErrSeatTaken) {
		t.Errorf("Expected ErrSeatTaken, got %v", err)
	}
	if err := s.ClaimSeat(ctx, "sess_b", models.Player(5)); !errors.Is(err, slot.ErrUnboundPlayer) {
		t.Errorf("Expected ErrUnboundPlayer, got %v", err)
	}

	// moving to another seat frees the first one
	if err := s.ClaimSeat(ctx, "sess_a", models.Player2); err != nil {
		t.Fatalf("ClaimSeat failed: %v", err)
	}
	v := mustView(t, s)
	if v.Seats[0].Session != "" || v.Seats[1].Session != "sess_a" {
		t.Errorf("unexpected seats: %+v", v.Seats)
	}

	if err := s.ReleaseSeat(ctx, "sess_x"); !errors.Is(err, ErrNotSeated) {
		t.Errorf("Expected ErrNotSeated, got %v", err)
	}
}

func TestScreen_SelectionFlow(t *testing.T) {
	joins := broadcast.NewJoinBroadcaster()
	s, b := newTestScreen(t, joins)
	ctx := context.Background()

	joins.EnableJoining()
	v := mustView(t, s)
	if !v.Joining || v.Seats[0].State != selection.StateJoined || v.Seats[0].Panel.Cursor != 0 {
		t.Fatalf("joining broadcast not applied: %+v", v.Seats[0])
	}

	if err := s.Click(ctx, models.Player1, 1); err != nil {
		t.Fatalf("Click failed: %v", err)
	}
	v = mustView(t, s)
	if v.Seats[0].State != selection.StateBrowsing || !v.MessageVisible || v.Message != "locked" {
		t.Errorf("locked click should show the unlock message: %+v", v)
	}

	if err := s.StartMatch(ctx); !errors.Is(err, selection.ErrSelectionIncomplete) {
		t.Errorf("Expected ErrSelectionIncomplete, got %v", err)
	}

	if err := s.Click(ctx, models.Player1, 0); err != nil {
		t.Fatalf("Click failed: %v", err)
	}
	if err := s.SelectTeam(ctx, models.Player2, "blue"); err != nil {
		t.Fatalf("SelectTeam failed: %v", err)
	}
	if err := s.Click(ctx, models.Player2, 0); err != nil {
		t.Fatalf("Click failed: %v", err)
	}

	v = mustView(t, s)
	if !v.StartEnabled {
		t.Error("start should be enabled once everybody confirmed")
	}
	if v.Seats[1].Display.Label != "Dune" || v.Seats[1].Record.Team != "blue" {
		t.Errorf("unexpected player2 seat: %+v", v.Seats[1])
	}

	if err := s.StartMatch(ctx); err != nil {
		t.Fatalf("StartMatch failed: %v", err)
	}
	v = mustView(t, s)
	if v.Status != "validated" || v.BackVisible || v.StartEnabled {
		t.Errorf("unexpected validated view: %+v", v)
	}
	if err := s.Click(ctx, models.Player1, 2); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Expected ErrNotOpen, got %v", err)
	}

	if b.count(network.MsgTypeFighterSelected) != 2 {
		t.Errorf("Expected 2 fighter selected packets, got %d", b.count(network.MsgTypeFighterSelected))
	}
	if b.count(network.MsgTypeSelectionValidated) != 1 {
		t.Errorf("Expected 1 validated packet, got %d", b.count(network.MsgTypeSelectionValidated))
	}
	if b.count(network.MsgTypeDisplayUpdate) == 0 {
		t.Error("display updates should be broadcast")
	}
}

func TestScreen_ReleaseSeatDropsPick(t *testing.T) {
	joins := broadcast.NewJoinBroadcaster()
	joins.EnableJoining()
	s, _ := newTestScreen(t, joins)
	ctx := context.Background()

	if err := s.ClaimSeat(ctx, "sess_a", models.Player1); err != nil {
		t.Fatalf("ClaimSeat failed: %v", err)
	}
	if err := s.Click(ctx, models.Player1, 2); err != nil {
		t.Fatalf("Click failed: %v", err)
	}
	if err := s.ReleaseSeat(ctx, "sess_a"); err != nil {
		t.Fatalf("ReleaseSeat failed: %v", err)
	}

	seat := mustView(t, s).Seats[0]
	if seat.State != selection.StateIdle || seat.Record.Valid || seat.Panel.Enabled {
		t.Errorf("released seat should be idle without a pick: %+v", seat)
	}
}

func TestScreen_RandomPick(t *testing.T) {
	joins := broadcast.NewJoinBroadcaster()
	joins.EnableJoining()
	s, _ := newTestScreen(t, joins)

	idx, err := s.RandomPick(context.Background(), models.Player2, []int{0, 2})
	if err != nil {
		t.Fatalf("RandomPick failed: %v", err)
	}
	if idx != 0 && idx != 2 {
		t.Fatalf("RandomPick returned %d", idx)
	}

	seat := mustView(t, s).Seats[1]
	if seat.Panel.Cursor != idx || seat.Display.Label != testRoster()["red"][idx].Name {
		t.Errorf("random pick not shown: %+v", seat)
	}
	if seat.Record.Valid {
		t.Error("random pick must not confirm")
	}
}

func TestScreen_BackAndReopen(t *testing.T) {
	s, b := newTestScreen(t, nil)
	ctx := context.Background()

	if err := s.Back(ctx); err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	if v := mustView(t, s); v.Status != "closed" {
		t.Errorf("Expected closed, got %s", v.Status)
	}
	if b.count(network.MsgTypeScreenClosed) != 1 {
		t.Error("closing should be broadcast")
	}
	if err := s.Navigate(ctx, models.Player1, 1); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Expected ErrNotOpen, got %v", err)
	}

	if err := s.Reopen(ctx); err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if v := mustView(t, s); v.Status != "open" || !v.BackVisible {
		t.Errorf("unexpected reopened view: %+v", v)
	}
}

func TestScreen_Shutdown(t *testing.T) {
	joins := broadcast.NewJoinBroadcaster()
	s, _ := newTestScreen(t, joins)

	s.Shutdown()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("screen did not stop")
	}

	if err := s.Click(context.Background(), models.Player1, 0); !errors.Is(err, ErrScreenClosed) {
		t.Errorf("Expected ErrScreenClosed, got %v", err)
	}

	// the relay is gone, so this must not block
	joins.EnableJoining()
	joins.DisableJoining()
}

func TestManager_CreateRejectsDuplicateID(t *testing.T) {
	manager := NewManager(context.Background())
	t.Cleanup(manager.ShutdownAll)

	if _, err := manager.Create("main", Options{Roster: testRoster()}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := manager.Create("main", Options{Roster: testRoster()}); !errors.Is(err, ErrDuplicateScreen) {
		t.Errorf("Expected ErrDuplicateScreen, got %v", err)
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 screen, got %d", manager.Count())
	}
}

func TestScreen_RevertedPickIsRetracted(t *testing.T) {
	joins := broadcast.NewJoinBroadcaster()
	joins.EnableJoining()
	s, b := newTestScreen(t, joins)
	ctx := context.Background()

	// registered after the screen's own handler, so the pick is announced first
	s.coord.OnFighterSelected.Subscribe(func(sel selection.FighterSelected) {
		if sel.Index == 2 {
			panic("stale roster")
		}
	})

	if err := s.Click(ctx, models.Player1, 2); err != nil {
		t.Fatalf("Click failed: %v", err)
	}
	if b.count(network.MsgTypeFighterSelected) != 1 || b.count(network.MsgTypeSelectionReverted) != 1 {
		t.Errorf("Expected the pick to be announced then retracted, got %d/%d",
			b.count(network.MsgTypeFighterSelected), b.count(network.MsgTypeSelectionReverted))
	}

	seat := mustView(t, s).Seats[0]
	if seat.Record.Valid || seat.State == selection.StateConfirmed {
		t.Errorf("reverted pick must not stay confirmed: %+v", seat)
	}
	if seat.Panel.Cursor != 0 {
		t.Errorf("cursor should go back to slot 0, got %d", seat.Panel.Cursor)
	}
}
