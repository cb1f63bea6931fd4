// models/models.go
package models

import (
	"fmt"
	"strconv"
)

// Player identifies a seat on the selection screen. It is only ever used as a lookup key.
type Player int

const (
	PlayerNone Player = iota
	Player1
	Player2
)

func (p Player) String() string {
	if p <= PlayerNone {
		return "player(none)"
	}
	return "player" + strconv.Itoa(int(p))
}

// ParsePlayer accepts "1", "p1" or "player1".
func ParsePlayer(s string) (Player, error) {
	orig := s
	for _, prefix := range []string{"player", "p"} {
		if len(s) > len(prefix) && s[:len(prefix)] == prefix {
			s = s[len(prefix):]
			break
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return PlayerNone, fmt.Errorf("invalid player %q", orig)
	}
	return Player(n), nil
}

// Team identifies a roster group. A player's current team decides which fighters the panel shows.
type Team string

// TeamInfo pairs a team label with its display name.
type TeamInfo struct {
	Label Team   `json:"label"`
	Name  string `json:"name"`
}

// LocalizedMessage is a localizable payload. The core never renders it; message
// display collaborators resolve Key (with Args) into text.
type LocalizedMessage struct {
	Key  string `json:"key"`
	Args []any  `json:"args,omitempty"`
}

// UnlockState tells whether a roster entry may be confirmed. Locked entries stay
// visible and carry the reason shown to the player.
type UnlockState struct {
	Locked bool             `json:"locked"`
	Reason LocalizedMessage `json:"reason"`
}

// Unlocked returns the state of a freely selectable entry.
func Unlocked() UnlockState { return UnlockState{} }

// LockedBecause returns a locked state explained by reason.
func LockedBecause(reason LocalizedMessage) UnlockState {
	return UnlockState{Locked: true, Reason: reason}
}

// IsUnlocked reports whether the entry is a valid final selection.
func (u UnlockState) IsUnlocked() bool { return !u.Locked }

func (u UnlockState) String() string {
	if !u.Locked {
		return "unlocked"
	}
	return "locked(" + u.Reason.Key + ")"
}

// FighterEntry describes one selectable roster item. Entries are passed by value and never mutated.
type FighterEntry struct {
	Name   string      `json:"name"`
	Avatar string      `json:"avatar"`
	Unlock UnlockState `json:"unlock"`
}

// SelectionRecord is the last confirmed pick of one player. The zero value means nothing is confirmed.
type SelectionRecord struct {
	Valid  bool        `json:"valid"`
	Team   Team        `json:"team"`
	Index  int         `json:"index"`
	Unlock UnlockState `json:"unlock"`
}

// Roster maps every team to its ordered fighters.
type Roster map[Team][]FighterEntry
