package state

import (
	"github.com/pkg/errors"

	"github.com/wfunc/fighterselect/logger"
)

// Seat state IDs.
const (
	IDIdle      = "idle"
	IDJoined    = "joined"
	IDBrowsing  = "browsing"
	IDConfirmed = "confirmed"
)

// ErrUnknownState is returned by SeatMachine.Enter for an ID it does not know.
var ErrUnknownState = errors.New("unknown seat state")

// IdleState: panel disabled, nothing highlighted.
type IdleState struct{ SeatStateBase }

// JoinedState: panel enabled, waiting for the first move.
type JoinedState struct{ SeatStateBase }

// BrowsingState: the player moves the cursor without a confirmed pick.
type BrowsingState struct{ SeatStateBase }

// ConfirmedState: an unlocked fighter was clicked and accepted.
type ConfirmedState struct{ SeatStateBase }

func (s *IdleState) OnEnter() {
	logger.Log.Debugw("seat idle", "player", s.Seat.GetPlayer())
}

func (s *JoinedState) OnEnter() {
	logger.Log.Debugw("seat joined", "player", s.Seat.GetPlayer())
}

// OnExit drops the confirmed record: any way out of this state invalidates it.
func (s *ConfirmedState) OnExit() {
	s.Seat.ClearSelection()
}

// SeatMachine is the strict per-player lifecycle idle → joined → browsing → confirmed.
type SeatMachine struct {
	*BaseStateMachine
	states map[string]State
}

// NewSeatMachine starts seat in idle.
func NewSeatMachine(seat SeatContext) *SeatMachine {
	idle := &IdleState{SeatStateBase{ID: IDIdle, Seat: seat}}
	joined := &JoinedState{SeatStateBase{ID: IDJoined, Seat: seat}}
	browsing := &BrowsingState{SeatStateBase{ID: IDBrowsing, Seat: seat}}
	confirmed := &ConfirmedState{SeatStateBase{ID: IDConfirmed, Seat: seat}}

	m := &SeatMachine{
		BaseStateMachine: NewStrictStateMachine(idle),
		states: map[string]State{
			IDIdle:      idle,
			IDJoined:    joined,
			IDBrowsing:  browsing,
			IDConfirmed: confirmed,
		},
	}

	allowed := map[State][]State{
		idle:      {joined},
		joined:    {idle, browsing, confirmed},
		browsing:  {idle, joined, confirmed},
		confirmed: {idle, joined, confirmed},
	}
	for from, tos := range allowed {
		for _, to := range tos {
			_ = m.AddTransition(from, to, nil)
		}
	}
	return m
}

// Enter moves to the state with the given ID.
func (m *SeatMachine) Enter(id string) error {
	s, ok := m.states[id]
	if !ok {
		return errors.Wrapf(ErrUnknownState, "%q", id)
	}
	return m.ChangeState(s)
}

// Current returns the ID of the current state.
func (m *SeatMachine) Current() string {
	return m.GetCurrentState().GetID()
}

// RestoreID puts the state with the given ID back without hooks.
func (m *SeatMachine) RestoreID(id string) {
	if s, ok := m.states[id]; ok {
		m.Restore(s)
	}
}
