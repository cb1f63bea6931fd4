package selection

import (
	"github.com/wfunc/fighterselect/event"
	"github.com/wfunc/fighterselect/models"
)

// JoinSource delivers the process-wide joining signals.
type JoinSource interface {
	SubscribeJoiningEnabled(fn func()) *event.Subscription
	SubscribeJoiningDisabled(fn func()) *event.Subscription
}

// RosterSource resolves a fighter by team and slot.
type RosterSource interface {
	FighterByIndex(team models.Team, index int) (models.FighterEntry, error)
}

// Metrics receives counters about what happened on the screen.
type Metrics interface {
	FighterSelected(player models.Player, team models.Team)
	LockedSelectionAttempted(player models.Player)
	ClickDiscarded(player models.Player, reason string)
	SelectionValidated()
	SeatStateChanged(player models.Player, from, to string)
}

type nopMetrics struct{}

func (nopMetrics) FighterSelected(models.Player, models.Team)     {}
func (nopMetrics) LockedSelectionAttempted(models.Player)         {}
func (nopMetrics) ClickDiscarded(models.Player, string)           {}
func (nopMetrics) SelectionValidated()                            {}
func (nopMetrics) SeatStateChanged(models.Player, string, string) {}
