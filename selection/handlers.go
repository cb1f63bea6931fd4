package selection

import (
	"github.com/pkg/errors"

	"github.com/wfunc/fighterselect/logger"
	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/panel"
)

func (c *Coordinator) handleJoiningEnabled() {
	for _, s := range c.ordered() {
		p := s.binding.Panel
		p.SetJoiningState(true)
		p.SetEnabled(true)
		p.SetInteractable(true)
		if c.opts.SelectFirstOnJoin {
			p.SelectSlot(0)
		}
		c.transition(s, StateJoined)
	}
}

func (c *Coordinator) handleJoiningDisabled() {
	for _, s := range c.ordered() {
		p := s.binding.Panel
		p.SetJoiningState(false)
		p.SetEnabled(false)
		c.transition(s, StateIdle)
	}
}

func (c *Coordinator) handleCursorMoved(s *seat) {
	if s.machine.Current() == StateJoined {
		c.transition(s, StateBrowsing)
	}
}

func (c *Coordinator) handleSlotClicked(s *seat, click panel.SlotClick) {
	if c.closed {
		return
	}

	entry, err := s.binding.Panel.Slot(click.Team, click.Index)
	if err != nil {
		logger.Log.Errorw("unable to select fighter, index out of bounds",
			"player", s.GetPlayer(), "team", click.Team, "index", click.Index, "error", err)
		c.discard(s, err)
		return
	}

	if click.Unlock.Locked {
		c.opts.Metrics.LockedSelectionAttempted(s.GetPlayer())
		c.opts.Messages.DisplayMessage(click.Unlock.Reason)
		if s.machine.Current() != StateConfirmed {
			c.transition(s, StateBrowsing)
		}
		return
	}

	prevState, prevRecord, prevShown := s.machine.Current(), s.record, s.shown

	c.transition(s, StateConfirmed)
	if s.machine.Current() != StateConfirmed {
		s.binding.Panel.RestoreCursor(click.Previous)
		return
	}
	s.record = models.SelectionRecord{Valid: true, Team: click.Team, Index: click.Index, Unlock: click.Unlock}
	c.show(s, shownFighter{avatar: entry.Avatar, label: entry.Name}, true)

	sel := FighterSelected{Player: s.GetPlayer(), Team: click.Team, Index: click.Index, Unlock: click.Unlock}
	if err := c.forward(sel); err != nil {
		logger.Log.Errorw("unable to select fighter, rolling back",
			"player", sel.Player, "team", sel.Team, "index", sel.Index, "error", err)
		s.machine.RestoreID(prevState)
		s.record = prevRecord
		c.show(s, prevShown, false)
		s.binding.Panel.RestoreCursor(click.Previous)
		// subscribers that already saw the pick get told it is gone
		c.OnSelectionReverted.Emit(sel)
		return
	}
	c.opts.Messages.SetEnabled(false)
	c.opts.Metrics.FighterSelected(s.GetPlayer(), click.Team)
}

// forward raises OnFighterSelected, turning a panicking subscriber into an error.
func (c *Coordinator) forward(sel FighterSelected) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("fighter selected handler panicked: %v", r)
		}
	}()
	c.OnFighterSelected.Emit(sel)
	return nil
}
