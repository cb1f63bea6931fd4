// Package panel implements the per-player roster panel: the ordered fighter slots of
// the team a player is looking at, the cursor, enable/interactable gating and the
// click event that feeds the selection coordinator.
package panel

import (
	"math/rand/v2"
	"sort"

	"github.com/pkg/errors"

	"github.com/wfunc/fighterselect/event"
	"github.com/wfunc/fighterselect/logger"
	"github.com/wfunc/fighterselect/models"
)

var (
	ErrIndexOutOfRange   = errors.New("slot index out of range")
	ErrEmptyCandidateSet = errors.New("empty candidate set")
	ErrPanelDisabled     = errors.New("panel disabled")
	ErrNotInteractable   = errors.New("panel not interactable")
	ErrUnknownTeam       = errors.New("team has no slots on this panel")
)

// NoSlot is the cursor value when nothing is highlighted.
const NoSlot = -1

// SlotClick is emitted for every accepted click.
type SlotClick struct {
	Team     models.Team
	Index    int
	Unlock   models.UnlockState
	Previous int // cursor before the click, NoSlot when nothing was highlighted
}

// CursorMove is emitted when input moves the highlight.
type CursorMove struct {
	Team  models.Team
	Index int
}

// Random is the source SelectRandom draws from.
type Random interface {
	IntN(n int) int
}

// View is a read-only snapshot of the panel.
type View struct {
	Team         models.Team           `json:"team"`
	TeamName     string                `json:"team_name"`
	Entries      []models.FighterEntry `json:"entries"`
	Cursor       int                   `json:"cursor"`
	Blinking     []int                 `json:"blinking,omitempty"`
	Enabled      bool                  `json:"enabled"`
	Interactable bool                  `json:"interactable"`
	Joining      bool                  `json:"joining"`
}

// RosterPanel holds every team's slots and shows one team at a time.
type RosterPanel struct {
	name         string
	rosters      map[models.Team][]models.FighterEntry
	team         models.Team
	teamName     string
	cursor       int
	blinking     map[int]bool
	enabled      bool
	interactable bool
	joining      bool
	rng          Random

	OnSlotClicked event.Event[SlotClick]
	OnCursorMoved event.Event[CursorMove]
}

// Option configures a panel.
type Option func(*RosterPanel)

// WithRandom replaces the random source used by SelectRandom.
func WithRandom(r Random) Option {
	return func(p *RosterPanel) { p.rng = r }
}

// New returns an empty, disabled panel. name only shows up in diagnostics.
func New(name string, opts ...Option) *RosterPanel {
	p := &RosterPanel{
		name:         name,
		rosters:      make(map[models.Team][]models.FighterEntry),
		cursor:       NoSlot,
		blinking:     make(map[int]bool),
		interactable: true,
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the diagnostic name.
func (p *RosterPanel) Name() string { return p.name }

// ClearSlots drops every team's slots and the highlight.
func (p *RosterPanel) ClearSlots() {
	clear(p.rosters)
	p.clearHighlight()
}

// Populate replaces the slots of team. When team is the one on display the
// highlight is cleared unless preserveHighlight is set, in which case it is kept
// only if still in range. An empty sequence leaves the content alone but still
// de-highlights the panel.
func (p *RosterPanel) Populate(team models.Team, entries []models.FighterEntry, preserveHighlight bool) {
	if len(entries) == 0 {
		logger.Log.Debugw("ignoring empty roster", "panel", p.name, "team", team)
		if team == p.team {
			p.clearHighlight()
		}
		return
	}

	p.rosters[team] = append([]models.FighterEntry(nil), entries...)
	if p.team == "" {
		p.team = team
	}
	if team != p.team {
		return
	}

	if !preserveHighlight {
		p.clearHighlight()
		return
	}
	p.revalidate()
}

// PopulateCurrent replaces the slots of the team on display.
func (p *RosterPanel) PopulateCurrent(entries []models.FighterEntry, preserveHighlight bool) {
	p.Populate(p.team, entries, preserveHighlight)
}

// DisplayTeam switches the panel to team's slots.
func (p *RosterPanel) DisplayTeam(team models.Team) error {
	if _, ok := p.rosters[team]; !ok {
		return errors.Wrapf(ErrUnknownTeam, "panel %s, team %q", p.name, team)
	}
	if team == p.team {
		return nil
	}
	p.team = team
	clear(p.blinking)
	p.revalidate()
	return nil
}

// SetTeamName sets the team caption.
func (p *RosterPanel) SetTeamName(name string) { p.teamName = name }

// Team returns the team on display.
func (p *RosterPanel) Team() models.Team { return p.team }

// Entries returns the slots on display.
func (p *RosterPanel) Entries() []models.FighterEntry { return p.rosters[p.team] }

// Len is the number of slots on display.
func (p *RosterPanel) Len() int { return len(p.rosters[p.team]) }

// Entry returns the fighter at index of the team on display.
func (p *RosterPanel) Entry(index int) (models.FighterEntry, error) {
	entries := p.rosters[p.team]
	if index < 0 || index >= len(entries) {
		return models.FighterEntry{}, errors.Wrapf(ErrIndexOutOfRange, "panel %s, index %d of %d", p.name, index, len(entries))
	}
	return entries[index], nil
}

// Slot returns the fighter at index of any team loaded on the panel.
func (p *RosterPanel) Slot(team models.Team, index int) (models.FighterEntry, error) {
	entries, ok := p.rosters[team]
	if !ok {
		return models.FighterEntry{}, errors.Wrapf(ErrUnknownTeam, "panel %s, team %q", p.name, team)
	}
	if index < 0 || index >= len(entries) {
		return models.FighterEntry{}, errors.Wrapf(ErrIndexOutOfRange, "panel %s, team %q, index %d of %d", p.name, team, index, len(entries))
	}
	return entries[index], nil
}

// SetEnabled controls whether the panel takes input. Disabling drops the cursor.
func (p *RosterPanel) SetEnabled(enabled bool) {
	p.enabled = enabled
	if !enabled {
		p.cursor = NoSlot
	}
}

// SetInteractable freezes click-to-confirm without hiding the panel.
func (p *RosterPanel) SetInteractable(interactable bool) { p.interactable = interactable }

// SetJoiningState mirrors the joining broadcast.
func (p *RosterPanel) SetJoiningState(joining bool) { p.joining = joining }

func (p *RosterPanel) Enabled() bool      { return p.enabled }
func (p *RosterPanel) Interactable() bool { return p.interactable }
func (p *RosterPanel) Joining() bool      { return p.joining }

// Cursor returns the highlighted slot or NoSlot.
func (p *RosterPanel) Cursor() int { return p.cursor }

// SelectSlot moves the highlight programmatically. It is a no-op, reporting false,
// when the panel is disabled or index is out of range.
func (p *RosterPanel) SelectSlot(index int) bool {
	if !p.enabled || !p.inRange(index) {
		return false
	}
	p.cursor = index
	return true
}

// RestoreCursor puts the cursor back where a rejected click found it. Out of range
// indexes clear it.
func (p *RosterPanel) RestoreCursor(index int) {
	if !p.inRange(index) {
		index = NoSlot
	}
	p.cursor = index
}

// SelectRandom picks uniformly among the in-range candidates, highlights the pick
// and returns it. Duplicate candidates do not weigh the draw. A disabled panel still
// takes the pick; the next SetEnabled(false) clears it.
func (p *RosterPanel) SelectRandom(candidates []int) (int, error) {
	seen := make(map[int]bool, len(candidates))
	valid := make([]int, 0, len(candidates))
	for _, c := range candidates {
		if seen[c] || !p.inRange(c) {
			continue
		}
		seen[c] = true
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return NoSlot, errors.Wrapf(ErrEmptyCandidateSet, "panel %s", p.name)
	}

	sort.Ints(valid)
	pick := valid[p.rng.IntN(len(valid))]
	p.cursor = pick
	return pick, nil
}

// HighlightSlot toggles the attention blink on index without selecting it.
func (p *RosterPanel) HighlightSlot(index int, on bool) bool {
	if !p.inRange(index) {
		return false
	}
	if on {
		p.blinking[index] = true
	} else {
		delete(p.blinking, index)
	}
	return true
}

// Blinking reports whether index blinks.
func (p *RosterPanel) Blinking(index int) bool { return p.blinking[index] }

// TurnOffBlinking stops every blink.
func (p *RosterPanel) TurnOffBlinking() { clear(p.blinking) }

// Navigate moves the cursor by delta, wrapping around, and emits OnCursorMoved.
// With no cursor the first move lands on slot 0.
func (p *RosterPanel) Navigate(delta int) bool {
	n := p.Len()
	if !p.enabled || n == 0 {
		return false
	}

	next := 0
	if p.cursor != NoSlot {
		next = ((p.cursor+delta)%n + n) % n
	}
	p.cursor = next
	p.OnCursorMoved.Emit(CursorMove{Team: p.team, Index: next})
	return true
}

// Click handles a completed user click on index. Clicks on a disabled or frozen
// panel, or on a slot that no longer exists, are discarded with a diagnostic.
func (p *RosterPanel) Click(index int) error {
	var err error
	switch {
	case !p.enabled:
		err = ErrPanelDisabled
	case !p.interactable:
		err = ErrNotInteractable
	case !p.inRange(index):
		err = ErrIndexOutOfRange
	}
	if err != nil {
		logger.Log.Debugw("click discarded", "panel", p.name, "index", index, "slots", p.Len(), "reason", err)
		return errors.Wrapf(err, "panel %s, index %d", p.name, index)
	}

	entry := p.rosters[p.team][index]
	prev := p.cursor
	p.cursor = index
	p.OnSlotClicked.Emit(SlotClick{Team: p.team, Index: index, Unlock: entry.Unlock, Previous: prev})
	return nil
}

// View snapshots the panel.
func (p *RosterPanel) View() View {
	v := View{
		Team:         p.team,
		TeamName:     p.teamName,
		Entries:      append([]models.FighterEntry(nil), p.rosters[p.team]...),
		Cursor:       p.cursor,
		Enabled:      p.enabled,
		Interactable: p.interactable,
		Joining:      p.joining,
	}
	for i := range p.blinking {
		v.Blinking = append(v.Blinking, i)
	}
	sort.Ints(v.Blinking)
	return v
}

func (p *RosterPanel) inRange(index int) bool {
	return index >= 0 && index < p.Len()
}

func (p *RosterPanel) clearHighlight() {
	p.cursor = NoSlot
	clear(p.blinking)
}

func (p *RosterPanel) revalidate() {
	if !p.inRange(p.cursor) {
		p.cursor = NoSlot
	}
	for i := range p.blinking {
		if !p.inRange(i) {
			delete(p.blinking, i)
		}
	}
}
