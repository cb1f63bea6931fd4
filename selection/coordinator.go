// Package selection coordinates the fighter selection screen: it listens to every
// player's roster panel and to the joining broadcast, gates locked fighters, keeps
// one selection record per player and raises the screen-level events the owner
// reacts to.
//
// The coordinator is single-threaded. All methods and event handlers must be
// called from the goroutine that owns the screen.
package selection

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/wfunc/fighterselect/display"
	"github.com/wfunc/fighterselect/event"
	"github.com/wfunc/fighterselect/logger"
	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/panel"
	"github.com/wfunc/fighterselect/slot"
	"github.com/wfunc/fighterselect/state"
)

// DefaultUnknownLabel is shown for a mystery pick when no label is configured.
const DefaultUnknownLabel = "???"

var (
	ErrSelectionIncomplete = errors.New("not every player has confirmed a fighter")
	ErrNoBindings          = errors.New("coordinator needs a binding table")
)

// Seat states as reported by SeatState.
const (
	StateIdle      = state.IDIdle
	StateJoined    = state.IDJoined
	StateBrowsing  = state.IDBrowsing
	StateConfirmed = state.IDConfirmed
)

// FighterSelected is raised when a player confirms an unlocked fighter.
type FighterSelected struct {
	Player models.Player
	Team   models.Team
	Index  int
	Unlock models.UnlockState
}

// Options are the collaborators and settings supplied at composition time.
// Nil collaborators are replaced by no-ops.
type Options struct {
	Roster              RosterSource
	Messages            display.MessageDisplay
	BackButton          display.Button
	StartButton         display.Button
	Metrics             Metrics
	UnknownAvatar       string
	UnknownLabel        string
	SelectFirstOnJoin   bool
	RequireAllConfirmed bool
}

type shownFighter struct {
	avatar string
	label  string
}

type seat struct {
	binding *slot.Binding
	machine *state.SeatMachine
	record  models.SelectionRecord
	shown   shownFighter
}

func (s *seat) GetPlayer() models.Player { return s.binding.Player }
func (s *seat) ClearSelection()          { s.record = models.SelectionRecord{} }

// Coordinator is the selection screen state machine.
type Coordinator struct {
	table     *slot.Table
	seats     map[models.Player]*seat
	opts      Options
	subs      event.Group
	validated bool
	closed    bool

	OnFighterSelected    event.Event[FighterSelected]
	OnSelectionReverted  event.Event[FighterSelected]
	OnSelectionValidated event.Event[struct{}]
	OnBack               event.Event[struct{}]
}

// New wires the coordinator to every bound panel and, when joins is not nil, to the
// joining broadcast. Frame colors are applied to each display. Close undoes the wiring.
func New(table *slot.Table, joins JoinSource, opts Options) (*Coordinator, error) {
	if table == nil || table.Len() == 0 {
		return nil, ErrNoBindings
	}
	if opts.Messages == nil {
		opts.Messages = nopMessages{}
	}
	if opts.BackButton == nil {
		opts.BackButton = nopButton{}
	}
	if opts.StartButton == nil {
		opts.StartButton = nopButton{}
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	if opts.UnknownLabel == "" {
		opts.UnknownLabel = DefaultUnknownLabel
	}

	c := &Coordinator{
		table: table,
		seats: make(map[models.Player]*seat, table.Len()),
		opts:  opts,
	}

	for _, b := range table.All() {
		s := &seat{binding: b}
		s.machine = state.NewSeatMachine(s)
		c.seats[b.Player] = s

		b.Display.SetFrameColor(b.FrameColor)
		c.subs.Add(b.Panel.OnSlotClicked.Subscribe(func(click panel.SlotClick) { c.handleSlotClicked(s, click) }))
		c.subs.Add(b.Panel.OnCursorMoved.Subscribe(func(panel.CursorMove) { c.handleCursorMoved(s) }))
	}

	if joins != nil {
		c.subs.Add(joins.SubscribeJoiningEnabled(c.handleJoiningEnabled))
		c.subs.Add(joins.SubscribeJoiningDisabled(c.handleJoiningDisabled))
	}
	return c, nil
}

// Close detaches the coordinator from every panel and from the join source.
func (c *Coordinator) Close() {
	c.subs.UnsubscribeAll()
	c.closed = true
}

// Open resets the screen for a new visit: every seat idle with no record, panels
// disabled, blinking off, back action visible and start disabled.
func (c *Coordinator) Open() {
	c.validated = false
	for _, s := range c.ordered() {
		p := s.binding.Panel
		p.SetEnabled(false)
		p.SetInteractable(true)
		p.TurnOffBlinking()
		c.transition(s, StateIdle)
		s.record = models.SelectionRecord{}
	}
	c.opts.Messages.SetEnabled(false)
	c.opts.BackButton.SetVisible(true)
	c.opts.BackButton.SetEnabled(true)
	c.opts.StartButton.SetEnabled(false)
}

// PopulateSlots loads every team into every panel. Panels whose team disappeared
// fall back to the first team by label that has slots.
func (c *Coordinator) PopulateSlots(roster models.Roster) {
	teams := make([]models.Team, 0, len(roster))
	for team := range roster {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })

	for _, b := range c.table.All() {
		b.Panel.ClearSlots()
		for _, team := range teams {
			b.Panel.Populate(team, roster[team], true)
		}
		if b.Panel.Len() == 0 && len(teams) > 0 {
			c.fallbackTeam(b, teams)
		}
	}
}

// fallbackTeam shows the first team that has slots on b's panel.
func (c *Coordinator) fallbackTeam(b *slot.Binding, teams []models.Team) {
	for _, team := range teams {
		err := b.Panel.DisplayTeam(team)
		if err == nil {
			return
		}
		logger.Log.Warnw("fallback team has no slots", "player", b.Player, "team", team, "error", err)
	}
}

// SetSlotsTeamForPlayer shows team on player's panel.
func (c *Coordinator) SetSlotsTeamForPlayer(player models.Player, team models.TeamInfo) error {
	s, err := c.seat(player)
	if err != nil {
		return err
	}
	if err := s.binding.Panel.DisplayTeam(team.Label); err != nil {
		return err
	}
	s.binding.Panel.SetTeamName(team.Name)
	return nil
}

// EnablePanelForPlayer turns one player's panel on or off independently of the
// broadcast. Enabling joins an idle player; disabling returns them to idle, which
// drops any confirmed pick.
func (c *Coordinator) EnablePanelForPlayer(player models.Player, enable, selectFirstOnEnable bool) error {
	s, err := c.seat(player)
	if err != nil {
		return err
	}

	p := s.binding.Panel
	p.SetEnabled(enable)
	if !enable {
		c.transition(s, StateIdle)
		return nil
	}

	p.SetInteractable(true)
	if selectFirstOnEnable {
		p.SelectSlot(0)
	}
	if s.machine.Current() == StateIdle {
		c.transition(s, StateJoined)
	}
	return nil
}

// DisableAllPanels freezes click-to-confirm on every panel. Panels stay visible.
func (c *Coordinator) DisableAllPanels() {
	for _, b := range c.table.All() {
		b.Panel.SetInteractable(false)
	}
}

// NotifySelectionValidated freezes every panel, hides the back action and raises
// OnSelectionValidated. The caller must make sure every player is confirmed; with
// RequireAllConfirmed the coordinator checks it and refuses otherwise.
func (c *Coordinator) NotifySelectionValidated() error {
	if c.opts.RequireAllConfirmed && !c.AllConfirmed() {
		return ErrSelectionIncomplete
	}

	c.DisableAllPanels()
	c.opts.BackButton.SetVisible(false)
	c.validated = true
	c.opts.Metrics.SelectionValidated()
	logger.Log.Infow("selection validated", "records", c.records())
	c.OnSelectionValidated.Emit(struct{}{})
	return nil
}

// Back asks the owner to leave the screen. Ignored once the selection is validated.
func (c *Coordinator) Back() {
	if c.validated {
		return
	}
	c.OnBack.Emit(struct{}{})
}

// DisplayUnlockMessage shows why a fighter is locked.
func (c *Coordinator) DisplayUnlockMessage(msg models.LocalizedMessage) {
	c.opts.Messages.DisplayMessage(msg)
}

// HideUnlockMessage hides the unlock explanation.
func (c *Coordinator) HideUnlockMessage() {
	c.opts.Messages.SetEnabled(false)
}

// SetDisplayedFighterForPlayer shows entry on player's display.
func (c *Coordinator) SetDisplayedFighterForPlayer(player models.Player, entry models.FighterEntry, animate bool) error {
	s, err := c.seat(player)
	if err != nil {
		return err
	}
	c.show(s, shownFighter{avatar: entry.Avatar, label: entry.Name}, animate)
	return nil
}

// SetDisplayedFighterByIndex shows the fighter at team/index. The roster source is
// asked first; without one the player's panel content is used.
func (c *Coordinator) SetDisplayedFighterByIndex(player models.Player, team models.Team, index int, animate bool) error {
	s, err := c.seat(player)
	if err != nil {
		return err
	}

	var entry models.FighterEntry
	if c.opts.Roster != nil {
		entry, err = c.opts.Roster.FighterByIndex(team, index)
	} else {
		entry, err = s.binding.Panel.Slot(team, index)
	}
	if err != nil {
		return err
	}
	c.show(s, shownFighter{avatar: entry.Avatar, label: entry.Name}, animate)
	return nil
}

// SelectRandomFighterForPlayer highlights a random slot among available and returns
// it. Keeping the two players apart is up to the caller.
func (c *Coordinator) SelectRandomFighterForPlayer(player models.Player, available []int) (int, error) {
	s, err := c.seat(player)
	if err != nil {
		return panel.NoSlot, err
	}
	return s.binding.Panel.SelectRandom(available)
}

// DisplayUnknownFighterForPlayer shows the mystery placeholder. Records and panels are untouched.
func (c *Coordinator) DisplayUnknownFighterForPlayer(player models.Player) error {
	s, err := c.seat(player)
	if err != nil {
		return err
	}
	c.show(s, shownFighter{avatar: c.opts.UnknownAvatar, label: c.opts.UnknownLabel}, false)
	return nil
}

// HighlightSlotForPlayer toggles the attention blink on one slot.
func (c *Coordinator) HighlightSlotForPlayer(player models.Player, index int, on bool) error {
	s, err := c.seat(player)
	if err != nil {
		return err
	}
	if !s.binding.Panel.HighlightSlot(index, on) {
		return errors.Wrapf(panel.ErrIndexOutOfRange, "%s, index %d", player, index)
	}
	return nil
}

// SetStartMatchButtonEnabled toggles the start action.
func (c *Coordinator) SetStartMatchButtonEnabled(enabled bool) {
	c.opts.StartButton.SetEnabled(enabled)
}

// ResetAllDisplays stops blinking on every panel.
func (c *Coordinator) ResetAllDisplays() {
	for _, b := range c.table.All() {
		b.Panel.TurnOffBlinking()
	}
}

// ClickSlot delivers a user click to player's panel. Clicks the panel discards are
// logged and counted but never reported as errors; only an unbound player is.
func (c *Coordinator) ClickSlot(player models.Player, index int) error {
	s, err := c.seat(player)
	if err != nil {
		return err
	}
	if err := s.binding.Panel.Click(index); err != nil {
		c.discard(s, err)
	}
	return nil
}

// NavigatePanel moves player's cursor by delta.
func (c *Coordinator) NavigatePanel(player models.Player, delta int) error {
	s, err := c.seat(player)
	if err != nil {
		return err
	}
	s.binding.Panel.Navigate(delta)
	return nil
}

// SeatState returns the lifecycle state of player.
func (c *Coordinator) SeatState(player models.Player) (string, error) {
	s, err := c.seat(player)
	if err != nil {
		return "", err
	}
	return s.machine.Current(), nil
}

// Record returns player's confirmed selection.
func (c *Coordinator) Record(player models.Player) (models.SelectionRecord, error) {
	s, err := c.seat(player)
	if err != nil {
		return models.SelectionRecord{}, err
	}
	return s.record, nil
}

// AllConfirmed reports whether every bound player has a confirmed fighter.
func (c *Coordinator) AllConfirmed() bool {
	for _, s := range c.seats {
		if s.machine.Current() != StateConfirmed {
			return false
		}
	}
	return true
}

// Validated reports whether NotifySelectionValidated ran since the last Open.
func (c *Coordinator) Validated() bool { return c.validated }

// Players lists the bound players.
func (c *Coordinator) Players() []models.Player { return c.table.Players() }

func (c *Coordinator) seat(player models.Player) (*seat, error) {
	if _, err := c.table.Resolve(player); err != nil {
		return nil, err
	}
	return c.seats[player], nil
}

func (c *Coordinator) ordered() []*seat {
	out := make([]*seat, 0, len(c.seats))
	for _, p := range c.table.Players() {
		out = append(out, c.seats[p])
	}
	return out
}

func (c *Coordinator) records() map[models.Player]models.SelectionRecord {
	out := make(map[models.Player]models.SelectionRecord, len(c.seats))
	for p, s := range c.seats {
		out[p] = s.record
	}
	return out
}

func (c *Coordinator) show(s *seat, f shownFighter, animate bool) {
	s.binding.Display.UpdateDisplay(f.avatar, f.label, animate)
	s.shown = f
}

func (c *Coordinator) transition(s *seat, to string) {
	from := s.machine.Current()
	if from == to && to != StateConfirmed {
		return
	}
	if err := s.machine.Enter(to); err != nil {
		logger.Log.Warnw("seat transition refused", "player", s.GetPlayer(), "from", from, "to", to, "error", err)
		return
	}
	c.opts.Metrics.SeatStateChanged(s.GetPlayer(), from, to)
}

func (c *Coordinator) discard(s *seat, err error) {
	reason := "unknown"
	switch {
	case errors.Is(err, panel.ErrIndexOutOfRange):
		reason = "out_of_range"
	case errors.Is(err, panel.ErrPanelDisabled):
		reason = "disabled"
	case errors.Is(err, panel.ErrNotInteractable):
		reason = "not_interactable"
	}
	c.opts.Metrics.ClickDiscarded(s.GetPlayer(), reason)
	logger.Log.Debugw("click discarded", "player", s.GetPlayer(), "reason", reason, "error", err)
}
