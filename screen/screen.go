// screen/screen.go
package screen

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/pkg/errors"

	"github.com/wfunc/fighterselect/display"
	"github.com/wfunc/fighterselect/event"
	"github.com/wfunc/fighterselect/logger"
	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/network"
	"github.com/wfunc/fighterselect/panel"
	"github.com/wfunc/fighterselect/selection"
	"github.com/wfunc/fighterselect/slot"
)

// Status 表示选人界面的业务状态
type Status int

const (
	StatusOpen Status = iota
	StatusValidated
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusValidated:
		return "validated"
	case StatusClosed:
		return "closed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

var (
	ErrScreenClosed = errors.New("screen shut down")
	ErrSeatTaken    = errors.New("seat already taken")
	ErrNotSeated    = errors.New("session holds no seat")
	ErrNotOpen      = errors.New("screen is not open for selection")
)

// Options configure one screen.
type Options struct {
	Players             int
	FrameColors         map[models.Player]color.RGBA
	UnknownAvatar       string
	UnknownLabel        string
	SelectFirstOnJoin   bool
	RequireAllConfirmed bool

	Roster      models.Roster
	Teams       []models.TeamInfo
	Fighters    selection.RosterSource
	Joins       selection.JoinSource
	Metrics     selection.Metrics
	Broadcaster Broadcaster
	Catalog     *display.Catalog
}

// SeatView is one player's part of a View.
type SeatView struct {
	Player  models.Player          `json:"player"`
	Session string                 `json:"session,omitempty"`
	State   string                 `json:"state"`
	Record  models.SelectionRecord `json:"record"`
	Panel   panel.View             `json:"panel"`
	Display display.SurfaceState   `json:"display"`
}

// View is a read-only snapshot of a screen.
type View struct {
	ID             string     `json:"id"`
	Status         string     `json:"status"`
	Joining        bool       `json:"joining"`
	Seats          []SeatView `json:"seats"`
	Message        string     `json:"message,omitempty"`
	MessageVisible bool       `json:"message_visible"`
	BackVisible    bool       `json:"back_visible"`
	StartEnabled   bool       `json:"start_enabled"`
}

// Screen hosts one selection coordinator. Every input goes through the inbox and
// is handled to completion on the screen goroutine before the next one.
type Screen struct {
	ID        string
	CreatedAt time.Time

	opts     Options
	inbox    chan Msg
	coord    *selection.Coordinator
	panels   map[models.Player]*panel.RosterPanel
	surfaces map[models.Player]*display.StateSurface
	message  *display.TextDisplay
	back     *display.ToggleButton
	start    *display.ToggleButton
	seats    map[models.Player]string
	status   Status
	joining  bool

	joiningEnabled  event.Event[struct{}]
	joiningDisabled event.Event[struct{}]
	relay           event.Group

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds the panels, displays and coordinator of a screen, opens it and starts its loop.
func New(parent context.Context, id string, opts Options) (*Screen, error) {
	if opts.Players == 0 {
		opts.Players = slot.MaxPlayers
	}

	s := &Screen{
		ID:        id,
		CreatedAt: time.Now(),
		opts:      opts,
		inbox:     make(chan Msg, 64),
		panels:    make(map[models.Player]*panel.RosterPanel, opts.Players),
		surfaces:  make(map[models.Player]*display.StateSurface, opts.Players),
		seats:     make(map[models.Player]string, opts.Players),
		done:      make(chan struct{}),
	}

	bindings := make([]slot.Binding, 0, opts.Players)
	for i := 1; i <= opts.Players; i++ {
		p := models.Player(i)
		s.panels[p] = panel.New(fmt.Sprintf("%s/%s", id, p))
		s.surfaces[p] = &display.StateSurface{OnChange: s.displayChanged(p)}
		bindings = append(bindings, slot.Binding{
			Player:     p,
			Panel:      s.panels[p],
			Display:    s.surfaces[p],
			FrameColor: opts.FrameColors[p],
		})
	}
	table, err := slot.NewTable(bindings...)
	if err != nil {
		return nil, err
	}

	s.message = display.NewTextDisplay(opts.Catalog)
	s.message.OnChange = s.messageChanged
	s.back = display.NewToggleButton(true)
	s.back.OnChange = s.buttonChanged("back")
	s.start = display.NewToggleButton(false)
	s.start.OnChange = s.buttonChanged("start")

	s.coord, err = selection.New(table, s, selection.Options{
		Roster:              opts.Fighters,
		Messages:            s.message,
		BackButton:          s.back,
		StartButton:         s.start,
		Metrics:             opts.Metrics,
		UnknownAvatar:       opts.UnknownAvatar,
		UnknownLabel:        opts.UnknownLabel,
		SelectFirstOnJoin:   opts.SelectFirstOnJoin,
		RequireAllConfirmed: opts.RequireAllConfirmed,
	})
	if err != nil {
		return nil, err
	}
	s.coord.OnFighterSelected.Subscribe(s.fighterSelected)
	s.coord.OnSelectionReverted.Subscribe(s.selectionReverted)
	s.coord.OnSelectionValidated.Subscribe(s.selectionValidated)
	s.coord.OnBack.Subscribe(s.closeScreen)

	s.coord.PopulateSlots(opts.Roster)
	if len(opts.Teams) > 0 {
		for _, p := range s.coord.Players() {
			if err := s.coord.SetSlotsTeamForPlayer(p, opts.Teams[0]); err != nil {
				logger.Log.Warnw("default team not in roster", "screen", id, "team", opts.Teams[0].Label, "error", err)
			}
		}
	}
	s.coord.Open()

	s.ctx, s.cancel = context.WithCancel(parent)
	if opts.Joins != nil {
		s.relay.Add(opts.Joins.SubscribeJoiningEnabled(func() { s.post(joinSignal{enabled: true}) }))
		s.relay.Add(opts.Joins.SubscribeJoiningDisabled(func() { s.post(joinSignal{enabled: false}) }))
		if r, ok := opts.Joins.(joiningReporter); ok && r.Joining() {
			s.setJoining(true)
		}
	}

	go s.loop()
	return s, nil
}

// --- 实现 selection.JoinSource 接口 ---

func (s *Screen) SubscribeJoiningEnabled(fn func()) *event.Subscription {
	return s.joiningEnabled.Subscribe(func(struct{}) { fn() })
}

func (s *Screen) SubscribeJoiningDisabled(fn func()) *event.Subscription {
	return s.joiningDisabled.Subscribe(func(struct{}) { fn() })
}

// Inbox exposes the raw inbox, mainly for tests.
func (s *Screen) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the loop has exited.
func (s *Screen) Done() <-chan struct{} { return s.done }

// loop 是界面的主循环
func (s *Screen) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			if _, ok := m.(Shutdown); ok {
				s.shutdown()
				return
			}
			s.handle(m)
		}
	}
}

func (s *Screen) handle(m Msg) {
	switch msg := m.(type) {
	case joinSignal:
		s.setJoining(msg.enabled)

	case Click:
		msg.Reply <- s.whenOpen(func() error { return s.coord.ClickSlot(msg.Player, msg.Slot) })

	case Navigate:
		msg.Reply <- s.whenOpen(func() error { return s.coord.NavigatePanel(msg.Player, msg.Delta) })

	case RandomPick:
		res := PickResult{Index: panel.NoSlot}
		res.Err = s.whenOpen(func() error {
			idx, err := s.coord.SelectRandomFighterForPlayer(msg.Player, msg.Available)
			if err != nil {
				return err
			}
			res.Index = idx
			return s.coord.SetDisplayedFighterByIndex(msg.Player, s.panels[msg.Player].Team(), idx, false)
		})
		msg.Reply <- res

	case SelectTeam:
		msg.Reply <- s.whenOpen(func() error { return s.selectTeam(msg.Player, msg.Team) })

	case StartMatch:
		msg.Reply <- s.whenOpen(s.startMatch)

	case Back:
		msg.Reply <- s.whenOpen(func() error {
			s.coord.Back()
			return nil
		})

	case Reopen:
		s.reopen()
		msg.Reply <- nil

	case ClaimSeat:
		msg.Reply <- s.claimSeat(msg.SessionID, msg.Player)

	case ReleaseSeat:
		msg.Reply <- s.releaseSeat(msg.SessionID)

	case GetView:
		msg.Reply <- s.view()

	default:
		logger.Log.Warnw("unknown screen message", "screen", s.ID, "type", fmt.Sprintf("%T", m))
	}
}

func (s *Screen) whenOpen(fn func() error) error {
	if s.status != StatusOpen {
		return errors.Wrapf(ErrNotOpen, "screen %s is %s", s.ID, s.status)
	}
	return fn()
}

func (s *Screen) setJoining(enabled bool) {
	s.joining = enabled
	if enabled {
		s.joiningEnabled.Emit(struct{}{})
	} else {
		s.joiningDisabled.Emit(struct{}{})
	}
	s.updateStartButton()
}

func (s *Screen) selectTeam(player models.Player, team models.Team) error {
	for _, info := range s.opts.Teams {
		if info.Label == team {
			return s.coord.SetSlotsTeamForPlayer(player, info)
		}
	}
	return s.coord.SetSlotsTeamForPlayer(player, models.TeamInfo{Label: team, Name: string(team)})
}

func (s *Screen) startMatch() error {
	if !s.coord.AllConfirmed() {
		return selection.ErrSelectionIncomplete
	}
	return s.coord.NotifySelectionValidated()
}

func (s *Screen) reopen() {
	s.status = StatusOpen
	s.coord.Open()
	if s.joining {
		s.joiningEnabled.Emit(struct{}{})
	}
	logger.Log.Infow("screen reopened", "screen", s.ID)
}

func (s *Screen) claimSeat(sessionID string, player models.Player) error {
	if _, err := s.coord.SeatState(player); err != nil {
		return err
	}
	if holder := s.seats[player]; holder != "" && holder != sessionID {
		return errors.Wrapf(ErrSeatTaken, "%s on screen %s", player, s.ID)
	}

	for p, holder := range s.seats {
		if holder == sessionID && p != player {
			s.vacate(p)
		}
	}
	s.seats[player] = sessionID
	if s.joining && s.status == StatusOpen {
		if err := s.coord.EnablePanelForPlayer(player, true, s.opts.SelectFirstOnJoin); err != nil {
			return err
		}
	}
	logger.Log.Infow("seat claimed", "screen", s.ID, "player", player, "session", sessionID)
	return nil
}

func (s *Screen) releaseSeat(sessionID string) error {
	for p, holder := range s.seats {
		if holder == sessionID {
			s.vacate(p)
			return nil
		}
	}
	return errors.Wrapf(ErrNotSeated, "session %s on screen %s", sessionID, s.ID)
}

// vacate frees the seat and drops whatever that player had picked.
func (s *Screen) vacate(player models.Player) {
	delete(s.seats, player)
	if s.status == StatusOpen {
		if err := s.coord.EnablePanelForPlayer(player, false, false); err != nil {
			logger.Log.Warnw("unable to disable panel", "screen", s.ID, "player", player, "error", err)
		}
		s.updateStartButton()
	}
	logger.Log.Infow("seat released", "screen", s.ID, "player", player)
}

func (s *Screen) updateStartButton() {
	s.coord.SetStartMatchButtonEnabled(s.status == StatusOpen && s.coord.AllConfirmed())
}

func (s *Screen) view() View {
	text, visible := s.message.Text()
	v := View{
		ID:             s.ID,
		Status:         s.status.String(),
		Joining:        s.joining,
		Message:        text,
		MessageVisible: visible,
		BackVisible:    s.back.Visible(),
		StartEnabled:   s.start.Enabled(),
	}
	for _, p := range s.coord.Players() {
		st, _ := s.coord.SeatState(p)
		rec, _ := s.coord.Record(p)
		v.Seats = append(v.Seats, SeatView{
			Player:  p,
			Session: s.seats[p],
			State:   st,
			Record:  rec,
			Panel:   s.panels[p].View(),
			Display: s.surfaces[p].State(),
		})
	}
	return v
}

// --- coordinator events ---

func (s *Screen) fighterSelected(sel selection.FighterSelected) {
	s.updateStartButton()
	s.broadcast(network.MsgTypeFighterSelected, network.FighterSelected{
		Player: sel.Player,
		Team:   sel.Team,
		Index:  sel.Index,
		Unlock: sel.Unlock,
	})
}

// selectionReverted retracts a pick that was announced before a later handler failed.
func (s *Screen) selectionReverted(sel selection.FighterSelected) {
	s.updateStartButton()
	s.broadcast(network.MsgTypeSelectionReverted, network.FighterSelected{
		Player: sel.Player,
		Team:   sel.Team,
		Index:  sel.Index,
		Unlock: sel.Unlock,
	})
}

func (s *Screen) selectionValidated(struct{}) {
	s.status = StatusValidated
	s.coord.SetStartMatchButtonEnabled(false)
	logger.Log.Infow("selection validated", "screen", s.ID)
	s.broadcast(network.MsgTypeSelectionValidated, s.view())
}

func (s *Screen) closeScreen(struct{}) {
	s.status = StatusClosed
	s.coord.DisableAllPanels()
	logger.Log.Infow("screen closed by back action", "screen", s.ID)
	s.broadcast(network.MsgTypeScreenClosed, nil)
}

// --- display callbacks ---

func (s *Screen) displayChanged(player models.Player) func(display.SurfaceState) {
	return func(st display.SurfaceState) {
		s.broadcast(network.MsgTypeDisplayUpdate, network.DisplayUpdate{
			Player:   player,
			Avatar:   st.Avatar,
			Label:    st.Label,
			Animated: st.Animated,
		})
	}
}

func (s *Screen) messageChanged(text string, visible bool) {
	s.broadcast(network.MsgTypeUnlockMessage, network.UnlockMessage{Text: text, Visible: visible})
}

func (s *Screen) buttonChanged(name string) func(enabled, visible bool) {
	return func(enabled, visible bool) {
		s.broadcast(network.MsgTypeButtonState, network.ButtonState{Button: name, Enabled: enabled, Visible: visible})
	}
}

func (s *Screen) broadcast(msgID uint16, v interface{}) {
	if s.opts.Broadcaster == nil {
		return
	}
	var data []byte
	if v != nil {
		data = network.Marshal(v)
	}
	if err := s.opts.Broadcaster.BroadcastToAll(msgID, data); err != nil {
		logger.Log.Warnw("broadcast failed", "screen", s.ID, "msg", msgID, "error", err)
	}
}

func (s *Screen) post(m Msg) {
	select {
	case s.inbox <- m:
	case <-s.ctx.Done():
	}
}

func (s *Screen) shutdown() {
	s.relay.UnsubscribeAll()
	s.coord.Close()
	s.cancel()
	logger.Log.Infow("screen shut down", "screen", s.ID)
}
