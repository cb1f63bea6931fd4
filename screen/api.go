package screen

import (
	"context"

	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/panel"
)

// Click delivers a slot click for player and waits until it was handled.
func (s *Screen) Click(ctx context.Context, player models.Player, index int) error {
	return s.call(ctx, func(reply chan error) Msg { return Click{Player: player, Slot: index, Reply: reply} })
}

func (s *Screen) Navigate(ctx context.Context, player models.Player, delta int) error {
	return s.call(ctx, func(reply chan error) Msg { return Navigate{Player: player, Delta: delta, Reply: reply} })
}

func (s *Screen) SelectTeam(ctx context.Context, player models.Player, team models.Team) error {
	return s.call(ctx, func(reply chan error) Msg { return SelectTeam{Player: player, Team: team, Reply: reply} })
}

// StartMatch validates the selection. It fails unless every player is confirmed.
func (s *Screen) StartMatch(ctx context.Context) error {
	return s.call(ctx, func(reply chan error) Msg { return StartMatch{Reply: reply} })
}

func (s *Screen) Back(ctx context.Context) error {
	return s.call(ctx, func(reply chan error) Msg { return Back{Reply: reply} })
}

func (s *Screen) Reopen(ctx context.Context) error {
	return s.call(ctx, func(reply chan error) Msg { return Reopen{Reply: reply} })
}

func (s *Screen) ClaimSeat(ctx context.Context, sessionID string, player models.Player) error {
	return s.call(ctx, func(reply chan error) Msg { return ClaimSeat{SessionID: sessionID, Player: player, Reply: reply} })
}

func (s *Screen) ReleaseSeat(ctx context.Context, sessionID string) error {
	return s.call(ctx, func(reply chan error) Msg { return ReleaseSeat{SessionID: sessionID, Reply: reply} })
}

// RandomPick highlights and previews a random fighter among available.
func (s *Screen) RandomPick(ctx context.Context, player models.Player, available []int) (int, error) {
	reply := make(chan PickResult, 1)
	if err := s.send(ctx, RandomPick{Player: player, Available: available, Reply: reply}); err != nil {
		return panel.NoSlot, err
	}
	select {
	case res := <-reply:
		return res.Index, res.Err
	case <-ctx.Done():
		return panel.NoSlot, ctx.Err()
	case <-s.done:
		return panel.NoSlot, ErrScreenClosed
	}
}

// View snapshots the screen.
func (s *Screen) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := s.send(ctx, GetView{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-s.done:
		return View{}, ErrScreenClosed
	}
}

// Shutdown stops the loop and detaches the coordinator. It does not wait.
func (s *Screen) Shutdown() {
	select {
	case s.inbox <- Shutdown{}:
	case <-s.done:
	default:
		s.cancel()
	}
}

func (s *Screen) send(ctx context.Context, m Msg) error {
	select {
	case s.inbox <- m:
		return nil
	case <-s.done:
		return ErrScreenClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Screen) call(ctx context.Context, build func(reply chan error) Msg) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, build(reply)); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrScreenClosed
	}
}
