// Package slot binds players to their roster panel and display surface.
package slot

import (
	"image/color"
	"sort"

	"github.com/pkg/errors"

	"github.com/wfunc/fighterselect/display"
	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/panel"
)

// MaxPlayers is the largest supported table.
const MaxPlayers = 2

var (
	ErrUnboundPlayer          = errors.New("unbound player")
	ErrDuplicateBinding       = errors.New("player bound twice")
	ErrIncompleteBinding      = errors.New("binding needs a panel and a display")
	ErrUnsupportedPlayerCount = errors.New("unsupported player count")
)

// Binding is one seat: the player, the panel they drive and the surface showing their pick.
type Binding struct {
	Player     models.Player
	Panel      *panel.RosterPanel
	Display    display.Surface
	FrameColor color.RGBA
}

// Table resolves players to bindings. It is written once by NewTable and only read afterwards.
type Table struct {
	bindings map[models.Player]*Binding
	ordered  []*Binding
}

// NewTable validates bindings: players must run contiguously from Player1 with no
// duplicates and every binding needs a panel and a display.
func NewTable(bindings ...Binding) (*Table, error) {
	if len(bindings) == 0 || len(bindings) > MaxPlayers {
		return nil, errors.Wrapf(ErrUnsupportedPlayerCount, "got %d, want 1..%d", len(bindings), MaxPlayers)
	}

	t := &Table{bindings: make(map[models.Player]*Binding, len(bindings))}
	for i := range bindings {
		b := bindings[i]
		if b.Panel == nil || b.Display == nil {
			return nil, errors.Wrapf(ErrIncompleteBinding, "%s", b.Player)
		}
		if _, dup := t.bindings[b.Player]; dup {
			return nil, errors.Wrapf(ErrDuplicateBinding, "%s", b.Player)
		}
		t.bindings[b.Player] = &b
		t.ordered = append(t.ordered, &b)
	}

	sort.Slice(t.ordered, func(i, j int) bool { return t.ordered[i].Player < t.ordered[j].Player })
	for i, b := range t.ordered {
		if want := models.Player(i + 1); b.Player != want {
			return nil, errors.Wrapf(ErrUnboundPlayer, "seats must run from %s, missing %s", models.Player1, want)
		}
	}
	return t, nil
}

// Resolve returns the binding of player. It never falls back to another seat.
func (t *Table) Resolve(player models.Player) (*Binding, error) {
	b, ok := t.bindings[player]
	if !ok {
		return nil, errors.Wrapf(ErrUnboundPlayer, "%s", player)
	}
	return b, nil
}

// All returns the bindings ordered by player.
func (t *Table) All() []*Binding {
	return t.ordered
}

// Players lists the bound players in order.
func (t *Table) Players() []models.Player {
	out := make([]models.Player, len(t.ordered))
	for i, b := range t.ordered {
		out[i] = b.Player
	}
	return out
}

// Len is the number of seats.
func (t *Table) Len() int { return len(t.ordered) }
