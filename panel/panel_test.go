package panel

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wfunc/fighterselect/logger"
	"github.com/wfunc/fighterselect/models"
)

const teamA models.Team = "A"
const teamB models.Team = "B"

// stubRandom always returns the same position in the candidate list.
type stubRandom struct{ pos int }

func (r stubRandom) IntN(n int) int { return r.pos % n }

func roster(names ...string) []models.FighterEntry {
	out := make([]models.FighterEntry, len(names))
	for i, n := range names {
		out[i] = models.FighterEntry{Name: n, Avatar: n + ".png"}
	}
	return out
}

func enabledPanel(t *testing.T, entries []models.FighterEntry, opts ...Option) *RosterPanel {
	t.Helper()
	p := New("test", opts...)
	p.Populate(teamA, entries, false)
	p.SetEnabled(true)
	return p
}

func TestPopulate_ClearsHighlightUnlessPreserved(t *testing.T) {
	p := enabledPanel(t, roster("a", "b", "c"))
	require.True(t, p.SelectSlot(2))
	p.HighlightSlot(1, true)

	p.Populate(teamA, roster("x", "y", "z"), true)
	assert.Equal(t, 2, p.Cursor(), "preserved cursor still in range")
	assert.True(t, p.Blinking(1))

	p.Populate(teamA, roster("x", "y"), true)
	assert.Equal(t, NoSlot, p.Cursor(), "preserved cursor re-validated against the shorter roster")

	require.True(t, p.SelectSlot(0))
	p.Populate(teamA, roster("q", "r"), false)
	assert.Equal(t, NoSlot, p.Cursor())
	assert.False(t, p.Blinking(1))
}

func TestPopulate_EmptyIsNoOpButDehighlights(t *testing.T) {
	p := enabledPanel(t, roster("a", "b"))
	require.True(t, p.SelectSlot(1))

	p.Populate(teamA, nil, true)

	assert.Equal(t, 2, p.Len(), "content untouched")
	assert.Equal(t, NoSlot, p.Cursor())
}

func TestPopulate_OtherTeamKeepsDisplayedSlots(t *testing.T) {
	p := enabledPanel(t, roster("a", "b"))
	require.True(t, p.SelectSlot(1))

	p.Populate(teamB, roster("c"), false)
	assert.Equal(t, teamA, p.Team())
	assert.Equal(t, 1, p.Cursor())

	require.NoError(t, p.DisplayTeam(teamB))
	assert.Equal(t, "c", p.Entries()[0].Name)
	assert.Equal(t, NoSlot, p.Cursor(), "cursor 1 is out of range for team B")

	err := p.DisplayTeam("C")
	assert.True(t, errors.Is(err, ErrUnknownTeam))
}

func TestSetEnabled_DisableClearsCursor(t *testing.T) {
	p := enabledPanel(t, roster("a", "b"))
	require.True(t, p.SelectSlot(1))

	p.SetEnabled(false)
	assert.Equal(t, NoSlot, p.Cursor())
	assert.False(t, p.SelectSlot(0), "disabled panels ignore programmatic selection")
}

func TestSelectSlot_OutOfRangeIsNoOp(t *testing.T) {
	p := enabledPanel(t, roster("a", "b"))
	require.True(t, p.SelectSlot(0))

	assert.False(t, p.SelectSlot(2))
	assert.False(t, p.SelectSlot(-1))
	assert.Equal(t, 0, p.Cursor())
}

func TestSelectRandom_EmptyCandidates(t *testing.T) {
	p := enabledPanel(t, roster("a", "b", "c"))
	require.True(t, p.SelectSlot(1))

	for _, cands := range [][]int{nil, {}, {7, -1}} {
		_, err := p.SelectRandom(cands)
		assert.True(t, errors.Is(err, ErrEmptyCandidateSet), "candidates %v", cands)
		assert.Equal(t, 1, p.Cursor(), "selection unchanged")
	}
}

func TestSelectRandom_PickIsCandidateAndHighlighted(t *testing.T) {
	p := enabledPanel(t, roster("a", "b", "c", "d", "e"))
	candidates := []int{4, 1, 3}

	for i := 0; i < 50; i++ {
		got, err := p.SelectRandom(candidates)
		require.NoError(t, err)
		assert.Contains(t, candidates, got)
		assert.Equal(t, got, p.Cursor())
	}
}

func TestSelectRandom_UsesRandomSource(t *testing.T) {
	p := enabledPanel(t, roster("a", "b", "c", "d"), WithRandom(stubRandom{pos: 1}))

	got, err := p.SelectRandom([]int{3, 0, 3, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, got, "candidates are de-duplicated and ordered before drawing")
}

func TestSelectRandom_Uniform(t *testing.T) {
	p := enabledPanel(t, roster("a", "b", "c"), WithRandom(rand.New(rand.NewPCG(1, 2))))
	counts := map[int]int{}

	for i := 0; i < 3000; i++ {
		got, err := p.SelectRandom([]int{0, 2})
		require.NoError(t, err)
		counts[got]++
	}

	assert.Zero(t, counts[1])
	assert.InDelta(t, 1500, counts[0], 200)
	assert.InDelta(t, 1500, counts[2], 200)
}

func TestSelectRandom_DisabledPanel(t *testing.T) {
	p := New("test")
	p.Populate(teamA, roster("a", "b"), false)

	got, err := p.SelectRandom([]int{1})
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.Equal(t, 1, p.Cursor())

	p.SetEnabled(false)
	assert.Equal(t, NoSlot, p.Cursor())
}

func TestClick_EmitsOncePerAcceptedClick(t *testing.T) {
	entries := roster("a", "b")
	entries[1].Unlock = models.LockedBecause(models.LocalizedMessage{Key: "unlock.wins", Args: []any{10}})
	p := enabledPanel(t, entries)

	var got []SlotClick
	p.OnSlotClicked.Subscribe(func(c SlotClick) { got = append(got, c) })

	require.NoError(t, p.Click(1))
	require.Len(t, got, 1)
	assert.Equal(t, SlotClick{Team: teamA, Index: 1, Unlock: entries[1].Unlock, Previous: NoSlot}, got[0])
	assert.Equal(t, 1, p.Cursor())

	require.NoError(t, p.Click(0))
	assert.Equal(t, 1, got[1].Previous)
}

func TestRestoreCursor(t *testing.T) {
	p := enabledPanel(t, roster("a", "b", "c"))
	require.NoError(t, p.Click(2))

	p.RestoreCursor(1)
	assert.Equal(t, 1, p.Cursor())
	p.RestoreCursor(NoSlot)
	assert.Equal(t, NoSlot, p.Cursor())
	p.RestoreCursor(7)
	assert.Equal(t, NoSlot, p.Cursor())
}

func TestClick_DiscardedClicksEmitNothing(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	defer logger.Set(nil)

	p := enabledPanel(t, roster("a", "b"))
	fired := 0
	p.OnSlotClicked.Subscribe(func(SlotClick) { fired++ })

	err := p.Click(5)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	p.SetInteractable(false)
	err = p.Click(0)
	assert.True(t, errors.Is(err, ErrNotInteractable))

	p.SetInteractable(true)
	p.SetEnabled(false)
	err = p.Click(0)
	assert.True(t, errors.Is(err, ErrPanelDisabled))

	assert.Zero(t, fired)
	assert.Equal(t, NoSlot, p.Cursor())
	assert.Equal(t, 3, logs.FilterMessage("click discarded").Len())
}

func TestClick_StaleIndexAfterRepopulate(t *testing.T) {
	p := enabledPanel(t, roster("a", "b", "c"))
	fired := 0
	p.OnSlotClicked.Subscribe(func(SlotClick) { fired++ })

	p.Populate(teamA, roster("a"), true)
	err := p.Click(2)

	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	assert.Zero(t, fired)
}

func TestHighlightSlot(t *testing.T) {
	p := enabledPanel(t, roster("a", "b"))

	assert.True(t, p.HighlightSlot(1, true))
	assert.False(t, p.HighlightSlot(3, true))
	assert.Equal(t, []int{1}, p.View().Blinking)
	assert.Equal(t, NoSlot, p.Cursor(), "blinking does not select")

	p.TurnOffBlinking()
	assert.False(t, p.Blinking(1))
}

func TestNavigate_WrapsAndEmits(t *testing.T) {
	p := enabledPanel(t, roster("a", "b", "c"))
	var moves []int
	p.OnCursorMoved.Subscribe(func(m CursorMove) { moves = append(moves, m.Index) })

	assert.True(t, p.Navigate(1))
	assert.True(t, p.Navigate(-1))
	assert.True(t, p.Navigate(-1))
	assert.Equal(t, []int{0, 2, 1}, moves)

	p.SetEnabled(false)
	assert.False(t, p.Navigate(1))
	assert.Len(t, moves, 3)
}

func TestView(t *testing.T) {
	p := enabledPanel(t, roster("a"))
	p.SetTeamName("Doges")
	p.SetJoiningState(true)

	v := p.View()
	assert.Equal(t, teamA, v.Team)
	assert.Equal(t, "Doges", v.TeamName)
	assert.True(t, v.Enabled)
	assert.True(t, v.Interactable)
	assert.True(t, v.Joining)
	assert.Len(t, v.Entries, 1)
}

func TestSlot(t *testing.T) {
	p := enabledPanel(t, roster("a", "b"))

	e, err := p.Slot(teamA, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", e.Name)

	_, err = p.Slot(teamA, 2)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = p.Slot(teamB, 0)
	assert.True(t, errors.Is(err, ErrUnknownTeam))
}
