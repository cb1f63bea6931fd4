package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/persistence"
	"github.com/wfunc/fighterselect/selection"
)

var _ selection.RosterSource = (*RosterService)(nil)

func seededService(t *testing.T) *RosterService {
	t.Helper()
	svc := NewRosterService(persistence.NewMemoryStore())
	_, err := svc.Import(context.Background(),
		[]models.TeamInfo{{Label: "red", Name: "Red"}, {Label: "blue", Name: "Blue"}},
		[]models.FighterRecord{
			{TeamLabel: "red", Slot: 0, Name: "Ace", Avatar: "ace.png"},
			{TeamLabel: "red", Slot: 5, Name: "Blaze", Avatar: "blaze.png", Locked: true, UnlockKey: "unlock.wins", UnlockArg: []any{10}},
			{TeamLabel: "blue", Slot: 0, Name: "Dune", Avatar: "dune.png"},
		})
	require.NoError(t, err)
	return svc
}

func TestRosterService_Load(t *testing.T) {
	svc := seededService(t)

	assert.Equal(t, []models.TeamInfo{{Label: "red", Name: "Red"}, {Label: "blue", Name: "Blue"}}, svc.Teams())

	roster := svc.Roster()
	require.Len(t, roster["red"], 2)
	assert.True(t, roster["red"][0].Unlock.IsUnlocked())
	assert.False(t, roster["red"][1].Unlock.IsUnlocked())
	assert.Equal(t, "unlock.wins", roster["red"][1].Unlock.Reason.Key)
}

func TestRosterService_FighterByIndex(t *testing.T) {
	svc := seededService(t)

	e, err := svc.FighterByIndex("red", 1)
	require.NoError(t, err)
	assert.Equal(t, "Blaze", e.Name)

	_, err = svc.FighterByIndex("red", 2)
	assert.ErrorIs(t, err, ErrFighterNotFound)
	_, err = svc.FighterByIndex("green", 0)
	assert.ErrorIs(t, err, ErrFighterNotFound)
}

func TestRosterService_RosterIsACopy(t *testing.T) {
	svc := seededService(t)

	r := svc.Roster()
	r["red"][0].Name = "changed"

	e, err := svc.FighterByIndex("red", 0)
	require.NoError(t, err)
	assert.Equal(t, "Ace", e.Name)
}

func TestRosterService_ImportRejectsBadRoster(t *testing.T) {
	svc := NewRosterService(persistence.NewMemoryStore())
	_, err := svc.Import(context.Background(), []models.TeamInfo{{Label: "red"}}, []models.FighterRecord{{TeamLabel: "blue"}})
	assert.Error(t, err)
	assert.Empty(t, svc.Teams())
}
