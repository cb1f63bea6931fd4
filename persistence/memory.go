package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/wfunc/fighterselect/models"
)

// MemoryStore keeps the roster in process. It backs the "memory" driver and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	teams    []models.TeamInfo
	fighters map[models.Team][]models.FighterRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{fighters: make(map[models.Team][]models.FighterRecord)}
}

func (m *MemoryStore) LoadTeams(ctx context.Context) ([]models.TeamInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.TeamInfo(nil), m.teams...), nil
}

func (m *MemoryStore) LoadFighters(ctx context.Context, team models.Team) ([]models.FighterRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs, ok := m.fighters[team]
	if !ok {
		return nil, errors.Wrapf(ErrRecordNotFound, "team %q", team)
	}
	return append([]models.FighterRecord(nil), recs...), nil
}

func (m *MemoryStore) SaveRoster(ctx context.Context, teams []models.TeamInfo, fighters []models.FighterRecord) error {
	if err := checkRoster(teams, fighters); err != nil {
		return err
	}

	byTeam := make(map[models.Team][]models.FighterRecord, len(teams))
	for _, t := range teams {
		byTeam[t.Label] = nil
	}
	for _, f := range fighters {
		team := models.Team(f.TeamLabel)
		byTeam[team] = append(byTeam[team], f)
	}
	for _, recs := range byTeam {
		sort.Slice(recs, func(i, j int) bool { return recs[i].Slot < recs[j].Slot })
	}

	m.mu.Lock()
	m.teams = append([]models.TeamInfo(nil), teams...)
	m.fighters = byTeam
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
