// services/roster_service.go
package services

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/wfunc/fighterselect/logger"
	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/persistence"
)

var ErrFighterNotFound = errors.New("fighter not found")

// RosterService 从存储加载阵容并按队伍和位置查询角色
type RosterService struct {
	store  persistence.RosterStore
	mutex  sync.RWMutex
	teams  []models.TeamInfo
	roster models.Roster
}

func NewRosterService(store persistence.RosterStore) *RosterService {
	return &RosterService{store: store, roster: models.Roster{}}
}

// LoadRosters reads every team from the store and replaces the cached roster.
func (s *RosterService) LoadRosters(ctx context.Context) (models.Roster, error) {
	teams, err := s.store.LoadTeams(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load teams")
	}

	roster := make(models.Roster, len(teams))
	for _, t := range teams {
		recs, err := s.store.LoadFighters(ctx, t.Label)
		if err != nil {
			return nil, errors.Wrapf(err, "load fighters of %q", t.Label)
		}
		entries := make([]models.FighterEntry, 0, len(recs))
		for _, r := range recs {
			entries = append(entries, r.Entry())
		}
		roster[t.Label] = entries
	}

	s.mutex.Lock()
	s.teams = teams
	s.roster = roster
	s.mutex.Unlock()

	logger.Log.Infow("roster loaded", "teams", len(teams))
	return s.Roster(), nil
}

// Import stores a new roster and reloads it.
func (s *RosterService) Import(ctx context.Context, teams []models.TeamInfo, fighters []models.FighterRecord) (models.Roster, error) {
	if err := s.store.SaveRoster(ctx, teams, fighters); err != nil {
		return nil, errors.Wrap(err, "save roster")
	}
	return s.LoadRosters(ctx)
}

// Teams returns the teams in display order.
func (s *RosterService) Teams() []models.TeamInfo {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]models.TeamInfo(nil), s.teams...)
}

// Roster returns a copy of the cached roster.
func (s *RosterService) Roster() models.Roster {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make(models.Roster, len(s.roster))
	for team, entries := range s.roster {
		out[team] = append([]models.FighterEntry(nil), entries...)
	}
	return out
}

// FighterByIndex implements selection.RosterSource on the cached roster.
func (s *RosterService) FighterByIndex(team models.Team, index int) (models.FighterEntry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entries, ok := s.roster[team]
	if !ok || index < 0 || index >= len(entries) {
		return models.FighterEntry{}, errors.Wrapf(ErrFighterNotFound, "team %q, index %d", team, index)
	}
	return entries[index], nil
}
