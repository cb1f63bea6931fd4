// persistence/interface.go
package persistence

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/wfunc/fighterselect/models"
)

// RosterStore 阵容存储接口
type RosterStore interface {
	// LoadTeams returns every team in display order.
	LoadTeams(ctx context.Context) ([]models.TeamInfo, error)
	// LoadFighters returns the fighters of team ordered by slot.
	LoadFighters(ctx context.Context, team models.Team) ([]models.FighterRecord, error)
	// SaveRoster replaces the whole roster in one transaction.
	SaveRoster(ctx context.Context, teams []models.TeamInfo, fighters []models.FighterRecord) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownDriver  = errors.New("unknown database driver")
)

// DSN builds a libpq connection string.
func DSN(host string, port int, user, password, dbname, sslmode string) string {
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

// checkRoster rejects fighters of unknown teams and duplicate slots.
func checkRoster(teams []models.TeamInfo, fighters []models.FighterRecord) error {
	known := make(map[models.Team]bool, len(teams))
	for _, t := range teams {
		if known[t.Label] {
			return errors.Errorf("duplicate team %q", t.Label)
		}
		known[t.Label] = true
	}

	slots := make(map[string]bool, len(fighters))
	for _, f := range fighters {
		if !known[models.Team(f.TeamLabel)] {
			return errors.Errorf("fighter %q references unknown team %q", f.Name, f.TeamLabel)
		}
		key := fmt.Sprintf("%s/%d", f.TeamLabel, f.Slot)
		if slots[key] {
			return errors.Errorf("duplicate slot %d in team %q", f.Slot, f.TeamLabel)
		}
		slots[key] = true
	}
	return nil
}
