// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	// PostgreSQL 驱动
	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/fighterselect/models"
)

// PostgreSQL 数据库实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(dsn string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init tables")
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(ctx context.Context, db *sql.DB) error {
	// 创建队伍表
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS roster_teams (
            id SERIAL PRIMARY KEY,
            label VARCHAR(64) UNIQUE NOT NULL,
            name VARCHAR(255) NOT NULL,
            position INT NOT NULL DEFAULT 0
        )
    `)
	if err != nil {
		return err
	}

	// 创建角色表
	_, err = db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS roster_fighters (
            id SERIAL PRIMARY KEY,
            team_label VARCHAR(64) NOT NULL REFERENCES roster_teams(label) ON DELETE CASCADE,
            slot INT NOT NULL,
            name VARCHAR(255) NOT NULL,
            avatar VARCHAR(255) NOT NULL,
            locked BOOLEAN NOT NULL DEFAULT FALSE,
            unlock_key VARCHAR(255) NOT NULL DEFAULT '',
            unlock_args JSONB NOT NULL DEFAULT '[]',
            UNIQUE (team_label, slot)
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_roster_fighters_team ON roster_fighters(team_label);
    `)

	return err
}

// LoadTeams 加载所有队伍
func (p *PostgreSQL) LoadTeams(ctx context.Context) ([]models.TeamInfo, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT label, name FROM roster_teams ORDER BY position, label`)
	if err != nil {
		return nil, errors.Wrap(err, "query teams")
	}
	defer rows.Close()

	var teams []models.TeamInfo
	for rows.Next() {
		var t models.TeamInfo
		if err := rows.Scan(&t.Label, &t.Name); err != nil {
			return nil, errors.Wrap(err, "scan team")
		}
		teams = append(teams, t)
	}
	return teams, errors.Wrap(rows.Err(), "iterate teams")
}

// LoadFighters 加载队伍中的角色
func (p *PostgreSQL) LoadFighters(ctx context.Context, team models.Team) ([]models.FighterRecord, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM roster_teams WHERE label = $1)`, string(team)).Scan(&exists)
	if err != nil {
		return nil, errors.Wrap(err, "query team")
	}
	if !exists {
		return nil, errors.Wrapf(ErrRecordNotFound, "team %q", team)
	}

	rows, err := p.db.QueryContext(ctx, `
        SELECT team_label, slot, name, avatar, locked, unlock_key, unlock_args
        FROM roster_fighters
        WHERE team_label = $1
        ORDER BY slot
    `, string(team))
	if err != nil {
		return nil, errors.Wrap(err, "query fighters")
	}
	defer rows.Close()

	var recs []models.FighterRecord
	for rows.Next() {
		var (
			rec  models.FighterRecord
			args []byte
		)
		if err := rows.Scan(&rec.TeamLabel, &rec.Slot, &rec.Name, &rec.Avatar, &rec.Locked, &rec.UnlockKey, &args); err != nil {
			return nil, errors.Wrap(err, "scan fighter")
		}
		if len(args) > 0 {
			if err := json.Unmarshal(args, &rec.UnlockArg); err != nil {
				return nil, errors.Wrapf(err, "unlock args of %q", rec.Name)
			}
		}
		recs = append(recs, rec)
	}
	return recs, errors.Wrap(rows.Err(), "iterate fighters")
}

// SaveRoster 替换整个阵容
func (p *PostgreSQL) SaveRoster(ctx context.Context, teams []models.TeamInfo, fighters []models.FighterRecord) error {
	if err := checkRoster(teams, fighters); err != nil {
		return err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM roster_teams`); err != nil {
		return errors.Wrap(err, "clear teams")
	}
	for i, t := range teams {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO roster_teams (label, name, position) VALUES ($1, $2, $3)`,
			string(t.Label), t.Name, i); err != nil {
			return errors.Wrapf(err, "insert team %q", t.Label)
		}
	}
	for _, f := range fighters {
		args, err := json.Marshal(f.UnlockArg)
		if err != nil {
			return errors.Wrapf(err, "unlock args of %q", f.Name)
		}
		if f.UnlockArg == nil {
			args = []byte("[]")
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO roster_fighters (team_label, slot, name, avatar, locked, unlock_key, unlock_args)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
        `, f.TeamLabel, f.Slot, f.Name, f.Avatar, f.Locked, f.UnlockKey, string(args)); err != nil {
			return errors.Wrapf(err, "insert fighter %q", f.Name)
		}
	}

	return errors.Wrap(tx.Commit(), "commit")
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
