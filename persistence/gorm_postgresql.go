// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/fighterselect/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(dsn string) (*GormPostgreSQL, error) {
	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold: time.Second,   // 慢SQL阈值
			LogLevel:      logger.Silent, // 日志级别
			Colorful:      false,         // 禁用彩色打印
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open gorm postgres")
	}

	// 获取通用数据库对象 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := autoMigrate(db); err != nil {
		return nil, errors.Wrap(err, "migrate")
	}

	return &GormPostgreSQL{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormTeam{},
		&models.GormFighter{},
	)
}

// LoadTeams 加载所有队伍
func (p *GormPostgreSQL) LoadTeams(ctx context.Context) ([]models.TeamInfo, error) {
	var rows []models.GormTeam
	if err := p.db.WithContext(ctx).Order("position, label").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "load teams")
	}

	teams := make([]models.TeamInfo, 0, len(rows))
	for _, r := range rows {
		teams = append(teams, models.TeamInfo{Label: models.Team(r.Label), Name: r.Name})
	}
	return teams, nil
}

// LoadFighters 加载队伍中的角色
func (p *GormPostgreSQL) LoadFighters(ctx context.Context, team models.Team) ([]models.FighterRecord, error) {
	db := p.db.WithContext(ctx)

	var t models.GormTeam
	if err := db.Where("label = ?", string(team)).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrRecordNotFound, "team %q", team)
		}
		return nil, errors.Wrap(err, "load team")
	}

	var rows []models.GormFighter
	if err := db.Where("team_label = ?", string(team)).Order("slot").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "load fighters")
	}

	recs := make([]models.FighterRecord, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.Record())
	}
	return recs, nil
}

// SaveRoster 在事务中替换整个阵容
func (p *GormPostgreSQL) SaveRoster(ctx context.Context, teams []models.TeamInfo, fighters []models.FighterRecord) error {
	if err := checkRoster(teams, fighters); err != nil {
		return err
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.GormFighter{}).Error; err != nil {
			return errors.Wrap(err, "clear fighters")
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.GormTeam{}).Error; err != nil {
			return errors.Wrap(err, "clear teams")
		}

		for i, t := range teams {
			row := models.GormTeam{Label: string(t.Label), Name: t.Name, Position: i}
			if err := tx.Create(&row).Error; err != nil {
				return errors.Wrapf(err, "insert team %q", t.Label)
			}
		}
		for _, f := range fighters {
			row := models.NewGormFighter(f)
			if err := tx.Create(&row).Error; err != nil {
				return errors.Wrapf(err, "insert fighter %q", f.Name)
			}
		}
		return nil
	})
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
