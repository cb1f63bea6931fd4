package config

import (
	"image/color"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/wfunc/fighterselect/display"
	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/persistence"
	"github.com/wfunc/fighterselect/slot"
)

// EnvPrefix prefixes every environment override, e.g. FIGHTERSELECT_SERVER_HTTP_ADDRESS.
const EnvPrefix = "FIGHTERSELECT"

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabaseConfig  `mapstructure:"database"`
	Screen   ScreenConfig    `mapstructure:"screen"`
	Log      LogConfig       `mapstructure:"log"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
	Messages []MessageConfig `mapstructure:"messages"`
	Roster   []TeamConfig    `mapstructure:"roster"`
}

type ServerConfig struct {
	HTTPAddress      string        `mapstructure:"http_address"`
	RPCAddress       string        `mapstructure:"rpc_address"`
	HeartbeatTimeout time.Duration `mapstructure:"heartbeat_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	ReapInterval     time.Duration `mapstructure:"reap_interval"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN is the libpq connection string shared by both postgres drivers.
func (p PostgresConfig) DSN() string {
	return persistence.DSN(p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

type ScreenConfig struct {
	Players             int               `mapstructure:"players"`
	FrameColors         map[string]string `mapstructure:"frame_colors"`
	UnknownAvatar       string            `mapstructure:"unknown_avatar"`
	UnknownLabel        string            `mapstructure:"unknown_label"`
	SelectFirstOnJoin   bool              `mapstructure:"select_first_on_join"`
	RequireAllConfirmed bool              `mapstructure:"require_all_confirmed"`
	Language            string            `mapstructure:"language"`
}

// Colors parses the frame colors, keyed by player name ("player1", "p2", "1").
func (s ScreenConfig) Colors() (map[models.Player]color.RGBA, error) {
	out := make(map[models.Player]color.RGBA, len(s.FrameColors))
	for name, hex := range s.FrameColors {
		p, err := models.ParsePlayer(name)
		if err != nil {
			return nil, errors.Wrap(err, "frame_colors")
		}
		c, err := display.ParseColor(hex)
		if err != nil {
			return nil, errors.Wrapf(err, "frame_colors.%s", name)
		}
		out[p] = c
	}
	return out, nil
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// MessageConfig is one unlock explanation template, e.g. "Win %d matches".
type MessageConfig struct {
	Key  string `mapstructure:"key"`
	Text string `mapstructure:"text"`
}

type TeamConfig struct {
	Label    string          `mapstructure:"label"`
	Name     string          `mapstructure:"name"`
	Fighters []FighterConfig `mapstructure:"fighters"`
}

type FighterConfig struct {
	Name       string `mapstructure:"name"`
	Avatar     string `mapstructure:"avatar"`
	Locked     bool   `mapstructure:"locked"`
	UnlockKey  string `mapstructure:"unlock_key"`
	UnlockArgs []any  `mapstructure:"unlock_args"`
}

// Catalog returns the configured messages as key → template.
func (c *Config) Catalog() map[string]string {
	out := make(map[string]string, len(c.Messages))
	for _, m := range c.Messages {
		out[m.Key] = m.Text
	}
	return out
}

// RosterRecords flattens the inline roster into store records. Slots follow list order.
func (c *Config) RosterRecords() ([]models.TeamInfo, []models.FighterRecord) {
	teams := make([]models.TeamInfo, 0, len(c.Roster))
	var fighters []models.FighterRecord
	for _, t := range c.Roster {
		teams = append(teams, models.TeamInfo{Label: models.Team(t.Label), Name: t.Name})
		for i, f := range t.Fighters {
			fighters = append(fighters, models.FighterRecord{
				TeamLabel: t.Label,
				Slot:      i,
				Name:      f.Name,
				Avatar:    f.Avatar,
				Locked:    f.Locked,
				UnlockKey: f.UnlockKey,
				UnlockArg: f.UnlockArgs,
			})
		}
	}
	return teams, fighters
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory", "gorm", "postgres":
	default:
		return errors.Wrapf(persistence.ErrUnknownDriver, "%q", c.Database.Driver)
	}
	if c.Screen.Players < 1 || c.Screen.Players > slot.MaxPlayers {
		return errors.Errorf("screen.players must be between 1 and %d, got %d", slot.MaxPlayers, c.Screen.Players)
	}
	if _, err := c.Screen.Colors(); err != nil {
		return err
	}
	if c.Server.HTTPAddress == "" {
		return errors.New("server.http_address is required")
	}

	seen := make(map[string]bool, len(c.Roster))
	for _, t := range c.Roster {
		if t.Label == "" {
			return errors.New("roster team without label")
		}
		if seen[t.Label] {
			return errors.Errorf("duplicate roster team %q", t.Label)
		}
		seen[t.Label] = true
		for _, f := range t.Fighters {
			if f.Locked && f.UnlockKey == "" {
				return errors.Errorf("locked fighter %q in team %q needs an unlock_key", f.Name, t.Label)
			}
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.heartbeat_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 2*time.Minute)
	v.SetDefault("server.reap_interval", 10*time.Second)

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "fighterselect")
	v.SetDefault("database.postgres.sslmode", "disable")

	v.SetDefault("screen.players", 2)
	v.SetDefault("screen.unknown_avatar", "")
	v.SetDefault("screen.unknown_label", "???")
	v.SetDefault("screen.select_first_on_join", true)
	v.SetDefault("screen.require_all_confirmed", false)
	v.SetDefault("screen.language", "en")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("metrics.namespace", "fighterselect")
}

// LoadConfig reads config.yaml from path. A missing file is not an error; defaults
// and environment variables still apply.
func LoadConfig(path string) (config *Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return config, config.Validate()
}
