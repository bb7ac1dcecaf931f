package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "taskboard.db"
	AppDirName            = "taskboard"

	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	EnvConfigPath  = "TASKBOARD_CONFIG"
	EnvBackend     = "TASKBOARD_BACKEND"
	EnvDBPath      = "TASKBOARD_DB_PATH"
	EnvPostgresDSN = "TASKBOARD_POSTGRES_DSN"
	EnvDatabaseURL = "DATABASE_URL"
)

type Keymap struct {
	Quit         string `toml:"quit"`
	Add          string `toml:"add"`
	Up           string `toml:"up"`
	Down         string `toml:"down"`
	Left         string `toml:"left"`
	Right        string `toml:"right"`
	Delete       string `toml:"delete"`
	Detail       string `toml:"detail"`
	Confirm      string `toml:"confirm"`
	Cancel       string `toml:"cancel"`
	Edit         string `toml:"edit"`
	Grab         string `toml:"grab"`
	Filter       string `toml:"filter"`
	ClearFilter  string `toml:"clear_filter"`
	ToggleView   string `toml:"toggle_view"`
	Dashboard    string `toml:"dashboard"`
	SortCreated  string `toml:"sort_created"`
	SortDue      string `toml:"sort_due"`
	SortPriority string `toml:"sort_priority"`
	SortManual   string `toml:"sort_manual"`
}

type Config struct {
	Backend        string `toml:"backend"`
	DBPath         string `toml:"db_path"`
	PostgresDSN    string `toml:"postgres_dsn"`
	StorageKey     string `toml:"storage_key"`
	LegacyOrderKey string `toml:"legacy_order_key"`
	SeedDefaults   bool   `toml:"seed_defaults"`
	DefaultView    string `toml:"default_view"`
	SortBy         string `toml:"sort_by"`
	SortOrder      string `toml:"sort_order"`
	Keys           Keymap `toml:"keys"`
}

// ResolveConfigPath honours $TASKBOARD_CONFIG and falls back to the user
// config directory, then the working directory.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, AppDirName, DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults first when
// the file does not exist. Missing keys keep their default values.
func LoadOrCreate(path string) (Config, error) {
	cfg, err := read(path)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// read is LoadOrCreate without validation, so that environment overrides
// can still complete the config.
func read(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg.DBPath = defaultDBPath(path)
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath(path)
	}
	cfg.Keys = cfg.Keys.withDefaults(Default().Keys)
	return cfg, nil
}

// Load reads the config and then applies environment overrides, loading a
// .env file from the working directory first when there is one.
func Load(path string) (Config, error) {
	cfg, err := read(path)
	if err != nil {
		return cfg, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

// ApplyEnv overrides storage settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvBackend)); v != "" {
		c.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvDBPath)); v != "" {
		c.DBPath = v
	}
	if v := strings.TrimSpace(getenv(EnvPostgresDSN)); v != "" {
		c.PostgresDSN = v
	} else if v := strings.TrimSpace(getenv(EnvDatabaseURL)); v != "" && c.PostgresDSN == "" {
		c.PostgresDSN = v
	}
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendMemory:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("backend %q needs postgres_dsn or $%s", c.Backend, EnvPostgresDSN)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	switch c.DefaultView {
	case "list", "kanban", "dashboard":
	default:
		return fmt.Errorf("unknown default_view %q", c.DefaultView)
	}
	return nil
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// defaultDBPath keeps the database next to the config file.
func defaultDBPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), DefaultDBName)
}

func (k Keymap) withDefaults(d Keymap) Keymap {
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&k.Quit, d.Quit)
	fill(&k.Add, d.Add)
	fill(&k.Up, d.Up)
	fill(&k.Down, d.Down)
	fill(&k.Left, d.Left)
	fill(&k.Right, d.Right)
	fill(&k.Delete, d.Delete)
	fill(&k.Detail, d.Detail)
	fill(&k.Confirm, d.Confirm)
	fill(&k.Cancel, d.Cancel)
	fill(&k.Edit, d.Edit)
	fill(&k.Grab, d.Grab)
	fill(&k.Filter, d.Filter)
	fill(&k.ClearFilter, d.ClearFilter)
	fill(&k.ToggleView, d.ToggleView)
	fill(&k.Dashboard, d.Dashboard)
	fill(&k.SortCreated, d.SortCreated)
	fill(&k.SortDue, d.SortDue)
	fill(&k.SortPriority, d.SortPriority)
	fill(&k.SortManual, d.SortManual)
	return k
}

func Default() Config {
	return Config{
		Backend:        BackendSQLite,
		DBPath:         DefaultDBName,
		StorageKey:     "task-management-tasks",
		LegacyOrderKey: "task-order",
		SeedDefaults:   true,
		DefaultView:    "list",
		SortBy:         "createdAt",
		SortOrder:      "desc",
		Keys: Keymap{
			Quit:         "q",
			Add:          "a",
			Up:           "k",
			Down:         "j",
			Left:         "h",
			Right:        "l",
			Delete:       "d",
			Detail:       "i",
			Confirm:      "enter",
			Cancel:       "esc",
			Edit:         "e",
			Grab:         " ",
			Filter:       "/",
			ClearFilter:  "x",
			ToggleView:   "v",
			Dashboard:    "s",
			SortCreated:  "1",
			SortDue:      "2",
			SortPriority: "3",
			SortManual:   "0",
		},
	}
}
