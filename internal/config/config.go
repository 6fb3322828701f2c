package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/ilyakaznacheev/cleanenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "taskpad.db"
	DefaultStateKey       = "taskpad-state"
	appDirName            = "taskpad"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

var ErrInvalid = errors.New("invalid config")

type Keymap struct {
	Quit           string `toml:"quit"`
	Add            string `toml:"add"`
	Up             string `toml:"up"`
	Down           string `toml:"down"`
	Toggle         string `toml:"toggle"`
	Delete         string `toml:"delete"`
	Undo           string `toml:"undo"`
	Edit           string `toml:"edit"`
	Confirm        string `toml:"confirm"`
	Cancel         string `toml:"cancel"`
	Search         string `toml:"search"`
	Filter         string `toml:"filter"`
	Date           string `toml:"date"`
	ClearCompleted string `toml:"clear_completed"`
	NextPage       string `toml:"next_page"`
	PrevPage       string `toml:"prev_page"`
	PageSize       string `toml:"page_size"`
}

type Storage struct {
	Backend       string `toml:"backend" env:"TASKPAD_STORAGE_BACKEND"`
	DBPath        string `toml:"db_path" env:"TASKPAD_DB_PATH"`
	Dir           string `toml:"dir" env:"TASKPAD_STORAGE_DIR"`
	Key           string `toml:"key" env:"TASKPAD_STORAGE_KEY"`
	RedisAddr     string `toml:"redis_addr" env:"TASKPAD_REDIS_ADDR"`
	RedisPassword string `toml:"redis_password" env:"TASKPAD_REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db" env:"TASKPAD_REDIS_DB"`
	RedisPrefix   string `toml:"redis_prefix" env:"TASKPAD_REDIS_PREFIX"`
}

type Log struct {
	Level      string `toml:"level" env:"TASKPAD_LOG_LEVEL"`
	Format     string `toml:"format" env:"TASKPAD_LOG_FORMAT"`
	Path       string `toml:"path" env:"TASKPAD_LOG_PATH"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type Config struct {
	Storage       Storage `toml:"storage"`
	Log           Log     `toml:"log"`
	ItemsPerPage  int     `toml:"items_per_page" env:"TASKPAD_ITEMS_PER_PAGE"`
	UndoLimit     int     `toml:"undo_limit" env:"TASKPAD_UNDO_LIMIT"`
	DefaultFilter string  `toml:"default_filter"`
	Keys          Keymap  `toml:"keys"`
}

// ResolveConfigPath picks $TASKPAD_CONFIG, then <user config dir>/taskpad,
// then the working directory.
func ResolveConfigPath() string {
	if p := os.Getenv("TASKPAD_CONFIG"); p != "" {
		return p
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDirName, DefaultConfigFileName)
	}
	return DefaultConfigFileName
}

// LoadOrCreate reads the TOML file at path, writing defaults first if it does
// not exist. TASKPAD_* environment variables override file values. Relative
// storage and log paths resolve against the config file's directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cleanenv.UpdateEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}
	cfg.applyDefaults()
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	backends := []string{BackendSQLite, BackendFile, BackendRedis, BackendMemory}
	if !slices.Contains(backends, c.Storage.Backend) {
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalid, c.Storage.Backend)
	}
	if c.Storage.Backend == BackendRedis && c.Storage.RedisAddr == "" {
		return fmt.Errorf("%w: redis backend needs redis_addr", ErrInvalid)
	}
	if c.ItemsPerPage < 1 {
		return fmt.Errorf("%w: items_per_page must be positive, got %d", ErrInvalid, c.ItemsPerPage)
	}
	if c.UndoLimit < 0 {
		return fmt.Errorf("%w: undo_limit must not be negative, got %d", ErrInvalid, c.UndoLimit)
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Storage.Backend == "" {
		c.Storage.Backend = def.Storage.Backend
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = def.Storage.DBPath
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = def.Storage.Dir
	}
	if c.Storage.Key == "" {
		c.Storage.Key = def.Storage.Key
	}
	if c.DefaultFilter == "" {
		c.DefaultFilter = def.DefaultFilter
	}
}

func (c *Config) resolvePaths(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Storage.DBPath = abs(c.Storage.DBPath)
	c.Storage.Dir = abs(c.Storage.Dir)
	c.Log.Path = abs(c.Log.Path)
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the configuration written on first launch.
func Default() Config {
	return Config{
		Storage: Storage{
			Backend:     BackendSQLite,
			DBPath:      DefaultDBName,
			Dir:         "state",
			Key:         DefaultStateKey,
			RedisPrefix: "taskpad:",
		},
		Log: Log{
			Level:      "info",
			Format:     "json",
			Path:       "taskpad.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		ItemsPerPage:  10,
		UndoLimit:     0,
		DefaultFilter: "all",
		Keys: Keymap{
			Quit:           "q",
			Add:            "a",
			Up:             "k",
			Down:           "j",
			Toggle:         " ",
			Delete:         "d",
			Undo:           "u",
			Edit:           "e",
			Confirm:        "enter",
			Cancel:         "esc",
			Search:         "/",
			Filter:         "f",
			Date:           "t",
			ClearCompleted: "C",
			NextPage:       "n",
			PrevPage:       "p",
			PageSize:       "s",
		},
	}
}
