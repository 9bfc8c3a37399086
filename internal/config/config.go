package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	cverrors "github.com/rohankatakam/codevision/internal/errors"
)

// Script extraction modes
const (
	ScriptModeHeuristic  = "heuristic"
	ScriptModeTreeSitter = "treesitter"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreBolt     = "bolt"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds all configuration settings
type Config struct {
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract"`
	Diagram DiagramConfig `mapstructure:"diagram" yaml:"diagram"`
	Render  RenderConfig  `mapstructure:"render" yaml:"render"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

type ExtractConfig struct {
	Workers          int           `mapstructure:"workers" yaml:"workers"`
	FileTimeout      time.Duration `mapstructure:"file_timeout" yaml:"file_timeout"`
	SkipDirs         []string      `mapstructure:"skip_dirs" yaml:"skip_dirs"`
	ExcludeGlobs     []string      `mapstructure:"exclude_globs" yaml:"exclude_globs"`
	RespectGitignore bool          `mapstructure:"respect_gitignore" yaml:"respect_gitignore"`
	MaxFileBytes     int64         `mapstructure:"max_file_bytes" yaml:"max_file_bytes"`
	ScriptMode       string        `mapstructure:"script_mode" yaml:"script_mode"` // "heuristic", "treesitter"
}

type DiagramConfig struct {
	DefaultKind string `mapstructure:"default_kind" yaml:"default_kind"` // "class", "dependency", "component"
}

type RenderConfig struct {
	Binary      string        `mapstructure:"binary" yaml:"binary"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	ScratchDir  string        `mapstructure:"scratch_dir" yaml:"scratch_dir"`
}

type StoreConfig struct {
	Type     string        `mapstructure:"type" yaml:"type"` // "memory", "bolt", "sqlite", "postgres"
	Path     string        `mapstructure:"path" yaml:"path"` // bolt and sqlite file
	DSN      string        `mapstructure:"dsn" yaml:"dsn"`   // postgres connection string
	Capacity int           `mapstructure:"capacity" yaml:"capacity"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// DefaultSkipDirs are directory names never descended into
var DefaultSkipDirs = []string{
	"__pycache__",
	"node_modules",
	".git",
	"venv",
	".venv",
	"dist",
	"build",
	"target",
	"bin",
	"obj",
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Extract: ExtractConfig{
			Workers:          runtime.NumCPU() * 2,
			FileTimeout:      30 * time.Second,
			SkipDirs:         append([]string(nil), DefaultSkipDirs...),
			RespectGitignore: true,
			MaxFileBytes:     2 * 1024 * 1024, // 2MB
			ScriptMode:       ScriptModeHeuristic,
		},
		Diagram: DiagramConfig{
			DefaultKind: "class",
		},
		Render: RenderConfig{
			Binary:      "dot",
			Timeout:     30 * time.Second,
			Concurrency: 4,
		},
		Store: StoreConfig{
			Type:     StoreBolt,
			Path:     filepath.Join(homeDir, ".codevision", "analyses.db"),
			Capacity: 64,
			TTL:      24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from file. A missing file is not an error.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvPrefix("CODEVISION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".codevision")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".codevision"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, cverrors.Wrap(err, cverrors.ErrorTypeConfig, cverrors.SeverityCritical, "failed to read config")
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, cverrors.Wrap(err, cverrors.ErrorTypeConfig, cverrors.SeverityCritical, "failed to unmarshal config")
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("extract.workers", cfg.Extract.Workers)
	v.SetDefault("extract.file_timeout", cfg.Extract.FileTimeout)
	v.SetDefault("extract.skip_dirs", cfg.Extract.SkipDirs)
	v.SetDefault("extract.exclude_globs", cfg.Extract.ExcludeGlobs)
	v.SetDefault("extract.respect_gitignore", cfg.Extract.RespectGitignore)
	v.SetDefault("extract.max_file_bytes", cfg.Extract.MaxFileBytes)
	v.SetDefault("extract.script_mode", cfg.Extract.ScriptMode)
	v.SetDefault("diagram.default_kind", cfg.Diagram.DefaultKind)
	v.SetDefault("render.binary", cfg.Render.Binary)
	v.SetDefault("render.timeout", cfg.Render.Timeout)
	v.SetDefault("render.concurrency", cfg.Render.Concurrency)
	v.SetDefault("render.scratch_dir", cfg.Render.ScratchDir)
	v.SetDefault("store.type", cfg.Store.Type)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("store.dsn", cfg.Store.DSN)
	v.SetDefault("store.capacity", cfg.Store.Capacity)
	v.SetDefault("store.ttl", cfg.Store.TTL)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.json", cfg.Log.JSON)
}

// applyEnvOverrides applies the short-form environment variables
func applyEnvOverrides(cfg *Config) {
	cfg.Extract.Workers = GetInt("CODEVISION_WORKERS", cfg.Extract.Workers)
	cfg.Extract.ScriptMode = GetString("CODEVISION_SCRIPT_MODE", cfg.Extract.ScriptMode)

	// GRAPHVIZ_DOT points at a specific dot executable
	cfg.Render.Binary = GetString("GRAPHVIZ_DOT", cfg.Render.Binary)
	cfg.Render.Timeout = GetDuration("CODEVISION_RENDER_TIMEOUT", cfg.Render.Timeout)

	cfg.Store.Type = GetString("CODEVISION_STORE", cfg.Store.Type)
	if path := os.Getenv("CODEVISION_STORE_PATH"); path != "" {
		cfg.Store.Path = path
	}
	cfg.Store.Path = expandPath(cfg.Store.Path)
	cfg.Store.TTL = GetDuration("CODEVISION_STORE_TTL", cfg.Store.TTL)
	cfg.Store.DSN = GetString("DATABASE_URL", cfg.Store.DSN)

	cfg.Log.Level = GetString("CODEVISION_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = expandPath(GetString("CODEVISION_LOG_FILE", cfg.Log.File))
	cfg.Log.JSON = GetBool("CODEVISION_LOG_JSON", cfg.Log.JSON)
}

// Validate checks that settings are usable
func (c *Config) Validate() error {
	if c.Extract.Workers < 1 {
		c.Extract.Workers = 1
	}
	switch c.Extract.ScriptMode {
	case ScriptModeHeuristic, ScriptModeTreeSitter:
	default:
		return cverrors.ConfigErrorf("extract.script_mode must be %q or %q, got %q",
			ScriptModeHeuristic, ScriptModeTreeSitter, c.Extract.ScriptMode)
	}
	switch c.Store.Type {
	case StoreMemory, StoreBolt, StoreSQLite:
	case StorePostgres:
		if c.Store.DSN == "" {
			return cverrors.ConfigError("store.dsn is required for the postgres store")
		}
	default:
		return cverrors.ConfigErrorf("store.type must be one of %q, %q, %q, %q, got %q",
			StoreMemory, StoreBolt, StoreSQLite, StorePostgres, c.Store.Type)
	}
	if c.Store.Capacity < 1 {
		return cverrors.ConfigErrorf("store.capacity must be positive, got %d", c.Store.Capacity)
	}
	if c.Render.Timeout <= 0 {
		return cverrors.ConfigErrorf("render.timeout must be positive, got %s", c.Render.Timeout)
	}
	if c.Render.Concurrency < 1 {
		c.Render.Concurrency = 1
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save writes the configuration as YAML, creating parent directories
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("extract", c.Extract)
	v.Set("diagram", c.Diagram)
	v.Set("render", c.Render)
	v.Set("store", c.Store)
	v.Set("log", c.Log)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return cverrors.FileSystemError(err, "failed to create config directory").WithContext("path", path)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return cverrors.FileSystemError(err, "failed to write config").WithContext("path", path)
	}
	return nil
}
