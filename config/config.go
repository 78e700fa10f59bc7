// Package config loads the settings of the note merge service and command
// line tool from YAML, TOML or JSON files, with environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	mergeErrors "github.com/c0deZ3R0/go-note-merge/errors"
	"github.com/c0deZ3R0/go-note-merge/logging"
	"github.com/c0deZ3R0/go-note-merge/model"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Environment variables that override file settings.
const (
	EnvStoreDriver = "NOTEMERGE_STORE_DRIVER"
	EnvStoreDSN    = "NOTEMERGE_STORE_DSN"
)

// Config is the complete configuration.
type Config struct {
	Logging logging.Config `json:"logging" yaml:"logging" toml:"logging"`
	Store   StoreConfig    `json:"store" yaml:"store" toml:"store"`
	Merge   MergeConfig    `json:"merge" yaml:"merge" toml:"merge"`
}

// StoreConfig selects and configures the note store.
type StoreConfig struct {
	Driver string `json:"driver" yaml:"driver" toml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn" toml:"dsn"`
	// EnableWAL turns on SQLite write-ahead logging. Ignored by postgres.
	EnableWAL bool `json:"enable_wal,omitempty" yaml:"enable_wal,omitempty" toml:"enable_wal,omitempty"`
	// TablePrefix prefixes the notes and merge record tables.
	TablePrefix  string `json:"table_prefix,omitempty" yaml:"table_prefix,omitempty" toml:"table_prefix,omitempty"`
	MaxOpenConns int    `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty" toml:"max_open_conns,omitempty"`
}

// MergeConfig holds merge defaults for callers that do not say otherwise.
type MergeConfig struct {
	// DefaultSelectionFrom is "primary" or "secondary".
	DefaultSelectionFrom string `json:"default_selection_from,omitempty" yaml:"default_selection_from,omitempty" toml:"default_selection_from,omitempty"`
	// HistoryLimit caps how many merge records history listings return.
	HistoryLimit int `json:"history_limit,omitempty" yaml:"history_limit,omitempty" toml:"history_limit,omitempty"`
}

// SelectionFrom parses DefaultSelectionFrom.
func (m MergeConfig) SelectionFrom() (model.SelectionFrom, error) {
	return model.ParseSelectionFrom(m.DefaultSelectionFrom)
}

// Default returns a configuration backed by an in-memory SQLite database.
func Default() *Config {
	return &Config{
		Logging: logging.DefaultConfig,
		Store: StoreConfig{
			Driver: DriverSQLite,
			DSN:    "file::memory:?cache=shared",
		},
		Merge: MergeConfig{
			DefaultSelectionFrom: model.SelectionFromPrimary.String(),
			HistoryLimit:         20,
		},
	}
}

// ApplyEnv overlays NOTEMERGE_STORE_DRIVER and NOTEMERGE_STORE_DSN onto c
// and the LOG_* variables onto its logging section.
func (c *Config) ApplyEnv() {
	if driver := os.Getenv(EnvStoreDriver); driver != "" {
		c.Store.Driver = strings.ToLower(driver)
	}
	if dsn := os.Getenv(EnvStoreDSN); dsn != "" {
		c.Store.DSN = dsn
	}
	c.Logging = logging.ApplyEnv(c.Logging)
}

// Validator checks a configuration before a Loader accepts it.
type Validator interface {
	Validate(config *Config) error
	Name() string
}

// Watcher is told about every configuration a Loader accepts.
type Watcher interface {
	OnConfigChanged(oldConfig, newConfig *Config)
	Name() string
}

// Loader reads, validates and holds the current configuration.
type Loader struct {
	mu         sync.RWMutex
	current    *Config
	validators []Validator
	watchers   []Watcher
	useEnv     bool
	logger     *logging.Logger
}

// LoaderOption configures a Loader.
type LoaderOption interface {
	apply(*Loader)
}

type loaderOptionFunc func(*Loader)

func (f loaderOptionFunc) apply(l *Loader) { f(l) }

// WithValidator adds a validator. BasicValidator is always run first.
func WithValidator(v Validator) LoaderOption {
	return loaderOptionFunc(func(l *Loader) {
		l.validators = append(l.validators, v)
	})
}

// WithWatcher adds a watcher.
func WithWatcher(w Watcher) LoaderOption {
	return loaderOptionFunc(func(l *Loader) {
		l.watchers = append(l.watchers, w)
	})
}

// WithEnv makes the loader apply environment overrides before validation.
func WithEnv() LoaderOption {
	return loaderOptionFunc(func(l *Loader) { l.useEnv = true })
}

// WithLogger sets the loader's logger.
func WithLogger(logger *logging.Logger) LoaderOption {
	return loaderOptionFunc(func(l *Loader) { l.logger = logger })
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{validators: []Validator{BasicValidator{}}}
	for _, opt := range opts {
		opt.apply(l)
	}
	if l.logger == nil {
		l.logger = logging.WithComponent(logging.Component("config"))
	}
	return l
}

// LoadFromFile reads path, detecting the format from its extension.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.logger.Debug("loading configuration", slog.String("path", path))

	file, err := os.Open(path)
	if err != nil {
		return nil, mergeErrors.NewValidationError(mergeErrors.OpConfig, fmt.Errorf("open %s: %w", path, err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, mergeErrors.NewValidationError(mergeErrors.OpConfig, fmt.Errorf("read %s: %w", path, err))
	}
	return l.LoadFromBytes(data, DetectFormat(path))
}

// LoadFromBytes parses data in the given format ("yaml", "toml" or "json").
// Values missing from data keep their Default() values.
func (l *Loader) LoadFromBytes(data []byte, format string) (*Config, error) {
	config := Default()

	var err error
	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, config)
	case "toml":
		err = toml.Unmarshal(data, config)
	case "json":
		err = json.Unmarshal(data, config)
	default:
		err = fmt.Errorf("unsupported config format %q", format)
	}
	if err != nil {
		return nil, mergeErrors.NewValidationError(mergeErrors.OpConfig, fmt.Errorf("parse %s config: %w", format, err))
	}

	return l.accept(config)
}

// Accept validates config and makes it current.
func (l *Loader) Accept(config *Config) (*Config, error) {
	return l.accept(config)
}

func (l *Loader) accept(config *Config) (*Config, error) {
	if l.useEnv {
		config.ApplyEnv()
	}

	for _, v := range l.validators {
		if err := v.Validate(config); err != nil {
			l.logger.Error("configuration rejected",
				slog.String("validator", v.Name()),
				slog.String("error", err.Error()),
			)
			return nil, mergeErrors.NewValidationError(mergeErrors.OpConfig, fmt.Errorf("validator %s: %w", v.Name(), err))
		}
	}

	l.mu.Lock()
	old := l.current
	l.current = config
	l.mu.Unlock()

	for _, w := range l.watchers {
		w.OnConfigChanged(old, config)
	}

	l.logger.Debug("configuration applied",
		slog.String("driver", config.Store.Driver),
		slog.String("log_level", config.Logging.Level),
	)
	return config, nil
}

// Current returns the last accepted configuration, or nil.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Load reads path with environment overrides applied. An empty path yields
// Default() with environment overrides.
func Load(path string) (*Config, error) {
	l := NewLoader(WithEnv())
	if path == "" {
		return l.Accept(Default())
	}
	return l.LoadFromFile(path)
}

// DetectFormat maps a file extension to a format name. Unknown extensions
// are treated as JSON.
func DetectFormat(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "yml", "yaml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return "json"
	}
}

// BasicValidator rejects unknown drivers, empty DSNs and unknown selection
// owners.
type BasicValidator struct{}

func (BasicValidator) Name() string { return "basic" }

func (BasicValidator) Validate(config *Config) error {
	switch config.Store.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}
	if config.Store.DSN == "" {
		return fmt.Errorf("store dsn is required")
	}
	if config.Store.MaxOpenConns < 0 {
		return fmt.Errorf("max_open_conns must not be negative")
	}
	if _, err := config.Merge.SelectionFrom(); err != nil {
		return err
	}
	if config.Merge.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative")
	}
	return nil
}

// LoggingWatcher logs configuration changes.
type LoggingWatcher struct {
	logger *logging.Logger
}

// NewLoggingWatcher creates a LoggingWatcher.
func NewLoggingWatcher(logger *logging.Logger) *LoggingWatcher {
	return &LoggingWatcher{logger: logger}
}

func (w *LoggingWatcher) Name() string { return "logging" }

func (w *LoggingWatcher) OnConfigChanged(oldConfig, newConfig *Config) {
	if w.logger == nil {
		return
	}
	if oldConfig == nil {
		w.logger.Info("initial configuration loaded", slog.String("driver", newConfig.Store.Driver))
		return
	}
	w.logger.Info("configuration updated",
		slog.String("old_driver", oldConfig.Store.Driver),
		slog.String("new_driver", newConfig.Store.Driver),
	)
}
