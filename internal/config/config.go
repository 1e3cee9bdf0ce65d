package config

import (
	"time"

	"github.com/raoulx24/retainer/internal/policy"
)

type Config struct {
	Logging      LoggingConfig `yaml:"logging"`
	Metrics      MetricsConfig `yaml:"metrics"`
	Journal      JournalConfig `yaml:"journal"`
	ConfigReload ReloadConfig  `yaml:"configReload"`
	Tasks        []TaskConfig  `yaml:"tasks"`
}

// Task actions.
const (
	ActionDelete  = "delete"
	ActionMigrate = "migrate"
	ActionEvict   = "evict"
)

type TaskConfig struct {
	Name   string `yaml:"name"`
	Action string `yaml:"action"` // "delete", "migrate", "evict"
	Source string `yaml:"source"`
	Target string `yaml:"target"` // migrate only
	Scope  string `yaml:"scope"`  // "all", "this"

	Age            *policy.Policy `yaml:"age"` // e.g. 30d or {unit: day, magnitude: 30}
	PruneEmptyDirs bool          `yaml:"pruneEmptyDirs"`
	Overwrite      *bool         `yaml:"overwrite"` // default true
	SeedSource     bool          `yaml:"seedSource"`
	FollowSymlinks bool          `yaml:"followSymlinks"`
	Include        []string      `yaml:"include"`
	MaxSize        string        `yaml:"maxSize"` // evict only, e.g. 10GB

	Cron string `yaml:"cron"` // empty = manual only
}

// Policy is the task's age, or the zero-second policy when none is set.
// Validate requires an explicit age for delete tasks.
func (t TaskConfig) Policy() policy.Policy {
	if t.Age == nil {
		return policy.Immediate()
	}
	return *t.Age
}

// OverwriteEnabled resolves the overwrite default.
func (t TaskConfig) OverwriteEnabled() bool {
	return t.Overwrite == nil || *t.Overwrite
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json", "text"
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Listen    string `yaml:"listen"` // e.g. :9109
	Namespace string `yaml:"namespace"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Keep    int    `yaml:"keep"` // runs kept after each write, 0 = all
}

type ReloadConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Method          string        `yaml:"method"`         // "auto", "poll", "fsnotify"
	PollInterval    time.Duration `yaml:"pollInterval"`   // e.g. 10s
	DebounceWindow  time.Duration `yaml:"debounceWindow"` // e.g. 500ms
	StabilityWindow time.Duration `yaml:"stabilityWindow"`
}

// Task returns the task called name.
func (c *Config) Task(name string) (TaskConfig, bool) {
	for _, t := range c.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return TaskConfig{}, false
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "retainer"
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9109"
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "retainer.db"
	}
	if c.ConfigReload.Method == "" {
		c.ConfigReload.Method = "auto"
	}
	if c.ConfigReload.PollInterval <= 0 {
		c.ConfigReload.PollInterval = 10 * time.Second
	}
	if c.ConfigReload.DebounceWindow <= 0 {
		c.ConfigReload.DebounceWindow = 500 * time.Millisecond
	}
	if c.ConfigReload.StabilityWindow <= 0 {
		c.ConfigReload.StabilityWindow = 200 * time.Millisecond
	}
	for i := range c.Tasks {
		if c.Tasks[i].Scope == "" {
			c.Tasks[i].Scope = "all"
		}
	}
}
