package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"

	"github.com/raoulx24/retainer/internal/logging"
	"github.com/raoulx24/retainer/internal/retention"
)

// Validate checks the whole config and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging: unknown format %q", c.Logging.Format))
	}

	switch c.ConfigReload.Method {
	case "auto", "poll", "fsnotify":
	default:
		errs = append(errs, fmt.Errorf("configReload: unknown method %q", c.ConfigReload.Method))
	}

	seen := map[string]bool{}
	for i, t := range c.Tasks {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("tasks[%d]: name is required", i))
		} else if seen[t.Name] {
			errs = append(errs, fmt.Errorf("tasks[%d]: duplicate name %q", i, t.Name))
		}
		seen[t.Name] = true

		if err := t.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("task %q: %w", t.Name, err))
		}
	}

	return errors.Join(errs...)
}

// Validate checks a single task.
func (t TaskConfig) Validate() error {
	var errs []error

	if t.Source == "" {
		errs = append(errs, errors.New("source is required"))
	}

	switch t.Action {
	case ActionDelete:
		// without an age every file is expired
		if t.Age == nil {
			errs = append(errs, errors.New("age is required for delete"))
		}
	case ActionMigrate:
		if t.Target == "" {
			errs = append(errs, errors.New("target is required for migrate"))
		}
	case ActionEvict:
		if _, err := t.MaxBytes(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("unknown action %q", t.Action))
	}

	if t.Age != nil {
		if err := t.Age.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if _, err := retention.ParseScope(t.Scope); err != nil {
		errs = append(errs, err)
	}

	for _, p := range t.Include {
		if _, err := doublestar.Match(p, "a"); err != nil {
			errs = append(errs, fmt.Errorf("include pattern %q: %w", p, err))
		}
	}

	if t.Cron != "" {
		if _, err := cron.ParseStandard(t.Cron); err != nil {
			errs = append(errs, fmt.Errorf("invalid cron schedule %q: %w", t.Cron, err))
		}
	}

	return errors.Join(errs...)
}

// MaxBytes parses MaxSize ("10GB", "512MiB").
func (t TaskConfig) MaxBytes() (int64, error) {
	if t.MaxSize == "" {
		return 0, errors.New("maxSize is required for evict")
	}
	n, err := ParseSize(t.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("invalid maxSize: %w", err)
	}
	return n, nil
}

// ParseSize reads a byte size such as "10GB" or "512MiB". Sizes that do not
// fit in an int64 are rejected rather than wrapped negative.
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("%q: size exceeds %s", s, humanize.Bytes(math.MaxInt64))
	}
	return int64(n), nil
}
