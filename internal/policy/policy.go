// Package policy turns a retention age such as "30 days" into a cutoff instant.
//
// Year and Month use calendar arithmetic (time.AddDate) because they have no
// fixed length; Week is exactly seven 24h days and smaller units are fixed
// durations. A Policy never reads the clock itself: callers pass the
// reference instant so a whole walk shares one cutoff.
package policy

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Unit is the granularity of a retention age.
type Unit int

const (
	Second Unit = iota
	Minute
	Hour
	Day
	Week
	Month
	Year
)

var unitNames = [...]string{"second", "minute", "hour", "day", "week", "month", "year"}

var unitShort = [...]string{"s", "m", "h", "d", "w", "mo", "y"}

var unitAliases = map[string]Unit{
	"s": Second, "sec": Second, "secs": Second, "second": Second, "seconds": Second,
	"m": Minute, "min": Minute, "mins": Minute, "minute": Minute, "minutes": Minute,
	"h": Hour, "hr": Hour, "hrs": Hour, "hour": Hour, "hours": Hour,
	"d": Day, "day": Day, "days": Day,
	"w": Week, "wk": Week, "week": Week, "weeks": Week,
	"mo": Month, "mon": Month, "month": Month, "months": Month,
	"y": Year, "yr": Year, "year": Year, "years": Year,
}

func (u Unit) String() string {
	if u < Second || u > Year {
		return fmt.Sprintf("unit(%d)", int(u))
	}
	return unitNames[u]
}

// ParseUnit accepts full names, plurals and short forms, case-insensitively.
func ParseUnit(s string) (Unit, error) {
	u, ok := unitAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown time unit %q", s)
	}
	return u, nil
}

func (u *Unit) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseUnit(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

func (u Unit) MarshalYAML() (any, error) {
	return u.String(), nil
}

// Policy is a retention age: files created before now minus Magnitude Units
// are expired. Negative magnitudes move the cutoff into the future.
type Policy struct {
	Unit      Unit `yaml:"unit"`
	Magnitude int  `yaml:"magnitude"`
}

// Immediate is the zero-second policy: every file that already exists is
// expired.
func Immediate() Policy {
	return Policy{Unit: Second, Magnitude: 0}
}

// Unfiltered reports whether p is the zero-second policy, meaning callers may
// skip age checks entirely.
func (p Policy) Unfiltered() bool {
	return p.Unit == Second && p.Magnitude == 0
}

// MaxMagnitude bounds the magnitude Parse and Validate accept. A billion
// weeks is still far inside the range time.Time can represent.
const MaxMagnitude = 1_000_000_000

// Validate rejects unknown units and magnitudes beyond MaxMagnitude.
func (p Policy) Validate() error {
	if p.Unit < Second || p.Unit > Year {
		return fmt.Errorf("invalid age unit %d", int(p.Unit))
	}
	if p.Magnitude > MaxMagnitude || p.Magnitude < -MaxMagnitude {
		return fmt.Errorf("age %s out of range: magnitude must be within ±%d", p, MaxMagnitude)
	}
	return nil
}

// Cutoff returns now minus the policy age. Magnitudes beyond MaxMagnitude
// are clamped to it, which keeps a huge age far in the past instead of
// wrapping around.
func (p Policy) Cutoff(now time.Time) time.Time {
	n := min(max(p.Magnitude, -MaxMagnitude), MaxMagnitude)

	var step time.Duration
	switch p.Unit {
	case Year:
		return now.AddDate(-n, 0, 0)
	case Month:
		return now.AddDate(0, -n, 0)
	case Week:
		step = 7 * 24 * time.Hour
	case Day:
		step = 24 * time.Hour
	case Hour:
		step = time.Hour
	case Minute:
		step = time.Minute
	default:
		step = time.Second
	}

	if limit := int64(math.MaxInt64 / step); int64(n) <= limit && int64(n) >= -limit {
		return now.Add(-time.Duration(n) * step)
	}

	// the age exceeds what time.Duration holds (~292 years): use whole seconds
	secs := int64(n) * int64(step/time.Second)
	return time.Unix(now.Unix()-secs, int64(now.Nanosecond())).In(now.Location())
}

// IsExpired reports whether created lies strictly before the cutoff.
func (p Policy) IsExpired(created, now time.Time) bool {
	return created.Before(p.Cutoff(now))
}

// IsExpired is the free-function form of Policy.IsExpired.
func IsExpired(created time.Time, p Policy, now time.Time) bool {
	return p.IsExpired(created, now)
}

func (p Policy) String() string {
	if p.Unit < Second || p.Unit > Year {
		return fmt.Sprintf("%d%s", p.Magnitude, p.Unit)
	}
	return strconv.Itoa(p.Magnitude) + unitShort[p.Unit]
}

var compact = regexp.MustCompile(`^\s*(-?\d+)\s*([A-Za-z]+)\s*$`)

// Parse reads the compact form used on the command line and in config,
// e.g. "30d", "6mo", "-2h", "0s" or "1 year".
func Parse(s string) (Policy, error) {
	m := compact.FindStringSubmatch(s)
	if m == nil {
		return Policy{}, fmt.Errorf("invalid age %q: want <number><unit>, e.g. 30d", s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Policy{}, fmt.Errorf("invalid age %q: %w", s, err)
	}
	u, err := ParseUnit(m[2])
	if err != nil {
		return Policy{}, fmt.Errorf("invalid age %q: %w", s, err)
	}
	p := Policy{Unit: u, Magnitude: n}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// UnmarshalYAML accepts either the compact scalar form ("30d") or a mapping
// with unit and magnitude keys.
func (p *Policy) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := Parse(node.Value)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}

	type plain Policy
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if err := Policy(raw).Validate(); err != nil {
		return err
	}
	*p = Policy(raw)
	return nil
}
