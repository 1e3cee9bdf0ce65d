package retention

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type matcher struct {
	patterns []string
}

func newMatcher(patterns []string) (*matcher, error) {
	for _, p := range patterns {
		if _, err := doublestar.Match(p, "a"); err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", p, err)
		}
	}
	return &matcher{patterns: patterns}, nil
}

// matches reports whether file, found under root, is a candidate.
func (m *matcher) matches(root, file string) bool {
	if m == nil || len(m.patterns) == 0 {
		return true
	}

	rel, err := filepath.Rel(root, file)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)

	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, base); ok {
				return true
			}
		}
	}
	return false
}
