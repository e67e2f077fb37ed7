package match

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// globEntry is a single compiled Glob pattern bound to the rule that
// declared it.
type globEntry struct {
	ruleID          string
	pattern         string
	caseInsensitive bool
}

// globBundle aggregates Glob patterns. doublestar's glob syntax doesn't
// support runtime case-insensitivity, so case-insensitive glob patterns are
// matched by lowercasing the pattern once when the bundle is built and the
// candidate at match time.
type globBundle struct {
	entries []globEntry
}

func newGlobBundle(patterns []patternWithRule) (*globBundle, error) {
	b := &globBundle{}
	for _, p := range patterns {
		pattern := p.Value
		if p.CaseInsensitive {
			pattern = strings.ToLower(pattern)
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("rule %q: invalid glob pattern %q", p.RuleID, p.Value)
		}
		b.entries = append(b.entries, globEntry{
			ruleID:          p.RuleID,
			pattern:         pattern,
			caseInsensitive: p.CaseInsensitive,
		})
	}
	return b, nil
}

// match returns the rule ID of the first Glob pattern matching name.
func (b *globBundle) match(name string) (string, bool) {
	for _, e := range b.entries {
		candidate := name
		if e.caseInsensitive {
			candidate = strings.ToLower(candidate)
		}
		if ok, err := doublestar.Match(e.pattern, candidate); err == nil && ok {
			return e.ruleID, true
		}
	}
	return "", false
}
