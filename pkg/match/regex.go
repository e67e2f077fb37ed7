package match

import (
	"regexp"
	"regexp/syntax"
	"strings"

	"github.com/pkg/errors"
)

// regexEntry is a single compiled Regex pattern bound to its rule, with an
// optional literal prefix/length prefilter extracted from the expression's
// parse tree so that most candidates can be rejected without invoking the
// full regex engine.
type regexEntry struct {
	ruleID       string
	expr         *regexp.Regexp
	literalPrefix string
	minLength     int
}

// regexBundle aggregates Regex patterns, probed in declaration order.
type regexBundle struct {
	entries []regexEntry
}

func newRegexBundle(patterns []patternWithRule) (*regexBundle, error) {
	b := &regexBundle{}
	for _, p := range patterns {
		value := p.Value
		if p.CaseInsensitive && !strings.HasPrefix(value, "(?i)") {
			value = "(?i)" + value
		}
		expr, err := regexp.Compile(value)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %q: invalid regex pattern %q", p.RuleID, p.Value)
		}
		prefix, minLength := extractPrefilter(value)
		b.entries = append(b.entries, regexEntry{
			ruleID:        p.RuleID,
			expr:          expr,
			literalPrefix: prefix,
			minLength:     minLength,
		})
	}
	return b, nil
}

// extractPrefilter pulls a literal required prefix and a lower bound on
// match length out of a regular expression's parse tree, where extractable.
// It is a best-effort optimization, never a correctness requirement, so
// any parse failure simply yields an empty prefilter.
func extractPrefilter(pattern string) (prefix string, minLength int) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", 0
	}
	prog, err := syntax.Compile(re.Simplify())
	if err != nil {
		return "", 0
	}
	prefix, _ = prog.Prefix()
	return prefix, len(prefix)
}

// match returns the rule ID of the first Regex pattern matching name.
func (b *regexBundle) match(name string) (string, bool) {
	for _, e := range b.entries {
		if e.literalPrefix != "" && !strings.Contains(name, e.literalPrefix) {
			continue
		}
		if len(name) < e.minLength {
			continue
		}
		if e.expr.MatchString(name) {
			return e.ruleID, true
		}
	}
	return "", false
}
