package match

import (
	"encoding/json"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/SumihisaYutani/FileMover/pkg/model"
)

// compiledCache amortizes RuleSet construction across repeated Compile
// calls on an identical rule definition (a profile reloaded between
// dry-run revisions, or the same rules file read once each by scan and
// plan within one invocation), keyed by a hash of the rules' canonical
// JSON encoding rather than the rules themselves, since model.Rule isn't
// comparable.
var compiledCache sync.Map // uint64 -> *RuleSet

// patternWithRule associates a pattern value with the rule that declared it
// and its case-sensitivity, used internally while partitioning rules into
// per-kind bundles.
type patternWithRule struct {
	RuleID          string
	Value           string
	CaseInsensitive bool
}

// priorityBundle is one inclusive-rule bundle at a single evaluation
// position, holding all three pattern-kind bundles. Contains, Glob, and
// Regex are probed in that order within a bundle.
type priorityBundle struct {
	contains *containsBundle
	glob     *globBundle
	regex    *regexBundle
}

// match evaluates this bundle's patterns in (Contains, Glob, Regex) order
// and returns the first hit's rule ID.
func (b *priorityBundle) match(name string) (string, bool) {
	if b.contains != nil {
		if id, ok := b.contains.match(name); ok {
			return id, true
		}
	}
	if b.glob != nil {
		if id, ok := b.glob.match(name); ok {
			return id, true
		}
	}
	if b.regex != nil {
		if id, ok := b.regex.match(name); ok {
			return id, true
		}
	}
	return "", false
}

// RuleSet is a compiled collection of rules, ready for repeated evaluation
// by Evaluate. Compilation happens once; a RuleSet is immutable and safe
// for concurrent use by multiple Scanner workers.
type RuleSet struct {
	excludeBundle *priorityBundle
	inclusive     []*priorityBundle
	rules         map[string]*model.Rule
}

// Compile prepares a rule set for matching. Exclude patterns are aggregated
// into a single bundle evaluated first; each remaining enabled rule gets
// its own bundle (since a single rule has exactly one pattern), ordered by
// ascending priority with declaration order as a tie-break. Invalid regex
// or glob patterns fail the entire load with an error naming the
// offending rule ID.
func Compile(rules []model.Rule) (*RuleSet, error) {
	key, cacheable := rulesCacheKey(rules)
	if cacheable {
		if cached, ok := compiledCache.Load(key); ok {
			return cached.(*RuleSet), nil
		}
	}

	rs, err := compileUncached(rules)
	if err != nil {
		return nil, err
	}

	if cacheable {
		compiledCache.Store(key, rs)
	}
	return rs, nil
}

// rulesCacheKey hashes the canonical JSON encoding of rules, giving two
// calls with the same rule definitions (but different slice identities)
// the same cache key. It reports false when rules can't be encoded, in
// which case the caller compiles without caching rather than failing.
func rulesCacheKey(rules []model.Rule) (uint64, bool) {
	encoded, err := json.Marshal(rules)
	if err != nil {
		return 0, false
	}
	h := fnv.New64a()
	_, _ = h.Write(encoded)
	return h.Sum64(), true
}

// compileUncached performs the actual rule-set compilation; Compile wraps
// it with the cache lookup above.
func compileUncached(rules []model.Rule) (*RuleSet, error) {
	rs := &RuleSet{rules: make(map[string]*model.Rule, len(rules))}

	var excludeEntries []patternEntry
	var excludeGlobs, excludeRegexes []patternWithRule

	type indexedRule struct {
		index int
		rule  model.Rule
	}
	var inclusiveRules []indexedRule

	for i, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if _, exists := rs.rules[rule.ID]; exists {
			return nil, errors.Errorf("duplicate rule id %q", rule.ID)
		}
		rs.rules[rule.ID] = &rules[i]

		if rule.Pattern.IsExclude {
			switch rule.Pattern.Kind {
			case model.PatternContains:
				excludeEntries = append(excludeEntries, patternEntry{
					ruleID: rule.ID, value: rule.Pattern.Value, caseInsensitive: rule.Pattern.CaseInsensitive,
				})
			case model.PatternGlob:
				excludeGlobs = append(excludeGlobs, patternWithRule{rule.ID, rule.Pattern.Value, rule.Pattern.CaseInsensitive})
			case model.PatternRegex:
				excludeRegexes = append(excludeRegexes, patternWithRule{rule.ID, rule.Pattern.Value, rule.Pattern.CaseInsensitive})
			}
			continue
		}

		inclusiveRules = append(inclusiveRules, indexedRule{index: i, rule: rule})
	}

	// Compile the exclude bundle, if any exclusion patterns were declared.
	if len(excludeEntries) > 0 || len(excludeGlobs) > 0 || len(excludeRegexes) > 0 {
		glob, err := newGlobBundle(excludeGlobs)
		if err != nil {
			return nil, err
		}
		regex, err := newRegexBundle(excludeRegexes)
		if err != nil {
			return nil, err
		}
		rs.excludeBundle = &priorityBundle{
			contains: newContainsBundle(excludeEntries),
			glob:     glob,
			regex:    regex,
		}
	}

	// Sort inclusive rules by ascending priority, declaration order as a
	// tie-break (stable sort preserves the original index ordering for
	// equal priorities).
	sort.SliceStable(inclusiveRules, func(i, j int) bool {
		return inclusiveRules[i].rule.Priority < inclusiveRules[j].rule.Priority
	})

	for _, ir := range inclusiveRules {
		rule := ir.rule
		var containsEntries []patternEntry
		var globs, regexes []patternWithRule

		switch rule.Pattern.Kind {
		case model.PatternContains:
			containsEntries = append(containsEntries, patternEntry{
				ruleID: rule.ID, value: rule.Pattern.Value, caseInsensitive: rule.Pattern.CaseInsensitive,
			})
		case model.PatternGlob:
			globs = append(globs, patternWithRule{rule.ID, rule.Pattern.Value, rule.Pattern.CaseInsensitive})
		case model.PatternRegex:
			regexes = append(regexes, patternWithRule{rule.ID, rule.Pattern.Value, rule.Pattern.CaseInsensitive})
		}

		glob, err := newGlobBundle(globs)
		if err != nil {
			return nil, err
		}
		regex, err := newRegexBundle(regexes)
		if err != nil {
			return nil, err
		}

		bundle := &priorityBundle{
			glob:  glob,
			regex: regex,
		}
		if len(containsEntries) > 0 {
			bundle.contains = newContainsBundle(containsEntries)
		}
		rs.inclusive = append(rs.inclusive, bundle)
	}

	return rs, nil
}

// Rule returns the rule with the given ID, or nil if unknown.
func (rs *RuleSet) Rule(id string) *model.Rule {
	if rs == nil {
		return nil
	}
	return rs.rules[id]
}

// Evaluate runs the Matcher's evaluation order against a normalized name:
// the exclude bundle first, then inclusive rules in ascending priority.
// Within a bundle, Contains, Glob, and Regex are probed in that order.
func (rs *RuleSet) Evaluate(normalizedName string) Verdict {
	if rs == nil {
		return NoRule
	}

	if rs.excludeBundle != nil {
		if _, ok := rs.excludeBundle.match(normalizedName); ok {
			return Excluded
		}
	}

	for _, bundle := range rs.inclusive {
		if id, ok := bundle.match(normalizedName); ok {
			return Matched(id)
		}
	}

	return NoRule
}
