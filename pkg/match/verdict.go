// Package match implements the Matcher: a compiled rule set that
// evaluates a normalized folder name against a set of patterns, returning
// the first-priority matching rule or an exclusion verdict. Only the name
// is matched; relative paths are not evaluated.
package match

// VerdictKind tags the result of evaluating a rule set against a name.
type VerdictKind uint8

const (
	// VerdictNoRule indicates no inclusive rule matched and no exclusion
	// applied.
	VerdictNoRule VerdictKind = iota
	// VerdictExcluded indicates an exclusion pattern short-circuited
	// evaluation.
	VerdictExcluded
	// VerdictMatched indicates an inclusive rule matched.
	VerdictMatched
)

// Verdict is the Matcher's output for a single evaluation.
type Verdict struct {
	Kind   VerdictKind
	RuleID string
}

// NoRule is the zero-allocation verdict for "no rule applies".
var NoRule = Verdict{Kind: VerdictNoRule}

// Excluded is the verdict for "this path is excluded".
var Excluded = Verdict{Kind: VerdictExcluded}

// Matched constructs a VerdictMatched verdict for the given rule ID.
func Matched(ruleID string) Verdict {
	return Verdict{Kind: VerdictMatched, RuleID: ruleID}
}
