// Package model defines the data types shared across FileMover's engine
// components: pattern and rule definitions, scan options, folder hits, plan
// nodes, conflicts, and journal entries. These types carry no behavior beyond
// small accessors; the packages that consume them (match, scan, plan,
// execute, journal) own the algorithms.
package model

// PatternKind identifies how a PatternSpec's value should be interpreted.
type PatternKind uint8

const (
	// PatternGlob matches using shell-style glob syntax (via doublestar).
	PatternGlob PatternKind = iota
	// PatternRegex matches using a compiled regular expression.
	PatternRegex
	// PatternContains matches using a plain substring test, aggregated with
	// other Contains patterns into a shared automaton (one for
	// case-sensitive patterns, one for case-insensitive ones).
	PatternContains
)

// String returns a human-readable name for the pattern kind.
func (k PatternKind) String() string {
	switch k {
	case PatternGlob:
		return "Glob"
	case PatternRegex:
		return "Regex"
	case PatternContains:
		return "Contains"
	default:
		return "Unknown"
	}
}

// PatternSpec describes a single match predicate belonging to a Rule. It is
// compiled once, at rule-set load time, into the form the Matcher needs.
type PatternSpec struct {
	// Kind selects the matching strategy.
	Kind PatternKind
	// Value is the pattern text: a glob, a regular expression, or a literal
	// substring, depending on Kind.
	Value string
	// IsExclude marks this pattern as belonging to the exclusion bundle,
	// which is evaluated before any inclusive rule.
	IsExclude bool
	// CaseInsensitive requests case-insensitive matching for this pattern.
	// Comparisons are always performed against the Normalizer's output, so
	// this flag only matters when case folding wasn't already applied by
	// the active ScanOptions.
	CaseInsensitive bool
}

// Policy determines how the Planner resolves a NameExists conflict for a
// node produced by a given rule.
type Policy uint8

const (
	// PolicyAutoRename appends a disambiguating suffix to the destination
	// name until it no longer collides.
	PolicyAutoRename Policy = iota
	// PolicySkip marks the node Skip rather than resolving the collision.
	PolicySkip
	// PolicyOverwrite keeps the colliding name and flags the node Dangerous.
	PolicyOverwrite
)

// String returns a human-readable name for the policy.
func (p Policy) String() string {
	switch p {
	case PolicyAutoRename:
		return "AutoRename"
	case PolicySkip:
		return "Skip"
	case PolicyOverwrite:
		return "Overwrite"
	default:
		return "Unknown"
	}
}

// Rule is a single user-declared matching-and-destination specification.
// Rules are immutable once a rule set has been compiled.
type Rule struct {
	// ID is a unique, user-assigned identifier for the rule.
	ID string
	// Enabled indicates whether the rule participates in matching. Disabled
	// rules are never consulted by the Matcher, and disabling a rule never
	// causes an otherwise-excluded folder to start matching.
	Enabled bool
	// Pattern is the compiled-at-load-time match predicate.
	Pattern PatternSpec
	// DestRoot is the root directory under which the rule's template is
	// expanded.
	DestRoot string
	// Template is the destination path template, relative to DestRoot.
	Template string
	// ConflictPolicy governs NameExists resolution for hits produced by
	// this rule.
	ConflictPolicy Policy
	// Priority orders rule evaluation; lower values are evaluated first.
	// Ties are broken by declaration order (index in the compiled set).
	Priority int
	// Label is an optional human-readable name substitutable via the
	// {label} template token.
	Label string
}
