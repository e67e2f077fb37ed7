package match

import "strings"

// acNode is a node in the Aho-Corasick automaton underlying the Contains
// bundle.
type acNode struct {
	children [256]*acNode
	fail     *acNode
	output   []int // indices into acAutomaton.patterns, in insertion order
}

// acAutomaton aggregates multiple Contains patterns into a single automaton
// with linear-time search.
type acAutomaton struct {
	root     *acNode
	patterns []string // lowercased if the corresponding entry is case-insensitive
}

// newACAutomaton builds an automaton over the given patterns, matching them
// exactly as given. Case-insensitive matching is the caller's job:
// newContainsBundle lowercases those patterns before building a separate
// automaton for them, and lowercases the haystack the same way when
// probing it.
func newACAutomaton(patterns []string) *acAutomaton {
	a := &acAutomaton{root: &acNode{}, patterns: patterns}
	for i, p := range patterns {
		a.addPattern(p, i)
	}
	a.buildFailureLinks()
	return a
}

func (a *acAutomaton) addPattern(pattern string, index int) {
	node := a.root
	for i := 0; i < len(pattern); i++ {
		b := pattern[i]
		if node.children[b] == nil {
			node.children[b] = &acNode{}
		}
		node = node.children[b]
	}
	node.output = append(node.output, index)
}

func (a *acAutomaton) buildFailureLinks() {
	queue := make([]*acNode, 0, 256)

	for i := range 256 {
		child := a.root.children[i]
		if child != nil {
			child.fail = a.root
			queue = append(queue, child)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for i := range 256 {
			child := current.children[i]
			if child == nil {
				continue
			}
			queue = append(queue, child)

			fail := current.fail
			for fail != nil && fail.children[i] == nil {
				fail = fail.fail
			}
			if fail == nil {
				child.fail = a.root
			} else {
				child.fail = fail.children[i]
			}

			if child.fail != nil && len(child.fail.output) > 0 {
				child.output = append(child.output, child.fail.output...)
			}
		}
	}
}

// firstMatch walks the automaton over text and returns the index of the
// first pattern (by earliest ending position) found, or -1 if none match.
func (a *acAutomaton) firstMatch(text string) int {
	if a.root == nil || len(a.patterns) == 0 {
		return -1
	}

	node := a.root
	for i := 0; i < len(text); i++ {
		b := text[i]
		for node != a.root && node.children[b] == nil {
			node = node.fail
		}
		if node.children[b] != nil {
			node = node.children[b]
		}
		if len(node.output) > 0 {
			return node.output[0]
		}
	}
	return -1
}

// containsBundle evaluates Contains patterns, split into a case-sensitive
// automaton and a case-insensitive one (the latter probed against a
// lowercased haystack), each searched in linear time.
type containsBundle struct {
	sensitive    *acAutomaton
	sensitiveIDs []string

	insensitive    *acAutomaton
	insensitiveIDs []string
}

func newContainsBundle(entries []patternEntry) *containsBundle {
	b := &containsBundle{}

	var sensitivePatterns, insensitivePatterns []string
	for _, e := range entries {
		if e.caseInsensitive {
			insensitivePatterns = append(insensitivePatterns, strings.ToLower(e.value))
			b.insensitiveIDs = append(b.insensitiveIDs, e.ruleID)
		} else {
			sensitivePatterns = append(sensitivePatterns, e.value)
			b.sensitiveIDs = append(b.sensitiveIDs, e.ruleID)
		}
	}

	if len(sensitivePatterns) > 0 {
		b.sensitive = newACAutomaton(sensitivePatterns)
	}
	if len(insensitivePatterns) > 0 {
		b.insensitive = newACAutomaton(insensitivePatterns)
	}

	return b
}

// match returns the rule ID of the first Contains pattern matching name, and
// true, or ("", false) if none match.
func (b *containsBundle) match(name string) (string, bool) {
	if b.sensitive != nil {
		if idx := b.sensitive.firstMatch(name); idx >= 0 {
			return b.sensitiveIDs[idx], true
		}
	}
	if b.insensitive != nil {
		if idx := b.insensitive.firstMatch(strings.ToLower(name)); idx >= 0 {
			return b.insensitiveIDs[idx], true
		}
	}
	return "", false
}

// patternEntry associates a raw pattern value with the rule ID it belongs
// to, used while building bundles.
type patternEntry struct {
	ruleID          string
	value           string
	caseInsensitive bool
}
