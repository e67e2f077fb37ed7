package match

import (
	"testing"

	"github.com/SumihisaYutani/FileMover/pkg/model"
)

// ruleSetTestCase represents a single Evaluate invocation and its expected
// verdict.
type ruleSetTestCase struct {
	name     string
	rules    []model.Rule
	input    string
	expected Verdict
}

func (c *ruleSetTestCase) run(t *testing.T) {
	t.Helper()
	rs, err := Compile(c.rules)
	if err != nil {
		t.Fatalf("%s: unable to compile rule set: %v", c.name, err)
	}
	if verdict := rs.Evaluate(c.input); verdict != c.expected {
		t.Errorf("%s: Evaluate(%q) = %+v, expected %+v", c.name, c.input, verdict, c.expected)
	}
}

func TestRuleSetContainsMatch(t *testing.T) {
	testCase := &ruleSetTestCase{
		name: "contains",
		rules: []model.Rule{
			{ID: "r1", Enabled: true, Priority: 0, Pattern: model.PatternSpec{Kind: model.PatternContains, Value: "report"}},
		},
		input:    "quarterly_report_q1",
		expected: Matched("r1"),
	}
	testCase.run(t)
}

func TestRuleSetGlobMatch(t *testing.T) {
	testCase := &ruleSetTestCase{
		name: "glob",
		rules: []model.Rule{
			{ID: "r1", Enabled: true, Priority: 0, Pattern: model.PatternSpec{Kind: model.PatternGlob, Value: "*report*"}},
		},
		input:    "report_q1",
		expected: Matched("r1"),
	}
	testCase.run(t)
}

func TestRuleSetRegexMatch(t *testing.T) {
	testCase := &ruleSetTestCase{
		name: "regex",
		rules: []model.Rule{
			{ID: "r1", Enabled: true, Priority: 0, Pattern: model.PatternSpec{Kind: model.PatternRegex, Value: `^report_q[0-9]$`}},
		},
		input:    "report_q1",
		expected: Matched("r1"),
	}
	testCase.run(t)
}

func TestRuleSetNoMatch(t *testing.T) {
	testCase := &ruleSetTestCase{
		name: "no-match",
		rules: []model.Rule{
			{ID: "r1", Enabled: true, Priority: 0, Pattern: model.PatternSpec{Kind: model.PatternContains, Value: "report"}},
		},
		input:    "invoices",
		expected: NoRule,
	}
	testCase.run(t)
}

func TestRuleSetExclusionShortCircuits(t *testing.T) {
	testCase := &ruleSetTestCase{
		name: "exclusion",
		rules: []model.Rule{
			{ID: "inc", Enabled: true, Priority: 0, Pattern: model.PatternSpec{Kind: model.PatternContains, Value: "report"}},
			{ID: "exc", Enabled: true, Priority: 0, Pattern: model.PatternSpec{Kind: model.PatternContains, Value: "report", IsExclude: true}},
		},
		input:    "report_draft",
		expected: Excluded,
	}
	testCase.run(t)
}

func TestRuleSetPriorityOrdering(t *testing.T) {
	testCase := &ruleSetTestCase{
		name: "priority",
		rules: []model.Rule{
			{ID: "low-priority", Enabled: true, Priority: 5, Pattern: model.PatternSpec{Kind: model.PatternContains, Value: "report"}},
			{ID: "high-priority", Enabled: true, Priority: 1, Pattern: model.PatternSpec{Kind: model.PatternContains, Value: "report"}},
		},
		input:    "report_q1",
		expected: Matched("high-priority"),
	}
	testCase.run(t)
}

func TestRuleSetDeclarationOrderTieBreak(t *testing.T) {
	testCase := &ruleSetTestCase{
		name: "tie-break",
		rules: []model.Rule{
			{ID: "first", Enabled: true, Priority: 0, Pattern: model.PatternSpec{Kind: model.PatternContains, Value: "report"}},
			{ID: "second", Enabled: true, Priority: 0, Pattern: model.PatternSpec{Kind: model.PatternContains, Value: "report"}},
		},
		input:    "report_q1",
		expected: Matched("first"),
	}
	testCase.run(t)
}

func TestRuleSetDisabledRuleNeverMatches(t *testing.T) {
	testCase := &ruleSetTestCase{
		name: "disabled",
		rules: []model.Rule{
			{ID: "r1", Enabled: false, Priority: 0, Pattern: model.PatternSpec{Kind: model.PatternContains, Value: "report"}},
		},
		input:    "report_q1",
		expected: NoRule,
	}
	testCase.run(t)
}

// TestRuleSetDisablingIsMonotone checks the invariant that disabling a
// rule cannot increase the hit count: a name matched by a
// two-rule set must still match (to some rule) when one of the rules is
// disabled, provided at least one rule still covers it.
func TestRuleSetDisablingIsMonotone(t *testing.T) {
	enabled := []model.Rule{
		{ID: "r1", Enabled: true, Priority: 0, Pattern: model.PatternSpec{Kind: model.PatternContains, Value: "report"}},
		{ID: "r2", Enabled: true, Priority: 1, Pattern: model.PatternSpec{Kind: model.PatternContains, Value: "report"}},
	}
	rsBefore, err := Compile(enabled)
	if err != nil {
		t.Fatalf("unable to compile: %v", err)
	}
	before := rsBefore.Evaluate("report_q1")

	disabled := append([]model.Rule(nil), enabled...)
	disabled[1].Enabled = false
	rsAfter, err := Compile(disabled)
	if err != nil {
		t.Fatalf("unable to compile: %v", err)
	}
	after := rsAfter.Evaluate("report_q1")

	if before.Kind != Matched("r1").Kind || after.Kind != Matched("r1").Kind {
		t.Fatalf("expected both evaluations to match, got before=%+v after=%+v", before, after)
	}
}

func TestCompileInvalidRegexNamesOffendingRule(t *testing.T) {
	_, err := Compile([]model.Rule{
		{ID: "bad-rule", Enabled: true, Pattern: model.PatternSpec{Kind: model.PatternRegex, Value: "(unterminated"}},
	})
	if err == nil {
		t.Fatal("expected error for invalid regex")
	}
}

func TestCompileInvalidGlobNamesOffendingRule(t *testing.T) {
	_, err := Compile([]model.Rule{
		{ID: "bad-rule", Enabled: true, Pattern: model.PatternSpec{Kind: model.PatternGlob, Value: "["}},
	})
	if err == nil {
		t.Fatal("expected error for invalid glob")
	}
}

func TestCompileDuplicateRuleID(t *testing.T) {
	_, err := Compile([]model.Rule{
		{ID: "dup", Enabled: true, Pattern: model.PatternSpec{Kind: model.PatternContains, Value: "a"}},
		{ID: "dup", Enabled: true, Pattern: model.PatternSpec{Kind: model.PatternContains, Value: "b"}},
	})
	if err == nil {
		t.Fatal("expected error for duplicate rule id")
	}
}
