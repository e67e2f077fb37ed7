package normalize

import (
	"testing"

	"github.com/SumihisaYutani/FileMover/pkg/model"
)

var allFlags = model.NormalizationFlags{
	Unicode:    true,
	Width:      true,
	Diacritics: true,
	CaseFold:   true,
}

// normalizeTestCase represents a single Normalize invocation and its
// expected result.
type normalizeTestCase struct {
	text     string
	flags    model.NormalizationFlags
	expected string
}

// run executes the test case in the provided test context.
func (c *normalizeTestCase) run(t *testing.T) {
	t.Helper()
	if result := Normalize(c.text, c.flags); result != c.expected {
		t.Errorf("Normalize(%q) = %q, expected %q", c.text, result, c.expected)
	}
}

func TestNormalizeCaseFold(t *testing.T) {
	testCase := &normalizeTestCase{
		text:     "Report_Q1",
		flags:    model.NormalizationFlags{CaseFold: true},
		expected: "report_q1",
	}
	testCase.run(t)
}

func TestNormalizeWidthFold(t *testing.T) {
	testCase := &normalizeTestCase{
		text:     "ａｂｃ", // fullwidth "abc"
		flags:    model.NormalizationFlags{Width: true},
		expected: "abc",
	}
	testCase.run(t)
}

func TestNormalizeDiacritics(t *testing.T) {
	testCase := &normalizeTestCase{
		text:     "résumé",
		flags:    model.NormalizationFlags{Diacritics: true},
		expected: "resume",
	}
	testCase.run(t)
}

func TestNormalizeNoFlagsIsIdentity(t *testing.T) {
	testCase := &normalizeTestCase{
		text:     "MixedCase_Report",
		flags:    model.NormalizationFlags{},
		expected: "MixedCase_Report",
	}
	testCase.run(t)
}

func TestNormalizeIdempotent(t *testing.T) {
	cases := []string{
		"Report_Q1",
		"résumé",
		"ａｂｃ",
		"MIXED Case Name",
		"",
	}
	for _, text := range cases {
		if !Idempotent(text, allFlags) {
			t.Errorf("Normalize is not idempotent for %q", text)
		}
	}
}

func TestNormalizeEmptyString(t *testing.T) {
	testCase := &normalizeTestCase{
		text:     "",
		flags:    allFlags,
		expected: "",
	}
	testCase.run(t)
}
