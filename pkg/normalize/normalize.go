// Package normalize implements the Normalizer: a pure function that
// canonicalizes folder names for comparison while leaving display and
// stored paths untouched.
package normalize

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/SumihisaYutani/FileMover/pkg/model"
)

// caseFolder performs locale-independent Unicode case folding, as opposed
// to locale-dependent lowercasing (cases.Lower depends on a language tag;
// we deliberately use the untagged form so that folding is stable across
// systems with different locales configured).
var caseFolder = cases.Fold()

// diacriticStripper removes combining marks (category Mn) after NFD
// decomposition, then recomposes with NFC.
var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize canonicalizes text according to the given flags, applying
// steps in a fixed order: Unicode NFKC composition, width folding,
// diacritic stripping, then case folding. It is pure and has no side
// effects; the result is intended only for comparison, never for display
// or storage.
func Normalize(text string, flags model.NormalizationFlags) string {
	result := text

	if flags.Unicode {
		result = norm.NFKC.String(result)
	}

	if flags.Width {
		result = width.Fold.String(result)
	}

	if flags.Diacritics {
		if folded, _, err := transform.String(diacriticStripper, result); err == nil {
			result = folded
		}
	}

	if flags.CaseFold {
		if folded, _, err := transform.String(caseFolder, result); err == nil {
			result = folded
		}
	}

	return result
}

// Idempotent reports whether Normalize(Normalize(text, flags), flags) ==
// Normalize(text, flags). It exists primarily to give tests a named
// assertion to call.
func Idempotent(text string, flags model.NormalizationFlags) bool {
	once := Normalize(text, flags)
	twice := Normalize(once, flags)
	return once == twice
}
