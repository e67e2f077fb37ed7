package model

// NormalizationFlags selects which Normalizer steps are applied before
// comparison. See pkg/normalize for the implementation of each step.
type NormalizationFlags struct {
	// Unicode enables NFKC composition.
	Unicode bool
	// Width enables full/half-width folding.
	Width bool
	// Diacritics enables diacritic stripping.
	Diacritics bool
	// CaseFold enables Unicode case folding.
	CaseFold bool
}

// ScanOptions configures a single scan. ScanOptions and the compiled rule
// set are immutable for the duration of a scan.
type ScanOptions struct {
	// Normalization selects the Normalizer steps applied to folder names
	// before matching.
	Normalization NormalizationFlags
	// FollowJunctions enables descent through reparse points.
	FollowJunctions bool
	// SystemProtections enables the always-excluded prefix set (Windows,
	// Program Files, $Recycle.Bin, %TEMP%).
	SystemProtections bool
	// MaxDepth, if non-nil, bounds descent depth below each root.
	MaxDepth *int
	// ExcludedPaths is a set of path prefixes refused outright.
	ExcludedPaths []string
	// ParallelThreads bounds the scanner's worker pool. Zero means
	// min(8, runtime.NumCPU()).
	ParallelThreads int
}

// DefaultSystemProtections is the default always-excluded prefix set, used
// when ScanOptions.SystemProtections is true. It covers the entries that
// are fixed regardless of which drive a scan root lives on; the
// per-volume "$Recycle.Bin" prefix and the environment-resolved %TEMP%
// directory are drive- and session-dependent, so the Scanner computes
// those at scan time (see scan.systemProtectionsFor) rather than baking
// them into this static list. The list is a plain variable; nothing checks
// for, or asks the user to acknowledge, the removal of an entry.
var DefaultSystemProtections = []string{
	`C:\Windows`,
	`C:\Program Files`,
	`C:\Program Files (x86)`,
}
