package model

// Warning identifies a non-fatal condition attached to a FolderHit or
// PlanNode.
type Warning uint8

const (
	// WarningLongPath indicates the path length exceeds 247 characters.
	WarningLongPath Warning = iota
	// WarningACLDiffers indicates the entry's ACL could not be inspected or
	// faithfully reproduced.
	WarningACLDiffers
	// WarningOffline indicates the containing location is a network/offline
	// path whose reachability could not be confirmed.
	WarningOffline
	// WarningAccessDenied indicates the entry (or one of its children)
	// could not be opened.
	WarningAccessDenied
	// WarningJunction indicates traversal encountered a reparse point.
	WarningJunction
	// WarningCrossVolume indicates the destination resides on a different
	// volume than the source.
	WarningCrossVolume
)

// String returns a human-readable name for the warning.
func (w Warning) String() string {
	switch w {
	case WarningLongPath:
		return "LongPath"
	case WarningACLDiffers:
		return "AclDiffers"
	case WarningOffline:
		return "Offline"
	case WarningAccessDenied:
		return "AccessDenied"
	case WarningJunction:
		return "Junction"
	case WarningCrossVolume:
		return "CrossVolume"
	default:
		return "Unknown"
	}
}

// FolderHit is a single folder accepted by the Matcher during a scan, along
// with its previewed destination. FolderHits are immutable once produced;
// the Scanner never mutates one after emission.
type FolderHit struct {
	// SourcePath is the absolute path to the matched folder.
	SourcePath string `json:"source_path"`
	// Name is the folder's base name (not normalized; display form).
	Name string `json:"name"`
	// RuleID is the ID of the rule that matched, or "" if no rule matched
	// (in which case the hit would not have been emitted at all — callers
	// should treat an empty RuleID on an emitted hit as a programming
	// error).
	RuleID string `json:"rule_id"`
	// DestPreview is the expanded destination path implied by the matched
	// rule's template, evaluated at scan time.
	DestPreview string `json:"dest_preview"`
	// Warnings lists non-fatal conditions observed while producing this
	// hit.
	Warnings []Warning `json:"warnings,omitempty"`
	// SizeBytes is the recursive size of the folder's contents. The Scanner
	// does not compute it, so it is nil unless a caller sets it.
	SizeBytes *uint64 `json:"size_bytes,omitempty"`
}

// MarshalJSON serializes a Warning using its string name rather than its
// underlying integer value, matching the convention NodeKind and
// JournalResult use elsewhere in the wire format.
func (w Warning) MarshalJSON() ([]byte, error) {
	return []byte(`"` + w.String() + `"`), nil
}

// UnmarshalJSON parses a Warning from its string name.
func (w *Warning) UnmarshalJSON(data []byte) error {
	switch trimQuotes(string(data)) {
	case "LongPath":
		*w = WarningLongPath
	case "AclDiffers":
		*w = WarningACLDiffers
	case "Offline":
		*w = WarningOffline
	case "AccessDenied":
		*w = WarningAccessDenied
	case "Junction":
		*w = WarningJunction
	case "CrossVolume":
		*w = WarningCrossVolume
	}
	return nil
}

// HasWarning reports whether the hit carries the given warning.
func (h *FolderHit) HasWarning(w Warning) bool {
	for _, existing := range h.Warnings {
		if existing == w {
			return true
		}
	}
	return false
}
