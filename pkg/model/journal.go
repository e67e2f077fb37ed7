package model

import "time"

// JournalResult is the observed outcome of an attempted journal entry.
type JournalResult uint8

const (
	// JournalPending marks an attempt that has been recorded but whose
	// outcome is not yet known. A Pending line that no Ok/Skip/Failed line
	// for the same source and destination resolves indicates an
	// interrupted execution.
	JournalPending JournalResult = iota
	// JournalOk marks a successfully completed operation.
	JournalOk
	// JournalSkip marks an operation that was deliberately not performed.
	JournalSkip
	// JournalFailed marks an operation that was attempted and failed.
	JournalFailed
)

// String returns the wire-format spelling of the result.
func (r JournalResult) String() string {
	switch r {
	case JournalPending:
		return "Pending"
	case JournalOk:
		return "Ok"
	case JournalSkip:
		return "Skip"
	case JournalFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so JournalResult serializes
// as its wire-format spelling in JSON.
func (r JournalResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *JournalResult) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Pending":
		*r = JournalPending
	case "Ok":
		*r = JournalOk
	case "Skip":
		*r = JournalSkip
	case "Failed":
		*r = JournalFailed
	default:
		*r = JournalPending
	}
	return nil
}

// JournalEntry is one append-only record of an attempted or observed move
// outcome. The Executor writes a Pending entry before every attempt and one
// outcome entry (Ok or Failed) after an operation's final attempt, all
// sharing the same Source/Dest/Op; a skipped node gets a single Skip entry.
type JournalEntry struct {
	WhenUTC time.Time     `json:"when_utc"`
	PlanID  string        `json:"plan_id,omitempty"`
	Source  string        `json:"source"`
	Dest    string        `json:"dest"`
	Op      NodeKind      `json:"op"`
	Result  JournalResult `json:"result"`
	Message string        `json:"message,omitempty"`

	// DestSizeBytes and DestModifiedUTC snapshot the destination's own
	// metadata at the moment a JournalOk line is written, letting Undo
	// detect whether the destination was touched again afterward (new or
	// removed files change a directory's size and last-write time on
	// NTFS) before it inverts the move. Both are nil for non-Ok entries.
	DestSizeBytes   *uint64    `json:"dest_size_bytes,omitempty"`
	DestModifiedUTC *time.Time `json:"dest_modified_utc,omitempty"`
}

// MarshalJSON for NodeKind so journal entries serialize using the wire
// spelling rather than the integer value.
func (k NodeKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON for NodeKind.
func (k *NodeKind) UnmarshalJSON(data []byte) error {
	s := string(data)
	s = trimQuotes(s)
	switch s {
	case "Move":
		*k = NodeMove
	case "CopyDelete":
		*k = NodeCopyDelete
	case "Rename":
		*k = NodeRename
	case "Skip":
		*k = NodeSkip
	case "None":
		*k = NodeNone
	}
	return nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// JournalHeader is the first line of every journal file.
type JournalHeader struct {
	Version     int       `json:"version"`
	StartedUTC  time.Time `json:"started_utc"`
}
