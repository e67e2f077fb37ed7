package model

// NodeKind identifies the operation classification computed for a PlanNode
// by the Planner.
type NodeKind uint8

const (
	// NodeMove is an atomic rename of a directory entry within one volume.
	NodeMove NodeKind = iota
	// NodeCopyDelete is a recursive copy followed by source removal, used
	// across volumes.
	NodeCopyDelete
	// NodeRename is a same-directory rename.
	NodeRename
	// NodeSkip indicates the node will not be acted on.
	NodeSkip
	// NodeNone indicates no operation is associated with the node (used
	// for lazily-materialized children that merely ride along with an
	// ancestor's move).
	NodeNone
)

// String returns a human-readable name for the node kind.
func (k NodeKind) String() string {
	switch k {
	case NodeMove:
		return "Move"
	case NodeCopyDelete:
		return "CopyDelete"
	case NodeRename:
		return "Rename"
	case NodeSkip:
		return "Skip"
	case NodeNone:
		return "None"
	default:
		return "Unknown"
	}
}

// ConflictKind tags the variant held by a Conflict value.
type ConflictKind uint8

const (
	// ConflictNameExists indicates the destination path is occupied.
	ConflictNameExists ConflictKind = iota
	// ConflictCycle indicates two nodes' before/after paths cross.
	ConflictCycle
	// ConflictDestInsideSource indicates path_after is a descendant of
	// path_before.
	ConflictDestInsideSource
	// ConflictNoSpace indicates insufficient free space on the destination
	// volume for one or more CopyDelete operations.
	ConflictNoSpace
	// ConflictPermission indicates an ACL probe predicts denial.
	ConflictPermission
	// ConflictCrossVolumeDisallowed indicates a hit would require a
	// cross-volume CopyDelete but plan.Options.EnableCrossVolume is off, so
	// the node was skipped instead of classified.
	ConflictCrossVolumeDisallowed
)

// String returns a human-readable name for the conflict kind.
func (k ConflictKind) String() string {
	switch k {
	case ConflictNameExists:
		return "NameExists"
	case ConflictCycle:
		return "CycleDetected"
	case ConflictDestInsideSource:
		return "DestInsideSource"
	case ConflictNoSpace:
		return "NoSpace"
	case ConflictPermission:
		return "Permission"
	case ConflictCrossVolumeDisallowed:
		return "CrossVolumeDisallowed"
	default:
		return "Unknown"
	}
}

// Conflict is a tagged variant describing an obstacle to executing a
// PlanNode as classified. Only the fields relevant to Kind are populated.
type Conflict struct {
	Kind ConflictKind `json:"kind"`

	// ExistingPath is populated for ConflictNameExists.
	ExistingPath string `json:"existing_path,omitempty"`
	// RequiredBytes and AvailableBytes are populated for ConflictNoSpace.
	RequiredBytes  uint64 `json:"required_bytes,omitempty"`
	AvailableBytes uint64 `json:"available_bytes,omitempty"`
	// RequiredPermission describes the access predicted to be denied, for
	// ConflictPermission.
	RequiredPermission string `json:"required_permission,omitempty"`
}

// MarshalJSON serializes a ConflictKind using its string name.
func (k ConflictKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON parses a ConflictKind from its string name.
func (k *ConflictKind) UnmarshalJSON(data []byte) error {
	switch trimQuotes(string(data)) {
	case "NameExists":
		*k = ConflictNameExists
	case "CycleDetected":
		*k = ConflictCycle
	case "DestInsideSource":
		*k = ConflictDestInsideSource
	case "NoSpace":
		*k = ConflictNoSpace
	case "Permission":
		*k = ConflictPermission
	case "CrossVolumeDisallowed":
		*k = ConflictCrossVolumeDisallowed
	}
	return nil
}

// PlanNode is one node of the Before/After forest built by the Planner. The
// node map (held by MovePlan) owns every PlanNode; a PlanNode references
// its children only by ID, never by direct pointer, so the structure is a
// DAG rather than a cyclic ownership graph and children can be
// materialized lazily.
type PlanNode struct {
	// ID is a 64-bit, monotonically increasing identifier, unique within
	// the owning MovePlan.
	ID int64 `json:"id"`
	// IsDir indicates whether the node represents a directory.
	IsDir bool `json:"is_dir"`
	// NameBefore/PathBefore describe the node's current location.
	NameBefore string `json:"name_before"`
	PathBefore string `json:"path_before"`
	// NameAfter/PathAfter describe the node's intended location. NodeSkip
	// roots keep the destination computed for their hit; NodeNone children
	// get their parent's PathAfter joined with their own name.
	NameAfter string `json:"name_after"`
	PathAfter string `json:"path_after"`
	// Kind is the classified operation.
	Kind NodeKind `json:"kind"`
	// SizeBytes is populated when known (root hits with size requested, or
	// files encountered during child materialization).
	SizeBytes *uint64 `json:"size_bytes,omitempty"`
	// Warnings carries forward hit-level warnings plus any discovered
	// during plan construction.
	Warnings []Warning `json:"warnings,omitempty"`
	// Conflicts lists unresolved or informational conflicts attached to
	// this node.
	Conflicts []Conflict `json:"conflicts,omitempty"`
	// Dangerous is set when an Overwrite policy resolved a NameExists
	// conflict by keeping a colliding name.
	Dangerous bool `json:"dangerous,omitempty"`
	// ChildIDs is the ordered list of child PlanNode IDs (insertion order =
	// directory enumeration order), populated only when children have
	// been materialized.
	ChildIDs []int64 `json:"child_ids,omitempty"`
	// RuleID is the rule that produced this node, if any (root nodes only;
	// materialized children inherit no rule of their own).
	RuleID string `json:"rule_id,omitempty"`
}

// PlanSummary aggregates counts across a MovePlan.
type PlanSummary struct {
	CountDirs   int     `json:"count_dirs"`
	CountFiles  int     `json:"count_files"`
	TotalBytes  *uint64 `json:"total_bytes,omitempty"`
	CrossVolume bool    `json:"cross_volume"`
	Conflicts   int     `json:"conflicts"`
	Warnings    int     `json:"warnings"`
}

// MovePlan is the Planner's output: an ordered list of root node IDs, the
// node map that owns every PlanNode, and a summary. A MovePlan may be
// mutated via per-node edits (see the Planner's incremental revalidation)
// but is read-only once handed to the Executor.
type MovePlan struct {
	// PlanID uniquely identifies one Build, letting a journal entry and a
	// dry-run report be correlated back to the plan that produced them.
	PlanID  string              `json:"plan_id"`
	RootIDs []int64             `json:"root_ids"`
	Nodes   map[int64]*PlanNode `json:"nodes"`
	Summary PlanSummary         `json:"summary"`
}

// Node looks up a node by ID, returning nil if absent.
func (p *MovePlan) Node(id int64) *PlanNode {
	if p == nil {
		return nil
	}
	return p.Nodes[id]
}

// ValidationDelta is the result of an incremental revalidation triggered by
// a single node edit: the set of nodes whose conflict set or operation kind
// changed, plus a recomputed summary.
type ValidationDelta struct {
	ChangedNodeIDs []int64
	Summary        PlanSummary
}
