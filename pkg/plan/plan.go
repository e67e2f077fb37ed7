// Package plan implements the Planner: it turns a slice of model.FolderHit
// values into a model.MovePlan — a Before/After forest of model.PlanNode
// values, each classified into an operation kind and checked for
// conflicts. The node ownership model (a flat map keyed by ID, referenced
// by children only through ChildIDs) keeps the structure a DAG rather
// than a cyclic ownership graph, the same path-as-identity discipline
// used elsewhere in this codebase to keep entry trees free of
// parent-to-child back-pointers.
package plan

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/SumihisaYutani/FileMover/pkg/match"
	"github.com/SumihisaYutani/FileMover/pkg/model"
	"github.com/SumihisaYutani/FileMover/pkg/winfs"
)

// Options configures a Builder's classification policy.
type Options struct {
	// EnableCrossVolume permits a hit whose destination lands on a
	// different volume than its source to be classified NodeCopyDelete.
	// With it off (the default), such a hit is skipped and flagged
	// ConflictCrossVolumeDisallowed instead.
	EnableCrossVolume bool
}

// Builder accumulates a MovePlan across one Build call and any number of
// subsequent incremental operations (child materialization, policy
// overrides). A Builder is not safe for concurrent use.
type Builder struct {
	rules  *match.RuleSet
	opts   Options
	plan   *model.MovePlan
	nextID int64
}

// NewBuilder constructs a Builder bound to a compiled rule set, used to
// look up each hit's originating rule for its destination template and
// conflict policy.
func NewBuilder(rules *match.RuleSet, opts Options) *Builder {
	return &Builder{
		rules: rules,
		opts:  opts,
		plan: &model.MovePlan{
			PlanID: uuid.NewString(),
			Nodes:  make(map[int64]*model.PlanNode),
		},
	}
}

// Plan returns the MovePlan built so far.
func (b *Builder) Plan() *model.MovePlan {
	return b.plan
}

// Build classifies every hit into a root PlanNode, ordered by the matched
// rule's priority and then by source path, and then runs whole-plan
// conflict detection (free space, cycles) that requires seeing every root
// at once.
func (b *Builder) Build(hits []model.FolderHit) error {
	priority := func(h model.FolderHit) int {
		if rule := b.rules.Rule(h.RuleID); rule != nil {
			return rule.Priority
		}
		return 0
	}
	ordered := append([]model.FolderHit(nil), hits...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if pi, pj := priority(ordered[i]), priority(ordered[j]); pi != pj {
			return pi < pj
		}
		return ordered[i].SourcePath < ordered[j].SourcePath
	})

	for _, hit := range ordered {
		node, err := b.newRootNode(hit)
		if err != nil {
			return errors.Wrapf(err, "unable to classify hit %q", hit.SourcePath)
		}
		b.plan.RootIDs = append(b.plan.RootIDs, node.ID)
		b.plan.Nodes[node.ID] = node
	}

	b.checkSpaceAggregate()
	b.detectCycles()
	b.recomputeSummary()
	return nil
}

// newRootNode builds and classifies a single root PlanNode from a hit,
// including NameExists/DestInsideSource/Permission detection and
// policy-driven NameExists resolution. NoSpace and cycle detection are
// deferred to checkSpaceAggregate and detectCycles, which need the full
// root set.
func (b *Builder) newRootNode(hit model.FolderHit) (*model.PlanNode, error) {
	rule := b.rules.Rule(hit.RuleID)
	if rule == nil {
		return nil, errors.Errorf("hit references unknown rule %q", hit.RuleID)
	}

	node := &model.PlanNode{
		ID:         b.allocateID(),
		IsDir:      true,
		NameBefore: hit.Name,
		PathBefore: hit.SourcePath,
		NameAfter:  baseName(hit.DestPreview),
		PathAfter:  hit.DestPreview,
		SizeBytes:  hit.SizeBytes,
		Warnings:   append([]model.Warning(nil), hit.Warnings...),
		RuleID:     hit.RuleID,
	}

	if destInsideSource(node.PathBefore, node.PathAfter) {
		node.Conflicts = append(node.Conflicts, model.Conflict{Kind: model.ConflictDestInsideSource})
		node.Kind = model.NodeSkip
		return node, nil
	}

	kind, crossVolumeDisallowed := classifyKind(node.PathBefore, node.PathAfter, b.opts.EnableCrossVolume)
	node.Kind = kind
	if crossVolumeDisallowed {
		node.Conflicts = append(node.Conflicts, model.Conflict{Kind: model.ConflictCrossVolumeDisallowed})
		return node, nil
	}

	b.resolveNameExists(node, rule.ConflictPolicy)

	if hit.HasWarning(model.WarningAccessDenied) {
		node.Conflicts = append(node.Conflicts, model.Conflict{
			Kind:               model.ConflictPermission,
			RequiredPermission: "read/write on source or destination parent",
		})
	}

	if winfs.IsNetworkPath(node.PathBefore) || winfs.IsNetworkPath(node.PathAfter) {
		if !hasWarning(node.Warnings, model.WarningOffline) {
			node.Warnings = append(node.Warnings, model.WarningOffline)
		}
	}

	return node, nil
}

// resolveNameExists checks whether node.PathAfter is already occupied and,
// if so, applies policy: AutoRename appends " (2)", " (3)", ... until a
// free name is found; Skip marks the node NodeSkip; Overwrite keeps the
// name and flags the node Dangerous. The conflict is always recorded, even
// when a policy resolves it, so the caller can see what happened.
func (b *Builder) resolveNameExists(node *model.PlanNode, policy model.Policy) {
	if !pathExists(node.PathAfter) {
		return
	}

	node.Conflicts = append(node.Conflicts, model.Conflict{
		Kind:         model.ConflictNameExists,
		ExistingPath: node.PathAfter,
	})

	switch policy {
	case model.PolicySkip:
		node.Kind = model.NodeSkip
	case model.PolicyOverwrite:
		node.Dangerous = true
	case model.PolicyAutoRename:
		dir := parentDir(node.PathAfter)
		base := baseName(node.PathAfter)
		for attempt := 2; ; attempt++ {
			candidate := base + " (" + strconv.Itoa(attempt) + ")"
			candidatePath := joinPath(dir, candidate)
			if !pathExists(candidatePath) {
				node.NameAfter = candidate
				node.PathAfter = candidatePath
				break
			}
		}
	}
}

// checkSpaceAggregate compares each destination volume's available free
// space against the sum of sizes of every CopyDelete node targeting that
// volume, per node. A volume with two sub-threshold CopyDeletes whose
// combined size exceeds free space is flagged on both nodes; checking each
// node against the full free space in isolation would miss that case.
func (b *Builder) checkSpaceAggregate() {
	type volumeTotal struct {
		required uint64
		nodes    []*model.PlanNode
	}
	totals := make(map[string]*volumeTotal)

	for _, id := range b.plan.RootIDs {
		node := b.plan.Nodes[id]
		if node.Kind != model.NodeCopyDelete || node.SizeBytes == nil {
			continue
		}
		key := destVolumeKey(node.PathAfter)
		t, ok := totals[key]
		if !ok {
			t = &volumeTotal{}
			totals[key] = t
		}
		t.required += *node.SizeBytes
		t.nodes = append(t.nodes, node)
	}

	for _, t := range totals {
		info, err := winfs.QueryVolumeInfo(parentDir(t.nodes[0].PathAfter))
		if err != nil {
			continue
		}
		if info.AvailableBytes >= t.required {
			continue
		}
		for _, node := range t.nodes {
			node.Conflicts = append(node.Conflicts, model.Conflict{
				Kind:           model.ConflictNoSpace,
				RequiredBytes:  t.required,
				AvailableBytes: info.AvailableBytes,
			})
		}
	}
}

// destVolumeKey extracts the volume-identifying portion of an absolute
// Windows path (the drive letter, or the "\\server\share" prefix of a UNC
// path), used to group CopyDelete nodes by destination volume.
func destVolumeKey(path string) string {
	p := normalizedPath(path)
	if len(p) >= 2 && p[1] == ':' {
		return p[:2]
	}
	if strings.HasPrefix(p, `\\`) {
		parts := strings.SplitN(p[2:], `\`, 3)
		if len(parts) >= 2 {
			return `\\` + parts[0] + `\` + parts[1]
		}
	}
	return p
}

// detectCycles looks for any cycle among the root set under the descendant
// relation: node i depends on node j whenever i's destination lands at or
// inside j's source (i.PathAfter ⊆ j.PathBefore), since j must vacate that
// location before i can land there. A literal two-node swap
// (i.PathAfter == j.PathBefore and j.PathAfter == i.PathBefore) is the
// simplest case of this relation, but it also catches a destination nested
// strictly inside another node's source tree, not just exact-path swaps.
func (b *Builder) detectCycles() {
	nodes := make([]*model.PlanNode, 0, len(b.plan.RootIDs))
	for _, id := range b.plan.RootIDs {
		nodes = append(nodes, b.plan.Nodes[id])
	}

	edges := make([][]int, len(nodes))
	for i, a := range nodes {
		afterA := normalizedPath(a.PathAfter)
		for j, c := range nodes {
			if i == j {
				continue
			}
			if pathContainsOrEquals(normalizedPath(c.PathBefore), afterA) {
				edges[i] = append(edges[i], j)
			}
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make([]int, len(nodes))

	var visit func(i int) bool
	visit = func(i int) bool {
		if state[i] == visited {
			return false
		}
		if state[i] == visiting {
			return true
		}
		state[i] = visiting

		cyclic := false
		for _, j := range edges[i] {
			if visit(j) {
				cyclic = true
			}
		}
		if cyclic {
			nodes[i].Conflicts = append(nodes[i].Conflicts, model.Conflict{Kind: model.ConflictCycle})
			nodes[i].Kind = model.NodeSkip
		}
		state[i] = visited
		return cyclic
	}

	for i := range nodes {
		visit(i)
	}
}

// pathContainsOrEquals reports whether child is parent itself or a
// descendant of it. Both arguments must already be normalizedPath'd.
func pathContainsOrEquals(parent, child string) bool {
	if parent == child {
		return true
	}
	if !strings.HasPrefix(child, parent) {
		return false
	}
	return child[len(parent)] == '\\'
}

// recomputeSummary rebuilds the plan's aggregate PlanSummary from scratch.
func (b *Builder) recomputeSummary() {
	var summary model.PlanSummary
	var totalBytes uint64
	var haveTotal bool

	for _, node := range b.plan.Nodes {
		if node.IsDir {
			summary.CountDirs++
		} else {
			summary.CountFiles++
		}
		if node.SizeBytes != nil {
			totalBytes += *node.SizeBytes
			haveTotal = true
		}
		if node.Kind == model.NodeCopyDelete {
			summary.CrossVolume = true
		}
		summary.Conflicts += len(node.Conflicts)
		summary.Warnings += len(node.Warnings)
	}

	if haveTotal {
		summary.TotalBytes = &totalBytes
	}
	b.plan.Summary = summary
}

// MaterializeChildren lazily enumerates the immediate children of a
// directory PlanNode on disk, creating a NodeNone child PlanNode for each
// entry (it rides along with the parent's move rather than being
// independently classified) and appending their IDs to ChildIDs in
// enumeration order.
func (b *Builder) MaterializeChildren(nodeID int64) ([]int64, error) {
	node := b.plan.Nodes[nodeID]
	if node == nil {
		return nil, errors.Errorf("unknown node %d", nodeID)
	}
	if len(node.ChildIDs) > 0 {
		return node.ChildIDs, nil
	}

	dir, err := winfs.OpenDirectory(node.PathBefore)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open directory for child materialization")
	}
	defer dir.Close()

	names, err := dir.ReadEntryNames()
	if err != nil {
		return nil, errors.Wrap(err, "unable to enumerate children")
	}

	for _, name := range names {
		childBefore := joinPath(node.PathBefore, name)
		childAfter := joinPath(node.PathAfter, name)

		childDir, err := winfs.OpenDirectory(childBefore)
		isDir := err == nil
		var size *uint64
		if childDir != nil {
			defer childDir.Close()
			if meta, merr := childDir.Metadata(); merr == nil {
				s := meta.Size
				size = &s
				isDir = meta.Type == winfs.EntryTypeDirectory
			}
		}

		child := &model.PlanNode{
			ID:         b.allocateID(),
			IsDir:      isDir,
			NameBefore: name,
			PathBefore: childBefore,
			NameAfter:  name,
			PathAfter:  childAfter,
			Kind:       model.NodeNone,
			SizeBytes:  size,
		}
		b.plan.Nodes[child.ID] = child
		node.ChildIDs = append(node.ChildIDs, child.ID)
	}

	b.recomputeSummary()
	return node.ChildIDs, nil
}

// ApplyPolicy re-resolves a root node's NameExists conflict under a newly
// chosen policy (the user overriding the rule's default in a dry-run
// review) and returns the set of nodes whose state changed.
func (b *Builder) ApplyPolicy(nodeID int64, policy model.Policy) (*model.ValidationDelta, error) {
	node := b.plan.Nodes[nodeID]
	if node == nil {
		return nil, errors.Errorf("unknown node %d", nodeID)
	}

	node.Conflicts = removeConflictKind(node.Conflicts, model.ConflictNameExists)
	node.Dangerous = false
	if node.Kind == model.NodeSkip {
		kind, crossVolumeDisallowed := classifyKind(node.PathBefore, node.PathAfter, b.opts.EnableCrossVolume)
		node.Kind = kind
		if crossVolumeDisallowed {
			node.Conflicts = append(node.Conflicts, model.Conflict{Kind: model.ConflictCrossVolumeDisallowed})
		}
	}

	b.resolveNameExists(node, policy)
	b.recomputeSummary()

	return &model.ValidationDelta{
		ChangedNodeIDs: []int64{nodeID},
		Summary:        b.plan.Summary,
	}, nil
}

func removeConflictKind(conflicts []model.Conflict, kind model.ConflictKind) []model.Conflict {
	out := conflicts[:0]
	for _, c := range conflicts {
		if c.Kind != kind {
			out = append(out, c)
		}
	}
	return out
}

func (b *Builder) allocateID() int64 {
	b.nextID++
	return b.nextID
}

// classifyKind determines Move/Rename/CopyDelete for a before/after path
// pair that has already passed DestInsideSource handling. A cross-volume
// pair is classified NodeCopyDelete only when enableCrossVolume is set;
// otherwise it returns NodeSkip and reports crossVolumeDisallowed so the
// caller can attach ConflictCrossVolumeDisallowed.
func classifyKind(before, after string, enableCrossVolume bool) (kind model.NodeKind, crossVolumeDisallowed bool) {
	if !winfs.SameVolume(before, after) {
		if !enableCrossVolume {
			return model.NodeSkip, true
		}
		return model.NodeCopyDelete, false
	}
	if parentDir(before) == parentDir(after) {
		return model.NodeRename, false
	}
	return model.NodeMove, false
}

func destInsideSource(before, after string) bool {
	b := normalizedPath(before)
	a := normalizedPath(after)
	if !strings.HasPrefix(a, b) {
		return false
	}
	return len(a) == len(b) || a[len(b)] == '\\'
}

func normalizedPath(path string) string {
	return strings.ToLower(strings.TrimRight(path, `\`))
}

func pathExists(path string) bool {
	_, err := os.Stat(winfs.ToExtendedLength(path))
	return err == nil
}

func hasWarning(warnings []model.Warning, w model.Warning) bool {
	for _, existing := range warnings {
		if existing == w {
			return true
		}
	}
	return false
}

func baseName(path string) string {
	if idx := strings.LastIndexByte(path, '\\'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func parentDir(path string) string {
	if idx := strings.LastIndexByte(path, '\\'); idx >= 0 {
		return path[:idx]
	}
	return path
}

func joinPath(dir, name string) string {
	return strings.TrimRight(dir, `\`) + `\` + name
}
