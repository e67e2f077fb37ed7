//go:build windows

package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SumihisaYutani/FileMover/pkg/match"
	"github.com/SumihisaYutani/FileMover/pkg/model"
)

func mustCompile(t *testing.T, rules []model.Rule) *match.RuleSet {
	t.Helper()
	rs, err := match.Compile(rules)
	if err != nil {
		t.Fatalf("unable to compile rules: %v", err)
	}
	return rs
}

func TestBuildClassifiesRename(t *testing.T) {
	sourceDir := t.TempDir()
	source := filepath.Join(sourceDir, "Invoices")
	if err := os.Mkdir(source, 0o755); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(sourceDir, "Invoices-Archived")

	rules := []model.Rule{{ID: "r1", Enabled: true, ConflictPolicy: model.PolicyAutoRename}}
	rs := mustCompile(t, rules)

	b := NewBuilder(rs, Options{})
	hit := model.FolderHit{SourcePath: source, Name: "Invoices", RuleID: "r1", DestPreview: dest}
	if err := b.Build([]model.FolderHit{hit}); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	plan := b.Plan()
	if len(plan.RootIDs) != 1 {
		t.Fatalf("expected 1 root node, got %d", len(plan.RootIDs))
	}
	node := plan.Node(plan.RootIDs[0])
	if node.Kind != model.NodeRename {
		t.Errorf("Kind = %v, want NodeRename", node.Kind)
	}
}

func TestBuildDetectsDestInsideSource(t *testing.T) {
	sourceDir := t.TempDir()
	source := filepath.Join(sourceDir, "Projects")
	if err := os.Mkdir(source, 0o755); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(source, "Nested")

	rules := []model.Rule{{ID: "r1", Enabled: true}}
	rs := mustCompile(t, rules)

	b := NewBuilder(rs, Options{})
	hit := model.FolderHit{SourcePath: source, Name: "Projects", RuleID: "r1", DestPreview: dest}
	if err := b.Build([]model.FolderHit{hit}); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	node := b.Plan().Node(b.Plan().RootIDs[0])
	if node.Kind != model.NodeSkip {
		t.Errorf("Kind = %v, want NodeSkip", node.Kind)
	}
	found := false
	for _, c := range node.Conflicts {
		if c.Kind == model.ConflictDestInsideSource {
			found = true
		}
	}
	if !found {
		t.Error("expected a DestInsideSource conflict")
	}
}

func TestResolveNameExistsAutoRename(t *testing.T) {
	sourceDir := t.TempDir()
	source := filepath.Join(sourceDir, "Invoices")
	if err := os.Mkdir(source, 0o755); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(sourceDir, "Archived")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}

	rules := []model.Rule{{ID: "r1", Enabled: true, ConflictPolicy: model.PolicyAutoRename}}
	rs := mustCompile(t, rules)

	b := NewBuilder(rs, Options{})
	hit := model.FolderHit{SourcePath: source, Name: "Invoices", RuleID: "r1", DestPreview: dest}
	if err := b.Build([]model.FolderHit{hit}); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	node := b.Plan().Node(b.Plan().RootIDs[0])
	want := dest + " (2)"
	if node.PathAfter != want {
		t.Errorf("PathAfter = %q, want %q", node.PathAfter, want)
	}
}

func TestResolveNameExistsSkipPolicy(t *testing.T) {
	sourceDir := t.TempDir()
	source := filepath.Join(sourceDir, "Invoices")
	if err := os.Mkdir(source, 0o755); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(sourceDir, "Archived")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}

	rules := []model.Rule{{ID: "r1", Enabled: true, ConflictPolicy: model.PolicySkip}}
	rs := mustCompile(t, rules)

	b := NewBuilder(rs, Options{})
	hit := model.FolderHit{SourcePath: source, Name: "Invoices", RuleID: "r1", DestPreview: dest}
	if err := b.Build([]model.FolderHit{hit}); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	node := b.Plan().Node(b.Plan().RootIDs[0])
	if node.Kind != model.NodeSkip {
		t.Errorf("Kind = %v, want NodeSkip", node.Kind)
	}
}

func TestBuildCrossVolumeDisallowedByDefault(t *testing.T) {
	rules := []model.Rule{{ID: "r1", Enabled: true}}
	rs := mustCompile(t, rules)

	b := NewBuilder(rs, Options{})
	hit := model.FolderHit{SourcePath: `C:\Source\Invoices`, Name: "Invoices", RuleID: "r1", DestPreview: `D:\Archive\Invoices`}
	if err := b.Build([]model.FolderHit{hit}); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	node := b.Plan().Node(b.Plan().RootIDs[0])
	if node.Kind != model.NodeSkip {
		t.Errorf("Kind = %v, want NodeSkip", node.Kind)
	}
	found := false
	for _, c := range node.Conflicts {
		if c.Kind == model.ConflictCrossVolumeDisallowed {
			found = true
		}
	}
	if !found {
		t.Error("expected a CrossVolumeDisallowed conflict")
	}
}

func TestBuildCrossVolumeAllowedWhenEnabled(t *testing.T) {
	rules := []model.Rule{{ID: "r1", Enabled: true}}
	rs := mustCompile(t, rules)

	b := NewBuilder(rs, Options{EnableCrossVolume: true})
	hit := model.FolderHit{SourcePath: `C:\Source\Invoices`, Name: "Invoices", RuleID: "r1", DestPreview: `D:\Archive\Invoices`}
	if err := b.Build([]model.FolderHit{hit}); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	node := b.Plan().Node(b.Plan().RootIDs[0])
	if node.Kind != model.NodeCopyDelete {
		t.Errorf("Kind = %v, want NodeCopyDelete", node.Kind)
	}
	for _, c := range node.Conflicts {
		if c.Kind == model.ConflictCrossVolumeDisallowed {
			t.Error("did not expect a CrossVolumeDisallowed conflict")
		}
	}
}

func TestDetectCyclesViaContainment(t *testing.T) {
	rules := []model.Rule{{ID: "r1", Enabled: true}}
	rs := mustCompile(t, rules)
	b := NewBuilder(rs, Options{})

	// A moves into B's source tree (strictly nested, not an exact path
	// match) and B moves into A's source tree: a two-node cycle that only
	// a descendant-relation check, not exact-equality matching, can catch.
	nodeA := &model.PlanNode{ID: 1, PathBefore: `C:\Alpha`, PathAfter: `C:\Beta\Nested\Alpha`, Kind: model.NodeMove}
	nodeB := &model.PlanNode{ID: 2, PathBefore: `C:\Beta`, PathAfter: `C:\Alpha\Nested\Beta`, Kind: model.NodeMove}
	b.plan.Nodes[1] = nodeA
	b.plan.Nodes[2] = nodeB
	b.plan.RootIDs = []int64{1, 2}

	b.detectCycles()

	for _, node := range []*model.PlanNode{nodeA, nodeB} {
		if node.Kind != model.NodeSkip {
			t.Errorf("node %d Kind = %v, want NodeSkip", node.ID, node.Kind)
		}
		found := false
		for _, c := range node.Conflicts {
			if c.Kind == model.ConflictCycle {
				found = true
			}
		}
		if !found {
			t.Errorf("node %d: expected a CycleDetected conflict", node.ID)
		}
	}
}

func TestCheckSpaceAggregateSumsAcrossNodes(t *testing.T) {
	rules := []model.Rule{{ID: "r1", Enabled: true}}
	rs := mustCompile(t, rules)
	b := NewBuilder(rs, Options{})

	destDir := t.TempDir()
	huge := uint64(1) << 62

	nodeA := &model.PlanNode{ID: 1, PathBefore: `C:\Alpha`, PathAfter: filepath.Join(destDir, "Alpha"), Kind: model.NodeCopyDelete, SizeBytes: &huge}
	nodeB := &model.PlanNode{ID: 2, PathBefore: `C:\Beta`, PathAfter: filepath.Join(destDir, "Beta"), Kind: model.NodeCopyDelete, SizeBytes: &huge}
	b.plan.Nodes[1] = nodeA
	b.plan.Nodes[2] = nodeB
	b.plan.RootIDs = []int64{1, 2}

	b.checkSpaceAggregate()

	for _, node := range []*model.PlanNode{nodeA, nodeB} {
		var conflict *model.Conflict
		for i, c := range node.Conflicts {
			if c.Kind == model.ConflictNoSpace {
				conflict = &node.Conflicts[i]
			}
		}
		if conflict == nil {
			t.Fatalf("node %d: expected a NoSpace conflict", node.ID)
		}
		if conflict.RequiredBytes != huge*2 {
			t.Errorf("node %d RequiredBytes = %d, want %d (sum across both nodes)", node.ID, conflict.RequiredBytes, huge*2)
		}
	}
}
