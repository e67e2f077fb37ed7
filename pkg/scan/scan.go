// Package scan implements the Scanner: parallel, Windows-native directory
// enumeration that consults a compiled match.RuleSet at every directory and
// emits a model.FolderHit for each matched folder. The traversal shape
// (recursive descent, bounded by a semaphore rather than a fixed job
// queue) walks the tree much like a single content-hashing pass would;
// here each directory visit instead consults the rule set and stops
// descending as soon as a folder matches.
package scan

import (
	"context"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/SumihisaYutani/FileMover/pkg/logging"
	"github.com/SumihisaYutani/FileMover/pkg/match"
	"github.com/SumihisaYutani/FileMover/pkg/model"
	"github.com/SumihisaYutani/FileMover/pkg/normalize"
	"github.com/SumihisaYutani/FileMover/pkg/template"
	"github.com/SumihisaYutani/FileMover/pkg/winfs"
)

// ProblemKind classifies a non-fatal failure encountered while scanning a
// particular path.
type ProblemKind uint8

const (
	ProblemAccessDenied ProblemKind = iota
	ProblemCycleDetected
	ProblemOther
)

// Problem reports a path the Scanner could not fully process.
type Problem struct {
	Path string
	Kind ProblemKind
	Err  error
}

// Result is everything a single Scan invocation produced.
type Result struct {
	Hits     []model.FolderHit
	Problems []Problem
}

// Scanner walks one or more root directories, evaluating each directory's
// name against a compiled rule set and recording a FolderHit for every
// match. A Scanner is safe for reuse across multiple Scan calls but not for
// concurrent use by more than one goroutine at a time.
type Scanner struct {
	rules   *match.RuleSet
	options model.ScanOptions
	logger  *logging.Logger
}

// New constructs a Scanner. logger may be nil, in which case scan activity
// is silently discarded.
func New(rules *match.RuleSet, options model.ScanOptions, logger *logging.Logger) *Scanner {
	return &Scanner{rules: rules, options: options, logger: logger}
}

// job describes one directory awaiting enumeration.
type job struct {
	path     string
	depth    int
	ancestry []ancestorKey
}

// ancestorKey identifies a directory by volume and file index, used to
// detect reparse-point cycles independent of path text.
type ancestorKey struct {
	deviceID uint64
	fileID   uint64
}

// Scan walks every root and returns the accumulated hits and problems. It
// returns early with a partial Result if ctx is cancelled.
func (s *Scanner) Scan(ctx context.Context, roots []string) (*Result, error) {
	if s.rules == nil {
		return nil, errors.New("scanner requires a compiled rule set")
	}

	workerCount := s.options.ParallelThreads
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
		if workerCount > 8 {
			workerCount = 8
		}
		if workerCount < 1 {
			workerCount = 1
		}
	}

	protections := s.systemProtectionsFor(roots)

	semaphore := make(chan struct{}, workerCount)
	var resultMutex sync.Mutex
	result := &Result{}

	var walkWG sync.WaitGroup

	var walk func(j job)
	walk = func(j job) {
		defer walkWG.Done()

		select {
		case semaphore <- struct{}{}:
			defer func() { <-semaphore }()
		case <-ctx.Done():
			return
		}
		if ctx.Err() != nil {
			return
		}

		hits, problems, children := s.visit(ctx, j, protections)

		resultMutex.Lock()
		result.Hits = append(result.Hits, hits...)
		result.Problems = append(result.Problems, problems...)
		resultMutex.Unlock()

		for _, child := range children {
			walkWG.Add(1)
			go walk(child)
		}
	}

	for _, root := range roots {
		walkWG.Add(1)
		go walk(job{path: strings.TrimRight(root, `\`), depth: 0})
	}

	walkWG.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// visit processes a single directory: it checks refusal rules, evaluates
// the directory's own name against the rule set, and either emits a
// FolderHit (stopping descent) or enqueues its children for further
// traversal.
func (s *Scanner) visit(ctx context.Context, j job, protections []string) ([]model.FolderHit, []Problem, []job) {
	if isRefused(j.path, protections, s.options.ExcludedPaths) {
		return nil, nil, nil
	}
	if s.options.MaxDepth != nil && j.depth > *s.options.MaxDepth {
		return nil, nil, nil
	}

	dir, err := winfs.OpenDirectory(j.path)
	if err != nil {
		return nil, []Problem{{Path: j.path, Kind: ProblemAccessDenied, Err: err}}, nil
	}
	defer dir.Close()

	meta, err := dir.Metadata()
	if err != nil {
		return nil, []Problem{{Path: j.path, Kind: ProblemOther, Err: err}}, nil
	}

	if meta.Type == winfs.EntryTypeJunction {
		if !s.options.FollowJunctions {
			return nil, nil, nil
		}
		key := ancestorKey{deviceID: meta.DeviceID, fileID: meta.FileID}
		for _, seen := range j.ancestry {
			if seen == key {
				return nil, []Problem{{Path: j.path, Kind: ProblemCycleDetected, Err: errors.New("reparse point cycle detected")}}, nil
			}
		}
		j.ancestry = append(j.ancestry, key)
	}

	name := baseName(j.path)
	normalized := normalize.Normalize(name, s.options.Normalization)
	verdict := s.rules.Evaluate(normalized)

	switch verdict.Kind {
	case match.VerdictExcluded:
		return nil, nil, nil
	case match.VerdictMatched:
		hit, problems := s.buildHit(j.path, name, verdict.RuleID, meta)
		return []model.FolderHit{*hit}, problems, nil
	}

	names, err := dir.ReadEntryNames()
	if err != nil {
		return nil, []Problem{{Path: j.path, Kind: ProblemAccessDenied, Err: err}}, nil
	}

	children := make([]job, 0, len(names))
	for _, childName := range names {
		childPath := j.path + `\` + childName
		children = append(children, job{path: childPath, depth: j.depth + 1, ancestry: j.ancestry})
	}

	return nil, nil, children
}

// buildHit assembles a FolderHit for a matched directory, expanding the
// matched rule's destination template and attaching any warnings observed
// without descending further into the folder.
func (s *Scanner) buildHit(path, name, ruleID string, meta *winfs.Metadata) (*model.FolderHit, []Problem) {
	var problems []Problem
	hit := &model.FolderHit{
		SourcePath: path,
		Name:       name,
		RuleID:     ruleID,
	}

	if winfs.IsLongPath(path) {
		hit.Warnings = append(hit.Warnings, model.WarningLongPath)
	}
	if winfs.IsNetworkPath(path) {
		hit.Warnings = append(hit.Warnings, model.WarningOffline)
	}
	if meta.ReparseTag != 0 {
		hit.Warnings = append(hit.Warnings, model.WarningJunction)
		if _, err := winfs.ReadReparsePoint(path); err != nil {
			s.logger.Debugf("unable to decode reparse point at %s: %v", path, err)
		}
	}

	if _, err := winfs.QueryACLDigest(path); err != nil {
		hit.Warnings = append(hit.Warnings, model.WarningACLDiffers)
	}

	probe, err := winfs.OpenDirectory(path)
	if err != nil {
		hit.Warnings = append(hit.Warnings, model.WarningAccessDenied)
		problems = append(problems, Problem{Path: path, Kind: ProblemAccessDenied, Err: err})
	} else {
		defer probe.Close()
		if _, err := probe.ReadEntryNames(); err != nil {
			hit.Warnings = append(hit.Warnings, model.WarningAccessDenied)
			problems = append(problems, Problem{Path: path, Kind: ProblemAccessDenied, Err: err})
		}
	}

	rule := s.rules.Rule(ruleID)
	if rule != nil {
		preview, err := template.Expand(rule.Template, template.Context{
			Name:   name,
			Label:  rule.Label,
			Drive:  drive(path),
			Parent: parentDir(path),
			When:   time.Now().UTC(),
		})
		if err != nil {
			problems = append(problems, Problem{Path: path, Kind: ProblemOther, Err: err})
		} else {
			hit.DestPreview = joinPath(rule.DestRoot, preview)
			if !sameVolumeApprox(path, hit.DestPreview) {
				hit.Warnings = append(hit.Warnings, model.WarningCrossVolume)
			}
		}
	}

	return hit, problems
}

// systemProtectionsFor builds the full always-excluded prefix set for this
// scan, combining model.DefaultSystemProtections with the per-drive
// "$Recycle.Bin" entries (one per distinct drive among roots) and the
// process's resolved %TEMP% directory, when SystemProtections is enabled.
func (s *Scanner) systemProtectionsFor(roots []string) []string {
	if !s.options.SystemProtections {
		return nil
	}

	protections := append([]string(nil), model.DefaultSystemProtections...)

	seenDrives := make(map[string]bool)
	for _, root := range roots {
		d := drive(root)
		if d == "" || seenDrives[d] {
			continue
		}
		seenDrives[d] = true
		protections = append(protections, d+`\$Recycle.Bin`)
	}

	if tempDir := os.Getenv("TEMP"); tempDir != "" {
		protections = append(protections, strings.TrimRight(tempDir, `\`))
	}

	return protections
}

// isRefused reports whether path falls under a protected or user-excluded
// prefix.
func isRefused(path string, protections, excludedPaths []string) bool {
	lower := strings.ToLower(path)
	for _, prefix := range protections {
		if hasPathPrefix(lower, strings.ToLower(prefix)) {
			return true
		}
	}
	for _, prefix := range excludedPaths {
		if hasPathPrefix(lower, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func hasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '\\'
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

func drive(path string) string {
	if len(path) >= 2 && path[1] == ':' {
		return path[:2]
	}
	return ""
}

func joinPath(root, rel string) string {
	root = strings.TrimRight(root, `\`)
	rel = strings.TrimLeft(rel, `\`)
	if rel == "" {
		return root
	}
	return root + `\` + rel
}

func sameVolumeApprox(a, b string) bool {
	return winfs.SameVolume(a, b)
}
