// Package execute implements the Executor: it carries out a model.MovePlan
// node by node, writing a journal.Writer entry before and after each
// attempt, retrying transient failures with exponential backoff, and
// reporting Progress as it goes. The per-node protocol (journal attempt
// -> fsync -> OS operation -> journal commit) generalizes the
// write-then-fsync-then-rename staging discipline used for atomic file
// replacement elsewhere in this codebase, from "write a temp file, fsync,
// rename into place" to "journal the intent, fsync, perform the move,
// journal the outcome".
package execute

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"golang.org/x/sys/windows"

	"github.com/SumihisaYutani/FileMover/pkg/journal"
	"github.com/SumihisaYutani/FileMover/pkg/logging"
	"github.com/SumihisaYutani/FileMover/pkg/model"
	"github.com/SumihisaYutani/FileMover/pkg/winfs"
)

// retry policy constants: exponential backoff starting at 200ms, doubling
// each attempt, capped at 5 attempts or 15s elapsed, whichever comes
// first.
const (
	retryBaseDelay  = 200 * time.Millisecond
	retryFactor     = 2
	maxAttempts     = 5
	maxElapsedRetry = 15 * time.Second
)

// Status is the Executor's final disposition for a run.
type Status uint8

const (
	StatusSucceeded Status = iota
	StatusPartial
	StatusCancelled
)

// Progress is a snapshot the Executor reports as it works through a plan.
type Progress struct {
	CompletedOps   int
	TotalOps       int
	BytesProcessed uint64
	TotalBytes     uint64
	CurrentItem    string
}

// ProgressFunc receives Progress snapshots; it must return quickly, since
// it is called from the worker goroutine that just finished an operation,
// and several workers may call it concurrently.
type ProgressFunc func(Progress)

// Options configures a single Apply run.
type Options struct {
	Parallelism  int
	Logger       *logging.Logger
	OnProgress   ProgressFunc
	PreserveACLs bool
}

// Result summarizes a completed (or cancelled) Apply run.
type Result struct {
	Status   Status
	Failures []model.PlanNode
}

// Apply executes every root node of plan, writing entries to journalWriter
// as it goes. Root nodes are one independence class: the Scanner never
// descends past a hit, so hits are pairwise non-overlapping subtrees, and
// the Planner's DestInsideSource and CycleDetected checks remove any node
// whose destination would fall inside another node's source (skipping it
// instead). What's left can run up to Parallelism at once with no
// coordination beyond the journal's own mutex. Execution stops scheduling
// new operations as soon as ctx is cancelled, but lets in-flight operations
// finish before returning.
func Apply(ctx context.Context, plan *model.MovePlan, journalWriter *journal.Writer, opts Options) (*Result, error) {
	logger := opts.Logger

	nodes := rootNodesInScheduleOrder(plan)
	total := len(nodes)
	var totalBytes uint64
	for _, n := range nodes {
		if n.SizeBytes != nil {
			totalBytes += *n.SizeBytes
		}
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = 4
	}
	semaphore := make(chan struct{}, parallelism)

	var mu sync.Mutex
	var completed, bytesDone int
	var failures []model.PlanNode
	var cancelled bool

	report := func(current string) {
		if opts.OnProgress == nil {
			return
		}
		mu.Lock()
		snapshot := Progress{
			CompletedOps:   completed,
			TotalOps:       total,
			BytesProcessed: uint64(bytesDone),
			TotalBytes:     totalBytes,
			CurrentItem:    current,
		}
		mu.Unlock()
		opts.OnProgress(snapshot)
	}

	var wg sync.WaitGroup
scheduleLoop:
	for _, node := range nodes {
		if ctx.Err() != nil {
			mu.Lock()
			cancelled = true
			mu.Unlock()
			break
		}
		if node.Kind == model.NodeSkip {
			writeJournalResult(journalWriter, plan.PlanID, node, model.JournalSkip, "")
			mu.Lock()
			completed++
			mu.Unlock()
			continue
		}

		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			mu.Lock()
			cancelled = true
			mu.Unlock()
			break scheduleLoop
		}

		wg.Add(1)
		go func(node *model.PlanNode) {
			defer wg.Done()
			defer func() { <-semaphore }()

			logger.Debugf("executing %s: %s -> %s", node.Kind, node.PathBefore, node.PathAfter)
			err := executeWithRetry(ctx, plan.PlanID, node, journalWriter, opts)

			mu.Lock()
			if err != nil {
				logger.Warn(errors.Wrapf(err, "failed to execute %s", node.PathBefore))
				failures = append(failures, *node)
			} else if node.SizeBytes != nil {
				bytesDone += int(*node.SizeBytes)
			}
			completed++
			mu.Unlock()

			report(node.PathAfter)
		}(node)
	}
	wg.Wait()

	status := StatusSucceeded
	if cancelled {
		status = StatusCancelled
	} else if len(failures) > 0 {
		status = StatusPartial
	}

	return &Result{Status: status, Failures: failures}, nil
}

// executeWithRetry performs one node's operation, retrying transient
// failures with exponential backoff up to maxAttempts or maxElapsedRetry,
// whichever limit is hit first. Every OS-level attempt is preceded by its
// own Pending line, but only the final attempt gets an outcome line (Ok or
// Failed); an attempt that is retried leaves a Pending line that the later
// outcome line for the same source and destination resolves.
func executeWithRetry(ctx context.Context, planID string, node *model.PlanNode, w *journal.Writer, opts Options) error {
	start := time.Now()
	delay := retryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		writeJournalPending(w, planID, node)
		err := performOperation(node, opts)
		if err == nil {
			writeJournalResult(w, planID, node, model.JournalOk, "")
			return nil
		}
		lastErr = err

		if !isTransient(err) || time.Since(start) >= maxElapsedRetry || attempt == maxAttempts {
			writeJournalResult(w, planID, node, model.JournalFailed, err.Error())
			return err
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			writeJournalResult(w, planID, node, model.JournalFailed, ctx.Err().Error())
			return ctx.Err()
		}
		delay *= retryFactor
	}

	writeJournalResult(w, planID, node, model.JournalFailed, lastErr.Error())
	return lastErr
}

// performOperation dispatches to the OS-level primitive matching the
// node's classified Kind.
func performOperation(node *model.PlanNode, opts Options) error {
	switch node.Kind {
	case model.NodeMove, model.NodeRename:
		return os.Rename(winfs.ToExtendedLength(node.PathBefore), winfs.ToExtendedLength(node.PathAfter))
	case model.NodeCopyDelete:
		return copyThenDelete(node, opts)
	case model.NodeNone:
		return nil
	default:
		return errors.Errorf("unexpected node kind %v for execution", node.Kind)
	}
}

// copyThenDelete implements the cross-volume fallback: recursively copy
// the source tree to the destination, optionally reapply the source's
// ACL, then remove the source. It does not attempt to preserve Alternate
// Data Streams (see SPEC_FULL.md's Open Questions).
func copyThenDelete(node *model.PlanNode, opts Options) error {
	src := winfs.ToExtendedLength(node.PathBefore)
	dst := winfs.ToExtendedLength(node.PathAfter)

	if err := copyRecursive(src, dst); err != nil {
		return errors.Wrap(err, "copy phase failed")
	}

	if opts.PreserveACLs {
		if err := winfs.PreserveACL(node.PathBefore, node.PathAfter); err != nil {
			if opts.Logger != nil {
				opts.Logger.Warn(errors.Wrap(err, "unable to preserve ACL on destination"))
			}
		}
	}

	if err := os.RemoveAll(src); err != nil {
		return errors.Wrap(err, "unable to remove source after copy")
	}
	return nil
}

func copyRecursive(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFileContents(src, dst, info.Mode())
	}

	if err := os.MkdirAll(dst, info.Mode()); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := copyRecursive(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFileContents(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	buf := make([]byte, 1024*1024)
	for {
		n, readErr := in.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
		}
		if readErr != nil {
			break
		}
	}
	return out.Sync()
}

// isTransient reports whether err looks like a condition worth retrying.
// A sharing violation (another process, often an antivirus scanner or the
// shell, briefly holding a handle open) and the network errors an
// offline-then-reconnecting share produces are expected to clear on their
// own. AccessDenied, NoSpace and Permission are permanent: the executor
// must fail those immediately rather than retry them.
func isTransient(err error) bool {
	var errno syscall.Errno
	switch cause := errors.Cause(err).(type) {
	case *os.PathError:
		errno, _ = cause.Err.(syscall.Errno)
	case *os.LinkError:
		errno, _ = cause.Err.(syscall.Errno)
	case syscall.Errno:
		errno = cause
	default:
		return false
	}

	switch errno {
	case windows.ERROR_SHARING_VIOLATION,
		windows.ERROR_NETNAME_DELETED,
		windows.ERROR_NETWORK_BUSY,
		windows.ERROR_UNEXP_NET_ERR,
		windows.ERROR_NO_NETWORK,
		windows.ERROR_NOT_READY:
		return true
	default:
		return false
	}
}

func writeJournalPending(w *journal.Writer, planID string, node *model.PlanNode) {
	if w == nil {
		return
	}
	_ = w.Append(model.JournalEntry{
		WhenUTC: time.Now().UTC(),
		PlanID:  planID,
		Source:  node.PathBefore,
		Dest:    node.PathAfter,
		Op:      node.Kind,
		Result:  model.JournalPending,
	})
}

func writeJournalResult(w *journal.Writer, planID string, node *model.PlanNode, result model.JournalResult, message string) {
	if w == nil {
		return
	}
	entry := model.JournalEntry{
		WhenUTC: time.Now().UTC(),
		PlanID:  planID,
		Source:  node.PathBefore,
		Dest:    node.PathAfter,
		Op:      node.Kind,
		Result:  result,
		Message: message,
	}
	if result == model.JournalOk {
		entry.DestSizeBytes, entry.DestModifiedUTC = destSnapshot(node.PathAfter)
	}
	_ = w.Append(entry)
}

// destSnapshot captures a moved node's own size and last-write time
// immediately after a successful move, for Undo's post-move modification
// check. It returns nil, nil if the destination can't be statted, which
// simply disables that check for this entry rather than failing the move.
func destSnapshot(path string) (*uint64, *time.Time) {
	dir, err := winfs.OpenDirectory(path)
	if err != nil {
		return nil, nil
	}
	defer dir.Close()

	meta, err := dir.Metadata()
	if err != nil {
		return nil, nil
	}
	size := meta.Size
	modTime := meta.ModificationTime
	return &size, &modTime
}

// rootNodesInScheduleOrder returns plan's root nodes ordered largest-first
// within each independence class, which in practice (since cross-node
// dependencies were already resolved by the Planner's cycle/
// DestInsideSource checks) means simply sorting all roots by descending
// size.
func rootNodesInScheduleOrder(plan *model.MovePlan) []*model.PlanNode {
	nodes := make([]*model.PlanNode, 0, len(plan.RootIDs))
	for _, id := range plan.RootIDs {
		nodes = append(nodes, plan.Nodes[id])
	}
	slices.SortStableFunc(nodes, func(a, b *model.PlanNode) int {
		sizeA, sizeB := uint64(0), uint64(0)
		if a.SizeBytes != nil {
			sizeA = *a.SizeBytes
		}
		if b.SizeBytes != nil {
			sizeB = *b.SizeBytes
		}
		switch {
		case sizeA > sizeB:
			return -1
		case sizeA < sizeB:
			return 1
		default:
			return 0
		}
	})
	return nodes
}
