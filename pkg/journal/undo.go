package journal

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/SumihisaYutani/FileMover/pkg/model"
	"github.com/SumihisaYutani/FileMover/pkg/winfs"
)

// UndoOutcome reports what happened when reversing one journal entry.
type UndoOutcome uint8

const (
	UndoRestored UndoOutcome = iota
	UndoSkippedNotOk
	UndoFailed
	// UndoFailedRestore marks a CopyDelete entry whose destination was
	// modified after the move completed (its size or last-write time no
	// longer matches the snapshot taken right after the move), so Undo
	// refused to copy back over it rather than silently discarding
	// whatever was added.
	UndoFailedRestore
)

// UndoResult is Undo's per-entry report.
type UndoResult struct {
	Entry   model.JournalEntry
	Outcome UndoOutcome
	Err     error
}

// Undo replays a journal's entries in reverse, restoring each
// successfully-completed (JournalOk) operation to its prior location.
// Entries with any other result are left alone: a JournalSkip entry was
// never performed, and a JournalFailed entry left the source in its
// original place, so neither has anything to undo. Undo does not stop at
// the first failure; it reports every entry's outcome so the caller can
// decide how to present a partial restore.
func Undo(entries []model.JournalEntry) []UndoResult {
	results := make([]UndoResult, 0, len(entries))

	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if entry.Result != model.JournalOk {
			results = append(results, UndoResult{Entry: entry, Outcome: UndoSkippedNotOk})
			continue
		}

		var err error
		outcome := UndoRestored
		switch entry.Op {
		case model.NodeMove, model.NodeRename:
			err = restoreByRename(entry.Dest, entry.Source)
		case model.NodeCopyDelete:
			if modified, checkErr := destModifiedPostMove(entry); checkErr == nil && modified {
				err = errModifiedPostMove
				outcome = UndoFailedRestore
			} else {
				err = restoreByCopyDelete(entry.Dest, entry.Source)
			}
		case model.NodeSkip, model.NodeNone:
			// Nothing was moved; nothing to restore.
		default:
			err = errors.Errorf("unrecognized operation kind %v", entry.Op)
		}

		if err != nil {
			if outcome == UndoRestored {
				outcome = UndoFailed
			}
			results = append(results, UndoResult{Entry: entry, Outcome: outcome, Err: err})
			continue
		}
		results = append(results, UndoResult{Entry: entry, Outcome: UndoRestored})
	}

	return results
}

// restoreByRename reverses a same-volume Move/Rename by renaming the
// entry's dest back to its source.
func restoreByRename(from, to string) error {
	return os.Rename(winfs.ToExtendedLength(from), winfs.ToExtendedLength(to))
}

// errModifiedPostMove is the error attached to an UndoFailedRestore result.
var errModifiedPostMove = errors.New("destination was modified after the move; refusing to restore over it")

// destModifiedPostMove compares a CopyDelete entry's destination against
// the size and last-write time snapshot taken right after the move (see
// execute.destSnapshot). A mismatch means something touched the folder
// since - most commonly new files dropped into it - which a blind copy
// back to the original source would silently fold in or discard. Entries
// written before this check existed carry no snapshot, so it's skipped
// rather than treated as a mismatch.
func destModifiedPostMove(entry model.JournalEntry) (bool, error) {
	if entry.DestSizeBytes == nil || entry.DestModifiedUTC == nil {
		return false, nil
	}

	dir, err := winfs.OpenDirectory(entry.Dest)
	if err != nil {
		return false, err
	}
	defer dir.Close()

	meta, err := dir.Metadata()
	if err != nil {
		return false, err
	}

	if meta.Size != *entry.DestSizeBytes {
		return true, nil
	}
	if !meta.ModificationTime.Equal(*entry.DestModifiedUTC) {
		return true, nil
	}
	return false, nil
}

// restoreByCopyDelete reverses a cross-volume CopyDelete by copying from
// the entry's dest back to its source and then removing dest. This does
// not attempt to restore Alternate Data Streams dropped by the original
// CopyDelete (see SPEC_FULL.md's Open Questions), so a restored folder may
// be missing ADS content that the original copy already lost.
func restoreByCopyDelete(from, to string) error {
	if err := copyTree(from, to); err != nil {
		return errors.Wrap(err, "unable to copy back to original location")
	}
	if err := os.RemoveAll(winfs.ToExtendedLength(from)); err != nil {
		return errors.Wrap(err, "unable to remove restored copy's source")
	}
	return nil
}

// copyTree recursively copies a directory tree from src to dst.
func copyTree(src, dst string) error {
	extendedSrc := winfs.ToExtendedLength(src)
	extendedDst := winfs.ToExtendedLength(dst)

	info, err := os.Stat(extendedSrc)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return copyFile(extendedSrc, extendedDst, info.Mode())
	}

	if err := os.MkdirAll(extendedDst, info.Mode()); err != nil {
		return err
	}

	entries, err := os.ReadDir(extendedSrc)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := copyTree(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
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

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
