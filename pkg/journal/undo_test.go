//go:build windows

package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SumihisaYutani/FileMover/pkg/model"
	"github.com/SumihisaYutani/FileMover/pkg/winfs"
)

func destSnapshotForTest(t *testing.T, path string) (*uint64, *time.Time) {
	t.Helper()
	dir, err := winfs.OpenDirectory(path)
	if err != nil {
		t.Fatalf("OpenDirectory(%q): %v", path, err)
	}
	defer dir.Close()
	meta, err := dir.Metadata()
	if err != nil {
		t.Fatalf("Metadata(%q): %v", path, err)
	}
	size := meta.Size
	modTime := meta.ModificationTime
	return &size, &modTime
}

func TestUndoRestoresRename(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "Original")
	dest := filepath.Join(root, "Renamed")
	if err := os.Mkdir(source, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(source, dest); err != nil {
		t.Fatal(err)
	}

	entries := []model.JournalEntry{
		{Source: source, Dest: dest, Op: model.NodeRename, Result: model.JournalOk},
	}
	results := Undo(entries)
	if len(results) != 1 || results[0].Outcome != UndoRestored {
		t.Fatalf("Undo() = %+v, want a single UndoRestored result", results)
	}
	if _, err := os.Stat(source); err != nil {
		t.Errorf("expected %q to exist again after undo: %v", source, err)
	}
}

func TestUndoSkipsNonOkEntries(t *testing.T) {
	entries := []model.JournalEntry{
		{Source: `D:\A`, Dest: `E:\A`, Op: model.NodeMove, Result: model.JournalSkip},
		{Source: `D:\B`, Dest: `E:\B`, Op: model.NodeMove, Result: model.JournalFailed},
	}
	results := Undo(entries)
	for _, r := range results {
		if r.Outcome != UndoSkippedNotOk {
			t.Errorf("expected UndoSkippedNotOk, got %v", r.Outcome)
		}
	}
}

func TestUndoReplaysInReverseOrder(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "A")
	b := filepath.Join(root, "B")
	c := filepath.Join(root, "C")
	if err := os.Mkdir(a, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(a, b); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(b, c); err != nil {
		t.Fatal(err)
	}

	entries := []model.JournalEntry{
		{Source: a, Dest: b, Op: model.NodeRename, Result: model.JournalOk},
		{Source: b, Dest: c, Op: model.NodeRename, Result: model.JournalOk},
	}
	results := Undo(entries)
	for _, r := range results {
		if r.Outcome != UndoRestored {
			t.Fatalf("Undo() result = %+v, err=%v", r, r.Err)
		}
	}
	if _, err := os.Stat(a); err != nil {
		t.Errorf("expected original path %q restored: %v", a, err)
	}
}

func TestUndoRestoresCopyDeleteWithoutModification(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "Original")
	dest := filepath.Join(root, "Moved")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	size, modTime := destSnapshotForTest(t, dest)

	entries := []model.JournalEntry{
		{Source: source, Dest: dest, Op: model.NodeCopyDelete, Result: model.JournalOk, DestSizeBytes: size, DestModifiedUTC: modTime},
	}
	results := Undo(entries)
	if len(results) != 1 || results[0].Outcome != UndoRestored {
		t.Fatalf("Undo() = %+v, want a single UndoRestored result", results)
	}
	if _, err := os.Stat(filepath.Join(source, "a.txt")); err != nil {
		t.Errorf("expected restored file at %q: %v", source, err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("expected %q removed after restore, stat err = %v", dest, err)
	}
}

func TestUndoRefusesCopyDeleteModifiedPostMove(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "Original")
	dest := filepath.Join(root, "Moved")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	size, modTime := destSnapshotForTest(t, dest)

	// Something dropped a new file into the destination after the move
	// completed, changing its last-write time.
	if err := os.WriteFile(filepath.Join(dest, "added-later.txt"), []byte("surprise"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries := []model.JournalEntry{
		{Source: source, Dest: dest, Op: model.NodeCopyDelete, Result: model.JournalOk, DestSizeBytes: size, DestModifiedUTC: modTime},
	}
	results := Undo(entries)
	if len(results) != 1 || results[0].Outcome != UndoFailedRestore {
		t.Fatalf("Undo() = %+v, want a single UndoFailedRestore result", results)
	}
	if _, err := os.Stat(filepath.Join(dest, "added-later.txt")); err != nil {
		t.Errorf("expected %q left in place after a refused restore: %v", dest, err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Errorf("expected %q to remain unrestored, stat err = %v", source, err)
	}
}
