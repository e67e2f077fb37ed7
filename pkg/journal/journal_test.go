package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/SumihisaYutani/FileMover/pkg/model"
)

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	entries := []model.JournalEntry{
		{WhenUTC: time.Now().UTC(), PlanID: "plan-1", Source: `D:\A`, Dest: `E:\A`, Op: model.NodeMove, Result: model.JournalPending},
		{WhenUTC: time.Now().UTC(), PlanID: "plan-1", Source: `D:\A`, Dest: `E:\A`, Op: model.NodeMove, Result: model.JournalOk},
	}
	for _, e := range entries {
		if err := w.Append(e); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if diff := cmp.Diff(entries, got, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
		t.Errorf("round-tripped entries differ (-want +got):\n%s", diff)
	}
}

func TestIsInterruptedDetectsUnresolvedPending(t *testing.T) {
	entries := []model.JournalEntry{
		{Source: `D:\A`, Dest: `E:\A`, Op: model.NodeMove, Result: model.JournalPending},
	}
	if !IsInterrupted(entries) {
		t.Error("expected interrupted run to be detected")
	}
}

func TestIsInterruptedFalseWhenResolved(t *testing.T) {
	entries := []model.JournalEntry{
		{Source: `D:\A`, Dest: `E:\A`, Op: model.NodeMove, Result: model.JournalPending},
		{Source: `D:\A`, Dest: `E:\A`, Op: model.NodeMove, Result: model.JournalOk},
	}
	if IsInterrupted(entries) {
		t.Error("expected resolved run not to be flagged interrupted")
	}
}

func TestCreateFailsIfFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	w.Close()

	if _, err := Create(path); err == nil {
		t.Fatal("expected second Create() at the same path to fail")
	}
}
