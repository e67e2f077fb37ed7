// Package journal implements the append-only, line-oriented JSON log that
// the Executor writes as it performs a MovePlan and that Undo later
// replays in reverse. Every write is followed by an explicit Sync, the
// same discipline applied to write-then-rename staging files elsewhere in
// this codebase, because a journal that lost its tail to buffering would
// make interrupted-run detection (a Pending line with no later outcome
// line) meaningless.
package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/SumihisaYutani/FileMover/pkg/model"
)

// Writer appends JournalEntry records to a file, one JSON object per line.
// A Writer is safe for concurrent use by multiple Executor workers.
type Writer struct {
	mu   sync.Mutex
	file *os.File
}

// Create opens path for exclusive, append-only journal writing and writes
// the header line. It fails if a file already exists at path, since a
// journal represents exactly one apply run.
func Create(path string) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create journal file")
	}

	w := &Writer{file: file}
	header := model.JournalHeader{Version: 1, StartedUTC: time.Now().UTC()}
	if err := w.writeLine(header); err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

// Append writes a single JournalEntry and fsyncs before returning, so a
// crash immediately after Append cannot lose the line.
func (w *Writer) Append(entry model.JournalEntry) error {
	return w.writeLine(entry)
}

func (w *Writer) writeLine(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	encoded, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "unable to encode journal line")
	}
	encoded = append(encoded, '\n')

	if _, err := w.file.Write(encoded); err != nil {
		return errors.Wrap(err, "unable to write journal line")
	}
	if err := w.file.Sync(); err != nil {
		return errors.Wrap(err, "unable to sync journal file")
	}
	return nil
}

// Close releases the underlying file handle.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// Read loads every entry from a journal file, skipping the header line.
// The returned slice preserves file order, which Undo needs to replay in
// reverse.
func Read(path string) ([]model.JournalEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open journal file")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []model.JournalEntry
	first := true
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if first {
			first = false
			var header model.JournalHeader
			if err := json.Unmarshal(line, &header); err == nil && header.Version != 0 {
				continue
			}
			// Not a recognizable header; fall through and parse this line
			// as an entry too, in case the journal has no header for some
			// reason.
		}

		var entry model.JournalEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, errors.Wrap(err, "unable to decode journal line")
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading journal file")
	}

	return entries, nil
}

// IsInterrupted reports whether entries end with a Pending result for some
// operation that never received a matching Ok/Skip/Failed line, indicating
// the run that produced this journal was interrupted.
func IsInterrupted(entries []model.JournalEntry) bool {
	resolved := make(map[string]bool, len(entries))
	var pendingKeys []string

	for _, e := range entries {
		key := e.Source + "\x00" + e.Dest
		switch e.Result {
		case model.JournalPending:
			pendingKeys = append(pendingKeys, key)
		case model.JournalOk, model.JournalSkip, model.JournalFailed:
			resolved[key] = true
		}
	}

	for _, key := range pendingKeys {
		if !resolved[key] {
			return true
		}
	}
	return false
}

