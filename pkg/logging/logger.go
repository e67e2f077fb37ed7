package logging

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"

	"github.com/fatih/color"
)

// debugEnabled controls whether or not Debug-level output is emitted. It is
// set through SetDebugEnabled once, early in program startup (e.g. from a --debug
// flag or the FILEMOVER_DEBUG environment variable), and read concurrently
// thereafter.
var debugEnabled int32

// SetDebugEnabled toggles debug-level logging process-wide.
func SetDebugEnabled(enabled bool) {
	if enabled {
		atomic.StoreInt32(&debugEnabled, 1)
	} else {
		atomic.StoreInt32(&debugEnabled, 0)
	}
}

// DebugEnabled reports whether debug-level logging is currently enabled.
func DebugEnabled() bool {
	return atomic.LoadInt32(&debugEnabled) != 0
}

// writer is an io.Writer that splits its input stream into lines and feeds
// those lines to an underlying logging callback.
type writer struct {
	callback func(string)
	buffer   []byte
}

func trimCarriageReturn(buffer []byte) []byte {
	if len(buffer) > 0 && buffer[len(buffer)-1] == '\r' {
		return buffer[:len(buffer)-1]
	}
	return buffer
}

// Write implements io.Writer.Write.
func (w *writer) Write(buffer []byte) (int, error) {
	w.buffer = append(w.buffer, buffer...)

	var processed int
	remaining := w.buffer
	for {
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}
		w.callback(string(trimCarriageReturn(remaining[:index])))
		processed += index + 1
		remaining = remaining[index+1:]
	}

	if processed > 0 {
		leftover := len(w.buffer) - processed
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}
		w.buffer = w.buffer[:leftover]
	}

	return len(buffer), nil
}

// Logger is the engine's logging type. A nil *Logger is legal and discards
// everything written to it, so components can accept an optional logger
// without special-casing the "no logging" configuration.
type Logger struct {
	prefix string
}

// RootLogger is the root logger from which all component subloggers derive.
var RootLogger = &Logger{}

func init() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags)
}

// Sublogger creates a new logger scoped under the given name, joined to the
// parent's prefix with a dot (e.g. "scanner.worker").
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{prefix: prefix}
}

func (l *Logger) output(calldepth int, line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(calldepth, line)
}

// Print logs with fmt.Print semantics.
func (l *Logger) Print(v ...interface{}) {
	if l != nil {
		l.output(3, fmt.Sprint(v...))
	}
}

// Printf logs with fmt.Printf semantics.
func (l *Logger) Printf(format string, v ...interface{}) {
	if l != nil {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Println logs with fmt.Println semantics.
func (l *Logger) Println(v ...interface{}) {
	if l != nil {
		l.output(3, fmt.Sprintln(v...))
	}
}

// Writer returns an io.Writer that feeds complete lines to Println.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return io.Discard
	}
	return &writer{callback: func(s string) { l.Println(s) }}
}

// Debug logs with fmt.Print semantics, but only if debugging is enabled.
func (l *Logger) Debug(v ...interface{}) {
	if l != nil && DebugEnabled() {
		l.output(3, fmt.Sprint(v...))
	}
}

// Debugf logs with fmt.Printf semantics, but only if debugging is enabled.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l != nil && DebugEnabled() {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Debugln logs with fmt.Println semantics, but only if debugging is enabled.
func (l *Logger) Debugln(v ...interface{}) {
	if l != nil && DebugEnabled() {
		l.output(3, fmt.Sprintln(v...))
	}
}

// Warn logs a warning in yellow.
func (l *Logger) Warn(err error) {
	if l != nil {
		l.output(3, color.YellowString("Warning: %v", err))
	}
}

// Error logs an error in red.
func (l *Logger) Error(err error) {
	if l != nil {
		l.output(3, color.RedString("Error: %v", err))
	}
}
