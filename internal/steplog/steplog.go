// Package steplog provides the migration logger: timestamped lines mirrored
// to the console and a persisted append-only log file. Components receive a
// *Logger explicitly; there is no global log state.
package steplog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"github.com/conn-castle/envshift/internal/messages"
)

var (
	okTag   = color.New(color.FgGreen).Sprint("OK")
	warnTag = color.New(color.FgYellow).Sprint("WARN")
	failTag = color.New(color.FgRed).Sprint("FAIL")
)

// Logger mirrors timestamped lines to a console writer and a log file.
// The log file is append-only and written by this single process; it is
// flushed and closed via Close on all exit paths.
type Logger struct {
	console io.Writer
	file    *os.File
	now     func() time.Time
}

// New opens (or creates) the log file at path and returns a Logger mirroring
// to console. Pass io.Discard as console to silence console output.
func New(console io.Writer, path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf(messages.SystemFailedCreateDirFmt, filepath.Dir(path), err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf(messages.LogOpenFmt, path, err)
	}
	return &Logger{console: console, file: file, now: time.Now}, nil
}

// NewForWriter returns a Logger writing only to console, for tests and dry runs.
func NewForWriter(console io.Writer) *Logger {
	return &Logger{console: console, now: time.Now}
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}

// Path returns the log file path, or "" when logging to console only.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Infof logs an informational line.
func (l *Logger) Infof(format string, args ...any) {
	l.emit(okTag, "INFO", format, args...)
}

// Warnf logs a non-fatal warning line.
func (l *Logger) Warnf(format string, args ...any) {
	l.emit(warnTag, "WARN", format, args...)
}

// Errorf logs a failure line.
func (l *Logger) Errorf(format string, args ...any) {
	l.emit(failTag, "FAIL", format, args...)
}

// emit writes one line to both sinks. The file line carries the plain tag so
// the persisted log stays free of ANSI escapes.
func (l *Logger) emit(consoleTag string, fileTag string, format string, args ...any) {
	stamp := l.now().Format("2006-01-02 15:04:05")
	text := fmt.Sprintf(format, args...)
	if l.console != nil {
		_, _ = fmt.Fprintf(l.console, "%s [%s] %s\n", stamp, consoleTag, text)
	}
	if l.file != nil {
		_, _ = fmt.Fprintf(l.file, "%s [%s] %s\n", stamp, fileTag, text)
	}
}
