package steplog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

func TestLoggerMirrorsConsoleAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "migrate.log")
	var console bytes.Buffer
	log, err := New(&console, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.now = fixedNow

	log.Infof("backed up %d environments", 3)
	log.Warnf("config file missing: %s", ".condarc")
	log.Errorf("download failed")
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	want := "2026-03-14 09:26:53 [INFO] backed up 3 environments\n" +
		"2026-03-14 09:26:53 [WARN] config file missing: .condarc\n" +
		"2026-03-14 09:26:53 [FAIL] download failed\n"
	if string(data) != want {
		t.Fatalf("file log mismatch:\n%s", data)
	}
	if strings.Contains(string(data), "\x1b[") {
		t.Fatal("file log must not contain ANSI escapes")
	}

	consoleOut := console.String()
	for _, fragment := range []string{"backed up 3 environments", "config file missing", "download failed"} {
		if !strings.Contains(consoleOut, fragment) {
			t.Fatalf("console missing %q:\n%s", fragment, consoleOut)
		}
	}
}

func TestLoggerAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.log")
	for _, line := range []string{"first run", "second run"} {
		log, err := New(nil, path)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		log.now = fixedNow
		log.Infof("%s", line)
		if err := log.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "first run") || !strings.Contains(string(data), "second run") {
		t.Fatalf("log not appended:\n%s", data)
	}
}

func TestNewForWriter(t *testing.T) {
	var console bytes.Buffer
	log := NewForWriter(&console)
	log.now = fixedNow
	log.Infof("console only")
	if log.Path() != "" {
		t.Fatalf("expected empty path, got %s", log.Path())
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close without file: %v", err)
	}
	if !strings.Contains(console.String(), "console only") {
		t.Fatalf("console output missing line: %s", console.String())
	}
}

func TestLoggerPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.log")
	log, err := New(nil, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() {
		_ = log.Close()
	}()
	if log.Path() != path {
		t.Fatalf("Path mismatch: %s", log.Path())
	}
}
