// Package testutil provides helpers for faking the package tool and
// installer binaries with executable shell stubs.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteStub writes an executable shell stub that exits successfully.
// t is the active test; dir is the output directory; name is the executable file name.
func WriteStub(t *testing.T, dir string, name string) string {
	t.Helper()
	return WriteStubWithExit(t, dir, name, 0)
}

// WriteStubWithExit writes an executable shell stub that exits with the provided code.
func WriteStubWithExit(t *testing.T, dir string, name string, exitCode int) string {
	t.Helper()
	return writeStub(t, dir, name, fmt.Sprintf("#!/bin/sh\nexit %d\n", exitCode))
}

// WriteStubWithOutput writes an executable shell stub that prints output to
// stdout and exits 0. Used to fake `env list` and `config --show channels`.
func WriteStubWithOutput(t *testing.T, dir string, name string, output string) string {
	t.Helper()
	return writeStub(t, dir, name, "#!/bin/sh\ncat <<'EOF'\n"+output+"\nEOF\nexit 0\n")
}

// WriteCondaStub writes a stub that dispatches on the full argument string
// the way the real tool's subcommands do. Each case maps an argument prefix
// to stdout text; unmatched invocations exit 0 silently.
func WriteCondaStub(t *testing.T, dir string, name string, cases map[string]string) string {
	t.Helper()
	script := "#!/bin/sh\ncase \"$*\" in\n"
	for match, output := range cases {
		script += fmt.Sprintf("  \"%s\"*)\n    cat <<'EOF'\n%s\nEOF\n    exit 0\n    ;;\n", match, output)
	}
	script += "  *)\n    exit 0\n    ;;\nesac\n"
	return writeStub(t, dir, name, script)
}

// WriteRecordingStub writes a stub that appends each invocation's arguments
// to logFile (one line per call) and exits 0.
func WriteRecordingStub(t *testing.T, dir string, name string, logFile string) string {
	t.Helper()
	return writeStub(t, dir, name, fmt.Sprintf("#!/bin/sh\necho \"$@\" >> \"%s\"\nexit 0\n", logFile))
}

func writeStub(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}
