// Package condacli adapts the conda-family command-line tool behind a narrow
// client interface. All parsing of the tool's text output lives here so the
// CLI's quirks stay contained in one place and the rest of the codebase can
// mock a Client.
package condacli

import (
	"context"
	"fmt"
	"time"
)

// DefaultCommandTimeout bounds a single tool invocation. The tool is expected
// to answer queries in seconds; a hung invocation must not block the
// migration forever.
const DefaultCommandTimeout = 2 * time.Minute

// Client is the package-tool boundary: one method per logical operation.
type Client interface {
	// Version returns the tool's version string, verifying the tool is invocable.
	Version(ctx context.Context) (string, error)
	// Channels returns the configured channel list in precedence order.
	Channels(ctx context.Context) ([]string, error)
	// ListEnvs returns the names of all managed environments.
	ListEnvs(ctx context.Context) ([]string, error)
	// ExportEnv writes the declarative spec of the named environment to destFile.
	ExportEnv(ctx context.Context, name string, destFile string) error
	// Deactivate deactivates any active environment.
	Deactivate(ctx context.Context) error
	// AddChannel appends a channel to the tool's channel configuration.
	AddChannel(ctx context.Context, name string) error
	// RemoveChannel removes a channel from the tool's channel configuration.
	RemoveChannel(ctx context.Context, name string) error
	// InitShell runs the tool's shell-integration init for the given shell.
	InitShell(ctx context.Context, shell string) error
}

// Result captures one tool invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ToolError reports a tool invocation that launched but exited non-zero.
type ToolError struct {
	Bin      string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s %v exited with code %d: %s", e.Bin, e.Args, e.ExitCode, e.Stderr)
}
