package condacli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/conn-castle/envshift/internal/fsutil"
	"github.com/conn-castle/envshift/internal/messages"
)

// CLI implements Client by shelling out to the tool binary.
type CLI struct {
	bin     string
	timeout time.Duration
	run     func(ctx context.Context, bin string, args ...string) (Result, error)
}

// New returns a CLI bound to the given tool binary (a name resolved on PATH
// or an absolute path). A zero timeout uses DefaultCommandTimeout.
func New(bin string, timeout time.Duration) *CLI {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &CLI{bin: bin, timeout: timeout, run: runCommand}
}

// subprocessWaitDelay bounds how long a killed invocation's Wait lingers on
// output pipes still held by background children of the tool.
var subprocessWaitDelay = 5 * time.Second

// runCommand launches one tool invocation and captures its output.
func runCommand(ctx context.Context, bin string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.WaitDelay = subprocessWaitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if errors.Is(err, exec.ErrWaitDelay) {
			// The tool exited cleanly; only its abandoned pipes were open.
			return res, nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf(messages.ToolLaunchFmt, bin, strings.Join(args, " "), err)
	}
	return res, nil
}

// invoke runs the tool under the client's deadline and converts non-zero
// exits into a ToolError.
func (c *CLI) invoke(ctx context.Context, args ...string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	res, err := c.run(ctx, c.bin, args...)
	if err != nil {
		if ctx.Err() != nil {
			return res, fmt.Errorf(messages.ToolTimedOutFmt, c.bin, strings.Join(args, " "), c.timeout)
		}
		return res, err
	}
	if res.ExitCode != 0 {
		// A run killed at the deadline surfaces as a non-zero exit, not as a
		// runner error.
		if ctx.Err() != nil {
			return res, fmt.Errorf(messages.ToolTimedOutFmt, c.bin, strings.Join(args, " "), c.timeout)
		}
		return res, &ToolError{Bin: c.bin, Args: args, ExitCode: res.ExitCode, Stderr: strings.TrimSpace(res.Stderr)}
	}
	return res, nil
}

// Version returns the tool's version string.
func (c *CLI) Version(ctx context.Context) (string, error) {
	res, err := c.invoke(ctx, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Channels returns the configured channels in precedence order.
func (c *CLI) Channels(ctx context.Context) ([]string, error) {
	res, err := c.invoke(ctx, "config", "--show", "channels")
	if err != nil {
		return nil, err
	}
	return ParseChannels(res.Stdout), nil
}

// ListEnvs returns the names of all managed environments.
func (c *CLI) ListEnvs(ctx context.Context) ([]string, error) {
	res, err := c.invoke(ctx, "env", "list")
	if err != nil {
		return nil, err
	}
	return ParseEnvList(res.Stdout), nil
}

// ExportEnv writes the declarative spec of the named environment to destFile.
// The exported YAML is validated before it is written; an export that is not
// a well-formed environment spec counts as a failure so callers fall back to
// a raw directory copy.
func (c *CLI) ExportEnv(ctx context.Context, name string, destFile string) error {
	res, err := c.invoke(ctx, "env", "export", "--name", name)
	if err != nil {
		return err
	}
	if err := validateEnvSpec(res.Stdout); err != nil {
		return fmt.Errorf(messages.ToolBadExportFmt, name, err)
	}
	if err := fsutil.WriteFileAtomic(destFile, []byte(res.Stdout), 0o644); err != nil {
		return fmt.Errorf(messages.SystemFailedWriteFmt, destFile, err)
	}
	return nil
}

// Deactivate deactivates any active environment.
func (c *CLI) Deactivate(ctx context.Context) error {
	_, err := c.invoke(ctx, "deactivate")
	return err
}

// AddChannel appends a channel to the tool's channel configuration.
func (c *CLI) AddChannel(ctx context.Context, name string) error {
	_, err := c.invoke(ctx, "config", "--add", "channels", name)
	return err
}

// RemoveChannel removes a channel from the tool's channel configuration.
func (c *CLI) RemoveChannel(ctx context.Context, name string) error {
	_, err := c.invoke(ctx, "config", "--remove", "channels", name)
	return err
}

// InitShell runs the tool's shell-integration init for the given shell.
func (c *CLI) InitShell(ctx context.Context, shell string) error {
	_, err := c.invoke(ctx, "init", shell)
	return err
}

// envSpec is the subset of an exported environment spec needed for validation.
type envSpec struct {
	Name         string `yaml:"name"`
	Dependencies []any  `yaml:"dependencies"`
}

// validateEnvSpec checks that exported output parses as an environment spec
// with a name and at least an (possibly empty) dependencies list.
func validateEnvSpec(out string) error {
	var spec envSpec
	if err := yaml.Unmarshal([]byte(out), &spec); err != nil {
		return err
	}
	if strings.TrimSpace(spec.Name) == "" {
		return errors.New("missing environment name")
	}
	if spec.Dependencies == nil {
		return errors.New("missing dependencies list")
	}
	return nil
}
