// Package installer downloads the replacement-distribution installer, runs
// it silently, and verifies the new tool's executable actually exists before
// the migration is allowed to proceed.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/conn-castle/envshift/internal/condacli"
	"github.com/conn-castle/envshift/internal/discover"
	"github.com/conn-castle/envshift/internal/messages"
	"github.com/conn-castle/envshift/internal/steplog"
)

const (
	// DefaultDownloadTimeout bounds the whole installer download.
	DefaultDownloadTimeout = 10 * time.Minute
	// DefaultInstallTimeout bounds the silent install run. Installers can
	// hang forever on a hidden dialog; a bounded wait turns that into a
	// reportable failure instead.
	DefaultInstallTimeout = 30 * time.Minute

	downloadMaxRetries = 2

	// defaultWaitDelay bounds how long Wait lingers on the inherited output
	// pipes after the installer is killed. Installers background children
	// that keep stderr open past the parent's exit.
	defaultWaitDelay = 5 * time.Second
)

// ErrTimedOut reports that the installer did not finish within its bound.
var ErrTimedOut = errors.New("timed out")

// ErrVerificationFailed reports that the installer exited successfully but
// no usable executable was found afterwards.
var ErrVerificationFailed = errors.New("verification failed")

// NetworkError wraps a transport failure during the installer download.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DefaultSilentArgs returns the fixed silent-install arguments for the
// replacement distribution's installer on the current OS.
func DefaultSilentArgs(installDir string) []string {
	if runtime.GOOS == "windows" {
		return []string{"/S", "/InstallationType=JustMe", "/AddToPath=1", "/D=" + installDir}
	}
	return []string{"-b", "-p", installDir}
}

// Installer downloads and runs the replacement installer.
type Installer struct {
	httpClient      *http.Client
	log             *steplog.Logger
	downloadTimeout time.Duration
	installTimeout  time.Duration
	retryInterval   time.Duration
	waitDelay       time.Duration
}

// Options configures an Installer. Zero timeouts use the defaults.
type Options struct {
	HTTPClient      *http.Client
	DownloadTimeout time.Duration
	InstallTimeout  time.Duration
}

// New returns an Installer.
func New(log *steplog.Logger, opts Options) *Installer {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	downloadTimeout := opts.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = DefaultDownloadTimeout
	}
	installTimeout := opts.InstallTimeout
	if installTimeout <= 0 {
		installTimeout = DefaultInstallTimeout
	}
	return &Installer{
		httpClient:      client,
		log:             log,
		downloadTimeout: downloadTimeout,
		installTimeout:  installTimeout,
		retryInterval:   time.Second,
		waitDelay:       defaultWaitDelay,
	}
}

// Download fetches the installer artifact to destFile, retrying transient
// transport failures a bounded number of times. Any terminal failure is a
// NetworkError; a zero-byte artifact is rejected.
func (inst *Installer) Download(ctx context.Context, url string, destFile string) error {
	ctx, cancel := context.WithTimeout(ctx, inst.downloadTimeout)
	defer cancel()

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(inst.retryInterval), downloadMaxRetries), ctx)
	attempt := func() error {
		return inst.fetch(ctx, url, destFile)
	}
	if err := backoff.Retry(attempt, policy); err != nil {
		return &NetworkError{URL: url, Err: err}
	}

	info, err := os.Stat(destFile)
	if err != nil {
		return &NetworkError{URL: url, Err: err}
	}
	if info.Size() == 0 {
		return &NetworkError{URL: url, Err: fmt.Errorf(messages.InstallEmptyDownloadFmt, destFile)}
	}
	inst.log.Infof(messages.InstallDownloadedFmt, destFile, info.Size())
	return nil
}

func (inst *Installer) fetch(ctx context.Context, url string, destFile string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	resp, err := inst.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %s", resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Client errors will not heal on retry.
			return backoff.Permanent(err)
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destFile), 0o755); err != nil {
		return backoff.Permanent(err)
	}
	out, err := os.OpenFile(destFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return backoff.Permanent(err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// RunSilent launches the downloaded installer with the fixed silent-install
// arguments and blocks until it exits. A run past the install timeout is
// killed and reported as ErrTimedOut; a non-zero exit is fatal.
func (inst *Installer) RunSilent(ctx context.Context, installerFile string, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, inst.installTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, installerFile, args...)
	// Without a wait delay, Wait blocks until every process holding the
	// inherited stderr pipe exits, so a backgrounded child would turn the
	// timeout kill into an indefinite hang.
	cmd.WaitDelay = inst.waitDelay
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf(messages.InstallTimedOutFmt+": %w", inst.installTimeout, ErrTimedOut)
		}
		if errors.Is(err, exec.ErrWaitDelay) {
			// The installer itself exited cleanly; only its abandoned pipes
			// were still open.
			return nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf(messages.InstallExitCodeFmt+": %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf(messages.InstallRunFmt, err)
	}
	return nil
}

// LocateNewTool verifies that the new tool's executable exists after the
// installer reported success. Installers can "succeed" without producing a
// usable binary, so this check is mandatory, not optional.
func LocateNewTool(sys discover.System, candidates []string) (string, error) {
	path, err := discover.FirstExisting(sys, candidates)
	if err != nil {
		if errors.Is(err, discover.ErrNotFound) {
			return "", fmt.Errorf(messages.InstallVerifyFailedFmt+": %w", strings.Join(candidates, ", "), ErrVerificationFailed)
		}
		return "", err
	}
	return path, nil
}

// InitShellIntegration runs the new tool's own shell init. Failure is logged
// and tolerated: shell integration is convenience, not correctness.
func (inst *Installer) InitShellIntegration(ctx context.Context, client condacli.Client, shell string) {
	if err := client.InitShell(ctx, shell); err != nil {
		inst.log.Warnf(messages.InstallShellInitFailFmt, shell, err, "init "+shell)
	}
}

// DetectShell names the invoking user's shell for init, falling back to bash.
func DetectShell() string {
	if runtime.GOOS == "windows" {
		return "powershell"
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return filepath.Base(shell)
	}
	return "bash"
}
