// Package migrate sequences the migration state machine:
// backup → remove → install → restore, checkpointed after every transition
// so a re-run resumes rather than redoing destructive steps.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/conn-castle/envshift/internal/manifest"
	"github.com/conn-castle/envshift/internal/messages"
	"github.com/conn-castle/envshift/internal/steplog"
)

// Step names the state-machine steps for checkpointing and diagnostics.
type Step string

const (
	StepBackup  Step = "backup"
	StepRemove  Step = "remove"
	StepInstall Step = "install"
	StepRestore Step = "restore"
)

// BackupStep runs the backup and returns the written manifest.
type BackupStep interface {
	Run(ctx context.Context) (manifest.Manifest, error)
}

// RemoveStep runs the removal gated on the backup manifest.
type RemoveStep interface {
	Run(ctx context.Context, record manifest.Manifest) error
}

// InstallStep downloads, runs, and verifies the replacement installer.
type InstallStep interface {
	Run(ctx context.Context) error
}

// RestoreStep re-applies the captured channel configuration.
type RestoreStep interface {
	Run(ctx context.Context, channels []string) error
}

// Outcome summarizes a finished (or failed) migration run.
type Outcome struct {
	FinalState manifest.State
	// Partial reports that the migration completed but some environments
	// could not be backed up.
	Partial bool
	// FailedStep is set when FinalState is StateFailed.
	FailedStep Step
	// ResumeFrom is the state a re-run resumes from after a failure.
	ResumeFrom manifest.State
}

// Orchestrator drives the migration. Execution is strictly sequential; the
// only cancellation points are between steps, because interrupting a delete
// or install mid-step is unsafe.
type Orchestrator struct {
	log            *steplog.Logger
	checkpointPath string
	manifestPath   string

	backup  BackupStep
	remove  RemoveStep
	install InstallStep
	restore RestoreStep

	// ConfirmRemoval, when non-nil, is asked after backup and before
	// removal. Declining cancels the migration with the backup preserved.
	ConfirmRemoval func() (bool, error)
}

// New returns an Orchestrator.
func New(log *steplog.Logger, checkpointPath string, manifestPath string, backup BackupStep, remove RemoveStep, install InstallStep, restore RestoreStep) *Orchestrator {
	return &Orchestrator{
		log:            log,
		checkpointPath: checkpointPath,
		manifestPath:   manifestPath,
		backup:         backup,
		remove:         remove,
		install:        install,
		restore:        restore,
	}
}

// stateRank orders the success states for resume comparisons.
func stateRank(s manifest.State) int {
	switch s {
	case manifest.StateBackedUp:
		return 1
	case manifest.StateRemoved:
		return 2
	case manifest.StateInstalled:
		return 3
	case manifest.StateRestored:
		return 4
	}
	return 0
}

// Run executes the state machine from the persisted checkpoint. Completed
// steps are skipped; the first unrecoverable failure transitions to the
// failed state and returns an error naming the step and cause.
func (o *Orchestrator) Run(ctx context.Context) (Outcome, error) {
	cp, err := manifest.LoadCheckpoint(o.checkpointPath)
	if err != nil {
		return Outcome{}, fmt.Errorf(messages.CheckpointLoadFmt, err)
	}
	completed := cp.LastCompleted

	var record manifest.Manifest
	haveManifest := false

	// Backup.
	if stateRank(completed) >= stateRank(manifest.StateBackedUp) {
		o.log.Infof(messages.StepSkipFmt, StepBackup)
	} else {
		record, err = o.runBackup(ctx, &completed)
		if err != nil {
			return o.fail(StepBackup, completed, err)
		}
		haveManifest = true
	}
	if err := o.pause(ctx, completed); err != nil {
		return Outcome{FinalState: completed, ResumeFrom: completed}, err
	}

	// Remove. The gate re-reads the manifest from disk on resume so a
	// checkpoint can never outrun the artifact it depends on.
	if stateRank(completed) >= stateRank(manifest.StateRemoved) {
		o.log.Infof(messages.StepSkipFmt, StepRemove)
	} else {
		if !haveManifest {
			record, err = o.loadManifest()
			if err != nil {
				return o.fail(StepRemove, completed, err)
			}
			haveManifest = true
		}
		if o.ConfirmRemoval != nil {
			proceed, err := o.ConfirmRemoval()
			if err != nil {
				return o.fail(StepRemove, completed, err)
			}
			if !proceed {
				return Outcome{FinalState: completed, ResumeFrom: completed}, errors.New(messages.RemovalDeclined)
			}
		}
		if err := o.runStep(ctx, StepRemove, manifest.StateRemoved, &completed, func(ctx context.Context) error {
			return o.remove.Run(ctx, record)
		}); err != nil {
			return o.fail(StepRemove, completed, err)
		}
	}
	if err := o.pause(ctx, completed); err != nil {
		return Outcome{FinalState: completed, ResumeFrom: completed}, err
	}

	// Install.
	if stateRank(completed) >= stateRank(manifest.StateInstalled) {
		o.log.Infof(messages.StepSkipFmt, StepInstall)
	} else {
		if err := o.runStep(ctx, StepInstall, manifest.StateInstalled, &completed, o.install.Run); err != nil {
			return o.fail(StepInstall, completed, err)
		}
	}
	if err := o.pause(ctx, completed); err != nil {
		return Outcome{FinalState: completed, ResumeFrom: completed}, err
	}

	// Restore.
	if stateRank(completed) >= stateRank(manifest.StateRestored) {
		o.log.Infof(messages.StepSkipFmt, StepRestore)
	} else {
		if !haveManifest {
			if record, err = o.loadManifest(); err == nil {
				haveManifest = true
			} else {
				// A lost manifest at this point degrades restore to a no-op
				// rather than failing a migration whose destructive steps
				// already succeeded.
				o.log.Warnf(messages.ManifestReadWarnFmt, err)
			}
		}
		if err := o.runStep(ctx, StepRestore, manifest.StateRestored, &completed, func(ctx context.Context) error {
			return o.restore.Run(ctx, record.Channels)
		}); err != nil {
			return o.fail(StepRestore, completed, err)
		}
	}

	outcome := Outcome{FinalState: manifest.StateRestored, ResumeFrom: manifest.StateRestored}
	if haveManifest && len(record.FailedEnvironments()) > 0 {
		outcome.Partial = true
	}
	return outcome, nil
}

// runBackup runs the backup step. Unlike the generic steps it must surface
// the manifest to the caller.
func (o *Orchestrator) runBackup(ctx context.Context, completed *manifest.State) (manifest.Manifest, error) {
	o.log.Infof(messages.StepStartFmt, StepBackup)
	record, err := o.backup.Run(ctx)
	if err != nil {
		o.log.Errorf(messages.StepFailFmt, StepBackup, err)
		return record, err
	}
	if err := o.checkpoint(manifest.StateBackedUp); err != nil {
		return record, err
	}
	*completed = manifest.StateBackedUp
	o.log.Infof(messages.StepSuccessFmt, StepBackup)
	return record, nil
}

func (o *Orchestrator) runStep(ctx context.Context, step Step, next manifest.State, completed *manifest.State, fn func(context.Context) error) error {
	o.log.Infof(messages.StepStartFmt, step)
	if err := fn(ctx); err != nil {
		o.log.Errorf(messages.StepFailFmt, step, err)
		return err
	}
	if err := o.checkpoint(next); err != nil {
		return err
	}
	*completed = next
	o.log.Infof(messages.StepSuccessFmt, step)
	return nil
}

// pause is the cooperative cancellation point between steps. Cancelling here
// leaves the machine in the last completed state, safe to resume later.
func (o *Orchestrator) pause(ctx context.Context, _ manifest.State) error {
	if err := ctx.Err(); err != nil {
		o.log.Warnf(messages.StepCancelled)
		return err
	}
	return nil
}

func (o *Orchestrator) loadManifest() (manifest.Manifest, error) {
	if _, err := os.Stat(o.manifestPath); err != nil {
		return manifest.Manifest{}, errors.New(messages.RemovalGateNoManifest)
	}
	return manifest.Read(o.manifestPath)
}

func (o *Orchestrator) checkpoint(state manifest.State) error {
	cp := manifest.Checkpoint{State: state, LastCompleted: state}
	if err := manifest.SaveCheckpoint(o.checkpointPath, cp); err != nil {
		return fmt.Errorf(messages.CheckpointSaveFmt, err)
	}
	return nil
}

// fail records the failed state and returns the step error wrapped with the
// step name.
func (o *Orchestrator) fail(step Step, completed manifest.State, cause error) (Outcome, error) {
	cp := manifest.Checkpoint{
		State:         manifest.StateFailed,
		FailedStep:    string(step),
		FailedCause:   cause.Error(),
		LastCompleted: completed,
	}
	if err := manifest.SaveCheckpoint(o.checkpointPath, cp); err != nil {
		o.log.Errorf(messages.StepFailFmt, step, err)
	}
	outcome := Outcome{
		FinalState: manifest.StateFailed,
		FailedStep: step,
		ResumeFrom: completed,
	}
	return outcome, fmt.Errorf("step %s: %w", step, cause)
}
