package messages

// Migration workflow messages shared by the orchestrator and step managers.
const (
	// Discovery.
	DiscoverNoInstallFmt = "no conda-family installation found; tried: %s"
	DiscoverNoEnvsDirFmt = "no environments directory found; tried: %s"

	// Backup.
	BackupConfigCopiedFmt      = "backed up %s to %s"
	BackupConfigMissingFmt     = "config file %s not present; skipping"
	BackupConfigFailedFmt      = "back up %s: %v"
	BackupChannelsOKFmt        = "captured %d channel(s)"
	BackupChannelsFailFmt      = "capture channel list: %v (restore will have nothing to re-apply)"
	BackupEnvListFailFmt       = "list environments: %w"
	BackupExportOKFmt          = "exported environment %s"
	BackupExportFailFmt        = "export environment %s: %v; falling back to raw copy"
	BackupRawCopyOKFmt         = "copied environment directory for %s"
	BackupRawCopyFailFmt       = "raw copy of environment %s failed: %v"
	BackupEnvFailedFmt         = "environment %s could not be backed up; recorded as failed"
	BackupBulkCopyFailFmt      = "bulk copy of environments directory failed: %v (per-environment backups are unaffected)"
	BackupWriteManifestFmt     = "write backup manifest: %w"
	BackupManifestWriteWarnFmt = "write backup manifest: %v"

	// Removal.
	RemovalGateNoManifest   = "refusing to remove: no backup manifest exists"
	RemovalGateConfigFailed = "refusing to remove: configuration-file backup did not succeed"
	RemovalDeactivateFmt    = "deactivate active environment: %w"
	RemovalDeleteFmt        = "delete %s: %w"
	RemovalDeletedFmt       = "deleted %s"
	RemovalAbsentFmt        = "%s already absent"
	RemovalSearchPathFmt    = "update user search path: %w"
	RemovalSearchPathNoop   = "search path did not reference the installation"

	// Installer.
	InstallDownloadedFmt    = "downloaded installer to %s (%d bytes)"
	InstallEmptyDownloadFmt = "downloaded installer %s is empty"
	InstallRunFmt           = "run installer: %w"
	InstallTimedOutFmt      = "installer did not finish within %s"
	InstallExitCodeFmt      = "installer exited with code %d"
	InstallVerifyFailedFmt  = "installer reported success but no executable was found; tried: %s"
	InstallShellInitFailFmt = "shell integration for %s failed: %v (continuing; run %q manually)"

	// Restore.
	RestoreResetFailFmt   = "reset channels to default: %v (continuing)"
	RestoreChannelOKFmt   = "restored channel %s"
	RestoreChannelFailFmt = "restore channel %s: %v (continuing)"
	RestoreNothingToDo    = "no channels were captured during backup; nothing to restore"

	// Orchestrator.
	StepStartFmt   = "step %s: starting"
	StepSuccessFmt = "step %s: done"
	StepSkipFmt    = "step %s: already completed; skipping"
	StepFailFmt    = "step %s: %v"
	StepCancelled  = "migration cancelled between steps; state checkpoint preserved"

	ManifestReadWarnFmt = "read backup manifest: %v (restore will have nothing to re-apply)"

	CheckpointLoadFmt = "load migration checkpoint: %w"
	CheckpointSaveFmt = "save migration checkpoint: %w"
)
