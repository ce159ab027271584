package messages

// CLI messages for user-facing commands and prompts.
const (
	// RootUse is the CLI command name.
	RootUse = "envshift"
	// RootShort is the short description for the root command.
	RootShort = "Migrate a conda-family installation to a replacement distribution"
	RootLong  = "envshift backs up an existing conda-family installation (configuration,\n" +
		"channels, and environments), removes it, installs the replacement\n" +
		"distribution, and restores channel configuration into the new install.\n" +
		"Progress is checkpointed so an interrupted migration can be resumed."

	RootFlagDryRun    = "Print the migration plan without changing anything"
	RootFlagResume    = "Resume from the last checkpoint instead of starting over"
	RootFlagBackupDir = "Directory for backups, logs, and checkpoints (default ~/.envshift)"
	RootFlagYes       = "Skip the confirmation prompt before removal"
	RootFlagConfig    = "Path to an envshift.toml configuration file"

	ResumeRequiredFmt = "a migration checkpoint exists in state %q; re-run with --resume to continue it"

	VersionTemplate  = "{{.Version}}\n"
	VersionFullFmt   = "%s (%s)"
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"

	// StatusUse is the status command name.
	StatusUse   = "status"
	StatusShort = "Show the migration checkpoint and backup manifest summary"

	StatusNoCheckpoint      = "No migration checkpoint found; migration has not started."
	StatusStateFmt          = "Migration state: %s (updated %s)\n"
	StatusFailedStepFmt     = "Failed step: %s\nCause: %s\n"
	StatusNoManifest        = "No backup manifest found."
	StatusManifestHeaderFmt = "Backup manifest (created %s, source %s):\n"
	StatusManifestEnvFmt    = "  environment %-20s %s\n"
	StatusManifestConfigFmt = "  config file %-20s %s\n"
	StatusManifestChansFmt  = "  channels: %s\n"

	// BackupUse is the backup command name.
	BackupUse   = "backup"
	BackupShort = "Back up configuration and environments without migrating"

	RemovalConfirmPrompt    = "Backup complete. Delete the existing installation and proceed with the migration?"
	RemovalDeclined         = "migration cancelled before removal; backup is preserved"
	RemovalRequiresTerminal = "removal confirmation requires an interactive terminal; re-run with --yes to proceed without prompting"

	PromptYesDefaultFmt = "%s [Y/n]: "
	PromptNoDefaultFmt  = "%s [y/N]: "
	PromptReadErrFmt    = "read prompt response: %w"

	DryRunHeader         = "Dry run: no files will be changed."
	DryRunInstallFmt     = "Would back up installation at %s\n"
	DryRunEnvsDirFmt     = "Would back up environments under %s\n"
	DryRunDeleteFmt      = "Would delete %s\n"
	DryRunDownloadFmt    = "Would download installer from %s\n"
	DryRunSearchPathFmt  = "Would update the user search path:\n%s"
	DryRunSearchPathNoop = "Search path does not reference the installation; no change needed."

	FinalStateFmt    = "Migration finished in state %q.\n"
	FinalResumeFmt   = "Migration failed during %q: %v\nResume from state %q with --resume once the cause is fixed.\n"
	FinalPartialNote = "Some environments could not be backed up; see the manifest for details."
	FinalManifestFmt = "Backup manifest: %s\n"
	FinalLogFileFmt  = "Log file: %s\n"
)
