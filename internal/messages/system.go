package messages

// Low-level filesystem, config, and tool-invocation messages.
const (
	SystemFailedReadFmt      = "read %s: %w"
	SystemFailedWriteFmt     = "write %s: %w"
	SystemFailedStatFmt      = "stat %s: %w"
	SystemFailedCreateDirFmt = "create directory %s: %w"

	ConfigMissingFileFmt   = "read config %s: %w"
	ConfigInvalidTOMLFmt   = "parse config %s: %w"
	ConfigInvalidFieldFmt  = "config field %s: %s"
	ConfigValidationFailed = "config validation failed"

	ToolLaunchFmt    = "launch %s %s: %w"
	ToolBadExportFmt = "environment export for %s is not a valid spec: %w"
	ToolTimedOutFmt  = "%s %s timed out after %s"

	ManifestDecodeFmt      = "decode backup manifest %s: %w"
	ManifestValidateFmt    = "validate backup manifest %s: %w"
	ManifestSchemaFmt      = "unsupported manifest schema_version %d"
	ManifestMissingCreated = "created_at_utc is required"
	ManifestBadCreatedFmt  = "invalid created_at_utc %q: %w"
	ManifestBadMethodFmt   = "invalid environment backup method %q"
	ManifestDupEnvFmt      = "duplicate environment entry %q"
	ManifestBadStateFmt    = "invalid migration state %q"

	LogOpenFmt = "open log file %s: %w"

	EnvfileLineErrorFmt     = "line %d: %w"
	EnvfileReadFailedFmt    = "read env file: %w"
	EnvfileExpectedKeyValue = "expected KEY=value"
)
