package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/conn-castle/envshift/internal/backup"
	"github.com/conn-castle/envshift/internal/condacli"
	"github.com/conn-castle/envshift/internal/config"
	"github.com/conn-castle/envshift/internal/discover"
	"github.com/conn-castle/envshift/internal/installer"
	"github.com/conn-castle/envshift/internal/manifest"
	"github.com/conn-castle/envshift/internal/messages"
	"github.com/conn-castle/envshift/internal/migrate"
	"github.com/conn-castle/envshift/internal/removal"
	"github.com/conn-castle/envshift/internal/restore"
	"github.com/conn-castle/envshift/internal/steplog"
)

// rootFlags carries the root command's flag values.
type rootFlags struct {
	dryRun     bool
	resume     bool
	yes        bool
	backupDir  string
	configPath string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, messages.RootFlagDryRun)
	cmd.Flags().BoolVar(&flags.resume, "resume", false, messages.RootFlagResume)
	cmd.Flags().BoolVar(&flags.yes, "yes", false, messages.RootFlagYes)
	cmd.Flags().StringVar(&flags.backupDir, "backup-dir", "", messages.RootFlagBackupDir)
	cmd.Flags().StringVar(&flags.configPath, "config", "", messages.RootFlagConfig)

	cmd.AddCommand(newStatusCmd(), newBackupCmd())
	return cmd
}

// runtimeEnv resolves the configuration and the derived on-disk locations.
type runtimeEnv struct {
	cfg            config.Config
	homeDir        string
	backupRoot     string
	checkpointPath string
	manifestPath   string
	logPath        string
	searchPathFile string
}

func resolveEnv(configPath string, backupDirFlag string) (runtimeEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return runtimeEnv{}, err
	}
	home, err := homedir.Dir()
	if err != nil {
		return runtimeEnv{}, err
	}
	backupRoot := backupDirFlag
	if backupRoot == "" {
		backupRoot = cfg.BackupDir
	}
	if backupRoot == "" {
		backupRoot = filepath.Join(home, ".envshift")
	}
	if backupRoot, err = homedir.Expand(backupRoot); err != nil {
		return runtimeEnv{}, err
	}
	searchPathFile := cfg.SearchPathFile
	if searchPathFile != "" {
		if searchPathFile, err = homedir.Expand(searchPathFile); err != nil {
			return runtimeEnv{}, err
		}
	}
	return runtimeEnv{
		cfg:            cfg,
		homeDir:        home,
		backupRoot:     backupRoot,
		checkpointPath: filepath.Join(backupRoot, "state.json"),
		manifestPath:   filepath.Join(backupRoot, "manifest.json"),
		logPath:        filepath.Join(backupRoot, "migrate.log"),
		searchPathFile: searchPathFile,
	}, nil
}

// installCandidates returns the configured or default discovery candidates.
func installCandidates(cfg config.Config) []string {
	if len(cfg.InstallCandidates) > 0 {
		return cfg.InstallCandidates
	}
	return discover.DefaultInstallCandidates()
}

func envsCandidates(cfg config.Config) []string {
	if len(cfg.EnvsCandidates) > 0 {
		return cfg.EnvsCandidates
	}
	return discover.DefaultEnvsCandidates()
}

func runMigration(cmd *cobra.Command, flags rootFlags) error {
	env, err := resolveEnv(flags.configPath, flags.backupDir)
	if err != nil {
		return err
	}

	cp, err := manifest.LoadCheckpoint(env.checkpointPath)
	if err != nil {
		return err
	}
	if !flags.resume && cp.State != manifest.StateNotStarted && cp.State != manifest.StateRestored {
		return fmt.Errorf(messages.ResumeRequiredFmt, cp.State)
	}

	if flags.dryRun {
		return runDryRun(cmd, env)
	}

	log, err := steplog.New(cmd.OutOrStdout(), env.logPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Close()
	}()

	sys := discover.RealSystem{}
	installDir, envsDir, err := resolveSource(env, cp, sys)
	if err != nil {
		return err
	}

	client := condacli.New(env.cfg.ToolBin, env.cfg.ToolTimeout())

	backupMgr := backup.NewManager(backup.RealSystem{}, client, log, backup.Options{
		HomeDir:     env.homeDir,
		InstallDir:  installDir,
		EnvsDir:     envsDir,
		BackupRoot:  env.backupRoot,
		ConfigFiles: env.cfg.ConfigFiles,
	})
	removalMgr := removal.NewManager(removal.RealSystem{}, client, log, removal.Options{
		HomeDir:      env.homeDir,
		InstallDir:   installDir,
		LeftoverDirs: env.cfg.LeftoverDirs,
		Store:        removal.NewUserStore(removal.RealSystem{}, env.searchPathFile),
	})
	newInstallDir, err := resolveNewInstallDir(env)
	if err != nil {
		return err
	}
	installStep := &installer.Step{
		Inst: installer.New(log, installer.Options{
			DownloadTimeout: env.cfg.DownloadTimeout(),
			InstallTimeout:  env.cfg.InstallTimeout(),
		}),
		Sys:               sys,
		URL:               env.cfg.InstallerURL,
		DestFile:          filepath.Join(env.backupRoot, "installer", filepath.Base(env.cfg.InstallerURL)),
		SilentArgs:        installer.DefaultSilentArgs(newInstallDir),
		NewToolCandidates: env.cfg.NewToolCandidates,
		ToolTimeout:       env.cfg.ToolTimeout(),
		Shell:             installer.DetectShell(),
	}
	restoreMgr := newToolRestore(env, log)

	orch := migrate.New(log, env.checkpointPath, env.manifestPath, backupMgr, removalMgr, installStep, restoreMgr)
	if !flags.yes {
		orch.ConfirmRemoval = func() (bool, error) {
			if !isTerminal() {
				return false, errors.New(messages.RemovalRequiresTerminal)
			}
			return promptYesNo(cmd.InOrStdin(), cmd.OutOrStdout(), messages.RemovalConfirmPrompt, false)
		}
	}

	outcome, runErr := orch.Run(cmd.Context())
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), messages.FinalManifestFmt, env.manifestPath)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), messages.FinalLogFileFmt, env.logPath)
	if runErr != nil {
		if outcome.FinalState == manifest.StateFailed {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), messages.FinalResumeFmt, outcome.FailedStep, runErr, outcome.ResumeFrom)
			return &SilentExitError{Code: 1}
		}
		return runErr
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), messages.FinalStateFmt, outcome.FinalState)
	if outcome.Partial {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), messages.FinalPartialNote)
		return &SilentExitError{Code: 2}
	}
	return nil
}

// resolveSource locates the old installation. Once backup has completed the
// install directory may already be gone, so resume reads it from the
// manifest instead of probing the filesystem.
func resolveSource(env runtimeEnv, cp manifest.Checkpoint, sys discover.System) (string, string, error) {
	if cp.LastCompleted != manifest.StateNotStarted && cp.LastCompleted != "" {
		record, err := manifest.Read(env.manifestPath)
		if err != nil {
			return "", "", err
		}
		envsDir, _ := discover.FindEnvironmentsDir(sys, envsCandidates(env.cfg))
		return record.SourceInstall, envsDir, nil
	}
	installDir, err := discover.FindInstallation(sys, installCandidates(env.cfg))
	if err != nil {
		return "", "", err
	}
	envsDir, err := discover.FindEnvironmentsDir(sys, envsCandidates(env.cfg))
	if err != nil {
		return "", "", err
	}
	return installDir, envsDir, nil
}

func resolveNewInstallDir(env runtimeEnv) (string, error) {
	dir := env.cfg.NewInstallDir
	if dir == "" {
		dir = "~/miniforge3"
	}
	return homedir.Expand(dir)
}

// newToolRestore builds the restore step against the newly installed tool.
// The client is bound lazily at run time because the tool only exists after
// the install step has completed.
type lazyRestore struct {
	env runtimeEnv
	log *steplog.Logger
}

func newToolRestore(env runtimeEnv, log *steplog.Logger) *lazyRestore {
	return &lazyRestore{env: env, log: log}
}

// Run resolves the new tool and delegates to the restore manager.
func (r *lazyRestore) Run(ctx context.Context, channels []string) error {
	toolPath, err := installer.LocateNewTool(discover.RealSystem{}, r.env.cfg.NewToolCandidates)
	if err != nil {
		return err
	}
	client := condacli.New(toolPath, r.env.cfg.ToolTimeout())
	return restore.NewManager(client, r.log).Run(ctx, channels)
}
