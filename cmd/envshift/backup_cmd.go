package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/envshift/internal/backup"
	"github.com/conn-castle/envshift/internal/condacli"
	"github.com/conn-castle/envshift/internal/discover"
	"github.com/conn-castle/envshift/internal/messages"
	"github.com/conn-castle/envshift/internal/steplog"
)

func newBackupCmd() *cobra.Command {
	var (
		backupDir  string
		configPath string
	)
	cmd := &cobra.Command{
		Use:   messages.BackupUse,
		Short: messages.BackupShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := resolveEnv(configPath, backupDir)
			if err != nil {
				return err
			}
			return runBackupOnly(cmd, env)
		},
	}
	cmd.Flags().StringVar(&backupDir, "backup-dir", "", messages.RootFlagBackupDir)
	cmd.Flags().StringVar(&configPath, "config", "", messages.RootFlagConfig)
	return cmd
}

// runBackupOnly backs up configuration and environments without removing
// anything; the manifest it writes can seed a later full migration.
func runBackupOnly(cmd *cobra.Command, env runtimeEnv) error {
	log, err := steplog.New(cmd.OutOrStdout(), env.logPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Close()
	}()

	sys := discover.RealSystem{}
	installDir, err := discover.FindInstallation(sys, installCandidates(env.cfg))
	if err != nil {
		return err
	}
	envsDir, err := discover.FindEnvironmentsDir(sys, envsCandidates(env.cfg))
	if err != nil {
		return err
	}

	client := condacli.New(env.cfg.ToolBin, env.cfg.ToolTimeout())
	mgr := backup.NewManager(backup.RealSystem{}, client, log, backup.Options{
		HomeDir:     env.homeDir,
		InstallDir:  installDir,
		EnvsDir:     envsDir,
		BackupRoot:  env.backupRoot,
		ConfigFiles: env.cfg.ConfigFiles,
	})
	record, err := mgr.Run(cmd.Context())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), messages.FinalManifestFmt, mgr.ManifestPath())
	if len(record.FailedEnvironments()) > 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), messages.FinalPartialNote)
		return &SilentExitError{Code: 2}
	}
	return nil
}
