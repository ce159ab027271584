package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conn-castle/envshift/internal/manifest"
	"github.com/conn-castle/envshift/internal/messages"
)

func newStatusCmd() *cobra.Command {
	var (
		backupDir  string
		configPath string
	)
	cmd := &cobra.Command{
		Use:   messages.StatusUse,
		Short: messages.StatusShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := resolveEnv(configPath, backupDir)
			if err != nil {
				return err
			}
			return printStatus(cmd, env)
		},
	}
	cmd.Flags().StringVar(&backupDir, "backup-dir", "", messages.RootFlagBackupDir)
	cmd.Flags().StringVar(&configPath, "config", "", messages.RootFlagConfig)
	return cmd
}

func printStatus(cmd *cobra.Command, env runtimeEnv) error {
	out := cmd.OutOrStdout()

	cp, err := manifest.LoadCheckpoint(env.checkpointPath)
	if err != nil {
		return err
	}
	if cp.State == manifest.StateNotStarted {
		_, _ = fmt.Fprintln(out, messages.StatusNoCheckpoint)
	} else {
		_, _ = fmt.Fprintf(out, messages.StatusStateFmt, cp.State, cp.UpdatedAtUTC)
		if cp.State == manifest.StateFailed {
			_, _ = fmt.Fprintf(out, messages.StatusFailedStepFmt, cp.FailedStep, cp.FailedCause)
		}
	}

	record, err := manifest.Read(env.manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			_, _ = fmt.Fprintln(out, messages.StatusNoManifest)
			return nil
		}
		return err
	}
	_, _ = fmt.Fprintf(out, messages.StatusManifestHeaderFmt, record.CreatedAtUTC, record.SourceInstall)
	for _, result := range record.ConfigFiles {
		_, _ = fmt.Fprintf(out, messages.StatusManifestConfigFmt, result.Source, result.Status)
	}
	for _, entry := range record.Environments {
		_, _ = fmt.Fprintf(out, messages.StatusManifestEnvFmt, entry.Name, entry.Method)
	}
	if len(record.Channels) > 0 {
		_, _ = fmt.Fprintf(out, messages.StatusManifestChansFmt, strings.Join(record.Channels, ", "))
	}
	return nil
}
