package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conn-castle/envshift/internal/discover"
	"github.com/conn-castle/envshift/internal/messages"
	"github.com/conn-castle/envshift/internal/removal"
)

// runDryRun prints the migration plan without changing anything.
func runDryRun(cmd *cobra.Command, env runtimeEnv) error {
	out := cmd.OutOrStdout()
	sys := discover.RealSystem{}

	installDir, err := discover.FindInstallation(sys, installCandidates(env.cfg))
	if err != nil {
		return err
	}
	envsDir, err := discover.FindEnvironmentsDir(sys, envsCandidates(env.cfg))
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, messages.DryRunHeader)
	_, _ = fmt.Fprintf(out, messages.DryRunInstallFmt, installDir)
	_, _ = fmt.Fprintf(out, messages.DryRunEnvsDirFmt, envsDir)
	_, _ = fmt.Fprintf(out, messages.DryRunDeleteFmt, installDir)
	leftovers := env.cfg.LeftoverDirs
	if leftovers == nil {
		leftovers = removal.DefaultLeftoverDirs
	}
	for _, rel := range leftovers {
		_, _ = fmt.Fprintf(out, messages.DryRunDeleteFmt, filepath.Join(env.homeDir, rel))
	}
	_, _ = fmt.Fprintf(out, messages.DryRunDownloadFmt, env.cfg.InstallerURL)

	store := removal.NewUserStore(removal.RealSystem{}, env.searchPathFile)
	current, err := store.Load()
	if err != nil {
		return err
	}
	updated := removal.RemoveFromSearchPath(installDir, current)
	if updated == current {
		_, _ = fmt.Fprintln(out, messages.DryRunSearchPathNoop)
		return nil
	}
	_, _ = fmt.Fprintf(out, messages.DryRunSearchPathFmt, removal.SearchPathDiff(current, updated))
	return nil
}
