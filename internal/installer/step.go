package installer

import (
	"context"
	"time"

	"github.com/conn-castle/envshift/internal/condacli"
	"github.com/conn-castle/envshift/internal/discover"
)

// Step bundles the install sequence for the orchestrator: download the
// artifact, run it silently, verify the new executable exists, and set up
// shell integration.
type Step struct {
	Inst *Installer
	Sys  discover.System

	URL      string
	DestFile string
	// SilentArgs are the fixed silent-install arguments.
	SilentArgs []string
	// NewToolCandidates are probed for the post-install verification.
	NewToolCandidates []string
	// ToolTimeout bounds each invocation of the newly installed tool.
	ToolTimeout time.Duration
	Shell       string

	// NewClient builds a client for the verified tool path; overridable in
	// tests. Nil uses condacli.New.
	NewClient func(bin string, timeout time.Duration) condacli.Client
}

// Run executes the install sequence. Everything up to and including the
// executable verification is fatal; shell integration is best-effort.
func (s *Step) Run(ctx context.Context) error {
	if err := s.Inst.Download(ctx, s.URL, s.DestFile); err != nil {
		return err
	}
	if err := s.Inst.RunSilent(ctx, s.DestFile, s.SilentArgs); err != nil {
		return err
	}
	toolPath, err := LocateNewTool(s.Sys, s.NewToolCandidates)
	if err != nil {
		return err
	}
	newClient := s.NewClient
	if newClient == nil {
		newClient = func(bin string, timeout time.Duration) condacli.Client {
			return condacli.New(bin, timeout)
		}
	}
	s.Inst.InitShellIntegration(ctx, newClient(toolPath, s.ToolTimeout), s.Shell)
	return nil
}
