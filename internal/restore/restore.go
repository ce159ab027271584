// Package restore re-applies channel configuration from the backup manifest
// into the newly installed tool.
package restore

import (
	"context"

	"github.com/conn-castle/envshift/internal/condacli"
	"github.com/conn-castle/envshift/internal/messages"
	"github.com/conn-castle/envshift/internal/steplog"
)

const (
	defaultChannel   = "defaults"
	communityChannel = "conda-forge"
)

// Manager runs the restore step against the new tool's client.
type Manager struct {
	client condacli.Client
	log    *steplog.Logger
}

// NewManager returns a restore Manager.
func NewManager(client condacli.Client, log *steplog.Logger) *Manager {
	return &Manager{client: client, log: log}
}

// Run resets channels to the community default and re-applies the captured
// channel list. Individual channel failures never abort the step.
func (m *Manager) Run(ctx context.Context, channels []string) error {
	m.ResetChannelsToDefault(ctx)
	m.RestoreChannels(ctx, channels)
	return nil
}

// ResetChannelsToDefault removes the proprietary default channel entry and
// adds the community channel. The community channel is added before any
// captured channels so later restores append after it, preserving relative
// precedence.
func (m *Manager) ResetChannelsToDefault(ctx context.Context) {
	if err := m.client.RemoveChannel(ctx, defaultChannel); err != nil {
		// `config --remove` fails when the entry is already absent.
		m.log.Warnf(messages.RestoreResetFailFmt, err)
	}
	if err := m.client.AddChannel(ctx, communityChannel); err != nil {
		m.log.Warnf(messages.RestoreResetFailFmt, err)
	}
}

// RestoreChannels re-applies each captured channel in original order. Each
// addition is independent; a failure is logged and does not block the rest.
// An empty list is an informational no-op.
func (m *Manager) RestoreChannels(ctx context.Context, channels []string) {
	if len(channels) == 0 {
		m.log.Infof(messages.RestoreNothingToDo)
		return
	}
	for _, channel := range channels {
		if err := m.client.AddChannel(ctx, channel); err != nil {
			m.log.Warnf(messages.RestoreChannelFailFmt, channel, err)
			continue
		}
		m.log.Infof(messages.RestoreChannelOKFmt, channel)
	}
}
