package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/conn-castle/envshift/internal/fsutil"
	"github.com/conn-castle/envshift/internal/messages"
)

// State is the migration state machine position persisted between runs.
type State string

const (
	StateNotStarted State = "not_started"
	StateBackedUp   State = "backed_up"
	StateRemoved    State = "removed"
	StateInstalled  State = "installed"
	StateRestored   State = "restored"
	StateFailed     State = "failed"
)

// Checkpoint is the small status record that lets a re-run resume rather
// than redo destructive steps.
type Checkpoint struct {
	SchemaVersion int   `json:"schema_version"`
	State         State `json:"state"`
	// FailedStep and FailedCause are set only when State is StateFailed.
	FailedStep  string `json:"failed_step,omitempty"`
	FailedCause string `json:"failed_cause,omitempty"`
	// LastCompleted is the last successfully completed state, used to pick
	// the resume point after a failure.
	LastCompleted State  `json:"last_completed"`
	UpdatedAtUTC  string `json:"updated_at_utc"`
}

// LoadCheckpoint reads the checkpoint at path. A missing file means the
// migration has not started.
func LoadCheckpoint(path string) (Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Checkpoint{SchemaVersion: SchemaVersion, State: StateNotStarted, LastCompleted: StateNotStarted}, nil
		}
		return Checkpoint{}, fmt.Errorf(messages.SystemFailedReadFmt, path, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf(messages.ManifestDecodeFmt, path, err)
	}
	if err := validateCheckpoint(cp); err != nil {
		return Checkpoint{}, fmt.Errorf(messages.ManifestValidateFmt, path, err)
	}
	return cp, nil
}

// SaveCheckpoint stamps and atomically writes the checkpoint to path.
func SaveCheckpoint(path string, cp Checkpoint) error {
	cp.SchemaVersion = SchemaVersion
	cp.UpdatedAtUTC = time.Now().UTC().Format(time.RFC3339)
	if err := validateCheckpoint(cp); err != nil {
		return fmt.Errorf(messages.ManifestValidateFmt, path, err)
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf(messages.SystemFailedWriteFmt, path, err)
	}
	return nil
}

func validateCheckpoint(cp Checkpoint) error {
	if cp.SchemaVersion != SchemaVersion {
		return fmt.Errorf(messages.ManifestSchemaFmt, cp.SchemaVersion)
	}
	if !validState(cp.State) {
		return fmt.Errorf(messages.ManifestBadStateFmt, cp.State)
	}
	if cp.LastCompleted != "" && !validState(cp.LastCompleted) {
		return fmt.Errorf(messages.ManifestBadStateFmt, cp.LastCompleted)
	}
	return nil
}

func validState(s State) bool {
	switch s {
	case StateNotStarted, StateBackedUp, StateRemoved, StateInstalled, StateRestored, StateFailed:
		return true
	}
	return false
}
