//go:build !windows

package removal

import (
	"errors"
	"fmt"
	"os"

	"github.com/conn-castle/envshift/internal/envfile"
	"github.com/conn-castle/envshift/internal/messages"
)

// EnvFileStore persists the search path as the PATH entry of a shell-style
// env file (the profile fragment conda-family init blocks manage). Patching
// preserves every unrelated line in the file.
type EnvFileStore struct {
	Sys  System
	Path string
	// Key is the env-file key holding the search path; defaults to PATH.
	Key string
}

func (s EnvFileStore) key() string {
	if s.Key == "" {
		return "PATH"
	}
	return s.Key
}

// Load returns the persisted search path, or the process PATH when the env
// file does not exist or has no entry yet.
func (s EnvFileStore) Load() (string, error) {
	data, err := s.Sys.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return os.Getenv(s.key()), nil
		}
		return "", fmt.Errorf(messages.SystemFailedReadFmt, s.Path, err)
	}
	env, err := envfile.Parse(string(data))
	if err != nil {
		return "", err
	}
	if value, ok := env[s.key()]; ok {
		return value, nil
	}
	return os.Getenv(s.key()), nil
}

// Store writes the search path back, patching only the PATH line.
func (s EnvFileStore) Store(value string) error {
	var content string
	if data, err := s.Sys.ReadFile(s.Path); err == nil {
		content = string(data)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf(messages.SystemFailedReadFmt, s.Path, err)
	}
	patched := envfile.Patch(content, map[string]string{s.key(): value})
	if patched != "" && !endsWithNewline(patched) {
		patched += "\n"
	}
	if err := s.Sys.WriteFileAtomic(s.Path, []byte(patched), 0o644); err != nil {
		return fmt.Errorf(messages.SystemFailedWriteFmt, s.Path, err)
	}
	return nil
}

func endsWithNewline(s string) bool {
	return len(s) > 0 && s[len(s)-1] == '\n'
}

// NewUserStore returns the default user-scope search-path store for this OS.
func NewUserStore(sys System, envFilePath string) SearchPathStore {
	return EnvFileStore{Sys: sys, Path: envFilePath}
}
