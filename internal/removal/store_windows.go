//go:build windows

package removal

import (
	"golang.org/x/sys/windows/registry"
)

// RegistryStore persists the search path in the user-scope Environment key
// (HKCU\Environment\Path), which is what the original installer modified.
type RegistryStore struct{}

// Load reads the user Path value from the registry.
func (RegistryStore) Load() (string, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, "Environment", registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = key.Close()
	}()
	value, _, err := key.GetStringValue("Path")
	if err != nil {
		return "", err
	}
	return value, nil
}

// Store writes the user Path value back to the registry.
func (RegistryStore) Store(value string) error {
	key, err := registry.OpenKey(registry.CURRENT_USER, "Environment", registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer func() {
		_ = key.Close()
	}()
	return key.SetExpandStringValue("Path", value)
}

// NewUserStore returns the default user-scope search-path store for this OS.
// The env-file path is unused on Windows.
func NewUserStore(_ System, _ string) SearchPathStore {
	return RegistryStore{}
}
