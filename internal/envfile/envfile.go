// Package envfile parses and patches shell-style environment files
// (KEY=value lines, optional `export` prefix). Patching preserves comments,
// blank lines, and unrelated entries byte-for-byte; only the targeted keys
// are rewritten.
package envfile

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/conn-castle/envshift/internal/messages"
)

// Parse reads env-file content into a key-value map.
func Parse(content string) (map[string]string, error) {
	env := make(map[string]string)
	if content == "" {
		return env, nil
	}
	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		key, value, ok, err := parseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf(messages.EnvfileLineErrorFmt, lineNo, err)
		}
		if !ok {
			continue
		}
		env[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf(messages.EnvfileReadFailedFmt, err)
	}
	return env, nil
}

// Patch updates content with the provided key/value pairs, rewriting the
// first occurrence of each key in place and appending keys that are absent.
// Later duplicate occurrences of an updated key are dropped so the file has a
// single authoritative line per key.
func Patch(content string, updates map[string]string) string {
	var lines []string
	if content != "" {
		lines = strings.Split(content, "\n")
	}

	firstIndex := make(map[string]int)
	for i, line := range lines {
		key, _, ok, err := parseLine(line)
		if err != nil || !ok {
			continue
		}
		if _, exists := firstIndex[key]; !exists {
			firstIndex[key] = i
		}
	}

	updatedKeys := make(map[string]bool)
	for key, value := range updates {
		entry := fmt.Sprintf("%s=%s", key, value)
		if idx, ok := firstIndex[key]; ok {
			if strings.HasPrefix(strings.TrimSpace(lines[idx]), "export ") {
				entry = "export " + entry
			}
			lines[idx] = entry
		} else {
			if len(lines) > 0 && lines[len(lines)-1] != "" {
				lines = append(lines, "")
			}
			lines = append(lines, entry)
			firstIndex[key] = len(lines) - 1
		}
		updatedKeys[key] = true
	}

	if len(updatedKeys) == 0 {
		return strings.Join(lines, "\n")
	}

	filtered := make([]string, 0, len(lines))
	for i, line := range lines {
		key, _, ok, err := parseLine(line)
		if err == nil && ok && updatedKeys[key] && firstIndex[key] != i {
			continue
		}
		filtered = append(filtered, line)
	}
	return strings.Join(filtered, "\n")
}

// parseLine parses a single env-file line and returns key/value when present.
func parseLine(line string) (string, string, bool, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false, nil
	}
	if strings.HasPrefix(trimmed, "export ") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "export "))
	}
	idx := strings.Index(trimmed, "=")
	if idx <= 0 {
		return "", "", false, fmt.Errorf(messages.EnvfileExpectedKeyValue)
	}
	key := strings.TrimSpace(trimmed[:idx])
	if key == "" {
		return "", "", false, fmt.Errorf(messages.EnvfileExpectedKeyValue)
	}
	value := strings.TrimSpace(trimmed[idx+1:])
	value = strings.Trim(value, `"'`)
	return key, value, true, nil
}
