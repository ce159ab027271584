package condacli

import (
	"encoding/json"
	"strings"
)

// ParseEnvList extracts environment names from `env list` output. Comment and
// header lines start with '#'; each remaining non-blank line names an
// environment in its first whitespace-separated token (later tokens are the
// active-environment marker and the path).
func ParseEnvList(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		names = append(names, fields[0])
	}
	return names
}

// ParseChannels extracts the ordered channel list from
// `config --show channels` output. Newer tool versions can emit JSON
// ({"channels": [...]}); older ones emit a YAML-ish block:
//
//	channels:
//	  - conda-forge
//	  - defaults
//
// Order is preserved because package-source precedence depends on it.
func ParseChannels(out string) []string {
	trimmed := strings.TrimSpace(out)
	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			Channels []string `json:"channels"`
		}
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			return payload.Channels
		}
	}
	var channels []string
	inBlock := false
	for _, line := range strings.Split(out, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if strings.HasPrefix(trimmedLine, "channels:") {
			inBlock = true
			continue
		}
		if !inBlock {
			continue
		}
		if strings.HasPrefix(trimmedLine, "- ") {
			channels = append(channels, strings.TrimSpace(strings.TrimPrefix(trimmedLine, "- ")))
			continue
		}
		if trimmedLine == "" || !strings.HasPrefix(line, " ") {
			// End of the indented channels block.
			break
		}
	}
	return channels
}
