package userinput

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Merge performs a recursive key-wise union of update into base. When both
// sides hold mappings the merge recurses; any other update value overwrites
// the base value and its dotted key path is recorded. The returned paths are
// sorted for stable reporting.
func Merge(base, update map[string]any, prefix string) []string {
	var changed []string
	for key, val := range update {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if updateChild, ok := val.(map[string]any); ok {
			baseChild, ok := base[key].(map[string]any)
			if !ok {
				baseChild = map[string]any{}
				base[key] = baseChild
			}
			changed = append(changed, Merge(baseChild, updateChild, path)...)
			continue
		}
		base[key] = val
		changed = append(changed, path)
	}
	if prefix == "" {
		sort.Strings(changed)
	}
	return changed
}

// Apply parses the form at userInputPath and merges the result into the YAML
// config at configPath, writing the full merged document back. It returns
// whether anything was applied and the changed key paths.
func Apply(userInputPath, configPath string) (bool, []string, error) {
	text, err := os.ReadFile(userInputPath)
	if err != nil {
		return false, nil, fmt.Errorf("reading user input: %w", err)
	}

	update := Parse(string(text))
	if len(update) == 0 {
		return false, nil, nil
	}

	base := map[string]any{}
	if data, err := os.ReadFile(configPath); err == nil {
		// A broken config file is treated as empty rather than fatal.
		var loaded map[string]any
		if yaml.Unmarshal(data, &loaded) == nil && loaded != nil {
			base = loaded
		}
	}

	changed := Merge(base, update, "")

	out, err := yaml.Marshal(base)
	if err != nil {
		return false, nil, fmt.Errorf("marshaling merged config: %w", err)
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, nil, fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, out, 0o644); err != nil {
		return false, nil, fmt.Errorf("writing merged config: %w", err)
	}

	return true, changed, nil
}
