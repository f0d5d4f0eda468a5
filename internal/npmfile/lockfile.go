package npmfile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cmccoy02/bridge-engine/domain"
)

const nodeModulesPrefix = "node_modules/"

// lockfileDoc covers both current (v2/v3 "packages") and legacy
// (v1 "dependencies") package-lock.json layouts.
type lockfileDoc struct {
	LockfileVersion int                      `json:"lockfileVersion"`
	Packages        map[string]lockfileEntry `json:"packages"`
	Dependencies    map[string]lockfileEntry `json:"dependencies"`
}

type lockfileEntry struct {
	Version string `json:"version"`
	Dev     bool   `json:"dev"`
}

// LoadSnapshot reads a package-lock.json and extracts the point-in-time
// name -> resolved-version mapping for top-level packages. Nested
// (transitively vendored) copies under another package's node_modules are
// not part of the snapshot.
func LoadSnapshot(path string) (domain.LockfileSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile %q: %w", path, err)
	}
	return ParseSnapshot(data)
}

// ParseSnapshot parses package-lock.json content into a snapshot.
func ParseSnapshot(data []byte) (domain.LockfileSnapshot, error) {
	var doc lockfileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse package-lock.json: %w", err)
	}

	snapshot := make(domain.LockfileSnapshot)

	if len(doc.Packages) > 0 {
		for key, entry := range doc.Packages {
			name, ok := topLevelPackageName(key)
			if !ok || entry.Version == "" {
				continue
			}
			snapshot[name] = domain.ResolvedPackage{Version: entry.Version, IsDev: entry.Dev}
		}
		return snapshot, nil
	}

	// Legacy v1 layout.
	for name, entry := range doc.Dependencies {
		if entry.Version == "" {
			continue
		}
		snapshot[name] = domain.ResolvedPackage{Version: entry.Version, IsDev: entry.Dev}
	}
	return snapshot, nil
}

// topLevelPackageName maps a "packages" key to a package name when the key
// refers to a direct node_modules entry, scoped names included.
func topLevelPackageName(key string) (string, bool) {
	name, ok := strings.CutPrefix(key, nodeModulesPrefix)
	if !ok || name == "" {
		return "", false
	}
	if strings.Contains(name, nodeModulesPrefix) {
		return "", false
	}
	return name, true
}
