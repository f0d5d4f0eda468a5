// Package npmfile parses the npm project files the engine works with:
// the package manifest, the resolved-dependency lockfile, and the
// outdated-package report.
package npmfile

import (
	"encoding/json"
	"fmt"
	"os"
)

// ManifestName is the npm package manifest filename.
const ManifestName = "package.json"

// LockfileName is the npm resolved-dependency filename.
const LockfileName = "package-lock.json"

// Manifest is the subset of package.json the engine reads: declared
// dependencies and the script table used for validation hooks.
type Manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Scripts         map[string]string `json:"scripts"`
}

// LoadManifest reads and parses a package.json file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %q: %w", path, err)
	}
	return ParseManifest(data)
}

// ParseManifest parses package.json content.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}
	return &m, nil
}

// HasScript reports whether the manifest declares the given script hook.
func (m *Manifest) HasScript(name string) bool {
	_, ok := m.Scripts[name]
	return ok
}

// IsDevDependency reports whether a package is declared under
// devDependencies (and not under dependencies, which wins).
func (m *Manifest) IsDevDependency(name string) bool {
	if _, prod := m.Dependencies[name]; prod {
		return false
	}
	_, dev := m.DevDependencies[name]
	return dev
}
