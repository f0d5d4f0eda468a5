package npmfile

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cmccoy02/bridge-engine/domain"
)

// outdatedEntry is one record in `npm outdated --json` output.
type outdatedEntry struct {
	Current string `json:"current"`
	Wanted  string `json:"wanted"`
	Latest  string `json:"latest"`
}

// ParseOutdated converts `npm outdated --json` output into the engine's
// input list, using the manifest to mark dev dependencies. Entries without
// a current or latest version (e.g. missing installs) are skipped, as are
// entries whose latest is not actually newer than what is installed (npm
// reports those when a range pins a package ahead of its dist-tag). The
// result is sorted by name so downstream output is deterministic.
func ParseOutdated(data []byte, manifest *Manifest) ([]domain.OutdatedPackage, error) {
	if len(data) == 0 {
		return nil, nil
	}

	entries := make(map[string]outdatedEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse npm outdated output: %w", err)
	}

	outdated := make([]domain.OutdatedPackage, 0, len(entries))
	for name, entry := range entries {
		if entry.Current == "" || entry.Latest == "" {
			continue
		}
		if !domain.IsNewerVersion(entry.Current, entry.Latest) {
			continue
		}
		outdated = append(outdated, domain.OutdatedPackage{
			Name:            name,
			CurrentVersion:  entry.Current,
			LatestVersion:   entry.Latest,
			IsDevDependency: manifest != nil && manifest.IsDevDependency(name),
		})
	}

	sort.Slice(outdated, func(i, j int) bool {
		return outdated[i].Name < outdated[j].Name
	})
	return outdated, nil
}
