package prioritizer

import (
	"sort"

	"github.com/cmccoy02/bridge-engine/domain"
)

const (
	quickWinMinScore = 20
	quickWinLimit    = 5
)

// QuickWins returns up to five low-risk, meaningful-impact packages:
// no major-version gap, a priority score of at least 20, and either a dev
// dependency or a type-definition package. Advisory only; quick wins never
// gate or reorder the upgrade paths.
func QuickWins(packages []*domain.EnrichedPackage) []string {
	var candidates []*domain.EnrichedPackage
	for _, pkg := range packages {
		if pkg.Distance.Major != 0 || pkg.PriorityScore < quickWinMinScore {
			continue
		}
		if !pkg.IsDevDependency && pkg.Category != domain.CategoryTypeDefinitions {
			continue
		}
		candidates = append(candidates, pkg)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].PriorityScore != candidates[j].PriorityScore {
			return candidates[i].PriorityScore > candidates[j].PriorityScore
		}
		return candidates[i].Name < candidates[j].Name
	})

	if len(candidates) > quickWinLimit {
		candidates = candidates[:quickWinLimit]
	}

	names := make([]string, 0, len(candidates))
	for _, pkg := range candidates {
		names = append(names, pkg.Name)
	}
	return names
}
