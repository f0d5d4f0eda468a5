package prioritizer

import (
	"fmt"
	"sort"

	"github.com/cmccoy02/bridge-engine/domain"
)

// GeneratePaths partitions the enriched set into ordered upgrade paths
// using a fixed-tier greedy pass: deprecated packages first, then each
// core framework with its companions, build tools, remaining high-priority
// packages, testing tools, type definitions, and a final catch-all. Each
// tier removes its matches from further consideration, so every package is
// assigned exactly once and order numbers form a dense sequence from 1.
//
// This is a deliberate simplification over a topological sort of the
// blocking graph: it trades optimality for a predictable, auditable
// grouping.
func GeneratePaths(packages []*domain.EnrichedPackage) []domain.UpgradePath {
	assigned := make(map[string]bool, len(packages))
	var paths []domain.UpgradePath

	emit := func(path domain.UpgradePath) {
		if len(path.Packages) == 0 {
			return
		}
		path.Order = len(paths) + 1
		for _, name := range path.Packages {
			assigned[name] = true
		}
		paths = append(paths, path)
	}

	emit(deprecatedPath(packages))

	for _, pkg := range packages {
		if pkg.Category != domain.CategoryCoreFramework || assigned[pkg.Name] {
			continue
		}
		emit(frameworkPath(pkg, packages, assigned))
	}

	emit(remainderPath(packages, assigned,
		func(p *domain.EnrichedPackage) bool { return p.Category == domain.CategoryBuildTool },
		"Build tooling updates", domain.EffortMedium, buildToolRisk(packages, assigned)))

	emit(remainderPath(packages, assigned,
		func(p *domain.EnrichedPackage) bool {
			return p.PriorityTier == domain.TierCritical || p.PriorityTier == domain.TierHigh
		},
		"High-priority updates", domain.EffortMedium, domain.RiskReview))

	emit(remainderPath(packages, assigned,
		func(p *domain.EnrichedPackage) bool { return p.Category == domain.CategoryTesting },
		"Test tooling updates", domain.EffortLow, domain.RiskSafe))

	emit(remainderPath(packages, assigned,
		func(p *domain.EnrichedPackage) bool { return p.Category == domain.CategoryTypeDefinitions },
		"Type definition updates", domain.EffortLow, domain.RiskSafe))

	emit(remainderPath(packages, assigned,
		func(_ *domain.EnrichedPackage) bool { return true },
		"Remaining low-risk updates", domain.EffortLow, domain.RiskSafe))

	return paths
}

// deprecatedPath groups every deprecated package into one review path.
func deprecatedPath(packages []*domain.EnrichedPackage) domain.UpgradePath {
	var members []string
	for _, pkg := range packages {
		if pkg.IsDeprecated {
			members = append(members, pkg.Name)
		}
	}
	return domain.UpgradePath{
		Packages:  members,
		Reason:    "Deprecated packages should be replaced or migrated before anything else",
		Effort:    domain.EffortHigh,
		RiskLevel: domain.RiskReview,
	}
}

// frameworkPath groups a core framework with any of its known peers that
// are still unassigned.
func frameworkPath(
	framework *domain.EnrichedPackage,
	packages []*domain.EnrichedPackage,
	assigned map[string]bool,
) domain.UpgradePath {
	byName := make(map[string]*domain.EnrichedPackage, len(packages))
	for _, pkg := range packages {
		byName[pkg.Name] = pkg
	}

	members := []string{framework.Name}
	for _, peerName := range resolvePeers(framework.Name) {
		if _, present := byName[peerName]; present && !assigned[peerName] {
			members = append(members, peerName)
		}
	}

	risk := domain.RiskReview
	effort := domain.EffortMedium
	for _, name := range members {
		if byName[name].Distance.Major > 0 {
			risk = domain.RiskBreaking
			effort = domain.EffortHigh
			break
		}
	}

	return domain.UpgradePath{
		Packages:  members,
		Reason:    fmt.Sprintf("Upgrade %s together with its companion packages", framework.Name),
		Effort:    effort,
		RiskLevel: risk,
		Unlocks:   unlockedBy(members, byName),
	}
}

// remainderPath collects the still-unassigned packages matching the filter.
func remainderPath(
	packages []*domain.EnrichedPackage,
	assigned map[string]bool,
	match func(*domain.EnrichedPackage) bool,
	reason string,
	effort domain.EffortLevel,
	risk domain.RiskLevel,
) domain.UpgradePath {
	var members []string
	for _, pkg := range packages {
		if !assigned[pkg.Name] && match(pkg) {
			members = append(members, pkg.Name)
		}
	}
	return domain.UpgradePath{
		Packages:  members,
		Reason:    reason,
		Effort:    effort,
		RiskLevel: risk,
	}
}

// buildToolRisk is review when any unassigned build tool crosses a major
// boundary, safe otherwise.
func buildToolRisk(packages []*domain.EnrichedPackage, assigned map[string]bool) domain.RiskLevel {
	for _, pkg := range packages {
		if pkg.Category == domain.CategoryBuildTool && !assigned[pkg.Name] && pkg.Distance.Major > 0 {
			return domain.RiskReview
		}
	}
	return domain.RiskSafe
}

// unlockedBy returns the packages blocked by any path member, excluding
// the members themselves.
func unlockedBy(members []string, byName map[string]*domain.EnrichedPackage) []string {
	inPath := make(map[string]bool, len(members))
	for _, name := range members {
		inPath[name] = true
	}

	seen := make(map[string]bool)
	var unlocks []string
	for _, name := range members {
		for _, blocked := range byName[name].Blocks {
			if !inPath[blocked] && !seen[blocked] {
				seen[blocked] = true
				unlocks = append(unlocks, blocked)
			}
		}
	}
	sort.Strings(unlocks)
	return unlocks
}
