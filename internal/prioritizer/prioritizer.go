// Package prioritizer turns a flat list of outdated npm packages into a
// prioritized, dependency-aware upgrade plan: per-package scores with an
// auditable reason trail, ordered upgrade paths, and a short quick-win list.
package prioritizer

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/cmccoy02/bridge-engine/domain"
)

// Engine is the prioritization engine. Its only external dependency is a
// package-metadata source; everything else is pure computation.
type Engine struct {
	metadata domain.MetadataSource
}

// New creates a prioritization engine backed by the given metadata source.
func New(metadata domain.MetadataSource) *Engine {
	return &Engine{metadata: metadata}
}

// Enrich runs the full prioritization pass over the outdated set:
// categorize, measure version distance, fetch registry metadata, build the
// blocking graph, score, and derive upgrade paths and quick wins.
func (e *Engine) Enrich(
	ctx context.Context,
	outdated []domain.OutdatedPackage,
) *domain.ScanResult {
	packages := make([]*domain.EnrichedPackage, 0, len(outdated))
	names := make([]string, 0, len(outdated))

	for _, pkg := range outdated {
		packages = append(packages, &domain.EnrichedPackage{
			OutdatedPackage: pkg,
			Category:        Categorize(pkg.Name),
			Distance:        domain.Distance(pkg.CurrentVersion, pkg.LatestVersion),
		})
		names = append(names, pkg.Name)
	}

	metadata := e.metadata.FetchAll(ctx, names)
	for _, pkg := range packages {
		meta := metadata[pkg.Name]
		pkg.IsDeprecated = meta.Deprecated
		pkg.PeerDependencies = meta.PeerDependencies
		pkg.Description = meta.Description
	}

	BuildBlockingGraph(packages)

	for _, pkg := range packages {
		pkg.PriorityScore, pkg.PriorityReasons = Score(pkg)
		pkg.PriorityTier = domain.TierForScore(pkg.PriorityScore)
	}

	logger.Debugf("Prioritized %d outdated packages", len(packages))

	return &domain.ScanResult{
		Packages:  packages,
		Paths:     GeneratePaths(packages),
		QuickWins: QuickWins(packages),
		Summary:   domain.Summarize(packages),
	}
}
