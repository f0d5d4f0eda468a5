package prioritizer

import (
	"fmt"

	"github.com/cmccoy02/bridge-engine/domain"
)

const (
	maxScore = 100

	deprecationWeight  = 20
	blockWeight        = 5
	blockWeightCap     = 15
	productionDepBonus = 5
)

// categoryWeights is the fixed base weight per category.
var categoryWeights = map[domain.PackageCategory]int{
	domain.CategoryCoreFramework:   30,
	domain.CategoryBuildTool:       25,
	domain.CategoryTesting:         15,
	domain.CategoryTypeDefinitions: 5,
	domain.CategoryUtility:         10,
}

// Score computes the 0-100 priority score for a package from five
// independent signals, applied in fixed order. Each contributing signal
// appends one human-readable reason; replaying the same five rules must
// reproduce both the score and the reasons list. The blocking signal reads
// pkg.Blocks, so the blocking graph must be built first.
func Score(pkg *domain.EnrichedPackage) (int, []string) {
	score := 0
	var reasons []string

	weight := categoryWeights[pkg.Category]
	score += weight
	reasons = append(reasons, fmt.Sprintf("%s package (+%d)", pkg.Category, weight))

	if points, reason := distanceSignal(pkg.Distance); points > 0 {
		score += points
		reasons = append(reasons, reason)
	}

	if pkg.IsDeprecated {
		score += deprecationWeight
		reasons = append(reasons, fmt.Sprintf("deprecated upstream (+%d)", deprecationWeight))
	}

	if blocked := len(pkg.Blocks); blocked > 0 {
		points := blocked * blockWeight
		if points > blockWeightCap {
			points = blockWeightCap
		}
		score += points
		reasons = append(reasons, fmt.Sprintf("blocks %d other upgrade(s) (+%d)", blocked, points))
	}

	if !pkg.IsDevDependency {
		score += productionDepBonus
		reasons = append(reasons, fmt.Sprintf("production dependency (+%d)", productionDepBonus))
	}

	if score > maxScore {
		score = maxScore
	}
	return score, reasons
}

// distanceSignal maps a version distance onto its score contribution.
func distanceSignal(dist domain.VersionDistance) (int, string) {
	switch {
	case dist.Major >= 3:
		return 25, fmt.Sprintf("%d major versions behind (+25)", dist.Major)
	case dist.Major == 2:
		return 20, "2 major versions behind (+20)"
	case dist.Major == 1:
		return 15, "1 major version behind (+15)"
	case dist.Minor >= 5:
		return 10, fmt.Sprintf("%d minor versions behind (+10)", dist.Minor)
	case dist.Minor >= 2:
		return 5, fmt.Sprintf("%d minor versions behind (+5)", dist.Minor)
	default:
		return 0, ""
	}
}
