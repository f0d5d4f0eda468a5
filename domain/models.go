package domain

// Repository identifies a Git repository on a hosting provider.
type Repository struct {
	ID            string
	Name          string
	Organization  string
	DefaultBranch string
	RemoteURL     string
	ProviderName  string
}

// FullName returns the provider-style "org/name" identifier.
func (r Repository) FullName() string {
	return r.Organization + "/" + r.Name
}

// OutdatedPackage is a single outdated npm package as reported by the
// package manager. Constructed once per scan and never mutated.
type OutdatedPackage struct {
	Name            string
	CurrentVersion  string
	LatestVersion   string
	IsDevDependency bool
}

// PackageCategory classifies a package by its role in the project.
type PackageCategory string

const (
	CategoryCoreFramework   PackageCategory = "core-framework"
	CategoryBuildTool       PackageCategory = "build-tool"
	CategoryTesting         PackageCategory = "testing"
	CategoryTypeDefinitions PackageCategory = "type-definitions"
	CategoryUtility         PackageCategory = "utility"
)

// PriorityTier buckets a priority score into a coarse urgency level.
type PriorityTier string

const (
	TierCritical PriorityTier = "critical"
	TierHigh     PriorityTier = "high"
	TierMedium   PriorityTier = "medium"
	TierLow      PriorityTier = "low"
)

// Tier thresholds on the 0-100 priority score.
const (
	criticalThreshold = 70
	highThreshold     = 50
	mediumThreshold   = 30
)

// TierForScore returns the tier bucket for a priority score.
func TierForScore(score int) PriorityTier {
	switch {
	case score >= criticalThreshold:
		return TierCritical
	case score >= highThreshold:
		return TierHigh
	case score >= mediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// EnrichedPackage extends an OutdatedPackage with everything the
// prioritization engine derives: category, registry metadata, blocking
// relationships, and the scored upgrade priority. Mutable while the engine
// builds it, treated as immutable afterwards.
type EnrichedPackage struct {
	OutdatedPackage

	Category         PackageCategory
	Distance         VersionDistance
	IsDeprecated     bool
	Description      string
	PeerDependencies []string

	// BlockedBy lists peers whose unresolved major gap constrains this
	// package; Blocks is the exact inverse relation across the scan set.
	BlockedBy []string
	Blocks    []string

	PriorityScore   int
	PriorityTier    PriorityTier
	PriorityReasons []string
}

// RiskLevel describes how dangerous an upgrade path is to apply.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskReview   RiskLevel = "review"
	RiskBreaking RiskLevel = "breaking"
)

// EffortLevel is a coarse estimate of the work an upgrade path requires.
type EffortLevel string

const (
	EffortLow    EffortLevel = "low"
	EffortMedium EffortLevel = "medium"
	EffortHigh   EffortLevel = "high"
)

// UpgradePath is an ordered group of packages recommended to be upgraded
// together. Paths partition the enriched set: every package belongs to
// exactly one path.
type UpgradePath struct {
	Order     int
	Packages  []string
	Reason    string
	Effort    EffortLevel
	RiskLevel RiskLevel
	Unlocks   []string
}

// ScanResult is the full output of one prioritization run.
type ScanResult struct {
	Packages  []*EnrichedPackage
	Paths     []UpgradePath
	QuickWins []string
	Summary   ScanSummary
}

// ScanSummary holds the derived counts persisted alongside a scan.
type ScanSummary struct {
	Total      int
	ByTier     map[PriorityTier]int
	ByCategory map[PackageCategory]int
}

// Summarize recomputes the tier and category counts for a package set.
func Summarize(packages []*EnrichedPackage) ScanSummary {
	summary := ScanSummary{
		Total:      len(packages),
		ByTier:     make(map[PriorityTier]int),
		ByCategory: make(map[PackageCategory]int),
	}
	for _, pkg := range packages {
		summary.ByTier[pkg.PriorityTier]++
		summary.ByCategory[pkg.Category]++
	}
	return summary
}

// PackageChange records a single resolved-version bump between two
// lockfile snapshots.
type PackageChange struct {
	Name  string `json:"name"`
	From  string `json:"from"`
	To    string `json:"to"`
	IsDev bool   `json:"isDev"`
}

// PullRequestInput contains the data needed to create a pull request.
type PullRequestInput struct {
	SourceBranch string
	TargetBranch string
	Title        string
	Description  string
}

// PullRequest represents a pull request returned by a provider.
type PullRequest struct {
	Number int
	Title  string
	URL    string
}
