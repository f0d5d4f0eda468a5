package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmccoy02/bridge-engine/domain"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var scanRepoID string

//nolint:gochecknoglobals // required by cobra CLI pattern
var scanCached bool

//nolint:gochecknoglobals // required by cobra CLI pattern
var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Prioritize the outdated packages of a local npm project",
	Long: `Run "npm outdated" against a local project, enrich the result with
registry metadata, and print a prioritized upgrade plan: scored packages,
blocking relationships, ordered upgrade paths, and quick wins.

With --cached the last stored scan is printed instead of running a new one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	scanCmd.Flags().StringVar(&scanRepoID, "repo", "",
		"Repository ID to store the scan under (default: the project path)")
	scanCmd.Flags().BoolVar(&scanCached, "cached", false,
		"Print the last stored scan instead of running a new one")
	rootCmd.AddCommand(scanCmd)
}

func runScan(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	repoID := scanRepoID
	if repoID == "" {
		repoID = dir
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	var result *domain.ScanResult
	if scanCached {
		result, err = svc.Scan.LastScan(ctx, repoID)
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("no stored scan for repository %q", repoID)
		}
	} else {
		result, err = svc.Scan.Scan(ctx, repoID, dir)
		if err != nil {
			return err
		}
	}

	printScanReport(result)
	return nil
}

func printScanReport(result *domain.ScanResult) {
	if result.Summary.Total == 0 {
		fmt.Println("All dependencies are up to date.")
		return
	}

	fmt.Printf("Found %d outdated package(s)\n\n", result.Summary.Total)

	packages := make([]*domain.EnrichedPackage, len(result.Packages))
	copy(packages, result.Packages)
	sort.SliceStable(packages, func(i, j int) bool {
		if packages[i].PriorityScore != packages[j].PriorityScore {
			return packages[i].PriorityScore > packages[j].PriorityScore
		}
		return packages[i].Name < packages[j].Name
	})

	for _, tier := range []domain.PriorityTier{
		domain.TierCritical, domain.TierHigh, domain.TierMedium, domain.TierLow,
	} {
		count := result.Summary.ByTier[tier]
		if count == 0 {
			continue
		}
		fmt.Printf("%s (%d)\n", strings.ToUpper(string(tier)), count)
		for _, pkg := range packages {
			if pkg.PriorityTier != tier {
				continue
			}
			fmt.Printf("  %-40s %s -> %s  [score %d, %s]\n",
				pkg.Name, pkg.CurrentVersion, pkg.LatestVersion, pkg.PriorityScore, pkg.Category)
			for _, reason := range pkg.PriorityReasons {
				fmt.Printf("      - %s\n", reason)
			}
			if len(pkg.BlockedBy) > 0 {
				fmt.Printf("      blocked by: %s\n", strings.Join(pkg.BlockedBy, ", "))
			}
		}
		fmt.Println()
	}

	if len(result.Paths) > 0 {
		fmt.Println("Upgrade paths:")
		for _, path := range result.Paths {
			fmt.Printf("  %d. %s (effort %s, risk %s)\n",
				path.Order, path.Reason, path.Effort, path.RiskLevel)
			fmt.Printf("     packages: %s\n", strings.Join(path.Packages, ", "))
			if len(path.Unlocks) > 0 {
				fmt.Printf("     unlocks: %s\n", strings.Join(path.Unlocks, ", "))
			}
		}
		fmt.Println()
	}

	if len(result.QuickWins) > 0 {
		fmt.Printf("Quick wins: %s\n", strings.Join(result.QuickWins, ", "))
	}
}
