package cmd

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cmccoy02/bridge-engine/domain"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var updateCmd = &cobra.Command{
	Use:   "update <org/repo>",
	Short: "Run the safe update pipeline against a repository",
	Long: `Clone the repository, apply the available minor and patch updates,
validate the result with the project's own build, lint, and test scripts,
and open a pull request when everything passes.

The job runs to its terminal state before the command returns.
The repository must be listed in the configuration file.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdateJob,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdateJob(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, err := cfg.Repository(args[0])
	if err != nil {
		return err
	}

	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	logger.Infof("Running update job for %s", repo.FullName())
	job, err := svc.Update.Run(ctx, repo)
	if err != nil {
		return err
	}

	printJobOutcome(job)
	if job.Status == domain.JobFailed {
		return fmt.Errorf("update job %s failed", job.ID)
	}
	return nil
}

func printJobOutcome(job *domain.UpdateJob) {
	fmt.Printf("Job %s: %s\n", job.ID, job.Status)
	if job.Result == nil {
		return
	}
	if job.Result.Error != "" {
		fmt.Printf("Error: %s\n", job.Result.Error)
		return
	}
	if len(job.Result.ChangedPackages) == 0 {
		fmt.Println("All dependencies already up to date, no pull request needed.")
		return
	}
	fmt.Printf("Updated %d package(s):\n", len(job.Result.ChangedPackages))
	for _, change := range job.Result.ChangedPackages {
		fmt.Printf("  %s %s -> %s\n", change.Name, change.From, change.To)
	}
	if job.Result.PRURL != "" {
		fmt.Printf("Pull request #%d: %s\n", job.Result.PRNumber, job.Result.PRURL)
	}
}
