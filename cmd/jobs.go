package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmccoy02/bridge-engine/domain"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var jobsLimit int

//nolint:gochecknoglobals // required by cobra CLI pattern
var jobsCmd = &cobra.Command{
	Use:   "jobs [id]",
	Short: "Inspect past and running update jobs",
	Long: `Without arguments, list the most recent jobs. With a job ID, show its
full record including phase progress and the captured log.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobs,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 20, "Maximum number of jobs to list")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if len(args) == 1 {
		return showJob(ctx, svc, args[0])
	}
	return listJobs(ctx, svc)
}

func showJob(ctx context.Context, svc *services, jobID string) error {
	job, err := svc.Update.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	fmt.Printf("Job:        %s\n", job.ID)
	fmt.Printf("Repository: %s\n", job.RepositoryID)
	fmt.Printf("Type:       %s\n", job.Type)
	fmt.Printf("Status:     %s\n", job.Status)
	if job.Progress.Phase != "" {
		fmt.Printf("Progress:   %s (step %d/%d, %d%%)\n",
			job.Progress.Phase, job.Progress.Step, job.Progress.TotalSteps, job.Progress.Percent)
	}
	if !job.StartedAt.IsZero() {
		fmt.Printf("Started:    %s\n", job.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if !job.CompletedAt.IsZero() {
		fmt.Printf("Completed:  %s\n", job.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	if job.Logs != "" {
		fmt.Println("\nLog:")
		for _, line := range strings.Split(strings.TrimRight(job.Logs, "\n"), "\n") {
			fmt.Printf("  %s\n", line)
		}
	}
	if job.Result != nil {
		fmt.Println()
		printJobOutcome(job)
	}
	return nil
}

func listJobs(ctx context.Context, svc *services) error {
	jobs, err := svc.Update.ListJobs(ctx, jobsLimit)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs recorded yet.")
		return nil
	}

	fmt.Printf("%-18s %-24s %-8s %-10s %s\n", "ID", "REPOSITORY", "TYPE", "STATUS", "PHASE")
	for _, job := range jobs {
		phase := job.Progress.Phase
		if job.Status == domain.JobCompleted || job.Status == domain.JobFailed {
			phase = "-"
		}
		fmt.Printf("%-18s %-24s %-8s %-10s %s\n",
			job.ID, job.RepositoryID, job.Type, job.Status, phase)
	}
	return nil
}
