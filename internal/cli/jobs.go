package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rmtsu9/OCRdocTH/constants"
)

var jobsStatus string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List processing jobs",
	Args:  cobra.NoArgs,
	RunE:  runJobs,
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List incomplete records awaiting manual review",
	Args:  cobra.NoArgs,
	RunE:  runReview,
}

func init() {
	jobsCmd.Flags().StringVar(&jobsStatus, "status", "", "filter by status (QUEUED, RUNNING, OCR_OK, PARSE_OK, FAILED)")
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(reviewCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	jobs, err := store.ListJobs(context.Background(), constants.JobStatus(jobsStatus))
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		cmd.Println("No jobs.")
		return nil
	}
	for _, j := range jobs {
		line := j.CreatedAt.Format("2006-01-02 15:04:05") + "  " + string(j.Status) + "  " + j.SourceFile
		if j.Error != "" {
			line += "  (" + j.Error + ")"
		}
		cmd.Println(line)
	}
	return nil
}

func runReview(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	recs, err := store.ListIncomplete(context.Background())
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		cmd.Println("No incomplete records.")
		return nil
	}
	for _, sr := range recs {
		rec := sr.Record
		missing := ""
		for _, f := range rec.Fields {
			if f.Missing() {
				if missing != "" {
					missing += ","
				}
				missing += string(f.Key)
			}
		}
		cmd.Printf("%s  %s  score %.2f  missing: %s\n",
			rec.Meta.ID, rec.Meta.SourceFile, rec.Summary.Score, missing)
	}
	return nil
}
