package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/granforum/forum/datastore"
	"github.com/granforum/forum/models"
	rh "github.com/granforum/forum/route-handlers"
)

const jobTimeLayout = "2006-01-02"

func newJobsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect imported job listings",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show the most recently published job listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			listings, err := a.jobRepo.GetRecentJobListings(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list jobs: %w", err)
			}
			total, err := a.jobRepo.CountJobListings(cmd.Context())
			if err != nil {
				return fmt.Errorf("count jobs: %w", err)
			}
			printJobs(cmd.OutOrStdout(), listings, total)
			return nil
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", rh.RecentJobsLimit, "Maximum number of listings to show")

	showCmd := &cobra.Command{
		Use:   "show <url>",
		Short: "Show the listing imported for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			job, err := a.jobRepo.GetJobListingByURL(cmd.Context(), args[0])
			if errors.Is(err, datastore.ErrNotFound) {
				return fmt.Errorf("no job listing for %s", args[0])
			}
			if err != nil {
				return fmt.Errorf("load job: %w", err)
			}
			printJob(cmd.OutOrStdout(), *job)
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

func printJob(out io.Writer, job models.JobListing) {
	published := "-"
	if job.PublishedAt != nil {
		published = job.PublishedAt.UTC().Format(time.RFC3339)
	}
	rows := [][]string{
		{"ID", job.ID},
		{"Title", job.Title},
		{"Company", derefOr(job.Company, "-")},
		{"Location", derefOr(job.Location, "-")},
		{"Source", job.Source},
		{"URL", job.URL},
		{"Published", published},
		{"Tags", derefOr(job.Tags, "-")},
		{"Imported", job.CreatedAt.UTC().Format(time.RFC3339)},
		{"Updated", job.UpdatedAt.UTC().Format(time.RFC3339)},
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
}

func printJobs(out io.Writer, listings []models.JobListing, total int) {
	if len(listings) == 0 {
		fmt.Fprintln(out, "No job listings")
		return
	}
	rows := make([][]string, 0, len(listings))
	for _, job := range listings {
		published := "-"
		if job.PublishedAt != nil {
			published = job.PublishedAt.UTC().Format(jobTimeLayout)
		}
		rows = append(rows, []string{
			published,
			job.Title,
			derefOr(job.Company, "-"),
			derefOr(job.Location, "-"),
			job.Source,
			job.URL,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Published", "Title", "Company", "Location", "Source", "URL"},
		rows,
		nil,
	))
	fmt.Fprintf(out, "Showing %d of %d listings\n", len(listings), total)
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
