package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/sumgate/internal/output"
	"github.com/joescharf/sumgate/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show finalized summaries",
	Long: `Show the immutable snapshots written when summaries were approved
or rejected. These are the terminal destinations — once a row lands
here it never changes.`,
}

var reportApprovedCmd = &cobra.Command{
	Use:   "approved",
	Short: "List approved summary snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportRun(cmd, store.Store.ListApproved)
	},
}

var reportRejectedCmd = &cobra.Command{
	Use:   "rejected",
	Short: "List rejected summary snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportRun(cmd, store.Store.ListRejected)
	},
}

func init() {
	reportCmd.AddCommand(reportApprovedCmd)
	reportCmd.AddCommand(reportRejectedCmd)
	rootCmd.AddCommand(reportCmd)
}

func reportRun(cmd *cobra.Command, list func(store.Store, context.Context) ([]*store.Snapshot, error)) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	snapshots, err := list(s, cmd.Context())
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		ui.Info("no snapshots")
		return nil
	}

	table := ui.Table([]string{"ID", "Score", "Reviewer", "Feedback", "Decided"})
	for _, snap := range snapshots {
		feedback := snap.Feedback
		if len(feedback) > 40 {
			feedback = feedback[:37] + "..."
		}
		table.Append([]string{
			snap.ID,
			output.ScoreColor(snap.Score),
			snap.Reviewer,
			feedback,
			snap.CreatedAt.Format(time.DateOnly),
		})
	}
	if err := table.Render(); err != nil {
		return err
	}
	ui.Info("%d snapshot(s)", len(snapshots))
	return nil
}
