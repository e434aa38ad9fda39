package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/sumgate/internal/output"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Inspect and decide queued summaries",
	Long: `Review queued summaries: list the queue, show a record, and make
the approve/reject decision. Every decision requires --reviewer, and a
rejection additionally requires --feedback.`,
}

var reviewQueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List scored summaries awaiting a decision",
	RunE:  reviewQueueRun,
}

var reviewShowCmd = &cobra.Command{
	Use:   "show <record-id>",
	Short: "Show a review record in full",
	Args:  cobra.ExactArgs(1),
	RunE:  reviewShowRun,
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <record-id>",
	Short: "Approve a scored summary",
	Args:  cobra.ExactArgs(1),
	RunE:  reviewApproveRun,
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject <record-id>",
	Short: "Reject a scored summary with feedback",
	Args:  cobra.ExactArgs(1),
	RunE:  reviewRejectRun,
}

var reviewRegenerateCmd = &cobra.Command{
	Use:   "regenerate <record-id>",
	Short: "Generate a fresh draft for a rejected summary",
	Long: `Generate a new draft for a rejected record. The rejection feedback
steers the generator; the new record links back to the rejected one and
enters the queue as a fresh scored draft.`,
	Args: cobra.ExactArgs(1),
	RunE: reviewRegenerateRun,
}

var (
	reviewerFlag string
	feedbackFlag string
)

func init() {
	reviewApproveCmd.Flags().StringVar(&reviewerFlag, "reviewer", "", "Name of the human making the decision (required)")
	reviewRejectCmd.Flags().StringVar(&reviewerFlag, "reviewer", "", "Name of the human making the decision (required)")
	reviewRejectCmd.Flags().StringVar(&feedbackFlag, "feedback", "", "What needs improvement (required)")

	reviewCmd.AddCommand(reviewQueueCmd)
	reviewCmd.AddCommand(reviewShowCmd)
	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewRejectCmd)
	reviewCmd.AddCommand(reviewRegenerateCmd)
	rootCmd.AddCommand(reviewCmd)
}

func reviewQueueRun(cmd *cobra.Command, args []string) error {
	svc, err := getService()
	if err != nil {
		return err
	}

	records, err := svc.Queue(cmd.Context())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		ui.Info("review queue is empty")
		return nil
	}

	table := ui.Table([]string{"ID", "State", "Score", "Short", "Uncertain", "Attempt"})
	for _, rec := range records {
		score, short, uncertain := "-", "-", "-"
		if rec.Report != nil {
			score = output.ScoreColor(rec.Report.Score)
			short = output.FlagMark(rec.Report.FlaggedTooShort)
			uncertain = output.FlagMark(rec.Report.FlaggedUncertain)
		}
		table.Append([]string{
			rec.ID,
			output.StateColor(rec.State),
			score,
			short,
			uncertain,
			fmt.Sprintf("%d", rec.Candidate.Attempt),
		})
	}
	return table.Render()
}

func reviewShowRun(cmd *cobra.Command, args []string) error {
	svc, err := getService()
	if err != nil {
		return err
	}

	rec, err := svc.Record(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printRecord(rec)
	return nil
}

func reviewApproveRun(cmd *cobra.Command, args []string) error {
	if reviewerFlag == "" {
		return fmt.Errorf("--reviewer is required: decisions are attributed to a human")
	}
	svc, err := getService()
	if err != nil {
		return err
	}

	rec, err := svc.Approve(cmd.Context(), args[0], reviewerFlag)
	if err != nil {
		return err
	}
	ui.Success("approved %s by %s", output.Cyan(rec.ID), reviewerFlag)
	return nil
}

func reviewRejectRun(cmd *cobra.Command, args []string) error {
	if reviewerFlag == "" {
		return fmt.Errorf("--reviewer is required: decisions are attributed to a human")
	}
	if feedbackFlag == "" {
		return fmt.Errorf("--feedback is required: it steers any later regeneration")
	}
	svc, err := getService()
	if err != nil {
		return err
	}

	rec, err := svc.Reject(cmd.Context(), args[0], reviewerFlag, feedbackFlag)
	if err != nil {
		return err
	}
	ui.Success("rejected %s by %s", output.Cyan(rec.ID), reviewerFlag)
	ui.Info("feedback: %s", feedbackFlag)
	ui.Info("run 'sumgate review regenerate %s' to request a new draft", rec.ID)
	return nil
}

func reviewRegenerateRun(cmd *cobra.Command, args []string) error {
	svc, err := getService()
	if err != nil {
		return err
	}

	ui.VerboseLog("regenerating from rejected record %s", args[0])
	rec, err := svc.Regenerate(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	ui.Success("new draft %s (attempt %d) queued for review", output.Cyan(rec.ID), rec.Candidate.Attempt)
	printRecord(rec)
	return nil
}
