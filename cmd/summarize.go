package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/sumgate/internal/extract"
	"github.com/joescharf/sumgate/internal/models"
	"github.com/joescharf/sumgate/internal/output"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file>",
	Short: "Summarize a document and queue the draft for review",
	Long: `Extract text from a document (.txt, .md, or .html), generate a
summary draft, score it, and leave it in the review queue. The draft is
never persisted as approved — run 'sumgate review' to decide its fate.`,
	Args: cobra.ExactArgs(1),
	RunE: summarizeRun,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}

func summarizeRun(cmd *cobra.Command, args []string) error {
	svc, err := getService()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	result, err := extract.New().FromFile(args[0])
	if err != nil {
		return err
	}
	ui.VerboseLog("extracted %d bytes from %s (%s)", len(result.Text), result.Name, result.ContentType)

	doc, err := svc.Ingest(ctx, result.Name, result.ContentType, result.Text)
	if err != nil {
		return err
	}
	ui.Info("ingested document %s", output.Cyan(doc.ID))

	ui.VerboseLog("requesting summary draft")
	rec, err := svc.Summarize(ctx, doc.ID)
	if err != nil {
		return err
	}

	ui.Success("summary scored: record %s", output.Cyan(rec.ID))
	printRecord(rec)
	return nil
}

// printRecord writes a human-readable view of a review record.
func printRecord(rec *models.ReviewRecord) {
	ui.Info("state: %s  attempt: %d  model: %s",
		output.StateColor(rec.State), rec.Candidate.Attempt, rec.Candidate.Model)
	if rec.Report != nil {
		ui.Info("score: %s (coverage %d, clarity %d, language %d)",
			output.ScoreColor(rec.Report.Score),
			rec.Report.Coverage, rec.Report.Clarity, rec.Report.Language)
		ui.Info("flagged too short: %s  flagged uncertain: %s",
			output.FlagMark(rec.Report.FlaggedTooShort),
			output.FlagMark(rec.Report.FlaggedUncertain))
		if len(rec.Report.HedgeTerms) > 0 {
			ui.Warning("hedging terms: %v", rec.Report.HedgeTerms)
		}
	}
	if rec.RegeneratedFrom != "" {
		ui.Info("regenerated from: %s", rec.RegeneratedFrom)
	}
	if rec.Feedback != "" {
		ui.Info("feedback: %s", rec.Feedback)
	}
	ui.Info("summary:\n%s", rec.Candidate.Text)
}
