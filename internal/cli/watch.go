package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/crev/internal/review"
	"github.com/sprite-ai/crev/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch [file|-]",
	Short: "Open an interactive view of a review as it runs",
	Long: `Open a TUI that fills in each category as the review produces it.

Examples:
  crev watch app.py                  # review a file
  crev watch app.py --since HEAD~1   # review the file's latest changes
  git diff -- app.py | crev watch -p # review a piped patch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	addInputFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	req, source, err := readRequest(cmd, args)
	if err != nil {
		return err
	}
	reviews, err := newOrchestrator()
	if err != nil {
		return err
	}

	// The viewer needs the resolved code for its code panel; rejected input
	// still runs through the stream so it is shown as a rejection.
	sub, resolveErr := req.Resolve(reviews.MaxSubmissionBytes())

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	var events <-chan review.Event
	if resolveErr != nil {
		events = reviews.Reject(ctx, resolveErr)
	} else {
		events = reviews.Review(ctx, sub)
	}

	final, err := tui.Run(events, sub, source)
	cancel()
	if err != nil {
		return err
	}

	switch {
	case final.Failure() != nil:
		return fmt.Errorf("review rejected: %s", final.Failure().Message)
	case final.Summary() != nil:
		s := final.Summary()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: overall %d/100 (%s)\n", source, s.OverallScore, s.Level)
	}
	return nil
}
