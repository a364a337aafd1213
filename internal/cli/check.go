package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/crev/internal/model"
	"github.com/sprite-ai/crev/internal/review"
)

var checkCmd = &cobra.Command{
	Use:   "check [file|-]",
	Short: "Review code and print a report (non-interactive)",
	Long: `Review a file, stdin or a single-file patch and print the results.
Useful for CI, pre-commit hooks, and piping into other tools.

Exit codes:
  0  no findings
  1  findings reported
  2  critical or high severity security findings`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	addInputFlags(checkCmd)
	checkCmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown")
	checkCmd.Flags().StringSlice("category", nil, "only report these categories: security, performance, readability")
}

// report is a fully consumed review stream.
type report struct {
	ReviewID string                 `json:"review_id,omitempty"`
	Results  []model.AnalysisResult `json:"results"`
	Summary  *model.SummaryResult   `json:"summary,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	var output func(io.Writer, string, report) error
	switch format {
	case "text":
		output = outputText
	case "json":
		output = outputJSON
	case "markdown":
		output = outputMarkdown
	default:
		return fmt.Errorf("unknown format %q (want text, json or markdown)", format)
	}

	names, _ := cmd.Flags().GetStringSlice("category")
	only, err := parseCategories(names)
	if err != nil {
		return err
	}

	req, source, err := readRequest(cmd, args)
	if err != nil {
		return err
	}
	reviews, err := newOrchestrator()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	rep, err := consume(ctx, reviews.Submit(ctx, req))
	if err != nil {
		return err
	}
	rep = rep.only(only)

	if err := output(cmd.OutOrStdout(), source, rep); err != nil {
		return err
	}
	if code := exitCode(rep); code != 0 {
		exit(code)
	}
	return nil
}

// consume drains a review stream into a report. A rejected review is an
// error.
func consume(ctx context.Context, events <-chan review.Event) (report, error) {
	var rep report
	for ev := range events {
		switch ev.Kind {
		case review.KindStarted:
			rep.ReviewID = ev.ReviewID
		case review.KindCategoryComplete:
			if ev.Result != nil {
				rep.Results = append(rep.Results, *ev.Result)
			}
		case review.KindSummary:
			rep.Summary = ev.Summary
		case review.KindError:
			return rep, fmt.Errorf("review rejected (%s): %s", ev.Error.Kind, ev.Error.Message)
		}
	}
	if rep.Summary == nil {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		return rep, fmt.Errorf("review ended without a summary")
	}
	return rep, nil
}

func parseCategories(names []string) (map[model.Category]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	set := make(map[model.Category]bool, len(names))
	for _, n := range names {
		c, err := model.ParseCategory(n)
		if err != nil {
			return nil, err
		}
		set[c] = true
	}
	return set, nil
}

// only keeps the results of the given categories. The summary still covers
// the whole review. A nil set keeps everything.
func (rep report) only(set map[model.Category]bool) report {
	if set == nil {
		return rep
	}
	kept := make([]model.AnalysisResult, 0, len(set))
	for _, r := range rep.Results {
		if set[r.Category] {
			kept = append(kept, r)
		}
	}
	rep.Results = kept
	return rep
}

func exitCode(rep report) int {
	code := 0
	for _, r := range rep.Results {
		if len(r.Findings) > 0 {
			code = 1
		}
		if r.Category == model.CategorySecurity && r.MaxSeverity() >= model.SeverityHigh {
			return 2
		}
	}
	return code
}

func outputText(w io.Writer, source string, rep report) error {
	s := rep.Summary
	fmt.Fprintf(w, "%s: overall %d/100 (%s)\n\n", source, s.OverallScore, s.Level)

	for _, r := range rep.Results {
		fmt.Fprintf(w, "%s  %d/100\n", strings.ToUpper(string(r.Category)), r.Metrics.Score)
		if r.Error != "" {
			fmt.Fprintf(w, "  analyzer failed: %s\n", r.Error)
		}
		for _, m := range r.Metrics.Metrics {
			fmt.Fprintf(w, "  %-24s %s\n", m.Name, m)
		}
		if len(r.Findings) == 0 {
			fmt.Fprintln(w, "  No issues found.")
		}
		for _, f := range r.Findings {
			loc := "-"
			if f.Line > 0 {
				loc = fmt.Sprintf("%d", f.Line)
			}
			fmt.Fprintf(w, "  %s %s:%s [%s] %s\n", severityIcon(f.Severity), source, loc, f.RuleID, f.Message)
		}
		if r.Narrative != model.NarrativeUnavailable {
			fmt.Fprintf(w, "\n%s\n", indent(r.Narrative))
		}
		fmt.Fprintln(w)
	}

	if s.Narrative != model.NarrativeUnavailable {
		fmt.Fprintf(w, "SUMMARY\n%s\n", indent(s.Narrative))
	}
	return nil
}

func outputJSON(w io.Writer, _ string, rep report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func outputMarkdown(w io.Writer, source string, rep report) error {
	s := rep.Summary
	fmt.Fprintf(w, "## Review Report: `%s`\n\n", source)
	fmt.Fprintf(w, "**Overall:** %d/100 (%s)\n\n", s.OverallScore, s.Level)

	fmt.Fprintln(w, "| Category | Score | Findings |")
	fmt.Fprintln(w, "|----------|-------|----------|")
	for _, r := range rep.Results {
		fmt.Fprintf(w, "| %s | %d | %d |\n", r.Category, r.Metrics.Score, len(r.Findings))
	}
	fmt.Fprintln(w)

	total := 0
	for _, r := range rep.Results {
		total += len(r.Findings)
	}
	if total == 0 {
		fmt.Fprintln(w, "No issues found.")
	} else {
		fmt.Fprintln(w, "| Severity | Category | Line | Message |")
		fmt.Fprintln(w, "|----------|----------|------|---------|")
		for _, r := range rep.Results {
			for _, f := range r.Findings {
				line := "-"
				if f.Line > 0 {
					line = fmt.Sprintf("%d", f.Line)
				}
				fmt.Fprintf(w, "| %s | %s | %s | %s |\n", f.Severity, f.Category, line, f.Message)
			}
		}
	}

	if s.Narrative != model.NarrativeUnavailable {
		fmt.Fprintf(w, "\n### Assessment\n\n%s\n", s.Narrative)
	}
	return nil
}

func severityIcon(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "!!"
	case model.SeverityHigh:
		return "! "
	case model.SeverityMedium:
		return "* "
	default:
		return "- "
	}
}

func indent(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
