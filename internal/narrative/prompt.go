package narrative

import (
	"fmt"
	"strings"

	"github.com/sprite-ai/crev/internal/model"
)

const systemPrompt = `You are an expert code reviewer. A static analyzer has already measured the code; its metrics and findings are given to you as facts.

Rules:
1. Explain what the findings and metrics mean for this code. Do not invent findings the analyzer did not report.
2. Give specific, actionable recommendations ordered by severity.
3. Keep the answer under 250 words of plain prose or short bullet lists. No preamble.
4. Secrets in the code have been replaced with [REDACTED]. Do not speculate about their values.`

var focus = map[model.Category]string{
	model.CategorySecurity:    "security: injection, cross-site scripting, hardcoded secrets, CSRF protection and input validation",
	model.CategoryPerformance: "performance: nesting, loops, database access patterns and blocking operations",
	model.CategoryReadability: "readability: comments and documentation, function size, naming, and error handling",
}

// interpretPrompt builds the user prompt for one category narrative.
func interpretPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Focus area: %s\n", focus[req.Category])
	if req.Language != "" {
		fmt.Fprintf(&b, "Language hint: %s\n", req.Language)
	}

	fmt.Fprintf(&b, "\nScore: %d/100\nMetrics:\n", req.Metrics.Score)
	for _, m := range req.Metrics.Metrics {
		fmt.Fprintf(&b, "- %s: %s\n", m.Name, m)
	}

	if len(req.Findings) == 0 {
		b.WriteString("\nFindings: none\n")
	} else {
		b.WriteString("\nFindings:\n")
		for _, f := range req.Findings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	b.WriteString("\n--- BEGIN CODE ---\n")
	b.WriteString(Redact(req.Code))
	b.WriteString("\n--- END CODE ---\n")
	return b.String()
}

// summaryPrompt builds the user prompt for the closing summary.
func summaryPrompt(results []model.AnalysisResult) string {
	var b strings.Builder
	sum := model.Summarize(results)

	b.WriteString("Write an overall assessment of the reviewed code from the category results below.\n")
	b.WriteString("List critical issues first, then high priority recommendations, then medium priority improvements.\n\n")
	fmt.Fprintf(&b, "Overall score: %d/100 (%s)\n", sum.OverallScore, sum.Level)

	for _, r := range results {
		fmt.Fprintf(&b, "\n## %s (score %d/100)\n", r.Category, r.Metrics.Score)
		for _, f := range r.Findings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		if r.Narrative != "" && r.Narrative != model.NarrativeUnavailable {
			fmt.Fprintf(&b, "\nAnalysis:\n%s\n", r.Narrative)
		}
	}
	return b.String()
}
