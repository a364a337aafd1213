// Package analysis implements the category analyzers that turn submitted
// code into findings and scored metrics.
package analysis

import (
	"fmt"
	"strings"

	"github.com/sprite-ai/crev/internal/model"
)

// Analyzer is one category pass. Analyze must be deterministic: the same
// submission always yields the same findings and metrics.
type Analyzer interface {
	Category() model.Category
	Analyze(sub model.Submission) ([]model.Finding, model.MetricSet)
}

// Suite returns the analyzers for every category, in review order.
func Suite(p Policy) []Analyzer {
	return []Analyzer{
		NewSecurityScanner(p),
		NewComplexityAnalyzer(p),
		NewQualityAssessor(p),
	}
}

// Neutral is the metric set reported for a category whose analyzer failed.
func Neutral(c model.Category) model.MetricSet {
	return model.MetricSet{Category: c, Metrics: []model.Metric{}, Score: 100}
}

// Run executes an analyzer and packages its output without a narrative.
func Run(a Analyzer, sub model.Submission) model.AnalysisResult {
	findings, metrics := a.Analyze(sub)
	if findings == nil {
		findings = []model.Finding{}
	}
	return model.AnalysisResult{
		Category: a.Category(),
		Findings: findings,
		Metrics:  metrics,
	}
}

// Summary returns a one-line summary of findings across results.
func Summary(results []model.AnalysisResult) string {
	counts := make(map[model.Severity]int)
	total := 0
	for _, r := range results {
		for _, f := range r.Findings {
			counts[f.Severity]++
			total++
		}
	}
	if total == 0 {
		return "No issues found"
	}

	var parts []string
	for _, sev := range model.Severities {
		if c := counts[sev]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, sev))
		}
	}
	return strings.Join(parts, ", ")
}
