package analysis

import (
	"github.com/sprite-ai/crev/internal/model"
	"github.com/sprite-ai/crev/internal/rules"
)

// SecurityScanner matches the security rule set against a submission.
type SecurityScanner struct {
	Policy Policy
	Rules  []rules.Rule // defaults to rules.Security
}

// NewSecurityScanner returns a scanner over the built-in security rules.
func NewSecurityScanner(p Policy) *SecurityScanner {
	return &SecurityScanner{Policy: p, Rules: rules.Security}
}

func (s *SecurityScanner) Category() model.Category { return model.CategorySecurity }

// Analyze reports one finding per rule match, up to the per-rule cap, and
// scores 100 minus the severity weight of every distinct rule triggered.
func (s *SecurityScanner) Analyze(sub model.Submission) ([]model.Finding, model.MetricSet) {
	ruleSet := s.Rules
	if ruleSet == nil {
		ruleSet = rules.Security
	}

	text := normalizeNewlines(sub.Code)
	lines := splitSource(text)
	starts := lineStarts(text)
	limit := newFindingCap(s.Policy.MaxFindingsPerRule)

	findings := []model.Finding{}
	bySeverity := make(map[model.Severity]int)
	triggered := 0
	score := 100

	for _, r := range ruleSet {
		fired := false
		for _, hit := range r.Hits(text) {
			line := lineAt(starts, hit[0])
			// Skip matches that start on comment-only lines
			if line <= len(lines) && lines[line-1].Comment {
				continue
			}
			fired = true
			if !limit.allow(r.ID) {
				continue
			}
			var snip string
			if line <= len(lines) {
				snip = snippet(lines[line-1].Raw)
			}
			findings = append(findings, r.Finding(line, snip))
		}
		if fired {
			triggered++
			bySeverity[r.Severity]++
			score -= s.Policy.SeverityWeights.Weight(r.Severity)
		}
	}

	metrics := model.MetricSet{
		Category: model.CategorySecurity,
		Metrics: []model.Metric{
			model.Count("findings", len(findings)),
			model.Count("rules_triggered", triggered),
			model.Count("suppressed_matches", limit.suppressed),
		},
		Score: model.ClampScore(score),
	}
	for _, sev := range model.Severities {
		metrics.Metrics = append(metrics.Metrics, model.Count(sev.String(), bySeverity[sev]))
	}
	return findings, metrics
}
