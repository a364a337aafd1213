// Package model defines the core data types shared across crev.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Category is one of the fixed analysis focus areas.
type Category string

const (
	CategorySecurity    Category = "security"
	CategoryPerformance Category = "performance"
	CategoryReadability Category = "readability"
)

// Categories lists every category in review order. Consumers render results
// in this order, so it must not change.
var Categories = []Category{CategorySecurity, CategoryPerformance, CategoryReadability}

// ParseCategory converts a string to a Category.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategorySecurity, CategoryPerformance, CategoryReadability:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// Severity ranks how serious a finding is.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", s)
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Severities lists severities from most to least serious.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Submission is the code handed to a review. It is never modified after intake.
type Submission struct {
	Code string `json:"code"`
	// Language is an optional hint: a lexer name ("go", "python") or a filename.
	Language string `json:"language,omitempty"`
}

// Finding is a single detected issue tied to one rule.
type Finding struct {
	RuleID   string   `json:"rule_id"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line,omitempty"` // 1-based, 0 if submission-level
	Snippet  string   `json:"snippet,omitempty"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	loc := "-"
	if f.Line > 0 {
		loc = fmt.Sprintf("line %d", f.Line)
	}
	return fmt.Sprintf("[%s/%s] %s: %s", f.Category, f.Severity, loc, f.Message)
}

// MetricKind tags the value held by a Metric.
type MetricKind int

const (
	MetricNumber MetricKind = iota
	MetricFlag
	MetricNotApplicable
)

// NotApplicableText is how a not-applicable metric is rendered.
const NotApplicableText = "n/a"

// Metric is one named measurement. A not-applicable metric is distinct from
// zero: it means the measurement has no meaning for this submission.
type Metric struct {
	Name   string
	Kind   MetricKind
	Number float64
	Flag   bool
}

// Number returns a numeric metric.
func Number(name string, v float64) Metric {
	return Metric{Name: name, Kind: MetricNumber, Number: v}
}

// Count returns a numeric metric from an integer.
func Count(name string, v int) Metric {
	return Metric{Name: name, Kind: MetricNumber, Number: float64(v)}
}

// Flag returns a boolean metric.
func Flag(name string, v bool) Metric {
	return Metric{Name: name, Kind: MetricFlag, Flag: v}
}

// NotApplicable returns a metric that has no value for this submission.
func NotApplicable(name string) Metric {
	return Metric{Name: name, Kind: MetricNotApplicable}
}

// Applicable reports whether the metric carries a value.
func (m Metric) Applicable() bool {
	return m.Kind != MetricNotApplicable
}

func (m Metric) String() string {
	switch m.Kind {
	case MetricFlag:
		return fmt.Sprintf("%t", m.Flag)
	case MetricNotApplicable:
		return NotApplicableText
	default:
		if m.Number == float64(int64(m.Number)) {
			return fmt.Sprintf("%d", int64(m.Number))
		}
		return fmt.Sprintf("%.2f", m.Number)
	}
}

func (m Metric) value() any {
	switch m.Kind {
	case MetricFlag:
		return m.Flag
	case MetricNotApplicable:
		return NotApplicableText
	default:
		return m.Number
	}
}

// MetricSet holds the measurements and derived score for one category.
type MetricSet struct {
	Category Category
	Metrics  []Metric
	Score    int
}

// Get returns the named metric.
func (ms MetricSet) Get(name string) (Metric, bool) {
	for _, m := range ms.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

// MarshalJSON renders metrics as an object in their stable order.
func (ms MetricSet) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteString(`{"category":`)
	cat, _ := json.Marshal(ms.Category)
	b.Write(cat)
	b.WriteString(`,"score":`)
	fmt.Fprintf(&b, "%d", ms.Score)
	b.WriteString(`,"metrics":{`)
	for i, m := range ms.Metrics {
		if i > 0 {
			b.WriteByte(',')
		}
		name, _ := json.Marshal(m.Name)
		val, err := json.Marshal(m.value())
		if err != nil {
			return nil, fmt.Errorf("metric %s: %w", m.Name, err)
		}
		b.Write(name)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteString("}}")
	return []byte(b.String()), nil
}

// UnmarshalJSON restores a MetricSet, keeping the metrics in wire order.
func (ms *MetricSet) UnmarshalJSON(data []byte) error {
	var raw struct {
		Category Category        `json:"category"`
		Score    int             `json:"score"`
		Metrics  json.RawMessage `json:"metrics"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ms.Category, ms.Score, ms.Metrics = raw.Category, raw.Score, nil
	if len(raw.Metrics) == 0 || string(raw.Metrics) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Metrics))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		switch val := v.(type) {
		case bool:
			ms.Metrics = append(ms.Metrics, Flag(name, val))
		case json.Number:
			f, err := val.Float64()
			if err != nil {
				return fmt.Errorf("metric %s: %w", name, err)
			}
			ms.Metrics = append(ms.Metrics, Number(name, f))
		case string:
			if val != NotApplicableText {
				return fmt.Errorf("metric %s: unexpected value %q", name, val)
			}
			ms.Metrics = append(ms.Metrics, NotApplicable(name))
		default:
			return fmt.Errorf("metric %s: unsupported value %v", name, v)
		}
	}
	return nil
}

// NarrativeUnavailable marks a narrative the model capability could not produce.
const NarrativeUnavailable = "unavailable"

// AnalysisResult is the outcome of one category pass.
type AnalysisResult struct {
	Category  Category  `json:"category"`
	Findings  []Finding `json:"findings"`
	Metrics   MetricSet `json:"metrics"`
	Narrative string    `json:"narrative"`
	// Error is set when the analyzer itself failed and the result is neutral.
	Error string `json:"error,omitempty"`
}

// MaxSeverity returns the highest severity among the findings, 0 if none.
func (r AnalysisResult) MaxSeverity() Severity {
	var max Severity
	for _, f := range r.Findings {
		if f.Severity > max {
			max = f.Severity
		}
	}
	return max
}

// SummaryResult aggregates the three category results.
type SummaryResult struct {
	Scores       map[Category]int `json:"scores"`
	OverallScore int              `json:"overall_score"`
	Level        string           `json:"level"`
	Findings     map[string]int   `json:"findings"` // count by severity name
	Narrative    string           `json:"narrative"`
}

// Summarize builds a SummaryResult from category results. The narrative is
// left for the caller to fill in.
func Summarize(results []AnalysisResult) SummaryResult {
	s := SummaryResult{
		Scores:   make(map[Category]int, len(results)),
		Findings: make(map[string]int),
	}
	for _, sev := range Severities {
		s.Findings[sev.String()] = 0
	}
	total := 0
	for _, r := range results {
		s.Scores[r.Category] = r.Metrics.Score
		total += r.Metrics.Score
		for _, f := range r.Findings {
			s.Findings[f.Severity.String()]++
		}
	}
	if len(results) > 0 {
		s.OverallScore = (total + len(results)/2) / len(results)
	}
	s.Level = Level(s.OverallScore)
	return s
}

// Level buckets a score into a coarse quality level.
func Level(score int) string {
	switch {
	case score > 70:
		return "high"
	case score > 40:
		return "medium"
	default:
		return "low"
	}
}

// ClampScore bounds a score to [0, 100].
func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
