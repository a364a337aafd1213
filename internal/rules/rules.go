// Package rules holds the static detection rule catalogs used by the
// analyzers. Rules are data: adding a check means adding a Rule value, not a
// new type.
package rules

import (
	"regexp"

	"github.com/sprite-ai/crev/internal/model"
)

// Kind selects how a rule's pattern is evaluated.
type Kind int

const (
	// MatchPresent reports every Pattern match.
	MatchPresent Kind = iota
	// MatchUnguarded reports Pattern matches only when Unless matches nowhere
	// in the text, i.e. the protective marker is missing.
	MatchUnguarded
	// MatchStructural rules have no pattern; analyzers raise them from
	// computed metrics.
	MatchStructural
)

func (k Kind) String() string {
	switch k {
	case MatchPresent:
		return "present"
	case MatchUnguarded:
		return "unguarded"
	case MatchStructural:
		return "structural"
	default:
		return "unknown"
	}
}

// Rule is one detection rule.
type Rule struct {
	ID          string
	Category    model.Category
	Severity    model.Severity
	Description string
	Kind        Kind
	Pattern     *regexp.Regexp
	Unless      *regexp.Regexp
}

// Hits returns the [start, end] byte offsets of every match in text.
func (r Rule) Hits(text string) [][]int {
	if r.Pattern == nil || r.Kind == MatchStructural {
		return nil
	}
	if r.Kind == MatchUnguarded && r.Unless != nil && r.Unless.MatchString(text) {
		return nil
	}
	return r.Pattern.FindAllStringIndex(text, -1)
}

// Matches reports whether the rule fires anywhere in text.
func (r Rule) Matches(text string) bool {
	if r.Pattern == nil || r.Kind == MatchStructural {
		return false
	}
	if r.Kind == MatchUnguarded && r.Unless != nil && r.Unless.MatchString(text) {
		return false
	}
	return r.Pattern.MatchString(text)
}

// Finding builds a finding for this rule.
func (r Rule) Finding(line int, snippet string) model.Finding {
	return model.Finding{
		RuleID:   r.ID,
		Category: r.Category,
		Severity: r.Severity,
		Line:     line,
		Snippet:  snippet,
		Message:  r.Description,
	}
}

// For returns the rule set for a category.
func For(c model.Category) []Rule {
	switch c {
	case model.CategorySecurity:
		return Security
	case model.CategoryPerformance:
		return Performance
	case model.CategoryReadability:
		return Readability
	default:
		return nil
	}
}

// ByID finds a rule across all sets.
func ByID(id string) (Rule, bool) {
	for _, c := range model.Categories {
		for _, r := range For(c) {
			if r.ID == id {
				return r, true
			}
		}
	}
	return Rule{}, false
}
