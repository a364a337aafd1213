// Package narrative wraps the external model capability: given code, a focus
// category and the computed metrics, produce a natural-language analysis.
// Callers treat every error as "narrative unavailable"; nothing here is
// allowed to abort a review.
package narrative

import (
	"context"
	"errors"
	"fmt"

	"github.com/sprite-ai/crev/internal/model"
)

// ErrUnavailable is returned by narrators that cannot produce text at all.
var ErrUnavailable = errors.New("narrative unavailable")

// Request is the input for one category narrative.
type Request struct {
	Category model.Category
	Code     string
	Language string
	Metrics  model.MetricSet
	Findings []model.Finding
}

// Narrator is the model capability abstraction.
type Narrator interface {
	Interpret(ctx context.Context, req Request) (string, error)
	Summarize(ctx context.Context, results []model.AnalysisResult) (string, error)
	Name() string
}

// Disabled is a narrator that never produces text. Reviews still complete
// with every narrative marked unavailable.
type Disabled struct{}

func (Disabled) Interpret(context.Context, Request) (string, error) { return "", ErrUnavailable }

func (Disabled) Summarize(context.Context, []model.AnalysisResult) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) Name() string { return "disabled" }

// New creates a narrator by provider name.
func New(provider, model string) (Narrator, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic(model)
	case "", "none", "disabled":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
