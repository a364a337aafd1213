// Package review drives one code review from submission to summary and
// publishes its progress as an ordered event stream.
package review

import (
	"errors"
	"time"

	"github.com/sprite-ai/crev/internal/model"
	"github.com/sprite-ai/crev/internal/submission"
)

// Kind discriminates review events.
type Kind string

const (
	KindStarted          Kind = "started"
	KindCategoryProgress Kind = "category_progress"
	KindCategoryComplete Kind = "category_complete"
	KindSummary          Kind = "summary"
	KindError            Kind = "error"
)

// ErrMalformedInput is the only error that ends a review early.
var ErrMalformedInput = submission.ErrMalformed

// ErrorKindMalformedInput is the wire name of ErrMalformedInput.
const ErrorKindMalformedInput = "malformed_input"

// ErrorPayload describes a fatal review error.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Event is one unit of review output. Exactly one of Result, Summary and
// Error is set, depending on Kind; started and category_progress carry only
// the header fields.
type Event struct {
	Kind     Kind                  `json:"kind"`
	ReviewID string                `json:"review_id"`
	Seq      int                   `json:"seq"`
	Time     time.Time             `json:"time"`
	Category model.Category        `json:"category,omitempty"`
	Result   *model.AnalysisResult `json:"result,omitempty"`
	Summary  *model.SummaryResult  `json:"summary,omitempty"`
	Error    *ErrorPayload         `json:"error,omitempty"`
}

// Terminal reports whether no event can follow this one.
func (e Event) Terminal() bool {
	return e.Kind == KindSummary || e.Kind == KindError
}

func errorPayload(err error) *ErrorPayload {
	kind := "internal"
	if errors.Is(err, ErrMalformedInput) {
		kind = ErrorKindMalformedInput
	}
	return &ErrorPayload{Kind: kind, Message: err.Error()}
}
