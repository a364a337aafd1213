package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sprite-ai/crev/internal/analysis"
	"github.com/sprite-ai/crev/internal/model"
	"github.com/sprite-ai/crev/internal/narrative"
	"github.com/sprite-ai/crev/internal/submission"
)

// DefaultNarrativeTimeout bounds each narrator call when Options leaves it unset.
const DefaultNarrativeTimeout = 60 * time.Second

// Options tune a review.
type Options struct {
	// NarrativeTimeout bounds each narrator call. Zero means DefaultNarrativeTimeout.
	NarrativeTimeout time.Duration
	// ProgressEvents emits category_progress before each category pass.
	ProgressEvents bool
	// MaxSubmissionBytes rejects larger submissions as malformed. Zero means
	// submission.DefaultMaxBytes.
	MaxSubmissionBytes int
	// Policy configures the analyzers.
	Policy analysis.Policy
	// Analyzers replaces the analyzers built from Policy. Categories without
	// an analyzer fault on every review.
	Analyzers []analysis.Analyzer
}

// DefaultOptions returns options with the default policy and limits.
func DefaultOptions() Options {
	return Options{
		NarrativeTimeout:   DefaultNarrativeTimeout,
		MaxSubmissionBytes: submission.DefaultMaxBytes,
		Policy:             analysis.DefaultPolicy(),
	}
}

// Orchestrator runs reviews. It holds no per-review state and is safe for
// concurrent use.
type Orchestrator struct {
	narrator  narrative.Narrator
	opts      Options
	analyzers map[model.Category]analysis.Analyzer
	log       *zap.Logger
	now       func() time.Time
}

// New creates an orchestrator. A nil narrator disables narratives and a nil
// logger discards logs.
func New(n narrative.Narrator, opts Options, log *zap.Logger) *Orchestrator {
	if n == nil {
		n = narrative.Disabled{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.NarrativeTimeout <= 0 {
		opts.NarrativeTimeout = DefaultNarrativeTimeout
	}
	if opts.MaxSubmissionBytes <= 0 {
		opts.MaxSubmissionBytes = submission.DefaultMaxBytes
	}

	list := opts.Analyzers
	if list == nil {
		list = analysis.Suite(opts.Policy)
	}
	analyzers := make(map[model.Category]analysis.Analyzer, len(list))
	for _, a := range list {
		analyzers[a.Category()] = a
	}

	return &Orchestrator{
		narrator:  n,
		opts:      opts,
		analyzers: analyzers,
		log:       log,
		now:       time.Now,
	}
}

// Narrator returns the narrator reviews are narrated with.
func (o *Orchestrator) Narrator() narrative.Narrator { return o.narrator }

// MaxSubmissionBytes returns the effective submission size limit.
func (o *Orchestrator) MaxSubmissionBytes() int { return o.opts.MaxSubmissionBytes }

// Review starts a review of sub and returns its event stream. The channel is
// unbuffered and closed exactly once: after summary, after an error event, or
// as soon as ctx ends.
func (o *Orchestrator) Review(ctx context.Context, sub model.Submission) <-chan Event {
	return o.start(ctx, func() (model.Submission, error) {
		return sub, submission.Validate(sub, o.opts.MaxSubmissionBytes)
	})
}

// Submit is Review for a wire request, so patch resolution failures are
// reported on the stream like any other malformed input.
func (o *Orchestrator) Submit(ctx context.Context, req submission.Request) <-chan Event {
	return o.start(ctx, func() (model.Submission, error) {
		return req.Resolve(o.opts.MaxSubmissionBytes)
	})
}

// Reject returns a stream carrying only the error event for input that was
// refused before it could become a submission.
func (o *Orchestrator) Reject(ctx context.Context, err error) <-chan Event {
	return o.start(ctx, func() (model.Submission, error) {
		return model.Submission{}, err
	})
}

// Analyze runs every category pass synchronously, without narratives or
// events. Analyzer faults are recovered the same way Review recovers them.
func (o *Orchestrator) Analyze(sub model.Submission) ([]model.AnalysisResult, error) {
	if err := submission.Validate(sub, o.opts.MaxSubmissionBytes); err != nil {
		return nil, err
	}
	results := make([]model.AnalysisResult, 0, len(model.Categories))
	for _, c := range model.Categories {
		results = append(results, o.analyze(c, sub, o.log))
	}
	return results, nil
}

func (o *Orchestrator) start(ctx context.Context, intake func() (model.Submission, error)) <-chan Event {
	out := make(chan Event)
	id := uuid.NewString()
	r := &run{
		o:       o,
		id:      id,
		out:     out,
		intake:  intake,
		outcome: outcomeCanceled,
		log:     o.log.With(zap.String("review_id", id)),
	}
	go r.loop(ctx)
	return out
}

// state is a step of the review sequence.
type state int

const (
	stateIntake state = iota
	stateStarted
	stateSecurity
	statePerformance
	stateReadability
	stateSummary
	stateClosed
)

var stateCategory = map[state]model.Category{
	stateSecurity:    model.CategorySecurity,
	statePerformance: model.CategoryPerformance,
	stateReadability: model.CategoryReadability,
}

// run is the state of one review. It is owned by a single goroutine.
type run struct {
	o       *Orchestrator
	id      string
	ctx     context.Context
	out     chan<- Event
	seq     int
	intake  func() (model.Submission, error)
	sub     model.Submission
	results []model.AnalysisResult
	outcome string
	log     *zap.Logger
}

func (r *run) loop(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "review", trace.WithAttributes(attribute.String("review.id", r.id)))
	r.ctx = ctx
	start := r.o.now()
	defer func() {
		close(r.out)
		recordReview(r.outcome)
		span.SetAttributes(attribute.String("review.outcome", r.outcome))
		span.End()
		r.log.Info("review finished",
			zap.String("outcome", r.outcome),
			zap.Int("events", r.seq),
			zap.Duration("elapsed", r.o.now().Sub(start)))
	}()

	for s := stateIntake; s != stateClosed; {
		s = r.step(s)
	}
}

func (r *run) step(s state) state {
	switch s {
	case stateIntake:
		sub, err := r.intake()
		if err != nil {
			r.log.Warn("rejecting submission", zap.Error(err))
			r.outcome = outcomeRejected
			r.emit(Event{Kind: KindError, Error: errorPayload(err)})
			return stateClosed
		}
		r.sub = sub
		trace.SpanFromContext(r.ctx).SetAttributes(
			attribute.Int("review.bytes", len(sub.Code)),
			attribute.String("review.language", sub.Language))
		return stateStarted

	case stateStarted:
		r.log.Debug("review started", zap.Int("bytes", len(r.sub.Code)), zap.String("language", r.sub.Language))
		if !r.emit(Event{Kind: KindStarted}) {
			return stateClosed
		}
		return stateSecurity

	case stateSecurity, statePerformance, stateReadability:
		if !r.category(stateCategory[s]) {
			return stateClosed
		}
		return s + 1

	case stateSummary:
		if r.summarize() {
			r.outcome = outcomeCompleted
		}
		return stateClosed
	}
	return stateClosed
}

func (r *run) category(c model.Category) bool {
	ctx, span := tracer.Start(r.ctx, "review."+string(c))
	defer span.End()

	if r.o.opts.ProgressEvents {
		if !r.emit(Event{Kind: KindCategoryProgress, Category: c}) {
			return false
		}
	}

	result := r.o.analyze(c, r.sub, r.log)
	if result.Error != "" {
		span.SetStatus(codes.Error, result.Error)
	}
	span.SetAttributes(
		attribute.Int("review.score", result.Metrics.Score),
		attribute.Int("review.findings", len(result.Findings)))

	result.Narrative = r.interpret(ctx, result)
	r.results = append(r.results, result)
	return r.emit(Event{Kind: KindCategoryComplete, Category: c, Result: &result})
}

func (r *run) interpret(ctx context.Context, result model.AnalysisResult) string {
	ctx, cancel := context.WithTimeout(ctx, r.o.opts.NarrativeTimeout)
	defer cancel()

	text, err := r.o.narrator.Interpret(ctx, narrative.Request{
		Category: result.Category,
		Code:     r.sub.Code,
		Language: r.sub.Language,
		Metrics:  result.Metrics,
		Findings: result.Findings,
	})
	if err != nil || text == "" {
		r.degrade(string(result.Category), err)
		return model.NarrativeUnavailable
	}
	return text
}

func (r *run) summarize() bool {
	ctx, span := tracer.Start(r.ctx, "review.summary")
	defer span.End()

	sum := model.Summarize(r.results)

	nctx, cancel := context.WithTimeout(ctx, r.o.opts.NarrativeTimeout)
	text, err := r.o.narrator.Summarize(nctx, r.results)
	cancel()
	if err != nil || text == "" {
		r.degrade("summary", err)
		text = model.NarrativeUnavailable
	}
	sum.Narrative = text
	span.SetAttributes(attribute.Int("review.overall_score", sum.OverallScore))

	return r.emit(Event{Kind: KindSummary, Summary: &sum})
}

func (r *run) degrade(category string, err error) {
	if r.ctx.Err() != nil {
		return
	}
	recordNarrativeFailure(category)
	if err == nil {
		err = fmt.Errorf("empty narrative")
	}
	if narrative.IsAuthError(err) {
		// Every later call fails the same way until the key is fixed.
		r.log.Error("narrator rejected credentials",
			zap.String("category", category),
			zap.String("narrator", r.o.narrator.Name()),
			zap.Error(err))
		return
	}
	r.log.Warn("narrative unavailable",
		zap.String("category", category),
		zap.String("narrator", r.o.narrator.Name()),
		zap.Error(err))
}

// emit sends one event unless the review has been canceled. It reports
// whether the event was delivered.
func (r *run) emit(ev Event) bool {
	if r.ctx.Err() != nil {
		return false
	}
	r.seq++
	ev.ReviewID = r.id
	ev.Seq = r.seq
	ev.Time = r.o.now()
	select {
	case r.out <- ev:
		return true
	case <-r.ctx.Done():
		return false
	}
}

// analyze runs one category pass. A panicking analyzer yields a neutral
// result carrying the failure note.
func (o *Orchestrator) analyze(c model.Category, sub model.Submission, log *zap.Logger) (result model.AnalysisResult) {
	start := time.Now()
	defer func() {
		observeAnalyzer(string(c), time.Since(start).Seconds())
		if p := recover(); p != nil {
			recordAnalyzerFault(string(c))
			log.Error("analyzer failed",
				zap.String("category", string(c)),
				zap.Any("panic", p),
				zap.Stack("stack"))
			result = faulted(c, fmt.Sprintf("%s analysis failed: %v", c, p))
		}
	}()

	a, ok := o.analyzers[c]
	if !ok {
		panic("no analyzer registered")
	}
	return analysis.Run(a, sub)
}

func faulted(c model.Category, note string) model.AnalysisResult {
	return model.AnalysisResult{
		Category: c,
		Findings: []model.Finding{},
		Metrics:  analysis.Neutral(c),
		Error:    note,
	}
}
