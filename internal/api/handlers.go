package api

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/sprite-ai/crev/internal/analysis"
	"github.com/sprite-ai/crev/internal/model"
	"github.com/sprite-ai/crev/internal/review"
	"github.com/sprite-ai/crev/internal/stream"
	"github.com/sprite-ai/crev/internal/submission"
)

// --- Health ---

type healthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	ModelProvider string `json:"model_provider"`
	ModelID       string `json:"model_id"`
	Region        string `json:"region"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:        "healthy",
		Service:       serviceName,
		ModelProvider: s.info.Provider,
		ModelID:       s.info.ModelID,
		Region:        s.info.Region,
	})
}

// --- Review ---

// handleReview streams one review as server-sent events. The body is JSON
// {code, language, patch} or a form with a code field.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	req, err := s.readReviewRequest(w, r)
	if err != nil && !errors.Is(err, review.ErrMalformedInput) {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	sink, serr := stream.NewSSE(w)
	if serr != nil {
		s.writeError(w, http.StatusInternalServerError, serr.Error())
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var events <-chan review.Event
	if err != nil {
		events = s.reviews.Reject(ctx, err)
	} else {
		events = s.reviews.Submit(ctx, req)
	}

	if err := stream.Pump(ctx, events, sink); err != nil && ctx.Err() == nil {
		s.log.Warn("review stream ended early", zap.Error(err))
	}
}

// readReviewRequest decodes a review request. An oversized body is reported
// as malformed input so the caller still gets an error event.
func (s *Server) readReviewRequest(w http.ResponseWriter, r *http.Request) (submission.Request, error) {
	limit := s.bodyLimit()
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var req submission.Request
	var err error

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(limit)
		} else {
			err = r.ParseForm()
		}
		if err == nil {
			req.Code = r.PostFormValue("code")
			req.Language = r.PostFormValue("language")
			req.Patch = r.PostFormValue("patch")
		}
	default:
		err = readJSON(r, &req)
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return submission.Request{}, fmt.Errorf("%w: request body exceeds %d bytes", review.ErrMalformedInput, tooLarge.Limit)
	}
	return req, err
}

// --- Analyze ---

type analyzeResponse struct {
	Summary string                 `json:"summary"`
	Overall model.SummaryResult    `json:"overall"`
	Results []model.AnalysisResult `json:"results"`
}

// handleAnalyze runs the three category passes without narratives and
// returns them in one response.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := s.readReviewRequest(w, r)
	if err != nil {
		s.writeAnalyzeError(w, err)
		return
	}

	sub, err := req.Resolve(s.reviews.MaxSubmissionBytes())
	if err != nil {
		s.writeAnalyzeError(w, err)
		return
	}

	results, err := s.reviews.Analyze(sub)
	if err != nil {
		s.writeAnalyzeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, analyzeResponse{
		Summary: analysis.Summary(results),
		Overall: model.Summarize(results),
		Results: results,
	})
}

func (s *Server) writeAnalyzeError(w http.ResponseWriter, err error) {
	if errors.Is(err, review.ErrMalformedInput) {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
}
