package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/carenav/carenav/internal/crisis"
	"github.com/carenav/carenav/internal/rag"
)

const (
	// maxQueryLength is the maximum allowed query length in bytes.
	maxQueryLength = 2000

	// maxRequestBody bounds the request body size.
	maxRequestBody = 64 * 1024
)

// QueryService answers one query. *rag.Orchestrator satisfies it.
type QueryService interface {
	Answer(ctx context.Context, req rag.Request) (rag.Response, error)
}

// queryHandler handles POST /api/v1/query.
type queryHandler struct {
	service QueryService
	logger  *slog.Logger
}

// queryRequest is the wire request.
type queryRequest struct {
	Query     string `json:"query"`
	ViewType  string `json:"view_type"`
	SessionID string `json:"session_id"`
}

// queryResponse is the wire response. CrisisResources is present only when
// CrisisDetected is true.
type queryResponse struct {
	Response        string           `json:"response"`
	Citations       []rag.Citation   `json:"citations"`
	CrisisDetected  bool             `json:"crisis_detected"`
	CrisisResources []crisisResource `json:"crisis_resources,omitempty"`
	SessionID       string           `json:"session_id"`
}

// crisisResource is the wire representation of a crisis resource.
type crisisResource struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description"`
}

// generationFailedResponse is the wire error for a generation failure. The
// crisis safety net travels with the error: the caller always learns the
// crisis outcome even when no answer could be produced.
type generationFailedResponse struct {
	Error           string           `json:"error"`
	Message         string           `json:"message"`
	CrisisDetected  bool             `json:"crisis_detected"`
	CrisisResources []crisisResource `json:"crisis_resources,omitempty"`
	SessionID       string           `json:"session_id"`
}

func toWireResources(resources []crisis.Resource) []crisisResource {
	if len(resources) == 0 {
		return nil
	}
	out := make([]crisisResource, len(resources))
	for i, r := range resources {
		out[i] = crisisResource{
			Name:        r.Name,
			Phone:       r.Phone,
			URL:         r.URL,
			Description: r.Description,
		}
	}
	return out
}

// handleQuery answers a natural-language question.
func (h *queryHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON", h.logger)
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query is required", h.logger)
		return
	}
	if len(req.Query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "query_too_long", "query must be 2000 characters or fewer", h.logger)
		return
	}

	view, err := rag.ParseViewType(req.ViewType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_view_type",
			`view_type must be "provider" or "patient"`, h.logger)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	resp, err := h.service.Answer(r.Context(), rag.Request{
		Query:     req.Query,
		View:      view,
		SessionID: sessionID,
	})
	if err != nil {
		h.writeAnswerError(w, resp, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Response:        resp.Answer,
		Citations:       resp.Citations,
		CrisisDetected:  resp.CrisisDetected,
		CrisisResources: toWireResources(resp.CrisisResources),
		SessionID:       resp.SessionID,
	}, h.logger)
}

// writeAnswerError maps pipeline errors to HTTP responses. Caller-input
// errors are 4xx; everything else is reported as a generation failure with a
// clear message — never a raw internal error — and the crisis payload intact.
func (h *queryHandler) writeAnswerError(w http.ResponseWriter, resp rag.Response, err error) {
	if rag.IsClientError(err) {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}

	code := "generation_failed"
	if errors.Is(err, rag.ErrGenerationTimeout) {
		code = "generation_timeout"
	}
	h.logger.Error("query failed", "error", err, "session_id", resp.SessionID)

	writeJSON(w, http.StatusBadGateway, generationFailedResponse{
		Error:           code,
		Message:         "an answer could not be generated for this question, please try again",
		CrisisDetected:  resp.CrisisDetected,
		CrisisResources: toWireResources(resp.CrisisResources),
		SessionID:       resp.SessionID,
	}, h.logger)
}
