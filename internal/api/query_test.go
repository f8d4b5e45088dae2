package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carenav/carenav/internal/crisis"
	"github.com/carenav/carenav/internal/rag"
	"github.com/carenav/carenav/internal/testutil"
)

type stubQueryService struct {
	resp   rag.Response
	err    error
	calls  int
	lastIn rag.Request
}

func (s *stubQueryService) Answer(_ context.Context, req rag.Request) (rag.Response, error) {
	s.calls++
	s.lastIn = req
	resp := s.resp
	if resp.SessionID == "" {
		resp.SessionID = req.SessionID
	}
	return resp, s.err
}

func postQuery(t *testing.T, h *queryHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.handleQuery(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestQueryHandler_Success(t *testing.T) {
	service := &stubQueryService{
		resp: rag.Response{
			Answer:    "The Innovations Waiver funds community services.",
			Citations: []rag.Citation{{Title: "Waiver Guide", RelevanceScore: 0.9}},
		},
	}
	h := &queryHandler{service: service, logger: testutil.DiscardLogger()}

	w := postQuery(t, h, `{"query":"What is the waiver?","view_type":"patient","session_id":"s-1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	body := decodeBody(t, w)
	assert.Equal(t, "The Innovations Waiver funds community services.", body["response"])
	assert.Equal(t, "s-1", body["session_id"])
	assert.Equal(t, false, body["crisis_detected"])
	assert.NotContains(t, body, "crisis_resources")

	citations, ok := body["citations"].([]any)
	require.True(t, ok)
	require.Len(t, citations, 1)

	assert.Equal(t, rag.ViewPatient, service.lastIn.View)
	assert.Equal(t, "What is the waiver?", service.lastIn.Query)
}

func TestQueryHandler_GeneratesSessionID(t *testing.T) {
	service := &stubQueryService{resp: rag.Response{Answer: "ok"}}
	h := &queryHandler{service: service, logger: testutil.DiscardLogger()}

	w := postQuery(t, h, `{"query":"q","view_type":"provider"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NotEmpty(t, service.lastIn.SessionID)
	_, err := uuid.Parse(service.lastIn.SessionID)
	assert.NoError(t, err, "generated session id should be a UUID")

	body := decodeBody(t, w)
	assert.Equal(t, service.lastIn.SessionID, body["session_id"])
}

func TestQueryHandler_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"invalid json", `{"query":`, "invalid_request"},
		{"missing query", `{"view_type":"patient"}`, "missing_query"},
		{"query too long", `{"query":"` + strings.Repeat("a", maxQueryLength+1) + `","view_type":"patient"}`, "query_too_long"},
		{"missing view type", `{"query":"q"}`, "invalid_view_type"},
		{"unknown view type", `{"query":"q","view_type":"clinician"}`, "invalid_view_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubQueryService{resp: rag.Response{Answer: "never"}}
			h := &queryHandler{service: service, logger: testutil.DiscardLogger()}

			w := postQuery(t, h, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tt.wantCode, body["error"])
			assert.Zero(t, service.calls, "invalid input must never reach the pipeline")
		})
	}
}

func TestQueryHandler_GenerationFailure(t *testing.T) {
	service := &stubQueryService{
		resp: rag.Response{
			CrisisDetected: true,
			CrisisResources: []crisis.Resource{
				{Name: "988 Suicide & Crisis Lifeline", Phone: "988", Description: "24/7 support"},
			},
		},
		err: rag.ErrGenerationFailure,
	}
	h := &queryHandler{service: service, logger: testutil.DiscardLogger()}

	w := postQuery(t, h, `{"query":"I feel hopeless","view_type":"patient","session_id":"s-9"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "generation_failed", body["error"])
	assert.Equal(t, true, body["crisis_detected"], "crisis payload must survive a generation failure")
	assert.Equal(t, "s-9", body["session_id"])

	resources, ok := body["crisis_resources"].([]any)
	require.True(t, ok)
	require.Len(t, resources, 1)
	first, ok := resources[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "988 Suicide & Crisis Lifeline", first["name"])
	assert.Equal(t, "988", first["phone"])
}

func TestQueryHandler_GenerationTimeout(t *testing.T) {
	service := &stubQueryService{err: rag.ErrGenerationTimeout}
	h := &queryHandler{service: service, logger: testutil.DiscardLogger()}

	w := postQuery(t, h, `{"query":"q","view_type":"provider"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "generation_timeout", body["error"])
}

func TestQueryHandler_ClientErrorFromPipeline(t *testing.T) {
	service := &stubQueryService{err: rag.ErrEmptyQuery}
	h := &queryHandler{service: service, logger: testutil.DiscardLogger()}

	// Whitespace-only query passes the handler's empty check but is rejected
	// by the orchestrator.
	w := postQuery(t, h, `{"query":"   ","view_type":"patient"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "invalid_request", body["error"])
}
