package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/fraud-sentinel/internal/appeal"
	"github.com/mikey/fraud-sentinel/internal/core"
)

type stubRegistry struct{}

func (stubRegistry) IsDisposable(email string) bool { return false }

type stubTracker struct{}

func (stubTracker) CheckAndRecord(ctx context.Context, kind core.IdentityKind, key string, observedAt time.Time) (bool, error) {
	return false, nil
}

type stubResolver struct {
	info core.ReputationInfo
}

func (r stubResolver) Lookup(ctx context.Context, ip string) (*core.ReputationInfo, error) {
	info := r.info
	return &info, nil
}

func newTestServer(appeals appeal.Store) *HTTPServer {
	engine := core.NewEngine(
		stubRegistry{},
		stubTracker{},
		stubResolver{info: core.ReputationInfo{Org: "Example Net"}},
		nil,
		zap.NewNop(),
	)
	return NewHTTPServer(engine, appeals, zap.NewNop(), ":0")
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleEvaluate(t *testing.T) {
	srv := newTestServer(nil)

	rec := postJSON(t, srv.Handler(), "/v1/evaluate", map[string]interface{}{
		"id":                 "e-1",
		"email":              "Alice@Example.com",
		"ip":                 "203.0.113.7",
		"actions_per_minute": 2,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp evaluationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, "e-1", resp.EntryID)
	assert.Equal(t, "alice@example.com", resp.Email)
	assert.Equal(t, "low", resp.Severity)
	assert.Equal(t, []string{"No issues detected"}, resp.Flags)
	assert.NotEmpty(t, resp.EvaluationID)
	assert.Empty(t, resp.AppealStatus)
}

func TestHandleEvaluateRequiresEmailAndIP(t *testing.T) {
	srv := newTestServer(nil)

	rec := postJSON(t, srv.Handler(), "/v1/evaluate", map[string]interface{}{
		"email": "alice@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, srv.Handler(), "/v1/evaluate", map[string]interface{}{
		"ip": "203.0.113.7",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEvaluateRejectsMalformedJSON(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "invalid JSON body", resp.Error)
}

func TestHandleEvaluateBatch(t *testing.T) {
	srv := newTestServer(nil)

	rec := postJSON(t, srv.Handler(), "/v1/evaluate/batch", []map[string]interface{}{
		{"id": "e-1", "email": "alice@example.com", "ip": "203.0.113.7"},
		{"id": "e-2", "email": "bob@example.com", "ip": "198.51.100.1", "actions_per_minute": 25},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resps []evaluationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resps))
	require.Len(t, resps, 2)

	assert.Equal(t, "low", resps[0].Severity)
	assert.Equal(t, "medium", resps[1].Severity)
	assert.Contains(t, resps[1].Flags, "Bot-like behavior")
}

func TestHandleEvaluateBatchRejectsIncompleteEntry(t *testing.T) {
	srv := newTestServer(nil)

	rec := postJSON(t, srv.Handler(), "/v1/evaluate/batch", []map[string]interface{}{
		{"id": "e-1", "email": "alice@example.com", "ip": "203.0.113.7"},
		{"id": "e-2", "email": "", "ip": "198.51.100.1"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEvaluateAppealOverlay(t *testing.T) {
	appeals := appeal.NewMemoryStore()
	appeals.Put("alice@example.com", "203.0.113.7", "under_review")
	srv := newTestServer(appeals)

	rec := postJSON(t, srv.Handler(), "/v1/evaluate", map[string]interface{}{
		"email": "Alice@Example.com",
		"ip":    "203.0.113.7",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp evaluationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "under_review", resp.AppealStatus)

	// No appeal recorded for this identity pair.
	rec = postJSON(t, srv.Handler(), "/v1/evaluate", map[string]interface{}{
		"email": "bob@example.com",
		"ip":    "203.0.113.7",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp = evaluationResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.AppealStatus)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestMetricsEndpointRegistered(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
