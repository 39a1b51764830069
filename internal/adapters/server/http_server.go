package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mikey/fraud-sentinel/internal/appeal"
	"github.com/mikey/fraud-sentinel/internal/core"
)

// HTTPServer exposes the evaluation engine over a small REST surface.
// It only translates between JSON and the engine types; every verdict
// decision stays in the engine.
type HTTPServer struct {
	engine     *core.Engine
	appeals    appeal.Store
	logger     *zap.Logger
	listenAddr string
	server     *http.Server
}

// entryRequest is the wire form of one entry.
type entryRequest struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	IP               string  `json:"ip"`
	DeviceID         string  `json:"device_id,omitempty"`
	Timestamp        string  `json:"timestamp,omitempty"`
	ActionsPerMinute float64 `json:"actions_per_minute"`
	DuplicateEmail   bool    `json:"duplicate_email,omitempty"`
}

// evaluationResponse is the wire form of one verdict.
type evaluationResponse struct {
	EntryID      string                 `json:"entry_id"`
	Email        string                 `json:"email"`
	IP           string                 `json:"ip"`
	Flags        []string               `json:"flags"`
	Severity     string                 `json:"severity"`
	Confidence   float64                `json:"confidence"`
	RawLookup    map[string]interface{} `json:"raw_lookup,omitempty"`
	EvaluatedAt  time.Time              `json:"evaluated_at"`
	EvaluationID string                 `json:"evaluation_id"`
	AppealStatus string                 `json:"appeal_status,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPServer creates a new HTTP entry server. The appeal store may
// be nil; responses then carry no appeal overlay.
func NewHTTPServer(engine *core.Engine, appeals appeal.Store, logger *zap.Logger, listenAddr string) *HTTPServer {
	s := &HTTPServer{
		engine:     engine,
		appeals:    appeals,
		logger:     logger,
		listenAddr: listenAddr,
	}

	router := mux.NewRouter()
	router.HandleFunc("/v1/evaluate", s.handleEvaluate).Methods(http.MethodPost)
	router.HandleFunc("/v1/evaluate/batch", s.handleEvaluateBatch).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         listenAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler exposes the router for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start starts serving in the background.
func (s *HTTPServer) Start() error {
	s.logger.Info("Starting HTTP entry server", zap.String("listen_address", s.listenAddr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Email == "" || req.IP == "" {
		s.writeError(w, http.StatusBadRequest, "email and ip are required")
		return
	}

	resp := s.evaluate(r.Context(), &req)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []entryRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	responses := make([]*evaluationResponse, 0, len(reqs))
	for i := range reqs {
		if reqs[i].Email == "" || reqs[i].IP == "" {
			s.writeError(w, http.StatusBadRequest, "email and ip are required for every entry")
			return
		}
		responses = append(responses, s.evaluate(r.Context(), &reqs[i]))
	}

	s.writeJSON(w, http.StatusOK, responses)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) evaluate(ctx context.Context, req *entryRequest) *evaluationResponse {
	entry := &core.Entry{
		ID:               req.ID,
		Email:            req.Email,
		IP:               req.IP,
		DeviceID:         req.DeviceID,
		Timestamp:        req.Timestamp,
		ActionsPerMinute: req.ActionsPerMinute,
		DuplicateEmail:   req.DuplicateEmail,
	}

	result := s.engine.Evaluate(ctx, entry)

	resp := &evaluationResponse{
		EntryID:      result.EntryID,
		Email:        result.Email,
		IP:           result.IP,
		Flags:        result.Flags,
		Severity:     string(result.Severity),
		Confidence:   result.Confidence,
		RawLookup:    result.RawLookup,
		EvaluatedAt:  result.EvaluatedAt,
		EvaluationID: result.EvaluationID,
	}

	if s.appeals != nil {
		status, ok, err := s.appeals.Status(ctx, result.Email, result.IP)
		if err != nil {
			s.logger.Error("Failed to look up appeal status",
				zap.String("email", result.Email),
				zap.Error(err))
		} else if ok {
			resp.AppealStatus = status
		}
	}

	return resp
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
