package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/weather-skill-service/internal/adapter/alexa"
	"github.com/couchcryptid/weather-skill-service/internal/domain"
	"github.com/couchcryptid/weather-skill-service/internal/skill"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SkillHandler answers one voice request.
type SkillHandler interface {
	Handle(ctx context.Context, req domain.Request) skill.Outcome
}

// Recorder receives a record of every answered request.
type Recorder interface {
	Record(rec domain.DispatchRecord)
}

// Server exposes the skill webhook plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	skill      SkillHandler
	recorder   Recorder
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /skill, /healthz, /readyz, and /metrics
// routes. recorder may be nil.
func NewServer(addr string, handler SkillHandler, ready sharedobs.ReadinessChecker, recorder Recorder, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		skill:    handler,
		recorder: recorder,
		logger:   logger,
	}

	mux.HandleFunc("POST /skill", s.handleSkill)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleSkill(w http.ResponseWriter, r *http.Request) {
	req, err := alexa.DecodeRequest(r.Body)
	if err != nil {
		s.logger.Warn("rejected skill request", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	out := s.skill.Handle(r.Context(), req)
	s.logger.Debug("skill request handled",
		"request_id", req.ID,
		"request_type", req.Type,
		"intent", req.IntentName,
		"kind", out.Kind.String(),
		"failed", out.Failed(),
	)

	writeJSON(w, http.StatusOK, alexa.NewResponse(out.Utterance))

	if s.recorder != nil {
		s.recorder.Record(dispatchRecord(req, out))
	}
}

func dispatchRecord(req domain.Request, out skill.Outcome) domain.DispatchRecord {
	return domain.DispatchRecord{
		ID:          uuid.NewString(),
		RequestID:   req.ID,
		SessionID:   req.SessionID,
		RequestType: req.Type,
		IntentName:  req.IntentName,
		Kind:        out.Kind.String(),
		Speech:      out.Utterance.Speech,
		EndSession:  out.Utterance.EndSession,
		Failed:      out.Failed(),
		HandledAt:   domain.Now(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
