package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/naze-ai/naze/internal/auth"
	"github.com/naze-ai/naze/internal/ratelimit"
	"github.com/naze-ai/naze/internal/service/causes"
	"github.com/naze-ai/naze/internal/service/questions"
	"github.com/naze-ai/naze/internal/service/validation"
)

// Server is the Naze HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// ServerConfig holds all dependencies and configuration for creating a Server.
// Limiter is optional (nil = no request throttling). DB is any userStore
// implementation; *storage.DB in production.
type ServerConfig struct {
	DB          userStore
	JWTMgr      *auth.JWTManager
	QuestionSvc *questions.Service
	CauseSvc    *causes.Service
	Validator   *validation.Engine
	Limiter     ratelimit.Limiter
	Logger      *slog.Logger

	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		DB:                  cfg.DB,
		JWTMgr:              cfg.JWTMgr,
		QuestionSvc:         cfg.QuestionSvc,
		CauseSvc:            cfg.CauseSvc,
		Validator:           cfg.Validator,
		Logger:              cfg.Logger,
		Version:             cfg.Version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	mux := http.NewServeMux()

	// Auth (no auth required; rate limited by IP via the shared limiter).
	mux.HandleFunc("POST /auth/token", h.HandleAuthToken)

	// Questions.
	mux.HandleFunc("POST /v1/questions", h.HandleCreateQuestion)
	mux.HandleFunc("GET /v1/questions/{question_id}", h.HandleGetQuestion)
	mux.HandleFunc("PATCH /v1/questions/{question_id}/mode", h.HandleUpdateQuestionMode)

	// Causes.
	mux.HandleFunc("POST /v1/questions/{question_id}/causes", h.HandleCreateCause)
	mux.HandleFunc("GET /v1/questions/{question_id}/causes", h.HandleListCauses)
	mux.HandleFunc("GET /v1/questions/{question_id}/causes/{cause_id}", h.HandleGetCause)
	mux.HandleFunc("PATCH /v1/questions/{question_id}/causes/{cause_id}", h.HandleUpdateCause)

	// Validation workflow.
	mux.HandleFunc("POST /v1/questions/{question_id}/validate", h.HandleValidate)

	// Health (no auth, no rate limit).
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → auth → rate limit → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = rateLimitMiddleware(cfg.Limiter, cfg.Logger, handler)
	handler = authMiddleware(cfg.JWTMgr, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   cfg.Logger,
	}
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
