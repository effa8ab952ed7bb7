package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/naze-ai/naze/internal/auth"
	"github.com/naze-ai/naze/internal/model"
	"github.com/naze-ai/naze/internal/service/causes"
	"github.com/naze-ai/naze/internal/service/questions"
	"github.com/naze-ai/naze/internal/service/validation"
)

// userStore is the slice of storage the login handler needs.
type userStore interface {
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	Ping(ctx context.Context) error
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	db                  userStore
	jwtMgr              *auth.JWTManager
	questionSvc         *questions.Service
	causeSvc            *causes.Service
	validator           *validation.Engine
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64
}

// HandlersDeps holds all dependencies for constructing Handlers.
// DB is any userStore implementation; *storage.DB in production.
type HandlersDeps struct {
	DB                  userStore
	JWTMgr              *auth.JWTManager
	QuestionSvc         *questions.Service
	CauseSvc            *causes.Service
	Validator           *validation.Engine
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		db:                  d.DB,
		jwtMgr:              d.JWTMgr,
		questionSvc:         d.QuestionSvc,
		causeSvc:            d.CauseSvc,
		validator:           d.Validator,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
	}
}

// HandleAuthToken handles POST /auth/token.
// Exchanges username/password for a JWT.
func (h *Handlers) HandleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req model.AuthTokenRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "username and password are required")
		return
	}

	user, err := h.db.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		// Burn comparable time so unknown usernames aren't distinguishable
		// by response latency.
		auth.DummyVerify()
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	valid, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !valid {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken(user)
	if err != nil {
		h.writeInternalError(w, r, "failed to issue token", err)
		return
	}

	writeJSON(w, r, http.StatusOK, model.AuthTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// HandleCreateQuestion handles POST /v1/questions.
func (h *Handlers) HandleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req model.CreateQuestionRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	q, err := h.questionSvc.Create(r.Context(), userFromContext(r.Context()), req.Question, req.Mode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, q)
}

// HandleGetQuestion handles GET /v1/questions/{question_id}.
func (h *Handlers) HandleGetQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathUUID(w, r, "question_id")
	if !ok {
		return
	}
	q, err := h.questionSvc.Get(r.Context(), userFromContext(r.Context()), questionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, q)
}

// HandleUpdateQuestionMode handles PATCH /v1/questions/{question_id}/mode.
func (h *Handlers) HandleUpdateQuestionMode(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathUUID(w, r, "question_id")
	if !ok {
		return
	}
	var req model.UpdateQuestionModeRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	q, err := h.questionSvc.UpdateMode(r.Context(), userFromContext(r.Context()), questionID, req.Mode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, q)
}

// HandleCreateCause handles POST /v1/questions/{question_id}/causes.
func (h *Handlers) HandleCreateCause(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathUUID(w, r, "question_id")
	if !ok {
		return
	}
	var req model.CreateCauseRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	c, err := h.causeSvc.Create(r.Context(), questionID, req.Cause, req.Row, req.Column, req.Mode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, c)
}

// HandleListCauses handles GET /v1/questions/{question_id}/causes.
func (h *Handlers) HandleListCauses(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathUUID(w, r, "question_id")
	if !ok {
		return
	}
	list, err := h.causeSvc.List(r.Context(), userFromContext(r.Context()), questionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []model.Cause{}
	}
	writeJSON(w, r, http.StatusOK, list)
}

// HandleGetCause handles GET /v1/questions/{question_id}/causes/{cause_id}.
func (h *Handlers) HandleGetCause(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathUUID(w, r, "question_id")
	if !ok {
		return
	}
	causeID, ok := pathUUID(w, r, "cause_id")
	if !ok {
		return
	}
	c, err := h.causeSvc.Get(r.Context(), userFromContext(r.Context()), questionID, causeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

// HandleUpdateCause handles PATCH /v1/questions/{question_id}/causes/{cause_id}.
func (h *Handlers) HandleUpdateCause(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathUUID(w, r, "question_id")
	if !ok {
		return
	}
	causeID, ok := pathUUID(w, r, "cause_id")
	if !ok {
		return
	}
	var req model.UpdateCauseRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	c, err := h.causeSvc.UpdateText(r.Context(), userFromContext(r.Context()), questionID, causeID, req.Cause)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

// HandleValidate handles POST /v1/questions/{question_id}/validate.
// Runs the validation workflow against the question's deepest cause row and
// returns the refreshed cause grid.
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathUUID(w, r, "question_id")
	if !ok {
		return
	}
	user := userFromContext(r.Context())

	// The view guard gates validation; the run itself needs no further
	// authorization.
	if _, err := h.questionSvc.Get(r.Context(), user, questionID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.validator.ValidateQuestion(r.Context(), questionID); err != nil {
		h.logger.Warn("validation run failed", "question_id", questionID, "error", err)
		writeServiceError(w, r, err)
		return
	}

	list, err := h.causeSvc.List(r.Context(), user, questionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []model.Cause{}
	}
	writeJSON(w, r, http.StatusOK, list)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	pgStatus := "connected"
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.Ping(r.Context()); err != nil {
		pgStatus = "disconnected"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, r, httpStatus, model.HealthResponse{
		Status:   status,
		Version:  h.version,
		Postgres: pgStatus,
		Uptime:   int64(time.Since(h.startedAt).Seconds()),
	})
}

// writeInternalError logs the underlying error and writes a generic 500.
func (h *Handlers) writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, "error", err, "request_id", RequestIDFromContext(r.Context()))
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, msg)
}

// pathUUID parses a UUID path segment, writing a 400 on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
