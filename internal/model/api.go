package model

import (
	"fmt"
	"strings"
	"time"
)

// Field length limits. These bound what flows into oracle prompts and
// Postgres TEXT columns; an oversized cause would blow the oracle's token
// budget long before it troubled the database.
const (
	MaxQuestionLen = 4 * 1024
	MaxCauseLen    = 4 * 1024
	MaxUsernameLen = 150
)

// APIResponse is the standard success envelope.
type APIResponse struct {
	Data any          `json:"data"`
	Meta ResponseMeta `json:"meta"`
}

// APIError is the standard error envelope.
type APIError struct {
	Error ErrorDetail  `json:"error"`
	Meta  ResponseMeta `json:"meta"`
}

// ResponseMeta contains request metadata included in every response.
type ResponseMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorCode constants for standard API error codes.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeBrokenChain   = "BROKEN_CHAIN"
	ErrCodeAIService     = "AI_SERVICE_ERROR"
	ErrCodeAmbiguous     = "AMBIGUOUS_ANSWER"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeRateLimited   = "RATE_LIMITED"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Postgres string `json:"postgres"`
	Uptime   int64  `json:"uptime_seconds"`
}

// AuthTokenRequest is the request body for POST /auth/token.
type AuthTokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthTokenResponse is the response body for POST /auth/token.
type AuthTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateQuestionRequest is the request body for POST /v1/questions.
type CreateQuestionRequest struct {
	Question string `json:"question"`
	Mode     Mode   `json:"mode"`
}

// Validate checks the request fields.
func (r CreateQuestionRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return fmt.Errorf("question must not be empty")
	}
	if len(r.Question) > MaxQuestionLen {
		return fmt.Errorf("question exceeds maximum length of %d bytes", MaxQuestionLen)
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("mode must be one of PRIVATE, SUPERVISED, PUBLIC (got %q)", r.Mode)
	}
	return nil
}

// UpdateQuestionModeRequest is the request body for PATCH /v1/questions/{question_id}/mode.
type UpdateQuestionModeRequest struct {
	Mode Mode `json:"mode"`
}

// Validate checks the request fields.
func (r UpdateQuestionModeRequest) Validate() error {
	if !r.Mode.Valid() {
		return fmt.Errorf("mode must be one of PRIVATE, SUPERVISED, PUBLIC (got %q)", r.Mode)
	}
	return nil
}

// CreateCauseRequest is the request body for POST /v1/questions/{question_id}/causes.
type CreateCauseRequest struct {
	Cause  string `json:"cause"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Mode   Mode   `json:"mode"`
}

// Validate checks the request fields. Rows and columns are 1-based.
func (r CreateCauseRequest) Validate() error {
	if strings.TrimSpace(r.Cause) == "" {
		return fmt.Errorf("cause must not be empty")
	}
	if len(r.Cause) > MaxCauseLen {
		return fmt.Errorf("cause exceeds maximum length of %d bytes", MaxCauseLen)
	}
	if r.Row < 1 {
		return fmt.Errorf("row must be a positive integer (got %d)", r.Row)
	}
	if r.Column < 1 {
		return fmt.Errorf("column must be a positive integer (got %d)", r.Column)
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("mode must be one of PRIVATE, SUPERVISED, PUBLIC (got %q)", r.Mode)
	}
	return nil
}

// UpdateCauseRequest is the request body for PATCH /v1/questions/{question_id}/causes/{cause_id}.
type UpdateCauseRequest struct {
	Cause string `json:"cause"`
}

// Validate checks the request fields.
func (r UpdateCauseRequest) Validate() error {
	if strings.TrimSpace(r.Cause) == "" {
		return fmt.Errorf("cause must not be empty")
	}
	if len(r.Cause) > MaxCauseLen {
		return fmt.Errorf("cause exceeds maximum length of %d bytes", MaxCauseLen)
	}
	return nil
}
