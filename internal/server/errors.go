package server

import (
	"errors"
	"net/http"

	"github.com/naze-ai/naze/internal/authz"
	"github.com/naze-ai/naze/internal/model"
	"github.com/naze-ai/naze/internal/oracle"
	"github.com/naze-ai/naze/internal/service/validation"
	"github.com/naze-ai/naze/internal/storage"
)

// mapError translates a service-layer error into an HTTP status and error
// code. Unrecognized errors map to 500 INTERNAL_ERROR with a generic message
// so internals never leak to clients.
func mapError(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, model.ErrCodeNotFound, "resource not found"
	case errors.Is(err, storage.ErrConflict):
		return http.StatusConflict, model.ErrCodeConflict, "resource already exists"
	case errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden, model.ErrCodeForbidden, "access denied"
	case errors.Is(err, validation.ErrBrokenChain):
		return http.StatusConflict, model.ErrCodeBrokenChain, "cause chain is broken: a deeper cause has no parent"
	case errors.Is(err, oracle.ErrAmbiguousAnswer):
		return http.StatusBadGateway, model.ErrCodeAmbiguous, "reasoning service returned an unusable answer"
	case errors.Is(err, oracle.ErrServiceUnavailable):
		return http.StatusBadGateway, model.ErrCodeAIService, "reasoning service unavailable"
	default:
		return http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error"
	}
}

// writeServiceError maps err and writes the envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := mapError(err)
	writeError(w, r, status, code, message)
}
