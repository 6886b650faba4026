// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/helix-id/helix/internal/shared"
)

// Error type names carried on problem responses, matching the typed error
// payloads exchanged with the platform's other services.
const (
	TypeNotFound            = "NotFound"
	TypeInvalidOperation    = "InvalidOperation"
	TypeAlreadyExists       = "AlreadyExists"
	TypeInternalServerError = "InternalServerError"
)

// RespondError maps taxonomy errors to problem responses.
func RespondError(w http.ResponseWriter, err error) {
	var verr validator.ValidationErrors
	switch {
	case errors.Is(err, shared.ErrMalformedReference):
		Problem(w, http.StatusBadRequest, TypeInvalidOperation, err.Error())
	case errors.As(err, &verr):
		Problem(w, http.StatusBadRequest, TypeInvalidOperation, err.Error())
	case errors.Is(err, shared.ErrAccountInvalid):
		Problem(w, http.StatusUnprocessableEntity, TypeInvalidOperation, err.Error())
	case errors.Is(err, shared.ErrTokenInvalid):
		Problem(w, http.StatusUnprocessableEntity, TypeInvalidOperation, err.Error())
	case errors.Is(err, shared.ErrAlreadyInState):
		Problem(w, http.StatusConflict, TypeInvalidOperation, err.Error())
	case errors.Is(err, shared.ErrAlreadyExists):
		Problem(w, http.StatusConflict, TypeAlreadyExists, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, TypeNotFound, err.Error())
	default:
		Problem(w, http.StatusInternalServerError, TypeInternalServerError, "")
	}
}
