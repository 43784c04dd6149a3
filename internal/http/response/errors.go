package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/noid254/nikosoko/internal/contactgate"
	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/payments"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/pkg/logger"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeAuthRequired       = "AUTH_REQUIRED"
	ErrCodeSessionExpired     = "SESSION_EXPIRED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeContactLimit       = "CONTACT_LIMIT_REACHED"
	ErrCodeRatingRequired     = "RATING_REQUIRED"
	ErrCodeInvalidRating      = "INVALID_RATING"
	ErrCodeInvalidPhone       = "INVALID_PHONE"
	ErrCodeInvalidOtp         = "INVALID_OTP"
	ErrCodeOtpLocked          = "OTP_LOCKED"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeChannelUnavailable = "CHANNEL_UNAVAILABLE"
	ErrCodeAlreadyFlagged     = "ALREADY_FLAGGED"
	ErrCodePaymentDeclined    = "PAYMENT_DECLINED"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
)

// PendingContact is the detail attached to CONTACT_LIMIT_REACHED.
type PendingContact interface {
	PendingContact() contactgate.Contact
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

func Created(w http.ResponseWriter, v any) {
	JSON(w, http.StatusCreated, v)
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, message, code string) {
	JSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteErrorWithDetails writes an error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code string, details any) {
	JSON(w, statusCode, ErrorResponse{Error: message, Code: code, Details: details})
}

// Common error helpers
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, ErrCodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, ErrCodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, ErrCodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, ErrCodeNotFound)
}

func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.ErrorContext(r.Context(), "Internal error", "error", err, "path", r.URL.Path)
	WriteError(w, http.StatusInternalServerError, "Internal server error", ErrCodeInternal)
}

func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message, ErrCodeConflict)
}

type mapping struct {
	target error
	status int
	code   string
}

var mappings = []mapping{
	{domain.ErrAuthRequired, http.StatusUnauthorized, ErrCodeAuthRequired},
	{domain.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
	{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrConflict, http.StatusConflict, ErrCodeConflict},
	{domain.ErrAlreadyFlagged, http.StatusConflict, ErrCodeAlreadyFlagged},
	{domain.ErrRatingRequired, http.StatusConflict, ErrCodeRatingRequired},
	{domain.ErrInvalidRating, http.StatusBadRequest, ErrCodeInvalidRating},
	{domain.ErrInvalidPhone, http.StatusBadRequest, ErrCodeInvalidPhone},
	{domain.ErrInvalidOtp, http.StatusUnauthorized, ErrCodeInvalidOtp},
	{domain.ErrOtpLocked, http.StatusTooManyRequests, ErrCodeOtpLocked},
	{domain.ErrOtpNotRequested, http.StatusConflict, ErrCodeInvalidTransition},
	{domain.ErrInvalidTransition, http.StatusConflict, ErrCodeInvalidTransition},
	{domain.ErrInvalidView, http.StatusBadRequest, ErrCodeInvalidInput},
	{contactgate.ErrChannelUnavailable, http.StatusUnprocessableEntity, ErrCodeChannelUnavailable},
	{payments.ErrDeclined, http.StatusPaymentRequired, ErrCodePaymentDeclined},
}

// FromError maps a service error onto the envelope. Unknown errors are
// logged and reported as 500.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	var verr domain.ValidationErrors
	if errors.As(err, &verr) {
		WriteErrorWithDetails(w, http.StatusBadRequest, "Validation failed", ErrCodeValidation, []domain.FieldError(verr))
		return
	}

	if errors.Is(err, domain.ErrRateLimitReached) {
		var pending PendingContact
		if errors.As(err, &pending) {
			WriteErrorWithDetails(w, http.StatusTooManyRequests, domain.ErrRateLimitReached.Error(), ErrCodeContactLimit,
				map[string]any{"pending": pending.PendingContact()})
			return
		}
		WriteError(w, http.StatusTooManyRequests, domain.ErrRateLimitReached.Error(), ErrCodeContactLimit)
		return
	}

	if errors.Is(err, session.ErrNotFound) {
		WriteError(w, http.StatusUnauthorized, "Session expired, start a new one", ErrCodeSessionExpired)
		return
	}

	for _, m := range mappings {
		if errors.Is(err, m.target) {
			WriteError(w, m.status, m.target.Error(), m.code)
			return
		}
	}

	InternalError(w, r, err)
}
