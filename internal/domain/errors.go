package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrAuthRequired      = errors.New("authentication required")
	ErrRateLimitReached  = errors.New("contact limit reached, rate a previous contact first")
	ErrRatingRequired    = errors.New("a rating is required before continuing")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrInvalidPhone      = errors.New("phone number must have at least 9 digits")
	ErrInvalidOtp        = errors.New("invalid otp")
	ErrOtpLocked         = errors.New("too many otp attempts")
	ErrOtpNotRequested   = errors.New("otp has not been requested")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidView       = errors.New("unknown view")
	ErrAlreadyFlagged    = errors.New("provider already flagged in this session")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects field errors. A nil or empty value means valid.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// Required records a "is required" error when value is blank.
func (v *ValidationErrors) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
	}
}

// Err returns nil when no field errors were collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
