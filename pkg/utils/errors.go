package utils

import (
	"fmt"
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func NewAppError(code string, message string, details ...string) *AppError {
	err := &AppError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes carried in the response envelope
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeOptimization     = "OPTIMIZATION_ERROR"
	ErrCodeInfeasible       = "INFEASIBLE"
	ErrCodeNoStack          = "NO_STACK_AVAILABLE"
	ErrCodeInvalidLineup    = "INVALID_LINEUP"
	ErrCodeTimeout          = "OPTIMIZATION_TIMEOUT"
	ErrCodeSlateUnavailable = "SLATE_UNAVAILABLE"
	ErrCodeSlateMalformed   = "SLATE_MALFORMED"
)
