package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeParsing          ErrorType = "PARSING"
	ErrTypeValidation       ErrorType = "VALIDATION"
	ErrTypeInsufficientData ErrorType = "INSUFFICIENT_DATA"
	ErrTypeConsensusNotMet  ErrorType = "CONSENSUS_NOT_MET"
	ErrTypeConfig           ErrorType = "CONFIG"
	ErrTypeStorage          ErrorType = "STORAGE"
)

// Fatal reports whether errors of this type abort the caller.
// Tally diagnostics (parsing, validation, insufficient data, consensus) never do.
func (t ErrorType) Fatal() bool {
	switch t {
	case ErrTypeConfig, ErrTypeStorage:
		return true
	default:
		return false
	}
}

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another *AppError of the same type, so sentinels can be compared with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Sentinels for errors.Is checks. Only the Type is compared.
var (
	ErrParsing          = &AppError{Type: ErrTypeParsing}
	ErrValidation       = &AppError{Type: ErrTypeValidation}
	ErrInsufficientData = &AppError{Type: ErrTypeInsufficientData}
	ErrConsensusNotMet  = &AppError{Type: ErrTypeConsensusNotMet}
	ErrConfig           = &AppError{Type: ErrTypeConfig}
	ErrStorage          = &AppError{Type: ErrTypeStorage}
)

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewInsufficientDataError creates an insufficient data error
func NewInsufficientDataError(message string) *AppError {
	return NewAppError(ErrTypeInsufficientData, message, nil)
}

// NewConsensusNotMetError creates a consensus error
func NewConsensusNotMetError(message string) *AppError {
	return NewAppError(ErrTypeConsensusNotMet, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// CountByType tallies a diagnostics list by error type.
func CountByType(errs []*AppError) map[ErrorType]int {
	counts := make(map[ErrorType]int)
	for _, e := range errs {
		if e != nil {
			counts[e.Type]++
		}
	}
	return counts
}
