package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeLex      ErrorType = "lex"
	ErrorTypeParse    ErrorType = "parse"
	ErrorTypeEval     ErrorType = "eval"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeProvider ErrorType = "provider"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeNetwork  ErrorType = "network"
	ErrorTypeInternal ErrorType = "internal"
)

// LumenError is a structured error type with context.
type LumenError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Widget  string
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *LumenError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Widget != "" {
		parts = append(parts, "widget:"+e.Widget)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *LumenError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *LumenError) Is(target error) bool {
	var t *LumenError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *LumenError) WithContext(key string, value interface{}) *LumenError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithWidget adds widget context.
func (e *LumenError) WithWidget(widget string) *LumenError {
	e.Widget = widget

	return e
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *LumenError {
	return &LumenError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewProviderError creates a provider error.
func NewProviderError(code, message string, cause error) *LumenError {
	return &LumenError{
		Type:    ErrorTypeProvider,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *LumenError {
	return &LumenError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(code, message string, cause error) *LumenError {
	return &LumenError{
		Type:    ErrorTypeNetwork,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *LumenError {
	return &LumenError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
