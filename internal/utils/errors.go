package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the failure taxonomy. Handlers map these to HTTP statuses;
// services use the Is* helpers to branch without string matching.
const (
	CodeNotConfigured     = "not_configured"
	CodeUnsupportedFormat = "unsupported_format"
	CodeNoExtractableText = "no_extractable_text"
	CodeCompletion        = "completion_error"
	CodeRemoteFetch       = "remote_fetch_error"
	CodeBadRequest        = "bad_request"
	CodeUnauthorized      = "unauthorized"
	CodeNotFound          = "not_found"
	CodeInternal          = "internal_error"
)

type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewBadRequestError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Code: CodeBadRequest, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{StatusCode: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Code: CodeInternal, Message: message}
}

// NewNotConfiguredError marks a missing-credentials condition. Never retried.
func NewNotConfiguredError(message string) *AppError {
	return &AppError{StatusCode: http.StatusServiceUnavailable, Code: CodeNotConfigured, Message: message}
}

// NewUnsupportedFormatError marks a client input problem (e.g. legacy .doc).
func NewUnsupportedFormatError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Code: CodeUnsupportedFormat, Message: message}
}

// NewNoExtractableTextError marks a batch in which every document was degenerate.
func NewNoExtractableTextError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Code: CodeNoExtractableText, Message: message}
}

// NewCompletionError wraps an upstream LLM transport/parse failure. Transient;
// the caller may retry the whole request.
func NewCompletionError(message string, err error) *AppError {
	return &AppError{StatusCode: http.StatusBadGateway, Code: CodeCompletion, Message: message, Err: err}
}

// NewRemoteFetchError wraps a document-store or blob-store transport failure.
func NewRemoteFetchError(message string, err error) *AppError {
	return &AppError{StatusCode: http.StatusBadGateway, Code: CodeRemoteFetch, Message: message, Err: err}
}

func codeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func IsNotConfigured(err error) bool     { return codeOf(err) == CodeNotConfigured }
func IsNotFound(err error) bool          { return codeOf(err) == CodeNotFound }
func IsUnsupportedFormat(err error) bool { return codeOf(err) == CodeUnsupportedFormat }
func IsNoExtractableText(err error) bool { return codeOf(err) == CodeNoExtractableText }
func IsCompletionError(err error) bool   { return codeOf(err) == CodeCompletion }
func IsRemoteFetchError(err error) bool  { return codeOf(err) == CodeRemoteFetch }
