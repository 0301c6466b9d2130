package llm

import (
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
)

// ErrorType classifies model inference failures.
type ErrorType string

const (
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeServer     ErrorType = "server"
	ErrorTypeBadRequest ErrorType = "bad_request"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error represents a structured LLM error with classification.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool // Whether the operation can be retried
	Cause      error
	StatusCode int // HTTP status code if applicable
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
// This allows the retry package to check retryability without importing llm.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// ClassifyError categorizes an error and returns a structured Error.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}

	var antErr *anthropic.APIError
	if errors.As(err, &antErr) {
		switch {
		case antErr.IsAuthenticationErr():
			return &Error{Type: ErrorTypeAuth, Message: "authentication failed", Retryable: false, Cause: err}
		case antErr.IsRateLimitErr():
			return &Error{Type: ErrorTypeRateLimit, Message: "rate limited", Retryable: true, Cause: err}
		case antErr.IsApiErr(), antErr.IsOverloadedErr():
			return &Error{Type: ErrorTypeServer, Message: "server error", Retryable: true, Cause: err}
		default:
			return &Error{Type: ErrorTypeBadRequest, Message: "request rejected", Retryable: false, Cause: err}
		}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "context deadline exceeded"),
		strings.Contains(errStr, "timeout"):
		return &Error{Type: ErrorTypeTimeout, Message: "request timed out", Retryable: true, Cause: err}
	case strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "connection reset"):
		return &Error{Type: ErrorTypeServer, Message: "connection failed", Retryable: true, Cause: err}
	}

	return &Error{Type: ErrorTypeUnknown, Message: "inference failed", Retryable: false, Cause: err}
}

func classifyStatus(status int, cause error) *Error {
	switch {
	case status == 401 || status == 403:
		return &Error{Type: ErrorTypeAuth, Message: "authentication failed", Retryable: false, Cause: cause, StatusCode: status}
	case status == 429:
		return &Error{Type: ErrorTypeRateLimit, Message: "rate limited", Retryable: true, Cause: cause, StatusCode: status}
	case status >= 500:
		return &Error{Type: ErrorTypeServer, Message: "server error", Retryable: true, Cause: cause, StatusCode: status}
	case status >= 400:
		return &Error{Type: ErrorTypeBadRequest, Message: "request rejected", Retryable: false, Cause: cause, StatusCode: status}
	}
	return &Error{Type: ErrorTypeUnknown, Message: "inference failed", Retryable: false, Cause: cause, StatusCode: status}
}
