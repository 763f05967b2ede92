package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

// Category classifies an error for logging and retry decisions
type Category string

const (
	CategoryNetwork        Category = "network"
	CategoryRateLimit      Category = "rate_limit"
	CategoryServer         Category = "server"
	CategoryAuthentication Category = "authentication"
	CategoryClient         Category = "client"
	CategoryUnknown        Category = "unknown"
)

// Describe returns a human-readable description for a category
func (c Category) Describe() string {
	switch c {
	case CategoryNetwork:
		return "network failure (connection reset, timeout or refused)"
	case CategoryRateLimit:
		return "rate limited by the upstream service"
	case CategoryServer:
		return "upstream server error"
	case CategoryAuthentication:
		return "authentication rejected by the upstream service"
	case CategoryClient:
		return "client-side request error"
	default:
		return "unclassified error"
	}
}

// Categorize classifies any error into a Category. The classification is
// independent of whether the error will be retried.
func Categorize(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	if status, ok := httpStatus(err); ok {
		switch {
		case status == http.StatusUnauthorized:
			return CategoryAuthentication
		case status == http.StatusTooManyRequests:
			return CategoryRateLimit
		case status >= 500:
			return CategoryServer
		case status >= 400:
			return CategoryClient
		}
	}

	if isNetworkError(err) {
		return CategoryNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"):
		return CategoryRateLimit
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid api key") || strings.Contains(msg, "authentication"):
		return CategoryAuthentication
	case strings.Contains(msg, "connection reset"), strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "timeout"), strings.Contains(msg, "no such host"),
		strings.Contains(msg, "broken pipe"), strings.Contains(msg, "eof"):
		return CategoryNetwork
	}

	return CategoryUnknown
}

// IsRetryable reports whether an error is worth retrying: network failures,
// rate limits and server errors are; authentication and other client errors
// are not.
func IsRetryable(err error) bool {
	switch Categorize(err) {
	case CategoryNetwork, CategoryRateLimit, CategoryServer:
		return true
	default:
		return false
	}
}

// Describe renders an error with its category for structured logging
func Describe(err error) string {
	if err == nil {
		return ""
	}
	cat := Categorize(err)
	return fmt.Sprintf("[%s] %s: %v", cat, cat.Describe(), err)
}

// httpStatus extracts an HTTP status code from the API error types used by
// the completion clients
func httpStatus(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, true
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, true
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code, true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}

	return 0, false
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ETIMEDOUT)
}

// HTTPError is a minimal status-carrying error for callers that talk to HTTP
// services without a typed SDK error
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
