package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// UpstreamError describes a failed call to the completion provider.
// StatusCode is the provider's HTTP status when one was received, otherwise
// 500. Details carries the provider's error body or the transport error text.
type UpstreamError struct {
	StatusCode int
	Details    string
	Timeout    bool
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request failed (status %d): %s", e.StatusCode, e.Details)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func classifyError(err error, timeout time.Duration) *UpstreamError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{
			StatusCode: statusOrDefault(apiErr.HTTPStatusCode),
			Details:    apiErr.Message,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		details := strings.TrimSpace(string(reqErr.Body))
		if details == "" {
			details = reqErr.Error()
		}
		return &UpstreamError{
			StatusCode: statusOrDefault(reqErr.HTTPStatusCode),
			Details:    details,
			Err:        err,
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &UpstreamError{
			StatusCode: http.StatusInternalServerError,
			Details:    fmt.Sprintf("upstream request timed out after %s: %v", timeout, err),
			Timeout:    true,
			Err:        err,
		}
	}

	return &UpstreamError{
		StatusCode: http.StatusInternalServerError,
		Details:    err.Error(),
		Err:        err,
	}
}

// Only error statuses are propagated; anything else collapses to 500.
func statusOrDefault(code int) int {
	if code >= 400 && code <= 599 {
		return code
	}
	return http.StatusInternalServerError
}
