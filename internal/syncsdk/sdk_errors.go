package syncsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"
)

var (
	ErrNoServerURL      = errors.New("sdk: server url missing")
	ErrInvalidServerURL = errors.New("sdk: invalid server url")
	ErrNotFound         = errors.New("sdk: object not found")
	ErrChunkTooLarge    = errors.New("sdk: chunk larger than chunk size")
)

const (
	CodeInvalidRequest  = "E_INVALID_REQUEST"
	CodePayloadTooLarge = "E_PAYLOAD_TOO_LARGE"
	CodeRateLimited     = "E_RATE_LIMITED"
	CodeInternalError   = "E_INTERNAL_ERROR"
	CodeUnknownError    = "E_UNKNOWN_ERR"

	CodeObjectNotFound    = "E_OBJECT_NOT_FOUND"
	CodeObjectInvalidName = "E_OBJECT_INVALID_NAME"
	CodeObjectInvalidArg  = "E_OBJECT_INVALID_ARG"
)

// APIError is the error envelope returned by the server. StatusCode is
// filled from the response, not the body.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d %s - %s", e.StatusCode, e.Code, e.Message)
}

// Is makes errors.Is(err, ErrNotFound) hold for any 404
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Temporary reports whether the same request may succeed later
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsRetryable reports whether err is a rate limit, a server side failure or
// a transport error. Client errors (4xx) are permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrChunkTooLarge)
}

// handleAPIError converts a failed request or an error response into an error
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	// the body of an error response may fail to decode, keep the status in that case
	if resp != nil && resp.Response != nil && resp.IsErrorState() {
		apiErr, ok := resp.ErrorResult().(*APIError)
		if !ok || apiErr == nil || (apiErr.Code == "" && apiErr.Message == "") {
			apiErr = &APIError{Code: CodeUnknownError, Message: resp.Status}
		}
		apiErr.StatusCode = resp.GetStatusCode()
		return fmt.Errorf("sdk: %s: %w", operation, apiErr)
	}

	if requestErr != nil {
		return fmt.Errorf("sdk: %s: %w", operation, requestErr)
	}
	return nil
}
