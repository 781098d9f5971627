package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
)

// maxErrorBody bounds how much of an error response is kept for messages
const maxErrorBody = 64 << 10

// ErrorResponse represents a backend error body
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Error is returned for any non-2xx backend response
type Error struct {
	StatusCode int
	Code       string // Backend error code, when provided
	Message    string // Human readable message, safe to show to the user
	Method     string
	Path       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Unwrap maps statuses onto the shared error taxonomy so callers can use errors.Is
func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusPaymentRequired:
		return apperrors.ErrFeatureNotAllowed
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.ErrInvalidInput
	default:
		return nil
	}
}

// UserMessage returns the text to show in a notification for err
func UserMessage(err error) string {
	var apiErr *Error
	if apperrors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}

func newError(resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &Error{
		StatusCode: resp.StatusCode,
		Method:     resp.Request.Method,
		Path:       resp.Request.URL.Path,
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		apiErr.Code = errResp.Error
		switch {
		case errResp.Message != "":
			apiErr.Message = errResp.Message
		case errResp.Detail != "":
			apiErr.Message = errResp.Detail
		default:
			apiErr.Message = errResp.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
