package zillow

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

// APIError is the generic upstream failure. It carries the extracted
// message, the upstream status code and the raw response body.
type APIError struct {
	Message    string
	StatusCode int
	Body       []byte
}

func NewAPIError(message string, statusCode int, body []byte) *APIError {
	return &APIError{
		Message:    message,
		StatusCode: statusCode,
		Body:       body,
	}
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("zillow api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("zillow api error: %s", e.Message)
}

// RateLimitError is raised after every retry of a 429 response has been
// exhausted.
type RateLimitError struct {
	APIError
	Attempts int
}

func NewRateLimitError(body []byte, attempts int) *RateLimitError {
	return &RateLimitError{
		APIError: APIError{
			Message:    fmt.Sprintf("rate limited after %d attempts", attempts),
			StatusCode: http.StatusTooManyRequests,
			Body:       body,
		},
		Attempts: attempts,
	}
}

func (e *RateLimitError) Error() string {
	return "zillow rate limit: " + e.Message
}

// AuthError is fatal. A 401 or 403 means the configured key is wrong and
// retrying cannot help, so the whole sync aborts.
type AuthError struct {
	APIError
}

func NewAuthError(statusCode int, body []byte) *AuthError {
	return &AuthError{
		APIError: APIError{
			Message:    "authentication with the listings api failed",
			StatusCode: statusCode,
			Body:       body,
		},
	}
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("zillow auth error (status %d): %s", e.StatusCode, e.Message)
}

func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// ToHTTPError maps a fetch failure onto the error shape the api returns.
func ToHTTPError(err error) *httperror.HTTPError {
	switch {
	case IsAuth(err):
		return httperror.NewHTTPError(http.StatusBadGateway, "upstream authentication failed")
	case IsRateLimit(err):
		return httperror.NewHTTPError(http.StatusBadGateway, "upstream rate limit exhausted")
	default:
		return httperror.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}
