package middleware

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/zach-wendland/bna-rentals/pkg/context"
	"github.com/zach-wendland/bna-rentals/pkg/tracing"
)

// ErrorResponse is the JSON envelope for every unhandled handler error.
// RequestID and TraceID let a client report a failure we can find in logs.
type ErrorResponse struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	TraceID   string         `json:"trace_id"`
	Meta      map[string]any `json:"meta"`
}

// Error builds the echo error handler. Status and message come from the
// error when it is an echo.HTTPError or an httperror; anything else renders
// as a plain 500 so internal details never leak.
func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()
		logger.WithContext(ctx).WithError(err).Error("request failed")

		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal Server Error"
		meta := map[string]any{}

		switch {
		case httperror.IsHTTPError(err):
			httperr := httperror.ToHTTPError(err)
			code = httperror.GetStatusCode(err)
			message = httperr.Error()
			meta = httperr.Meta
		default:
			if he, ok := err.(*echo.HTTPError); ok {
				code = he.Code
				if msg, ok := he.Message.(string); ok {
					message = msg
				}
			}
		}

		_ = c.JSON(code, ErrorResponse{
			Message:   message,
			RequestID: context.GetRequestID(ctx),
			TraceID:   tracing.GetTraceID(ctx),
			Meta:      meta,
		})
	}
}
