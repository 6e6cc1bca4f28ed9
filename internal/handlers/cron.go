package handlers

import (
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/zach-wendland/bna-rentals/pkg/httpclient"
	"github.com/zach-wendland/bna-rentals/pkg/middleware"
	"github.com/zach-wendland/bna-rentals/pkg/tracing"
)

// CronHandler serves the scheduler-invoked endpoints. The daily fetch
// does not run the pipeline itself; it self-invokes the public sync
// endpoint and relays whatever that returns.
type CronHandler struct {
	http       *httpclient.Client
	baseURL    string
	cronSecret string
	logger     ectologger.Logger
}

// NewCronHandler creates a new cron handler
func NewCronHandler(http *httpclient.Client, baseURL, cronSecret string, logger ectologger.Logger) *CronHandler {
	return &CronHandler{
		http:       http,
		baseURL:    baseURL,
		cronSecret: cronSecret,
		logger:     logger,
	}
}

// Register registers cron routes behind the shared-secret guard
func (h *CronHandler) Register(e *echo.Echo) {
	g := e.Group("/cron", middleware.CronAuth(h.logger, h.cronSecret))
	g.GET("/daily-fetch", h.DailyFetch)
}

// DailyFetch triggers a sync run via the public endpoint.
func (h *CronHandler) DailyFetch(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CronHandler.DailyFetch")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/sync", nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, SyncResponse{
			Success: false,
			Error:   err.Error(),
		})
	}

	resp, err := h.http.Do(ctx, req)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("daily fetch failed to reach the sync endpoint")
		return c.JSON(http.StatusInternalServerError, SyncResponse{
			Success: false,
			Error:   err.Error(),
		})
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"status":   resp.StatusCode,
		"duration": resp.Duration.String(),
	}).Info("Daily fetch relayed sync result")

	return c.Blob(resp.StatusCode, echo.MIMEApplicationJSON, resp.Body)
}
