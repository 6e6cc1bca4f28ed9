package handlers

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/zach-wendland/bna-rentals/pkg/ingest"
	"github.com/zach-wendland/bna-rentals/pkg/tracing"
)

// SyncHandler triggers ingestion runs
type SyncHandler struct {
	service *ingest.Service
	logger  ectologger.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(service *ingest.Service, logger ectologger.Logger) *SyncHandler {
	return &SyncHandler{
		service: service,
		logger:  logger,
	}
}

// Register registers sync routes
func (h *SyncHandler) Register(e *echo.Echo) {
	e.POST("/sync", h.Sync)
}

// SyncResponse is the envelope every sync trigger returns, success or not.
type SyncResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	Collected     int    `json:"collected,omitempty"`
	Persisted     int    `json:"persisted,omitempty"`
	IngestionDate string `json:"ingestionDate,omitempty"`
}

// Sync runs the full ingestion pipeline across all configured locations.
func (h *SyncHandler) Sync(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SyncHandler.Sync")
	defer span.End()

	result, err := h.service.Sync(ctx, "manual")
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("sync failed")

		status := http.StatusInternalServerError
		if httperror.IsHTTPError(err) {
			status = httperror.GetStatusCode(err)
		}
		return c.JSON(status, SyncResponse{
			Success: false,
			Error:   err.Error(),
		})
	}

	return SuccessResponse(c, SyncResponse{
		Success:       true,
		Message:       "sync completed",
		Collected:     result.Collected,
		Persisted:     result.Persisted,
		IngestionDate: result.IngestionDate,
	})
}
