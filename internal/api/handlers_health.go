// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	mode     string
	dataMode string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, mode, dataMode string) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		mode:     mode,
		dataMode: dataMode,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"mode":     h.mode,
		"dataMode": h.dataMode,
		"version":  h.version,
	})
}
