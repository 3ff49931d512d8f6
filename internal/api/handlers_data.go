// handlers_data.go - WIP lookup handlers backed by the data provider
package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/floor-layout/backend/internal/models"
	"github.com/floor-layout/backend/internal/provider"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// MIMEApplicationMsgpack is the content type of msgpack responses.
const MIMEApplicationMsgpack = "application/msgpack"

// DataHandlerImpl implements the DataHandler interface
type DataHandlerImpl struct {
	provider provider.Provider
	log      *log.Logger
}

// NewDataHandler creates a new data handler instance
func NewDataHandler(p provider.Provider, logger *log.Logger) DataHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &DataHandlerImpl{provider: p, log: logger}
}

// HandleWip returns the cassettes held in each requested bin
func (h *DataHandlerImpl) HandleWip(c echo.Context) error {
	result, err := h.wip(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// HandleWipMsgpack returns the same payload as HandleWip encoded as msgpack
func (h *DataHandlerImpl) HandleWipMsgpack(c echo.Context) error {
	result, err := h.wip(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(result)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, MIMEApplicationMsgpack, data)
}

// HandleCounts returns the number of cassettes in each requested bin
func (h *DataHandlerImpl) HandleCounts(c echo.Context) error {
	var req binCodesRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if len(req.BinCodes) == 0 {
		return c.JSON(http.StatusOK, map[string]int{})
	}

	counts, err := h.provider.CountsByBins(c.Request().Context(), req.BinCodes)
	if err != nil {
		h.log.Error("counts lookup failed", "mode", h.provider.Mode(), "bins", len(req.BinCodes), "err", err)
		return NewServiceUnavailableError("failed to load bin counts", err)
	}
	return c.JSON(http.StatusOK, counts)
}

func (h *DataHandlerImpl) wip(c echo.Context) (map[string][]models.Cassette, error) {
	var req binCodesRequest
	if err := c.Bind(&req); err != nil {
		return nil, NewBadRequestError("invalid JSON body", err)
	}
	if len(req.BinCodes) == 0 {
		return map[string][]models.Cassette{}, nil
	}

	result, err := h.provider.WipByBins(c.Request().Context(), req.BinCodes)
	if err != nil {
		h.log.Error("wip lookup failed", "mode", h.provider.Mode(), "bins", len(req.BinCodes), "err", err)
		return nil, NewServiceUnavailableError("failed to load wip data", err)
	}
	return result, nil
}

// Request types

type binCodesRequest struct {
	BinCodes []string `json:"binCodes"`
}
