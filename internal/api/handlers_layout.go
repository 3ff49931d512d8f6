// handlers_layout.go - Layout and component editing handlers
package api

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/floor-layout/backend/internal/models"
	"github.com/floor-layout/backend/internal/store"
	"github.com/labstack/echo/v4"
)

// LayoutHandlerImpl implements the LayoutHandler interface
type LayoutHandlerImpl struct {
	store  store.Store
	events Publisher
	log    *log.Logger
}

// NewLayoutHandler creates a new layout handler instance. events may be nil.
func NewLayoutHandler(s store.Store, events Publisher, logger *log.Logger) LayoutHandler {
	if logger == nil {
		logger = log.Default()
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &LayoutHandlerImpl{store: s, events: events, log: logger}
}

func (h *LayoutHandlerImpl) publish(msgType, id, layoutID string) {
	h.events.Publish(WSMessage{Type: msgType, ID: id, LayoutID: layoutID})
}

// HandleListLayouts returns layout summaries without components
func (h *LayoutHandlerImpl) HandleListLayouts(c echo.Context) error {
	layouts, err := h.store.ListLayouts(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to list layouts", err)
	}
	return c.JSON(http.StatusOK, layouts)
}

// HandleCreateLayout creates an empty layout
func (h *LayoutHandlerImpl) HandleCreateLayout(c echo.Context) error {
	var req createLayoutRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	l := req.layout()
	if err := h.store.CreateLayout(c.Request().Context(), l); err != nil {
		return NewInternalError("failed to create layout", err)
	}

	h.log.Info("layout created", "id", l.ID, "name", l.Name, "by", usernameOf(CurrentUser(c)))
	h.publish(MsgTypeLayoutCreated, l.ID, l.ID)
	return c.JSON(http.StatusCreated, l)
}

// HandleGetLayout returns a layout with its components
func (h *LayoutHandlerImpl) HandleGetLayout(c echo.Context) error {
	id := c.Param("id")
	detail, err := h.store.GetLayoutDetail(c.Request().Context(), id)
	if err != nil {
		return storeError("layout", id, "load", err)
	}
	return c.JSON(http.StatusOK, detail)
}

// HandleUpdateLayout applies a partial update to a layout
func (h *LayoutHandlerImpl) HandleUpdateLayout(c echo.Context) error {
	id := c.Param("id")

	var patch models.LayoutPatch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := validateLayoutPatch(patch); err != nil {
		return err
	}

	l, err := h.store.UpdateLayout(c.Request().Context(), id, patch)
	if err != nil {
		return storeError("layout", id, "update", err)
	}
	h.publish(MsgTypeLayoutUpdated, l.ID, l.ID)
	return c.JSON(http.StatusOK, l)
}

// HandleDeleteLayout deletes a layout and its components
func (h *LayoutHandlerImpl) HandleDeleteLayout(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.DeleteLayout(c.Request().Context(), id); err != nil {
		return storeError("layout", id, "delete", err)
	}

	h.log.Info("layout deleted", "id", id, "by", usernameOf(CurrentUser(c)))
	h.publish(MsgTypeLayoutDeleted, id, id)
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Layout deleted",
	})
}

// HandleCreateComponent places a component on a layout
func (h *LayoutHandlerImpl) HandleCreateComponent(c echo.Context) error {
	layoutID := c.Param("id")

	var req createComponentRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	comp := req.component(layoutID)
	if err := h.store.CreateComponent(c.Request().Context(), comp); err != nil {
		return storeError("layout", layoutID, "add component to", err)
	}
	h.publish(MsgTypeComponentCreated, comp.ID, comp.LayoutID)
	return c.JSON(http.StatusCreated, comp)
}

// HandleUpdateComponent applies a partial update to a component
func (h *LayoutHandlerImpl) HandleUpdateComponent(c echo.Context) error {
	id := c.Param("id")

	var patch models.ComponentPatch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := validateComponentPatch(patch); err != nil {
		return err
	}

	comp, err := h.store.UpdateComponent(c.Request().Context(), id, patch)
	if err != nil {
		return storeError("component", id, "update", err)
	}
	h.publish(MsgTypeComponentUpdated, comp.ID, comp.LayoutID)
	return c.JSON(http.StatusOK, comp)
}

// HandleDeleteComponent removes a component
func (h *LayoutHandlerImpl) HandleDeleteComponent(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.DeleteComponent(c.Request().Context(), id); err != nil {
		return storeError("component", id, "delete", err)
	}
	h.publish(MsgTypeComponentDeleted, id, "")
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Component deleted",
	})
}

// Request types

type createLayoutRequest struct {
	Name   string `json:"name"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
	Floor  string `json:"floor"`
	Area   string `json:"area"`
}

func (r *createLayoutRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Width != nil && *r.Width <= 0 {
		return NewValidationError("width")
	}
	if r.Height != nil && *r.Height <= 0 {
		return NewValidationError("height")
	}
	return nil
}

func (r *createLayoutRequest) layout() *models.Layout {
	l := &models.Layout{
		Name:   r.Name,
		Width:  models.DefaultLayoutWidth,
		Height: models.DefaultLayoutHeight,
		Floor:  models.OptionalString(r.Floor),
		Area:   models.OptionalString(r.Area),
	}
	if r.Width != nil {
		l.Width = *r.Width
	}
	if r.Height != nil {
		l.Height = *r.Height
	}
	return l
}

func validateLayoutPatch(p models.LayoutPatch) error {
	if p.Name != nil && *p.Name == "" {
		return NewValidationError("name")
	}
	if p.Width != nil && *p.Width <= 0 {
		return NewValidationError("width")
	}
	if p.Height != nil && *p.Height <= 0 {
		return NewValidationError("height")
	}
	return nil
}

type createComponentRequest struct {
	Type        models.ComponentType `json:"type"`
	X           float64              `json:"x"`
	Y           float64              `json:"y"`
	Width       *float64             `json:"width"`
	Height      *float64             `json:"height"`
	Rotation    float64              `json:"rotation"`
	ShapePoints json.RawMessage      `json:"shapePoints"`
	Code        string               `json:"code"`
	Props       json.RawMessage      `json:"props"`
}

func (r *createComponentRequest) validate() error {
	if r.Type == "" {
		return NewValidationError("type")
	}
	if r.Width != nil && *r.Width <= 0 {
		return NewValidationError("width")
	}
	if r.Height != nil && *r.Height <= 0 {
		return NewValidationError("height")
	}
	return validateRawFields(r.ShapePoints, r.Props)
}

func (r *createComponentRequest) component(layoutID string) *models.Component {
	comp := &models.Component{
		LayoutID: layoutID,
		Type:     r.Type,
		X:        r.X,
		Y:        r.Y,
		Width:    models.DefaultComponentWidth,
		Height:   models.DefaultComponentHeight,
		Rotation: r.Rotation,
		Code:     r.Code,
	}
	if r.Width != nil {
		comp.Width = *r.Width
	}
	if r.Height != nil {
		comp.Height = *r.Height
	}
	if len(r.ShapePoints) > 0 && !models.IsJSONNull(r.ShapePoints) {
		comp.ShapePoints = r.ShapePoints
	}
	if len(r.Props) > 0 && !models.IsJSONNull(r.Props) {
		comp.Props = r.Props
	}
	return comp
}

func validateComponentPatch(p models.ComponentPatch) error {
	if p.Type != nil && *p.Type == "" {
		return NewValidationError("type")
	}
	if p.Width != nil && *p.Width <= 0 {
		return NewValidationError("width")
	}
	if p.Height != nil && *p.Height <= 0 {
		return NewValidationError("height")
	}
	return validateRawFields(p.ShapePoints, p.Props)
}

// validateRawFields checks supplied, non-null shape points and props.
func validateRawFields(shapePoints, props json.RawMessage) error {
	if len(shapePoints) > 0 && !models.IsJSONNull(shapePoints) {
		if _, err := models.ParseShapePoints(shapePoints); err != nil {
			return NewBadRequestError("invalid shapePoints", err)
		}
	}
	if len(props) > 0 && !models.IsJSONNull(props) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(props, &obj); err != nil {
			return NewBadRequestError("props must be a JSON object", err)
		}
	}
	return nil
}
