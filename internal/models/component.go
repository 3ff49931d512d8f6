package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ComponentType names the kind of a placed shape.
type ComponentType string

const (
	ComponentTypeBin    ComponentType = "bin"
	ComponentTypePillar ComponentType = "pillar"
	ComponentTypeMarker ComponentType = "marker"
)

// Component is a rectangle or polygon placed on a layout.
// When ShapePoints is set it overrides the rectangle; Props is free-form styling.
type Component struct {
	ID          string          `json:"id"`
	LayoutID    string          `json:"layoutId"`
	Type        ComponentType   `json:"type"`
	X           float64         `json:"x"`
	Y           float64         `json:"y"`
	Width       float64         `json:"width"`
	Height      float64         `json:"height"`
	Rotation    float64         `json:"rotation"` // degrees
	ShapePoints json.RawMessage `json:"shapePoints"`
	Code        string          `json:"code"`
	Props       json.RawMessage `json:"props"`
}

// ComponentPatch carries the fields of a partial component update.
// ShapePoints and Props are raw so that an explicit JSON null can be told apart
// from an absent field: absent is empty, null is the literal "null".
type ComponentPatch struct {
	Type        *ComponentType  `json:"type"`
	X           *float64        `json:"x"`
	Y           *float64        `json:"y"`
	Width       *float64        `json:"width"`
	Height      *float64        `json:"height"`
	Rotation    *float64        `json:"rotation"`
	Code        *string         `json:"code"`
	ShapePoints json.RawMessage `json:"shapePoints"`
	Props       json.RawMessage `json:"props"`
}

// Apply copies the supplied fields onto c.
func (p ComponentPatch) Apply(c *Component) {
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.X != nil {
		c.X = *p.X
	}
	if p.Y != nil {
		c.Y = *p.Y
	}
	if p.Width != nil {
		c.Width = *p.Width
	}
	if p.Height != nil {
		c.Height = *p.Height
	}
	if p.Rotation != nil {
		c.Rotation = *p.Rotation
	}
	if p.Code != nil {
		c.Code = *p.Code
	}
	if len(p.ShapePoints) > 0 {
		if IsJSONNull(p.ShapePoints) {
			c.ShapePoints = nil
		} else {
			c.ShapePoints = p.ShapePoints
		}
	}
	if len(p.Props) > 0 {
		if IsJSONNull(p.Props) {
			c.Props = nil
		} else {
			c.Props = p.Props
		}
	}
}

// Point is one vertex of a polygon component.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ErrInvalidShape reports shape points that do not describe a polygon.
var ErrInvalidShape = errors.New("shape points must be a list of at least 3 {x,y} points")

// ParseShapePoints decodes raw shape points into vertices.
// A polygon needs at least three vertices; the path is implicitly closed.
func ParseShapePoints(raw json.RawMessage) ([]Point, error) {
	var points []Point
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, ErrInvalidShape
	}
	if len(points) < 3 {
		return nil, ErrInvalidShape
	}
	return points, nil
}

// IsJSONNull reports whether raw is the JSON literal null.
func IsJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
