package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/floor-layout/backend/internal/models"
)

const emptyProps = "{}"

// componentRow is the flat storage shape of a component: the variable-shaped
// fields are kept as text.
type componentRow struct {
	ID          string
	LayoutID    string
	Type        string
	X           float64
	Y           float64
	Width       float64
	Height      float64
	Rotation    float64
	ShapePoints sql.NullString
	Code        sql.NullString
	Props       sql.NullString
	CreatedAt   int64
}

func encodeComponent(c *models.Component, createdAt int64) (componentRow, error) {
	shape, err := encodeShapePoints(c.ShapePoints)
	if err != nil {
		return componentRow{}, err
	}
	props, err := encodeProps(c.Props)
	if err != nil {
		return componentRow{}, err
	}
	return componentRow{
		ID:          c.ID,
		LayoutID:    c.LayoutID,
		Type:        string(c.Type),
		X:           c.X,
		Y:           c.Y,
		Width:       c.Width,
		Height:      c.Height,
		Rotation:    c.Rotation,
		ShapePoints: shape,
		Code:        sql.NullString{String: c.Code, Valid: c.Code != ""},
		Props:       sql.NullString{String: props, Valid: true},
		CreatedAt:   createdAt,
	}, nil
}

func (r componentRow) decode() models.Component {
	return models.Component{
		ID:          r.ID,
		LayoutID:    r.LayoutID,
		Type:        models.ComponentType(r.Type),
		X:           r.X,
		Y:           r.Y,
		Width:       r.Width,
		Height:      r.Height,
		Rotation:    r.Rotation,
		ShapePoints: decodeShapePoints(r.ShapePoints),
		Code:        r.Code.String,
		Props:       decodeProps(r.Props),
	}
}

// encodeShapePoints compacts raw shape points for storage. Absent or null
// points are stored as NULL.
func encodeShapePoints(raw json.RawMessage) (sql.NullString, error) {
	if len(raw) == 0 || models.IsJSONNull(raw) {
		return sql.NullString{}, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return sql.NullString{}, fmt.Errorf("encoding shape points: %w", err)
	}
	return sql.NullString{String: buf.String(), Valid: true}, nil
}

// encodeProps compacts raw props for storage. Absent or null props become {}.
func encodeProps(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || models.IsJSONNull(raw) {
		return emptyProps, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("encoding props: %w", err)
	}
	return buf.String(), nil
}

// decodeShapePoints never fails: missing or unparseable text reads as null.
func decodeShapePoints(s sql.NullString) json.RawMessage {
	if !s.Valid || s.String == "" || !json.Valid([]byte(s.String)) {
		return nil
	}
	raw := json.RawMessage(s.String)
	if models.IsJSONNull(raw) {
		return nil
	}
	return raw
}

// decodeProps never fails: missing, unparseable or non-object text reads as {}.
func decodeProps(s sql.NullString) json.RawMessage {
	if !s.Valid {
		return json.RawMessage(emptyProps)
	}
	trimmed := bytes.TrimSpace([]byte(s.String))
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return json.RawMessage(emptyProps)
	}
	return json.RawMessage(trimmed)
}
