package store

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/floor-layout/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeShapePoints(t *testing.T) {
	tests := []struct {
		name   string
		stored sql.NullString
		want   string
	}{
		{name: "null column", stored: sql.NullString{}, want: ""},
		{name: "empty text", stored: sql.NullString{String: "", Valid: true}, want: ""},
		{name: "json null", stored: sql.NullString{String: "null", Valid: true}, want: ""},
		{name: "truncated write", stored: sql.NullString{String: `[{"x":1,"y"`, Valid: true}, want: ""},
		{name: "valid polygon", stored: sql.NullString{String: `[{"x":1,"y":2}]`, Valid: true}, want: `[{"x":1,"y":2}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeShapePoints(tt.stored)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestDecodeProps(t *testing.T) {
	tests := []struct {
		name   string
		stored sql.NullString
		want   string
	}{
		{name: "null column", stored: sql.NullString{}, want: `{}`},
		{name: "garbage", stored: sql.NullString{String: "{not json", Valid: true}, want: `{}`},
		{name: "not an object", stored: sql.NullString{String: `[1,2]`, Valid: true}, want: `{}`},
		{name: "object", stored: sql.NullString{String: `{"color":"red"}`, Valid: true}, want: `{"color":"red"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(decodeProps(tt.stored)))
		})
	}
}

func TestEncodeComponent_RoundTrip(t *testing.T) {
	inputs := []struct {
		shape string
		props string
	}{
		{shape: `[{"x":0,"y":0},{"x":10,"y":0},{"x":5,"y":8.25}]`, props: `{"color":"#fff"}`},
		{shape: `[ {"x": -1, "y": 1e3}, {"x": 2, "y": 3}, {"x": 4, "y": 5} ]`, props: `{"nested":{"a":[1,{"b":null}]},"unicode":"區"}`},
	}

	for _, in := range inputs {
		c := &models.Component{
			ID:          "c1",
			LayoutID:    "l1",
			Type:        models.ComponentTypeBin,
			ShapePoints: json.RawMessage(in.shape),
			Props:       json.RawMessage(in.props),
		}
		row, err := encodeComponent(c, 1)
		require.NoError(t, err)

		got := row.decode()
		assert.JSONEq(t, in.shape, string(got.ShapePoints))
		assert.JSONEq(t, in.props, string(got.Props))
	}
}

func TestEncodeComponent_Defaults(t *testing.T) {
	row, err := encodeComponent(&models.Component{ID: "c1", LayoutID: "l1", Type: "bin"}, 1)
	require.NoError(t, err)

	assert.False(t, row.ShapePoints.Valid, "absent shape points are stored as NULL")
	assert.Equal(t, "{}", row.Props.String)
	assert.False(t, row.Code.Valid)
}

func TestEncodeComponent_RejectsInvalidJSON(t *testing.T) {
	_, err := encodeComponent(&models.Component{Props: json.RawMessage(`{broken`)}, 1)
	assert.Error(t, err)

	_, err = encodeComponent(&models.Component{ShapePoints: json.RawMessage(`[{`)}, 1)
	assert.Error(t, err)
}
