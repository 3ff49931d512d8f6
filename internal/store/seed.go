package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/floor-layout/backend/internal/models"
	"github.com/google/uuid"
)

type seedArea struct {
	name  string
	floor string
	area  string
}

var seedAreas = []seedArea{
	{name: "大R區 (Big R)", floor: "1F", area: "Big R"},
	{name: "5F測試區 (5F Test Area)", floor: "5F", area: "Test"},
	{name: "6F測試區 (6F Test Area)", floor: "6F", area: "Test"},
	{name: "6F雷射維修區 (6F Laser Repair)", floor: "6F", area: "Laser"},
	{name: "7F雷射維修區 (7F Laser Repair)", floor: "7F", area: "Laser"},
	{name: "7F非測試區 (7F Non-Test)", floor: "7F", area: "Production"},
}

var hexagon = []models.Point{
	{X: 40, Y: 0}, {X: 80, Y: 20}, {X: 80, Y: 60},
	{X: 40, Y: 80}, {X: 0, Y: 60}, {X: 0, Y: 20},
}

func colorProps(color string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"color":%q}`, color))
}

// SeedDataset builds the demo users and floor layouts.
func SeedDataset() *models.Dataset {
	ds := &models.Dataset{
		Users: []models.User{
			{Username: "admin", Password: "admin", Role: "admin"},
			{Username: "worker", Password: "worker", Role: "worker"},
			{Username: "maintainer", Password: "maintainer", Role: "maintainer"},
		},
	}

	hexPoints, _ := json.Marshal(hexagon)

	for _, a := range seedAreas {
		layoutID := uuid.New().String()
		ds.Layouts = append(ds.Layouts, models.Layout{
			ID:     layoutID,
			Name:   a.name,
			Width:  1200,
			Height: 800,
			Floor:  models.OptionalString(a.floor),
			Area:   models.OptionalString(a.area),
		})

		for n := 1; n <= 10; n++ {
			ds.Components = append(ds.Components, models.Component{
				LayoutID: layoutID,
				Type:     models.ComponentTypeBin,
				X:        float64(50 + (n-1)*110),
				Y:        100,
				Width:    80,
				Height:   80,
				Code:     fmt.Sprintf("%s-B-%02d", a.floor, n),
				Props:    colorProps("#334155"),
			})
		}

		for n := 1; n <= 3; n++ {
			ds.Components = append(ds.Components, models.Component{
				LayoutID: layoutID,
				Type:     models.ComponentTypePillar,
				X:        float64(200 + n*300),
				Y:        400,
				Width:    40,
				Height:   40,
				Code:     fmt.Sprintf("P-%d", n),
				Props:    colorProps("#94a3b8"),
			})
		}

		if strings.Contains(a.name, "測試區") || strings.Contains(a.name, "大R區") {
			ds.Components = append(ds.Components, models.Component{
				LayoutID:    layoutID,
				Type:        models.ComponentTypeBin,
				X:           100,
				Y:           600,
				Width:       models.DefaultComponentWidth,
				Height:      models.DefaultComponentHeight,
				ShapePoints: hexPoints,
				Code:        a.floor + "-HEX-01",
				Props:       colorProps("#1e293b"),
			})
		}
	}
	return ds
}

// Seed replaces everything in s with the demo dataset.
func Seed(ctx context.Context, s Store) (*models.Dataset, error) {
	ds := SeedDataset()
	if err := s.ReplaceAll(ctx, ds); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return ds, nil
}
