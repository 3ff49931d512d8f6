// Package models contains domain types for the floor layout backend.
package models

// Default canvas and component dimensions applied when a create request omits them.
const (
	DefaultLayoutWidth  = 800
	DefaultLayoutHeight = 600

	DefaultComponentWidth  = 100.0
	DefaultComponentHeight = 100.0
)

// Layout is a named 2D canvas grouping placed components.
type Layout struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Floor  *string `json:"floor"`
	Area   *string `json:"area"`
}

// OptionalString returns nil for an empty s. Unset floor and area serialize as null.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue returns the string p points to, or "".
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// LayoutDetail is a layout with its components embedded.
type LayoutDetail struct {
	Layout
	Components []Component `json:"components"`
}

// LayoutPatch carries the fields of a partial layout update. Nil fields are left unchanged.
type LayoutPatch struct {
	Name   *string `json:"name"`
	Width  *int    `json:"width"`
	Height *int    `json:"height"`
	Floor  *string `json:"floor"`
	Area   *string `json:"area"`
}

// Apply copies the supplied fields onto l.
func (p LayoutPatch) Apply(l *Layout) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Width != nil {
		l.Width = *p.Width
	}
	if p.Height != nil {
		l.Height = *p.Height
	}
	if p.Floor != nil {
		l.Floor = OptionalString(*p.Floor)
	}
	if p.Area != nil {
		l.Area = OptionalString(*p.Area)
	}
}
