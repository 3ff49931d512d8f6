package models

// Dataset is a full replacement of the stored users, layouts and components.
type Dataset struct {
	Users      []User
	Layouts    []Layout
	Components []Component
}
