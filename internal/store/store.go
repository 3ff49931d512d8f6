// Package store persists layouts, components and users.
package store

import (
	"context"
	"errors"

	"github.com/floor-layout/backend/internal/models"
)

var (
	// ErrNotFound is returned when a layout, component or user id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("already exists")
)

// Store defines the interface for layout persistence.
type Store interface {
	ListLayouts(ctx context.Context) ([]models.Layout, error)
	CreateLayout(ctx context.Context, l *models.Layout) error
	GetLayout(ctx context.Context, id string) (*models.Layout, error)
	GetLayoutDetail(ctx context.Context, id string) (*models.LayoutDetail, error)
	UpdateLayout(ctx context.Context, id string, patch models.LayoutPatch) (*models.Layout, error)
	DeleteLayout(ctx context.Context, id string) error

	CreateComponent(ctx context.Context, c *models.Component) error
	GetComponent(ctx context.Context, id string) (*models.Component, error)
	UpdateComponent(ctx context.Context, id string, patch models.ComponentPatch) (*models.Component, error)
	DeleteComponent(ctx context.Context, id string) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserRole(ctx context.Context, id string, role string) (*models.User, error)

	// ReplaceAll atomically swaps the stored data for ds.
	ReplaceAll(ctx context.Context, ds *models.Dataset) error

	Close() error
}
