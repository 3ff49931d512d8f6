// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// AuthHandler handles sign-in and user administration
type AuthHandler interface {
	HandleLogin(c echo.Context) error
	HandleRegister(c echo.Context) error
	HandleVerify(c echo.Context) error
	HandleListUsers(c echo.Context) error
	HandleUpdateUserRole(c echo.Context) error
}

// LayoutHandler handles layout and component editing
type LayoutHandler interface {
	HandleListLayouts(c echo.Context) error
	HandleCreateLayout(c echo.Context) error
	HandleGetLayout(c echo.Context) error
	HandleUpdateLayout(c echo.Context) error
	HandleDeleteLayout(c echo.Context) error
	HandleCreateComponent(c echo.Context) error
	HandleUpdateComponent(c echo.Context) error
	HandleDeleteComponent(c echo.Context) error
}

// DataHandler handles WIP lookups for bin codes
type DataHandler interface {
	HandleWip(c echo.Context) error
	HandleWipMsgpack(c echo.Context) error
	HandleCounts(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
