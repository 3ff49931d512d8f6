// middleware.go - Bearer token authentication and role checks
package api

import (
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/floor-layout/backend/internal/auth"
	"github.com/floor-layout/backend/internal/models"
	"github.com/floor-layout/backend/internal/store"
	"github.com/labstack/echo/v4"
)

const userContextKey = "user"

// Authenticator resolves bearer tokens to users and enforces role levels.
// The user's role is read from the store on every request.
type Authenticator struct {
	store  store.Store
	issuer *auth.Issuer
	log    *log.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(s store.Store, issuer *auth.Issuer, logger *log.Logger) *Authenticator {
	if logger == nil {
		logger = log.Default()
	}
	return &Authenticator{store: s, issuer: issuer, log: logger}
}

// Authenticated requires any signed-in user.
func (a *Authenticator) Authenticated() echo.MiddlewareFunc {
	return a.RequireRole(auth.RoleWorker)
}

// RequireRole rejects requests whose user ranks below required.
func (a *Authenticator) RequireRole(required auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := a.authenticate(c)
			if err != nil {
				return err
			}
			if !auth.Role(u.Role).Allows(required) {
				a.log.Debug("forbidden", "user", u.Username, "role", u.Role, "required", required, "path", c.Path())
				return NewForbiddenError("insufficient permissions")
			}
			c.Set(userContextKey, u)
			return next(c)
		}
	}
}

func (a *Authenticator) authenticate(c echo.Context) (*models.User, error) {
	token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return nil, NewUnauthorizedError("missing bearer token")
	}

	userID, err := a.issuer.Verify(token)
	if err != nil {
		return nil, NewUnauthorizedError("invalid or expired token")
	}

	u, err := a.store.GetUser(c.Request().Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewUnauthorizedError("user not found")
	}
	if err != nil {
		return nil, NewInternalError("failed to load user", err)
	}
	return u, nil
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// CurrentUser returns the user set by the authentication middleware, or nil.
func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(userContextKey).(*models.User)
	return u
}
