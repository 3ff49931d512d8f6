// handlers_auth.go - Sign-in and user administration handlers
package api

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/floor-layout/backend/internal/auth"
	"github.com/floor-layout/backend/internal/models"
	"github.com/floor-layout/backend/internal/store"
	"github.com/labstack/echo/v4"
)

// AuthHandlerImpl implements the AuthHandler interface
type AuthHandlerImpl struct {
	store  store.Store
	issuer *auth.Issuer
	log    *log.Logger
}

// NewAuthHandler creates a new auth handler instance
func NewAuthHandler(s store.Store, issuer *auth.Issuer, logger *log.Logger) AuthHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &AuthHandlerImpl{store: s, issuer: issuer, log: logger}
}

// HandleLogin checks credentials and issues a bearer token
func (h *AuthHandlerImpl) HandleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	u, err := h.store.GetUserByUsername(c.Request().Context(), req.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return NewInternalError("failed to load user", err)
	}
	// Passwords are stored and compared as given.
	if u == nil || u.Password != req.Password {
		h.log.Info("login rejected", "username", req.Username)
		return NewUnauthorizedError("invalid credentials")
	}

	token, err := h.issuer.Issue(u.ID)
	if err != nil {
		return NewInternalError("failed to issue token", err)
	}

	h.log.Info("login", "username", u.Username, "role", u.Role)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  u,
	})
}

// HandleRegister creates a user account
func (h *AuthHandlerImpl) HandleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	u := &models.User{
		Username: req.Username,
		Password: req.Password,
		Role:     string(req.role),
	}
	if err := h.store.CreateUser(c.Request().Context(), u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return NewBadRequestError("user already exists", nil)
		}
		return NewInternalError("failed to create user", err)
	}

	h.log.Info("user registered", "username", u.Username, "role", u.Role)
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "User created",
		"user":    u,
	})
}

// HandleVerify returns the user owning the bearer token
func (h *AuthHandlerImpl) HandleVerify(c echo.Context) error {
	u := CurrentUser(c)
	if u == nil {
		return NewUnauthorizedError("not signed in")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": u,
	})
}

// HandleListUsers returns all users
func (h *AuthHandlerImpl) HandleListUsers(c echo.Context) error {
	users, err := h.store.ListUsers(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to list users", err)
	}
	return c.JSON(http.StatusOK, users)
}

// HandleUpdateUserRole changes a user's role
func (h *AuthHandlerImpl) HandleUpdateUserRole(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	u, err := h.store.UpdateUserRole(c.Request().Context(), id, string(req.role))
	if err != nil {
		return storeError("user", id, "update", err)
	}

	h.log.Info("role updated", "username", u.Username, "role", u.Role, "by", usernameOf(CurrentUser(c)))
	return c.JSON(http.StatusOK, u)
}

func usernameOf(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}

// Request types

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *loginRequest) validate() error {
	if r.Username == "" || r.Password == "" {
		return NewBadRequestError("missing credentials", nil)
	}
	return nil
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`

	role auth.Role
}

func (r *registerRequest) validate() error {
	if r.Username == "" {
		return NewValidationError("username")
	}
	if r.Password == "" {
		return NewValidationError("password")
	}
	if r.Role == "" {
		r.role = auth.RoleWorker
		return nil
	}
	role, ok := auth.ParseRole(r.Role)
	if !ok {
		return NewBadRequestError("invalid role", nil)
	}
	r.role = role
	return nil
}

type updateRoleRequest struct {
	Role string `json:"role"`

	role auth.Role
}

func (r *updateRoleRequest) validate() error {
	role, ok := auth.ParseRole(r.Role)
	if !ok {
		return NewBadRequestError("invalid role", nil)
	}
	r.role = role
	return nil
}
