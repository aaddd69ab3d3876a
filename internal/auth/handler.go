package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sheeplab/sheepdiary/internal/apperror"
)

// Handler handles HTTP requests for authentication. Handlers are thin:
// bind request, call service, render response. No business logic lives here.
type Handler struct {
	service    AuthService
	sessionTTL time.Duration
}

// NewHandler creates a new auth handler backed by the given service.
func NewHandler(service AuthService, sessionTTL time.Duration) *Handler {
	return &Handler{service: service, sessionTTL: sessionTTL}
}

// loginResponse is returned on successful login. The token is included in
// the body for the mobile client; browser clients rely on the cookie.
type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Register creates a new user account (POST /auth/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	user, err := h.service.Register(c.Request().Context(), RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Gender:   req.Gender,
		Age:      req.Age,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// Login authenticates a user and starts a session (POST /auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	token, user, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	setSessionCookie(c, token, int(h.sessionTTL.Seconds()))

	return c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}

// Logout destroys the current session (POST /auth/logout).
func (h *Handler) Logout(c echo.Context) error {
	if token := getSessionToken(c); token != "" {
		if err := h.service.DestroySession(c.Request().Context(), token); err != nil {
			return err
		}
	}

	clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's session info (GET /auth/me).
func (h *Handler) Me(c echo.Context) error {
	session := GetSession(c)
	if session == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	return c.JSON(http.StatusOK, session)
}
