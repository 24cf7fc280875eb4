package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-guest-registration/internal/auth"
	"github.com/iliyamo/event-guest-registration/internal/repository"
	"github.com/iliyamo/event-guest-registration/internal/utils"
)

// AuthHandler issues and rotates tokens for staff and admin accounts.
// Credentials are verified through the provider chain so the bootstrap
// admin and the persisted user store share one code path.
type AuthHandler struct {
	Creds          auth.CredentialProvider
	Tokens         *repository.TokenRepo
	Users          *repository.UserRepo
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(creds auth.CredentialProvider, tokens *repository.TokenRepo, users *repository.UserRepo, secret string, accessTTLMin, refreshTTLDays int) *AuthHandler {
	if creds == nil || tokens == nil || users == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{
		Creds:          creds,
		Tokens:         tokens,
		Users:          users,
		JWTSecret:      secret,
		AccessTTLMin:   accessTTLMin,
		RefreshTTLDays: refreshTTLDays,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Role         string `json:"role"`
}

// Login handles POST /v1/auth/login. A valid pair yields a short-lived
// access token and a refresh token whose hash is persisted. Failures are
// a uniform 401 so the response never reveals which half was wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}
	ctx := c.Request().Context()

	id, err := h.Creds.Verify(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	access, err := utils.NewAccessToken(h.JWTSecret, id.UserID, id.Role, h.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	// The bootstrap identity has no users row to hang a refresh token on,
	// so it gets an access token only and logs in again when it expires.
	if id.UserID == 0 {
		return c.JSON(http.StatusOK, tokenResponse{AccessToken: access.Token, Role: id.Role})
	}

	refresh, err := utils.NewRefreshToken(h.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, id.UserID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw,
		Role:         id.Role,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /v1/auth/refresh. The presented token is rotated:
// the old hash is revoked and a new pair is issued in its place.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}
	ctx := c.Request().Context()
	hash := utils.HashRefreshRaw(req.RefreshToken)

	tok, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired refresh token"})
	}
	u, err := h.Users.GetByID(ctx, tok.UserID)
	if err != nil || !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired refresh token"})
	}

	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token refresh failed"})
	}
	access, err := utils.NewAccessToken(h.JWTSecret, u.ID, u.Role, h.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token refresh failed"})
	}
	refresh, err := utils.NewRefreshToken(h.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token refresh failed"})
	}

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw,
		Role:         u.Role,
	})
}

// Logout handles POST /v1/auth/logout (authenticated). All active
// refresh tokens for the calling user are revoked.
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	if err := h.Tokens.RevokeAllForUser(c.Request().Context(), userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
