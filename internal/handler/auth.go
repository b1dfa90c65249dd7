package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-ticketing/internal/auth"
	"github.com/iliyamo/concert-ticketing/internal/config"
	"github.com/iliyamo/concert-ticketing/internal/model"
	"github.com/iliyamo/concert-ticketing/internal/repository"
)

// AuthHandler serves registration, login and the token lifecycle.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

type registerReq struct {
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role}
}

// Register creates a customer account and signs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := c.Validate(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	id, err := h.Users.Create(ctx, repository.NewUser{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      model.RoleCustomer,
	}, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return fail(c, http.StatusConflict, "username_taken", "username already taken")
		}
		return internal(c, err)
	}
	u, _, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return internal(c, err)
	}
	return h.issue(ctx, c, http.StatusCreated, u)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, found, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		return internal(c, err)
	}
	if !found || !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "unauthorized", "invalid credentials")
	}
	return h.issue(ctx, c, http.StatusOK, u)
}

// Refresh rotates a refresh token: the old one is revoked and a new pair
// returned.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}
	hash := auth.HashRefresh(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	userID, ok, err := h.Tokens.Lookup(ctx, hash, time.Now().UTC())
	if err != nil {
		return internal(c, err)
	}
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized", "invalid refresh token")
	}
	u, found, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return internal(c, err)
	}
	if !found {
		return fail(c, http.StatusUnauthorized, "unauthorized", "invalid refresh token")
	}
	if err := h.Tokens.Revoke(ctx, hash); err != nil {
		return internal(c, err)
	}
	return h.issue(ctx, c, http.StatusOK, u)
}

// Logout revokes the given refresh token. Without one, a valid bearer
// token revokes every session of its user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if raw != "" {
		hash := auth.HashRefresh(raw)
		if _, ok, err := h.Tokens.Lookup(ctx, hash, time.Now().UTC()); err != nil {
			return internal(c, err)
		} else if !ok {
			return fail(c, http.StatusUnauthorized, "unauthorized", "invalid refresh token")
		}
		if err := h.Tokens.Revoke(ctx, hash); err != nil {
			return internal(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	bearer, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	if !ok {
		return badRequest(c, "provide a refresh_token or an Authorization header")
	}
	claims, err := auth.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimSpace(bearer))
	if err != nil {
		return unauthorized(c)
	}
	if err := h.Tokens.RevokeAll(ctx, claims.UserID); err != nil {
		return internal(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, found, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return internal(c, err)
	}
	if !found {
		return unauthorized(c)
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

func (h *AuthHandler) issue(ctx context.Context, c echo.Context, status int, u model.User) error {
	now := time.Now()
	access, err := auth.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTL, now)
	if err != nil {
		return internal(c, err)
	}
	refresh, err := auth.NewRefreshToken(h.Cfg.RefreshTTL, now)
	if err != nil {
		return internal(c, err)
	}
	if err := h.Tokens.Store(ctx, u.ID, auth.HashRefresh(refresh.Raw), refresh.Exp); err != nil {
		return internal(c, err)
	}
	return c.JSON(status, authResp{
		User:    toUserPart(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}
