package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vidhub/backend/internal/apperr"
	"github.com/vidhub/backend/internal/auth"
	"github.com/vidhub/backend/internal/middleware"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/users"
)

// RefreshTokenCookie carries the refresh token for browser clients.
const RefreshTokenCookie = "refreshToken"

// CookieOptions controls the session cookies set on login and refresh.
type CookieOptions struct {
	Secure bool
}

// UserHandler implements the account endpoints.
type UserHandler struct {
	Users   UserService
	Uploads UploadOptions
	Cookies CookieOptions
}

// Register handles POST /api/v1/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	files, err := receiveFiles(w, r, h.Uploads, "avatar", "coverImage")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	profile, err := h.Users.Register(ctx, users.RegisterInput{
		Username:       r.FormValue("username"),
		Email:          r.FormValue("email"),
		FullName:       r.FormValue("fullName"),
		Password:       r.FormValue("password"),
		AvatarPath:     files["avatar"],
		CoverImagePath: files["coverImage"],
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondOK(ctx, w, http.StatusCreated, "user registered successfully", profile)
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User         *models.Profile `json:"user,omitempty"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	profile, tokens, err := h.Users.Login(ctx, users.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	h.setSessionCookies(w, tokens)
	respondOK(ctx, w, http.StatusOK, "user logged in successfully", sessionResponse{
		User:         &profile,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, _ := auth.PrincipalFromContext(ctx)
	if err := h.Users.Logout(ctx, principal); err != nil {
		respondError(ctx, w, err)
		return
	}

	h.clearSessionCookies(w)
	respondOK(ctx, w, http.StatusOK, "user logged out", struct{}{})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken handles POST /api/v1/users/refresh-token.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		req.RefreshToken = c.Value
	}
	if req.RefreshToken == "" {
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(ctx, w, err)
			return
		}
	}

	tokens, err := h.Users.Refresh(ctx, req.RefreshToken)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	h.setSessionCookies(w, tokens)
	respondOK(ctx, w, http.StatusOK, "access token refreshed", sessionResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Users.ChangePassword(ctx, auth.UserIDFromContext(ctx), req.OldPassword, req.NewPassword); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, "password changed successfully", struct{}{})
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.Users.CurrentUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, "current user fetched successfully", profile)
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	profile, err := h.Users.UpdateAccount(ctx, auth.UserIDFromContext(ctx), req.FullName, req.Email)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, "account details updated successfully", profile)
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatar updated successfully", h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "cover image updated successfully", h.Users.UpdateCoverImage)
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field, message string,
	update func(ctx context.Context, userID, path string) (models.Profile, error)) {
	ctx := r.Context()

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		respondError(ctx, w, apperr.AuthenticationRequired("unauthorized request"))
		return
	}

	files, err := receiveFiles(w, r, h.Uploads, field)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	profile, err := update(ctx, userID, files[field])
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, message, profile)
}

// Channel handles GET /api/v1/users/channel/{username}.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channel, err := h.Users.Channel(ctx, r.PathValue("username"), auth.UserIDFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, "user channel fetched successfully", channel)
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.Users.WatchHistory(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, "watch history fetched successfully", items)
}

func (h UserHandler) setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt))
	http.SetCookie(w, h.cookie(RefreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt))
}

func (h UserHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		c := h.cookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h UserHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
