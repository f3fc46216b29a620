// Package users implements account management and the channel profile view.
package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidhub/backend/internal/apperr"
	"github.com/vidhub/backend/internal/assets"
	"github.com/vidhub/backend/internal/auth"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/repositories"
)

// MinPasswordLength is the shortest password accepted at registration and change.
const MinPasswordLength = 8

// Sessions issues, rotates and revokes session tokens.
type Sessions interface {
	Issue(ctx context.Context, user models.User) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, principal auth.Principal) error
}

// Passwords hashes and verifies user passwords.
type Passwords interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) (bool, error)
}

// Service implements the user account operations.
type Service struct {
	users     repositories.UserRepository
	sessions  Sessions
	passwords Passwords
	assets    assets.Store

	now   func() time.Time
	newID func() string
}

// NewService wires a user service.
func NewService(users repositories.UserRepository, sessions Sessions, passwords Passwords, store assets.Store) *Service {
	return &Service{
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		assets:    store,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// RegisterInput carries a sign-up form. File paths point at local temp uploads.
type RegisterInput struct {
	Username       string
	Email          string
	FullName       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// Register creates an account after uploading its avatar and optional cover image.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.Profile, error) {
	temp := assets.NewTempFiles(in.AvatarPath, in.CoverImagePath)
	defer temp.Cleanup(ctx)

	logger := logging.FromContext(ctx)

	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)

	if in.Username == "" || in.Email == "" || in.FullName == "" || in.Password == "" {
		return models.Profile{}, apperr.InvalidInput("all fields are required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return models.Profile{}, apperr.InvalidInput("invalid email address")
	}
	if len(in.Password) < MinPasswordLength {
		return models.Profile{}, apperr.InvalidInput("password must be at least 8 characters")
	}
	if in.AvatarPath == "" {
		return models.Profile{}, apperr.InvalidInput("avatar file is required")
	}

	if _, err := s.users.FindByLogin(ctx, in.Username, in.Email); err == nil {
		logger.Warn("register existing account", "username", in.Username, "email", in.Email)
		return models.Profile{}, apperr.Conflict("user with email or username already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.Profile{}, apperr.Internal("", "unable to verify existing accounts", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return models.Profile{}, apperr.Internal("", "failed to secure password", err)
	}

	avatar, err := s.assets.Upload(ctx, temp.Release(in.AvatarPath), assets.KindImage)
	if err != nil {
		return models.Profile{}, apperr.Upload(apperr.StageAvatarAsset, "failed to upload avatar", err)
	}

	var cover assets.Uploaded
	if in.CoverImagePath != "" {
		cover, err = s.assets.Upload(ctx, temp.Release(in.CoverImagePath), assets.KindImage)
		if err != nil {
			s.discard(ctx, avatar.PublicID)
			return models.Profile{}, apperr.Upload(apperr.StageCoverAsset, "failed to upload cover image", err)
		}
	}

	now := s.now()
	user := models.User{
		ID:         s.newID(),
		Username:   in.Username,
		Email:      in.Email,
		FullName:   in.FullName,
		Avatar:     avatar.Asset(),
		CoverImage: cover.Asset(),
		Password:   hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		s.discard(ctx, avatar.PublicID, cover.PublicID)
		if errors.Is(err, repositories.ErrConflict) {
			return models.Profile{}, apperr.Conflict("user with email or username already exists")
		}
		return models.Profile{}, apperr.Internal(apperr.StageRecord, "failed to create account", err)
	}

	logger.Info("user registered", "userId", user.ID)
	return models.ProfileOf(user), nil
}

// LoginInput identifies the account by username or email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Login verifies credentials and starts a new session.
func (s *Service) Login(ctx context.Context, in LoginInput) (models.Profile, models.SessionTokens, error) {
	logger := logging.FromContext(ctx)

	if strings.TrimSpace(in.Username) == "" && strings.TrimSpace(in.Email) == "" {
		return models.Profile{}, models.SessionTokens{}, apperr.InvalidInput("username or email is required")
	}
	if in.Password == "" {
		return models.Profile{}, models.SessionTokens{}, apperr.InvalidInput("password is required")
	}

	user, err := s.users.FindByLogin(ctx, in.Username, in.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("login unknown user", "username", in.Username, "email", in.Email)
			return models.Profile{}, models.SessionTokens{}, apperr.AuthenticationRequired("invalid user credentials")
		}
		return models.Profile{}, models.SessionTokens{}, apperr.Internal("", "unable to look up user", err)
	}

	ok, err := s.passwords.Verify(in.Password, user.Password)
	if err != nil {
		return models.Profile{}, models.SessionTokens{}, apperr.Internal("", "unable to verify password", err)
	}
	if !ok {
		logger.Warn("login password mismatch", "userId", user.ID)
		return models.Profile{}, models.SessionTokens{}, apperr.AuthenticationRequired("invalid user credentials")
	}

	tokens, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return models.Profile{}, models.SessionTokens{}, apperr.Internal("", "failed to create session", err)
	}
	return models.ProfileOf(user), tokens, nil
}

// Logout clears the stored refresh token and revokes the current access token.
func (s *Service) Logout(ctx context.Context, principal auth.Principal) error {
	if principal.UserID == "" {
		return apperr.AuthenticationRequired("unauthorized request")
	}
	if err := s.sessions.Revoke(ctx, principal); err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return nil
		}
		return apperr.Internal("", "failed to end session", err)
	}
	return nil
}

// Refresh rotates the session identified by refreshToken.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return models.SessionTokens{}, apperr.AuthenticationRequired("unauthorized request")
	}

	tokens, err := s.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrSessionNotFound):
			return models.SessionTokens{}, apperr.AuthenticationRequired("invalid refresh token")
		case errors.Is(err, auth.ErrRefreshTokenExpired):
			return models.SessionTokens{}, apperr.AuthenticationRequired("refresh token is expired or used")
		case errors.Is(err, repositories.ErrNotFound):
			return models.SessionTokens{}, apperr.AuthenticationRequired("invalid refresh token")
		}
		return models.SessionTokens{}, apperr.Internal("", "unable to refresh session", err)
	}
	return tokens, nil
}

// ChangePassword replaces the user's password after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if userID == "" {
		return apperr.AuthenticationRequired("unauthorized request")
	}
	if oldPassword == "" || newPassword == "" {
		return apperr.InvalidInput("old and new password are required")
	}
	if len(newPassword) < MinPasswordLength {
		return apperr.InvalidInput("password must be at least 8 characters")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return userErr(err)
	}

	ok, err := s.passwords.Verify(oldPassword, user.Password)
	if err != nil {
		return apperr.Internal("", "unable to verify password", err)
	}
	if !ok {
		return apperr.InvalidInput("invalid old password")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return apperr.Internal("", "failed to secure password", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash, s.now()); err != nil {
		return userErr(err)
	}
	return nil
}

// CurrentUser returns the profile of the authenticated user.
func (s *Service) CurrentUser(ctx context.Context, userID string) (models.Profile, error) {
	if userID == "" {
		return models.Profile{}, apperr.AuthenticationRequired("unauthorized request")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.Profile{}, userErr(err)
	}
	return models.ProfileOf(user), nil
}

// UpdateAccount changes the user's full name and email.
func (s *Service) UpdateAccount(ctx context.Context, userID, fullName, email string) (models.Profile, error) {
	if userID == "" {
		return models.Profile{}, apperr.AuthenticationRequired("unauthorized request")
	}
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return models.Profile{}, apperr.InvalidInput("full name and email are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.Profile{}, apperr.InvalidInput("invalid email address")
	}

	user, err := s.users.UpdateAccount(ctx, userID, fullName, email, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Profile{}, apperr.Conflict("email is already in use")
		}
		return models.Profile{}, userErr(err)
	}
	return models.ProfileOf(user), nil
}

// UpdateAvatar replaces the user's avatar image.
func (s *Service) UpdateAvatar(ctx context.Context, userID, path string) (models.Profile, error) {
	return s.replaceImage(ctx, userID, path, "avatar", apperr.StageAvatarAsset,
		func(u models.User) models.Asset { return u.Avatar },
		s.users.UpdateAvatar)
}

// UpdateCoverImage replaces the user's cover image.
func (s *Service) UpdateCoverImage(ctx context.Context, userID, path string) (models.Profile, error) {
	return s.replaceImage(ctx, userID, path, "cover image", apperr.StageCoverAsset,
		func(u models.User) models.Asset { return u.CoverImage },
		s.users.UpdateCoverImage)
}

type imageUpdater func(ctx context.Context, id string, asset models.Asset, at time.Time) (models.User, error)

// replaceImage uploads the new image, persists it and then drops the previous
// remote object. Removing the old object is best effort.
func (s *Service) replaceImage(ctx context.Context, userID, path, label string, stage apperr.Stage,
	current func(models.User) models.Asset, update imageUpdater) (models.Profile, error) {
	temp := assets.NewTempFiles(path)
	defer temp.Cleanup(ctx)

	if userID == "" {
		return models.Profile{}, apperr.AuthenticationRequired("unauthorized request")
	}
	if path == "" {
		return models.Profile{}, apperr.InvalidInput(label + " file is missing")
	}

	before, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.Profile{}, userErr(err)
	}

	uploaded, err := s.assets.Upload(ctx, temp.Release(path), assets.KindImage)
	if err != nil {
		return models.Profile{}, apperr.Upload(stage, "failed to upload "+label, err)
	}

	after, err := update(ctx, userID, uploaded.Asset(), s.now())
	if err != nil {
		s.discard(ctx, uploaded.PublicID)
		return models.Profile{}, userErr(err)
	}

	s.discard(ctx, current(before).PublicID)
	return models.ProfileOf(after), nil
}

// Channel returns the public channel profile for username as seen by viewerID.
func (s *Service) Channel(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.ChannelProfile{}, apperr.InvalidInput("username is missing")
	}

	channel, err := s.users.Channel(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ChannelProfile{}, apperr.NotFound("channel does not exist")
		}
		return models.ChannelProfile{}, apperr.Internal("", "unable to load channel", err)
	}
	return channel, nil
}

// WatchHistory lists the videos the user watched, most recent first.
func (s *Service) WatchHistory(ctx context.Context, userID string) ([]models.FeedItem, error) {
	if userID == "" {
		return nil, apperr.AuthenticationRequired("unauthorized request")
	}
	items, err := s.users.WatchHistory(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("", "unable to load watch history", err)
	}
	return items, nil
}

// discard removes uploaded images that are no longer referenced.
func (s *Service) discard(ctx context.Context, publicIDs ...string) {
	for _, id := range publicIDs {
		if id == "" {
			continue
		}
		if err := s.assets.Delete(ctx, id, assets.KindImage); err != nil {
			logging.FromContext(ctx).Error("delete unused image", "publicId", id, "error", err)
		}
	}
}

func userErr(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("user not found")
	}
	return apperr.Internal("", "user store failure", err)
}
