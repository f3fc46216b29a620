package handlers

import (
	"context"

	"github.com/vidhub/backend/internal/auth"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/users"
	"github.com/vidhub/backend/internal/videos"
)

// UserService captures the account operations exposed over HTTP.
type UserService interface {
	Register(ctx context.Context, in users.RegisterInput) (models.Profile, error)
	Login(ctx context.Context, in users.LoginInput) (models.Profile, models.SessionTokens, error)
	Logout(ctx context.Context, principal auth.Principal) error
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (models.Profile, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (models.Profile, error)
	UpdateAvatar(ctx context.Context, userID, path string) (models.Profile, error)
	UpdateCoverImage(ctx context.Context, userID, path string) (models.Profile, error)
	Channel(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.FeedItem, error)
}

// VideoService captures the video reads and mutations exposed over HTTP.
type VideoService interface {
	GetByID(ctx context.Context, videoID, viewerID string) (models.VideoDetail, error)
	List(ctx context.Context, p videos.ListParams) (models.Page[models.FeedItem], error)
	Publish(ctx context.Context, ownerID string, in videos.PublishInput) (models.Video, error)
	Update(ctx context.Context, userID, videoID string, in videos.UpdateInput) (models.Video, error)
	Delete(ctx context.Context, userID, videoID string) error
	TogglePublish(ctx context.Context, userID, videoID string) (models.Video, error)
}

// EngagementService captures likes, comments and subscriptions.
type EngagementService interface {
	ToggleSubscription(ctx context.Context, userID, channelID string) (bool, error)
	ToggleVideoLike(ctx context.Context, userID, videoID string) (bool, error)
	AddComment(ctx context.Context, userID, videoID, content string) (models.Comment, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
