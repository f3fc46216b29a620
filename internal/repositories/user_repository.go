package repositories

import (
	"context"
	"time"

	"github.com/vidhub/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByLogin(ctx context.Context, username, email string) (models.User, error)
	UpdateAccount(ctx context.Context, id, fullName, email string, at time.Time) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
	UpdateAvatar(ctx context.Context, id string, avatar models.Asset, at time.Time) (models.User, error)
	UpdateCoverImage(ctx context.Context, id string, cover models.Asset, at time.Time) (models.User, error)
	Channel(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.FeedItem, error)
	AppendWatchHistory(ctx context.Context, userID, videoID string, at time.Time) error
}
