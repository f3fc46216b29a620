package repositories

import (
	"context"
	"time"

	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/query"
)

// VideoRepository exposes data access for videos and their composed views.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	UpdateDetails(ctx context.Context, id, title, description string, thumbnail models.Asset, at time.Time) (models.Video, error)
	TogglePublished(ctx context.Context, id string, at time.Time) (models.Video, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	Detail(ctx context.Context, videoID, viewerID string) (models.VideoDetail, error)
	Feed(ctx context.Context, filter query.FeedFilter) ([]models.FeedItem, int64, error)
}

// EngagementRepository covers likes, comments and subscriptions.
type EngagementRepository interface {
	ToggleLike(ctx context.Context, like models.Like) (bool, error)
	DeleteLikesForVideo(ctx context.Context, videoID string) (int64, error)
	AddComment(ctx context.Context, comment models.Comment) error
	DeleteCommentsForVideo(ctx context.Context, videoID string) (int64, error)
	ToggleSubscription(ctx context.Context, sub models.Subscription) (bool, error)
}
