package repositories

import (
	"context"
	"fmt"

	"github.com/vidhub/backend/internal/db"
	"github.com/vidhub/backend/internal/models"
)

// PostgresEngagementRepository provides PostgreSQL-backed persistence for
// likes, comments and subscriptions.
type PostgresEngagementRepository struct {
	pool db.Pool
}

// NewPostgresEngagementRepository constructs an engagement repository backed by PostgreSQL.
func NewPostgresEngagementRepository(pool db.Pool) *PostgresEngagementRepository {
	return &PostgresEngagementRepository{pool: pool}
}

// ToggleLike removes the like when present and inserts it otherwise. It
// reports whether the video is liked afterwards.
func (r *PostgresEngagementRepository) ToggleLike(ctx context.Context, like models.Like) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM likes WHERE video_id = $1 AND liked_by = $2
    `, like.VideoID, like.LikedBy)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, video_id, liked_by, created_at)
        VALUES ($1, $2, $3, $4)
    `, like.ID, like.VideoID, like.LikedBy, like.CreatedAt)
	if err != nil {
		if mapped, ok := classify(err); ok {
			return false, mapped
		}
		return false, fmt.Errorf("insert like: %w", err)
	}
	return true, nil
}

// DeleteLikesForVideo removes every like referencing the video.
func (r *PostgresEngagementRepository) DeleteLikesForVideo(ctx context.Context, videoID string) (int64, error) {
	return r.deleteFor(ctx, "delete likes", `DELETE FROM likes WHERE video_id = $1`, videoID)
}

// AddComment stores a new comment.
func (r *PostgresEngagementRepository) AddComment(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.VideoID, comment.OwnerID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		if mapped, ok := classify(err); ok {
			return mapped
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// DeleteCommentsForVideo removes every comment referencing the video.
func (r *PostgresEngagementRepository) DeleteCommentsForVideo(ctx context.Context, videoID string) (int64, error) {
	return r.deleteFor(ctx, "delete comments", `DELETE FROM comments WHERE video_id = $1`, videoID)
}

// ToggleSubscription removes the subscription when present and inserts it
// otherwise. It reports whether the subscriber follows the channel afterwards.
func (r *PostgresEngagementRepository) ToggleSubscription(ctx context.Context, sub models.Subscription) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions WHERE channel_id = $1 AND subscriber_id = $2
    `, sub.ChannelID, sub.SubscriberID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, channel_id, subscriber_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, sub.ID, sub.ChannelID, sub.SubscriberID, sub.CreatedAt)
	if err != nil {
		if mapped, ok := classify(err); ok {
			return false, mapped
		}
		return false, fmt.Errorf("insert subscription: %w", err)
	}
	return true, nil
}

func (r *PostgresEngagementRepository) deleteFor(ctx context.Context, op, stmt, videoID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, stmt, videoID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected(), nil
}

var _ EngagementRepository = (*PostgresEngagementRepository)(nil)
