package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidhub/backend/internal/db"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/query"
)

const videoColumns = `id, owner_id, video_url, video_public_id, thumbnail_url, thumbnail_public_id,
        title, description, duration, views, is_published, created_at, updated_at`

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_url, video_public_id, thumbnail_url, thumbnail_public_id,
            title, description, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, video.ID, video.OwnerID, video.VideoFile.URL, video.VideoFile.PublicID,
		video.Thumbnail.URL, video.Thumbnail.PublicID, video.Title, video.Description,
		video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		if mapped, ok := classify(err); ok {
			return mapped
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a video record.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	return r.queryVideo(ctx, "select video", "SELECT "+videoColumns+" FROM videos WHERE id = $1", id)
}

// UpdateDetails persists a new title, description and thumbnail together.
func (r *PostgresVideoRepository) UpdateDetails(ctx context.Context, id, title, description string, thumbnail models.Asset, at time.Time) (models.Video, error) {
	return r.queryVideo(ctx, "update video", `
        UPDATE videos
        SET title = $2, description = $3, thumbnail_url = $4, thumbnail_public_id = $5, updated_at = $6
        WHERE id = $1
        RETURNING `+videoColumns, id, title, description, thumbnail.URL, thumbnail.PublicID, at)
}

// TogglePublished flips the publish flag in place.
func (r *PostgresVideoRepository) TogglePublished(ctx context.Context, id string, at time.Time) (models.Video, error) {
	return r.queryVideo(ctx, "toggle publish", `
        UPDATE videos
        SET is_published = NOT is_published, updated_at = $2
        WHERE id = $1
        RETURNING `+videoColumns, id, at)
}

// Delete removes the video record.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementViews adds one to the stored view count.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Detail composes the single-video view for viewerID (which may be empty).
// Views are returned as stored.
func (r *PostgresVideoRepository) Detail(ctx context.Context, videoID, viewerID string) (models.VideoDetail, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoDetail{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row, err := queryPlanRow(ctx, conn, query.VideoDetail(videoID, viewerID))
	if err != nil {
		return models.VideoDetail{}, err
	}

	var d models.VideoDetail
	if err := row.Scan(
		&d.ID, &d.VideoFile, &d.Thumbnail, &d.Title, &d.Description, &d.Duration, &d.Views,
		&d.IsPublished, &d.CreatedAt, &d.UpdatedAt,
		&d.Owner.ID, &d.Owner.Username, &d.Owner.FullName, &d.Owner.Avatar,
		&d.Owner.SubscribersCount, &d.LikesCount, &d.IsLiked, &d.CommentsCount,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VideoDetail{}, ErrNotFound
		}
		if mapped, ok := classify(err); ok {
			return models.VideoDetail{}, mapped
		}
		return models.VideoDetail{}, fmt.Errorf("select video detail: %w", err)
	}

	rows, err := queryPlan(ctx, conn, query.VideoComments(videoID))
	if err != nil {
		return models.VideoDetail{}, err
	}
	defer rows.Close()

	d.Comments = []models.CommentView{}
	for rows.Next() {
		var c models.CommentView
		if err := rows.Scan(&c.ID, &c.Content, &c.CreatedAt,
			&c.Owner.ID, &c.Owner.Username, &c.Owner.FullName, &c.Owner.Avatar); err != nil {
			return models.VideoDetail{}, fmt.Errorf("scan comment: %w", err)
		}
		d.Comments = append(d.Comments, c)
	}
	if err := rows.Err(); err != nil {
		return models.VideoDetail{}, fmt.Errorf("iterate comments: %w", err)
	}

	return d, nil
}

// Feed returns one page of the published feed and the total number of matches.
func (r *PostgresVideoRepository) Feed(ctx context.Context, filter query.FeedFilter) ([]models.FeedItem, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	plan := query.Feed(filter)
	total, err := countPlan(ctx, conn, plan)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []models.FeedItem{}, 0, nil
	}

	rows, err := queryPlan(ctx, conn, plan)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanFeedItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresVideoRepository) queryVideo(ctx context.Context, op, stmt string, args ...any) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var v models.Video
	err = conn.QueryRow(ctx, stmt, args...).Scan(
		&v.ID, &v.OwnerID, &v.VideoFile.URL, &v.VideoFile.PublicID, &v.Thumbnail.URL, &v.Thumbnail.PublicID,
		&v.Title, &v.Description, &v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		if mapped, ok := classify(err); ok {
			return models.Video{}, mapped
		}
		return models.Video{}, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
