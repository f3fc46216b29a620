package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidhub/backend/internal/db"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/query"
)

const userColumns = `id, username, email, full_name, avatar_url, avatar_public_id,
        cover_image_url, cover_image_public_id, password_hash, refresh_token, refresh_expires_at,
        created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record. Username is stored lowercased and trimmed
// and email lowercased.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, avatar_url, avatar_public_id,
            cover_image_url, cover_image_public_id, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, user.ID, normalizeUsername(user.Username), normalizeEmail(user.Email), user.FullName,
		user.Avatar.URL, user.Avatar.PublicID, user.CoverImage.URL, user.CoverImage.PublicID,
		user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if mapped, ok := classify(err); ok {
			return mapped
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "email = $1", normalizeEmail(email))
}

// FindByLogin fetches the user matching either the username or the email.
// Empty identifiers never match.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, username, email string) (models.User, error) {
	return r.findOne(ctx, "(username = NULLIF($1, '') OR email = NULLIF($2, '')) ORDER BY created_at LIMIT 1",
		normalizeUsername(username), normalizeEmail(email))
}

func (r *PostgresUserRepository) findOne(ctx context.Context, where string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, args...)
	user, err := scanUser(row)
	if err != nil {
		if mapped, ok := classify(err); ok {
			return models.User{}, mapped
		}
		return models.User{}, err
	}
	return user, nil
}

// UpdateAccount changes the full name and email of a user.
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, id, fullName, email string, at time.Time) (models.User, error) {
	return r.updateReturning(ctx, "update account", `
        UPDATE users SET full_name = $2, email = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+userColumns, id, fullName, normalizeEmail(email), at)
}

// UpdatePassword stores a new password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET password_hash = $2, updated_at = $3
        WHERE id = $1
    `, id, passwordHash, at)
	if err != nil {
		if mapped, ok := classify(err); ok {
			return mapped
		}
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvatar replaces the avatar reference.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id string, avatar models.Asset, at time.Time) (models.User, error) {
	return r.updateReturning(ctx, "update avatar", `
        UPDATE users SET avatar_url = $2, avatar_public_id = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+userColumns, id, avatar.URL, avatar.PublicID, at)
}

// UpdateCoverImage replaces the cover image reference.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id string, cover models.Asset, at time.Time) (models.User, error) {
	return r.updateReturning(ctx, "update cover image", `
        UPDATE users SET cover_image_url = $2, cover_image_public_id = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+userColumns, id, cover.URL, cover.PublicID, at)
}

func (r *PostgresUserRepository) updateReturning(ctx context.Context, op, stmt string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, stmt, args...))
	if err != nil {
		if mapped, ok := classify(err); ok {
			return models.User{}, mapped
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Channel loads the channel view of username as seen by viewerID (which may be empty).
func (r *PostgresUserRepository) Channel(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row, err := queryPlanRow(ctx, conn, query.ChannelProfile(username, viewerID))
	if err != nil {
		return models.ChannelProfile{}, err
	}

	var ch models.ChannelProfile
	if err := row.Scan(
		&ch.ID, &ch.Username, &ch.Email, &ch.FullName, &ch.Avatar, &ch.CoverImage, &ch.CreatedAt,
		&ch.SubscribersCount, &ch.SubscribedToCount, &ch.IsSubscribed,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		if mapped, ok := classify(err); ok {
			return models.ChannelProfile{}, mapped
		}
		return models.ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}
	return ch, nil
}

// WatchHistory lists the videos a user has opened, most recent first. Videos
// deleted since they were watched are skipped.
func (r *PostgresUserRepository) WatchHistory(ctx context.Context, userID string) ([]models.FeedItem, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := queryPlan(ctx, conn, query.WatchHistory(userID))
	if err != nil {
		return nil, err
	}
	return scanFeedItems(rows)
}

// AppendWatchHistory records that a user opened a video, moving it to the
// front when it was watched before.
func (r *PostgresUserRepository) AppendWatchHistory(ctx context.Context, userID, videoID string, at time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, userID, videoID, at)
	if err != nil {
		return fmt.Errorf("upsert watch history: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user         models.User
		refreshToken *string
	)
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.Avatar.URL, &user.Avatar.PublicID, &user.CoverImage.URL, &user.CoverImage.PublicID,
		&user.Password, &refreshToken, &user.RefreshExpiresAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	if refreshToken != nil {
		user.RefreshToken = *refreshToken
	}
	return user, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ UserRepository = (*PostgresUserRepository)(nil)
