// Package engagement toggles likes and subscriptions and stores comments.
package engagement

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidhub/backend/internal/apperr"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/repositories"
)

// Store persists engagement rows.
type Store interface {
	ToggleLike(ctx context.Context, like models.Like) (bool, error)
	AddComment(ctx context.Context, comment models.Comment) error
	ToggleSubscription(ctx context.Context, sub models.Subscription) (bool, error)
}

// VideoFinder resolves videos by id.
type VideoFinder interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
}

// UserFinder resolves users by id.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// MaxCommentLength bounds the stored comment content.
const MaxCommentLength = 2000

// Service implements the engagement operations.
type Service struct {
	store  Store
	videos VideoFinder
	users  UserFinder

	now   func() time.Time
	newID func() string
}

// NewService wires an engagement service.
func NewService(store Store, videos VideoFinder, users UserFinder) *Service {
	return &Service{
		store:  store,
		videos: videos,
		users:  users,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// ToggleSubscription subscribes the user to the channel or cancels an existing
// subscription. It reports whether the user is subscribed afterwards.
func (s *Service) ToggleSubscription(ctx context.Context, userID, channelID string) (bool, error) {
	if userID == "" {
		return false, apperr.AuthenticationRequired("unauthorized request")
	}
	channelID, err := parseID(channelID, "channel")
	if err != nil {
		return false, err
	}
	if channelID == userID {
		return false, apperr.InvalidInput("cannot subscribe to your own channel")
	}

	if _, err := s.users.FindByID(ctx, channelID); err != nil {
		return false, lookupErr(err, "channel does not exist")
	}

	subscribed, err := s.store.ToggleSubscription(ctx, models.Subscription{
		ID:           s.newID(),
		ChannelID:    channelID,
		SubscriberID: userID,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return false, apperr.Internal("", "unable to toggle subscription", err)
	}
	return subscribed, nil
}

// ToggleVideoLike likes or unlikes a video and reports whether it is liked afterwards.
func (s *Service) ToggleVideoLike(ctx context.Context, userID, videoID string) (bool, error) {
	if userID == "" {
		return false, apperr.AuthenticationRequired("unauthorized request")
	}
	videoID, err := parseID(videoID, "video")
	if err != nil {
		return false, err
	}
	if _, err := s.videos.FindByID(ctx, videoID); err != nil {
		return false, lookupErr(err, "video not found")
	}

	liked, err := s.store.ToggleLike(ctx, models.Like{
		ID:        s.newID(),
		VideoID:   videoID,
		LikedBy:   userID,
		CreatedAt: s.now(),
	})
	if err != nil {
		return false, apperr.Internal("", "unable to toggle like", err)
	}
	return liked, nil
}

// AddComment stores a comment on a video.
func (s *Service) AddComment(ctx context.Context, userID, videoID, content string) (models.Comment, error) {
	if userID == "" {
		return models.Comment{}, apperr.AuthenticationRequired("unauthorized request")
	}
	videoID, err := parseID(videoID, "video")
	if err != nil {
		return models.Comment{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.InvalidInput("comment content is required")
	}
	if len(content) > MaxCommentLength {
		return models.Comment{}, apperr.InvalidInput("comment is too long")
	}
	if _, err := s.videos.FindByID(ctx, videoID); err != nil {
		return models.Comment{}, lookupErr(err, "video not found")
	}

	now := s.now()
	comment := models.Comment{
		ID:        s.newID(),
		VideoID:   videoID,
		OwnerID:   userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.AddComment(ctx, comment); err != nil {
		return models.Comment{}, apperr.Internal("", "unable to add comment", err)
	}
	return comment, nil
}

func parseID(raw, label string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", apperr.InvalidInput("invalid " + label + " id")
	}
	return id.String(), nil
}

func lookupErr(err error, notFound string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Internal("", "lookup failed", err)
}
