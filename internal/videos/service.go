// Package videos implements the video read views and the owner-only mutations.
package videos

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidhub/backend/internal/apperr"
	"github.com/vidhub/backend/internal/assets"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/metrics"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/query"
	"github.com/vidhub/backend/internal/repositories"
)

// Store is the video persistence used by the service.
type Store interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	UpdateDetails(ctx context.Context, id, title, description string, thumbnail models.Asset, at time.Time) (models.Video, error)
	TogglePublished(ctx context.Context, id string, at time.Time) (models.Video, error)
	Delete(ctx context.Context, id string) error
	Detail(ctx context.Context, videoID, viewerID string) (models.VideoDetail, error)
	Feed(ctx context.Context, filter query.FeedFilter) ([]models.FeedItem, int64, error)
}

// Dependents removes the rows that reference a video.
type Dependents interface {
	DeleteLikesForVideo(ctx context.Context, videoID string) (int64, error)
	DeleteCommentsForVideo(ctx context.Context, videoID string) (int64, error)
}

// ViewSink accepts view events for background persistence.
type ViewSink interface {
	Record(ctx context.Context, videoID, viewerID string) error
}

// Service coordinates video reads and mutations across the database and asset store.
type Service struct {
	videos     Store
	dependents Dependents
	assets     assets.Store
	views      ViewSink
	metrics    *metrics.Metrics

	now   func() time.Time
	newID func() string
}

// NewService wires a video service. views and m may be nil.
func NewService(videos Store, dependents Dependents, store assets.Store, views ViewSink, m *metrics.Metrics) *Service {
	return &Service{
		videos:     videos,
		dependents: dependents,
		assets:     store,
		views:      views,
		metrics:    m,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// GetByID returns the composed detail of a video. The returned view count
// includes the current read, which is persisted in the background.
func (s *Service) GetByID(ctx context.Context, videoID, viewerID string) (models.VideoDetail, error) {
	videoID, err := parseVideoID(videoID)
	if err != nil {
		return models.VideoDetail{}, err
	}

	detail, err := s.videos.Detail(ctx, videoID, viewerID)
	if err != nil {
		return models.VideoDetail{}, videoErr(err, "")
	}

	detail.Views++
	if s.views != nil {
		if err := s.views.Record(ctx, videoID, viewerID); err != nil {
			logging.FromContext(ctx).Warn("view not recorded", "videoId", videoID, "error", err)
		}
	}
	return detail, nil
}

// ListParams are the raw feed query parameters.
type ListParams struct {
	Page     string
	Limit    string
	Query    string
	SortBy   string
	SortType string
	UserID   string
}

// List returns one page of published videos.
func (s *Service) List(ctx context.Context, p ListParams) (models.Page[models.FeedItem], error) {
	page := query.PositiveInt(p.Page, query.DefaultPage)
	limit := query.PositiveInt(p.Limit, query.DefaultLimit)
	if limit > query.MaxLimit {
		limit = query.MaxLimit
	}
	if page > query.MaxPage {
		page = query.MaxPage
	}

	ownerID := strings.TrimSpace(p.UserID)
	if ownerID != "" {
		if _, err := uuid.Parse(ownerID); err != nil {
			return models.Page[models.FeedItem]{}, apperr.InvalidInput("invalid user id")
		}
	}

	filter := query.FeedFilter{
		OwnerID: ownerID,
		Search:  strings.TrimSpace(p.Query),
		SortBy:  strings.TrimSpace(p.SortBy),
		SortDir: sortDirection(p.SortType),
		Page:    page,
		Limit:   limit,
	}

	items, total, err := s.videos.Feed(ctx, filter)
	if err != nil {
		return models.Page[models.FeedItem]{}, apperr.Internal("", "unable to list videos", err)
	}
	return query.NewPage(items, total, page, limit), nil
}

// sortDirection yields 1 or -1 only for those exact values, otherwise 0.
func sortDirection(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || (n != 1 && n != -1) {
		return 0
	}
	return n
}

// PublishInput is a new video upload. Paths point at local temp files.
type PublishInput struct {
	Title         string
	Description   string
	VideoPath     string
	ThumbnailPath string
}

// Publish uploads the video and thumbnail and stores the new record.
func (s *Service) Publish(ctx context.Context, ownerID string, in PublishInput) (video models.Video, err error) {
	temp := assets.NewTempFiles(in.VideoPath, in.ThumbnailPath)
	defer temp.Cleanup(ctx)

	if ownerID == "" {
		return models.Video{}, apperr.AuthenticationRequired("unauthorized request")
	}

	ctx, span := logging.StartSpan(ctx, "videos.publish")
	defer func() {
		span.End(err)
		s.metrics.Mutation("publish", err)
	}()
	logger := logging.FromContext(ctx)

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" {
		return models.Video{}, apperr.InvalidInput("title and description are required")
	}
	if in.VideoPath == "" {
		return models.Video{}, apperr.InvalidInput("video file is required")
	}
	if in.ThumbnailPath == "" {
		return models.Video{}, apperr.InvalidInput("thumbnail file is required")
	}

	uploadedVideo, err := s.assets.Upload(ctx, temp.Release(in.VideoPath), assets.KindVideo)
	if err != nil {
		return models.Video{}, apperr.Upload(apperr.StageVideoAsset, "failed to upload video", err)
	}

	thumbnail, err := s.assets.Upload(ctx, temp.Release(in.ThumbnailPath), assets.KindImage)
	if err != nil {
		if delErr := s.assets.Delete(ctx, uploadedVideo.PublicID, assets.KindVideo); delErr != nil {
			logger.Error("remove uploaded video after thumbnail failure", "publicId", uploadedVideo.PublicID, "error", delErr)
		}
		return models.Video{}, apperr.Upload(apperr.StageThumbnailAsset, "failed to upload thumbnail", err)
	}

	now := s.now()
	video = models.Video{
		ID:          s.newID(),
		OwnerID:     ownerID,
		VideoFile:   uploadedVideo.Asset(),
		Thumbnail:   thumbnail.Asset(),
		Title:       in.Title,
		Description: in.Description,
		Duration:    uploadedVideo.Duration,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.videos.Create(ctx, video); err != nil {
		// Both assets stay in the object store.
		logger.Error("video record not created", "videoPublicId", video.VideoFile.PublicID,
			"thumbnailPublicId", video.Thumbnail.PublicID, "error", err)
		return models.Video{}, apperr.Internal(apperr.StageRecord, "failed to create video", err)
	}

	logger.Info("video published", "videoId", video.ID, "userId", ownerID)
	return video, nil
}

// UpdateInput replaces a video's details. A new thumbnail is mandatory.
type UpdateInput struct {
	Title         string
	Description   string
	ThumbnailPath string
}

// Update swaps the thumbnail and stores the new title and description.
func (s *Service) Update(ctx context.Context, userID, videoID string, in UpdateInput) (video models.Video, err error) {
	temp := assets.NewTempFiles(in.ThumbnailPath)
	defer temp.Cleanup(ctx)

	if userID == "" {
		return models.Video{}, apperr.AuthenticationRequired("unauthorized request")
	}

	ctx, span := logging.StartSpan(ctx, "videos.update")
	defer func() {
		span.End(err)
		s.metrics.Mutation("update", err)
	}()
	logger := logging.FromContext(ctx)

	videoID, err = parseVideoID(videoID)
	if err != nil {
		return models.Video{}, err
	}
	if in.ThumbnailPath == "" {
		return models.Video{}, apperr.InvalidInput("thumbnail file is required")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" {
		return models.Video{}, apperr.InvalidInput("title and description are required")
	}

	existing, err := s.owned(ctx, userID, videoID)
	if err != nil {
		return models.Video{}, err
	}

	if err := s.assets.Delete(ctx, existing.Thumbnail.PublicID, assets.KindImage); err != nil {
		return models.Video{}, apperr.Upload(apperr.StageOldThumbnail, "failed to delete old thumbnail", err)
	}

	thumbnail, err := s.assets.Upload(ctx, temp.Release(in.ThumbnailPath), assets.KindImage)
	if err != nil {
		logger.Error("video left without thumbnail", "videoId", videoID, "publicId", existing.Thumbnail.PublicID)
		return models.Video{}, apperr.Upload(apperr.StageNewThumbnail, "failed to upload thumbnail", err)
	}

	video, err = s.videos.UpdateDetails(ctx, videoID, in.Title, in.Description, thumbnail.Asset(), s.now())
	if err != nil {
		return models.Video{}, videoErr(err, apperr.StageRecord)
	}
	return video, nil
}

// Delete removes the video and everything that depends on it. Stages run in a
// fixed order and the first failure stops the cascade without rollback.
func (s *Service) Delete(ctx context.Context, userID, videoID string) (err error) {
	if userID == "" {
		return apperr.AuthenticationRequired("unauthorized request")
	}

	ctx, span := logging.StartSpan(ctx, "videos.delete")
	defer func() {
		span.End(err)
		s.metrics.Mutation("delete", err)
	}()
	logger := logging.FromContext(ctx)

	videoID, err = parseVideoID(videoID)
	if err != nil {
		return err
	}

	video, err := s.owned(ctx, userID, videoID)
	if err != nil {
		return err
	}

	fail := func(stage apperr.Stage, e *apperr.Error) error {
		s.metrics.DeleteStageFailed(string(stage))
		logger.Error("video delete stopped", "videoId", videoID, "stage", string(stage), "error", e.Err)
		return e
	}

	if _, err := s.dependents.DeleteLikesForVideo(ctx, videoID); err != nil {
		return fail(apperr.StageLikes, apperr.Internal(apperr.StageLikes, "failed to delete likes", err))
	}
	if _, err := s.dependents.DeleteCommentsForVideo(ctx, videoID); err != nil {
		return fail(apperr.StageComments, apperr.Internal(apperr.StageComments, "failed to delete comments", err))
	}
	if err := s.videos.Delete(ctx, videoID); err != nil {
		return fail(apperr.StageRecord, apperr.Internal(apperr.StageRecord, "failed to delete video", err))
	}
	if err := s.assets.Delete(ctx, video.VideoFile.PublicID, assets.KindVideo); err != nil {
		return fail(apperr.StageVideoAsset, apperr.Upload(apperr.StageVideoAsset, "failed to delete video file", err))
	}
	if err := s.assets.Delete(ctx, video.Thumbnail.PublicID, assets.KindImage); err != nil {
		return fail(apperr.StageThumbnailAsset, apperr.Upload(apperr.StageThumbnailAsset, "failed to delete thumbnail", err))
	}

	logger.Info("video deleted", "videoId", videoID, "userId", userID)
	return nil
}

// TogglePublish flips the published flag and returns the updated record.
func (s *Service) TogglePublish(ctx context.Context, userID, videoID string) (video models.Video, err error) {
	if userID == "" {
		return models.Video{}, apperr.AuthenticationRequired("unauthorized request")
	}
	defer func() { s.metrics.Mutation("toggle_publish", err) }()

	videoID, err = parseVideoID(videoID)
	if err != nil {
		return models.Video{}, err
	}
	if _, err = s.owned(ctx, userID, videoID); err != nil {
		return models.Video{}, err
	}

	video, err = s.videos.TogglePublished(ctx, videoID, s.now())
	if err != nil {
		return models.Video{}, videoErr(err, apperr.StageRecord)
	}
	return video, nil
}

// owned loads the video and checks that userID owns it.
func (s *Service) owned(ctx context.Context, userID, videoID string) (models.Video, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, videoErr(err, "")
	}
	if video.OwnerID != userID {
		logging.FromContext(ctx).Warn("video ownership check failed", "videoId", videoID, "userId", userID)
		return models.Video{}, apperr.AuthorizationDenied("you do not have permission to modify this video")
	}
	return video, nil
}

func parseVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.InvalidInput("video id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.InvalidInput("invalid video id")
	}
	return id.String(), nil
}

func videoErr(err error, stage apperr.Stage) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("video not found")
	}
	return apperr.Internal(stage, "video store failure", err)
}
