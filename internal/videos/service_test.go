package videos

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vidhub/backend/internal/apperr"
	"github.com/vidhub/backend/internal/assets"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/query"
	"github.com/vidhub/backend/internal/repositories"
)

const (
	videoID = "3f8c4a2e-9b1d-4c6e-8a7f-1d2e3c4b5a69"
	ownerID = "owner-1"
)

// callLog records store and asset calls in order across stubs.
type callLog struct {
	calls []string
}

func (l *callLog) add(call string) { l.calls = append(l.calls, call) }

func (l *callLog) String() string { return strings.Join(l.calls, ",") }

type videoStoreStub struct {
	log       *callLog
	videos    map[string]models.Video
	views     map[string]int64
	feed      []models.FeedItem
	lastQuery query.FeedFilter
	createErr error
	deleteErr error
	updateErr error
}

func newVideoStore(log *callLog, videos ...models.Video) *videoStoreStub {
	s := &videoStoreStub{log: log, videos: make(map[string]models.Video), views: make(map[string]int64)}
	for _, v := range videos {
		s.videos[v.ID] = v
		s.views[v.ID] = v.Views
	}
	return s
}

func (s *videoStoreStub) Create(ctx context.Context, video models.Video) error {
	s.log.add("create")
	if s.createErr != nil {
		return s.createErr
	}
	s.videos[video.ID] = video
	return nil
}

func (s *videoStoreStub) FindByID(ctx context.Context, id string) (models.Video, error) {
	v, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return v, nil
}

func (s *videoStoreStub) UpdateDetails(ctx context.Context, id, title, description string, thumbnail models.Asset, at time.Time) (models.Video, error) {
	s.log.add("update")
	if s.updateErr != nil {
		return models.Video{}, s.updateErr
	}
	v := s.videos[id]
	v.Title, v.Description, v.Thumbnail, v.UpdatedAt = title, description, thumbnail, at
	s.videos[id] = v
	return v, nil
}

func (s *videoStoreStub) TogglePublished(ctx context.Context, id string, at time.Time) (models.Video, error) {
	v, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	v.IsPublished = !v.IsPublished
	s.videos[id] = v
	return v, nil
}

func (s *videoStoreStub) Delete(ctx context.Context, id string) error {
	s.log.add("record")
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.videos, id)
	return nil
}

func (s *videoStoreStub) IncrementViews(ctx context.Context, id string) error {
	s.views[id]++
	return nil
}

func (s *videoStoreStub) Detail(ctx context.Context, id, viewerID string) (models.VideoDetail, error) {
	v, ok := s.videos[id]
	if !ok {
		return models.VideoDetail{}, repositories.ErrNotFound
	}
	return models.VideoDetail{ID: v.ID, Title: v.Title, Views: s.views[id]}, nil
}

func (s *videoStoreStub) Feed(ctx context.Context, filter query.FeedFilter) ([]models.FeedItem, int64, error) {
	s.lastQuery = filter
	start := int(query.Offset(filter.Page, filter.Limit))
	if start >= len(s.feed) {
		return []models.FeedItem{}, int64(len(s.feed)), nil
	}
	end := start + filter.Limit
	if end > len(s.feed) {
		end = len(s.feed)
	}
	return s.feed[start:end], int64(len(s.feed)), nil
}

type dependentsStub struct {
	log         *callLog
	likesErr    error
	commentsErr error
}

func (d *dependentsStub) DeleteLikesForVideo(ctx context.Context, id string) (int64, error) {
	d.log.add("likes")
	return 0, d.likesErr
}

func (d *dependentsStub) DeleteCommentsForVideo(ctx context.Context, id string) (int64, error) {
	d.log.add("comments")
	return 0, d.commentsErr
}

type assetStoreStub struct {
	log        *callLog
	uploadErr  map[assets.Kind]error
	deleteErr  map[string]error
	assetCalls int
}

func (a *assetStoreStub) Upload(ctx context.Context, localPath string, kind assets.Kind) (assets.Uploaded, error) {
	defer os.Remove(localPath)
	a.assetCalls++
	a.log.add("upload:" + string(kind))
	if err := a.uploadErr[kind]; err != nil {
		return assets.Uploaded{}, err
	}
	id := string(kind) + "/" + filepath.Base(localPath)
	out := assets.Uploaded{URL: "https://cdn.example.com/" + id, PublicID: id}
	if kind == assets.KindVideo {
		out.Duration = 93.5
	}
	return out, nil
}

func (a *assetStoreStub) Delete(ctx context.Context, publicID string, kind assets.Kind) error {
	a.assetCalls++
	a.log.add("delete:" + publicID)
	return a.deleteErr[publicID]
}

// syncViews writes views inline so tests can observe the persisted count.
type syncViews struct {
	counter ViewCounter
}

func (s syncViews) Record(ctx context.Context, videoID, viewerID string) error {
	return s.counter.IncrementViews(ctx, videoID)
}

type fixture struct {
	log        *callLog
	store      *videoStoreStub
	dependents *dependentsStub
	assets     *assetStoreStub
	svc        *Service
}

func newFixture(videos ...models.Video) *fixture {
	log := &callLog{}
	f := &fixture{
		log:        log,
		store:      newVideoStore(log, videos...),
		dependents: &dependentsStub{log: log},
		assets:     &assetStoreStub{log: log},
	}
	f.svc = NewService(f.store, f.dependents, f.assets, syncViews{counter: f.store}, nil)
	f.svc.newID = func() string { return "new-video" }
	f.svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func ownedVideo() models.Video {
	return models.Video{
		ID:          videoID,
		OwnerID:     ownerID,
		VideoFile:   models.Asset{URL: "https://cdn.example.com/v.mp4", PublicID: "videos/v.mp4"},
		Thumbnail:   models.Asset{URL: "https://cdn.example.com/t.png", PublicID: "images/t.png"},
		Title:       "Intro",
		Description: "First upload",
		Views:       7,
		IsPublished: true,
	}
}

func tempUpload(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("data"), 0o600); err != nil {
		t.Fatalf("write temp upload: %v", err)
	}
	return path
}

func assertRemoved(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("expected %s to be removed, stat err = %v", p, err)
		}
	}
}

func assertKind(t *testing.T, err error, kind apperr.Kind, stage apperr.Stage) {
	t.Helper()
	if !errors.Is(err, &apperr.Error{Kind: kind, Stage: stage}) {
		t.Fatalf("expected %s error (stage %q), got %v", kind, stage, err)
	}
}

func TestGetByIDCountsEachReadOnce(t *testing.T) {
	f := newFixture(ownedVideo())

	first, err := f.svc.GetByID(context.Background(), videoID, "")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if first.Views != 8 {
		t.Fatalf("expected displayed views 8, got %d", first.Views)
	}
	if f.store.views[videoID] != 8 {
		t.Fatalf("expected persisted views 8, got %d", f.store.views[videoID])
	}

	second, err := f.svc.GetByID(context.Background(), strings.ToUpper(videoID), "viewer")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if second.Views != 9 || f.store.views[videoID] != 9 {
		t.Fatalf("expected displayed and persisted views 9, got %d and %d", second.Views, f.store.views[videoID])
	}
}

func TestGetByIDErrors(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetByID(context.Background(), "not-a-uuid", "")
	assertKind(t, err, apperr.KindInvalidInput, "")

	_, err = f.svc.GetByID(context.Background(), "", "")
	assertKind(t, err, apperr.KindInvalidInput, "")

	_, err = f.svc.GetByID(context.Background(), videoID, "")
	assertKind(t, err, apperr.KindNotFound, "")
}

func TestGetByIDRecorderFailureIsIgnored(t *testing.T) {
	f := newFixture(ownedVideo())
	f.svc.views = failingViews{}

	got, err := f.svc.GetByID(context.Background(), videoID, "")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Views != 8 {
		t.Fatalf("expected displayed views 8, got %d", got.Views)
	}
}

type failingViews struct{}

func (failingViews) Record(ctx context.Context, videoID, viewerID string) error {
	return ErrRecorderBusy
}

func TestListCoercesParams(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.List(context.Background(), ListParams{Page: "-3", Limit: "abc", SortBy: "views", SortType: "2"}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	q := f.store.lastQuery
	if q.Page != 1 || q.Limit != 10 {
		t.Fatalf("expected defaults 1/10, got %d/%d", q.Page, q.Limit)
	}
	if q.SortDir != 0 {
		t.Fatalf("expected sort ignored for sortType 2, got %d", q.SortDir)
	}

	if _, err := f.svc.List(context.Background(), ListParams{Page: "2", Limit: "1000", Query: " cats ", SortBy: "views", SortType: "-1"}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	q = f.store.lastQuery
	if q.Page != 2 || q.Limit != query.MaxLimit || q.SortDir != -1 || q.Search != "cats" {
		t.Fatalf("unexpected filter %+v", q)
	}

	if _, err := f.svc.List(context.Background(), ListParams{UserID: "nope"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input for malformed user id, got %v", err)
	}
}

func TestListPagination(t *testing.T) {
	f := newFixture()
	for i := 0; i < 5; i++ {
		f.store.feed = append(f.store.feed, models.FeedItem{ID: string(rune('a' + i))})
	}

	page, err := f.svc.List(context.Background(), ListParams{Page: "1", Limit: "2"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page.Items) != 2 || !page.HasNextPage || page.HasPrevPage || page.TotalItems != 5 {
		t.Fatalf("unexpected first page %+v", page)
	}

	page, err = f.svc.List(context.Background(), ListParams{Page: "3", Limit: "2"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page.Items) != 1 || page.HasNextPage || !page.HasPrevPage {
		t.Fatalf("unexpected last page %+v", page)
	}

	page, err = f.svc.List(context.Background(), ListParams{Page: "9", Limit: "2"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Items == nil || len(page.Items) != 0 {
		t.Fatalf("expected empty non-nil page, got %+v", page.Items)
	}
}

func TestPublish(t *testing.T) {
	f := newFixture()
	videoPath := tempUpload(t, "clip.mp4")
	thumbPath := tempUpload(t, "thumb.png")

	video, err := f.svc.Publish(context.Background(), ownerID, PublishInput{
		Title:         " Launch ",
		Description:   "Day one",
		VideoPath:     videoPath,
		ThumbnailPath: thumbPath,
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if got, want := f.log.String(), "upload:video,upload:image,create"; got != want {
		t.Fatalf("unexpected call order %q, want %q", got, want)
	}
	if video.OwnerID != ownerID || !video.IsPublished || video.Duration != 93.5 || video.Title != "Launch" {
		t.Fatalf("unexpected video %+v", video)
	}
	if video.VideoFile.PublicID != "video/clip.mp4" || video.Thumbnail.PublicID != "image/thumb.png" {
		t.Fatalf("unexpected asset references %+v %+v", video.VideoFile, video.Thumbnail)
	}
	assertRemoved(t, videoPath, thumbPath)
}

func TestPublishMissingThumbnailTouchesNothing(t *testing.T) {
	f := newFixture()
	videoPath := tempUpload(t, "clip.mp4")

	_, err := f.svc.Publish(context.Background(), ownerID, PublishInput{
		Title:       "Launch",
		Description: "Day one",
		VideoPath:   videoPath,
	})
	assertKind(t, err, apperr.KindInvalidInput, "")
	if f.assets.assetCalls != 0 {
		t.Fatalf("expected zero asset calls, got %d", f.assets.assetCalls)
	}
	assertRemoved(t, videoPath)
}

func TestPublishRequiresPrincipal(t *testing.T) {
	f := newFixture()
	videoPath := tempUpload(t, "clip.mp4")
	thumbPath := tempUpload(t, "thumb.png")

	_, err := f.svc.Publish(context.Background(), "", PublishInput{
		Title: "t", Description: "d", VideoPath: videoPath, ThumbnailPath: thumbPath,
	})
	assertKind(t, err, apperr.KindAuthenticationRequired, "")
	if len(f.log.calls) != 0 {
		t.Fatalf("expected no calls, got %v", f.log.calls)
	}
	assertRemoved(t, videoPath, thumbPath)
}

func TestPublishVideoUploadFailureRemovesThumbnail(t *testing.T) {
	f := newFixture()
	f.assets.uploadErr = map[assets.Kind]error{assets.KindVideo: errors.New("bucket offline")}
	thumbPath := tempUpload(t, "thumb.png")

	_, err := f.svc.Publish(context.Background(), ownerID, PublishInput{
		Title: "t", Description: "d", VideoPath: tempUpload(t, "clip.mp4"), ThumbnailPath: thumbPath,
	})
	assertKind(t, err, apperr.KindUpload, apperr.StageVideoAsset)
	if got := f.log.String(); got != "upload:video" {
		t.Fatalf("unexpected calls %q", got)
	}
	assertRemoved(t, thumbPath)
}

func TestPublishThumbnailFailureDeletesUploadedVideo(t *testing.T) {
	f := newFixture()
	f.assets.uploadErr = map[assets.Kind]error{assets.KindImage: errors.New("bucket offline")}

	_, err := f.svc.Publish(context.Background(), ownerID, PublishInput{
		Title: "t", Description: "d", VideoPath: tempUpload(t, "clip.mp4"), ThumbnailPath: tempUpload(t, "thumb.png"),
	})
	assertKind(t, err, apperr.KindUpload, apperr.StageThumbnailAsset)
	if got, want := f.log.String(), "upload:video,upload:image,delete:video/clip.mp4"; got != want {
		t.Fatalf("unexpected calls %q, want %q", got, want)
	}
}

func TestPublishRecordFailure(t *testing.T) {
	f := newFixture()
	f.store.createErr = errors.New("insert failed")

	_, err := f.svc.Publish(context.Background(), ownerID, PublishInput{
		Title: "t", Description: "d", VideoPath: tempUpload(t, "clip.mp4"), ThumbnailPath: tempUpload(t, "thumb.png"),
	})
	assertKind(t, err, apperr.KindInternal, apperr.StageRecord)
}

func TestUpdate(t *testing.T) {
	f := newFixture(ownedVideo())
	thumbPath := tempUpload(t, "fresh.png")

	video, err := f.svc.Update(context.Background(), ownerID, videoID, UpdateInput{
		Title: "Renamed", Description: "New words", ThumbnailPath: thumbPath,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got, want := f.log.String(), "delete:images/t.png,upload:image,update"; got != want {
		t.Fatalf("unexpected call order %q, want %q", got, want)
	}
	if video.Title != "Renamed" || video.Thumbnail.PublicID != "image/fresh.png" {
		t.Fatalf("unexpected video %+v", video)
	}
	assertRemoved(t, thumbPath)
}

func TestUpdateByNonOwnerIsDenied(t *testing.T) {
	f := newFixture(ownedVideo())
	thumbPath := tempUpload(t, "fresh.png")

	_, err := f.svc.Update(context.Background(), "intruder", videoID, UpdateInput{
		Title: "Mine", Description: "Now", ThumbnailPath: thumbPath,
	})
	assertKind(t, err, apperr.KindAuthorizationDenied, "")
	if f.assets.assetCalls != 0 {
		t.Fatalf("expected zero asset calls, got %d", f.assets.assetCalls)
	}
	assertRemoved(t, thumbPath)
}

func TestUpdateValidation(t *testing.T) {
	f := newFixture(ownedVideo())

	_, err := f.svc.Update(context.Background(), ownerID, videoID, UpdateInput{Title: "t", Description: "d"})
	assertKind(t, err, apperr.KindInvalidInput, "")

	thumbPath := tempUpload(t, "fresh.png")
	_, err = f.svc.Update(context.Background(), ownerID, videoID, UpdateInput{Title: " ", Description: "d", ThumbnailPath: thumbPath})
	assertKind(t, err, apperr.KindInvalidInput, "")
	assertRemoved(t, thumbPath)

	missing := tempUpload(t, "other.png")
	_, err = f.svc.Update(context.Background(), ownerID, "0b7e1f9a-0000-4000-8000-000000000000", UpdateInput{Title: "t", Description: "d", ThumbnailPath: missing})
	assertKind(t, err, apperr.KindNotFound, "")
	assertRemoved(t, missing)

	if f.assets.assetCalls != 0 {
		t.Fatalf("expected zero asset calls, got %d", f.assets.assetCalls)
	}
}

func TestUpdateOldThumbnailFailureAbortsBeforeUpload(t *testing.T) {
	f := newFixture(ownedVideo())
	f.assets.deleteErr = map[string]error{"images/t.png": errors.New("denied")}
	thumbPath := tempUpload(t, "fresh.png")

	_, err := f.svc.Update(context.Background(), ownerID, videoID, UpdateInput{
		Title: "t", Description: "d", ThumbnailPath: thumbPath,
	})
	assertKind(t, err, apperr.KindUpload, apperr.StageOldThumbnail)
	if got := f.log.String(); got != "delete:images/t.png" {
		t.Fatalf("unexpected calls %q", got)
	}
	assertRemoved(t, thumbPath)
}

func TestUpdateNewThumbnailFailure(t *testing.T) {
	f := newFixture(ownedVideo())
	f.assets.uploadErr = map[assets.Kind]error{assets.KindImage: errors.New("timeout")}

	_, err := f.svc.Update(context.Background(), ownerID, videoID, UpdateInput{
		Title: "t", Description: "d", ThumbnailPath: tempUpload(t, "fresh.png"),
	})
	assertKind(t, err, apperr.KindUpload, apperr.StageNewThumbnail)
	if strings.Contains(f.log.String(), "update") {
		t.Fatalf("record must not be updated, calls %q", f.log.String())
	}
}

func TestDeleteRunsStagesInOrder(t *testing.T) {
	f := newFixture(ownedVideo())

	if err := f.svc.Delete(context.Background(), ownerID, videoID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	want := "likes,comments,record,delete:videos/v.mp4,delete:images/t.png"
	if got := f.log.String(); got != want {
		t.Fatalf("unexpected call order %q, want %q", got, want)
	}
	if _, ok := f.store.videos[videoID]; ok {
		t.Fatal("expected video record to be removed")
	}
}

func TestDeleteStopsAtFailingStage(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name   string
		setup  func(*fixture)
		stage  apperr.Stage
		kind   apperr.Kind
		called string
	}{
		{"likes", func(f *fixture) { f.dependents.likesErr = boom }, apperr.StageLikes, apperr.KindInternal, "likes"},
		{"comments", func(f *fixture) { f.dependents.commentsErr = boom }, apperr.StageComments, apperr.KindInternal, "likes,comments"},
		{"record", func(f *fixture) { f.store.deleteErr = boom }, apperr.StageRecord, apperr.KindInternal, "likes,comments,record"},
		{"video asset", func(f *fixture) { f.assets.deleteErr = map[string]error{"videos/v.mp4": boom} },
			apperr.StageVideoAsset, apperr.KindUpload, "likes,comments,record,delete:videos/v.mp4"},
		{"thumbnail asset", func(f *fixture) { f.assets.deleteErr = map[string]error{"images/t.png": boom} },
			apperr.StageThumbnailAsset, apperr.KindUpload, "likes,comments,record,delete:videos/v.mp4,delete:images/t.png"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(ownedVideo())
			tc.setup(f)

			err := f.svc.Delete(context.Background(), ownerID, videoID)
			assertKind(t, err, tc.kind, tc.stage)
			if apperr.StageOf(err) != tc.stage {
				t.Fatalf("expected stage %q, got %q", tc.stage, apperr.StageOf(err))
			}
			if got := f.log.String(); got != tc.called {
				t.Fatalf("unexpected calls %q, want %q", got, tc.called)
			}
		})
	}
}

func TestDeleteAuthorization(t *testing.T) {
	f := newFixture(ownedVideo())

	assertKind(t, f.svc.Delete(context.Background(), "", videoID), apperr.KindAuthenticationRequired, "")
	assertKind(t, f.svc.Delete(context.Background(), "intruder", videoID), apperr.KindAuthorizationDenied, "")
	assertKind(t, f.svc.Delete(context.Background(), ownerID, "0b7e1f9a-0000-4000-8000-000000000000"), apperr.KindNotFound, "")

	if len(f.log.calls) != 0 {
		t.Fatalf("expected no side effects, got %v", f.log.calls)
	}
}

func TestTogglePublishTwiceRestores(t *testing.T) {
	f := newFixture(ownedVideo())

	first, err := f.svc.TogglePublish(context.Background(), ownerID, videoID)
	if err != nil {
		t.Fatalf("TogglePublish() error = %v", err)
	}
	if first.IsPublished {
		t.Fatal("expected video to be unpublished")
	}

	second, err := f.svc.TogglePublish(context.Background(), ownerID, videoID)
	if err != nil {
		t.Fatalf("TogglePublish() error = %v", err)
	}
	if !second.IsPublished {
		t.Fatal("expected video to be published again")
	}

	_, err = f.svc.TogglePublish(context.Background(), "intruder", videoID)
	assertKind(t, err, apperr.KindAuthorizationDenied, "")
	_, err = f.svc.TogglePublish(context.Background(), "", videoID)
	assertKind(t, err, apperr.KindAuthenticationRequired, "")
}

func TestListClampsHugePage(t *testing.T) {
	f := newFixture()
	f.store.feed = []models.FeedItem{{ID: "a"}, {ID: "b"}}

	page, err := f.svc.List(context.Background(), ListParams{Page: "4611686018427387905", Limit: "4"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if f.store.lastQuery.Page != query.MaxPage {
		t.Fatalf("expected page clamped to %d, got %d", query.MaxPage, f.store.lastQuery.Page)
	}
	if len(page.Items) != 0 || page.HasNextPage {
		t.Fatalf("expected an empty page past the end, got %+v", page)
	}
}
