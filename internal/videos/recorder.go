package videos

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vidhub/backend/internal/metrics"
)

// ViewCounter persists a single view.
type ViewCounter interface {
	IncrementViews(ctx context.Context, id string) error
}

// HistoryAppender records that a user watched a video.
type HistoryAppender interface {
	AppendWatchHistory(ctx context.Context, userID, videoID string, at time.Time) error
}

// RecorderConfig controls the concurrency characteristics of the recorder.
type RecorderConfig struct {
	QueueSize int
	Workers   int
}

var (
	// ErrRecorderClosed is returned by Record after Shutdown.
	ErrRecorderClosed = errors.New("view recorder closed")
	// ErrRecorderBusy is returned when the queue is full and the view is dropped.
	ErrRecorderBusy = errors.New("view recorder queue full")
)

// ViewRecorder asynchronously persists view counts and watch history so that
// reads never wait on those writes.
type ViewRecorder struct {
	views   ViewCounter
	history HistoryAppender
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	jobs   chan viewJob
	wg     sync.WaitGroup
	once   sync.Once
}

var _ ViewSink = (*ViewRecorder)(nil)

type viewJob struct {
	videoID  string
	viewerID string
	at       time.Time
}

// NewViewRecorder starts the worker pool. history, m and logger may be nil.
func NewViewRecorder(views ViewCounter, history HistoryAppender, cfg RecorderConfig, m *metrics.Metrics, logger *slog.Logger) *ViewRecorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &ViewRecorder{
		views:   views,
		history: history,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		jobs:    make(chan viewJob, cfg.QueueSize),
	}

	r.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go r.worker()
	}

	return r
}

// Record schedules a view write without waiting for it. Anonymous views pass
// an empty viewerID and skip the watch history.
func (r *ViewRecorder) Record(ctx context.Context, videoID, viewerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRecorderClosed
	}

	select {
	case r.jobs <- viewJob{videoID: videoID, viewerID: viewerID, at: r.now()}:
		return nil
	default:
		r.metrics.ViewWrite(ErrRecorderBusy)
		return ErrRecorderBusy
	}
}

// Shutdown stops accepting views and waits for queued ones to be written.
func (r *ViewRecorder) Shutdown(ctx context.Context) error {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.jobs)
		r.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *ViewRecorder) worker() {
	defer r.wg.Done()

	for job := range r.jobs {
		r.handleJob(job)
	}
}

func (r *ViewRecorder) handleJob(job viewJob) {
	if r.views == nil {
		r.logger.Error("view recorder missing view counter", "videoId", job.videoID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := r.views.IncrementViews(ctx, job.videoID)
	r.metrics.ViewWrite(err)
	if err != nil {
		r.logger.Error("increment views", "videoId", job.videoID, "error", err)
	}

	if job.viewerID == "" || r.history == nil {
		return
	}
	if err := r.history.AppendWatchHistory(ctx, job.viewerID, job.videoID, job.at); err != nil {
		r.logger.Error("append watch history", "videoId", job.videoID, "userId", job.viewerID, "error", err)
	}
}
