package handlers

import (
	"net/http"

	"github.com/vidhub/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users      UserService
	Videos     VideoService
	Engagement EngagementService
	Database   Pinger
	Metrics    http.Handler

	// AuthLimiter throttles registration and login per client address.
	AuthLimiter middleware.RateLimiter
	Uploads     UploadOptions
	Cookies     CookieOptions
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{DB: deps.Database}
	users := UserHandler{Users: deps.Users, Uploads: deps.Uploads, Cookies: deps.Cookies}
	videos := VideoHandler{Videos: deps.Videos, Uploads: deps.Uploads}
	engagement := EngagementHandler{Engagement: deps.Engagement}

	throttle := func(scope string, h http.HandlerFunc) http.Handler {
		return middleware.RateLimit(deps.AuthLimiter, scope, TooManyRequests())(h)
	}

	mux.HandleFunc("/healthz", health.Handle)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	mux.Handle("POST /api/v1/users/register", throttle("register", users.Register))
	mux.Handle("POST /api/v1/users/login", throttle("login", users.Login))
	mux.HandleFunc("POST /api/v1/users/logout", users.Logout)
	mux.HandleFunc("POST /api/v1/users/refresh-token", users.RefreshToken)
	mux.HandleFunc("POST /api/v1/users/change-password", users.ChangePassword)
	mux.HandleFunc("GET /api/v1/users/current-user", users.CurrentUser)
	mux.HandleFunc("PATCH /api/v1/users/update-account", users.UpdateAccount)
	mux.HandleFunc("PATCH /api/v1/users/avatar", users.UpdateAvatar)
	mux.HandleFunc("PATCH /api/v1/users/cover-image", users.UpdateCoverImage)
	mux.HandleFunc("GET /api/v1/users/channel/{username}", users.Channel)
	mux.HandleFunc("GET /api/v1/users/history", users.WatchHistory)

	mux.HandleFunc("GET /api/v1/videos", videos.List)
	mux.HandleFunc("POST /api/v1/videos", videos.Publish)
	mux.HandleFunc("GET /api/v1/videos/{videoId}", videos.Get)
	mux.HandleFunc("PATCH /api/v1/videos/{videoId}", videos.Update)
	mux.HandleFunc("DELETE /api/v1/videos/{videoId}", videos.Delete)
	mux.HandleFunc("PATCH /api/v1/videos/toggle/publish/{videoId}", videos.TogglePublish)

	mux.HandleFunc("POST /api/v1/likes/toggle/v/{videoId}", engagement.ToggleVideoLike)
	mux.HandleFunc("POST /api/v1/comments/{videoId}", engagement.AddComment)
	mux.HandleFunc("POST /api/v1/subscriptions/c/{channelId}", engagement.ToggleSubscription)
}
