package handlers

import (
	"net/http"

	"github.com/vidhub/backend/internal/apperr"
	"github.com/vidhub/backend/internal/auth"
	"github.com/vidhub/backend/internal/videos"
)

// VideoHandler provides the video endpoints.
type VideoHandler struct {
	Videos  VideoService
	Uploads UploadOptions
}

// List handles GET /api/v1/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page, err := h.Videos.List(ctx, videos.ListParams{
		Page:     q.Get("page"),
		Limit:    q.Get("limit"),
		Query:    q.Get("query"),
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
		UserID:   q.Get("userId"),
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, "videos fetched successfully", page)
}

// Get handles GET /api/v1/videos/{videoId}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := h.Videos.GetByID(ctx, r.PathValue("videoId"), auth.UserIDFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, "video fetched successfully", detail)
}

// Publish handles POST /api/v1/videos.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID := auth.UserIDFromContext(ctx)
	if ownerID == "" {
		respondError(ctx, w, apperr.AuthenticationRequired("unauthorized request"))
		return
	}

	files, err := receiveFiles(w, r, h.Uploads, "videoFile", "thumbnail")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.Publish(ctx, ownerID, videos.PublishInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		VideoPath:     files["videoFile"],
		ThumbnailPath: files["thumbnail"],
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusCreated, "video published successfully", video)
}

// Update handles PATCH /api/v1/videos/{videoId}.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		respondError(ctx, w, apperr.AuthenticationRequired("unauthorized request"))
		return
	}

	files, err := receiveFiles(w, r, h.Uploads, "thumbnail")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.Update(ctx, userID, r.PathValue("videoId"), videos.UpdateInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		ThumbnailPath: files["thumbnail"],
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, "video updated successfully", video)
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Videos.Delete(ctx, auth.UserIDFromContext(ctx), r.PathValue("videoId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, "video deleted successfully", struct{}{})
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, err := h.Videos.TogglePublish(ctx, auth.UserIDFromContext(ctx), r.PathValue("videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, "video publish status toggled", video)
}
