package handlers

import (
	"net/http"

	"github.com/vidhub/backend/internal/auth"
)

// EngagementHandler provides like, comment and subscription endpoints.
type EngagementHandler struct {
	Engagement EngagementService
}

// ToggleSubscription handles POST /api/v1/subscriptions/c/{channelId}.
func (h EngagementHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subscribed, err := h.Engagement.ToggleSubscription(ctx, auth.UserIDFromContext(ctx), r.PathValue("channelId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, "subscription toggled", map[string]bool{"isSubscribed": subscribed})
}

// ToggleVideoLike handles POST /api/v1/likes/toggle/v/{videoId}.
func (h EngagementHandler) ToggleVideoLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	liked, err := h.Engagement.ToggleVideoLike(ctx, auth.UserIDFromContext(ctx), r.PathValue("videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, "like toggled", map[string]bool{"isLiked": liked})
}

type commentRequest struct {
	Content string `json:"content"`
}

// AddComment handles POST /api/v1/comments/{videoId}.
func (h EngagementHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Engagement.AddComment(ctx, auth.UserIDFromContext(ctx), r.PathValue("videoId"), req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusCreated, "comment added", comment)
}
