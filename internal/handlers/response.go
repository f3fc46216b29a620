package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vidhub/backend/internal/apperr"
	"github.com/vidhub/backend/internal/logging"
)

// successEnvelope is the body of every successful API response.
type successEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
	Success    bool   `json:"success"`
}

// errorEnvelope is the body of every failed API response.
type errorEnvelope struct {
	StatusCode int           `json:"statusCode"`
	Message    string        `json:"message"`
	Errors     []errorDetail `json:"errors"`
	Success    bool          `json:"success"`
}

type errorDetail struct {
	Kind  string `json:"kind"`
	Stage string `json:"stage,omitempty"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

func respondOK(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	respondJSON(ctx, w, status, successEnvelope{
		StatusCode: status,
		Message:    message,
		Data:       data,
		Success:    true,
	})
}

// respondError writes err as an error envelope. The cause is logged but only
// the classified message reaches the client.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := logging.FromContext(ctx)

	kind := apperr.KindOf(err)
	status := statusFor(kind)
	message := http.StatusText(status)

	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "kind", kind.String(), "error", err)
	} else {
		logger.Warn("request returned client error", "status", status, "kind", kind.String(), "error", err)
	}

	respondJSON(ctx, w, status, errorEnvelope{
		StatusCode: status,
		Message:    message,
		Errors:     []errorDetail{{Kind: kind.String(), Stage: string(apperr.StageOf(err))}},
		Success:    false,
	})
}

// respondStatus writes an error envelope for failures raised by the HTTP layer itself.
func respondStatus(ctx context.Context, w http.ResponseWriter, status int, kind, message string) {
	logging.FromContext(ctx).Warn("request rejected", "status", status, "reason", message)
	respondJSON(ctx, w, status, errorEnvelope{
		StatusCode: status,
		Message:    message,
		Errors:     []errorDetail{{Kind: kind}},
		Success:    false,
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindAuthenticationRequired:
		return http.StatusUnauthorized
	case apperr.KindAuthorizationDenied:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUpload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// TooManyRequests answers requests rejected by a rate limiter.
func TooManyRequests() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondStatus(r.Context(), w, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later")
	})
}
