package handlers

import (
	"context"
	"net/http"

	authsvc "github.com/locazos/stream-mate-match/internal/services/auth"
	feedsvc "github.com/locazos/stream-mate-match/internal/services/feed"
	"github.com/locazos/stream-mate-match/internal/transport/http/dto"
	httperrors "github.com/locazos/stream-mate-match/internal/transport/http/errors"
)

// SwipeCooldown reports how many seconds remain before the caller may swipe again.
type SwipeCooldown interface {
	RetryAfterSwipe(ctx context.Context, userID string) (int64, error)
}

type FeedHandler struct {
	service  *feedsvc.Service
	cooldown SwipeCooldown
}

// NewFeedHandler builds the feed endpoints. cooldown may be nil.
func NewFeedHandler(service *feedsvc.Service, cooldown SwipeCooldown) *FeedHandler {
	return &FeedHandler{service: service, cooldown: cooldown}
}

func (h *FeedHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "FEED_SERVICE_UNAVAILABLE", "feed service is unavailable")
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)
	items, err := h.service.Candidates(r.Context(), identity.UserID, limit)
	if err != nil {
		writeServiceError(w, err, "failed to load feed")
		return
	}

	resp := dto.FeedResponse{
		Items:     make([]dto.ProfileResponse, 0, len(items)),
		Exhausted: len(items) == 0,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, mapProfile(item))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *FeedHandler) Next(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "FEED_SERVICE_UNAVAILABLE", "feed service is unavailable")
		return
	}

	profile, found, err := h.service.Next(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err, "failed to load next candidate")
		return
	}
	if !found {
		httperrors.Write(w, http.StatusOK, dto.FeedNextResponse{Exhausted: true})
		return
	}

	item := mapProfile(profile)
	httperrors.Write(w, http.StatusOK, dto.FeedNextResponse{
		Profile:       &item,
		RetryAfterSec: h.retryAfter(r.Context(), identity.UserID),
	})
}

// retryAfter fails open: a limiter outage never hides the next card.
func (h *FeedHandler) retryAfter(ctx context.Context, userID string) int64 {
	if h.cooldown == nil {
		return 0
	}
	seconds, err := h.cooldown.RetryAfterSwipe(ctx, userID)
	if err != nil {
		return 0
	}
	return seconds
}
