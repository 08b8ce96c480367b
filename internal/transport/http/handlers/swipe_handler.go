package handlers

import (
	"net/http"
	"strings"

	"github.com/locazos/stream-mate-match/internal/domain/enums"
	authsvc "github.com/locazos/stream-mate-match/internal/services/auth"
	matchsvc "github.com/locazos/stream-mate-match/internal/services/matches"
	swipesvc "github.com/locazos/stream-mate-match/internal/services/swipes"
	"github.com/locazos/stream-mate-match/internal/transport/http/dto"
	httperrors "github.com/locazos/stream-mate-match/internal/transport/http/errors"
)

type SwipeHandler struct {
	service *swipesvc.Service
}

func NewSwipeHandler(service *swipesvc.Service) *SwipeHandler {
	return &SwipeHandler{service: service}
}

func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, httperrors.CodeValidation, "invalid request body")
		return
	}
	targetID := strings.TrimSpace(req.TargetID)
	if targetID == "" {
		writeBadRequest(w, httperrors.CodeValidation, "target_id is required")
		return
	}
	direction, ok := enums.ParseDirection(req.Direction)
	if !ok {
		writeBadRequest(w, httperrors.CodeValidation, "direction must be right or left")
		return
	}

	result, err := h.service.Decide(r.Context(), identity.UserID, targetID, direction)
	if err != nil {
		if tf, ok := swipesvc.IsTooFast(err); ok {
			httperrors.WriteTooFast(w, tf.RetryAfter(), "too many swipes, slow down")
			return
		}
		writeServiceError(w, err, "failed to process swipe")
		return
	}

	resp := dto.SwipeResponse{
		OK:              true,
		AlreadyRecorded: result.AlreadyRecorded,
		Direction:       string(result.Decision.Direction),
		MatchCreated:    result.Resolution.Outcome == matchsvc.OutcomeMatchCreated,
	}
	if resp.MatchCreated {
		resp.Match = mapMatch(result.Resolution.Match)
	}
	httperrors.Write(w, http.StatusOK, resp)
}
