package handlers

import (
	"net/http"
	"strings"

	authsvc "github.com/locazos/stream-mate-match/internal/services/auth"
	matchsvc "github.com/locazos/stream-mate-match/internal/services/matches"
	"github.com/locazos/stream-mate-match/internal/transport/http/dto"
	httperrors "github.com/locazos/stream-mate-match/internal/transport/http/errors"
)

type MatchesHandler struct {
	service *matchsvc.Service
}

func NewMatchesHandler(service *matchsvc.Service) *MatchesHandler {
	return &MatchesHandler{service: service}
}

func (h *MatchesHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCH_SERVICE_UNAVAILABLE", "match service is unavailable")
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)
	items, err := h.service.ListForUser(r.Context(), identity.UserID, limit)
	if err != nil {
		writeServiceError(w, err, "failed to load matches")
		return
	}

	resp := dto.MatchesResponse{Items: make([]dto.MatchItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.MatchItemResponse{
			ID:          item.Match.ID,
			Counterpart: mapProfile(item.Counterpart),
			CreatedAt:   item.Match.CreatedAt,
		})
	}
	httperrors.Write(w, http.StatusOK, resp)
}

// Resolve re-runs match resolution for a pair. Clients call it after a swipe
// whose resolution failed; it never records a decision itself.
func (h *MatchesHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCH_SERVICE_UNAVAILABLE", "match service is unavailable")
		return
	}

	var req dto.ResolveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, httperrors.CodeValidation, "invalid request body")
		return
	}
	targetID := strings.TrimSpace(req.TargetID)
	if targetID == "" {
		writeBadRequest(w, httperrors.CodeValidation, "target_id is required")
		return
	}

	res, err := h.service.ResolveIfMutual(r.Context(), identity.UserID, targetID)
	if err != nil {
		writeServiceError(w, err, "failed to resolve match")
		return
	}

	resp := dto.ResolveResponse{OK: true, Outcome: string(res.Outcome)}
	if res.Outcome == matchsvc.OutcomeMatchCreated {
		resp.Match = mapMatch(res.Match)
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *MatchesHandler) State(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCH_SERVICE_UNAVAILABLE", "match service is unavailable")
		return
	}

	targetID := strings.TrimSpace(r.URL.Query().Get("target_id"))
	if targetID == "" {
		writeBadRequest(w, httperrors.CodeValidation, "target_id is required")
		return
	}

	state, err := h.service.PairState(r.Context(), identity.UserID, targetID)
	if err != nil {
		writeServiceError(w, err, "failed to load pair state")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.PairStateResponse{TargetID: targetID, State: string(state)})
}
