package handlers

import (
	"net/http"

	authsvc "github.com/locazos/stream-mate-match/internal/services/auth"
	profilesvc "github.com/locazos/stream-mate-match/internal/services/profiles"
	"github.com/locazos/stream-mate-match/internal/transport/http/dto"
	httperrors "github.com/locazos/stream-mate-match/internal/transport/http/errors"
)

type ProfileHandler struct {
	service *profilesvc.Service
}

func NewProfileHandler(service *profilesvc.Service) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	profile, err := h.service.Get(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err, "failed to load profile")
		return
	}
	httperrors.Write(w, http.StatusOK, mapProfile(profile))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.ProfileUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, httperrors.CodeValidation, "invalid request body")
		return
	}

	in := profilesvc.ProfileUpdate{
		DisplayName:  req.DisplayName,
		AvatarRef:    req.AvatarURL,
		Description:  req.Description,
		Language:     req.Language,
		Timezone:     req.Timezone,
		Availability: req.Availability,
	}
	if req.Interests != nil {
		in.Interests = *req.Interests
		in.SetInterests = true
	}

	profile, err := h.service.Update(r.Context(), identity.UserID, in)
	if err != nil {
		writeServiceError(w, err, "failed to update profile")
		return
	}
	httperrors.Write(w, http.StatusOK, mapProfile(profile))
}
