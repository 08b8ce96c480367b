package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/locazos/stream-mate-match/internal/domain/model"
	"github.com/locazos/stream-mate-match/internal/transport/http/dto"
	httperrors "github.com/locazos/stream-mate-match/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.WriteError(w, http.StatusBadRequest, code, message)
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.WriteError(w, http.StatusUnauthorized, code, message)
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.WriteError(w, http.StatusInternalServerError, code, message)
}

// writeServiceError maps the engine's error taxonomy onto the HTTP envelope.
// fallback is the message used for unclassified failures.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeBadRequest(w, httperrors.CodeValidation, "invalid request")
	case errors.Is(err, model.ErrNotFound):
		httperrors.WriteError(w, http.StatusNotFound, httperrors.CodeNotFound, "not found")
	case model.IsRetryable(err):
		httperrors.WriteError(w, http.StatusServiceUnavailable, httperrors.CodeStoreUnavailable,
			"storage is temporarily unavailable, retry later")
	default:
		writeInternal(w, httperrors.CodeInternal, fallback)
	}
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func mapProfile(p model.Profile) dto.ProfileResponse {
	var avatar *string
	if p.AvatarRef != "" {
		value := p.AvatarRef
		avatar = &value
	}
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	return dto.ProfileResponse{
		ID:           p.ID,
		DisplayName:  p.DisplayName,
		AvatarURL:    avatar,
		Description:  p.Description,
		Interests:    interests,
		Language:     p.Language,
		Timezone:     p.Timezone,
		Availability: p.Availability,
		UpdatedAt:    p.UpdatedAt,
	}
}

func mapMatch(m model.Match) *dto.MatchResponse {
	return &dto.MatchResponse{
		ID:        m.ID,
		UserA:     m.UserA,
		UserB:     m.UserB,
		CreatedAt: m.CreatedAt,
	}
}
