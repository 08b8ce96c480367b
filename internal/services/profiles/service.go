package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/locazos/stream-mate-match/internal/domain/model"
	"github.com/locazos/stream-mate-match/internal/pkg/validate"
)

const (
	maxDisplayNameLen = 64
	maxDescriptionLen = 500
	maxShortFieldLen  = 64
	maxInterests      = 20
	maxInterestLen    = 40
)

type ProfileStore interface {
	Get(ctx context.Context, userID string) (model.Profile, error)
	Upsert(ctx context.Context, p model.Profile, now time.Time) (model.Profile, error)
}

// ProfileUpdate is a partial update: nil fields keep their stored value.
type ProfileUpdate struct {
	DisplayName  *string
	AvatarRef    *string
	Description  *string
	Interests    []string
	SetInterests bool
	Language     *string
	Timezone     *string
	Availability *string
}

type Service struct {
	store ProfileStore
	now   func() time.Time
}

func NewService(store ProfileStore) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

func (s *Service) Get(ctx context.Context, userID string) (model.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return model.Profile{}, fmt.Errorf("invalid user id: %w", model.ErrValidation)
	}
	if s.store == nil {
		return model.Profile{}, fmt.Errorf("profile store is nil")
	}
	return s.store.Get(ctx, userID)
}

// Update applies in to the caller's own profile, creating the row on first use.
func (s *Service) Update(ctx context.Context, userID string, in ProfileUpdate) (model.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return model.Profile{}, fmt.Errorf("invalid user id: %w", model.ErrValidation)
	}
	if s.store == nil {
		return model.Profile{}, fmt.Errorf("profile store is nil")
	}
	if err := validateUpdate(in); err != nil {
		return model.Profile{}, err
	}

	current, err := s.store.Get(ctx, userID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		current = model.Profile{ID: userID}
	case err != nil:
		return model.Profile{}, fmt.Errorf("load profile: %w", err)
	}

	applyString(&current.DisplayName, in.DisplayName)
	applyString(&current.AvatarRef, in.AvatarRef)
	applyString(&current.Description, in.Description)
	applyString(&current.Language, in.Language)
	applyString(&current.Timezone, in.Timezone)
	applyString(&current.Availability, in.Availability)
	if in.SetInterests {
		current.Interests = model.NormalizeInterests(in.Interests)
	}

	saved, err := s.store.Upsert(ctx, current, s.now().UTC())
	if err != nil {
		return model.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return saved, nil
}

func validateUpdate(in ProfileUpdate) error {
	checks := []struct {
		name  string
		value *string
		max   int
	}{
		{"display_name", in.DisplayName, maxDisplayNameLen},
		{"description", in.Description, maxDescriptionLen},
		{"language", in.Language, maxShortFieldLen},
		{"timezone", in.Timezone, maxShortFieldLen},
		{"availability", in.Availability, maxShortFieldLen},
	}
	for _, c := range checks {
		if c.value != nil && !validate.MaxRunes(*c.value, c.max) {
			return fmt.Errorf("%s is too long: %w", c.name, model.ErrValidation)
		}
	}

	if in.SetInterests {
		tags := model.NormalizeInterests(in.Interests)
		if len(tags) > maxInterests {
			return fmt.Errorf("too many interests: %w", model.ErrValidation)
		}
		for _, tag := range tags {
			if !validate.MaxRunes(tag, maxInterestLen) {
				return fmt.Errorf("interest %q is too long: %w", tag, model.ErrValidation)
			}
		}
	}
	return nil
}

func applyString(dst *string, value *string) {
	if value == nil {
		return
	}
	*dst = strings.TrimSpace(*value)
}
