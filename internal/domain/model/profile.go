package model

import (
	"fmt"
	"strings"
	"time"
)

type Profile struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	AvatarRef    string    `json:"avatar_ref"`
	Description  string    `json:"description"`
	Interests    []string  `json:"interests"`
	Language     string    `json:"language"`
	Timezone     string    `json:"timezone"`
	Availability string    `json:"availability"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProfileRow is the loosely typed shape both stores scan into. Nullable columns
// arrive as nil pointers. Err is set when the row is keyed but a column could not
// be decoded; such rows still advance feed paging.
type ProfileRow struct {
	ID           string
	DisplayName  *string
	AvatarRef    *string
	Description  *string
	Interests    []string
	Language     *string
	Timezone     *string
	Availability *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Err          error
}

// FeedCursor is the keyset position after a row in feed order (created_at, id).
type FeedCursor struct {
	CreatedAt time.Time
	ID        string
}

func (r ProfileRow) Cursor() FeedCursor {
	return FeedCursor{CreatedAt: r.CreatedAt.UTC(), ID: r.ID}
}

// NewProfile maps a store row into a Profile. Rows without an identifier are
// rejected rather than passed through half-filled.
func NewProfile(row ProfileRow) (Profile, error) {
	id := strings.TrimSpace(row.ID)
	if id == "" {
		return Profile{}, fmt.Errorf("profile row without id: %w", ErrValidation)
	}
	if row.Err != nil {
		return Profile{}, fmt.Errorf("profile %s: %v: %w", id, row.Err, ErrValidation)
	}

	return Profile{
		ID:           id,
		DisplayName:  deref(row.DisplayName),
		AvatarRef:    deref(row.AvatarRef),
		Description:  deref(row.Description),
		Interests:    NormalizeInterests(row.Interests),
		Language:     deref(row.Language),
		Timezone:     deref(row.Timezone),
		Availability: deref(row.Availability),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}, nil
}

// NormalizeInterests trims tags and drops blanks and repeats, keeping first-seen order.
func NormalizeInterests(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		value := strings.TrimSpace(tag)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	return out
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
