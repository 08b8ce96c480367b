package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/locazos/stream-mate-match/internal/domain/model"
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const profileColumns = `
	p.id,
	p.username,
	p.avatar_url,
	p.description,
	p.games,
	p.language,
	p.timezone,
	p.availability,
	p.created_at,
	p.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanProfileRow fails only when the row itself cannot be read. A games column
// that does not decode marks the row through ProfileRow.Err.
func scanProfileRow(row rowScanner) (model.ProfileRow, error) {
	var (
		rec       model.ProfileRow
		games     sql.NullString
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&rec.ID,
		&rec.DisplayName,
		&rec.AvatarRef,
		&rec.Description,
		&games,
		&rec.Language,
		&rec.Timezone,
		&rec.Availability,
		&createdAt,
		&updatedAt,
	); err != nil {
		return model.ProfileRow{}, err
	}
	rec.CreatedAt = fromUnix(createdAt)
	rec.UpdatedAt = fromUnix(updatedAt)
	rec.Interests, rec.Err = decodeInterests(games.String)
	return rec, nil
}

func decodeInterests(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode interests: %w", model.ErrValidation)
	}
	return tags, nil
}

func encodeInterests(tags []string) (string, error) {
	tags = model.NormalizeInterests(tags)
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode interests: %w", err)
	}
	return string(raw), nil
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (model.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return model.Profile{}, fmt.Errorf("empty user id: %w", model.ErrValidation)
	}
	if r.db == nil {
		return model.Profile{}, model.StoreFailure("get profile", errors.New("sqlite db is nil"))
	}

	row, err := scanProfileRow(r.db.QueryRowContext(ctx, `
SELECT`+profileColumns+`
FROM profiles p
WHERE p.id = ?
`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, classify("get profile", err)
	}

	return model.NewProfile(row)
}

func (r *ProfileRepo) Upsert(ctx context.Context, p model.Profile, now time.Time) (model.Profile, error) {
	if strings.TrimSpace(p.ID) == "" {
		return model.Profile{}, fmt.Errorf("empty user id: %w", model.ErrValidation)
	}
	if r.db == nil {
		return model.Profile{}, model.StoreFailure("upsert profile", errors.New("sqlite db is nil"))
	}
	games, err := encodeInterests(p.Interests)
	if err != nil {
		return model.Profile{}, err
	}
	ts := toUnix(now)

	row, err := scanProfileRow(r.db.QueryRowContext(ctx, `
INSERT INTO profiles (
	id,
	username,
	avatar_url,
	description,
	games,
	language,
	timezone,
	availability,
	created_at,
	updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	username = excluded.username,
	avatar_url = excluded.avatar_url,
	description = excluded.description,
	games = excluded.games,
	language = excluded.language,
	timezone = excluded.timezone,
	availability = excluded.availability,
	updated_at = excluded.updated_at
RETURNING id, username, avatar_url, description, games, language, timezone, availability, created_at, updated_at
`,
		p.ID,
		nullIfEmpty(p.DisplayName),
		nullIfEmpty(p.AvatarRef),
		nullIfEmpty(p.Description),
		games,
		nullIfEmpty(p.Language),
		nullIfEmpty(p.Timezone),
		nullIfEmpty(p.Availability),
		ts,
		ts,
	))
	if err != nil {
		return model.Profile{}, classify("upsert profile", err)
	}

	return model.NewProfile(row)
}

func nullIfEmpty(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
