package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/locazos/stream-mate-match/internal/domain/model"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
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

// scanProfileRow reads games element by element so a NULL inside the array is
// dropped instead of failing the whole result set.
func scanProfileRow(row pgx.Row) (model.ProfileRow, error) {
	var (
		rec   model.ProfileRow
		games []pgtype.Text
	)
	err := row.Scan(
		&rec.ID,
		&rec.DisplayName,
		&rec.AvatarRef,
		&rec.Description,
		&games,
		&rec.Language,
		&rec.Timezone,
		&rec.Availability,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	rec.Interests = textValues(games)
	return rec, err
}

func textValues(values []pgtype.Text) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v.Valid {
			out = append(out, v.String)
		}
	}
	return out
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (model.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return model.Profile{}, fmt.Errorf("empty user id: %w", model.ErrValidation)
	}
	if r.pool == nil {
		return model.Profile{}, model.StoreFailure("get profile", errors.New("postgres pool is nil"))
	}

	row, err := scanProfileRow(r.pool.QueryRow(ctx, `
SELECT`+profileColumns+`
FROM profiles p
WHERE p.id = $1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, classify("get profile", err)
	}

	profile, err := model.NewProfile(row)
	if err != nil {
		return model.Profile{}, fmt.Errorf("map profile %s: %w", userID, err)
	}
	return profile, nil
}

func (r *ProfileRepo) Upsert(ctx context.Context, p model.Profile, now time.Time) (model.Profile, error) {
	if strings.TrimSpace(p.ID) == "" {
		return model.Profile{}, fmt.Errorf("empty user id: %w", model.ErrValidation)
	}
	if r.pool == nil {
		return model.Profile{}, model.StoreFailure("upsert profile", errors.New("postgres pool is nil"))
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	interests := model.NormalizeInterests(p.Interests)

	row, err := scanProfileRow(r.pool.QueryRow(ctx, `
INSERT INTO profiles AS p (
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
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
ON CONFLICT (id) DO UPDATE SET
	username = EXCLUDED.username,
	avatar_url = EXCLUDED.avatar_url,
	description = EXCLUDED.description,
	games = EXCLUDED.games,
	language = EXCLUDED.language,
	timezone = EXCLUDED.timezone,
	availability = EXCLUDED.availability,
	updated_at = EXCLUDED.updated_at
RETURNING`+profileColumns+`
`,
		p.ID,
		nullIfEmpty(p.DisplayName),
		nullIfEmpty(p.AvatarRef),
		nullIfEmpty(p.Description),
		interests,
		nullIfEmpty(p.Language),
		nullIfEmpty(p.Timezone),
		nullIfEmpty(p.Availability),
		now.UTC(),
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
