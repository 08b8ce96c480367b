package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/locazos/stream-mate-match/internal/domain/model"
)

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

func scanMatch(row pgx.Row) (model.Match, error) {
	var (
		m  model.Match
		id uuid.UUID
	)
	if err := row.Scan(&id, &m.UserA, &m.UserB, &m.CreatedAt); err != nil {
		return model.Match{}, err
	}
	m.ID = id.String()
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}

// MutualPositive reports whether both userID->targetID and targetID->userID are
// recorded as positive decisions.
func (r *MatchRepo) MutualPositive(ctx context.Context, userID, targetID string) (bool, error) {
	if userID == "" || targetID == "" || userID == targetID {
		return false, fmt.Errorf("invalid mutual lookup payload: %w", model.ErrValidation)
	}
	if r.pool == nil {
		return false, model.StoreFailure("lookup mutual decision", errors.New("postgres pool is nil"))
	}

	var count int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM swipe_decisions
WHERE direction = 'right'
	AND (
		(actor_id = $1 AND target_id = $2)
		OR (actor_id = $2 AND target_id = $1)
	)
`, userID, targetID).Scan(&count)
	if err != nil {
		return false, classify("lookup mutual decision", err)
	}

	return count == 2, nil
}

// InsertOrGet creates the match for the canonical pair or returns the one that
// already exists. created is true only for the caller whose insert won.
func (r *MatchRepo) InsertOrGet(ctx context.Context, userID, targetID string, now time.Time) (model.Match, bool, error) {
	if userID == "" || targetID == "" || userID == targetID {
		return model.Match{}, false, fmt.Errorf("invalid match payload: %w", model.ErrValidation)
	}
	if r.pool == nil {
		return model.Match{}, false, model.StoreFailure("create match", errors.New("postgres pool is nil"))
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	userA, userB := model.CanonicalPair(userID, targetID)

	m, err := scanMatch(r.pool.QueryRow(ctx, `
INSERT INTO matches (
	id,
	user_a,
	user_b,
	created_at
) VALUES ($1, $2, $3, $4)
ON CONFLICT (user_a, user_b) DO NOTHING
RETURNING id, user_a, user_b, created_at
`, uuid.New(), userA, userB, now.UTC()))
	if err == nil {
		return m, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) && !isUniqueViolation(err) {
		return model.Match{}, false, classify("create match", err)
	}

	existing, err := r.GetByPair(ctx, userA, userB)
	if err != nil {
		return model.Match{}, false, err
	}
	return existing, false, nil
}

func (r *MatchRepo) GetByPair(ctx context.Context, userID, targetID string) (model.Match, error) {
	if r.pool == nil {
		return model.Match{}, model.StoreFailure("get match", errors.New("postgres pool is nil"))
	}
	userA, userB := model.CanonicalPair(userID, targetID)

	m, err := scanMatch(r.pool.QueryRow(ctx, `
SELECT id, user_a, user_b, created_at
FROM matches
WHERE user_a = $1 AND user_b = $2
`, userA, userB))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, model.ErrNotFound
		}
		return model.Match{}, classify("get match", err)
	}
	return m, nil
}

func (r *MatchRepo) ListForUser(ctx context.Context, userID string, limit int) ([]model.MatchWithCounterpart, error) {
	if userID == "" {
		return nil, fmt.Errorf("empty user id: %w", model.ErrValidation)
	}
	if r.pool == nil {
		return nil, model.StoreFailure("list matches", errors.New("postgres pool is nil"))
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	m.id,
	m.user_a,
	m.user_b,
	m.created_at,
	p.id,
	p.username,
	p.avatar_url,
	p.description,
	p.games,
	p.language,
	p.timezone,
	p.availability,
	p.created_at,
	p.updated_at
FROM matches m
LEFT JOIN profiles p ON p.id = CASE WHEN m.user_a = $1 THEN m.user_b ELSE m.user_a END
WHERE m.user_a = $1 OR m.user_b = $1
ORDER BY m.created_at DESC, m.id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, classify("list matches", err)
	}
	defer rows.Close()

	items := make([]model.MatchWithCounterpart, 0)
	for rows.Next() {
		var (
			item        model.MatchWithCounterpart
			matchID     uuid.UUID
			profileID   *string
			profile     model.ProfileRow
			games       []pgtype.Text
			profCreated *time.Time
			profUpdated *time.Time
		)
		if err := rows.Scan(
			&matchID,
			&item.Match.UserA,
			&item.Match.UserB,
			&item.Match.CreatedAt,
			&profileID,
			&profile.DisplayName,
			&profile.AvatarRef,
			&profile.Description,
			&games,
			&profile.Language,
			&profile.Timezone,
			&profile.Availability,
			&profCreated,
			&profUpdated,
		); err != nil {
			return nil, classify("scan match", err)
		}
		item.Match.ID = matchID.String()
		item.Match.CreatedAt = item.Match.CreatedAt.UTC()
		if profileID != nil {
			profile.ID = *profileID
			profile.Interests = textValues(games)
			if profCreated != nil {
				profile.CreatedAt = *profCreated
			}
			if profUpdated != nil {
				profile.UpdatedAt = *profUpdated
			}
			item.Counterpart = &profile
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, classify("iterate matches", rows.Err())
	}

	return items, nil
}
