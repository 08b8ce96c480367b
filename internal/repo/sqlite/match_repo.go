package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/locazos/stream-mate-match/internal/domain/model"
)

type MatchRepo struct {
	db *sql.DB
}

func NewMatchRepo(db *sql.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

func scanMatch(row rowScanner) (model.Match, error) {
	var (
		m         model.Match
		createdAt int64
	)
	if err := row.Scan(&m.ID, &m.UserA, &m.UserB, &createdAt); err != nil {
		return model.Match{}, err
	}
	m.CreatedAt = fromUnix(createdAt)
	return m, nil
}

func (r *MatchRepo) MutualPositive(ctx context.Context, userID, targetID string) (bool, error) {
	if userID == "" || targetID == "" || userID == targetID {
		return false, fmt.Errorf("invalid mutual lookup payload: %w", model.ErrValidation)
	}
	if r.db == nil {
		return false, model.StoreFailure("lookup mutual decision", errors.New("sqlite db is nil"))
	}

	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM swipe_decisions
WHERE direction = 'right'
	AND (
		(actor_id = ?1 AND target_id = ?2)
		OR (actor_id = ?2 AND target_id = ?1)
	)
`, userID, targetID).Scan(&count)
	if err != nil {
		return false, classify("lookup mutual decision", err)
	}
	return count == 2, nil
}

func (r *MatchRepo) InsertOrGet(ctx context.Context, userID, targetID string, now time.Time) (model.Match, bool, error) {
	if userID == "" || targetID == "" || userID == targetID {
		return model.Match{}, false, fmt.Errorf("invalid match payload: %w", model.ErrValidation)
	}
	if r.db == nil {
		return model.Match{}, false, model.StoreFailure("create match", errors.New("sqlite db is nil"))
	}

	userA, userB := model.CanonicalPair(userID, targetID)

	m, err := scanMatch(r.db.QueryRowContext(ctx, `
INSERT INTO matches (id, user_a, user_b, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_a, user_b) DO NOTHING
RETURNING id, user_a, user_b, created_at
`, uuid.NewString(), userA, userB, toUnix(now)))
	if err == nil {
		return m, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) && !isUniqueViolation(err) {
		return model.Match{}, false, classify("create match", err)
	}

	existing, err := r.GetByPair(ctx, userA, userB)
	if err != nil {
		return model.Match{}, false, err
	}
	return existing, false, nil
}

func (r *MatchRepo) GetByPair(ctx context.Context, userID, targetID string) (model.Match, error) {
	if r.db == nil {
		return model.Match{}, model.StoreFailure("get match", errors.New("sqlite db is nil"))
	}
	userA, userB := model.CanonicalPair(userID, targetID)

	m, err := scanMatch(r.db.QueryRowContext(ctx, `
SELECT id, user_a, user_b, created_at
FROM matches
WHERE user_a = ? AND user_b = ?
`, userA, userB))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Match{}, model.ErrNotFound
		}
		return model.Match{}, classify("get match", err)
	}
	return m, nil
}

// CountForPair exists for tests and diagnostics; the UNIQUE constraint keeps it at 0 or 1.
func (r *MatchRepo) CountForPair(ctx context.Context, userID, targetID string) (int, error) {
	userA, userB := model.CanonicalPair(userID, targetID)
	var count int
	if err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM matches WHERE user_a = ? AND user_b = ?
`, userA, userB).Scan(&count); err != nil {
		return 0, classify("count matches", err)
	}
	return count, nil
}

func (r *MatchRepo) ListForUser(ctx context.Context, userID string, limit int) ([]model.MatchWithCounterpart, error) {
	if userID == "" {
		return nil, fmt.Errorf("empty user id: %w", model.ErrValidation)
	}
	if r.db == nil {
		return nil, model.StoreFailure("list matches", errors.New("sqlite db is nil"))
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
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
LEFT JOIN profiles p ON p.id = CASE WHEN m.user_a = ?1 THEN m.user_b ELSE m.user_a END
WHERE m.user_a = ?1 OR m.user_b = ?1
ORDER BY m.created_at DESC, m.id DESC
LIMIT ?2
`, userID, limit)
	if err != nil {
		return nil, classify("list matches", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]model.MatchWithCounterpart, 0)
	for rows.Next() {
		var (
			item        model.MatchWithCounterpart
			matchAt     int64
			profileID   sql.NullString
			profile     model.ProfileRow
			games       sql.NullString
			profCreated sql.NullInt64
			profUpdated sql.NullInt64
		)
		if err := rows.Scan(
			&item.Match.ID,
			&item.Match.UserA,
			&item.Match.UserB,
			&matchAt,
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
		item.Match.CreatedAt = fromUnix(matchAt)
		if profileID.Valid {
			profile.ID = profileID.String
			profile.Interests, profile.Err = decodeInterests(games.String)
			profile.CreatedAt = fromUnix(profCreated.Int64)
			profile.UpdatedAt = fromUnix(profUpdated.Int64)
			item.Counterpart = &profile
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate matches", err)
	}

	return items, nil
}
