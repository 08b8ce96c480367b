package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/locazos/stream-mate-match/internal/domain/enums"
	"github.com/locazos/stream-mate-match/internal/domain/model"
)

type DecisionRepo struct {
	pool *pgxpool.Pool
}

func NewDecisionRepo(pool *pgxpool.Pool) *DecisionRepo {
	return &DecisionRepo{pool: pool}
}

func scanDecision(row pgx.Row) (model.SwipeDecision, error) {
	var (
		rec       model.SwipeDecision
		id        uuid.UUID
		direction string
	)
	if err := row.Scan(&id, &rec.ActorID, &rec.TargetID, &direction, &rec.CreatedAt); err != nil {
		return model.SwipeDecision{}, err
	}
	rec.ID = id.String()
	rec.Direction = enums.Direction(direction)
	rec.CreatedAt = rec.CreatedAt.UTC()
	if !rec.Direction.Valid() {
		return model.SwipeDecision{}, fmt.Errorf("stored direction %q: %w", direction, model.ErrValidation)
	}
	return rec, nil
}

// Insert appends a decision for (actor, target). When the pair already has one
// the stored row is returned with created=false.
func (r *DecisionRepo) Insert(ctx context.Context, actorID, targetID string, direction enums.Direction, now time.Time) (model.SwipeDecision, bool, error) {
	if actorID == "" || targetID == "" || actorID == targetID || !direction.Valid() {
		return model.SwipeDecision{}, false, fmt.Errorf("invalid swipe decision payload: %w", model.ErrValidation)
	}
	if r.pool == nil {
		return model.SwipeDecision{}, false, model.StoreFailure("insert swipe decision", errors.New("postgres pool is nil"))
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	rec, err := scanDecision(r.pool.QueryRow(ctx, `
INSERT INTO swipe_decisions (
	id,
	actor_id,
	target_id,
	direction,
	created_at
) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (actor_id, target_id) DO NOTHING
RETURNING id, actor_id, target_id, direction, created_at
`, uuid.New(), actorID, targetID, string(direction), now.UTC()))
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) && !isUniqueViolation(err) {
		return model.SwipeDecision{}, false, classify("insert swipe decision", err)
	}

	existing, err := r.Get(ctx, actorID, targetID)
	if err != nil {
		return model.SwipeDecision{}, false, err
	}
	return existing, false, nil
}

func (r *DecisionRepo) Get(ctx context.Context, actorID, targetID string) (model.SwipeDecision, error) {
	if r.pool == nil {
		return model.SwipeDecision{}, model.StoreFailure("get swipe decision", errors.New("postgres pool is nil"))
	}

	rec, err := scanDecision(r.pool.QueryRow(ctx, `
SELECT id, actor_id, target_id, direction, created_at
FROM swipe_decisions
WHERE actor_id = $1 AND target_id = $2
`, actorID, targetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SwipeDecision{}, model.ErrNotFound
		}
		if errors.Is(err, model.ErrValidation) {
			return model.SwipeDecision{}, err
		}
		return model.SwipeDecision{}, classify("get swipe decision", err)
	}
	return rec, nil
}
