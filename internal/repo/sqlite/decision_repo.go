package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/locazos/stream-mate-match/internal/domain/enums"
	"github.com/locazos/stream-mate-match/internal/domain/model"
)

type DecisionRepo struct {
	db *sql.DB
}

func NewDecisionRepo(db *sql.DB) *DecisionRepo {
	return &DecisionRepo{db: db}
}

func scanDecision(row rowScanner) (model.SwipeDecision, error) {
	var (
		rec       model.SwipeDecision
		direction string
		createdAt int64
	)
	if err := row.Scan(&rec.ID, &rec.ActorID, &rec.TargetID, &direction, &createdAt); err != nil {
		return model.SwipeDecision{}, err
	}
	rec.Direction = enums.Direction(direction)
	rec.CreatedAt = fromUnix(createdAt)
	if !rec.Direction.Valid() {
		return model.SwipeDecision{}, fmt.Errorf("stored direction %q: %w", direction, model.ErrValidation)
	}
	return rec, nil
}

func (r *DecisionRepo) Insert(ctx context.Context, actorID, targetID string, direction enums.Direction, now time.Time) (model.SwipeDecision, bool, error) {
	if actorID == "" || targetID == "" || actorID == targetID || !direction.Valid() {
		return model.SwipeDecision{}, false, fmt.Errorf("invalid swipe decision payload: %w", model.ErrValidation)
	}
	if r.db == nil {
		return model.SwipeDecision{}, false, model.StoreFailure("insert swipe decision", errors.New("sqlite db is nil"))
	}

	rec, err := scanDecision(r.db.QueryRowContext(ctx, `
INSERT INTO swipe_decisions (id, actor_id, target_id, direction, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (actor_id, target_id) DO NOTHING
RETURNING id, actor_id, target_id, direction, created_at
`, uuid.NewString(), actorID, targetID, string(direction), toUnix(now)))
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) && !isUniqueViolation(err) {
		return model.SwipeDecision{}, false, classify("insert swipe decision", err)
	}

	existing, err := r.Get(ctx, actorID, targetID)
	if err != nil {
		return model.SwipeDecision{}, false, err
	}
	return existing, false, nil
}

func (r *DecisionRepo) Get(ctx context.Context, actorID, targetID string) (model.SwipeDecision, error) {
	if r.db == nil {
		return model.SwipeDecision{}, model.StoreFailure("get swipe decision", errors.New("sqlite db is nil"))
	}

	rec, err := scanDecision(r.db.QueryRowContext(ctx, `
SELECT id, actor_id, target_id, direction, created_at
FROM swipe_decisions
WHERE actor_id = ? AND target_id = ?
`, actorID, targetID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SwipeDecision{}, model.ErrNotFound
		}
		if errors.Is(err, model.ErrValidation) {
			return model.SwipeDecision{}, err
		}
		return model.SwipeDecision{}, classify("get swipe decision", err)
	}
	return rec, nil
}
