package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/locazos/stream-mate-match/internal/domain/model"
)

type FeedRepo struct {
	pool *pgxpool.Pool
}

func NewFeedRepo(pool *pgxpool.Pool) *FeedRepo {
	return &FeedRepo{pool: pool}
}

// ListCandidates returns up to limit profile rows after the cursor that viewerID
// has not decided on yet, oldest profiles first. A page shorter than limit means
// there are no more rows.
func (r *FeedRepo) ListCandidates(ctx context.Context, viewerID string, after *model.FeedCursor, limit int) ([]model.ProfileRow, error) {
	if viewerID == "" {
		return nil, fmt.Errorf("empty viewer id: %w", model.ErrValidation)
	}
	if r.pool == nil {
		return nil, model.StoreFailure("list feed candidates", errors.New("postgres pool is nil"))
	}
	if limit <= 0 {
		limit = 20
	}

	var (
		afterAt *time.Time
		afterID string
	)
	if after != nil {
		at := after.CreatedAt
		afterAt, afterID = &at, after.ID
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+profileColumns+`
FROM profiles p
WHERE p.id <> $1
	AND NOT EXISTS (
		SELECT 1
		FROM swipe_decisions d
		WHERE d.actor_id = $1 AND d.target_id = p.id
	)
	AND ($2::timestamptz IS NULL OR (p.created_at, p.id) > ($2::timestamptz, $3::text))
ORDER BY p.created_at ASC, p.id ASC
LIMIT $4
`, viewerID, afterAt, afterID, limit)
	if err != nil {
		return nil, classify("list feed candidates", err)
	}
	defer rows.Close()

	items := make([]model.ProfileRow, 0, limit)
	for rows.Next() {
		rec, err := scanProfileRow(rows)
		if err != nil {
			return nil, classify("scan feed candidate", err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate feed candidates", err)
	}

	return items, nil
}
