package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/locazos/stream-mate-match/internal/domain/model"
)

type FeedRepo struct {
	db *sql.DB
}

func NewFeedRepo(db *sql.DB) *FeedRepo {
	return &FeedRepo{db: db}
}

// ListCandidates returns up to limit rows after the cursor in (created_at, id)
// order. Rows that fail to decode are returned with Err set so the caller can
// page past them; a page shorter than limit means the store has no more rows.
func (r *FeedRepo) ListCandidates(ctx context.Context, viewerID string, after *model.FeedCursor, limit int) ([]model.ProfileRow, error) {
	if viewerID == "" {
		return nil, fmt.Errorf("empty viewer id: %w", model.ErrValidation)
	}
	if r.db == nil {
		return nil, model.StoreFailure("list feed candidates", errors.New("sqlite db is nil"))
	}
	if limit <= 0 {
		limit = 20
	}

	var (
		hasCursor int
		afterAt   int64
		afterID   string
	)
	if after != nil {
		hasCursor, afterAt, afterID = 1, toUnix(after.CreatedAt), after.ID
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT`+profileColumns+`
FROM profiles p
WHERE p.id <> ?1
	AND NOT EXISTS (
		SELECT 1
		FROM swipe_decisions d
		WHERE d.actor_id = ?1 AND d.target_id = p.id
	)
	AND (?2 = 0 OR p.created_at > ?3 OR (p.created_at = ?3 AND p.id > ?4))
ORDER BY p.created_at ASC, p.id ASC
LIMIT ?5
`, viewerID, hasCursor, afterAt, afterID, limit)
	if err != nil {
		return nil, classify("list feed candidates", err)
	}
	defer func() { _ = rows.Close() }()

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
