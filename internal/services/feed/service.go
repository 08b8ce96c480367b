package feed

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/locazos/stream-mate-match/internal/domain/model"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

type Repository interface {
	ListCandidates(ctx context.Context, viewerID string, after *model.FeedCursor, limit int) ([]model.ProfileRow, error)
}

type AvatarSigner interface {
	SignAvatar(ctx context.Context, ref string) (string, error)
}

type Config struct {
	PageSize int
}

// Service builds the candidate feed: every profile except the viewer and the
// targets the viewer has already decided on.
type Service struct {
	repo    Repository
	cfg     Config
	avatars AvatarSigner
	logger  *zap.Logger
}

func NewService(repo Repository, cfg Config, logger *zap.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.PageSize > maxPageSize {
		cfg.PageSize = maxPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Service) AttachAvatarSigner(signer AvatarSigner) {
	s.avatars = signer
}

func (s *Service) Candidates(ctx context.Context, userID string, limit int) ([]model.Profile, error) {
	if limit <= 0 {
		limit = s.cfg.PageSize
	}
	limit = min(limit, maxPageSize)
	return s.collect(ctx, userID, limit, limit)
}

// Next returns the first undecided candidate. The bool is false once the feed
// is exhausted; no placeholder profile is ever returned in that case.
func (s *Service) Next(ctx context.Context, userID string) (model.Profile, bool, error) {
	items, err := s.collect(ctx, userID, 1, s.cfg.PageSize)
	if err != nil {
		return model.Profile{}, false, err
	}
	if len(items) == 0 {
		return model.Profile{}, false, nil
	}
	return items[0], true, nil
}

// collect pages through the store in batches until want valid candidates are
// found or the store runs out. Rows that fail validation are skipped but still
// move the cursor, so they can never hide the candidates behind them.
func (s *Service) collect(ctx context.Context, userID string, want, batch int) ([]model.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("feed viewer: %w", model.ErrValidation)
	}
	if s.repo == nil {
		return nil, fmt.Errorf("feed repository is nil")
	}

	var (
		items = make([]model.Profile, 0, want)
		after *model.FeedCursor
	)
	for len(items) < want {
		rows, err := s.repo.ListCandidates(ctx, userID, after, batch)
		if err != nil {
			return nil, fmt.Errorf("list feed candidates: %w", err)
		}

		for _, row := range rows {
			profile, err := model.NewProfile(row)
			if err != nil {
				s.logger.Warn("skip invalid feed candidate", zap.String("profile_id", row.ID), zap.Error(err))
				continue
			}
			if profile.ID == userID {
				continue
			}
			profile.AvatarRef = s.signAvatar(ctx, profile.AvatarRef)
			items = append(items, profile)
			if len(items) == want {
				break
			}
		}

		if len(rows) < batch {
			break
		}
		cursor := rows[len(rows)-1].Cursor()
		after = &cursor
	}
	return items, nil
}

func (s *Service) signAvatar(ctx context.Context, ref string) string {
	if s.avatars == nil || ref == "" {
		return ref
	}
	signed, err := s.avatars.SignAvatar(ctx, ref)
	if err != nil {
		s.logger.Debug("avatar signing failed", zap.String("ref", ref), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(signed)
}
