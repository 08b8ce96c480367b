package matches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/locazos/stream-mate-match/internal/domain/model"
	"github.com/locazos/stream-mate-match/internal/pkg/validate"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type Outcome string

const (
	OutcomeMatchCreated Outcome = "match_created"
	OutcomeNoMutualYet  Outcome = "no_mutual_yet"
)

type MatchStore interface {
	MutualPositive(ctx context.Context, userID, targetID string) (bool, error)
	InsertOrGet(ctx context.Context, userID, targetID string, now time.Time) (model.Match, bool, error)
	GetByPair(ctx context.Context, userID, targetID string) (model.Match, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]model.MatchWithCounterpart, error)
}

type DecisionStore interface {
	Get(ctx context.Context, actorID, targetID string) (model.SwipeDecision, error)
}

type AvatarSigner interface {
	SignAvatar(ctx context.Context, ref string) (string, error)
}

// Resolution reports what ResolveIfMutual found. Match is set for
// OutcomeMatchCreated; Created is true only for the call whose insert won.
type Resolution struct {
	Outcome Outcome
	Match   model.Match
	Created bool
}

type MatchView struct {
	Match       model.Match
	Counterpart model.Profile
}

type Service struct {
	matchStore    MatchStore
	decisionStore DecisionStore
	avatars       AvatarSigner
	logger        *zap.Logger
	now           func() time.Time
}

type Dependencies struct {
	MatchStore    MatchStore
	DecisionStore DecisionStore
	Logger        *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		matchStore:    deps.MatchStore,
		decisionStore: deps.DecisionStore,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *Service) AttachAvatarSigner(signer AvatarSigner) {
	s.avatars = signer
}

// ResolveIfMutual creates the match for {actorID, targetID} when both positive
// decisions are on the ledger. Repeated or concurrent calls for the same pair,
// in either order, converge on a single Match row.
func (s *Service) ResolveIfMutual(ctx context.Context, actorID, targetID string) (Resolution, error) {
	actorID = strings.TrimSpace(actorID)
	targetID = strings.TrimSpace(targetID)
	if !validate.DistinctPair(actorID, targetID) {
		return Resolution{}, fmt.Errorf("resolve pair: %w", model.ErrValidation)
	}
	if s.matchStore == nil {
		return Resolution{}, fmt.Errorf("match store is nil")
	}

	mutual, err := s.matchStore.MutualPositive(ctx, actorID, targetID)
	if err != nil {
		return Resolution{}, fmt.Errorf("check reciprocal decision: %w", err)
	}
	if !mutual {
		return Resolution{Outcome: OutcomeNoMutualYet}, nil
	}

	match, created, err := s.matchStore.InsertOrGet(ctx, actorID, targetID, s.now().UTC())
	if err != nil {
		return Resolution{}, fmt.Errorf("record match: %w", err)
	}
	if created {
		s.logger.Info("match created",
			zap.String("match_id", match.ID),
			zap.String("pair", model.PairKey(match.UserA, match.UserB)),
		)
	}

	return Resolution{
		Outcome: OutcomeMatchCreated,
		Match:   match,
		Created: created,
	}, nil
}

// ListForUser returns every match the user participates in, newest first.
// Matches whose counterpart profile is missing or invalid are left out.
func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]MatchView, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("list matches: %w", model.ErrValidation)
	}
	if s.matchStore == nil {
		return nil, fmt.Errorf("match store is nil")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := s.matchStore.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	items := make([]MatchView, 0, len(rows))
	for _, row := range rows {
		if row.Counterpart == nil {
			s.logger.Warn("match counterpart has no profile",
				zap.String("match_id", row.Match.ID),
				zap.String("counterpart_id", row.Match.Counterpart(userID)),
			)
			continue
		}
		profile, err := model.NewProfile(*row.Counterpart)
		if err != nil {
			s.logger.Warn("skip match with invalid counterpart",
				zap.String("match_id", row.Match.ID),
				zap.Error(err),
			)
			continue
		}
		profile.AvatarRef = s.signAvatar(ctx, profile.AvatarRef)
		items = append(items, MatchView{
			Match:       row.Match,
			Counterpart: profile,
		})
	}
	return items, nil
}

// PairState reports how far a pair has progressed: no decisions, at least one
// decision, or matched.
func (s *Service) PairState(ctx context.Context, userID, targetID string) (model.PairState, error) {
	userID = strings.TrimSpace(userID)
	targetID = strings.TrimSpace(targetID)
	if !validate.DistinctPair(userID, targetID) {
		return "", fmt.Errorf("pair state: %w", model.ErrValidation)
	}
	if s.matchStore == nil || s.decisionStore == nil {
		return "", fmt.Errorf("pair state dependencies are not configured")
	}

	if _, err := s.matchStore.GetByPair(ctx, userID, targetID); err == nil {
		return model.PairMatched, nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return "", fmt.Errorf("read match: %w", err)
	}

	for _, pair := range [][2]string{{userID, targetID}, {targetID, userID}} {
		_, err := s.decisionStore.Get(ctx, pair[0], pair[1])
		if err == nil {
			return model.PairOneSided, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return "", fmt.Errorf("read decision: %w", err)
		}
	}
	return model.PairNoDecisions, nil
}

func (s *Service) signAvatar(ctx context.Context, ref string) string {
	if s.avatars == nil || ref == "" {
		return ref
	}
	signed, err := s.avatars.SignAvatar(ctx, ref)
	if err != nil {
		s.logger.Debug("avatar signing failed", zap.Error(err))
		return ""
	}
	return signed
}
