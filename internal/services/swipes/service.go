package swipes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/locazos/stream-mate-match/internal/domain/enums"
	"github.com/locazos/stream-mate-match/internal/domain/model"
	"github.com/locazos/stream-mate-match/internal/pkg/validate"
	matchsvc "github.com/locazos/stream-mate-match/internal/services/matches"
)

type DecisionStore interface {
	Insert(ctx context.Context, actorID, targetID string, direction enums.Direction, now time.Time) (model.SwipeDecision, bool, error)
}

type Resolver interface {
	ResolveIfMutual(ctx context.Context, actorID, targetID string) (matchsvc.Resolution, error)
}

type RateLimiter interface {
	AllowSwipe(ctx context.Context, userID string) (int64, bool, error)
}

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too fast"
}

func (e TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}

// Recorded is the ledger entry for (actor, target). Created is false when an
// earlier decision already existed; Decision then carries the stored direction.
type Recorded struct {
	Decision model.SwipeDecision
	Created  bool
}

type DecideResult struct {
	Decision        model.SwipeDecision
	AlreadyRecorded bool
	Resolution      matchsvc.Resolution
}

type Service struct {
	decisions   DecisionStore
	resolver    Resolver
	rateLimiter RateLimiter
	logger      *zap.Logger
	now         func() time.Time
}

type Dependencies struct {
	DecisionStore DecisionStore
	Resolver      Resolver
	RateLimiter   RateLimiter
	Logger        *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		decisions:   deps.DecisionStore,
		resolver:    deps.Resolver,
		rateLimiter: deps.RateLimiter,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) Record(ctx context.Context, actorID, targetID string, direction enums.Direction) (Recorded, error) {
	actorID, targetID, err := checkDecision(actorID, targetID, direction)
	if err != nil {
		return Recorded{}, err
	}
	if s.decisions == nil {
		return Recorded{}, fmt.Errorf("decision store is nil")
	}

	decision, created, err := s.decisions.Insert(ctx, actorID, targetID, direction, s.now().UTC())
	if err != nil {
		return Recorded{}, fmt.Errorf("record decision: %w", err)
	}
	if !created && decision.Direction != direction {
		s.logger.Info("decision already recorded with another direction",
			zap.String("actor_id", actorID),
			zap.String("target_id", targetID),
			zap.String("stored", string(decision.Direction)),
			zap.String("requested", string(direction)),
		)
	}

	return Recorded{Decision: decision, Created: created}, nil
}

func checkDecision(actorID, targetID string, direction enums.Direction) (string, string, error) {
	actorID = strings.TrimSpace(actorID)
	targetID = strings.TrimSpace(targetID)
	if !validate.DistinctPair(actorID, targetID) {
		return "", "", fmt.Errorf("record decision: %w", model.ErrValidation)
	}
	if !direction.Valid() {
		return "", "", fmt.Errorf("unsupported direction %q: %w", direction, model.ErrValidation)
	}
	return actorID, targetID, nil
}

// Decide records the caller's decision on targetID and, when the stored
// decision is positive, checks for the reciprocal one. A repeated Decide for the
// same target is answered from the ledger and re-runs resolution, so a retry
// after a failed resolve still produces the match.
func (s *Service) Decide(ctx context.Context, userID, targetID string, direction enums.Direction) (DecideResult, error) {
	// Rejected input must not spend the caller's swipe budget.
	userID, targetID, err := checkDecision(userID, targetID, direction)
	if err != nil {
		return DecideResult{}, err
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.AllowSwipe(ctx, userID)
		switch {
		case err != nil:
			s.logger.Warn("swipe rate limiter unavailable", zap.String("user_id", userID), zap.Error(err))
		case !allowed:
			return DecideResult{}, TooFastError{RetryAfterSec: retryAfter}
		}
	}

	recorded, err := s.Record(ctx, userID, targetID, direction)
	if err != nil {
		return DecideResult{}, err
	}

	result := DecideResult{
		Decision:        recorded.Decision,
		AlreadyRecorded: !recorded.Created,
		Resolution:      matchsvc.Resolution{Outcome: matchsvc.OutcomeNoMutualYet},
	}
	if !recorded.Decision.Direction.Positive() {
		return result, nil
	}
	if s.resolver == nil {
		return DecideResult{}, fmt.Errorf("match resolver is nil")
	}

	resolution, err := s.resolver.ResolveIfMutual(ctx, recorded.Decision.ActorID, recorded.Decision.TargetID)
	if err != nil {
		return DecideResult{}, fmt.Errorf("resolve after decision: %w", err)
	}
	result.Resolution = resolution
	return result, nil
}
