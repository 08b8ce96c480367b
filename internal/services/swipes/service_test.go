package swipes

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/locazos/stream-mate-match/internal/domain/enums"
	"github.com/locazos/stream-mate-match/internal/domain/model"
	redrepo "github.com/locazos/stream-mate-match/internal/repo/redis"
	sqliterepo "github.com/locazos/stream-mate-match/internal/repo/sqlite"
	matchsvc "github.com/locazos/stream-mate-match/internal/services/matches"
	ratesvc "github.com/locazos/stream-mate-match/internal/services/rate"
)

type fixture struct {
	svc     *Service
	matches *sqliterepo.MatchRepo
}

func newFixture(t *testing.T, limiter RateLimiter) fixture {
	t.Helper()

	db, err := sqliterepo.Open(context.Background(), filepath.Join(t.TempDir(), "swipes.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	decisions := sqliterepo.NewDecisionRepo(db)
	matchRepo := sqliterepo.NewMatchRepo(db)
	resolver := matchsvc.NewService(matchsvc.Dependencies{
		MatchStore:    matchRepo,
		DecisionStore: decisions,
	})

	return fixture{
		svc: NewService(Dependencies{
			DecisionStore: decisions,
			Resolver:      resolver,
			RateLimiter:   limiter,
		}),
		matches: matchRepo,
	}
}

func (f fixture) matchCount(t *testing.T, a, b string) int {
	t.Helper()
	count, err := f.matches.CountForPair(context.Background(), a, b)
	if err != nil {
		t.Fatalf("count matches: %v", err)
	}
	return count
}

func TestDecideOneSidedPositiveDoesNotMatch(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.Decide(context.Background(), "a", "b", enums.DirectionRight)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if res.AlreadyRecorded {
		t.Fatalf("first decision must not be reported as already recorded")
	}
	if res.Decision.Direction != enums.DirectionRight || res.Decision.ActorID != "a" || res.Decision.TargetID != "b" {
		t.Fatalf("unexpected decision: %+v", res.Decision)
	}
	if res.Resolution.Outcome != matchsvc.OutcomeNoMutualYet {
		t.Fatalf("unexpected outcome: %s", res.Resolution.Outcome)
	}
}

func TestDecideMutualPositiveInEitherOrder(t *testing.T) {
	for _, order := range [][2]string{{"a", "b"}, {"b", "a"}} {
		f := newFixture(t, nil)
		first, second := order[0], order[1]

		res, err := f.svc.Decide(context.Background(), first, second, enums.DirectionRight)
		if err != nil {
			t.Fatalf("first decide: %v", err)
		}
		if res.Resolution.Outcome != matchsvc.OutcomeNoMutualYet {
			t.Fatalf("first swipe cannot match: %+v", res.Resolution)
		}

		res, err = f.svc.Decide(context.Background(), second, first, enums.DirectionRight)
		if err != nil {
			t.Fatalf("second decide: %v", err)
		}
		if res.Resolution.Outcome != matchsvc.OutcomeMatchCreated || !res.Resolution.Created {
			t.Fatalf("reciprocal swipe must create the match: %+v", res.Resolution)
		}
		if res.Resolution.Match.UserA != "a" || res.Resolution.Match.UserB != "b" {
			t.Fatalf("match is not canonical: %+v", res.Resolution.Match)
		}
		if got := f.matchCount(t, "a", "b"); got != 1 {
			t.Fatalf("expected one match, got %d", got)
		}
	}
}

func TestDecideNegativeNeverMatches(t *testing.T) {
	cases := []struct {
		name   string
		first  enums.Direction
		second enums.Direction
	}{
		{name: "right then left", first: enums.DirectionRight, second: enums.DirectionLeft},
		{name: "left then right", first: enums.DirectionLeft, second: enums.DirectionRight},
		{name: "left then left", first: enums.DirectionLeft, second: enums.DirectionLeft},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			if _, err := f.svc.Decide(context.Background(), "a", "b", tc.first); err != nil {
				t.Fatalf("first decide: %v", err)
			}
			res, err := f.svc.Decide(context.Background(), "b", "a", tc.second)
			if err != nil {
				t.Fatalf("second decide: %v", err)
			}
			if res.Resolution.Outcome != matchsvc.OutcomeNoMutualYet {
				t.Fatalf("unexpected outcome: %+v", res.Resolution)
			}
			if got := f.matchCount(t, "a", "b"); got != 0 {
				t.Fatalf("expected no match, got %d", got)
			}
		})
	}
}

func TestDecideFirstDirectionWins(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.Decide(ctx, "a", "b", enums.DirectionLeft)
	if err != nil {
		t.Fatalf("first decide: %v", err)
	}

	again, err := f.svc.Decide(ctx, "a", "b", enums.DirectionRight)
	if err != nil {
		t.Fatalf("repeat decide: %v", err)
	}
	if !again.AlreadyRecorded {
		t.Fatalf("repeat decision must be reported as already recorded")
	}
	if again.Decision.Direction != enums.DirectionLeft || again.Decision.ID != first.Decision.ID {
		t.Fatalf("stored decision changed: %+v", again.Decision)
	}

	if _, err := f.svc.Decide(ctx, "b", "a", enums.DirectionRight); err != nil {
		t.Fatalf("reciprocal decide: %v", err)
	}
	if got := f.matchCount(t, "a", "b"); got != 0 {
		t.Fatalf("a later positive must not override the first negative, got %d matches", got)
	}
}

func TestDecideRetryAfterMatchIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.svc.Decide(ctx, "a", "b", enums.DirectionRight); err != nil {
		t.Fatalf("decide a: %v", err)
	}
	created, err := f.svc.Decide(ctx, "b", "a", enums.DirectionRight)
	if err != nil {
		t.Fatalf("decide b: %v", err)
	}

	retry, err := f.svc.Decide(ctx, "b", "a", enums.DirectionRight)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !retry.AlreadyRecorded || retry.Resolution.Created {
		t.Fatalf("retry must not create anything: %+v", retry)
	}
	if retry.Resolution.Match.ID != created.Resolution.Match.ID {
		t.Fatalf("retry returned a different match")
	}
	if got := f.matchCount(t, "a", "b"); got != 1 {
		t.Fatalf("expected one match, got %d", got)
	}
}

func TestDecideConcurrentDuplicates(t *testing.T) {
	f := newFixture(t, nil)

	const callers = 8
	results := make([]DecideResult, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		i := i
		g.Go(func() error {
			res, err := f.svc.Decide(context.Background(), "a", "b", enums.DirectionRight)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent decide: %v", err)
	}

	fresh := 0
	for _, res := range results {
		if !res.AlreadyRecorded {
			fresh++
		}
		if res.Decision.ID != results[0].Decision.ID {
			t.Fatalf("callers saw different decisions: %s %s", res.Decision.ID, results[0].Decision.ID)
		}
	}
	if fresh != 1 {
		t.Fatalf("expected exactly one new decision, got %d", fresh)
	}
}

func TestDecideConcurrentReciprocalSwipes(t *testing.T) {
	f := newFixture(t, nil)

	var (
		g       errgroup.Group
		mu      sync.Mutex
		results []DecideResult
	)
	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		pair := pair
		g.Go(func() error {
			res, err := f.svc.Decide(context.Background(), pair[0], pair[1], enums.DirectionRight)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent decide: %v", err)
	}

	created := 0
	for _, res := range results {
		if res.Resolution.Created {
			created++
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one caller to create the match, got %d", created)
	}
	if got := f.matchCount(t, "a", "b"); got != 1 {
		t.Fatalf("expected one match, got %d", got)
	}
}

func TestRecordValidatesInput(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cases := []struct {
		actor, target string
		dir           enums.Direction
	}{
		{"", "b", enums.DirectionRight},
		{"a", "", enums.DirectionRight},
		{"a", "a", enums.DirectionRight},
		{"a", "b", enums.Direction("up")},
	}
	for _, tc := range cases {
		if _, err := f.svc.Record(ctx, tc.actor, tc.target, tc.dir); !errors.Is(err, model.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", tc, err)
		}
	}
}

type limiterStub struct {
	allowed    bool
	retryAfter int64
	err        error
	calls      int
}

func (l *limiterStub) AllowSwipe(context.Context, string) (int64, bool, error) {
	l.calls++
	return l.retryAfter, l.allowed, l.err
}

func TestDecideRejectsBurstWithoutRecording(t *testing.T) {
	limiter := &limiterStub{allowed: false, retryAfter: 7}
	f := newFixture(t, limiter)

	_, err := f.svc.Decide(context.Background(), "a", "b", enums.DirectionRight)
	tf, ok := IsTooFast(err)
	if !ok {
		t.Fatalf("expected TooFastError, got %v", err)
	}
	if tf.RetryAfter() != 7 {
		t.Fatalf("unexpected retry_after: %d", tf.RetryAfter())
	}

	limiter.allowed = true
	res, err := f.svc.Decide(context.Background(), "a", "b", enums.DirectionRight)
	if err != nil {
		t.Fatalf("decide after limiter clears: %v", err)
	}
	if res.AlreadyRecorded {
		t.Fatalf("rejected swipe must not have been recorded")
	}
}

func TestDecideFailsOpenWhenLimiterErrors(t *testing.T) {
	limiter := &limiterStub{err: errors.New("redis: connection refused")}
	f := newFixture(t, limiter)

	res, err := f.svc.Decide(context.Background(), "a", "b", enums.DirectionRight)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if res.Decision.ID == "" || limiter.calls != 1 {
		t.Fatalf("decision not recorded or limiter skipped: %+v calls=%d", res, limiter.calls)
	}
}

func TestDecideWithRedisLimiter(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	f := newFixture(t, ratesvc.NewLimiter(redrepo.NewRateRepo(client), 0, 2))
	ctx := context.Background()

	for _, target := range []string{"b", "c"} {
		if _, err := f.svc.Decide(ctx, "a", target, enums.DirectionLeft); err != nil {
			t.Fatalf("decide %s: %v", target, err)
		}
	}
	if _, err := f.svc.Decide(ctx, "a", "d", enums.DirectionLeft); err == nil {
		t.Fatalf("expected third swipe in 10s window to be limited")
	} else if _, ok := IsTooFast(err); !ok {
		t.Fatalf("expected TooFastError, got %v", err)
	}

	mr.FastForward(11 * time.Second)
	if _, err := f.svc.Decide(ctx, "a", "d", enums.DirectionLeft); err != nil {
		t.Fatalf("decide after window: %v", err)
	}
}

func TestDecideRejectedInputKeepsSwipeBudget(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t, ratesvc.NewLimiter(redrepo.NewRateRepo(client), 0, 1))
	ctx := context.Background()

	for _, bad := range []struct {
		target    string
		direction enums.Direction
	}{
		{"a", enums.DirectionRight},
		{"", enums.DirectionRight},
		{"b", enums.Direction("up")},
	} {
		_, err := f.svc.Decide(ctx, "a", bad.target, bad.direction)
		if !errors.Is(err, model.ErrValidation) {
			t.Fatalf("decide(a, %q, %q): expected validation error, got %v", bad.target, bad.direction, err)
		}
	}

	if _, err := f.svc.Decide(ctx, "a", "b", enums.DirectionRight); err != nil {
		t.Fatalf("first valid swipe must be within budget: %v", err)
	}
}

func TestDecideValidatesBeforeRateLimit(t *testing.T) {
	limiter := &limiterStub{allowed: true}
	f := newFixture(t, limiter)

	if _, err := f.svc.Decide(context.Background(), "a", "a", enums.DirectionLeft); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if limiter.calls != 0 {
		t.Fatalf("limiter charged for rejected input: %d calls", limiter.calls)
	}
}

type resolverStub struct {
	err error
}

func (r resolverStub) ResolveIfMutual(context.Context, string, string) (matchsvc.Resolution, error) {
	return matchsvc.Resolution{}, r.err
}

type memoryDecisions struct {
	mu   sync.Mutex
	rows map[string]model.SwipeDecision
}

func (m *memoryDecisions) Insert(_ context.Context, actorID, targetID string, direction enums.Direction, now time.Time) (model.SwipeDecision, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := actorID + "->" + targetID
	if existing, ok := m.rows[key]; ok {
		return existing, false, nil
	}
	d := model.SwipeDecision{ID: key, ActorID: actorID, TargetID: targetID, Direction: direction, CreatedAt: now}
	m.rows[key] = d
	return d, true, nil
}

func TestDecideSurfacesResolverFailure(t *testing.T) {
	decisions := &memoryDecisions{rows: map[string]model.SwipeDecision{}}
	svc := NewService(Dependencies{
		DecisionStore: decisions,
		Resolver:      resolverStub{err: model.StoreFailure("lookup mutual decision", errors.New("timeout"))},
	})

	_, err := svc.Decide(context.Background(), "a", "b", enums.DirectionRight)
	if !errors.Is(err, model.ErrStoreUnavailable) {
		t.Fatalf("expected store failure, got %v", err)
	}
	if _, ok := decisions.rows["a->b"]; !ok {
		t.Fatalf("decision must stay recorded so a retry can resolve")
	}

	if _, err := svc.Decide(context.Background(), "a", "c", enums.DirectionLeft); err != nil {
		t.Fatalf("negative decisions never reach the resolver: %v", err)
	}
}
