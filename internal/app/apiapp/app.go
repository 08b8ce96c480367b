package apiapp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/locazos/stream-mate-match/internal/config"
	s3infra "github.com/locazos/stream-mate-match/internal/infra/s3"
	pgrepo "github.com/locazos/stream-mate-match/internal/repo/postgres"
	redrepo "github.com/locazos/stream-mate-match/internal/repo/redis"
	sqliterepo "github.com/locazos/stream-mate-match/internal/repo/sqlite"
	authsvc "github.com/locazos/stream-mate-match/internal/services/auth"
	feedsvc "github.com/locazos/stream-mate-match/internal/services/feed"
	matchessvc "github.com/locazos/stream-mate-match/internal/services/matches"
	mediasvc "github.com/locazos/stream-mate-match/internal/services/media"
	profilesvc "github.com/locazos/stream-mate-match/internal/services/profiles"
	ratesvc "github.com/locazos/stream-mate-match/internal/services/rate"
	swipesvc "github.com/locazos/stream-mate-match/internal/services/swipes"
	"github.com/locazos/stream-mate-match/internal/transport/http/handlers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	sqlite     *sql.DB
	redis      *goredis.Client
	httpRouter http.Handler
}

// stores groups the repositories for whichever driver is configured.
type stores struct {
	profiles  profilesvc.ProfileStore
	decisions interface {
		swipesvc.DecisionStore
		matchessvc.DecisionStore
	}
	matches matchessvc.MatchStore
	feed    feedsvc.Repository
	ping    handlers.Pinger
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	app := &App{cfg: cfg, logger: log}

	st, err := app.openStores(ctx)
	if err != nil {
		return nil, err
	}

	var (
		rateLimiter swipesvc.RateLimiter
		cooldown    handlers.SwipeCooldown
	)
	if cfg.Redis.Enabled {
		app.redis = redrepo.NewClient(redrepo.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redrepo.Ping(ctx, app.redis); err != nil {
			log.Warn("redis unavailable, swipe limiter will fail open", zap.Error(err))
		}
		limiter := ratesvc.NewLimiter(
			redrepo.NewRateRepo(app.redis),
			cfg.Engine.SwipeRatePerMinute,
			cfg.Engine.SwipeRatePer10Sec,
		)
		rateLimiter, cooldown = limiter, limiter
	}

	var avatars *mediasvc.AvatarSigner
	if cfg.S3.Enabled {
		client, err := s3infra.NewClient(s3infra.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Region:    cfg.S3.Region,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			log.Warn("s3 init failed, avatars are served unsigned", zap.Error(err))
		} else {
			storage := mediasvc.NewS3Storage(client, cfg.S3.Bucket)
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := storage.CheckBucket(checkCtx)
			cancel()
			if err != nil {
				log.Warn("avatar bucket check failed", zap.String("bucket", cfg.S3.Bucket), zap.Error(err))
			}
			avatars = mediasvc.NewAvatarSigner(storage, cfg.S3.AvatarURLTTL)
		}
	}

	matchService := matchessvc.NewService(matchessvc.Dependencies{
		MatchStore:    st.matches,
		DecisionStore: st.decisions,
		Logger:        log.Named("matches"),
	})
	feedService := feedsvc.NewService(st.feed, feedsvc.Config{PageSize: cfg.Engine.FeedPageSize}, log.Named("feed"))
	if avatars != nil {
		matchService.AttachAvatarSigner(avatars)
		feedService.AttachAvatarSigner(avatars)
	}
	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		DecisionStore: st.decisions,
		Resolver:      matchService,
		RateLimiter:   rateLimiter,
		Logger:        log.Named("swipes"),
	})
	profileService := profilesvc.NewService(st.profiles)

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)
	RegisterRoutes(r, Dependencies{
		Verifier: authsvc.NewVerifier(authsvc.Config{
			Secret:   cfg.Auth.JWTSecret,
			Issuer:   cfg.Auth.JWTIssuer,
			Audience: cfg.Auth.JWTAudience,
		}),
		FeedService:    feedService,
		MatchService:   matchService,
		ProfileService: profileService,
		SwipeService:   swipeService,
		SwipeCooldown:  cooldown,
		StorePinger:    st.ping,
		Logger:         log,
	})

	app.httpRouter = r
	app.server = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	return app, nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	switch a.cfg.Store.Driver {
	case config.StoreDriverSQLite:
		db, err := sqliterepo.Open(ctx, a.cfg.SQLite.Path)
		if err != nil {
			return stores{}, fmt.Errorf("open sqlite store: %w", err)
		}
		a.sqlite = db
		a.logger.Info("using sqlite store", zap.String("path", a.cfg.SQLite.Path))
		return stores{
			profiles:  sqliterepo.NewProfileRepo(db),
			decisions: sqliterepo.NewDecisionRepo(db),
			matches:   sqliterepo.NewMatchRepo(db),
			feed:      sqliterepo.NewFeedRepo(db),
			ping:      db,
		}, nil
	case config.StoreDriverPostgres:
		pool, err := pgrepo.NewPool(ctx, pgrepo.PoolConfig{
			DSN:             a.cfg.Postgres.DSN,
			MaxConns:        int32(a.cfg.Postgres.MaxConns),
			ConnectTimeout:  a.cfg.Postgres.ConnectTimeout,
			MaxConnIdleTime: a.cfg.Postgres.MaxConnIdleTime,
		})
		if err != nil {
			return stores{}, fmt.Errorf("open postgres store: %w", err)
		}
		applied, err := pgrepo.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return stores{}, fmt.Errorf("migrate postgres store: %w", err)
		}
		if len(applied) > 0 {
			a.logger.Info("applied migrations", zap.Strings("files", applied))
		}
		a.postgres = pool
		return stores{
			profiles:  pgrepo.NewProfileRepo(pool),
			decisions: pgrepo.NewDecisionRepo(pool),
			matches:   pgrepo.NewMatchRepo(pool),
			feed:      pgrepo.NewFeedRepo(pool),
			ping:      handlers.PingFunc(pool.Ping),
		}, nil
	default:
		return stores{}, fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
	}
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
