package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/locazos/stream-mate-match/internal/services/auth"
	feedsvc "github.com/locazos/stream-mate-match/internal/services/feed"
	matchessvc "github.com/locazos/stream-mate-match/internal/services/matches"
	profilesvc "github.com/locazos/stream-mate-match/internal/services/profiles"
	swipesvc "github.com/locazos/stream-mate-match/internal/services/swipes"
	"github.com/locazos/stream-mate-match/internal/transport/http/handlers"
)

type Dependencies struct {
	Verifier       *authsvc.Verifier
	FeedService    *feedsvc.Service
	MatchService   *matchessvc.Service
	ProfileService *profilesvc.Service
	SwipeService   *swipesvc.Service
	SwipeCooldown  handlers.SwipeCooldown
	StorePinger    handlers.Pinger
	Logger         *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.StorePinger)
	feedHandler := handlers.NewFeedHandler(deps.FeedService, deps.SwipeCooldown)
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService)
	authMW := AuthMiddleware(deps.Verifier, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Group(func(r chi.Router) {
		r.Use(authMW)
		r.Get("/feed", feedHandler.Handle)
		r.Get("/feed/next", feedHandler.Next)
		r.Post("/swipe", swipeHandler.Handle)
		r.Get("/matches", matchesHandler.Handle)
		r.Post("/matches/resolve", matchesHandler.Resolve)
		r.Get("/matches/state", matchesHandler.State)
		r.Get("/profile", profileHandler.Get)
		r.Put("/profile", profileHandler.Update)
	})
}
