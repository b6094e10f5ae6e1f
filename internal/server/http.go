package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/geoplay/geoquiz/internal/config"
	"github.com/geoplay/geoquiz/internal/duel"
	"github.com/geoplay/geoquiz/internal/game"
	"github.com/geoplay/geoquiz/internal/identity"
	"github.com/geoplay/geoquiz/internal/progression"
	"github.com/geoplay/geoquiz/internal/ranking"
)

// Handlers collects the per-domain HTTP handlers wired by the app layer.
type Handlers struct {
	Game        *game.HTTPHandlers
	Duel        *duel.HTTPHandlers
	Ranking     *ranking.HTTPHandler
	Progression *progression.HTTPHandler
}

// NewHTTPServer wires all routes for the API service. Every /v1 route runs
// behind the identity middleware: a bearer token or a guest header is
// required, and which one decides what the handlers may do.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redisClient *redis.Client, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, redisClient); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	api := http.NewServeMux()

	api.HandleFunc("POST /v1/sessions", h.Game.CreateSession)
	api.HandleFunc("GET /v1/sessions/{id}", h.Game.GetSession)
	api.HandleFunc("GET /v1/sessions/{id}/rounds", h.Game.ListRounds)
	api.HandleFunc("POST /v1/sessions/{id}/rounds/{round}/start", h.Game.StartRound)
	api.HandleFunc("POST /v1/sessions/{id}/rounds/{round}/guess", h.Game.SubmitGuess)
	api.HandleFunc("GET /v1/sessions/{id}/rounds/{round}/hint", h.Game.RoundHint)
	api.HandleFunc("POST /v1/sessions/{id}/complete", h.Game.CompleteSession)

	api.HandleFunc("POST /v1/duels/challenge", h.Duel.IssueChallenge)
	api.HandleFunc("POST /v1/duels/accept", h.Duel.AcceptChallenge)
	api.HandleFunc("POST /v1/duels/reconcile", h.Duel.Reconcile)
	api.HandleFunc("GET /v1/duels", h.Duel.History)
	api.HandleFunc("GET /v1/duels/{id}", h.Duel.GetResult)

	api.HandleFunc("GET /v1/leaderboards/{window}", h.Ranking.Top)
	api.HandleFunc("GET /v1/leaderboards/{window}/me", h.Ranking.Me)

	api.HandleFunc("GET /v1/levels", h.Progression.ListLevels)
	api.HandleFunc("GET /v1/streaks/me", h.Progression.MyStreak)

	mux.Handle("/v1/", identity.Middleware([]byte(cfg.Security.JWTSecret), api))

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsMiddleware(cfg.CORS, mux),
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redisClient *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}
