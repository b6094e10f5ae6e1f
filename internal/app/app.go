package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/geoplay/geoquiz/internal/catalog"
	"github.com/geoplay/geoquiz/internal/config"
	"github.com/geoplay/geoquiz/internal/db/repository"
	"github.com/geoplay/geoquiz/internal/duel"
	"github.com/geoplay/geoquiz/internal/game"
	"github.com/geoplay/geoquiz/internal/logging"
	"github.com/geoplay/geoquiz/internal/progression"
	"github.com/geoplay/geoquiz/internal/ranking"
	"github.com/geoplay/geoquiz/internal/server"
	"github.com/geoplay/geoquiz/pkg/clock"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
}

// New bootstraps configs, logger, Postgres, Redis and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	sessionRepo := repository.NewSessionRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	rankingRepo := repository.NewRankingRepository(pool)
	streakRepo := repository.NewStreakRepository(pool)
	duelRepo := repository.NewDuelRepository(pool)

	clk := clock.System()

	poolCache := catalog.NewCache(redisClient, cfg.Runtime.PoolCacheTTL)
	catalogSvc := catalog.NewService(catalogRepo, poolCache, logger)

	rankingSvc := ranking.NewService(rankingRepo, redisClient, clk, logger, ranking.ServiceOptions{
		TopN:           cfg.Ranking.TopN,
		RedisKeyPrefix: cfg.Ranking.RedisKeyPrefix,
	})
	progressionSvc := progression.NewService(streakRepo, clk, logger)

	gameSvc := game.NewService(sessionRepo, catalogSvc, rankingSvc, progressionSvc, clk, logger)

	duelCodec := duel.NewCodec(cfg.Security.ChallengeHMACSecret)
	duelSvc := duel.NewService(gameSvc, duelRepo, rankingSvc, duelCodec, clk, logger)

	handlers := server.Handlers{
		Game:        game.NewHTTPHandlers(gameSvc, logger),
		Duel:        duel.NewHTTPHandlers(duelSvc, logger),
		Ranking:     ranking.NewHTTPHandler(rankingSvc, logger),
		Progression: progression.NewHTTPHandler(progressionSvc, logger),
	}

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, handlers)

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
