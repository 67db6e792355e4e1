package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"gamified-lms/internal/app"
	"gamified-lms/internal/auth"
	"gamified-lms/internal/config"
	"gamified-lms/internal/infra/aiservice"
	"gamified-lms/internal/infra/database"
	"gamified-lms/internal/infra/llm"
	"gamified-lms/internal/infra/memory"
	pgloader "gamified-lms/internal/infra/postgres"
	rediscache "gamified-lms/internal/infra/redis"
	"gamified-lms/internal/logger"
	transport "gamified-lms/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()
	store := database.NewStore(db)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
	}

	keyTTL := config.TTLDuration(cfg.AnswerKeys.TTL, 10*time.Minute)
	var keys app.AnswerKeyRepository
	if redisClient != nil {
		var loader rediscache.AnswerKeyLoader = store
		if cfg.Database.Driver == database.DriverPostgres {
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()
			loader = pgloader.NewAnswerKeyLoader(pool)
		}
		keys = rediscache.NewAnswerKeyCache(redisClient, loader, keyTTL, log)
	} else {
		keys = memory.NewAnswerKeyCache(store, keyTTL)
	}

	var board app.LeaderboardStore = memory.NewLeaderboard()
	if redisClient != nil {
		board = rediscache.NewLeaderboardStore(redisClient)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	if err != nil {
		return err
	}

	requestTimeout := config.TTLDuration(cfg.Server.RequestTimeout, 30*time.Second)
	leaderboard := app.NewLeaderboardService(board, cfg.Gamification.LeaderboardSize)
	services := transport.Services{
		Identity:        app.NewIdentityService(store, tokens, cfg.Auth.BcryptCost),
		Topics:          app.NewTopicService(store, log),
		Scoring:         app.NewScoringService(keys, store, leaderboard, cfg.Gamification.PointsPerCorrect, log),
		Inbox:           app.NewInboxService(store),
		Leaderboard:     leaderboard,
		Recommendations: app.NewRecommendationService(newRecommender(cfg, log), config.TTLDuration(cfg.AI.Timeout, 5*time.Second), log),
	}

	router := transport.NewRouter(
		transport.NewHandler(services, log),
		transport.NewWSHandler(leaderboard, tokens, log),
		tokens,
		log,
		transport.RouterOptions{
			CORSOrigins:    cfg.Server.CORSOrigins,
			RequestTimeout: requestTimeout,
		},
	)

	server := newHTTPServer(":"+finalPort, router, requestTimeout)

	go func() {
		log.Info("starting server", "port", finalPort, "driver", cfg.Database.Driver, "ai_provider", cfg.AI.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newHTTPServer leaves the write deadline above the request timeout so handlers
// can still send the timeout response.
func newHTTPServer(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
	}
}

func newRecommender(cfg config.Config, log *logger.Logger) app.Recommender {
	timeout := config.TTLDuration(cfg.AI.Timeout, 5*time.Second)
	switch cfg.AI.Provider {
	case "service":
		return aiservice.New(cfg.AI.BaseURL, timeout)
	case "openai":
		return llm.New(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model)
	case "none":
		return app.NoopRecommender{}
	default:
		log.Warn("unknown ai provider, serving fallbacks", "provider", cfg.AI.Provider)
		return app.NoopRecommender{}
	}
}
