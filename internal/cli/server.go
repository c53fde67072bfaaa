package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
	pginfra "quiz-attempt-service/internal/infra/postgres"
	redisinfra "quiz-attempt-service/internal/infra/redis"
	transport "quiz-attempt-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the attempt server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pginfra.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var catalog app.QuizCatalog
	if redisClient != nil {
		catalog = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		catalog = memory.NewCatalogCache(loader, quizTTL)
	}

	var store app.AttemptStore
	if pool != nil {
		store = pginfra.NewAttemptStore(pool)
	} else {
		store = memory.NewAttemptStore()
	}
	if redisClient != nil {
		store = redisinfra.NewSummaryMirror(redisClient, store, cfg.Attempts.MirrorKeep)
	}

	service := app.NewAttemptService(catalog, store)
	wsHandler := transport.NewWSHandler(service)
	resultsHandler := transport.NewResultsHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws/attempt", wsHandler.ServeWS)
	mux.HandleFunc("GET /attempts", resultsHandler.AttemptResult)
	mux.HandleFunc("GET /quizzes/{id}/attempts", resultsHandler.QuizAttempts)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting attempt service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds the static catalog used when no Postgres is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:               "quiz-1",
			Title:            "Arithmetic Warmup",
			TimeLimitMinutes: 5,
			TotalPoints:      2,
			Questions: []domain.Question{
				{
					Text:          "What is 2 + 2?",
					Options:       []string{"3", "4", "5"},
					CorrectOption: 1,
					Points:        1,
				},
				{
					Text:          "What is 6 / 2?",
					Options:       []string{"2", "3", "4"},
					CorrectOption: 1,
					Points:        1,
				},
			},
		},
	}
}
