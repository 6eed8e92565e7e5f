package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizgate/internal/app"
	"quizgate/internal/config"
	"quizgate/internal/domain"
	"quizgate/internal/infra/memory"
	mongoinfra "quizgate/internal/infra/mongo"
	pginfra "quizgate/internal/infra/postgres"
	redisinfra "quizgate/internal/infra/redis"
	"quizgate/internal/session"
	transport "quizgate/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	// Quizzes and results share a backend: Mongo when configured,
	// otherwise Postgres, otherwise the in-memory dev setup.
	staticLoader := memory.NewStaticQuizLoader(sampleQuizzes())
	var loader memory.QuizLoader = staticLoader
	var lister app.QuizLister = staticLoader
	var results app.ResultStore = memory.NewResultStore()

	switch {
	case cfg.Mongo.URI != "":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		dbName := cfg.Mongo.Database
		if dbName == "" {
			dbName = "quizgate"
		}
		db := client.Database(dbName)
		mongoLoader := mongoinfra.NewQuizLoader(db)
		loader, lister = mongoLoader, mongoLoader
		results = mongoinfra.NewResultStore(db)
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		pgLoader := pginfra.NewQuizLoader(pool)
		loader, lister = pgLoader, pgLoader
		results = pginfra.NewResultStore(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	// Session records must outlive a client's longest plausible attempt,
	// so their TTL defaults well past any quiz time budget.
	sessionTTL := config.TTLDuration(cfg.Session.TTL, 24*time.Hour)
	var sessions session.Store
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	service := app.NewAssessmentService(quizRepo, lister, results)
	handler := transport.NewHandler(service)
	wsHandler := transport.NewWSHandler(service, sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizgate on :%s", finalPort)
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

// sampleQuizzes seeds the in-memory dev mode; production points the
// loader at Mongo or Postgres instead.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:           "quiz-1",
			Title:        "General Knowledge Warmup",
			Password:     "letmein",
			TimerMinutes: 2,
			Questions: []domain.Question{
				{
					Text:          "What is 2 + 2?",
					Options:       []string{"3", "4", "5"},
					CorrectAnswer: "4",
				},
				{
					Text:          "Which planet is known as the Red Planet?",
					Options:       []string{"Venus", "Mars", "Jupiter"},
					CorrectAnswer: "Mars",
				},
			},
			CreatedAt: time.Now(),
		},
	}
}
