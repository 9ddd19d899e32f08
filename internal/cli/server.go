package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"ilm-quiz-service/internal/app"
	"ilm-quiz-service/internal/config"
	"ilm-quiz-service/internal/domain"
	filestore "ilm-quiz-service/internal/infra/file"
	"ilm-quiz-service/internal/infra/memory"
	pgstore "ilm-quiz-service/internal/infra/postgres"
	redisstore "ilm-quiz-service/internal/infra/redis"
	transport "ilm-quiz-service/internal/transport/http"
)

const defaultAccountsPath = "data/users.json"

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

	accountRepo, cleanup, err := buildAccountRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	questionRepo, categories, cleanupQuestions, err := buildQuestionRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanupQuestions()

	accounts := app.NewAccountService(accountRepo, app.AuthOptions{
		PlaintextCredentials: cfg.Auth.PlaintextCredentials,
		UniformLoginErrors:   cfg.Auth.UniformLoginErrors,
	})

	apiHandler := transport.NewHandler(accounts, categories)
	wsHandler := transport.NewWSHandler(accounts, questionRepo)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/ws/quiz", wsHandler.ServeQuiz)
	apiHandler.Routes(router)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	chain := handlers.CombinedLoggingHandler(os.Stdout, transport.MetricsMiddleware(cors(router)))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
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

// buildAccountRepository picks the storage backend: file (default), redis, or postgres.
func buildAccountRepository(ctx context.Context, cfg config.Config) (app.AccountRepository, func(), error) {
	switch cfg.Storage.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		return redisstore.NewAccountStore(client), func() { client.Close() }, nil
	case "postgres":
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return pgstore.NewAccountStore(db), func() { db.Close() }, nil
	default:
		path := cfg.Storage.File.Path
		if path == "" {
			path = defaultAccountsPath
		}
		return filestore.NewAccountStore(path), func() {}, nil
	}
}

// buildQuestionRepository wires the bank loader (postgres, YAML file, or the
// built-in samples) behind the TTL cache.
func buildQuestionRepository(ctx context.Context, cfg config.Config) (app.QuestionRepository, []domain.Category, func(), error) {
	ttl := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	cleanup := func() {}

	var loader memory.QuestionLoader
	categories := sampleCategories()

	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, nil, err
		}
		loader = pgstore.NewQuestionLoader(pool)
		cleanup = pool.Close
	case cfg.Questions.Path != "":
		fileLoader := filestore.NewQuestionLoader(cfg.Questions.Path)
		cats, err := fileLoader.Categories()
		if err != nil {
			return nil, nil, nil, err
		}
		if len(cats) > 0 {
			categories = cats
		}
		loader = fileLoader
	default:
		loader = memory.NewStaticQuestionLoader(sampleQuestions())
	}

	return memory.NewQuestionRepository(loader, ttl), categories, cleanup, nil
}

// sampleQuestions provides a minimal bank; configure a YAML file or Postgres for real content.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:            "coran-d-1",
			Category:      "coran",
			Level:         domain.LevelBeginner,
			Prompt:        "Combien de sourates compte le Coran ?",
			Options:       []string{"110", "114", "120", "99"},
			CorrectAnswer: "114",
			Explanation:   "Le Coran compte 114 sourates.",
		},
		{
			ID:            "sira-d-1",
			Category:      "sira",
			Level:         domain.LevelBeginner,
			Prompt:        "Dans quelle ville le Prophete est-il ne ?",
			Options:       []string{"Medine", "La Mecque", "Taif", "Jerusalem"},
			CorrectAnswer: "La Mecque",
			Explanation:   "Le Prophete est ne a La Mecque.",
		},
	}
}

func sampleCategories() []domain.Category {
	return []domain.Category{
		{
			ID:          "coran",
			Name:        "Le Coran",
			Description: "Sourates, versets et sciences coraniques.",
			Levels: map[string]string{
				domain.LevelBeginner:     "Connaissances de base sur les sourates courtes",
				domain.LevelIntermediate: "Comprehension des themes principaux du Coran",
				domain.LevelAdvanced:     "Connaissance approfondie des versets et de leur contexte",
			},
		},
		{
			ID:          "sira",
			Name:        "La Sira du Prophete",
			Description: "La vie du Prophete, de sa naissance a sa mission.",
			Levels: map[string]string{
				domain.LevelBeginner:     "Evenements cles de la vie du Prophete",
				domain.LevelIntermediate: "Etapes majeures de la mission prophetique",
				domain.LevelAdvanced:     "Analyse des pactes et expeditions",
			},
		},
	}
}
