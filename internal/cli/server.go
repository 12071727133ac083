package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quizsite-service/internal/app"
	"quizsite-service/internal/config"
	"quizsite-service/internal/infra/memory"
	"quizsite-service/internal/infra/postgres"
	rediscache "quizsite-service/internal/infra/redis"
	"quizsite-service/internal/logger"
	"quizsite-service/internal/metrics"
	transport "quizsite-service/internal/transport/http"
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

type storage interface {
	app.SessionRepository
	app.AnswerRepository
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var (
		bank  app.QuestionBank
		store storage
	)
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
		if cfg.Postgres.Seed {
			if err := runSeed(ctx, cfg, log); err != nil {
				return err
			}
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		bank = postgres.NewQuestionLoader(pool)
		store = postgres.NewStore(db)
	} else {
		catalog, err := loadCatalog(cfg.Quiz.Catalog)
		if err != nil {
			return err
		}
		bank = memory.NewStaticBank(catalog.Build(time.Now()))
		store = memory.NewStore()
		log.Warn("postgres not configured, quiz data is kept in memory")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var leaderboard app.LeaderboardSource = store
	if cfg.Redis.Addr != "" {
		client := newRedisClient(cfg.Redis)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		bank = rediscache.NewQuestionBank(client, bank, quizTTL)
		leaderboard = rediscache.NewLeaderboardCache(client, store, config.TTLDuration(cfg.Leaderboard.CacheTTL, time.Minute))
	} else {
		bank = memory.NewCachedBank(bank, quizTTL)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(registry)

	service := app.NewQuizService(bank, store, store,
		app.WithLogger(log),
		app.WithMetrics(collector),
		app.WithLeaderboardSource(leaderboard),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", collector.Handler())
	transport.NewHandler(service, log).Register(mux, collector.Instrument)
	// Not instrumented: the status recorder would hide the Hijacker needed for the upgrade.
	mux.HandleFunc("GET /ws/leaderboard", transport.NewWSHandler(service, log).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting quiz service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	case err := <-serveErr:
		log.Error("failed to start server", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
