package cli

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quizsite-service/internal/config"
	"quizsite-service/internal/infra/postgres"
	rediscache "quizsite-service/internal/infra/redis"
	"quizsite-service/internal/logger"
	"quizsite-service/internal/seed"
)

// NewSeedCmd loads the question catalog into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample question catalog (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if catalogPath != "" {
				cfg.Quiz.Catalog = catalogPath
			}
			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if err := runMigrationsWithConfig(cmd.Context(), cfg, log); err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML catalog to load instead of the embedded one")
	return cmd
}

func loadCatalog(path string) (seed.Catalog, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.Load(path)
}

func runSeed(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	catalog, err := loadCatalog(cfg.Quiz.Catalog)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := postgres.NewSeeder(db, log).Seed(ctx, catalog)
	if err != nil {
		return err
	}
	if result.Categories == 0 && result.Questions == 0 {
		return nil
	}

	// New questions must not hide behind cached listings.
	if cfg.Redis.Addr != "" {
		client := newRedisClient(cfg.Redis)
		defer client.Close()
		if err := rediscache.PurgeQuestionBank(ctx, client); err != nil {
			log.Warn("question cache purge failed", zap.Error(err))
		}
	}
	return nil
}

func newRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
