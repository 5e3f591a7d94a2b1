package app

import (
	"context"
	"fmt"

	"roomrelay/internal/cache/redis"
	"roomrelay/internal/config"
	"roomrelay/internal/domain"
	"roomrelay/internal/store/postgres"
)

// Dependencies bundles every domain-level collaborator the server needs. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Publisher  domain.Publisher
	Store      domain.Store
	SubFactory domain.SubscriptionFactory
}

// Wire constructs the Redis Cluster and PostgreSQL backends from cfg and
// returns the Dependencies they support together with a cleanup function
// that releases both connections. On error, everything already opened is
// closed before Wire returns.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Nodes:      cfg.Redis.Nodes,
		Password:   cfg.Redis.Password,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, func() { _ = pgClient.Close(context.Background()) })

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	deps := &Dependencies{
		Publisher:  redis.NewPublisher(redisClient),
		Store:      postgres.NewStore(pgClient),
		SubFactory: redis.NewSubscriptionFactory(redisClient),
	}

	return deps, cleanup, nil
}
