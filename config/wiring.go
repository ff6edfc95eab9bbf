package config

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vnykmshr/circuitscope/internal/store"
	"github.com/vnykmshr/circuitscope/internal/store/cache"
	"github.com/vnykmshr/circuitscope/internal/store/durable"
	"github.com/vnykmshr/circuitscope/internal/store/memory"
	"github.com/vnykmshr/circuitscope/manager"
)

// BuildManager wires the surface's store definitions, primary-key kind,
// table name overrides, and morph-key maps into a ready *manager.Manager.
// The three drivers named in spec.md §6 ("memory", "cache", "durable") are
// registered unconditionally; a store entry naming any other driver
// produces manager.UnsupportedDriverError the first time Make resolves it.
func (s *Surface) BuildManager(logger *zap.Logger) (*manager.Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []manager.Option{
		manager.WithDriver("memory", memoryDriverFactory),
		manager.WithDriver("cache", cacheDriverFactory),
		manager.WithDriver("durable", s.durableDriverFactory),
		manager.WithLogger(logger),
	}
	if s.MorphKeyMap != nil || s.EnforceMorphKeyMap {
		opts = append(opts, manager.WithContextMorphKeyMap(s.MorphKeyMap, s.EnforceMorphKeyMap))
	}
	if s.BoundaryMorphKeyMap != nil || s.EnforceBoundaryMorphKeyMap {
		opts = append(opts, manager.WithBoundaryMorphKeyMap(s.BoundaryMorphKeyMap, s.EnforceBoundaryMorphKeyMap))
	}

	for name, storeCfg := range s.Stores {
		opts = append(opts, manager.WithStoreConfig(name, manager.StoreConfig{
			Driver: storeCfg.Driver,
			Options: map[string]interface{}{
				"connection": storeCfg.Connection,
				"prefix":     storeCfg.Prefix,
			},
		}))
	}

	return manager.New(s.Default, opts...), nil
}

func memoryDriverFactory(map[string]interface{}) (store.Store, error) {
	return memory.New(), nil
}

func cacheDriverFactory(options map[string]interface{}) (store.Store, error) {
	conn, _ := options["connection"].(string)
	if conn == "" {
		return nil, fmt.Errorf("config: cache store requires a \"connection\" (redis URL)")
	}
	prefix, _ := options["prefix"].(string)

	redisOpts, err := redis.ParseURL(conn)
	if err != nil {
		return nil, fmt.Errorf("config: parse redis connection: %w", err)
	}
	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("config: connect to redis: %w", err)
	}

	return cache.New(client, prefix), nil
}

func (s *Surface) durableDriverFactory(options map[string]interface{}) (store.Store, error) {
	conn, _ := options["connection"].(string)
	if conn == "" {
		return nil, fmt.Errorf("config: durable store requires a \"connection\" (DSN)")
	}

	db, err := sqlx.Connect("postgres", conn)
	if err != nil {
		return nil, fmt.Errorf("config: connect to postgres: %w", err)
	}

	storeOpts := []durable.Option{
		durable.WithTableNames(durable.TableNames{
			Breakers: s.TableNames.CircuitBreakers,
			Events:   s.TableNames.CircuitBreakerEvents,
		}),
	}
	if pk := durable.PrimaryKeyType(s.PrimaryKeyType); pk != "" {
		storeOpts = append(storeOpts, durable.WithPrimaryKeyType(pk))
	}

	return durable.New(db, zap.NewNop(), storeOpts...), nil
}
