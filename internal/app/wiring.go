package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/auto-dns/sysav-sync/internal/config"
	"github.com/auto-dns/sysav-sync/internal/registry"
	"github.com/auto-dns/sysav-sync/internal/sysav"
)

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// NewSysavClient builds the HTTP client for one address.
func NewSysavClient(app *config.AppConfig, a config.AddressConfig, logger zerolog.Logger) (*sysav.Client, error) {
	return sysav.NewClient(sysav.Options{
		APIBase:           a.APIBase,
		PageURLTemplate:   app.PageURLTemplate,
		UserAgent:         app.UserAgent,
		DiscoveryTimeout:  seconds(app.DiscoveryTimeout),
		QueryTimeout:      seconds(app.QueryTimeout),
		RequestsPerSecond: app.RequestsPerSecond,
	}, logger)
}

// lockOwner identifies this process as lock holder, unique across restarts.
func lockOwner(hostname string) string {
	return fmt.Sprintf("%s/%s", hostname, uuid.NewString())
}

func newRegistry(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (registry.Registry, error) {
	owner := lockOwner(cfg.App.Hostname)
	switch cfg.Registry.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return registry.NewRedisRegistry(redisClient, &cfg.Redis, owner, logger), nil
	case "etcd":
		etcdClient, err := clientv3.New(clientv3.Config{
			Endpoints:   cfg.Etcd.Endpoints,
			DialTimeout: seconds(cfg.Etcd.DialTimeout),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to etcd: %w", err)
		}
		return registry.NewEtcdRegistry(etcdClient, &cfg.Etcd, owner, logger), nil
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.Registry.Backend)
	}
}
