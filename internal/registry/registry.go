package registry

import (
	"context"

	"github.com/auto-dns/sysav-sync/internal/domain"
)

// Registry is where derived sensor states are published for the host platform.
type Registry interface {
	LockTransaction(ctx context.Context, keys []string, fn func() error) error
	List(ctx context.Context, addressID string) ([]*domain.SensorState, error)
	Publish(ctx context.Context, state *domain.SensorState) error
	Remove(ctx context.Context, state *domain.SensorState) error
	Close() error
}
