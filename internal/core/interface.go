package core

import (
	"context"

	"github.com/auto-dns/sysav-sync/internal/domain"
)

type fetcher interface {
	FetchNext(ctx context.Context, addr domain.Address) (*domain.Schedule, error)
}

type upstreamRegistry interface {
	LockTransaction(ctx context.Context, key []string, fn func() error) error
	List(ctx context.Context, addressID string) ([]*domain.SensorState, error)
	Publish(ctx context.Context, state *domain.SensorState) error
	Remove(ctx context.Context, state *domain.SensorState) error
}
