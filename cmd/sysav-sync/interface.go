package main

import (
	"context"

	"github.com/auto-dns/sysav-sync/internal/app"
)

type application interface {
	Run(ctx context.Context) error
	Close() error
}

var _ application = (*app.App)(nil)
