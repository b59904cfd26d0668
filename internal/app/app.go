package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/auto-dns/sysav-sync/internal/config"
	"github.com/auto-dns/sysav-sync/internal/core"
	"github.com/auto-dns/sysav-sync/internal/registry"
	"github.com/auto-dns/sysav-sync/internal/sensor"
	"github.com/auto-dns/sysav-sync/internal/state"
	"github.com/auto-dns/sysav-sync/internal/sysav"
)

type App struct {
	registry registry.Registry
	clients  []*sysav.Client
	engines  []*core.RefreshEngine
	state    *state.MemoryState
	logger   zerolog.Logger
}

// New creates a new App by wiring up all dependencies.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	reg, err := newRegistry(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return newWithRegistry(cfg, reg, logger)
}

func newWithRegistry(cfg *config.Config, reg registry.Registry, logger zerolog.Logger) (*App, error) {
	a := &App{
		registry: reg,
		state:    state.NewMemoryState(),
		logger:   logger,
	}
	for _, ac := range cfg.Addresses {
		client, err := NewSysavClient(&cfg.App, ac, logger)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("address %s %s: %w", ac.Street, ac.Number, err)
		}
		a.clients = append(a.clients, client)

		engine, err := core.NewRefreshEngine(logger, &cfg.App, ac.Address(), sensor.CategoriesWithAliases(ac.Labels), client, reg, a.state)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.engines = append(a.engines, engine)
	}
	return a, nil
}

// Run starts one refresh engine per address and blocks until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info().Msgf("Application starting with %d address(es)", len(a.engines))
	g, gctx := errgroup.WithContext(ctx)
	for _, engine := range a.engines {
		g.Go(func() error {
			return engine.Run(gctx)
		})
	}
	err := g.Wait()
	a.logSummary()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) logSummary() {
	for _, snap := range a.state.All() {
		evt := a.logger.Info().
			Str("address", snap.AddressID).
			Bool("available", snap.Available).
			Int("containers", snap.Schedule.Len())
		if !snap.LastSuccess.IsZero() {
			evt = evt.Time("last_success", snap.LastSuccess)
		}
		if snap.LastError != nil {
			evt = evt.AnErr("last_error", snap.LastError)
		}
		evt.Msg("Final refresh state")
	}
}

func (a *App) Close() error {
	var firstErr error
	for _, c := range a.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close sysav client: %w", err)
		}
	}
	if a.registry != nil {
		if err := a.registry.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close registry: %w", err)
		}
	}
	return firstErr
}
