package core

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/auto-dns/sysav-sync/internal/config"
	"github.com/auto-dns/sysav-sync/internal/domain"
	"github.com/auto-dns/sysav-sync/internal/sensor"
	"github.com/auto-dns/sysav-sync/internal/state"
)

// RefreshEngine keeps the published bin states of one address up to date.
type RefreshEngine struct {
	logger     zerolog.Logger
	address    domain.Address
	categories []sensor.Category
	fetcher    fetcher
	registry   upstreamRegistry
	state      *state.MemoryState
	schedule   cron.Schedule
	now        func() time.Time
}

func NewRefreshEngine(logger zerolog.Logger, cfg *config.AppConfig, address domain.Address, categories []sensor.Category, f fetcher, reg upstreamRegistry, st *state.MemoryState) (*RefreshEngine, error) {
	schedule, err := cron.ParseStandard(cfg.RefreshSchedule)
	if err != nil {
		return nil, NewScheduleError(cfg.RefreshSchedule, err)
	}
	return &RefreshEngine{
		logger:     logger.With().Str("address", address.ID()).Logger(),
		address:    address,
		categories: categories,
		fetcher:    f,
		registry:   reg,
		state:      st,
		schedule:   schedule,
		now:        time.Now,
	}, nil
}

// Refresh fetches the schedule once and publishes the derived states. A failed
// fetch still publishes, marked unavailable and based on the last good schedule.
func (re *RefreshEngine) Refresh(ctx context.Context) error {
	id := re.address.ID()

	schedule, fetchErr := re.fetcher.FetchNext(ctx, re.address)
	var snap state.Snapshot
	if fetchErr != nil {
		snap = re.state.RecordFailure(id, fetchErr)
		evt := re.logger.Warn().Err(fetchErr)
		if !snap.LastSuccess.IsZero() {
			evt = evt.Time("last_success", snap.LastSuccess)
		}
		evt.Msgf("Refresh of %s failed", re.address.Render())
	} else {
		re.logger.Info().Msgf("Fetched %d container(s) for %s", schedule.Len(), re.address.Render())
		snap = re.state.RecordSuccess(id, schedule)
	}

	desired := sensor.Derive(id, re.categories, snap.Schedule, snap.Available, re.now())

	err := re.registry.LockTransaction(ctx, []string{id}, func() error {
		actual, err := re.registry.List(ctx, id)
		if err != nil {
			return fmt.Errorf("list registry states: %w", err)
		}
		plan := Reconcile(desired, actual, re.logger)
		for _, s := range plan.Stale {
			if err := re.registry.Remove(ctx, s); err != nil {
				re.logger.Error().Err(err).Msg("Error removing state")
			}
		}
		for _, s := range plan.Changed {
			if err := re.registry.Publish(ctx, s); err != nil {
				return err
			}
			re.logger.Info().Msgf("Published %s", s.Render())
		}
		for _, s := range plan.Unchanged {
			if err := re.registry.Publish(ctx, s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return NewRefreshError(id, "publish", err)
	}
	if fetchErr != nil {
		return NewRefreshError(id, "fetch", fetchErr)
	}
	return nil
}

// Run refreshes immediately, then on every schedule tick until ctx is done.
func (re *RefreshEngine) Run(ctx context.Context) error {
	re.logger.Info().Msgf("Starting refresh engine for %s", re.address.Render())

	if err := re.Refresh(ctx); err != nil {
		re.logger.Error().Err(err).Msg("Initial refresh error")
	}

	logger := cronLogger{logger: re.logger}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))
	c.Schedule(re.schedule, cron.FuncJob(func() {
		re.logger.Debug().Msg("Refresh tick")
		if err := re.Refresh(ctx); err != nil {
			re.logger.Error().Err(err).Msg("Refresh error")
		}
	}))
	c.Start()

	<-ctx.Done()
	evt := re.logger.Info()
	if snap, ok := re.state.Get(re.address.ID()); ok {
		evt = evt.Bool("available", snap.Available).AnErr("last_error", snap.LastError)
	}
	evt.Msg("Refresh engine shutting down")
	<-c.Stop().Done()
	return ctx.Err()
}
