// Package ticker runs the periodic background work: reaping expired holds
// and reconciling the external calendar mirror.
package ticker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/openslot/openslot/api/pkg/booking"
	"github.com/openslot/openslot/api/pkg/calendar"
	"github.com/openslot/openslot/api/pkg/config"
)

type Ticker struct {
	cfg        *config.ServerConfig
	engine     *booking.Engine
	reconciler *calendar.Adapter
	cron       gocron.Scheduler
}

func New(cfg *config.ServerConfig, engine *booking.Engine, reconciler *calendar.Adapter) (*Ticker, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Ticker{
		cfg:        cfg,
		engine:     engine,
		reconciler: reconciler,
		cron:       cron,
	}, nil
}

// Run registers the jobs and blocks until the context is done.
func (t *Ticker) Run(ctx context.Context) error {
	interval := t.cfg.Waitlist.TickerInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	_, err := t.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(t.expiredHoldsTask(ctx)),
		gocron.WithName("expired-holds"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create expired holds job: %w", err)
	}

	if t.cfg.Calendar.Enabled && t.reconciler != nil {
		_, err = t.cron.NewJob(
			gocron.DurationJob(t.cfg.Calendar.ReconcileInterval),
			gocron.NewTask(t.reconcileTask(ctx)),
			gocron.WithName("calendar-reconcile"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to create calendar reconcile job: %w", err)
		}
	}

	t.cron.Start()

	log.Info().
		Dur("hold_reaper_interval", interval).
		Bool("calendar_reconcile", t.cfg.Calendar.Enabled).
		Msg("ticker started")

	<-ctx.Done()

	if err := t.cron.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}

func (t *Ticker) expiredHoldsTask(ctx context.Context) func() {
	return func() {
		result, err := t.engine.ProcessExpiredHolds(ctx)
		if err != nil {
			log.Error().Err(err).Msg("expired holds pass failed")
			return
		}
		if result.ReleasedCount > 0 {
			log.Info().
				Int("released", result.ReleasedCount).
				Int("cascaded", result.CascadeNotifications).
				Msg("expired holds released")
		}
	}
}

func (t *Ticker) reconcileTask(ctx context.Context) func() {
	return func() {
		if _, err := t.reconciler.Reconcile(ctx); err != nil {
			log.Error().Err(err).Msg("calendar reconcile pass failed")
		}
	}
}
