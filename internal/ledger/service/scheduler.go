package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	staff "github.com/workledger/workledger-backend/internal/staff/domain"
	"github.com/workledger/workledger-backend/pkg/actor"
	"github.com/workledger/workledger-backend/pkg/config"
	"github.com/workledger/workledger-backend/pkg/logger"
	"github.com/workledger/workledger-backend/pkg/period"
	"github.com/workledger/workledger-backend/pkg/tenant"
)

// Generator creates the entries of a period for the tenant carried by ctx
type Generator interface {
	GeneratePeriod(ctx context.Context, p period.Period, trigger string) (GenerationResult, error)
}

// TenantLister lists the tenants the scheduler sweeps
type TenantLister interface {
	ListActive(ctx context.Context) ([]*staff.Tenant, error)
}

// MonthlyScheduler keeps every tenant's current local period generated. Each tick
// sweeps the period the tenant is in, so a month start missed by a failed tick and
// employees that failed earlier are picked up by the next one. It keeps no state
// between ticks; re-running a sweep relies on GeneratePeriod being idempotent.
type MonthlyScheduler struct {
	generator Generator
	tenants   TenantLister
	interval  time.Duration
	fallback  *time.Location
	catchUp   bool
	logger    *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonthlyScheduler creates a scheduler from its configuration
func NewMonthlyScheduler(generator Generator, tenants TenantLister, cfg *config.SchedulerConfig, log *logger.Logger) (*MonthlyScheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fallback, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("load default timezone: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &MonthlyScheduler{
		generator: generator,
		tenants:   tenants,
		interval:  cfg.Interval,
		fallback:  fallback,
		catchUp:   cfg.CatchUpOnStart,
		logger:    log.WithComponent("scheduler"),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// PeriodStarted reports the period whose local start, midnight of the first day in loc,
// falls in (now-window, now].
func PeriodStarted(now time.Time, window time.Duration, loc *time.Location) (period.Period, bool) {
	p := period.Of(now.In(loc))
	start := p.Start(loc)
	return p, now.Sub(start) < window
}

// Start sweeps immediately when catch-up is enabled, then on every tick until Stop
func (s *MonthlyScheduler) Start() {
	s.wg.Add(1)
	go s.run()

	s.logger.Info().
		Dur("interval", s.interval).
		Bool("catch_up", s.catchUp).
		Msg("ledger scheduler started")
}

// Stop stops the loop and waits for the sweep in progress. Employees already
// dispatched by that sweep finish; no new ones are started.
func (s *MonthlyScheduler) Stop() {
	s.logger.Info().Msg("stopping ledger scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info().Msg("ledger scheduler stopped")
}

func (s *MonthlyScheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if s.catchUp {
		s.RunOnce(s.ctx, time.Now())
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.RunOnce(s.ctx, now)
		}
	}
}

// RunOnce sweeps the current local period of every active tenant at now and returns
// the number of tenants swept. A failed tenant listing sweeps nobody; the next tick
// covers the same periods again.
func (s *MonthlyScheduler) RunOnce(ctx context.Context, now time.Time) int {
	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list tenants")
		return 0
	}

	swept := 0
	for _, t := range tenants {
		if ctx.Err() != nil {
			break
		}

		p, started := PeriodStarted(now, s.interval, t.Location(s.fallback))
		if started {
			s.logger.Info().
				Str("tenant_id", t.ID).
				Str("period", p.String()).
				Msg("ledger period started")
		}

		tenantCtx := tenant.WithTenantContext(ctx, t.ID, t.Slug)
		tenantCtx = actor.WithActor(tenantCtx, actor.SystemActor(t.ID))

		if _, err := s.generator.GeneratePeriod(tenantCtx, p, TriggerScheduler); err != nil {
			s.logger.Error().Err(err).
				Str("tenant_id", t.ID).
				Str("period", p.String()).
				Msg("ledger generation interrupted")
		}
		swept++
	}
	return swept
}
