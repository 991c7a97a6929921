package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/store"
)

const defaultHousekeepingInterval = time.Hour

// HousekeepingService purges refresh sessions past their expiry. Lookups
// already ignore expired rows, so the purge only bounds table growth.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Now is the clock used for the expiry cutoff. Nil means time.Now.
	Now func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval falls back to one hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = defaultHousekeepingInterval
	}
	return &HousekeepingService{Store: st, Logger: logger, Interval: interval}
}

// Start purges once straight away and then once per Interval until Stop.
func (s *HousekeepingService) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx)
	s.Logger.Info("housekeeping service started", slog.Duration("interval", s.Interval))
}

// Stop cancels any purge in flight and waits for the worker to exit.
func (s *HousekeepingService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.Logger.Info("housekeeping service stopped")
}

// PurgeExpired deletes expired refresh sessions and reports how many went.
func (s *HousekeepingService) PurgeExpired(ctx context.Context) (int64, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	n, err := s.Store.RefreshSessions().DeleteExpiredRefreshSessions(ctx, now())
	if err != nil {
		return 0, fmt.Errorf("purge refresh sessions: %w", err)
	}
	if n > 0 {
		s.Logger.Info("purged expired refresh sessions", slog.Int64("count", n))
	}
	return n, nil
}

func (s *HousekeepingService) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *HousekeepingService) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.Interval)
	defer cancel()

	if _, err := s.PurgeExpired(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.Logger.Error("housekeeping sweep failed", slog.Any("error", err))
	}
}
