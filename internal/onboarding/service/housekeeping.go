package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/harborfund/portal/internal/onboarding/store"
)

// VerifiedCodeRetention is how long verified codes are kept for the
// recent-verification check and audit before housekeeping drops them.
const VerifiedCodeRetention = 24 * time.Hour

// HousekeepingService periodically purges stale verification codes and
// refresh tokens. Account creation tokens are kept as an audit trail.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to one hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs cleanup now and then on every tick until Stop.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs every purge once. Each purge is independent; one failing
// does not stop the others.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := s.Now().UTC()
	s.Logger.Debug("starting housekeeping cleanup")

	purges := []struct {
		name string
		fn   func() (int64, error)
	}{
		{"expired verification codes", func() (int64, error) {
			return s.Store.VerificationCodes().DeleteExpiredCodes(ctx, now)
		}},
		{"verified verification codes", func() (int64, error) {
			return s.Store.VerificationCodes().DeleteVerifiedCodesBefore(ctx, now.Add(-VerifiedCodeRetention))
		}},
		{"expired refresh tokens", func() (int64, error) {
			return s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now)
		}},
	}

	var total int64
	for _, p := range purges {
		n, err := p.fn()
		if err != nil {
			s.Logger.Error("housekeeping purge failed", "purge", p.name, "error", err)
			continue
		}
		s.Logger.Debug("housekeeping purge done", "purge", p.name, "deleted", n)
		total += n
	}

	s.Logger.Info("housekeeping cleanup completed", "deleted", total)
}
