package sweeper

import (
	"context"
	"time"

	"github.com/phantom-chat/phantom/internal/domain"
	"github.com/phantom-chat/phantom/internal/infrastructure/logging"
)

// Notifier receives eviction notifications. The ws core implements it by
// broadcasting room_expired and dissolving the transport group.
type Notifier interface {
	RoomExpired(token string)
}

// Sweeper periodically evicts expired rooms. Polling is deliberate: it
// bounds staleness to one interval and avoids a timer per room.
type Sweeper struct {
	registry domain.Registry
	notifier Notifier
	interval time.Duration
	logger   logging.Logger
}

func New(registry domain.Registry, notifier Notifier, interval time.Duration, logger logging.Logger) *Sweeper {
	return &Sweeper{
		registry: registry,
		notifier: notifier,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(logging.Registry, logging.Shutdown, "sweeper stopped", nil)
			return

		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *Sweeper) sweep(now time.Time) {
	evicted := s.registry.EvictExpired(now)
	if len(evicted) == 0 {
		return
	}

	for _, token := range evicted {
		s.notifier.RoomExpired(token)
	}

	s.logger.Info(logging.Registry, logging.Sweep, "evicted expired rooms", map[logging.ExtraKey]any{
		logging.EvictedCount: len(evicted),
	})
}
