package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "parkingslots/internal/errors"
	"parkingslots/internal/logging"
	"parkingslots/internal/metrics"
)

// SlotLocks is an arena of per-slot mutexes. Writers on different slots never contend.
type SlotLocks struct {
	mu       sync.Mutex
	locks    map[int64]*sync.Mutex
	attempts int
	backoff  time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewSlotLocks(attempts int, backoff time.Duration, m *metrics.Metrics, logger *zap.Logger) *SlotLocks {
	if attempts < 1 {
		attempts = 1
	}
	return &SlotLocks{
		locks:    make(map[int64]*sync.Mutex),
		attempts: attempts,
		backoff:  backoff,
		metrics:  m,
		logger:   logger,
	}
}

func (l *SlotLocks) lockFor(slotID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[slotID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[slotID] = m
	}
	return m
}

// WithSlot runs fn while holding the slot's lock. Acquisition is attempted without blocking;
// after the configured number of attempts it gives up with a SlotConflict.
func (l *SlotLocks) WithSlot(ctx context.Context, slotID int64, fn func() error) error {
	m := l.lockFor(slotID)
	for attempt := 1; ; attempt++ {
		if m.TryLock() {
			break
		}
		l.metrics.LockContention.WithLabelValues("retry").Inc()
		if attempt >= l.attempts {
			l.metrics.LockContention.WithLabelValues("exhausted").Inc()
			l.logger.Warn("slot lock retries exhausted", logging.SlotID(slotID), logging.Attempt(attempt))
			return apperrors.ErrSlotConflict
		}
		// attempt n waits n*backoff
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * l.backoff):
		}
	}
	defer m.Unlock()
	return fn()
}
