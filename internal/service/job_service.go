package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"parkingslots/internal/logging"
	"parkingslots/internal/repository"
)

// JobService runs the periodic booking reminders.
type JobService struct {
	store    repository.Store
	registry *SlotRegistry
	notifier Notifier
	lead     time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewJobService(store repository.Store, registry *SlotRegistry, notifier Notifier, lead time.Duration,
	now func() time.Time, logger *zap.Logger) *JobService {
	return &JobService{
		store:    store,
		registry: registry,
		notifier: notifier,
		lead:     lead,
		now:      now,
		logger:   logger,
	}
}

// SendUpcomingReminders notifies owners of active bookings starting within the lead time that
// have not been reminded yet, and returns how many were marked. Bookings whose reminder
// fails stay unmarked and are retried on the next run.
func (s *JobService) SendUpcomingReminders(ctx context.Context) (int, error) {
	now := s.now()
	bookings, err := s.store.UnremindedBookingsStartingBetween(ctx, now, now.Add(s.lead))
	if err != nil {
		return 0, fmt.Errorf("cron job: failed to get upcoming bookings: %w", err)
	}
	if len(bookings) == 0 {
		s.logger.Debug("cron job: no bookings to remind")
		return 0, nil
	}

	var reminded []int64
	for i := range bookings {
		b := &bookings[i]
		if b.ContactEmail == "" && b.ContactPhone == "" {
			reminded = append(reminded, b.ID)
			continue
		}
		slot, err := s.registry.GetSlot(b.SlotID)
		if err != nil {
			s.logger.Warn("cron job: booking references unknown slot", logging.BookingID(b.ID), logging.SlotID(b.SlotID))
			continue
		}
		if err := s.notifier.BookingReminder(ctx, b, slot); err != nil {
			s.logger.Warn("cron job: reminder failed", logging.BookingID(b.ID), zap.Error(err))
			continue
		}
		reminded = append(reminded, b.ID)
	}

	if err := s.store.MarkReminded(ctx, reminded, now); err != nil {
		return 0, fmt.Errorf("cron job: failed to mark bookings reminded: %w", err)
	}
	s.logger.Info("cron job: reminders processed", zap.Int("due", len(bookings)), zap.Int("reminded", len(reminded)))
	return len(reminded), nil
}

// Start schedules the reminder job and starts the cron runner. Stop the returned runner on
// shutdown.
func (s *JobService) Start(schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.SendUpcomingReminders(ctx); err != nil {
			s.logger.Error("cron job failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
