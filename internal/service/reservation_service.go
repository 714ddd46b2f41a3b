package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"parkingslots/internal/db"
	"parkingslots/internal/entities"
	apperrors "parkingslots/internal/errors"
	"parkingslots/internal/logging"
	"parkingslots/internal/metrics"
	"parkingslots/internal/repository"
)

const (
	DayToday    = "today"
	DayTomorrow = "tomorrow"
)

// EngineConfig carries the booking rules.
type EngineConfig struct {
	Window       OperatingWindow
	Horizon      time.Duration
	LockAttempts int
	LockBackoff  time.Duration
}

// Dependencies are the optional collaborators of ReservationService. Nil fields fall back to
// no-op implementations, the real clock and a no-op logger.
type Dependencies struct {
	Cache    AvailabilityCache
	Events   EventPublisher
	Notifier Notifier
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Clock    func() time.Time
}

// ReservationService is the entry point the HTTP layer talks to.
type ReservationService struct {
	store     repository.Store
	registry  *SlotRegistry
	calc      *AvailabilityCalculator
	scheduler *BookingScheduler
	canceller *CancellationHandler

	cache    AvailabilityCache
	events   EventPublisher
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewReservationService(store repository.Store, registry *SlotRegistry, cfg EngineConfig, deps Dependencies) *ReservationService {
	if deps.Cache == nil {
		deps.Cache = NoopCache{}
	}
	if deps.Events == nil {
		deps.Events = NoopPublisher{}
	}
	if deps.Notifier == nil {
		deps.Notifier = noopNotifier{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewUnregistered()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	calc := NewAvailabilityCalculator(store, cfg.Window, cfg.Horizon)
	locks := NewSlotLocks(cfg.LockAttempts, cfg.LockBackoff, deps.Metrics, deps.Logger)
	return &ReservationService{
		store:     store,
		registry:  registry,
		calc:      calc,
		scheduler: NewBookingScheduler(store, registry, calc, locks, cfg.Horizon, deps.Clock),
		canceller: NewCancellationHandler(store, locks, deps.Clock),
		cache:     deps.Cache,
		events:    deps.Events,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       deps.Clock,
	}
}

func (s *ReservationService) Registry() *SlotRegistry {
	return s.registry
}

// ListSlotsWithAvailability returns every slot with its free intervals for the rest of today
// and for tomorrow, plus its next opening.
func (s *ReservationService) ListSlotsWithAvailability(ctx context.Context) ([]entities.SlotAvailability, error) {
	now := s.now()
	window := s.calc.Window()
	today := window.Day(now)
	tomorrow := window.Day(today.AddDate(0, 0, 1))

	slots := s.registry.ListSlots()
	out := make([]entities.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		todayFree, err := s.dayIntervals(ctx, slot, today)
		if err != nil {
			return nil, s.serviceError(err, "error computing availability", logging.SlotID(slot.ID))
		}
		tomorrowFree, err := s.dayIntervals(ctx, slot, tomorrow)
		if err != nil {
			return nil, s.serviceError(err, "error computing availability", logging.SlotID(slot.ID))
		}
		next, err := s.calc.NextAvailable(ctx, slot, now)
		if err != nil {
			return nil, s.serviceError(err, "error computing next availability", logging.SlotID(slot.ID))
		}

		out = append(out, entities.SlotAvailability{
			ID:          slot.ID,
			Name:        slot.Name,
			VehicleType: string(slot.VehicleAffinity),
			Capacity:    slot.Capacity,
			Availability: entities.DayAvailability{
				Today:    trimBefore(todayFree, now),
				Tomorrow: trimBefore(tomorrowFree, now),
			},
			NextAvailable: next,
		})
	}
	return out, nil
}

// GetSlotAvailability returns the free intervals of one slot for "today" (from now on) or
// "tomorrow".
func (s *ReservationService) GetSlotAvailability(ctx context.Context, slotID int64, day string) (*entities.SlotDayAvailability, error) {
	slot, err := s.registry.GetSlot(slotID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	window := s.calc.Window()
	var intervals []entities.FreeInterval
	switch day {
	case DayToday, "":
		day = DayToday
		intervals, err = s.dayIntervals(ctx, slot, window.Day(now))
		intervals = trimBefore(intervals, now)
	case DayTomorrow:
		intervals, err = s.dayIntervals(ctx, slot, window.Day(window.Day(now).AddDate(0, 0, 1)))
	default:
		return nil, apperrors.ErrInvalidRequest("day must be today or tomorrow")
	}
	if err != nil {
		return nil, s.serviceError(err, "error computing availability", logging.SlotID(slot.ID))
	}
	if intervals == nil {
		intervals = []entities.FreeInterval{}
	}
	return &entities.SlotDayAvailability{SlotID: slot.ID, Day: day, Intervals: intervals}, nil
}

func (s *ReservationService) CreateBooking(ctx context.Context, req BookingRequest) (*db.Booking, error) {
	booking, err := s.scheduler.CreateBooking(ctx, req)
	if err != nil {
		kind := apperrors.KindOf(err)
		s.metrics.BookingsRejected.WithLabelValues(string(kind)).Inc()
		if kind == apperrors.KindServiceError {
			return nil, s.serviceError(err, "error creating booking", logging.SlotID(req.SlotID), logging.UserID(req.UserID))
		}
		s.logger.Info("booking rejected", logging.SlotID(req.SlotID), logging.UserID(req.UserID), logging.Kind(string(kind)))
		return nil, err
	}

	s.metrics.BookingsCreated.WithLabelValues(string(booking.VehicleType)).Inc()
	s.logger.Info("booking created", logging.BookingID(booking.ID), logging.SlotID(booking.SlotID),
		logging.UserID(booking.UserID), logging.Vehicle(string(booking.VehicleType)))
	s.afterCommit(ctx, EventBookingCreated, booking)
	return booking, nil
}

func (s *ReservationService) CancelBooking(ctx context.Context, bookingID int64, userID string) error {
	booking, changed, err := s.canceller.CancelBooking(ctx, bookingID, userID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindServiceError {
			return s.serviceError(err, "error cancelling booking", logging.BookingID(bookingID))
		}
		return err
	}
	if !changed {
		return nil
	}

	s.metrics.BookingsCancelled.Inc()
	s.logger.Info("booking cancelled", logging.BookingID(booking.ID), logging.SlotID(booking.SlotID), logging.UserID(userID))
	s.afterCommit(ctx, EventBookingCancelled, booking)
	return nil
}

// ListUserBookings returns the user's bookings, newest start first.
func (s *ReservationService) ListUserBookings(ctx context.Context, userID string) ([]db.Booking, error) {
	if userID == "" {
		return nil, apperrors.ErrInvalidRequest("user_id is required")
	}
	bookings, err := s.store.ListBookingsByUser(ctx, userID)
	if err != nil {
		return nil, s.serviceError(err, "error listing bookings", logging.UserID(userID))
	}
	return bookings, nil
}

// afterCommit runs the side effects of a committed change. None of them can fail the request.
func (s *ReservationService) afterCommit(ctx context.Context, eventType string, booking *db.Booking) {
	if err := s.cache.Invalidate(ctx, booking.SlotID, s.cachedDays(booking)...); err != nil {
		s.logger.Warn("failed to invalidate availability cache", logging.SlotID(booking.SlotID), zap.Error(err))
	}
	if err := s.events.Publish(ctx, NewBookingEvent(eventType, booking, s.now())); err != nil {
		s.logger.Warn("failed to publish booking event", logging.BookingID(booking.ID), zap.String("event", eventType), zap.Error(err))
	}

	slot, err := s.registry.GetSlot(booking.SlotID)
	if err != nil {
		return
	}
	switch eventType {
	case EventBookingCreated:
		s.notifier.BookingConfirmed(booking, slot)
	case EventBookingCancelled:
		s.notifier.BookingCancelled(booking, slot)
	}
}

// cachedDays lists the cache keys a change to booking can affect: the days currently served
// as today and tomorrow, and the booking's own day.
func (s *ReservationService) cachedDays(booking *db.Booking) []string {
	window := s.calc.Window()
	today := window.Day(s.now())
	days := []string{dayKey(today), dayKey(window.Day(today.AddDate(0, 0, 1)))}
	if own := dayKey(window.Day(booking.StartTime)); own != days[0] && own != days[1] {
		days = append(days, own)
	}
	return days
}

func dayKey(day time.Time) string {
	return day.Format("2006-01-02")
}

// dayIntervals returns the free intervals of the whole operating window of day, through
// the cache.
func (s *ReservationService) dayIntervals(ctx context.Context, slot db.Slot, day time.Time) ([]entities.FreeInterval, error) {
	key := dayKey(day)
	cached, ok, err := s.cache.Get(ctx, slot.ID, key)
	switch {
	case err != nil:
		s.metrics.CacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("availability cache read failed", logging.SlotID(slot.ID), zap.Error(err))
	case ok:
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	default:
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	open, closing := s.calc.Window().Bounds(day)
	free, err := s.calc.Compute(ctx, slot, open, closing)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, slot.ID, key, free); err != nil {
		s.logger.Warn("availability cache write failed", logging.SlotID(slot.ID), zap.Error(err))
	}
	return free, nil
}

func (s *ReservationService) serviceError(err error, msg string, fields ...zap.Field) error {
	var ee *apperrors.EngineError
	if errors.As(err, &ee) && ee.Kind != apperrors.KindServiceError {
		return err
	}
	s.logger.Error(msg, append(fields, zap.Error(err))...)
	return apperrors.Wrap(apperrors.KindServiceError, "service unavailable, please retry later", err)
}

// trimBefore drops the parts of intervals that lie before now.
func trimBefore(intervals []entities.FreeInterval, now time.Time) []entities.FreeInterval {
	out := make([]entities.FreeInterval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.End.After(now) {
			continue
		}
		if iv.Start.Before(now) {
			iv.Start = now
		}
		out = append(out, iv)
	}
	return out
}

type noopNotifier struct{}

func (noopNotifier) BookingConfirmed(*db.Booking, db.Slot) {}

func (noopNotifier) BookingCancelled(*db.Booking, db.Slot) {}

func (noopNotifier) BookingReminder(context.Context, *db.Booking, db.Slot) error { return nil }
