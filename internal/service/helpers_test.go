package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"parkingslots/internal/db"
	"parkingslots/internal/metrics"
	"parkingslots/internal/repository"
)

// Monday 19 October 2026, 09:00 UTC.
var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

var testWindow = OperatingWindow{Location: time.UTC, Open: 8 * time.Hour, Close: 22 * time.Hour}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func today(hour, minute int) time.Time {
	return time.Date(2026, 10, 19, hour, minute, 0, 0, time.UTC)
}

func tomorrow(hour, minute int) time.Time {
	return today(hour, minute).AddDate(0, 0, 1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []int64
	cancelled []int64
	reminded  []int64
	failFor   map[int64]error
}

func (n *recordingNotifier) BookingConfirmed(b *db.Booking, _ db.Slot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, b.ID)
}

func (n *recordingNotifier) BookingCancelled(b *db.Booking, _ db.Slot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, b.ID)
}

func (n *recordingNotifier) BookingReminder(_ context.Context, b *db.Booking, _ db.Slot) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.failFor[b.ID]; err != nil {
		return err
	}
	n.reminded = append(n.reminded, b.ID)
	return nil
}

type fixture struct {
	svc      *ReservationService
	store    *repository.MemoryBookingRepository
	registry *SlotRegistry
	events   *recordingPublisher
	notifier *recordingNotifier
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T, now time.Time) *fixture {
	return newFixtureWithCache(t, now, nil)
}

func newFixtureWithCache(t *testing.T, now time.Time, cache AvailabilityCache) *fixture {
	t.Helper()
	ctx := context.Background()

	store := repository.NewMemoryBookingRepository()
	registry, err := LoadSlotRegistry(ctx, store, SlotsFromNames([]string{"A1", "A2"}, []string{"B1"}))
	require.NoError(t, err)

	f := &fixture{
		store:    store,
		registry: registry,
		events:   &recordingPublisher{},
		notifier: &recordingNotifier{},
		metrics:  metrics.NewUnregistered(),
	}
	f.svc = NewReservationService(store, registry, EngineConfig{
		Window:       testWindow,
		Horizon:      48 * time.Hour,
		LockAttempts: 5,
		LockBackoff:  time.Millisecond,
	}, Dependencies{
		Cache:    cache,
		Events:   f.events,
		Notifier: f.notifier,
		Metrics:  f.metrics,
		Logger:   zap.NewNop(),
		Clock:    fixedClock(now),
	})
	return f
}

func (f *fixture) slot(t *testing.T, name string) db.Slot {
	t.Helper()
	for _, s := range f.registry.ListSlots() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("slot %s not seeded", name)
	return db.Slot{}
}

func (f *fixture) book(t *testing.T, name, user string, start, end time.Time) *db.Booking {
	t.Helper()
	s := f.slot(t, name)
	b, err := f.svc.CreateBooking(context.Background(), BookingRequest{
		SlotID:      s.ID,
		UserID:      user,
		VehicleType: s.VehicleAffinity,
		StartTime:   start,
		EndTime:     end,
	})
	require.NoError(t, err)
	return b
}

// insert writes a booking straight into the store, bypassing validation.
func (f *fixture) insert(t *testing.T, name, user string, start, end time.Time, opts ...func(*db.Booking)) *db.Booking {
	t.Helper()
	s := f.slot(t, name)
	b := &db.Booking{
		SlotID:      s.ID,
		UserID:      user,
		VehicleType: s.VehicleAffinity,
		StartTime:   start,
		EndTime:     end,
		Status:      db.StatusActive,
		CreatedAt:   testNow,
	}
	for _, opt := range opts {
		opt(b)
	}
	require.NoError(t, f.store.CreateBooking(context.Background(), b))
	return b
}

func withEmail(email string) func(*db.Booking) {
	return func(b *db.Booking) { b.ContactEmail = email }
}

func withPhone(phone string) func(*db.Booking) {
	return func(b *db.Booking) { b.ContactPhone = phone }
}
