package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"parkingslots/internal/db"
)

// MemoryBookingRepository keeps everything in process. Each call holds the store mutex, so
// readers always see whole bookings; InSlotTx does not serialize on its own and relies on
// the caller's slot lock.
type MemoryBookingRepository struct {
	mu         sync.RWMutex
	slots      []db.Slot
	bookings   map[int64]*db.Booking
	remindedAt map[int64]time.Time
	nextSlotID int64
	nextID     int64
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings:   make(map[int64]*db.Booking),
		remindedAt: make(map[int64]time.Time),
	}
}

func (m *MemoryBookingRepository) Close() error {
	return nil
}

func (m *MemoryBookingRepository) SeedSlots(_ context.Context, slots []db.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range slots {
		exists := false
		for _, existing := range m.slots {
			if existing.Name == s.Name {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		m.nextSlotID++
		s.ID = m.nextSlotID
		m.slots = append(m.slots, s)
	}
	return nil
}

func (m *MemoryBookingRepository) ListSlots(_ context.Context) ([]db.Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slots := append([]db.Slot(nil), m.slots...)
	sort.Slice(slots, func(i, j int) bool { return slots[i].Name < slots[j].Name })
	return slots, nil
}

func (m *MemoryBookingRepository) ActiveBookingsForSlot(_ context.Context, slotID int64, from, to time.Time) ([]db.Booking, error) {
	return m.filter(func(b *db.Booking) bool {
		return b.SlotID == slotID && b.Status == db.StatusActive && b.Overlaps(from, to)
	}, byStart), nil
}

func (m *MemoryBookingRepository) CreateBooking(_ context.Context, b *db.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	b.ID = m.nextID
	stored := cloneBooking(*b)
	m.bookings[b.ID] = &stored
	return nil
}

func (m *MemoryBookingRepository) GetBooking(_ context.Context, id int64) (*db.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %d: %w", id, ErrBookingNotFound)
	}
	out := cloneBooking(*b)
	return &out, nil
}

func (m *MemoryBookingRepository) CancelBooking(_ context.Context, id int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return false, fmt.Errorf("booking %d: %w", id, ErrBookingNotFound)
	}
	if b.Status != db.StatusActive {
		return false, nil
	}
	b.Status = db.StatusCancelled
	b.CancelledAt = &at
	return true, nil
}

func (m *MemoryBookingRepository) ListBookingsByUser(_ context.Context, userID string) ([]db.Booking, error) {
	return m.filter(func(b *db.Booking) bool { return b.UserID == userID }, byStartDesc), nil
}

func (m *MemoryBookingRepository) UnremindedBookingsStartingBetween(_ context.Context, from, to time.Time) ([]db.Booking, error) {
	m.mu.RLock()
	reminded := make(map[int64]bool, len(m.remindedAt))
	for id := range m.remindedAt {
		reminded[id] = true
	}
	m.mu.RUnlock()

	return m.filter(func(b *db.Booking) bool {
		return b.Status == db.StatusActive && !reminded[b.ID] &&
			!b.StartTime.Before(from) && b.StartTime.Before(to)
	}, byStart), nil
}

func (m *MemoryBookingRepository) MarkReminded(_ context.Context, ids []int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		m.remindedAt[id] = at
	}
	return nil
}

func (m *MemoryBookingRepository) InSlotTx(_ context.Context, _ int64, fn func(tx BookingTx) error) error {
	return fn(m)
}

func (m *MemoryBookingRepository) filter(keep func(*db.Booking) bool, less func(a, b db.Booking) bool) []db.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []db.Booking
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, cloneBooking(*b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byStart(a, b db.Booking) bool {
	if a.StartTime.Equal(b.StartTime) {
		return a.ID < b.ID
	}
	return a.StartTime.Before(b.StartTime)
}

func byStartDesc(a, b db.Booking) bool {
	if a.StartTime.Equal(b.StartTime) {
		return a.ID > b.ID
	}
	return a.StartTime.After(b.StartTime)
}

func cloneBooking(b db.Booking) db.Booking {
	if b.CancelledAt != nil {
		t := *b.CancelledAt
		b.CancelledAt = &t
	}
	return b
}
