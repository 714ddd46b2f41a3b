package repository

import (
	"context"
	"errors"
	"time"

	"parkingslots/internal/db"
)

var ErrBookingNotFound = errors.New("booking not found")

// BookingReader is the read side the availability calculator needs.
type BookingReader interface {
	// ActiveBookingsForSlot returns active bookings on the slot overlapping [from, to),
	// ordered by start time.
	ActiveBookingsForSlot(ctx context.Context, slotID int64, from, to time.Time) ([]db.Booking, error)
}

// BookingTx is the set of operations available inside a slot-scoped transaction.
type BookingTx interface {
	BookingReader
	CreateBooking(ctx context.Context, booking *db.Booking) error
	GetBooking(ctx context.Context, id int64) (*db.Booking, error)
	// CancelBooking marks an active booking cancelled. It reports false when the booking
	// was already cancelled.
	CancelBooking(ctx context.Context, id int64, at time.Time) (bool, error)
}

// Store defines the interface for database operations.
type Store interface {
	BookingTx

	// Slot catalog
	SeedSlots(ctx context.Context, slots []db.Slot) error
	ListSlots(ctx context.Context) ([]db.Slot, error)

	// Booking queries
	ListBookingsByUser(ctx context.Context, userID string) ([]db.Booking, error)
	UnremindedBookingsStartingBetween(ctx context.Context, from, to time.Time) ([]db.Booking, error)
	MarkReminded(ctx context.Context, ids []int64, at time.Time) error

	// InSlotTx runs fn in a transaction serialized with every other InSlotTx on the same slot.
	InSlotTx(ctx context.Context, slotID int64, fn func(tx BookingTx) error) error

	Close() error
}
