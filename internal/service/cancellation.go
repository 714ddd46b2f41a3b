package service

import (
	"context"
	"errors"
	"time"

	"parkingslots/internal/db"
	apperrors "parkingslots/internal/errors"
	"parkingslots/internal/repository"
)

// CancellationHandler moves bookings from active to cancelled.
type CancellationHandler struct {
	store repository.Store
	locks *SlotLocks
	now   func() time.Time
}

func NewCancellationHandler(store repository.Store, locks *SlotLocks, now func() time.Time) *CancellationHandler {
	return &CancellationHandler{store: store, locks: locks, now: now}
}

// CancelBooking cancels bookingID on behalf of requesterID. Cancelling an already cancelled
// booking succeeds without changes; changed reports whether this call did the transition.
func (h *CancellationHandler) CancelBooking(ctx context.Context, bookingID int64, requesterID string) (booking *db.Booking, changed bool, err error) {
	if requesterID == "" {
		return nil, false, apperrors.ErrInvalidRequest("user_id is required")
	}

	booking, err = h.store.GetBooking(ctx, bookingID)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return nil, false, apperrors.ErrNotFoundf("booking %d not found", bookingID)
	}
	if err != nil {
		return nil, false, err
	}
	if booking.UserID != requesterID {
		return nil, false, apperrors.ErrForbidden
	}
	if booking.Status == db.StatusCancelled {
		return booking, false, nil
	}

	at := h.now()
	err = h.locks.WithSlot(ctx, booking.SlotID, func() error {
		return h.store.InSlotTx(ctx, booking.SlotID, func(tx repository.BookingTx) error {
			var err error
			changed, err = tx.CancelBooking(ctx, bookingID, at)
			return err
		})
	})
	if err != nil {
		return nil, false, err
	}

	booking.Status = db.StatusCancelled
	if changed {
		booking.CancelledAt = &at
	}
	return booking, changed, nil
}
