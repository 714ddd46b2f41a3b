package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkingslots/internal/db"
	apperrors "parkingslots/internal/errors"
)

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		f := newFixture(t, testNow)
		b := f.book(t, "A1", "u1", today(10, 0), today(11, 0))

		require.NoError(t, f.svc.CancelBooking(ctx, b.ID, "u1"))
		first, err := f.svc.GetSlotAvailability(ctx, b.SlotID, DayToday)
		require.NoError(t, err)

		require.NoError(t, f.svc.CancelBooking(ctx, b.ID, "u1"))
		second, err := f.svc.GetSlotAvailability(ctx, b.SlotID, DayToday)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		stored, err := f.store.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, db.StatusCancelled, stored.Status)
		require.NotNil(t, stored.CancelledAt)

		assert.Equal(t, []string{EventBookingCreated, EventBookingCancelled}, f.events.types())
		assert.Equal(t, []int64{b.ID}, f.notifier.cancelled)
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.BookingsCancelled))
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t, testNow)
		err := f.svc.CancelBooking(ctx, 42, "u1")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("forbidden for other users", func(t *testing.T) {
		f := newFixture(t, testNow)
		b := f.book(t, "A1", "u1", today(10, 0), today(11, 0))

		err := f.svc.CancelBooking(ctx, b.ID, "intruder")
		assert.ErrorIs(t, err, apperrors.ErrForbidden)

		stored, err := f.store.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, db.StatusActive, stored.Status)
	})

	t.Run("missing requester", func(t *testing.T) {
		f := newFixture(t, testNow)
		err := f.svc.CancelBooking(ctx, 1, "")
		assert.Equal(t, apperrors.KindInvalidRequest, apperrors.KindOf(err))
	})
}

func TestBookCancelRestoresAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, today(8, 0))
	a1 := f.slot(t, "A1")

	before, err := f.svc.GetSlotAvailability(ctx, a1.ID, DayToday)
	require.NoError(t, err)
	require.Len(t, before.Intervals, 1)

	b := f.book(t, "A1", "u1", today(9, 0), today(10, 0))

	during, err := f.svc.GetSlotAvailability(ctx, a1.ID, DayToday)
	require.NoError(t, err)
	require.Len(t, during.Intervals, 2)
	assert.Equal(t, today(9, 0), during.Intervals[0].End)
	assert.Equal(t, today(10, 0), during.Intervals[1].Start)

	require.NoError(t, f.svc.CancelBooking(ctx, b.ID, "u1"))

	after, err := f.svc.GetSlotAvailability(ctx, a1.ID, DayToday)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// The freed interval can be booked again.
	f.book(t, "A1", "u2", today(9, 0), today(10, 0))
}
