package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"parkingslots/internal/db"
)

// UnremindedBookingsStartingBetween finds active bookings starting in [from, to) whose owner
// has not been reminded yet.
func (r *PostgresBookingRepository) UnremindedBookingsStartingBetween(ctx context.Context, from, to time.Time) ([]db.Booking, error) {
	return r.queryBookings(ctx,
		`SELECT `+pgBookingColumns+` FROM bookings
		WHERE status = 'active' AND reminded_at IS NULL AND start_time >= $1 AND start_time < $2
		ORDER BY start_time, id`,
		from, to)
}

// MarkReminded stamps reminded_at on a batch of bookings.
func (r *PostgresBookingRepository) MarkReminded(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.DB.ExecContext(ctx, `UPDATE bookings SET reminded_at = $1 WHERE id = ANY($2)`, at, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error marking bookings reminded: %w", err)
	}
	return nil
}
