package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkingslots/internal/db"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const pgBookingColumns = `id, slot_id, user_id, vehicle_type, start_time, end_time, status,
	contact_email, contact_phone, created_at, cancelled_at`

type PostgresBookingRepository struct {
	pgQueries
	DB *sql.DB
}

// NewPostgresBookingRepository applies the schema on conn and returns a Store backed by it.
func NewPostgresBookingRepository(ctx context.Context, conn *sql.DB) (*PostgresBookingRepository, error) {
	if err := initSchema(ctx, conn, postgresSchema); err != nil {
		return nil, err
	}
	return &PostgresBookingRepository{pgQueries: pgQueries{q: conn}, DB: conn}, nil
}

func (r *PostgresBookingRepository) Close() error {
	return r.DB.Close()
}

func (r *PostgresBookingRepository) SeedSlots(ctx context.Context, slots []db.Slot) error {
	for _, s := range slots {
		_, err := r.DB.ExecContext(ctx,
			`INSERT INTO parking_slots (name, vehicle_affinity, capacity) VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING`,
			s.Name, string(s.VehicleAffinity), s.Capacity)
		if err != nil {
			return fmt.Errorf("error seeding slot %s: %w", s.Name, err)
		}
	}
	return nil
}

func (r *PostgresBookingRepository) ListSlots(ctx context.Context) ([]db.Slot, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, vehicle_affinity, capacity FROM parking_slots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error querying parking slots: %w", err)
	}
	defer rows.Close()

	var slots []db.Slot
	for rows.Next() {
		var s db.Slot
		var affinity string
		if err := rows.Scan(&s.ID, &s.Name, &affinity, &s.Capacity); err != nil {
			return nil, fmt.Errorf("error scanning parking slot: %w", err)
		}
		s.VehicleAffinity = db.VehicleType(affinity)
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating parking slots: %w", err)
	}
	return slots, nil
}

func (r *PostgresBookingRepository) ListBookingsByUser(ctx context.Context, userID string) ([]db.Booking, error) {
	return r.queryBookings(ctx,
		`SELECT `+pgBookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY start_time DESC, id DESC`,
		userID)
}

// InSlotTx serializes on a transaction-scoped advisory lock keyed by the slot id, so several
// service instances sharing the database never interleave check-and-write on one slot.
func (r *PostgresBookingRepository) InSlotTx(ctx context.Context, slotID int64, fn func(tx BookingTx) error) error {
	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("error starting slot transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, slotID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("error locking slot %d: %w", slotID, err)
	}
	if err := fn(&pgQueries{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing slot transaction: %w", err)
	}
	return nil
}

// pgQueries holds the statements shared by the pool and slot transactions.
type pgQueries struct {
	q querier
}

func (p *pgQueries) ActiveBookingsForSlot(ctx context.Context, slotID int64, from, to time.Time) ([]db.Booking, error) {
	return p.queryBookings(ctx,
		`SELECT `+pgBookingColumns+` FROM bookings
		WHERE slot_id = $1 AND status = 'active' AND start_time < $3 AND end_time > $2
		ORDER BY start_time, id`,
		slotID, from, to)
}

func (p *pgQueries) CreateBooking(ctx context.Context, b *db.Booking) error {
	query := `
		INSERT INTO bookings
		(slot_id, user_id, vehicle_type, start_time, end_time, status, contact_email, contact_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := p.q.QueryRowContext(ctx, query,
		b.SlotID,
		b.UserID,
		string(b.VehicleType),
		b.StartTime,
		b.EndTime,
		string(b.Status),
		b.ContactEmail,
		b.ContactPhone,
		b.CreatedAt,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("error inserting booking: %w", err)
	}
	return nil
}

func (p *pgQueries) GetBooking(ctx context.Context, id int64) (*db.Booking, error) {
	bookings, err := p.queryBookings(ctx, `SELECT `+pgBookingColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, fmt.Errorf("booking %d: %w", id, ErrBookingNotFound)
	}
	return &bookings[0], nil
}

func (p *pgQueries) CancelBooking(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := p.q.ExecContext(ctx,
		`UPDATE bookings SET status = 'cancelled', cancelled_at = $2 WHERE id = $1 AND status = 'active'`,
		id, at)
	if err != nil {
		return false, fmt.Errorf("error cancelling booking %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading cancelled rows: %w", err)
	}
	return n > 0, nil
}

func (p *pgQueries) queryBookings(ctx context.Context, query string, args ...any) ([]db.Booking, error) {
	rows, err := p.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings: %w", err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		var b db.Booking
		var vehicle, status string
		var cancelledAt sql.NullTime
		err := rows.Scan(&b.ID, &b.SlotID, &b.UserID, &vehicle, &b.StartTime, &b.EndTime, &status,
			&b.ContactEmail, &b.ContactPhone, &b.CreatedAt, &cancelledAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		b.VehicleType = db.VehicleType(vehicle)
		b.Status = db.BookingStatus(status)
		if cancelledAt.Valid {
			t := cancelledAt.Time
			b.CancelledAt = &t
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating booking rows: %w", err)
	}
	return bookings, nil
}
