package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"parkingslots/internal/db"
)

// Fixed width so that string comparison in SQL orders like time comparison.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const sqliteBookingColumns = `id, slot_id, user_id, vehicle_type, start_time, end_time, status,
	contact_email, contact_phone, created_at, cancelled_at`

type SQLiteBookingRepository struct {
	sqliteQueries
	db *sql.DB
}

// NewSQLiteBookingRepository opens (creating if needed) the database at path. A path not
// ending in .db is treated as a directory holding parking.db.
func NewSQLiteBookingRepository(ctx context.Context, path string) (*SQLiteBookingRepository, error) {
	dbPath, err := resolveDBPath(path)
	if err != nil {
		return nil, err
	}

	// _txlock=immediate makes BEGIN take the write lock up front, so a slot transaction's
	// availability check and insert cannot interleave with another writer.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate", dbPath)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := initSchema(ctx, conn, sqliteSchema); err != nil {
		if cerr := conn.Close(); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}

	return &SQLiteBookingRepository{sqliteQueries: sqliteQueries{q: conn}, db: conn}, nil
}

func resolveDBPath(path string) (string, error) {
	abs := filepath.Clean(path)
	if strings.HasSuffix(abs, ".db") {
		if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
			return "", err
		}
		return abs, nil
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return "", err
	}
	return filepath.Join(abs, "parking.db"), nil
}

func (s *SQLiteBookingRepository) Close() error {
	return s.db.Close()
}

func (s *SQLiteBookingRepository) SeedSlots(ctx context.Context, slots []db.Slot) error {
	for _, slot := range slots {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO parking_slots (name, vehicle_affinity, capacity) VALUES (?, ?, ?)
			ON CONFLICT(name) DO NOTHING`,
			slot.Name, string(slot.VehicleAffinity), slot.Capacity)
		if err != nil {
			return fmt.Errorf("error seeding slot %s: %w", slot.Name, err)
		}
	}
	return nil
}

func (s *SQLiteBookingRepository) ListSlots(ctx context.Context) ([]db.Slot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, vehicle_affinity, capacity FROM parking_slots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error querying parking slots: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var slots []db.Slot
	for rows.Next() {
		var slot db.Slot
		var affinity string
		if err := rows.Scan(&slot.ID, &slot.Name, &affinity, &slot.Capacity); err != nil {
			return nil, fmt.Errorf("error scanning parking slot: %w", err)
		}
		slot.VehicleAffinity = db.VehicleType(affinity)
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *SQLiteBookingRepository) ListBookingsByUser(ctx context.Context, userID string) ([]db.Booking, error) {
	return s.queryBookings(ctx,
		`SELECT `+sqliteBookingColumns+` FROM bookings WHERE user_id = ? ORDER BY start_time DESC, id DESC`,
		userID)
}

func (s *SQLiteBookingRepository) UnremindedBookingsStartingBetween(ctx context.Context, from, to time.Time) ([]db.Booking, error) {
	return s.queryBookings(ctx,
		`SELECT `+sqliteBookingColumns+` FROM bookings
		WHERE status = 'active' AND reminded_at IS NULL AND start_time >= ? AND start_time < ?
		ORDER BY start_time, id`,
		formatSQLiteTime(from), formatSQLiteTime(to))
}

func (s *SQLiteBookingRepository) MarkReminded(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, formatSQLiteTime(at))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx, `UPDATE bookings SET reminded_at = ? WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("error marking bookings reminded: %w", err)
	}
	return nil
}

func (s *SQLiteBookingRepository) InSlotTx(ctx context.Context, slotID int64, fn func(tx BookingTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction for slot %d: %w", slotID, err)
	}
	if err := fn(&sqliteQueries{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction for slot %d: %w", slotID, err)
	}
	return nil
}

type sqliteQueries struct {
	q querier
}

func (s *sqliteQueries) ActiveBookingsForSlot(ctx context.Context, slotID int64, from, to time.Time) ([]db.Booking, error) {
	return s.queryBookings(ctx,
		`SELECT `+sqliteBookingColumns+` FROM bookings
		WHERE slot_id = ? AND status = 'active' AND start_time < ? AND end_time > ?
		ORDER BY start_time, id`,
		slotID, formatSQLiteTime(to), formatSQLiteTime(from))
}

func (s *sqliteQueries) CreateBooking(ctx context.Context, b *db.Booking) error {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO bookings
		(slot_id, user_id, vehicle_type, start_time, end_time, status, contact_email, contact_phone, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.SlotID, b.UserID, string(b.VehicleType),
		formatSQLiteTime(b.StartTime), formatSQLiteTime(b.EndTime), string(b.Status),
		b.ContactEmail, b.ContactPhone, formatSQLiteTime(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("error inserting booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading booking id: %w", err)
	}
	b.ID = id
	return nil
}

func (s *sqliteQueries) GetBooking(ctx context.Context, id int64) (*db.Booking, error) {
	bookings, err := s.queryBookings(ctx, `SELECT `+sqliteBookingColumns+` FROM bookings WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, fmt.Errorf("booking %d: %w", id, ErrBookingNotFound)
	}
	return &bookings[0], nil
}

func (s *sqliteQueries) CancelBooking(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE bookings SET status = 'cancelled', cancelled_at = ? WHERE id = ? AND status = 'active'`,
		formatSQLiteTime(at), id)
	if err != nil {
		return false, fmt.Errorf("error cancelling booking %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading cancelled rows: %w", err)
	}
	return n > 0, nil
}

func (s *sqliteQueries) queryBookings(ctx context.Context, query string, args ...any) ([]db.Booking, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var bookings []db.Booking
	for rows.Next() {
		var b db.Booking
		var vehicle, status, start, end, created string
		var cancelled sql.NullString
		err := rows.Scan(&b.ID, &b.SlotID, &b.UserID, &vehicle, &start, &end, &status,
			&b.ContactEmail, &b.ContactPhone, &created, &cancelled)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		b.VehicleType = db.VehicleType(vehicle)
		b.Status = db.BookingStatus(status)
		if b.StartTime, err = parseSQLiteTime(start); err != nil {
			return nil, err
		}
		if b.EndTime, err = parseSQLiteTime(end); err != nil {
			return nil, err
		}
		if b.CreatedAt, err = parseSQLiteTime(created); err != nil {
			return nil, err
		}
		if cancelled.Valid {
			t, err := parseSQLiteTime(cancelled.String)
			if err != nil {
				return nil, err
			}
			b.CancelledAt = &t
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing stored time %q: %w", s, err)
	}
	return t, nil
}
