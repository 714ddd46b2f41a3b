package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"parkingslots/internal/db"
)

type sentEmail struct {
	to, subject, plain, html string
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, to, _, subject, plain, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, plain: plain, html: html})
	return nil
}

type fakeSMS struct {
	mu   sync.Mutex
	to   []string
	body []string
}

func (f *fakeSMS) SendSMS(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, to)
	f.body = append(f.body, body)
	return nil
}

func testBooking() *db.Booking {
	return &db.Booking{
		ID:           7,
		SlotID:       1,
		UserID:       "u1",
		VehicleType:  db.VehicleCar,
		StartTime:    tomorrow(9, 0),
		EndTime:      tomorrow(10, 30),
		Status:       db.StatusActive,
		ContactEmail: "u1@example.com",
		ContactPhone: "+391234567",
	}
}

func TestSenderServiceConfirmation(t *testing.T) {
	email, sms := &fakeEmail{}, &fakeSMS{}
	s := NewSenderService(email, sms, time.UTC, zap.NewNop())
	slot := db.Slot{ID: 1, Name: "A1", VehicleAffinity: db.VehicleCar, Capacity: 1}

	s.BookingConfirmed(testBooking(), slot)
	s.Wait()

	require.Len(t, email.sent, 1)
	assert.Equal(t, "u1@example.com", email.sent[0].to)
	assert.Equal(t, "Your parking booking #7 is confirmed", email.sent[0].subject)
	assert.Contains(t, email.sent[0].plain, "Slot: A1")
	assert.Contains(t, email.sent[0].html, "20 Oct 2026 09:00 UTC")

	require.Len(t, sms.to, 1)
	assert.Equal(t, "+391234567", sms.to[0])
	assert.Contains(t, sms.body[0], "slot A1 is confirmed")
}

func TestSenderServiceSkipsBookingsWithoutContact(t *testing.T) {
	email, sms := &fakeEmail{}, &fakeSMS{}
	s := NewSenderService(email, sms, time.UTC, zap.NewNop())

	b := testBooking()
	b.ContactEmail, b.ContactPhone = "", ""
	s.BookingCancelled(b, db.Slot{Name: "A1"})
	s.Wait()

	assert.Empty(t, email.sent)
	assert.Empty(t, sms.to)
}

func TestSenderServiceReminderReportsFailure(t *testing.T) {
	email, sms := &fakeEmail{err: errors.New("rejected")}, &fakeSMS{}
	s := NewSenderService(email, sms, time.UTC, zap.NewNop())

	err := s.BookingReminder(context.Background(), testBooking(), db.Slot{Name: "A1"})
	assert.EqualError(t, err, "rejected")
	// SMS is still attempted.
	assert.Len(t, sms.to, 1)
}
