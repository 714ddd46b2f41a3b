package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"sync"
	"time"

	"go.uber.org/zap"

	"parkingslots/internal/db"
	"parkingslots/internal/entities"
	"parkingslots/internal/logging"
)

//go:embed templates/booking_email.html
var templateFS embed.FS

var bookingEmailTemplate = template.Must(template.ParseFS(templateFS, "templates/booking_email.html"))

const (
	statusConfirmed = "confirmed"
	statusCancelled = "cancelled"
	statusReminder  = "starting soon"
)

// Notifier tells booking owners about changes to their bookings.
type Notifier interface {
	BookingConfirmed(b *db.Booking, slot db.Slot)
	BookingCancelled(b *db.Booking, slot db.Slot)
	BookingReminder(ctx context.Context, b *db.Booking, slot db.Slot) error
}

// SenderService renders booking messages and sends them by email and SMS to whatever contact
// details the booking carries. Confirmations and cancellations are sent in the background.
type SenderService struct {
	email    EmailSender
	sms      SMSSender
	location *time.Location
	logger   *zap.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewSenderService(email EmailSender, sms SMSSender, location *time.Location, logger *zap.Logger) *SenderService {
	return &SenderService{
		email:    email,
		sms:      sms,
		location: location,
		logger:   logger,
		timeout:  15 * time.Second,
	}
}

func (s *SenderService) BookingConfirmed(b *db.Booking, slot db.Slot) {
	s.dispatch(b, slot, statusConfirmed)
}

func (s *SenderService) BookingCancelled(b *db.Booking, slot db.Slot) {
	s.dispatch(b, slot, statusCancelled)
}

// BookingReminder sends synchronously; the reminder job needs to know what was delivered.
func (s *SenderService) BookingReminder(ctx context.Context, b *db.Booking, slot db.Slot) error {
	return s.send(ctx, b, slot, statusReminder)
}

// Wait blocks until background sends have finished.
func (s *SenderService) Wait() {
	s.wg.Wait()
}

func (s *SenderService) dispatch(b *db.Booking, slot db.Slot, status string) {
	if b.ContactEmail == "" && b.ContactPhone == "" {
		return
	}
	booking := *b
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.send(ctx, &booking, slot, status); err != nil {
			s.logger.Warn("booking notification failed", logging.BookingID(booking.ID), zap.String("status", status), zap.Error(err))
		}
	}()
}

func (s *SenderService) send(ctx context.Context, b *db.Booking, slot db.Slot, status string) error {
	data := s.emailData(b, slot, status)

	var firstErr error
	if b.ContactEmail != "" {
		subject := fmt.Sprintf("Your parking booking #%d is %s", b.ID, status)
		var html bytes.Buffer
		if err := bookingEmailTemplate.Execute(&html, data); err != nil {
			return fmt.Errorf("error rendering email for booking %d: %w", b.ID, err)
		}
		if err := s.email.SendEmail(ctx, b.ContactEmail, b.UserID, subject, plainTextBody(data), html.String()); err != nil {
			firstErr = err
		}
	}
	if b.ContactPhone != "" {
		msg := fmt.Sprintf("Parking: booking #%d in slot %s is %s.\nFrom %s until %s.",
			b.ID, slot.Name, status, data.StartTimeFormatted, data.EndTimeFormatted)
		if err := s.sms.SendSMS(ctx, b.ContactPhone, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *SenderService) emailData(b *db.Booking, slot db.Slot, status string) entities.ReservationEmailData {
	return entities.ReservationEmailData{
		BookingID:          b.ID,
		UserID:             b.UserID,
		SlotName:           slot.Name,
		VehicleType:        string(b.VehicleType),
		StartTimeFormatted: b.StartTime.In(s.location).Format("02 Jan 2006 15:04 MST"),
		EndTimeFormatted:   b.EndTime.In(s.location).Format("02 Jan 2006 15:04 MST"),
		Status:             status,
		CurrentYear:        time.Now().In(s.location).Year(),
	}
}

func plainTextBody(d entities.ReservationEmailData) string {
	return fmt.Sprintf(
		"Hello %s,\n\nYour parking booking is %s.\n\n"+
			"Booking: #%d\n"+
			"Slot: %s\n"+
			"Vehicle: %s\n"+
			"From: %s\n"+
			"Until: %s\n",
		d.UserID, d.Status, d.BookingID, d.SlotName, d.VehicleType, d.StartTimeFormatted, d.EndTimeFormatted,
	)
}
