package service

import (
	"context"
	"time"

	"parkingslots/internal/db"
	apperrors "parkingslots/internal/errors"
	"parkingslots/internal/repository"
	"parkingslots/internal/utils"
)

// BookingRequest is a validated-at-the-boundary request to reserve a slot.
type BookingRequest struct {
	SlotID       int64
	UserID       string
	VehicleType  db.VehicleType
	StartTime    time.Time
	EndTime      time.Time
	ContactEmail string
	ContactPhone string
}

// BookingScheduler validates and commits new bookings.
type BookingScheduler struct {
	store    repository.Store
	registry *SlotRegistry
	calc     *AvailabilityCalculator
	locks    *SlotLocks
	horizon  time.Duration
	now      func() time.Time
}

func NewBookingScheduler(store repository.Store, registry *SlotRegistry, calc *AvailabilityCalculator,
	locks *SlotLocks, horizon time.Duration, now func() time.Time) *BookingScheduler {
	return &BookingScheduler{
		store:    store,
		registry: registry,
		calc:     calc,
		locks:    locks,
		horizon:  horizon,
		now:      now,
	}
}

// CreateBooking checks the request against the booking rules in a fixed order and, if they
// all pass, persists it. The final availability check and the insert run under the slot's
// lock and inside a slot-scoped store transaction.
func (s *BookingScheduler) CreateBooking(ctx context.Context, req BookingRequest) (*db.Booking, error) {
	if req.UserID == "" {
		return nil, apperrors.ErrInvalidRequest("user_id is required")
	}
	if req.VehicleType != db.VehicleCar && req.VehicleType != db.VehicleBike {
		return nil, apperrors.ErrInvalidRequest("vehicle_type must be car or bike")
	}

	if !req.StartTime.Before(req.EndTime) {
		return nil, apperrors.ErrInvalidInterval
	}

	now := s.now()
	if req.StartTime.Before(now) || req.EndTime.After(now.Add(s.horizon)) {
		return nil, apperrors.ErrHorizonExceeded
	}

	if !s.calc.Window().Contains(req.StartTime, req.EndTime) {
		return nil, apperrors.ErrOutsideOperatingHours
	}

	slot, err := s.registry.GetSlot(req.SlotID)
	if err != nil {
		return nil, err
	}
	if !utils.CompatibleWithSlot(req.VehicleType, slot) {
		return nil, apperrors.ErrVehicleTypeMismatch
	}

	booking := &db.Booking{
		SlotID:       slot.ID,
		UserID:       req.UserID,
		VehicleType:  req.VehicleType,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Status:       db.StatusActive,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		CreatedAt:    now,
	}

	err = s.locks.WithSlot(ctx, slot.ID, func() error {
		return s.store.InSlotTx(ctx, slot.ID, func(tx repository.BookingTx) error {
			free, err := s.calc.IsFree(ctx, tx, slot, req.StartTime, req.EndTime)
			if err != nil {
				return err
			}
			if !free {
				return apperrors.ErrSlotConflict
			}
			return tx.CreateBooking(ctx, booking)
		})
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}
