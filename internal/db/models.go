package db

import "time"

type VehicleType string

const (
	VehicleCar  VehicleType = "car"
	VehicleBike VehicleType = "bike"
)

// Capacity is the number of concurrent active bookings a slot of this affinity holds.
func (v VehicleType) Capacity() int {
	if v == VehicleBike {
		return 2
	}
	return 1
}

type BookingStatus string

const (
	StatusActive    BookingStatus = "active"
	StatusCancelled BookingStatus = "cancelled"
)

type Slot struct {
	ID              int64
	Name            string
	VehicleAffinity VehicleType
	Capacity        int
}

type Booking struct {
	ID           int64
	SlotID       int64
	UserID       string
	VehicleType  VehicleType
	StartTime    time.Time
	EndTime      time.Time
	Status       BookingStatus
	ContactEmail string
	ContactPhone string
	CreatedAt    time.Time
	CancelledAt  *time.Time
}

// Overlaps reports whether the booking intersects [start, end). Touching ends do not overlap.
func (b Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}
