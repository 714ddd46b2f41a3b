package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"parkingslots/internal/db"
)

// UserID accepts a user id sent either as a JSON string or as an integer.
type UserID string

func (u *UserID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("user_id must be a string or an integer: %w", err)
	}
	*u = UserID(strconv.FormatInt(n, 10))
	return nil
}

// Booking
type CreateBookingRequest struct {
	SlotID      int64  `json:"slot_id" validate:"required,gt=0"`
	VehicleType string `json:"vehicle_type" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	UserID      UserID `json:"user_id" validate:"omitempty,max=128"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty,e164"`
}

type CancelBookingRequest struct {
	BookingID int64  `json:"booking_id" validate:"required,gt=0"`
	UserID    UserID `json:"user_id" validate:"omitempty,max=128"`
}

type BookingResponse struct {
	ID          int64      `json:"id"`
	SlotID      int64      `json:"slot_id"`
	SlotName    string     `json:"slot_name,omitempty"`
	UserID      string     `json:"user_id"`
	VehicleType string     `json:"vehicle_type"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func newBookingResponse(b db.Booking, slotName string, loc *time.Location) BookingResponse {
	resp := BookingResponse{
		ID:          b.ID,
		SlotID:      b.SlotID,
		SlotName:    slotName,
		UserID:      b.UserID,
		VehicleType: string(b.VehicleType),
		StartTime:   b.StartTime.In(loc),
		EndTime:     b.EndTime.In(loc),
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt.In(loc),
	}
	if b.CancelledAt != nil {
		t := b.CancelledAt.In(loc)
		resp.CancelledAt = &t
	}
	return resp
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Errors
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
