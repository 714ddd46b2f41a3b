package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewBookingEvent(t *testing.T) {
	b := testBooking()
	e := NewBookingEvent(EventBookingCreated, b, testNow)

	_, err := uuid.Parse(e.ID)
	require.NoError(t, err)
	assert.Equal(t, EventBookingCreated, e.Type)
	assert.Equal(t, b.ID, e.BookingID)
	assert.Equal(t, b.SlotID, e.SlotID)
	assert.Equal(t, "car", e.VehicleType)
	assert.Equal(t, "active", e.Status)
	assert.True(t, e.StartTime.Equal(b.StartTime))

	other := NewBookingEvent(EventBookingCreated, b, testNow)
	assert.NotEqual(t, e.ID, other.ID)
}

func TestNewKafkaEventPublisherValidation(t *testing.T) {
	_, err := NewKafkaEventPublisher(nil, "topic", zap.NewNop())
	assert.Error(t, err)

	_, err = NewKafkaEventPublisher([]string{"localhost:9092"}, "", zap.NewNop())
	assert.Error(t, err)

	p, err := NewKafkaEventPublisher([]string{"localhost:9092"}, "parking.bookings", zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}
