package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkingslots/internal/db"
	apperrors "parkingslots/internal/errors"
	"parkingslots/internal/repository"
)

func TestLoadSlotRegistry(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryBookingRepository()

	reg, err := LoadSlotRegistry(ctx, store, SlotsFromNames([]string{"A2", "A1"}, []string{"B1"}))
	require.NoError(t, err)

	slots := reg.ListSlots()
	require.Len(t, slots, 3)
	assert.Equal(t, []string{"A1", "A2", "B1"}, []string{slots[0].Name, slots[1].Name, slots[2].Name})
	assert.Equal(t, db.VehicleBike, slots[2].VehicleAffinity)
	assert.Equal(t, 2, slots[2].Capacity)
	assert.Equal(t, 1, slots[0].Capacity)

	got, err := reg.GetSlot(slots[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Name)

	_, err = reg.GetSlot(999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Reloading with an overlapping list keeps existing ids.
	again, err := LoadSlotRegistry(ctx, store, SlotsFromNames([]string{"A1", "A3"}, nil))
	require.NoError(t, err)
	a1, err := again.GetSlot(slots[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "A1", a1.Name)
	assert.Len(t, again.ListSlots(), 4)
}
