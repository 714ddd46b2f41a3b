package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkingslots/internal/db"
)

func TestParseVehicleType(t *testing.T) {
	tests := []struct {
		in      string
		want    db.VehicleType
		wantErr bool
	}{
		{in: "car", want: db.VehicleCar},
		{in: " Car ", want: db.VehicleCar},
		{in: "SUV", want: db.VehicleCar},
		{in: "bike", want: db.VehicleBike},
		{in: "motorcycle", want: db.VehicleBike},
		{in: "truck", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVehicleType(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompatibleWithSlot(t *testing.T) {
	carSlot := db.Slot{Name: "A1", VehicleAffinity: db.VehicleCar, Capacity: 1}
	bikeSlot := db.Slot{Name: "B1", VehicleAffinity: db.VehicleBike, Capacity: 2}

	assert.True(t, CompatibleWithSlot(db.VehicleCar, carSlot))
	assert.False(t, CompatibleWithSlot(db.VehicleBike, carSlot))
	assert.True(t, CompatibleWithSlot(db.VehicleBike, bikeSlot))
	assert.False(t, CompatibleWithSlot(db.VehicleCar, bikeSlot))
}
