package utils

import (
	"fmt"
	"strings"

	"parkingslots/internal/db"
)

// ParseVehicleType maps the loosely typed vehicle name sent by clients onto the closed enum.
// "motorcycle" and "motorbike" share the bike pool, "suv" shares the car pool.
func ParseVehicleType(name string) (db.VehicleType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "car", "suv":
		return db.VehicleCar, nil
	case "bike", "motorcycle", "motorbike":
		return db.VehicleBike, nil
	}
	return "", fmt.Errorf("unknown vehicle type %q", name)
}

// CompatibleWithSlot reports whether a vehicle may park in a slot with the given affinity.
func CompatibleWithSlot(vehicle db.VehicleType, slot db.Slot) bool {
	return vehicle == slot.VehicleAffinity
}
