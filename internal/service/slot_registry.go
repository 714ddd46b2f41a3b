package service

import (
	"context"
	"fmt"
	"sort"

	"parkingslots/internal/db"
	apperrors "parkingslots/internal/errors"
	"parkingslots/internal/repository"
)

// SlotRegistry is the immutable slot catalog, loaded once at startup.
type SlotRegistry struct {
	slots []db.Slot
	byID  map[int64]db.Slot
}

// SlotsFromNames builds the provisioning list for the configured car and bike slot names.
func SlotsFromNames(carNames, bikeNames []string) []db.Slot {
	slots := make([]db.Slot, 0, len(carNames)+len(bikeNames))
	for _, name := range carNames {
		slots = append(slots, db.Slot{Name: name, VehicleAffinity: db.VehicleCar, Capacity: db.VehicleCar.Capacity()})
	}
	for _, name := range bikeNames {
		slots = append(slots, db.Slot{Name: name, VehicleAffinity: db.VehicleBike, Capacity: db.VehicleBike.Capacity()})
	}
	return slots
}

// LoadSlotRegistry seeds the store with the given slots (existing names are kept as they are)
// and loads the resulting catalog.
func LoadSlotRegistry(ctx context.Context, store repository.Store, seed []db.Slot) (*SlotRegistry, error) {
	if err := store.SeedSlots(ctx, seed); err != nil {
		return nil, fmt.Errorf("error seeding slots: %w", err)
	}
	slots, err := store.ListSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading slots: %w", err)
	}
	return NewSlotRegistry(slots), nil
}

func NewSlotRegistry(slots []db.Slot) *SlotRegistry {
	r := &SlotRegistry{
		slots: append([]db.Slot(nil), slots...),
		byID:  make(map[int64]db.Slot, len(slots)),
	}
	sort.Slice(r.slots, func(i, j int) bool { return r.slots[i].Name < r.slots[j].Name })
	for _, s := range r.slots {
		r.byID[s.ID] = s
	}
	return r
}

// ListSlots returns the catalog ordered by name.
func (r *SlotRegistry) ListSlots() []db.Slot {
	return append([]db.Slot(nil), r.slots...)
}

func (r *SlotRegistry) GetSlot(id int64) (db.Slot, error) {
	s, ok := r.byID[id]
	if !ok {
		return db.Slot{}, apperrors.ErrNotFoundf("parking slot %d not found", id)
	}
	return s, nil
}
