package entities

import "time"

// FreeInterval is a half-open [Start, End) stretch in which a slot can take Remaining more bookings.
type FreeInterval struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Remaining int       `json:"remaining"`
}

type NextOpening struct {
	AvailableNow    bool       `json:"available_now"`
	Remaining       int        `json:"remaining"`
	At              *time.Time `json:"at,omitempty"`
	StartingNextDay bool       `json:"starting_next_day"`
	Label           string     `json:"label"`
}

type DayAvailability struct {
	Today    []FreeInterval `json:"today"`
	Tomorrow []FreeInterval `json:"tomorrow"`
}

type SlotAvailability struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	VehicleType   string          `json:"vehicle_type"`
	Capacity      int             `json:"capacity"`
	Availability  DayAvailability `json:"availability"`
	NextAvailable NextOpening     `json:"next_available"`
}

type SlotDayAvailability struct {
	SlotID    int64          `json:"slot_id"`
	Day       string         `json:"day"`
	Intervals []FreeInterval `json:"intervals"`
}
