package entities

// ReservationEmailData feeds the notification templates.
type ReservationEmailData struct {
	BookingID          int64
	UserID             string
	SlotName           string
	VehicleType        string
	StartTimeFormatted string
	EndTimeFormatted   string
	Status             string
	CurrentYear        int
}
