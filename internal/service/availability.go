package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"parkingslots/internal/db"
	"parkingslots/internal/entities"
	"parkingslots/internal/repository"
)

const (
	LabelAvailableNow    = "Available now"
	LabelOneMoreBike     = "Available for 1 more bike"
	LabelStartingNextDay = "Available starting next day"
	LabelFullyBooked     = "Fully booked"
	labelNextAt          = "Next available: %s"
)

const labelDateLayout = "Mon Jan 2 15:04"

// AvailabilityCalculator derives free intervals from the active bookings of a slot. It is the
// only place availability is computed; listings, labels and commit checks all go through it.
type AvailabilityCalculator struct {
	store   repository.BookingReader
	window  OperatingWindow
	horizon time.Duration
}

func NewAvailabilityCalculator(store repository.BookingReader, window OperatingWindow, horizon time.Duration) *AvailabilityCalculator {
	return &AvailabilityCalculator{store: store, window: window, horizon: horizon}
}

// Compute returns the free intervals of slot inside [from, to), clipped to operating hours.
func (c *AvailabilityCalculator) Compute(ctx context.Context, slot db.Slot, from, to time.Time) ([]entities.FreeInterval, error) {
	return c.ComputeWith(ctx, c.store, slot, from, to)
}

// ComputeWith is Compute against an explicit reader, used inside slot transactions.
func (c *AvailabilityCalculator) ComputeWith(ctx context.Context, r repository.BookingReader, slot db.Slot, from, to time.Time) ([]entities.FreeInterval, error) {
	if !from.Before(to) {
		return nil, nil
	}
	bookings, err := r.ActiveBookingsForSlot(ctx, slot.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("error loading bookings for slot %d: %w", slot.ID, err)
	}

	var out []entities.FreeInterval
	for _, w := range c.window.Clip(from, to) {
		out = append(out, freeIntervals(bookings, slot.Capacity, w.start, w.end)...)
	}
	return out, nil
}

// IsFree reports whether [start, end) is entirely free on the slot, reading through r.
func (c *AvailabilityCalculator) IsFree(ctx context.Context, r repository.BookingReader, slot db.Slot, start, end time.Time) (bool, error) {
	free, err := c.ComputeWith(ctx, r, slot, start, end)
	if err != nil {
		return false, err
	}
	return covers(free, start, end), nil
}

// NextAvailable finds the first opening of slot in [now, now+horizon).
func (c *AvailabilityCalculator) NextAvailable(ctx context.Context, slot db.Slot, now time.Time) (entities.NextOpening, error) {
	free, err := c.Compute(ctx, slot, now, now.Add(c.horizon))
	if err != nil {
		return entities.NextOpening{}, err
	}
	return nextOpening(free, slot, now, c.window), nil
}

// Window exposes the operating hours the calculator clips to.
func (c *AvailabilityCalculator) Window() OperatingWindow {
	return c.window
}

func nextOpening(free []entities.FreeInterval, slot db.Slot, now time.Time, w OperatingWindow) entities.NextOpening {
	if len(free) == 0 {
		return entities.NextOpening{Label: LabelFullyBooked}
	}
	first := free[0]
	at := first.Start

	if !first.Start.After(now) {
		label := LabelAvailableNow
		if slot.VehicleAffinity == db.VehicleBike && first.Remaining == 1 {
			label = LabelOneMoreBike
		}
		return entities.NextOpening{AvailableNow: true, Remaining: first.Remaining, At: &at, Label: label}
	}
	if sameDay(first.Start, now, w.Location) {
		return entities.NextOpening{
			Remaining: first.Remaining,
			At:        &at,
			Label:     fmt.Sprintf(labelNextAt, first.Start.In(w.Location).Format("15:04")),
		}
	}
	if sameDay(first.Start, w.Day(now).AddDate(0, 0, 1), w.Location) {
		return entities.NextOpening{Remaining: first.Remaining, At: &at, StartingNextDay: true, Label: LabelStartingNextDay}
	}
	return entities.NextOpening{
		Remaining: first.Remaining,
		At:        &at,
		Label:     fmt.Sprintf(labelNextAt, first.Start.In(w.Location).Format(labelDateLayout)),
	}
}

type event struct {
	at    time.Time
	delta int
}

// freeIntervals sweeps booking boundaries across [from, to) and returns the maximal runs in
// which fewer than capacity bookings are active, tagged with the remaining capacity.
func freeIntervals(bookings []db.Booking, capacity int, from, to time.Time) []entities.FreeInterval {
	events := make([]event, 0, 2*len(bookings))
	for _, b := range bookings {
		s, e := later(b.StartTime, from), earlier(b.EndTime, to)
		if !s.Before(e) {
			continue
		}
		events = append(events, event{at: s, delta: 1}, event{at: e, delta: -1})
	}
	// Ends sort before starts at the same instant so touching bookings never stack.
	sort.Slice(events, func(i, j int) bool {
		if events[i].at.Equal(events[j].at) {
			return events[i].delta < events[j].delta
		}
		return events[i].at.Before(events[j].at)
	})

	var out []entities.FreeInterval
	emit := func(start, end time.Time, active int) {
		if !start.Before(end) || active >= capacity {
			return
		}
		remaining := capacity - active
		if n := len(out); n > 0 && out[n-1].End.Equal(start) && out[n-1].Remaining == remaining {
			out[n-1].End = end
			return
		}
		out = append(out, entities.FreeInterval{Start: start, End: end, Remaining: remaining})
	}

	cursor, active := from, 0
	for _, ev := range events {
		emit(cursor, ev.at, active)
		if ev.at.After(cursor) {
			cursor = ev.at
		}
		active += ev.delta
	}
	emit(cursor, to, active)
	return out
}

// covers reports whether the free intervals jointly span [start, end).
func covers(free []entities.FreeInterval, start, end time.Time) bool {
	cursor := start
	for _, f := range free {
		if f.Start.After(cursor) {
			return false
		}
		if f.End.After(cursor) {
			cursor = f.End
		}
		if !cursor.Before(end) {
			return true
		}
	}
	return !cursor.Before(end)
}
