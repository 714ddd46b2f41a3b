package service

import "time"

// OperatingWindow is the daily [Open, Close] range, as offsets from local midnight, in which
// slots can be booked.
type OperatingWindow struct {
	Location *time.Location
	Open     time.Duration
	Close    time.Duration
}

type span struct {
	start, end time.Time
}

// Day returns local midnight of the calendar day containing t.
func (w OperatingWindow) Day(t time.Time) time.Time {
	y, m, d := t.In(w.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, w.Location)
}

// Bounds returns the opening and closing instants of the given calendar day.
func (w OperatingWindow) Bounds(day time.Time) (time.Time, time.Time) {
	return w.at(day, w.Open), w.at(day, w.Close)
}

// at builds the wall-clock time day+offset. Adding the offset to midnight would be wrong
// on DST transition days.
func (w OperatingWindow) at(day time.Time, offset time.Duration) time.Time {
	y, m, d := day.In(w.Location).Date()
	h := int(offset / time.Hour)
	mins := int(offset % time.Hour / time.Minute)
	return time.Date(y, m, d, h, mins, 0, 0, w.Location)
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// Contains reports whether [start, end] lies inside a single day's operating hours. Both
// boundaries are inclusive, so a booking may run exactly from opening to closing.
func (w OperatingWindow) Contains(start, end time.Time) bool {
	open, closing := w.Bounds(start)
	if start.Before(open) || end.After(closing) {
		return false
	}
	return w.Close >= 24*time.Hour || sameDay(start, end, w.Location)
}

// Clip splits [from, to) into the parts falling inside operating hours, one per day.
func (w OperatingWindow) Clip(from, to time.Time) []span {
	var out []span
	for day := w.Day(from); day.Before(to); day = w.at(day.AddDate(0, 0, 1), 0) {
		open, closing := w.Bounds(day)
		s, e := later(open, from), earlier(closing, to)
		if s.Before(e) {
			out = append(out, span{start: s, end: e})
		}
	}
	return out
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
