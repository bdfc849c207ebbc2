// Package schedule holds the time-overlap rules shared by lessons, exams, assignments and events.
package schedule

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// Valid reports whether Start is strictly before End.
func (iv Interval) Valid() bool {
	return iv.Start.Before(iv.End)
}

// Overlaps reports whether a and b intersect. Touching endpoints do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Slot is a named interval already on a timeline.
type Slot struct {
	ID       string
	Name     string
	Interval Interval
}

// FirstConflict returns the first slot (in the given order) that overlaps candidate,
// skipping the slot whose ID is excludeID (the record being updated).
func FirstConflict(candidate Interval, slots []Slot, excludeID string) (Slot, bool) {
	for _, s := range slots {
		if excludeID != "" && s.ID == excludeID {
			continue
		}
		if Overlaps(candidate, s.Interval) {
			return s, true
		}
	}
	return Slot{}, false
}
