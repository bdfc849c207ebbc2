package schedule

import (
	"strings"
	"time"
)

// Day is a school day, lessons recur weekly on it.
type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
)

var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// ParseDay matches s case-insensitively against the school days.
func ParseDay(s string) (Day, bool) {
	s = strings.TrimSpace(s)
	for _, d := range Days {
		if strings.EqualFold(string(d), s) {
			return d, true
		}
	}
	return "", false
}

// DayOf returns the school day of t. Sundays have none.
func DayOf(t time.Time) (Day, bool) {
	if t.Weekday() == time.Sunday {
		return "", false
	}
	return Day(t.Weekday().String()), true
}

// Date truncates t to midnight, keeping its location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns Monday 00:00 of the week holding t.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return Date(t).AddDate(0, 0, -offset)
}

// StartOfAcademicYear returns June 1st of the academic year holding t.
func StartOfAcademicYear(t time.Time) time.Time {
	year := t.Year()
	if t.Month() < time.June {
		year--
	}
	return time.Date(year, time.June, 1, 0, 0, 0, 0, t.Location())
}
