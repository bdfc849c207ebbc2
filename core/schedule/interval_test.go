package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time {
	return time.Date(2024, time.January, 1, h, m, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{name: "disjoint", a: NewInterval(at(9, 0), at(10, 0)), b: NewInterval(at(11, 0), at(12, 0)), want: false},
		{name: "touching", a: NewInterval(at(9, 0), at(10, 0)), b: NewInterval(at(10, 0), at(11, 0)), want: false},
		{name: "starts during", a: NewInterval(at(9, 30), at(10, 30)), b: NewInterval(at(9, 0), at(10, 0)), want: true},
		{name: "ends during", a: NewInterval(at(8, 30), at(9, 30)), b: NewInterval(at(9, 0), at(10, 0)), want: true},
		{name: "contains", a: NewInterval(at(8, 0), at(11, 0)), b: NewInterval(at(9, 0), at(10, 0)), want: true},
		{name: "contained", a: NewInterval(at(9, 15), at(9, 45)), b: NewInterval(at(9, 0), at(10, 0)), want: true},
		{name: "identical", a: NewInterval(at(9, 0), at(10, 0)), b: NewInterval(at(9, 0), at(10, 0)), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("failed! Overlaps(a, b) = %v; want %v", got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("failed! Overlaps(b, a) = %v; want %v (not symmetric)", got, tt.want)
			}
		})
	}
}

func TestOverlaps_reflexive(t *testing.T) {
	for h := 0; h < 23; h++ {
		iv := NewInterval(at(h, 0), at(h+1, 0))
		assert.True(t, Overlaps(iv, iv), "interval %v should overlap itself", iv)
	}
}

func TestFirstConflict(t *testing.T) {
	slots := []Slot{
		{ID: "1", Name: "Math", Interval: NewInterval(at(8, 0), at(9, 0))},
		{ID: "2", Name: "Physics", Interval: NewInterval(at(9, 0), at(10, 0))},
		{ID: "3", Name: "Chemistry", Interval: NewInterval(at(9, 30), at(11, 0))},
	}

	got, ok := FirstConflict(NewInterval(at(9, 45), at(10, 15)), slots, "")
	require.True(t, ok)
	assert.Equal(t, "Physics", got.Name)

	got, ok = FirstConflict(NewInterval(at(9, 45), at(10, 15)), slots, "2")
	require.True(t, ok)
	assert.Equal(t, "Chemistry", got.Name)

	_, ok = FirstConflict(NewInterval(at(11, 0), at(12, 0)), slots, "")
	assert.False(t, ok)
}

func TestClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30:00", c.String())

	c2, err := ParseClock("2024-01-01T10:00:00Z")
	require.NoError(t, err)
	assert.True(t, c.Before(c2))

	_, err = ParseClock("25:99")
	assert.Error(t, err)

	var scanned Clock
	require.NoError(t, scanned.Scan([]byte("14:05:09.000123")))
	assert.Equal(t, NewClock(14, 5, 9), scanned)

	data, err := json.Marshal(struct {
		Start Clock `json:"start"`
	}{Start: NewClock(8, 0, 0)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start": "08:00:00"}`, string(data))

	// lessons recur weekly so only the time of day matters
	assert.False(t, Overlaps(ClockInterval(NewClock(9, 0, 0), NewClock(10, 0, 0)), ClockInterval(NewClock(10, 0, 0), NewClock(11, 0, 0))))
}

func TestDayHelpers(t *testing.T) {
	d, ok := ParseDay("monday")
	assert.True(t, ok)
	assert.Equal(t, Monday, d)
	_, ok = ParseDay("Sunday")
	assert.False(t, ok)

	wed := time.Date(2024, time.January, 3, 15, 0, 0, 0, time.UTC)
	day, ok := DayOf(wed)
	assert.True(t, ok)
	assert.Equal(t, Wednesday, day)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), StartOfWeek(wed))

	sunday := time.Date(2024, time.January, 7, 10, 0, 0, 0, time.UTC)
	_, ok = DayOf(sunday)
	assert.False(t, ok)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), StartOfWeek(sunday))

	assert.Equal(t, time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC), StartOfAcademicYear(wed))
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		StartOfAcademicYear(time.Date(2024, time.September, 10, 0, 0, 0, 0, time.UTC)))
}
