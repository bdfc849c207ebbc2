package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// clockRef anchors a Clock on a fixed day so that only the time of day is compared.
var clockRef = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

var clockLayouts = []string{"15:04:05", "15:04", time.RFC3339}

// Clock is a time of day with second precision, stored in a TIME column.
type Clock struct {
	secs int
}

func NewClock(hour, min, sec int) Clock {
	return Clock{secs: hour*3600 + min*60 + sec}
}

// ParseClock accepts "15:04", "15:04:05" or an RFC3339 timestamp (its time of day is kept).
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewClock(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return Clock{}, errors.Errorf("invalid time of day %q", s)
}

func (c Clock) Hour() int   { return c.secs / 3600 }
func (c Clock) Minute() int { return (c.secs % 3600) / 60 }
func (c Clock) Second() int { return c.secs % 60 }

func (c Clock) Before(o Clock) bool { return c.secs < o.secs }
func (c Clock) IsZero() bool        { return c.secs == 0 }

// Time returns c on a fixed reference day.
func (c Clock) Time() time.Time {
	return clockRef.Add(time.Duration(c.secs) * time.Second)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), c.Second())
}

// ClockInterval is the Interval covering [start, end) on the reference day.
func ClockInterval(start, end Clock) Interval {
	return Interval{Start: start.Time(), End: end.Time()}
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *Clock) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return c.scanString(string(v))
	case string:
		return c.scanString(v)
	case time.Time:
		*c = NewClock(v.Hour(), v.Minute(), v.Second())
		return nil
	case nil:
		*c = Clock{}
		return nil
	}
	return errors.Errorf("cannot scan %T into Clock", src)
}

func (c *Clock) scanString(s string) error {
	// postgres may append fractional seconds
	if i := strings.IndexByte(s, '.'); i > 0 {
		s = s[:i]
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Clock) Value() (driver.Value, error) {
	return c.String(), nil
}
