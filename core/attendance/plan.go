package attendance

import (
	"time"

	"github.com/google/uuid"
)

// Plan holds the rows a take request creates and updates.
type Plan struct {
	Create []Attendance
	Update []Attendance
}

// PlanTake checks a take request against the class roster and the rows already stored
// for the lesson on that date, and returns what must be written.
// at is the attendance_date stamped on new rows.
func PlanTake(lessonID string, roster []string, existing []Attendance, records []Record, overwrite bool, at time.Time) (Plan, error) {
	if len(records) == 0 {
		return Plan{}, ErrEmptyRecords
	}

	inRoster := make(map[string]bool, len(roster))
	for _, id := range roster {
		inRoster[id] = true
	}
	var invalid []string
	for _, r := range records {
		if !inRoster[r.StudentID] {
			invalid = append(invalid, r.StudentID)
		}
	}
	if len(invalid) > 0 {
		return Plan{}, invalidStudentsError(invalid)
	}

	seen := make(map[string]bool, len(records))
	var dups []string
	for _, r := range records {
		if seen[r.StudentID] {
			dups = append(dups, r.StudentID)
		}
		seen[r.StudentID] = true
	}
	if len(dups) > 0 {
		return Plan{}, duplicateStudentsError(dups)
	}

	stored := make(map[string]Attendance, len(existing))
	for _, a := range existing {
		if !a.IsDelete {
			stored[a.StudentID] = a
		}
	}
	var conflicting []string
	for _, r := range records {
		if _, ok := stored[r.StudentID]; ok {
			conflicting = append(conflicting, r.StudentID)
		}
	}
	if len(conflicting) > 0 && !overwrite {
		return Plan{}, existingRecordsError(conflicting)
	}

	var plan Plan
	for _, r := range records {
		if a, ok := stored[r.StudentID]; ok {
			a.Present = r.Present
			plan.Update = append(plan.Update, a)
			continue
		}
		plan.Create = append(plan.Create, Attendance{
			ID:             uuid.New().String(),
			StudentID:      r.StudentID,
			LessonID:       lessonID,
			AttendanceDate: at,
			Present:        r.Present,
		})
	}
	return plan, nil
}

// stampDate combines the calendar day of date with the UTC time of day of now.
func stampDate(date, now time.Time) time.Time {
	now = now.UTC()
	return time.Date(date.Year(), date.Month(), date.Day(), now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC)
}
