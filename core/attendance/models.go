package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/lesson"
)

const dateLayout = "2006-01-02"

// Status tells how far attendance was taken for a lesson on a date.
type Status string

const (
	StatusNotTaken Status = "not_taken"
	StatusPartial  Status = "partial"
	StatusComplete Status = "complete"
)

// StatusOf derives the status from the number of marked students and the roster size.
func StatusOf(marked, roster int) Status {
	switch {
	case marked <= 0:
		return StatusNotTaken
	case roster > 0 && marked >= roster:
		return StatusComplete
	}
	return StatusPartial
}

type Attendance struct {
	ID             string    `json:"id" db:"id"`
	StudentID      string    `json:"student_id" db:"student_id"`
	LessonID       string    `json:"lesson_id" db:"lesson_id"`
	AttendanceDate time.Time `json:"attendance_date" db:"attendance_date"`
	Present        bool      `json:"present" db:"present"`
	IsDelete       bool      `json:"-" db:"is_delete"`
}

// RosterStudent is an active student of the lesson's class.
type RosterStudent struct {
	ID        string `json:"student_id" db:"id"`
	Username  string `json:"username" db:"username"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
}

// RosterEntry joins a student with their attendance of the day. Present is null when unmarked.
type RosterEntry struct {
	RosterStudent
	AttendanceID null.String `json:"attendance_id"`
	Present      null.Bool   `json:"present"`
}

type Summary struct {
	TotalStudents int    `json:"total_students"`
	MarkedCount   int    `json:"marked_count"`
	PresentCount  int    `json:"present_count"`
	AbsentCount   int    `json:"absent_count"`
	Status        Status `json:"status"`
}

type Roster struct {
	LessonID string        `json:"lesson_id"`
	Date     string        `json:"date"`
	Students []RosterEntry `json:"students"`
	Summary
}

// LessonAttendance is a lesson of the day with its attendance progress.
type LessonAttendance struct {
	lesson.Lesson
	TotalStudents    int    `json:"total_students"`
	MarkedCount      int    `json:"marked_count"`
	AttendanceStatus Status `json:"attendance_status"`
}

type StudentSummary struct {
	StudentID  string  `json:"student_id"`
	From       string  `json:"from"`
	Total      int     `json:"total"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Percentage float64 `json:"percentage"`
}

// Write models

type Record struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	Present   bool   `json:"present"`
}

type TakeAttendance struct {
	LessonID          string   `json:"lesson_id" validate:"required,uuid"`
	Date              string   `json:"date" validate:"required,datetime=2006-01-02"`
	Records           []Record `json:"records" validate:"required,min=1,dive"`
	OverwriteExisting bool     `json:"overwrite_existing"`
}

func (ta *TakeAttendance) Validate(validate *validator.Validate) error {
	ta.Date = core.CleanString(ta.Date)
	for i := range ta.Records {
		ta.Records[i].StudentID = core.CleanString(ta.Records[i].StudentID)
	}
	return validate.Struct(ta)
}

type TakeResult struct {
	CreatedCount  int    `json:"created_count"`
	UpdatedCount  int    `json:"updated_count"`
	PresentCount  int    `json:"present_count"`
	AbsentCount   int    `json:"absent_count"`
	TotalStudents int    `json:"total_students"`
	Status        Status `json:"status"`
}
