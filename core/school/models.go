package school

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
)

type Grade struct {
	ID    string `json:"id" db:"id"`
	Level int    `json:"level" db:"level"`
}

type Subject struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	IsDelete bool   `json:"-" db:"is_delete"`
}

type Class struct {
	ID           string      `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Capacity     int         `json:"capacity" db:"capacity"`
	SupervisorID null.String `json:"supervisor_id" db:"supervisor_id"`
	GradeID      null.String `json:"grade_id" db:"grade_id"`
	IsDelete     bool        `json:"-" db:"is_delete"`
}

type Event struct {
	ID          string      `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"description" db:"description"`
	StartTime   time.Time   `json:"start_time" db:"start_time"`
	EndTime     time.Time   `json:"end_time" db:"end_time"`
	ClassID     null.String `json:"class_id" db:"class_id"`
	IsDelete    bool        `json:"-" db:"is_delete"`
}

// Slot returns the event as a named interval for conflict detection.
func (e Event) Slot() schedule.Slot {
	return schedule.Slot{ID: e.ID, Name: e.Title, Interval: schedule.NewInterval(e.StartTime, e.EndTime)}
}

// IsGlobal reports whether the event applies to every class.
func (e Event) IsGlobal() bool { return !e.ClassID.Valid }

type Announcement struct {
	ID               string      `json:"id" db:"id"`
	Title            string      `json:"title" db:"title"`
	Description      string      `json:"description" db:"description"`
	AnnouncementDate time.Time   `json:"announcement_date" db:"announcement_date"`
	ClassID          null.String `json:"class_id" db:"class_id"`
	PdfName          null.String `json:"pdf_name" db:"pdf_name"`
	IsDelete         bool        `json:"-" db:"is_delete"`
}

// Filters

type SubjectFilter struct {
	core.PageQuery
}

type ClassFilter struct {
	core.PageQuery
	SupervisorID string `query:"supervisor_id"`
	GradeID      string `query:"grade_id"`
}

type EventFilter struct {
	core.PageQuery
	ClassID string `query:"class_id"`
	Date    string `query:"date"` // YYYY-MM-DD; events running on that day

	day time.Time
}

// Day returns the parsed Date filter, zero when unset.
func (f EventFilter) Day() time.Time { return f.day }

func (f *EventFilter) parse() error {
	f.Date = core.CleanString(f.Date)
	if f.Date == "" {
		return nil
	}
	d, err := time.Parse("2006-01-02", f.Date)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date must be formatted as YYYY-MM-DD"})
	}
	f.day = d
	return nil
}

type AnnouncementFilter struct {
	core.PageQuery
	ClassID string `query:"class_id"`
}

// Write models

type NewGrade struct {
	Level int `json:"level" validate:"required,min=1,max=12"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	return validate.Struct(ng)
}

type SaveSubject struct {
	Name string `json:"name" validate:"required,min=2,max=150"`
}

func (ss *SaveSubject) Validate(validate *validator.Validate) error {
	ss.Name = core.CleanString(ss.Name)
	return validate.Struct(ss)
}

type SaveClass struct {
	Name         string `json:"name" validate:"required,max=150"`
	Capacity     int    `json:"capacity" validate:"required,min=1"`
	SupervisorID string `json:"supervisor_id" validate:"omitempty,uuid"`
	GradeID      string `json:"grade_id" validate:"omitempty,uuid"`
}

func (sc *SaveClass) Validate(validate *validator.Validate) error {
	sc.Name = core.CleanString(sc.Name)
	sc.SupervisorID = core.CleanString(sc.SupervisorID)
	sc.GradeID = core.CleanString(sc.GradeID)
	return validate.Struct(sc)
}

type SaveEvent struct {
	Title       string    `json:"title" validate:"required,min=2,max=255"`
	Description string    `json:"description" validate:"required"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	ClassID     string    `json:"class_id" validate:"omitempty,uuid"`
}

func (se *SaveEvent) Validate(validate *validator.Validate) error {
	se.Title = core.CleanString(se.Title)
	se.Description = core.CleanString(se.Description)
	se.ClassID = core.CleanString(se.ClassID)
	return validate.Struct(se)
}

type SaveAnnouncement struct {
	Title            string `json:"title" validate:"required,min=2,max=255"`
	Description      string `json:"description" validate:"required"`
	AnnouncementDate string `json:"announcement_date" validate:"omitempty,datetime=2006-01-02"`
	ClassID          string `json:"class_id" validate:"omitempty,uuid"`
}

func (sa *SaveAnnouncement) Validate(validate *validator.Validate) error {
	sa.Title = core.CleanString(sa.Title)
	sa.Description = core.CleanString(sa.Description)
	sa.AnnouncementDate = core.CleanString(sa.AnnouncementDate)
	sa.ClassID = core.CleanString(sa.ClassID)
	return validate.Struct(sa)
}

// date returns the announcement date, today when unset.
func (sa SaveAnnouncement) date(now time.Time) time.Time {
	if d, err := time.Parse("2006-01-02", sa.AnnouncementDate); err == nil {
		return d
	}
	return schedule.Date(now)
}

// Delete results

type ClassDeleteResult struct {
	LessonsAffected       int64 `json:"lessons_affected"`
	StudentsAffected      int64 `json:"students_affected"`
	EventsAffected        int64 `json:"events_affected"`
	AnnouncementsAffected int64 `json:"announcements_affected"`
}

type SubjectDeleteResult struct {
	TeachersAffected int64 `json:"teachers_affected"`
	LessonsAffected  int64 `json:"lessons_affected"`
}
