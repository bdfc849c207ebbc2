package lesson

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
)

const dateLayout = "2006-01-02"

type Lesson struct {
	ID        string         `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	Day       schedule.Day   `json:"day" db:"day"`
	StartTime schedule.Clock `json:"start_time" db:"start_time"`
	EndTime   schedule.Clock `json:"end_time" db:"end_time"`
	SubjectID string         `json:"subject_id" db:"subject_id"`
	ClassID   string         `json:"class_id" db:"class_id"`
	TeacherID string         `json:"teacher_id" db:"teacher_id"`
	IsDelete  bool           `json:"-" db:"is_delete"`
}

func (l Lesson) Slot() schedule.Slot {
	return schedule.Slot{ID: l.ID, Name: l.Name, Interval: schedule.ClockInterval(l.StartTime, l.EndTime)}
}

type Exam struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`
	LessonID  string    `json:"lesson_id" db:"lesson_id"`
	IsDelete  bool      `json:"-" db:"is_delete"`
}

func (e Exam) Slot() schedule.Slot {
	return schedule.Slot{ID: e.ID, Name: e.Title, Interval: schedule.NewInterval(e.StartTime, e.EndTime)}
}

type Assignment struct {
	ID        string      `json:"id" db:"id"`
	Title     string      `json:"title" db:"title"`
	StartDate time.Time   `json:"start_date" db:"start_date"`
	DueDate   time.Time   `json:"due_date" db:"due_date"`
	LessonID  string      `json:"lesson_id" db:"lesson_id"`
	PdfName   null.String `json:"pdf_name" db:"pdf_name"`
	IsDelete  bool        `json:"-" db:"is_delete"`
}

// Slot spans [StartDate, DueDate).
func (a Assignment) Slot() schedule.Slot {
	return schedule.Slot{ID: a.ID, Name: a.Title, Interval: schedule.NewInterval(a.StartDate, a.DueDate)}
}

type Result struct {
	ID           string      `json:"id" db:"id"`
	Score        float64     `json:"score" db:"score"`
	ExamID       null.String `json:"exam_id" db:"exam_id"`
	AssignmentID null.String `json:"assignment_id" db:"assignment_id"`
	StudentID    string      `json:"student_id" db:"student_id"`
	IsDelete     bool        `json:"-" db:"is_delete"`
}

// Filters

type LessonFilter struct {
	core.PageQuery
	TeacherID string `query:"teacher_id"`
	ClassID   string `query:"class_id"`
	Day       string `query:"day"`
}

type ExamFilter struct {
	core.PageQuery
	LessonID  string `query:"lesson_id"`
	ClassID   string `query:"class_id"`
	TeacherID string `query:"teacher_id"`
}

type AssignmentFilter struct {
	core.PageQuery
	LessonID  string `query:"lesson_id"`
	ClassID   string `query:"class_id"`
	TeacherID string `query:"teacher_id"`
}

type ResultFilter struct {
	core.PageQuery
	StudentID    string `query:"student_id"`
	ExamID       string `query:"exam_id"`
	AssignmentID string `query:"assignment_id"`
}

// Write models

type SaveLesson struct {
	Name      string         `json:"name" validate:"required,min=2,max=255"`
	Day       string         `json:"day" validate:"required,weekday"`
	StartTime schedule.Clock `json:"start_time"`
	EndTime   schedule.Clock `json:"end_time"`
	SubjectID string         `json:"subject_id" validate:"required,uuid"`
	ClassID   string         `json:"class_id" validate:"required,uuid"`
	TeacherID string         `json:"teacher_id" validate:"required,uuid"`
}

func (sl *SaveLesson) Validate(validate *validator.Validate) error {
	sl.Name = core.CleanString(sl.Name)
	if d, ok := schedule.ParseDay(sl.Day); ok {
		sl.Day = string(d)
	}
	return validate.Struct(sl)
}

type SaveExam struct {
	Title     string    `json:"title" validate:"required,min=2,max=255"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
	LessonID  string    `json:"lesson_id" validate:"required,uuid"`
}

func (se *SaveExam) Validate(validate *validator.Validate) error {
	se.Title = core.CleanString(se.Title)
	return validate.Struct(se)
}

type SaveAssignment struct {
	Title     string `json:"title" validate:"required,min=2,max=255"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	DueDate   string `json:"due_date" validate:"required,datetime=2006-01-02"`
	LessonID  string `json:"lesson_id" validate:"required,uuid"`
}

func (sa *SaveAssignment) Validate(validate *validator.Validate) error {
	sa.Title = core.CleanString(sa.Title)
	sa.StartDate = core.CleanString(sa.StartDate)
	sa.DueDate = core.CleanString(sa.DueDate)
	return validate.Struct(sa)
}

func (sa SaveAssignment) dates() (start, due time.Time, err error) {
	if start, err = time.Parse(dateLayout, sa.StartDate); err != nil {
		return
	}
	due, err = time.Parse(dateLayout, sa.DueDate)
	return
}

type SaveResult struct {
	Score        float64 `json:"score" validate:"min=0,max=100"`
	ExamID       string  `json:"exam_id" validate:"omitempty,uuid"`
	AssignmentID string  `json:"assignment_id" validate:"omitempty,uuid"`
	StudentID    string  `json:"student_id" validate:"required,uuid"`
}

func (sr *SaveResult) Validate(validate *validator.Validate) error {
	sr.ExamID = core.CleanString(sr.ExamID)
	sr.AssignmentID = core.CleanString(sr.AssignmentID)
	if err := validate.Struct(sr); err != nil {
		return err
	}
	if (sr.ExamID == "") == (sr.AssignmentID == "") {
		return core.NewValidationErrorf("exactly one of exam_id and assignment_id must be set")
	}
	return nil
}

// Delete results

type LessonDeleteResult struct {
	ExamsAffected       int64 `json:"exams_affected"`
	AssignmentsAffected int64 `json:"assignments_affected"`
	AttendanceAffected  int64 `json:"attendance_affected"`
}

type ResultsDeleteResult struct {
	ResultsAffected int64 `json:"results_affected"`
}
