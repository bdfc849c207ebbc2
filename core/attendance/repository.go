package attendance

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/lesson"
	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

type Repository interface {
	GetLesson(ctx context.Context, scope user.Scope, id string, exec ...core.DBExecutor) (lesson.Lesson, error)
	// LessonsOnDay returns the scoped active lessons held on day.
	LessonsOnDay(ctx context.Context, scope user.Scope, day schedule.Day, exec ...core.DBExecutor) ([]lesson.Lesson, error)
	// RosterStudents returns the active students of a class ordered by name.
	RosterStudents(ctx context.Context, classID string, exec ...core.DBExecutor) ([]RosterStudent, error)
	// AttendanceOn returns the active rows of a lesson whose attendance_date falls on date.
	AttendanceOn(ctx context.Context, lessonID string, date time.Time, exec ...core.DBExecutor) ([]Attendance, error)
	CreateAttendance(ctx context.Context, rows []Attendance, exec ...core.DBExecutor) error
	UpdateAttendance(ctx context.Context, rows []Attendance, exec ...core.DBExecutor) error
	// QueryAttendance returns the scoped active rows with from <= attendance_date < to.
	QueryAttendance(ctx context.Context, scope user.Scope, from, to time.Time, exec ...core.DBExecutor) ([]Attendance, error)
	// StudentParent returns the parent of an active student, ErrStudentNotFound otherwise.
	StudentParent(ctx context.Context, studentID string, exec ...core.DBExecutor) (null.String, error)
	// CountStudentAttendance counts the active rows of a student since from.
	CountStudentAttendance(ctx context.Context, studentID string, from time.Time, exec ...core.DBExecutor) (total, present int, err error)
}
