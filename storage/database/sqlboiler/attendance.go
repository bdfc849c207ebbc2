package boiledrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/attendance"
	"github.com/Jaimin17/Zenith-School-Backend/core/lesson"
	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

func (repo *Repository) LessonsOnDay(ctx context.Context, scope user.Scope, day schedule.Day, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	mods := append([]qm.QueryMod{notDeleted, qm.Where("day = ?", string(day))}, lessonVisibility.mods(scope)...)
	mods = append(mods, qm.OrderBy("start_time ASC, id ASC"))

	lessons := make([]lesson.Lesson, 0)
	err := selectAll(ctx, repo.getExec(exec), &lessons, "lesson", mods...)
	return lessons, errors.Wrap(err, "loading lessons of the day")
}

func (repo *Repository) RosterStudents(ctx context.Context, classID string, exec ...core.DBExecutor) ([]attendance.RosterStudent, error) {
	students := make([]attendance.RosterStudent, 0)
	err := selectAll(ctx, repo.getExec(exec), &students, "student",
		qm.Select("id", "username", "first_name", "last_name"),
		qm.Where("class_id = ?", classID), notDeleted,
		qm.OrderBy("first_name ASC, last_name ASC, id ASC"))
	return students, errors.Wrap(err, "loading class roster")
}

func (repo *Repository) AttendanceOn(ctx context.Context, lessonID string, date time.Time, exec ...core.DBExecutor) ([]attendance.Attendance, error) {
	rows := make([]attendance.Attendance, 0)
	err := selectAll(ctx, repo.getExec(exec), &rows, "attendance",
		qm.Where("lesson_id = ? AND attendance_date::date = ?::date", lessonID, date.Format("2006-01-02")),
		notDeleted, qm.OrderBy("attendance_date ASC, id ASC"))
	return rows, errors.Wrap(err, "loading lesson attendance")
}

func (repo *Repository) CreateAttendance(ctx context.Context, rows []attendance.Attendance, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	q := `INSERT INTO attendance (id, student_id, lesson_id, attendance_date, present, is_delete)
		VALUES (:id, :student_id, :lesson_id, :attendance_date, :present, :is_delete)`
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.New().String()
		}
		if _, err := namedExec(ctx, exe, q, rows[i]); err != nil {
			return errors.Wrap(err, "inserting attendance")
		}
	}
	return nil
}

func (repo *Repository) UpdateAttendance(ctx context.Context, rows []attendance.Attendance, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	q := `UPDATE attendance SET present = :present, attendance_date = :attendance_date WHERE id = :id`
	for _, a := range rows {
		if _, err := namedExec(ctx, exe, q, a); err != nil {
			return errors.Wrap(err, "updating attendance")
		}
	}
	return nil
}

func (repo *Repository) QueryAttendance(ctx context.Context, scope user.Scope, from, to time.Time, exec ...core.DBExecutor) ([]attendance.Attendance, error) {
	mods := append([]qm.QueryMod{notDeleted}, attendanceVisibility.mods(scope)...)
	mods = append(mods,
		qm.Where("attendance_date >= ? AND attendance_date < ?", from, to),
		qm.OrderBy("attendance_date ASC, id ASC"))

	rows := make([]attendance.Attendance, 0)
	err := selectAll(ctx, repo.getExec(exec), &rows, "attendance", mods...)
	return rows, errors.Wrap(err, "querying attendance")
}

func (repo *Repository) StudentParent(ctx context.Context, studentID string, exec ...core.DBExecutor) (null.String, error) {
	if !isUUID(studentID) {
		return null.String{}, attendance.ErrStudentNotFound
	}
	var parentID null.String
	err := selectOne(ctx, repo.getExec(exec), &parentID, "student", append(activeByID(studentID), qm.Select("parent_id"))...)
	if err != nil {
		return null.String{}, trapNoRowsErr(err, attendance.ErrStudentNotFound, "finding student parent")
	}
	return parentID, nil
}

func (repo *Repository) CountStudentAttendance(ctx context.Context, studentID string, from time.Time, exec ...core.DBExecutor) (int, int, error) {
	var counts struct {
		Total   int `db:"total"`
		Present int `db:"present"`
	}
	err := sqlx.GetContext(ctx, repo.getExec(exec), &counts,
		`SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE present) AS present FROM attendance
		WHERE student_id = $1 AND attendance_date >= $2 AND NOT is_delete`, studentID, from)
	if err != nil {
		return 0, 0, errors.Wrap(err, "counting student attendance")
	}
	return counts.Total, counts.Present, nil
}
