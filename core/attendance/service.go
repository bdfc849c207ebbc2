package attendance

import (
	"context"
	"math"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/lesson"
	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

type (
	Service interface {
		GetRoster(ctx context.Context, p user.Principal, lessonID, date string) (Roster, error)
		TakeAttendance(ctx context.Context, p user.Principal, ta TakeAttendance) (TakeResult, error)
		GetStatus(ctx context.Context, p user.Principal, lessonID, date string) (Summary, error)
		LessonsForDate(ctx context.Context, p user.Principal, date string) ([]LessonAttendance, error)
		CurrentWeek(ctx context.Context, p user.Principal) ([]Attendance, error)
		StudentSummary(ctx context.Context, p user.Principal, studentID string) (StudentSummary, error)
	}

	service struct {
		tx      core.Transactor
		repo    Repository
		metrics core.Metrics
	}
)

var _ Service = (*service)(nil) // interface compliance check

var nowFunc = time.Now // mockable

func NewService(tx core.Transactor, repo Repository, metrics ...core.Metrics) Service {
	svc := &service{tx: tx, repo: repo, metrics: core.NopMetrics}
	if len(metrics) > 0 && metrics[0] != nil {
		svc.metrics = metrics[0]
	}
	return svc
}

// parseDate reads a YYYY-MM-DD date, today (UTC) when empty.
func parseDate(s string) (time.Time, error) {
	s = core.CleanString(s)
	if s == "" {
		return schedule.Date(nowFunc().UTC()), nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// takenLesson loads a lesson and checks that p may take its attendance.
func (svc *service) takenLesson(ctx context.Context, p user.Principal, lessonID string, exec ...core.DBExecutor) (lesson.Lesson, error) {
	l, err := svc.repo.GetLesson(ctx, user.AdminScope{}, lessonID, exec...)
	if err != nil {
		return lesson.Lesson{}, err
	}
	switch p := p.(type) {
	case user.AdminPrincipal:
		return l, nil
	case user.TeacherPrincipal:
		if p.ID == l.TeacherID {
			return l, nil
		}
		return lesson.Lesson{}, ErrNotLessonTeacher
	}
	return lesson.Lesson{}, core.NewPermissionError("")
}

func summarize(roster int, rows []Attendance) Summary {
	s := Summary{TotalStudents: roster}
	for _, a := range rows {
		if a.IsDelete {
			continue
		}
		s.MarkedCount++
		if a.Present {
			s.PresentCount++
		} else {
			s.AbsentCount++
		}
	}
	s.Status = StatusOf(s.MarkedCount, roster)
	return s
}

func (svc *service) GetRoster(ctx context.Context, p user.Principal, lessonID, date string) (Roster, error) {
	d, err := parseDate(date)
	if err != nil {
		return Roster{}, err
	}
	l, err := svc.takenLesson(ctx, p, lessonID)
	if err != nil {
		return Roster{}, err
	}
	students, err := svc.repo.RosterStudents(ctx, l.ClassID)
	if err != nil {
		return Roster{}, err
	}
	rows, err := svc.repo.AttendanceOn(ctx, l.ID, d)
	if err != nil {
		return Roster{}, err
	}

	byStudent := make(map[string]Attendance, len(rows))
	for _, a := range rows {
		byStudent[a.StudentID] = a
	}
	entries := make([]RosterEntry, 0, len(students))
	for _, s := range students {
		e := RosterEntry{RosterStudent: s}
		if a, ok := byStudent[s.ID]; ok {
			e.AttendanceID = null.StringFrom(a.ID)
			e.Present = null.BoolFrom(a.Present)
		}
		entries = append(entries, e)
	}
	return Roster{
		LessonID: l.ID,
		Date:     d.Format(dateLayout),
		Students: entries,
		Summary:  summarize(len(students), rows),
	}, nil
}

func (svc *service) TakeAttendance(ctx context.Context, p user.Principal, ta TakeAttendance) (TakeResult, error) {
	if len(ta.Records) == 0 {
		return TakeResult{}, ErrEmptyRecords
	}
	d, err := time.Parse(dateLayout, ta.Date)
	if err != nil {
		return TakeResult{}, ErrInvalidDate
	}
	now := nowFunc()
	if d.After(schedule.Date(now.UTC())) {
		return TakeResult{}, ErrFutureDate
	}

	var res TakeResult
	err = svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		l, err := svc.takenLesson(ctx, p, ta.LessonID, tx)
		if err != nil {
			return err
		}
		students, err := svc.repo.RosterStudents(ctx, l.ClassID, tx)
		if err != nil {
			return err
		}
		existing, err := svc.repo.AttendanceOn(ctx, l.ID, d, tx)
		if err != nil {
			return err
		}
		roster := make([]string, len(students))
		for i, s := range students {
			roster[i] = s.ID
		}

		plan, err := PlanTake(l.ID, roster, existing, ta.Records, ta.OverwriteExisting, stampDate(d, now))
		if err != nil {
			return err
		}
		if len(plan.Create) > 0 {
			if err = svc.repo.CreateAttendance(ctx, plan.Create, tx); err != nil {
				return err
			}
		}
		if len(plan.Update) > 0 {
			if err = svc.repo.UpdateAttendance(ctx, plan.Update, tx); err != nil {
				return err
			}
		}

		res = TakeResult{
			CreatedCount:  len(plan.Create),
			UpdatedCount:  len(plan.Update),
			TotalStudents: len(students),
			Status:        StatusOf(len(existing)+len(plan.Create), len(students)),
		}
		for _, r := range ta.Records {
			if r.Present {
				res.PresentCount++
			} else {
				res.AbsentCount++
			}
		}
		return nil
	})
	if err != nil {
		return TakeResult{}, err
	}
	svc.metrics.AttendanceWritten(res.CreatedCount, res.UpdatedCount)
	return res, nil
}

func (svc *service) GetStatus(ctx context.Context, p user.Principal, lessonID, date string) (Summary, error) {
	d, err := parseDate(date)
	if err != nil {
		return Summary{}, err
	}
	l, err := svc.takenLesson(ctx, p, lessonID)
	if err != nil {
		return Summary{}, err
	}
	students, err := svc.repo.RosterStudents(ctx, l.ClassID)
	if err != nil {
		return Summary{}, err
	}
	rows, err := svc.repo.AttendanceOn(ctx, l.ID, d)
	if err != nil {
		return Summary{}, err
	}
	return summarize(len(students), rows), nil
}

// LessonsForDate lists the lessons p sees on the weekday of date, with their attendance progress.
func (svc *service) LessonsForDate(ctx context.Context, p user.Principal, date string) ([]LessonAttendance, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	day, ok := schedule.DayOf(d)
	if !ok {
		return []LessonAttendance{}, nil
	}
	lessons, err := svc.repo.LessonsOnDay(ctx, p.Scope(), day)
	if err != nil {
		return nil, err
	}

	out := make([]LessonAttendance, 0, len(lessons))
	for _, l := range lessons {
		students, err := svc.repo.RosterStudents(ctx, l.ClassID)
		if err != nil {
			return nil, err
		}
		rows, err := svc.repo.AttendanceOn(ctx, l.ID, d)
		if err != nil {
			return nil, err
		}
		s := summarize(len(students), rows)
		out = append(out, LessonAttendance{
			Lesson:           l,
			TotalStudents:    s.TotalStudents,
			MarkedCount:      s.MarkedCount,
			AttendanceStatus: s.Status,
		})
	}
	return out, nil
}

// CurrentWeek lists the attendance rows p sees from Monday 00:00 (UTC) until now.
func (svc *service) CurrentWeek(ctx context.Context, p user.Principal) ([]Attendance, error) {
	now := nowFunc().UTC()
	return svc.repo.QueryAttendance(ctx, p.Scope(), schedule.StartOfWeek(now), now)
}

// StudentSummary counts the attendance of a student over the current academic year.
func (svc *service) StudentSummary(ctx context.Context, p user.Principal, studentID string) (StudentSummary, error) {
	parentID, err := svc.repo.StudentParent(ctx, studentID)
	if err != nil {
		return StudentSummary{}, err
	}
	switch p := p.(type) {
	case user.StudentPrincipal:
		if p.ID != studentID {
			return StudentSummary{}, ErrNotOwnStudent
		}
	case user.ParentPrincipal:
		if !parentID.Valid || parentID.String != p.ID {
			return StudentSummary{}, ErrNotOwnChild
		}
	}

	from := schedule.StartOfAcademicYear(nowFunc().UTC())
	total, present, err := svc.repo.CountStudentAttendance(ctx, studentID, from)
	if err != nil {
		return StudentSummary{}, err
	}
	sum := StudentSummary{
		StudentID: studentID,
		From:      from.Format(dateLayout),
		Total:     total,
		Present:   present,
		Absent:    total - present,
	}
	if total > 0 {
		sum.Percentage = math.Round(float64(present)/float64(total)*10000) / 100
	}
	return sum, nil
}
