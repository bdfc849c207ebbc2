package lesson

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

type (
	Service interface {
		ListLessons(ctx context.Context, p user.Principal, filter LessonFilter, ordering []core.DBOrdering) ([]Lesson, core.Pagination, error)
		GetLesson(ctx context.Context, p user.Principal, id string) (Lesson, error)
		CreateLesson(ctx context.Context, sl SaveLesson) (Lesson, error)
		UpdateLesson(ctx context.Context, id string, sl SaveLesson) (Lesson, error)
		DeleteLesson(ctx context.Context, id string) (LessonDeleteResult, error)

		ListExams(ctx context.Context, p user.Principal, filter ExamFilter, ordering []core.DBOrdering) ([]Exam, core.Pagination, error)
		CreateExam(ctx context.Context, p user.Principal, se SaveExam) (Exam, error)
		UpdateExam(ctx context.Context, p user.Principal, id string, se SaveExam) (Exam, error)
		DeleteExam(ctx context.Context, p user.Principal, id string) (ResultsDeleteResult, error)

		ListAssignments(ctx context.Context, p user.Principal, filter AssignmentFilter, ordering []core.DBOrdering) ([]Assignment, core.Pagination, error)
		CreateAssignment(ctx context.Context, p user.Principal, sa SaveAssignment) (Assignment, error)
		UpdateAssignment(ctx context.Context, p user.Principal, id string, sa SaveAssignment) (Assignment, error)
		SetAssignmentPDF(ctx context.Context, p user.Principal, id string, data []byte) (Assignment, error)
		DeleteAssignment(ctx context.Context, p user.Principal, id string) (ResultsDeleteResult, error)

		ListResults(ctx context.Context, p user.Principal, filter ResultFilter, ordering []core.DBOrdering) ([]Result, core.Pagination, error)
		CreateResult(ctx context.Context, p user.Principal, sr SaveResult) (Result, error)
		UpdateResult(ctx context.Context, p user.Principal, id string, sr SaveResult) (Result, error)
		DeleteResult(ctx context.Context, p user.Principal, id string) error
	}

	// Deps holds the optional collaborators of the lesson service.
	Deps struct {
		Files   core.FileStorage
		Metrics core.Metrics
	}

	service struct {
		tx   core.Transactor
		repo Repository
		conf *core.Config
		deps Deps
	}
)

var _ Service = (*service)(nil) // interface compliance check

var nowFunc = time.Now // mockable

func NewService(tx core.Transactor, repo Repository, conf *core.Config, deps ...Deps) Service {
	svc := &service{tx: tx, repo: repo, conf: conf}
	if len(deps) > 0 {
		svc.deps = deps[0]
	}
	if svc.deps.Metrics == nil {
		svc.deps.Metrics = core.NopMetrics
	}
	return svc
}

func (svc *service) perPage() int {
	if svc.conf != nil && svc.conf.Pagination.ItemsPerPage > 0 {
		return svc.conf.Pagination.ItemsPerPage
	}
	return 10
}

// canManage reports whether p may write the exams, assignments and results of l.
func canManage(p user.Principal, l Lesson) error {
	switch p := p.(type) {
	case user.AdminPrincipal:
		return nil
	case user.TeacherPrincipal:
		if p.ID == l.TeacherID {
			return nil
		}
		return ErrNotLessonTeacher
	}
	return core.NewPermissionError("")
}

// Lessons

func (svc *service) ListLessons(ctx context.Context, p user.Principal, filter LessonFilter, ordering []core.DBOrdering) ([]Lesson, core.Pagination, error) {
	filter.Clean()
	if filter.Day != "" {
		d, ok := schedule.ParseDay(filter.Day)
		if !ok {
			return nil, core.Pagination{}, core.NewValidationError(nil, core.FieldError{Field: "day", Error: "invalid day"})
		}
		filter.Day = string(d)
	}
	lessons, total, err := svc.repo.QueryLessons(ctx, p.Scope(), filter, ordering, svc.perPage())
	if err != nil {
		return nil, core.Pagination{}, err
	}
	return lessons, core.NewPagination(total, filter.Page, svc.perPage()), nil
}

func (svc *service) GetLesson(ctx context.Context, p user.Principal, id string) (Lesson, error) {
	return svc.repo.GetLesson(ctx, p.Scope(), id)
}

// lessonConflict applies the name and overlap rules to l.
// It returns the conflict kind ("class" or "teacher") along with the error.
func lessonConflict(l Lesson, classLessons, teacherLessons []Lesson) (string, error) {
	sameDay := func(lessons []Lesson) []schedule.Slot {
		slots := make([]schedule.Slot, 0, len(lessons))
		for _, o := range lessons {
			if !o.IsDelete && o.Day == l.Day {
				slots = append(slots, o.Slot())
			}
		}
		return slots
	}

	for _, o := range classLessons {
		if o.IsDelete || o.ID == l.ID {
			continue
		}
		if core.ContainsFold(l.Name, o.Name) {
			return "", core.NewValidationErrorf("a lesson with a similar name already exists in this class: %q", o.Name)
		}
	}

	iv := l.Slot().Interval
	if s, ok := schedule.FirstConflict(iv, sameDay(classLessons), l.ID); ok {
		return "class", core.NewValidationErrorf("class already has lesson %q at this time on %s", s.Name, l.Day)
	}
	if s, ok := schedule.FirstConflict(iv, sameDay(teacherLessons), l.ID); ok {
		return "teacher", core.NewValidationErrorf("teacher already has lesson %q at this time on %s", s.Name, l.Day)
	}
	return "", nil
}

// scheduleLesson runs the lesson scheduling rules against the stored lessons.
func (svc *service) scheduleLesson(ctx context.Context, tx core.DBExecutor, l Lesson) error {
	if !l.StartTime.Before(l.EndTime) {
		return ErrLessonTimeOrder
	}
	if err := svc.repo.CheckLessonRefs(ctx, l.SubjectID, l.ClassID, l.TeacherID, tx); err != nil {
		return err
	}
	teaches, err := svc.repo.TeacherTeachesSubject(ctx, l.TeacherID, l.SubjectID, tx)
	if err != nil {
		return err
	}
	if !teaches {
		return ErrTeacherSubject
	}

	classLessons, err := svc.repo.ClassLessons(ctx, l.ClassID, tx)
	if err != nil {
		return err
	}
	teacherLessons, err := svc.repo.TeacherLessons(ctx, l.TeacherID, l.Day, tx)
	if err != nil {
		return err
	}
	kind, err := lessonConflict(l, classLessons, teacherLessons)
	if kind != "" {
		svc.deps.Metrics.SchedulingConflict("lesson_" + kind)
	}
	return err
}

func (sl SaveLesson) apply(l *Lesson) {
	l.Name = sl.Name
	l.Day = schedule.Day(sl.Day)
	l.StartTime = sl.StartTime
	l.EndTime = sl.EndTime
	l.SubjectID = sl.SubjectID
	l.ClassID = sl.ClassID
	l.TeacherID = sl.TeacherID
}

func (svc *service) CreateLesson(ctx context.Context, sl SaveLesson) (Lesson, error) {
	l := Lesson{ID: uuid.New().String()}
	sl.apply(&l)
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if err := svc.scheduleLesson(ctx, tx, l); err != nil {
			return err
		}
		var err error
		l, err = svc.repo.CreateLesson(ctx, l, tx)
		return err
	})
	return l, err
}

func (svc *service) UpdateLesson(ctx context.Context, id string, sl SaveLesson) (Lesson, error) {
	var l Lesson
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		var err error
		if l, err = svc.repo.GetLesson(ctx, user.AdminScope{}, id, tx); err != nil {
			return err
		}
		sl.apply(&l)
		if err = svc.scheduleLesson(ctx, tx, l); err != nil {
			return err
		}
		l, err = svc.repo.UpdateLesson(ctx, l, tx)
		return err
	})
	return l, err
}

// DeleteLesson soft-deletes a lesson with its exams, assignments and attendance rows.
func (svc *service) DeleteLesson(ctx context.Context, id string) (LessonDeleteResult, error) {
	var res LessonDeleteResult
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if _, err := svc.repo.GetLesson(ctx, user.AdminScope{}, id, tx); err != nil {
			return err
		}
		var err error
		res, err = svc.repo.DeleteLesson(ctx, id, tx)
		return err
	})
	return res, err
}

// managedLesson loads an active lesson and checks that p may write its records.
func (svc *service) managedLesson(ctx context.Context, tx core.DBExecutor, p user.Principal, lessonID string) (Lesson, error) {
	l, err := svc.repo.GetLesson(ctx, user.AdminScope{}, lessonID, tx)
	if err != nil {
		return Lesson{}, err
	}
	return l, canManage(p, l)
}

// titleConflict rejects a title similar to another record of the same lesson.
func titleConflict(title string, slots []schedule.Slot) error {
	for _, s := range slots {
		if core.ContainsFold(title, s.Name) {
			return core.NewValidationErrorf("a record with a similar title already exists for this lesson: %q", s.Name)
		}
	}
	return nil
}

// Exams

func (svc *service) ListExams(ctx context.Context, p user.Principal, filter ExamFilter, ordering []core.DBOrdering) ([]Exam, core.Pagination, error) {
	filter.Clean()
	exams, total, err := svc.repo.QueryExams(ctx, p.Scope(), filter, ordering, svc.perPage())
	if err != nil {
		return nil, core.Pagination{}, err
	}
	return exams, core.NewPagination(total, filter.Page, svc.perPage()), nil
}

// examConflict checks e against the other exams of its class.
// Title duplicates only count within the same lesson.
func examConflict(e Exam, classExams []Exam) error {
	var sameLesson, all []schedule.Slot
	for _, o := range classExams {
		if o.IsDelete || o.ID == e.ID {
			continue
		}
		all = append(all, o.Slot())
		if o.LessonID == e.LessonID {
			sameLesson = append(sameLesson, o.Slot())
		}
	}
	if err := titleConflict(e.Title, sameLesson); err != nil {
		return err
	}
	if s, ok := schedule.FirstConflict(e.Slot().Interval, all, e.ID); ok {
		return core.NewValidationErrorf("exam time overlaps with existing exam %q", s.Name)
	}
	return nil
}

// scheduleExam runs the exam scheduling rules. startChanged is true on create.
func (svc *service) scheduleExam(ctx context.Context, tx core.DBExecutor, p user.Principal, e Exam, startChanged bool) error {
	l, err := svc.managedLesson(ctx, tx, p, e.LessonID)
	if err != nil {
		return err
	}
	if !e.Slot().Interval.Valid() {
		return ErrExamTimeOrder
	}
	if startChanged && e.StartTime.Before(nowFunc()) {
		return ErrStartInPast
	}
	classExams, err := svc.repo.ClassExams(ctx, l.ClassID, tx)
	if err != nil {
		return err
	}
	if err = examConflict(e, classExams); err != nil {
		svc.deps.Metrics.SchedulingConflict("exam")
		return err
	}
	return nil
}

func (svc *service) CreateExam(ctx context.Context, p user.Principal, se SaveExam) (Exam, error) {
	e := Exam{
		ID:        uuid.New().String(),
		Title:     se.Title,
		StartTime: se.StartTime.UTC(),
		EndTime:   se.EndTime.UTC(),
		LessonID:  se.LessonID,
	}
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if err := svc.scheduleExam(ctx, tx, p, e, true); err != nil {
			return err
		}
		var err error
		e, err = svc.repo.CreateExam(ctx, e, tx)
		return err
	})
	return e, err
}

func (svc *service) UpdateExam(ctx context.Context, p user.Principal, id string, se SaveExam) (Exam, error) {
	var e Exam
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		var err error
		if e, err = svc.repo.GetExam(ctx, user.AdminScope{}, id, tx); err != nil {
			return err
		}
		if _, err = svc.managedLesson(ctx, tx, p, e.LessonID); err != nil {
			return err
		}
		startChanged := !e.StartTime.Equal(se.StartTime)
		e.Title = se.Title
		e.StartTime = se.StartTime.UTC()
		e.EndTime = se.EndTime.UTC()
		e.LessonID = se.LessonID
		if err = svc.scheduleExam(ctx, tx, p, e, startChanged); err != nil {
			return err
		}
		e, err = svc.repo.UpdateExam(ctx, e, tx)
		return err
	})
	return e, err
}

// DeleteExam soft-deletes an exam and its results.
func (svc *service) DeleteExam(ctx context.Context, p user.Principal, id string) (ResultsDeleteResult, error) {
	var res ResultsDeleteResult
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		e, err := svc.repo.GetExam(ctx, user.AdminScope{}, id, tx)
		if err != nil {
			return err
		}
		if _, err = svc.managedLesson(ctx, tx, p, e.LessonID); err != nil {
			return err
		}
		res, err = svc.repo.DeleteExam(ctx, id, tx)
		return err
	})
	return res, err
}

// Assignments

func (svc *service) ListAssignments(ctx context.Context, p user.Principal, filter AssignmentFilter, ordering []core.DBOrdering) ([]Assignment, core.Pagination, error) {
	filter.Clean()
	items, total, err := svc.repo.QueryAssignments(ctx, p.Scope(), filter, ordering, svc.perPage())
	if err != nil {
		return nil, core.Pagination{}, err
	}
	return items, core.NewPagination(total, filter.Page, svc.perPage()), nil
}

func assignmentConflict(a Assignment, classAssignments []Assignment) error {
	var sameLesson, all []schedule.Slot
	for _, o := range classAssignments {
		if o.IsDelete || o.ID == a.ID {
			continue
		}
		all = append(all, o.Slot())
		if o.LessonID == a.LessonID {
			sameLesson = append(sameLesson, o.Slot())
		}
	}
	if err := titleConflict(a.Title, sameLesson); err != nil {
		return err
	}
	if s, ok := schedule.FirstConflict(a.Slot().Interval, all, a.ID); ok {
		return core.NewValidationErrorf("assignment period overlaps with existing assignment %q", s.Name)
	}
	return nil
}

func (svc *service) scheduleAssignment(ctx context.Context, tx core.DBExecutor, p user.Principal, a Assignment, startChanged bool) error {
	l, err := svc.managedLesson(ctx, tx, p, a.LessonID)
	if err != nil {
		return err
	}
	if !a.Slot().Interval.Valid() {
		return ErrDueDateOrder
	}
	if startChanged && a.StartDate.Before(schedule.Date(nowFunc().UTC())) {
		return ErrStartInPast
	}
	classAssignments, err := svc.repo.ClassAssignments(ctx, l.ClassID, tx)
	if err != nil {
		return err
	}
	if err = assignmentConflict(a, classAssignments); err != nil {
		svc.deps.Metrics.SchedulingConflict("assignment")
		return err
	}
	return nil
}

func (svc *service) CreateAssignment(ctx context.Context, p user.Principal, sa SaveAssignment) (Assignment, error) {
	start, due, err := sa.dates()
	if err != nil {
		return Assignment{}, core.NewValidationError(err)
	}
	a := Assignment{
		ID:        uuid.New().String(),
		Title:     sa.Title,
		StartDate: start,
		DueDate:   due,
		LessonID:  sa.LessonID,
	}
	err = svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if err := svc.scheduleAssignment(ctx, tx, p, a, true); err != nil {
			return err
		}
		var err error
		a, err = svc.repo.CreateAssignment(ctx, a, tx)
		return err
	})
	return a, err
}

func (svc *service) UpdateAssignment(ctx context.Context, p user.Principal, id string, sa SaveAssignment) (Assignment, error) {
	start, due, err := sa.dates()
	if err != nil {
		return Assignment{}, core.NewValidationError(err)
	}
	var a Assignment
	err = svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		var err error
		if a, err = svc.repo.GetAssignment(ctx, user.AdminScope{}, id, tx); err != nil {
			return err
		}
		if _, err = svc.managedLesson(ctx, tx, p, a.LessonID); err != nil {
			return err
		}
		startChanged := !a.StartDate.Equal(start)
		a.Title = sa.Title
		a.StartDate = start
		a.DueDate = due
		a.LessonID = sa.LessonID
		if err = svc.scheduleAssignment(ctx, tx, p, a, startChanged); err != nil {
			return err
		}
		a, err = svc.repo.UpdateAssignment(ctx, a, tx)
		return err
	})
	return a, err
}

// SetAssignmentPDF attaches a PDF to an assignment, replacing the previous one.
func (svc *service) SetAssignmentPDF(ctx context.Context, p user.Principal, id string, data []byte) (Assignment, error) {
	if svc.deps.Files == nil {
		return Assignment{}, errors.New("file storage is not configured")
	}
	a, err := svc.repo.GetAssignment(ctx, user.AdminScope{}, id)
	if err != nil {
		return Assignment{}, err
	}
	l, err := svc.repo.GetLesson(ctx, user.AdminScope{}, a.LessonID)
	if err != nil {
		return Assignment{}, err
	}
	if err = canManage(p, l); err != nil {
		return Assignment{}, err
	}
	name, err := svc.deps.Files.SavePDF(string(p.Role()), a.Title, data)
	if err != nil {
		return Assignment{}, err
	}
	if err = svc.repo.SetAssignmentPDF(ctx, id, name); err != nil {
		svc.deps.Files.Remove(name)
		return Assignment{}, err
	}
	if a.PdfName.Valid && a.PdfName.String != "" && a.PdfName.String != name {
		svc.deps.Files.Remove(a.PdfName.String)
	}
	a.PdfName = null.StringFrom(name)
	return a, nil
}

// DeleteAssignment soft-deletes an assignment and its results.
func (svc *service) DeleteAssignment(ctx context.Context, p user.Principal, id string) (ResultsDeleteResult, error) {
	var res ResultsDeleteResult
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		a, err := svc.repo.GetAssignment(ctx, user.AdminScope{}, id, tx)
		if err != nil {
			return err
		}
		if _, err = svc.managedLesson(ctx, tx, p, a.LessonID); err != nil {
			return err
		}
		res, err = svc.repo.DeleteAssignment(ctx, id, tx)
		return err
	})
	return res, err
}

// Results

func (svc *service) ListResults(ctx context.Context, p user.Principal, filter ResultFilter, ordering []core.DBOrdering) ([]Result, core.Pagination, error) {
	filter.Clean()
	results, total, err := svc.repo.QueryResults(ctx, p.Scope(), filter, ordering, svc.perPage())
	if err != nil {
		return nil, core.Pagination{}, err
	}
	return results, core.NewPagination(total, filter.Page, svc.perPage()), nil
}

// resultLesson resolves the lesson a result is graded in.
func (svc *service) resultLesson(ctx context.Context, tx core.DBExecutor, r Result) (string, error) {
	if r.ExamID.Valid {
		e, err := svc.repo.GetExam(ctx, user.AdminScope{}, r.ExamID.String, tx)
		return e.LessonID, err
	}
	a, err := svc.repo.GetAssignment(ctx, user.AdminScope{}, r.AssignmentID.String, tx)
	return a.LessonID, err
}

// checkResult resolves the references of r and checks that p grades the lesson.
func (svc *service) checkResult(ctx context.Context, tx core.DBExecutor, p user.Principal, r Result) error {
	classID, err := svc.repo.StudentClass(ctx, r.StudentID, tx)
	if err != nil {
		return err
	}
	lessonID, err := svc.resultLesson(ctx, tx, r)
	if err != nil {
		return err
	}
	l, err := svc.managedLesson(ctx, tx, p, lessonID)
	if err != nil {
		return err
	}
	if !classID.Valid || classID.String != l.ClassID {
		return ErrStudentNotInClass
	}
	return nil
}

// checkResultOwner checks that p grades the lesson of a stored result.
// Results whose exam or lesson is gone stay writable by admins only.
func (svc *service) checkResultOwner(ctx context.Context, tx core.DBExecutor, p user.Principal, r Result) error {
	if user.IsAdmin(p) {
		return nil
	}
	lessonID, err := svc.resultLesson(ctx, tx, r)
	if err == nil {
		_, err = svc.managedLesson(ctx, tx, p, lessonID)
	}
	if core.IsNotFound(err) {
		return ErrNotLessonTeacher
	}
	return err
}

func (sr SaveResult) apply(r *Result) {
	r.Score = sr.Score
	r.StudentID = sr.StudentID
	r.ExamID = null.NewString(sr.ExamID, sr.ExamID != "")
	r.AssignmentID = null.NewString(sr.AssignmentID, sr.AssignmentID != "")
}

func (svc *service) CreateResult(ctx context.Context, p user.Principal, sr SaveResult) (Result, error) {
	r := Result{ID: uuid.New().String()}
	sr.apply(&r)
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if err := svc.checkResult(ctx, tx, p, r); err != nil {
			return err
		}
		var err error
		r, err = svc.repo.CreateResult(ctx, r, tx)
		return err
	})
	return r, err
}

func (svc *service) UpdateResult(ctx context.Context, p user.Principal, id string, sr SaveResult) (Result, error) {
	var r Result
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		var err error
		if r, err = svc.repo.GetResult(ctx, user.AdminScope{}, id, tx); err != nil {
			return err
		}
		if err = svc.checkResultOwner(ctx, tx, p, r); err != nil {
			return err
		}
		sr.apply(&r)
		if err = svc.checkResult(ctx, tx, p, r); err != nil {
			return err
		}
		r, err = svc.repo.UpdateResult(ctx, r, tx)
		return err
	})
	return r, err
}

func (svc *service) DeleteResult(ctx context.Context, p user.Principal, id string) error {
	return svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		r, err := svc.repo.GetResult(ctx, user.AdminScope{}, id, tx)
		if err != nil {
			return err
		}
		if err = svc.checkResultOwner(ctx, tx, p, r); err != nil {
			return err
		}
		return svc.repo.DeleteResult(ctx, id, tx)
	})
}
