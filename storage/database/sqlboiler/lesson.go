package boiledrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/lesson"
	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

const (
	lessonDefaultOrder = "array_position(ARRAY['Monday','Tuesday','Wednesday','Thursday','Friday','Saturday']::varchar[], day), start_time ASC"

	classLessonsSQL   = "SELECT id FROM lesson WHERE class_id = ? AND NOT is_delete"
	teacherLessonsSQL = "SELECT id FROM lesson WHERE teacher_id = ? AND NOT is_delete"
)

// Lessons

func (repo *Repository) QueryLessons(ctx context.Context, scope user.Scope, filter lesson.LessonFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]lesson.Lesson, int64, error) {
	mods := append([]qm.QueryMod{notDeleted}, lessonVisibility.mods(scope)...)
	mods = append(mods, searchMod(filter.PageQuery, "name")...)
	if filter.TeacherID != "" {
		mods = append(mods, idMod("teacher_id = ?", filter.TeacherID))
	}
	if filter.ClassID != "" {
		mods = append(mods, idMod("class_id = ?", filter.ClassID))
	}
	if filter.Day != "" {
		if day, ok := schedule.ParseDay(filter.Day); ok {
			mods = append(mods, qm.Where("day = ?", string(day)))
		} else {
			mods = append(mods, qm.Where("false"))
		}
	}

	lessons := make([]lesson.Lesson, 0)
	total, err := page(ctx, repo.getExec(exec), &lessons, "lesson", filter.PageQuery, ordering, lessonDefaultOrder, limit, mods...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying lessons")
	}
	return lessons, total, nil
}

func (repo *Repository) GetLesson(ctx context.Context, scope user.Scope, id string, exec ...core.DBExecutor) (lesson.Lesson, error) {
	if !isUUID(id) {
		return lesson.Lesson{}, lesson.ErrLessonNotFound
	}
	mods := append(activeByID(id), lessonVisibility.mods(scope)...)
	var l lesson.Lesson
	if err := selectOne(ctx, repo.getExec(exec), &l, "lesson", mods...); err != nil {
		return lesson.Lesson{}, trapNoRowsErr(err, lesson.ErrLessonNotFound, "finding lesson")
	}
	return l, nil
}

func (repo *Repository) CheckLessonRefs(ctx context.Context, subjectID, classID, teacherID string, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	refs := []struct {
		table, id string
		notFound  error
	}{
		{"subject", subjectID, lesson.ErrSubjectNotFound},
		{"class", classID, lesson.ErrClassNotFound},
		{"teacher", teacherID, lesson.ErrTeacherNotFound},
	}
	for _, ref := range refs {
		if !isUUID(ref.id) {
			return ref.notFound
		}
		ok, err := exists(ctx, exe, ref.table, activeByID(ref.id)...)
		if err != nil {
			return errors.Wrap(err, "checking "+ref.table)
		}
		if !ok {
			return ref.notFound
		}
	}
	return nil
}

func (repo *Repository) TeacherTeachesSubject(ctx context.Context, teacherID, subjectID string, exec ...core.DBExecutor) (bool, error) {
	found, err := exists(ctx, repo.getExec(exec), "teacher_subject_link",
		qm.Where("teacher_id = ? AND subject_id = ?", teacherID, subjectID))
	return found, errors.Wrap(err, "checking teacher subject")
}

func (repo *Repository) ClassLessons(ctx context.Context, classID string, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	lessons := make([]lesson.Lesson, 0)
	err := selectAll(ctx, repo.getExec(exec), &lessons, "lesson",
		qm.Where("class_id = ?", classID), notDeleted, qm.OrderBy(lessonDefaultOrder))
	return lessons, errors.Wrap(err, "loading class lessons")
}

func (repo *Repository) TeacherLessons(ctx context.Context, teacherID string, day schedule.Day, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	lessons := make([]lesson.Lesson, 0)
	err := selectAll(ctx, repo.getExec(exec), &lessons, "lesson",
		qm.Where("teacher_id = ? AND day = ?", teacherID, string(day)), notDeleted, qm.OrderBy("start_time ASC"))
	return lessons, errors.Wrap(err, "loading teacher lessons")
}

func (repo *Repository) CreateLesson(ctx context.Context, l lesson.Lesson, exec ...core.DBExecutor) (lesson.Lesson, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	q := `INSERT INTO lesson (id, name, day, start_time, end_time, subject_id, class_id, teacher_id, is_delete)
		VALUES (:id, :name, :day, :start_time, :end_time, :subject_id, :class_id, :teacher_id, :is_delete)`
	if _, err := namedExec(ctx, repo.getExec(exec), q, l); err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return l, nil
}

func (repo *Repository) UpdateLesson(ctx context.Context, l lesson.Lesson, exec ...core.DBExecutor) (lesson.Lesson, error) {
	q := `UPDATE lesson SET name = :name, day = :day, start_time = :start_time, end_time = :end_time,
		subject_id = :subject_id, class_id = :class_id, teacher_id = :teacher_id
		WHERE id = :id`
	if _, err := namedExec(ctx, repo.getExec(exec), q, l); err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	return l, nil
}

func (repo *Repository) DeleteLesson(ctx context.Context, id string, exec ...core.DBExecutor) (lesson.LessonDeleteResult, error) {
	exe := repo.getExec(exec)
	var res lesson.LessonDeleteResult
	var err error

	byLesson := qm.Where("lesson_id = ?", id)
	if res.ExamsAffected, err = softDelete(ctx, exe, "exam", byLesson); err != nil {
		return res, errors.Wrap(err, "deleting lesson exams")
	}
	if res.AssignmentsAffected, err = softDelete(ctx, exe, "assignment", byLesson); err != nil {
		return res, errors.Wrap(err, "deleting lesson assignments")
	}
	if res.AttendanceAffected, err = softDelete(ctx, exe, "attendance", byLesson); err != nil {
		return res, errors.Wrap(err, "deleting lesson attendance")
	}
	if _, err = softDelete(ctx, exe, "lesson", qm.Where("id = ?", id)); err != nil {
		return res, errors.Wrap(err, "deleting lesson")
	}
	return res, nil
}

// lessonChildMods filters exams and assignments by their lesson, its class or its teacher.
func lessonChildMods(lessonID, classID, teacherID string) []qm.QueryMod {
	var mods []qm.QueryMod
	if lessonID != "" {
		mods = append(mods, idMod("lesson_id = ?", lessonID))
	}
	if classID != "" {
		mods = append(mods, idMod("lesson_id IN ("+classLessonsSQL+")", classID))
	}
	if teacherID != "" {
		mods = append(mods, idMod("lesson_id IN ("+teacherLessonsSQL+")", teacherID))
	}
	return mods
}

// Exams

func (repo *Repository) QueryExams(ctx context.Context, scope user.Scope, filter lesson.ExamFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]lesson.Exam, int64, error) {
	mods := append([]qm.QueryMod{notDeleted}, examVisibility.mods(scope)...)
	mods = append(mods, searchMod(filter.PageQuery, "title")...)
	mods = append(mods, lessonChildMods(filter.LessonID, filter.ClassID, filter.TeacherID)...)

	exams := make([]lesson.Exam, 0)
	total, err := page(ctx, repo.getExec(exec), &exams, "exam", filter.PageQuery, ordering, "start_time ASC", limit, mods...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying exams")
	}
	return exams, total, nil
}

func (repo *Repository) GetExam(ctx context.Context, scope user.Scope, id string, exec ...core.DBExecutor) (lesson.Exam, error) {
	if !isUUID(id) {
		return lesson.Exam{}, lesson.ErrExamNotFound
	}
	mods := append(activeByID(id), examVisibility.mods(scope)...)
	var e lesson.Exam
	if err := selectOne(ctx, repo.getExec(exec), &e, "exam", mods...); err != nil {
		return lesson.Exam{}, trapNoRowsErr(err, lesson.ErrExamNotFound, "finding exam")
	}
	return e, nil
}

func (repo *Repository) ClassExams(ctx context.Context, classID string, exec ...core.DBExecutor) ([]lesson.Exam, error) {
	exams := make([]lesson.Exam, 0)
	err := selectAll(ctx, repo.getExec(exec), &exams, "exam",
		qm.Where("lesson_id IN ("+classLessonsSQL+")", classID), notDeleted, qm.OrderBy("start_time ASC"))
	return exams, errors.Wrap(err, "loading class exams")
}

func (repo *Repository) CreateExam(ctx context.Context, e lesson.Exam, exec ...core.DBExecutor) (lesson.Exam, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	q := `INSERT INTO exam (id, title, start_time, end_time, lesson_id, is_delete)
		VALUES (:id, :title, :start_time, :end_time, :lesson_id, :is_delete)`
	if _, err := namedExec(ctx, repo.getExec(exec), q, e); err != nil {
		return lesson.Exam{}, errors.Wrap(err, "inserting exam")
	}
	return e, nil
}

func (repo *Repository) UpdateExam(ctx context.Context, e lesson.Exam, exec ...core.DBExecutor) (lesson.Exam, error) {
	q := `UPDATE exam SET title = :title, start_time = :start_time, end_time = :end_time, lesson_id = :lesson_id
		WHERE id = :id`
	if _, err := namedExec(ctx, repo.getExec(exec), q, e); err != nil {
		return lesson.Exam{}, errors.Wrap(err, "updating exam")
	}
	return e, nil
}

func (repo *Repository) DeleteExam(ctx context.Context, id string, exec ...core.DBExecutor) (lesson.ResultsDeleteResult, error) {
	exe := repo.getExec(exec)
	var res lesson.ResultsDeleteResult
	var err error

	if res.ResultsAffected, err = softDelete(ctx, exe, "result", qm.Where("exam_id = ?", id)); err != nil {
		return res, errors.Wrap(err, "deleting exam results")
	}
	if _, err = softDelete(ctx, exe, "exam", qm.Where("id = ?", id)); err != nil {
		return res, errors.Wrap(err, "deleting exam")
	}
	return res, nil
}

// Assignments

func (repo *Repository) QueryAssignments(ctx context.Context, scope user.Scope, filter lesson.AssignmentFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]lesson.Assignment, int64, error) {
	mods := append([]qm.QueryMod{notDeleted}, assignmentVisibility.mods(scope)...)
	mods = append(mods, searchMod(filter.PageQuery, "title")...)
	mods = append(mods, lessonChildMods(filter.LessonID, filter.ClassID, filter.TeacherID)...)

	items := make([]lesson.Assignment, 0)
	total, err := page(ctx, repo.getExec(exec), &items, "assignment", filter.PageQuery, ordering, "due_date ASC", limit, mods...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying assignments")
	}
	return items, total, nil
}

func (repo *Repository) GetAssignment(ctx context.Context, scope user.Scope, id string, exec ...core.DBExecutor) (lesson.Assignment, error) {
	if !isUUID(id) {
		return lesson.Assignment{}, lesson.ErrAssignmentNotFound
	}
	mods := append(activeByID(id), assignmentVisibility.mods(scope)...)
	var a lesson.Assignment
	if err := selectOne(ctx, repo.getExec(exec), &a, "assignment", mods...); err != nil {
		return lesson.Assignment{}, trapNoRowsErr(err, lesson.ErrAssignmentNotFound, "finding assignment")
	}
	return a, nil
}

func (repo *Repository) ClassAssignments(ctx context.Context, classID string, exec ...core.DBExecutor) ([]lesson.Assignment, error) {
	items := make([]lesson.Assignment, 0)
	err := selectAll(ctx, repo.getExec(exec), &items, "assignment",
		qm.Where("lesson_id IN ("+classLessonsSQL+")", classID), notDeleted, qm.OrderBy("start_date ASC, id ASC"))
	return items, errors.Wrap(err, "loading class assignments")
}

func (repo *Repository) CreateAssignment(ctx context.Context, a lesson.Assignment, exec ...core.DBExecutor) (lesson.Assignment, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	q := `INSERT INTO assignment (id, title, start_date, due_date, lesson_id, pdf_name, is_delete)
		VALUES (:id, :title, :start_date, :due_date, :lesson_id, :pdf_name, :is_delete)`
	if _, err := namedExec(ctx, repo.getExec(exec), q, a); err != nil {
		return lesson.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo *Repository) UpdateAssignment(ctx context.Context, a lesson.Assignment, exec ...core.DBExecutor) (lesson.Assignment, error) {
	q := `UPDATE assignment SET title = :title, start_date = :start_date, due_date = :due_date, lesson_id = :lesson_id
		WHERE id = :id`
	if _, err := namedExec(ctx, repo.getExec(exec), q, a); err != nil {
		return lesson.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return a, nil
}

func (repo *Repository) SetAssignmentPDF(ctx context.Context, id, name string, exec ...core.DBExecutor) error {
	n, err := update(ctx, repo.getExec(exec), "assignment", map[string]interface{}{"pdf_name": name}, activeByID(id)...)
	if err != nil {
		return errors.Wrap(err, "setting assignment pdf")
	}
	if n == 0 {
		return lesson.ErrAssignmentNotFound
	}
	return nil
}

func (repo *Repository) DeleteAssignment(ctx context.Context, id string, exec ...core.DBExecutor) (lesson.ResultsDeleteResult, error) {
	exe := repo.getExec(exec)
	var res lesson.ResultsDeleteResult
	var err error

	if res.ResultsAffected, err = softDelete(ctx, exe, "result", qm.Where("assignment_id = ?", id)); err != nil {
		return res, errors.Wrap(err, "deleting assignment results")
	}
	if _, err = softDelete(ctx, exe, "assignment", qm.Where("id = ?", id)); err != nil {
		return res, errors.Wrap(err, "deleting assignment")
	}
	return res, nil
}

// Results

func (repo *Repository) QueryResults(ctx context.Context, scope user.Scope, filter lesson.ResultFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]lesson.Result, int64, error) {
	mods := append([]qm.QueryMod{notDeleted}, resultVisibility.mods(scope)...)
	if filter.StudentID != "" {
		mods = append(mods, idMod("student_id = ?", filter.StudentID))
	}
	if filter.ExamID != "" {
		mods = append(mods, idMod("exam_id = ?", filter.ExamID))
	}
	if filter.AssignmentID != "" {
		mods = append(mods, idMod("assignment_id = ?", filter.AssignmentID))
	}
	if filter.Search != "" {
		mods = append(mods, qm.Where("student_id IN (SELECT id FROM student WHERE first_name ILIKE ? OR last_name ILIKE ?)",
			filter.SearchPattern(), filter.SearchPattern()))
	}

	results := make([]lesson.Result, 0)
	total, err := page(ctx, repo.getExec(exec), &results, "result", filter.PageQuery, ordering, "score DESC", limit, mods...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying results")
	}
	return results, total, nil
}

func (repo *Repository) GetResult(ctx context.Context, scope user.Scope, id string, exec ...core.DBExecutor) (lesson.Result, error) {
	if !isUUID(id) {
		return lesson.Result{}, lesson.ErrResultNotFound
	}
	mods := append(activeByID(id), resultVisibility.mods(scope)...)
	var r lesson.Result
	if err := selectOne(ctx, repo.getExec(exec), &r, "result", mods...); err != nil {
		return lesson.Result{}, trapNoRowsErr(err, lesson.ErrResultNotFound, "finding result")
	}
	return r, nil
}

func (repo *Repository) StudentClass(ctx context.Context, studentID string, exec ...core.DBExecutor) (null.String, error) {
	if !isUUID(studentID) {
		return null.String{}, lesson.ErrStudentNotFound
	}
	var classID null.String
	err := selectOne(ctx, repo.getExec(exec), &classID, "student", append(activeByID(studentID), qm.Select("class_id"))...)
	if err != nil {
		return null.String{}, trapNoRowsErr(err, lesson.ErrStudentNotFound, "finding student class")
	}
	return classID, nil
}

func (repo *Repository) CreateResult(ctx context.Context, r lesson.Result, exec ...core.DBExecutor) (lesson.Result, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	q := `INSERT INTO result (id, score, exam_id, assignment_id, student_id, is_delete)
		VALUES (:id, :score, :exam_id, :assignment_id, :student_id, :is_delete)`
	if _, err := namedExec(ctx, repo.getExec(exec), q, r); err != nil {
		return lesson.Result{}, errors.Wrap(err, "inserting result")
	}
	return r, nil
}

func (repo *Repository) UpdateResult(ctx context.Context, r lesson.Result, exec ...core.DBExecutor) (lesson.Result, error) {
	q := `UPDATE result SET score = :score, exam_id = :exam_id, assignment_id = :assignment_id, student_id = :student_id
		WHERE id = :id`
	if _, err := namedExec(ctx, repo.getExec(exec), q, r); err != nil {
		return lesson.Result{}, errors.Wrap(err, "updating result")
	}
	return r, nil
}

func (repo *Repository) DeleteResult(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isUUID(id) {
		return lesson.ErrResultNotFound
	}
	n, err := softDelete(ctx, repo.getExec(exec), "result", qm.Where("id = ?", id))
	if err != nil {
		return errors.Wrap(err, "deleting result")
	}
	if n == 0 {
		return lesson.ErrResultNotFound
	}
	return nil
}
