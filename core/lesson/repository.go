package lesson

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

type Repository interface {
	// lessons
	QueryLessons(ctx context.Context, scope user.Scope, filter LessonFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]Lesson, int64, error)
	GetLesson(ctx context.Context, scope user.Scope, id string, exec ...core.DBExecutor) (Lesson, error)
	// CheckLessonRefs returns the NotFoundError of the first of subject, class and teacher that is not active.
	CheckLessonRefs(ctx context.Context, subjectID, classID, teacherID string, exec ...core.DBExecutor) error
	TeacherTeachesSubject(ctx context.Context, teacherID, subjectID string, exec ...core.DBExecutor) (bool, error)
	// ClassLessons returns the active lessons of a class, every day included.
	ClassLessons(ctx context.Context, classID string, exec ...core.DBExecutor) ([]Lesson, error)
	// TeacherLessons returns the active lessons a teacher gives on day.
	TeacherLessons(ctx context.Context, teacherID string, day schedule.Day, exec ...core.DBExecutor) ([]Lesson, error)
	CreateLesson(ctx context.Context, l Lesson, exec ...core.DBExecutor) (Lesson, error)
	UpdateLesson(ctx context.Context, l Lesson, exec ...core.DBExecutor) (Lesson, error)
	DeleteLesson(ctx context.Context, id string, exec ...core.DBExecutor) (LessonDeleteResult, error)

	// exams
	QueryExams(ctx context.Context, scope user.Scope, filter ExamFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]Exam, int64, error)
	GetExam(ctx context.Context, scope user.Scope, id string, exec ...core.DBExecutor) (Exam, error)
	// ClassExams returns the active exams of the active lessons of a class.
	ClassExams(ctx context.Context, classID string, exec ...core.DBExecutor) ([]Exam, error)
	CreateExam(ctx context.Context, e Exam, exec ...core.DBExecutor) (Exam, error)
	UpdateExam(ctx context.Context, e Exam, exec ...core.DBExecutor) (Exam, error)
	DeleteExam(ctx context.Context, id string, exec ...core.DBExecutor) (ResultsDeleteResult, error)

	// assignments
	QueryAssignments(ctx context.Context, scope user.Scope, filter AssignmentFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]Assignment, int64, error)
	GetAssignment(ctx context.Context, scope user.Scope, id string, exec ...core.DBExecutor) (Assignment, error)
	ClassAssignments(ctx context.Context, classID string, exec ...core.DBExecutor) ([]Assignment, error)
	CreateAssignment(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error)
	UpdateAssignment(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error)
	SetAssignmentPDF(ctx context.Context, id, name string, exec ...core.DBExecutor) error
	DeleteAssignment(ctx context.Context, id string, exec ...core.DBExecutor) (ResultsDeleteResult, error)

	// results
	QueryResults(ctx context.Context, scope user.Scope, filter ResultFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]Result, int64, error)
	GetResult(ctx context.Context, scope user.Scope, id string, exec ...core.DBExecutor) (Result, error)
	// StudentClass returns the class of an active student, ErrStudentNotFound otherwise.
	StudentClass(ctx context.Context, studentID string, exec ...core.DBExecutor) (null.String, error)
	CreateResult(ctx context.Context, r Result, exec ...core.DBExecutor) (Result, error)
	UpdateResult(ctx context.Context, r Result, exec ...core.DBExecutor) (Result, error)
	DeleteResult(ctx context.Context, id string, exec ...core.DBExecutor) error
}
