package user

import (
	"context"
	"time"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

type Repository interface {
	// accounts
	GetAccountByUsername(ctx context.Context, role Role, username string, exec ...core.DBExecutor) (Account, error)
	GetAccountByID(ctx context.Context, role Role, id string, exec ...core.DBExecutor) (Account, error)
	// GetAccountByEmail looks the email up among parents, teachers and students, in that order.
	GetAccountByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (Account, error)
	SetPassword(ctx context.Context, role Role, id, hash string, exec ...core.DBExecutor) error
	// CheckUniqueness returns a ConflictError naming the first of username, email or phone
	// already used by another account of the same role. Deleted accounts count too: the columns are unique.
	CheckUniqueness(ctx context.Context, role Role, username, email, phone, excludeID string, exec ...core.DBExecutor) error

	// admins
	CreateAdmin(ctx context.Context, adm Admin, exec ...core.DBExecutor) (Admin, error)
	CountAdmins(ctx context.Context, exec ...core.DBExecutor) (int64, error)

	// teachers
	QueryTeachers(ctx context.Context, scope Scope, filter TeacherFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]Teacher, int64, error)
	CountTeachers(ctx context.Context, exec ...core.DBExecutor) (int64, error)
	GetTeacher(ctx context.Context, scope Scope, id string, exec ...core.DBExecutor) (Teacher, error)
	// MissingSubjects returns the ids that do not resolve to an active subject.
	MissingSubjects(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]string, error)
	CreateTeacher(ctx context.Context, t Teacher, subjectIDs []string, exec ...core.DBExecutor) (Teacher, error)
	UpdateTeacher(ctx context.Context, t Teacher, subjectIDs []string, exec ...core.DBExecutor) (Teacher, error)
	SetTeacherImg(ctx context.Context, id, img string, exec ...core.DBExecutor) error
	CountSupervisedClasses(ctx context.Context, teacherID string, exec ...core.DBExecutor) (int64, error)
	DeleteTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (TeacherDeleteResult, error)

	// students
	QueryStudents(ctx context.Context, scope Scope, filter StudentFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]Student, int64, error)
	CountStudents(ctx context.Context, exec ...core.DBExecutor) (int64, error)
	CountStudentsBySex(ctx context.Context, exec ...core.DBExecutor) ([]SexCount, error)
	GetStudent(ctx context.Context, scope Scope, id string, exec ...core.DBExecutor) (Student, error)
	// CheckStudentRefs returns a NotFoundError for the first of parent, class or grade that does not resolve.
	CheckStudentRefs(ctx context.Context, parentID, classID, gradeID string, exec ...core.DBExecutor) error
	// ClassSeats locks the class row and returns its capacity and the number of its active students,
	// not counting excludeStudentID.
	ClassSeats(ctx context.Context, classID, excludeStudentID string, exec ...core.DBExecutor) (capacity int, enrolled int64, err error)
	CreateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
	UpdateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
	SetStudentImg(ctx context.Context, id, img string, exec ...core.DBExecutor) error
	DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) (StudentDeleteResult, error)

	// parents
	QueryParents(ctx context.Context, scope Scope, filter ParentFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]Parent, int64, error)
	CountParents(ctx context.Context, exec ...core.DBExecutor) (int64, error)
	GetParent(ctx context.Context, scope Scope, id string, exec ...core.DBExecutor) (Parent, error)
	CreateParent(ctx context.Context, p Parent, exec ...core.DBExecutor) (Parent, error)
	UpdateParent(ctx context.Context, p Parent, exec ...core.DBExecutor) (Parent, error)
	DeleteParent(ctx context.Context, id string, exec ...core.DBExecutor) (ParentDeleteResult, error)

	// blacklist
	BlacklistTokens(ctx context.Context, bt BlacklistToken, exec ...core.DBExecutor) error
	IsTokenBlacklisted(ctx context.Context, token string, exec ...core.DBExecutor) (bool, error)
	PurgeBlacklist(ctx context.Context, before time.Time, exec ...core.DBExecutor) (int64, error)
}

// RevocationCache remembers revoked tokens in front of the blacklist table.
type RevocationCache interface {
	// IsRevoked returns (revoked, found). found is false on a miss or a cache failure.
	IsRevoked(ctx context.Context, token string) (revoked bool, found bool)
	Remember(ctx context.Context, token string, revoked bool)
}
