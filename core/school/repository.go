package school

import (
	"context"
	"net/mail"

	"github.com/volatiletech/null/v8"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

type Repository interface {
	// grades
	QueryGrades(ctx context.Context, exec ...core.DBExecutor) ([]Grade, error)
	GetGrade(ctx context.Context, id string, exec ...core.DBExecutor) (Grade, error)
	GradeLevelExists(ctx context.Context, level int, exec ...core.DBExecutor) (bool, error)
	CreateGrade(ctx context.Context, g Grade, exec ...core.DBExecutor) (Grade, error)

	// subjects
	QuerySubjects(ctx context.Context, scope user.Scope, filter SubjectFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]Subject, int64, error)
	GetSubject(ctx context.Context, id string, exec ...core.DBExecutor) (Subject, error)
	// SubjectNameExists does a case-insensitive match among active subjects other than excludeID.
	SubjectNameExists(ctx context.Context, name, excludeID string, exec ...core.DBExecutor) (bool, error)
	CreateSubject(ctx context.Context, s Subject, exec ...core.DBExecutor) (Subject, error)
	UpdateSubject(ctx context.Context, s Subject, exec ...core.DBExecutor) (Subject, error)
	DeleteSubject(ctx context.Context, id string, exec ...core.DBExecutor) (SubjectDeleteResult, error)

	// classes
	QueryClasses(ctx context.Context, scope user.Scope, filter ClassFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]Class, int64, error)
	GetClass(ctx context.Context, scope user.Scope, id string, exec ...core.DBExecutor) (Class, error)
	ClassNameExists(ctx context.Context, name, excludeID string, exec ...core.DBExecutor) (bool, error)
	TeacherExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error)
	CreateClass(ctx context.Context, c Class, exec ...core.DBExecutor) (Class, error)
	UpdateClass(ctx context.Context, c Class, exec ...core.DBExecutor) (Class, error)
	DeleteClass(ctx context.Context, id string, exec ...core.DBExecutor) (ClassDeleteResult, error)

	// events
	QueryEvents(ctx context.Context, scope user.Scope, filter EventFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]Event, int64, error)
	GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (Event, error)
	// OverlappingEvents returns the active events sharing the conflict scope of classID
	// (same class, global events, or every event when classID is null) that overlap iv,
	// ordered by start time.
	OverlappingEvents(ctx context.Context, classID null.String, iv schedule.Interval, excludeID string, exec ...core.DBExecutor) ([]Event, error)
	CreateEvent(ctx context.Context, e Event, exec ...core.DBExecutor) (Event, error)
	UpdateEvent(ctx context.Context, e Event, exec ...core.DBExecutor) (Event, error)
	DeleteEvent(ctx context.Context, id string, exec ...core.DBExecutor) error

	// announcements
	QueryAnnouncements(ctx context.Context, scope user.Scope, filter AnnouncementFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]Announcement, int64, error)
	GetAnnouncement(ctx context.Context, id string, exec ...core.DBExecutor) (Announcement, error)
	CreateAnnouncement(ctx context.Context, a Announcement, exec ...core.DBExecutor) (Announcement, error)
	UpdateAnnouncement(ctx context.Context, a Announcement, exec ...core.DBExecutor) (Announcement, error)
	SetAnnouncementPDF(ctx context.Context, id, pdfName string, exec ...core.DBExecutor) error
	DeleteAnnouncement(ctx context.Context, id string, exec ...core.DBExecutor) error
	// ClassRecipients returns the addresses of the active students of a class and of their parents.
	ClassRecipients(ctx context.Context, classID string, exec ...core.DBExecutor) ([]mail.Address, error)
}
