package school

import (
	"context"
	"fmt"
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
		ListGrades(ctx context.Context) ([]Grade, error)
		CreateGrade(ctx context.Context, ng NewGrade) (Grade, error)

		ListSubjects(ctx context.Context, p user.Principal, filter SubjectFilter, ordering []core.DBOrdering) ([]Subject, core.Pagination, error)
		CreateSubject(ctx context.Context, ss SaveSubject) (Subject, error)
		UpdateSubject(ctx context.Context, id string, ss SaveSubject) (Subject, error)
		DeleteSubject(ctx context.Context, id string) (SubjectDeleteResult, error)

		ListClasses(ctx context.Context, p user.Principal, filter ClassFilter, ordering []core.DBOrdering) ([]Class, core.Pagination, error)
		GetClass(ctx context.Context, p user.Principal, id string) (Class, error)
		CreateClass(ctx context.Context, sc SaveClass) (Class, error)
		UpdateClass(ctx context.Context, id string, sc SaveClass) (Class, error)
		DeleteClass(ctx context.Context, id string) (ClassDeleteResult, error)

		ListEvents(ctx context.Context, p user.Principal, filter EventFilter, ordering []core.DBOrdering) ([]Event, core.Pagination, error)
		CreateEvent(ctx context.Context, se SaveEvent) (Event, error)
		UpdateEvent(ctx context.Context, id string, se SaveEvent) (Event, error)
		DeleteEvent(ctx context.Context, id string) error

		ListAnnouncements(ctx context.Context, p user.Principal, filter AnnouncementFilter, ordering []core.DBOrdering) ([]Announcement, core.Pagination, error)
		CreateAnnouncement(ctx context.Context, sa SaveAnnouncement) (Announcement, error)
		UpdateAnnouncement(ctx context.Context, id string, sa SaveAnnouncement) (Announcement, error)
		SetAnnouncementPDF(ctx context.Context, id string, data []byte) (Announcement, error)
		DeleteAnnouncement(ctx context.Context, id string) error
	}

	// Deps holds the optional collaborators of the school service.
	Deps struct {
		Files   core.FileStorage
		Mail    core.EmailService
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

// Grades

func (svc *service) ListGrades(ctx context.Context) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx)
}

func (svc *service) CreateGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	var g Grade
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		exists, err := svc.repo.GradeLevelExists(ctx, ng.Level, tx)
		if err != nil {
			return err
		}
		if exists {
			return ErrGradeExists
		}
		g, err = svc.repo.CreateGrade(ctx, Grade{ID: uuid.New().String(), Level: ng.Level}, tx)
		return err
	})
	return g, err
}

// Subjects

func (svc *service) ListSubjects(ctx context.Context, p user.Principal, filter SubjectFilter, ordering []core.DBOrdering) ([]Subject, core.Pagination, error) {
	filter.Clean()
	subjects, total, err := svc.repo.QuerySubjects(ctx, p.Scope(), filter, ordering, svc.perPage())
	if err != nil {
		return nil, core.Pagination{}, err
	}
	return subjects, core.NewPagination(total, filter.Page, svc.perPage()), nil
}

func (svc *service) CreateSubject(ctx context.Context, ss SaveSubject) (Subject, error) {
	var s Subject
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		exists, err := svc.repo.SubjectNameExists(ctx, ss.Name, "", tx)
		if err != nil {
			return err
		}
		if exists {
			return ErrSubjectExists
		}
		s, err = svc.repo.CreateSubject(ctx, Subject{ID: uuid.New().String(), Name: ss.Name}, tx)
		return err
	})
	return s, err
}

func (svc *service) UpdateSubject(ctx context.Context, id string, ss SaveSubject) (Subject, error) {
	var s Subject
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		var err error
		if s, err = svc.repo.GetSubject(ctx, id, tx); err != nil {
			return err
		}
		exists, err := svc.repo.SubjectNameExists(ctx, ss.Name, id, tx)
		if err != nil {
			return err
		}
		if exists {
			return ErrSubjectExists
		}
		s.Name = ss.Name
		s, err = svc.repo.UpdateSubject(ctx, s, tx)
		return err
	})
	return s, err
}

// DeleteSubject soft-deletes a subject, unlinking its teachers and soft-deleting its lessons.
func (svc *service) DeleteSubject(ctx context.Context, id string) (SubjectDeleteResult, error) {
	var res SubjectDeleteResult
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if _, err := svc.repo.GetSubject(ctx, id, tx); err != nil {
			return err
		}
		var err error
		res, err = svc.repo.DeleteSubject(ctx, id, tx)
		return err
	})
	return res, err
}

// Classes

func (svc *service) ListClasses(ctx context.Context, p user.Principal, filter ClassFilter, ordering []core.DBOrdering) ([]Class, core.Pagination, error) {
	filter.Clean()
	classes, total, err := svc.repo.QueryClasses(ctx, p.Scope(), filter, ordering, svc.perPage())
	if err != nil {
		return nil, core.Pagination{}, err
	}
	return classes, core.NewPagination(total, filter.Page, svc.perPage()), nil
}

func (svc *service) GetClass(ctx context.Context, p user.Principal, id string) (Class, error) {
	return svc.repo.GetClass(ctx, p.Scope(), id)
}

// checkClass validates the uniqueness and the references of a class being saved.
func (svc *service) checkClass(ctx context.Context, tx core.DBExecutor, sc SaveClass, excludeID string) error {
	exists, err := svc.repo.ClassNameExists(ctx, sc.Name, excludeID, tx)
	if err != nil {
		return err
	}
	if exists {
		return ErrClassExists
	}
	if sc.SupervisorID != "" {
		ok, err := svc.repo.TeacherExists(ctx, sc.SupervisorID, tx)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSupervisorNotFound
		}
	}
	if sc.GradeID != "" {
		if _, err := svc.repo.GetGrade(ctx, sc.GradeID, tx); err != nil {
			return err
		}
	}
	return nil
}

func (svc *service) CreateClass(ctx context.Context, sc SaveClass) (Class, error) {
	c := Class{
		ID:           uuid.New().String(),
		Name:         sc.Name,
		Capacity:     sc.Capacity,
		SupervisorID: null.NewString(sc.SupervisorID, sc.SupervisorID != ""),
		GradeID:      null.NewString(sc.GradeID, sc.GradeID != ""),
	}
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if err := svc.checkClass(ctx, tx, sc, ""); err != nil {
			return err
		}
		var err error
		c, err = svc.repo.CreateClass(ctx, c, tx)
		return err
	})
	return c, err
}

func (svc *service) UpdateClass(ctx context.Context, id string, sc SaveClass) (Class, error) {
	var c Class
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		var err error
		if c, err = svc.repo.GetClass(ctx, user.AdminScope{}, id, tx); err != nil {
			return err
		}
		if err = svc.checkClass(ctx, tx, sc, id); err != nil {
			return err
		}
		c.Name = sc.Name
		c.Capacity = sc.Capacity
		c.SupervisorID = null.NewString(sc.SupervisorID, sc.SupervisorID != "")
		c.GradeID = null.NewString(sc.GradeID, sc.GradeID != "")
		c, err = svc.repo.UpdateClass(ctx, c, tx)
		return err
	})
	return c, err
}

// DeleteClass soft-deletes a class with its lessons, students, events and announcements.
func (svc *service) DeleteClass(ctx context.Context, id string) (ClassDeleteResult, error) {
	var res ClassDeleteResult
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if _, err := svc.repo.GetClass(ctx, user.AdminScope{}, id, tx); err != nil {
			return err
		}
		var err error
		res, err = svc.repo.DeleteClass(ctx, id, tx)
		return err
	})
	return res, err
}

// Events

func (svc *service) ListEvents(ctx context.Context, p user.Principal, filter EventFilter, ordering []core.DBOrdering) ([]Event, core.Pagination, error) {
	filter.Clean()
	if err := filter.parse(); err != nil {
		return nil, core.Pagination{}, err
	}
	events, total, err := svc.repo.QueryEvents(ctx, p.Scope(), filter, ordering, svc.perPage())
	if err != nil {
		return nil, core.Pagination{}, err
	}
	return events, core.NewPagination(total, filter.Page, svc.perPage()), nil
}

// sharesConflictScope reports whether a and b may conflict:
// they belong to the same class, or one of them is global.
func sharesConflictScope(a, b Event) bool {
	return a.IsGlobal() || b.IsGlobal() || a.ClassID.String == b.ClassID.String
}

// eventConflict returns the 400 naming the first of others that e collides with.
func eventConflict(e Event, others []Event) error {
	slots := make([]schedule.Slot, 0, len(others))
	for _, o := range others {
		if o.IsDelete || !sharesConflictScope(e, o) {
			continue
		}
		slots = append(slots, o.Slot())
	}
	if s, ok := schedule.FirstConflict(e.Slot().Interval, slots, e.ID); ok {
		return core.NewValidationErrorf("event time overlaps with existing event %q", s.Name)
	}
	return nil
}

// scheduleEvent runs the event scheduling rules against the stored events.
func (svc *service) scheduleEvent(ctx context.Context, tx core.DBExecutor, e Event) error {
	iv := e.Slot().Interval
	if !iv.Valid() {
		return ErrEventTimeOrder
	}
	if e.ClassID.Valid {
		if _, err := svc.repo.GetClass(ctx, user.AdminScope{}, e.ClassID.String, tx); err != nil {
			return err
		}
	}
	others, err := svc.repo.OverlappingEvents(ctx, e.ClassID, iv, e.ID, tx)
	if err != nil {
		return err
	}
	if err = eventConflict(e, others); err != nil {
		svc.deps.Metrics.SchedulingConflict("event")
		return err
	}
	return nil
}

func (svc *service) CreateEvent(ctx context.Context, se SaveEvent) (Event, error) {
	e := Event{
		ID:          uuid.New().String(),
		Title:       se.Title,
		Description: se.Description,
		StartTime:   se.StartTime.UTC(),
		EndTime:     se.EndTime.UTC(),
		ClassID:     null.NewString(se.ClassID, se.ClassID != ""),
	}
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if err := svc.scheduleEvent(ctx, tx, e); err != nil {
			return err
		}
		var err error
		e, err = svc.repo.CreateEvent(ctx, e, tx)
		return err
	})
	return e, err
}

func (svc *service) UpdateEvent(ctx context.Context, id string, se SaveEvent) (Event, error) {
	var e Event
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		var err error
		if e, err = svc.repo.GetEvent(ctx, id, tx); err != nil {
			return err
		}
		e.Title = se.Title
		e.Description = se.Description
		e.StartTime = se.StartTime.UTC()
		e.EndTime = se.EndTime.UTC()
		e.ClassID = null.NewString(se.ClassID, se.ClassID != "")
		if err = svc.scheduleEvent(ctx, tx, e); err != nil {
			return err
		}
		e, err = svc.repo.UpdateEvent(ctx, e, tx)
		return err
	})
	return e, err
}

func (svc *service) DeleteEvent(ctx context.Context, id string) error {
	return svc.repo.DeleteEvent(ctx, id)
}

// Announcements

func (svc *service) ListAnnouncements(ctx context.Context, p user.Principal, filter AnnouncementFilter, ordering []core.DBOrdering) ([]Announcement, core.Pagination, error) {
	filter.Clean()
	items, total, err := svc.repo.QueryAnnouncements(ctx, p.Scope(), filter, ordering, svc.perPage())
	if err != nil {
		return nil, core.Pagination{}, err
	}
	return items, core.NewPagination(total, filter.Page, svc.perPage()), nil
}

func (svc *service) CreateAnnouncement(ctx context.Context, sa SaveAnnouncement) (Announcement, error) {
	a := Announcement{
		ID:               uuid.New().String(),
		Title:            sa.Title,
		Description:      sa.Description,
		AnnouncementDate: sa.date(nowFunc()),
		ClassID:          null.NewString(sa.ClassID, sa.ClassID != ""),
	}
	var cls Class
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		var err error
		if a.ClassID.Valid {
			if cls, err = svc.repo.GetClass(ctx, user.AdminScope{}, a.ClassID.String, tx); err != nil {
				return err
			}
		}
		a, err = svc.repo.CreateAnnouncement(ctx, a, tx)
		return err
	})
	if err != nil {
		return Announcement{}, err
	}
	if a.ClassID.Valid {
		svc.notifyClass(ctx, cls, a)
	}
	return a, nil
}

// notifyClass mails a class announcement to its students and their parents.
func (svc *service) notifyClass(ctx context.Context, cls Class, a Announcement) {
	if svc.deps.Mail == nil {
		return
	}
	recipients, err := svc.repo.ClassRecipients(ctx, cls.ID)
	if err != nil || len(recipients) == 0 {
		return
	}
	svc.deps.Mail.SendMessages(&core.EmailMessage{
		Bcc:          recipients,
		Subject:      fmt.Sprintf("%s: %s", cls.Name, a.Title),
		TemplateName: "announcement",
		TemplateData: map[string]interface{}{
			"ClassName":   cls.Name,
			"Title":       a.Title,
			"Description": a.Description,
			"Date":        a.AnnouncementDate.Format("2006-01-02"),
		},
	})
}

func (svc *service) UpdateAnnouncement(ctx context.Context, id string, sa SaveAnnouncement) (Announcement, error) {
	var a Announcement
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		var err error
		if a, err = svc.repo.GetAnnouncement(ctx, id, tx); err != nil {
			return err
		}
		if sa.ClassID != "" {
			if _, err = svc.repo.GetClass(ctx, user.AdminScope{}, sa.ClassID, tx); err != nil {
				return err
			}
		}
		a.Title = sa.Title
		a.Description = sa.Description
		if sa.AnnouncementDate != "" {
			a.AnnouncementDate = sa.date(nowFunc())
		}
		a.ClassID = null.NewString(sa.ClassID, sa.ClassID != "")
		a, err = svc.repo.UpdateAnnouncement(ctx, a, tx)
		return err
	})
	return a, err
}

// SetAnnouncementPDF attaches a PDF to an announcement, replacing the previous one.
func (svc *service) SetAnnouncementPDF(ctx context.Context, id string, data []byte) (Announcement, error) {
	if svc.deps.Files == nil {
		return Announcement{}, errors.New("file storage is not configured")
	}
	a, err := svc.repo.GetAnnouncement(ctx, id)
	if err != nil {
		return Announcement{}, err
	}
	name, err := svc.deps.Files.SavePDF(string(user.RoleAdmin), a.Title, data)
	if err != nil {
		return Announcement{}, err
	}
	if err = svc.repo.SetAnnouncementPDF(ctx, id, name); err != nil {
		svc.deps.Files.Remove(name)
		return Announcement{}, err
	}
	if a.PdfName.Valid && a.PdfName.String != "" && a.PdfName.String != name {
		svc.deps.Files.Remove(a.PdfName.String)
	}
	a.PdfName = null.StringFrom(name)
	return a, nil
}

func (svc *service) DeleteAnnouncement(ctx context.Context, id string) error {
	return svc.repo.DeleteAnnouncement(ctx, id)
}
