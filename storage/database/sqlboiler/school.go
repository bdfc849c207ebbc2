package boiledrepos

import (
	"context"
	"net/mail"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
	"github.com/Jaimin17/Zenith-School-Backend/core/school"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

// Grades

func (repo *Repository) QueryGrades(ctx context.Context, exec ...core.DBExecutor) ([]school.Grade, error) {
	grades := make([]school.Grade, 0)
	if err := selectAll(ctx, repo.getExec(exec), &grades, "grade", qm.OrderBy("level ASC")); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return grades, nil
}

func (repo *Repository) GetGrade(ctx context.Context, id string, exec ...core.DBExecutor) (school.Grade, error) {
	if !isUUID(id) {
		return school.Grade{}, school.ErrGradeNotFound
	}
	var g school.Grade
	if err := selectOne(ctx, repo.getExec(exec), &g, "grade", qm.Where("id = ?", id)); err != nil {
		return school.Grade{}, trapNoRowsErr(err, school.ErrGradeNotFound, "finding grade")
	}
	return g, nil
}

func (repo *Repository) GradeLevelExists(ctx context.Context, level int, exec ...core.DBExecutor) (bool, error) {
	found, err := exists(ctx, repo.getExec(exec), "grade", qm.Where("level = ?", level))
	return found, errors.Wrap(err, "checking grade level")
}

func (repo *Repository) CreateGrade(ctx context.Context, g school.Grade, exec ...core.DBExecutor) (school.Grade, error) {
	if _, err := namedExec(ctx, repo.getExec(exec), `INSERT INTO grade (id, level) VALUES (:id, :level)`, g); err != nil {
		return school.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return g, nil
}

// Subjects

func (repo *Repository) QuerySubjects(ctx context.Context, scope user.Scope, filter school.SubjectFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]school.Subject, int64, error) {
	mods := append([]qm.QueryMod{notDeleted}, subjectVisibility.mods(scope)...)
	mods = append(mods, searchMod(filter.PageQuery, "name")...)

	subjects := make([]school.Subject, 0)
	total, err := page(ctx, repo.getExec(exec), &subjects, "subject", filter.PageQuery, ordering, "name ASC", limit, mods...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying subjects")
	}
	return subjects, total, nil
}

func (repo *Repository) GetSubject(ctx context.Context, id string, exec ...core.DBExecutor) (school.Subject, error) {
	if !isUUID(id) {
		return school.Subject{}, school.ErrSubjectNotFound
	}
	var s school.Subject
	if err := selectOne(ctx, repo.getExec(exec), &s, "subject", activeByID(id)...); err != nil {
		return school.Subject{}, trapNoRowsErr(err, school.ErrSubjectNotFound, "finding subject")
	}
	return s, nil
}

// nameTaken matches name case-insensitively among the rows of table other than excludeID.
func nameTaken(ctx context.Context, exec core.DBExecutor, table, name, excludeID string, activeOnly bool) (bool, error) {
	mods := []qm.QueryMod{qm.Where("lower(name) = lower(?)", name)}
	if excludeID != "" {
		mods = append(mods, qm.Where("id <> ?", excludeID))
	}
	if activeOnly {
		mods = append(mods, notDeleted)
	}
	return exists(ctx, exec, table, mods...)
}

func (repo *Repository) SubjectNameExists(ctx context.Context, name, excludeID string, exec ...core.DBExecutor) (bool, error) {
	found, err := nameTaken(ctx, repo.getExec(exec), "subject", name, excludeID, true)
	return found, errors.Wrap(err, "checking subject name")
}

func (repo *Repository) CreateSubject(ctx context.Context, s school.Subject, exec ...core.DBExecutor) (school.Subject, error) {
	q := `INSERT INTO subject (id, name, is_delete) VALUES (:id, :name, :is_delete)`
	if _, err := namedExec(ctx, repo.getExec(exec), q, s); err != nil {
		return school.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return s, nil
}

func (repo *Repository) UpdateSubject(ctx context.Context, s school.Subject, exec ...core.DBExecutor) (school.Subject, error) {
	if _, err := namedExec(ctx, repo.getExec(exec), `UPDATE subject SET name = :name WHERE id = :id`, s); err != nil {
		return school.Subject{}, errors.Wrap(err, "updating subject")
	}
	return s, nil
}

func (repo *Repository) DeleteSubject(ctx context.Context, id string, exec ...core.DBExecutor) (school.SubjectDeleteResult, error) {
	exe := repo.getExec(exec)
	var res school.SubjectDeleteResult

	r, err := exe.ExecContext(ctx, `DELETE FROM teacher_subject_link WHERE subject_id = $1`, id)
	if err != nil {
		return res, errors.Wrap(err, "unlinking subject teachers")
	}
	if res.TeachersAffected, err = r.RowsAffected(); err != nil {
		return res, errors.Wrap(err, "unlinking subject teachers")
	}
	if res.LessonsAffected, err = softDelete(ctx, exe, "lesson", qm.Where("subject_id = ?", id)); err != nil {
		return res, errors.Wrap(err, "deleting subject lessons")
	}
	if _, err = softDelete(ctx, exe, "subject", qm.Where("id = ?", id)); err != nil {
		return res, errors.Wrap(err, "deleting subject")
	}
	return res, nil
}

// Classes

func (repo *Repository) QueryClasses(ctx context.Context, scope user.Scope, filter school.ClassFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]school.Class, int64, error) {
	mods := append([]qm.QueryMod{notDeleted}, classVisibility.mods(scope)...)
	mods = append(mods, searchMod(filter.PageQuery, "name")...)
	if filter.SupervisorID != "" {
		mods = append(mods, idMod("supervisor_id = ?", filter.SupervisorID))
	}
	if filter.GradeID != "" {
		mods = append(mods, idMod("grade_id = ?", filter.GradeID))
	}

	classes := make([]school.Class, 0)
	total, err := page(ctx, repo.getExec(exec), &classes, "class", filter.PageQuery, ordering, "name ASC", limit, mods...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying classes")
	}
	return classes, total, nil
}

func (repo *Repository) GetClass(ctx context.Context, scope user.Scope, id string, exec ...core.DBExecutor) (school.Class, error) {
	if !isUUID(id) {
		return school.Class{}, school.ErrClassNotFound
	}
	mods := append(activeByID(id), classVisibility.mods(scope)...)
	var c school.Class
	if err := selectOne(ctx, repo.getExec(exec), &c, "class", mods...); err != nil {
		return school.Class{}, trapNoRowsErr(err, school.ErrClassNotFound, "finding class")
	}
	return c, nil
}

// ClassNameExists checks every class, deleted ones included: the column is unique.
func (repo *Repository) ClassNameExists(ctx context.Context, name, excludeID string, exec ...core.DBExecutor) (bool, error) {
	found, err := nameTaken(ctx, repo.getExec(exec), "class", name, excludeID, false)
	return found, errors.Wrap(err, "checking class name")
}

func (repo *Repository) TeacherExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	found, err := exists(ctx, repo.getExec(exec), "teacher", activeByID(id)...)
	return found, errors.Wrap(err, "checking teacher")
}

func (repo *Repository) CreateClass(ctx context.Context, c school.Class, exec ...core.DBExecutor) (school.Class, error) {
	q := `INSERT INTO class (id, name, capacity, supervisor_id, grade_id, is_delete)
		VALUES (:id, :name, :capacity, :supervisor_id, :grade_id, :is_delete)`
	if _, err := namedExec(ctx, repo.getExec(exec), q, c); err != nil {
		return school.Class{}, errors.Wrap(err, "inserting class")
	}
	return c, nil
}

func (repo *Repository) UpdateClass(ctx context.Context, c school.Class, exec ...core.DBExecutor) (school.Class, error) {
	q := `UPDATE class SET name = :name, capacity = :capacity, supervisor_id = :supervisor_id, grade_id = :grade_id
		WHERE id = :id`
	if _, err := namedExec(ctx, repo.getExec(exec), q, c); err != nil {
		return school.Class{}, errors.Wrap(err, "updating class")
	}
	return c, nil
}

func (repo *Repository) DeleteClass(ctx context.Context, id string, exec ...core.DBExecutor) (school.ClassDeleteResult, error) {
	exe := repo.getExec(exec)
	var res school.ClassDeleteResult
	var err error

	byClass := qm.Where("class_id = ?", id)
	if res.LessonsAffected, err = softDelete(ctx, exe, "lesson", byClass); err != nil {
		return res, errors.Wrap(err, "deleting class lessons")
	}
	if res.StudentsAffected, err = softDelete(ctx, exe, "student", byClass); err != nil {
		return res, errors.Wrap(err, "deleting class students")
	}
	if res.EventsAffected, err = softDelete(ctx, exe, "event", byClass); err != nil {
		return res, errors.Wrap(err, "deleting class events")
	}
	if res.AnnouncementsAffected, err = softDelete(ctx, exe, "announcement", byClass); err != nil {
		return res, errors.Wrap(err, "deleting class announcements")
	}
	if _, err = softDelete(ctx, exe, "class", qm.Where("id = ?", id)); err != nil {
		return res, errors.Wrap(err, "deleting class")
	}
	return res, nil
}

// Events

func (repo *Repository) QueryEvents(ctx context.Context, scope user.Scope, filter school.EventFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]school.Event, int64, error) {
	mods := append([]qm.QueryMod{notDeleted}, eventVisibility.mods(scope)...)
	mods = append(mods, searchMod(filter.PageQuery, "title", "description")...)
	if filter.ClassID != "" {
		mods = append(mods, idMod("class_id = ?", filter.ClassID))
	}
	if day := filter.Day(); !day.IsZero() {
		mods = append(mods, qm.Where("start_time < ? AND end_time > ?", day.AddDate(0, 0, 1), day))
	}

	events := make([]school.Event, 0)
	total, err := page(ctx, repo.getExec(exec), &events, "event", filter.PageQuery, ordering, "start_time ASC", limit, mods...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying events")
	}
	return events, total, nil
}

func (repo *Repository) GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (school.Event, error) {
	if !isUUID(id) {
		return school.Event{}, school.ErrEventNotFound
	}
	var e school.Event
	if err := selectOne(ctx, repo.getExec(exec), &e, "event", activeByID(id)...); err != nil {
		return school.Event{}, trapNoRowsErr(err, school.ErrEventNotFound, "finding event")
	}
	return e, nil
}

func (repo *Repository) OverlappingEvents(ctx context.Context, classID null.String, iv schedule.Interval, excludeID string, exec ...core.DBExecutor) ([]school.Event, error) {
	mods := []qm.QueryMod{
		notDeleted,
		qm.Where("start_time < ? AND end_time > ?", iv.End.UTC(), iv.Start.UTC()),
		qm.OrderBy("start_time ASC, id ASC"),
	}
	if classID.Valid {
		mods = append(mods, qm.Where("(class_id IS NULL OR class_id = ?)", classID.String))
	}
	if excludeID != "" {
		mods = append(mods, qm.Where("id <> ?", excludeID))
	}

	events := make([]school.Event, 0)
	if err := selectAll(ctx, repo.getExec(exec), &events, "event", mods...); err != nil {
		return nil, errors.Wrap(err, "finding overlapping events")
	}
	return events, nil
}

func (repo *Repository) CreateEvent(ctx context.Context, e school.Event, exec ...core.DBExecutor) (school.Event, error) {
	q := `INSERT INTO event (id, title, description, start_time, end_time, class_id, is_delete)
		VALUES (:id, :title, :description, :start_time, :end_time, :class_id, :is_delete)`
	if _, err := namedExec(ctx, repo.getExec(exec), q, e); err != nil {
		return school.Event{}, errors.Wrap(err, "inserting event")
	}
	return e, nil
}

func (repo *Repository) UpdateEvent(ctx context.Context, e school.Event, exec ...core.DBExecutor) (school.Event, error) {
	q := `UPDATE event SET title = :title, description = :description, start_time = :start_time,
		end_time = :end_time, class_id = :class_id
		WHERE id = :id`
	if _, err := namedExec(ctx, repo.getExec(exec), q, e); err != nil {
		return school.Event{}, errors.Wrap(err, "updating event")
	}
	return e, nil
}

func (repo *Repository) DeleteEvent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isUUID(id) {
		return school.ErrEventNotFound
	}
	n, err := softDelete(ctx, repo.getExec(exec), "event", qm.Where("id = ?", id))
	if err != nil {
		return errors.Wrap(err, "deleting event")
	}
	if n == 0 {
		return school.ErrEventNotFound
	}
	return nil
}

// Announcements

func (repo *Repository) QueryAnnouncements(ctx context.Context, scope user.Scope, filter school.AnnouncementFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]school.Announcement, int64, error) {
	mods := append([]qm.QueryMod{notDeleted}, announcementVisibility.mods(scope)...)
	mods = append(mods, searchMod(filter.PageQuery, "title", "description")...)
	if filter.ClassID != "" {
		mods = append(mods, idMod("class_id = ?", filter.ClassID))
	}

	items := make([]school.Announcement, 0)
	total, err := page(ctx, repo.getExec(exec), &items, "announcement", filter.PageQuery, ordering, "announcement_date DESC", limit, mods...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying announcements")
	}
	return items, total, nil
}

func (repo *Repository) GetAnnouncement(ctx context.Context, id string, exec ...core.DBExecutor) (school.Announcement, error) {
	if !isUUID(id) {
		return school.Announcement{}, school.ErrAnnouncementNotFound
	}
	var a school.Announcement
	if err := selectOne(ctx, repo.getExec(exec), &a, "announcement", activeByID(id)...); err != nil {
		return school.Announcement{}, trapNoRowsErr(err, school.ErrAnnouncementNotFound, "finding announcement")
	}
	return a, nil
}

func (repo *Repository) CreateAnnouncement(ctx context.Context, a school.Announcement, exec ...core.DBExecutor) (school.Announcement, error) {
	q := `INSERT INTO announcement (id, title, description, announcement_date, class_id, pdf_name, is_delete)
		VALUES (:id, :title, :description, :announcement_date, :class_id, :pdf_name, :is_delete)`
	if _, err := namedExec(ctx, repo.getExec(exec), q, a); err != nil {
		return school.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return a, nil
}

func (repo *Repository) UpdateAnnouncement(ctx context.Context, a school.Announcement, exec ...core.DBExecutor) (school.Announcement, error) {
	q := `UPDATE announcement SET title = :title, description = :description,
		announcement_date = :announcement_date, class_id = :class_id
		WHERE id = :id`
	if _, err := namedExec(ctx, repo.getExec(exec), q, a); err != nil {
		return school.Announcement{}, errors.Wrap(err, "updating announcement")
	}
	return a, nil
}

func (repo *Repository) SetAnnouncementPDF(ctx context.Context, id, pdfName string, exec ...core.DBExecutor) error {
	n, err := update(ctx, repo.getExec(exec), "announcement", map[string]interface{}{"pdf_name": pdfName}, activeByID(id)...)
	if err != nil {
		return errors.Wrap(err, "setting announcement pdf")
	}
	if n == 0 {
		return school.ErrAnnouncementNotFound
	}
	return nil
}

func (repo *Repository) DeleteAnnouncement(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isUUID(id) {
		return school.ErrAnnouncementNotFound
	}
	n, err := softDelete(ctx, repo.getExec(exec), "announcement", qm.Where("id = ?", id))
	if err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	if n == 0 {
		return school.ErrAnnouncementNotFound
	}
	return nil
}

func (repo *Repository) ClassRecipients(ctx context.Context, classID string, exec ...core.DBExecutor) ([]mail.Address, error) {
	var rows []struct {
		Name  string `db:"name"`
		Email string `db:"email"`
	}
	err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows,
		`SELECT first_name || ' ' || last_name AS name, email FROM student
		WHERE class_id = $1 AND NOT is_delete
		UNION
		SELECT p.first_name || ' ' || p.last_name, p.email FROM parent p
		JOIN student s ON s.parent_id = p.id
		WHERE s.class_id = $1 AND NOT s.is_delete AND NOT p.is_delete`, classID)
	if err != nil {
		return nil, errors.Wrap(err, "loading class recipients")
	}
	addrs := make([]mail.Address, 0, len(rows))
	for _, r := range rows {
		if r.Email == "" {
			continue
		}
		addrs = append(addrs, mail.Address{Name: r.Name, Address: r.Email})
	}
	return addrs, nil
}
