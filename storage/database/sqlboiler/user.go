package boiledrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

const personSearchDefaultOrder = "first_name ASC, last_name ASC"

var personSearchColumns = []string{"username", "first_name", "last_name", "email"}

// Accounts

func roleTable(role user.Role) (string, error) {
	switch role {
	case user.RoleAdmin, user.RoleTeacher, user.RoleStudent, user.RoleParent:
		return string(role), nil
	}
	return "", errors.Errorf("unknown role %q", role)
}

func (repo *Repository) getAccount(ctx context.Context, exec core.DBExecutor, role user.Role, mods ...qm.QueryMod) (user.Account, error) {
	table, err := roleTable(role)
	if err != nil {
		return user.Account{}, err
	}
	var acc user.Account
	switch role {
	case user.RoleAdmin:
		var a user.Admin
		err = selectOne(ctx, exec, &a, table, mods...)
		acc = a.Account()
	case user.RoleTeacher:
		var t user.Teacher
		err = selectOne(ctx, exec, &t, table, mods...)
		acc = t.Account()
	case user.RoleStudent:
		var s user.Student
		err = selectOne(ctx, exec, &s, table, mods...)
		acc = s.Account()
	case user.RoleParent:
		var p user.Parent
		err = selectOne(ctx, exec, &p, table, mods...)
		acc = p.Account()
	}
	if err != nil {
		return user.Account{}, trapNoRowsErr(err, user.ErrNotFound, "finding "+table+" account")
	}
	return acc, nil
}

func (repo *Repository) GetAccountByUsername(ctx context.Context, role user.Role, username string, exec ...core.DBExecutor) (user.Account, error) {
	return repo.getAccount(ctx, repo.getExec(exec), role, qm.Where("username = ?", username))
}

func (repo *Repository) GetAccountByID(ctx context.Context, role user.Role, id string, exec ...core.DBExecutor) (user.Account, error) {
	if !isUUID(id) {
		return user.Account{}, user.ErrNotFound
	}
	return repo.getAccount(ctx, repo.getExec(exec), role, qm.Where("id = ?", id))
}

func (repo *Repository) GetAccountByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.Account, error) {
	exe := repo.getExec(exec)
	for _, role := range []user.Role{user.RoleParent, user.RoleTeacher, user.RoleStudent} {
		acc, err := repo.getAccount(ctx, exe, role, qm.Where("email = ?", email), qm.OrderBy("is_delete ASC"))
		if err == nil {
			return acc, nil
		}
		if !core.IsNotFound(err) {
			return user.Account{}, err
		}
	}
	return user.Account{}, user.ErrNotFound
}

func (repo *Repository) SetPassword(ctx context.Context, role user.Role, id, hash string, exec ...core.DBExecutor) error {
	table, err := roleTable(role)
	if err != nil {
		return err
	}
	n, err := update(ctx, repo.getExec(exec), table, map[string]interface{}{"password": hash}, qm.Where("id = ?", id))
	if err != nil {
		return errors.Wrap(err, "setting password")
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *Repository) CheckUniqueness(ctx context.Context, role user.Role, username, email, phone, excludeID string, exec ...core.DBExecutor) error {
	table, err := roleTable(role)
	if err != nil {
		return err
	}
	checks := []struct{ field, value string }{{"username", username}}
	if role != user.RoleAdmin {
		checks = append(checks, struct{ field, value string }{"email", email})
	}
	if role == user.RoleTeacher || role == user.RoleParent {
		checks = append(checks, struct{ field, value string }{"phone", phone})
	}

	exe := repo.getExec(exec)
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		mods := []qm.QueryMod{qm.Where(c.field+" = ?", c.value)}
		if excludeID != "" {
			mods = append(mods, qm.Where("id <> ?", excludeID))
		}
		taken, err := exists(ctx, exe, table, mods...)
		if err != nil {
			return errors.Wrap(err, "checking "+c.field+" uniqueness")
		}
		if taken {
			return user.UniquenessError(role, c.field)
		}
	}
	return nil
}

// Admins

func (repo *Repository) CreateAdmin(ctx context.Context, adm user.Admin, exec ...core.DBExecutor) (user.Admin, error) {
	if adm.ID == "" {
		adm.ID = uuid.New().String()
	}
	q := `INSERT INTO admin (id, username, password, is_delete) VALUES (:id, :username, :password, :is_delete)`
	if _, err := namedExec(ctx, repo.getExec(exec), q, adm); err != nil {
		return user.Admin{}, errors.Wrap(err, "inserting admin")
	}
	return adm, nil
}

func (repo *Repository) CountAdmins(ctx context.Context, exec ...core.DBExecutor) (int64, error) {
	n, err := count(ctx, repo.getExec(exec), "admin", notDeleted)
	return n, errors.Wrap(err, "counting admins")
}

// Teachers

func teacherFilterMods(filter user.TeacherFilter) []qm.QueryMod {
	mods := searchMod(filter.PageQuery, personSearchColumns...)
	if filter.ClassID != "" {
		mods = append(mods, idMod("id IN (SELECT teacher_id FROM lesson WHERE class_id = ? AND NOT is_delete "+
			"UNION SELECT supervisor_id FROM class WHERE id = ? AND NOT is_delete)", filter.ClassID))
	}
	if filter.SubjectID != "" {
		mods = append(mods, idMod("id IN (SELECT teacher_id FROM teacher_subject_link WHERE subject_id = ?)", filter.SubjectID))
	}
	return mods
}

// loadSubjects fills the active subjects of teachers.
func (repo *Repository) loadSubjects(ctx context.Context, exec core.DBExecutor, teachers []user.Teacher) error {
	if len(teachers) == 0 {
		return nil
	}
	ids := make([]string, len(teachers))
	for i, t := range teachers {
		ids[i] = t.ID
	}
	query, args, err := sqlx.In(
		`SELECT l.teacher_id, s.id, s.name FROM teacher_subject_link l
		JOIN subject s ON s.id = l.subject_id
		WHERE NOT s.is_delete AND l.teacher_id IN (?)
		ORDER BY s.name`, ids)
	if err != nil {
		return errors.Wrap(err, "building subjects query")
	}
	var rows []struct {
		TeacherID string `db:"teacher_id"`
		user.SubjectRef
	}
	if err = sqlx.SelectContext(ctx, exec, &rows, exec.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "loading teacher subjects")
	}
	byTeacher := make(map[string][]user.SubjectRef, len(teachers))
	for _, r := range rows {
		byTeacher[r.TeacherID] = append(byTeacher[r.TeacherID], r.SubjectRef)
	}
	for i := range teachers {
		teachers[i].Subjects = byTeacher[teachers[i].ID]
		if teachers[i].Subjects == nil {
			teachers[i].Subjects = []user.SubjectRef{}
		}
	}
	return nil
}

func (repo *Repository) QueryTeachers(ctx context.Context, scope user.Scope, filter user.TeacherFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]user.Teacher, int64, error) {
	exe := repo.getExec(exec)
	mods := append([]qm.QueryMod{notDeleted}, teacherVisibility.mods(scope)...)
	mods = append(mods, teacherFilterMods(filter)...)

	teachers := make([]user.Teacher, 0)
	total, err := page(ctx, exe, &teachers, "teacher", filter.PageQuery, ordering, personSearchDefaultOrder, limit, mods...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying teachers")
	}
	if err = repo.loadSubjects(ctx, exe, teachers); err != nil {
		return nil, 0, err
	}
	return teachers, total, nil
}

func (repo *Repository) CountTeachers(ctx context.Context, exec ...core.DBExecutor) (int64, error) {
	n, err := count(ctx, repo.getExec(exec), "teacher", notDeleted)
	return n, errors.Wrap(err, "counting teachers")
}

func (repo *Repository) GetTeacher(ctx context.Context, scope user.Scope, id string, exec ...core.DBExecutor) (user.Teacher, error) {
	if !isUUID(id) {
		return user.Teacher{}, user.ErrTeacherNotFound
	}
	exe := repo.getExec(exec)
	mods := append(activeByID(id), teacherVisibility.mods(scope)...)
	var t user.Teacher
	if err := selectOne(ctx, exe, &t, "teacher", mods...); err != nil {
		return user.Teacher{}, trapNoRowsErr(err, user.ErrTeacherNotFound, "finding teacher")
	}
	teachers := []user.Teacher{t}
	if err := repo.loadSubjects(ctx, exe, teachers); err != nil {
		return user.Teacher{}, err
	}
	return teachers[0], nil
}

func (repo *Repository) MissingSubjects(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]string, error) {
	var valid, missing []string
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		} else {
			missing = append(missing, id)
		}
	}
	if len(valid) == 0 {
		return missing, nil
	}

	var found []string
	err := selectAll(ctx, repo.getExec(exec), &found, "subject",
		qm.Select("id"), qm.WhereIn("id IN ?", toArgs(valid)...), notDeleted)
	if err != nil {
		return nil, errors.Wrap(err, "checking subjects")
	}
	seen := make(map[string]bool, len(found))
	for _, id := range found {
		seen[id] = true
	}
	for _, id := range valid {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (repo *Repository) linkSubjects(ctx context.Context, exec core.DBExecutor, teacherID string, subjectIDs []string) error {
	for _, sid := range subjectIDs {
		_, err := exec.ExecContext(ctx,
			`INSERT INTO teacher_subject_link (teacher_id, subject_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			teacherID, sid)
		if err != nil {
			return errors.Wrap(err, "linking teacher subject")
		}
	}
	return nil
}

func (repo *Repository) CreateTeacher(ctx context.Context, t user.Teacher, subjectIDs []string, exec ...core.DBExecutor) (user.Teacher, error) {
	exe := repo.getExec(exec)
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	q := `INSERT INTO teacher (id, username, first_name, last_name, email, phone, address, img, blood_type, sex, password, created_at, is_delete)
		VALUES (:id, :username, :first_name, :last_name, :email, :phone, :address, :img, :blood_type, :sex, :password, :created_at, :is_delete)`
	if _, err := namedExec(ctx, exe, q, t); err != nil {
		return user.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	if err := repo.linkSubjects(ctx, exe, t.ID, subjectIDs); err != nil {
		return user.Teacher{}, err
	}
	return repo.GetTeacher(ctx, user.AdminScope{}, t.ID, exe)
}

func (repo *Repository) UpdateTeacher(ctx context.Context, t user.Teacher, subjectIDs []string, exec ...core.DBExecutor) (user.Teacher, error) {
	exe := repo.getExec(exec)
	q := `UPDATE teacher SET username = :username, first_name = :first_name, last_name = :last_name, email = :email,
		phone = :phone, address = :address, blood_type = :blood_type, sex = :sex, password = :password
		WHERE id = :id`
	if _, err := namedExec(ctx, exe, q, t); err != nil {
		return user.Teacher{}, errors.Wrap(err, "updating teacher")
	}
	if _, err := exe.ExecContext(ctx, `DELETE FROM teacher_subject_link WHERE teacher_id = $1`, t.ID); err != nil {
		return user.Teacher{}, errors.Wrap(err, "unlinking teacher subjects")
	}
	if err := repo.linkSubjects(ctx, exe, t.ID, subjectIDs); err != nil {
		return user.Teacher{}, err
	}
	return repo.GetTeacher(ctx, user.AdminScope{}, t.ID, exe)
}

func (repo *Repository) SetTeacherImg(ctx context.Context, id, img string, exec ...core.DBExecutor) error {
	n, err := update(ctx, repo.getExec(exec), "teacher", map[string]interface{}{"img": img}, activeByID(id)...)
	if err != nil {
		return errors.Wrap(err, "setting teacher img")
	}
	if n == 0 {
		return user.ErrTeacherNotFound
	}
	return nil
}

func (repo *Repository) CountSupervisedClasses(ctx context.Context, teacherID string, exec ...core.DBExecutor) (int64, error) {
	n, err := count(ctx, repo.getExec(exec), "class", qm.Where("supervisor_id = ?", teacherID), notDeleted)
	return n, errors.Wrap(err, "counting supervised classes")
}

func (repo *Repository) DeleteTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (user.TeacherDeleteResult, error) {
	exe := repo.getExec(exec)
	var res user.TeacherDeleteResult

	r, err := exe.ExecContext(ctx, `DELETE FROM teacher_subject_link WHERE teacher_id = $1`, id)
	if err != nil {
		return res, errors.Wrap(err, "unlinking teacher subjects")
	}
	if res.SubjectsAffected, err = r.RowsAffected(); err != nil {
		return res, errors.Wrap(err, "unlinking teacher subjects")
	}
	if res.LessonsAffected, err = softDelete(ctx, exe, "lesson", qm.Where("teacher_id = ?", id)); err != nil {
		return res, errors.Wrap(err, "deleting teacher lessons")
	}
	if _, err = softDelete(ctx, exe, "teacher", qm.Where("id = ?", id)); err != nil {
		return res, errors.Wrap(err, "deleting teacher")
	}
	return res, nil
}

// Students

func studentFilterMods(filter user.StudentFilter) []qm.QueryMod {
	mods := searchMod(filter.PageQuery, personSearchColumns...)
	if filter.ClassID != "" {
		mods = append(mods, idMod("class_id = ?", filter.ClassID))
	}
	if filter.GradeID != "" {
		mods = append(mods, idMod("grade_id = ?", filter.GradeID))
	}
	if filter.ParentID != "" {
		mods = append(mods, idMod("parent_id = ?", filter.ParentID))
	}
	if filter.TeacherID != "" {
		mods = append(mods, idMod("class_id IN ("+teacherClassesSQL+")", filter.TeacherID))
	}
	return mods
}

func (repo *Repository) QueryStudents(ctx context.Context, scope user.Scope, filter user.StudentFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]user.Student, int64, error) {
	mods := append([]qm.QueryMod{notDeleted}, studentVisibility.mods(scope)...)
	mods = append(mods, studentFilterMods(filter)...)

	students := make([]user.Student, 0)
	total, err := page(ctx, repo.getExec(exec), &students, "student", filter.PageQuery, ordering, personSearchDefaultOrder, limit, mods...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying students")
	}
	return students, total, nil
}

func (repo *Repository) CountStudents(ctx context.Context, exec ...core.DBExecutor) (int64, error) {
	n, err := count(ctx, repo.getExec(exec), "student", notDeleted)
	return n, errors.Wrap(err, "counting students")
}

func (repo *Repository) CountStudentsBySex(ctx context.Context, exec ...core.DBExecutor) ([]user.SexCount, error) {
	counts := make([]user.SexCount, 0, 2)
	err := sqlx.SelectContext(ctx, repo.getExec(exec), &counts,
		`SELECT sex, COUNT(*) AS count FROM student WHERE NOT is_delete GROUP BY sex ORDER BY sex`)
	if err != nil {
		return nil, errors.Wrap(err, "counting students by sex")
	}
	return counts, nil
}

func (repo *Repository) GetStudent(ctx context.Context, scope user.Scope, id string, exec ...core.DBExecutor) (user.Student, error) {
	if !isUUID(id) {
		return user.Student{}, user.ErrStudentNotFound
	}
	mods := append(activeByID(id), studentVisibility.mods(scope)...)
	var s user.Student
	if err := selectOne(ctx, repo.getExec(exec), &s, "student", mods...); err != nil {
		return user.Student{}, trapNoRowsErr(err, user.ErrStudentNotFound, "finding student")
	}
	return s, nil
}

func (repo *Repository) CheckStudentRefs(ctx context.Context, parentID, classID, gradeID string, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	refs := []struct {
		table, id string
		active    bool
	}{
		{"parent", parentID, true},
		{"class", classID, true},
		{"grade", gradeID, false},
	}
	for _, ref := range refs {
		if ref.id == "" {
			continue
		}
		if !isUUID(ref.id) {
			return core.NewNotFoundError(ref.table)
		}
		mods := []qm.QueryMod{qm.Where("id = ?", ref.id)}
		if ref.active {
			mods = append(mods, notDeleted)
		}
		ok, err := exists(ctx, exe, ref.table, mods...)
		if err != nil {
			return errors.Wrap(err, "checking "+ref.table)
		}
		if !ok {
			return core.NewNotFoundError(ref.table)
		}
	}
	return nil
}

func (repo *Repository) ClassSeats(ctx context.Context, classID, excludeStudentID string, exec ...core.DBExecutor) (int, int64, error) {
	if !isUUID(classID) {
		return 0, 0, core.NewNotFoundError("class")
	}
	exe := repo.getExec(exec)

	// FOR UPDATE serializes concurrent enrolments into the same class
	var capacity int
	err := sqlx.GetContext(ctx, exe, &capacity, `SELECT capacity FROM class WHERE id = $1 AND NOT is_delete FOR UPDATE`, classID)
	if err != nil {
		return 0, 0, trapNoRowsErr(err, core.NewNotFoundError("class"), "locking class")
	}

	mods := []qm.QueryMod{qm.Where("class_id = ?", classID), notDeleted}
	if excludeStudentID != "" {
		mods = append(mods, idMod("id <> ?", excludeStudentID))
	}
	enrolled, err := count(ctx, exe, "student", mods...)
	if err != nil {
		return 0, 0, errors.Wrap(err, "counting class students")
	}
	return capacity, enrolled, nil
}

func (repo *Repository) CreateStudent(ctx context.Context, s user.Student, exec ...core.DBExecutor) (user.Student, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	q := `INSERT INTO student (id, username, first_name, last_name, email, phone, address, img, blood_type, sex, password,
		created_at, is_delete, parent_id, class_id, grade_id)
		VALUES (:id, :username, :first_name, :last_name, :email, :phone, :address, :img, :blood_type, :sex, :password,
		:created_at, :is_delete, :parent_id, :class_id, :grade_id)`
	if _, err := namedExec(ctx, repo.getExec(exec), q, s); err != nil {
		return user.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo *Repository) UpdateStudent(ctx context.Context, s user.Student, exec ...core.DBExecutor) (user.Student, error) {
	q := `UPDATE student SET username = :username, first_name = :first_name, last_name = :last_name, email = :email,
		phone = :phone, address = :address, blood_type = :blood_type, sex = :sex, password = :password,
		parent_id = :parent_id, class_id = :class_id, grade_id = :grade_id
		WHERE id = :id`
	if _, err := namedExec(ctx, repo.getExec(exec), q, s); err != nil {
		return user.Student{}, errors.Wrap(err, "updating student")
	}
	return s, nil
}

func (repo *Repository) SetStudentImg(ctx context.Context, id, img string, exec ...core.DBExecutor) error {
	n, err := update(ctx, repo.getExec(exec), "student", map[string]interface{}{"img": img}, activeByID(id)...)
	if err != nil {
		return errors.Wrap(err, "setting student img")
	}
	if n == 0 {
		return user.ErrStudentNotFound
	}
	return nil
}

func (repo *Repository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) (user.StudentDeleteResult, error) {
	exe := repo.getExec(exec)
	var res user.StudentDeleteResult

	s, err := repo.GetStudent(ctx, user.AdminScope{}, id, exe)
	if err != nil {
		return res, err
	}
	res.ParentRemoved = s.ParentID.Valid
	res.ClassRemoved = s.ClassID.Valid
	res.GradeRemoved = s.GradeID.Valid

	if res.AttendanceAffected, err = softDelete(ctx, exe, "attendance", qm.Where("student_id = ?", id)); err != nil {
		return res, errors.Wrap(err, "deleting student attendance")
	}
	if res.ResultsAffected, err = softDelete(ctx, exe, "result", qm.Where("student_id = ?", id)); err != nil {
		return res, errors.Wrap(err, "deleting student results")
	}
	cols := map[string]interface{}{"parent_id": nil, "class_id": nil, "grade_id": nil, "is_delete": true}
	if _, err = update(ctx, exe, "student", cols, qm.Where("id = ?", id)); err != nil {
		return res, errors.Wrap(err, "deleting student")
	}
	return res, nil
}

// Parents

func (repo *Repository) QueryParents(ctx context.Context, scope user.Scope, filter user.ParentFilter, ordering []core.DBOrdering, limit int, exec ...core.DBExecutor) ([]user.Parent, int64, error) {
	mods := append([]qm.QueryMod{notDeleted}, parentVisibility.mods(scope)...)
	mods = append(mods, searchMod(filter.PageQuery, append(personSearchColumns, "phone")...)...)

	parents := make([]user.Parent, 0)
	total, err := page(ctx, repo.getExec(exec), &parents, "parent", filter.PageQuery, ordering, personSearchDefaultOrder, limit, mods...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying parents")
	}
	return parents, total, nil
}

func (repo *Repository) CountParents(ctx context.Context, exec ...core.DBExecutor) (int64, error) {
	n, err := count(ctx, repo.getExec(exec), "parent", notDeleted)
	return n, errors.Wrap(err, "counting parents")
}

func (repo *Repository) GetParent(ctx context.Context, scope user.Scope, id string, exec ...core.DBExecutor) (user.Parent, error) {
	if !isUUID(id) {
		return user.Parent{}, user.ErrParentNotFound
	}
	mods := append(activeByID(id), parentVisibility.mods(scope)...)
	var p user.Parent
	if err := selectOne(ctx, repo.getExec(exec), &p, "parent", mods...); err != nil {
		return user.Parent{}, trapNoRowsErr(err, user.ErrParentNotFound, "finding parent")
	}
	return p, nil
}

func (repo *Repository) CreateParent(ctx context.Context, p user.Parent, exec ...core.DBExecutor) (user.Parent, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	q := `INSERT INTO parent (id, username, first_name, last_name, email, phone, address, password, created_at, is_delete)
		VALUES (:id, :username, :first_name, :last_name, :email, :phone, :address, :password, :created_at, :is_delete)`
	if _, err := namedExec(ctx, repo.getExec(exec), q, p); err != nil {
		return user.Parent{}, errors.Wrap(err, "inserting parent")
	}
	return p, nil
}

func (repo *Repository) UpdateParent(ctx context.Context, p user.Parent, exec ...core.DBExecutor) (user.Parent, error) {
	q := `UPDATE parent SET username = :username, first_name = :first_name, last_name = :last_name, email = :email,
		phone = :phone, address = :address, password = :password
		WHERE id = :id`
	if _, err := namedExec(ctx, repo.getExec(exec), q, p); err != nil {
		return user.Parent{}, errors.Wrap(err, "updating parent")
	}
	return p, nil
}

func (repo *Repository) DeleteParent(ctx context.Context, id string, exec ...core.DBExecutor) (user.ParentDeleteResult, error) {
	exe := repo.getExec(exec)
	var res user.ParentDeleteResult
	var err error

	res.StudentsAffected, err = update(ctx, exe, "student", map[string]interface{}{"parent_id": nil},
		qm.Where("parent_id = ?", id), notDeleted)
	if err != nil {
		return res, errors.Wrap(err, "unlinking parent students")
	}
	if _, err = softDelete(ctx, exe, "parent", qm.Where("id = ?", id)); err != nil {
		return res, errors.Wrap(err, "deleting parent")
	}
	return res, nil
}

// Blacklist

func (repo *Repository) BlacklistTokens(ctx context.Context, bt user.BlacklistToken, exec ...core.DBExecutor) error {
	if bt.ID == "" {
		bt.ID = uuid.New().String()
	}
	if bt.CreatedAt.IsZero() {
		bt.CreatedAt = time.Now().UTC()
	}
	q := `INSERT INTO blacklist_token (id, user_id, access_token, refresh_token, created_at)
		VALUES (:id, :user_id, :access_token, :refresh_token, :created_at)`
	if _, err := namedExec(ctx, repo.getExec(exec), q, bt); err != nil {
		return errors.Wrap(err, "blacklisting tokens")
	}
	return nil
}

func (repo *Repository) IsTokenBlacklisted(ctx context.Context, token string, exec ...core.DBExecutor) (bool, error) {
	found, err := exists(ctx, repo.getExec(exec), "blacklist_token",
		qm.Where("access_token = ?", token), qm.Or("refresh_token = ?", token))
	return found, errors.Wrap(err, "checking blacklist")
}

func (repo *Repository) PurgeBlacklist(ctx context.Context, before time.Time, exec ...core.DBExecutor) (int64, error) {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM blacklist_token WHERE created_at < $1`, before.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "purging blacklist")
	}
	return res.RowsAffected()
}
