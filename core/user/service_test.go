package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

type fakeTx struct{}

func (fakeTx) Transact(_ context.Context, fn func(tx core.DBExecutor) error) error { return fn(nil) }

// fakeRepo implements the parts of Repository the service tests go through.
type fakeRepo struct {
	Repository

	accounts    map[Role]map[string]Account // {role: {username: Account}}
	teachers    map[string]Teacher
	students    map[string]Student
	capacity    map[string]int // {class id: capacity}
	supervised  int64
	blacklisted map[string]bool
	passwords   map[string]string
	lookups     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts:    make(map[Role]map[string]Account),
		teachers:    make(map[string]Teacher),
		students:    make(map[string]Student),
		capacity:    make(map[string]int),
		blacklisted: make(map[string]bool),
		passwords:   make(map[string]string),
	}
}

func (r *fakeRepo) addAccount(t *testing.T, acc Account, pwd string) Account {
	hash, err := HashPassword(pwd)
	require.NoError(t, err)
	acc.Password = hash
	if r.accounts[acc.Role] == nil {
		r.accounts[acc.Role] = make(map[string]Account)
	}
	r.accounts[acc.Role][acc.Username] = acc
	return acc
}

func (r *fakeRepo) GetAccountByUsername(_ context.Context, role Role, username string, _ ...core.DBExecutor) (Account, error) {
	if acc, ok := r.accounts[role][username]; ok {
		return acc, nil
	}
	return Account{}, ErrNotFound
}

func (r *fakeRepo) GetAccountByID(_ context.Context, role Role, id string, _ ...core.DBExecutor) (Account, error) {
	for _, acc := range r.accounts[role] {
		if acc.ID == id {
			return acc, nil
		}
	}
	return Account{}, ErrNotFound
}

func (r *fakeRepo) GetAccountByEmail(_ context.Context, email string, _ ...core.DBExecutor) (Account, error) {
	for _, role := range []Role{RoleParent, RoleTeacher, RoleStudent} {
		for _, acc := range r.accounts[role] {
			if acc.Email == email {
				return acc, nil
			}
		}
	}
	return Account{}, ErrNotFound
}

func (r *fakeRepo) SetPassword(_ context.Context, role Role, id, hash string, _ ...core.DBExecutor) error {
	for uname, acc := range r.accounts[role] {
		if acc.ID == id {
			acc.Password = hash
			r.accounts[role][uname] = acc
		}
	}
	r.passwords[id] = hash
	return nil
}

func (r *fakeRepo) GetTeacher(_ context.Context, _ Scope, id string, _ ...core.DBExecutor) (Teacher, error) {
	if t, ok := r.teachers[id]; ok {
		return t, nil
	}
	return Teacher{}, ErrTeacherNotFound
}

func (r *fakeRepo) SetTeacherImg(_ context.Context, id, img string, _ ...core.DBExecutor) error {
	t := r.teachers[id]
	t.Img = null.StringFrom(img)
	r.teachers[id] = t
	return nil
}

func (r *fakeRepo) CountSupervisedClasses(context.Context, string, ...core.DBExecutor) (int64, error) {
	return r.supervised, nil
}

func (r *fakeRepo) DeleteTeacher(_ context.Context, id string, _ ...core.DBExecutor) (TeacherDeleteResult, error) {
	delete(r.teachers, id)
	return TeacherDeleteResult{SubjectsAffected: 2, LessonsAffected: 3}, nil
}

func (r *fakeRepo) CheckUniqueness(context.Context, Role, string, string, string, string, ...core.DBExecutor) error {
	return nil
}

func (r *fakeRepo) CheckStudentRefs(context.Context, string, string, string, ...core.DBExecutor) error {
	return nil
}

func (r *fakeRepo) ClassSeats(_ context.Context, classID, excludeStudentID string, _ ...core.DBExecutor) (int, int64, error) {
	capacity, ok := r.capacity[classID]
	if !ok {
		return 0, 0, core.NewNotFoundError("class")
	}
	var enrolled int64
	for _, s := range r.students {
		if s.ClassID.String == classID && s.ID != excludeStudentID {
			enrolled++
		}
	}
	return capacity, enrolled, nil
}

func (r *fakeRepo) GetStudent(_ context.Context, _ Scope, id string, _ ...core.DBExecutor) (Student, error) {
	if s, ok := r.students[id]; ok {
		return s, nil
	}
	return Student{}, ErrStudentNotFound
}

func (r *fakeRepo) CreateStudent(_ context.Context, s Student, _ ...core.DBExecutor) (Student, error) {
	s.ID = "s" + s.Username
	r.students[s.ID] = s
	return s, nil
}

func (r *fakeRepo) UpdateStudent(_ context.Context, s Student, _ ...core.DBExecutor) (Student, error) {
	r.students[s.ID] = s
	return s, nil
}

func (r *fakeRepo) BlacklistTokens(_ context.Context, bt BlacklistToken, _ ...core.DBExecutor) error {
	r.blacklisted[bt.AccessToken] = true
	r.blacklisted[bt.RefreshToken] = true
	return nil
}

func (r *fakeRepo) IsTokenBlacklisted(_ context.Context, token string, _ ...core.DBExecutor) (bool, error) {
	r.lookups++
	return r.blacklisted[token], nil
}

type mailCollector struct {
	sent []*core.EmailMessage
}

func (m *mailCollector) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

type memCache map[string]bool

func (c memCache) IsRevoked(_ context.Context, token string) (bool, bool) {
	revoked, ok := c[token]
	return revoked, ok
}

func (c memCache) Remember(_ context.Context, token string, revoked bool) { c[token] = revoked }

type memFiles struct {
	saved   []string
	removed []string
}

func (f *memFiles) SaveImage(role, filename string, _ []byte) (string, error) {
	name := "images/" + role + "/" + filename
	f.saved = append(f.saved, name)
	return name, nil
}

func (f *memFiles) SavePDF(role, title string, _ []byte) (string, error) {
	return "pdfs/" + role + "/" + title + ".pdf", nil
}

func (f *memFiles) Remove(name string) { f.removed = append(f.removed, name) }

func testConf() *core.Config {
	conf := &core.Config{AppName: "Zenith", SecretKey: "secret"}
	conf.Pagination.ItemsPerPage = 10
	conf.Server.PasswordResetTimeoutDelta = 24 * time.Hour
	return conf
}

func TestService_Authenticate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewServiceMock(fakeTx{}, repo, nil, testConf())
	ctx := context.Background()

	repo.addAccount(t, Account{ID: "a1", Role: RoleAdmin, Username: "boss"}, "Pwd#1234")
	repo.addAccount(t, Account{ID: "p1", Role: RoleParent, Username: "shared"}, "Parent#123")
	repo.addAccount(t, Account{ID: "t1", Role: RoleTeacher, Username: "shared"}, "Teacher#123")
	repo.addAccount(t, Account{ID: "s1", Role: RoleStudent, Username: "gone", IsDelete: true}, "Student#123")

	tests := []struct {
		name     string
		username string
		password string
		wantID   string
		wantErr  error
	}{
		{name: "empty", wantErr: ErrAuthFailed},
		{name: "unknown user", username: "nobody", password: "x", wantErr: ErrAuthFailed},
		{name: "wrong password", username: "boss", password: "nope", wantErr: ErrAuthFailed},
		{name: "deactivated", username: "gone", password: "Student#123", wantErr: ErrAccountDeactivated},
		{name: "admin", username: " BOSS ", password: "Pwd#1234", wantID: "a1"},
		{name: "parent before teacher", username: "shared", password: "Parent#123", wantID: "p1"},
		{name: "teacher password on parent", username: "shared", password: "Teacher#123", wantErr: ErrAuthFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := svc.Authenticate(ctx, tt.username, tt.password)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, acc.ID)
		})
	}
}

func TestService_LogoutAndIsRevoked(t *testing.T) {
	repo := newFakeRepo()
	cache := make(memCache)
	svc := NewServiceMock(fakeTx{}, repo, nil, testConf(), Deps{Cache: cache})
	ctx := context.Background()
	p := TeacherPrincipal{ID: "t1", Username: "teach"}

	err := svc.Logout(ctx, p, "not-a-jwt", "a.b.c")
	require.Error(t, err)
	_, ok := err.(*core.ValidationError)
	assert.True(t, ok, "want a ValidationError, got %T", err)

	require.NoError(t, svc.Logout(ctx, p, "h.access.s", "h.refresh.s"))
	assert.True(t, repo.blacklisted["h.access.s"])
	assert.True(t, cache["h.refresh.s"])

	revoked, err := svc.IsRevoked(ctx, "h.access.s")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 0, repo.lookups, "cached tokens should not hit the repository")

	revoked, err = svc.IsRevoked(ctx, "h.other.s")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Equal(t, 1, repo.lookups)

	_, err = svc.IsRevoked(ctx, "h.other.s")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lookups, "misses are remembered too")
}

func TestService_PasswordReset(t *testing.T) {
	repo := newFakeRepo()
	mails := new(mailCollector)
	svc := NewServiceMock(fakeTx{}, repo, mails, testConf())
	ctx := context.Background()

	acc := repo.addAccount(t, Account{ID: "t1", Role: RoleTeacher, Username: "teach", Name: "Jane Doe", Email: "jane@school.test"}, "Old#pass1")

	// unknown emails are silently accepted
	require.NoError(t, svc.RequestPasswordReset(ctx, "ghost@school.test"))
	assert.Empty(t, mails.sent)

	require.NoError(t, svc.RequestPasswordReset(ctx, " JANE@school.test "))
	require.Len(t, mails.sent, 1)
	msg := mails.sent[0]
	assert.Equal(t, "jane@school.test", msg.To[0].Address)
	assert.Equal(t, "password_reset", msg.TemplateName)

	data := msg.TemplateData.(map[string]interface{})
	uid, token := data["UID"].(string), data["Token"].(string)

	err := svc.ResetPassword(ctx, ResetPassword{UID: uid, Token: "bogus-token", Password: "New#pass1"})
	assert.Equal(t, ErrInvalidResetToken, err)

	require.NoError(t, svc.ResetPassword(ctx, ResetPassword{UID: uid, Token: token, Password: "New#pass1"}))
	updated, err := repo.GetAccountByID(ctx, RoleTeacher, acc.ID)
	require.NoError(t, err)
	assert.NoError(t, updated.CheckPassword("New#pass1"))

	// a token cannot be used twice: it is bound to the old password hash
	err = svc.ResetPassword(ctx, ResetPassword{UID: uid, Token: token, Password: "Other#pass1"})
	assert.Equal(t, ErrInvalidResetToken, err)
}

func TestService_DeleteTeacher(t *testing.T) {
	repo := newFakeRepo()
	svc := NewServiceMock(fakeTx{}, repo, nil, testConf())
	ctx := context.Background()

	_, err := svc.DeleteTeacher(ctx, "missing")
	assert.True(t, core.IsNotFound(err))

	repo.teachers["t1"] = Teacher{Person: Person{ID: "t1"}}
	repo.supervised = 1
	_, err = svc.DeleteTeacher(ctx, "t1")
	assert.Equal(t, ErrSupervisesClass, err)

	repo.supervised = 0
	res, err := svc.DeleteTeacher(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, TeacherDeleteResult{SubjectsAffected: 2, LessonsAffected: 3}, res)
}

func TestService_SetTeacherAvatar(t *testing.T) {
	repo := newFakeRepo()
	files := new(memFiles)
	svc := NewServiceMock(fakeTx{}, repo, nil, testConf(), Deps{Files: files})
	ctx := context.Background()

	repo.teachers["t1"] = Teacher{Person: Person{ID: "t1"}, Img: null.StringFrom("images/teacher/old.jpg")}

	_, err := svc.SetTeacherAvatar(ctx, TeacherPrincipal{ID: "t2"}, "t1", "me.png", nil)
	_, ok := err.(*core.PermissionError)
	assert.True(t, ok, "want a PermissionError, got %T", err)

	tchr, err := svc.SetTeacherAvatar(ctx, TeacherPrincipal{ID: "t1"}, "t1", "me.png", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tchr.Img.String, "images/teacher/"))
	assert.Equal(t, []string{"images/teacher/old.jpg"}, files.removed)

	_, err = svc.SetTeacherAvatar(ctx, AdminPrincipal{ID: "a1"}, "t1", "again.png", nil)
	require.NoError(t, err)
	assert.Len(t, files.saved, 2)
}

func TestService_StudentClassCapacity(t *testing.T) {
	repo := newFakeRepo()
	repo.capacity["c1"] = 2
	repo.capacity["c2"] = 1
	svc := NewServiceMock(fakeTx{}, repo, nil, testConf())
	ctx := context.Background()

	enrol := func(uname, classID string) (Student, error) {
		return svc.CreateStudent(ctx, NewStudent{
			NewPerson: NewPerson{Username: uname, Password: "Secret#pass1"},
			ParentID:  "p1",
			ClassID:   classID,
			GradeID:   "g1",
		})
	}
	move := func(s Student, classID string) error {
		_, err := svc.UpdateStudent(ctx, s.ID, UpdateStudent{
			UpdatePerson: UpdatePerson{Username: s.Username},
			ParentID:     "p1",
			ClassID:      classID,
			GradeID:      "g1",
		})
		return err
	}

	first, err := enrol("ada", "c1")
	require.NoError(t, err)
	_, err = enrol("bob", "c1")
	require.NoError(t, err)

	_, err = enrol("cyd", "c1")
	assert.Equal(t, ErrClassFull, err)
	assert.Len(t, repo.students, 2)

	_, err = enrol("dan", "missing")
	assert.True(t, core.IsNotFound(err))

	// staying in a full class is fine
	require.NoError(t, move(first, "c1"))

	_, err = enrol("eve", "c2")
	require.NoError(t, err)
	assert.Equal(t, ErrClassFull, move(first, "c2"))
	assert.Equal(t, "c1", repo.students[first.ID].ClassID.String)

	repo.capacity["c2"] = 2
	require.NoError(t, move(first, "c2"))
	assert.Equal(t, "c2", repo.students[first.ID].ClassID.String)

	// the seat freed in c1 can be taken again
	_, err = enrol("cyd", "c1")
	assert.NoError(t, err)
}
