package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

// Account is the part shared by every kind of user, used for login and password resets.
type Account struct {
	ID       string
	Role     Role
	Username string
	Name     string
	Email    string
	Password string // bcrypt hash
	IsDelete bool
}

func (a Account) Principal() Principal {
	p, _ := NewPrincipal(a.Role, a.ID, a.Username)
	return p
}

func (a Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(pwd))
}

// HashPassword returns the bcrypt hash of pwd.
func HashPassword(pwd string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type Admin struct {
	ID       string `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Password string `json:"-" db:"password"`
	IsDelete bool   `json:"-" db:"is_delete"`
}

func (a Admin) Account() Account {
	return Account{ID: a.ID, Role: RoleAdmin, Username: a.Username, Name: a.Username, Password: a.Password, IsDelete: a.IsDelete}
}

// Person holds the profile fields of teachers, students and parents.
type Person struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	Address   string    `json:"address" db:"address"`
	Password  string    `json:"-" db:"password"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	IsDelete  bool      `json:"-" db:"is_delete"`
}

func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p Person) account(role Role) Account {
	return Account{
		ID:       p.ID,
		Role:     role,
		Username: p.Username,
		Name:     p.FullName(),
		Email:    p.Email,
		Password: p.Password,
		IsDelete: p.IsDelete,
	}
}

// SubjectRef is the short form of a subject a teacher teaches.
type SubjectRef struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Teacher struct {
	Person
	Phone     string       `json:"phone" db:"phone"`
	Img       null.String  `json:"img" db:"img"`
	BloodType string       `json:"blood_type" db:"blood_type"`
	Sex       string       `json:"sex" db:"sex"`
	Subjects  []SubjectRef `json:"subjects" db:"-"`
}

func (t Teacher) Account() Account { return t.account(RoleTeacher) }

// TeachesSubject reports whether subjectID is in the teacher's subject set.
func (t Teacher) TeachesSubject(subjectID string) bool {
	for _, s := range t.Subjects {
		if s.ID == subjectID {
			return true
		}
	}
	return false
}

type Student struct {
	Person
	Phone     null.String `json:"phone" db:"phone"`
	Img       null.String `json:"img" db:"img"`
	BloodType string      `json:"blood_type" db:"blood_type"`
	Sex       string      `json:"sex" db:"sex"`
	ParentID  null.String `json:"parent_id" db:"parent_id"`
	ClassID   null.String `json:"class_id" db:"class_id"`
	GradeID   null.String `json:"grade_id" db:"grade_id"`
}

func (s Student) Account() Account { return s.account(RoleStudent) }

type Parent struct {
	Person
	Phone string `json:"phone" db:"phone"`
}

func (p Parent) Account() Account { return p.account(RoleParent) }

// Profile is what GET /auth/me returns.
type Profile struct {
	Role Role        `json:"role"`
	User interface{} `json:"user"`
}

// SexCount is the number of active students of one sex.
type SexCount struct {
	Sex   string `json:"sex" db:"sex"`
	Count int64  `json:"count" db:"count"`
}

// Filters

type TeacherFilter struct {
	core.PageQuery
	ClassID   string `query:"class_id"`
	SubjectID string `query:"subject_id"`
}

type StudentFilter struct {
	core.PageQuery
	ClassID   string `query:"class_id"`
	GradeID   string `query:"grade_id"`
	ParentID  string `query:"parent_id"`
	TeacherID string `query:"teacher_id"`
}

type ParentFilter struct {
	core.PageQuery
}

// Write models

// NewPerson contains the profile information needed to create a teacher, student or parent.
type NewPerson struct {
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Address         string `json:"address" validate:"required,min=10"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (np *NewPerson) clean() {
	np.Username = core.CleanString(np.Username, true /* lower */)
	np.FirstName = core.CleanString(np.FirstName)
	np.LastName = core.CleanString(np.LastName)
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.Address = core.CleanString(np.Address)
}

// UpdatePerson defines what profile information may be provided to modify a teacher, student or parent.
// An empty Password leaves it unchanged.
type UpdatePerson struct {
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Address         string `json:"address" validate:"required,min=10"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (up *UpdatePerson) clean() {
	up.Username = core.CleanString(up.Username, true /* lower */)
	up.FirstName = core.CleanString(up.FirstName)
	up.LastName = core.CleanString(up.LastName)
	up.Email = core.CleanString(up.Email, true /* lower */)
	up.Address = core.CleanString(up.Address)
}

type NewTeacher struct {
	NewPerson
	Phone      string   `json:"phone" validate:"required,phone_in"`
	BloodType  string   `json:"blood_type" validate:"required,bloodtype"`
	Sex        string   `json:"sex" validate:"required,sex"`
	SubjectIDs []string `json:"subject_ids" validate:"required,min=1,dive,uuid"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.clean()
	nt.Phone = core.CleanString(nt.Phone)
	nt.BloodType = strings.ToUpper(core.CleanString(nt.BloodType))
	nt.Sex = core.CleanString(nt.Sex, true /* lower */)
	return validate.Struct(nt)
}

type UpdateTeacher struct {
	UpdatePerson
	Phone      string   `json:"phone" validate:"required,phone_in"`
	BloodType  string   `json:"blood_type" validate:"required,bloodtype"`
	Sex        string   `json:"sex" validate:"required,sex"`
	SubjectIDs []string `json:"subject_ids" validate:"required,min=1,dive,uuid"`
}

func (ut *UpdateTeacher) Validate(validate *validator.Validate) error {
	ut.clean()
	ut.Phone = core.CleanString(ut.Phone)
	ut.BloodType = strings.ToUpper(core.CleanString(ut.BloodType))
	ut.Sex = core.CleanString(ut.Sex, true /* lower */)
	return validate.Struct(ut)
}

type NewStudent struct {
	NewPerson
	Phone     string `json:"phone" validate:"omitempty,phone_in"`
	BloodType string `json:"blood_type" validate:"required,bloodtype"`
	Sex       string `json:"sex" validate:"required,sex"`
	ParentID  string `json:"parent_id" validate:"required,uuid"`
	ClassID   string `json:"class_id" validate:"required,uuid"`
	GradeID   string `json:"grade_id" validate:"required,uuid"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.clean()
	ns.Phone = core.CleanString(ns.Phone)
	ns.BloodType = strings.ToUpper(core.CleanString(ns.BloodType))
	ns.Sex = core.CleanString(ns.Sex, true /* lower */)
	return validate.Struct(ns)
}

type UpdateStudent struct {
	UpdatePerson
	Phone     string `json:"phone" validate:"omitempty,phone_in"`
	BloodType string `json:"blood_type" validate:"required,bloodtype"`
	Sex       string `json:"sex" validate:"required,sex"`
	ParentID  string `json:"parent_id" validate:"required,uuid"`
	ClassID   string `json:"class_id" validate:"required,uuid"`
	GradeID   string `json:"grade_id" validate:"required,uuid"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.clean()
	us.Phone = core.CleanString(us.Phone)
	us.BloodType = strings.ToUpper(core.CleanString(us.BloodType))
	us.Sex = core.CleanString(us.Sex, true /* lower */)
	return validate.Struct(us)
}

type NewParent struct {
	NewPerson
	Phone string `json:"phone" validate:"required,phone_in"`
}

func (np *NewParent) Validate(validate *validator.Validate) error {
	np.clean()
	np.Phone = core.CleanString(np.Phone)
	return validate.Struct(np)
}

type UpdateParent struct {
	UpdatePerson
	Phone string `json:"phone" validate:"required,phone_in"`
}

func (up *UpdateParent) Validate(validate *validator.Validate) error {
	up.clean()
	up.Phone = core.CleanString(up.Phone)
	return validate.Struct(up)
}

// ResetPassword holds the data needed to confirm a password reset.
type ResetPassword struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (rp *ResetPassword) Validate(validate *validator.Validate) error {
	rp.UID = core.CleanString(rp.UID)
	rp.Token = core.CleanString(rp.Token)
	return validate.Struct(rp)
}

// Delete results

type TeacherDeleteResult struct {
	SubjectsAffected int64 `json:"subjects_affected"`
	LessonsAffected  int64 `json:"lessons_affected"`
}

type StudentDeleteResult struct {
	ParentRemoved      bool  `json:"parent_removed"`
	ClassRemoved       bool  `json:"class_removed"`
	GradeRemoved       bool  `json:"grade_removed"`
	AttendanceAffected int64 `json:"attendance_affected"`
	ResultsAffected    int64 `json:"results_affected"`
}

type ParentDeleteResult struct {
	StudentsAffected int64 `json:"students_affected"`
}

// BlacklistToken is a revoked (access, refresh) token pair.
type BlacklistToken struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	CreatedAt    time.Time `db:"created_at"`
}
