package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/lesson"
	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
	"github.com/Jaimin17/Zenith-School-Backend/core/school"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
	"github.com/Jaimin17/Zenith-School-Backend/storage/database"
)

// Password is the password of every account created by the fixtures.
const Password = "Zenith-Test-2024"

var tables = []string{
	"attendance", "result", "assignment", "exam", "lesson", "announcement", "event",
	"student", "class", "teacher_subject_link", "subject", "teacher", "grade", "parent", "admin",
	"blacklist_token",
}

// NewConfig loads the TEST config. The database settings come from the TEST_DATABASE_* env vars.
func NewConfig() *core.Config {
	_ = os.Setenv("ENV", "TEST")
	conf := core.NewConfig()
	conf.Database.DisableTLS = true
	return conf
}

// HasDB reports whether a test database is configured.
func HasDB() bool {
	return os.Getenv("TEST_DATABASE_HOST") != ""
}

// OpenDB creates, opens and migrates the test database. It returns nil when none is configured.
func OpenDB(conf *core.Config) *sqlx.DB {
	if !HasDB() {
		return nil
	}
	if err := database.CreateIfNotExist(conf); err != nil {
		panic(err)
	}
	db, err := database.Open(conf)
	if err != nil {
		panic(err)
	}
	if err = database.Migrate(db.DB); err != nil {
		panic(err)
	}
	return db
}

// PrepareDB skips the test when no test database is configured, else empties it.
func PrepareDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	if db == nil {
		t.Skip("no test database configured (TEST_DATABASE_HOST)")
	}
	ResetDB(t, db)
}

// ResetDB empties every table.
func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	if _, err := db.Exec("TRUNCATE " + strings.Join(tables, ", ")); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}

var pwdHash string

func hashedPassword(t *testing.T) string {
	if pwdHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hashedPassword() failed: %v", err)
		}
		pwdHash = string(hash)
	}
	return pwdHash
}

func person(t *testing.T, username string) user.Person {
	return user.Person{
		Username:  username,
		FirstName: username,
		LastName:  "Test",
		Email:     username + "@zenith.test",
		Address:   "42 Test Street, Test City",
		Password:  hashedPassword(t),
		CreatedAt: time.Now().UTC(),
	}
}

func CreateAdmin(t *testing.T, repo user.Repository, username string) user.Admin {
	adm, err := repo.CreateAdmin(context.Background(), user.Admin{Username: username, Password: hashedPassword(t)})
	if err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}
	return adm
}

func CreateTeacher(t *testing.T, repo user.Repository, username, phone string, subjectIDs ...string) user.Teacher {
	tch, err := repo.CreateTeacher(context.Background(), user.Teacher{
		Person:    person(t, username),
		Phone:     phone,
		BloodType: "O+",
		Sex:       "female",
	}, subjectIDs)
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tch
}

func CreateParent(t *testing.T, repo user.Repository, username, phone string) user.Parent {
	p, err := repo.CreateParent(context.Background(), user.Parent{Person: person(t, username), Phone: phone})
	if err != nil {
		t.Fatalf("CreateParent() failed: %v", err)
	}
	return p
}

func CreateStudent(t *testing.T, repo user.Repository, username, parentID, classID, gradeID string) user.Student {
	s, err := repo.CreateStudent(context.Background(), user.Student{
		Person:    person(t, username),
		BloodType: "A+",
		Sex:       "male",
		ParentID:  null.NewString(parentID, parentID != ""),
		ClassID:   null.NewString(classID, classID != ""),
		GradeID:   null.NewString(gradeID, gradeID != ""),
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreateGrade(t *testing.T, repo school.Repository, level int) school.Grade {
	g, err := repo.CreateGrade(context.Background(), school.Grade{ID: uuid.New().String(), Level: level})
	if err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}
	return g
}

func CreateSubject(t *testing.T, repo school.Repository, name string) school.Subject {
	s, err := repo.CreateSubject(context.Background(), school.Subject{ID: uuid.New().String(), Name: name})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return s
}

func CreateClass(t *testing.T, repo school.Repository, name, supervisorID, gradeID string) school.Class {
	c, err := repo.CreateClass(context.Background(), school.Class{
		ID:           uuid.New().String(),
		Name:         name,
		Capacity:     30,
		SupervisorID: null.NewString(supervisorID, supervisorID != ""),
		GradeID:      null.NewString(gradeID, gradeID != ""),
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return c
}

func CreateLesson(
	t *testing.T,
	repo lesson.Repository,
	name string,
	day schedule.Day,
	start, end schedule.Clock,
	subjectID, classID, teacherID string,
) lesson.Lesson {
	l, err := repo.CreateLesson(context.Background(), lesson.Lesson{
		Name:      name,
		Day:       day,
		StartTime: start,
		EndTime:   end,
		SubjectID: subjectID,
		ClassID:   classID,
		TeacherID: teacherID,
	})
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return l
}

func CreateEvent(t *testing.T, repo school.Repository, title, classID string, start time.Time) school.Event {
	e, err := repo.CreateEvent(context.Background(), school.Event{
		ID:          uuid.New().String(),
		Title:       title,
		Description: title,
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		ClassID:     null.NewString(classID, classID != ""),
	})
	if err != nil {
		t.Fatalf("CreateEvent() failed: %v", err)
	}
	return e
}
