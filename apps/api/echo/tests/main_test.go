package tests

import (
	"fmt"
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/Jaimin17/Zenith-School-Backend/apps/api/echo"
	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/attendance"
	"github.com/Jaimin17/Zenith-School-Backend/core/lesson"
	"github.com/Jaimin17/Zenith-School-Backend/core/school"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
	"github.com/Jaimin17/Zenith-School-Backend/services/email"
	"github.com/Jaimin17/Zenith-School-Backend/services/storage"
	"github.com/Jaimin17/Zenith-School-Backend/storage/database/sqlboiler"
	"github.com/Jaimin17/Zenith-School-Backend/tests"
)

var (
	conf *core.Config
	db   *sqlx.DB
	app  echoapi.Server
	repo *boiledrepos.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	conf = testutil.NewConfig()
	logger := nopLogger{}

	uploadDir, err := os.MkdirTemp("", "zenith-uploads")
	if err != nil {
		fmt.Printf("os.MkdirTemp(): %v", err)
		os.Exit(1)
	}
	conf.Upload.Dir = uploadDir

	// set up DB & repos
	db = testutil.OpenDB(conf)
	repo = boiledrepos.NewRepository(db)
	tx := core.NewTransactor(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	files := storage.NewLocal(conf.Upload, logger)
	usrSvc := user.NewServiceMock(tx, repo, mailSvc, conf, user.Deps{Files: files, Logger: logger})
	schoolSvc := school.NewService(tx, repo, conf, school.Deps{Files: files, Mail: mailSvc})
	lessonSvc := lesson.NewService(tx, repo, conf, lesson.Deps{Files: files})
	attendanceSvc := attendance.NewService(tx, repo)

	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)

	// set up server
	app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		SchoolSvc:      schoolSvc,
		LessonSvc:      lessonSvc,
		AttendanceSvc:  attendanceSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	// run tests
	code := m.Run()

	// clean up
	_ = os.RemoveAll(uploadDir)
	if db != nil {
		if err = db.Close(); err != nil {
			fmt.Printf("db.Close(): %v", err)
			os.Exit(1)
		}
	}

	os.Exit(code)
}
