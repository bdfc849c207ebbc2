package user

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

type (
	Service interface {
		// auth
		Authenticate(ctx context.Context, username, password string) (Account, error)
		GetActiveAccount(ctx context.Context, p Principal) (Account, error)
		Profile(ctx context.Context, p Principal) (Profile, error)
		Logout(ctx context.Context, p Principal, accessToken, refreshToken string) error
		IsRevoked(ctx context.Context, token string) (bool, error)
		PurgeBlacklist(ctx context.Context) (int64, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetPassword) error
		SetPassword(ctx context.Context, role Role, username, pwd string) error

		// admins
		CreateAdmin(ctx context.Context, username, pwd string) (Admin, error)
		CountAdmins(ctx context.Context) (int64, error)

		// teachers
		ListTeachers(ctx context.Context, p Principal, filter TeacherFilter, ordering []core.DBOrdering) ([]Teacher, core.Pagination, error)
		CountTeachers(ctx context.Context) (int64, error)
		GetTeacher(ctx context.Context, p Principal, id string) (Teacher, error)
		CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error)
		UpdateTeacher(ctx context.Context, id string, ut UpdateTeacher) (Teacher, error)
		DeleteTeacher(ctx context.Context, id string) (TeacherDeleteResult, error)
		SetTeacherAvatar(ctx context.Context, p Principal, id, filename string, data []byte) (Teacher, error)

		// students
		ListStudents(ctx context.Context, p Principal, filter StudentFilter, ordering []core.DBOrdering) ([]Student, core.Pagination, error)
		CountStudents(ctx context.Context) (int64, error)
		CountStudentsBySex(ctx context.Context) ([]SexCount, error)
		GetStudent(ctx context.Context, p Principal, id string) (Student, error)
		CreateStudent(ctx context.Context, ns NewStudent) (Student, error)
		UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error)
		DeleteStudent(ctx context.Context, id string) (StudentDeleteResult, error)
		SetStudentAvatar(ctx context.Context, p Principal, id, filename string, data []byte) (Student, error)

		// parents
		ListParents(ctx context.Context, p Principal, filter ParentFilter, ordering []core.DBOrdering) ([]Parent, core.Pagination, error)
		CountParents(ctx context.Context) (int64, error)
		GetParent(ctx context.Context, p Principal, id string) (Parent, error)
		CreateParent(ctx context.Context, np NewParent) (Parent, error)
		UpdateParent(ctx context.Context, id string, up UpdateParent) (Parent, error)
		DeleteParent(ctx context.Context, id string) (ParentDeleteResult, error)
	}

	// Deps holds the optional collaborators of the user service.
	Deps struct {
		Files  core.FileStorage
		Cache  RevocationCache
		Logger core.Logger
	}

	service struct {
		tx      core.Transactor
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
		deps    Deps
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(tx core.Transactor, repo Repository, mailSvc core.EmailService, conf *core.Config, deps ...Deps) Service {
	svc := &service{tx: tx, repo: repo, mailSvc: mailSvc, conf: conf}
	if len(deps) > 0 {
		svc.deps = deps[0]
	}
	configureTokens(conf)
	return svc
}

func configureTokens(conf *core.Config) {
	if conf == nil {
		return
	}
	secretKey = []byte(conf.SecretKey)
	if conf.Server.PasswordResetTimeoutDelta > 0 {
		passwordResetTimeoutDelta = conf.Server.PasswordResetTimeoutDelta
	}
}

func (svc *service) perPage() int {
	if svc.conf != nil && svc.conf.Pagination.ItemsPerPage > 0 {
		return svc.conf.Pagination.ItemsPerPage
	}
	return 10
}

// Auth

// Authenticate looks username up among admins, parents, teachers and students (in that order).
func (svc *service) Authenticate(ctx context.Context, username, password string) (Account, error) {
	username = core.CleanString(username, true /* lower */)
	if username == "" || password == "" {
		return Account{}, ErrAuthFailed
	}

	for _, role := range Roles {
		acc, err := svc.repo.GetAccountByUsername(ctx, role, username)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return Account{}, err
		}
		if err = acc.CheckPassword(password); err != nil {
			return Account{}, ErrAuthFailed
		}
		if acc.IsDelete {
			return Account{}, ErrAccountDeactivated
		}
		return acc, nil
	}
	return Account{}, ErrAuthFailed
}

// GetActiveAccount resolves p back to its account, failing if it was deactivated.
func (svc *service) GetActiveAccount(ctx context.Context, p Principal) (Account, error) {
	acc, err := svc.repo.GetAccountByID(ctx, p.Role(), p.PrincipalID())
	if err != nil {
		return Account{}, err
	}
	if acc.IsDelete {
		return Account{}, ErrAccountDeactivated
	}
	return acc, nil
}

func (svc *service) Profile(ctx context.Context, p Principal) (Profile, error) {
	var (
		usr interface{}
		err error
	)
	switch p := p.(type) {
	case AdminPrincipal:
		var acc Account
		acc, err = svc.GetActiveAccount(ctx, p)
		usr = Admin{ID: acc.ID, Username: acc.Username}
	case TeacherPrincipal:
		usr, err = svc.repo.GetTeacher(ctx, AdminScope{}, p.ID)
	case StudentPrincipal:
		usr, err = svc.repo.GetStudent(ctx, AdminScope{}, p.ID)
	case ParentPrincipal:
		usr, err = svc.repo.GetParent(ctx, AdminScope{}, p.ID)
	default:
		return Profile{}, ErrInvalidRole
	}
	if err != nil {
		return Profile{}, err
	}
	return Profile{Role: p.Role(), User: usr}, nil
}

func isJWTFormat(token string) bool {
	return token != "" && len(strings.Split(token, ".")) == 3
}

// Logout blacklists the (access, refresh) token pair of p.
func (svc *service) Logout(ctx context.Context, p Principal, accessToken, refreshToken string) error {
	if !isJWTFormat(accessToken) || !isJWTFormat(refreshToken) {
		return core.NewValidationErrorf("invalid token format")
	}
	bt := BlacklistToken{
		ID:           uuid.New().String(),
		UserID:       p.PrincipalID(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		CreatedAt:    time.Now().UTC(),
	}
	if err := svc.repo.BlacklistTokens(ctx, bt); err != nil {
		return err
	}
	if svc.deps.Cache != nil {
		svc.deps.Cache.Remember(ctx, accessToken, true)
		svc.deps.Cache.Remember(ctx, refreshToken, true)
	}
	return nil
}

// IsRevoked reports whether token was blacklisted, asking the revocation cache first.
func (svc *service) IsRevoked(ctx context.Context, token string) (bool, error) {
	if svc.deps.Cache != nil {
		if revoked, found := svc.deps.Cache.IsRevoked(ctx, token); found {
			return revoked, nil
		}
	}
	revoked, err := svc.repo.IsTokenBlacklisted(ctx, token)
	if err != nil {
		return false, err
	}
	if svc.deps.Cache != nil {
		svc.deps.Cache.Remember(ctx, token, revoked)
	}
	return revoked, nil
}

// PurgeBlacklist deletes the blacklisted tokens older than the configured retention.
func (svc *service) PurgeBlacklist(ctx context.Context) (int64, error) {
	retention := 30 * 24 * time.Hour
	if svc.conf != nil && svc.conf.Tasks.BlacklistRetention > 0 {
		retention = svc.conf.Tasks.BlacklistRetention
	}
	var count int64
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		var err error
		count, err = svc.repo.PurgeBlacklist(ctx, time.Now().UTC().Add(-retention), tx)
		return err
	})
	return count, err
}

// RequestPasswordReset mails a reset link to the owner of email, if any.
// An unknown email is not reported, so that accounts cannot be enumerated.
func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	acc, err := svc.repo.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return err
	}
	if acc.IsDelete {
		return nil
	}
	go svc.sendPasswordResetMail(acc)
	return nil
}

func (svc *service) sendPasswordResetMail(acc Account) {
	if svc.mailSvc == nil || acc.Email == "" {
		return
	}
	var from string
	if svc.conf != nil {
		from = svc.conf.AppName
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acc.Name, Address: acc.Email}},
		Subject:      fmt.Sprintf("%s password reset", from),
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":     acc.Name,
			"Username": acc.Username,
			"UID":      encodeUID(acc),
			"Token":    makeToken(acc),
		},
	})
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetPassword) error {
	role, id, err := decodeUID(rp.UID)
	if err != nil {
		return ErrInvalidResetToken
	}
	acc, err := svc.repo.GetAccountByID(ctx, role, id)
	if err != nil {
		if core.IsNotFound(err) {
			return ErrInvalidResetToken
		}
		return err
	}
	if acc.IsDelete {
		return ErrAccountDeactivated
	}
	if err = verifyToken(acc, rp.Token); err != nil {
		return ErrInvalidResetToken
	}

	hash, err := HashPassword(rp.Password)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.repo.SetPassword(ctx, role, acc.ID, hash)
}

// SetPassword replaces the password of the account of role named username, bypassing the reset flow.
func (svc *service) SetPassword(ctx context.Context, role Role, username, pwd string) error {
	acc, err := svc.repo.GetAccountByUsername(ctx, role, core.CleanString(username, true /* lower */))
	if err != nil {
		return err
	}
	if err = CheckPasswordPolicy(pwd, acc.Username, acc.Email); err != nil {
		return err
	}
	hash, err := HashPassword(pwd)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.repo.SetPassword(ctx, role, acc.ID, hash)
}

// Admins

func (svc *service) CreateAdmin(ctx context.Context, username, pwd string) (Admin, error) {
	username = core.CleanString(username, true /* lower */)
	if len(username) < 3 {
		return Admin{}, core.NewValidationError(nil, core.FieldError{Field: "username", Error: "username must contain at least 3 characters"})
	}
	if err := CheckPasswordPolicy(pwd, username); err != nil {
		return Admin{}, err
	}
	if err := svc.repo.CheckUniqueness(ctx, RoleAdmin, username, "", "", ""); err != nil {
		return Admin{}, err
	}
	hash, err := HashPassword(pwd)
	if err != nil {
		return Admin{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateAdmin(ctx, Admin{Username: username, Password: hash})
}

func (svc *service) CountAdmins(ctx context.Context) (int64, error) {
	return svc.repo.CountAdmins(ctx)
}
