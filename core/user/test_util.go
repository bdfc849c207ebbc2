package user

import (
	"context"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service that sends its mails synchronously.
func NewServiceMock(tx core.Transactor, repo Repository, mailSvc core.EmailService, conf *core.Config, deps ...Deps) Service {
	svc := &serviceMock{
		service: service{
			tx:      tx,
			repo:    repo,
			mailSvc: mailSvc,
			conf:    conf,
		},
	}
	if len(deps) > 0 {
		svc.deps = deps[0]
	}
	configureTokens(conf)
	return svc
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	acc, err := svc.repo.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !acc.IsDelete {
		// run synchronously
		svc.sendPasswordResetMail(acc)
	}
	return nil
}
