package main

import (
	"context"

	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

func (cli *commandLine) resetPassword(role user.Role, uname, pwd string) error {
	return cli.usrSvc.SetPassword(context.Background(), role, uname, pwd)
}
