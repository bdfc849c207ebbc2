package main

import (
	"context"
	"fmt"
)

// addAdmin creates an admin account; the API has no endpoint for it.
func (cli *commandLine) addAdmin(uname, pwd string) error {
	adm, err := cli.usrSvc.CreateAdmin(context.Background(), uname, pwd)
	if err != nil {
		return err
	}
	fmt.Printf("admin %q created (id %s)\n", adm.Username, adm.ID)
	return nil
}
