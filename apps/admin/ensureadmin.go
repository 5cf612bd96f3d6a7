package main

import (
	"context"
	"fmt"
)

// ensureAdmin creates the admin, or updates its name & password when the email is taken.
func (cli *commandLine) ensureAdmin(email, name, pwd string) error {
	adm, err := cli.usrSvc.EnsureAdmin(context.Background(), email, name, pwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "admin %s is ready\n", adm.Email)
	return nil
}
