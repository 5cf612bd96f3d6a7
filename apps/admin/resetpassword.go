package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(role, id, pwd string) error {
	if err := cli.usrSvc.ResetPassword(context.Background(), role, id, pwd); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %s %s reset\n", role, id)
	return nil
}
