package main

import (
	"context"
	"fmt"

	"github.com/breakthefear/btf/core/user"
)

// addUser creates an active operator. Without an operator in the context the role checks are skipped.
func (cli *commandLine) addUser(uname, role, pwd string) error {
	usr, err := cli.users.Create(context.Background(), user.NewUser{Username: uname, Password: pwd, Role: role})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %q created (%s)\n", usr.Username, usr.Role)
	return nil
}
