package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/user"
	"github.com/breakthefear/btf/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.App, *bytes.Buffer) {
	app := testutil.NewApp(t)
	out := new(bytes.Buffer)
	cli := &commandLine{
		out:      out,
		currency: app.Conf.Fees.CurrencySymbol,
		openDB: func() (*sqlx.DB, error) {
			// sql.Open does not connect
			return sqlx.Open("postgres", "postgres://btf@localhost:5432/btf?sslmode=disable")
		},
		users:    app.Users,
		reporter: app.Reporter,
	}
	return cli, app, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantFields []string
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	switch {
	case tt.wantErr != nil:
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	gooseRunFunc = func(command string, db *sqlx.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "kv_index", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("connection refused")
		openDB := cli.openDB
		cli.openDB = func() (*sqlx.DB, error) { return nil, dbErr }
		defer func() { cli.openDB = openDB }()

		err := cli.run([]string{"admin", "migrate", "up"})
		assert.Equal(t, dbErr, err)
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli, app, _ := setup(t)
	testutil.CreateUser(t, app.UserRepo, "taken", "Pa55w0rd!x", user.RoleManager, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "cashier"}, wantErr: errHelp},
		{name: "username taken", args: []string{"adduser", "-username", "Taken"}, extra: extra{pwd: "Pa55w0rd!x"}, wantErr: user.ErrUsernameExists},
		{name: "weak password", args: []string{"adduser", "-username", "cashier"}, extra: extra{pwd: "123456"}, wantFields: []string{"password"}},
		{name: "developer", args: []string{"adduser", "-username", "root", "-role", "developer"}, extra: extra{pwd: "Pa55w0rd!x"}},
		{name: "default role", args: []string{"adduser", "-username", "cashier"}, extra: extra{pwd: "Pa55w0rd!x"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, testutil.ErrorFields(err))
				return
			}
			checkErr(t, tt, err)
		})
	}

	root, err := app.Users.GetByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, user.RoleDeveloper, root.Role)
	assert.True(t, root.IsActive)
	assert.NoError(t, root.CheckPassword("Pa55w0rd!x"))

	cashier, err := app.Users.GetByUsername(context.Background(), "cashier")
	require.NoError(t, err)
	assert.Equal(t, user.RoleManager, cashier.Role)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, app, _ := setup(t)
	usr := testutil.CreateUser(t, app.UserRepo, "cashier", "Pa55w0rd!x", user.RoleManager, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "N3wPassw0rd"}, wantErrStr: `user "lol" not found`},
		{name: "reset", args: []string{"resetpassword", "-username", "Cashier"}, extra: extra{pwd: "N3wPassw0rd"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkErr(t, tt, err)
			if err == nil {
				refreshedUsr, err := app.Users.GetByID(context.Background(), usr.ID)
				require.NoError(t, err)
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
				assert.NoError(t, refreshedUsr.CheckPassword("N3wPassw0rd"))
			}
		})
	}
}

func Test_commandLine_pending(t *testing.T) {
	cli, app, out := setup(t)
	cat := testutil.CreateCatalog(t, app.AcademyRepo)
	std := testutil.CreateStudent(t, app.StudentRepo, cat, "Rahim")

	require.NoError(t, cli.run([]string{"admin", "pending"}))

	got := out.String()
	assert.Contains(t, got, "STUDENT ID")
	assert.Contains(t, got, std.StudentID)
	assert.Contains(t, got, "Rahim")
	assert.Contains(t, got, core.FormatMoney("৳", decimal.NewFromInt(2000)))
	assert.Contains(t, got, "TOTAL")
}
