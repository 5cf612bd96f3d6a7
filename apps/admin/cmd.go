package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/marks"
	"github.com/trezcool/vidyalaya/core/user"
)

var (
	// mockable
	readPasswordFunc = term.ReadPassword
	isTerminalFunc   = term.IsTerminal

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf     *core.Config
	db       *sql.DB // nil with the in-memory engine
	usrSvc   user.Service
	marksSvc marks.Service
	validate *validator.Validate
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  ensureadmin [-email EMAIL] [-name NAME] - create or update an admin; the password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -role ROLE -id ID - reset a user's password (ID: admission ID, teacher ID or email)")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a database migration command (up, down, status...)")
	fmt.Fprintln(cli.out, "  importstudents -file FILE.xlsx - create the students listed in a workbook")
	fmt.Fprintln(cli.out, "  refreshpercentages - recompute the stored percentages of every student")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ensureAdminCmd := flag.NewFlagSet("ensureadmin", flag.ContinueOnError)
	ensureAdminEmail := ensureAdminCmd.String("email", cli.conf.Admin.Email, "The admin's email.")
	ensureAdminName := ensureAdminCmd.String("name", cli.conf.Admin.Name, "The admin's name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordRole := resetPasswordCmd.String("role", "", "The user's role: "+strings.Join(user.Roles, ", ")+".")
	resetPasswordID := resetPasswordCmd.String("id", "", "The student's admission ID, the teacher's ID or the admin's email. The password will be prompted next.")

	importStudentsCmd := flag.NewFlagSet("importstudents", flag.ContinueOnError)
	importStudentsFile := importStudentsCmd.String("file", "", "The .xlsx workbook; its first row names the columns.")

	for _, fs := range []*flag.FlagSet{ensureAdminCmd, resetPasswordCmd, importStudentsCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "ensureadmin":
		if err := ensureAdminCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *ensureAdminEmail == "" {
			ensureAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.adminPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			ensureAdminCmd.Usage()
			return errHelp
		}
		return cli.ensureAdmin(*ensureAdminEmail, *ensureAdminName, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if !cli.isRole(*resetPasswordRole) || *resetPasswordID == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordRole, *resetPasswordID, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "importstudents":
		if err := importStudentsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importStudentsFile == "" {
			importStudentsCmd.Usage()
			return errHelp
		}
		return cli.importStudents(*importStudentsFile)

	case "refreshpercentages":
		return cli.refreshPercentages()

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// adminPassword prompts for the password on a terminal, else falls back to the configured one (ADMIN_PASSWORD).
func (cli *commandLine) adminPassword() (string, error) {
	if isTerminalFunc(int(syscall.Stdin)) {
		return cli.promptPassword()
	}
	return cli.conf.Admin.Password, nil
}

func (cli *commandLine) isRole(role string) bool {
	return cli.validate.Var(role, "required,role") == nil
}
