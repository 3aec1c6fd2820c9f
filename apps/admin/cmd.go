package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/fnedigital/genera/core/role"
	"github.com/fnedigital/genera/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sql.DB
	usrRepo  user.Repository
	roleRepo role.AdminRepository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (up, down, status, ...)")
	fmt.Println("  adduser -email EMAIL -first NAME -last NAME [-admin] - create or update a user; the password is prompted next")
	fmt.Println("  assignrole -email EMAIL -role ROLE [-school ID] [-generation ID] [-community ID] - grant a role to a user")
	fmt.Println("  resetpassword -email EMAIL - reset a user's password; the password is prompted next")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserFirst := addUserCmd.String("first", "", "The user's first name.")
	addUserLast := addUserCmd.String("last", "", "The user's last name.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant the global admin role.")

	assignRoleCmd := flag.NewFlagSet("assignrole", flag.ExitOnError)
	assignRoleEmail := assignRoleCmd.String("email", "", "The user's email.")
	assignRoleType := assignRoleCmd.String("role", "", "The role type to grant.")
	assignRoleSchool := assignRoleCmd.String("school", "", "Optional school scope.")
	assignRoleGeneration := assignRoleCmd.String("generation", "", "Optional generation scope.")
	assignRoleCommunity := assignRoleCmd.String("community", "", "Optional community scope.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" || *addUserFirst == "" || *addUserLast == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				addUserCmd.Usage()
			}
			return err
		}
		return cli.addUser(*addUserEmail, *addUserFirst, *addUserLast, pwd, *addUserAdmin)

	case "assignrole":
		if err := assignRoleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *assignRoleEmail == "" || *assignRoleType == "" {
			assignRoleCmd.Usage()
			return errHelp
		}
		if !role.IsValidRole(*assignRoleType) {
			return fmt.Errorf("%q: no such role", *assignRoleType)
		}
		return cli.assignRole(*assignRoleEmail, *assignRoleType, *assignRoleSchool, *assignRoleGeneration, *assignRoleCommunity)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				resetPasswordCmd.Usage()
			}
			return err
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errHelp
	}
	return string(pwd), nil
}
