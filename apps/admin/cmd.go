package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/trezcool/koinonia/core"
	"github.com/trezcool/koinonia/core/reminder"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf        *core.Config
	db          *sql.DB
	reminderSvc *reminder.Service
	emailSvc    core.EmailService
	out         io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [args] - run a database migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  remind [-date YYYY-MM-DD] [-send] - resolve reminder obligations; -send dispatches and records them")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		return cli.migrate(args[2:])
	case "remind":
		return cli.remind(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
