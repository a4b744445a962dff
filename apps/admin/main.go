package main

import (
	"log"
	"os"

	"github.com/trezcool/koinonia/core"
	"github.com/trezcool/koinonia/core/reminder"
	emailsvc "github.com/trezcool/koinonia/services/email"
	logsvc "github.com/trezcool/koinonia/services/logger"
	"github.com/trezcool/koinonia/storage/database"
	sqlxrepos "github.com/trezcool/koinonia/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer func() { _ = db.Close() }()

	eventRepo := sqlxrepos.NewEventRepository(db)
	contactRepo := sqlxrepos.NewContactRepository(db)
	dispatchRepo := sqlxrepos.NewDispatchRepository(db)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	cli := &commandLine{
		conf:        conf,
		db:          db.DB,
		reminderSvc: reminder.NewService(eventRepo, contactRepo, dispatchRepo, conf, logger),
		emailSvc:    mailSvc,
		out:         os.Stdout,
	}

	if err := cli.run(os.Args); err != nil {
		if err == errHelp {
			os.Exit(2)
		}
		logger.Fatal(err.Error(), err)
	}
}
