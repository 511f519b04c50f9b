package main

import (
	"log"
	"os"

	"github.com/edulytics/backend/core"
	"github.com/edulytics/backend/core/course"
	"github.com/edulytics/backend/core/eventlog"
	emailsvc "github.com/edulytics/backend/services/email"
	logsvc "github.com/edulytics/backend/services/logger"
	"github.com/edulytics/backend/storage/database"
	sqlxrepos "github.com/edulytics/backend/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logsvc.NewRollbarLogger(logger, conf))
	}

	// start CLI
	cli := commandLine{
		db:        db.DB,
		conf:      conf,
		courseSvc: course.NewService(sqlxrepos.NewVerticalRepository(db)),
		logSvc:    eventlog.NewService(sqlxrepos.NewLogRepository(db)),
		mailSvc:   mailSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
