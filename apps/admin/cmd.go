package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"strings"

	"golang.org/x/term"

	"github.com/edulytics/backend/core"
	"github.com/edulytics/backend/core/course"
	"github.com/edulytics/backend/core/eventlog"
)

var (
	readSecretFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sql.DB
	conf      *core.Config
	courseSvc *course.Service
	logSvc    *eventlog.Service
	mailSvc   core.EmailService
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (up, down, status, ...)")
	fmt.Println("  loadcourse -course COURSE_ID - fetch a course structure from the LMS and store it")
	fmt.Println("  loadlogs -file PATH [-gzip] [-min N] [-staff u1,u2] - ingest an event log dump")
	fmt.Println("  token -username USERNAME - mint an API token for a platform user")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loadCourseCmd := flag.NewFlagSet("loadcourse", flag.ExitOnError)
	loadCourseID := loadCourseCmd.String("course", "",
		"The course id, e.g. course-v1:UC+Course+2020. The LMS client secret is prompted when not configured.")

	loadLogsCmd := flag.NewFlagSet("loadlogs", flag.ExitOnError)
	loadLogsFile := loadLogsCmd.String("file", "", "Path to a newline-delimited JSON event log dump.")
	loadLogsGzip := loadLogsCmd.Bool("gzip", false, "Treat the dump as gzip-compressed.")
	loadLogsMin := loadLogsCmd.Int("min", eventlog.DefaultMinLogs,
		"Activity threshold; users with this many logs or fewer are dropped.")
	loadLogsStaff := loadLogsCmd.String("staff", "", "Comma-separated usernames to exclude as course team.")

	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	tokenUname := tokenCmd.String("username", "", "The LMS username the token is minted for.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "loadcourse":
		if err := loadCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loadCourseID == "" {
			loadCourseCmd.Usage()
			return errHelp
		}
		return cli.loadCourse(*loadCourseID)
	case "loadlogs":
		if err := loadLogsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loadLogsFile == "" {
			loadLogsCmd.Usage()
			return errHelp
		}
		return cli.loadLogs(*loadLogsFile, *loadLogsGzip, *loadLogsMin, splitStaff(*loadLogsStaff))
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenUname == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenUname)
	default:
		cli.printUsage()
		return errHelp
	}
}

func splitStaff(raw string) []string {
	if raw == "" {
		return nil
	}
	var staff []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			staff = append(staff, s)
		}
	}
	return staff
}
