package main

import (
	"github.com/edulytics/backend/core/eventlog"
)

// loadLogs ingests a tracking log dump: normalize every record, drop low
// activity users and the course team, persist the rest.
func (cli *commandLine) loadLogs(path string, gzipped bool, minLogs int, staff []string) error {
	records, err := eventlog.ReadLogs(path, gzipped)
	if err != nil {
		return err
	}
	total := len(records)

	records = eventlog.FilterByActivity(records, minLogs, eventlog.FieldUsername)
	records = eventlog.FilterCourseTeam(records, eventlog.FieldUsername, staff)

	logs, err := cli.logSvc.Ingest(records)
	if err != nil {
		return err
	}
	logger.Printf("%d of %d log(s) ingested from %s", len(logs), total, path)
	return nil
}
