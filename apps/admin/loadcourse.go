package main

import (
	"context"
	"fmt"
	"net/mail"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/edulytics/backend/core"
	"github.com/edulytics/backend/core/course"
	"github.com/edulytics/backend/services/lms"
)

var (
	loadCourseTimeout = 5 * time.Minute

	// mockable
	fetchBlocksFunc = func(ctx context.Context, conf *core.Config, key, secret, courseID string) (string, error) {
		return lms.NewClientWithCredentials(conf, key, secret).CourseBlocks(ctx, courseID)
	}
)

// loadCourse fetches the full block tree of a course from the LMS,
// reconstructs the flattened vertical rows and swaps them in for whatever was
// stored for that course before.
func (cli *commandLine) loadCourse(courseID string) error {
	key, secret := cli.conf.LMS.OAuthKey, cli.conf.LMS.OAuthSecret
	if secret == "" {
		fmt.Print("Enter LMS client secret:")
		raw, err := readSecretFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(raw) == 0 {
			return errors.New("an LMS client secret is required")
		}
		secret = string(raw)
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadCourseTimeout)
	defer cancel()

	body, err := fetchBlocksFunc(ctx, cli.conf, key, secret, courseID)
	if err != nil {
		return err
	}

	blocks, err := course.ParseBlocksString(body)
	if err != nil {
		return err
	}
	rows, report := course.FlattenAsVerticals(blocks)
	if report.Dropped > 0 {
		logger.Printf("%d block(s) outside the expected hierarchy were skipped: %v", report.Dropped, report.DroppedIDs)
	}
	if len(rows) == 0 {
		return errors.Errorf("no verticals reconstructed for %s", courseID)
	}

	created, err := cli.courseSvc.ReplaceCourse(rows[0].Course, rows)
	if err != nil {
		return err
	}
	logger.Printf("%d vertical(s) stored for %s", len(created), courseID)

	cli.sendIngestReport(courseID, len(created), report.Dropped)
	return nil
}

func (cli *commandLine) sendIngestReport(courseID string, loaded, dropped int) {
	if cli.mailSvc == nil {
		return
	}
	cli.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{cli.conf.OpsEmail},
		Subject: fmt.Sprintf("Course ingest report: %s", courseID),
		BodyStr: fmt.Sprintf("Course %s ingested: %d verticals loaded, %d blocks skipped.", courseID, loaded, dropped),
	})
}
