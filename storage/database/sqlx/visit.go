package sqlxrepos

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edulytics/backend/core/visit"
)

type dbVisit struct {
	ID         string    `db:"id"`
	Username   string    `db:"username"`
	Course     string    `db:"course"`
	Chapter    string    `db:"chapter"`
	Sequential string    `db:"sequential"`
	Vertical   string    `db:"vertical"`
	Count      int       `db:"count"`
	Time       time.Time `db:"time"`
}

func toDBVisit(v visit.VisitOnPage) dbVisit {
	row := dbVisit{
		ID:         v.ID,
		Username:   v.Username,
		Course:     v.Course,
		Chapter:    v.Chapter,
		Sequential: v.Sequential,
		Vertical:   v.Vertical,
		Count:      v.Count,
		Time:       v.Time.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	return row
}

func (row dbVisit) visit() visit.VisitOnPage {
	return visit.VisitOnPage{
		ID:         row.ID,
		Username:   row.Username,
		Course:     row.Course,
		Chapter:    row.Chapter,
		Sequential: row.Sequential,
		Vertical:   row.Vertical,
		Count:      row.Count,
		Time:       row.Time,
	}
}

const insertVisitQuery = `
INSERT INTO visit_on_page (id, username, course, chapter, sequential, vertical, count, time)
VALUES (:id, :username, :course, :chapter, :sequential, :vertical, :count, :time)`

const selectVisitQuery = `
SELECT * FROM visit_on_page`

const summarizeVisitsQuery = `
SELECT username, vertical, sequential, chapter, course, SUM(count) AS total
FROM visit_on_page
WHERE course ILIKE '%' || $1 || '%' AND time >= $2 AND time <= $3
GROUP BY username, vertical, sequential, chapter, course
ORDER BY username, vertical`

type visitRepository struct {
	db *sqlx.DB
}

var _ visit.Repository = (*visitRepository)(nil)

func NewVisitRepository(db *sqlx.DB) *visitRepository {
	return &visitRepository{db: db}
}

func (repo visitRepository) CreateVisits(visits ...visit.VisitOnPage) ([]visit.VisitOnPage, error) {
	created := make([]visit.VisitOnPage, 0, len(visits))
	for _, v := range visits {
		row := toDBVisit(v)
		if _, err := repo.db.NamedExec(insertVisitQuery, row); err != nil {
			return nil, errors.Wrap(err, "inserting visit")
		}
		created = append(created, row.visit())
	}
	return created, nil
}

func (repo visitRepository) FilterVisits(filter visit.QueryFilter) ([]visit.VisitOnPage, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		conds = append(conds, `username ILIKE '%' || `+arg(filter.Search)+` || '%'`)
	}
	if filter.Course != "" {
		conds = append(conds, `course ILIKE '%' || `+arg(filter.Course)+` || '%'`)
	}
	if !filter.From.IsZero() {
		conds = append(conds, `time >= `+arg(filter.From.UTC()))
	}
	if !filter.To.IsZero() {
		conds = append(conds, `time <= `+arg(filter.To.UTC()))
	}

	q := selectVisitQuery
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY time DESC`

	var rows []dbVisit
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering visits")
	}

	visits := make([]visit.VisitOnPage, 0, len(rows))
	for _, row := range rows {
		visits = append(visits, row.visit())
	}
	return visits, nil
}

func (repo visitRepository) SummarizeCourseVisits(courseID string, w visit.Window) ([]visit.Summary, error) {
	type dbSummary struct {
		Username   string `db:"username"`
		Vertical   string `db:"vertical"`
		Sequential string `db:"sequential"`
		Chapter    string `db:"chapter"`
		Course     string `db:"course"`
		Total      int    `db:"total"`
	}

	var rows []dbSummary
	if err := repo.db.Select(&rows, summarizeVisitsQuery, courseID, w.Lower, w.Upper); err != nil {
		return nil, errors.Wrap(err, "summarizing visits")
	}

	summaries := make([]visit.Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, visit.Summary{
			Username:   row.Username,
			Vertical:   row.Vertical,
			Sequential: row.Sequential,
			Chapter:    row.Chapter,
			Course:     row.Course,
			Total:      row.Total,
		})
	}
	return summaries, nil
}
