package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edulytics/backend/core/course"
)

type dbVertical struct {
	ID               string      `db:"id"`
	Course           string      `db:"course"`
	CourseName       string      `db:"course_name"`
	Chapter          string      `db:"chapter"`
	ChapterName      string      `db:"chapter_name"`
	ChapterNumber    int         `db:"chapter_number"`
	Sequential       string      `db:"sequential"`
	SequentialName   string      `db:"sequential_name"`
	SequentialNumber int         `db:"sequential_number"`
	Vertical         string      `db:"vertical"`
	VerticalName     string      `db:"vertical_name"`
	VerticalNumber   int         `db:"vertical_number"`
	BlockID          string      `db:"block_id"`
	BlockType        string      `db:"block_type"`
	ChildNumber      int         `db:"child_number"`
	StudentViewURL   null.String `db:"student_view_url"`
	LMSWebURL        null.String `db:"lms_web_url"`
	CreatedAt        time.Time   `db:"created_at"`
}

func toDBVertical(v course.Vertical) dbVertical {
	row := dbVertical{
		ID:               v.ID,
		Course:           v.Course,
		CourseName:       v.CourseName,
		Chapter:          v.Chapter,
		ChapterName:      v.ChapterName,
		ChapterNumber:    v.ChapterNumber,
		Sequential:       v.Sequential,
		SequentialName:   v.SequentialName,
		SequentialNumber: v.SequentialNumber,
		Vertical:         v.Vertical,
		VerticalName:     v.VerticalName,
		VerticalNumber:   v.VerticalNumber,
		BlockID:          v.BlockID,
		BlockType:        v.BlockType,
		ChildNumber:      v.ChildNumber,
		StudentViewURL:   null.NewString(v.StudentViewURL, v.StudentViewURL != ""),
		LMSWebURL:        null.NewString(v.LMSWebURL, v.LMSWebURL != ""),
		CreatedAt:        v.CreatedAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	return row
}

func (row dbVertical) vertical() course.Vertical {
	return course.Vertical{
		ID:               row.ID,
		Course:           row.Course,
		CourseName:       row.CourseName,
		Chapter:          row.Chapter,
		ChapterName:      row.ChapterName,
		ChapterNumber:    row.ChapterNumber,
		Sequential:       row.Sequential,
		SequentialName:   row.SequentialName,
		SequentialNumber: row.SequentialNumber,
		Vertical:         row.Vertical,
		VerticalName:     row.VerticalName,
		VerticalNumber:   row.VerticalNumber,
		BlockID:          row.BlockID,
		BlockType:        row.BlockType,
		ChildNumber:      row.ChildNumber,
		StudentViewURL:   row.StudentViewURL.String,
		LMSWebURL:        row.LMSWebURL.String,
		CreatedAt:        row.CreatedAt,
	}
}

const insertVerticalQuery = `
INSERT INTO course_vertical (
	id, course, course_name, chapter, chapter_name, chapter_number,
	sequential, sequential_name, sequential_number, vertical, vertical_name,
	vertical_number, block_id, block_type, child_number, student_view_url,
	lms_web_url, created_at
) VALUES (
	:id, :course, :course_name, :chapter, :chapter_name, :chapter_number,
	:sequential, :sequential_name, :sequential_number, :vertical, :vertical_name,
	:vertical_number, :block_id, :block_type, :child_number, :student_view_url,
	:lms_web_url, :created_at
)`

const selectVerticalQuery = `
SELECT * FROM course_vertical`

const verticalOrdering = ` ORDER BY course, chapter_number, sequential_number, vertical_number, child_number`

type verticalRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*verticalRepository)(nil)

func NewVerticalRepository(db *sqlx.DB) *verticalRepository {
	return &verticalRepository{db: db}
}

func (repo verticalRepository) CreateVerticals(vts ...course.Vertical) ([]course.Vertical, error) {
	created := make([]course.Vertical, 0, len(vts))
	for _, v := range vts {
		row := toDBVertical(v)
		if _, err := repo.db.NamedExec(insertVerticalQuery, row); err != nil {
			return nil, errors.Wrap(err, "inserting vertical")
		}
		created = append(created, row.vertical())
	}
	return created, nil
}

func (repo verticalRepository) QueryAllVerticals() ([]course.Vertical, error) {
	var rows []dbVertical
	if err := repo.db.Select(&rows, selectVerticalQuery+verticalOrdering); err != nil {
		return nil, errors.Wrap(err, "querying verticals")
	}
	return verticalsOf(rows), nil
}

func (repo verticalRepository) GetVerticalByID(id string) (course.Vertical, error) {
	var row dbVertical
	if err := repo.db.Get(&row, selectVerticalQuery+` WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Vertical{}, course.ErrNotFound
		}
		return course.Vertical{}, errors.Wrap(err, "getting vertical")
	}
	return row.vertical(), nil
}

func (repo verticalRepository) SearchVerticals(term string) ([]course.Vertical, error) {
	// search matches the course name or the course usage key; dashboards pass
	// course-v1 ids while stored keys use the block-v1 form
	blockTerm := strings.ReplaceAll(term, "course-v1", "block-v1")

	var rows []dbVertical
	q := selectVerticalQuery +
		` WHERE course_name ILIKE '%' || $1 || '%' OR course ILIKE '%' || $2 || '%'` +
		verticalOrdering
	if err := repo.db.Select(&rows, q, term, blockTerm); err != nil {
		return nil, errors.Wrap(err, "searching verticals")
	}
	return verticalsOf(rows), nil
}

func (repo verticalRepository) ReplaceCourseVerticals(courseID string, vts []course.Vertical) ([]course.Vertical, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return nil, errors.Wrap(err, "beginning replace transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.Exec(`DELETE FROM course_vertical WHERE course = $1`, courseID); err != nil {
		return nil, errors.Wrap(err, "clearing course verticals")
	}

	created := make([]course.Vertical, 0, len(vts))
	for _, v := range vts {
		row := toDBVertical(v)
		if _, err = tx.NamedExec(insertVerticalQuery, row); err != nil {
			return nil, errors.Wrap(err, "inserting vertical")
		}
		created = append(created, row.vertical())
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing replace transaction")
	}
	return created, nil
}

func verticalsOf(rows []dbVertical) []course.Vertical {
	vts := make([]course.Vertical, 0, len(rows))
	for _, row := range rows {
		vts = append(vts, row.vertical())
	}
	return vts
}
