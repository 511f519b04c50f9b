package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edulytics/backend/core"
	"github.com/edulytics/backend/core/eventlog"
)

type dbLog struct {
	ID          string    `db:"id"`
	Username    string    `db:"username"`
	EventType   string    `db:"event_type"`
	EventSource string    `db:"event_source"`
	Page        string    `db:"page"`
	Time        time.Time `db:"time"`
	Extra       []byte    `db:"extra"`
}

func toDBLog(l eventlog.Log) (dbLog, error) {
	extra := l.Extra
	if extra == nil {
		extra = eventlog.Record{}
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		return dbLog{}, errors.Wrap(err, "marshaling log extra")
	}

	row := dbLog{
		ID:          l.ID,
		Username:    l.Username,
		EventType:   l.EventType,
		EventSource: l.EventSource,
		Page:        l.Page,
		Time:        l.Time.UTC(),
		Extra:       raw,
	}
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	return row, nil
}

func (row dbLog) log() (eventlog.Log, error) {
	extra := eventlog.Record{}
	if len(row.Extra) > 0 {
		if err := json.Unmarshal(row.Extra, &extra); err != nil {
			return eventlog.Log{}, errors.Wrap(err, "unmarshaling log extra")
		}
	}
	return eventlog.Log{
		ID:          row.ID,
		Username:    row.Username,
		EventType:   row.EventType,
		EventSource: row.EventSource,
		Page:        row.Page,
		Time:        row.Time,
		Extra:       extra,
	}, nil
}

const insertLogQuery = `
INSERT INTO event_log (id, username, event_type, event_source, page, time, extra)
VALUES (:id, :username, :event_type, :event_source, :page, :time, :extra)`

const selectLogQuery = `
SELECT * FROM event_log`

// logOrderFields whitelists the columns accepted in orderings.
var logOrderFields = map[string]bool{
	"username":   true,
	"event_type": true,
	"time":       true,
}

func logOrderClause(ordering []core.DBOrdering) string {
	clauses := make([]string, 0, len(ordering))
	for _, o := range ordering {
		if logOrderFields[o.Field] {
			clauses = append(clauses, o.String())
		}
	}
	if len(clauses) == 0 {
		return ` ORDER BY time DESC`
	}
	return ` ORDER BY ` + strings.Join(clauses, ", ")
}

type logRepository struct {
	db *sqlx.DB
}

var _ eventlog.Repository = (*logRepository)(nil)

func NewLogRepository(db *sqlx.DB) *logRepository {
	return &logRepository{db: db}
}

func (repo logRepository) CreateLogs(logs ...eventlog.Log) ([]eventlog.Log, error) {
	created := make([]eventlog.Log, 0, len(logs))
	for _, l := range logs {
		row, err := toDBLog(l)
		if err != nil {
			return nil, err
		}
		if _, err = repo.db.NamedExec(insertLogQuery, row); err != nil {
			return nil, errors.Wrap(err, "inserting log")
		}
		l.ID = row.ID
		created = append(created, l)
	}
	return created, nil
}

func (repo logRepository) QueryAllLogs(ordering ...core.DBOrdering) ([]eventlog.Log, error) {
	var rows []dbLog
	if err := repo.db.Select(&rows, selectLogQuery+logOrderClause(ordering)); err != nil {
		return nil, errors.Wrap(err, "querying logs")
	}
	return logsOf(rows)
}

func (repo logRepository) GetLogByID(id string) (eventlog.Log, error) {
	var row dbLog
	if err := repo.db.Get(&row, selectLogQuery+` WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return eventlog.Log{}, eventlog.ErrNotFound
		}
		return eventlog.Log{}, errors.Wrap(err, "getting log")
	}
	return row.log()
}

func (repo logRepository) FilterLogs(filter eventlog.QueryFilter, ordering ...core.DBOrdering) ([]eventlog.Log, error) {
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
	if filter.EventType != "" {
		conds = append(conds, `event_type = `+arg(filter.EventType))
	}
	if !filter.From.IsZero() {
		conds = append(conds, `time >= `+arg(filter.From.UTC()))
	}
	if !filter.To.IsZero() {
		conds = append(conds, `time <= `+arg(filter.To.UTC()))
	}

	q := selectLogQuery
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += logOrderClause(ordering)

	var rows []dbLog
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering logs")
	}
	return logsOf(rows)
}

func logsOf(rows []dbLog) ([]eventlog.Log, error) {
	logs := make([]eventlog.Log, 0, len(rows))
	for _, row := range rows {
		l, err := row.log()
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}
