package inmemdb

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/edulytics/backend/core"
	"github.com/edulytics/backend/core/eventlog"
)

type logRepository struct {
	db *logTable
}

func NewLogRepository(db *DB) eventlog.Repository {
	return &logRepository{db: db.eventlog}
}

func (repo *logRepository) CreateLogs(logs ...eventlog.Log) ([]eventlog.Log, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	created := make([]eventlog.Log, 0, len(logs))
	for _, l := range logs {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		repo.db.rows = append(repo.db.rows, l)
		created = append(created, l)
	}
	return created, nil
}

func (repo *logRepository) QueryAllLogs(ordering ...core.DBOrdering) ([]eventlog.Log, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return sortLogs(append([]eventlog.Log(nil), repo.db.rows...), ordering), nil
}

func (repo *logRepository) GetLogByID(id string) (eventlog.Log, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, l := range repo.db.rows {
		if l.ID == id {
			return l, nil
		}
	}
	return eventlog.Log{}, eventlog.ErrNotFound
}

func (repo *logRepository) FilterLogs(filter eventlog.QueryFilter, ordering ...core.DBOrdering) ([]eventlog.Log, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var matched []eventlog.Log
	for _, l := range repo.db.rows {
		if filter.Search != "" && !strings.Contains(strings.ToLower(l.Username), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.EventType != "" && l.EventType != filter.EventType {
			continue
		}
		if !filter.From.IsZero() && l.Time.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && l.Time.After(filter.To) {
			continue
		}
		matched = append(matched, l)
	}
	return sortLogs(matched, ordering), nil
}

func sortLogs(logs []eventlog.Log, ordering []core.DBOrdering) []eventlog.Log {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "time", Ascending: false}}
	}
	sort.SliceStable(logs, func(i, j int) bool {
		for _, o := range ordering {
			var a, b string
			switch o.Field {
			case "username":
				a, b = logs[i].Username, logs[j].Username
			case "event_type":
				a, b = logs[i].EventType, logs[j].EventType
			case "time":
				if !logs[i].Time.Equal(logs[j].Time) {
					if o.Ascending {
						return logs[i].Time.Before(logs[j].Time)
					}
					return logs[i].Time.After(logs[j].Time)
				}
				continue
			default:
				continue
			}
			if a != b {
				if o.Ascending {
					return a < b
				}
				return a > b
			}
		}
		return false
	})
	return logs
}
