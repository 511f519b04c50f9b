package eventlog

import (
	"github.com/pkg/errors"

	"github.com/edulytics/backend/core"
)

var ErrNotFound = errors.New("log not found")

type (
	Repository interface {
		CreateLogs(logs ...Log) ([]Log, error)
		// QueryAllLogs returns logs ordered by the given fields (most recent first by default).
		QueryAllLogs(ordering ...core.DBOrdering) ([]Log, error)
		GetLogByID(id string) (Log, error)
		// FilterLogs applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Log.Username.
		FilterLogs(filter QueryFilter, ordering ...core.DBOrdering) ([]Log, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Ingest normalizes nothing itself; records are expected to have gone through
// Normalize (and optionally the activity/staff filters) already.
func (svc *Service) Ingest(records []Record) ([]Log, error) {
	logs := make([]Log, 0, len(records))
	for _, rec := range records {
		l, err := NewLog(rec)
		if err != nil {
			return nil, errors.Wrap(err, "building log row")
		}
		logs = append(logs, l)
	}
	return svc.repo.CreateLogs(logs...)
}

func (svc *Service) QueryAll(ordering ...core.DBOrdering) ([]Log, error) {
	return svc.repo.QueryAllLogs(ordering...)
}

func (svc *Service) GetByID(id string) (Log, error) {
	return svc.repo.GetLogByID(id)
}

func (svc *Service) Filter(filter *QueryFilter, ordering ...core.DBOrdering) ([]Log, error) {
	if filter == nil || filter.IsEmpty() {
		return svc.repo.QueryAllLogs(ordering...)
	}
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.FilterLogs(*filter, ordering...)
}
