package visit

import (
	"github.com/pkg/errors"

	"github.com/edulytics/backend/core"
)

var ErrNotFound = errors.New("visit not found")

type (
	Repository interface {
		CreateVisits(visits ...VisitOnPage) ([]VisitOnPage, error)
		// FilterVisits applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Username,
		// QueryFilter.Course a case-insensitive containment match on Course.
		FilterVisits(filter QueryFilter) ([]VisitOnPage, error)
		// SummarizeCourseVisits sums visit counts per (username, vertical,
		// sequential, chapter, course) over the inclusive window, for courses
		// containing courseID. Rows are ordered by username, then vertical.
		SummarizeCourseVisits(courseID string, w Window) ([]Summary, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(visits ...VisitOnPage) ([]VisitOnPage, error) {
	return svc.repo.CreateVisits(visits...)
}

func (svc *Service) Filter(filter *QueryFilter) ([]VisitOnPage, error) {
	if filter != nil {
		filter.Search = core.CleanString(filter.Search)
		filter.Course = core.CleanString(filter.Course)
	} else {
		filter = &QueryFilter{}
	}
	return svc.repo.FilterVisits(*filter)
}

func (svc *Service) SummarizeCourse(courseID string, w Window) ([]Summary, error) {
	return svc.repo.SummarizeCourseVisits(core.CleanString(courseID), w)
}
