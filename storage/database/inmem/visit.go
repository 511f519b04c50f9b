package inmemdb

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/edulytics/backend/core/visit"
)

type visitRepository struct {
	db *visitTable
}

func NewVisitRepository(db *DB) visit.Repository {
	return &visitRepository{db: db.visit}
}

func (repo *visitRepository) CreateVisits(visits ...visit.VisitOnPage) ([]visit.VisitOnPage, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	created := make([]visit.VisitOnPage, 0, len(visits))
	for _, v := range visits {
		if v.ID == "" {
			v.ID = uuid.New().String()
		}
		repo.db.rows = append(repo.db.rows, v)
		created = append(created, v)
	}
	return created, nil
}

func (repo *visitRepository) FilterVisits(filter visit.QueryFilter) ([]visit.VisitOnPage, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var matched []visit.VisitOnPage
	for _, v := range repo.db.rows {
		if filter.Search != "" && !strings.Contains(strings.ToLower(v.Username), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Course != "" && !strings.Contains(strings.ToLower(v.Course), strings.ToLower(filter.Course)) {
			continue
		}
		if !filter.From.IsZero() && v.Time.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && v.Time.After(filter.To) {
			continue
		}
		matched = append(matched, v)
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Time.After(matched[j].Time) })
	return matched, nil
}

func (repo *visitRepository) SummarizeCourseVisits(courseID string, w visit.Window) ([]visit.Summary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	type key struct {
		username, vertical, sequential, chapter, course string
	}
	totals := make(map[key]int)
	term := strings.ToLower(courseID)

	for _, v := range repo.db.rows {
		if !strings.Contains(strings.ToLower(v.Course), term) {
			continue
		}
		// both bounds inclusive
		if v.Time.Before(w.Lower) || v.Time.After(w.Upper) {
			continue
		}
		totals[key{v.Username, v.Vertical, v.Sequential, v.Chapter, v.Course}] += v.Count
	}

	summaries := make([]visit.Summary, 0, len(totals))
	for k, total := range totals {
		summaries = append(summaries, visit.Summary{
			Username:   k.username,
			Vertical:   k.vertical,
			Sequential: k.sequential,
			Chapter:    k.chapter,
			Course:     k.course,
			Total:      total,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Username != summaries[j].Username {
			return summaries[i].Username < summaries[j].Username
		}
		return summaries[i].Vertical < summaries[j].Vertical
	})
	return summaries, nil
}
