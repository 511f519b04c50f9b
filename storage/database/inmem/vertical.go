package inmemdb

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/edulytics/backend/core/course"
)

type verticalRepository struct {
	db *verticalTable
}

func NewVerticalRepository(db *DB) course.Repository {
	return &verticalRepository{db: db.vertical}
}

func (repo *verticalRepository) insert(vts []course.Vertical) []course.Vertical {
	created := make([]course.Vertical, 0, len(vts))
	for _, v := range vts {
		if v.ID == "" {
			v.ID = uuid.New().String()
		}
		repo.db.rows = append(repo.db.rows, v)
		created = append(created, v)
	}
	return created
}

func (repo *verticalRepository) CreateVerticals(vts ...course.Vertical) ([]course.Vertical, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	return repo.insert(vts), nil
}

func (repo *verticalRepository) QueryAllVerticals() ([]course.Vertical, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return sortVerticals(append([]course.Vertical(nil), repo.db.rows...)), nil
}

func (repo *verticalRepository) GetVerticalByID(id string) (course.Vertical, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, v := range repo.db.rows {
		if v.ID == id {
			return v, nil
		}
	}
	return course.Vertical{}, course.ErrNotFound
}

func (repo *verticalRepository) SearchVerticals(term string) ([]course.Vertical, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	nameTerm := strings.ToLower(term)
	blockTerm := strings.ToLower(strings.ReplaceAll(term, "course-v1", "block-v1"))

	var matched []course.Vertical
	for _, v := range repo.db.rows {
		if strings.Contains(strings.ToLower(v.CourseName), nameTerm) ||
			strings.Contains(strings.ToLower(v.Course), blockTerm) {
			matched = append(matched, v)
		}
	}
	return sortVerticals(matched), nil
}

func (repo *verticalRepository) ReplaceCourseVerticals(courseID string, vts []course.Vertical) ([]course.Vertical, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	kept := repo.db.rows[:0]
	for _, v := range repo.db.rows {
		if v.Course != courseID {
			kept = append(kept, v)
		}
	}
	repo.db.rows = kept
	return repo.insert(vts), nil
}

func sortVerticals(vts []course.Vertical) []course.Vertical {
	sort.SliceStable(vts, func(i, j int) bool {
		a, b := vts[i], vts[j]
		if a.Course != b.Course {
			return a.Course < b.Course
		}
		if a.ChapterNumber != b.ChapterNumber {
			return a.ChapterNumber < b.ChapterNumber
		}
		if a.SequentialNumber != b.SequentialNumber {
			return a.SequentialNumber < b.SequentialNumber
		}
		if a.VerticalNumber != b.VerticalNumber {
			return a.VerticalNumber < b.VerticalNumber
		}
		return a.ChildNumber < b.ChildNumber
	})
	return vts
}
