package course

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/edulytics/backend/core"
)

var ErrNotFound = errors.New("vertical not found")

type (
	Repository interface {
		CreateVerticals(vts ...Vertical) ([]Vertical, error)
		QueryAllVerticals() ([]Vertical, error)
		GetVerticalByID(id string) (Vertical, error)
		// SearchVerticals does a case-insensitive match on Vertical.CourseName
		// or on Vertical.Course with the "course-v1" prefix rewritten to "block-v1".
		SearchVerticals(term string) ([]Vertical, error)
		// ReplaceCourseVerticals atomically swaps all rows of a course for the given set.
		ReplaceCourseVerticals(courseID string, vts []Vertical) ([]Vertical, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(vts ...Vertical) ([]Vertical, error) {
	return svc.repo.CreateVerticals(vts...)
}

func (svc *Service) QueryAll() ([]Vertical, error) {
	return svc.repo.QueryAllVerticals()
}

func (svc *Service) GetByID(id string) (Vertical, error) {
	return svc.repo.GetVerticalByID(id)
}

func (svc *Service) Search(term string) ([]Vertical, error) {
	return svc.repo.SearchVerticals(core.CleanString(term))
}

// ReplaceCourse re-ingests a course: all previously stored rows of courseID
// are swapped for the freshly reconstructed ones.
func (svc *Service) ReplaceCourse(courseID string, rows []StructureRow) ([]Vertical, error) {
	vts := make([]Vertical, 0, len(rows))
	for _, row := range rows {
		vts = append(vts, NewVertical(row))
	}
	return svc.repo.ReplaceCourseVerticals(courseID, vts)
}

// Mapped* types form the nested course structure payload served to dashboards.
type (
	MappedVertical struct {
		Name       string `json:"name"`
		BlockID    string `json:"block_id"`
		BlockType  string `json:"block_type"`
		BlockURL   string `json:"block_url"`
		VerticalID string `json:"vertical_id"`
	}

	MappedSequential struct {
		Name      string           `json:"name"`
		Verticals []MappedVertical `json:"verticals"`
	}

	MappedChapter struct {
		Name        string             `json:"name"`
		Sequentials []MappedSequential `json:"sequentials"`
	}

	MappedCourse struct {
		Name     string          `json:"name"`
		ID       string          `json:"id"`
		Chapters []MappedChapter `json:"chapters"`
	}
)

type (
	sequentialAcc struct {
		name      string
		verticals map[int]MappedVertical
	}

	chapterAcc struct {
		name        string
		sequentials map[int]*sequentialAcc
	}

	courseAcc struct {
		name     string
		id       string
		chapters map[int]*chapterAcc
	}
)

func (acc *courseAcc) add(v Vertical) {
	chapter, ok := acc.chapters[v.ChapterNumber]
	if !ok {
		chapter = &chapterAcc{name: v.ChapterName, sequentials: make(map[int]*sequentialAcc)}
		acc.chapters[v.ChapterNumber] = chapter
	}
	sequential, ok := chapter.sequentials[v.SequentialNumber]
	if !ok {
		sequential = &sequentialAcc{name: v.SequentialName, verticals: make(map[int]MappedVertical)}
		chapter.sequentials[v.SequentialNumber] = sequential
	}
	if _, ok = sequential.verticals[v.VerticalNumber]; !ok {
		sequential.verticals[v.VerticalNumber] = MappedVertical{
			Name:       v.VerticalName,
			BlockID:    v.BlockID,
			BlockType:  v.BlockType,
			BlockURL:   v.StudentViewURL,
			VerticalID: v.Vertical,
		}
	}
}

func (acc *courseAcc) mapped() MappedCourse {
	chapters := make([]MappedChapter, 0, len(acc.chapters))
	for _, chNum := range sortedIntKeysChapter(acc.chapters) {
		chapter := acc.chapters[chNum]
		sequentials := make([]MappedSequential, 0, len(chapter.sequentials))
		for _, seqNum := range sortedIntKeysSequential(chapter.sequentials) {
			sequential := chapter.sequentials[seqNum]
			verticals := make([]MappedVertical, 0, len(sequential.verticals))
			for _, vNum := range sortedIntKeysVertical(sequential.verticals) {
				verticals = append(verticals, sequential.verticals[vNum])
			}
			sequentials = append(sequentials, MappedSequential{Name: sequential.name, Verticals: verticals})
		}
		chapters = append(chapters, MappedChapter{Name: chapter.name, Sequentials: sequentials})
	}
	return MappedCourse{Name: acc.name, ID: acc.id, Chapters: chapters}
}

// MapCourses reshapes flat vertical rows into the nested
// course > chapter > sequential > vertical tree, ordered by the stored
// sibling numbers. Courses whose id is not in the caller's allowed list are
// left out; an empty result on a non-empty input therefore means the caller
// lacks permission on every matched course.
func MapCourses(verticals []Vertical, allowed []string) []MappedCourse {
	allowedSet := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		allowedSet[id] = true
	}

	courses := make(map[string]*courseAcc)
	var courseKeys []string
	for _, v := range verticals {
		acc, ok := courses[v.Course]
		if !ok {
			acc = &courseAcc{
				name: v.CourseName,
				// correct course id name
				id:       strings.SplitN(v.Course, "+type@", 2)[0],
				chapters: make(map[int]*chapterAcc),
			}
			courses[v.Course] = acc
			courseKeys = append(courseKeys, v.Course)
		}
		acc.add(v)
	}

	mapped := make([]MappedCourse, 0, len(courseKeys))
	for _, key := range courseKeys {
		acc := courses[key]
		if !allowedSet[acc.id] {
			continue
		}
		mapped = append(mapped, acc.mapped())
	}
	return mapped
}

func sortedIntKeysChapter(m map[int]*chapterAcc) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedIntKeysSequential(m map[int]*sequentialAcc) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedIntKeysVertical(m map[int]MappedVertical) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
