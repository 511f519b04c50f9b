package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func vertical(course, courseName string, chNum, seqNum, vertNum, childNum int) Vertical {
	return Vertical{
		Course:           course,
		CourseName:       courseName,
		Chapter:          "chapter",
		ChapterName:      "Chapter",
		ChapterNumber:    chNum,
		Sequential:       "sequential",
		SequentialName:   "Sequential",
		SequentialNumber: seqNum,
		Vertical:         "vertical",
		VerticalName:     "Vertical",
		VerticalNumber:   vertNum,
		BlockID:          "leaf",
		BlockType:        "html",
		ChildNumber:      childNum,
	}
}

func TestMapCourses(t *testing.T) {
	courseKey := "block-v1:UC+T+2020+type@course+block@course"
	courseID := "block-v1:UC+T+2020"

	t.Run("orders levels by sibling number", func(t *testing.T) {
		// rows arrive in storage order, not tree order
		vts := []Vertical{
			vertical(courseKey, "Test", 2, 1, 1, 1),
			vertical(courseKey, "Test", 1, 2, 1, 1),
			vertical(courseKey, "Test", 1, 1, 2, 1),
			vertical(courseKey, "Test", 1, 1, 1, 1),
		}
		vts[0].ChapterName = "Week 2"
		vts[1].SequentialName = "Lesson 2"
		vts[2].VerticalName = "Unit 2"

		mapped := MapCourses(vts, []string{courseID})
		if assert.Len(t, mapped, 1) {
			crs := mapped[0]
			assert.Equal(t, "Test", crs.Name)
			assert.Equal(t, courseID, crs.ID)

			if assert.Len(t, crs.Chapters, 2) {
				assert.Equal(t, "Chapter", crs.Chapters[0].Name)
				assert.Equal(t, "Week 2", crs.Chapters[1].Name)
			}
			if assert.Len(t, crs.Chapters[0].Sequentials, 2) {
				assert.Equal(t, "Sequential", crs.Chapters[0].Sequentials[0].Name)
				assert.Equal(t, "Lesson 2", crs.Chapters[0].Sequentials[1].Name)
			}
			if assert.Len(t, crs.Chapters[0].Sequentials[0].Verticals, 2) {
				assert.Equal(t, "Vertical", crs.Chapters[0].Sequentials[0].Verticals[0].Name)
				assert.Equal(t, "Unit 2", crs.Chapters[0].Sequentials[0].Verticals[1].Name)
			}
		}
	})

	t.Run("keeps one vertical per sibling number", func(t *testing.T) {
		// a vertical holds several leaves; only its first leaf represents it
		first := vertical(courseKey, "Test", 1, 1, 1, 1)
		second := vertical(courseKey, "Test", 1, 1, 1, 2)
		second.BlockID = "leaf2"

		mapped := MapCourses([]Vertical{first, second}, []string{courseID})
		if assert.Len(t, mapped, 1) {
			verticals := mapped[0].Chapters[0].Sequentials[0].Verticals
			if assert.Len(t, verticals, 1) {
				assert.Equal(t, "leaf", verticals[0].BlockID)
			}
		}
	})

	t.Run("truncates course id at the type marker", func(t *testing.T) {
		mapped := MapCourses([]Vertical{vertical(courseKey, "Test", 1, 1, 1, 1)}, []string{courseID})
		if assert.Len(t, mapped, 1) {
			assert.Equal(t, courseID, mapped[0].ID)
		}
	})

	t.Run("drops courses outside the allowed list", func(t *testing.T) {
		otherKey := "block-v1:UC+Other+2019+type@course+block@course"
		vts := []Vertical{
			vertical(courseKey, "Test", 1, 1, 1, 1),
			vertical(otherKey, "Other", 1, 1, 1, 1),
		}

		mapped := MapCourses(vts, []string{courseID})
		if assert.Len(t, mapped, 1) {
			assert.Equal(t, "Test", mapped[0].Name)
		}

		assert.Empty(t, MapCourses(vts, nil))
	})

	t.Run("carries leaf metadata", func(t *testing.T) {
		vt := vertical(courseKey, "Test", 1, 1, 1, 1)
		vt.StudentViewURL = "http://lms/xblock/leaf"
		vt.Vertical = "block-v1:UC+T+2020+type@vertical+block@vert1"

		mapped := MapCourses([]Vertical{vt}, []string{courseID})
		if assert.Len(t, mapped, 1) {
			v := mapped[0].Chapters[0].Sequentials[0].Verticals[0]
			assert.Equal(t, "leaf", v.BlockID)
			assert.Equal(t, "html", v.BlockType)
			assert.Equal(t, "http://lms/xblock/leaf", v.BlockURL)
			assert.Equal(t, "block-v1:UC+T+2020+type@vertical+block@vert1", v.VerticalID)
		}
	})
}
