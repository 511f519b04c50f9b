package eventlog

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	raw := map[string]interface{}{
		"username":   "student1",
		"event_type": "play_video",
		"time":       "2021-01-01T00:00:00+00:00",
		"context": map[string]interface{}{
			"course_id": "course-v1:U+C1+2021",
			"org_id":    "U",
			"module": map[string]interface{}{
				"display_name": "Intro Video",
				"usage_key":    "block-v1:U+C1+2021+type@video+block@abc",
			},
			"asides":    map[string]interface{}{},
			"user_tags": map[string]interface{}{"tag": "x"},
		},
	}

	rec := Normalize(raw)

	assert.NotContains(t, rec, "context")
	assert.Equal(t, "course-v1:U+C1+2021", rec["context.course_id"])
	assert.Equal(t, "U", rec["context.org_id"])
	assert.Equal(t, "Intro Video", rec["context.display_name"])
	assert.NotContains(t, rec, "context.module")
	assert.NotContains(t, rec, "context.asides")
	assert.NotContains(t, rec, "context.user_tags")
	assert.Equal(t, "student1", rec.Username())
	assert.Equal(t, "play_video", rec.EventType())

	// input left untouched
	assert.Contains(t, raw, "context")
}

func TestNormalize_optionalFieldsAbsent(t *testing.T) {
	rec := Normalize(map[string]interface{}{
		"username": "student1",
		"context":  map[string]interface{}{"course_id": "c1"},
	})
	assert.Equal(t, "c1", rec["context.course_id"])
	assert.NotContains(t, rec, "context.display_name")
}

func TestNormalize_noContext(t *testing.T) {
	rec := Normalize(map[string]interface{}{"username": "student1"})
	assert.Equal(t, "student1", rec.Username())
}

func TestReadLogLines(t *testing.T) {
	lines := strings.Join([]string{
		`{"username": "a", "event_type": "play_video", "context": {"path": "/c1"}}`,
		``,
		`{"username": "b", "event_type": "seek_video", "context": {"path": "/c2"}}`,
	}, "\n")

	records, err := ReadLogLines(strings.NewReader(lines))
	require.NoError(t, err)
	require.Len(t, records, 2)

	// order preserved, blank lines skipped
	assert.Equal(t, "a", records[0].Username())
	assert.Equal(t, "/c1", records[0]["context.path"])
	assert.Equal(t, "b", records[1].Username())

	_, err = ReadLogLines(strings.NewReader(`{"broken`))
	assert.Error(t, err)
}

func TestReadLogs_gzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracking.log.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(`{"username": "a", "event_type": "play_video", "context": {}}` + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	records, err := ReadLogs(path, true)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].Username())
}

func TestReadLogs_corruptGzipFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracking.log.gz")
	require.NoError(t, os.WriteFile(path, []byte("this is not gzip"), 0o644))

	_, err := ReadLogs(path, false)
	assert.Error(t, err) // not JSON either way

	_, err = ReadLogs(path, true)
	require.Error(t, err)
	var dErr *DecompressionError
	assert.True(t, errors.As(err, &dErr))
}

func TestNewLog(t *testing.T) {
	rec := Record{
		"username":             "a",
		"event_type":           "play_video",
		"event_source":         "browser",
		"page":                 "http://lms/courses/c1",
		"time":                 "2021-03-04T05:06:07.123456+00:00",
		"context.course_id":    "course-v1:U+C1+2021",
		"context.display_name": "Intro",
	}

	l, err := NewLog(rec)
	require.NoError(t, err)
	assert.Equal(t, "a", l.Username)
	assert.Equal(t, "play_video", l.EventType)
	assert.Equal(t, "browser", l.EventSource)
	assert.Equal(t, 2021, l.Time.Year())
	assert.Equal(t, "course-v1:U+C1+2021", l.Extra["context.course_id"])
	assert.NotContains(t, l.Extra, "username")
	assert.NotContains(t, l.Extra, "time")

	_, err = NewLog(Record{"username": "a"})
	assert.Error(t, err)
}
