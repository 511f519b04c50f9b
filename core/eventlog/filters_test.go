package eventlog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeLogs(username, eventType string, n int) []Record {
	logs := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		logs = append(logs, Record{
			FieldUsername:  username,
			FieldEventType: eventType,
			"seq":          fmt.Sprintf("%s-%d", username, i),
		})
	}
	return logs
}

func countByUser(logs []Record) map[string]int {
	counts := make(map[string]int)
	for _, rec := range logs {
		counts[rec.Username()]++
	}
	return counts
}

func TestFilterByActivity(t *testing.T) {
	tests := []struct {
		name    string
		minLogs int
		counts  map[string]int
		want    []string // retained users
	}{
		{name: "default threshold", minLogs: DefaultMinLogs, counts: map[string]int{"active": 20, "drive-by": 3}, want: []string{"active"}},
		{name: "strictly greater", minLogs: 15, counts: map[string]int{"edge": 15, "over": 16}, want: []string{"over"}},
		{name: "zero threshold keeps all", minLogs: 0, counts: map[string]int{"a": 1, "b": 2}, want: []string{"a", "b"}},
		{name: "nobody passes", minLogs: 100, counts: map[string]int{"a": 1, "b": 99}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs []Record
			for user, n := range tt.counts {
				logs = append(logs, makeLogs(user, "play_video", n)...)
			}

			got := FilterByActivity(logs, tt.minLogs, FieldUsername)

			gotCounts := countByUser(got)
			assert.Len(t, gotCounts, len(tt.want))
			for _, user := range tt.want {
				// each retained user keeps every one of their rows
				assert.Equal(t, tt.counts[user], gotCounts[user], "user %s", user)
			}
		})
	}
}

func TestFilterByActivity_preservesOrder(t *testing.T) {
	logs := append(makeLogs("a", "play_video", 3), makeLogs("b", "play_video", 1)...)
	logs = append(logs, makeLogs("a", "seek_video", 2)...)

	got := FilterByActivity(logs, 2, FieldUsername)
	assert.Len(t, got, 5)
	assert.Equal(t, "a-0", got[0]["seq"])
	assert.Equal(t, "a-1", got[4]["seq"]) // the seek_video batch restarts its seq
	assert.Equal(t, "seek_video", got[4].EventType())
}

func TestFilterCourseTeam(t *testing.T) {
	logs := append(makeLogs("prof", "studio_login", 1), makeLogs("prof", "play_video", 5)...)
	logs = append(logs, makeLogs("assistant", "instructor.dashboard.view", 2)...)
	logs = append(logs, makeLogs("student", "play_video", 4)...)
	logs = append(logs, makeLogs("ta", "play_video", 3)...)

	got := FilterCourseTeam(logs, FieldUsername, nil)
	counts := countByUser(got)
	// one staff event excludes every record of that user
	assert.NotContains(t, counts, "prof")
	assert.NotContains(t, counts, "assistant")
	assert.Equal(t, 4, counts["student"])
	assert.Equal(t, 3, counts["ta"])

	got = FilterCourseTeam(logs, FieldUsername, []string{"ta"})
	counts = countByUser(got)
	assert.NotContains(t, counts, "ta")
	assert.Equal(t, 4, counts["student"])
}

func TestFilterCourseTeam_caseSensitive(t *testing.T) {
	logs := append(makeLogs("shouty", "STUDIO_LOGIN", 1), makeLogs("quiet", "studio_login", 1)...)

	got := FilterCourseTeam(logs, FieldUsername, nil)
	counts := countByUser(got)
	assert.Contains(t, counts, "shouty") // uppercase does not match
	assert.NotContains(t, counts, "quiet")
}
