package eventlog

import "regexp"

// DefaultMinLogs is the activity threshold under which a user is considered
// a drive-by visitor rather than a course participant.
const DefaultMinLogs = 15

// staffEventRegex flags event types only ever produced by course staff
// (Studio authoring, instructor dashboard). Case-sensitive on purpose: LMS
// event types are lowercase paths.
var staffEventRegex = regexp.MustCompile(`.*(studio|instructor).*`)

// FilterByActivity keeps the records of users with strictly more than minLogs
// records in the collection. userField names the user-identifying key.
// The input is not mutated and survivor order is preserved.
func FilterByActivity(logs []Record, minLogs int, userField string) []Record {
	counts := make(map[string]int)
	for _, rec := range logs {
		counts[rec.Str(userField)]++
	}

	kept := make([]Record, 0, len(logs))
	for _, rec := range logs {
		if counts[rec.Str(userField)] > minLogs {
			kept = append(kept, rec)
		}
	}
	return kept
}

// FilterCourseTeam drops every record of users classified as course staff:
// those with at least one event type matching staffEventRegex, plus any
// username in otherPeople (known TAs etc). The input is not mutated and
// survivor order is preserved.
func FilterCourseTeam(logs []Record, userField string, otherPeople []string) []Record {
	staff := make(map[string]bool)
	for _, rec := range logs {
		if staffEventRegex.MatchString(rec.EventType()) {
			staff[rec.Str(userField)] = true
		}
	}
	for _, username := range otherPeople {
		staff[username] = true
	}

	kept := make([]Record, 0, len(logs))
	for _, rec := range logs {
		if !staff[rec.Str(userField)] {
			kept = append(kept, rec)
		}
	}
	return kept
}
