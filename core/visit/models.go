package visit

import (
	"fmt"
	"strings"
	"time"
)

// VisitOnPage is an aggregated visit counter keyed by
// (username, course, chapter, sequential, vertical, time bucket).
// Rows are written by the external ingestion pipeline and read-only here.
type VisitOnPage struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Course     string    `json:"course"`
	Chapter    string    `json:"chapter"`
	Sequential string    `json:"sequential"`
	Vertical   string    `json:"vertical"`
	Count      int       `json:"count"`
	Time       time.Time `json:"time"`
}

// Summary is one row of the per-vertical visit aggregation: total visits of a
// user on a vertical within the queried window.
type Summary struct {
	Username   string `json:"username"`
	Vertical   string `json:"vertical"`
	Sequential string `json:"sequential"`
	Chapter    string `json:"chapter"`
	Course     string `json:"course"`
	Total      int    `json:"total"`
}

// Window is an inclusive time range. Both bounds are included in queries:
// equal bounds select visits exactly at that instant.
type Window struct {
	Lower time.Time
	Upper time.Time
}

func (w Window) Inverted() bool {
	return w.Lower.After(w.Upper)
}

// TimeParseError signals a malformed ISO-8601 window bound; it surfaces to
// API callers as a client error.
type TimeParseError struct {
	Value string
	Err   error
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("parsing time limit %q: %v", e.Value, e.Err)
}

func (e *TimeParseError) Unwrap() error { return e.Err }

// isoLayouts mirrors the bounds accepted by the dashboards: ISO-8601 with
// optional fractional seconds, seconds or minutes.
var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseWindowBound parses an ISO-8601 bound in the given location. A trailing
// "Z" is stripped first: bounds are interpreted in the platform's configured
// timezone, not UTC.
func ParseWindowBound(value string, loc *time.Location) (time.Time, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(value), "Z")
	var err error
	for _, layout := range isoLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, trimmed, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &TimeParseError{Value: value, Err: err}
}

// ParseWindow parses both bounds of an inclusive window.
func ParseWindow(llimit, ulimit string, loc *time.Location) (Window, error) {
	lower, err := ParseWindowBound(llimit, loc)
	if err != nil {
		return Window{}, err
	}
	upper, err := ParseWindowBound(ulimit, loc)
	if err != nil {
		return Window{}, err
	}
	return Window{Lower: lower, Upper: upper}, nil
}

type QueryFilter struct {
	Search string    `query:"search"` // matches username
	Course string    `query:"course"`
	From   time.Time `query:"from"`
	To     time.Time `query:"to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Course == "" && qf.From.IsZero() && qf.To.IsZero()
}
