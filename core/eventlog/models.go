package eventlog

import (
	"time"

	"github.com/pkg/errors"
)

// Record is a normalized event-log entry: a flat attribute mapping whose
// nested "context" fields have been lifted to top-level dotted keys.
// The LMS emits schema-drifting JSON, so beyond the handful of well-known
// keys everything is kept as an open bag.
type Record map[string]interface{}

// Well-known record keys.
const (
	FieldUsername    = "username"
	FieldEventType   = "event_type"
	FieldEventSource = "event_source"
	FieldPage        = "page"
	FieldTime        = "time"
)

// Str returns the record value under key when it is a string, "" otherwise.
func (r Record) Str(key string) string {
	s, _ := r[key].(string)
	return s
}

func (r Record) Username() string {
	return r.Str(FieldUsername)
}

func (r Record) EventType() string {
	return r.Str(FieldEventType)
}

// timeLayouts covers the timestamp shapes seen in LMS tracking logs.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// Time parses the record's "time" field.
func (r Record) Time() (time.Time, error) {
	raw := r.Str(FieldTime)
	if raw == "" {
		return time.Time{}, errors.New("record has no time field")
	}
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(err, "parsing record time %q", raw)
}

// Log is the persisted form of a normalized Record: the well-known fields are
// promoted to columns, the rest stays in Extra.
type Log struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	EventType   string    `json:"event_type"`
	EventSource string    `json:"event_source"`
	Page        string    `json:"page"`
	Time        time.Time `json:"time"` // UTC
	Extra       Record    `json:"extra"`
}

// NewLog builds a persistable Log from a normalized record.
func NewLog(rec Record) (Log, error) {
	t, err := rec.Time()
	if err != nil {
		return Log{}, err
	}

	extra := make(Record, len(rec))
	for k, v := range rec {
		switch k {
		case FieldUsername, FieldEventType, FieldEventSource, FieldPage, FieldTime:
		default:
			extra[k] = v
		}
	}
	return Log{
		Username:    rec.Username(),
		EventType:   rec.EventType(),
		EventSource: rec.Str(FieldEventSource),
		Page:        rec.Str(FieldPage),
		Time:        t.UTC(),
		Extra:       extra,
	}, nil
}

type QueryFilter struct {
	Search    string    `query:"search"` // matches username
	EventType string    `query:"event_type"`
	From      time.Time `query:"from"`
	To        time.Time `query:"to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.EventType == "" && qf.From.IsZero() && qf.To.IsZero()
}
