package inmemdb

import (
	"sync"

	"github.com/edulytics/backend/core/course"
	"github.com/edulytics/backend/core/eventlog"
	"github.com/edulytics/backend/core/visit"
)

// DB is an in-memory store used by tests and local development. Tables keep
// insertion order so query results are deterministic without a real database.
type (
	DB struct {
		vertical *verticalTable
		eventlog *logTable
		visit    *visitTable
	}

	verticalTable struct {
		sync.RWMutex
		rows []course.Vertical
	}

	logTable struct {
		sync.RWMutex
		rows []eventlog.Log
	}

	visitTable struct {
		sync.RWMutex
		rows []visit.VisitOnPage
	}
)

func Open() (*DB, error) {
	db := &DB{
		vertical: &verticalTable{},
		eventlog: &logTable{},
		visit:    &visitTable{},
	}
	return db, nil
}
