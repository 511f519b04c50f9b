package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/edulytics/backend/core/eventlog"
	inmemdb "github.com/edulytics/backend/storage/database/inmem"
)

func seedLogs(t *testing.T, db *inmemdb.DB) []eventlog.Log {
	t.Helper()
	repo := inmemdb.NewLogRepository(db)
	logs, err := repo.CreateLogs(
		eventlog.Log{
			Username:  "student1",
			EventType: "problem_check",
			Page:      "http://lms/courses/test/unit1",
			Time:      time.Date(2020, 5, 10, 12, 0, 0, 0, time.UTC),
			Extra:     eventlog.Record{"context.org_id": "UC"},
		},
		eventlog.Log{
			Username:  "student2",
			EventType: "play_video",
			Time:      time.Date(2020, 5, 11, 9, 30, 0, 0, time.UTC),
			Extra:     eventlog.Record{},
		},
	)
	if err != nil {
		t.Fatalf("seedLogs() failed: %v", err)
	}
	return logs
}

func TestLogsAPI(t *testing.T) {
	srv, conf, db := newTestServer(t, stubRoleResolver{})
	logs := seedLogs(t, db)
	token := getToken(t, conf, "prof")

	tests := []httpTest{
		{
			name: "query requires auth", method: http.MethodGet, path: "/v1/logs",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "query all newest first", method: http.MethodGet, path: "/v1/logs", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, []eventlog.Log{logs[1], logs[0]}),
		},
		{
			name: "query ordering override", method: http.MethodGet, path: "/v1/logs?ordering=time", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, []eventlog.Log{logs[0], logs[1]}),
		},
		{
			name: "query filter username", method: http.MethodGet, path: "/v1/logs?search=student1", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, []eventlog.Log{logs[0]}),
		},
		{
			name: "query filter event type", method: http.MethodGet, path: "/v1/logs?event_type=play_video", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, []eventlog.Log{logs[1]}),
		},
		{
			name: "retrieve", method: http.MethodGet, path: "/v1/logs/" + logs[0].ID, token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, logs[0]),
		},
		{
			name: "retrieve not found", method: http.MethodGet, path: "/v1/logs/00000000-0000-0000-0000-000000000000", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestHome(t *testing.T) {
	srv, _, _ := newTestServer(t, stubRoleResolver{})

	req, rec := newRequest(http.MethodGet, "/")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	if want := "Welcome to Edulytics API!"; rec.Body.String() != want {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), want)
	}
}
