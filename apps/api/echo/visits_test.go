package echoapi

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/edulytics/backend/core/visit"
	inmemdb "github.com/edulytics/backend/storage/database/inmem"
)

func seedVisits(t *testing.T, db *inmemdb.DB, loc *time.Location) []visit.VisitOnPage {
	t.Helper()
	repo := inmemdb.NewVisitRepository(db)
	visits, err := repo.CreateVisits(
		visit.VisitOnPage{
			Username:   "student1",
			Course:     testCourseKey,
			Chapter:    "block-v1:UC+Test101+2020+type@chapter+block@ch1",
			Sequential: "block-v1:UC+Test101+2020+type@sequential+block@seq1",
			Vertical:   "block-v1:UC+Test101+2020+type@vertical+block@vert1",
			Count:      3,
			Time:       time.Date(2020, 5, 10, 12, 0, 0, 0, loc),
		},
		visit.VisitOnPage{
			Username:   "student1",
			Course:     testCourseKey,
			Chapter:    "block-v1:UC+Test101+2020+type@chapter+block@ch1",
			Sequential: "block-v1:UC+Test101+2020+type@sequential+block@seq1",
			Vertical:   "block-v1:UC+Test101+2020+type@vertical+block@vert1",
			Count:      2,
			Time:       time.Date(2020, 5, 11, 9, 30, 0, 0, loc),
		},
		visit.VisitOnPage{
			Username:   "student2",
			Course:     testCourseKey,
			Chapter:    "block-v1:UC+Test101+2020+type@chapter+block@ch1",
			Sequential: "block-v1:UC+Test101+2020+type@sequential+block@seq1",
			Vertical:   "block-v1:UC+Test101+2020+type@vertical+block@vert2",
			Count:      7,
			Time:       time.Date(2020, 5, 12, 18, 15, 0, 0, loc),
		},
	)
	if err != nil {
		t.Fatalf("seedVisits() failed: %v", err)
	}
	return visits
}

func summaryPath(search, llimit, ulimit string) string {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if llimit != "" {
		q.Set("llimit", llimit)
	}
	if ulimit != "" {
		q.Set("ulimit", ulimit)
	}
	return "/v1/visits/course?" + q.Encode()
}

func TestVisitsAPI(t *testing.T) {
	srv, conf, db := newTestServer(t, instructorResolver("prof"))
	loc, err := time.LoadLocation(conf.TimeZone)
	if err != nil {
		t.Fatalf("loading timezone failed: %v", err)
	}
	visits := seedVisits(t, db, loc)
	token := getToken(t, conf, "prof")

	tests := []httpTest{
		{
			name: "query requires auth", method: http.MethodGet, path: "/v1/visits",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "query all newest first", method: http.MethodGet, path: "/v1/visits", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, []visit.VisitOnPage{visits[2], visits[1], visits[0]}),
		},
		{
			name: "query filter username", method: http.MethodGet, path: "/v1/visits?search=student2", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, []visit.VisitOnPage{visits[2]}),
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

func TestCourseVisitsSummaryAPI(t *testing.T) {
	srv, conf, db := newTestServer(t, instructorResolver("prof"))
	loc, err := time.LoadLocation(conf.TimeZone)
	if err != nil {
		t.Fatalf("loading timezone failed: %v", err)
	}
	seedVisits(t, db, loc)
	profToken := getToken(t, conf, "prof")
	studentToken := getToken(t, conf, "student")

	wantSummaries := []visit.Summary{
		{
			Username:   "student1",
			Vertical:   "block-v1:UC+Test101+2020+type@vertical+block@vert1",
			Sequential: "block-v1:UC+Test101+2020+type@sequential+block@seq1",
			Chapter:    "block-v1:UC+Test101+2020+type@chapter+block@ch1",
			Course:     testCourseKey,
			Total:      5,
		},
		{
			Username:   "student2",
			Vertical:   "block-v1:UC+Test101+2020+type@vertical+block@vert2",
			Sequential: "block-v1:UC+Test101+2020+type@sequential+block@seq1",
			Chapter:    "block-v1:UC+Test101+2020+type@chapter+block@ch1",
			Course:     testCourseKey,
			Total:      7,
		},
	}

	tests := []httpTest{
		{
			name: "requires auth", method: http.MethodGet,
			path:     summaryPath(testCourseID, "2020-05-01", "2020-05-31"),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "search required", method: http.MethodGet,
			path: summaryPath("", "2020-05-01", "2020-05-31"), token: profToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Search field required"}),
		},
		{
			name: "lower limit required", method: http.MethodGet,
			path: summaryPath(testCourseID, "", "2020-05-31"), token: profToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Lower limit field required"}),
		},
		{
			name: "upper limit required", method: http.MethodGet,
			path: summaryPath(testCourseID, "2020-05-01", ""), token: profToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Upper limit field required"}),
		},
		{
			name: "bad time format", method: http.MethodGet,
			path: summaryPath(testCourseID, "05/01/2020", "2020-05-31"), token: profToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Error while formating time limits. Expects isoformat."}),
		},
		{
			name: "inverted limits", method: http.MethodGet,
			path: summaryPath(testCourseID, "2020-05-31", "2020-05-01"), token: profToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "lower limit does not preceed upper limit"}),
		},
		{
			name: "no trusted role", method: http.MethodGet,
			path: summaryPath(testCourseID, "2020-05-01", "2020-05-31"), token: studentToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "No tiene permisos para ver los datos en los cursos solicitados"}),
		},
		{
			name: "course not in allowed list", method: http.MethodGet,
			path: summaryPath("block-v1:UC+Other+2019", "2020-05-01", "2020-05-31"), token: profToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "No tiene permisos para ver los datos en los cursos solicitados"}),
		},
		{
			name: "empty window", method: http.MethodGet,
			path: summaryPath(testCourseID, "2019-01-01", "2019-12-31"), token: profToken,
			wantCode: http.StatusNoContent,
		},
		{
			name: "summary over window", method: http.MethodGet,
			path: summaryPath(testCourseID, "2020-05-01", "2020-05-31"), token: profToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, wantSummaries),
		},
		{
			name: "equal bounds include the instant", method: http.MethodGet,
			path: summaryPath(testCourseID, "2020-05-10T12:00:00", "2020-05-10T12:00:00Z"), token: profToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, []visit.Summary{
				{
					Username:   "student1",
					Vertical:   "block-v1:UC+Test101+2020+type@vertical+block@vert1",
					Sequential: "block-v1:UC+Test101+2020+type@sequential+block@seq1",
					Chapter:    "block-v1:UC+Test101+2020+type@chapter+block@ch1",
					Course:     testCourseKey,
					Total:      3,
				},
			}),
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
