package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/edulytics/backend/core"
	"github.com/edulytics/backend/core/course"
	"github.com/edulytics/backend/core/eventlog"
	"github.com/edulytics/backend/core/visit"
	"github.com/edulytics/backend/services/lms"
	inmemdb "github.com/edulytics/backend/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func testConfig() *core.Config {
	return &core.Config{
		TestMode:     true,
		Env:          "TEST",
		AppName:      "Edulytics",
		SecretKey:    "secret",
		TimeZone:     "America/Santiago",
		AllowedRoles: []string{"instructor", "staff", "data_researcher"},
		Server: core.ServerConfig{
			Addr:                      ":8000",
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// stubRoleResolver serves canned LMS role grants per username.
type stubRoleResolver struct {
	roles map[string][]lms.CourseRole
	err   error
}

func (s stubRoleResolver) UserCourseRoles(_ context.Context, username string) ([]lms.CourseRole, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.roles[username], nil
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newTestServer(t *testing.T, roles lms.RoleResolver) (Server, *core.Config, *inmemdb.DB) {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	conf := testConfig()

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)

	srv := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         nopLogger{},
		CourseSvc:      course.NewService(inmemdb.NewVerticalRepository(db)),
		LogSvc:         eventlog.NewService(inmemdb.NewLogRepository(db)),
		VisitSvc:       visit.NewService(inmemdb.NewVisitRepository(db)),
		Roles:          roles,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return srv, conf, db
}

func getToken(t *testing.T, conf *core.Config, username string) string {
	t.Helper()
	token, err := GenerateToken(conf, NewClaims(conf, username))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		if rec.Body.Len() > 0 {
			t.Errorf("failed! data = %v; want empty body", rec.Body.String())
		}
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
