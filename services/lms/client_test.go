package lms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulytics/backend/core"
)

func newTestClient(srv *httptest.Server) *Client {
	conf := &core.Config{}
	conf.LMS.BaseURL = srv.URL
	conf.LMS.OAuthKey = "backend-worker"
	conf.LMS.OAuthSecret = "s3cret"
	return NewClient(conf)
}

func lmsStub(t *testing.T, tokenCalls *int32, blocksStatus int, blocksBody string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "backend-worker", r.PostForm.Get("client_id"))
		_, _ = w.Write([]byte(`{"access_token": "tok-1", "expires_in": 3600}`))
	})
	mux.HandleFunc(blocksPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "all", r.URL.Query().Get("depth"))
		assert.Equal(t, "true", r.URL.Query().Get("all_blocks"))
		w.WriteHeader(blocksStatus)
		_, _ = w.Write([]byte(blocksBody))
	})
	return mux
}

func TestClient_CourseBlocks(t *testing.T) {
	var tokenCalls int32
	body := `{"blocks": {"b1": {"id": "b1"}}}`
	srv := httptest.NewServer(lmsStub(t, &tokenCalls, http.StatusOK, body))
	defer srv.Close()

	client := newTestClient(srv)
	got, err := client.CourseBlocks(context.Background(), "block-v1:U+C1+2021+type@course+block@course")
	require.NoError(t, err)
	assert.Equal(t, body, got)

	// token is cached across calls
	_, err = client.CourseBlocks(context.Background(), "block-v1:U+C1+2021+type@course+block@course")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&tokenCalls))
}

func TestClient_CourseBlocks_non200(t *testing.T) {
	var tokenCalls int32
	srv := httptest.NewServer(lmsStub(t, &tokenCalls, http.StatusNotFound, `{"detail": "not found"}`))
	defer srv.Close()

	client := newTestClient(srv)
	_, err := client.CourseBlocks(context.Background(), "block-v1:U+Nope+2021")
	require.Error(t, err)

	var fErr *RemoteFetchError
	require.True(t, errors.As(err, &fErr))
	assert.Equal(t, "block-v1:U+Nope+2021", fErr.CourseID)
	assert.Equal(t, http.StatusNotFound, fErr.Status)
	assert.Contains(t, fErr.Body, "not found")
}

func TestClient_UserCourseRoles(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token": "tok-1", "expires_in": 3600}`))
	})
	mux.HandleFunc(rolesPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "prof", r.URL.Query().Get("username"))
		_, _ = w.Write([]byte(`{"roles": [
			{"course_id": "course-v1:U+C1+2021", "role": "instructor"},
			{"course_id": "course-v1:U+C2+2021", "role": "student"}
		]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv)
	roles, err := client.UserCourseRoles(context.Background(), "prof")
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "instructor", roles[0].Role)
}

func TestAllowedCourses(t *testing.T) {
	roles := []CourseRole{
		{CourseID: "course-v1:U+C1+2021", Role: "instructor"},
		{CourseID: "course-v1:U+C2+2021", Role: "student"},
		{CourseID: "course-v1:U+C3+2021", Role: "staff"},
	}

	allowed := AllowedCourses(roles, []string{"instructor", "staff"})
	assert.Equal(t, []string{"block-v1:U+C1+2021", "block-v1:U+C3+2021"}, allowed)

	assert.Empty(t, AllowedCourses(roles, nil))
}
