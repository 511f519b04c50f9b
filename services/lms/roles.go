package lms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const rolesPath = "/api/courses/v1/user_roles/"

// CourseRole is one LMS role grant of a user on a course.
type CourseRole struct {
	CourseID string `json:"course_id"`
	Role     string `json:"role"`
}

// RoleResolver recovers the course roles of an authenticated platform user
// from the LMS.
type RoleResolver interface {
	UserCourseRoles(ctx context.Context, username string) ([]CourseRole, error)
}

var _ RoleResolver = (*Client)(nil)

// UserCourseRoles fetches {"roles": [{"course_id", "role"}, ...]} for username.
func (c *Client) UserCourseRoles(ctx context.Context, username string) ([]CourseRole, error) {
	u := c.baseURL + rolesPath + "?username=" + url.QueryEscape(username)

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching roles for %s", username)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Errorf("roles request for %s returned %d: %s", username, resp.StatusCode, body)
	}

	var payload struct {
		Roles []CourseRole `json:"roles"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrapf(err, "decoding roles response for %s", username)
	}
	return payload.Roles, nil
}

// AllowedCourses filters role grants down to the trusted role list and
// rewrites each course id from its course-v1 form to the block-v1 form used
// by the stored verticals.
func AllowedCourses(roles []CourseRole, allowedRoles []string) []string {
	trusted := make(map[string]bool, len(allowedRoles))
	for _, r := range allowedRoles {
		trusted[r] = true
	}

	var allowed []string
	for _, r := range roles {
		if trusted[r.Role] {
			allowed = append(allowed, strings.ReplaceAll(r.CourseID, "course", "block"))
		}
	}
	return allowed
}
