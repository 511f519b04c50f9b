package lms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/edulytics/backend/core"
)

const (
	tokenPath  = "/oauth2/access_token"
	blocksPath = "/api/courses/v1/blocks/"

	// expiry slack so a token is never used right at its deadline
	tokenExpirySlack = 30 * time.Second
)

// RemoteFetchError is returned on any non-200 LMS response to a course fetch.
// It is fatal to the calling operation; retry policy belongs to the caller.
type RemoteFetchError struct {
	CourseID string
	Status   int
	Body     string
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("request to LMS failed for %s (status %d): %s", e.CourseID, e.Status, e.Body)
}

// Client talks to the LMS over client-credentials OAuth. Safe for concurrent use.
type Client struct {
	baseURL string
	key     string
	secret  string
	http    *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL: conf.LMS.BaseURL,
		key:     conf.LMS.OAuthKey,
		secret:  conf.LMS.OAuthSecret,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithCredentials is used when the OAuth pair comes from outside the
// config, e.g. prompted interactively by the admin CLI.
func NewClientWithCredentials(conf *core.Config, key, secret string) *Client {
	c := NewClient(conf)
	c.key = key
	c.secret = secret
	return c
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.key)
	form.Set("client_secret", c.secret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "building token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "requesting access token")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", errors.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errors.Wrap(err, "decoding token response")
	}
	if payload.AccessToken == "" {
		return "", errors.New("token endpoint returned no access_token")
	}

	c.token = payload.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - tokenExpirySlack)
	return c.token, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building LMS request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.http.Do(req)
}

// CourseBlocks fetches the full block tree of a course (all blocks, full
// depth, all fields) and returns the raw response body.
func (c *Client) CourseBlocks(ctx context.Context, courseID string) (string, error) {
	u := c.baseURL + blocksPath + url.PathEscape(courseID) +
		"?depth=all&all_blocks=true&requested_fields=all,children"

	resp, err := c.get(ctx, u)
	if err != nil {
		return "", errors.Wrapf(err, "fetching blocks for %s", courseID)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "reading blocks response for %s", courseID)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &RemoteFetchError{CourseID: courseID, Status: resp.StatusCode, Body: string(body)}
	}
	return string(body), nil
}
