package vercel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultAPIBaseURL = "https://api.vercel.com"

var ErrNotConfigured = errors.New("vercel api token is not configured")

// Client pauses and unpauses deployed projects through the Vercel REST API.
type Client struct {
	Token      string
	TeamID     string
	APIBaseURL string

	HTTPClient *http.Client
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Framework string `json:"framework"`
	CreatedAt int64  `json:"createdAt"`
}

func NewClient(token, teamID, baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultAPIBaseURL
	}
	return &Client{
		Token:      strings.TrimSpace(token),
		TeamID:     strings.TrimSpace(teamID),
		APIBaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) Configured() bool { return c.Token != "" }

// Disabled stands in for the client when no API token is set. Pause and
// unpause are recorded locally only.
type Disabled struct{}

func (Disabled) Pause(context.Context, string) error   { return nil }
func (Disabled) Unpause(context.Context, string) error { return nil }

func (Disabled) ListProjects(context.Context) ([]Project, error) {
	return nil, ErrNotConfigured
}

func (c *Client) Pause(ctx context.Context, projectID string) error {
	return c.projectAction(ctx, projectID, "pause")
}

func (c *Client) Unpause(ctx context.Context, projectID string) error {
	return c.projectAction(ctx, projectID, "unpause")
}

// ListProjects returns up to 100 projects, used by admins to link a site.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out struct {
		Projects []Project `json:"projects"`
	}
	q := url.Values{}
	q.Set("limit", "100")
	if err := c.do(ctx, http.MethodGet, "/v9/projects", q, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

func (c *Client) projectAction(ctx context.Context, projectID, action string) error {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return errors.New("vercel project id is required")
	}
	path := "/v1/projects/" + url.PathEscape(projectID) + "/" + action
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("vercel %s %s: %w", action, projectID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, out any) error {
	if c.Token == "" {
		return ErrNotConfigured
	}

	u, err := url.Parse(c.APIBaseURL + path)
	if err != nil {
		return err
	}
	if q == nil {
		q = url.Values{}
	}
	if c.TeamID != "" {
		q.Set("teamId", c.TeamID)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("vercel request failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}
