package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"guildboard-cli/internal/model"
)

const (
	// tenantHeader scopes a request to a guild.
	tenantHeader = "X-Guild-ID"

	requestTimeout = 5 * time.Second
)

// Client implements Service against the Guildboard HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for baseURL using a bearer token read from
// tokenPath (oauth2 token JSON; refresh handled by the token source when a
// refresh token is present).
func NewClient(ctx context.Context, baseURL, tokenPath string) (*Client, error) {
	b, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", tokenPath, err)
	}
	src := oauth2.StaticTokenSource(&tok)
	if tok.RefreshToken != "" {
		src = oauth2.ReuseTokenSource(&tok, src)
	}
	hc := oauth2.NewClient(ctx, src)
	hc.Timeout = requestTimeout
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}, nil
}

// NewClientWithHTTP builds a client over a caller-supplied *http.Client
// (used by tests against httptest servers).
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: requestTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// apiError is the server's error envelope.
type apiError struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, tenantID, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tenantID != "" {
		req.Header.Set(tenantHeader, tenantID)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var ae apiError
		_ = json.NewDecoder(resp.Body).Decode(&ae)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return ErrUnauthorized
		case http.StatusForbidden:
			return ErrForbidden
		case http.StatusNotFound:
			return ErrNotFound
		}
		if ae.Message != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, ae.Message)
		}
		return fmt.Errorf("server error (%d)", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	var out []model.Tenant
	if err := c.do(ctx, http.MethodGet, "", "/api/guilds", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListProjects(ctx context.Context, tenantID string) ([]model.Project, error) {
	var out []model.Project
	if err := c.do(ctx, http.MethodGet, tenantID, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTasks(ctx context.Context, tenantID, projectID string) ([]model.Task, error) {
	path := "/api/tasks"
	if projectID != "" {
		path += "?project=" + url.QueryEscape(projectID)
	}
	var out []model.Task
	if err := c.do(ctx, http.MethodGet, tenantID, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListStatuses(ctx context.Context, tenantID, projectID string) ([]model.Status, error) {
	var out []model.Status
	path := "/api/projects/" + url.PathEscape(projectID) + "/statuses"
	if err := c.do(ctx, http.MethodGet, tenantID, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateTaskStatus(ctx context.Context, tenantID, taskID, statusID string) (model.Task, error) {
	var out model.Task
	path := "/api/tasks/" + url.PathEscape(taskID)
	body := map[string]string{"statusId": statusID}
	if err := c.do(ctx, http.MethodPatch, tenantID, path, body, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

func (c *Client) SaveOrder(ctx context.Context, tenantID, scope string, orderedIDs []string) error {
	path := "/api/order/" + url.PathEscape(scope)
	body := map[string]any{"orderedIds": orderedIDs}
	return c.do(ctx, http.MethodPost, tenantID, path, body, nil)
}

func (c *Client) SwitchTenant(ctx context.Context, tenantID string) error {
	body := map[string]string{"guildId": tenantID}
	return c.do(ctx, http.MethodPost, "", "/api/session/guild", body, nil)
}

func (c *Client) GetDocument(ctx context.Context, tenantID, documentID string) (model.Document, error) {
	var out model.Document
	path := "/api/documents/" + url.PathEscape(documentID)
	if err := c.do(ctx, http.MethodGet, tenantID, path, nil, &out); err != nil {
		return model.Document{}, err
	}
	return out, nil
}

var _ Service = (*Client)(nil)
