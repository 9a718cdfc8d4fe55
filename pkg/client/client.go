package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/terra-clan/streak-engine/internal/models"
)

// Client is a Go SDK for the streak-engine API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new streak-engine client authenticated with a session token
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is returned when the API responds with an error envelope
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s - %s", e.Status, e.Code, e.Message)
}

// IsLocked reports whether err is a 403 locked-challenge rejection
func IsLocked(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "locked"
}

// IsNotFound reports whether err is a 404 response
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// SubmissionList is the submission history response
type SubmissionList struct {
	Submissions []*models.SubmissionSummary `json:"submissions"`
	Count       int                         `json:"count"`
}

// Board returns the 60-day challenge board of a domain; empty domain means the user's selected one
func (c *Client) Board(ctx context.Context, domain string) (*models.ChallengeBoard, error) {
	var board models.ChallengeBoard
	if err := c.do(ctx, http.MethodGet, withQuery("/api/v1/challenge", "domain", domain), nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// Challenge returns a challenge with its unlock state
func (c *Client) Challenge(ctx context.Context, id, domain string) (*models.ChallengeDetail, error) {
	path := withQuery("/api/v1/challenge/"+url.PathEscape(id), "domain", domain)

	var detail models.ChallengeDetail
	if err := c.do(ctx, http.MethodGet, path, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Submit records a submission for a challenge or practice problem
func (c *Client) Submit(ctx context.Context, req models.SubmitRequest) (*models.SubmitResponse, error) {
	var resp models.SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/submissions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submissions returns the caller's most recent submissions
func (c *Client) Submissions(ctx context.Context, limit int) ([]*models.SubmissionSummary, error) {
	path := "/api/v1/submissions"
	if limit > 0 {
		path = withQuery(path, "limit", strconv.Itoa(limit))
	}

	var list SubmissionList
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list.Submissions, nil
}

// Dashboard returns the progress dashboard of a domain
func (c *Client) Dashboard(ctx context.Context, domain string) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	if err := c.do(ctx, http.MethodGet, withQuery("/api/v1/dashboard", "domain", domain), nil, &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// Profile returns the caller and their progress in every domain
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// do performs an HTTP request and decodes the response envelope into out
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Code: "http_error", Message: string(respBody)}
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success || resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Code: "unknown_error"}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return apiErr
	}

	if out != nil && len(result.Data) > 0 {
		if err := json.Unmarshal(result.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal data: %w", err)
		}
	}
	return nil
}

func withQuery(path, key, value string) string {
	if value == "" {
		return path
	}
	return path + "?" + url.Values{key: []string{value}}.Encode()
}
