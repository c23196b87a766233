// Package notion is a minimal client for the Notion REST API: database
// queries by title and page reads.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL       = "https://api.notion.com"
	DefaultVersion       = "2022-06-28"
	DefaultTitleProperty = "Name"
	defaultPageSize      = 100
)

// Config connection settings; zero values take the defaults above.
type Config struct {
	Token         string        `mapstructure:"token"`
	Version       string        `mapstructure:"version"`
	BaseURL       string        `mapstructure:"base_url"`
	TitleProperty string        `mapstructure:"title_property"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// Client Notion API client. Safe for concurrent use.
type Client struct {
	token         string
	version       string
	baseURL       string
	titleProperty string
	httpClient    *http.Client
}

func NewClient(cfg Config) *Client {
	c := &Client{
		token:         cfg.Token,
		version:       cfg.Version,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		titleProperty: cfg.TitleProperty,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
	}
	if c.version == "" {
		c.version = DefaultVersion
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.titleProperty == "" {
		c.titleProperty = DefaultTitleProperty
	}
	if c.httpClient.Timeout == 0 {
		c.httpClient.Timeout = 30 * time.Second
	}
	return c
}

// TitleProperty name of the property searched and shown as the result name.
func (c *Client) TitleProperty() string {
	return c.titleProperty
}

// APIError non-2xx reply from Notion.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api error [%d %s]: %s (path=%s)", e.StatusCode, e.Code, e.Message, e.Path)
}

// QueryDatabase returns the pages of dbID whose title contains query.
// Only the first page of results is fetched.
func (c *Client) QueryDatabase(ctx context.Context, dbID, query string) ([]Page, error) {
	body := map[string]any{
		"filter": map[string]any{
			"property": c.titleProperty,
			"title":    map[string]any{"contains": query},
		},
		"page_size": defaultPageSize,
	}
	var resp queryResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/databases/"+url.PathEscape(dbID)+"/query", body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) GetPage(ctx context.Context, pageID string) (*Page, error) {
	var page Page
	if err := c.doRequest(ctx, http.MethodGet, "/v1/pages/"+url.PathEscape(pageID), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// doRequest sends one authenticated request and decodes the JSON reply into
// result. Non-2xx replies become *APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Path: path}
		var er ErrorResponse
		if json.Unmarshal(respBody, &er) == nil {
			apiErr.Code = er.Code
			apiErr.Message = er.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}
