package ademe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
)

const (
	defaultBaseURL  = "https://data.ademe.fr"
	defaultDataset  = "dpe03existant"
	defaultPageSize = 50
	maxPageSize     = 10000
)

// NewClient instantiates an ADEME data-fair client
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("ademe: parse base url: %w", err)
	}

	dataset := cfg.Dataset
	if dataset == "" {
		dataset = defaultDataset
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		baseURL:    baseURL,
		dataset:    dataset,
		httpClient: httpClient,
		pageSize:   pageSize,
	}, nil
}

// SearchLines runs a full-text search against the dataset lines endpoint
func (c *Client) SearchLines(ctx context.Context, params SearchParams) ([]Line, error) {
	if c == nil {
		return nil, fmt.Errorf("ademe: client is nil")
	}

	u, err := c.buildLinesURL(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("ademe: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ademe: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload linesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("ademe: decode response: %w", err)
	}

	return payload.Results, nil
}

func (c *Client) buildLinesURL(params SearchParams) (string, error) {
	query := strings.TrimSpace(params.Query)
	if query == "" {
		return "", fmt.Errorf("ademe: query is required")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("ademe: parse base url: %w", err)
	}

	u.Path = path.Join(u.Path, "data-fair", "api", "v1", "datasets", c.dataset, "lines")

	size := params.Size
	if size <= 0 {
		size = c.pageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	values := url.Values{}
	values.Set("q", query)
	values.Set("size", strconv.Itoa(size))

	if len(params.Select) > 0 {
		values.Set("select", strings.Join(params.Select, ","))
	} else {
		values.Set("select", "*")
	}

	if len(params.QueryFields) > 0 {
		values.Set("q_fields", strings.Join(params.QueryFields, ","))
	}

	u.RawQuery = values.Encode()
	return u.String(), nil
}
