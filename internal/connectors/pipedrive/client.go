package pipedrive

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

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Config holds the per-account connection settings
type Config struct {
	APIToken      string
	Domain        string
	BaseURL       string // overrides the URL derived from Domain
	WebhookSecret string
	Timeout       time.Duration
}

// Result is the uniform envelope every client call returns. Transport and
// decoding failures are reported through Error, never as a Go error.
type Result struct {
	Success        bool
	StatusCode     int
	Data           json.RawMessage
	AdditionalData json.RawMessage
	Error          string
}

// HasData reports whether the backend returned a non-null data member
func (r Result) HasData() bool {
	trimmed := bytes.TrimSpace(r.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Decode unmarshals Data into v
func (r Result) Decode(v any) error {
	if !r.HasData() {
		return fmt.Errorf("empty data")
	}
	return json.Unmarshal(r.Data, v)
}

// Err converts a failed result into an error value
// Pagination is the paging block of additional_data on list endpoints
type Pagination struct {
	Start     int  `json:"start"`
	Limit     int  `json:"limit"`
	MoreItems bool `json:"more_items_in_collection"`
	NextStart int  `json:"next_start"`
}

// Pagination returns nil when the response carries no paging block
func (r Result) Pagination() *Pagination {
	if len(bytes.TrimSpace(r.AdditionalData)) == 0 {
		return nil
	}
	var extra struct {
		Pagination *Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(r.AdditionalData, &extra); err != nil {
		return nil
	}
	return extra.Pagination
}

func (r Result) Err() error {
	if r.Success {
		return nil
	}
	if r.Error == "" {
		return fmt.Errorf("pipedrive request failed with status %d", r.StatusCode)
	}
	return fmt.Errorf("%s", r.Error)
}

type envelope struct {
	Success        bool            `json:"success"`
	Data           json.RawMessage `json:"data"`
	AdditionalData json.RawMessage `json:"additional_data"`
	Error          string          `json:"error"`
	ErrorInfo      string          `json:"error_info"`
}

// Client is a thin wrapper around the Pipedrive v1 REST API. Every method
// issues exactly one HTTP request.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = BaseURLForDomain(cfg.Domain)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    baseURL,
		apiToken:   cfg.APIToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// BaseURLForDomain turns "acme", "acme.pipedrive.com" or
// "https://acme.pipedrive.com/" into the v1 API root.
func BaseURLForDomain(domain string) string {
	d := strings.TrimSpace(domain)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimRight(d, "/")
	if d != "" && !strings.Contains(d, ".") {
		d += ".pipedrive.com"
	}
	return "https://" + d + "/api/v1"
}

// Do performs a single API request
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) Result {
	params := url.Values{}
	for k, v := range query {
		params[k] = v
	}
	params.Set("api_token", c.apiToken)
	endpoint := c.baseURL + path + "?" + params.Encode()

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return Result{Error: fmt.Sprintf("failed to marshal request body: %v", err)}
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return Result{Error: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Pipedrive request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return Result{Error: fmt.Sprintf("failed to make request: %v", err)}
	}
	defer resp.Body.Close()

	c.logger.Debug("Pipedrive request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{StatusCode: resp.StatusCode, Error: fmt.Sprintf("failed to read response body: %v", err)}
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return Result{StatusCode: resp.StatusCode, Error: fmt.Sprintf("failed to decode response: %v", err)}
		}
	}

	result := Result{
		Success:        env.Success && resp.StatusCode < http.StatusBadRequest,
		StatusCode:     resp.StatusCode,
		Data:           env.Data,
		AdditionalData: env.AdditionalData,
	}
	if !result.Success {
		result.Error = env.Error
		if result.Error == "" {
			result.Error = fmt.Sprintf("pipedrive returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		if env.ErrorInfo != "" {
			result.Error += " (" + env.ErrorInfo + ")"
		}
	}
	return result
}

func (c *Client) GetDeals(ctx context.Context, params url.Values) Result {
	return c.Do(ctx, http.MethodGet, "/deals", params, nil)
}

func (c *Client) GetPipelineDeals(ctx context.Context, pipelineID string, params url.Values) Result {
	return c.Do(ctx, http.MethodGet, "/pipelines/"+url.PathEscape(pipelineID)+"/deals", params, nil)
}

func (c *Client) GetDeal(ctx context.Context, id string) Result {
	return c.Do(ctx, http.MethodGet, "/deals/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CreateDeal(ctx context.Context, body map[string]any) Result {
	return c.Do(ctx, http.MethodPost, "/deals", nil, body)
}

func (c *Client) UpdateDeal(ctx context.Context, id string, body map[string]any) Result {
	return c.Do(ctx, http.MethodPut, "/deals/"+url.PathEscape(id), nil, body)
}

func (c *Client) DeleteDeal(ctx context.Context, id string) Result {
	return c.Do(ctx, http.MethodDelete, "/deals/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CreatePerson(ctx context.Context, body map[string]any) Result {
	return c.Do(ctx, http.MethodPost, "/persons", nil, body)
}

func (c *Client) UpdatePerson(ctx context.Context, id string, body map[string]any) Result {
	return c.Do(ctx, http.MethodPut, "/persons/"+url.PathEscape(id), nil, body)
}

func (c *Client) CreateOrganization(ctx context.Context, body map[string]any) Result {
	return c.Do(ctx, http.MethodPost, "/organizations", nil, body)
}

func (c *Client) UpdateOrganization(ctx context.Context, id string, body map[string]any) Result {
	return c.Do(ctx, http.MethodPut, "/organizations/"+url.PathEscape(id), nil, body)
}

func (c *Client) GetPipelines(ctx context.Context) Result {
	return c.Do(ctx, http.MethodGet, "/pipelines", nil, nil)
}

func (c *Client) GetPipeline(ctx context.Context, id string) Result {
	return c.Do(ctx, http.MethodGet, "/pipelines/"+url.PathEscape(id), nil, nil)
}

// GetStages lists stages, optionally restricted to one pipeline
func (c *Client) GetStages(ctx context.Context, pipelineID string) Result {
	params := url.Values{}
	if pipelineID != "" {
		params.Set("pipeline_id", pipelineID)
	}
	return c.Do(ctx, http.MethodGet, "/stages", params, nil)
}

func (c *Client) GetStage(ctx context.Context, id string) Result {
	return c.Do(ctx, http.MethodGet, "/stages/"+url.PathEscape(id), nil, nil)
}

// GetFields lists field definitions for a Pipedrive object ("deal", "person")
func (c *Client) GetFields(ctx context.Context, object string) Result {
	return c.Do(ctx, http.MethodGet, "/"+object+"Fields", nil, nil)
}

func (c *Client) GetCurrentUser(ctx context.Context) Result {
	return c.Do(ctx, http.MethodGet, "/users/me", nil, nil)
}
