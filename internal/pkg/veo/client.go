package veo

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

	"github.com/rs/zerolog/log"
)

// Config holds video provider settings
type Config struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	CallbackURL string
}

// Client talks to the async video generation provider
type Client struct {
	config     Config
	httpClient *http.Client
}

// CreateTaskRequest describes a generation job to submit
type CreateTaskRequest struct {
	Prompt          string
	DurationSeconds int
	AspectRatio     string
	ImageURLs       []string
}

// TaskStatus is a provider-side view of a running task
type TaskStatus struct {
	TaskID      string
	State       string
	ResultURLs  []string
	FailCode    string
	FailMessage string
}

// NewClient creates a provider client
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// CreateTask submits a generation job and returns the provider task id
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (string, error) {
	input := map[string]any{
		"prompt":       req.Prompt,
		"duration":     req.DurationSeconds,
		"aspect_ratio": req.AspectRatio,
	}
	if len(req.ImageURLs) > 0 {
		input["image_urls"] = req.ImageURLs
	}

	payload := map[string]any{
		"model": "veo-3",
		"input": input,
	}
	if c.config.CallbackURL != "" {
		payload["callBackUrl"] = c.config.CallbackURL
	}

	rawBody, err := c.do(ctx, http.MethodPost, "/api/v1/jobs/createTask", payload)
	if err != nil {
		return "", err
	}

	var createResp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			TaskID string `json:"taskId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &createResp); err != nil {
		return "", fmt.Errorf("decode create task response: %w (body=%s)", err, truncateBody(rawBody))
	}
	if createResp.Code != 200 {
		return "", fmt.Errorf("create task failed: code=%d msg=%s", createResp.Code, createResp.Msg)
	}
	if createResp.Data.TaskID == "" {
		return "", fmt.Errorf("empty taskId in create response")
	}

	log.Info().Str("task_id", createResp.Data.TaskID).Msg("Provider task created")
	return createResp.Data.TaskID, nil
}

// QueryTask fetches the current state of a task
func (c *Client) QueryTask(ctx context.Context, taskID string) (*TaskStatus, error) {
	path := "/api/v1/jobs/recordInfo?" + url.Values{"taskId": {taskID}}.Encode()

	rawBody, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var statusResp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			TaskID     string `json:"taskId"`
			State      string `json:"state"`
			ResultJSON string `json:"resultJson"`
			FailCode   string `json:"failCode"`
			FailMsg    string `json:"failMsg"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &statusResp); err != nil {
		return nil, fmt.Errorf("decode task status response: %w (body=%s)", err, truncateBody(rawBody))
	}
	if statusResp.Code != 200 {
		return nil, fmt.Errorf("query task failed: code=%d msg=%s", statusResp.Code, statusResp.Msg)
	}

	status := &TaskStatus{
		TaskID:      statusResp.Data.TaskID,
		State:       statusResp.Data.State,
		FailCode:    statusResp.Data.FailCode,
		FailMessage: statusResp.Data.FailMsg,
	}
	if statusResp.Data.ResultJSON != "" {
		var result struct {
			ResultURLs []string `json:"resultUrls"`
		}
		if err := json.Unmarshal([]byte(statusResp.Data.ResultJSON), &result); err != nil {
			return nil, fmt.Errorf("parse resultJson: %w", err)
		}
		status.ResultURLs = result.ResultURLs
	}

	return status, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload map[string]any) ([]byte, error) {
	fullURL := c.config.BaseURL + path

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
	}
	return rawBody, nil
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
