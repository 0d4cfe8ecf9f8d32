package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	completedPrefix = "Completed: "
	failedPrefix    = "Failed: "
)

// PollClient submits jobs over HTTP and polls the status endpoint until
// the backend reports a terminal state.
type PollClient struct {
	baseURL  string
	httpc    *http.Client
	interval time.Duration
}

// NewPollClient builds a polling client against baseURL.
func NewPollClient(baseURL string, interval time.Duration) *PollClient {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &PollClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpc:    &http.Client{Timeout: 30 * time.Second},
		interval: interval,
	}
}

type submitRequest struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

// Submit enqueues a job and returns its task id.
func (c *PollClient) Submit(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(submitRequest{URL: req.SourceURL, Text: req.Text})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/summarize", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("submit job: unexpected status %d", resp.StatusCode)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.TaskID == "" {
		return "", fmt.Errorf("submit job: empty task id")
	}
	return out.TaskID, nil
}

type statusResponse struct {
	Status string `json:"status"`
}

// Status fetches the job status once. done is false while the job is
// still in progress.
func (c *PollClient) Status(ctx context.Context, taskID string) (summary string, done bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status/"+taskID, nil)
	if err != nil {
		return "", false, err
	}
	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", false, fmt.Errorf("fetch status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", false, fmt.Errorf("fetch status: unexpected status %d", resp.StatusCode)
	}

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, fmt.Errorf("decode status: %w", err)
	}
	switch {
	case strings.HasPrefix(out.Status, completedPrefix):
		return strings.TrimPrefix(out.Status, completedPrefix), true, nil
	case strings.HasPrefix(out.Status, failedPrefix):
		return "", true, &FailureError{Detail: strings.TrimPrefix(out.Status, failedPrefix)}
	default:
		return "", false, nil
	}
}

// Resolve submits the job and polls until it completes, fails, or ctx
// ends. Transient status-fetch errors abort the wait.
func (c *PollClient) Resolve(ctx context.Context, req Request) (string, error) {
	taskID, err := c.Submit(ctx, req)
	if err != nil {
		return "", err
	}

	// first check right away; fast jobs should not wait out an interval
	summary, done, err := c.Status(ctx, taskID)
	if err != nil {
		return "", err
	}
	if done {
		return summary, nil
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			summary, done, err := c.Status(ctx, taskID)
			if err != nil {
				return "", err
			}
			if done {
				return summary, nil
			}
		}
	}
}
