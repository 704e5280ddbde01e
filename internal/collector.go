package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HTTPCollector submits record batches as JSON to a remote collector.
// It carries no retry logic of its own: the sync loop is the retry.
type HTTPCollector struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ Collector = (*HTTPCollector)(nil)

func NewHTTPCollector(baseURL, token string, httpClient *http.Client) *HTTPCollector {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPCollector{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
	}
}

func (c *HTTPCollector) SubmitActivities(ctx context.Context, batch []*ActivityRecord) (bool, error) {
	return c.post(ctx, "/v1/activities", map[string]any{"activities": batch})
}

func (c *HTTPCollector) SubmitRevisions(ctx context.Context, batch []*RevisionRecord) (bool, error) {
	return c.post(ctx, "/v1/revisions", map[string]any{"revisions": batch})
}

// post returns (true, nil) only for a 2xx response. A reachable server
// answering anything else is (false, nil); transport failures are
// errors. The sync engine treats both the same way.
func (c *HTTPCollector) post(ctx context.Context, path string, body any) (bool, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode <= 299, nil
}
