package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SlackReporter posts summaries to a Slack incoming webhook. The webhook
// encodes the target channel, so no channel configuration is needed here.
type SlackReporter struct {
	webhookURL string
	client     *http.Client
}

// NewSlackReporter builds a reporter for the given webhook URL. A nil
// httpClient selects a default with a 15s timeout.
func NewSlackReporter(webhookURL string, httpClient *http.Client) *SlackReporter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &SlackReporter{webhookURL: webhookURL, client: httpClient}
}

func (r *SlackReporter) Summary(ctx context.Context, s Summary) error {
	return r.post(ctx, FormatSummary(s))
}

func (r *SlackReporter) Message(ctx context.Context, text string) error {
	return r.post(ctx, text)
}

func (r *SlackReporter) post(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("encoding slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}
