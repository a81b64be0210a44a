package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cayman-scraper/utils"
)

// Notifier reports run outcomes to an external channel. Delivery is
// fire-and-forget: a failed notification never affects pipeline correctness.
type Notifier interface {
	NotifySuccess(ctx context.Context, scriptName string, recordsCount int)
	NotifyFailure(ctx context.Context, scriptName, phase string, cause error)
}

// payload mirrors the workflow webhook's expected shape.
type payload struct {
	ScriptName   string `json:"script_name"`
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	RecordsCount int    `json:"records_count"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// WebhookNotifier POSTs run reports as JSON to a configured webhook URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *utils.Logger
}

// NewWebhookNotifier creates a WebhookNotifier. An empty URL disables
// delivery; notifications are then logged and dropped.
func NewWebhookNotifier(url string, logger *utils.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

func (n *WebhookNotifier) NotifySuccess(ctx context.Context, scriptName string, recordsCount int) {
	n.send(ctx, payload{
		ScriptName:   scriptName,
		Status:       "success",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		RecordsCount: recordsCount,
	})
}

func (n *WebhookNotifier) NotifyFailure(ctx context.Context, scriptName, phase string, cause error) {
	n.send(ctx, payload{
		ScriptName:   scriptName,
		Status:       "failure",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		ErrorMessage: fmt.Sprintf("%s: %v", phase, cause),
	})
}

func (n *WebhookNotifier) send(ctx context.Context, p payload) {
	if n.url == "" {
		n.logger.Warn("[notify] Webhook URL not configured, dropping %s notification for %s",
			p.Status, p.ScriptName)
		return
	}

	body, err := json.Marshal(p)
	if err != nil {
		n.logger.Error("[notify] Failed to encode payload: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("[notify] Failed to build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("[notify] Webhook delivery failed for %s: %v", p.ScriptName, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		n.logger.Warn("[notify] Webhook returned status %d for %s", resp.StatusCode, p.ScriptName)
		return
	}

	n.logger.Info("[notify] %s notification sent for %s", p.Status, p.ScriptName)
}
