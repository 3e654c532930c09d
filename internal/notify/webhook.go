package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/opshub/console/internal/logx"
)

// WebhookConfig holds the configuration for a generic webhook sink.
type WebhookConfig struct {
	URL             string            `json:"url"`
	Method          string            `json:"method"`           // GET, POST, PUT (default POST)
	Headers         map[string]string `json:"headers"`          // custom headers
	PayloadTemplate string            `json:"payload_template"` // Go template for JSON body
}

// Webhook forwards notices to an HTTP endpoint with a configurable payload
// template. Notify queues the notice for a background sender; delivery
// failures are logged, never returned to the caller. Close flushes the queue.
type Webhook struct {
	config WebhookConfig
	client *http.Client
	tmpl   *template.Template
	logger zerolog.Logger
	queue  *queue
}

// NewWebhook creates a Webhook sink from the given config.
func NewWebhook(config WebhookConfig) (*Webhook, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("url is required for webhook sink")
	}
	if config.Method == "" {
		config.Method = http.MethodPost
	}
	config.Method = strings.ToUpper(config.Method)

	w := &Webhook{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logx.Component("notify.webhook"),
	}

	if config.PayloadTemplate != "" {
		tmpl, err := template.New("webhook").Parse(config.PayloadTemplate)
		if err != nil {
			return nil, fmt.Errorf("invalid payload template: %w", err)
		}
		w.tmpl = tmpl
	}
	w.queue = newQueue(defaultQueueSize, defaultDeliveryTimeout, w.logger, w.Send)
	return w, nil
}

// Notify queues n and returns at once.
func (w *Webhook) Notify(_ context.Context, n Notice) {
	w.queue.enqueue(n)
}

// Close delivers the queued notices and stops the sender.
func (w *Webhook) Close() error {
	w.queue.close()
	return nil
}

// Send delivers a single notice and reports the outcome.
func (w *Webhook) Send(ctx context.Context, n Notice) error {
	var body []byte
	var err error

	if w.tmpl != nil {
		var buf bytes.Buffer
		if err := w.tmpl.Execute(&buf, n); err != nil {
			return fmt.Errorf("execute payload template: %w", err)
		}
		body = buf.Bytes()
	} else {
		body, err = json.Marshal(defaultWebhookPayload(n))
		if err != nil {
			return fmt.Errorf("marshal default payload: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, w.config.Method, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func defaultWebhookPayload(n Notice) map[string]interface{} {
	return map[string]interface{}{
		"id":        n.ID,
		"level":     string(n.Level),
		"message":   n.Message,
		"durable":   n.Durable,
		"timestamp": n.Timestamp.Format(time.RFC3339),
	}
}
