package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Notifier delivers a single event to an external dispatcher. Delivery
// semantics (retries, queueing) are the dispatcher's responsibility; callers
// only ever log a returned error.
type Notifier interface {
	Notify(ctx context.Context, eventType string, payload any) error
}

type webhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &webhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookEnvelope struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

func (n *webhookNotifier) Notify(ctx context.Context, eventType string, payload any) error {
	body, err := json.Marshal(webhookEnvelope{
		Event:   eventType,
		Payload: payload,
		SentAt:  time.Now(),
	})
	if err != nil {
		return errors.Wrap(err, "json.Marshal")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "http.NewRequestWithContext")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "webhook POST")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(ctx context.Context, eventType string, payload any) error {
	return nil
}

// NewNopNotifier is used when no webhook is configured.
func NewNopNotifier() Notifier {
	return nopNotifier{}
}
