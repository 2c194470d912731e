// Package webhook provides a notifier that posts alerts to per-channel
// webhook endpoints (Slack-style incoming webhooks, mail gateways, SMS
// bridges).
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

// Ensure Notifier implements the interface.
var _ driven.Notifier = (*Notifier)(nil)

// DefaultTimeout is the per-request timeout.
const DefaultTimeout = 15 * time.Second

// Config holds the webhook notifier configuration.
type Config struct {
	// Endpoints maps each channel to its webhook URL. Channels without
	// an endpoint fail immediately.
	Endpoints map[domain.Channel]string

	// Timeout is the per-request timeout (default: 15s).
	Timeout time.Duration
}

// Notifier delivers messages by HTTP POST.
type Notifier struct {
	client    *http.Client
	endpoints map[domain.Channel]string
}

// payload is the JSON body posted to the endpoint.
type payload struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// New creates a webhook notifier.
func New(cfg Config) *Notifier {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Notifier{
		client:    &http.Client{Timeout: cfg.Timeout},
		endpoints: cfg.Endpoints,
	}
}

// Send posts the message to the channel's endpoint. Non-2xx responses
// are errors, which the dispatcher treats as transient and retries.
func (n *Notifier) Send(ctx context.Context, channel domain.Channel, message string) (driven.DeliveryResult, error) {
	endpoint, ok := n.endpoints[channel]
	if !ok || endpoint == "" {
		return driven.DeliveryResult{}, fmt.Errorf("%w: no endpoint for channel %q", domain.ErrDeliveryFailed, channel)
	}

	body, err := json.Marshal(payload{Channel: string(channel), Text: message})
	if err != nil {
		return driven.DeliveryResult{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return driven.DeliveryResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return driven.DeliveryResult{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return driven.DeliveryResult{}, fmt.Errorf("%w: endpoint returned %d: %s",
			domain.ErrDeliveryFailed, resp.StatusCode, string(snippet))
	}

	return driven.DeliveryResult{
		Channel:    channel,
		ProviderID: resp.Header.Get("X-Request-Id"),
	}, nil
}
