// Package push talks to the Expo push gateway. The gateway is a plain
// JSON-over-HTTPS endpoint; delivery is best-effort and the caller owns
// retry policy (there is none in this system).
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DeviceNotRegistered is the gateway's signal that a token is stale and
// should be deregistered rather than retried.
const DeviceNotRegistered = "DeviceNotRegistered"

// Message is one push request, addressed to a single device token.
type Message struct {
	To    string            `json:"to"`
	Title string            `json:"title,omitempty"`
	Body  string            `json:"body,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

// TicketDetails carries the gateway's error classification.
type TicketDetails struct {
	Error string `json:"error,omitempty"`
}

// Ticket is the gateway's per-message receipt. Status is "ok" or
// "error"; for errors Details.Error names the cause.
type Ticket struct {
	Status  string        `json:"status"`
	ID      string        `json:"id,omitempty"`
	Message string        `json:"message,omitempty"`
	Details TicketDetails `json:"details,omitempty"`
}

// Gateway is the seam the push dispatcher depends on.
type Gateway interface {
	Send(ctx context.Context, messages []Message) ([]Ticket, error)
}

// ExpoClient implements Gateway against the Expo push API.
type ExpoClient struct {
	url    string
	client *http.Client
}

func NewExpoClient(url string, timeout time.Duration) *ExpoClient {
	return &ExpoClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *ExpoClient) Send(ctx context.Context, messages []Message) ([]Ticket, error) {
	if len(messages) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}

	var body struct {
		Data []Ticket `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode push response: %w", err)
	}
	return body.Data, nil
}
