package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is one push request accepted by the Expo batch gateway.
type Message struct {
	To    string            `json:"to"`
	Sound string            `json:"sound,omitempty"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Ticket is the per-message receipt returned by the gateway, in request order.
type Ticket struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details *TicketDetails `json:"details,omitempty"`
}

type TicketDetails struct {
	Error string `json:"error,omitempty"`
}

// Reason returns the failure reason reported for a non-ok ticket.
func (t Ticket) Reason() string {
	if t.Details != nil && t.Details.Error != "" {
		return t.Details.Error
	}
	if t.Message != "" {
		return t.Message
	}
	return "unknown"
}

type pushResponse struct {
	Data []Ticket `json:"data"`
}

// Client posts message batches to the Expo push endpoint.
type Client struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
}

func NewClient(endpoint, accessToken string) *Client {
	return &Client{
		endpoint:    endpoint,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Publish sends one batch (at most 100 messages) as a single HTTP call and
// returns the tickets in request order.
func (c *Client) Publish(ctx context.Context, messages []Message) ([]Ticket, error) {
	if len(messages) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode expo batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build expo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("expo push request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read expo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("expo push returned status %d: %s", resp.StatusCode, body)
	}

	var parsed pushResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode expo response: %w", err)
	}
	return parsed.Data, nil
}
