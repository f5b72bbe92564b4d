package fcm

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Client wraps Firebase Cloud Messaging multicast delivery
type Client struct {
	messagingClient *messaging.Client
}

// NewClient creates a new FCM client using the provided credentials file
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Println("[FCM] Client initialized successfully")
	return &Client{messagingClient: messagingClient}, nil
}

// Outcome is the per-token result of one multicast call, in request order.
type Outcome struct {
	Success bool
	// Unregistered is true when FCM reported the token as no longer valid
	// (invalid or not registered), the only errors that should retire a token.
	Unregistered bool
}

// SendMulticast delivers one notification to up to 500 tokens in a single call
// and reports the per-token outcomes.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]Outcome, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	response, err := c.messagingClient.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to send FCM multicast message: %w", err)
	}

	log.Printf("[FCM] Multicast sent: %d success, %d failures", response.SuccessCount, response.FailureCount)

	outcomes := make([]Outcome, len(response.Responses))
	for i, resp := range response.Responses {
		if resp.Success {
			outcomes[i] = Outcome{Success: true}
			continue
		}
		outcomes[i] = Outcome{
			Unregistered: messaging.IsUnregistered(resp.Error) || errorutils.IsInvalidArgument(resp.Error),
		}
	}
	return outcomes, nil
}
