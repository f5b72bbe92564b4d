package notification

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"pendientes-backend/internal/device/domain"
	"pendientes-backend/pkg/apperr"
	"pendientes-backend/pkg/expo"
	"pendientes-backend/pkg/fcm"
)

// Expo failure reasons that permanently retire a token. Transient reasons are
// logged but leave the token active.
var permanentExpoReasons = map[string]bool{
	"DeviceNotRegistered": true,
	"NotRegistered":       true,
	"MessageTooBig":       true,
	"InvalidCredentials":  true,
}

// Registry is the token-registry surface the dispatcher needs.
type Registry interface {
	ResolveActiveTargets(ctx context.Context, explicit []string, exclusions map[string]bool) ([]string, error)
	Touch(ctx context.Context, token string) error
	MarkInactive(ctx context.Context, tokens []string) error
}

// ExpoClient posts one batch to the Expo push gateway.
type ExpoClient interface {
	Publish(ctx context.Context, messages []expo.Message) ([]expo.Ticket, error)
}

// FCMClient sends one multicast call to Firebase Cloud Messaging.
type FCMClient interface {
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]fcm.Outcome, error)
}

// Payload is one logical notification before fan-out.
type Payload struct {
	Title          string
	Body           string
	Data           map[string]interface{}
	Sound          string
	ExplicitTokens []string
	ExcludeTokens  []string
	SenderToken    string
}

type ProviderStats struct {
	Provider  string `json:"provider"`
	Attempted int    `json:"attempted"`
	Delivered int    `json:"delivered"`
}

type DeliveryResult struct {
	OK              bool            `json:"ok"`
	Message         string          `json:"message,omitempty"`
	Stats           []ProviderStats `json:"stats"`
	TotalTargets    int             `json:"totalTargets"`
	InvalidTokens   int             `json:"invalidTokens"`
	Delivered       int             `json:"delivered"`
	DeliveredTokens []string        `json:"deliveredTokens"`
}

// Dispatcher fans one notification out to every resolved target across both
// push providers and reconciles the delivery outcomes back into the registry.
type Dispatcher struct {
	registry     Registry
	expoClient   ExpoClient
	fcmClient    FCMClient
	expoMaxBatch int
	fcmMaxBatch  int
}

func NewDispatcher(registry Registry, expoClient ExpoClient, fcmClient FCMClient, expoMaxBatch, fcmMaxBatch int) *Dispatcher {
	if expoMaxBatch <= 0 {
		expoMaxBatch = 100
	}
	if fcmMaxBatch <= 0 {
		fcmMaxBatch = 500
	}
	return &Dispatcher{
		registry:     registry,
		expoClient:   expoClient,
		fcmClient:    fcmClient,
		expoMaxBatch: expoMaxBatch,
		fcmMaxBatch:  fcmMaxBatch,
	}
}

// Deliver validates the payload, resolves the targets, dispatches per
// provider, and updates the registry: delivered tokens are touched, invalid
// ones deactivated. Provider transport failures never surface as errors; they
// classify the whole batch invalid.
func (d *Dispatcher) Deliver(ctx context.Context, payload Payload) (*DeliveryResult, error) {
	title := strings.TrimSpace(payload.Title)
	body := strings.TrimSpace(payload.Body)
	if title == "" || body == "" {
		return nil, apperr.Validation("Se requieren titulo y cuerpo para la notificacion")
	}

	exclusions := buildExclusionSet(payload.ExcludeTokens, payload.SenderToken)
	targets, err := d.registry.ResolveActiveTargets(ctx, payload.ExplicitTokens, exclusions)
	if err != nil {
		return nil, err
	}

	if len(targets) == 0 {
		return &DeliveryResult{
			OK:              true,
			Message:         "No hay destinatarios para la notificacion",
			Stats:           []ProviderStats{{Provider: string(domain.ProviderNone)}},
			DeliveredTokens: []string{},
		}, nil
	}

	// Routing is by token shape, not by the stored provider hint.
	var expoTokens, fcmTokens []string
	for _, token := range targets {
		if domain.Classify(token) == domain.ProviderExpo {
			expoTokens = append(expoTokens, token)
		} else {
			fcmTokens = append(fcmTokens, token)
		}
	}

	log.Printf("[NOTIFICATIONS] deliver title=%q totalTargets=%d expo=%d fcm=%d excluded=%d",
		title, len(targets), len(expoTokens), len(fcmTokens), len(exclusions))

	var stats []ProviderStats
	var invalidTokens []string

	if len(expoTokens) > 0 {
		invalid, providerStats := d.sendExpo(ctx, expoTokens, title, body, payload)
		invalidTokens = append(invalidTokens, invalid...)
		stats = append(stats, providerStats)
	}
	if len(fcmTokens) > 0 {
		invalid, providerStats := d.sendFCM(ctx, fcmTokens, title, body, payload.Data)
		invalidTokens = append(invalidTokens, invalid...)
		stats = append(stats, providerStats)
	}

	invalidSet := make(map[string]bool, len(invalidTokens))
	for _, token := range invalidTokens {
		invalidSet[token] = true
	}
	deliveredTokens := make([]string, 0, len(targets))
	for _, token := range targets {
		if !invalidSet[token] {
			deliveredTokens = append(deliveredTokens, token)
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, token := range deliveredTokens {
		token := token
		group.Go(func() error {
			return d.registry.Touch(groupCtx, token)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := d.registry.MarkInactive(ctx, invalidTokens); err != nil {
		return nil, err
	}

	result := &DeliveryResult{
		OK:              true,
		Stats:           stats,
		TotalTargets:    len(targets),
		InvalidTokens:   len(invalidTokens),
		Delivered:       len(deliveredTokens),
		DeliveredTokens: deliveredTokens,
	}
	log.Printf("[NOTIFICATIONS] deliver result totalTargets=%d delivered=%d invalid=%d",
		result.TotalTargets, result.Delivered, result.InvalidTokens)
	return result, nil
}

// sendExpo posts the expo targets in fixed-size batches. A ticket with a
// permanent failure reason retires its token; a failed batch call retires the
// whole batch.
func (d *Dispatcher) sendExpo(ctx context.Context, tokens []string, title, body string, payload Payload) ([]string, ProviderStats) {
	sound := payload.Sound
	if sound == "" {
		sound = "default"
	}
	data := serializeData(payload.Data)

	var invalidTokens []string
	delivered := 0

	for _, chunk := range chunkStrings(tokens, d.expoMaxBatch) {
		messages := make([]expo.Message, len(chunk))
		for i, token := range chunk {
			messages[i] = expo.Message{To: token, Sound: sound, Title: title, Body: body, Data: data}
		}

		tickets, err := d.expoClient.Publish(ctx, messages)
		if err != nil {
			log.Printf("[NOTIFICATIONS] expo send error: %v", err)
			invalidTokens = append(invalidTokens, chunk...)
			continue
		}

		for i, ticket := range tickets {
			if i >= len(chunk) {
				break
			}
			if ticket.Status == "ok" {
				delivered++
				continue
			}
			reason := ticket.Reason()
			log.Printf("[NOTIFICATIONS] expo invalid ticket token=%s status=%s reason=%s", chunk[i], ticket.Status, reason)
			if permanentExpoReasons[reason] {
				invalidTokens = append(invalidTokens, chunk[i])
			}
		}
	}

	return invalidTokens, ProviderStats{
		Provider:  string(domain.ProviderExpo),
		Attempted: len(tokens),
		Delivered: delivered,
	}
}

// sendFCM multicasts the fcm targets in fixed-size batches, mirroring the expo
// path's whole-batch-invalid policy on transport failure.
func (d *Dispatcher) sendFCM(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) ([]string, ProviderStats) {
	serialized := serializeData(data)

	var invalidTokens []string
	delivered := 0

	for _, chunk := range chunkStrings(tokens, d.fcmMaxBatch) {
		if d.fcmClient == nil {
			log.Printf("[NOTIFICATIONS] fcm client not configured, skipping %d tokens", len(chunk))
			continue
		}
		outcomes, err := d.fcmClient.SendMulticast(ctx, chunk, title, body, serialized)
		if err != nil {
			log.Printf("[NOTIFICATIONS] fcm send error: %v", err)
			invalidTokens = append(invalidTokens, chunk...)
			continue
		}
		for i, outcome := range outcomes {
			if i >= len(chunk) {
				break
			}
			if outcome.Success {
				delivered++
			} else if outcome.Unregistered {
				invalidTokens = append(invalidTokens, chunk[i])
			}
		}
	}

	return invalidTokens, ProviderStats{
		Provider:  string(domain.ProviderFCM),
		Attempted: len(tokens),
		Delivered: delivered,
	}
}

func buildExclusionSet(excludeTokens []string, senderToken string) map[string]bool {
	exclusions := make(map[string]bool)
	for _, token := range excludeTokens {
		if token = strings.TrimSpace(token); token != "" {
			exclusions[token] = true
		}
	}
	if senderToken = strings.TrimSpace(senderToken); senderToken != "" {
		exclusions[senderToken] = true
	}
	return exclusions
}

// serializeData coerces the free-form data map to the string-to-string form
// both providers accept; non-string values are JSON-encoded.
func serializeData(data map[string]interface{}) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case string:
			out[key] = v
		case nil:
			out[key] = ""
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				continue
			}
			out[key] = string(encoded)
		}
	}
	return out
}

func chunkStrings(items []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
