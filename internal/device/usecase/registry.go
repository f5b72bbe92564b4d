package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"pendientes-backend/internal/device/domain"
	"pendientes-backend/internal/device/repository"
	"pendientes-backend/pkg/apperr"
)

// RegisterInput carries one device registration request.
type RegisterInput struct {
	Token       string
	DeviceID    string
	UserID      string
	Platform    string
	AppVersion  string
	Provider    string  // optional hint, "expo" or "fcm"
	DisplayName *string // nil means "not supplied"
}

// RegisterResult reports the registry state after an upsert.
type RegisterResult struct {
	Token       string
	TokenType   domain.ProviderKind
	IsNew       bool
	DisplayName string
}

// Registry owns the push-token records: registration with device
// deduplication, lifecycle transitions, and delivery-target resolution.
type Registry interface {
	Upsert(ctx context.Context, input RegisterInput) (*RegisterResult, error)
	Touch(ctx context.Context, token string) error
	MarkInactive(ctx context.Context, tokens []string) error
	ResolveActiveTargets(ctx context.Context, explicit []string, exclusions map[string]bool) ([]string, error)
	ListDevices(ctx context.Context) ([]domain.PushToken, error)
	GetDevice(ctx context.Context, docID string) (*domain.PushToken, error)
	RenameDevice(ctx context.Context, docID string, displayName *string) (*domain.PushToken, error)
}

type registry struct {
	tokens repository.TokenRepository
}

func NewRegistry(tokens repository.TokenRepository) Registry {
	return &registry{tokens: tokens}
}

// Upsert registers a token, refreshing an existing record in place. Every
// other record sharing the same device identifier is deactivated afterwards so
// at most one record per device stays active.
func (r *registry) Upsert(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	token := strings.TrimSpace(input.Token)
	if token == "" {
		return nil, apperr.Validation("Token de notificacion invalido")
	}

	tokenType := domain.ProviderKind(strings.TrimSpace(input.Provider))
	if tokenType != domain.ProviderExpo && tokenType != domain.ProviderFCM {
		tokenType = domain.Classify(token)
	}

	docID := domain.TokenDocID(token)
	existing, err := r.tokens.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	isNew := existing == nil

	deviceID := strings.TrimSpace(input.DeviceID)
	fields := map[string]interface{}{
		"token":      token,
		"tokenType":  string(tokenType),
		"platform":   nullableString(input.Platform),
		"deviceId":   nullableString(deviceID),
		"userId":     nullableString(input.UserID),
		"appVersion": nullableString(input.AppVersion),
		"active":     true,
		"updatedAt":  firestore.ServerTimestamp,
		"lastUsedAt": firestore.ServerTimestamp,
	}

	// Display name precedence: explicit value, then the stored one, then a
	// name derived from the device identifier for brand-new records.
	displayName := ""
	switch {
	case input.DisplayName != nil:
		displayName = domain.NormalizeDisplayName(*input.DisplayName)
		fields["displayName"] = nullableString(displayName)
	case !isNew && existing.DisplayName != "":
		displayName = existing.DisplayName
	case isNew && deviceID != "":
		displayName = domain.NormalizeDisplayName(deviceID)
		fields["displayName"] = displayName
	}

	if isNew {
		fields["createdAt"] = firestore.ServerTimestamp
	}

	if err := r.tokens.SetMerge(ctx, docID, fields); err != nil {
		return nil, err
	}

	if deviceID != "" {
		if err := r.tokens.DeactivateOthersForDevice(ctx, deviceID, docID); err != nil {
			return nil, err
		}
	}

	return &RegisterResult{
		Token:       token,
		TokenType:   tokenType,
		IsNew:       isNew,
		DisplayName: displayName,
	}, nil
}

func (r *registry) Touch(ctx context.Context, token string) error {
	return r.tokens.Touch(ctx, token)
}

func (r *registry) MarkInactive(ctx context.Context, tokens []string) error {
	return r.tokens.MarkInactive(ctx, tokens)
}

// ResolveActiveTargets picks the delivery targets for one broadcast. An
// explicit list always stands, even when sanitizing leaves nothing of it; the
// registry query only serves callers that supplied no list at all, falling
// back to the most recently updated expo record when the registry holds no
// active token. Exclusions apply last.
func (r *registry) ResolveActiveTargets(ctx context.Context, explicit []string, exclusions map[string]bool) ([]string, error) {
	var targets []string

	if len(explicit) > 0 {
		targets = sanitizeTokens(explicit)
	} else {
		active, err := r.tokens.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		for _, record := range active {
			targets = append(targets, record.Token)
		}

		if len(targets) == 0 {
			// Degraded state: keep at least one reachable channel by
			// targeting the freshest expo record.
			expoRecords, err := r.tokens.ListByProvider(ctx, domain.ProviderExpo)
			if err != nil {
				return nil, err
			}
			if latest := latestByUpdatedAt(expoRecords); latest != nil && latest.Token != "" {
				targets = append(targets, latest.Token)
			}
		}
	}

	var resolved []string
	seen := make(map[string]bool)
	for _, token := range sanitizeTokens(targets) {
		if seen[token] || exclusions[token] {
			continue
		}
		seen[token] = true
		resolved = append(resolved, token)
	}
	return resolved, nil
}

// ListDevices returns one record per device: active records win over inactive
// ones, newer over older, inactive leftovers are dropped, newest first.
func (r *registry) ListDevices(ctx context.Context) ([]domain.PushToken, error) {
	records, err := r.tokens.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return SelectDeviceWinners(records), nil
}

func (r *registry) GetDevice(ctx context.Context, docID string) (*domain.PushToken, error) {
	record, err := r.tokens.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperr.NotFound("Dispositivo no encontrado")
	}
	return record, nil
}

// RenameDevice updates the stored display name of one registry record.
func (r *registry) RenameDevice(ctx context.Context, docID string, displayName *string) (*domain.PushToken, error) {
	record, err := r.GetDevice(ctx, docID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"updatedAt": firestore.ServerTimestamp}
	if displayName != nil {
		normalized := domain.NormalizeDisplayName(*displayName)
		fields["displayName"] = nullableString(normalized)
		record.DisplayName = normalized
	}
	if err := r.tokens.SetMerge(ctx, docID, fields); err != nil {
		return nil, err
	}
	return record, nil
}

// SelectDeviceWinners collapses the raw registry records to the per-device
// view served by the devices listing.
func SelectDeviceWinners(records []domain.PushToken) []domain.PushToken {
	winners := make(map[string]domain.PushToken)
	var order []string
	for _, record := range records {
		if strings.TrimSpace(record.Token) == "" {
			continue
		}
		key := record.DeviceID
		if key == "" {
			key = record.Token
		}
		existing, ok := winners[key]
		if !ok {
			winners[key] = record
			order = append(order, key)
			continue
		}
		if record.Active && !existing.Active {
			winners[key] = record
			continue
		}
		if record.Active == existing.Active && lastActivity(record).After(lastActivity(existing)) {
			winners[key] = record
		}
	}

	var devices []domain.PushToken
	for _, key := range order {
		if winner := winners[key]; winner.Active {
			devices = append(devices, winner)
		}
	}
	sort.SliceStable(devices, func(i, j int) bool {
		return lastActivity(devices[i]).After(lastActivity(devices[j]))
	})
	return devices
}

func latestByUpdatedAt(records []domain.PushToken) *domain.PushToken {
	var latest *domain.PushToken
	for i := range records {
		if latest == nil || lastActivity(records[i]).After(lastActivity(*latest)) {
			latest = &records[i]
		}
	}
	return latest
}

func lastActivity(record domain.PushToken) time.Time {
	if !record.UpdatedAt.IsZero() {
		return record.UpdatedAt
	}
	return record.LastUsedAt
}

func sanitizeTokens(tokens []string) []string {
	var out []string
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}

func nullableString(value string) interface{} {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return value
}
