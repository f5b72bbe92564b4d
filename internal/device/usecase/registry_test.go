package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pendientes-backend/internal/device/domain"
)

type fakeTokenRepo struct {
	records map[string]*domain.PushToken

	merged        map[string]map[string]interface{}
	deactivated   []string
	touched       []string
	markedMissing []string

	deactivateCalls []struct {
		deviceID string
		keep     string
	}
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		records: map[string]*domain.PushToken{},
		merged:  map[string]map[string]interface{}{},
	}
}

func (f *fakeTokenRepo) Get(_ context.Context, docID string) (*domain.PushToken, error) {
	record, ok := f.records[docID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeTokenRepo) SetMerge(_ context.Context, docID string, fields map[string]interface{}) error {
	f.merged[docID] = fields
	return nil
}

func (f *fakeTokenRepo) DeactivateOthersForDevice(_ context.Context, deviceID, keepDocID string) error {
	f.deactivateCalls = append(f.deactivateCalls, struct {
		deviceID string
		keep     string
	}{deviceID, keepDocID})
	return nil
}

func (f *fakeTokenRepo) MarkInactive(_ context.Context, tokens []string) error {
	f.markedMissing = append(f.markedMissing, tokens...)
	return nil
}

func (f *fakeTokenRepo) Touch(_ context.Context, token string) error {
	f.touched = append(f.touched, token)
	return nil
}

func (f *fakeTokenRepo) ListActive(_ context.Context) ([]domain.PushToken, error) {
	var active []domain.PushToken
	for _, record := range f.records {
		if record.Active {
			active = append(active, *record)
		}
	}
	return active, nil
}

func (f *fakeTokenRepo) ListByProvider(_ context.Context, kind domain.ProviderKind) ([]domain.PushToken, error) {
	var matched []domain.PushToken
	for _, record := range f.records {
		if record.TokenType == string(kind) {
			matched = append(matched, *record)
		}
	}
	return matched, nil
}

func (f *fakeTokenRepo) ListAll(_ context.Context) ([]domain.PushToken, error) {
	var all []domain.PushToken
	for _, record := range f.records {
		all = append(all, *record)
	}
	return all, nil
}

func TestUpsertRejectsEmptyToken(t *testing.T) {
	registry := NewRegistry(newFakeTokenRepo())

	_, err := registry.Upsert(context.Background(), RegisterInput{Token: "   "})
	require.Error(t, err)
	assert.EqualError(t, err, "Token de notificacion invalido")
}

func TestUpsertNewToken(t *testing.T) {
	repo := newFakeTokenRepo()
	registry := NewRegistry(repo)

	token := "ExponentPushToken[fresh]"
	result, err := registry.Upsert(context.Background(), RegisterInput{
		Token:    "  " + token + "  ",
		DeviceID: "tablet-sala",
		Platform: "android",
	})
	require.NoError(t, err)

	assert.True(t, result.IsNew)
	assert.Equal(t, token, result.Token)
	assert.Equal(t, domain.ProviderExpo, result.TokenType)
	// A brand-new record with a device ID derives its display name from it.
	assert.Equal(t, "tablet-sala", result.DisplayName)

	docID := domain.TokenDocID(token)
	fields := repo.merged[docID]
	require.NotNil(t, fields)
	assert.Equal(t, token, fields["token"])
	assert.Equal(t, "expo", fields["tokenType"])
	assert.Equal(t, true, fields["active"])
	assert.Contains(t, fields, "createdAt")

	require.Len(t, repo.deactivateCalls, 1)
	assert.Equal(t, "tablet-sala", repo.deactivateCalls[0].deviceID)
	assert.Equal(t, docID, repo.deactivateCalls[0].keep)
}

func TestUpsertIsIdempotent(t *testing.T) {
	repo := newFakeTokenRepo()
	registry := NewRegistry(repo)

	token := "ExponentPushToken[repeat]"
	docID := domain.TokenDocID(token)
	repo.records[docID] = &domain.PushToken{
		ID: docID, Token: token, TokenType: "expo", DisplayName: "Cocina", Active: true,
	}

	result, err := registry.Upsert(context.Background(), RegisterInput{Token: token})
	require.NoError(t, err)

	assert.False(t, result.IsNew)
	// The stored display name survives when none is supplied.
	assert.Equal(t, "Cocina", result.DisplayName)
	assert.NotContains(t, repo.merged[docID], "createdAt")
}

func TestUpsertExplicitDisplayNameWins(t *testing.T) {
	repo := newFakeTokenRepo()
	registry := NewRegistry(repo)

	token := "ExponentPushToken[named]"
	docID := domain.TokenDocID(token)
	repo.records[docID] = &domain.PushToken{ID: docID, Token: token, DisplayName: "Viejo", Active: true}

	name := "  Nuevo nombre  "
	result, err := registry.Upsert(context.Background(), RegisterInput{Token: token, DisplayName: &name})
	require.NoError(t, err)

	assert.Equal(t, "Nuevo nombre", result.DisplayName)
	assert.Equal(t, "Nuevo nombre", repo.merged[docID]["displayName"])
}

func TestUpsertProviderHintOverridesShape(t *testing.T) {
	repo := newFakeTokenRepo()
	registry := NewRegistry(repo)

	result, err := registry.Upsert(context.Background(), RegisterInput{
		Token:    "raw-fcm-looking-token",
		Provider: "expo",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderExpo, result.TokenType)
}

func TestResolveActiveTargetsExplicitWins(t *testing.T) {
	repo := newFakeTokenRepo()
	repo.records["a"] = &domain.PushToken{Token: "stored", Active: true}
	registry := NewRegistry(repo)

	targets, err := registry.ResolveActiveTargets(context.Background(), []string{" explicit-1 ", "", "explicit-1", "explicit-2"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"explicit-1", "explicit-2"}, targets)
}

func TestResolveActiveTargetsBlankExplicitListStays(t *testing.T) {
	repo := newFakeTokenRepo()
	repo.records["a"] = &domain.PushToken{Token: "tok-bystander", Active: true}
	registry := NewRegistry(repo)

	// A supplied recipient list that sanitizes to nothing must not widen into
	// a registry-wide broadcast.
	targets, err := registry.ResolveActiveTargets(context.Background(), []string{"   ", ""}, nil)
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestResolveActiveTargetsUsesActiveRecords(t *testing.T) {
	repo := newFakeTokenRepo()
	repo.records["a"] = &domain.PushToken{Token: "tok-a", Active: true}
	repo.records["b"] = &domain.PushToken{Token: "tok-b", Active: false}
	registry := NewRegistry(repo)

	targets, err := registry.ResolveActiveTargets(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-a"}, targets)
}

func TestResolveActiveTargetsExpoFallback(t *testing.T) {
	repo := newFakeTokenRepo()
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	repo.records["a"] = &domain.PushToken{Token: "expo-old", TokenType: "expo", UpdatedAt: older}
	repo.records["b"] = &domain.PushToken{Token: "expo-new", TokenType: "expo", UpdatedAt: newer}
	registry := NewRegistry(repo)

	targets, err := registry.ResolveActiveTargets(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"expo-new"}, targets,
		"with no active record the freshest expo token is the fallback target")
}

func TestResolveActiveTargetsAppliesExclusions(t *testing.T) {
	repo := newFakeTokenRepo()
	repo.records["a"] = &domain.PushToken{Token: "tok-a", Active: true}
	repo.records["b"] = &domain.PushToken{Token: "tok-b", Active: true}
	registry := NewRegistry(repo)

	targets, err := registry.ResolveActiveTargets(context.Background(), nil, map[string]bool{"tok-b": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-a"}, targets)
}

func TestSelectDeviceWinners(t *testing.T) {
	older := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	records := []domain.PushToken{
		{Token: "t1", DeviceID: "dev-1", Active: false, UpdatedAt: newer},
		{Token: "t2", DeviceID: "dev-1", Active: true, UpdatedAt: older},
		{Token: "t3", DeviceID: "dev-2", Active: true, UpdatedAt: older},
		{Token: "t4", DeviceID: "dev-2", Active: true, UpdatedAt: newer},
		{Token: "t5", DeviceID: "dev-3", Active: false, UpdatedAt: newer},
		{Token: "", DeviceID: "dev-4", Active: true},
	}

	winners := SelectDeviceWinners(records)

	require.Len(t, winners, 2)
	// Active beats newer-but-inactive for dev-1; the newest active record
	// wins for dev-2; fully inactive devices disappear.
	tokens := []string{winners[0].Token, winners[1].Token}
	assert.Contains(t, tokens, "t2")
	assert.Contains(t, tokens, "t4")
	// Newest activity first.
	assert.Equal(t, "t4", winners[0].Token)
}
