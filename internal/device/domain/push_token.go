package domain

import (
	"encoding/base64"
	"strings"
	"time"
)

// ProviderKind identifies which push backend a token belongs to.
type ProviderKind string

const (
	ProviderExpo ProviderKind = "expo"
	ProviderFCM  ProviderKind = "fcm"
	ProviderNone ProviderKind = "none"
)

const maxDisplayNameLength = 80

// PushToken is one registry record, keyed by the encoded token string.
type PushToken struct {
	ID            string    `firestore:"-" json:"id"`
	Token         string    `firestore:"token" json:"token"`
	TokenType     string    `firestore:"tokenType" json:"tokenType"`
	Platform      string    `firestore:"platform" json:"platform"`
	DeviceID      string    `firestore:"deviceId" json:"deviceId"`
	UserID        string    `firestore:"userId" json:"userId"`
	AppVersion    string    `firestore:"appVersion" json:"appVersion"`
	DisplayName   string    `firestore:"displayName" json:"displayName"`
	DuplicateOf   string    `firestore:"duplicateOf" json:"duplicateOf"`
	Active        bool      `firestore:"active" json:"active"`
	CreatedAt     time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt" json:"updatedAt"`
	LastUsedAt    time.Time `firestore:"lastUsedAt" json:"lastUsedAt"`
	DeactivatedAt time.Time `firestore:"deactivatedAt" json:"deactivatedAt"`
}

// Classify infers the provider backend from the token shape. Expo hands out
// tokens in the bracketed "ExponentPushToken[...]" format; everything else is
// treated as an FCM registration token.
func Classify(token string) ProviderKind {
	if strings.HasPrefix(token, "ExponentPushToken[") {
		return ProviderExpo
	}
	return ProviderFCM
}

// TokenDocID derives the registry document ID from the raw token. The encoding
// is reversible so repeated registrations of the same token always land on the
// same document.
func TokenDocID(token string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(token))
}

// NormalizeDisplayName trims and caps a user-supplied device name. Empty input
// yields the empty string.
func NormalizeDisplayName(value string) string {
	normalized := strings.TrimSpace(value)
	if len(normalized) > maxDisplayNameLength {
		normalized = normalized[:maxDisplayNameLength]
	}
	return normalized
}
