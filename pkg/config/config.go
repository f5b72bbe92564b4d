package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var defaultTaskStatuses = []string{"pendiente", "en_progreso", "detenida", "completada"}

type Config struct {
	Port string

	FirebaseCredentials string
	FirebaseProjectID   string

	ExpoEndpoint    string
	ExpoAccessToken string
	ExpoMaxBatch    int
	FCMMaxBatch     int

	PushTokensCollection   string
	ChatMessagesCollection string
	ChatDefaultLimit       int
	ChatMaxLimit           int

	CategoriesCollection string
	TasksSubcollection   string
	TaskStatuses         []string

	NotesCollection       string
	SupermarketCollection string
	DebtsCollection       string
	DebtsFallbacks        []string

	NotificationSound string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("PORT", "8080"),

		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
		FirebaseProjectID:   getEnv("FB_PROJECT_ID", ""),

		ExpoEndpoint:    getEnv("EXPO_PUSH_ENDPOINT", "https://exp.host/--/api/v2/push/send"),
		ExpoAccessToken: strings.TrimSpace(getEnv("EXPO_ACCESS_TOKEN", "")),
		ExpoMaxBatch:    getEnvInt("EXPO_MAX_BATCH", 100),
		FCMMaxBatch:     getEnvInt("FCM_MAX_BATCH", 500),

		PushTokensCollection:   getEnv("FS_PUSH_TOKENS_COLLECTION", "PushTokens"),
		ChatMessagesCollection: getEnv("FS_CHAT_MESSAGES_COLLECTION", "ChatMessages"),
		ChatDefaultLimit:       getEnvInt("CHAT_DEFAULT_LIMIT", 50),
		ChatMaxLimit:           getEnvInt("CHAT_MAX_LIMIT", 200),

		CategoriesCollection: getEnv("FS_COLLECTION", "PendientesGenerales"),
		TasksSubcollection:   getEnv("FS_TASKS_SUBCOL", "tareas"),
		TaskStatuses:         getEnvLowerList("FS_TASK_STATUSES", defaultTaskStatuses),

		NotesCollection:       getEnv("FS_NOTES_COLLECTION", "Notes"),
		SupermarketCollection: getEnv("FS_SUPERMARKET_COLLECTION", "SuperMarket"),
		DebtsCollection:       getEnv("FS_DEBTS_COLLECTION", "Debts"),
		DebtsFallbacks:        getEnvList("FS_DEBTS_COLLECTION_FALLBACKS", nil),

		NotificationSound: getEnv("NOTIFICATION_SOUND", "notifications.wav"),
	}
}

// DebtsCandidates returns the ordered, deduplicated list of collections to try
// when reading the debt ledger.
func (c *Config) DebtsCandidates() []string {
	candidates := append([]string{c.DebtsCollection}, c.DebtsFallbacks...)
	candidates = append(candidates, "Debts", "DebtLedger", "Loans")

	seen := make(map[string]bool)
	var out []string
	for _, name := range candidates {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList parses a comma-separated value preserving case; Firestore
// collection names are case-sensitive.
func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

// getEnvLowerList is the case-folding variant used for catalogs matched
// case-insensitively.
func getEnvLowerList(key string, defaultValue []string) []string {
	items := getEnvList(key, nil)
	if items == nil {
		return defaultValue
	}
	lowered := make([]string, 0, len(items))
	for _, item := range items {
		lowered = append(lowered, strings.ToLower(item))
	}
	return lowered
}
