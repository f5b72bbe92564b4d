package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://exp.host/--/api/v2/push/send", cfg.ExpoEndpoint)
	assert.Equal(t, 100, cfg.ExpoMaxBatch)
	assert.Equal(t, 500, cfg.FCMMaxBatch)
	assert.Equal(t, "PushTokens", cfg.PushTokensCollection)
	assert.Equal(t, 50, cfg.ChatDefaultLimit)
	assert.Equal(t, 200, cfg.ChatMaxLimit)
	assert.Equal(t, "PendientesGenerales", cfg.CategoriesCollection)
	assert.Equal(t, "tareas", cfg.TasksSubcollection)
	assert.Equal(t, []string{"pendiente", "en_progreso", "detenida", "completada"}, cfg.TaskStatuses)
	assert.Equal(t, "notifications.wav", cfg.NotificationSound)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FS_COLLECTION", "PendientesTest")
	t.Setenv("EXPO_MAX_BATCH", "25")
	t.Setenv("FS_TASK_STATUSES", " Pendiente , Hecha ,")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "PendientesTest", cfg.CategoriesCollection)
	assert.Equal(t, 25, cfg.ExpoMaxBatch)
	assert.Equal(t, []string{"pendiente", "hecha"}, cfg.TaskStatuses, "statuses are lowercased and trimmed")
}

func TestLoadIgnoresBadNumericOverrides(t *testing.T) {
	t.Setenv("CHAT_MAX_LIMIT", "not-a-number")
	t.Setenv("CHAT_DEFAULT_LIMIT", "-5")

	cfg := Load()
	assert.Equal(t, 200, cfg.ChatMaxLimit)
	assert.Equal(t, 50, cfg.ChatDefaultLimit)
}

func TestDebtsFallbacksPreserveCase(t *testing.T) {
	t.Setenv("FS_DEBTS_COLLECTION_FALLBACKS", " DebtLedger2 , OldLoans ")

	cfg := Load()
	// Firestore collection names are case-sensitive; folding them would point
	// the ledger at collections that do not exist.
	assert.Equal(t, []string{"DebtLedger2", "OldLoans"}, cfg.DebtsFallbacks)
	assert.Equal(t, []string{"Debts", "DebtLedger2", "OldLoans", "DebtLedger", "Loans"}, cfg.DebtsCandidates())
}

func TestDebtsCandidates(t *testing.T) {
	cfg := &Config{
		DebtsCollection: "Debts",
		DebtsFallbacks:  []string{"ledger", " Debts ", ""},
	}

	assert.Equal(t, []string{"Debts", "ledger", "DebtLedger", "Loans"}, cfg.DebtsCandidates())
}

func TestDebtsCandidatesCustomPrimaryFirst(t *testing.T) {
	cfg := &Config{DebtsCollection: "MiDeuda"}

	candidates := cfg.DebtsCandidates()
	assert.Equal(t, "MiDeuda", candidates[0])
	assert.Contains(t, candidates, "Debts")
	assert.Contains(t, candidates, "DebtLedger")
	assert.Contains(t, candidates, "Loans")
}
