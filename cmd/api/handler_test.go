package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pendientes-backend/pkg/config"
)

func TestBuildEngineRunsInReleaseMode(t *testing.T) {
	gin.SetMode(gin.DebugMode)
	handler := NewHandler(nil, nil, nil, nil, nil, nil, nil, &config.Config{})

	engine := handler.buildEngine()

	require.NotNil(t, engine)
	assert.Equal(t, gin.ReleaseMode, gin.Mode())
}

func TestBuildEngineServesHealth(t *testing.T) {
	handler := NewHandler(nil, nil, nil, nil, nil, nil, nil, &config.Config{})
	engine := handler.buildEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestBuildEngineAnswersPreflight(t *testing.T) {
	handler := NewHandler(nil, nil, nil, nil, nil, nil, nil, &config.Config{})
	engine := handler.buildEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/notes", nil)
	req.Header.Set("Origin", "https://app.example")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
}
