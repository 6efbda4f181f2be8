package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-packs/pkg/simplepacks/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}

func TestNewLoggerProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Config{Env: "prod", LogLevel: "info"})

	logger.Debug("hidden")
	logger.Info("Pack created", "pack_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Pack created", entry["msg"])
	assert.Equal(t, "abc", entry["pack_id"])
	assert.Contains(t, entry, "ts")
	assert.NotContains(t, entry, "time")
}

func TestNewLoggerDevIsText(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Config{Env: "dev", LogLevel: "debug"})

	logger.Debug("visible", "key", "value")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "value")
}

func TestConfigFromContext(t *testing.T) {
	_, err := configFromContext(context.Background())
	assert.Error(t, err)

	cfg := &config.Config{Port: "8000"}
	got, err := configFromContext(withConfig(context.Background(), cfg))
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}

func TestServeHandlerWithMemoryRuntime(t *testing.T) {
	cfg := &config.Config{
		Env:            "dev",
		MaxUploadBytes: 1 << 20,
		RequestTimeout: 5 * time.Second,
		Storage:        config.StorageConfig{Driver: "memory"},
		Database:       config.DatabaseConfig{Type: "memory"},
	}
	rt, err := config.Build(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer rt.Close()

	h := newHandler(cfg, rt, slog.Default())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	req := httptest.NewRequest(http.MethodOptions, "/packs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
