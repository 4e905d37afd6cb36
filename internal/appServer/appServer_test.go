package appServer

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ds124wfegd/genrelay/config"
	"github.com/ds124wfegd/genrelay/internal/pkg/kafka"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewHandlerRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0", Timeout: time.Minute, StaticDir: t.TempDir(), MaxBodyBytes: 1 << 20},
		Relay: config.RelayConfig{
			MaxAttempts:    3,
			RequestTimeout: time.Second,
			Deadline:       10 * time.Second,
		},
		Kafka: config.KafkaConfig{Topic: "generation-jobs"},
	}
	relay := NewRelay(cfg, kafka.NewProducer(nil, cfg.Kafka.Topic))
	handler := NewHandler(cfg, relay)

	health := httptest.NewRecorder()
	handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)

	// no server secret and no apiKey in the body
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"apiUrl":"http://127.0.0.1:1","payload":{}}`))
	req.Header.Set("Content-Type", "application/json")
	generate := httptest.NewRecorder()
	handler.ServeHTTP(generate, req)
	assert.Equal(t, http.StatusInternalServerError, generate.Code)
	assert.Contains(t, generate.Body.String(), "WAVESPEED_API_KEY")

	relay.Close()
}
