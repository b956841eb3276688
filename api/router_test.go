package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		Auth:      config.AuthConfig{Enabled: true, APIKeys: []string{"secret"}},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(Deps{Classes: 3}, testConfig(), time.Now())

	tests := []struct {
		name     string
		method   string
		path     string
		key      string
		wantCode int
		wantErr  string
	}{
		{"health is public", http.MethodGet, "/api/v1/health", "", http.StatusOK, ""},
		{"classify needs a key", http.MethodPost, "/api/v1/classify", "", http.StatusUnauthorized, models.ErrCodeUnauthorized},
		{"search rejects a wrong key", http.MethodPost, "/api/v1/recipes/search", "nope", http.StatusUnauthorized, models.ErrCodeUnauthorized},
		{"unknown path", http.MethodGet, "/api/v1/recipes", "secret", http.StatusNotFound, models.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantErr == "" {
				return
			}
			var body models.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error == nil || body.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want code %s", body.Error, tt.wantErr)
			}
		})
	}
}

func TestNewRouter_HealthReportsClasses(t *testing.T) {
	r := NewRouter(Deps{}, testConfig(), time.Now())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	var body models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "degraded" || body.Classes != 0 {
		t.Errorf("health = %+v, want degraded with no classes", body)
	}
}
