package config

import (
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "CACHE_TTL_MINUTES", "IMAGE_PROBE_RPS", "JWT_SECRET", "GEMINI_MODEL"} {
		t.Setenv(key, "")
	}

	cfg := NewConfig()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Environment != "development" || cfg.IsProduction() {
		t.Errorf("Environment = %q", cfg.Environment)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %v, want 10m", cfg.CacheTTL)
	}
	if cfg.ImageProbeRPS != 10 {
		t.Errorf("ImageProbeRPS = %v, want 10", cfg.ImageProbeRPS)
	}
	if cfg.GeminiModel != "gemini-1.5-flash" {
		t.Errorf("GeminiModel = %q", cfg.GeminiModel)
	}
	if cfg.AuthEnabled() {
		t.Error("auth should be disabled without JWT_SECRET")
	}
}

func TestNewConfigOverrides(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(*Config) bool
	}{
		{"port", "PORT", "9090", func(c *Config) bool { return c.Port == "9090" }},
		{"production", "ENVIRONMENT", "production", func(c *Config) bool { return c.IsProduction() }},
		{"cache ttl", "CACHE_TTL_MINUTES", "3", func(c *Config) bool { return c.CacheTTL == 3*time.Minute }},
		{"analysis timeout", "ANALYSIS_TIMEOUT", "15", func(c *Config) bool { return c.AnalysisTimeout == 15*time.Second }},
		{"probe rps", "IMAGE_PROBE_RPS", "2.5", func(c *Config) bool { return c.ImageProbeRPS == 2.5 }},
		{"invalid int keeps default", "FETCH_TIMEOUT", "soon", func(c *Config) bool { return c.FetchTimeout == 30*time.Second }},
		{"jwt", "JWT_SECRET", "s3cret", func(c *Config) bool { return c.AuthEnabled() }},
		{"scoring config", "SCORING_CONFIG", "/etc/scoring.yaml", func(c *Config) bool { return c.ScoringConfig == "/etc/scoring.yaml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if !tt.check(NewConfig()) {
				t.Errorf("%s=%q not applied", tt.key, tt.value)
			}
		})
	}
}
