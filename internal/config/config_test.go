package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATASET_PATH", "TRANSLATE_PROVIDER", "TRANSLATE_TIMEOUT", "CLASSIFIER_PROVIDER",
		"SESSION_STORE", "SESSION_TTL", "REDIS_URL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "MAX_UPLOAD_MB",
		"GEMINI_API_KEY", "GEMINI_MODEL_NAME", "GEMINI_VISION_MODEL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.Server.MaxUploadBytes != 10<<20 {
		t.Fatalf("unexpected upload limit %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Data.Path != "data/dataset.csv" {
		t.Fatalf("unexpected dataset path %q", cfg.Data.Path)
	}
	if cfg.Translation.Provider != ProviderAuto || cfg.Translation.Timeout != 15*time.Second {
		t.Fatalf("unexpected translation config %+v", cfg.Translation)
	}
	if cfg.Vision.Provider != ProviderStub {
		t.Fatalf("unexpected vision provider %q", cfg.Vision.Provider)
	}
	if cfg.Session.Store != SessionStoreMemory || cfg.Session.TTL != 24*time.Hour {
		t.Fatalf("unexpected session config %+v", cfg.Session)
	}
	if cfg.RateLimit.RPS != 5 || cfg.RateLimit.Burst != 10 {
		t.Fatalf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if cfg.Gemini.Enabled() {
		t.Fatal("gemini should be disabled without key")
	}
	if cfg.Gemini.VisionModel != cfg.Gemini.Model {
		t.Fatalf("vision model should default to text model, got %q", cfg.Gemini.VisionModel)
	}
}

func TestLoadServerConfig(t *testing.T) {
	tests := []struct {
		name    string
		port    string
		want    string
		wantErr bool
	}{
		{"plain port", "9090", ":9090", false},
		{"host and port", "127.0.0.1:9090", "127.0.0.1:9090", false},
		{"embedded space", "90 90", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("PORT", tc.port)
			t.Setenv("MAX_UPLOAD_MB", "")

			cfg, err := loadServerConfig()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadServerConfig err: %v", err)
			}
			if cfg.Addr != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, cfg.Addr)
			}
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown translate provider", "TRANSLATE_PROVIDER", "babelfish"},
		{"bad translate timeout", "TRANSLATE_TIMEOUT", "soon"},
		{"unknown classifier", "CLASSIFIER_PROVIDER", "resnet"},
		{"unknown session store", "SESSION_STORE", "postgres"},
		{"redis without url", "SESSION_STORE", "redis"},
		{"non numeric burst", "RATE_LIMIT_BURST", "lots"},
		{"zero rps", "RATE_LIMIT_RPS", "0"},
		{"negative upload", "MAX_UPLOAD_MB", "-1"},
		{"bad temperature", "ARK_TEMPERATURE", "warm"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("REDIS_URL", "")
			t.Setenv(tc.key, tc.value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestAIConfigEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  AIConfig
		want bool
	}{
		{"api key", AIConfig{Model: "m", APIKey: "k"}, true},
		{"ak sk", AIConfig{Model: "m", AccessKey: "a", SecretKey: "s"}, true},
		{"missing model", AIConfig{APIKey: "k"}, false},
		{"half ak sk", AIConfig{Model: "m", AccessKey: "a"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.Enabled(); got != tc.want {
				t.Fatalf("Enabled() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("HEALTH_TEST_VAR", "  value ")
	if got := getEnvOrDefault("HEALTH_TEST_VAR", "default"); got != "value" {
		t.Fatalf("expected trimmed value, got %q", got)
	}

	t.Setenv("HEALTH_TEST_VAR", "")
	if got := getEnvOrDefault("HEALTH_TEST_VAR", "default"); got != "default" {
		t.Fatalf("expected default, got %q", got)
	}
}
