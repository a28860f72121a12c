package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvPort, EnvHost, EnvLogLevel, EnvUploadDir, EnvOutputDir, EnvMaxUploadBytes,
		EnvFFmpegPath, EnvTrimTimeout, EnvLLMProvider, EnvGeminiAPIKey, EnvGeminiModel,
		EnvOpenAIAPIKey, EnvOpenAIModel, EnvOpenAIBaseURL, EnvLLMTimeout, EnvPexelsAPIKey,
		EnvPexelsBaseURL, EnvResolveConcurrency, EnvCORSAllowedOrigins,
	} {
		t.Setenv(k, "")
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port())
	}
	if cfg.Addr() != ":3000" {
		t.Errorf("Addr = %q, want %q", cfg.Addr(), ":3000")
	}
	if cfg.UploadDir() != "uploads" || cfg.OutputDir() != "processed" {
		t.Errorf("dirs = %q, %q", cfg.UploadDir(), cfg.OutputDir())
	}
	if cfg.LLMProvider() != ProviderGemini {
		t.Errorf("LLMProvider = %q, want %q", cfg.LLMProvider(), ProviderGemini)
	}
	if cfg.ResolveConcurrency() != 1 {
		t.Errorf("ResolveConcurrency = %d, want 1", cfg.ResolveConcurrency())
	}
	if cfg.TrimTimeout() != 10*time.Minute {
		t.Errorf("TrimTimeout = %v, want 10m", cfg.TrimTimeout())
	}
	if got := cfg.CORSAllowedOrigins(); len(got) != 1 || got[0] != "*" {
		t.Errorf("CORSAllowedOrigins = %v, want [*]", got)
	}
}

func TestNew_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPort, "8080")
	t.Setenv(EnvLLMProvider, "OpenAI")
	t.Setenv(EnvPexelsBaseURL, "http://pexels.test/")
	t.Setenv(EnvResolveConcurrency, "4")
	t.Setenv(EnvTrimTimeout, "30s")
	t.Setenv(EnvCORSAllowedOrigins, "https://a.example, https://b.example")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port())
	}
	if cfg.LLMProvider() != ProviderOpenAI {
		t.Errorf("LLMProvider = %q, want %q", cfg.LLMProvider(), ProviderOpenAI)
	}
	if cfg.PexelsBaseURL() != "http://pexels.test" {
		t.Errorf("PexelsBaseURL = %q, want trailing slash trimmed", cfg.PexelsBaseURL())
	}
	if cfg.ResolveConcurrency() != 4 {
		t.Errorf("ResolveConcurrency = %d, want 4", cfg.ResolveConcurrency())
	}
	if cfg.TrimTimeout() != 30*time.Second {
		t.Errorf("TrimTimeout = %v, want 30s", cfg.TrimTimeout())
	}
	if got := cfg.CORSAllowedOrigins(); len(got) != 2 || got[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins = %v", got)
	}
}

func TestNew_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{EnvPort, "abc"},
		{EnvPort, "70000"},
		{EnvMaxUploadBytes, "-1"},
		{EnvTrimTimeout, "soon"},
		{EnvLLMProvider, "llama"},
		{EnvResolveConcurrency, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := New(); err == nil {
				t.Fatalf("New() with %s=%q expected error", tt.key, tt.value)
			}
		})
	}
}

func TestValidate_RequiresCredentials(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() expected error with no credentials")
	}

	t.Setenv(EnvGeminiAPIKey, "g-key")
	t.Setenv(EnvPexelsAPIKey, "p-key")
	cfg, err = New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}

	t.Setenv(EnvLLMProvider, ProviderOpenAI)
	cfg, err = New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() expected error when OPENAI_API_KEY missing for openai provider")
	}
}

func TestLoadDotenv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("PEXELS_API_KEY=from-file\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv(EnvPexelsAPIKey) })
	os.Unsetenv(EnvPexelsAPIKey)

	if err := LoadDotenv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotenv error = %v", err)
	}
	if got := os.Getenv(EnvPexelsAPIKey); got != "from-file" {
		t.Errorf("PEXELS_API_KEY = %q, want %q", got, "from-file")
	}
}
