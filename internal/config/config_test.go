package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsForceMockWithoutKey(t *testing.T) {
	t.Setenv("NY_TIMES_API_KEY", "")
	t.Setenv("ARCHIVE_MODE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ArchiveMode != ModeMock {
		t.Fatalf("expected mock mode without api key, got %q", cfg.ArchiveMode)
	}
	if cfg.PollInterval != 30*time.Second || cfg.PollWindow != 30*time.Second {
		t.Fatalf("unexpected poll timings %v/%v", cfg.PollInterval, cfg.PollWindow)
	}
	if cfg.APIBaseURL != "https://api.nytimes.com/svc" {
		t.Fatalf("unexpected base url %q", cfg.APIBaseURL)
	}
	if cfg.Location != time.UTC {
		t.Fatalf("expected UTC reference location, got %v", cfg.Location)
	}
}

func TestLoadKeepsRemoteOnlyWithPlaceholderKey(t *testing.T) {
	t.Setenv("NY_TIMES_API_KEY", "your_api_key_here")
	t.Setenv("ARCHIVE_MODE", "remote")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ArchiveMode != ModeRemote {
		t.Fatalf("expected pinned remote mode, got %q", cfg.ArchiveMode)
	}
}

func TestLoadMockToggleOverridesKey(t *testing.T) {
	t.Setenv("NY_TIMES_API_KEY", "real-key")
	t.Setenv("MOCK_API", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ArchiveMode != ModeMock {
		t.Fatalf("expected mock mode, got %q", cfg.ArchiveMode)
	}
}

func TestLoadRejectsInvalidPollInterval(t *testing.T) {
	t.Setenv("POLL_INTERVAL_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero poll interval")
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	t.Setenv("ARCHIVE_MODE", "sometimes")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown archive mode")
	}
}

func TestValidAPIKey(t *testing.T) {
	cases := map[string]bool{
		"":                  false,
		"   ":               false,
		"YOUR_API_KEY_HERE": false,
		"abc123":            true,
	}
	for key, want := range cases {
		if got := ValidAPIKey(key); got != want {
			t.Errorf("ValidAPIKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestRedactedMasksSecrets(t *testing.T) {
	cfg := Config{APIKey: "secret", RedisPassword: "pw"}
	red := cfg.Redacted()
	if red.APIKey != "***" || red.RedisPassword != "***" {
		t.Fatalf("secrets not masked: %#v", red)
	}
	if cfg.APIKey != "secret" {
		t.Fatalf("Redacted mutated the receiver")
	}
}
