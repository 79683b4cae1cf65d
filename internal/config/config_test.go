package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HASHID_SALT", "pepper")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.PromptHour != 9 {
		t.Fatalf("PromptHour = %d, want 9", cfg.PromptHour)
	}
	if cfg.QuoteMarker != "JourneyInbox" {
		t.Fatalf("QuoteMarker = %q, want %q", cfg.QuoteMarker, "JourneyInbox")
	}
	if cfg.LoginLinkTTL != 15*time.Minute {
		t.Fatalf("LoginLinkTTL = %v, want 15m", cfg.LoginLinkTTL)
	}
}

func TestLoadRequiresSalt(t *testing.T) {
	t.Setenv("HASHID_SALT", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when HASHID_SALT is empty")
	}
}

func TestLoadRejectsBadHour(t *testing.T) {
	t.Setenv("HASHID_SALT", "pepper")
	t.Setenv("PROMPT_HOUR", "24")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for PROMPT_HOUR=24")
	}
}

func TestWebhookCredentials(t *testing.T) {
	tests := []struct {
		secret  string
		user    string
		pass    string
		wantErr bool
	}{
		{secret: "anymail:s3cret", user: "anymail", pass: "s3cret"},
		{secret: "user:pa:ss", user: "user", pass: "pa:ss"},
		{secret: "nocolon", wantErr: true},
		{secret: "", wantErr: true},
		{secret: ":missing", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.secret, func(t *testing.T) {
			cfg := &Config{InboundWebhookSecret: tt.secret}
			user, pass, err := cfg.WebhookCredentials()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("WebhookCredentials(%q) should fail", tt.secret)
				}
				return
			}
			if err != nil || user != tt.user || pass != tt.pass {
				t.Fatalf("WebhookCredentials(%q) = (%q, %q, %v), want (%q, %q, nil)", tt.secret, user, pass, err, tt.user, tt.pass)
			}
		})
	}
}

func TestPostgresDSNPrefersURL(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://u:p@db:5432/journal"}
	if got := cfg.PostgresDSN(); got != cfg.DatabaseURL {
		t.Fatalf("PostgresDSN = %q, want %q", got, cfg.DatabaseURL)
	}
}
