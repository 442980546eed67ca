package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"RESERVATIONS_HTTP_PORT",
			"RESERVATIONS_SQLITE_DSN",
			"RESERVATIONS_SESSION_TTL",
			"RESERVATIONS_RATE_LIMIT",
			"RESERVATIONS_TIMEZONE",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		const secret = "super-secret"
		t.Setenv("RESERVATIONS_SESSION_SECRET", secret)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:reservations.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionSecret != secret {
			t.Fatalf("expected session secret %q, got %q", secret, cfg.SessionSecret)
		}
		if cfg.Timezone != time.UTC {
			t.Fatalf("expected UTC default, got %v", cfg.Timezone)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		for _, key := range []string{
			"RESERVATIONS_SESSION_SECRET",
			"RESERVATIONS_HTTP_PORT",
			"RESERVATIONS_SQLITE_DSN",
		} {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		_, err := Load()
		if err == nil {
			t.Fatal("expected error when required values are missing")
		}
		expected := "missing required environment variables: RESERVATIONS_SESSION_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses numeric, duration, and zone fields", func(t *testing.T) {
		t.Setenv("RESERVATIONS_SESSION_SECRET", "secret-value")
		t.Setenv("RESERVATIONS_HTTP_PORT", "9090")
		t.Setenv("RESERVATIONS_SQLITE_DSN", "file:/tmp/reservations.db")
		t.Setenv("RESERVATIONS_SESSION_TTL", "12h")
		t.Setenv("RESERVATIONS_RATE_LIMIT", "100")
		t.Setenv("RESERVATIONS_TIMEZONE", "UTC")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/reservations.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionTTL != 12*time.Hour {
			t.Fatalf("expected session TTL 12h, got %s", cfg.SessionTTL)
		}
		if cfg.RateLimit != 100 {
			t.Fatalf("expected rate limit 100, got %v", cfg.RateLimit)
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		t.Setenv("RESERVATIONS_SESSION_SECRET", "secret-value")
		t.Setenv("RESERVATIONS_HTTP_PORT", "not-a-port")
		t.Setenv("RESERVATIONS_SESSION_TTL", "-1h")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for malformed values")
		}
	})
}
