package config

import (
	"strings"
	"testing"
)

func TestDatabaseDSN(t *testing.T) {
	cfg := Config{
		DBType:     "postgres",
		DBHost:     "db.internal",
		DBPort:     "5433",
		DBName:     "backoffice",
		DBUser:     "app",
		DBPassword: "secret",
		DBSSLMode:  "require",
	}
	dsn := cfg.DatabaseDSN()
	for _, part := range []string{"host=db.internal", "port=5433", "dbname=backoffice", "sslmode=require"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("postgres dsn missing %q: %s", part, dsn)
		}
	}

	cfg.DBType = "mysql"
	dsn = cfg.DatabaseDSN()
	if !strings.Contains(dsn, "app:secret@tcp(db.internal:5433)/backoffice") {
		t.Errorf("unexpected mysql dsn: %s", dsn)
	}

	cfg.DBType = "sqlite"
	if dsn = cfg.DatabaseDSN(); dsn != "backoffice.db" {
		t.Errorf("unexpected sqlite dsn: %s", dsn)
	}

	// An explicit DSN overrides the per-field form for any driver.
	cfg.DBDSN = "file::memory:?cache=shared"
	if dsn = cfg.DatabaseDSN(); dsn != "file::memory:?cache=shared" {
		t.Errorf("override ignored: %s", dsn)
	}
}

func TestActiveWebhookSecret(t *testing.T) {
	s := StripeConfig{TestMode: true, WebhookSecretTest: "whsec_t", WebhookSecretLive: "whsec_l", WebhookSecret: "whsec_shared"}
	if got := s.ActiveWebhookSecret(); got != "whsec_t" {
		t.Errorf("test mode: got %q", got)
	}
	s.TestMode = false
	if got := s.ActiveWebhookSecret(); got != "whsec_l" {
		t.Errorf("live mode: got %q", got)
	}
	s.WebhookSecretLive = ""
	if got := s.ActiveWebhookSecret(); got != "whsec_shared" {
		t.Errorf("fallback: got %q", got)
	}
}
