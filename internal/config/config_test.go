package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadSubstitutesEnv(t *testing.T) {
	t.Setenv("WR_TEST_KEY", "sk-live")

	path := writeConfig(t, `{
		"server": {"port": 9090},
		"providers": [
			{"id": "gemini-main", "type": "gemini", "api_key": "${WR_TEST_KEY}"}
		],
		"database": {"postgres": {"dsn": "${WR_TEST_DSN:postgres://localhost/windrose}"}}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("got port %d, want 9090", cfg.Server.Port)
	}
	if got := cfg.Providers[0].APIKey; got != "sk-live" {
		t.Errorf("got api key %q, want env value", got)
	}
	if got := cfg.Database.Postgres.DSN; got != "postgres://localhost/windrose" {
		t.Errorf("got dsn %q, want the default", got)
	}
}

func TestLoadDefaultPort(t *testing.T) {
	path := writeConfig(t, `{"providers": []}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("got port %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := writeConfig(t, `{"server":`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
