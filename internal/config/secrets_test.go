package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write secret file: %v", err)
	}
	return path
}

func TestResolveSecret(t *testing.T) {
	const envName = "BLINDENGINE_TEST_SECRET"

	tests := []struct {
		name    string
		env     string
		file    string // content; empty means no _FILE variable
		want    string
		wantErr bool
	}{
		{name: "env only", env: "env-value", want: "env-value"},
		{name: "file only", file: "file-value\n", want: "file-value"},
		{name: "file wins over env", env: "env-value", file: "file-value", want: "file-value"},
		{name: "trims whitespace", file: "  padded \n\n", want: "padded"},
		{name: "neither set", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envName, tt.env)
			t.Setenv(envName+"_FILE", "")
			if tt.file != "" {
				t.Setenv(envName+"_FILE", writeSecret(t, tt.file))
			}

			got, err := ResolveSecret(envName)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveSecret_FileNotFound(t *testing.T) {
	const envName = "BLINDENGINE_TEST_MISSING"
	t.Setenv(envName+"_FILE", filepath.Join(t.TempDir(), "nope"))

	if _, err := ResolveSecret(envName); err == nil {
		t.Fatal("expected error for missing secret file")
	}
}

func TestResolveCredentials(t *testing.T) {
	t.Setenv(EnvPostgresPassword, "pg-secret")
	t.Setenv(EnvMQTTPassword+"_FILE", writeSecret(t, "mqtt-secret\n"))

	cfg := Default()
	creds, err := cfg.ResolveCredentials()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds != (Credentials{}) {
		t.Errorf("disabled integrations must not resolve credentials, got %+v", creds)
	}

	cfg.Postgres.Enabled = true
	cfg.MQTT.Enabled = true
	creds, err = cfg.ResolveCredentials()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.PostgresPassword != "pg-secret" || creds.MQTTPassword != "mqtt-secret" {
		t.Errorf("unexpected credentials: %+v", creds)
	}

	t.Setenv(EnvMQTTPassword+"_FILE", filepath.Join(t.TempDir(), "gone"))
	if _, err := cfg.ResolveCredentials(); err == nil {
		t.Fatal("expected error for unreadable MQTT secret")
	}
}
