package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATABASE_PATH", "JWT_SECRET", "ANON_KEY", "OPENAI_API_KEY", "OPENAI_BASE_URL",
		"EMBEDDING_MODEL", "CHAT_MODEL", "SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD",
		"SMTP_FROM", "OTEL_EXPORTER", "OTEL_ENDPOINT", "BACKFILL_SCHEDULE", "LOG_LEVEL", "CORS_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(defaultConfig(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := writeFile(t, "taskflow.yaml", `
port: "8080"
anon_key: from-file
openai:
  chat_model: gpt-test
cors_origins: [http://a.test]
`)
	t.Setenv("ANON_KEY", "from-env")
	t.Setenv("CORS_ORIGINS", "http://b.test, http://c.test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.AnonKey != "from-env" {
		t.Errorf("AnonKey = %q, want from-env", cfg.AnonKey)
	}
	if cfg.OpenAI.ChatModel != "gpt-test" {
		t.Errorf("ChatModel = %q", cfg.OpenAI.ChatModel)
	}
	if cfg.OpenAI.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("EmbeddingModel default lost: %q", cfg.OpenAI.EmbeddingModel)
	}
	if diff := cmp.Diff([]string{"http://b.test", "http://c.test"}, cfg.CORSOrigins); diff != "" {
		t.Errorf("CORSOrigins mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadEnv(t *testing.T) {
	path := writeFile(t, ".env", `
# comment
TASKFLOW_TEST_A=plain
TASKFLOW_TEST_B = "quoted value"
malformed line
`)
	t.Setenv("TASKFLOW_TEST_A", "")
	t.Setenv("TASKFLOW_TEST_B", "")

	if err := LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv("TASKFLOW_TEST_A"); got != "plain" {
		t.Errorf("A = %q", got)
	}
	if got := os.Getenv("TASKFLOW_TEST_B"); got != "quoted value" {
		t.Errorf("B = %q", got)
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("LoadEnv on missing file = %v, want nil", err)
	}
}
