package configs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"KnowledgeAPI/app/chunker"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("QDRANT_HOST", "localhost")
	t.Setenv("QDRANT_PORT", "")

	cfg := Default()
	if cfg.Server.Port != 8000 || cfg.Server.Host != "0.0.0.0" {
		t.Fatalf("unexpected server defaults: %#v", cfg.Server)
	}
	if cfg.OpenAI.APIKey != "sk-test" || cfg.OpenAI.Dimension != 1536 {
		t.Fatalf("unexpected openai defaults: %#v", cfg.OpenAI)
	}
	if cfg.Qdrant.Host != "localhost" || cfg.Qdrant.Port != 6334 || cfg.Qdrant.Collection != "knowledge-base" {
		t.Fatalf("unexpected qdrant defaults: %#v", cfg.Qdrant)
	}
	if cfg.Chunking.TargetSize != chunker.DefaultTargetSize || cfg.Chunking.Overlap != chunker.DefaultOverlap {
		t.Fatalf("unexpected chunking defaults: %#v", cfg.Chunking)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9000
openai:
  api_key: ${TEST_OPENAI_KEY}
qdrant:
  host: qdrant.internal
chunking:
  target_size: 500
  overlap: 50
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Fatalf("unexpected server config: %#v", cfg.Server)
	}
	if cfg.OpenAI.APIKey != "sk-from-env" {
		t.Fatalf("env expansion failed: %q", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.EmbeddingsModel != "text-embedding-3-small" || cfg.Qdrant.Port != 6334 {
		t.Fatalf("defaults not filled: %#v", cfg)
	}
	if cfg.Chunking.TargetSize != 500 || cfg.Chunking.Overlap != 50 {
		t.Fatalf("unexpected chunking config: %#v", cfg.Chunking)
	}
}

func TestLoadConfigInvalidOverlap(t *testing.T) {
	path := writeConfig(t, `
chunking:
  target_size: 100
  overlap: 100
`)
	if _, err := LoadConfig(path); !errors.Is(err, chunker.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}
