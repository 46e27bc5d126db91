package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pandulabs/pandu/pkg/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Pool.AcquireTimeout != 30*time.Second {
		t.Errorf("expected acquire timeout 30s, got %v", cfg.Pool.AcquireTimeout)
	}
	if cfg.Orchestrator.MaxHops != 3 {
		t.Errorf("expected max hops 3, got %d", cfg.Orchestrator.MaxHops)
	}
	if cfg.Orchestrator.Parallelism != 1 {
		t.Errorf("expected parallelism 1, got %d", cfg.Orchestrator.Parallelism)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected server addr :8080, got %q", cfg.Server.Addr)
	}
	if cfg.Retrieval.DBPath == "" {
		t.Error("expected a default retrieval db path")
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
workers:
  - type: llama
    model: llama-3.1-8b
    base_url: http://localhost:8000
    device: cuda:0
    max_tokens: 1024
  - type: claude
    model: claude-sonnet-4-20250514
    use_bedrock: true
    aws_region: us-west-2
pool:
  acquire_timeout: 5s
orchestrator:
  max_hops: 2
  parallelism: 4
  top_k: 5
retrieval:
  db_path: /tmp/pandu-test.db
  collections:
    - economics
server:
  addr: ":9090"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if len(cfg.Workers) != 2 {
		t.Fatalf("got %d workers, want 2", len(cfg.Workers))
	}
	if cfg.Workers[0].Type != models.WorkerTypeLlama {
		t.Errorf("worker 0 type = %q, want llama", cfg.Workers[0].Type)
	}
	if cfg.Workers[0].BaseURL != "http://localhost:8000" {
		t.Errorf("worker 0 base_url = %q", cfg.Workers[0].BaseURL)
	}
	if cfg.Workers[0].MaxTokens != 1024 {
		t.Errorf("worker 0 max_tokens = %d", cfg.Workers[0].MaxTokens)
	}
	if !cfg.Workers[1].UseBedrock || cfg.Workers[1].AWSRegion != "us-west-2" {
		t.Errorf("worker 1 bedrock config = %+v", cfg.Workers[1])
	}

	if cfg.Pool.AcquireTimeout != 5*time.Second {
		t.Errorf("acquire timeout = %v, want 5s", cfg.Pool.AcquireTimeout)
	}
	if cfg.Orchestrator.Parallelism != 4 {
		t.Errorf("parallelism = %d, want 4", cfg.Orchestrator.Parallelism)
	}
	if cfg.Orchestrator.TopK != 5 {
		t.Errorf("top_k = %d, want 5", cfg.Orchestrator.TopK)
	}
	if cfg.Retrieval.DBPath != "/tmp/pandu-test.db" {
		t.Errorf("db_path = %q", cfg.Retrieval.DBPath)
	}
	if len(cfg.Retrieval.Collections) != 1 || cfg.Retrieval.Collections[0] != "economics" {
		t.Errorf("collections = %v", cfg.Retrieval.Collections)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
}

func TestLoadFromPathDefaultsFillGaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":7070\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("server addr = %q, want :7070", cfg.Server.Addr)
	}
	if cfg.Orchestrator.MaxHops != 3 {
		t.Errorf("max hops default = %d, want 3", cfg.Orchestrator.MaxHops)
	}
	if cfg.Pool.AcquireTimeout != 30*time.Second {
		t.Errorf("acquire timeout default = %v, want 30s", cfg.Pool.AcquireTimeout)
	}
}

func TestLoadFromPathExpandsAPIKey(t *testing.T) {
	t.Setenv("PANDU_TEST_KEY", "sk-ant-expanded")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("anthropic:\n  api_key: ${PANDU_TEST_KEY}\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Anthropic.APIKey != "sk-ant-expanded" {
		t.Errorf("api key = %q, want expanded value", cfg.Anthropic.APIKey)
	}
}
