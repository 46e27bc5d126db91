package worker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pandulabs/pandu/pkg/models"
)

func TestNewUnknownType(t *testing.T) {
	if _, err := New(models.WorkerConfig{Type: "mystery"}); err == nil {
		t.Error("want error for unknown worker type")
	}
}

func TestNewClaudeWorkerKeyFromConfig(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	if _, err := NewClaudeWorker(models.WorkerConfig{Type: models.WorkerTypeClaude}); err == nil {
		t.Error("want error when no key is configured anywhere")
	}

	w, err := NewClaudeWorker(models.WorkerConfig{
		Type:   models.WorkerTypeClaude,
		APIKey: "sk-ant-test-key",
	})
	if err != nil {
		t.Fatalf("NewClaudeWorker with resolved key: %v", err)
	}
	if w.Type() != models.WorkerTypeClaude {
		t.Errorf("type = %s, want claude", w.Type())
	}
}

func TestNewLocalWorkerRequiresBaseURL(t *testing.T) {
	if _, err := NewLocalWorker(models.WorkerConfig{Type: models.WorkerTypeQwen, Model: "qwen2.5"}); err == nil {
		t.Error("want error when base_url is missing")
	}
}

func TestLocalGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s, want /v1/chat/completions", r.URL.Path)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"hello from qwen"}}]}`)
	}))
	defer srv.Close()

	w, err := NewLocalWorker(models.WorkerConfig{
		Type:    models.WorkerTypeQwen,
		Model:   "qwen2.5",
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("NewLocalWorker: %v", err)
	}

	got, err := w.GenerateText(context.Background(), []models.Message{{Role: "user", Content: "hi"}}, 128)
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if got != "hello from qwen" {
		t.Errorf("got %q", got)
	}
}

func TestLocalGenerateTextServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w, err := NewLocalWorker(models.WorkerConfig{Type: models.WorkerTypeLlama, Model: "llama3", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewLocalWorker: %v", err)
	}
	if _, err := w.GenerateText(context.Background(), nil, 0); err == nil {
		t.Error("want error for 503 response")
	}
}

func TestLocalGenerateTextStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	w, err := NewLocalWorker(models.WorkerConfig{Type: models.WorkerTypeLlama, Model: "llama3", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewLocalWorker: %v", err)
	}

	var b strings.Builder
	err = w.GenerateTextStream(context.Background(), nil, 0, func(chunk string) error {
		b.WriteString(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("GenerateTextStream: %v", err)
	}
	if b.String() != "hello" {
		t.Errorf("streamed %q, want hello", b.String())
	}
}

func TestScriptedWorkerSequence(t *testing.T) {
	w := NewScriptedWorker(models.WorkerTypeLlama, "first", "second")

	for i, want := range []string{"first", "second", "second"} {
		got, err := w.GenerateText(context.Background(), []models.Message{{Role: "user", Content: "q"}}, 0)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if got != want {
			t.Errorf("call %d = %q, want %q", i, got, want)
		}
	}
	if w.Calls() != 3 {
		t.Errorf("calls = %d, want 3", w.Calls())
	}
	if len(w.Requests()) != 3 {
		t.Errorf("requests = %d, want 3", len(w.Requests()))
	}
}

func TestNewHandleUniqueIDs(t *testing.T) {
	w := NewScriptedWorker(models.WorkerTypeQwen, "x")
	a := NewHandle(w, "cuda:0")
	b := NewHandle(w, "cuda:1")
	if a.ID == b.ID {
		t.Error("handles share an ID")
	}
	if a.DeviceTag != "cuda:0" {
		t.Errorf("device tag = %q", a.DeviceTag)
	}
}
