package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pandulabs/pandu/pkg/models"
)

const defaultLocalMaxTokens = 2048

// LocalWorker talks to an OpenAI-compatible chat completions server such as
// vLLM or llama.cpp hosting a Qwen or Llama model.
type LocalWorker struct {
	workerType models.WorkerType
	model      string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

// NewLocalWorker creates a worker bound to a local inference server.
func NewLocalWorker(cfg models.WorkerConfig) (*LocalWorker, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("worker %s/%s: base_url is required", cfg.Type, cfg.Model)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultLocalMaxTokens
	}
	return &LocalWorker{
		workerType: cfg.Type,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxTokens:  maxTokens,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

func (w *LocalWorker) Type() models.WorkerType { return w.workerType }

func (w *LocalWorker) Model() string { return w.model }

type chatRequest struct {
	Model     string           `json:"model"`
	Messages  []models.Message `json:"messages"`
	MaxTokens int              `json:"max_tokens"`
	Stream    bool             `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (w *LocalWorker) GenerateText(ctx context.Context, messages []models.Message, maxTokens int) (string, error) {
	resp, err := w.post(ctx, messages, maxTokens, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading completion response: %w", err)
	}
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (w *LocalWorker) GenerateTextStream(ctx context.Context, messages []models.Message, maxTokens int, yield Yield) error {
	resp, err := w.post(ctx, messages, maxTokens, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}
		var parsed chatResponse
		if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
			continue
		}
		if len(parsed.Choices) == 0 {
			continue
		}
		if chunk := parsed.Choices[0].Delta.Content; chunk != "" {
			if err := yield(chunk); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading completion stream: %w", err)
	}
	return nil
}

func (w *LocalWorker) GenerateFunctionCall(ctx context.Context, messages []models.Message, maxTokens int) (string, error) {
	return w.GenerateText(ctx, messages, maxTokens)
}

func (w *LocalWorker) post(ctx context.Context, messages []models.Message, maxTokens int, stream bool) (*http.Response, error) {
	if maxTokens <= 0 {
		maxTokens = w.maxTokens
	}
	body, err := json.Marshal(chatRequest{
		Model:     w.model,
		Messages:  messages,
		MaxTokens: maxTokens,
		Stream:    stream,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request to %s: %w", w.baseURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("completion server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp, nil
}
