package worker

import (
	"context"
	"sync"

	"github.com/pandulabs/pandu/pkg/models"
)

// ScriptedWorker replays a fixed sequence of responses. It backs dry runs
// and the test suites of the packages that sit on top of the pool.
type ScriptedWorker struct {
	workerType models.WorkerType
	model      string

	mu        sync.Mutex
	responses []string
	calls     int
	requests  [][]models.Message
}

// NewScriptedWorker creates a worker that answers with the given responses
// in order, repeating the last one once the script runs out.
func NewScriptedWorker(workerType models.WorkerType, responses ...string) *ScriptedWorker {
	return &ScriptedWorker{
		workerType: workerType,
		model:      "scripted",
		responses:  responses,
	}
}

func (w *ScriptedWorker) Type() models.WorkerType { return w.workerType }

func (w *ScriptedWorker) Model() string { return w.model }

func (w *ScriptedWorker) GenerateText(ctx context.Context, messages []models.Message, maxTokens int) (string, error) {
	return w.next(messages), nil
}

func (w *ScriptedWorker) GenerateTextStream(ctx context.Context, messages []models.Message, maxTokens int, yield Yield) error {
	return yield(w.next(messages))
}

func (w *ScriptedWorker) GenerateFunctionCall(ctx context.Context, messages []models.Message, maxTokens int) (string, error) {
	return w.next(messages), nil
}

// Calls reports how many completions were requested.
func (w *ScriptedWorker) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

// Requests returns the transcripts passed to each completion.
func (w *ScriptedWorker) Requests() [][]models.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]models.Message, len(w.requests))
	copy(out, w.requests)
	return out
}

func (w *ScriptedWorker) next(messages []models.Message) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = append(w.requests, messages)
	idx := w.calls
	w.calls++
	if len(w.responses) == 0 {
		return ""
	}
	if idx >= len(w.responses) {
		idx = len(w.responses) - 1
	}
	return w.responses[idx]
}
