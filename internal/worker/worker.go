// Package worker provides inference backends behind a common capability
// interface. A worker is constructed once from configuration and then owned
// by the resource pool for its whole lifetime.
package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pandulabs/pandu/pkg/models"
)

// Yield receives one streamed text chunk. Returning an error aborts the
// stream.
type Yield func(chunk string) error

// Worker is one inference backend instance. All methods are safe for use by
// one holder at a time; the pool guarantees exclusive checkout.
type Worker interface {
	// Type reports the backend family, which selects the extraction and
	// adaptation strategy bound to this worker.
	Type() models.WorkerType
	// Model reports the concrete model identifier.
	Model() string
	// GenerateText runs one completion over the transcript.
	GenerateText(ctx context.Context, messages []models.Message, maxTokens int) (string, error)
	// GenerateTextStream runs one completion, delivering chunks through
	// yield as they arrive.
	GenerateTextStream(ctx context.Context, messages []models.Message, maxTokens int, yield Yield) error
	// GenerateFunctionCall runs one completion expected to contain tool
	// calls. The transcript already carries the tool catalog.
	GenerateFunctionCall(ctx context.Context, messages []models.Message, maxTokens int) (string, error)
}

// Handle is the pool's identity for one worker instance.
type Handle struct {
	// ID is unique per instance, not per model.
	ID string
	// DeviceTag records the placement hint from configuration.
	DeviceTag string
	// Worker is the backend itself.
	Worker Worker
}

// NewHandle wraps a worker with a fresh instance identity.
func NewHandle(w Worker, deviceTag string) *Handle {
	return &Handle{
		ID:        uuid.NewString(),
		DeviceTag: deviceTag,
		Worker:    w,
	}
}

// New constructs a worker from its configuration. Unknown types are an
// error; the pool decides whether to skip or abort.
func New(cfg models.WorkerConfig) (Worker, error) {
	switch cfg.Type {
	case models.WorkerTypeClaude:
		return NewClaudeWorker(cfg)
	case models.WorkerTypeQwen, models.WorkerTypeLlama:
		return NewLocalWorker(cfg)
	default:
		return nil, fmt.Errorf("unknown worker type %q", cfg.Type)
	}
}
