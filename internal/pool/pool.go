// Package pool owns the fixed set of inference workers and serializes
// access to them. Every request path acquires a handle, runs one operation,
// and releases on a guaranteed path.
package pool

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pandulabs/pandu/internal/toolcall"
	"github.com/pandulabs/pandu/internal/worker"
	"github.com/pandulabs/pandu/pkg/models"
)

// DefaultAcquireTimeout bounds how long a request waits for a free worker
// before it is turned away.
const DefaultAcquireTimeout = 30 * time.Second

// PoolExhaustedError reports that no worker freed up within the acquire
// timeout. Callers should surface it as service-unavailable.
type PoolExhaustedError struct {
	Capacity int
	Timeout  time.Duration
}

func (e *PoolExhaustedError) Error() string {
	return fmt.Sprintf("all %d workers busy after %s", e.Capacity, e.Timeout)
}

// binding is the per-handle processing strategy, chosen once by worker type
// when the handle enters the pool.
type binding struct {
	pipeline *toolcall.Pipeline
	adapter  toolcall.ResponseAdapter
}

// Pool is the worker resource pool. Free handles sit in a buffered channel;
// a handle is either free or checked out by exactly one holder.
type Pool struct {
	free           chan *worker.Handle
	capacity       int
	acquireTimeout time.Duration
	bindings       map[string]*binding
	registry       *toolcall.Registry
	metrics        *Metrics
}

// New builds a pool from worker configurations. Entries that fail to
// construct are logged and skipped; the pool holds whatever remains.
func New(cfgs []models.WorkerConfig, reg *toolcall.Registry, acquireTimeout time.Duration, metrics *Metrics) *Pool {
	var handles []*worker.Handle
	for _, cfg := range cfgs {
		w, err := worker.New(cfg)
		if err != nil {
			log.Printf("[pool] skipping worker %s/%s: %v", cfg.Type, cfg.Model, err)
			continue
		}
		handles = append(handles, worker.NewHandle(w, cfg.Device))
	}
	return fromHandles(handles, reg, acquireTimeout, metrics)
}

// NewFromWorkers builds a pool from already-constructed workers. Used by
// tests and dry runs with scripted backends.
func NewFromWorkers(workers []worker.Worker, reg *toolcall.Registry, acquireTimeout time.Duration, metrics *Metrics) *Pool {
	handles := make([]*worker.Handle, 0, len(workers))
	for _, w := range workers {
		handles = append(handles, worker.NewHandle(w, ""))
	}
	return fromHandles(handles, reg, acquireTimeout, metrics)
}

func fromHandles(handles []*worker.Handle, reg *toolcall.Registry, acquireTimeout time.Duration, metrics *Metrics) *Pool {
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	p := &Pool{
		free:           make(chan *worker.Handle, len(handles)),
		capacity:       len(handles),
		acquireTimeout: acquireTimeout,
		bindings:       make(map[string]*binding, len(handles)),
		registry:       reg,
		metrics:        metrics,
	}
	for _, h := range handles {
		p.bindings[h.ID] = &binding{
			pipeline: toolcall.NewPipeline(h.Worker.Type(), reg),
			adapter:  toolcall.NewAdapter(h.Worker.Type()),
		}
		p.free <- h
	}
	log.Printf("[pool] ready with %d workers", p.capacity)
	return p
}

// Capacity reports the number of workers the pool holds.
func (p *Pool) Capacity() int { return p.capacity }

// Free reports how many workers are currently available.
func (p *Pool) Free() int { return len(p.free) }

// Registry returns the shared function registry.
func (p *Pool) Registry() *toolcall.Registry { return p.registry }

// Acquire checks out a free handle, blocking until one frees, the context
// is canceled, or the acquire timeout passes.
func (p *Pool) Acquire(ctx context.Context) (*worker.Handle, error) {
	start := time.Now()
	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case h := <-p.free:
		p.metrics.Acquisitions.Inc()
		p.metrics.InUse.Inc()
		p.metrics.AcquireWait.Observe(time.Since(start).Seconds())
		return h, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		p.metrics.Timeouts.Inc()
		return nil, &PoolExhaustedError{Capacity: p.capacity, Timeout: p.acquireTimeout}
	}
}

// Release returns a handle to the free set. Each handle must be released
// exactly once per acquisition.
func (p *Pool) Release(h *worker.Handle) {
	if h == nil {
		return
	}
	p.metrics.InUse.Dec()
	p.free <- h
}

// OfType checks out a free handle of the given worker type without
// blocking. Returns false when none of that type is currently free.
func (p *Pool) OfType(t models.WorkerType) (*worker.Handle, bool) {
	var skipped []*worker.Handle
	defer func() {
		for _, h := range skipped {
			p.free <- h
		}
	}()

	for i := 0; i < p.capacity; i++ {
		select {
		case h := <-p.free:
			if h.Worker.Type() == t {
				p.metrics.Acquisitions.Inc()
				p.metrics.InUse.Inc()
				return h, true
			}
			skipped = append(skipped, h)
		default:
			return nil, false
		}
	}
	return nil, false
}

// withWorker runs fn with an acquired handle, releasing it on every path.
func (p *Pool) withWorker(ctx context.Context, fn func(h *worker.Handle, b *binding) error) error {
	h, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(h)
	return fn(h, p.bindings[h.ID])
}

// Generate runs one plain completion on any free worker.
func (p *Pool) Generate(ctx context.Context, messages []models.Message, maxTokens int) (string, error) {
	var out string
	err := p.withWorker(ctx, func(h *worker.Handle, b *binding) error {
		adapted := b.adapter.AdaptMessages(messages)
		text, err := h.Worker.GenerateText(ctx, adapted, maxTokens)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	return out, err
}

// GenerateTextStream runs one streaming completion. The handle stays
// checked out for the lifetime of the yield callback.
func (p *Pool) GenerateTextStream(ctx context.Context, messages []models.Message, maxTokens int, yield worker.Yield) error {
	return p.withWorker(ctx, func(h *worker.Handle, b *binding) error {
		adapted := b.adapter.AdaptMessages(messages)
		return h.Worker.GenerateTextStream(ctx, adapted, maxTokens, yield)
	})
}

// GenerateFunctionCall runs one completion primed with the tool catalog and
// returns its raw text, which may embed tool calls.
func (p *Pool) GenerateFunctionCall(ctx context.Context, query string, maxTokens int) (string, error) {
	var out string
	err := p.withWorker(ctx, func(h *worker.Handle, b *binding) error {
		messages := functionCallMessages(p.registry, query)
		adapted := b.adapter.AdaptMessages(messages)
		text, err := h.Worker.GenerateFunctionCall(ctx, adapted, maxTokens)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	return out, err
}

// HandleToolCalls extracts and executes the calls in a raw worker response
// using the pipeline of an acquired worker.
func (p *Pool) HandleToolCalls(ctx context.Context, initialResponse string, messages []models.Message) ([]*models.ToolCall, []models.ChartData, []models.Message, error) {
	var (
		calls  []*models.ToolCall
		charts []models.ChartData
		outMsg []models.Message
	)
	err := p.withWorker(ctx, func(h *worker.Handle, b *binding) error {
		var err error
		calls, charts, outMsg, err = b.pipeline.HandleToolCalls(ctx, initialResponse, messages)
		return err
	})
	return calls, charts, outMsg, err
}

// HandleMessages adapts a transcript for a worker's backend and runs the
// final completion over it.
func (p *Pool) HandleMessages(ctx context.Context, messages []models.Message, maxTokens int) (string, error) {
	return p.Generate(ctx, messages, maxTokens)
}

// QueryResult is the outcome of a full tool-augmented query.
type QueryResult struct {
	// ToolCalls are the executed calls in issue order.
	ToolCalls []*models.ToolCall
	// ChartData carries any chart payloads tools produced.
	ChartData []models.ChartData
	// Output is the final natural-language answer.
	Output string
}

// ProcessUserQuery runs the full sequence on one worker: function-call
// generation, tool execution, transcript adaptation, final generation. The
// first failing step propagates and no later step runs.
func (p *Pool) ProcessUserQuery(ctx context.Context, query string, maxTokens int) (*QueryResult, error) {
	result := &QueryResult{}
	err := p.withWorker(ctx, func(h *worker.Handle, b *binding) error {
		messages := functionCallMessages(p.registry, query)

		initial, err := h.Worker.GenerateFunctionCall(ctx, b.adapter.AdaptMessages(messages), maxTokens)
		if err != nil {
			return fmt.Errorf("function call generation: %w", err)
		}

		calls, charts, messages, err := b.pipeline.HandleToolCalls(ctx, initial, messages)
		if err != nil {
			return fmt.Errorf("tool call handling: %w", err)
		}
		result.ToolCalls = calls
		result.ChartData = charts

		output, err := h.Worker.GenerateText(ctx, b.adapter.AdaptMessages(messages), maxTokens)
		if err != nil {
			return fmt.Errorf("final generation: %w", err)
		}
		result.Output = output
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
