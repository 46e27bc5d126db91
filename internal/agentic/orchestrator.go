// Package agentic decomposes user requests into sub-query graphs and
// orchestrates their execution across the worker pool, the retriever, and
// the tool registry.
package agentic

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/pandulabs/pandu/internal/graph"
	"github.com/pandulabs/pandu/internal/pool"
	"github.com/pandulabs/pandu/internal/retrieval"
	"github.com/pandulabs/pandu/pkg/models"
)

// DefaultMaxHops bounds per-node retries before the category fallback.
const DefaultMaxHops = 3

// Config tunes the orchestrator.
type Config struct {
	// MaxHops is the attempt budget per node before the fallback flip.
	MaxHops int
	// Parallelism above 1 runs each ready level concurrently.
	Parallelism int
	// TopK is the retrieval depth per information-seeking node.
	TopK int
}

// Request is one user turn entering the orchestrator.
type Request struct {
	// Query is the user's request text.
	Query string
	// History is the prior conversation, summarized before decomposition.
	History []models.Message
	// Collections optionally scopes retrieval to collection prefixes.
	Collections []string
}

// Orchestrator coordinates decomposition, scheduling, and per-node
// execution.
type Orchestrator struct {
	pool        *pool.Pool
	retriever   retrieval.Retriever
	maxHops     int
	parallelism int
	topK        int
}

// New creates an orchestrator over a pool and a retriever.
func New(p *pool.Pool, r retrieval.Retriever, cfg Config) *Orchestrator {
	maxHops := cfg.MaxHops
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}
	return &Orchestrator{
		pool:        p,
		retriever:   r,
		maxHops:     maxHops,
		parallelism: parallelism,
		topK:        topK,
	}
}

// Understand summarizes the conversation and decomposes the request into
// sub-query nodes. A decomposition that cannot be parsed is a hard error.
func (o *Orchestrator) Understand(ctx context.Context, req Request) ([]*models.SubqueryNode, error) {
	summary := ""
	if len(req.History) > 0 {
		var err error
		summary, err = o.pool.Generate(ctx, []models.Message{
			{Role: "user", Content: summarizePrompt(req.History)},
		}, 512)
		if err != nil {
			return nil, fmt.Errorf("history summarization: %w", err)
		}
	}

	response, err := o.pool.Generate(ctx, []models.Message{
		{Role: "user", Content: decompositionPrompt(req.Query, summary, o.pool.Registry())},
	}, 2048)
	if err != nil {
		return nil, fmt.Errorf("decomposition: %w", err)
	}

	nodes, err := parseDecomposition(response)
	if err != nil {
		return nil, err
	}
	log.Printf("[agentic] decomposed request into %d sub-queries", len(nodes))
	return nodes, nil
}

// Process executes a decomposition. Scheduling errors (cycles, undefined
// dependencies) are fatal before any node runs; per-node failures are
// contained, so a successful Process has one entry per node.
func (o *Orchestrator) Process(ctx context.Context, nodes []*models.SubqueryNode, req Request) (models.CombinedResponse, error) {
	g := graph.New()
	if err := g.Build(nodes); err != nil {
		return nil, err
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	if o.parallelism > 1 {
		return o.processParallel(ctx, g, req)
	}

	combined := make(models.CombinedResponse, g.Size())
	for _, id := range order {
		node := g.Node(id)
		combined[id] = o.executeNode(ctx, node, combined, req)
		g.MarkComplete(id)
	}
	return combined, nil
}

// processParallel runs each ready level concurrently under a weighted
// semaphore. A node starts only after every dependency's result is
// recorded, which the level barrier guarantees.
func (o *Orchestrator) processParallel(ctx context.Context, g *graph.DependencyGraph, req Request) (models.CombinedResponse, error) {
	combined := make(models.CombinedResponse, g.Size())
	sem := semaphore.NewWeighted(int64(o.parallelism))

	for {
		ready := g.Ready()
		if len(ready) == 0 {
			break
		}

		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		level := make(map[string]models.SubqueryResult, len(ready))
		for _, id := range ready {
			node := g.Node(id)
			if err := sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return nil, err
			}
			wg.Add(1)
			go func(id string, node *models.SubqueryNode) {
				defer wg.Done()
				defer sem.Release(1)
				result := o.executeNode(ctx, node, combined, req)
				mu.Lock()
				level[id] = result
				mu.Unlock()
			}(id, node)
		}
		wg.Wait()

		for id, result := range level {
			combined[id] = result
			g.MarkComplete(id)
		}
	}
	return combined, nil
}

// Synthesize writes the final answer from the combined sub-query results.
func (o *Orchestrator) Synthesize(ctx context.Context, req Request, nodes []*models.SubqueryNode, combined models.CombinedResponse) (string, error) {
	order := make([]string, 0, len(nodes))
	for _, node := range nodes {
		order = append(order, node.ID)
	}
	return o.pool.Generate(ctx, []models.Message{
		{Role: "user", Content: synthesisPrompt(req.Query, combined, order)},
	}, 2048)
}

// Answer runs the full turn: understand, process, synthesize.
func (o *Orchestrator) Answer(ctx context.Context, req Request) (string, models.CombinedResponse, error) {
	nodes, err := o.Understand(ctx, req)
	if err != nil {
		return "", nil, err
	}
	combined, err := o.Process(ctx, nodes, req)
	if err != nil {
		return "", nil, err
	}
	output, err := o.Synthesize(ctx, req, nodes, combined)
	if err != nil {
		return "", combined, err
	}
	return output, combined, nil
}
