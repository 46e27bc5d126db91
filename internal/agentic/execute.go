package agentic

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/pandulabs/pandu/pkg/models"
)

// nodeState is the per-node attempt state. Control flow through the
// multi-hop loop is driven by these values, never by panics or sentinel
// errors.
type nodeState int

const (
	statePending nodeState = iota
	stateExecuting
	stateInvalid
	stateFallbackExecuting
	stateTerminal
)

// executeNode produces this node's result. Nodes with dependencies reason
// over their dependencies' recorded results; leaf nodes dispatch by
// category through the multi-hop loop. executeNode always returns a
// result, terminal sentinels included.
func (o *Orchestrator) executeNode(ctx context.Context, node *models.SubqueryNode, combined models.CombinedResponse, req Request) models.SubqueryResult {
	if len(node.DependsOn) > 0 {
		return o.reason(ctx, node, combined)
	}

	result, category := o.runHops(ctx, node, req)
	resultType := models.ResultTypeRAG
	if category == models.CategoryFunctionCalling {
		resultType = models.ResultTypeAction
	}
	return models.SubqueryResult{Source: result, Type: resultType}
}

// runHops drives the attempt state machine: up to maxHops attempts in the
// node's category, then exactly one fallback attempt in the flipped
// category, then the terminal sentinel.
func (o *Orchestrator) runHops(ctx context.Context, node *models.SubqueryNode, req Request) (any, models.Category) {
	state := statePending
	category := node.Category
	hops := 0
	var result any

	for state != stateTerminal {
		switch state {
		case statePending:
			state = stateExecuting
		case stateExecuting:
			result = o.attempt(ctx, node, category, req)
			hops++
			if validResult(result) {
				state = stateTerminal
			} else {
				state = stateInvalid
			}
		case stateInvalid:
			if hops < o.maxHops {
				log.Printf("[agentic] %s: invalid result, hop %d/%d", node.ID, hops, o.maxHops)
				state = stateExecuting
			} else {
				state = stateFallbackExecuting
			}
		case stateFallbackExecuting:
			category = category.Flip()
			log.Printf("[agentic] %s: hops exhausted, falling back to %s", node.ID, category)
			result = o.attempt(ctx, node, category, req)
			if !validResult(result) {
				result = fallbackSentinel(category)
			}
			state = stateTerminal
		}
	}
	return result, category
}

// attempt runs one execution of the node in the given category and returns
// the raw result. Errors are folded into the result so the validity judge
// sees them.
func (o *Orchestrator) attempt(ctx context.Context, node *models.SubqueryNode, category models.Category, req Request) any {
	switch category {
	case models.CategoryInformationSeeking:
		results, err := o.retriever.AdvancedQuery(ctx, node.Question, node.Keywords, o.topK, req.Collections)
		if err != nil {
			return map[string]any{"name": "error", "text": err.Error()}
		}
		out := make([]map[string]any, 0, len(results))
		for _, r := range results {
			out = append(out, map[string]any{"url": r.URL, "text": r.Text})
		}
		return out
	case models.CategoryFunctionCalling:
		if o.pool.Registry().Len() == 0 {
			return map[string]any{"FunctionName": "No function available", "Output": ""}
		}
		result, err := o.pool.ProcessUserQuery(ctx, node.Question, 0)
		if err != nil {
			return map[string]any{"FunctionName": "error", "Output": err.Error()}
		}
		name := ""
		if len(result.ToolCalls) > 0 {
			name = result.ToolCalls[0].Name
		}
		return map[string]any{"FunctionName": name, "Output": result.Output}
	default:
		return nil
	}
}

// fallbackSentinel is the terminal result when the fallback attempt also
// fails. Its shape follows the category of that final attempt.
func fallbackSentinel(category models.Category) any {
	if category == models.CategoryInformationSeeking {
		return map[string]any{"name": "Fallback failed", "text": "No relevant information could be retrieved."}
	}
	return map[string]any{"FunctionName": "Fallback failed", "Output": "No tool produced a usable result."}
}

// reason answers a dependent node from its dependencies' recorded results.
func (o *Orchestrator) reason(ctx context.Context, node *models.SubqueryNode, combined models.CombinedResponse) models.SubqueryResult {
	depContext := flattenDependencies(node.DependsOn, combined)
	output, err := o.pool.Generate(ctx, []models.Message{
		{Role: "user", Content: reasoningPrompt(node, depContext)},
	}, 1024)
	if err != nil {
		output = fmt.Sprintf("reasoning failed: %v", err)
	}
	return models.SubqueryResult{
		Source: map[string]any{"text": output},
		Type:   models.ResultTypeReasoning,
	}
}

// flattenDependencies renders dependency results as plain text context:
// retrieval hits contribute their passages, actions their outputs,
// reasoning its text.
func flattenDependencies(deps []string, combined models.CombinedResponse) string {
	var b strings.Builder
	for _, dep := range deps {
		result, ok := combined[dep]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "[%s]\n", dep)
		switch source := result.Source.(type) {
		case []map[string]any:
			for _, hit := range source {
				if text, ok := hit["text"].(string); ok && text != "" {
					b.WriteString(text)
					b.WriteString("\n")
				}
			}
		case map[string]any:
			if out, ok := source["Output"]; ok {
				fmt.Fprintf(&b, "%v\n", out)
			} else if text, ok := source["text"]; ok {
				fmt.Fprintf(&b, "%v\n", text)
			} else {
				fmt.Fprintf(&b, "%v\n", source)
			}
		default:
			fmt.Fprintf(&b, "%v\n", source)
		}
		b.WriteString("\n")
	}
	return b.String()
}
