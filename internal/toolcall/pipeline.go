package toolcall

import (
	"context"
	"fmt"
	"log"

	"github.com/pandulabs/pandu/pkg/models"
)

// Pipeline chains extraction, validation/transformation, and execution for
// one worker type. One pipeline is bound per worker handle at pool
// construction and never rebound.
type Pipeline struct {
	extractor   *Extractor
	transformer *Transformer
	registry    *Registry
}

// NewPipeline creates the pipeline for a worker type against a registry.
func NewPipeline(workerType models.WorkerType, reg *Registry) *Pipeline {
	return &Pipeline{
		extractor:   NewExtractor(workerType),
		transformer: NewTransformer(),
		registry:    reg,
	}
}

// Registry exposes the bound registry for catalog rendering.
func (p *Pipeline) Registry() *Registry { return p.registry }

// Extract returns the raw call objects present in worker text.
func (p *Pipeline) Extract(text string) []map[string]any {
	return p.extractor.Extract(text)
}

// HandleToolCalls extracts calls from the worker's initial response,
// validates and transforms each against its declared schema, executes
// them, and appends the conversational record. Failures are contained per
// call: a bad call becomes an assistant-visible message and its siblings
// still run. Returns the calls, any chart payloads, and the appended
// messages.
func (p *Pipeline) HandleToolCalls(ctx context.Context, initialResponse string, messages []models.Message) ([]*models.ToolCall, []models.ChartData, []models.Message, error) {
	rawCalls := p.Extract(initialResponse)

	var (
		calls  []*models.ToolCall
		charts []models.ChartData
	)

	for idx, raw := range rawCalls {
		call, err := Validate(raw, p.registry)
		if err != nil {
			log.Printf("[toolcall] call %d rejected: %v", idx, err)
			messages = append(messages, models.Message{Role: "assistant", Content: err.Error()})
			continue
		}

		entry, _ := p.registry.Lookup(call.Name)
		transformed, transformations := p.transformer.TransformArguments(entry, call.Arguments)
		if len(transformations) > 0 {
			log.Printf("[toolcall] %s: applied %d schema transformations", call.Name, len(transformations))
		}
		call.Arguments = transformed
		calls = append(calls, call)

		// Record the issued call before its output, so the final
		// generation sees the same order the worker produced.
		messages = append(messages, models.Message{
			Role:    "assistant",
			Content: "",
			ToolCalls: []models.ToolCallRecord{
				{Type: "function", Function: map[string]any{"name": call.Name, "parameters": call.Arguments}},
			},
		})

		result, err := Execute(ctx, p.registry, call)
		if err != nil {
			messages = append(messages, models.Message{Role: "assistant", Content: err.Error()})
			log.Printf("[toolcall] call %d (%s) failed: %v", idx, call.Name, err)
			continue
		}

		if EmptyResult(result) {
			emptyMsg := fmt.Sprintf("empty result from %s", call.Name)
			messages = append(messages, models.Message{Role: "assistant", Content: emptyMsg})
			log.Printf("[toolcall] call %d: %s", idx, emptyMsg)
			continue
		}

		if resultMap, ok := result.(map[string]any); ok {
			if _, hasChart := resultMap["config"]; hasChart {
				charts = append(charts, chartFromResult(resultMap))
				messages = append(messages, models.Message{
					Role:    "ipython",
					Name:    call.Name,
					Content: resultMap["rawData"],
				})
				continue
			}
		}

		messages = append(messages, models.Message{Role: "ipython", Name: call.Name, Content: result})
	}

	return calls, charts, messages, nil
}

func chartFromResult(result map[string]any) models.ChartData {
	chart := models.ChartData{
		ChartType:  stringField(result, "chartType"),
		Data:       result["data"],
		ChartTitle: stringField(result, "chartTitle"),
	}
	chart.Config = mapField(result, "config")
	return chart
}
