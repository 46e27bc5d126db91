package toolcall

import (
	"encoding/json"
	"fmt"

	"github.com/pandulabs/pandu/pkg/models"
)

// ResponseAdapter reshapes a message transcript into the request shape an
// inference backend expects. Bound per worker handle alongside the
// extractor.
type ResponseAdapter interface {
	// AdaptMessages rewrites the transcript in place-safe copies and
	// returns the form the backend accepts.
	AdaptMessages(messages []models.Message) []models.Message
}

// NewAdapter selects the adapter matching a worker type.
func NewAdapter(workerType models.WorkerType) ResponseAdapter {
	switch workerType {
	case models.WorkerTypeQwen:
		return qwenAdapter{}
	case models.WorkerTypeLlama:
		return llamaAdapter{}
	default:
		return passthroughAdapter{}
	}
}

type passthroughAdapter struct{}

func (passthroughAdapter) AdaptMessages(messages []models.Message) []models.Message {
	return messages
}

// qwenAdapter renames "parameters" to "arguments" in tool call records and
// serializes structured content, matching the chat template the backend
// applies server-side.
type qwenAdapter struct{}

func (qwenAdapter) AdaptMessages(messages []models.Message) []models.Message {
	out := make([]models.Message, 0, len(messages))
	for _, msg := range messages {
		adapted := msg
		adapted.Content = serializeContent(msg.Content)
		if len(msg.ToolCalls) > 0 {
			adapted.ToolCalls = renameParameters(msg.ToolCalls)
		}
		// Qwen templates expect tool output under the "tool" role.
		if adapted.Role == "ipython" {
			adapted.Role = "tool"
		}
		out = append(out, adapted)
	}
	return out
}

// llamaAdapter keeps the ipython role but still serializes structured
// content and renames call argument keys.
type llamaAdapter struct{}

func (llamaAdapter) AdaptMessages(messages []models.Message) []models.Message {
	out := make([]models.Message, 0, len(messages))
	for _, msg := range messages {
		adapted := msg
		adapted.Content = serializeContent(msg.Content)
		if len(msg.ToolCalls) > 0 {
			adapted.ToolCalls = renameParameters(msg.ToolCalls)
		}
		out = append(out, adapted)
	}
	return out
}

func renameParameters(records []models.ToolCallRecord) []models.ToolCallRecord {
	out := make([]models.ToolCallRecord, 0, len(records))
	for _, rec := range records {
		fn := make(map[string]any, len(rec.Function))
		for k, v := range rec.Function {
			if k == "parameters" {
				fn["arguments"] = v
				continue
			}
			fn[k] = v
		}
		out = append(out, models.ToolCallRecord{Type: rec.Type, Function: fn})
	}
	return out
}

func serializeContent(content any) any {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
