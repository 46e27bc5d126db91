package toolcall

import (
	"context"
	"fmt"

	"github.com/pandulabs/pandu/pkg/models"
)

// Validate checks that one extracted object is a usable call: a mapping
// with a string name registered in the registry. The function name may
// arrive under "name" or "function"; arguments under "parameters" or
// "arguments". Rejections are descriptive and non-fatal.
func Validate(raw map[string]any, reg *Registry) (*models.ToolCall, error) {
	if raw == nil {
		return nil, &ValidationError{Reason: "call is not a mapping"}
	}

	name := stringField(raw, "name")
	if name == "" {
		name = stringField(raw, "function")
	}
	if name == "" {
		return nil, &ValidationError{Reason: "call has no string name field"}
	}

	if _, ok := reg.Lookup(name); !ok {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("function %q is not registered", name),
			Err:    ErrUnknownTool,
		}
	}

	args := mapField(raw, "parameters")
	if args == nil {
		args = mapField(raw, "arguments")
	}
	if args == nil {
		args = map[string]any{}
	}

	return &models.ToolCall{
		Name:      name,
		Arguments: args,
		Status:    models.ToolCallPending,
	}, nil
}

// Execute runs one validated call. Arguments are filtered down to the
// entry's declared parameter names; unknown extras are silently dropped
// because the registry, not the caller, is the source of truth. The call's
// status and result are updated in place.
func Execute(ctx context.Context, reg *Registry, call *models.ToolCall) (any, error) {
	entry, ok := reg.Lookup(call.Name)
	if !ok {
		call.Status = models.ToolCallFailed
		return nil, &ValidationError{
			Reason: fmt.Sprintf("function %q is not registered", call.Name),
			Err:    ErrUnknownTool,
		}
	}

	filtered := make(map[string]any, len(entry.Schema))
	for _, param := range entry.ParamNames() {
		if v, ok := call.Arguments[param]; ok {
			filtered[param] = v
		}
	}

	call.Status = models.ToolCallInProgress
	result, err := entry.Fn(ctx, filtered)
	if err != nil {
		call.Status = models.ToolCallFailed
		return nil, &ExecutionError{Name: call.Name, Err: err}
	}

	call.Status = models.ToolCallCompleted
	call.Result = result
	return result, nil
}

// EmptyResult returns true when a completed call produced nothing useful.
// An empty result is not an error by itself; the orchestrator is told
// "empty result from <name>".
func EmptyResult(result any) bool {
	switch v := result.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func mapField(m map[string]any, key string) map[string]any {
	if v, ok := m[key]; ok {
		if mm, ok := v.(map[string]any); ok {
			return mm
		}
	}
	return nil
}
