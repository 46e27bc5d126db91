package models

// ToolCallStatus represents the lifecycle state of a tool call.
type ToolCallStatus string

const (
	// ToolCallPending indicates the call has been extracted but not validated.
	ToolCallPending ToolCallStatus = "pending"
	// ToolCallInProgress indicates the call is being executed.
	ToolCallInProgress ToolCallStatus = "in_progress"
	// ToolCallCompleted indicates the call executed successfully.
	ToolCallCompleted ToolCallStatus = "completed"
	// ToolCallFailed indicates extraction, validation, or execution failed.
	ToolCallFailed ToolCallStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s ToolCallStatus) Valid() bool {
	switch s {
	case ToolCallPending, ToolCallInProgress, ToolCallCompleted, ToolCallFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true once the call can no longer change state.
func (s ToolCallStatus) Terminal() bool {
	return s == ToolCallCompleted || s == ToolCallFailed
}

// ToolCall is a structured request to invoke a registered function, as
// authored (unreliably) by an inference worker. It is created by extraction
// and mutated in place as it moves through validation and execution.
type ToolCall struct {
	// Name is the registered function name.
	Name string `json:"name"`
	// Arguments holds the raw, possibly nested argument map.
	Arguments map[string]any `json:"arguments,omitempty"`
	// Status is the lifecycle state of the call.
	Status ToolCallStatus `json:"status"`
	// Result holds the function output once executed.
	Result any `json:"result,omitempty"`
	// SubCalls lists nested calls, in order, if the worker emitted any.
	SubCalls []*ToolCall `json:"sub_calls,omitempty"`
	// ParentID links a sub-call back to its parent, if any.
	ParentID string `json:"parent_id,omitempty"`
}

// SchemaTransformation is an audit record for one coercion or correction
// applied to a raw argument so it satisfies the declared field type.
type SchemaTransformation struct {
	// FromPath is where the raw value was found in the input.
	FromPath string `json:"from_path"`
	// ToPath is the declared location of the field in the schema.
	ToPath string `json:"to_path"`
	// OldValue is the value before coercion; nil when the field was absent.
	OldValue any `json:"old_value"`
	// NewValue is the value after coercion.
	NewValue any `json:"new_value"`
}

// ChartData is the structured visualization payload a tool may return
// alongside its raw output.
type ChartData struct {
	ChartType  string         `json:"chartType"`
	Data       any            `json:"data"`
	Config     map[string]any `json:"config"`
	ChartTitle string         `json:"chartTitle"`
}

// Message is one unit of a model conversation.
type Message struct {
	// Role is "system", "user", "assistant", or "ipython" for tool output.
	Role string `json:"role"`
	// Content is the message text, or structured tool output.
	Content any `json:"content"`
	// Name is the originating function name for tool-output messages.
	Name string `json:"name,omitempty"`
	// ToolCalls records calls the assistant issued in this turn.
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`
}

// ToolCallRecord is the wire form of an issued call inside a message.
type ToolCallRecord struct {
	Type     string         `json:"type"`
	Function map[string]any `json:"function"`
}
