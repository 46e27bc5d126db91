package models

// Category classifies how a sub-query should be answered.
type Category string

const (
	// CategoryInformationSeeking indicates the sub-query is answered by the
	// retrieval collaborator.
	CategoryInformationSeeking Category = "Information Seeking"
	// CategoryFunctionCalling indicates the sub-query is answered by a
	// registered tool.
	CategoryFunctionCalling Category = "Function Calling"
)

// Valid returns true if the category is a known value.
func (c Category) Valid() bool {
	switch c {
	case CategoryInformationSeeking, CategoryFunctionCalling:
		return true
	default:
		return false
	}
}

// Flip returns the opposite category. It is used exactly once per sub-query
// when the multi-hop loop exhausts its attempts.
func (c Category) Flip() Category {
	if c == CategoryInformationSeeking {
		return CategoryFunctionCalling
	}
	return CategoryInformationSeeking
}

// SubqueryNode is one atomic unit of a decomposed user request.
// Nodes are created once per decomposition response and are immutable
// afterwards, except for Category which may flip during fallback.
type SubqueryNode struct {
	// ID is the node's key within one decomposition (e.g. "Subquery-1").
	ID string `json:"-"`
	// Question is the sub-query text.
	Question string `json:"Question"`
	// Keywords are advisory retrieval hints, at most five.
	Keywords []string `json:"Keywords,omitempty"`
	// Category routes the node to retrieval or to a tool.
	Category Category `json:"Category"`
	// DependsOn lists node IDs whose results this node consumes.
	DependsOn []string `json:"DependsOn,omitempty"`
	// ExpectedFormat optionally describes the desired answer shape.
	ExpectedFormat string `json:"ExpectedAnswerFormat,omitempty"`
	// DependencyUsage optionally instructs how to use dependency outputs.
	DependencyUsage string `json:"DependencyUsage,omitempty"`
}

// Result type tags for SubqueryResult.
const (
	// ResultTypeRAG marks a retrieval-backed result.
	ResultTypeRAG = "RAG"
	// ResultTypeAction marks a tool-execution result.
	ResultTypeAction = "Action"
	// ResultTypeReasoning marks a dependency-context reasoning result.
	ResultTypeReasoning = "Reasoning"
)

// SubqueryResult is the outcome of executing one sub-query. Source holds the
// raw payload (retrieval hits, tool output, or reasoning text) and Type tags
// how it was produced so dependents know how to flatten it.
type SubqueryResult struct {
	Source any    `json:"Source"`
	Type   string `json:"Type"`
}

// CombinedResponse maps sub-query IDs to their results. Entries are written
// in scheduled order: a node's entry exists before any dependent executes.
type CombinedResponse map[string]SubqueryResult
