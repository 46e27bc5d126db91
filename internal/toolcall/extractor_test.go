package toolcall

import (
	"reflect"
	"testing"

	"github.com/pandulabs/pandu/pkg/models"
)

func TestExtractLlamaTagged(t *testing.T) {
	ex := NewExtractor(models.WorkerTypeLlama)
	text := `Sure, calling the tool now.
<|python_tag|>{"name": "get_current_date", "parameters": {}}<|eom_id|>`

	calls := ex.Extract(text)
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if calls[0]["name"] != "get_current_date" {
		t.Errorf("name = %v, want get_current_date", calls[0]["name"])
	}
}

func TestExtractLlamaPartialTag(t *testing.T) {
	// The model omitted the opening tag but terminated the call.
	ex := NewExtractor(models.WorkerTypeLlama)
	text := `{"name": "search_documents", "parameters": {"query": "fdi trends"}}<|eot_id|>`

	calls := ex.Extract(text)
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if calls[0]["name"] != "search_documents" {
		t.Errorf("name = %v, want search_documents", calls[0]["name"])
	}
}

func TestExtractQwenTagged(t *testing.T) {
	ex := NewExtractor(models.WorkerTypeQwen)
	text := `<tool_call>{"name": "get_current_date", "arguments": {}}</tool_call>`

	calls := ex.Extract(text)
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if calls[0]["name"] != "get_current_date" {
		t.Errorf("name = %v, want get_current_date", calls[0]["name"])
	}
}

func TestExtractSemicolonSeparated(t *testing.T) {
	ex := NewExtractor(models.WorkerTypeLlama)
	text := `<|python_tag|>{"name": "a", "parameters": {}}; {"name": "b", "parameters": {}}<|eom_id|>`

	calls := ex.Extract(text)
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0]["name"] != "a" || calls[1]["name"] != "b" {
		t.Errorf("names = %v, %v; want a, b", calls[0]["name"], calls[1]["name"])
	}
}

func TestExtractAdjacentObjects(t *testing.T) {
	ex := NewExtractor(models.WorkerTypeQwen)
	text := `<tool_call>{"name": "a", "arguments": {"x": 1}}</tool_call><tool_call>{"name": "b", "arguments": {}}</tool_call>`

	calls := ex.Extract(text)
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
}

func TestExtractRepairsTruncatedBraces(t *testing.T) {
	ex := NewExtractor(models.WorkerTypeLlama)
	text := `<|python_tag|>{"name": "economic_fdi_trend", "parameters": {"start_year": 2020<|eom_id|>`

	calls := ex.Extract(text)
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	params, ok := calls[0]["parameters"].(map[string]any)
	if !ok {
		t.Fatalf("parameters = %T, want map", calls[0]["parameters"])
	}
	if params["start_year"] != float64(2020) {
		t.Errorf("start_year = %v, want 2020", params["start_year"])
	}
}

func TestExtractRepairsBareKeysAndTrailingCommas(t *testing.T) {
	ex := NewExtractor(models.WorkerTypeQwen)
	text := `<tool_call>{name: "a", arguments: {query: "x",},}</tool_call>`

	calls := ex.Extract(text)
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if calls[0]["name"] != "a" {
		t.Errorf("name = %v, want a", calls[0]["name"])
	}
}

func TestExtractWholeTextFallback(t *testing.T) {
	// No transcript tags at all: the worker emitted bare JSON.
	ex := NewExtractor(models.WorkerTypeClaude)
	text := `{"name": "get_current_date", "parameters": {}}`

	calls := ex.Extract(text)
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
}

func TestExtractNoCalls(t *testing.T) {
	ex := NewExtractor(models.WorkerTypeLlama)
	if calls := ex.Extract("just prose with no calls"); len(calls) != 0 {
		t.Errorf("got %d calls, want 0", len(calls))
	}
}

func TestExtractIdempotent(t *testing.T) {
	// Re-extracting from the serialized form of an extracted call yields the
	// same call.
	ex := NewExtractor(models.WorkerTypeLlama)
	text := `<|python_tag|>{"name": "search_documents", "parameters": {"query": "trade", "top_k": 3}}<|eom_id|>`

	first := ex.Extract(text)
	if len(first) != 1 {
		t.Fatalf("got %d calls, want 1", len(first))
	}
	second := ex.Extract(`{"name": "search_documents", "parameters": {"query": "trade", "top_k": 3}}`)
	if len(second) != 1 {
		t.Fatalf("re-extract got %d calls, want 1", len(second))
	}
	if !reflect.DeepEqual(first[0], second[0]) {
		t.Errorf("re-extracted call differs: %v vs %v", first[0], second[0])
	}
}
