package models

import (
	"encoding/json"
	"testing"
)

func TestCategoryValid(t *testing.T) {
	if !CategoryInformationSeeking.Valid() {
		t.Error("expected Information Seeking to be valid")
	}
	if !CategoryFunctionCalling.Valid() {
		t.Error("expected Function Calling to be valid")
	}
	if Category("Reasoning").Valid() {
		t.Error("expected Reasoning to be invalid as a node category")
	}
}

func TestCategoryFlip(t *testing.T) {
	if CategoryInformationSeeking.Flip() != CategoryFunctionCalling {
		t.Error("expected Information Seeking to flip to Function Calling")
	}
	if CategoryFunctionCalling.Flip() != CategoryInformationSeeking {
		t.Error("expected Function Calling to flip to Information Seeking")
	}
}

func TestSubqueryNodeUnmarshal(t *testing.T) {
	raw := `{
		"Question": "What was the FDI trend after 2020?",
		"Keywords": ["FDI", "trend", "2020"],
		"Category": "Information Seeking",
		"DependsOn": [],
		"ExpectedAnswerFormat": "a short paragraph"
	}`

	var node SubqueryNode
	if err := json.Unmarshal([]byte(raw), &node); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if node.Question != "What was the FDI trend after 2020?" {
		t.Errorf("unexpected question: %q", node.Question)
	}
	if len(node.Keywords) != 3 {
		t.Errorf("expected 3 keywords, got %d", len(node.Keywords))
	}
	if node.Category != CategoryInformationSeeking {
		t.Errorf("unexpected category: %q", node.Category)
	}
	if len(node.DependsOn) != 0 {
		t.Errorf("expected no dependencies, got %v", node.DependsOn)
	}
	if node.ExpectedFormat != "a short paragraph" {
		t.Errorf("unexpected expected format: %q", node.ExpectedFormat)
	}
}

func TestToolCallStatusTerminal(t *testing.T) {
	cases := []struct {
		status   ToolCallStatus
		terminal bool
	}{
		{ToolCallPending, false},
		{ToolCallInProgress, false},
		{ToolCallCompleted, true},
		{ToolCallFailed, true},
	}

	for _, tc := range cases {
		if tc.status.Terminal() != tc.terminal {
			t.Errorf("status %s: expected terminal=%v", tc.status, tc.terminal)
		}
	}
}
