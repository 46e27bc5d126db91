package agentic

import (
	"fmt"
	"strings"
)

// Sentinel texts that mark a result as unusable even though it is non-empty.
var emptySentinels = []string{
	"error",
	"none",
	"no relevant documents found",
	"no function available",
	"no tool",
	"fallback failed",
}

// validResult judges whether one attempt produced something a dependent can
// build on. Invalid results drive the multi-hop retry and fallback flip.
func validResult(result any) bool {
	switch v := result.(type) {
	case nil:
		return false
	case string:
		return v != "" && !containsSentinel(v)
	case []any:
		if len(v) == 0 {
			return false
		}
		for _, item := range v {
			if !validResult(item) {
				return false
			}
		}
		return true
	case []map[string]any:
		if len(v) == 0 {
			return false
		}
		for _, item := range v {
			if !validResult(item) {
				return false
			}
		}
		return true
	case map[string]any:
		if len(v) == 0 {
			return false
		}
		for _, value := range v {
			s, ok := value.(string)
			if !ok {
				s = fmt.Sprint(value)
			}
			if containsSentinel(s) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func containsSentinel(s string) bool {
	lower := strings.ToLower(s)
	for _, sentinel := range emptySentinels {
		if sentinel == "none" {
			if lower == "none" {
				return true
			}
			continue
		}
		if strings.Contains(lower, sentinel) {
			return true
		}
	}
	return false
}
