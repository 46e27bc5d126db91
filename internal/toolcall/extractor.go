package toolcall

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pandulabs/pandu/pkg/models"
)

// Extractor pulls possibly-malformed JSON tool calls out of raw worker
// text. Delimiter patterns are worker-type specific; text with no
// delimiters at all is parsed as-is. Objects that still fail to parse
// after repair are dropped, never fatal.
type Extractor struct {
	// complete matches a full delimiter pair and captures its payload.
	complete *regexp.Regexp
	// partial matches text up to a terminator delimiter.
	partial *regexp.Regexp
}

var (
	llamaComplete = regexp.MustCompile(`(?s)<\|python_tag\|>(.*?)<\|eom_id\|>`)
	llamaPartial  = regexp.MustCompile(`(?s)(.*?)<\|(?:eom_id|eot_id)\|>`)
	qwenComplete  = regexp.MustCompile(`(?s)<tool_call>(\{.*?\})</tool_call>`)
	qwenPartial   = regexp.MustCompile(`(?s)<tool_call>(.*?)</tool_call>`)
)

// NewExtractor returns the extractor for a worker type. Types without
// delimiter conventions (claude) parse undelimited text only.
func NewExtractor(workerType models.WorkerType) *Extractor {
	switch workerType {
	case models.WorkerTypeLlama:
		return &Extractor{complete: llamaComplete, partial: llamaPartial}
	case models.WorkerTypeQwen:
		return &Extractor{complete: qwenComplete, partial: qwenPartial}
	default:
		return &Extractor{}
	}
}

// Extract returns the raw objects found in the input, in priority order:
// payloads of complete delimiter pairs, then text before a terminator
// delimiter, then the whole input.
func (x *Extractor) Extract(text string) []map[string]any {
	if x.complete != nil {
		if matches := x.complete.FindAllStringSubmatch(text, -1); len(matches) > 0 {
			var out []map[string]any
			for _, m := range matches {
				out = append(out, parseObjects(m[1])...)
			}
			return out
		}
	}
	if x.partial != nil {
		if matches := x.partial.FindAllStringSubmatch(text, -1); len(matches) > 0 {
			var out []map[string]any
			for _, m := range matches {
				out = append(out, parseObjects(m[1])...)
			}
			return out
		}
	}
	return parseObjects(text)
}

// parseObjects finds every {...} span in the text (adjacent spans and
// semicolon-separated spans alike), repairs each, and keeps the ones that
// parse into JSON objects.
func parseObjects(text string) []map[string]any {
	var out []map[string]any
	for _, span := range objectSpans(text) {
		obj, err := parseObject(span)
		if err != nil {
			continue
		}
		out = append(out, obj)
	}
	return out
}

// parseObject repairs one candidate span and parses it.
func parseObject(span string) (map[string]any, error) {
	repaired := repairJSON(span)
	var obj map[string]any
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
		return nil, ErrMalformedCall
	}
	return obj, nil
}

// objectSpans scans for top-level brace-delimited spans. A span left open
// at end of input has its closing-brace deficit appended.
func objectSpans(s string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				if depth == 0 {
					start = i
				}
				depth++
			}
		case '}':
			if !inString && depth > 0 {
				depth--
				if depth == 0 {
					spans = append(spans, s[start:i+1])
					start = -1
				}
			}
		}
	}

	if depth > 0 && start >= 0 {
		spans = append(spans, s[start:]+strings.Repeat("}", depth))
	}
	return spans
}

var (
	unquotedKeyRe   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// repairJSON applies the tolerated repairs: quotes around bare property
// names and removal of trailing commas before a closing bracket. Brace
// deficits are already handled by objectSpans.
func repairJSON(s string) string {
	s = strings.TrimSpace(s)
	s = unquotedKeyRe.ReplaceAllString(s, `$1"$2":`)
	s = trailingCommaRe.ReplaceAllString(s, `$1`)
	return s
}
