package toolcall

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/pandulabs/pandu/pkg/models"
)

// closeMatchCutoff is the minimum similarity for replacing a string value
// with a member of a doc-enumerated closed set.
const closeMatchCutoff = 0.6

// Transformer coerces raw tool-call arguments into the shape a registered
// function declares, recording every change as a SchemaTransformation.
type Transformer struct {
	transformations []models.SchemaTransformation
}

// NewTransformer creates a Transformer.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// TransformArguments walks the entry's declared schema and produces an
// argument map that satisfies it, together with the audit trail of every
// coercion. Transforming an already-valid argument set yields zero records
// and an unchanged value.
func (t *Transformer) TransformArguments(e *Entry, raw map[string]any) (map[string]any, []models.SchemaTransformation) {
	t.transformations = nil
	if raw == nil {
		raw = map[string]any{}
	}
	out := t.transformData(raw, e.Schema, e.Doc, "")
	return out, t.transformations
}

// transformData recursively transforms one schema level.
func (t *Transformer) transformData(data map[string]any, schema Schema, doc string, path string) map[string]any {
	result := make(map[string]any, len(schema))

	for key, field := range schema {
		fieldPath := key
		if path != "" {
			fieldPath = path + "." + key
		}

		value, valuePath, found := findValue(data, key, "")

		if field.Nested != nil {
			nested, ok := value.(map[string]any)
			switch {
			case !found:
				nested = map[string]any{}
			case !ok:
				nested = map[string]any{"value": value}
			}
			result[key] = t.transformData(nested, field.Nested, doc, fieldPath)
			continue
		}

		if found {
			transformed := transformValue(value, field.Type)
			if field.Type == TypeString {
				if valid := extractValidValues(doc, key); len(valid) > 0 {
					transformed = closestMatch(fmt.Sprint(transformed), valid)
				}
			}
			if valueChanged(value, transformed) {
				from := valuePath
				if from == "" {
					from = fieldPath
				}
				t.record(from, fieldPath, value, transformed)
			}
			result[key] = transformed
		} else {
			def := zeroValue(field.Type)
			result[key] = def
			t.record(fieldPath, fieldPath, nil, def)
		}
	}

	return result
}

// valueChanged reports whether a coercion altered the value. JSON decoding
// delivers every number as float64, so a numerically equal float64→int
// rewrite on an integer field is not a change worth auditing.
func valueChanged(old, new any) bool {
	if f, ok := old.(float64); ok {
		if n, ok := new.(int); ok {
			return float64(n) != f
		}
	}
	return !reflect.DeepEqual(new, old)
}

func (t *Transformer) record(from, to string, old, new any) {
	t.transformations = append(t.transformations, models.SchemaTransformation{
		FromPath: from,
		ToPath:   to,
		OldValue: old,
		NewValue: new,
	})
}

// findValue locates the first key of the given name anywhere in the nested
// input, depth-first, first match wins. This is deliberately
// nesting-agnostic: a same-named key at any depth satisfies the schema
// field, matching how workers scatter arguments through wrapper objects.
func findValue(data map[string]any, key string, path string) (any, string, bool) {
	for k, v := range data {
		current := k
		if path != "" {
			current = path + "." + k
		}
		if k == key {
			return v, current, true
		}
	}
	for k, v := range data {
		nested, ok := v.(map[string]any)
		if !ok {
			continue
		}
		current := k
		if path != "" {
			current = path + "." + k
		}
		if found, foundPath, ok := findValue(nested, key, current); ok {
			return found, foundPath, true
		}
	}
	return nil, "", false
}

// transformValue coerces a value to the declared primitive type. On a
// value that cannot be coerced, the original is returned unchanged.
func transformValue(value any, ft FieldType) any {
	switch ft {
	case TypeString:
		if s, ok := value.(string); ok {
			return s
		}
		return fmt.Sprint(value)
	case TypeInteger:
		if f, ok := toFloat(value); ok {
			return int(f)
		}
		return value
	case TypeFloat:
		if f, ok := toFloat(value); ok {
			return f
		}
		return value
	case TypeBoolean:
		switch v := value.(type) {
		case bool:
			return v
		case string:
			lower := strings.ToLower(v)
			return lower == "true" || lower == "1" || lower == "yes"
		case float64:
			return v != 0
		case int:
			return v != 0
		default:
			return value != nil
		}
	case TypeList:
		switch v := value.(type) {
		case []any:
			return v
		case string:
			var parsed []any
			if err := json.Unmarshal([]byte(v), &parsed); err == nil {
				return parsed
			}
			// Workers trained on Python emit list literals with single
			// quotes; requote and retry before giving up.
			requoted := strings.ReplaceAll(v, "'", `"`)
			if err := json.Unmarshal([]byte(requoted), &parsed); err == nil {
				return parsed
			}
			return []any{v}
		default:
			return []any{v}
		}
	case TypeDict:
		switch v := value.(type) {
		case map[string]any:
			return v
		case string:
			var parsed map[string]any
			if err := json.Unmarshal([]byte(v), &parsed); err == nil {
				return parsed
			}
			return map[string]any{"value": v}
		default:
			return map[string]any{"value": v}
		}
	}
	return value
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// zeroValue returns the declared type's zero value, used for fields absent
// from the raw input.
func zeroValue(ft FieldType) any {
	switch ft {
	case TypeString:
		return ""
	case TypeInteger:
		return 0
	case TypeFloat:
		return 0.0
	case TypeBoolean:
		return false
	case TypeList:
		return []any{}
	case TypeDict:
		return map[string]any{}
	default:
		return nil
	}
}

// extractValidValues reads a closed value set for a field out of the
// entry's doc contract, e.g. "region: (Asia, Europe, Americas)".
func extractValidValues(doc, fieldName string) []string {
	fieldStart := strings.Index(doc, fieldName+":")
	if fieldStart == -1 {
		return nil
	}
	line := doc[fieldStart:]
	if nl := strings.IndexByte(line, '\n'); nl != -1 {
		line = line[:nl]
	}

	open := strings.Index(line, "(")
	if open == -1 {
		return nil
	}
	closing := strings.Index(line[open:], ")")
	if closing == -1 {
		closing = len(line) - open
	}

	raw := line[open+1 : open+closing]
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// closestMatch returns the member of valid most similar to value if the
// similarity clears the cutoff, else value unchanged.
func closestMatch(value string, valid []string) string {
	best := value
	bestRatio := 0.0
	for _, candidate := range valid {
		if r := similarity(value, candidate); r > bestRatio {
			bestRatio = r
			best = candidate
		}
	}
	if bestRatio >= closeMatchCutoff {
		return best
	}
	return value
}

// similarity is an edit-distance ratio in [0,1]: 1 minus the Levenshtein
// distance over the longer length, case-insensitive.
func similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	longer := la
	if lb > longer {
		longer = lb
	}
	return 1 - float64(prev[lb])/float64(longer)
}
