package agentic

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pandulabs/pandu/pkg/models"
)

// DecompositionError reports that a decomposition response could not be
// parsed into sub-query nodes. It is fatal for the request: the
// orchestrator never invents a decomposition.
type DecompositionError struct {
	Raw string
	Err error
}

func (e *DecompositionError) Error() string {
	return fmt.Sprintf("unparseable decomposition: %v", e.Err)
}

func (e *DecompositionError) Unwrap() error { return e.Err }

// parseDecomposition turns a worker's decomposition response into ordered
// sub-query nodes. Node IDs are the JSON keys ("Subquery-N"), ordered by
// their numeric suffix.
func parseDecomposition(text string) ([]*models.SubqueryNode, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, &DecompositionError{Raw: text, Err: fmt.Errorf("no JSON object found")}
	}

	var raw map[string]*models.SubqueryNode
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, &DecompositionError{Raw: text, Err: err}
	}
	if len(raw) == 0 {
		return nil, &DecompositionError{Raw: text, Err: fmt.Errorf("empty decomposition")}
	}

	ids := make([]string, 0, len(raw))
	for id, node := range raw {
		if node == nil || node.Question == "" {
			return nil, &DecompositionError{Raw: text, Err: fmt.Errorf("node %s has no question", id)}
		}
		if !node.Category.Valid() {
			return nil, &DecompositionError{Raw: text, Err: fmt.Errorf("node %s has unknown category %q", id, node.Category)}
		}
		node.ID = id
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, nj := subqueryIndex(ids[i]), subqueryIndex(ids[j])
		if ni != nj {
			return ni < nj
		}
		return ids[i] < ids[j]
	})

	nodes := make([]*models.SubqueryNode, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, raw[id])
	}
	return nodes, nil
}

// subqueryIndex extracts N from "Subquery-N" so ordering is numeric rather
// than lexicographic. Keys without a numeric suffix sort last in key order.
func subqueryIndex(id string) int {
	dash := strings.LastIndex(id, "-")
	if dash == -1 {
		return int(^uint(0) >> 1)
	}
	n, err := strconv.Atoi(id[dash+1:])
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}
