package toolcall

import (
	"context"
	"fmt"
	"time"
)

// DocumentSearcher is the retrieval hook the built-in search tool calls
// into. Kept as a narrow function type so the registry does not pull in
// the storage layer.
type DocumentSearcher func(ctx context.Context, query string, topK int) ([]map[string]any, error)

// RegisterBuiltins installs the standard tool set. The searcher may be nil,
// in which case search_documents reports that no store is attached.
func RegisterBuiltins(reg *Registry, search DocumentSearcher) {
	reg.Register(&Entry{
		Name:        "get_current_date",
		Description: "Returns the current date in YYYY-MM-DD format.",
		Schema:      Schema{},
		Fn: func(ctx context.Context, args map[string]any) (any, error) {
			return time.Now().Format("2006-01-02"), nil
		},
	})

	reg.Register(&Entry{
		Name:        "search_documents",
		Description: "Searches the document store for passages relevant to a query.",
		Schema: Schema{
			"query": Prim(TypeString),
			"top_k": Prim(TypeInteger),
		},
		Doc: "query: free-text search query\ntop_k: number of passages to return",
		Fn: func(ctx context.Context, args map[string]any) (any, error) {
			if search == nil {
				return nil, fmt.Errorf("no document store attached")
			}
			query, _ := args["query"].(string)
			topK := 3
			if k, ok := args["top_k"].(int); ok && k > 0 {
				topK = k
			}
			return search(ctx, query, topK)
		},
	})

	reg.Register(&Entry{
		Name:        "economic_fdi_trend",
		Description: "Produces a chart of foreign direct investment flows over a year range.",
		Schema: Schema{
			"country":    Prim(TypeString),
			"start_year": Prim(TypeInteger),
			"end_year":   Prim(TypeInteger),
			"flow":       Prim(TypeString),
		},
		Doc: "country: country name\nstart_year: first year of the range\nend_year: last year of the range\nflow: (inward, outward)",
		Fn:  economicFDITrend,
	})
}

// fdiSeries is a small illustrative dataset. A deployment replaces this
// tool with one backed by a statistics service.
var fdiSeries = map[string]map[int]float64{
	"inward": {
		2018: 64.2, 2019: 68.9, 2020: 59.8,
		2021: 78.1, 2022: 84.4, 2023: 80.7,
	},
	"outward": {
		2018: 41.5, 2019: 44.3, 2020: 38.0,
		2021: 52.6, 2022: 57.9, 2023: 55.2,
	},
}

func economicFDITrend(ctx context.Context, args map[string]any) (any, error) {
	country, _ := args["country"].(string)
	startYear, _ := args["start_year"].(int)
	endYear, _ := args["end_year"].(int)
	flow, _ := args["flow"].(string)
	if flow == "" {
		flow = "inward"
	}
	series, ok := fdiSeries[flow]
	if !ok {
		return nil, fmt.Errorf("unknown flow direction %q", flow)
	}
	if startYear == 0 {
		startYear = 2018
	}
	if endYear == 0 {
		endYear = 2023
	}
	if endYear < startYear {
		return nil, fmt.Errorf("end_year %d precedes start_year %d", endYear, startYear)
	}

	var rows []map[string]any
	for year := startYear; year <= endYear; year++ {
		value, ok := series[year]
		if !ok {
			continue
		}
		rows = append(rows, map[string]any{"year": year, "value": value})
	}
	if len(rows) == 0 {
		return nil, nil
	}

	title := fmt.Sprintf("FDI %s flows %d-%d", flow, startYear, endYear)
	if country != "" {
		title = fmt.Sprintf("%s: %s", country, title)
	}
	return map[string]any{
		"chartType":  "line",
		"data":       rows,
		"config":     map[string]any{"xKey": "year", "yKey": "value", "unit": "USD bn"},
		"chartTitle": title,
		"rawData":    rows,
	}, nil
}
