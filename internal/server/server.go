// Package server exposes the orchestrator, pool, and document store over
// HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pandulabs/pandu/internal/agentic"
	"github.com/pandulabs/pandu/internal/graph"
	"github.com/pandulabs/pandu/internal/pool"
	"github.com/pandulabs/pandu/internal/retrieval"
	"github.com/pandulabs/pandu/internal/toolcall"
	"github.com/pandulabs/pandu/pkg/models"
)

// Server wires the HTTP surface over the core components.
type Server struct {
	pool      *pool.Pool
	orch      *agentic.Orchestrator
	retriever retrieval.Retriever
	control   *Controller
}

// New creates a server. control may be nil when no control directory is
// configured.
func New(p *pool.Pool, o *agentic.Orchestrator, r retrieval.Retriever, control *Controller) *Server {
	return &Server{pool: p, orch: o, retriever: r, control: control}
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.admission)

	r.Post("/generate", s.handleGenerate)
	r.Post("/agentic", s.handleAgentic)
	r.Post("/query", s.handleQuery)
	r.Get("/tools", s.handleTools)
	r.Post("/documents", s.handleAddDocument)
	r.Delete("/documents/{id}", s.handleDeleteDocument)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.handleHealthz)

	return r
}

// admission rejects new work while draining. Health and metrics stay up.
func (s *Server) admission(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.control != nil && s.control.Draining() {
			switch r.URL.Path {
			case "/healthz", "/metrics":
			default:
				w.Header().Set("Retry-After", "30")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "server is draining"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type generateRequest struct {
	Query     string `json:"query"`
	MaxTokens int    `json:"max_tokens"`
}

type agenticRequest struct {
	Query       string           `json:"query"`
	History     []models.Message `json:"history,omitempty"`
	Collections []string         `json:"collections,omitempty"`
}

type queryResponse struct {
	FunctionName string             `json:"FunctionName"`
	ChartData    []models.ChartData `json:"chartData,omitempty"`
	Output       string             `json:"Output"`
}

type documentRequest struct {
	ID         string            `json:"id"`
	Collection string            `json:"collection,omitempty"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// handleGenerate streams completion chunks over SSE, closing with a
// terminal metrics event.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	stream, err := newSSEStream(w)
	if err != nil {
		writeError(w, err)
		return
	}

	messages := []models.Message{{Role: "user", Content: req.Query}}
	err = s.pool.GenerateTextStream(r.Context(), messages, req.MaxTokens, func(chunk string) error {
		return stream.send("chunk", chunk)
	})
	if err != nil {
		stream.sendJSON("error", map[string]string{"error": err.Error()})
		return
	}
	stream.finish(middleware.GetReqID(r.Context()))
}

// handleAgentic runs the full agentic turn, streaming the stage results as
// SSE events.
func (s *Server) handleAgentic(w http.ResponseWriter, r *http.Request) {
	var req agenticRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	areq := agentic.Request{Query: req.Query, History: req.History, Collections: req.Collections}

	nodes, err := s.orch.Understand(r.Context(), areq)
	if err != nil {
		writeError(w, err)
		return
	}

	stream, err := newSSEStream(w)
	if err != nil {
		writeError(w, err)
		return
	}
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	stream.sendJSON("decomposition", ids)

	combined, err := s.orch.Process(r.Context(), nodes, areq)
	if err != nil {
		stream.sendJSON("error", map[string]string{"error": err.Error()})
		return
	}
	stream.sendJSON("combined", combined)

	answer, err := s.orch.Synthesize(r.Context(), areq, nodes, combined)
	if err != nil {
		stream.sendJSON("error", map[string]string{"error": err.Error()})
		return
	}
	stream.send("answer", answer)
	stream.finish(middleware.GetReqID(r.Context()))
}

// handleQuery runs one non-streaming tool-augmented query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	result, err := s.pool.ProcessUserQuery(r.Context(), req.Query, req.MaxTokens)
	if err != nil {
		writeError(w, err)
		return
	}

	name := ""
	if len(result.ToolCalls) > 0 {
		name = result.ToolCalls[0].Name
	}
	writeJSON(w, http.StatusOK, queryResponse{
		FunctionName: name,
		ChartData:    result.ChartData,
		Output:       result.Output,
	})
}

// handleTools renders the registered tool catalog.
func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	type toolInfo struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Parameters  []string `json:"parameters"`
	}
	entries := s.pool.Registry().Entries()
	out := make([]toolInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, toolInfo{Name: e.Name, Description: e.Description, Parameters: e.ParamNames()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" || req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id and text are required"})
		return
	}
	doc := retrieval.Document{ID: req.ID, Collection: req.Collection, Text: req.Text, Metadata: req.Metadata}
	if err := s.retriever.AddDocument(r.Context(), doc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.retriever.DeleteDocument(r.Context(), id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"workers": s.pool.Capacity(),
		"free":    s.pool.Free(),
	})
}

// writeError maps component errors to HTTP statuses: pool exhaustion to
// 503, scheduling and decomposition failures to 422, unknown tools to 404.
func writeError(w http.ResponseWriter, err error) {
	var (
		exhausted *pool.PoolExhaustedError
		cycle     *graph.CycleError
		undefdep  *graph.UndefinedDependencyError
		decomp    *agentic.DecompositionError
	)
	switch {
	case errors.As(err, &exhausted):
		w.Header().Set("Retry-After", "10")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case errors.As(err, &cycle), errors.As(err, &undefdep), errors.As(err, &decomp):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, toolcall.ErrUnknownTool):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		log.Printf("[server] internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[server] encoding response: %v", err)
	}
}
