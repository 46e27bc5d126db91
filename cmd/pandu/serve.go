package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pandulabs/pandu/internal/agentic"
	"github.com/pandulabs/pandu/internal/config"
	"github.com/pandulabs/pandu/internal/pool"
	"github.com/pandulabs/pandu/internal/retrieval"
	"github.com/pandulabs/pandu/internal/server"
	"github.com/pandulabs/pandu/internal/toolcall"
	"github.com/pandulabs/pandu/pkg/models"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runServe(cfg)
	},
}

func runServe(cfg *config.Config) error {
	store, p, orch, err := buildCore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var control *server.Controller
	if cfg.Server.ControlDir != "" {
		control, err = server.NewController(cfg.Server.ControlDir)
		if err != nil {
			return fmt.Errorf("control directory: %w", err)
		}
		defer control.Close()
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(p, orch, store, control).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("%s listening on %s\n", color.GreenString("pandu"), cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("[serve] received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// buildCore constructs the store, registry, pool, and orchestrator shared
// by serve and query.
func buildCore(cfg *config.Config) (*retrieval.SQLiteStore, *pool.Pool, *agentic.Orchestrator, error) {
	store, err := retrieval.OpenSQLite(cfg.Retrieval.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening document store: %w", err)
	}

	reg := toolcall.NewRegistry()
	toolcall.RegisterBuiltins(reg, storeSearcher(store, cfg.Retrieval.Collections))

	if err := resolveWorkerKeys(cfg); err != nil {
		store.Close()
		return nil, nil, nil, err
	}

	metrics := pool.NewMetrics(prometheus.DefaultRegisterer)
	p := pool.New(cfg.Workers, reg, cfg.Pool.AcquireTimeout, metrics)
	if p.Capacity() == 0 {
		store.Close()
		return nil, nil, nil, fmt.Errorf("no usable workers configured")
	}

	orch := agentic.New(p, store, agentic.Config{
		MaxHops:     cfg.Orchestrator.MaxHops,
		Parallelism: cfg.Orchestrator.Parallelism,
		TopK:        cfg.Orchestrator.TopK,
	})
	return store, p, orch, nil
}

// resolveWorkerKeys fills in the Anthropic API key for claude workers that
// need one. Bedrock workers authenticate through AWS and are left alone.
func resolveWorkerKeys(cfg *config.Config) error {
	key := ""
	for i := range cfg.Workers {
		w := &cfg.Workers[i]
		if w.Type != models.WorkerTypeClaude || w.UseBedrock {
			continue
		}
		if key == "" {
			resolved, source, err := config.ResolveAPIKey(cfg)
			if err != nil {
				return fmt.Errorf("claude worker: %w", err)
			}
			if err := config.ValidateAPIKey(resolved); err != nil {
				log.Printf("[config] API key %s (%s): %v", config.MaskAPIKey(resolved), source, err)
			}
			key = resolved
		}
		w.APIKey = key
	}
	return nil
}

// storeSearcher adapts the document store to the builtin search tool.
func storeSearcher(store *retrieval.SQLiteStore, collections []string) toolcall.DocumentSearcher {
	return func(ctx context.Context, query string, topK int) ([]map[string]any, error) {
		results, err := store.AdvancedQuery(ctx, query, nil, topK, collections)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(results))
		for _, r := range results {
			out = append(out, map[string]any{"url": r.URL, "text": r.Text})
		}
		return out, nil
	}
}
