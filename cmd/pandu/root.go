package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pandulabs/pandu/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "pandu",
	Short: "Tool-augmented LLM query orchestration",
	Long: `Pandu runs user queries through a pool of inference workers, executing
the tool calls they emit and orchestrating multi-step requests as
dependency graphs of sub-queries.

Core capabilities:
- Bounded worker pool over Claude, Qwen, and Llama backends
- Tool-call extraction, repair, and schema-coerced execution
- Agentic decomposition with retries and category fallback
- Document retrieval backed by a local store`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/pandu/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the effective configuration for a command.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.LoadFromPath(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
