package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pandulabs/pandu/internal/agentic"
)

var queryAgentic bool

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Run one query and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, p, orch, err := buildCore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		query := strings.Join(args, " ")

		if queryAgentic {
			return runAgenticQuery(ctx, orch, query, cfg.Retrieval.Collections)
		}

		result, err := p.ProcessUserQuery(ctx, query, 0)
		if err != nil {
			return err
		}
		for _, call := range result.ToolCalls {
			fmt.Printf("%s %s (%s)\n", color.CyanString("tool:"), call.Name, call.Status)
		}
		fmt.Println(result.Output)
		return nil
	},
}

func runAgenticQuery(ctx context.Context, orch *agentic.Orchestrator, query string, collections []string) error {
	req := agentic.Request{Query: query, Collections: collections}

	nodes, err := orch.Understand(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d sub-queries\n", color.CyanString("decomposed:"), len(nodes))
	for _, node := range nodes {
		deps := ""
		if len(node.DependsOn) > 0 {
			deps = fmt.Sprintf(" (after %s)", strings.Join(node.DependsOn, ", "))
		}
		fmt.Printf("  %s [%s]%s %s\n", color.YellowString(node.ID), node.Category, deps, node.Question)
	}

	combined, err := orch.Process(ctx, nodes, req)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		result := combined[node.ID]
		fmt.Printf("%s %s: %s\n", color.GreenString("done:"), node.ID, result.Type)
	}

	answer, err := orch.Synthesize(ctx, req, nodes, combined)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(answer)
	return nil
}

func init() {
	queryCmd.Flags().BoolVar(&queryAgentic, "agentic", false, "decompose into sub-queries instead of a single tool pass")
}
