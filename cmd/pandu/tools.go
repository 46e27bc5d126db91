package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pandulabs/pandu/internal/toolcall"
)

var toolsOutput string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered tool catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := toolcall.NewRegistry()
		toolcall.RegisterBuiltins(reg, nil)

		type toolEntry struct {
			Name        string   `json:"name" yaml:"name"`
			Description string   `json:"description" yaml:"description"`
			Parameters  []string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
			Doc         string   `json:"doc,omitempty" yaml:"doc,omitempty"`
		}
		entries := reg.Entries()
		out := make([]toolEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, toolEntry{
				Name:        e.Name,
				Description: e.Description,
				Parameters:  e.ParamNames(),
				Doc:         e.Doc,
			})
		}

		switch toolsOutput {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		case "yaml":
			return yaml.NewEncoder(os.Stdout).Encode(out)
		default:
			return fmt.Errorf("unknown output format %q (json, yaml)", toolsOutput)
		}
	},
}

func init() {
	toolsCmd.Flags().StringVarP(&toolsOutput, "output", "o", "yaml", "output format (json, yaml)")
}
