package pool

import (
	"fmt"
	"strings"

	"github.com/pandulabs/pandu/internal/toolcall"
	"github.com/pandulabs/pandu/pkg/models"
)

// functionCallMessages primes a transcript with the tool catalog and the
// user query.
func functionCallMessages(reg *toolcall.Registry, query string) []models.Message {
	return []models.Message{
		{Role: "system", Content: toolSystemPrompt(reg)},
		{Role: "user", Content: query},
	}
}

func toolSystemPrompt(reg *toolcall.Registry) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant with access to the following tools. ")
	b.WriteString("When a tool is needed, respond with a JSON object of the form ")
	b.WriteString(`{"name": <tool name>, "parameters": <arguments object>}.` + "\n\n")
	b.WriteString("Available tools:\n")
	for _, e := range reg.Entries() {
		fmt.Fprintf(&b, "- %s: %s\n", e.Name, e.Description)
		if e.Doc != "" {
			for _, line := range strings.Split(e.Doc, "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	}
	b.WriteString("\nIf no tool applies, answer directly.")
	return b.String()
}
