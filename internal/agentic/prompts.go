package agentic

import (
	"fmt"
	"strings"

	"github.com/pandulabs/pandu/internal/toolcall"
	"github.com/pandulabs/pandu/pkg/models"
)

const summarizeInstruction = `Summarize the following conversation in at most 250 words.
Keep every fact, constraint, and open question the user has raised. Respond with only the summary.`

func summarizePrompt(history []models.Message) string {
	var b strings.Builder
	b.WriteString(summarizeInstruction)
	b.WriteString("\n\nConversation:\n")
	for _, msg := range history {
		fmt.Fprintf(&b, "%s: %v\n", msg.Role, msg.Content)
	}
	return b.String()
}

const decompositionContract = `Respond with only a JSON object. Each key is "Subquery-N" (numbered from 1) and each value has:
  "Question": the sub-query text,
  "Keywords": up to five retrieval hint words,
  "Category": either "Information Seeking" or "Function Calling",
  "DependsOn": list of sub-query keys whose answers this one needs (empty list if none),
  "ExpectedAnswerFormat": optional description of the desired answer shape,
  "DependencyUsage": optional instruction for how to use dependency answers.
Use "Function Calling" only when one of the listed tools can answer the sub-query directly. Do not invent tools.`

func decompositionPrompt(query, summary string, reg *toolcall.Registry) string {
	var b strings.Builder
	b.WriteString("Break the user's request into the smallest set of independently answerable sub-queries.\n\n")
	if summary != "" {
		b.WriteString("Conversation so far:\n")
		b.WriteString(summary)
		b.WriteString("\n\n")
	}
	b.WriteString("Available tools:\n")
	if reg.Len() == 0 {
		b.WriteString("(none)\n")
	} else {
		b.WriteString(reg.Catalog())
	}
	b.WriteString("\n")
	b.WriteString(decompositionContract)
	b.WriteString("\n\nUser request: ")
	b.WriteString(query)
	return b.String()
}

func reasoningPrompt(node *models.SubqueryNode, depContext string) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the context below.\n\nContext:\n")
	b.WriteString(depContext)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(node.Question)
	if node.DependencyUsage != "" {
		b.WriteString("\n\nHow to use the context: ")
		b.WriteString(node.DependencyUsage)
	}
	if node.ExpectedFormat != "" {
		b.WriteString("\n\nAnswer format: ")
		b.WriteString(node.ExpectedFormat)
	}
	return b.String()
}

func synthesisPrompt(query string, combined models.CombinedResponse, order []string) string {
	var b strings.Builder
	b.WriteString("Write the final answer to the user's request from the sub-query results below.\n\n")
	for _, id := range order {
		result, ok := combined[id]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s (%s): %v\n", id, result.Type, result.Source)
	}
	b.WriteString("\nUser request: ")
	b.WriteString(query)
	return b.String()
}
