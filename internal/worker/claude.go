package worker

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/pandulabs/pandu/pkg/models"
)

const defaultClaudeMaxTokens = 4096

// ClaudeWorker runs completions against the Anthropic API, or AWS Bedrock
// when configured.
type ClaudeWorker struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int
}

// NewClaudeWorker creates a Claude-backed worker.
func NewClaudeWorker(cfg models.WorkerConfig) (*ClaudeWorker, error) {
	var opts []option.RequestOption

	if cfg.UseBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("no Anthropic API key configured")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseBedrock {
		model = translateModelForBedrock(model)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	return &ClaudeWorker{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// translateModelForBedrock converts standard Anthropic model names to
// Bedrock cross-region inference profile format: us.anthropic.{model}-v1:0.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}
	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}
	return model
}

func (w *ClaudeWorker) Type() models.WorkerType { return models.WorkerTypeClaude }

func (w *ClaudeWorker) Model() string { return string(w.model) }

func (w *ClaudeWorker) GenerateText(ctx context.Context, messages []models.Message, maxTokens int) (string, error) {
	params := w.buildParams(messages, maxTokens)
	resp, err := w.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("API call failed: %w", err)
	}

	var result strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			result.WriteString(variant.Text)
		}
	}
	return result.String(), nil
}

func (w *ClaudeWorker) GenerateTextStream(ctx context.Context, messages []models.Message, maxTokens int, yield Yield) error {
	params := w.buildParams(messages, maxTokens)
	stream := w.client.Messages.NewStreaming(ctx, params)
	for stream.Next() {
		event := stream.Current()
		if variant, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if delta, ok := variant.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				if err := yield(delta.Text); err != nil {
					return err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("streaming API call failed: %w", err)
	}
	return nil
}

func (w *ClaudeWorker) GenerateFunctionCall(ctx context.Context, messages []models.Message, maxTokens int) (string, error) {
	// Function calls arrive as tagged JSON in plain text; the pipeline
	// bound to this worker's handle extracts them.
	return w.GenerateText(ctx, messages, maxTokens)
}

func (w *ClaudeWorker) buildParams(messages []models.Message, maxTokens int) anthropic.MessageNewParams {
	if maxTokens <= 0 {
		maxTokens = w.maxTokens
	}

	var system []anthropic.TextBlockParam
	var params []anthropic.MessageParam
	for _, msg := range messages {
		text := contentText(msg.Content)
		switch msg.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: text})
		case "assistant":
			params = append(params, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		default:
			// Tool output roles have no native slot here; they travel
			// as user turns so the transcript stays alternating.
			params = append(params, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
		}
	}

	return anthropic.MessageNewParams{
		Model:     w.model,
		MaxTokens: int64(maxTokens),
		System:    system,
		Messages:  params,
	}
}

func contentText(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
