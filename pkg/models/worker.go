package models

// WorkerType is the polymorphic dispatch key for an inference worker. It
// selects the worker constructor, the tool-call extractor, and the response
// adapter exactly once, at pool construction.
type WorkerType string

const (
	// WorkerTypeClaude is an Anthropic-backed worker.
	WorkerTypeClaude WorkerType = "claude"
	// WorkerTypeQwen is a local worker emitting <tool_call> delimited calls.
	WorkerTypeQwen WorkerType = "qwen"
	// WorkerTypeLlama is a local worker emitting python_tag delimited calls.
	WorkerTypeLlama WorkerType = "llama"
)

// WorkerConfig describes one pool entry. Entries with an unknown Type are
// logged and skipped at pool construction; they do not abort the pool.
type WorkerConfig struct {
	// Type selects the worker constructor and pipeline bindings.
	Type WorkerType `mapstructure:"type" yaml:"type"`
	// Model is the backend model identifier.
	Model string `mapstructure:"model" yaml:"model"`
	// BaseURL is the endpoint for local workers; unused for claude.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// APIKey authenticates the claude worker. Resolved by the caller from
	// the environment or config file, never read from the worker entry.
	APIKey string `mapstructure:"-" yaml:"-"`
	// Device is an opaque placement hint carried onto the handle.
	Device string `mapstructure:"device" yaml:"device"`
	// MaxTokens caps generation length; zero uses the worker default.
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`
	// UseBedrock routes the claude worker through AWS Bedrock.
	UseBedrock bool `mapstructure:"use_bedrock" yaml:"use_bedrock"`
	// AWSRegion is the Bedrock region, e.g. "us-west-2".
	AWSRegion string `mapstructure:"aws_region" yaml:"aws_region"`
	// AWSProfile is the optional AWS profile for Bedrock credentials.
	AWSProfile string `mapstructure:"aws_profile" yaml:"aws_profile"`
}
