package config

import (
	"errors"
	"testing"
)

func TestResolveAPIKeyPrefersEnvironment(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env-key")

	cfg := &Config{Anthropic: AnthropicConfig{APIKey: "sk-ant-file-key"}}
	key, source, err := ResolveAPIKey(cfg)
	if err != nil {
		t.Fatalf("ResolveAPIKey: %v", err)
	}
	if key != "sk-ant-env-key" {
		t.Errorf("key = %q, want env key", key)
	}
	if source != KeySourceEnv {
		t.Errorf("source = %v, want %v", source, KeySourceEnv)
	}
}

func TestResolveAPIKeyFromConfigFile(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := &Config{Anthropic: AnthropicConfig{APIKey: "sk-ant-file-key"}}
	key, source, err := ResolveAPIKey(cfg)
	if err != nil {
		t.Fatalf("ResolveAPIKey: %v", err)
	}
	if key != "sk-ant-file-key" {
		t.Errorf("key = %q, want file key", key)
	}
	if source != KeySourceConfig {
		t.Errorf("source = %v, want %v", source, KeySourceConfig)
	}
}

func TestResolveAPIKeyUnexpandedReference(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	// A ${VAR} reference whose variable is unset is not a usable key.
	cfg := &Config{Anthropic: AnthropicConfig{APIKey: "${PANDU_MISSING_KEY}"}}
	_, source, err := ResolveAPIKey(cfg)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("err = %v, want ErrNoAPIKey", err)
	}
	if source != KeySourceNone {
		t.Errorf("source = %v, want %v", source, KeySourceNone)
	}
}

func TestResolveAPIKeyMissing(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, source, err := ResolveAPIKey(&Config{})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("err = %v, want ErrNoAPIKey", err)
	}
	if source != KeySourceNone {
		t.Errorf("source = %v, want %v", source, KeySourceNone)
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid key", "sk-ant-REDACTED", false},
		{"empty key", "", true},
		{"wrong prefix", "sk-openai-12345678901234567890", true},
		{"too short", "sk-ant-abc", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"long key", "sk-ant-REDACTED", "sk-ant-...wxyz"},
		{"empty key", "", "(not set)"},
		{"short key", "sk-ant-x", "***"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskAPIKey(tt.key); got != tt.want {
				t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
