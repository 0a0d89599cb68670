package config

import (
	"fmt"
	"strings"
)

// Default models per provider.
const (
	ModelClaudeSonnetLatest = "claude-sonnet-4-5"
	ModelGPT4o              = "gpt-4o"
	ModelGeminiFlash        = "gemini-2.0-flash"
	ModelOllamaDefault      = "llama3.1:8b"
)

// ModelInfo contains static information about a known LLM model.
type ModelInfo struct {
	Provider         string
	MaxContextTokens int
	MaxOutputTokens  int
}

// KnownModels is consulted to cap output tokens and infer providers.
//
//nolint:gochecknoglobals // static model registry
var KnownModels = map[string]ModelInfo{
	"claude-sonnet-4-5":        {Provider: ProviderAnthropic, MaxContextTokens: 200000, MaxOutputTokens: 8192},
	"claude-sonnet-4-20250514": {Provider: ProviderAnthropic, MaxContextTokens: 200000, MaxOutputTokens: 8192},
	"claude-3-5-haiku-latest":  {Provider: ProviderAnthropic, MaxContextTokens: 200000, MaxOutputTokens: 8192},
	"gpt-4o":                   {Provider: ProviderOpenAI, MaxContextTokens: 128000, MaxOutputTokens: 4096},
	"gpt-4o-mini":              {Provider: ProviderOpenAI, MaxContextTokens: 128000, MaxOutputTokens: 16384},
	"gemini-2.0-flash":         {Provider: ProviderGoogle, MaxContextTokens: 1048576, MaxOutputTokens: 8192},
	"gemini-2.5-flash":         {Provider: ProviderGoogle, MaxContextTokens: 1048576, MaxOutputTokens: 65536},
}

// DefaultModel returns the default model for a provider.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return ModelGPT4o
	case ProviderGoogle:
		return ModelGeminiFlash
	case ProviderOllama:
		return ModelOllamaDefault
	default:
		return ModelClaudeSonnetLatest
	}
}

// GetModelInfo returns registry info for a model.
func GetModelInfo(model string) (ModelInfo, bool) {
	info, ok := KnownModels[model]
	return info, ok
}

// InferProvider guesses the provider from a model name prefix.
func InferProvider(model string) (string, error) {
	if info, ok := KnownModels[model]; ok {
		return info.Provider, nil
	}
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "claude"):
		return ProviderAnthropic, nil
	case strings.HasPrefix(m, "gpt"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return ProviderOpenAI, nil
	case strings.HasPrefix(m, "gemini"):
		return ProviderGoogle, nil
	case strings.Contains(m, ":"):
		return ProviderOllama, nil
	}
	return "", fmt.Errorf("cannot infer provider for model %q", model)
}

// CapMaxTokens limits requested output tokens to the model's known maximum.
func CapMaxTokens(model string, requested int) int {
	if info, ok := KnownModels[model]; ok && info.MaxOutputTokens > 0 && requested > info.MaxOutputTokens {
		return info.MaxOutputTokens
	}
	return requested
}
