// Package llm provides interfaces and types for text generation clients.
package llm

import (
	"context"
	"fmt"
)

// CompletionRole represents the role of a message in a conversation.
type CompletionRole string

const (
	// RoleSystem carries persona and output-contract instructions.
	RoleSystem CompletionRole = "system"
	// RoleUser carries the per-run post instruction.
	RoleUser CompletionRole = "user"
	// RoleAssistant is a previous model turn.
	RoleAssistant CompletionRole = "assistant"
)

const (
	// DefaultMaxTokens bounds a single post completion. Posts are short.
	DefaultMaxTokens = 512

	// TemperatureCreative is the default sampling temperature for posts.
	TemperatureCreative = 0.9
)

// CompletionMessage represents a message in a completion request.
type CompletionMessage struct {
	Content string
	Role    CompletionRole
}

// CompletionRequest represents a request to generate a completion.
type CompletionRequest struct {
	Messages    []CompletionMessage
	MaxTokens   int
	Temperature float32
}

// Usage is the token accounting reported by a provider. Zero values mean the
// provider did not report usage.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// CompletionResponse represents a response from a completion request.
type CompletionResponse struct {
	Content    string
	StopReason string // "end_turn", "max_tokens", ...
	Usage      Usage
}

// LLMClient defines the interface for language model interactions.
type LLMClient interface { //nolint:revive // established name across providers
	// Complete generates a completion synchronously.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)

	// GetModelName returns the model name for this client.
	GetModelName() string
}

// NewCompletionRequest creates a request with default token and temperature settings.
func NewCompletionRequest(messages []CompletionMessage) CompletionRequest {
	return CompletionRequest{
		Messages:    messages,
		MaxTokens:   DefaultMaxTokens,
		Temperature: TemperatureCreative,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleUser, Content: content}
}

// SplitSystem separates system messages from the conversation. Providers that
// take the system prompt as a dedicated parameter use this.
func SplitSystem(messages []CompletionMessage) (system string, rest []CompletionMessage) {
	for i := range messages {
		if messages[i].Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += messages[i].Content
			continue
		}
		rest = append(rest, messages[i])
	}
	return system, rest
}

// LLMConfig represents configuration for an LLM client.
type LLMConfig struct { //nolint:revive // established name across providers
	APIKey      string
	ModelName   string
	BaseURL     string
	MaxTokens   int
	Temperature float32
}

// Validate validates the LLM configuration. Local providers may leave APIKey empty.
func (c *LLMConfig) Validate(requireKey bool) error {
	if requireKey && c.APIKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	if c.ModelName == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive")
	}
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0")
	}
	return nil
}
