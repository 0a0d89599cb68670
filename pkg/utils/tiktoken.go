// Package utils provides token counting and file helpers shared across packages.
package utils

import (
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter provides token counting for prompts and the narrative trail.
// Every provider is approximated with the GPT-4 encoding.
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter creates a token counter. The model name is only used in errors.
func NewTokenCounter(model string) (*TokenCounter, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec for model %s: %w", model, err)
	}
	return &TokenCounter{codec: codec}, nil
}

// CountTokens returns the number of tokens in text.
func (tc *TokenCounter) CountTokens(text string) int {
	if tc == nil || tc.codec == nil {
		// 4 bytes ≈ 1 token
		return len(text) / 4
	}
	count, err := tc.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

// ValidateTokenLimit reports whether text fits within limit tokens.
func (tc *TokenCounter) ValidateTokenLimit(text string, limit int) bool {
	return tc.CountTokens(text) <= limit
}

// TrimLeadingSegments drops segments from the front of a sep-joined string
// until the remainder fits within limit tokens. The last segment is always kept.
func (tc *TokenCounter) TrimLeadingSegments(text, sep string, limit int) string {
	if limit <= 0 || tc.ValidateTokenLimit(text, limit) {
		return text
	}
	segments := strings.Split(text, sep)
	for len(segments) > 1 {
		segments = segments[1:]
		joined := strings.Join(segments, sep)
		if tc.ValidateTokenLimit(joined, limit) {
			return joined
		}
	}
	return segments[0]
}
