// Package timeout provides per-request timeout middleware for LLM clients.
package timeout

import (
	"context"
	"time"

	"poster/pkg/agent/llm"
)

// Middleware bounds each Complete call with its own deadline. It sits inside
// the retry middleware so every attempt gets a fresh budget.
func Middleware(duration time.Duration) llm.Middleware {
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				timeoutCtx, cancel := context.WithTimeout(ctx, duration)
				defer cancel()
				return next.Complete(timeoutCtx, req)
			},
			next.GetModelName,
		)
	}
}
