package retry

import (
	"context"
	"fmt"
	"time"

	"poster/pkg/agent/llm"
	"poster/pkg/agent/llmerrors"
	"poster/pkg/logx"
)

// Middleware wraps an LLM client with retry logic and exponential backoff.
// When retries are exhausted on a retryable error it returns a
// service_unavailable error so the caller moves on instead of retrying again.
func Middleware(policy *Policy, logger *logx.Logger) llm.Middleware {
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				var lastErr error

				for attempt := 1; attempt <= policy.Config.MaxAttempts; attempt++ {
					if attempt > 1 {
						if delay := policy.CalculateDelay(attempt); delay > 0 {
							select {
							case <-ctx.Done():
								return llm.CompletionResponse{}, fmt.Errorf("retry cancelled: %w", ctx.Err())
							case <-time.After(delay):
							}
						}
					}

					resp, err := next.Complete(ctx, req)
					if err == nil {
						return resp, nil
					}
					lastErr = err

					if ctx.Err() != nil || !policy.ShouldRetry(err) {
						return llm.CompletionResponse{}, err
					}
					if logger != nil && attempt < policy.Config.MaxAttempts {
						logger.Warn("Generation attempt %d/%d failed (%s), retrying: %v",
							attempt, policy.Config.MaxAttempts, llmerrors.TypeOf(err), err)
					}
				}

				return llm.CompletionResponse{}, llmerrors.NewServiceUnavailableError(lastErr, policy.Config.MaxAttempts)
			},
			next.GetModelName,
		)
	}
}
