package metrics

import (
	"context"
	"strings"
	"time"

	"poster/pkg/agent/llm"
	"poster/pkg/agent/llmerrors"
	"poster/pkg/logx"
	"poster/pkg/utils"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// UsageExtractor extracts token usage from a request and response.
type UsageExtractor func(req llm.CompletionRequest, resp llm.CompletionResponse) (promptTokens, completionTokens int)

// TokenUsageExtractor prefers provider-reported usage and falls back to
// counting with tiktoken when the provider reported none.
func TokenUsageExtractor(counter *utils.TokenCounter) UsageExtractor {
	return func(req llm.CompletionRequest, resp llm.CompletionResponse) (int, int) {
		if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
			return resp.Usage.PromptTokens, resp.Usage.CompletionTokens
		}
		var prompt strings.Builder
		for i := range req.Messages {
			prompt.WriteString(req.Messages[i].Content)
			prompt.WriteString("\n")
		}
		return counter.CountTokens(prompt.String()), counter.CountTokens(resp.Content)
	}
}

// Middleware records latency, token usage, and outcome of every generation call.
func Middleware(recorder Recorder, usageExtractor UsageExtractor, logger *logx.Logger) llm.Middleware {
	if usageExtractor == nil {
		usageExtractor = TokenUsageExtractor(nil)
	}

	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				start := time.Now()
				model := next.GetModelName()
				slot := SlotFrom(ctx)

				resp, err := next.Complete(ctx, req)
				duration := time.Since(start)

				var promptTokens, completionTokens int
				errorType := ""
				if err == nil {
					promptTokens, completionTokens = usageExtractor(req, resp)
				} else {
					errorType = llmerrors.Classify(err).Type.String()
				}

				recorder.ObserveRequest(model, slot, promptTokens, completionTokens, err == nil, errorType, duration)

				if logger != nil {
					status := statusSuccess
					if err != nil {
						status = statusError
					}
					logger.Info("LLM request: model=%s slot=%s tokens=%d+%d status=%s duration=%dms",
						model, slot, promptTokens, completionTokens, status, duration.Milliseconds())
				}

				return resp, err //nolint:wrapcheck // middleware passes errors through unchanged
			},
			next.GetModelName,
		)
	}
}
