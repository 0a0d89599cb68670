package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recording(name string, order *[]string) Middleware {
	return func(next LLMClient) LLMClient {
		return WrapClient(
			func(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
				*order = append(*order, name)
				return next.Complete(ctx, req)
			},
			next.GetModelName,
		)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	base := WrapClient(
		func(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
			order = append(order, "base")
			return CompletionResponse{Content: "ok"}, nil
		},
		func() string { return "base-model" },
	)

	client := Chain(base, recording("outer", &order), recording("inner", &order))
	resp, err := client.Complete(context.Background(), NewCompletionRequest([]CompletionMessage{NewUserMessage("hi")}))
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, []string{"outer", "inner", "base"}, order)
	assert.Equal(t, "base-model", client.GetModelName())
}

func TestChainWithoutMiddleware(t *testing.T) {
	base := WrapClient(
		func(_ context.Context, _ CompletionRequest) (CompletionResponse, error) { return CompletionResponse{}, nil },
		func() string { return "m" },
	)
	client := Chain(base)
	assert.Equal(t, "m", client.GetModelName())
	_, err := client.Complete(context.Background(), CompletionRequest{})
	assert.NoError(t, err)
}

func TestSplitSystem(t *testing.T) {
	system, rest := SplitSystem([]CompletionMessage{
		NewSystemMessage("persona"),
		NewUserMessage("write"),
		NewSystemMessage("json only"),
	})
	assert.Equal(t, "persona\n\njson only", system)
	require.Len(t, rest, 1)
	assert.Equal(t, RoleUser, rest[0].Role)
}

func TestConfigValidate(t *testing.T) {
	cfg := LLMConfig{ModelName: "llama3.1:8b", MaxTokens: 100, Temperature: 0.9}
	assert.NoError(t, cfg.Validate(false))
	assert.Error(t, cfg.Validate(true))

	cfg.APIKey = "k"
	cfg.Temperature = 3
	assert.Error(t, cfg.Validate(true))
}
