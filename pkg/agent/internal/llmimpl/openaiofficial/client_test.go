package openaiofficial

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poster/pkg/agent/llm"
	"poster/pkg/agent/llmerrors"
	"poster/pkg/config"
)

func TestBuildInput(t *testing.T) {
	instructions, input := buildInput([]llm.CompletionMessage{
		llm.NewSystemMessage("persona"),
		llm.NewUserMessage("previous post"),
		{Role: llm.RoleAssistant, Content: "reply"},
		llm.NewUserMessage("now write"),
	})
	assert.Equal(t, "persona", instructions)
	assert.Equal(t, "previous post\n\nAssistant: reply\n\nnow write", input)
}

func TestCompleteRejectsEmptyInput(t *testing.T) {
	c := NewOfficialClient("k")
	_, err := c.Complete(context.Background(), llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewSystemMessage("only")}))
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeBadPrompt))
	assert.Equal(t, config.ModelGPT4o, c.GetModelName())
}

func TestCompleteClassifiesRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit","code":"rate_limit_exceeded"}}`))
	}))
	defer srv.Close()

	c := NewOfficialClientWithModel("k", config.ModelGPT4o, option.WithBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("x")}))
	require.Error(t, err)
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeRateLimit))
}
