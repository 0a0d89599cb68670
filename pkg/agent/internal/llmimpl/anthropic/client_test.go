package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poster/pkg/agent/llm"
	"poster/pkg/agent/llmerrors"
)

func TestEnsureAlternation(t *testing.T) {
	tests := []struct {
		name         string
		input        []llm.CompletionMessage
		expectSystem string
		expectLen    int
		expectErr    bool
	}{
		{name: "empty", expectErr: true},
		{
			name:      "only system",
			input:     []llm.CompletionMessage{llm.NewSystemMessage("persona")},
			expectErr: true,
		},
		{
			name:         "system extracted",
			input:        []llm.CompletionMessage{llm.NewSystemMessage("persona"), llm.NewUserMessage("write")},
			expectSystem: "persona",
			expectLen:    1,
		},
		{
			name: "consecutive users merged",
			input: []llm.CompletionMessage{
				llm.NewUserMessage("a"),
				llm.NewSystemMessage("s"),
				llm.NewUserMessage("b"),
			},
			expectSystem: "s",
			expectLen:    1,
		},
		{
			name: "ends with assistant",
			input: []llm.CompletionMessage{
				llm.NewUserMessage("a"),
				{Role: llm.RoleAssistant, Content: "b"},
			},
			expectErr: true,
		},
		{
			name:      "starts with assistant",
			input:     []llm.CompletionMessage{{Role: llm.RoleAssistant, Content: "b"}, llm.NewUserMessage("a")},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			system, msgs, err := ensureAlternation(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectSystem, system)
			assert.Len(t, msgs, tt.expectLen)
		})
	}

	_, merged, err := ensureAlternation([]llm.CompletionMessage{llm.NewUserMessage("a"), llm.NewUserMessage("b")})
	require.NoError(t, err)
	assert.Equal(t, "a\n\nb", merged[0].Content)
}

func TestCompleteAgainstServer(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",` +
			`"content":[{"type":"text","text":"{\"text\":\"荷物が多い\",\"mood\":\"tired\"}"}],` +
			`"stop_reason":"end_turn","usage":{"input_tokens":42,"output_tokens":7}}`))
	}))
	defer srv.Close()

	c := NewClaudeClientWithModel("test-key", "claude-sonnet-4-5", option.WithBaseURL(srv.URL))
	resp, err := c.Complete(context.Background(), llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewSystemMessage("persona"),
		llm.NewUserMessage("write a post"),
	}))
	require.NoError(t, err)

	assert.Contains(t, resp.Content, "荷物が多い")
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, llm.Usage{PromptTokens: 42, CompletionTokens: 7}, resp.Usage)
	assert.Equal(t, "claude-sonnet-4-5", body["model"])
	assert.NotNil(t, body["system"])
}

func TestCompleteClassifiesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	c := NewClaudeClientWithModel("bad", "claude-sonnet-4-5", option.WithBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("x")}))
	require.Error(t, err)
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeAuth))
}
