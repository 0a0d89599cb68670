// Package openaiofficial provides the OpenAI client using the official OpenAI Go package.
package openaiofficial

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"poster/pkg/agent/llm"
	"poster/pkg/agent/llmerrors"
	"poster/pkg/config"
)

// OfficialClient wraps the official OpenAI Go client to implement llm.LLMClient.
type OfficialClient struct {
	client openai.Client
	model  string
}

// NewOfficialClient creates an OpenAI client with the default model.
func NewOfficialClient(apiKey string, opts ...option.RequestOption) llm.LLMClient {
	return NewOfficialClientWithModel(apiKey, config.ModelGPT4o, opts...)
}

// NewOfficialClientWithModel creates a raw OpenAI client; middleware is applied by the factory.
func NewOfficialClientWithModel(apiKey, model string, opts ...option.RequestOption) llm.LLMClient {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	return &OfficialClient{
		client: openai.NewClient(all...),
		model:  model,
	}
}

// buildInput flattens the conversation for the Responses API: system
// messages become instructions, the rest becomes the input text.
func buildInput(messages []llm.CompletionMessage) (instructions, input string) {
	system, rest := llm.SplitSystem(messages)
	var b strings.Builder
	for i := range rest {
		if rest[i].Role == llm.RoleAssistant {
			fmt.Fprintf(&b, "Assistant: %s\n\n", rest[i].Content)
			continue
		}
		b.WriteString(rest[i].Content)
		b.WriteString("\n\n")
	}
	return system, strings.TrimSpace(b.String())
}

// Complete implements the llm.LLMClient interface using the Responses API.
func (o *OfficialClient) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	instructions, input := buildInput(in.Messages)
	if input == "" {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, "empty input")
	}

	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(int64(config.CapMaxTokens(o.model, in.MaxTokens))),
		Temperature:     openai.Float(float64(in.Temperature)),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(input)},
	}
	if instructions != "" {
		params.Instructions = openai.String(instructions)
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, classifyError(err)
	}
	if resp == nil {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "empty response from OpenAI Responses API")
	}

	content := resp.OutputText()
	if strings.TrimSpace(content) == "" {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "OpenAI returned no output text")
	}

	return llm.CompletionResponse{
		Content:    content,
		StopReason: string(resp.Status),
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

// GetModelName returns the model name for this client.
func (o *OfficialClient) GetModelName() string {
	return o.model
}

func classifyError(err error) *llmerrors.Error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if classified := llmerrors.FromStatus(apiErr.StatusCode, err); classified != nil {
			return classified
		}
	}
	return llmerrors.Classify(err)
}
