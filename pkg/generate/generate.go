// Package generate turns a composed prompt into post text and a mood label
// using an LLM client.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"poster/pkg/agent/llm"
	"poster/pkg/agent/llmerrors"
	"poster/pkg/agent/middleware/metrics"
	"poster/pkg/logx"
	"poster/pkg/prompt"
	"poster/pkg/proto"
)

// ErrUnavailable means the backend cannot serve this run at all (missing or
// rejected credentials). Callers go straight to fallback.
var ErrUnavailable = errors.New("generator unavailable")

// ErrMalformedOutput means the model answered but not with the requested JSON object.
var ErrMalformedOutput = errors.New("malformed generator output")

// Options tunes one generation call.
type Options struct {
	Slot        proto.SlotID
	MaxTokens   int
	Temperature float32
}

// Result is a generated post candidate.
type Result struct {
	Text  string
	Mood  proto.Mood
	Model string
}

// Generator produces post candidates from prompts.
type Generator struct {
	client llm.LLMClient
	logger *logx.Logger
}

// New wraps client. The client is expected to already carry its middleware chain.
func New(client llm.LLMClient) *Generator {
	return &Generator{client: client, logger: logx.NewLogger("generate")}
}

// Generate asks the model for one post. Errors are capability errors: the
// caller may try again or fall back.
func (g *Generator) Generate(ctx context.Context, p prompt.Prompt, opts Options) (Result, error) {
	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewSystemMessage(p.System),
		llm.NewUserMessage(p.User),
	})
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		req.Temperature = opts.Temperature
	}

	logx.Debug(ctx, "generate", "prompt (%s): %s", p.Template, llmerrors.SanitizePrompt(p.User, 200))

	resp, err := g.client.Complete(metrics.WithSlot(ctx, string(opts.Slot)), req)
	if err != nil {
		switch llmerrors.TypeOf(err) {
		case llmerrors.ErrorTypeAuth:
			return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		default:
			return Result{}, fmt.Errorf("generation failed: %w", err)
		}
	}

	result, err := ParseOutput(resp.Content)
	if err != nil {
		g.logger.Warn("Unparseable output from %s: %s", g.client.GetModelName(), llmerrors.SanitizePrompt(resp.Content, 120))
		return Result{}, err
	}
	if result.Mood == "" {
		g.logger.Warn("Generator returned no known mood, keeping the derived one")
	}
	result.Model = g.client.GetModelName()
	return result, nil
}

type output struct {
	Text string `json:"text"`
	Mood string `json:"mood"`
}

// ParseOutput extracts {"text","mood"} from a model answer. Markdown code
// fences and surrounding prose are tolerated. An unknown mood yields an empty
// Mood rather than an error.
func ParseOutput(raw string) (Result, error) {
	body := strings.TrimSpace(raw)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return Result{}, fmt.Errorf("%w: no JSON object", ErrMalformedOutput)
	}

	var out output
	if err := json.Unmarshal([]byte(body[start:end+1]), &out); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return Result{}, fmt.Errorf("%w: empty text", ErrMalformedOutput)
	}

	mood, err := proto.ParseMood(out.Mood)
	if err != nil {
		mood = ""
	}
	return Result{Text: text, Mood: mood}, nil
}
