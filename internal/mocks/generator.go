package mocks

import (
	"context"
	"sync"

	"poster/pkg/generate"
	"poster/pkg/prompt"
	"poster/pkg/proto"
)

// GenerateCall records one Generate invocation.
type GenerateCall struct {
	Prompt  prompt.Prompt
	Options generate.Options
}

// MockGenerator is a scripted text generator.
//
//nolint:govet // fieldalignment: mock struct layout optimized for readability
type MockGenerator struct {
	// GenerateFunc is called when Generate is invoked. Override to customize behavior.
	GenerateFunc func(ctx context.Context, p prompt.Prompt, opts generate.Options) (generate.Result, error)

	// Calls tracks all calls to Generate for verification.
	Calls []GenerateCall

	mu sync.Mutex
}

// NewMockGenerator creates a generator that always returns a neutral post.
func NewMockGenerator() *MockGenerator {
	m := &MockGenerator{}
	m.RespondWith("今日もおつかれさま", proto.MoodNeutral)
	return m
}

// Generate implements the engine's generator.
func (m *MockGenerator) Generate(ctx context.Context, p prompt.Prompt, opts generate.Options) (generate.Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, GenerateCall{Prompt: p, Options: opts})
	fn := m.GenerateFunc
	m.mu.Unlock()
	return fn(ctx, p, opts)
}

// OnGenerate sets a custom handler.
func (m *MockGenerator) OnGenerate(fn func(ctx context.Context, p prompt.Prompt, opts generate.Options) (generate.Result, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = fn
}

// RespondWith makes every call return text with mood.
func (m *MockGenerator) RespondWith(text string, mood proto.Mood) {
	m.OnGenerate(func(context.Context, prompt.Prompt, generate.Options) (generate.Result, error) {
		return generate.Result{Text: text, Mood: mood, Model: "mock-model"}, nil
	})
}

// FailWith makes every call return err.
func (m *MockGenerator) FailWith(err error) {
	m.OnGenerate(func(context.Context, prompt.Prompt, generate.Options) (generate.Result, error) {
		return generate.Result{}, err
	})
}

// RespondWithSequence returns each result in turn, repeating the last one.
// A Result with empty Text is returned as generate.ErrMalformedOutput.
func (m *MockGenerator) RespondWithSequence(results ...generate.Result) {
	callIndex := 0
	m.OnGenerate(func(context.Context, prompt.Prompt, generate.Options) (generate.Result, error) {
		res := results[len(results)-1]
		if callIndex < len(results) {
			res = results[callIndex]
			callIndex++
		}
		if res.Text == "" {
			return generate.Result{}, generate.ErrMalformedOutput
		}
		return res, nil
	})
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
