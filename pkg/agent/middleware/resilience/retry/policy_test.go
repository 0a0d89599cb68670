package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poster/pkg/agent/llm"
	"poster/pkg/agent/llmerrors"
)

func TestShouldRetry(t *testing.T) {
	assert.False(t, ShouldRetry(nil))
	assert.False(t, ShouldRetry(context.Canceled))
	assert.False(t, ShouldRetry(fmt.Errorf("op: %w", context.Canceled)))
	assert.True(t, ShouldRetry(context.DeadlineExceeded))
	assert.True(t, ShouldRetry(fmt.Errorf("http: %w", context.DeadlineExceeded)))

	assert.False(t, ShouldRetry(llmerrors.NewError(llmerrors.ErrorTypeAuth, "bad key")))
	assert.False(t, ShouldRetry(llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, "too long")))
	assert.False(t, ShouldRetry(llmerrors.NewServiceUnavailableError(errors.New("x"), 3)))
	assert.True(t, ShouldRetry(llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "slow down")))
	assert.True(t, ShouldRetry(llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "")))
	assert.True(t, ShouldRetry(errors.New("connection reset by peer")))
	assert.False(t, ShouldRetry(errors.New("401 unauthorized")))
}

func TestCalculateDelay(t *testing.T) {
	p := NewPolicy(Config{MaxAttempts: 5, InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, BackoffFactor: 2}, nil)

	assert.Zero(t, p.CalculateDelay(1))
	assert.Equal(t, 100*time.Millisecond, p.CalculateDelay(2))
	assert.Equal(t, 200*time.Millisecond, p.CalculateDelay(3))
	assert.Equal(t, 300*time.Millisecond, p.CalculateDelay(4), "capped")

	p.Config.Jitter = true
	for i := 0; i < 20; i++ {
		d := p.CalculateDelay(2)
		assert.GreaterOrEqual(t, d, 90*time.Millisecond)
		assert.LessOrEqual(t, d, 110*time.Millisecond)
	}
}

func TestNewPolicyClampsAttempts(t *testing.T) {
	assert.Equal(t, 1, NewPolicy(Config{}, nil).Config.MaxAttempts)
}

type scriptedClient struct {
	errs  []error
	calls int
}

func (s *scriptedClient) Complete(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return llm.CompletionResponse{}, s.errs[i]
	}
	return llm.CompletionResponse{Content: "ok"}, nil
}

func (s *scriptedClient) GetModelName() string { return "scripted" }

func fastPolicy(attempts int) *Policy {
	return NewPolicy(Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}, nil)
}

func TestMiddlewareRetriesTransient(t *testing.T) {
	base := &scriptedClient{errs: []error{
		llmerrors.NewError(llmerrors.ErrorTypeTransient, "503"),
		llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "429"),
	}}
	client := Middleware(fastPolicy(3), nil)(base)

	resp, err := client.Complete(context.Background(), llm.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, base.calls)
	assert.Equal(t, "scripted", client.GetModelName())
}

func TestMiddlewareStopsOnPermanentError(t *testing.T) {
	auth := llmerrors.NewError(llmerrors.ErrorTypeAuth, "bad key")
	base := &scriptedClient{errs: []error{auth}}

	_, err := Middleware(fastPolicy(3), nil)(base).Complete(context.Background(), llm.CompletionRequest{})
	assert.Same(t, auth, err)
	assert.Equal(t, 1, base.calls)
}

func TestMiddlewareExhaustion(t *testing.T) {
	transient := llmerrors.NewError(llmerrors.ErrorTypeTransient, "503")
	base := &scriptedClient{errs: []error{transient, transient, transient}}

	_, err := Middleware(fastPolicy(3), nil)(base).Complete(context.Background(), llm.CompletionRequest{})
	require.Error(t, err)
	assert.True(t, llmerrors.IsServiceUnavailable(err))
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 3, base.calls)
}

func TestMiddlewareHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	base := &scriptedClient{errs: []error{context.Canceled}}

	_, err := Middleware(fastPolicy(3), nil)(base).Complete(ctx, llm.CompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, base.calls)
}
