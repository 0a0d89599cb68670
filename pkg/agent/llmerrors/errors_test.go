package llmerrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatus(t *testing.T) {
	cause := errors.New("boom")
	cases := map[int]ErrorType{
		401: ErrorTypeAuth,
		403: ErrorTypeAuth,
		429: ErrorTypeRateLimit,
		408: ErrorTypeTransient,
		500: ErrorTypeTransient,
		503: ErrorTypeTransient,
		400: ErrorTypeBadPrompt,
		404: ErrorTypeBadPrompt,
	}
	for status, want := range cases {
		err := FromStatus(status, cause)
		require.NotNil(t, err, status)
		assert.Equal(t, want, err.Type, status)
		assert.Equal(t, status, err.StatusCode)
		assert.ErrorIs(t, err, cause)
	}
	assert.Nil(t, FromStatus(0, cause))
	assert.Nil(t, FromStatus(200, cause))
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))

	cases := []struct {
		err  error
		want ErrorType
	}{
		{context.DeadlineExceeded, ErrorTypeTransient},
		{fmt.Errorf("wrapped: %w", context.Canceled), ErrorTypeTransient},
		{errors.New("401 Unauthorized"), ErrorTypeAuth},
		{errors.New("Rate limit exceeded"), ErrorTypeRateLimit},
		{errors.New("upstream 503"), ErrorTypeTransient},
		{errors.New("connection refused"), ErrorTypeTransient},
		{errors.New("model \"x\" not found"), ErrorTypeBadPrompt},
		{errors.New("something odd"), ErrorTypeUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.err).Type, tc.err.Error())
	}

	classified := NewError(ErrorTypeEmptyResponse, "nothing")
	assert.Same(t, classified, Classify(fmt.Errorf("outer: %w", classified)))
}

func TestRetryable(t *testing.T) {
	assert.True(t, NewError(ErrorTypeRateLimit, "").IsRetryable())
	assert.True(t, NewError(ErrorTypeEmptyResponse, "").IsRetryable())
	assert.True(t, NewError(ErrorTypeUnknown, "").IsRetryable())
	assert.False(t, NewError(ErrorTypeAuth, "").IsRetryable())
	assert.False(t, NewError(ErrorTypeBadPrompt, "").IsRetryable())
	assert.False(t, NewServiceUnavailableError(errors.New("x"), 3).IsRetryable())
}

func TestServiceUnavailable(t *testing.T) {
	cause := NewError(ErrorTypeTransient, "503")
	err := fmt.Errorf("generate: %w", NewServiceUnavailableError(cause, 3))

	assert.True(t, IsServiceUnavailable(err))
	assert.Equal(t, ErrorTypeServiceUnavailable, TypeOf(err))
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
}

func TestSanitizePrompt(t *testing.T) {
	short := "短いプロンプト"
	assert.Equal(t, short, SanitizePrompt(short, 100))

	long := strings.Repeat("あ", 50) + strings.Repeat("い", 200) + strings.Repeat("う", 50)
	got := SanitizePrompt(long, 100)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("あ", 50)))
	assert.True(t, strings.HasSuffix(got, strings.Repeat("う", 50)))
	assert.Contains(t, got, "300 runes")
}
