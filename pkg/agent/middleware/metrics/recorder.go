// Package metrics records generation call metrics for LLM clients.
package metrics

import (
	"context"
	"time"
)

type slotKey struct{}

// WithSlot tags ctx with the slot a generation call is made for.
func WithSlot(ctx context.Context, slot string) context.Context {
	return context.WithValue(ctx, slotKey{}, slot)
}

// SlotFrom returns the slot label carried by ctx, or "unknown".
func SlotFrom(ctx context.Context) string {
	if s, ok := ctx.Value(slotKey{}).(string); ok && s != "" {
		return s
	}
	return "unknown"
}

// Recorder defines the interface for recording generation metrics.
type Recorder interface {
	// ObserveRequest records metrics for a completed generation request.
	ObserveRequest(
		model, slot string,
		promptTokens, completionTokens int,
		success bool,
		errorType string,
		duration time.Duration,
	)
}

// NoopRecorder discards all metrics.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder.
func Nop() Recorder {
	return &NoopRecorder{}
}

// ObserveRequest does nothing.
func (n *NoopRecorder) ObserveRequest(_, _ string, _, _ int, _ bool, _ string, _ time.Duration) {}
