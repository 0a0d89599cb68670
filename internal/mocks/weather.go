package mocks

import (
	"context"
	"sync"

	"poster/pkg/weather"
)

// MockWeather returns a fixed report, or nil to simulate an outage.
type MockWeather struct {
	Report *weather.Report
	calls  int
	mu     sync.Mutex
}

// NewMockWeather creates a weather source that returns r.
func NewMockWeather(r *weather.Report) *MockWeather {
	return &MockWeather{Report: r}
}

// Current implements the engine's weather source.
func (m *MockWeather) Current(context.Context) *weather.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.Report
}

// CallCount returns the number of Current calls.
func (m *MockWeather) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
