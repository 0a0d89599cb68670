// Package mocks provides shared mock implementations for testing.
//
// This package contains controllable doubles for the external capabilities the
// posting engine talks to (LLM, generator, publisher, weather) so any
// package's tests can drive failure and success paths without a network.
//
// # Usage
//
//	import "poster/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    gen := mocks.NewMockGenerator()
//	    gen.RespondWith("荷物120個、全部届けた", proto.MoodProud)
//	    // Use gen as the engine's Generator...
//	}
//
// # Available Mocks
//
//   - MockLLMClient: Mock for pkg/agent/llm.LLMClient
//   - MockGenerator: Mock for the engine's text generator
//   - MockPublisher: Mock for the engine's publisher
//   - MockWeather: Mock for the engine's weather source
package mocks
