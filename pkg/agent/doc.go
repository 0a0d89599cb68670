// Package agent builds the generation client used by the posting run.
//
// Structure:
//   - llm: the LLMClient interface and middleware Chain
//   - llmerrors: classified provider errors consulted by the retry policy
//   - middleware: metrics, resilience/retry, resilience/timeout
//   - internal/llmimpl: one raw client per provider
//
// The factory resolves the provider and its credential, wraps the raw client
// in the middleware chain, and reports ErrNoCredentials when the provider
// cannot be used. Callers treat that as "generator unavailable".
package agent
