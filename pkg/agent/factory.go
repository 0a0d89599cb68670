package agent

import (
	"errors"
	"fmt"
	"time"

	"poster/pkg/agent/internal/llmimpl/anthropic"
	"poster/pkg/agent/internal/llmimpl/google"
	"poster/pkg/agent/internal/llmimpl/ollama"
	"poster/pkg/agent/internal/llmimpl/openaiofficial"
	"poster/pkg/agent/llm"
	"poster/pkg/agent/middleware/metrics"
	"poster/pkg/agent/middleware/resilience/retry"
	"poster/pkg/agent/middleware/resilience/timeout"
	"poster/pkg/config"
	"poster/pkg/logx"
	"poster/pkg/utils"
)

// ErrNoCredentials is returned when the configured provider has no API key.
var ErrNoCredentials = errors.New("no credentials for generation provider")

// LLMClientFactory creates generation clients with a configured middleware chain.
type LLMClientFactory struct {
	generator       config.Generator
	secrets         *config.Secrets
	metricsRecorder metrics.Recorder
	counter         *utils.TokenCounter
	logger          *logx.Logger
}

// NewLLMClientFactory creates a factory. A nil recorder disables metrics.
func NewLLMClientFactory(gen config.Generator, secrets *config.Secrets, recorder metrics.Recorder, counter *utils.TokenCounter) *LLMClientFactory {
	if recorder == nil {
		recorder = metrics.Nop()
	}
	return &LLMClientFactory{
		generator:       gen,
		secrets:         secrets,
		metricsRecorder: recorder,
		counter:         counter,
		logger:          logx.NewLogger("llm"),
	}
}

// CreateClient builds the raw provider client and wraps it:
// Metrics -> Retry -> Timeout -> RawClient.
func (f *LLMClientFactory) CreateClient() (llm.LLMClient, error) {
	rawClient, err := f.rawClient()
	if err != nil {
		return nil, err
	}

	retryConfig := retry.DefaultConfig
	retryConfig.MaxAttempts = f.generator.MaxAttempts
	retryPolicy := retry.NewPolicy(retryConfig, nil)

	client := llm.Chain(rawClient,
		metrics.Middleware(f.metricsRecorder, metrics.TokenUsageExtractor(f.counter), f.logger),
		retry.Middleware(retryPolicy, f.logger),
		timeout.Middleware(time.Duration(f.generator.TimeoutSec)*time.Second),
	)
	f.logger.Debug("Created %s client for model %s", f.generator.Provider, client.GetModelName())
	return client, nil
}

func (f *LLMClientFactory) rawClient() (llm.LLMClient, error) {
	provider := f.generator.Provider
	model := f.generator.Model
	if model == "" {
		model = config.DefaultModel(provider)
	}

	if provider == config.ProviderOllama {
		host := f.secrets.Lookup(config.EnvOllamaHost)
		if host == "" {
			host = config.DefaultOllamaHost
		}
		return ollama.NewOllamaClientWithModel(host, model), nil
	}

	keyName := config.APIKeyEnv(provider)
	if keyName == "" {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	apiKey, err := f.secrets.Get(keyName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNoCredentials, provider, keyName)
	}

	switch provider {
	case config.ProviderAnthropic:
		return anthropic.NewClaudeClientWithModel(apiKey, model), nil
	case config.ProviderOpenAI:
		return openaiofficial.NewOfficialClientWithModel(apiKey, model), nil
	case config.ProviderGoogle:
		return google.NewGeminiClientWithModel(apiKey, model, ""), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
