// Package config provides loading, defaulting, and validation of the poster configuration.
//
// Configuration is static data read once at startup and handed to each
// component by value or read-only pointer. There is no global config instance:
// callers construct one with Load or Default and pass it down.
//
// Sections:
//
//   - persona, slots, themes, quirks, vocabulary, fallback_pool, hashtags:
//     the content model the prompt composer, validator, and fallback selector read.
//   - generator, publisher, weather, media: capability settings.
//   - tuning: every probability, threshold, and counter bound used by the
//     decision engine. Defaults reproduce the production values.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"poster/pkg/clock"
	"poster/pkg/logx"
	"poster/pkg/proto"
)

// SchemaVersion is stamped into configs written by `poster init`-style tooling
// and checked on load.
const SchemaVersion = "1.0"

// Provider names for the generation backend.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
)

// Environment variables consulted for credentials (after the secrets file).
const (
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvGoogleAPIKey    = "GEMINI_API_KEY"
	EnvOllamaHost      = "OLLAMA_HOST"

	EnvXConsumerKey    = "X_API_KEY"
	EnvXConsumerSecret = "X_API_SECRET"
	EnvXAccessToken    = "X_ACCESS_TOKEN"
	EnvXAccessSecret   = "X_ACCESS_SECRET"
)

// DefaultOllamaHost is used when OLLAMA_HOST is unset.
const DefaultOllamaHost = "http://localhost:11434"

//go:embed default.yaml
var defaultYAML []byte

//nolint:gochecknoglobals // package logger
var logger = logx.NewLogger("config")

// Persona describes who is posting.
type Persona struct {
	Name          string   `yaml:"name"`
	Age           int      `yaml:"age"`
	Locale        string   `yaml:"locale"`
	Language      string   `yaml:"language"`
	Occupation    string   `yaml:"occupation"`
	Traits        []string `yaml:"traits"`
	SpeechSamples []string `yaml:"speech_samples"`
}

// Slot is the configuration of one content category.
type Slot struct {
	ID                 proto.SlotID `yaml:"id"`
	Hours              []int        `yaml:"hours"`
	Weight             float64      `yaml:"weight"`
	Tone               string       `yaml:"tone"`
	RequiresVocabulary bool         `yaml:"requires_vocabulary"`
	MaxPerDay          int          `yaml:"max_per_day"` // 0 = unlimited
	Examples           []string     `yaml:"examples"`
	FallbackKeywords   []string     `yaml:"fallback_keywords"`
}

// AllowsHour reports whether the slot may be chosen at hour.
func (s *Slot) AllowsHour(hour int) bool {
	for _, h := range s.Hours {
		if h == hour {
			return true
		}
	}
	return false
}

// Themes are the word lists the composer draws from.
type Themes struct {
	Logistics   []string `yaml:"logistics"`
	Daily       []string `yaml:"daily"`
	Emotion     []string `yaml:"emotion"`
	Romance     []string `yaml:"romance"`
	MicroEvents []string `yaml:"micro_events"`
}

// Words returns the list for a theme category.
func (t *Themes) Words(category proto.ThemeCategory) []string {
	switch category {
	case proto.ThemeLogistics:
		return t.Logistics
	case proto.ThemeDaily:
		return t.Daily
	case proto.ThemeEmotion:
		return t.Emotion
	case proto.ThemeRomance:
		return t.Romance
	case proto.ThemeNone:
		return nil
	default:
		return nil
	}
}

// Quirks are the three categories of optional persona quirks.
type Quirks struct {
	Habits       []string `yaml:"habits"`
	Catchphrases []string `yaml:"catchphrases"`
	Observations []string `yaml:"observations"`
}

// Categories returns the non-empty quirk lists.
func (q *Quirks) Categories() [][]string {
	var out [][]string
	for _, list := range [][]string{q.Habits, q.Catchphrases, q.Observations} {
		if len(list) > 0 {
			out = append(out, list)
		}
	}
	return out
}

// Vocabulary holds the forbidden and required term lists.
type Vocabulary struct {
	Forbidden []string `yaml:"forbidden"`
	Required  []string `yaml:"required"`
}

// Hashtags configures post decoration.
type Hashtags struct {
	Mandatory string   `yaml:"mandatory"`
	Pool      []string `yaml:"pool"`
}

// Generator configures the generation backend.
type Generator struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	// MaxAttempts bounds transport-level retries inside one generation call.
	// This is separate from the engine's validation retry budget.
	MaxAttempts int `yaml:"max_attempts"`
}

// Publisher configures the social platform client.
type Publisher struct {
	APIBaseURL      string `yaml:"api_base_url"`
	UploadURL       string `yaml:"upload_url"`
	ChunkSizeBytes  int    `yaml:"chunk_size_bytes"`
	PollMaxAttempts int    `yaml:"poll_max_attempts"`
	TimeoutSec      int    `yaml:"timeout_sec"`
}

// Weather configures the weather lookup.
type Weather struct {
	Enabled         bool    `yaml:"enabled"`
	Latitude        float64 `yaml:"latitude"`
	Longitude       float64 `yaml:"longitude"`
	BaseURL         string  `yaml:"base_url"`
	CacheTTLMinutes int     `yaml:"cache_ttl_minutes"`
	TimeoutSec      int     `yaml:"timeout_sec"`
}

// Media configures image lookup.
type Media struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
}

// Config is the complete poster configuration.
type Config struct {
	SchemaVersion       string     `yaml:"schema_version"`
	TimezoneOffsetHours int        `yaml:"timezone_offset_hours"`
	Persona             Persona    `yaml:"persona"`
	Slots               []Slot     `yaml:"slots"`
	Themes              Themes     `yaml:"themes"`
	Quirks              Quirks     `yaml:"quirks"`
	Vocabulary          Vocabulary `yaml:"vocabulary"`
	FallbackPool        []string   `yaml:"fallback_pool"`
	Hashtags            Hashtags   `yaml:"hashtags"`
	Generator           Generator  `yaml:"generator"`
	Publisher           Publisher  `yaml:"publisher"`
	Weather             Weather    `yaml:"weather"`
	Media               Media      `yaml:"media"`
	Tuning              Tuning     `yaml:"tuning"`
}

// SlotByID returns the slot configuration for id, or nil.
func (c *Config) SlotByID(id proto.SlotID) *Slot {
	for i := range c.Slots {
		if c.Slots[i].ID == id {
			return &c.Slots[i]
		}
	}
	return nil
}

// Default returns the embedded default configuration. It panics if the
// embedded document is invalid, which is a build defect.
func Default() *Config {
	cfg, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return cfg
}

// Parse decodes a YAML document over the built-in defaults, then validates.
// Fields absent from the document keep their default values.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{
		SchemaVersion:       SchemaVersion,
		TimezoneOffsetHours: clock.DefaultOffsetHours,
		Tuning:              DefaultTuning(),
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Load reads the config at path. An empty path selects the embedded default.
// A missing or unparseable file is an error so user edits are never silently ignored.
func Load(path string) (*Config, error) {
	if path == "" {
		logger.Info("No config file given, using embedded defaults")
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("Config loaded from %s (%d slots, %d fallback texts)", path, len(cfg.Slots), len(cfg.FallbackPool))
	return cfg, nil
}

// applyDefaults fills capability settings left empty by the document.
func applyDefaults(cfg *Config) {
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SchemaVersion
	}

	g := &cfg.Generator
	if g.Provider == "" {
		g.Provider = ProviderAnthropic
	}
	g.Provider = strings.ToLower(g.Provider)
	if g.Model == "" {
		g.Model = DefaultModel(g.Provider)
	}
	if g.MaxTokens <= 0 {
		g.MaxTokens = 512
	}
	if g.Temperature == 0 {
		g.Temperature = 0.9
	}
	if g.TimeoutSec <= 0 {
		g.TimeoutSec = 60
	}
	if g.MaxAttempts <= 0 {
		g.MaxAttempts = 3
	}

	p := &cfg.Publisher
	if p.APIBaseURL == "" {
		p.APIBaseURL = "https://api.twitter.com"
	}
	if p.UploadURL == "" {
		p.UploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	}
	if p.ChunkSizeBytes <= 0 {
		p.ChunkSizeBytes = 1 << 20
	}
	if p.PollMaxAttempts <= 0 {
		p.PollMaxAttempts = 10
	}
	if p.TimeoutSec <= 0 {
		p.TimeoutSec = 30
	}

	w := &cfg.Weather
	if w.BaseURL == "" {
		w.BaseURL = "https://api.open-meteo.com/v1/forecast"
	}
	if w.CacheTTLMinutes <= 0 {
		w.CacheTTLMinutes = 60
	}
	if w.TimeoutSec <= 0 {
		w.TimeoutSec = 10
	}

	if len(cfg.Media.Extensions) == 0 {
		cfg.Media.Extensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	}
}

// validate rejects configurations the engine cannot run with.
func validate(cfg *Config) error {
	if cfg.TimezoneOffsetHours < -12 || cfg.TimezoneOffsetHours > 14 {
		return fmt.Errorf("timezone_offset_hours %d out of range", cfg.TimezoneOffsetHours)
	}
	if strings.TrimSpace(cfg.Persona.Name) == "" {
		return fmt.Errorf("persona.name is required")
	}
	if len(cfg.Slots) == 0 {
		return fmt.Errorf("at least one slot must be configured")
	}

	seen := make(map[proto.SlotID]bool, len(cfg.Slots))
	for i := range cfg.Slots {
		s := &cfg.Slots[i]
		if _, err := proto.ParseSlot(string(s.ID)); err != nil {
			return fmt.Errorf("slots[%d]: %w", i, err)
		}
		if seen[s.ID] {
			return fmt.Errorf("slots[%d]: duplicate slot %s", i, s.ID)
		}
		seen[s.ID] = true
		if s.Weight <= 0 {
			return fmt.Errorf("slot %s: weight must be positive", s.ID)
		}
		if s.MaxPerDay < 0 {
			return fmt.Errorf("slot %s: max_per_day must not be negative", s.ID)
		}
		for _, h := range s.Hours {
			if h < 0 || h > 23 {
				return fmt.Errorf("slot %s: hour %d out of range", s.ID, h)
			}
		}
	}

	if cfg.Hashtags.Mandatory != "" && !strings.HasPrefix(cfg.Hashtags.Mandatory, "#") {
		return fmt.Errorf("hashtags.mandatory must start with '#'")
	}

	switch cfg.Generator.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderOllama:
	default:
		return fmt.Errorf("unknown generator provider %q", cfg.Generator.Provider)
	}
	if cfg.Generator.Temperature < 0 || cfg.Generator.Temperature > 2 {
		return fmt.Errorf("generator.temperature must be between 0.0 and 2.0")
	}

	return cfg.Tuning.Validate()
}
