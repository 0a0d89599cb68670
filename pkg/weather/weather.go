// Package weather fetches a short current-weather description from Open-Meteo.
// Weather is optional context: every failure is absorbed and reported as nil.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"poster/pkg/config"
	"poster/pkg/logx"
)

const (
	hotAtC  = 30.0
	coldAtC = 5.0
)

// Report is a current-weather reading.
type Report struct {
	Description string    `json:"description"`
	TempC       float64   `json:"temp_c"`
	Code        int       `json:"code"`
	Rain        bool      `json:"rain"`
	Hot         bool      `json:"hot"`
	Cold        bool      `json:"cold"`
	ObservedAt  time.Time `json:"observed_at"`
}

// Line is the text handed to the prompt composer.
func (r *Report) Line() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%s %.0f℃", r.Description, r.TempC)
}

// Hint describes how the conditions weigh on a delivery shift, or "" in mild
// dry weather.
func (r *Report) Hint() string {
	if r == nil {
		return ""
	}
	var hints []string
	if r.Rain {
		hints = append(hints, "雨で荷物を濡らさないよう気をつかう")
	}
	if r.Hot {
		hints = append(hints, "暑くて汗だく、水分補給が欠かせない")
	}
	if r.Cold {
		hints = append(hints, "寒くて手がかじかむ")
	}
	return strings.Join(hints, "。")
}

// Source looks up weather with a TTL cache in front of the HTTP call.
type Source struct {
	cfg        config.Weather
	httpClient *http.Client
	cache      *Cache
	now        func() time.Time
	logger     *logx.Logger
}

// NewSource creates a weather source. cache may be nil to disable caching.
func NewSource(cfg config.Weather, cache *Cache) *Source {
	return &Source{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		cache:      cache,
		now:        time.Now,
		logger:     logx.NewLogger("weather"),
	}
}

// Current returns the current weather or nil when disabled or unavailable.
func (s *Source) Current(ctx context.Context) *Report {
	if !s.cfg.Enabled {
		return nil
	}
	now := s.now()
	if r := s.cache.Fresh(now); r != nil {
		s.logger.Debug("Using cached weather from %s", r.ObservedAt.Format(time.RFC3339))
		return r
	}

	r, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn("Weather unavailable: %v", err)
		return nil
	}
	r.ObservedAt = now
	if err := s.cache.Store(r, now); err != nil {
		s.logger.Warn("Failed to persist weather cache: %v", err)
	}
	return r
}

type forecast struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
}

func (s *Source) fetch(ctx context.Context) (*Report, error) {
	u, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid weather base URL: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(s.cfg.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(s.cfg.Longitude, 'f', 4, 64))
	q.Set("current", "temperature_2m,weather_code")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}
	var f forecast
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}

	code := f.Current.WeatherCode
	return &Report{
		Description: Describe(code),
		TempC:       f.Current.Temperature,
		Code:        code,
		Rain:        IsRain(code),
		Hot:         f.Current.Temperature >= hotAtC,
		Cold:        f.Current.Temperature <= coldAtC,
	}, nil
}

// Describe maps a WMO weather code to a short Japanese description.
func Describe(code int) string {
	switch {
	case code == 0:
		return "快晴"
	case code <= 2:
		return "晴れ"
	case code == 3:
		return "くもり"
	case code == 45 || code == 48:
		return "霧"
	case code >= 51 && code <= 57:
		return "霧雨"
	case code >= 61 && code <= 67:
		return "雨"
	case code >= 71 && code <= 77:
		return "雪"
	case code >= 80 && code <= 82:
		return "にわか雨"
	case code == 85 || code == 86:
		return "にわか雪"
	case code >= 95:
		return "雷雨"
	default:
		return "不明な空模様"
	}
}

// IsRain reports whether code is any kind of liquid precipitation.
func IsRain(code int) bool {
	return (code >= 51 && code <= 67) || (code >= 80 && code <= 82) || code >= 95
}
