// Package logx provides component-scoped logging with domain-filtered debug output.
package logx

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Logger writes leveled lines tagged with a component name.
type Logger struct {
	component string
}

// Level is a log severity label.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// ctxKey is the context key type for the run ID.
type ctxKey struct{}

// DebugConfig controls debug logging behavior.
type DebugConfig struct {
	Enabled bool
	Domains map[string]bool // Which domains to enable debug for (nil = all)
}

const timestampLayout = "2006-01-02T15:04:05.000Z"

//nolint:gochecknoglobals // Process-wide logging configuration
var (
	debugConfig = &DebugConfig{}
	mu          sync.RWMutex

	sink    = log.New(os.Stderr, "", 0)
	logFile *os.File
)

func init() { //nolint:gochecknoinits // Required for env var initialization
	initDebugFromEnv()
}

// initDebugFromEnv reads DEBUG and DEBUG_DOMAINS.
func initDebugFromEnv() {
	mu.Lock()
	defer mu.Unlock()

	if debug := os.Getenv("DEBUG"); debug == "1" || strings.EqualFold(debug, "true") {
		debugConfig.Enabled = true
	}

	// DEBUG_DOMAINS=engine,state,generate
	if domains := os.Getenv("DEBUG_DOMAINS"); domains != "" {
		debugConfig.Domains = parseDomains(strings.Split(domains, ","))
	}
}

func parseDomains(domains []string) map[string]bool {
	if len(domains) == 0 {
		return nil
	}
	out := make(map[string]bool, len(domains))
	for _, d := range domains {
		if d = strings.TrimSpace(d); d != "" {
			out[d] = true
		}
	}
	return out
}

// NewLogger creates a logger for the given component.
func NewLogger(component string) *Logger {
	return &Logger{component: component}
}

// SetDebug enables or disables debug output, optionally restricted to domains.
func SetDebug(enabled bool, domains ...string) {
	mu.Lock()
	defer mu.Unlock()
	debugConfig.Enabled = enabled
	debugConfig.Domains = parseDomains(domains)
}

// IsDebugEnabled returns whether debug logging is enabled.
func IsDebugEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debugConfig.Enabled
}

// IsDebugEnabledForDomain returns whether debug logging is enabled for a specific domain.
func IsDebugEnabledForDomain(domain string) bool {
	mu.RLock()
	defer mu.RUnlock()

	if !debugConfig.Enabled {
		return false
	}
	if debugConfig.Domains == nil {
		return true
	}
	return debugConfig.Domains[domain]
}

// SetOutput redirects all log lines to w. Used by tests to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	sink = log.New(w, "", 0)
}

// OpenLogFile tees log output to a file in dir in addition to stderr.
// The file is named poster-YYYYMMDD.log and appended to.
func OpenLogFile(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	name := filepath.Join(dir, fmt.Sprintf("poster-%s.log", time.Now().UTC().Format("20060102")))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", name, err)
	}

	mu.Lock()
	defer mu.Unlock()
	logFile = f
	sink = log.New(io.MultiWriter(os.Stderr, f), "", 0)
	return nil
}

// CloseLogFile closes the log file opened by OpenLogFile, if any.
func CloseLogFile() error {
	mu.Lock()
	defer mu.Unlock()

	sink = log.New(os.Stderr, "", 0)
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// WithRunID returns a context carrying the run ID used to tag debug lines.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, runID)
}

// RunID extracts the run ID from ctx, or "-" when none is set.
func RunID(ctx context.Context) string {
	if ctx != nil {
		if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
			return id
		}
	}
	return "-"
}

func emit(component string, level Level, message string) {
	timestamp := time.Now().UTC().Format(timestampLayout)
	mu.RLock()
	out := sink
	mu.RUnlock()
	out.Printf("[%s] [%s] %s: %s", timestamp, component, level, message)
}

func (l *Logger) log(level Level, format string, args ...any) {
	emit(l.component, level, fmt.Sprintf(format, args...))
}

// Debug logs when debug output is enabled for this logger's component.
func (l *Logger) Debug(format string, args ...any) {
	if !IsDebugEnabledForDomain(l.component) {
		return
	}
	l.log(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// Component returns the component name.
func (l *Logger) Component() string {
	return l.component
}

// WithComponent returns a logger for a sub-component, e.g. "engine/generate".
func (l *Logger) WithComponent(sub string) *Logger {
	return &Logger{component: l.component + "/" + sub}
}

// Debug logs a debug message with context and domain filtering.
//
//	logx.Debug(ctx, "engine", "slot %s chosen at hour %d", slot, hour)
//
// Environment variable control:
//
//	DEBUG=1                          # Enable debug for all domains
//	DEBUG=1 DEBUG_DOMAINS=engine     # Only the engine domain
//	DEBUG=1 DEBUG_DOMAINS=state,slot # Several domains
func Debug(ctx context.Context, domain, format string, args ...any) {
	if !IsDebugEnabledForDomain(domain) {
		return
	}
	emit(RunID(ctx), LevelDebug, fmt.Sprintf("[%s] %s", domain, fmt.Sprintf(format, args...)))
}

// DebugFlow logs workflow step information with context and domain.
func DebugFlow(ctx context.Context, domain, step, status string, extra ...string) {
	extraInfo := ""
	if len(extra) > 0 {
		extraInfo = fmt.Sprintf(" - %s", extra[0])
	}
	Debug(ctx, domain, "Flow %s: %s%s", step, status, extraInfo)
}

//nolint:gochecknoglobals // Convenience logger for package-level helpers
var defaultLogger = NewLogger("system")

func Infof(format string, args ...any) {
	defaultLogger.Info(format, args...)
}

func Warnf(format string, args ...any) {
	defaultLogger.Warn(format, args...)
}

// Errorf logs and returns the formatted error.
//
//	err := logx.Errorf("setup failed: %w", err)
func Errorf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	defaultLogger.Error("%s", err.Error())
	return err
}

// Wrap logs msg + ": " + err.Error() and returns fmt.Errorf("%s: %w", msg, err).
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	wrappedErr := fmt.Errorf("%s: %w", msg, err)
	defaultLogger.Error("%s", wrappedErr.Error())
	return wrappedErr
}
