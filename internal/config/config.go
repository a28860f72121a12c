// Package config provides configuration management for the clipstory server.
// Configuration is loaded from environment variables with sensible defaults,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort               = 3000
	DefaultLogLevel           = "info"
	DefaultUploadDir          = "uploads"
	DefaultOutputDir          = "processed"
	DefaultMaxUploadBytes     = 2 << 30 // 2 GiB
	DefaultFFmpegPath         = "ffmpeg"
	DefaultTrimTimeout        = 10 * time.Minute
	DefaultLLMProvider        = ProviderGemini
	DefaultGeminiModel        = "gemini-2.5-flash"
	DefaultOpenAIModel        = "gpt-4o-mini"
	DefaultLLMTimeout         = 90 * time.Second
	DefaultPexelsBaseURL      = "https://api.pexels.com"
	DefaultResolveConcurrency = 1
	DefaultCORSAllowedOrigins = "*"

	// LLM providers
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	// Environment variable names
	EnvPort               = "PORT"
	EnvHost               = "HOST"
	EnvLogLevel           = "LOG_LEVEL"
	EnvUploadDir          = "UPLOAD_DIR"
	EnvOutputDir          = "OUTPUT_DIR"
	EnvMaxUploadBytes     = "MAX_UPLOAD_BYTES"
	EnvFFmpegPath         = "FFMPEG_PATH"
	EnvTrimTimeout        = "TRIM_TIMEOUT"
	EnvLLMProvider        = "LLM_PROVIDER"
	EnvGeminiAPIKey       = "GEMINI_API_KEY"
	EnvGeminiModel        = "GEMINI_MODEL"
	EnvOpenAIAPIKey       = "OPENAI_API_KEY"
	EnvOpenAIModel        = "OPENAI_MODEL"
	EnvOpenAIBaseURL      = "OPENAI_BASE_URL"
	EnvLLMTimeout         = "LLM_TIMEOUT"
	EnvPexelsAPIKey       = "PEXELS_API_KEY"
	EnvPexelsBaseURL      = "PEXELS_BASE_URL"
	EnvResolveConcurrency = "RESOLVE_CONCURRENCY"
	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	Host() string
	Addr() string
	LogLevel() string
	UploadDir() string
	OutputDir() string
	MaxUploadBytes() int64
	FFmpegPath() string
	TrimTimeout() time.Duration
	LLMProvider() string
	GeminiAPIKey() string
	GeminiModel() string
	OpenAIAPIKey() string
	OpenAIModel() string
	OpenAIBaseURL() string
	LLMTimeout() time.Duration
	PexelsAPIKey() string
	PexelsBaseURL() string
	ResolveConcurrency() int
	CORSAllowedOrigins() []string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port           int
	host           string
	logLevel       string
	uploadDir      string
	outputDir      string
	maxUploadBytes int64
	ffmpegPath     string
	trimTimeout    time.Duration

	llmProvider   string
	geminiAPIKey  string
	geminiModel   string
	openAIAPIKey  string
	openAIModel   string
	openAIBaseURL string
	llmTimeout    time.Duration

	pexelsAPIKey       string
	pexelsBaseURL      string
	resolveConcurrency int
	corsAllowedOrigins []string
}

// LoadDotenv loads variables from the given files into the process
// environment without overriding ones already set. Missing files are not an
// error; with no arguments it looks for ".env" in the working directory.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:               DefaultPort,
		logLevel:           DefaultLogLevel,
		uploadDir:          DefaultUploadDir,
		outputDir:          DefaultOutputDir,
		maxUploadBytes:     DefaultMaxUploadBytes,
		ffmpegPath:         DefaultFFmpegPath,
		trimTimeout:        DefaultTrimTimeout,
		llmProvider:        DefaultLLMProvider,
		geminiModel:        DefaultGeminiModel,
		openAIModel:        DefaultOpenAIModel,
		llmTimeout:         DefaultLLMTimeout,
		pexelsBaseURL:      DefaultPexelsBaseURL,
		resolveConcurrency: DefaultResolveConcurrency,
		corsAllowedOrigins: splitList(DefaultCORSAllowedOrigins),
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	cfg.host = os.Getenv(EnvHost)

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}
	if d := os.Getenv(EnvUploadDir); d != "" {
		cfg.uploadDir = d
	}
	if d := os.Getenv(EnvOutputDir); d != "" {
		cfg.outputDir = d
	}

	if v := os.Getenv(EnvMaxUploadBytes); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive integer", EnvMaxUploadBytes)
		}
		cfg.maxUploadBytes = n
	}

	if p := os.Getenv(EnvFFmpegPath); p != "" {
		cfg.ffmpegPath = p
	}

	var err error
	if cfg.trimTimeout, err = durationFromEnv(EnvTrimTimeout, cfg.trimTimeout); err != nil {
		return nil, err
	}
	if cfg.llmTimeout, err = durationFromEnv(EnvLLMTimeout, cfg.llmTimeout); err != nil {
		return nil, err
	}

	if p := os.Getenv(EnvLLMProvider); p != "" {
		cfg.llmProvider = strings.ToLower(strings.TrimSpace(p))
	}
	switch cfg.llmProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return nil, fmt.Errorf("invalid %s: %q (want %s or %s)", EnvLLMProvider, cfg.llmProvider, ProviderGemini, ProviderOpenAI)
	}

	cfg.geminiAPIKey = os.Getenv(EnvGeminiAPIKey)
	if m := os.Getenv(EnvGeminiModel); m != "" {
		cfg.geminiModel = m
	}
	cfg.openAIAPIKey = os.Getenv(EnvOpenAIAPIKey)
	if m := os.Getenv(EnvOpenAIModel); m != "" {
		cfg.openAIModel = m
	}
	cfg.openAIBaseURL = os.Getenv(EnvOpenAIBaseURL)

	cfg.pexelsAPIKey = os.Getenv(EnvPexelsAPIKey)
	if u := os.Getenv(EnvPexelsBaseURL); u != "" {
		cfg.pexelsBaseURL = strings.TrimRight(u, "/")
	}

	if v := os.Getenv(EnvResolveConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid %s: must be an integer >= 1", EnvResolveConcurrency)
		}
		cfg.resolveConcurrency = n
	}

	if v := os.Getenv(EnvCORSAllowedOrigins); v != "" {
		cfg.corsAllowedOrigins = splitList(v)
	}

	return cfg, nil
}

// Validate checks that the credentials required to serve every route are
// present. The server refuses to start without them.
func (c *EnvConfig) Validate() error {
	var missing []string
	switch c.llmProvider {
	case ProviderGemini:
		if c.geminiAPIKey == "" {
			missing = append(missing, EnvGeminiAPIKey)
		}
	case ProviderOpenAI:
		if c.openAIAPIKey == "" {
			missing = append(missing, EnvOpenAIAPIKey)
		}
	}
	if c.pexelsAPIKey == "" {
		missing = append(missing, EnvPexelsAPIKey)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// Host returns the listen host; empty means all interfaces.
func (c *EnvConfig) Host() string {
	return c.host
}

// Addr returns the host:port listen address.
func (c *EnvConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// UploadDir returns the directory inbound uploads are staged in
func (c *EnvConfig) UploadDir() string {
	return c.uploadDir
}

// OutputDir returns the directory trimmed clips are written to
func (c *EnvConfig) OutputDir() string {
	return c.outputDir
}

func (c *EnvConfig) MaxUploadBytes() int64 {
	return c.maxUploadBytes
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

func (c *EnvConfig) TrimTimeout() time.Duration {
	return c.trimTimeout
}

func (c *EnvConfig) LLMProvider() string {
	return c.llmProvider
}

func (c *EnvConfig) GeminiAPIKey() string {
	return c.geminiAPIKey
}

func (c *EnvConfig) GeminiModel() string {
	return c.geminiModel
}

func (c *EnvConfig) OpenAIAPIKey() string {
	return c.openAIAPIKey
}

func (c *EnvConfig) OpenAIModel() string {
	return c.openAIModel
}

func (c *EnvConfig) OpenAIBaseURL() string {
	return c.openAIBaseURL
}

func (c *EnvConfig) LLMTimeout() time.Duration {
	return c.llmTimeout
}

func (c *EnvConfig) PexelsAPIKey() string {
	return c.pexelsAPIKey
}

func (c *EnvConfig) PexelsBaseURL() string {
	return c.pexelsBaseURL
}

// ResolveConcurrency returns how many storyboard scenes may be resolved at
// once. 1 keeps resolution strictly sequential.
func (c *EnvConfig) ResolveConcurrency() int {
	return c.resolveConcurrency
}

func (c *EnvConfig) CORSAllowedOrigins() []string {
	return c.corsAllowedOrigins
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
