package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/rezonia/invoice-tally/internal/llm"
	"github.com/rezonia/invoice-tally/internal/logger"
	"github.com/rezonia/invoice-tally/internal/tally"
)

// Provider names accepted in LLM_PROVIDER
const (
	ProviderOpenAI = llm.ProviderOpenAI
	ProviderGemini = llm.ProviderGemini
)

// Config is the runtime configuration shared by the CLI and server
type Config struct {
	// Extraction
	LLMProvider    string
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMVisionModel string
	GeminiAPIKey   string
	GeminiModel    string
	MaxPDFPages    int

	// Voucher compilation
	TallyCompany       string
	TallyOmitCompany   bool
	TallyVoucherNumber string
	TallyExtendedTypes bool
	TallyMode          string

	// Storage
	HistoryDB string

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// LoadDotEnv loads variables from .env files into the environment.
// Missing files are ignored; variables already set are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	config := &Config{
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
		LLMModel:           getEnv("LLM_MODEL", ""),
		LLMVisionModel:     getEnv("LLM_VISION_MODEL", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-flash-latest"),
		TallyCompany:       getEnv("TALLY_COMPANY", ""),
		TallyVoucherNumber: getEnv("TALLY_VOUCHER_NUMBER", tally.DefaultVoucherNumber),
		TallyMode:          strings.ToLower(getEnv("TALLY_MODE", "full")),
		HistoryDB:          getEnv("HISTORY_DB", "invoice-tally.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:      getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:          getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.MaxPDFPages, err = getEnvInt("MAX_PDF_PAGES", 10); err != nil {
		return nil, err
	}
	if config.TallyExtendedTypes, err = getEnvBool("TALLY_EXTENDED_TYPES", false); err != nil {
		return nil, err
	}
	if config.TallyOmitCompany, err = getEnvBool("TALLY_OMIT_COMPANY", false); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, c.LLMProvider)
	}
	switch c.TallyMode {
	case "full", "minimal":
	default:
		return fmt.Errorf("TALLY_MODE must be full or minimal, got %q", c.TallyMode)
	}
	if c.MaxPDFPages < 0 {
		return fmt.Errorf("MAX_PDF_PAGES must not be negative")
	}
	return nil
}

// ExtractionEnabled reports whether the selected provider has credentials
func (c *Config) ExtractionEnabled() bool {
	if c.LLMProvider == ProviderGemini {
		return c.GeminiAPIKey != ""
	}
	return c.LLMAPIKey != ""
}

// ExtractorSettings returns the adapter settings for the selected provider
func (c *Config) ExtractorSettings() llm.Settings {
	if c.LLMProvider == ProviderGemini {
		return llm.Settings{
			Provider: ProviderGemini,
			APIKey:   c.GeminiAPIKey,
			Model:    c.GeminiModel,
		}
	}
	return llm.Settings{
		Provider:    ProviderOpenAI,
		APIKey:      c.LLMAPIKey,
		BaseURL:     c.LLMBaseURL,
		Model:       c.LLMModel,
		VisionModel: c.LLMVisionModel,
	}
}

// CompilerOptions returns the voucher compiler options from the config
func (c *Config) CompilerOptions() []tally.Option {
	opts := []tally.Option{
		tally.WithMode(tally.ParseMode(c.TallyMode)),
		tally.WithCompany(c.TallyCompany),
		tally.WithDefaultVoucherNumber(c.TallyVoucherNumber),
		tally.WithExtendedVoucherTypes(c.TallyExtendedTypes),
	}
	if c.TallyOmitCompany {
		opts = append(opts, tally.WithoutCompany())
	}
	return opts
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}
