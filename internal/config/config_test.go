package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/invoice-tally/internal/config"
	"github.com/rezonia/invoice-tally/internal/model"
	"github.com/rezonia/invoice-tally/internal/tally"
)

var configVars = []string{
	"LLM_PROVIDER", "LLM_API_KEY", "LLM_BASE_URL", "LLM_MODEL", "LLM_VISION_MODEL",
	"GEMINI_API_KEY", "GEMINI_MODEL", "MAX_PDF_PAGES",
	"TALLY_COMPANY", "TALLY_OMIT_COMPANY", "TALLY_VOUCHER_NUMBER", "TALLY_EXTENDED_TYPES", "TALLY_MODE",
	"HISTORY_DB", "LOG_LEVEL", "LOG_FORMAT", "LOG_TIME_FORMAT", "LOG_OUTPUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configVars {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gemini-flash-latest", cfg.GeminiModel)
	assert.Equal(t, "1", cfg.TallyVoucherNumber)
	assert.Equal(t, "full", cfg.TallyMode)
	assert.Equal(t, "invoice-tally.db", cfg.HistoryDB)
	assert.Equal(t, 10, cfg.MaxPDFPages)
	assert.False(t, cfg.TallyExtendedTypes)
	assert.False(t, cfg.ExtractionEnabled())
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("MAX_PDF_PAGES", "3")
	t.Setenv("TALLY_EXTENDED_TYPES", "true")
	t.Setenv("TALLY_COMPANY", "Books Ltd")
	t.Setenv("TALLY_MODE", "minimal")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.ProviderGemini, cfg.LLMProvider)
	assert.True(t, cfg.ExtractionEnabled())
	assert.Equal(t, 3, cfg.MaxPDFPages)
	assert.True(t, cfg.TallyExtendedTypes)

	c := tally.NewCompiler(cfg.CompilerOptions()...)
	assert.Equal(t, tally.ModeMinimal, c.Mode())
	assert.Equal(t, "Books Ltd", c.Options().Company)

	v, _, err := c.Build(&model.InvoiceRecord{TransactionType: model.TransactionCreditNote})
	require.NoError(t, err)
	assert.Equal(t, "Credit Note", v.VoucherType)

	settings := cfg.ExtractorSettings()
	assert.Equal(t, config.ProviderGemini, settings.Provider)
	assert.Equal(t, "g-key", settings.APIKey)
	assert.Equal(t, "gemini-flash-latest", settings.Model)
}

func TestExtractorSettings_OpenAI(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("LLM_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("LLM_MODEL", "text-model")
	t.Setenv("LLM_VISION_MODEL", "vision-model")
	t.Setenv("GEMINI_API_KEY", "ignored")

	cfg, err := config.Load()
	require.NoError(t, err)

	settings := cfg.ExtractorSettings()
	assert.Equal(t, config.ProviderOpenAI, settings.Provider)
	assert.Equal(t, "sk-test", settings.APIKey)
	assert.Equal(t, "http://localhost:11434/v1", settings.BaseURL)
	assert.Equal(t, "text-model", settings.Model)
	assert.Equal(t, "vision-model", settings.VisionModel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown provider", "LLM_PROVIDER", "anthropic"},
		{"bad page count", "MAX_PDF_PAGES", "many"},
		{"negative page count", "MAX_PDF_PAGES", "-1"},
		{"bad bool", "TALLY_EXTENDED_TYPES", "sometimes"},
		{"bad mode", "TALLY_MODE", "compact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			require.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TALLY_COMPANY=From File\nHISTORY_DB=/tmp/h.db\n"), 0o600))

	// godotenv does not override variables that are already set, and
	// clearEnv leaves them set to "", so unset the ones the file provides.
	require.NoError(t, os.Unsetenv("TALLY_COMPANY"))
	require.NoError(t, os.Unsetenv("HISTORY_DB"))
	t.Cleanup(func() {
		os.Unsetenv("TALLY_COMPANY")
		os.Unsetenv("HISTORY_DB")
	})

	require.NoError(t, config.LoadDotEnv(path))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "From File", cfg.TallyCompany)
	assert.Equal(t, "/tmp/h.db", cfg.HistoryDB)
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	require.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestGetLoggerConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := config.Load()
	require.NoError(t, err)

	lc := cfg.GetLoggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Format)
}
