package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-tally/internal/config"
	"github.com/rezonia/invoice-tally/internal/logger"
)

var (
	version = "1.0.0"

	// Global flags
	verbose        bool
	outputFormat   string
	provider       string
	apiKey         string
	llmBaseURL     string
	llmModel       string
	llmVisionModel string
	tallyMode      string
	tallyCompany   string
	historyPath    string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "invoice-tally",
	Short: "Turn invoices into Tally ERP import vouchers",
	Long: `Invoice Tally extracts invoice data from scanned documents and compiles it
into Tally ERP voucher import XML.

Supports:
  - PDF and image invoices: extraction through an OpenAI-compatible API or Gemini
  - Plain text invoices: text extraction
  - Invoice record JSON: compiled directly, no API key needed

Examples:
  # Compile an extracted invoice record
  invoice-tally compile invoice.json -o voucher.xml

  # Extract and compile scanned invoices
  invoice-tally process scans/ --xml-dir out/ --api-key <key>

  # Check an import file before loading it into Tally
  invoice-tally verify voucher.xml`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Output format (json, csv, table)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "Extraction provider: openai or gemini (env: LLM_PROVIDER)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for the selected provider (env: LLM_API_KEY or GEMINI_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&llmBaseURL, "llm-base-url", "", "OpenAI-compatible API base URL (env: LLM_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&llmModel, "llm-model", "", "Model for text extraction (env: LLM_MODEL or GEMINI_MODEL)")
	rootCmd.PersistentFlags().StringVar(&llmVisionModel, "llm-vision-model", "", "Model for image and PDF extraction (env: LLM_VISION_MODEL)")
	rootCmd.PersistentFlags().StringVar(&tallyMode, "mode", "", "Voucher output mode: full or minimal (env: TALLY_MODE)")
	rootCmd.PersistentFlags().StringVar(&tallyCompany, "company", "", "Tally company name, overrides the invoice customer (env: TALLY_COMPANY)")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history-db", "", "History database file (env: HISTORY_DB)")
}

// initConfig loads the environment and lets non-empty flags override it
func initConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}

	if provider != "" {
		c.LLMProvider = provider
	}
	if apiKey != "" {
		if c.LLMProvider == config.ProviderGemini {
			c.GeminiAPIKey = apiKey
		} else {
			c.LLMAPIKey = apiKey
		}
	}
	if llmBaseURL != "" {
		c.LLMBaseURL = llmBaseURL
	}
	if llmModel != "" {
		if c.LLMProvider == config.ProviderGemini {
			c.GeminiModel = llmModel
		} else {
			c.LLMModel = llmModel
		}
	}
	if llmVisionModel != "" {
		c.LLMVisionModel = llmVisionModel
	}
	if tallyMode != "" {
		c.TallyMode = tallyMode
	}
	if tallyCompany != "" {
		c.TallyCompany = tallyCompany
	}
	if historyPath != "" {
		c.HistoryDB = historyPath
	}
	if verbose {
		c.LogLevel = "debug"
	}

	switch c.LLMProvider {
	case config.ProviderOpenAI, config.ProviderGemini:
	default:
		return fmt.Errorf("--provider must be openai or gemini, got %q", c.LLMProvider)
	}
	switch c.TallyMode {
	case "full", "minimal":
	default:
		return fmt.Errorf("--mode must be full or minimal, got %q", c.TallyMode)
	}

	if err := logger.Setup(c.GetLoggerConfig()); err != nil {
		return fmt.Errorf("logger setup: %w", err)
	}

	cfg = c
	return nil
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
