package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-tally/internal/history"
	"github.com/rezonia/invoice-tally/internal/llm"
	"github.com/rezonia/invoice-tally/internal/logger"
	"github.com/rezonia/invoice-tally/internal/processor"
	"github.com/rezonia/invoice-tally/internal/server"
)

var (
	serverAddr     string
	serverDebug    bool
	readTimeout    time.Duration
	writeTimeout   time.Duration
	processTimeout time.Duration
	maxUpload      int64
	allowOrigins   []string
	noHistory      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for compiling invoices into Tally vouchers.

The API provides endpoints for:
  - POST   /api/process              - Multipart upload (field "invoice")
  - POST   /api/v1/process           - Extract and compile a raw document
  - POST   /api/v1/compile           - Compile invoice record JSON
  - POST   /api/v1/validate          - Validate invoice record JSON
  - POST   /api/v1/verify            - Verify Tally import XML
  - POST   /api/v1/info              - Get file information
  - GET    /api/v1/history           - List processed invoices
  - GET    /api/v1/history/:id/xml   - Download voucher XML
  - GET    /health                   - Health check

Examples:
  # Start server on default port
  invoice-tally serve

  # Start on custom port with extraction
  invoice-tally serve --address :9090 --api-key <key>

  # Allow a browser front end
  invoice-tally serve --cors-origin http://localhost:5173`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", ":8080", "Server listen address")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 5*time.Minute, "HTTP write timeout")
	serveCmd.Flags().DurationVar(&processTimeout, "process-timeout", 2*time.Minute, "Extraction timeout per request")
	serveCmd.Flags().Int64Var(&maxUpload, "max-upload", server.DefaultMaxUploadBytes, "Maximum request body in bytes")
	serveCmd.Flags().StringSliceVar(&allowOrigins, "cors-origin", nil, "Allowed CORS origins (default: any)")
	serveCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record processed invoices")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.WithComponent("server")

	pipelineOpts := []processor.PipelineOption{
		processor.WithCompiler(newCompiler()),
		processor.WithMaxPDFPages(cfg.MaxPDFPages),
		processor.WithLogger(logger.WithComponent("pipeline")),
	}

	if cfg.ExtractionEnabled() {
		settings := cfg.ExtractorSettings()
		settings.Log = logger.WithComponent("llm")
		adapter, err := llm.New(ctx, settings)
		if err != nil {
			return fmt.Errorf("create extraction adapter: %w", err)
		}
		defer adapter.Close()
		pipelineOpts = append(pipelineOpts, processor.WithExtractor(adapter))
		log.Info().Str("provider", cfg.LLMProvider).Str("adapter", adapter.Name()).Msg("extraction enabled")
	} else {
		log.Warn().Str("provider", cfg.LLMProvider).Msg("extraction disabled (no API key), only record JSON is accepted")
	}

	opts := []server.Option{server.WithLogger(log)}
	if !noHistory {
		store, err := history.NewBoltStore(cfg.HistoryDB)
		if err != nil {
			return fmt.Errorf("history %s: %w", cfg.HistoryDB, err)
		}
		defer store.Close()
		opts = append(opts, server.WithHistory(store))
	}

	srv := server.NewServer(&server.Config{
		Address:        serverAddr,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		ProcessTimeout: processTimeout,
		MaxUploadBytes: maxUpload,
		AllowOrigins:   allowOrigins,
		Debug:          serverDebug,
	}, processor.NewPipeline(pipelineOpts...), opts...)

	return srv.Run(ctx)
}
