package cmd

import (
	"context"
	"fmt"

	"github.com/rezonia/invoice-tally/internal/history"
	"github.com/rezonia/invoice-tally/internal/logger"
	"github.com/rezonia/invoice-tally/internal/tally"
	"github.com/rezonia/invoice-tally/pkg/tallylib"
)

// newCompiler builds a compiler from the loaded configuration
func newCompiler() *tally.Compiler {
	return tally.NewCompiler(cfg.CompilerOptions()...)
}

// newProcessor builds a batch processor, with extraction when the selected
// provider has credentials.
func newProcessor(ctx context.Context, concurrency int) (*tallylib.Processor, error) {
	opts := tallylib.Options{
		Compiler:    cfg.CompilerOptions(),
		MaxPDFPages: cfg.MaxPDFPages,
		Concurrency: concurrency,
		Logger:      logger.WithComponent("pipeline"),
	}

	if cfg.ExtractionEnabled() {
		opts.Extraction = cfg.ExtractorSettings()
		printVerbose("Extraction enabled (provider: %s)\n", cfg.LLMProvider)
	} else {
		printVerbose("Extraction disabled (no API key for %s), only invoice record JSON is compiled\n", cfg.LLMProvider)
	}

	proc, err := tallylib.NewProcessor(ctx, opts)
	if err != nil {
		return nil, err
	}
	return proc, nil
}

func openHistory() (*history.BoltStore, error) {
	store, err := history.NewBoltStore(cfg.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", cfg.HistoryDB, err)
	}
	return store, nil
}
