package tallylib

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rezonia/invoice-tally/internal/llm"
	"github.com/rezonia/invoice-tally/internal/processor"
	"github.com/rezonia/invoice-tally/internal/tally"
)

// Extractor turns a document into an invoice record
type Extractor = processor.Extractor

// ExtractorSettings selects and configures the built-in extraction adapters
type ExtractorSettings = llm.Settings

// ProcessResult is the outcome of processing one document
type ProcessResult = processor.Result

// Options configures a Processor
type Options struct {
	// Extraction configures the built-in adapter. Leave APIKey empty to
	// compile invoice record JSON only. Its Log is replaced by Logger.
	Extraction ExtractorSettings

	Compiler    []CompilerOption
	MaxPDFPages int
	// Concurrency bounds ProcessBatch; zero means GOMAXPROCS
	Concurrency int
	Logger      zerolog.Logger
}

// DefaultOptions returns options with page and concurrency limits set
func DefaultOptions() Options {
	return Options{
		MaxPDFPages: processor.DefaultMaxPDFPages,
		Concurrency: runtime.GOMAXPROCS(0),
		Logger:      zerolog.Nop(),
	}
}

// Document is one input to ProcessBatch
type Document struct {
	Name     string
	Data     []byte
	MIMEType string
}

// BatchResult pairs a document name with its outcome
type BatchResult struct {
	Name   string
	Result *ProcessResult
}

// Processor extracts and compiles invoices
type Processor struct {
	pipeline    *processor.Pipeline
	adapter     llm.Adapter
	concurrency int
}

// NewProcessor creates a processor. The built-in adapter is created when
// opts.Extraction carries an API key.
func NewProcessor(ctx context.Context, opts Options) (*Processor, error) {
	var adapter llm.Adapter
	if opts.Extraction.APIKey != "" {
		settings := opts.Extraction
		settings.Log = opts.Logger
		a, err := llm.New(ctx, settings)
		if err != nil {
			return nil, fmt.Errorf("create extraction adapter: %w", err)
		}
		adapter = a
	}

	var ext Extractor
	if adapter != nil {
		ext = adapter
	}
	p := NewProcessorWithExtractor(ext, opts)
	p.adapter = adapter
	return p, nil
}

// NewProcessorWithExtractor creates a processor around a caller-supplied
// extractor, which may be nil.
func NewProcessorWithExtractor(ext Extractor, opts Options) *Processor {
	pipelineOpts := []processor.PipelineOption{
		processor.WithCompiler(tally.NewCompiler(opts.Compiler...)),
		processor.WithMaxPDFPages(opts.MaxPDFPages),
		processor.WithLogger(opts.Logger),
	}
	if ext != nil {
		pipelineOpts = append(pipelineOpts, processor.WithExtractor(ext))
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	return &Processor{
		pipeline:    processor.NewPipeline(pipelineOpts...),
		concurrency: concurrency,
	}
}

// CanExtract reports whether documents other than record JSON can be processed
func (p *Processor) CanExtract() bool {
	return p.pipeline.HasExtractor()
}

// Process extracts and compiles one document
func (p *Processor) Process(ctx context.Context, data []byte, mimeType string) *ProcessResult {
	return p.pipeline.Process(ctx, data, mimeType)
}

// CompileJSON compiles invoice record JSON with the processor's options
func (p *Processor) CompileJSON(data []byte) *ProcessResult {
	return p.pipeline.CompileJSON(data)
}

// ProcessBatch processes docs concurrently. Per-document failures are
// reported in each Result.Error; the returned error is only set when ctx
// ends before every document was handled. Results keep the input order.
func (p *Processor) ProcessBatch(ctx context.Context, docs []Document) ([]BatchResult, error) {
	results := make([]BatchResult, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, doc := range docs {
		i, doc := i, doc
		results[i].Name = doc.Name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i].Result = p.pipeline.Process(gctx, doc.Data, doc.MIMEType)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Close releases the built-in adapter
func (p *Processor) Close() error {
	if p.adapter == nil {
		return nil
	}
	return p.adapter.Close()
}
