// Package processor runs documents through extraction and voucher
// compilation.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rezonia/invoice-tally/internal/model"
	"github.com/rezonia/invoice-tally/internal/tally"
)

// Extractor turns a document into an invoice record. Implementations are
// provided by the llm package; tests supply fakes.
type Extractor interface {
	ExtractInvoice(ctx context.Context, data []byte, mimeType string) (*model.InvoiceRecord, error)
	Name() string
}

// ExtractionMethod records how the invoice record was obtained
type ExtractionMethod string

const (
	MethodRecord    ExtractionMethod = "record"
	MethodLLMText   ExtractionMethod = "llm_text"
	MethodLLMVision ExtractionMethod = "llm_vision"
)

// DefaultMaxPDFPages bounds the documents sent to the extractor
const DefaultMaxPDFPages = 10

// Result is the outcome of processing one document
type Result struct {
	Record   *model.InvoiceRecord     `json:"data,omitempty"`
	Voucher  *tally.Voucher           `json:"voucher,omitempty"`
	XML      string                   `json:"tally_xml,omitempty"`
	Findings []*model.ValidationError `json:"validation_errors,omitempty"`
	Format   Format                   `json:"-"`
	MIMEType string                   `json:"mime_type,omitempty"`
	Method   ExtractionMethod         `json:"method,omitempty"`
	Adapter  string                   `json:"adapter,omitempty"`
	Warnings []string                 `json:"warnings,omitempty"`
	Elapsed  time.Duration            `json:"-"`
	Error    error                    `json:"-"`
}

// Pipeline wires the extraction adapter to the voucher compiler
type Pipeline struct {
	extractor   Extractor
	compiler    *tally.Compiler
	log         zerolog.Logger
	maxPDFPages int
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithExtractor sets the extraction adapter
func WithExtractor(e Extractor) PipelineOption {
	return func(p *Pipeline) {
		p.extractor = e
	}
}

// WithCompiler sets the voucher compiler
func WithCompiler(c *tally.Compiler) PipelineOption {
	return func(p *Pipeline) {
		if c != nil {
			p.compiler = c
		}
	}
}

// WithLogger sets the pipeline logger
func WithLogger(log zerolog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = log
	}
}

// WithMaxPDFPages sets the page limit for PDFs. Zero disables the check.
func WithMaxPDFPages(n int) PipelineOption {
	return func(p *Pipeline) {
		p.maxPDFPages = n
	}
}

// NewPipeline creates a pipeline. Without an extractor only invoice
// record JSON can be processed.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		compiler:    tally.NewCompiler(),
		log:         zerolog.Nop(),
		maxPDFPages: DefaultMaxPDFPages,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HasExtractor reports whether an extraction adapter is configured
func (p *Pipeline) HasExtractor() bool {
	return p.extractor != nil
}

// Compiler returns the pipeline's voucher compiler
func (p *Pipeline) Compiler() *tally.Compiler {
	return p.compiler
}

// Process extracts an invoice record from data and compiles it. mimeType
// may be empty, in which case it is sniffed from the content.
func (p *Pipeline) Process(ctx context.Context, data []byte, mimeType string) *Result {
	start := time.Now()
	result := p.process(ctx, data, mimeType)
	result.Elapsed = time.Since(start)

	event := p.log.Info()
	if result.Error != nil {
		event = p.log.Warn().Err(result.Error)
	}
	event.Str("format", result.Format.String()).
		Str("method", string(result.Method)).
		Int("findings", len(result.Findings)).
		Dur("elapsed", result.Elapsed).
		Msg("document processed")

	return result
}

func (p *Pipeline) process(ctx context.Context, data []byte, mimeType string) *Result {
	if len(data) == 0 {
		return &Result{Error: model.ErrEmptyDocument}
	}

	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = DetectMIME(data)
	}

	format := resolveFormat(data, mimeType)
	result := &Result{Format: format, MIMEType: mimeType}

	switch format {
	case FormatJSON:
		return p.compileJSON(result, data)

	case FormatPDF:
		if p.maxPDFPages > 0 {
			pages, err := PageCount(data)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("page count unavailable: %v", err))
			} else if pages > p.maxPDFPages {
				result.Error = fmt.Errorf("%w: %d pages, limit %d", model.ErrTooManyPages, pages, p.maxPDFPages)
				return result
			}
		}
		result.MIMEType = "application/pdf"
		result.Method = MethodLLMVision

	case FormatImage:
		result.Method = MethodLLMVision

	case FormatText:
		result.Method = MethodLLMText

	case FormatXML:
		result.Error = fmt.Errorf("%w: xml documents are verified, not processed", model.ErrUnsupportedFormat)
		return result

	default:
		result.Error = fmt.Errorf("%w: %s", model.ErrUnsupportedFormat, mimeType)
		return result
	}

	return p.extract(ctx, result, data)
}

func (p *Pipeline) extract(ctx context.Context, result *Result, data []byte) *Result {
	if p.extractor == nil {
		result.Error = model.ErrNoExtractor
		return result
	}
	result.Adapter = p.extractor.Name()

	rec, err := p.extractor.ExtractInvoice(ctx, data, result.MIMEType)
	if err != nil {
		var recErr *model.RecordError
		if !errors.As(err, &recErr) {
			var extErr *model.ExtractionError
			if !errors.As(err, &extErr) {
				err = model.NewExtractionError(p.extractor.Name(), "extraction failed", err)
			}
		}
		result.Error = err
		return result
	}

	return p.compile(result, rec)
}

func (p *Pipeline) compileJSON(result *Result, data []byte) *Result {
	result.Method = MethodRecord

	rec, err := model.ParseInvoiceRecord(data)
	if err != nil {
		result.Error = err
		return result
	}
	return p.compile(result, rec)
}

func (p *Pipeline) compile(result *Result, rec *model.InvoiceRecord) *Result {
	result.Record = rec

	compiled, err := p.compiler.Compile(rec)
	if err != nil {
		result.Error = err
		return result
	}

	result.Voucher = compiled.Voucher
	result.XML = compiled.XML
	result.Findings = compiled.Findings
	return result
}

// CompileRecord compiles an already extracted record
func (p *Pipeline) CompileRecord(rec *model.InvoiceRecord) *Result {
	return p.compile(&Result{Format: FormatJSON, Method: MethodRecord}, rec)
}

// CompileJSON parses and compiles invoice record JSON
func (p *Pipeline) CompileJSON(data []byte) *Result {
	if len(data) == 0 {
		return &Result{Error: model.ErrEmptyDocument}
	}
	return p.compileJSON(&Result{Format: FormatJSON, MIMEType: "application/json"}, data)
}
