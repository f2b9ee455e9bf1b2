package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/rezonia/invoice-tally/internal/model"
)

// Extractor extracts invoice records through an OpenAI-compatible API
type Extractor struct {
	client      *Client
	textModel   string
	visionModel string
	log         zerolog.Logger
}

// ExtractorOption configures the extractor
type ExtractorOption func(*Extractor)

// WithModel sets the model for text documents
func WithModel(model string) ExtractorOption {
	return func(e *Extractor) {
		if model != "" {
			e.textModel = model
		}
	}
}

// WithVisionModel sets the model for images and PDFs
func WithVisionModel(model string) ExtractorOption {
	return func(e *Extractor) {
		if model != "" {
			e.visionModel = model
		}
	}
}

// WithLogger sets the extractor logger
func WithLogger(log zerolog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.log = log
	}
}

// NewExtractor creates an extractor backed by client
func NewExtractor(client *Client, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		client:      client,
		textModel:   client.DefaultModel(),
		visionModel: client.DefaultModel(),
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name identifies the adapter in results and errors
func (e *Extractor) Name() string {
	return "openai"
}

// Close implements Adapter; the HTTP client needs no cleanup
func (e *Extractor) Close() error {
	return nil
}

// ExtractInvoice sends the document to the model and decodes the record
func (e *Extractor) ExtractInvoice(ctx context.Context, data []byte, mimeType string) (*model.InvoiceRecord, error) {
	var (
		response string
		err      error
	)

	if strings.HasPrefix(mimeType, "text/") {
		e.log.Debug().Str("model", e.textModel).Int("bytes", len(data)).Msg("extracting from text")
		response, err = e.client.ChatText(ctx, e.textModel, SystemPromptInvoiceExtractor,
			fmt.Sprintf(UserPromptTextExtraction, string(data)))
	} else {
		e.log.Debug().Str("model", e.visionModel).Str("mime", mimeType).Int("bytes", len(data)).Msg("extracting from document")
		response, err = e.client.ChatWithDocument(ctx, e.visionModel, SystemPromptInvoiceExtractor,
			UserPromptImageExtraction, data, mimeType)
	}
	if err != nil {
		return nil, model.NewExtractionError(e.Name(), "model request failed", err)
	}

	return DecodeRecord(e.Name(), response)
}

// DecodeRecord turns a model response into an InvoiceRecord.
//
// A response without a JSON object is an extraction failure. A JSON object
// whose fields have the wrong shape is a *model.RecordError.
func DecodeRecord(method, response string) (*model.InvoiceRecord, error) {
	body := ExtractJSON(response)
	if !gjson.Valid(body) || !gjson.Parse(body).IsObject() {
		return nil, model.NewExtractionError(method, "response is not a JSON object", model.ErrNotInvoiceDocument)
	}
	return model.ParseInvoiceRecord([]byte(body))
}
