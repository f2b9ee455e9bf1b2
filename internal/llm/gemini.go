package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/rezonia/invoice-tally/internal/model"
)

// DefaultGeminiModel is used when no Gemini model is configured
const DefaultGeminiModel = "gemini-flash-latest"

// ErrMissingAPIKey is returned when an adapter is built without credentials
var ErrMissingAPIKey = errors.New("api key is required")

// Gemini extracts invoice records with Google Gemini
type Gemini struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	log       zerolog.Logger
}

// NewGemini creates a Gemini adapter
func NewGemini(ctx context.Context, apiKey, modelName string, log zerolog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	m := client.GenerativeModel(modelName)
	m.SetTemperature(0.1)

	return &Gemini{
		client:    client,
		model:     m,
		modelName: modelName,
		log:       log,
	}, nil
}

// Name identifies the adapter in results and errors
func (g *Gemini) Name() string {
	return "gemini"
}

// ExtractInvoice sends the document inline and decodes the record
func (g *Gemini) ExtractInvoice(ctx context.Context, data []byte, mimeType string) (*model.InvoiceRecord, error) {
	parts := []genai.Part{genai.Text(SystemPromptInvoiceExtractor)}
	if strings.HasPrefix(mimeType, "text/") {
		parts = append(parts, genai.Text(fmt.Sprintf(UserPromptTextExtraction, string(data))))
	} else {
		parts = append(parts,
			genai.Text(UserPromptImageExtraction),
			genai.Blob{MIMEType: mimeType, Data: data},
		)
	}

	g.log.Debug().Str("model", g.modelName).Str("mime", mimeType).Int("bytes", len(data)).Msg("extracting with gemini")

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, model.NewExtractionError(g.Name(), "generate content failed", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, model.NewExtractionError(g.Name(), "no response from gemini", model.ErrNotInvoiceDocument)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return DecodeRecord(g.Name(), text.String())
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
