package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rezonia/invoice-tally/internal/model"
)

// Provider names
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Adapter is an extraction adapter. Close releases any held connection.
type Adapter interface {
	ExtractInvoice(ctx context.Context, data []byte, mimeType string) (*model.InvoiceRecord, error)
	Name() string
	Close() error
}

// Settings selects and configures an adapter
type Settings struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Timeout     time.Duration
	Log         zerolog.Logger
}

// New builds the adapter named by s.Provider. An empty provider means
// OpenAI-compatible.
func New(ctx context.Context, s Settings) (Adapter, error) {
	switch strings.ToLower(s.Provider) {
	case "", ProviderOpenAI:
		if s.APIKey == "" {
			return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
		}
		opts := []ClientOption{WithBaseURL(s.BaseURL), WithDefaultModel(s.Model)}
		if s.Timeout > 0 {
			opts = append(opts, WithTimeout(s.Timeout))
		}
		client := NewClient(s.APIKey, opts...)
		return NewExtractor(client,
			WithModel(s.Model),
			WithVisionModel(s.VisionModel),
			WithLogger(s.Log),
		), nil

	case ProviderGemini:
		return NewGemini(ctx, s.APIKey, s.Model, s.Log)

	default:
		return nil, fmt.Errorf("unknown extraction provider %q", s.Provider)
	}
}
