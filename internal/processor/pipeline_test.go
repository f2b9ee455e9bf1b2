package processor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/invoice-tally/internal/model"
	"github.com/rezonia/invoice-tally/internal/processor"
	"github.com/rezonia/invoice-tally/internal/tally"
)

type fakeExtractor struct {
	rec      *model.InvoiceRecord
	err      error
	gotMIME  string
	gotBytes int
}

func (f *fakeExtractor) ExtractInvoice(ctx context.Context, data []byte, mimeType string) (*model.InvoiceRecord, error) {
	f.gotMIME = mimeType
	f.gotBytes = len(data)
	return f.rec, f.err
}

func (f *fakeExtractor) Name() string { return "fake" }

func dec(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func sampleRecord() *model.InvoiceRecord {
	return &model.InvoiceRecord{
		TransactionType: model.TransactionSale,
		DocumentNumber:  "S-9",
		DocumentDate:    "2024-04-01",
		Supplier:        model.Counterparty{Name: "Zen Ltd"},
		Customer:        model.Counterparty{Name: "Books Co"},
		LineItems: []model.LineItem{
			{Description: "Desk", Quantity: dec("1"), Rate: dec("100"), Amount: dec("100")},
		},
		TaxBreakdown: model.TaxBreakdown{IGST: dec("18")},
		GrandTotal:   dec("118"),
	}
}

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}

func TestNewPipeline(t *testing.T) {
	p := processor.NewPipeline()
	require.NotNil(t, p)
	assert.False(t, p.HasExtractor())
	assert.NotNil(t, p.Compiler())
}

func TestNewPipeline_WithOptions(t *testing.T) {
	c := tally.NewCompiler(tally.WithMode(tally.ModeMinimal))
	p := processor.NewPipeline(
		processor.WithExtractor(&fakeExtractor{}),
		processor.WithCompiler(c),
		processor.WithMaxPDFPages(2),
	)
	assert.True(t, p.HasExtractor())
	assert.Same(t, c, p.Compiler())
}

func TestProcess_Image(t *testing.T) {
	ext := &fakeExtractor{rec: sampleRecord()}
	p := processor.NewPipeline(processor.WithExtractor(ext))

	result := p.Process(context.Background(), pngHeader, "image/png")
	require.NoError(t, result.Error)

	assert.Equal(t, processor.FormatImage, result.Format)
	assert.Equal(t, processor.MethodLLMVision, result.Method)
	assert.Equal(t, "fake", result.Adapter)
	assert.Equal(t, "image/png", ext.gotMIME)
	assert.Equal(t, len(pngHeader), ext.gotBytes)

	require.NotNil(t, result.Voucher)
	assert.Equal(t, "Sales", result.Voucher.VoucherType)
	assert.True(t, result.Voucher.Balance().IsZero())
	assert.Contains(t, result.XML, "<VOUCHERNUMBER>S-9</VOUCHERNUMBER>")
	assert.Empty(t, result.Findings)
}

func TestProcess_SniffsMIME(t *testing.T) {
	ext := &fakeExtractor{rec: sampleRecord()}
	p := processor.NewPipeline(processor.WithExtractor(ext))

	result := p.Process(context.Background(), pngHeader, "")
	require.NoError(t, result.Error)
	assert.Equal(t, "image/png", ext.gotMIME)
}

func TestProcess_Text(t *testing.T) {
	ext := &fakeExtractor{rec: sampleRecord()}
	p := processor.NewPipeline(processor.WithExtractor(ext))

	result := p.Process(context.Background(), []byte("TAX INVOICE S-9 total 118"), "text/plain; charset=utf-8")
	require.NoError(t, result.Error)
	assert.Equal(t, processor.MethodLLMText, result.Method)
}

func TestProcess_RecordJSON(t *testing.T) {
	p := processor.NewPipeline()

	data := []byte(`{"type": "Purchase", "invoice_number": "INV-42", "supplier": {"name": "Acme Co"},
		"line_items": [{"description": "Widget", "quantity": 10, "unit": "Pcs", "rate": 5, "amount": 50}],
		"tax_details": {"cgst": 4.5, "sgst": 4.5}, "total_amount": 59}`)

	result := p.Process(context.Background(), data, "application/json")
	require.NoError(t, result.Error)
	assert.Equal(t, processor.MethodRecord, result.Method)
	assert.Empty(t, result.Adapter)
	assert.True(t, result.Voucher.Party.Amount.Equal(decimal.NewFromInt(59)))
}

func TestProcess_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		result := processor.NewPipeline().Process(ctx, nil, "")
		require.ErrorIs(t, result.Error, model.ErrEmptyDocument)
	})

	t.Run("no extractor", func(t *testing.T) {
		result := processor.NewPipeline().Process(ctx, pngHeader, "image/png")
		require.ErrorIs(t, result.Error, model.ErrNoExtractor)
	})

	t.Run("unsupported", func(t *testing.T) {
		result := processor.NewPipeline().Process(ctx, []byte("some random bytes"), "application/zip")
		require.ErrorIs(t, result.Error, model.ErrUnsupportedFormat)
	})

	t.Run("xml", func(t *testing.T) {
		result := processor.NewPipeline().Process(ctx, []byte("<ENVELOPE/>"), "")
		require.ErrorIs(t, result.Error, model.ErrUnsupportedFormat)
	})

	t.Run("malformed record json", func(t *testing.T) {
		result := processor.NewPipeline().Process(ctx, []byte(`{"line_items": "none"}`), "")
		var recErr *model.RecordError
		require.True(t, errors.As(result.Error, &recErr))
		assert.Equal(t, "line_items", recErr.Path)
	})

	t.Run("extractor failure is wrapped", func(t *testing.T) {
		ext := &fakeExtractor{err: errors.New("quota exceeded")}
		result := processor.NewPipeline(processor.WithExtractor(ext)).Process(ctx, pngHeader, "image/png")

		var extErr *model.ExtractionError
		require.True(t, errors.As(result.Error, &extErr))
		assert.Equal(t, "fake", extErr.Method)
		assert.Nil(t, result.Voucher)
	})

	t.Run("record error passes through", func(t *testing.T) {
		ext := &fakeExtractor{err: model.NewRecordError("total_amount", "not a number", nil)}
		result := processor.NewPipeline(processor.WithExtractor(ext)).Process(ctx, pngHeader, "image/png")

		var recErr *model.RecordError
		require.True(t, errors.As(result.Error, &recErr))
	})

	t.Run("missing line items from extractor", func(t *testing.T) {
		rec := sampleRecord()
		rec.LineItems = nil
		result := processor.NewPipeline(processor.WithExtractor(&fakeExtractor{rec: rec})).Process(ctx, pngHeader, "image/png")

		var recErr *model.RecordError
		require.True(t, errors.As(result.Error, &recErr))
		assert.NotNil(t, result.Record)
	})
}

func TestProcess_PDFPageLimit(t *testing.T) {
	ext := &fakeExtractor{rec: sampleRecord()}
	pdf := minimalPDF(3)

	p := processor.NewPipeline(processor.WithExtractor(ext), processor.WithMaxPDFPages(2))
	result := p.Process(context.Background(), pdf, "")
	require.ErrorIs(t, result.Error, model.ErrTooManyPages)
	assert.Equal(t, 0, ext.gotBytes)

	p = processor.NewPipeline(processor.WithExtractor(ext), processor.WithMaxPDFPages(3))
	result = p.Process(context.Background(), pdf, "")
	require.NoError(t, result.Error)
	assert.Equal(t, "application/pdf", ext.gotMIME)
}

func TestPageCount(t *testing.T) {
	n, err := processor.PageCount(minimalPDF(2))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = processor.PageCount([]byte("%PDF-1.4 truncated"))
	require.Error(t, err)
}

func TestCompileRecord(t *testing.T) {
	p := processor.NewPipeline(processor.WithCompiler(tally.NewCompiler(tally.WithMode(tally.ModeMinimal))))

	result := p.CompileRecord(sampleRecord())
	require.NoError(t, result.Error)
	assert.Contains(t, result.XML, "<NARRATION>")
	assert.NotContains(t, result.XML, "ALLINVENTORYENTRIES.LIST")
}

func TestCompileJSON(t *testing.T) {
	p := processor.NewPipeline()

	result := p.CompileJSON([]byte(`{"type": "Sales", "line_items": []}`))
	require.NoError(t, result.Error)
	assert.NotEmpty(t, result.Findings)

	result = p.CompileJSON(nil)
	require.ErrorIs(t, result.Error, model.ErrEmptyDocument)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected processor.Format
	}{
		{"XML with declaration", []byte(`<?xml version="1.0"?><ENVELOPE/>`), processor.FormatXML},
		{"XML without declaration", []byte(`<ENVELOPE><BODY/></ENVELOPE>`), processor.FormatXML},
		{"PDF", []byte("%PDF-1.4\n%some content"), processor.FormatPDF},
		{"PNG image", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, processor.FormatImage},
		{"JPEG image", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}, processor.FormatImage},
		{"TIFF little-endian", []byte{0x49, 0x49, 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00}, processor.FormatImage},
		{"TIFF big-endian", []byte{0x4D, 0x4D, 0x00, 0x2A, 0x00, 0x00, 0x00, 0x08}, processor.FormatImage},
		{"WEBP", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), processor.FormatImage},
		{"JSON record", []byte(`  {"type": "Sales"}`), processor.FormatJSON},
		{"Unknown format", []byte("some random text"), processor.FormatUnknown},
		{"Empty data", []byte{}, processor.FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, processor.DetectFormat(tt.data))
		})
	}
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "image/png", processor.DetectMIME(pngHeader))
	assert.Equal(t, "application/pdf", processor.DetectMIME(minimalPDF(1)))
	assert.Equal(t, "text/plain", processor.DetectMIME([]byte("hello world")))
}

func TestFormatString(t *testing.T) {
	tests := []struct {
		format   processor.Format
		expected string
	}{
		{processor.FormatXML, "xml"},
		{processor.FormatPDF, "pdf"},
		{processor.FormatImage, "image"},
		{processor.FormatJSON, "json"},
		{processor.FormatText, "text"},
		{processor.FormatUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.format.String())
		})
	}
}

func TestExtractionMethod(t *testing.T) {
	assert.Equal(t, processor.ExtractionMethod("record"), processor.MethodRecord)
	assert.Equal(t, processor.ExtractionMethod("llm_text"), processor.MethodLLMText)
	assert.Equal(t, processor.ExtractionMethod("llm_vision"), processor.MethodLLMVision)
}

func BenchmarkDetectFormat_PDF(b *testing.B) {
	data := []byte("%PDF-1.4\n%some content here")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		processor.DetectFormat(data)
	}
}

func BenchmarkCompileRecord(b *testing.B) {
	p := processor.NewPipeline()
	rec := sampleRecord()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.CompileRecord(rec)
	}
}
