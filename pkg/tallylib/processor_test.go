package tallylib_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/invoice-tally/pkg/tallylib"
)

const saleRecord = `{
	"type": "Sale",
	"invoice_number": "S-100",
	"invoice_date": "15/03/2024",
	"supplier": {"name": "Cash Sales"},
	"customer": {"name": "Books Ltd"},
	"line_items": [{"description": "Service", "quantity": 1, "rate": 500, "amount": 500}],
	"tax_details": {"igst": 90},
	"total_amount": 590
}`

type countingExtractor struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (c *countingExtractor) Name() string { return "counting" }

func (c *countingExtractor) ExtractInvoice(ctx context.Context, data []byte, _ string) (*tallylib.InvoiceRecord, error) {
	c.calls.Add(1)
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}

	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	number := strings.TrimSpace(string(data))
	if number == "fail" {
		return nil, errors.New("model refused")
	}
	return tallylib.ParseRecord([]byte(fmt.Sprintf(`{"type": "Purchase", "invoice_number": %q, "line_items": [], "total_amount": 0}`, number)))
}

func TestCompileJSON(t *testing.T) {
	res, err := tallylib.CompileJSON([]byte(saleRecord))
	require.NoError(t, err)

	assert.Equal(t, "Sales", res.Voucher.VoucherType)
	assert.Equal(t, "20240315", res.Voucher.Date)
	assert.Equal(t, "Books Ltd", res.Voucher.Company)
	assert.Empty(t, res.Findings)
	assert.Contains(t, res.XML, "<SVCURRENTCOMPANY>Books Ltd</SVCURRENTCOMPANY>")
}

func TestCompileJSON_Options(t *testing.T) {
	res, err := tallylib.CompileJSON([]byte(saleRecord),
		tallylib.WithMode(tallylib.ModeMinimal),
		tallylib.WithoutCompany(),
	)
	require.NoError(t, err)

	assert.NotContains(t, res.XML, "STATICVARIABLES")
	assert.Contains(t, res.XML, "<NARRATION>Imported from invoice S-100</NARRATION>")
}

func TestCompileJSON_Malformed(t *testing.T) {
	_, err := tallylib.CompileJSON([]byte(`{"total_amount": {"value": 1}}`))

	var recErr *tallylib.RecordError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, "total_amount", recErr.Path)
}

func TestCompile_Record(t *testing.T) {
	rec := &tallylib.InvoiceRecord{
		TransactionType: tallylib.TransactionDebitNote,
		DocumentNumber:  "DN-7",
		LineItems:       []tallylib.LineItem{},
	}

	res, err := tallylib.Compile(rec, tallylib.WithExtendedVoucherTypes(true))
	require.NoError(t, err)
	assert.Equal(t, "Debit Note", res.Voucher.VoucherType)
}

func TestVerify(t *testing.T) {
	res, err := tallylib.CompileJSON([]byte(saleRecord))
	require.NoError(t, err)

	report, err := tallylib.Verify(context.Background(), strings.NewReader(res.XML))
	require.NoError(t, err)
	require.Len(t, report.Vouchers, 1)
	assert.True(t, report.AllBalanced)
	assert.Equal(t, "S-100", report.Vouchers[0].Number)
}

func TestNewProcessor_WithoutExtraction(t *testing.T) {
	proc, err := tallylib.NewProcessor(context.Background(), tallylib.DefaultOptions())
	require.NoError(t, err)
	defer proc.Close()

	assert.False(t, proc.CanExtract())

	res := proc.CompileJSON([]byte(saleRecord))
	require.NoError(t, res.Error)
	assert.NotEmpty(t, res.XML)

	res = proc.Process(context.Background(), []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0}, "image/jpeg")
	assert.ErrorIs(t, res.Error, tallylib.ErrNoExtractor)
}

func TestNewProcessor_UnknownProvider(t *testing.T) {
	opts := tallylib.DefaultOptions()
	opts.Extraction = tallylib.ExtractorSettings{Provider: "unknown", APIKey: "k"}

	_, err := tallylib.NewProcessor(context.Background(), opts)
	require.Error(t, err)
}

func TestProcessorProcess_InvalidFormat(t *testing.T) {
	proc := tallylib.NewProcessorWithExtractor(&countingExtractor{}, tallylib.DefaultOptions())

	// Random binary data that's not a known format
	res := proc.Process(context.Background(), []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05}, "")
	require.Error(t, res.Error)
	assert.ErrorIs(t, res.Error, tallylib.ErrUnsupportedFormat)
}

func TestProcessBatch(t *testing.T) {
	ext := &countingExtractor{delay: 10 * time.Millisecond}
	opts := tallylib.DefaultOptions()
	opts.Concurrency = 2
	proc := tallylib.NewProcessorWithExtractor(ext, opts)

	docs := make([]tallylib.Document, 0, 6)
	for i := 0; i < 5; i++ {
		docs = append(docs, tallylib.Document{
			Name:     fmt.Sprintf("doc-%d.txt", i),
			Data:     []byte(fmt.Sprintf("P-%d", i)),
			MIMEType: "text/plain",
		})
	}
	docs = append(docs, tallylib.Document{Name: "bad.txt", Data: []byte("fail"), MIMEType: "text/plain"})

	results, err := proc.ProcessBatch(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, results, len(docs))

	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("doc-%d.txt", i), results[i].Name)
		require.NotNil(t, results[i].Result)
		require.NoError(t, results[i].Result.Error)
		assert.Equal(t, fmt.Sprintf("P-%d", i), results[i].Result.Voucher.Number)
	}

	// One failing document does not stop the batch
	last := results[5]
	require.NotNil(t, last.Result)
	var extErr *tallylib.ExtractionError
	assert.True(t, errors.As(last.Result.Error, &extErr))

	assert.Equal(t, int32(6), ext.calls.Load())
	assert.LessOrEqual(t, ext.peak.Load(), int32(2))
}

func TestProcessBatch_Cancelled(t *testing.T) {
	proc := tallylib.NewProcessorWithExtractor(&countingExtractor{delay: time.Second}, tallylib.DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := proc.ProcessBatch(ctx, []tallylib.Document{
		{Name: "a.txt", Data: []byte("A"), MIMEType: "text/plain"},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessBatch_Empty(t *testing.T) {
	proc := tallylib.NewProcessorWithExtractor(nil, tallylib.DefaultOptions())

	results, err := proc.ProcessBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

// Test re-exported types
func TestReExportedTypes(t *testing.T) {
	assert.Equal(t, tallylib.TransactionType("Sale"), tallylib.TransactionSale)
	assert.Equal(t, tallylib.TransactionType("Purchase"), tallylib.TransactionPurchase)
	assert.Equal(t, "full", tallylib.ModeFull.String())
	assert.Equal(t, "minimal", tallylib.ModeMinimal.String())

	var item tallylib.LineItem
	item.Description = "Widget"
	assert.Equal(t, "Widget", item.Description)

	var cp tallylib.Counterparty
	cp.Name = "Acme"
	assert.Equal(t, "Acme", cp.Name)
}
