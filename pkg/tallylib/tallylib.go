// Package tallylib provides a public API for turning invoices into Tally ERP
// import vouchers.
//
// Invoice records can be compiled directly, or documents (PDF, image, text)
// can be sent through an extraction adapter first.
//
// Example usage:
//
//	res, err := tallylib.CompileJSON(data, tallylib.WithMode(tallylib.ModeMinimal))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("voucher.xml", []byte(res.XML), 0644)
package tallylib

import (
	"context"
	"io"

	"github.com/rezonia/invoice-tally/internal/model"
	"github.com/rezonia/invoice-tally/internal/parser/tallyxml"
	"github.com/rezonia/invoice-tally/internal/tally"
)

// Re-export core types for public API
type (
	InvoiceRecord   = model.InvoiceRecord
	Counterparty    = model.Counterparty
	LineItem        = model.LineItem
	TaxBreakdown    = model.TaxBreakdown
	TransactionType = model.TransactionType

	Voucher        = tally.Voucher
	LedgerEntry    = tally.LedgerEntry
	InventoryEntry = tally.InventoryEntry
	CompileResult  = tally.Result
	Mode           = tally.Mode
	CompilerOption = tally.Option

	Envelope = tallyxml.Envelope
	Report   = tallyxml.Report
)

// Re-export transaction types
const (
	TransactionSale       = model.TransactionSale
	TransactionPurchase   = model.TransactionPurchase
	TransactionCreditNote = model.TransactionCreditNote
	TransactionDebitNote  = model.TransactionDebitNote
	TransactionUnknown    = model.TransactionUnknown
)

// Re-export output modes
const (
	ModeFull    = tally.ModeFull
	ModeMinimal = tally.ModeMinimal
)

// Re-export compiler options
var (
	WithMode                 = tally.WithMode
	WithCompany              = tally.WithCompany
	WithoutCompany           = tally.WithoutCompany
	WithDefaultVoucherNumber = tally.WithDefaultVoucherNumber
	WithDefaultReference     = tally.WithDefaultReference
	WithExtendedVoucherTypes = tally.WithExtendedVoucherTypes
)

// Re-export error types
type (
	RecordError     = model.RecordError
	ValidationError = model.ValidationError
	ExtractionError = model.ExtractionError
)

// Re-export sentinel errors
var (
	ErrNoExtractor       = model.ErrNoExtractor
	ErrEmptyDocument     = model.ErrEmptyDocument
	ErrUnsupportedFormat = model.ErrUnsupportedFormat
	ErrTooManyPages      = model.ErrTooManyPages
)

// ParseRecord decodes invoice record JSON
func ParseRecord(data []byte) (*InvoiceRecord, error) {
	return model.ParseInvoiceRecord(data)
}

// Compile compiles a record into a voucher and its import XML
func Compile(rec *InvoiceRecord, opts ...CompilerOption) (*CompileResult, error) {
	return tally.NewCompiler(opts...).Compile(rec)
}

// CompileJSON parses and compiles invoice record JSON
func CompileJSON(data []byte, opts ...CompilerOption) (*CompileResult, error) {
	rec, err := model.ParseInvoiceRecord(data)
	if err != nil {
		return nil, err
	}
	return Compile(rec, opts...)
}

// Verify reads a Tally import envelope and checks every voucher balances
func Verify(ctx context.Context, r io.Reader) (*Report, error) {
	env, err := tallyxml.Parse(ctx, r)
	if err != nil {
		return nil, err
	}
	return tallyxml.Verify(env, tallyxml.DefaultTolerance), nil
}
