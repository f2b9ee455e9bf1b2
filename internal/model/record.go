package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionType represents the accounting nature of an invoice
type TransactionType string

const (
	TransactionSale       TransactionType = "Sale"
	TransactionPurchase   TransactionType = "Purchase"
	TransactionCreditNote TransactionType = "CreditNote"
	TransactionDebitNote  TransactionType = "DebitNote"
	TransactionUnknown    TransactionType = ""
)

// ParseTransactionType maps the loosely worded type emitted by the
// extractor onto a known transaction type. Unrecognized input yields
// TransactionUnknown.
func ParseTransactionType(s string) TransactionType {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(norm)

	switch norm {
	case "sale", "sales":
		return TransactionSale
	case "purchase", "purchases":
		return TransactionPurchase
	case "creditnote":
		return TransactionCreditNote
	case "debitnote":
		return TransactionDebitNote
	default:
		return TransactionUnknown
	}
}

// Known reports whether the type is one of the recognized transaction types
func (t TransactionType) Known() bool {
	switch t {
	case TransactionSale, TransactionPurchase, TransactionCreditNote, TransactionDebitNote:
		return true
	default:
		return false
	}
}

// InvoiceRecord is the best-effort invoice extracted from a scanned
// document. Every field may be missing; nil pointers mean "absent".
type InvoiceRecord struct {
	TransactionType TransactionType `json:"type,omitempty"`
	// RawType keeps the extractor's original wording for the type field
	RawType string `json:"-"`

	DocumentNumber string `json:"invoice_number,omitempty"`
	DocumentDate   string `json:"invoice_date,omitempty"`

	Supplier Counterparty `json:"supplier"`
	Customer Counterparty `json:"customer"`

	// LineItems is nil when the field was absent from the source record
	LineItems []LineItem `json:"line_items"`

	TaxBreakdown TaxBreakdown `json:"tax_details"`

	GrandTotal *decimal.Decimal `json:"total_amount,omitempty"`
}

// Counterparty is a supplier or customer as printed on the invoice
type Counterparty struct {
	Name  string  `json:"name,omitempty"`
	TaxID *string `json:"gstin"`
}

// LineItem is a single billed line
type LineItem struct {
	Description string           `json:"description,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	Unit        string           `json:"unit,omitempty"`
	Rate        *decimal.Decimal `json:"rate,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	// LedgerHint is the suggested accounting ledger, e.g. "Purchase @ 18%"
	LedgerHint string `json:"tally_ledger,omitempty"`
}

// TaxBreakdown holds the GST components. Absent components are nil.
type TaxBreakdown struct {
	CGST     *decimal.Decimal `json:"cgst,omitempty"`
	SGST     *decimal.Decimal `json:"sgst,omitempty"`
	IGST     *decimal.Decimal `json:"igst,omitempty"`
	TotalTax *decimal.Decimal `json:"total_tax,omitempty"`
}

// Dec returns a pointer to d, handy for building records in code
func Dec(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// ValueOrZero dereferences an optional amount
func ValueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
