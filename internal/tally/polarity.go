package tally

import "github.com/rezonia/invoice-tally/internal/model"

// Polarity holds the ISDEEMEDPOSITIVE flag for each side of a voucher.
// Party and Inventory are always opposite; inventory, allocation and tax
// entries share the Inventory flag.
type Polarity struct {
	Party     bool
	Inventory bool
}

// PolarityFor resolves the sign convention for a transaction type.
//
// A sale debits the party (deemed positive) and credits sales and output
// tax. Every other type, including credit and debit notes and unknown
// types, takes the purchase convention.
func PolarityFor(t model.TransactionType) Polarity {
	party := t == model.TransactionSale
	return Polarity{Party: party, Inventory: !party}
}

// VoucherTypeName returns the Tally voucher type for a transaction type
func VoucherTypeName(t model.TransactionType, extended bool) string {
	switch {
	case t == model.TransactionSale:
		return "Sales"
	case extended && t == model.TransactionCreditNote:
		return "Credit Note"
	case extended && t == model.TransactionDebitNote:
		return "Debit Note"
	default:
		return "Purchase"
	}
}

// DefaultLedgerFor is the allocation ledger used when a line has no hint
func DefaultLedgerFor(t model.TransactionType) string {
	if t == model.TransactionSale {
		return SalesLedger
	}
	return PurchaseLedger
}

// YesNo renders a flag the way Tally expects it
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
