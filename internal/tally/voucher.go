package tally

import (
	"github.com/shopspring/decimal"

	"github.com/rezonia/invoice-tally/internal/model"
	money "github.com/rezonia/invoice-tally/internal/decimal"
)

// LedgerEntry is a LEDGERENTRIES.LIST or ACCOUNTINGALLOCATIONS.LIST block
type LedgerEntry struct {
	LedgerName     string          `json:"ledger_name"`
	DeemedPositive bool            `json:"is_deemed_positive"`
	IsPartyLedger  bool            `json:"is_party_ledger"`
	Amount         decimal.Decimal `json:"amount"`
}

// InventoryEntry is an ALLINVENTORYENTRIES.LIST block. Rate and Quantity
// hold the rendered "5/Pcs" and "10 Pcs" forms.
type InventoryEntry struct {
	StockItem      string          `json:"stock_item"`
	DeemedPositive bool            `json:"is_deemed_positive"`
	Rate           string          `json:"rate"`
	Quantity       string          `json:"quantity"`
	Amount         decimal.Decimal `json:"amount"`
	Allocation     LedgerEntry     `json:"accounting_allocation"`
}

// Voucher is a compiled accounting voucher. It is built once by the
// Compiler and not modified afterwards.
type Voucher struct {
	TransactionType model.TransactionType `json:"transaction_type"`
	VoucherType     string                `json:"voucher_type"`
	Date            string                `json:"date"`
	Number          string                `json:"number"`
	Reference       string                `json:"reference"`
	// Company is empty when the company context is omitted
	Company   string           `json:"company,omitempty"`
	Narration string           `json:"narration,omitempty"`
	Polarity  Polarity         `json:"-"`
	Party     LedgerEntry      `json:"party"`
	Inventory []InventoryEntry `json:"inventory,omitempty"`
	Taxes     []LedgerEntry    `json:"taxes,omitempty"`
}

// SignedAmounts lists every posted amount: party, then inventory, then taxes.
// Allocation amounts mirror their inventory line and are not listed.
func (v *Voucher) SignedAmounts() []decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, 1+len(v.Inventory)+len(v.Taxes))
	amounts = append(amounts, v.Party.Amount)
	for _, inv := range v.Inventory {
		amounts = append(amounts, inv.Amount)
	}
	for _, tax := range v.Taxes {
		amounts = append(amounts, tax.Amount)
	}
	return amounts
}

// Balance returns the sum of all signed amounts; zero for a balanced voucher
func (v *Voucher) Balance() decimal.Decimal {
	return money.Sum(v.SignedAmounts())
}

// IsBalanced reports whether the voucher balances within tol
func (v *Voucher) IsBalanced(tol decimal.Decimal) bool {
	return money.WithinTolerance(v.Balance(), tol)
}
