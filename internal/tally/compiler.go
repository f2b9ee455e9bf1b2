// Package tally compiles extracted invoice records into Tally ERP import
// vouchers.
//
// Compilation is pure: a Compiler holds only its options, performs no I/O
// and may be shared between goroutines.
package tally

import (
	"fmt"

	"github.com/shopspring/decimal"

	money "github.com/rezonia/invoice-tally/internal/decimal"
	"github.com/rezonia/invoice-tally/internal/model"
)

// Compiler turns InvoiceRecords into vouchers and XML
type Compiler struct {
	opts Options
}

// Result is a compiled voucher with its XML and non-fatal findings
type Result struct {
	Voucher  *Voucher                 `json:"voucher"`
	XML      string                   `json:"tally_xml"`
	Findings []*model.ValidationError `json:"validation_errors"`
}

// NewCompiler creates a compiler
func NewCompiler(opts ...Option) *Compiler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Compiler{opts: o}
}

// Options returns the compiler configuration
func (c *Compiler) Options() Options {
	return c.opts
}

// Mode returns the configured output mode
func (c *Compiler) Mode() Mode {
	return c.opts.Mode
}

// WithOptions returns a compiler with extra options applied on top of c's
func (c *Compiler) WithOptions(opts ...Option) *Compiler {
	o := c.opts
	for _, opt := range opts {
		opt(&o)
	}
	return &Compiler{opts: o}
}

// Compile builds and serializes a voucher
func (c *Compiler) Compile(rec *model.InvoiceRecord) (*Result, error) {
	v, findings, err := c.Build(rec)
	if err != nil {
		return nil, err
	}

	xml, err := Serialize(v, c.opts.Mode)
	if err != nil {
		return nil, err
	}

	return &Result{Voucher: v, XML: xml, Findings: findings}, nil
}

// Build constructs the voucher for rec. Missing fields are defaulted and
// reported as findings; a record whose shape cannot yield a voucher fails
// with a *model.RecordError.
func (c *Compiler) Build(rec *model.InvoiceRecord) (*Voucher, []*model.ValidationError, error) {
	if rec == nil {
		return nil, nil, model.NewRecordError("$", "no invoice record", nil)
	}

	b := &builder{opts: c.opts, rec: rec, pol: PolarityFor(rec.TransactionType)}
	v, err := b.build()
	if err != nil {
		return nil, nil, err
	}
	return v, b.findings, nil
}

type builder struct {
	opts     Options
	rec      *model.InvoiceRecord
	pol      Polarity
	findings []*model.ValidationError
}

func (b *builder) report(field string, value interface{}, rule, message string) {
	b.findings = append(b.findings, model.NewValidationError(field, value, rule, message))
}

func (b *builder) build() (*Voucher, error) {
	rec := b.rec

	if !rec.TransactionType.Known() {
		var raw interface{}
		if rec.RawType != "" {
			raw = rec.RawType
		}
		b.report("type", raw, "enum", "unrecognized transaction type, purchase convention applied")
	}

	v := &Voucher{
		TransactionType: rec.TransactionType,
		VoucherType:     VoucherTypeName(rec.TransactionType, b.opts.ExtendedVoucherTypes),
		Polarity:        b.pol,
		Number:          rec.DocumentNumber,
		Reference:       rec.DocumentNumber,
	}

	if rec.DocumentNumber == "" {
		b.report("invoice_number", nil, "required", "invoice number is missing")
		v.Number = b.opts.DefaultVoucherNumber
		v.Reference = b.opts.reference()
	}

	date, ok := FormatDate(rec.DocumentDate)
	if !ok {
		if rec.DocumentDate == "" {
			b.report("invoice_date", nil, "required", "invoice date is missing, placeholder used")
		} else {
			b.report("invoice_date", rec.DocumentDate, "format", "invoice date not recognized, placeholder used")
		}
	}
	v.Date = date

	v.Company = b.company()
	v.Party = b.partyEntry()

	if b.opts.Mode == ModeMinimal {
		v.Narration = fmt.Sprintf("Imported from invoice %s", v.Reference)
		return v, nil
	}

	inventory, err := b.inventoryEntries()
	if err != nil {
		return nil, err
	}
	v.Inventory = inventory
	v.Taxes = b.taxEntries()

	if balance := v.Balance(); !money.WithinTolerance(balance, money.BalanceTolerance) {
		b.report("voucher", money.Format(balance), "balance",
			"signed amounts do not sum to zero, check extracted totals")
	}

	return v, nil
}

func (b *builder) company() string {
	switch {
	case b.opts.OmitCompany:
		return ""
	case b.opts.Company != "":
		return b.opts.Company
	case b.rec.Customer.Name != "":
		return b.rec.Customer.Name
	default:
		b.report("customer.name", nil, "required", "customer name is missing, default company used")
		return DefaultCompany
	}
}

func (b *builder) partyEntry() LedgerEntry {
	name := b.rec.Supplier.Name
	if name == "" {
		b.report("supplier.name", nil, "required", "supplier name is missing, party ledger defaults to "+DefaultPartyLedger)
		name = DefaultPartyLedger
	}

	switch {
	case b.rec.GrandTotal == nil:
		b.report("total_amount", nil, "required", "total amount is missing")
	case b.rec.GrandTotal.IsNegative():
		b.report("total_amount", money.Format(*b.rec.GrandTotal), "range", "total amount is negative")
	}

	return LedgerEntry{
		LedgerName:     name,
		DeemedPositive: b.pol.Party,
		IsPartyLedger:  true,
		Amount:         money.Signed(model.ValueOrZero(b.rec.GrandTotal), b.pol.Party),
	}
}

func (b *builder) inventoryEntries() ([]InventoryEntry, error) {
	if b.rec.LineItems == nil {
		return nil, model.NewRecordError("line_items", "line items are missing", nil)
	}

	defaultLedger := DefaultLedgerFor(b.rec.TransactionType)
	entries := make([]InventoryEntry, 0, len(b.rec.LineItems))

	for i, item := range b.rec.LineItems {
		path := fmt.Sprintf("line_items[%d]", i)

		name := item.Description
		if name == "" {
			b.report(path+".description", nil, "required", "line description is missing")
			name = DefaultStockItem
		}

		unit := item.Unit
		if unit == "" {
			unit = DefaultUnit
		}

		qty := b.requiredNumber(item.Quantity, path+".quantity", "quantity")
		rate := b.requiredNumber(item.Rate, path+".rate", "rate")
		amount := money.Signed(b.requiredNumber(item.Amount, path+".amount", "amount"), b.pol.Inventory)

		ledger := item.LedgerHint
		if ledger == "" {
			ledger = defaultLedger
		}

		entries = append(entries, InventoryEntry{
			StockItem:      name,
			DeemedPositive: b.pol.Inventory,
			Rate:           money.Format(rate) + "/" + unit,
			Quantity:       money.Format(qty) + " " + unit,
			Amount:         amount,
			Allocation: LedgerEntry{
				LedgerName:     ledger,
				DeemedPositive: b.pol.Inventory,
				Amount:         amount,
			},
		})
	}

	return entries, nil
}

func (b *builder) requiredNumber(d *decimal.Decimal, path, label string) decimal.Decimal {
	if d == nil {
		b.report(path, nil, "required", "line "+label+" is missing, zero used")
		return money.Zero
	}
	if d.IsNegative() {
		b.report(path, money.Format(*d), "range", "line "+label+" is negative")
	}
	return *d
}

func (b *builder) taxEntries() []LedgerEntry {
	tb := b.rec.TaxBreakdown
	components := []struct {
		name  string
		field string
		value *decimal.Decimal
	}{
		{"CGST", "tax_details.cgst", tb.CGST},
		{"SGST", "tax_details.sgst", tb.SGST},
		{"IGST", "tax_details.igst", tb.IGST},
	}

	var (
		entries []LedgerEntry
		sum     = money.Zero
	)
	for _, comp := range components {
		if comp.value == nil {
			continue
		}
		sum = sum.Add(*comp.value)

		if comp.value.IsNegative() {
			b.report(comp.field, money.Format(*comp.value), "range", comp.name+" is negative and was not posted")
			continue
		}
		if !money.IsPositive(*comp.value) {
			continue
		}

		entries = append(entries, LedgerEntry{
			LedgerName:     comp.name,
			DeemedPositive: b.pol.Inventory,
			Amount:         money.Signed(*comp.value, b.pol.Inventory),
		})
	}

	if tb.TotalTax != nil && !money.WithinTolerance(tb.TotalTax.Sub(sum), money.BalanceTolerance) {
		b.report("tax_details.total_tax", money.Format(*tb.TotalTax), "consistency",
			fmt.Sprintf("total tax does not match cgst+sgst+igst (%s)", money.Format(sum)))
	}

	return entries
}
