// Package tallyxml reads Tally ERP import envelopes back into vouchers so
// generated or third-party files can be inspected and balance-checked.
package tallyxml

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// ErrNoVouchers is returned when a document contains no VOUCHER element
var ErrNoVouchers = errors.New("no VOUCHER elements found")

// ParseError reports a document that cannot be read as a Tally envelope
type ParseError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tally xml parse error at %s: %s (%v)", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("tally xml parse error at %s: %s", e.Field, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

func newParseError(field, message string, cause error) *ParseError {
	return &ParseError{Field: field, Message: message, Cause: cause}
}

// EntryKind classifies a posted entry
type EntryKind string

const (
	EntryParty     EntryKind = "party"
	EntryInventory EntryKind = "inventory"
	EntryLedger    EntryKind = "ledger"
)

// Entry is a LEDGERENTRIES.LIST or ALLINVENTORYENTRIES.LIST block
type Entry struct {
	Kind           EntryKind       `json:"kind"`
	Name           string          `json:"name"`
	DeemedPositive bool            `json:"is_deemed_positive"`
	Amount         decimal.Decimal `json:"amount"`
	Quantity       string          `json:"quantity,omitempty"`
	Rate           string          `json:"rate,omitempty"`
	// Allocations holds ACCOUNTINGALLOCATIONS.LIST of an inventory entry
	Allocations []Entry `json:"allocations,omitempty"`
}

// Voucher is a voucher read from an envelope
type Voucher struct {
	VoucherType string  `json:"voucher_type"`
	Action      string  `json:"action,omitempty"`
	Date        string  `json:"date"`
	Number      string  `json:"number"`
	Reference   string  `json:"reference,omitempty"`
	Party       string  `json:"party"`
	Narration   string  `json:"narration,omitempty"`
	Entries     []Entry `json:"entries"`
}

// Envelope is a parsed import document
type Envelope struct {
	Request  string    `json:"request,omitempty"`
	Report   string    `json:"report,omitempty"`
	Company  string    `json:"company,omitempty"`
	Vouchers []Voucher `json:"vouchers"`
}

// Parse reads an import envelope
func Parse(ctx context.Context, r io.Reader) (*Envelope, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, newParseError("document", "invalid XML", err)
	}
	return parseDocument(ctx, doc)
}

// ParseBytes reads an import envelope from memory
func ParseBytes(ctx context.Context, data []byte) (*Envelope, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, newParseError("document", "invalid XML", err)
	}
	return parseDocument(ctx, doc)
}

func parseDocument(ctx context.Context, doc *etree.Document) (*Envelope, error) {
	root := doc.Root()
	if root == nil || root.Tag != "ENVELOPE" {
		return nil, newParseError("ENVELOPE", "root element is not ENVELOPE", nil)
	}

	env := &Envelope{
		Request: textAt(root, "HEADER/TALLYREQUEST"),
		Report:  textAt(root, ".//REQUESTDESC/REPORTNAME"),
		Company: textAt(root, ".//STATICVARIABLES/SVCURRENTCOMPANY"),
	}

	for i, el := range root.FindElements(".//VOUCHER") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		v, err := parseVoucher(el, i)
		if err != nil {
			return nil, err
		}
		env.Vouchers = append(env.Vouchers, v)
	}

	if len(env.Vouchers) == 0 {
		return nil, ErrNoVouchers
	}

	return env, nil
}

func parseVoucher(el *etree.Element, idx int) (Voucher, error) {
	v := Voucher{
		VoucherType: el.SelectAttrValue("VCHTYPE", ""),
		Action:      el.SelectAttrValue("ACTION", ""),
		Date:        textAt(el, "DATE"),
		Number:      textAt(el, "VOUCHERNUMBER"),
		Reference:   textAt(el, "REFERENCE"),
		Party:       textAt(el, "PARTYLEDGERNAME"),
		Narration:   textAt(el, "NARRATION"),
	}
	if name := textAt(el, "VOUCHERTYPENAME"); name != "" {
		v.VoucherType = name
	}

	// Tally exports use ALLLEDGERENTRIES.LIST and INVENTORYENTRIES.LIST
	// for the same blocks.
	for _, child := range el.ChildElements() {
		path := fmt.Sprintf("VOUCHER[%d]/%s", idx, child.Tag)

		switch child.Tag {
		case "LEDGERENTRIES.LIST", "ALLLEDGERENTRIES.LIST":
			e, err := parseLedger(child, path)
			if err != nil {
				return v, err
			}
			v.Entries = append(v.Entries, e)

		case "ALLINVENTORYENTRIES.LIST", "INVENTORYENTRIES.LIST":
			e, err := parseInventory(child, path)
			if err != nil {
				return v, err
			}
			v.Entries = append(v.Entries, e)
		}
	}

	return v, nil
}

func parseLedger(el *etree.Element, path string) (Entry, error) {
	amount, err := amountAt(el, path)
	if err != nil {
		return Entry{}, err
	}

	kind := EntryLedger
	if isYes(textAt(el, "ISPARTYLEDGER")) {
		kind = EntryParty
	}

	return Entry{
		Kind:           kind,
		Name:           textAt(el, "LEDGERNAME"),
		DeemedPositive: isYes(textAt(el, "ISDEEMEDPOSITIVE")),
		Amount:         amount,
	}, nil
}

func parseInventory(el *etree.Element, path string) (Entry, error) {
	amount, err := amountAt(el, path)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		Kind:           EntryInventory,
		Name:           textAt(el, "STOCKITEMNAME"),
		DeemedPositive: isYes(textAt(el, "ISDEEMEDPOSITIVE")),
		Amount:         amount,
		Quantity:       textAt(el, "BILLEDQTY"),
		Rate:           textAt(el, "RATE"),
	}

	for _, alloc := range el.SelectElements("ACCOUNTINGALLOCATIONS.LIST") {
		a, err := parseLedger(alloc, path+"/ACCOUNTINGALLOCATIONS.LIST")
		if err != nil {
			return e, err
		}
		e.Allocations = append(e.Allocations, a)
	}

	return e, nil
}

func amountAt(el *etree.Element, path string) (decimal.Decimal, error) {
	raw := textAt(el, "AMOUNT")
	if raw == "" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, newParseError(path+"/AMOUNT", fmt.Sprintf("invalid amount %q", raw), err)
	}
	return d, nil
}

func textAt(el *etree.Element, path string) string {
	found := el.FindElement(path)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.Text())
}

func isYes(s string) bool {
	return strings.EqualFold(s, "Yes")
}
