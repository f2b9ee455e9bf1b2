package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// ParseInvoiceRecord decodes the extractor's JSON into an InvoiceRecord.
//
// Absent and null fields are left empty so the compiler can apply its
// defaults. A field whose shape cannot be an invoice value (an object where
// a number belongs, a non-numeric amount, a line_items that is not an
// array) fails with a *RecordError naming the field path.
func ParseInvoiceRecord(data []byte) (*InvoiceRecord, error) {
	if !gjson.ValidBytes(data) {
		return nil, NewRecordError("$", "invalid JSON", nil)
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, NewRecordError("$", "expected a JSON object", nil)
	}

	rec := &InvoiceRecord{}
	var err error

	if rec.RawType, err = stringAt(root, "type"); err != nil {
		return nil, err
	}
	rec.TransactionType = ParseTransactionType(rec.RawType)

	if rec.DocumentNumber, err = stringAt(root, "invoice_number"); err != nil {
		return nil, err
	}
	if rec.DocumentDate, err = stringAt(root, "invoice_date"); err != nil {
		return nil, err
	}
	if rec.Supplier, err = parseCounterparty(root, "supplier"); err != nil {
		return nil, err
	}
	if rec.Customer, err = parseCounterparty(root, "customer"); err != nil {
		return nil, err
	}
	if rec.LineItems, err = parseLineItems(root); err != nil {
		return nil, err
	}
	if rec.TaxBreakdown, err = parseTaxBreakdown(root); err != nil {
		return nil, err
	}
	if rec.GrandTotal, err = numberAt(root, "total_amount", "total_amount"); err != nil {
		return nil, err
	}

	return rec, nil
}

func parseCounterparty(root gjson.Result, key string) (Counterparty, error) {
	var cp Counterparty

	obj, err := objectAt(root, key)
	if err != nil || !obj.Exists() {
		return cp, err
	}

	if cp.Name, err = stringAt(obj, "name", key+".name"); err != nil {
		return cp, err
	}

	taxID, err := stringAt(obj, "gstin", key+".gstin")
	if err != nil {
		return cp, err
	}
	if taxID != "" {
		cp.TaxID = &taxID
	}

	return cp, nil
}

func parseLineItems(root gjson.Result) ([]LineItem, error) {
	v := root.Get("line_items")
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, NewRecordError("line_items", fmt.Sprintf("expected an array, got %s", describe(v)), nil)
	}

	items := make([]LineItem, 0, len(v.Array()))
	for i, raw := range v.Array() {
		path := fmt.Sprintf("line_items[%d]", i)
		if !raw.IsObject() {
			return nil, NewRecordError(path, fmt.Sprintf("expected an object, got %s", describe(raw)), nil)
		}

		var item LineItem
		var err error
		if item.Description, err = stringAt(raw, "description", path+".description"); err != nil {
			return nil, err
		}
		if item.Unit, err = stringAt(raw, "unit", path+".unit"); err != nil {
			return nil, err
		}
		if item.LedgerHint, err = stringAt(raw, "tally_ledger", path+".tally_ledger"); err != nil {
			return nil, err
		}
		if item.Quantity, err = numberAt(raw, "quantity", path+".quantity"); err != nil {
			return nil, err
		}
		if item.Rate, err = numberAt(raw, "rate", path+".rate"); err != nil {
			return nil, err
		}
		if item.Amount, err = numberAt(raw, "amount", path+".amount"); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, nil
}

func parseTaxBreakdown(root gjson.Result) (TaxBreakdown, error) {
	var tb TaxBreakdown

	obj, err := objectAt(root, "tax_details")
	if err != nil || !obj.Exists() {
		return tb, err
	}

	if tb.CGST, err = numberAt(obj, "cgst", "tax_details.cgst"); err != nil {
		return tb, err
	}
	if tb.SGST, err = numberAt(obj, "sgst", "tax_details.sgst"); err != nil {
		return tb, err
	}
	if tb.IGST, err = numberAt(obj, "igst", "tax_details.igst"); err != nil {
		return tb, err
	}
	if tb.TotalTax, err = numberAt(obj, "total_tax", "tax_details.total_tax"); err != nil {
		return tb, err
	}

	return tb, nil
}

// objectAt returns the object under key, or a non-existent result when the
// key is absent or null.
func objectAt(parent gjson.Result, key string) (gjson.Result, error) {
	v := parent.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return gjson.Result{}, nil
	}
	if !v.IsObject() {
		return gjson.Result{}, NewRecordError(key, fmt.Sprintf("expected an object, got %s", describe(v)), nil)
	}
	return v, nil
}

// stringAt reads a text field. Numbers are accepted verbatim since
// extractors often emit invoice numbers as JSON numbers.
func stringAt(parent gjson.Result, key string, path ...string) (string, error) {
	p := key
	if len(path) > 0 {
		p = path[0]
	}

	v := parent.Get(key)
	switch {
	case !v.Exists(), v.Type == gjson.Null:
		return "", nil
	case v.Type == gjson.String:
		return strings.TrimSpace(v.Str), nil
	case v.Type == gjson.Number:
		return v.Raw, nil
	default:
		return "", NewRecordError(p, fmt.Sprintf("expected text, got %s", describe(v)), nil)
	}
}

// numberAt reads an optional decimal. Numeric strings are accepted; any
// other string is rejected rather than coerced to zero.
func numberAt(parent gjson.Result, key, path string) (*decimal.Decimal, error) {
	v := parent.Get(key)

	var text string
	switch {
	case !v.Exists(), v.Type == gjson.Null:
		return nil, nil
	case v.Type == gjson.Number:
		text = v.Raw
	case v.Type == gjson.String:
		text = strings.TrimSpace(v.Str)
		if text == "" {
			return nil, nil
		}
	default:
		return nil, NewRecordError(path, fmt.Sprintf("expected a number, got %s", describe(v)), nil)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, NewRecordError(path, fmt.Sprintf("not a number: %q", text), err)
	}
	return &d, nil
}

func describe(v gjson.Result) string {
	switch {
	case v.IsArray():
		return "array"
	case v.IsObject():
		return "object"
	case v.Type == gjson.True, v.Type == gjson.False:
		return "boolean"
	case v.Type == gjson.String:
		return fmt.Sprintf("string %q", v.Str)
	case v.Type == gjson.Number:
		return "number"
	default:
		return v.Type.String()
	}
}
