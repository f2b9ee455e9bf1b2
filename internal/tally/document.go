package tally

import (
	money "github.com/rezonia/invoice-tally/internal/decimal"
)

// Attr is an XML attribute
type Attr struct {
	Name  string
	Value string
}

// Node is an element of the import document. Trees are assembled bottom-up
// from values and never modified once built.
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []Node
}

// El builds an element with children
func El(tag string, children ...Node) Node {
	return Node{Tag: tag, Children: children}
}

// Leaf builds a text-only element
func Leaf(tag, text string) Node {
	return Node{Tag: tag, Text: text}
}

// WithAttrs returns a copy of n carrying attrs
func (n Node) WithAttrs(attrs ...Attr) Node {
	n.Attrs = append(append([]Attr(nil), n.Attrs...), attrs...)
	return n
}

// Find returns the first descendant (depth first) with the given tag
func (n Node) Find(tag string) (Node, bool) {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c, true
		}
		if found, ok := c.Find(tag); ok {
			return found, true
		}
	}
	return Node{}, false
}

// Document builds the ENVELOPE tree for a voucher in the given mode
func Document(v *Voucher, mode Mode) Node {
	desc := []Node{Leaf("REPORTNAME", "Vouchers")}
	if v.Company != "" {
		desc = append(desc, El("STATICVARIABLES", Leaf("SVCURRENTCOMPANY", v.Company)))
	}

	message := El("TALLYMESSAGE", voucherNode(v, mode)).
		WithAttrs(Attr{Name: "xmlns:UDF", Value: "TallyUDF"})

	return El("ENVELOPE",
		El("HEADER", Leaf("TALLYREQUEST", "Import Data")),
		El("BODY",
			El("IMPORTDATA",
				El("REQUESTDESC", desc...),
				El("REQUESTDATA", message),
			),
		),
	)
}

func voucherNode(v *Voucher, mode Mode) Node {
	fields := []Node{
		Leaf("DATE", v.Date),
		Leaf("VOUCHERTYPENAME", v.VoucherType),
		Leaf("VOUCHERNUMBER", v.Number),
		Leaf("REFERENCE", v.Reference),
		Leaf("PARTYLEDGERNAME", v.Party.LedgerName),
		Leaf("PERSISTEDVIEW", VoucherView),
	}

	if mode == ModeMinimal {
		fields = append(fields, Leaf("NARRATION", v.Narration))
	} else {
		fields = append(fields, ledgerNode("LEDGERENTRIES.LIST", v.Party))
		for _, inv := range v.Inventory {
			fields = append(fields, inventoryNode(inv))
		}
		for _, tax := range v.Taxes {
			fields = append(fields, ledgerNode("LEDGERENTRIES.LIST", tax))
		}
	}

	return El("VOUCHER", fields...).WithAttrs(
		Attr{Name: "VCHTYPE", Value: v.VoucherType},
		Attr{Name: "ACTION", Value: "Create"},
		Attr{Name: "OBJVIEW", Value: VoucherView},
	)
}

func ledgerNode(tag string, e LedgerEntry) Node {
	return El(tag,
		Leaf("LEDGERNAME", e.LedgerName),
		Leaf("ISDEEMEDPOSITIVE", YesNo(e.DeemedPositive)),
		Leaf("LEDGERFROMITEM", "No"),
		Leaf("REMOVEZEROENTRIES", "No"),
		Leaf("ISPARTYLEDGER", YesNo(e.IsPartyLedger)),
		Leaf("AMOUNT", money.Format(e.Amount)),
	)
}

func inventoryNode(e InventoryEntry) Node {
	return El("ALLINVENTORYENTRIES.LIST",
		Leaf("STOCKITEMNAME", e.StockItem),
		Leaf("ISDEEMEDPOSITIVE", YesNo(e.DeemedPositive)),
		Leaf("ISLASTDEEMEDPOSITIVE", YesNo(e.DeemedPositive)),
		Leaf("ISAUTONEGATIVE", "No"),
		Leaf("RATE", e.Rate),
		Leaf("ACTUALQTY", e.Quantity),
		Leaf("BILLEDQTY", e.Quantity),
		Leaf("AMOUNT", money.Format(e.Amount)),
		ledgerNode("ACCOUNTINGALLOCATIONS.LIST", e.Allocation),
	)
}
