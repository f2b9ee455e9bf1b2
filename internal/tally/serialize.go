package tally

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// Render writes a document tree as pretty-printed XML with a declaration
func Render(root Node) (string, error) {
	if root.Tag == "" {
		return "", errors.New("render: empty document")
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	appendNode(&doc.Element, root)
	doc.Indent(2)

	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return out, nil
}

func appendNode(parent *etree.Element, n Node) {
	el := parent.CreateElement(n.Tag)
	for _, a := range n.Attrs {
		el.CreateAttr(a.Name, a.Value)
	}
	if n.Text != "" {
		el.SetText(n.Text)
	}
	for _, c := range n.Children {
		appendNode(el, c)
	}
}

// Serialize renders a voucher in the given mode
func Serialize(v *Voucher, mode Mode) (string, error) {
	if v == nil {
		return "", errors.New("serialize: nil voucher")
	}
	return Render(Document(v, mode))
}
