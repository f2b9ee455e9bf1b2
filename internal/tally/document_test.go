package tally_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/invoice-tally/internal/tally"
)

func TestNode_WithAttrsCopies(t *testing.T) {
	base := tally.El("VOUCHER").WithAttrs(tally.Attr{Name: "ACTION", Value: "Create"})
	a := base.WithAttrs(tally.Attr{Name: "VCHTYPE", Value: "Sales"})
	b := base.WithAttrs(tally.Attr{Name: "VCHTYPE", Value: "Purchase"})

	assert.Len(t, base.Attrs, 1)
	assert.Equal(t, "Sales", a.Attrs[1].Value)
	assert.Equal(t, "Purchase", b.Attrs[1].Value)
}

func TestDocument_Structure(t *testing.T) {
	v, _, err := tally.NewCompiler().Build(widgetPurchase())
	require.NoError(t, err)

	doc := tally.Document(v, tally.ModeFull)
	assert.Equal(t, "ENVELOPE", doc.Tag)

	req, ok := doc.Find("TALLYREQUEST")
	require.True(t, ok)
	assert.Equal(t, "Import Data", req.Text)

	report, ok := doc.Find("REPORTNAME")
	require.True(t, ok)
	assert.Equal(t, "Vouchers", report.Text)

	voucher, ok := doc.Find("VOUCHER")
	require.True(t, ok)
	assert.Len(t, voucher.Children, 10)

	_, ok = doc.Find("NARRATION")
	assert.False(t, ok)
}

func TestDocument_OmitsEmptyCompany(t *testing.T) {
	v, _, err := tally.NewCompiler(tally.WithoutCompany()).Build(widgetPurchase())
	require.NoError(t, err)

	_, ok := tally.Document(v, tally.ModeFull).Find("STATICVARIABLES")
	assert.False(t, ok)
}

func TestRender_EmptyDocument(t *testing.T) {
	_, err := tally.Render(tally.Node{})
	require.Error(t, err)
}

func TestRender_Nested(t *testing.T) {
	out, err := tally.Render(tally.El("A", tally.Leaf("B", "x"), tally.El("C")))
	require.NoError(t, err)
	assert.Contains(t, out, "<B>x</B>")
	assert.Contains(t, out, "<C/>")
}
