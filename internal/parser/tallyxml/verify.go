package tallyxml

import (
	"github.com/shopspring/decimal"
)

// DefaultTolerance is the imbalance accepted by Verify
var DefaultTolerance = decimal.RequireFromString("0.01")

// Balance returns the sum of the voucher's top-level entry amounts
func (v Voucher) Balance() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range v.Entries {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// VoucherCheck is the verification outcome for one voucher
type VoucherCheck struct {
	Number      string          `json:"number"`
	VoucherType string          `json:"voucher_type"`
	Party       string          `json:"party"`
	Entries     int             `json:"entries"`
	Balance     decimal.Decimal `json:"balance"`
	Balanced    bool            `json:"balanced"`
	Issues      []string        `json:"issues,omitempty"`
	// Valid is Balanced with no polarity issues
	Valid bool `json:"valid"`
}

// Report summarizes a verified envelope
type Report struct {
	Company     string         `json:"company,omitempty"`
	Vouchers    []VoucherCheck `json:"vouchers"`
	AllBalanced bool           `json:"all_balanced"`
	// AllValid also requires every voucher to be free of polarity issues
	AllValid bool `json:"all_valid"`
}

// Verify checks every voucher in env for zero balance within tol and for
// consistent polarity: a deemed-positive entry posts a non-positive amount,
// allocations mirror their inventory line, and the party side is opposite
// to every other entry.
func Verify(env *Envelope, tol decimal.Decimal) *Report {
	report := &Report{Company: env.Company, AllBalanced: true, AllValid: true}

	for _, v := range env.Vouchers {
		check := VoucherCheck{
			Number:      v.Number,
			VoucherType: v.VoucherType,
			Party:       v.Party,
			Entries:     len(v.Entries),
			Balance:     v.Balance(),
		}
		check.Balanced = check.Balance.Abs().LessThanOrEqual(tol)
		check.Issues = inspect(v)
		check.Valid = check.Balanced && len(check.Issues) == 0

		if !check.Balanced {
			report.AllBalanced = false
		}
		if !check.Valid {
			report.AllValid = false
		}
		report.Vouchers = append(report.Vouchers, check)
	}

	return report
}

func inspect(v Voucher) []string {
	// minimal vouchers carry no entries and nothing to check
	if len(v.Entries) == 0 {
		return nil
	}

	var issues []string

	var party *Entry
	for i := range v.Entries {
		if v.Entries[i].Kind == EntryParty {
			party = &v.Entries[i]
			break
		}
	}
	if party == nil {
		issues = append(issues, "no party ledger entry")
	}

	for _, e := range v.Entries {
		if e.DeemedPositive && e.Amount.IsPositive() {
			issues = append(issues, e.Name+": deemed positive entry has a positive amount")
		}
		if !e.DeemedPositive && e.Amount.IsNegative() {
			issues = append(issues, e.Name+": entry not deemed positive has a negative amount")
		}
		if party != nil && e.Kind != EntryParty && e.DeemedPositive == party.DeemedPositive {
			issues = append(issues, e.Name+": same polarity as the party ledger")
		}
		for _, a := range e.Allocations {
			if !a.Amount.Equal(e.Amount) {
				issues = append(issues, e.Name+": allocation amount differs from line amount")
			}
		}
	}

	return issues
}
