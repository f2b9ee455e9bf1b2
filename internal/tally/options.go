package tally

// Mode selects the output schema of the serializer
type Mode int

const (
	// ModeFull emits party, inventory and tax entries
	ModeFull Mode = iota
	// ModeMinimal emits voucher header fields and a narration only
	ModeMinimal
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeMinimal:
		return "minimal"
	default:
		return "unknown"
	}
}

// ParseMode maps "full"/"minimal" to a Mode. Anything else is full.
func ParseMode(s string) Mode {
	if s == "minimal" {
		return ModeMinimal
	}
	return ModeFull
}

// Defaults substituted for missing invoice fields
const (
	DefaultPartyLedger   = "Cash"
	DefaultCompany       = "My Company"
	DefaultUnit          = "Nos"
	DefaultStockItem     = "Unnamed Item"
	DefaultDate          = "20240101"
	DefaultVoucherNumber = "1"
	UnknownReference     = "Unknown"

	SalesLedger    = "Sales Account"
	PurchaseLedger = "Purchase Account"

	VoucherView = "Invoice Voucher View"
)

// Options configures a Compiler
type Options struct {
	Mode Mode

	// Company overrides the company derived from the customer name
	Company string

	// OmitCompany drops the STATICVARIABLES block so Tally imports into
	// whichever company is currently open
	OmitCompany bool

	// DefaultVoucherNumber is used when the invoice carries no number
	DefaultVoucherNumber string

	// DefaultReference is used for REFERENCE when the invoice carries no
	// number. Empty means the voucher number default in full mode and
	// "Unknown" in minimal mode.
	DefaultReference string

	// ExtendedVoucherTypes names credit and debit note vouchers
	// "Credit Note"/"Debit Note" instead of "Purchase"
	ExtendedVoucherTypes bool
}

// Option is a functional option for NewCompiler
type Option func(*Options)

// WithMode sets the output mode
func WithMode(m Mode) Option {
	return func(o *Options) {
		o.Mode = m
	}
}

// WithCompany sets the SVCURRENTCOMPANY value
func WithCompany(name string) Option {
	return func(o *Options) {
		o.Company = name
	}
}

// WithoutCompany omits the company context from the request
func WithoutCompany() Option {
	return func(o *Options) {
		o.OmitCompany = true
	}
}

// WithDefaultVoucherNumber sets the voucher number used when none was extracted
func WithDefaultVoucherNumber(n string) Option {
	return func(o *Options) {
		if n != "" {
			o.DefaultVoucherNumber = n
		}
	}
}

// WithDefaultReference sets the reference used when none was extracted
func WithDefaultReference(ref string) Option {
	return func(o *Options) {
		o.DefaultReference = ref
	}
}

// WithExtendedVoucherTypes enables credit/debit note voucher type names
func WithExtendedVoucherTypes(enabled bool) Option {
	return func(o *Options) {
		o.ExtendedVoucherTypes = enabled
	}
}

func defaultOptions() Options {
	return Options{
		Mode:                 ModeFull,
		DefaultVoucherNumber: DefaultVoucherNumber,
	}
}

func (o Options) reference() string {
	if o.DefaultReference != "" {
		return o.DefaultReference
	}
	if o.Mode == ModeMinimal {
		return UnknownReference
	}
	return o.DefaultVoucherNumber
}
