package ast

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Amount represents a numerical value with its associated currency or commodity.
// The value is stored as a string to preserve the exact decimal representation
// from the input, avoiding floating-point precision issues.
type Amount struct {
	Value    string
	Currency string
}

func (a *Amount) String() string {
	return a.Value + " " + a.Currency
}

// Cost represents the cost basis specification on a posting, e.g.
// {518.73 USD}, {518.73 USD, 2014-05-01}, or {} for automatic lot selection.
// The plugins do not book lots; costs are carried through so rule matching
// can inspect them and so entries survive a round trip unchanged.
type Cost struct {
	Amount *Amount
	Date   *Date
	Label  string
	Total  bool // {{...}} total cost
}

// IsEmpty reports whether this is an empty cost specification {}.
func (c *Cost) IsEmpty() bool {
	return c != nil && c.Amount == nil && c.Date == nil && c.Label == ""
}

// Account represents a Beancount account name consisting of at least two
// colon-separated segments, the first being one of the five account types.
//
// Example accounts:
//
//	Assets:US:BofA:Checking
//	Expenses:Home:Rent
type Account string

// accountSegmentRegex validates account segments after the first.
// Must start with an uppercase letter or digit.
var accountSegmentRegex = regexp.MustCompile(`^[A-Z0-9][A-Za-z0-9-]*$`)

// ParseAccount validates and returns an account name.
func ParseAccount(s string) (Account, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return "", fmt.Errorf("account must have at least two segments: %s", s)
	}

	switch parts[0] {
	case "Assets", "Liabilities", "Equity", "Income", "Expenses":
	default:
		return "", fmt.Errorf("unexpected account type %q", parts[0])
	}

	for i := 1; i < len(parts); i++ {
		if !accountSegmentRegex.MatchString(parts[i]) {
			return "", fmt.Errorf("invalid account segment at position %d: %s", i, parts[i])
		}
	}

	return Account(s), nil
}

// Root returns the account type segment, e.g. "Assets".
func (a Account) Root() string {
	if i := strings.IndexByte(string(a), ':'); i >= 0 {
		return string(a[:i])
	}
	return string(a)
}

// Date represents a calendar date in ISO 8601 format (YYYY-MM-DD). All
// Beancount directives have a date; dates drive chronological sorting and
// the in-file ordering check.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (*Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %s", s)
	}
	return &Date{Time: t}, nil
}

// MustDate parses a date or panics. For tests and builders only.
func MustDate(s string) *Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Date) String() string {
	return d.Format("2006-01-02")
}

// IsZero is nil-safe so zero checks on optional dates never panic.
func (d *Date) IsZero() bool {
	return d == nil || d.Time.IsZero()
}

// Tag represents a hashtag starting with #, used to categorize transactions.
type Tag string

// Link represents a reference link starting with ^, used to connect related
// transactions together.
type Link string

// MetadataValue is a discriminated union of the value types metadata can
// carry: exactly one of the fields is set.
//
//	invoice: "INV-2024-001"           ; String
//	trip-start: 2024-01-15            ; Date
//	linked-account: Assets:Checking   ; Account
//	target-currency: USD              ; Currency
//	category: #vacation               ; Tag
//	ref: ^invoice123                  ; Link
//	quantity: 42                      ; Number
//	budget: 1000.00 USD               ; Amount
//	active: TRUE                      ; Boolean
type MetadataValue struct {
	StringValue *string
	Date        *Date
	Account     *Account
	Currency    *string
	Tag         *Tag
	Link        *Link
	Number      *string // Stored as string to preserve precision
	Amount      *Amount
	Boolean     *bool
}

// Type returns the name of the value's type.
func (m *MetadataValue) Type() string {
	if m == nil {
		return "nil"
	}
	switch {
	case m.StringValue != nil:
		return "string"
	case m.Date != nil:
		return "date"
	case m.Account != nil:
		return "account"
	case m.Currency != nil:
		return "currency"
	case m.Tag != nil:
		return "tag"
	case m.Link != nil:
		return "link"
	case m.Number != nil:
		return "number"
	case m.Amount != nil:
		return "amount"
	case m.Boolean != nil:
		return "boolean"
	default:
		return "unknown"
	}
}

// String returns the value in its source representation.
func (m *MetadataValue) String() string {
	if m == nil {
		return ""
	}
	switch {
	case m.StringValue != nil:
		return *m.StringValue
	case m.Date != nil:
		return m.Date.String()
	case m.Account != nil:
		return string(*m.Account)
	case m.Currency != nil:
		return *m.Currency
	case m.Tag != nil:
		return string(*m.Tag)
	case m.Link != nil:
		return string(*m.Link)
	case m.Number != nil:
		return *m.Number
	case m.Amount != nil:
		return m.Amount.String()
	case m.Boolean != nil:
		if *m.Boolean {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// MetadataString returns a MetadataValue holding a string.
func MetadataString(s string) *MetadataValue {
	return &MetadataValue{StringValue: &s}
}

// Metadata represents a key-value pair attached to a directive or posting.
type Metadata struct {
	Key   string
	Value *MetadataValue
}
