package ast

// Commodity declares a commodity or currency that can be used in the ledger.
//
// Example:
//
//	2014-01-01 commodity USD
//	  name: "US Dollar"
type Commodity struct {
	Pos      Position
	Date     *Date
	Currency string

	withMetadata
}

var _ Directive = &Commodity{}

func (c *Commodity) Position() Position { return c.Pos }
func (c *Commodity) date() *Date        { return c.Date }
func (c *Commodity) Directive() string  { return "commodity" }

// Open declares the opening of an account, optionally constraining the
// currencies it may hold and its booking method.
//
// Example:
//
//	2014-05-01 open Assets:US:BofA:Checking USD
type Open struct {
	Pos                  Position
	Date                 *Date
	Account              Account
	ConstraintCurrencies []string
	BookingMethod        string

	withMetadata
}

var _ Directive = &Open{}

func (o *Open) Position() Position { return o.Pos }
func (o *Open) date() *Date        { return o.Date }
func (o *Open) Directive() string  { return "open" }

// Close declares the closing of an account.
//
// Example:
//
//	2015-09-23 close Assets:US:BofA:Checking
type Close struct {
	Pos     Position
	Date    *Date
	Account Account

	withMetadata
}

var _ Directive = &Close{}

func (c *Close) Position() Position { return c.Pos }
func (c *Close) date() *Date        { return c.Date }
func (c *Close) Directive() string  { return "close" }

// Balance asserts that an account has a specific balance at the beginning of
// a given date. The plugins carry these through untouched; rule matching can
// target them like any other entry.
//
// Example:
//
//	2014-08-09 balance Assets:US:BofA:Checking 562.00 USD
type Balance struct {
	Pos     Position
	Date    *Date
	Account Account
	Amount  *Amount

	withMetadata
}

var _ Directive = &Balance{}

func (b *Balance) Position() Position { return b.Pos }
func (b *Balance) date() *Date        { return b.Date }
func (b *Balance) Directive() string  { return "balance" }

// Pad inserts a balancing transaction between two accounts.
//
// Example:
//
//	2014-01-01 pad Assets:US:BofA:Checking Equity:Opening-Balances
type Pad struct {
	Pos        Position
	Date       *Date
	Account    Account
	AccountPad Account

	withMetadata
}

var _ Directive = &Pad{}

func (p *Pad) Position() Position { return p.Pos }
func (p *Pad) date() *Date        { return p.Date }
func (p *Pad) Directive() string  { return "pad" }

// Note attaches a dated comment to an account.
//
// Example:
//
//	2014-07-09 note Assets:US:BofA:Checking "Called bank about pending deposit"
type Note struct {
	Pos         Position
	Date        *Date
	Account     Account
	Description string

	withMetadata
}

var _ Directive = &Note{}

func (n *Note) Position() Position { return n.Pos }
func (n *Note) date() *Date        { return n.Date }
func (n *Note) Directive() string  { return "note" }

// Document associates an external file (receipt, invoice, statement) with an
// account at a specific date. The path can be absolute or relative to the
// ledger file. The no_missing_documents plugin verifies these paths exist.
//
// Example:
//
//	2014-07-09 document Assets:US:BofA:Checking "statements/2014-07.pdf"
type Document struct {
	Pos            Position
	Date           *Date
	Account        Account
	PathToDocument string

	withMetadata
}

var _ Directive = &Document{}

func (d *Document) Position() Position { return d.Pos }
func (d *Document) date() *Date        { return d.Date }
func (d *Document) Directive() string  { return "document" }

// Price declares the price of a commodity in another currency at a date.
//
// Example:
//
//	2014-07-09 price USD 1.08 CAD
type Price struct {
	Pos       Position
	Date      *Date
	Commodity string
	Amount    *Amount

	withMetadata
}

var _ Directive = &Price{}

func (p *Price) Position() Position { return p.Pos }
func (p *Price) date() *Date        { return p.Date }
func (p *Price) Directive() string  { return "price" }

// Event records a named event with a value at a specific date.
//
// Example:
//
//	2014-07-09 event "location" "New York, USA"
type Event struct {
	Pos   Position
	Date  *Date
	Name  string
	Value string

	withMetadata
}

var _ Directive = &Event{}

func (e *Event) Position() Position { return e.Pos }
func (e *Event) date() *Date        { return e.Date }
func (e *Event) Directive() string  { return "event" }

// Query names a stored query over the ledger.
//
// Example:
//
//	2014-07-09 query "france-balances" "SELECT account, sum(position) WHERE 'trip-france' in tags"
type Query struct {
	Pos      Position
	Date     *Date
	Name     string
	Contents string

	withMetadata
}

var _ Directive = &Query{}

func (q *Query) Position() Position { return q.Pos }
func (q *Query) date() *Date        { return q.Date }
func (q *Query) Directive() string  { return "query" }

// Custom is a free-form directive carrying arbitrary typed values.
//
// Example:
//
//	2014-07-09 custom "budget" "monthly" TRUE 45.30 USD
type Custom struct {
	Pos    Position
	Date   *Date
	Type   string
	Values []*CustomValue

	withMetadata
}

var _ Directive = &Custom{}

func (c *Custom) Position() Position { return c.Pos }
func (c *Custom) date() *Date        { return c.Date }
func (c *Custom) Directive() string  { return "custom" }

// CustomValue represents a single value in a custom directive. Exactly one
// field is set.
type CustomValue struct {
	String  *string
	Boolean *bool
	Amount  *Amount
	Number  *string
}

// Value returns the underlying value.
func (cv *CustomValue) Value() any {
	switch {
	case cv.String != nil:
		return *cv.String
	case cv.Boolean != nil:
		return *cv.Boolean
	case cv.Amount != nil:
		return cv.Amount
	case cv.Number != nil:
		return *cv.Number
	default:
		return nil
	}
}
