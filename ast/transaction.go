package ast

// Transaction records a financial transaction with a date, flag, optional
// payee, narration, and a list of postings. The flag is '*' for cleared
// transactions, '!' for pending ones, or 'P' for generated padding.
//
// Example:
//
//	2014-05-05 * "Cafe Mogador" "Lamb tagine with wine"
//	  Liabilities:CreditCard:CapitalOne         -37.45 USD
//	  Expenses:Food:Restaurant
type Transaction struct {
	Pos       Position
	Date      *Date
	Flag      string
	Payee     string
	Narration string
	Links     []Link
	Tags      []Tag

	withMetadata

	Postings []*Posting
}

var _ Directive = &Transaction{}

func (t *Transaction) Position() Position { return t.Pos }
func (t *Transaction) date() *Date        { return t.Date }
func (t *Transaction) Directive() string  { return "transaction" }

// HasTag reports whether the transaction carries the given tag.
func (t *Transaction) HasTag(tag Tag) bool {
	for _, have := range t.Tags {
		if have == tag {
			return true
		}
	}
	return false
}

// Posting represents a single leg of a transaction: an account with optional
// amount, cost, and price. An omitted amount is left nil; this host does not
// book transactions, so no inference happens.
//
// Example postings:
//
//	Assets:Investments:Brokerage    10 HOOL {518.73 USD}
//	Assets:Investments:Cash        200 EUR @ 1.35 USD
//	Assets:Checking
type Posting struct {
	Pos        Position
	Flag       string
	Account    Account
	Amount     *Amount
	Cost       *Cost
	Price      *Amount
	PriceTotal bool // @@ total price

	withMetadata
}
