package parser

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/beanlint/beanlint/ast"
)

func parse(t *testing.T, source string) *ast.AST {
	t.Helper()

	tree, err := ParseString(context.Background(), source)
	assert.NoError(t, err)
	return tree
}

func TestParseOpen(t *testing.T) {
	tree := parse(t, `2024-01-01 open Assets:Checking USD,EUR "STRICT"`)

	assert.Equal(t, 1, len(tree.Directives))
	open, ok := tree.Directives[0].(*ast.Open)
	assert.True(t, ok)
	assert.Equal(t, "2024-01-01", open.Date.String())
	assert.Equal(t, ast.Account("Assets:Checking"), open.Account)
	assert.Equal(t, []string{"USD", "EUR"}, open.ConstraintCurrencies)
	assert.Equal(t, "STRICT", open.BookingMethod)
}

func TestParseClose(t *testing.T) {
	tree := parse(t, `2024-12-31 close Assets:Checking`)

	close, ok := tree.Directives[0].(*ast.Close)
	assert.True(t, ok)
	assert.Equal(t, ast.Account("Assets:Checking"), close.Account)
}

func TestParseCommodityWithMetadata(t *testing.T) {
	tree := parse(t, `2024-01-01 commodity USD
  name: "US Dollar"`)

	commodity, ok := tree.Directives[0].(*ast.Commodity)
	assert.True(t, ok)
	assert.Equal(t, "USD", commodity.Currency)
	assert.Equal(t, "US Dollar", commodity.GetMetadata("name").String())
}

func TestParseBalance(t *testing.T) {
	tree := parse(t, `2024-08-09 balance Assets:Checking 562.00 USD`)

	balance, ok := tree.Directives[0].(*ast.Balance)
	assert.True(t, ok)
	assert.Equal(t, "562.00", balance.Amount.Value)
	assert.Equal(t, "USD", balance.Amount.Currency)
}

func TestParsePad(t *testing.T) {
	tree := parse(t, `2024-01-01 pad Assets:Checking Equity:Opening-Balances`)

	pad, ok := tree.Directives[0].(*ast.Pad)
	assert.True(t, ok)
	assert.Equal(t, ast.Account("Assets:Checking"), pad.Account)
	assert.Equal(t, ast.Account("Equity:Opening-Balances"), pad.AccountPad)
}

func TestParseNoteDocumentEventQuery(t *testing.T) {
	tree := parse(t, `2024-07-09 note Assets:Checking "Called the bank"
2024-07-09 document Assets:Checking "statements/2024-07.pdf"
2024-07-09 event "location" "New York, USA"
2024-07-09 query "cash" "SELECT account WHERE currency = 'USD'"`)

	assert.Equal(t, 4, len(tree.Directives))

	note := tree.Directives[0].(*ast.Note)
	assert.Equal(t, "Called the bank", note.Description)

	document := tree.Directives[1].(*ast.Document)
	assert.Equal(t, "statements/2024-07.pdf", document.PathToDocument)

	event := tree.Directives[2].(*ast.Event)
	assert.Equal(t, "location", event.Name)
	assert.Equal(t, "New York, USA", event.Value)

	query := tree.Directives[3].(*ast.Query)
	assert.Equal(t, "cash", query.Name)
}

func TestParsePrice(t *testing.T) {
	tree := parse(t, `2024-07-09 price USD 1.08 CAD`)

	price, ok := tree.Directives[0].(*ast.Price)
	assert.True(t, ok)
	assert.Equal(t, "USD", price.Commodity)
	assert.Equal(t, "1.08", price.Amount.Value)
}

func TestParseCustom(t *testing.T) {
	tree := parse(t, `2024-07-09 custom "budget" "monthly" TRUE 45.30 USD`)

	custom, ok := tree.Directives[0].(*ast.Custom)
	assert.True(t, ok)
	assert.Equal(t, "budget", custom.Type)
	assert.Equal(t, 3, len(custom.Values))
	assert.Equal(t, "monthly", *custom.Values[0].String)
	assert.True(t, *custom.Values[1].Boolean)
	assert.Equal(t, "45.30", custom.Values[2].Amount.Value)
}

func TestParseTransaction(t *testing.T) {
	tree := parse(t, `2014-05-05 * "Cafe Mogador" "Lamb tagine" #food ^trip-1
  Liabilities:CreditCard  -37.45 USD
  Expenses:Food:Restaurant`)

	txn, ok := tree.Directives[0].(*ast.Transaction)
	assert.True(t, ok)
	assert.Equal(t, "*", txn.Flag)
	assert.Equal(t, "Cafe Mogador", txn.Payee)
	assert.Equal(t, "Lamb tagine", txn.Narration)
	assert.Equal(t, []ast.Tag{"#food"}, txn.Tags)
	assert.Equal(t, []ast.Link{"^trip-1"}, txn.Links)

	assert.Equal(t, 2, len(txn.Postings))
	assert.Equal(t, ast.Account("Liabilities:CreditCard"), txn.Postings[0].Account)
	assert.Equal(t, "-37.45", txn.Postings[0].Amount.Value)
	assert.Zero(t, txn.Postings[1].Amount)
}

func TestParseTransactionFlags(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantFlag string
	}{
		{name: "txn keyword", source: `2024-01-01 txn "x"`, wantFlag: "*"},
		{name: "asterisk", source: `2024-01-01 * "x"`, wantFlag: "*"},
		{name: "exclaim", source: `2024-01-01 ! "x"`, wantFlag: "!"},
		{name: "padding", source: `2024-01-01 P "x"`, wantFlag: "P"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parse(t, tt.source)
			txn := tree.Directives[0].(*ast.Transaction)
			assert.Equal(t, tt.wantFlag, txn.Flag)
		})
	}
}

func TestParseTransactionNarrationOnly(t *testing.T) {
	tree := parse(t, `2024-01-01 * "just narration"`)

	txn := tree.Directives[0].(*ast.Transaction)
	assert.Equal(t, "", txn.Payee)
	assert.Equal(t, "just narration", txn.Narration)
}

func TestParseTransactionMetadata(t *testing.T) {
	tree := parse(t, `2024-01-01 * "grocery"
  author: "zack"
  Expenses:Grocery  10.00 EUR
    foo: "bar"
  Assets:Checking`)

	txn := tree.Directives[0].(*ast.Transaction)
	assert.Equal(t, "zack", txn.GetMetadata("author").String())
	assert.Equal(t, 2, len(txn.Postings))
	assert.Equal(t, "bar", txn.Postings[0].GetMetadata("foo").String())
	assert.Zero(t, txn.Postings[1].GetMetadata("foo"))
}

func TestParsePostingFlagsCostPrice(t *testing.T) {
	tree := parse(t, `2024-01-01 * "buy"
  ! Assets:Stocks  10 HOOL {518.73 USD, 2024-01-01, "lot-a"} @ 520.00 USD
  Assets:Cash  -5187.30 USD @@ 5187.30 USD`)

	txn := tree.Directives[0].(*ast.Transaction)

	first := txn.Postings[0]
	assert.Equal(t, "!", first.Flag)
	assert.Equal(t, "518.73", first.Cost.Amount.Value)
	assert.Equal(t, "2024-01-01", first.Cost.Date.String())
	assert.Equal(t, "lot-a", first.Cost.Label)
	assert.False(t, first.Cost.Total)
	assert.Equal(t, "520.00", first.Price.Value)
	assert.False(t, first.PriceTotal)

	second := txn.Postings[1]
	assert.True(t, second.PriceTotal)
	assert.Equal(t, "5187.30", second.Price.Value)
}

func TestParseEmptyCost(t *testing.T) {
	tree := parse(t, `2024-01-01 * "sell"
  Assets:Stocks  -10 HOOL {}
  Assets:Cash`)

	txn := tree.Directives[0].(*ast.Transaction)
	assert.True(t, txn.Postings[0].Cost.IsEmpty())
}

func TestParseMetadataValueTypes(t *testing.T) {
	tree := parse(t, `2024-01-01 open Assets:Checking
  invoice: "INV-001"
  trip-start: 2024-01-15
  linked: Assets:Savings
  target: USD
  category: #vacation
  ref: ^invoice123
  quantity: 42
  budget: 1000.00 USD
  active: TRUE`)

	open := tree.Directives[0].(*ast.Open)

	assert.Equal(t, "string", open.GetMetadata("invoice").Type())
	assert.Equal(t, "date", open.GetMetadata("trip-start").Type())
	assert.Equal(t, "account", open.GetMetadata("linked").Type())
	assert.Equal(t, "currency", open.GetMetadata("target").Type())
	assert.Equal(t, "tag", open.GetMetadata("category").Type())
	assert.Equal(t, "link", open.GetMetadata("ref").Type())
	assert.Equal(t, "number", open.GetMetadata("quantity").Type())
	assert.Equal(t, "amount", open.GetMetadata("budget").Type())
	assert.Equal(t, "boolean", open.GetMetadata("active").Type())
}

func TestParseMetadataKeywordKey(t *testing.T) {
	tree := parse(t, `2024-01-01 open Assets:Checking
  document: "receipts/opening.pdf"`)

	open := tree.Directives[0].(*ast.Open)
	assert.Equal(t, "receipts/opening.pdf", open.GetMetadata("document").String())
}

func TestParseTopLevelDeclarations(t *testing.T) {
	tree := parse(t, `option "title" "Personal Ledger"
include "2024.beancount"
plugin "file_ordering"
plugin "validate" "rules.yaml"
pushtag #trip
poptag #trip
pushmeta location: "New York"
popmeta location:`)

	assert.Equal(t, 1, len(tree.Options))
	assert.Equal(t, "title", tree.Options[0].Name)
	assert.Equal(t, "Personal Ledger", tree.Options[0].Value)

	assert.Equal(t, 1, len(tree.Includes))
	assert.Equal(t, "2024.beancount", tree.Includes[0].Filename)

	assert.Equal(t, 2, len(tree.Plugins))
	assert.Equal(t, "file_ordering", tree.Plugins[0].Name)
	assert.Equal(t, "", tree.Plugins[0].Config)
	assert.Equal(t, "validate", tree.Plugins[1].Name)
	assert.Equal(t, "rules.yaml", tree.Plugins[1].Config)

	assert.Equal(t, 1, len(tree.Pushtags))
	assert.Equal(t, ast.Tag("#trip"), tree.Pushtags[0].Tag)
	assert.Equal(t, 1, len(tree.Poptags))

	assert.Equal(t, 1, len(tree.Pushmetas))
	assert.Equal(t, "location", tree.Pushmetas[0].Key)
	assert.Equal(t, "New York", tree.Pushmetas[0].Value)
	assert.Equal(t, 1, len(tree.Popmetas))
}

func TestParseErrorPositions(t *testing.T) {
	_, err := ParseBytesWithFilename(context.Background(), "main.beancount", []byte("2024-01-01 open NotAnAccount"))
	assert.Error(t, err)

	parseErr, ok := err.(*ParseError)
	assert.True(t, ok)
	assert.Equal(t, "main.beancount", parseErr.Pos.Filename)
	assert.Equal(t, 1, parseErr.Pos.Line)
}

func TestParseErrorUnexpectedTopLevel(t *testing.T) {
	_, err := ParseString(context.Background(), `Assets:Checking 10.00 USD`)
	assert.Error(t, err)
}

func TestParsePositionsRecorded(t *testing.T) {
	tree, err := ParseBytesWithFilename(context.Background(), "ledger.beancount", []byte(`2024-01-01 open Assets:Checking
2024-01-02 close Assets:Checking`))
	assert.NoError(t, err)

	first := tree.Directives[0].Position()
	assert.Equal(t, "ledger.beancount", first.Filename)
	assert.Equal(t, 1, first.Line)

	second := tree.Directives[1].Position()
	assert.Equal(t, 2, second.Line)
	assert.True(t, second.Offset > first.Offset)
}
