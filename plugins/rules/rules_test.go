package rules

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/beanlint/beanlint/ast"
	"github.com/beanlint/beanlint/plugin"
)

func checkingTxn(narration string, meta map[string]string) *ast.Transaction {
	txn := &ast.Transaction{
		Pos:       ast.Position{Filename: "main.beancount", Line: 5},
		Date:      ast.MustDate("2024-01-01"),
		Flag:      "*",
		Narration: narration,
		Postings: []*ast.Posting{
			{Account: "Assets:Bank:Checking", Amount: &ast.Amount{Value: "-10.00", Currency: "USD"}},
			{Account: "Expenses:Misc"},
		},
	}
	for key, value := range meta {
		txn.AddMetadata(&ast.Metadata{Key: key, Value: ast.MetadataString(value)})
	}
	return txn
}

func writeRules(t *testing.T, contents string) (string, *plugin.Options) {
	t.Helper()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "rules.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	opts := plugin.NewOptions(&ast.AST{}, filepath.Join(tmpDir, "main.beancount"))
	return "rules.yaml", opts
}

func TestLiftTransaction(t *testing.T) {
	txn := checkingTxn("grocery", map[string]string{"author": "zack"})
	txn.Postings[0].AddMetadata(&ast.Metadata{Key: "foo", Value: ast.MetadataString("bar")})

	doc := Lift(txn)

	assert.Equal(t, "transaction", doc["_type"].(string))
	assert.Equal(t, "2024-01-01", doc["date"].(string))
	assert.Equal(t, "grocery", doc["narration"].(string))

	meta := doc["meta"].(map[string]any)
	assert.Equal(t, "zack", meta["author"].(string))

	postings := doc["postings"].([]any)
	assert.Equal(t, 2, len(postings))

	first := postings[0].(map[string]any)
	assert.Equal(t, "posting", first["_type"].(string))
	assert.Equal(t, "Assets:Bank:Checking", first["account"].(string))

	units := first["units"].(map[string]any)
	assert.Equal(t, json.Number("-10.00"), units["number"].(json.Number))
	assert.Equal(t, "USD", units["currency"].(string))

	// Transaction metadata propagates down to postings; the posting's own
	// keys survive alongside.
	firstMeta := first["meta"].(map[string]any)
	assert.Equal(t, "zack", firstMeta["author"].(string))
	assert.Equal(t, "bar", firstMeta["foo"].(string))

	// The directive itself is untouched.
	assert.Zero(t, txn.Postings[1].GetMetadata("author"))
}

func TestLiftOpen(t *testing.T) {
	open := &ast.Open{
		Date:                 ast.MustDate("2024-01-01"),
		Account:              "Assets:Checking",
		ConstraintCurrencies: []string{"USD"},
	}

	doc := Lift(open)
	assert.Equal(t, "open", doc["_type"].(string))
	assert.Equal(t, "Assets:Checking", doc["account"].(string))
	assert.Equal(t, []any{"USD"}, doc["currencies"].([]any))
}

func TestSatisfies(t *testing.T) {
	doc := map[string]any{
		"narration": "grocery",
		"amount":    json.Number("25.00"),
		"meta": map[string]any{
			"author": "zack",
		},
	}

	tests := []struct {
		name       string
		constraint map[string]any
		want       bool
	}{
		{
			name:       "required present",
			constraint: map[string]any{"narration": map[string]any{"required": true}},
			want:       true,
		},
		{
			name:       "required absent",
			constraint: map[string]any{"payee": map[string]any{"required": true}},
			want:       false,
		},
		{
			name:       "forbidden present",
			constraint: map[string]any{"narration": map[string]any{"forbidden": true}},
			want:       false,
		},
		{
			name:       "allowed match",
			constraint: map[string]any{"narration": map[string]any{"allowed": []any{"grocery", "rent"}}},
			want:       true,
		},
		{
			name:       "allowed mismatch",
			constraint: map[string]any{"narration": map[string]any{"allowed": []any{"rent"}}},
			want:       false,
		},
		{
			name:       "regex match",
			constraint: map[string]any{"narration": map[string]any{"regex": "^gro"}},
			want:       true,
		},
		{
			name:       "regex mismatch",
			constraint: map[string]any{"narration": map[string]any{"regex": "^rent$"}},
			want:       false,
		},
		{
			name:       "type string",
			constraint: map[string]any{"narration": map[string]any{"type": "string"}},
			want:       true,
		},
		{
			name:       "type number on string",
			constraint: map[string]any{"narration": map[string]any{"type": "number"}},
			want:       false,
		},
		{
			name:       "min satisfied",
			constraint: map[string]any{"amount": map[string]any{"min": 10}},
			want:       true,
		},
		{
			name:       "max violated",
			constraint: map[string]any{"amount": map[string]any{"max": 10}},
			want:       false,
		},
		{
			name: "nested schema",
			constraint: map[string]any{
				"meta": map[string]any{
					"schema": map[string]any{
						"author": map[string]any{"required": true},
					},
				},
			},
			want: true,
		},
		{
			name: "nested schema violated",
			constraint: map[string]any{
				"meta": map[string]any{
					"schema": map[string]any{
						"reviewer": map[string]any{"required": true},
					},
				},
			},
			want: false,
		},
		{
			name:       "absent field without required passes",
			constraint: map[string]any{"payee": map[string]any{"regex": "x"}},
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Satisfies(tt.constraint, doc))
		})
	}
}

func TestSatisfiesNumericEquality(t *testing.T) {
	doc := map[string]any{"quantity": json.Number("10.00")}

	constraint := map[string]any{"quantity": map[string]any{"allowed": []any{10}}}
	assert.True(t, Satisfies(constraint, doc))
}

func TestMatcherTargets(t *testing.T) {
	txnDoc := map[string]any{"_type": "transaction"}
	openDoc := map[string]any{"_type": "open"}
	postingDoc := map[string]any{"_type": "posting"}

	defaultMatcher, err := CompileMatch(&Match{})
	assert.NoError(t, err)
	assert.True(t, defaultMatcher.Applies(txnDoc, nil))
	assert.False(t, defaultMatcher.Applies(openDoc, nil))

	openMatcher, err := CompileMatch(&Match{Target: "open"})
	assert.NoError(t, err)
	assert.True(t, openMatcher.Applies(openDoc, nil))
	assert.False(t, openMatcher.Applies(txnDoc, nil))

	listMatcher, err := CompileMatch(&Match{Target: []any{"open", "transaction"}})
	assert.NoError(t, err)
	assert.True(t, listMatcher.Applies(openDoc, nil))
	assert.True(t, listMatcher.Applies(txnDoc, nil))

	allMatcher, err := CompileMatch(&Match{Target: "all"})
	assert.NoError(t, err)
	assert.True(t, allMatcher.Applies(openDoc, nil))
	assert.True(t, allMatcher.Applies(txnDoc, nil))
	assert.False(t, allMatcher.Applies(postingDoc, nil))

	_, err = CompileMatch(&Match{Target: "widget"})
	assert.Error(t, err)
}

func TestMatcherAccount(t *testing.T) {
	txn := Lift(checkingTxn("x", nil))
	posting := txn["postings"].([]any)[0].(map[string]any)

	regexMatcher, err := CompileMatch(&Match{Account: "/^Assets:.*:Checking/"})
	assert.NoError(t, err)
	assert.True(t, regexMatcher.Applies(txn, nil))

	exactMatcher, err := CompileMatch(&Match{Target: "posting", Account: "Assets:Bank:Checking"})
	assert.NoError(t, err)
	assert.True(t, exactMatcher.Applies(posting, nil))

	// Exact matches do not behave as substring matches.
	prefixMatcher, err := CompileMatch(&Match{Target: "posting", Account: "Assets:Bank"})
	assert.NoError(t, err)
	assert.False(t, prefixMatcher.Applies(posting, nil))

	otherMatcher, err := CompileMatch(&Match{Account: "/^Liabilities:/"})
	assert.NoError(t, err)
	assert.False(t, otherMatcher.Applies(txn, nil))
}

func TestMatcherWhere(t *testing.T) {
	matcher, err := CompileMatch(&Match{
		Where: map[string]any{
			"meta": map[string]any{
				"schema": map[string]any{
					"card": map[string]any{"required": true},
				},
			},
		},
	})
	assert.NoError(t, err)

	withCard := Lift(checkingTxn("x", map[string]string{"card": "12345678"}))
	withoutCard := Lift(checkingTxn("x", nil))

	assert.True(t, matcher.Applies(withCard, Satisfies))
	assert.False(t, matcher.Applies(withoutCard, Satisfies))
}

func TestCheckEndToEnd(t *testing.T) {
	config, opts := writeRules(t, `
- description: checking transactions must have a bank-label
  match:
    target: transaction
    account: /^Assets:.*:Checking/
  constraint:
    meta:
      schema:
        bank-label:
          required: true
`)

	labeled := checkingTxn("labeled", map[string]string{"bank-label": "BofA"})
	unlabeled := checkingTxn("unlabeled", nil)

	entries := []ast.Directive{labeled, unlabeled}
	result, errs := Check(entries, opts, config)

	assert.Equal(t, 2, len(result))
	assert.Equal(t, 1, len(errs))
	assert.Equal(t,
		"main.beancount:5: Constraint violation: checking transactions must have a bank-label",
		errs[0].Error())
}

func TestCheckPostingTarget(t *testing.T) {
	config, opts := writeRules(t, `
- description: cheque postings must have a cheque number
  match:
    target: posting
    account: /:Cheque$/
  constraint:
    meta:
      schema:
        cheque:
          required: true
`)

	txn := &ast.Transaction{
		Pos:  ast.Position{Filename: "main.beancount", Line: 9},
		Date: ast.MustDate("2024-01-01"),
		Postings: []*ast.Posting{
			{Account: "Assets:Bank:Cheque", Amount: &ast.Amount{Value: "-50.00", Currency: "USD"}},
			{Account: "Expenses:Rent"},
		},
	}

	_, errs := Check([]ast.Directive{txn}, opts, config)
	assert.Equal(t, 1, len(errs))
	assert.Contains(t, errs[0].Error(), "cheque postings must have a cheque number")

	// With the metadata in place the posting passes.
	txn.Postings[0].AddMetadata(&ast.Metadata{Key: "cheque", Value: ast.MetadataString("1042")})
	_, errs = Check([]ast.Directive{txn}, opts, config)
	assert.Equal(t, 0, len(errs))
}

func TestCheckErrorPerFailingPosting(t *testing.T) {
	config, opts := writeRules(t, `
- description: cheque postings must have a cheque number
  match:
    target: posting
    account: /:Cheque$/
  constraint:
    meta:
      schema:
        cheque:
          required: true
`)

	txn := &ast.Transaction{
		Pos:  ast.Position{Filename: "main.beancount", Line: 9},
		Date: ast.MustDate("2024-01-01"),
		Postings: []*ast.Posting{
			{Account: "Assets:Bank:Cheque", Amount: &ast.Amount{Value: "-50.00", Currency: "USD"}},
			{Account: "Liabilities:Cheque", Amount: &ast.Amount{Value: "50.00", Currency: "USD"}},
		},
	}

	// Both postings fail the rule, so both are reported.
	_, errs := Check([]ast.Directive{txn}, opts, config)
	assert.Equal(t, 2, len(errs))
	assert.Contains(t, errs[0].Error(), "cheque postings must have a cheque number")
	assert.Contains(t, errs[1].Error(), "cheque postings must have a cheque number")
}

func TestCheckTransactionMetadataSatisfiesPosting(t *testing.T) {
	config, opts := writeRules(t, `
- description: checking postings must have an author
  match:
    target: posting
    account: /^Assets:Bank:Checking$/
  constraint:
    meta:
      schema:
        author:
          required: true
`)

	// Metadata on the transaction propagates to its postings.
	txn := checkingTxn("x", map[string]string{"author": "zack"})
	_, errs := Check([]ast.Directive{txn}, opts, config)
	assert.Equal(t, 0, len(errs))
}

func TestCheckMissingRulesFile(t *testing.T) {
	_, errs := Check(nil, plugin.NewOptions(&ast.AST{}, ""), "")
	assert.Equal(t, 1, len(errs))
	assert.Contains(t, errs[0].Error(), "missing rules file")

	_, errs = Check(nil, plugin.NewOptions(&ast.AST{}, ""), "does-not-exist.yaml")
	assert.Equal(t, 1, len(errs))
}

func TestCheckInvalidRule(t *testing.T) {
	config, opts := writeRules(t, `
- description: broken target
  match:
    target: widget
  constraint:
    narration:
      required: true
`)

	_, errs := Check(nil, opts, config)
	assert.Equal(t, 1, len(errs))
	assert.Contains(t, errs[0].Error(), "broken target")
}

func TestResolveRulesPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "rules.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	opts := plugin.NewOptions(&ast.AST{}, filepath.Join(tmpDir, "main.beancount"))

	assert.Equal(t, path, ResolveRulesPath("rules.yaml", opts))
	assert.Equal(t, "/abs/rules.yaml", ResolveRulesPath("/abs/rules.yaml", opts))
	assert.Equal(t, "other.yaml", ResolveRulesPath("other.yaml", opts))
}
