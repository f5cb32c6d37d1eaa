package rules

import (
	"encoding/json"

	"github.com/beanlint/beanlint/ast"
)

// Lift converts a directive into a nested map so rules can traverse entries
// and postings uniformly. The shape mirrors the directive fields, with a
// "_type" key holding the directive name and metadata under "meta". Numbers
// become json.Number so evaluators keep the exact decimal representation.
//
// Transactions additionally carry their postings under "postings", each with
// the transaction's metadata propagated down (transaction values win on key
// collisions). Lifting never mutates the directive.
func Lift(d ast.Directive) map[string]any {
	m := map[string]any{
		"_type": d.Directive(),
		"meta":  liftMetadata(d),
	}
	if date := ast.DirectiveDate(d); date != nil {
		m["date"] = date.String()
	}

	switch e := d.(type) {
	case *ast.Transaction:
		m["flag"] = e.Flag
		m["payee"] = e.Payee
		m["narration"] = e.Narration
		m["tags"] = liftTags(e.Tags)
		m["links"] = liftLinks(e.Links)

		postings := make([]any, 0, len(e.Postings))
		for _, p := range e.Postings {
			postings = append(postings, LiftPosting(e, p))
		}
		m["postings"] = postings

	case *ast.Open:
		m["account"] = string(e.Account)
		currencies := make([]any, 0, len(e.ConstraintCurrencies))
		for _, c := range e.ConstraintCurrencies {
			currencies = append(currencies, c)
		}
		m["currencies"] = currencies

	case *ast.Close:
		m["account"] = string(e.Account)

	case *ast.Commodity:
		m["currency"] = e.Currency

	case *ast.Balance:
		m["account"] = string(e.Account)
		m["amount"] = liftAmount(e.Amount)

	case *ast.Pad:
		m["account"] = string(e.Account)
		m["source_account"] = string(e.AccountPad)

	case *ast.Note:
		m["account"] = string(e.Account)
		m["comment"] = e.Description

	case *ast.Document:
		m["account"] = string(e.Account)
		m["filename"] = e.PathToDocument

	case *ast.Price:
		m["currency"] = e.Commodity
		m["amount"] = liftAmount(e.Amount)

	case *ast.Event:
		m["type"] = e.Name
		m["description"] = e.Value

	case *ast.Query:
		m["name"] = e.Name
		m["query_string"] = e.Contents

	case *ast.Custom:
		m["type"] = e.Type
	}

	return m
}

// LiftPosting converts a posting into map form, merging in the owning
// transaction's metadata.
func LiftPosting(txn *ast.Transaction, p *ast.Posting) map[string]any {
	meta := liftMetadata(p)
	for key, value := range liftMetadata(txn) {
		meta[key] = value
	}

	m := map[string]any{
		"_type":   "posting",
		"account": string(p.Account),
		"flag":    p.Flag,
		"meta":    meta,
	}
	if p.Amount != nil {
		m["units"] = liftAmount(p.Amount)
	}
	if p.Price != nil {
		m["price"] = liftAmount(p.Price)
	}

	return m
}

func liftAmount(a *ast.Amount) map[string]any {
	if a == nil {
		return nil
	}
	return map[string]any{
		"number":   json.Number(a.Value),
		"currency": a.Currency,
	}
}

func liftMetadata(w ast.WithMetadata) map[string]any {
	meta := make(map[string]any)

	for _, key := range w.MetadataKeys() {
		value := w.GetMetadata(key)
		switch {
		case value == nil:
		case value.Boolean != nil:
			meta[key] = *value.Boolean
		case value.Number != nil:
			meta[key] = json.Number(*value.Number)
		case value.Amount != nil:
			meta[key] = liftAmount(value.Amount)
		default:
			meta[key] = value.String()
		}
	}

	return meta
}

func liftTags(tags []ast.Tag) []any {
	out := make([]any, 0, len(tags))
	for _, t := range tags {
		out = append(out, string(t))
	}
	return out
}

func liftLinks(links []ast.Link) []any {
	out := make([]any, 0, len(links))
	for _, l := range links {
		out = append(out, string(l))
	}
	return out
}
