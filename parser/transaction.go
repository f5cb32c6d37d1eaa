package parser

import (
	"github.com/beanlint/beanlint/ast"
)

// parseTransaction parses a transaction header, its metadata, and postings.
// The date token has already been consumed.
func (p *Parser) parseTransaction(pos ast.Position, date *ast.Date) (*ast.Transaction, error) {
	flagTok := p.advance()

	txn := &ast.Transaction{Pos: pos, Date: date}

	switch flagTok.Type {
	case TXN:
		txn.Flag = "*"
	case ASTERISK:
		txn.Flag = "*"
	case EXCLAIM:
		txn.Flag = "!"
	case IDENT:
		// Single-letter flags such as P for padding transactions.
		flag := flagTok.String(p.source)
		if len(flag) != 1 {
			return nil, p.errorAtToken(flagTok, "invalid transaction flag %q", flag)
		}
		txn.Flag = flag
	}

	// Optional payee and narration. One string means narration only.
	if p.check(STRING) && p.peek().Line == flagTok.Line {
		first, err := p.expectString("narration")
		if err != nil {
			return nil, err
		}
		if p.check(STRING) && p.peek().Line == flagTok.Line {
			second, err := p.expectString("narration")
			if err != nil {
				return nil, err
			}
			txn.Payee = first
			txn.Narration = second
		} else {
			txn.Narration = first
		}
	}

	// Tags and links trail the header line in any order.
	for p.peek().Line == flagTok.Line {
		tok := p.peek()
		if tok.Type == TAG {
			p.advance()
			txn.Tags = append(txn.Tags, ast.Tag(tok.String(p.source)))
		} else if tok.Type == LINK {
			p.advance()
			txn.Links = append(txn.Links, ast.Link(tok.String(p.source)))
		} else {
			break
		}
	}

	// Metadata lines come before the first posting.
	metadata, err := p.parseMetadata(pos.Column)
	if err != nil {
		return nil, err
	}
	txn.AddMetadata(metadata...)

	postings, err := p.parsePostings(pos.Column)
	if err != nil {
		return nil, err
	}
	txn.Postings = postings

	return txn, nil
}

// parsePostings parses the indented posting lines following a transaction.
func (p *Parser) parsePostings(baseCol int) ([]*ast.Posting, error) {
	var postings []*ast.Posting

	for p.atPostingLine(baseCol) {
		posting, err := p.parsePosting()
		if err != nil {
			return nil, err
		}
		postings = append(postings, posting)
	}

	return postings, nil
}

// atPostingLine reports whether the next token starts a posting: an indented
// line beginning with an account or a posting flag.
func (p *Parser) atPostingLine(baseCol int) bool {
	tok := p.peek()
	if tok.Column <= baseCol {
		return false
	}

	switch tok.Type {
	case ACCOUNT:
		return true
	case ASTERISK, EXCLAIM:
		return p.peekAt(1).Type == ACCOUNT
	default:
		return false
	}
}

func (p *Parser) parsePosting() (*ast.Posting, error) {
	first := p.peek()

	posting := &ast.Posting{Pos: p.position(first)}

	switch first.Type {
	case ASTERISK:
		p.advance()
		posting.Flag = "*"
	case EXCLAIM:
		p.advance()
		posting.Flag = "!"
	}

	account, err := p.expectAccount()
	if err != nil {
		return nil, err
	}
	posting.Account = account

	// Optional amount on the same line.
	if p.check(NUMBER) && p.peek().Line == first.Line {
		amount, err := p.parseAmount()
		if err != nil {
			return nil, err
		}
		posting.Amount = amount
	}

	// Optional cost basis: {...} per unit, {{...}} total.
	if p.check(LBRACE) || p.check(LDBRACE) {
		cost, err := p.parseCost()
		if err != nil {
			return nil, err
		}
		posting.Cost = cost
	}

	// Optional price annotation: @ per unit, @@ total.
	if p.check(AT) || p.check(ATAT) {
		posting.PriceTotal = p.peek().Type == ATAT
		p.advance()

		price, err := p.parseAmount()
		if err != nil {
			return nil, err
		}
		posting.Price = price
	}

	metadata, err := p.parseMetadata(first.Column)
	if err != nil {
		return nil, err
	}
	posting.AddMetadata(metadata...)

	return posting, nil
}

// parseCost parses a cost specification between braces. Components (amount,
// date, label) are comma separated and may appear in any order; {} is the
// empty specification.
func (p *Parser) parseCost() (*ast.Cost, error) {
	open := p.advance()

	cost := &ast.Cost{Total: open.Type == LDBRACE}
	closing := RBRACE
	if cost.Total {
		closing = RDBRACE
	}

	for !p.check(closing) && !p.atEnd() {
		tok := p.peek()

		switch tok.Type {
		case NUMBER:
			amount, err := p.parseAmount()
			if err != nil {
				return nil, err
			}
			cost.Amount = amount

		case DATE:
			p.advance()
			date, err := ast.ParseDate(tok.String(p.source))
			if err != nil {
				return nil, p.errorAtToken(tok, "%s", err.Error())
			}
			cost.Date = date

		case STRING:
			label, err := p.expectString("cost label")
			if err != nil {
				return nil, err
			}
			cost.Label = label

		default:
			return nil, p.errorAtToken(tok, "unexpected token %q in cost", tok.String(p.source))
		}

		if !p.match(COMMA) {
			break
		}
	}

	if _, err := p.consume(closing, closing.String()); err != nil {
		return nil, err
	}

	return cost, nil
}
