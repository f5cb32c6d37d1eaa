package parser

import (
	"github.com/beanlint/beanlint/ast"
)

func (p *Parser) parseOpen(pos ast.Position, date *ast.Date) (*ast.Open, error) {
	kw := p.advance()

	account, err := p.expectAccount()
	if err != nil {
		return nil, err
	}

	open := &ast.Open{Pos: pos, Date: date, Account: account}

	// Optional constraint currencies, comma separated, on the same line.
	for p.check(IDENT) && p.peek().Line == kw.Line {
		open.ConstraintCurrencies = append(open.ConstraintCurrencies, p.advance().String(p.source))
		if !p.match(COMMA) {
			break
		}
	}

	// Optional booking method.
	if p.check(STRING) && p.peek().Line == kw.Line {
		method, err := p.expectString("booking method")
		if err != nil {
			return nil, err
		}
		open.BookingMethod = method
	}

	metadata, err := p.parseMetadata(pos.Column)
	if err != nil {
		return nil, err
	}
	open.AddMetadata(metadata...)

	return open, nil
}

func (p *Parser) parseClose(pos ast.Position, date *ast.Date) (*ast.Close, error) {
	p.advance()

	account, err := p.expectAccount()
	if err != nil {
		return nil, err
	}

	close := &ast.Close{Pos: pos, Date: date, Account: account}

	metadata, err := p.parseMetadata(pos.Column)
	if err != nil {
		return nil, err
	}
	close.AddMetadata(metadata...)

	return close, nil
}

func (p *Parser) parseCommodity(pos ast.Position, date *ast.Date) (*ast.Commodity, error) {
	p.advance()

	tok, err := p.consume(IDENT, "commodity name")
	if err != nil {
		return nil, err
	}

	commodity := &ast.Commodity{Pos: pos, Date: date, Currency: tok.String(p.source)}

	metadata, err := p.parseMetadata(pos.Column)
	if err != nil {
		return nil, err
	}
	commodity.AddMetadata(metadata...)

	return commodity, nil
}

func (p *Parser) parseBalance(pos ast.Position, date *ast.Date) (*ast.Balance, error) {
	p.advance()

	account, err := p.expectAccount()
	if err != nil {
		return nil, err
	}
	amount, err := p.parseAmount()
	if err != nil {
		return nil, err
	}

	balance := &ast.Balance{Pos: pos, Date: date, Account: account, Amount: amount}

	metadata, err := p.parseMetadata(pos.Column)
	if err != nil {
		return nil, err
	}
	balance.AddMetadata(metadata...)

	return balance, nil
}

func (p *Parser) parsePad(pos ast.Position, date *ast.Date) (*ast.Pad, error) {
	p.advance()

	account, err := p.expectAccount()
	if err != nil {
		return nil, err
	}
	accountPad, err := p.expectAccount()
	if err != nil {
		return nil, err
	}

	pad := &ast.Pad{Pos: pos, Date: date, Account: account, AccountPad: accountPad}

	metadata, err := p.parseMetadata(pos.Column)
	if err != nil {
		return nil, err
	}
	pad.AddMetadata(metadata...)

	return pad, nil
}

func (p *Parser) parseNote(pos ast.Position, date *ast.Date) (*ast.Note, error) {
	p.advance()

	account, err := p.expectAccount()
	if err != nil {
		return nil, err
	}
	description, err := p.expectString("note description")
	if err != nil {
		return nil, err
	}

	note := &ast.Note{Pos: pos, Date: date, Account: account, Description: description}

	metadata, err := p.parseMetadata(pos.Column)
	if err != nil {
		return nil, err
	}
	note.AddMetadata(metadata...)

	return note, nil
}

func (p *Parser) parseDocument(pos ast.Position, date *ast.Date) (*ast.Document, error) {
	p.advance()

	account, err := p.expectAccount()
	if err != nil {
		return nil, err
	}
	path, err := p.expectString("document path")
	if err != nil {
		return nil, err
	}

	document := &ast.Document{Pos: pos, Date: date, Account: account, PathToDocument: path}

	metadata, err := p.parseMetadata(pos.Column)
	if err != nil {
		return nil, err
	}
	document.AddMetadata(metadata...)

	return document, nil
}

func (p *Parser) parsePrice(pos ast.Position, date *ast.Date) (*ast.Price, error) {
	p.advance()

	tok, err := p.consume(IDENT, "price commodity")
	if err != nil {
		return nil, err
	}
	amount, err := p.parseAmount()
	if err != nil {
		return nil, err
	}

	price := &ast.Price{Pos: pos, Date: date, Commodity: tok.String(p.source), Amount: amount}

	metadata, err := p.parseMetadata(pos.Column)
	if err != nil {
		return nil, err
	}
	price.AddMetadata(metadata...)

	return price, nil
}

func (p *Parser) parseEvent(pos ast.Position, date *ast.Date) (*ast.Event, error) {
	p.advance()

	name, err := p.expectString("event name")
	if err != nil {
		return nil, err
	}
	value, err := p.expectString("event value")
	if err != nil {
		return nil, err
	}

	event := &ast.Event{Pos: pos, Date: date, Name: name, Value: value}

	metadata, err := p.parseMetadata(pos.Column)
	if err != nil {
		return nil, err
	}
	event.AddMetadata(metadata...)

	return event, nil
}

func (p *Parser) parseQuery(pos ast.Position, date *ast.Date) (*ast.Query, error) {
	p.advance()

	name, err := p.expectString("query name")
	if err != nil {
		return nil, err
	}
	contents, err := p.expectString("query contents")
	if err != nil {
		return nil, err
	}

	query := &ast.Query{Pos: pos, Date: date, Name: name, Contents: contents}

	metadata, err := p.parseMetadata(pos.Column)
	if err != nil {
		return nil, err
	}
	query.AddMetadata(metadata...)

	return query, nil
}

func (p *Parser) parseCustom(pos ast.Position, date *ast.Date) (*ast.Custom, error) {
	kw := p.advance()

	typ, err := p.expectString("custom type")
	if err != nil {
		return nil, err
	}

	custom := &ast.Custom{Pos: pos, Date: date, Type: typ}

	// Values are whatever fits on the rest of the line.
	for !p.atEnd() && p.peek().Line == kw.Line {
		value, err := p.parseCustomValue()
		if err != nil {
			return nil, err
		}
		custom.Values = append(custom.Values, value)
	}

	metadata, err := p.parseMetadata(pos.Column)
	if err != nil {
		return nil, err
	}
	custom.AddMetadata(metadata...)

	return custom, nil
}

func (p *Parser) parseCustomValue() (*ast.CustomValue, error) {
	tok := p.peek()

	switch tok.Type {
	case STRING:
		p.advance()
		s := unquoteString(tok.String(p.source))
		return &ast.CustomValue{String: &s}, nil

	case NUMBER:
		p.advance()
		value := tok.String(p.source)
		if p.check(IDENT) && p.peek().Line == tok.Line {
			currency := p.advance().String(p.source)
			return &ast.CustomValue{Amount: &ast.Amount{Value: value, Currency: currency}}, nil
		}
		return &ast.CustomValue{Number: &value}, nil

	case IDENT:
		p.advance()
		switch tok.String(p.source) {
		case "TRUE":
			v := true
			return &ast.CustomValue{Boolean: &v}, nil
		case "FALSE":
			v := false
			return &ast.CustomValue{Boolean: &v}, nil
		default:
			s := tok.String(p.source)
			return &ast.CustomValue{String: &s}, nil
		}

	default:
		return nil, p.errorAtToken(tok, "unexpected custom value %q", tok.String(p.source))
	}
}

// parseAmount parses "NUMBER CURRENCY".
func (p *Parser) parseAmount() (*ast.Amount, error) {
	numTok, err := p.consume(NUMBER, "amount")
	if err != nil {
		return nil, err
	}
	curTok, err := p.consume(IDENT, "currency")
	if err != nil {
		return nil, err
	}

	return &ast.Amount{
		Value:    numTok.String(p.source),
		Currency: curTok.String(p.source),
	}, nil
}
