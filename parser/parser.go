// Package parser implements a recursive descent parser for Beancount files.
//
// Parsing happens in two phases: the lexer produces a flat token stream with
// positions, then the parser walks the stream building an ast.AST. The parser
// relies on token line and column information to detect indented continuation
// lines (postings and metadata), since the lexer emits no newline tokens.
package parser

import (
	"context"
	"strings"

	"github.com/beanlint/beanlint/ast"
	"github.com/beanlint/beanlint/telemetry"
)

// Parser parses a token stream into an AST.
type Parser struct {
	source   []byte
	filename string
	tokens   []Token
	pos      int
}

// ParseBytes parses Beancount source into an AST.
func ParseBytes(ctx context.Context, source []byte) (*ast.AST, error) {
	return ParseBytesWithFilename(ctx, "", source)
}

// ParseString parses Beancount source into an AST.
func ParseString(ctx context.Context, source string) (*ast.AST, error) {
	return ParseBytesWithFilename(ctx, "", []byte(source))
}

// ParseBytesWithFilename parses source, recording the filename in every
// position so errors and plugins can report where entries came from.
func ParseBytesWithFilename(ctx context.Context, filename string, source []byte) (*ast.AST, error) {
	timer := telemetry.FromContext(ctx).Start("Parse " + displayName(filename))
	defer timer.End()

	lexer := NewLexer(source)
	tokens := lexer.ScanAll()

	p := &Parser{
		source:   source,
		filename: filename,
		tokens:   tokens,
	}

	return p.parse()
}

func displayName(filename string) string {
	if filename == "" {
		return "<input>"
	}
	return filename
}

func (p *Parser) parse() (*ast.AST, error) {
	tree := &ast.AST{}

	for !p.atEnd() {
		tok := p.peek()

		switch tok.Type {
		case DATE:
			directive, err := p.parseDirective()
			if err != nil {
				return nil, err
			}
			tree.Directives = append(tree.Directives, directive)

		case OPTION:
			option, err := p.parseOption()
			if err != nil {
				return nil, err
			}
			tree.Options = append(tree.Options, option)

		case INCLUDE:
			include, err := p.parseInclude()
			if err != nil {
				return nil, err
			}
			tree.Includes = append(tree.Includes, include)

		case PLUGIN:
			plugin, err := p.parsePlugin()
			if err != nil {
				return nil, err
			}
			tree.Plugins = append(tree.Plugins, plugin)

		case PUSHTAG:
			pushtag, err := p.parsePushtag()
			if err != nil {
				return nil, err
			}
			tree.Pushtags = append(tree.Pushtags, pushtag)

		case POPTAG:
			poptag, err := p.parsePoptag()
			if err != nil {
				return nil, err
			}
			tree.Poptags = append(tree.Poptags, poptag)

		case PUSHMETA:
			pushmeta, err := p.parsePushmeta()
			if err != nil {
				return nil, err
			}
			tree.Pushmetas = append(tree.Pushmetas, pushmeta)

		case POPMETA:
			popmeta, err := p.parsePopmeta()
			if err != nil {
				return nil, err
			}
			tree.Popmetas = append(tree.Popmetas, popmeta)

		default:
			return nil, p.errorAtToken(tok, "unexpected token %q at top level", tok.String(p.source))
		}
	}

	return tree, nil
}

// parseDirective dispatches on the keyword following a date.
func (p *Parser) parseDirective() (ast.Directive, error) {
	dateTok := p.advance()

	date, err := ast.ParseDate(dateTok.String(p.source))
	if err != nil {
		return nil, p.errorAtToken(dateTok, "%s", err.Error())
	}

	pos := p.position(dateTok)
	tok := p.peek()

	switch tok.Type {
	case TXN, ASTERISK, EXCLAIM, IDENT:
		return p.parseTransaction(pos, date)
	case OPEN:
		return p.parseOpen(pos, date)
	case CLOSE:
		return p.parseClose(pos, date)
	case COMMODITY:
		return p.parseCommodity(pos, date)
	case BALANCE:
		return p.parseBalance(pos, date)
	case PAD:
		return p.parsePad(pos, date)
	case NOTE:
		return p.parseNote(pos, date)
	case DOCUMENT:
		return p.parseDocument(pos, date)
	case PRICE:
		return p.parsePrice(pos, date)
	case EVENT:
		return p.parseEvent(pos, date)
	case QUERY:
		return p.parseQuery(pos, date)
	case CUSTOM:
		return p.parseCustom(pos, date)
	default:
		return nil, p.errorAtToken(tok, "unexpected token %q after date", tok.String(p.source))
	}
}

// Option line: option "name" "value"
func (p *Parser) parseOption() (*ast.Option, error) {
	kw := p.advance()

	name, err := p.expectString("option name")
	if err != nil {
		return nil, err
	}
	value, err := p.expectString("option value")
	if err != nil {
		return nil, err
	}

	return &ast.Option{Pos: p.position(kw), Name: name, Value: value}, nil
}

// Include line: include "path"
func (p *Parser) parseInclude() (*ast.Include, error) {
	kw := p.advance()

	filename, err := p.expectString("include path")
	if err != nil {
		return nil, err
	}

	return &ast.Include{Pos: p.position(kw), Filename: filename}, nil
}

// Plugin line: plugin "name" ["config"]
func (p *Parser) parsePlugin() (*ast.Plugin, error) {
	kw := p.advance()

	name, err := p.expectString("plugin name")
	if err != nil {
		return nil, err
	}

	plugin := &ast.Plugin{Pos: p.position(kw), Name: name}

	// Config string is optional and must stay on the same line.
	if p.check(STRING) && p.peek().Line == kw.Line {
		config, err := p.expectString("plugin config")
		if err != nil {
			return nil, err
		}
		plugin.Config = config
	}

	return plugin, nil
}

func (p *Parser) parsePushtag() (*ast.Pushtag, error) {
	kw := p.advance()

	tok, err := p.consume(TAG, "tag after pushtag")
	if err != nil {
		return nil, err
	}

	return &ast.Pushtag{Pos: p.position(kw), Tag: ast.Tag(tok.String(p.source))}, nil
}

func (p *Parser) parsePoptag() (*ast.Poptag, error) {
	kw := p.advance()

	tok, err := p.consume(TAG, "tag after poptag")
	if err != nil {
		return nil, err
	}

	return &ast.Poptag{Pos: p.position(kw), Tag: ast.Tag(tok.String(p.source))}, nil
}

// Pushmeta line: pushmeta key: "value"
func (p *Parser) parsePushmeta() (*ast.Pushmeta, error) {
	kw := p.advance()

	key, err := p.expectMetadataKey()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(COLON, "colon after pushmeta key"); err != nil {
		return nil, err
	}
	value, err := p.expectString("pushmeta value")
	if err != nil {
		return nil, err
	}

	return &ast.Pushmeta{Pos: p.position(kw), Key: key, Value: value}, nil
}

func (p *Parser) parsePopmeta() (*ast.Popmeta, error) {
	kw := p.advance()

	key, err := p.expectMetadataKey()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(COLON, "colon after popmeta key"); err != nil {
		return nil, err
	}

	return &ast.Popmeta{Pos: p.position(kw), Key: key}, nil
}

// parseMetadata parses indented "key: value" lines following a directive or
// posting. baseCol is the column of the owning line's first token; metadata
// lines must be indented past it.
func (p *Parser) parseMetadata(baseCol int) ([]*ast.Metadata, error) {
	var metadata []*ast.Metadata

	for p.atMetadataLine(baseCol) {
		keyTok := p.advance()
		key := keyTok.String(p.source)

		if _, err := p.consume(COLON, "colon after metadata key"); err != nil {
			return nil, err
		}

		value, err := p.parseMetadataValue(keyTok.Line)
		if err != nil {
			return nil, err
		}

		metadata = append(metadata, &ast.Metadata{Key: key, Value: value})
	}

	return metadata, nil
}

// atMetadataLine reports whether the next token starts a metadata line: a
// key token on a fresh line, indented past baseCol, followed by a colon.
// Metadata keys are lowercase identifiers but may collide with keywords
// ("document:", "price:"), so keyword tokens are accepted as keys.
func (p *Parser) atMetadataLine(baseCol int) bool {
	tok := p.peek()

	if tok.Type != IDENT && !isKeywordToken(tok.Type) {
		return false
	}
	if tok.Column <= baseCol {
		return false
	}
	return p.peekAt(1).Type == COLON
}

func isKeywordToken(t TokenType) bool {
	return t >= TXN && t <= POPMETA
}

// parseMetadataValue parses the typed value after "key:". An empty value
// (next token on a later line) yields an empty string value.
func (p *Parser) parseMetadataValue(keyLine int) (*ast.MetadataValue, error) {
	tok := p.peek()

	if tok.Line != keyLine || tok.Type == EOF {
		return ast.MetadataString(""), nil
	}

	switch tok.Type {
	case STRING:
		p.advance()
		s := unquoteString(tok.String(p.source))
		return &ast.MetadataValue{StringValue: &s}, nil

	case DATE:
		p.advance()
		date, err := ast.ParseDate(tok.String(p.source))
		if err != nil {
			return nil, p.errorAtToken(tok, "%s", err.Error())
		}
		return &ast.MetadataValue{Date: date}, nil

	case ACCOUNT:
		p.advance()
		account, err := ast.ParseAccount(tok.String(p.source))
		if err != nil {
			return nil, p.errorAtToken(tok, "%s", err.Error())
		}
		return &ast.MetadataValue{Account: &account}, nil

	case TAG:
		p.advance()
		tag := ast.Tag(tok.String(p.source))
		return &ast.MetadataValue{Tag: &tag}, nil

	case LINK:
		p.advance()
		link := ast.Link(tok.String(p.source))
		return &ast.MetadataValue{Link: &link}, nil

	case NUMBER:
		p.advance()
		value := tok.String(p.source)

		// A currency on the same line makes it an amount.
		if p.check(IDENT) && p.peek().Line == tok.Line {
			currency := p.advance().String(p.source)
			return &ast.MetadataValue{Amount: &ast.Amount{Value: value, Currency: currency}}, nil
		}
		return &ast.MetadataValue{Number: &value}, nil

	case IDENT:
		p.advance()
		word := tok.String(p.source)
		switch word {
		case "TRUE":
			v := true
			return &ast.MetadataValue{Boolean: &v}, nil
		case "FALSE":
			v := false
			return &ast.MetadataValue{Boolean: &v}, nil
		default:
			return &ast.MetadataValue{Currency: &word}, nil
		}

	default:
		return nil, p.errorAtToken(tok, "unexpected metadata value %q", tok.String(p.source))
	}
}

// Navigation helpers.

func (p *Parser) atEnd() bool {
	return p.peek().Type == EOF
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

// peekAt looks ahead n tokens without consuming.
func (p *Parser) peekAt(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) check(t TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

// consume advances past a token of the expected type or fails.
func (p *Parser) consume(t TokenType, what string) (Token, error) {
	tok := p.peek()
	if tok.Type != t {
		return tok, p.errorAtToken(tok, "expected %s, found %q", what, tok.String(p.source))
	}
	return p.advance(), nil
}

// expectString consumes a STRING token and returns its unquoted value.
func (p *Parser) expectString(what string) (string, error) {
	tok, err := p.consume(STRING, what)
	if err != nil {
		return "", err
	}
	return unquoteString(tok.String(p.source)), nil
}

// expectAccount consumes an ACCOUNT token and validates it.
func (p *Parser) expectAccount() (ast.Account, error) {
	tok, err := p.consume(ACCOUNT, "account")
	if err != nil {
		return "", err
	}
	account, err := ast.ParseAccount(tok.String(p.source))
	if err != nil {
		return "", p.errorAtToken(tok, "%s", err.Error())
	}
	return account, nil
}

// expectMetadataKey consumes an identifier or keyword used as a metadata key.
func (p *Parser) expectMetadataKey() (string, error) {
	tok := p.peek()
	if tok.Type != IDENT && !isKeywordToken(tok.Type) {
		return "", p.errorAtToken(tok, "expected metadata key, found %q", tok.String(p.source))
	}
	return p.advance().String(p.source), nil
}

func (p *Parser) position(tok Token) ast.Position {
	return ast.Position{
		Filename: p.filename,
		Offset:   tok.Start,
		Line:     tok.Line,
		Column:   tok.Column,
	}
}

func (p *Parser) errorAtToken(tok Token, format string, args ...any) error {
	return NewParseError(p.position(tok), format, args...)
}

// unquoteString strips the surrounding quotes and resolves escapes. The lexer
// guarantees well-formed quoting; truncated strings at EOF lose the closing
// quote only.
func unquoteString(s string) string {
	if len(s) >= 1 && s[0] == '"' {
		s = s[1:]
	}
	if len(s) >= 1 && s[len(s)-1] == '"' {
		s = s[:len(s)-1]
	}
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
