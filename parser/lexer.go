package parser

// Lexer implements a zero-copy lexer for Beancount files.
//
// Tokens store byte offsets rather than string values; text is materialized
// on demand by the parser. Whitespace and comments are skipped during
// scanning, but every token carries its line and column so the parser can
// recover the line structure (postings and metadata are indented lines).

import (
	"bytes"
)

// Lexer tokenizes Beancount source code.
type Lexer struct {
	source []byte
	pos    int // Current byte position
	line   int // Current line (1-indexed)
	column int // Current column (1-indexed)
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source []byte) *Lexer {
	// Empirically ~1 token per 20 bytes; pre-allocation avoids most growth.
	estimatedTokens := len(source)/20 + 64

	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, estimatedTokens),
	}
}

// ScanAll lexes the entire source and returns all tokens. Single pass, no
// backtracking.
func (l *Lexer) ScanAll() []Token {
	for l.pos < len(l.source) {
		l.skipWhitespace()

		if l.pos >= len(l.source) {
			break
		}

		if l.peek() == ';' {
			l.skipComment()
			continue
		}

		l.tokens = append(l.tokens, l.scanToken())
	}

	l.tokens = append(l.tokens, Token{
		Type:   EOF,
		Start:  l.pos,
		End:    l.pos,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens
}

// scanToken scans the next token from the current position.
func (l *Lexer) scanToken() Token {
	start := l.pos
	startLine := l.line
	startCol := l.column

	ch := l.advance()

	switch {
	// Dates look like numbers; check the YYYY-MM-DD shape first.
	case ch >= '0' && ch <= '9':
		if l.isDatePattern(start) {
			return l.scanDate(start, startLine, startCol)
		}
		return l.scanNumber(start, startLine, startCol)
	case ch == '-' && l.peekIsDigit():
		return l.scanNumber(start, startLine, startCol)

	case ch == '"':
		return l.scanString(start, startLine, startCol)

	case ch == '#':
		return l.scanTagOrLink(start, startLine, startCol, TAG)

	case ch == '^':
		return l.scanTagOrLink(start, startLine, startCol, LINK)

	// Accounts and currency identifiers start with an uppercase letter;
	// bytes >= 0x80 allow Unicode letters in account names.
	case ch >= 'A' && ch <= 'Z' || ch >= 0x80:
		return l.scanAccountOrIdent(start, startLine, startCol)

	case ch >= 'a' && ch <= 'z':
		return l.scanKeywordOrIdent(start, startLine, startCol)

	case ch == '*':
		return Token{ASTERISK, start, l.pos, startLine, startCol}
	case ch == '!':
		return Token{EXCLAIM, start, l.pos, startLine, startCol}
	case ch == ':':
		return Token{COLON, start, l.pos, startLine, startCol}
	case ch == ',':
		return Token{COMMA, start, l.pos, startLine, startCol}

	case ch == '{':
		if l.peek() == '{' {
			l.advance()
			return Token{LDBRACE, start, l.pos, startLine, startCol}
		}
		return Token{LBRACE, start, l.pos, startLine, startCol}

	case ch == '}':
		if l.peek() == '}' {
			l.advance()
			return Token{RDBRACE, start, l.pos, startLine, startCol}
		}
		return Token{RBRACE, start, l.pos, startLine, startCol}

	case ch == '@':
		if l.peek() == '@' {
			l.advance()
			return Token{ATAT, start, l.pos, startLine, startCol}
		}
		return Token{AT, start, l.pos, startLine, startCol}

	default:
		return Token{ILLEGAL, start, l.pos, startLine, startCol}
	}
}

// isDatePattern checks if the position starts a date pattern YYYY-MM-DD.
func (l *Lexer) isDatePattern(start int) bool {
	if start+10 > len(l.source) {
		return false
	}

	src := l.source[start:]
	for _, i := range [8]int{0, 1, 2, 3, 5, 6, 8, 9} {
		if src[i] < '0' || src[i] > '9' {
			return false
		}
	}
	return src[4] == '-' && src[7] == '-'
}

// scanDate scans a date: exactly 10 characters, first already consumed.
func (l *Lexer) scanDate(start, line, col int) Token {
	for i := 0; i < 9; i++ {
		l.advance()
	}
	return Token{DATE, start, l.pos, line, col}
}

// scanNumber scans a number: [-]?[0-9]+(\.[0-9]+)?
func (l *Lexer) scanNumber(start, line, col int) Token {
	for l.peekIsDigit() {
		l.advance()
	}

	if l.peek() == '.' && l.pos+1 < len(l.source) &&
		l.source[l.pos+1] >= '0' && l.source[l.pos+1] <= '9' {
		l.advance()
		for l.peekIsDigit() {
			l.advance()
		}
	}

	return Token{NUMBER, start, l.pos, line, col}
}

// scanString scans a quoted string. Strings do not span lines.
func (l *Lexer) scanString(start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch == '"' {
			l.advance()
			break
		}
		if ch == '\n' {
			break
		}
		if ch == '\\' && l.pos+1 < len(l.source) {
			l.advance()
		}
		l.advance()
	}

	return Token{STRING, start, l.pos, line, col}
}

// scanTagOrLink scans #[A-Za-z0-9_-]+ or ^[A-Za-z0-9_-]+, prefix consumed.
func (l *Lexer) scanTagOrLink(start, line, col int, typ TokenType) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if !isNameByte(ch) {
			break
		}
		l.advance()
	}

	return Token{typ, start, l.pos, line, col}
}

// scanAccountOrIdent scans an account name or identifier starting with a
// capital or Unicode letter. Accounts contain colons, identifiers do not.
func (l *Lexer) scanAccountOrIdent(start, line, col int) Token {
	hasColon := false

	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if !isNameByte(ch) && ch != ':' && ch < 0x80 {
			break
		}
		if ch == ':' {
			hasColon = true
		}
		l.advance()
	}

	if hasColon {
		return Token{ACCOUNT, start, l.pos, line, col}
	}
	return Token{IDENT, start, l.pos, line, col}
}

// scanKeywordOrIdent scans a keyword or identifier starting with lowercase.
func (l *Lexer) scanKeywordOrIdent(start, line, col int) Token {
	for l.pos < len(l.source) {
		if !isNameByte(l.source[l.pos]) {
			break
		}
		l.advance()
	}

	return Token{l.keywordType(l.source[start:l.pos]), start, l.pos, line, col}
}

var keywords = map[string]TokenType{
	"txn":       TXN,
	"balance":   BALANCE,
	"open":      OPEN,
	"close":     CLOSE,
	"commodity": COMMODITY,
	"pad":       PAD,
	"note":      NOTE,
	"document":  DOCUMENT,
	"price":     PRICE,
	"event":     EVENT,
	"query":     QUERY,
	"custom":    CUSTOM,
	"option":    OPTION,
	"include":   INCLUDE,
	"plugin":    PLUGIN,
	"pushtag":   PUSHTAG,
	"poptag":    POPTAG,
	"pushmeta":  PUSHMETA,
	"popmeta":   POPMETA,
}

// keywordType returns the token type for a keyword, or IDENT otherwise.
func (l *Lexer) keywordType(word []byte) TokenType {
	// Keywords are short; avoid allocating for obvious non-keywords.
	if len(word) > 9 {
		return IDENT
	}
	if typ, ok := keywords[string(bytes.ToLower(word))]; ok && bytes.Equal(word, bytes.ToLower(word)) {
		return typ
	}
	return IDENT
}

func isNameByte(ch byte) bool {
	return ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' ||
		ch >= '0' && ch <= '9' || ch == '_' || ch == '-'
}

// skipWhitespace skips whitespace and updates line/column tracking.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' {
			break
		}
		if ch == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
}

// skipComment skips a comment line (;...).
func (l *Lexer) skipComment() {
	for l.pos < len(l.source) && l.source[l.pos] != '\n' {
		l.pos++
	}
	if l.pos < len(l.source) {
		l.pos++
		l.line++
		l.column = 1
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekIsDigit() bool {
	ch := l.peek()
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}
