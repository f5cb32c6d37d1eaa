package parser

import (
	"fmt"

	"github.com/beanlint/beanlint/ast"
)

// ParseError describes a syntax error at a specific source position.
type ParseError struct {
	Pos        ast.Position
	Message    string
	Underlying error
}

func (e *ParseError) Error() string {
	if e.Pos.Filename != "" {
		return fmt.Sprintf("%s:%d: %s", e.Pos.Filename, e.Pos.Line, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// GetPosition returns the source position of the error. Implemented so error
// renderers can show source context without type switching on concrete types.
func (e *ParseError) GetPosition() ast.Position {
	return e.Pos
}

// NewParseError creates a ParseError at the given position.
func NewParseError(pos ast.Position, format string, args ...any) *ParseError {
	return &ParseError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}
