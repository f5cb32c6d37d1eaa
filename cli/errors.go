package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/beanlint/beanlint/ast"
	"github.com/beanlint/beanlint/plugin"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and source context.
type ErrorRenderer struct {
	source []byte
}

// NewErrorRenderer creates a renderer with source content for context.
func NewErrorRenderer(source []byte) *ErrorRenderer {
	return &ErrorRenderer{source: source}
}

// Render formats a single error with styling and context. Errors carrying a
// directive show it below the message; errors with only a position show the
// surrounding source lines with a caret.
func (r *ErrorRenderer) Render(err error) string {
	if e, ok := err.(interface {
		GetPosition() ast.Position
		GetDirective() ast.Directive
		Error() string
	}); ok && e.GetDirective() != nil {
		return r.renderWithDirective(e.Error(), e.GetDirective())
	}

	if e, ok := err.(interface {
		GetPosition() ast.Position
		Error() string
	}); ok {
		if r.source != nil && !e.GetPosition().IsZero() {
			return r.renderWithSourceContext(e.GetPosition(), e.Error())
		}
	}

	return errorStyle.Render(err.Error())
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

func (r *ErrorRenderer) renderWithSourceContext(pos ast.Position, message string) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	sourceLines := strings.Split(string(r.source), "\n")

	startLine := pos.Line - 3
	endLine := pos.Line + 1

	if startLine < 0 {
		startLine = 0
	}
	if endLine >= len(sourceLines) {
		endLine = len(sourceLines) - 1
	}

	for i := startLine; i <= endLine; i++ {
		if i >= len(sourceLines) {
			break
		}
		buf.WriteString("   ")
		buf.WriteString(errContextStyle.Render(sourceLines[i]))
		buf.WriteByte('\n')

		if i == pos.Line-1 && pos.Column > 0 {
			// Align the caret by display width, so tabs and wide
			// characters before the error column don't shift it.
			prefix := sourceLines[i]
			if pos.Column-1 < len(prefix) {
				prefix = prefix[:pos.Column-1]
			}
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", runewidth.StringWidth(prefix)))
			buf.WriteString(errCaretStyle.Render("^"))
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

func (r *ErrorRenderer) renderWithDirective(message string, directive ast.Directive) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))

	plain := plugin.NewTextFormatter().Format(&renderedError{message: message, directive: directive})
	if idx := strings.Index(plain, "\n\n"); idx >= 0 {
		buf.WriteString("\n\n")
		for _, line := range strings.Split(strings.TrimRight(plain[idx+2:], "\n"), "\n") {
			buf.WriteString(errContextStyle.Render(line))
			buf.WriteByte('\n')
		}
	}

	if !directive.Position().IsZero() {
		buf.WriteString("\n")
		buf.WriteString(pathStyle.Render(directive.Position().String()))
	}

	return buf.String()
}

// renderedError adapts a message and directive to the interface the plain
// text formatter renders directive context for.
type renderedError struct {
	message   string
	directive ast.Directive
}

func (e *renderedError) Error() string               { return e.message }
func (e *renderedError) GetPosition() ast.Position   { return e.directive.Position() }
func (e *renderedError) GetDirective() ast.Directive { return e.directive }
