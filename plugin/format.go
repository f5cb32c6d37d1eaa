package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/beanlint/beanlint/ast"
)

// Formatter renders errors for output in different formats.
type Formatter interface {
	// Format renders a single error.
	Format(err error) string

	// FormatAll renders multiple errors.
	FormatAll(errs []error) string
}

// TextFormatter renders errors for command-line output in bean-check style:
// the message followed by the offending directive, indented.
type TextFormatter struct{}

// NewTextFormatter creates a text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format renders a single error. Errors carrying a directive show it below
// the message for context.
func (tf *TextFormatter) Format(err error) string {
	if e, ok := err.(interface {
		GetPosition() ast.Position
		GetDirective() ast.Directive
		Error() string
	}); ok && e.GetDirective() != nil {
		return e.Error() + "\n\n" + renderDirective(e.GetDirective())
	}
	return err.Error()
}

// FormatAll renders errors separated by blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf bytes.Buffer
	for i, err := range errs {
		buf.WriteString(tf.Format(err))
		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}
	return buf.String()
}

// renderDirective prints a directive in ledger syntax, indented three spaces.
func renderDirective(directive ast.Directive) string {
	var buf bytes.Buffer

	switch d := directive.(type) {
	case *ast.Transaction:
		fmt.Fprintf(&buf, "   %s %s", d.Date, d.Flag)
		if d.Payee != "" {
			fmt.Fprintf(&buf, " %q", d.Payee)
		}
		fmt.Fprintf(&buf, " %q\n", d.Narration)
		for _, p := range d.Postings {
			buf.WriteString("     ")
			if p.Flag != "" {
				buf.WriteString(p.Flag)
				buf.WriteByte(' ')
			}
			buf.WriteString(string(p.Account))
			if p.Amount != nil {
				fmt.Fprintf(&buf, "  %s", p.Amount)
			}
			buf.WriteByte('\n')
		}

	case *ast.Balance:
		fmt.Fprintf(&buf, "   %s balance %s", d.Date, d.Account)
		if d.Amount != nil {
			fmt.Fprintf(&buf, "  %s", d.Amount)
		}
		buf.WriteByte('\n')

	case *ast.Pad:
		fmt.Fprintf(&buf, "   %s pad %s %s\n", d.Date, d.Account, d.AccountPad)

	case *ast.Note:
		fmt.Fprintf(&buf, "   %s note %s %q\n", d.Date, d.Account, d.Description)

	case *ast.Document:
		fmt.Fprintf(&buf, "   %s document %s %q\n", d.Date, d.Account, d.PathToDocument)

	case *ast.Open:
		fmt.Fprintf(&buf, "   %s open %s", d.Date, d.Account)
		if len(d.ConstraintCurrencies) > 0 {
			fmt.Fprintf(&buf, " %s", strings.Join(d.ConstraintCurrencies, ", "))
		}
		buf.WriteByte('\n')

	case *ast.Close:
		fmt.Fprintf(&buf, "   %s close %s\n", d.Date, d.Account)

	default:
		fmt.Fprintf(&buf, "   %s %s\n", ast.DirectiveDate(directive), directive.Directive())
	}

	return buf.String()
}

// JSONFormatter renders errors as structured JSON for machine consumers.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON is the JSON shape of a single error.
type ErrorJSON struct {
	Type     string        `json:"type"`
	Message  string        `json:"message"`
	Position *PositionJSON `json:"position,omitempty"`
}

// PositionJSON is the JSON shape of a source position.
type PositionJSON struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// Format renders a single error as a JSON object.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.toJSON(err))
	return string(data)
}

// FormatAll renders errors as an indented JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	data, _ := json.MarshalIndent(jf.FormatAllToSlice(errs), "", "  ")
	return string(data)
}

// FormatAllToSlice returns errors as ErrorJSON values, for embedding in a
// larger response.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		result = append(result, jf.toJSON(err))
	}
	return result
}

func (jf *JSONFormatter) toJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}

	if e, ok := err.(interface{ GetPosition() ast.Position }); ok {
		pos := e.GetPosition()
		if !pos.IsZero() {
			errJSON.Position = &PositionJSON{
				Filename: pos.Filename,
				Line:     pos.Line,
				Column:   pos.Column,
			}
		}
	}

	return errJSON
}
