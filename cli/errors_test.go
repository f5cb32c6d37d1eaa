package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/beanlint/beanlint/ast"
	"github.com/beanlint/beanlint/parser"
	"github.com/beanlint/beanlint/plugin"
)

func TestErrorRendererParseErrorWithSourceContext(t *testing.T) {
	sourceContent := `2024-01-15 * "Cafe purchase" "Lunch at cafe"
  Expenses:Food:Cafe      -25.00 USD
  Assets:Checking

2024-01-16 * "Another transaction"
  Expenses:Food:Restaurant  -30.00
  Assets:Checking`

	parseErr := parser.NewParseError(ast.Position{
		Filename: "test.beancount",
		Line:     6,
		Column:   29,
	}, "expected currency")

	renderer := NewErrorRenderer([]byte(sourceContent))
	output := renderer.Render(parseErr)

	assert.Contains(t, output, "expected currency")
	assert.Contains(t, output, "Expenses:Food:Restaurant")
	assert.Contains(t, output, "^")

	// Source lines are indented three spaces.
	foundIndented := false
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "   ") && strings.Contains(line, "Expenses:Food:Restaurant") {
			foundIndented = true
			break
		}
	}
	assert.True(t, foundIndented)
}

func TestErrorRendererWithoutSource(t *testing.T) {
	parseErr := parser.NewParseError(ast.Position{
		Filename: "test.beancount",
		Line:     6,
	}, "expected currency")

	renderer := NewErrorRenderer(nil)
	output := renderer.Render(parseErr)

	assert.Contains(t, output, "test.beancount:6: expected currency")
	assert.NotContains(t, output, "^")
}

func TestErrorRendererCaretAlignment(t *testing.T) {
	sourceContent := `2024-01-15 open Assets:Checking`

	parseErr := parser.NewParseError(ast.Position{
		Filename: "test.beancount",
		Line:     1,
		Column:   17,
	}, "bad account")

	renderer := NewErrorRenderer([]byte(sourceContent))
	output := renderer.Render(parseErr)

	var caretLine string
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "^") {
			caretLine = line
			break
		}
	}
	assert.NotEqual(t, "", caretLine)

	// Three spaces of indent plus sixteen columns puts the caret under the
	// account name.
	assert.Equal(t, 19, strings.Index(stripANSI(caretLine), "^"))
}

func TestErrorRendererWithDirective(t *testing.T) {
	txn := &ast.Transaction{
		Pos:       ast.Position{Filename: "main.beancount", Line: 4},
		Date:      ast.MustDate("2024-01-01"),
		Flag:      "*",
		Narration: "coffee",
		Postings: []*ast.Posting{
			{Account: "Assets:Checking", Amount: &ast.Amount{Value: "-4.50", Currency: "USD"}},
			{Account: "Expenses:Food"},
		},
	}

	renderer := NewErrorRenderer(nil)
	output := renderer.Render(plugin.Errorf(txn, "Constraint violation: untagged coffee"))

	assert.Contains(t, output, "Constraint violation: untagged coffee")
	assert.Contains(t, output, `"coffee"`)
	assert.Contains(t, output, "Assets:Checking")
	assert.Contains(t, output, "main.beancount:4")
}

func TestErrorRendererRenderAll(t *testing.T) {
	renderer := NewErrorRenderer(nil)

	output := renderer.RenderAll([]error{
		&plugin.Error{Message: "first"},
		&plugin.Error{Message: "second"},
	})

	assert.Contains(t, output, "first")
	assert.Contains(t, output, "second")
	assert.Equal(t, "", renderer.RenderAll(nil))
}

// stripANSI removes terminal escape sequences so tests can assert on layout.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
