package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
)

// InitCmd interactively scaffolds a ledger file with plugin declarations.
type InitCmd struct {
	File string `help:"Ledger filename to create." arg:"" optional:"" default:"main.beancount"`
}

func (cmd *InitCmd) Run(ctx *kong.Context, globals *Globals) error {
	filename := cmd.File
	selected := []string{"file_ordering", "no_missing_documents"}
	currency := "USD"

	if isTerminal() {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Ledger filename").
					Value(&filename),
				huh.NewInput().
					Title("Operating currency").
					Value(&currency),
				huh.NewMultiSelect[string]().
					Title("Plugins to enable").
					Options(
						huh.NewOption("file_ordering", "file_ordering").Selected(true),
						huh.NewOption("no_missing_documents", "no_missing_documents").Selected(true),
						huh.NewOption("validate", "validate"),
						huh.NewOption("cerberus_validate", "cerberus_validate"),
					).
					Value(&selected),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
	}

	if _, err := os.Stat(filename); err == nil {
		overwrite, err := promptYesNo(fmt.Sprintf("%s already exists, overwrite?", filename))
		if err != nil {
			return err
		}
		if !overwrite {
			printInfof(ctx.Stdout, "Keeping existing %s", pathStyle.Render(filename))
			return nil
		}
	}

	if err := os.WriteFile(filename, []byte(starterLedger(selected, currency)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Created %s", pathStyle.Render(filename)))
	for _, name := range selected {
		printInfof(ctx.Stdout, "Enabled plugin %s", name)
	}

	// Scaffold the rules files the enabled validation plugins point at,
	// leaving any existing ones alone.
	for _, name := range selected {
		var rulesFile, contents string
		switch name {
		case "validate":
			rulesFile, contents = "rules.yaml", starterRules
		case "cerberus_validate":
			rulesFile, contents = "schema-rules.yaml", starterSchemaRules
		default:
			continue
		}

		if _, err := os.Stat(rulesFile); err == nil {
			continue
		}
		if err := os.WriteFile(rulesFile, []byte(contents), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", rulesFile, err)
		}
		printSuccess(ctx.Stdout, fmt.Sprintf("Created %s", pathStyle.Render(rulesFile)))
	}

	return nil
}

const starterRules = `# Rules for the validate plugin. Each rule pairs a match with a constraint.
- description: transactions must have a narration
  match:
    target: transaction
  constraint:
    narration:
      required: true
      type: string
`

const starterSchemaRules = `# Rules for the cerberus_validate plugin. Constraints are JSON Schema.
- description: transactions must have a narration
  match:
    target: transaction
  constraint:
    properties:
      narration:
        type: string
        minLength: 1
    required: [narration]
`

func starterLedger(selected []string, currency string) string {
	today := time.Now().Format("2006-01-02")

	var b strings.Builder
	b.WriteString("option \"operating_currency\" \"" + currency + "\"\n\n")

	for _, name := range selected {
		switch name {
		case "validate":
			b.WriteString("plugin \"validate\" \"rules.yaml\"\n")
		case "cerberus_validate":
			b.WriteString("plugin \"cerberus_validate\" \"schema-rules.yaml\"\n")
		default:
			b.WriteString("plugin \"" + name + "\"\n")
		}
	}
	if len(selected) > 0 {
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s open Assets:Checking %s\n", today, currency)
	fmt.Fprintf(&b, "%s open Equity:Opening-Balances %s\n", today, currency)
	fmt.Fprintf(&b, "%s open Expenses:Misc %s\n\n", today, currency)

	fmt.Fprintf(&b, "%s * \"Opening balance\"\n", today)
	fmt.Fprintf(&b, "  Assets:Checking            100.00 %s\n", currency)
	b.WriteString("  Equity:Opening-Balances\n")

	return b.String()
}
