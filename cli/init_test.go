package cli

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/beanlint/beanlint/parser"
)

func TestStarterLedgerParses(t *testing.T) {
	source := starterLedger([]string{"file_ordering", "validate"}, "EUR")

	tree, err := parser.ParseString(context.Background(), source)
	assert.NoError(t, err)

	assert.Equal(t, 2, len(tree.Plugins))
	assert.Equal(t, "file_ordering", tree.Plugins[0].Name)
	assert.Equal(t, "validate", tree.Plugins[1].Name)
	assert.Equal(t, "rules.yaml", tree.Plugins[1].Config)

	assert.Equal(t, "EUR", tree.Options[0].Value)

	// Three opens plus the opening transaction.
	assert.Equal(t, 4, len(tree.Directives))
}

func TestStarterLedgerWithoutPlugins(t *testing.T) {
	source := starterLedger(nil, "USD")

	tree, err := parser.ParseString(context.Background(), source)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(tree.Plugins))
}

func TestExtraPlugins(t *testing.T) {
	cmd := &LintCmd{
		Rules:  "checks.yaml",
		Plugin: []string{"file_ordering", "no_missing_documents=receipt,meta-only"},
	}

	extras, err := cmd.extraPlugins()
	assert.NoError(t, err)
	assert.Equal(t, 3, len(extras))

	assert.Equal(t, "validate", extras[0].Name)
	assert.Equal(t, "checks.yaml", extras[0].Config)
	assert.Equal(t, "file_ordering", extras[1].Name)
	assert.Equal(t, "", extras[1].Config)
	assert.Equal(t, "no_missing_documents", extras[2].Name)
	assert.Equal(t, "receipt,meta-only", extras[2].Config)

	_, err = (&LintCmd{Plugin: []string{"=config"}}).extraPlugins()
	assert.Error(t, err)
}

func TestCommandError(t *testing.T) {
	err := NewCommandError(2)
	assert.Equal(t, 2, err.ExitCode())
	assert.Equal(t, "command failed", err.Error())
}
