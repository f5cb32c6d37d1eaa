// Package plugins wires the built-in ledger plugins into a registry.
package plugins

import (
	"github.com/beanlint/beanlint/plugin"
	"github.com/beanlint/beanlint/plugins/documents"
	"github.com/beanlint/beanlint/plugins/ordering"
	"github.com/beanlint/beanlint/plugins/rules"
	"github.com/beanlint/beanlint/plugins/schema"
)

// DefaultRegistry returns a registry with all built-in plugins registered:
//
//	file_ordering         per-file chronological ordering
//	no_missing_documents  referenced document paths exist on disk
//	validate              rule-based validation, built-in constraint language
//	cerberus_validate     rule-based validation, JSON Schema constraints
func DefaultRegistry() *plugin.Registry {
	r := plugin.NewRegistry()
	r.Register("file_ordering", ordering.Check)
	r.Register("no_missing_documents", documents.Check)
	r.Register("validate", rules.Check)
	r.Register("cerberus_validate", schema.Check)
	return r
}
