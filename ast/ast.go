// Package ast declares the types used to represent syntax trees for Beancount
// files.
//
// These types represent the structure of Beancount directives, transactions,
// and related elements that make up a ledger. An AST is created by parsing a
// file with the parser package, or constructed programmatically. The plugin
// packages operate on []Directive slices taken from an AST.
package ast

import (
	"golang.org/x/exp/slices"
)

// AST represents a parsed Beancount file containing directives, options,
// includes, and other top-level elements.
type AST struct {
	Directives Directives
	Options    []*Option
	Includes   []*Include
	Plugins    []*Plugin
	Pushtags   []*Pushtag
	Poptags    []*Poptag
	Pushmetas  []*Pushmeta
	Popmetas   []*Popmeta
}

// WithMetadata is the interface for AST nodes that can have metadata attached.
type WithMetadata interface {
	AddMetadata(...*Metadata)
	GetMetadata(key string) *MetadataValue
	MetadataKeys() []string
}

// withMetadata is an embeddable struct that implements WithMetadata.
type withMetadata struct {
	Metadata []*Metadata
}

func (w *withMetadata) AddMetadata(m ...*Metadata) {
	w.Metadata = append(w.Metadata, m...)
}

func (w *withMetadata) HasMetadata() bool {
	return len(w.Metadata) > 0
}

// GetMetadata returns the value for a metadata key, or nil if absent.
func (w *withMetadata) GetMetadata(key string) *MetadataValue {
	for _, m := range w.Metadata {
		if m.Key == key {
			return m.Value
		}
	}
	return nil
}

// MetadataKeys returns the attached metadata keys in attachment order.
func (w *withMetadata) MetadataKeys() []string {
	keys := make([]string, 0, len(w.Metadata))
	for _, m := range w.Metadata {
		keys = append(keys, m.Key)
	}
	return keys
}

// Directive is the interface implemented by all dated directive types.
type Directive interface {
	WithMetadata

	Position() Position
	date() *Date
	Directive() string
}

// DirectiveDate returns the date of any directive.
func DirectiveDate(d Directive) *Date {
	return d.date()
}

// Directives is a slice of Directive that sorts by date, then type priority.
type Directives []Directive

// compareDirectives orders two directives by date, then by type priority.
// For same-date directives, opens process first, closes second, everything
// else after, matching how a ledger consumes them.
func compareDirectives(a, b Directive) int {
	if a.date().Before(b.date().Time) {
		return -1
	} else if a.date().After(b.date().Time) {
		return 1
	}

	ap, bp := directiveTypePriority(a), directiveTypePriority(b)
	switch {
	case ap < bp:
		return -1
	case ap > bp:
		return 1
	default:
		return 0
	}
}

func directiveTypePriority(d Directive) int {
	switch d.(type) {
	case *Open:
		return 0
	case *Close:
		return 1
	default:
		return 2
	}
}

// isSorted checks if directives are already in order, the common case for
// well-maintained files.
func isSorted(d Directives) bool {
	for i := 1; i < len(d); i++ {
		if compareDirectives(d[i], d[i-1]) < 0 {
			return false
		}
	}
	return true
}

// SortDirectives sorts all directives by their parsed date. Called by the
// loader after merging includes; safe to call on a manually built AST.
func SortDirectives(ast *AST) {
	if isSorted(ast.Directives) {
		return
	}
	slices.SortStableFunc(ast.Directives, compareDirectives)
}

// positionedItem pairs any top-level item with its source position so
// push/pop directives can be applied in file order.
type positionedItem struct {
	pos       Position
	directive Directive
	pushtag   *Pushtag
	poptag    *Poptag
	pushmeta  *Pushmeta
	popmeta   *Popmeta
}

func comparePositioned(a, b positionedItem) int {
	if a.pos.Filename != b.pos.Filename {
		if a.pos.Filename < b.pos.Filename {
			return -1
		}
		return 1
	}
	switch {
	case a.pos.Offset < b.pos.Offset:
		return -1
	case a.pos.Offset > b.pos.Offset:
		return 1
	default:
		return 0
	}
}

// ApplyPushPop applies pushtag/poptag and pushmeta/popmeta directives to the
// directives between them, in file order (before date sorting). The active
// stacks are scoped per source file, so an unbalanced push does not leak
// into other files.
func ApplyPushPop(ast *AST) {
	items := make([]positionedItem, 0,
		len(ast.Directives)+len(ast.Pushtags)+len(ast.Poptags)+len(ast.Pushmetas)+len(ast.Popmetas))

	for _, d := range ast.Directives {
		items = append(items, positionedItem{pos: d.Position(), directive: d})
	}
	for _, pt := range ast.Pushtags {
		items = append(items, positionedItem{pos: pt.Pos, pushtag: pt})
	}
	for _, pt := range ast.Poptags {
		items = append(items, positionedItem{pos: pt.Pos, poptag: pt})
	}
	for _, pm := range ast.Pushmetas {
		items = append(items, positionedItem{pos: pm.Pos, pushmeta: pm})
	}
	for _, pm := range ast.Popmetas {
		items = append(items, positionedItem{pos: pm.Pos, popmeta: pm})
	}

	slices.SortStableFunc(items, comparePositioned)

	var activeTags []Tag
	activeMetadata := make(map[string]string)
	currentFile := ""

	for i, item := range items {
		if i == 0 || item.pos.Filename != currentFile {
			currentFile = item.pos.Filename
			activeTags = activeTags[:0]
			clear(activeMetadata)
		}

		switch {
		case item.pushtag != nil:
			activeTags = append(activeTags, item.pushtag.Tag)

		case item.poptag != nil:
			for i, tag := range activeTags {
				if tag == item.poptag.Tag {
					activeTags = append(activeTags[:i], activeTags[i+1:]...)
					break
				}
			}

		case item.pushmeta != nil:
			activeMetadata[item.pushmeta.Key] = item.pushmeta.Value

		case item.popmeta != nil:
			delete(activeMetadata, item.popmeta.Key)

		case item.directive != nil:
			if txn, ok := item.directive.(*Transaction); ok {
				txn.Tags = append(txn.Tags, activeTags...)
			}
			for key, value := range activeMetadata {
				if item.directive.GetMetadata(key) == nil {
					item.directive.AddMetadata(&Metadata{Key: key, Value: MetadataString(value)})
				}
			}
		}
	}
}
