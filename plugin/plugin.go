// Package plugin defines the contract between the loader and ledger plugins.
//
// A plugin is a function that receives the full list of directives, the
// ledger options, and an optional configuration string from the plugin
// declaration, and returns a possibly transformed list of directives plus
// any errors it found. Plugins accumulate errors rather than aborting, so a
// single run reports every problem in the ledger.
//
// Plugins are registered by name in a Registry; Run resolves the plugin
// declarations found in a file against the registry and applies them in
// declaration order, threading the directive list through each one.
package plugin

import (
	"context"
	"fmt"

	"github.com/beanlint/beanlint/ast"
	"github.com/beanlint/beanlint/telemetry"
)

// Func is the signature every plugin implements. It must not mutate the
// entries it receives; transforming plugins return a new slice.
type Func func(entries []ast.Directive, opts *Options, config string) ([]ast.Directive, []error)

// Options carries ledger-wide settings to plugins: the option directives from
// the file plus the name of the main file being processed.
type Options struct {
	// Filename is the path of the top-level ledger file, or empty when
	// parsing from memory.
	Filename string

	values map[string]string
}

// NewOptions builds Options from a parsed tree.
func NewOptions(tree *ast.AST, filename string) *Options {
	opts := &Options{
		Filename: filename,
		values:   make(map[string]string, len(tree.Options)),
	}
	for _, o := range tree.Options {
		opts.values[o.Name] = o.Value
	}
	return opts
}

// Get returns the value of a ledger option, or "" if unset.
func (o *Options) Get(name string) string {
	return o.values[name]
}

// Error is a problem reported by a plugin, positioned at the directive (or
// declaration) that caused it.
type Error struct {
	Message   string
	Pos       ast.Position
	Directive ast.Directive
}

func (e *Error) Error() string {
	if e.Pos.Filename != "" {
		return fmt.Sprintf("%s:%d: %s", e.Pos.Filename, e.Pos.Line, e.Message)
	}
	return e.Message
}

// GetPosition returns the source position of the error.
func (e *Error) GetPosition() ast.Position {
	return e.Pos
}

// GetDirective returns the directive the error refers to, or nil.
func (e *Error) GetDirective() ast.Directive {
	return e.Directive
}

// Errorf creates a plugin error positioned at the given directive.
func Errorf(d ast.Directive, format string, args ...any) *Error {
	return &Error{
		Message:   fmt.Sprintf(format, args...),
		Pos:       d.Position(),
		Directive: d,
	}
}

// Registry maps plugin names to implementations.
type Registry struct {
	plugins map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Func)}
}

// Register adds a plugin under the given name, replacing any previous
// registration.
func (r *Registry) Register(name string, fn Func) {
	r.plugins[name] = fn
}

// Lookup returns the plugin registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.plugins[name]
	return fn, ok
}

// Names returns the registered plugin names, unordered.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	return names
}

// Run applies the plugin declarations from the tree, plus any extra
// declarations, in order. Each plugin receives the directives produced by the
// previous one; tree.Directives is replaced with the final list. All plugin
// errors are accumulated and returned together. A declaration naming an
// unregistered plugin produces an error positioned at the declaration and is
// skipped.
func (r *Registry) Run(ctx context.Context, tree *ast.AST, opts *Options, extra ...*ast.Plugin) []error {
	timer := telemetry.FromContext(ctx).Start("Run plugins")
	defer timer.End()

	declarations := make([]*ast.Plugin, 0, len(tree.Plugins)+len(extra))
	declarations = append(declarations, tree.Plugins...)
	declarations = append(declarations, extra...)

	entries := []ast.Directive(tree.Directives)
	var errs []error

	for _, decl := range declarations {
		fn, ok := r.Lookup(decl.Name)
		if !ok {
			errs = append(errs, &Error{
				Message: fmt.Sprintf("unknown plugin %q", decl.Name),
				Pos:     decl.Pos,
			})
			continue
		}

		child := timer.Child(decl.Name)
		result, pluginErrs := fn(entries, opts, decl.Config)
		child.End()

		// Errors without a position (bad config, unreadable rules file)
		// point at the plugin declaration.
		for _, err := range pluginErrs {
			if pe, ok := err.(*Error); ok && pe.Pos.IsZero() {
				pe.Pos = decl.Pos
			}
			errs = append(errs, err)
		}
		if result != nil {
			entries = result
		}
	}

	tree.Directives = entries
	return errs
}
