// Package loader loads Beancount files, optionally resolving include
// directives. In follow mode, included files are recursively loaded, merged
// into a single AST, and deduplicated by absolute path.
//
// After merging, pushtag/poptag and pushmeta/popmeta stacks are applied in
// file order and the combined directives are sorted by date, so plugins see
// the ledger the way a consumer would.
//
// Example usage:
//
//	l := loader.New(loader.WithFollowIncludes())
//	tree, err := l.Load(ctx, "main.beancount")
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/beanlint/beanlint/ast"
	"github.com/beanlint/beanlint/parser"
	"github.com/beanlint/beanlint/telemetry"
)

// Loader loads and parses Beancount files.
type Loader struct {
	// FollowIncludes controls whether included files are recursively loaded
	// and merged. When false, include directives stay in ast.Includes.
	FollowIncludes bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithFollowIncludes makes the loader recursively resolve include directives.
// Relative include paths resolve against the directory of the including file;
// files included more than once are loaded once.
func WithFollowIncludes() Option {
	return func(l *Loader) {
		l.FollowIncludes = true
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result is a loaded ledger plus the files that produced it, for callers
// that need to watch or re-read the sources.
type Result struct {
	AST  *ast.AST
	Root string
	// Files lists the absolute paths of every file loaded, the root
	// included, in load order.
	Files []string
}

// Load parses the named file. The returned AST has push/pop stacks applied
// and its directives sorted by date.
func (l *Loader) Load(ctx context.Context, filename string) (*ast.AST, error) {
	result, err := l.LoadWithFiles(ctx, filename)
	if err != nil {
		return nil, err
	}
	return result.AST, nil
}

// LoadBytes parses source that is already in memory, attributing it to
// filename. Includes are resolved relative to filename as in Load.
func (l *Loader) LoadBytes(ctx context.Context, filename string, data []byte) (*ast.AST, error) {
	timer := telemetry.FromContext(ctx).Start("Load")
	defer timer.End()

	result, err := l.load(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	return result.AST, nil
}

// LoadWithFiles is Load, additionally reporting every file that was read.
func (l *Loader) LoadWithFiles(ctx context.Context, filename string) (*Result, error) {
	timer := telemetry.FromContext(ctx).Start("Load")
	defer timer.End()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	return l.load(ctx, filename, data)
}

func (l *Loader) load(ctx context.Context, filename string, data []byte) (*Result, error) {
	state := &loaderState{visited: make(map[string]bool)}

	var tree *ast.AST
	var err error

	if l.FollowIncludes {
		tree, err = state.loadRecursive(ctx, filename, data)
	} else {
		tree, err = parser.ParseBytesWithFilename(ctx, filename, data)
		if abs, absErr := filepath.Abs(filename); absErr == nil {
			state.files = append(state.files, abs)
		}
	}
	if err != nil {
		return nil, err
	}

	ast.ApplyPushPop(tree)
	ast.SortDirectives(tree)

	return &Result{AST: tree, Root: filename, Files: state.files}, nil
}

// loaderState tracks visited files during recursive loading.
type loaderState struct {
	visited map[string]bool // Absolute paths of files already loaded
	files   []string        // Absolute paths in load order
}

// loadRecursive parses one file and merges in its includes. data may be nil,
// in which case the file is read from disk.
func (l *loaderState) loadRecursive(ctx context.Context, filename string, data []byte) (*ast.AST, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}

	// Same file included twice contributes nothing the second time.
	if l.visited[absPath] {
		return &ast.AST{}, nil
	}
	l.visited[absPath] = true
	l.files = append(l.files, absPath)

	if data == nil {
		data, err = os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filename, err)
		}
	}

	tree, err := parser.ParseBytesWithFilename(ctx, filename, data)
	if err != nil {
		return nil, err
	}

	if len(tree.Includes) == 0 {
		return tree, nil
	}

	baseDir := filepath.Dir(absPath)
	var includedASTs []*ast.AST

	for _, inc := range tree.Includes {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		includePath := inc.Filename
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(baseDir, includePath)
		}

		includedAST, err := l.loadRecursive(ctx, includePath, nil)
		if err != nil {
			return nil, fmt.Errorf("in file %s: %w", filename, err)
		}

		includedASTs = append(includedASTs, includedAST)
	}

	return mergeASTs(tree, includedASTs...), nil
}

// mergeASTs combines a main AST with its included ASTs. The main file's
// options take precedence; directives, plugins, and push/pop stacks are
// appended so they can be applied in file order afterwards.
func mergeASTs(main *ast.AST, included ...*ast.AST) *ast.AST {
	result := &ast.AST{
		Directives: main.Directives,
		Options:    main.Options,
		Plugins:    main.Plugins,
		Pushtags:   main.Pushtags,
		Poptags:    main.Poptags,
		Pushmetas:  main.Pushmetas,
		Popmetas:   main.Popmetas,
	}

	for _, inc := range included {
		result.Directives = append(result.Directives, inc.Directives...)
		result.Options = append(result.Options, inc.Options...)
		result.Plugins = append(result.Plugins, inc.Plugins...)
		result.Pushtags = append(result.Pushtags, inc.Pushtags...)
		result.Poptags = append(result.Poptags, inc.Poptags...)
		result.Pushmetas = append(result.Pushmetas, inc.Pushmetas...)
		result.Popmetas = append(result.Popmetas, inc.Popmetas...)
	}

	return result
}
