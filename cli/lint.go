package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alecthomas/kong"

	"github.com/beanlint/beanlint/ast"
	"github.com/beanlint/beanlint/loader"
	"github.com/beanlint/beanlint/plugin"
	"github.com/beanlint/beanlint/plugins"
	"github.com/beanlint/beanlint/telemetry"
)

type LintCmd struct {
	File   FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Format string      `help:"Output format for violations." enum:"text,json" default:"text"`
	Rules  string      `help:"Rules file to run through the validate plugin, in addition to any plugin declarations." type:"existingfile"`
	Plugin []string    `help:"Extra plugin to run, as name or name=config. May be repeated." name:"plugin"`
}

func (cmd *LintCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	runCtx := context.Background()

	var collector telemetry.Collector
	var lintTimer telemetry.Timer
	var once sync.Once

	reportTelemetry := func() {
		once.Do(func() {
			if collector != nil {
				lintTimer.End()
				_, _ = fmt.Fprintln(ctx.Stderr)
				collector.Report(ctx.Stderr)
			}
		})
	}

	if globals.Telemetry {
		collector = telemetry.NewTimingCollector()
		runCtx = telemetry.WithCollector(runCtx, collector)

		lintTimer = collector.Start(fmt.Sprintf("Lint %s", filepath.Base(cmd.File.Filename)))
		defer reportTelemetry()
	}

	return cmd.lint(runCtx, ctx, reportTelemetry)
}

// lint runs one full load-and-check pass, printing all output. A non-nil
// return is a CommandError carrying the exit code.
func (cmd *LintCmd) lint(runCtx context.Context, ctx *kong.Context, reportTelemetry func()) error {
	sourceContent, err := cmd.File.GetSourceContent()
	if err != nil {
		return fmt.Errorf("failed to read file for error context: %w", err)
	}

	ldr := loader.New(loader.WithFollowIncludes())
	tree, err := cmd.File.LoadAST(runCtx, ldr)
	if err != nil {
		cmd.printErrors(ctx, sourceContent, []error{err})

		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, "parse error")

		reportTelemetry()
		return NewCommandError(1)
	}

	extras, err := cmd.extraPlugins()
	if err != nil {
		return err
	}

	opts := plugin.NewOptions(tree, cmd.File.GetAbsoluteFilename())
	errs := plugins.DefaultRegistry().Run(runCtx, tree, opts, extras...)

	declarations := len(tree.Plugins) + len(extras)

	if len(errs) > 0 {
		cmd.printErrors(ctx, sourceContent, errs)

		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, fmt.Sprintf("%d violation(s) found", len(errs)))

		reportTelemetry()
		return NewCommandError(1)
	}

	if cmd.Format == "json" {
		_, _ = fmt.Fprintln(ctx.Stdout, "[]")
		return nil
	}

	printSuccess(ctx.Stdout, "No violations found")
	printInfof(ctx.Stdout, "%d directives checked by %d plugin(s)", len(tree.Directives), declarations)

	return nil
}

// extraPlugins builds plugin declarations from the --rules and --plugin
// flags, applied after the ones declared in the file.
func (cmd *LintCmd) extraPlugins() ([]*ast.Plugin, error) {
	var extras []*ast.Plugin

	if cmd.Rules != "" {
		extras = append(extras, &ast.Plugin{Name: "validate", Config: cmd.Rules})
	}

	for _, spec := range cmd.Plugin {
		name, config, _ := strings.Cut(spec, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid --plugin value %q", spec)
		}
		extras = append(extras, &ast.Plugin{Name: name, Config: config})
	}

	return extras, nil
}

func (cmd *LintCmd) printErrors(ctx *kong.Context, sourceContent []byte, errs []error) {
	if cmd.Format == "json" {
		formatter := plugin.NewJSONFormatter()
		_, _ = fmt.Fprintln(ctx.Stdout, formatter.FormatAll(errs))
		return
	}

	renderer := NewErrorRenderer(sourceContent)
	_, _ = fmt.Fprintln(ctx.Stderr, renderer.RenderAll(errs))
}
