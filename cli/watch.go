package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"

	"github.com/beanlint/beanlint/loader"
	"github.com/beanlint/beanlint/plugin"
	"github.com/beanlint/beanlint/plugins"
)

// WatchCmd lints a ledger, then re-lints it whenever the file or any of its
// includes change on disk.
type WatchCmd struct {
	File   string `help:"Beancount input filename." arg:"" type:"existingfile"`
	Format string `help:"Output format for violations." enum:"text,json" default:"text"`
}

func (cmd *WatchCmd) Run(ctx *kong.Context, globals *Globals) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	files := cmd.relint(runCtx, ctx)
	for _, file := range files {
		if err := watcher.Add(file); err != nil {
			printError(ctx.Stderr, fmt.Sprintf("failed to watch %s: %v", file, err))
		}
	}

	printInfof(ctx.Stderr, "Watching %s", pathStyle.Render(cmd.File))

	// Editors often save in several steps; debounce before relinting.
	const debounceDelay = 100 * time.Millisecond
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	relint := make(chan struct{}, 1)

	for {
		select {
		case <-runCtx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				select {
				case relint <- struct{}{}:
				default:
				}
			})

		case <-relint:
			files := cmd.relint(runCtx, ctx)
			// Re-add every file: includes may have changed, and atomic
			// saves replace the inode a watch was attached to.
			for _, file := range files {
				_ = watcher.Remove(file)
				if err := watcher.Add(file); err != nil {
					printError(ctx.Stderr, fmt.Sprintf("failed to watch %s: %v", file, err))
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printError(ctx.Stderr, fmt.Sprintf("watch error: %v", err))
		}
	}
}

// relint runs one lint pass and returns the files that make up the ledger.
// Load failures are reported but keep the previous watch list alive via the
// root file.
func (cmd *WatchCmd) relint(runCtx context.Context, ctx *kong.Context) []string {
	sourceContent, _ := os.ReadFile(cmd.File)

	ldr := loader.New(loader.WithFollowIncludes())
	result, err := ldr.LoadWithFiles(runCtx, cmd.File)
	if err != nil {
		cmd.printErrors(ctx, sourceContent, []error{err})
		return []string{cmd.File}
	}

	opts := plugin.NewOptions(result.AST, cmd.File)
	errs := plugins.DefaultRegistry().Run(runCtx, result.AST, opts)

	if len(errs) > 0 {
		cmd.printErrors(ctx, sourceContent, errs)
		printError(ctx.Stderr, fmt.Sprintf("%d violation(s) found", len(errs)))
	} else {
		printSuccess(ctx.Stdout, "No violations found")
	}

	return result.Files
}

func (cmd *WatchCmd) printErrors(ctx *kong.Context, sourceContent []byte, errs []error) {
	if cmd.Format == "json" {
		formatter := plugin.NewJSONFormatter()
		_, _ = fmt.Fprintln(ctx.Stdout, formatter.FormatAll(errs))
		return
	}

	renderer := NewErrorRenderer(sourceContent)
	_, _ = fmt.Fprintln(ctx.Stderr, renderer.RenderAll(errs))
}
