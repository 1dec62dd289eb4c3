package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"spritegg/internal/build"
	"spritegg/internal/config"
	"spritegg/internal/logging"
	"spritegg/internal/sprite"
	"spritegg/internal/watch"
)

var watchOpts buildFlags

// watchCmd rebuilds entities as their frames change
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Build once, then rebuild entities whose frames change",
	Long: `Runs a normal build over --root, then watches every entity and action
folder. Changes to frame PNGs are debounced and rebuild only the entity they
belong to.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	addStitchFlags(watchCmd, &watchOpts)
}

func runWatch(cmd *cobra.Command, args []string) error {
	c := currentConfig()
	overrides, err := config.ParseFramesPerViewOverrides(watchOpts.framesPerView)
	if err != nil {
		return err
	}
	engine, err := newEngine(cmd, c, watchOpts)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	runner := build.NewRunner(c, engine, cmd.OutOrStdout(), cmd.ErrOrStderr())
	runner.Verbose = verbose
	base := build.Options{
		Root:            watchOpts.root,
		IncludeItems:    watchOpts.includeItems,
		FramesOverrides: overrides,
	}
	if _, err := runner.Run(ctx, base); err != nil {
		return err
	}

	root := base.Root
	if root == "" {
		root = "."
	}
	w, err := watch.New(root, rebuildEntity(runner, base))
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Watching %d folders, press Ctrl+C to stop", len(w.WatchedDirs()))))

	<-ctx.Done()
	w.Stop()
	return nil
}

// rebuildEntity runs the build loop restricted to one entity. Folders the
// full run would skip (unknown prefix, items without --include-items) are
// skipped quietly here too.
func rebuildEntity(runner *build.Runner, base build.Options) watch.BuildFunc {
	return func(ctx context.Context, e sprite.Entity) error {
		typ, ok := sprite.Classify(e.Name, runner.Config.TypeOverrides)
		if _, hasProfile := runner.Config.Profile(string(typ)); !ok || !hasProfile {
			logging.WatchDebug("ignoring change in %s: unknown or unsupported prefix", e.Name)
			return nil
		}
		if typ == sprite.Item && !(base.IncludeItems || base.ItemsOnly) {
			logging.WatchDebug("ignoring change in %s: items are not included", e.Name)
			return nil
		}

		opts := base
		opts.Only = e.Name
		summary, err := runner.Run(ctx, opts)
		if err != nil {
			return err
		}
		if summary.Failed() {
			return fmt.Errorf("%s: %w", e.Name, errRunFailed)
		}
		return nil
	}
}
