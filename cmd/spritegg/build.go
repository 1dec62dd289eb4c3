package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"spritegg/internal/build"
	"spritegg/internal/config"
	"spritegg/internal/logging"
	"spritegg/internal/magick"
	"spritegg/internal/raster"
	"spritegg/internal/stitch"
)

// buildFlags holds the flags shared by build and watch.
type buildFlags struct {
	root          string
	dryRun        bool
	rebuildAll    bool
	prompt        bool
	timeout       int
	precheck      bool
	stitchMode    string
	backend       string
	framesPerView []string
	only          string
	itemsOnly     bool
	includeItems  bool
}

var buildOpts buildFlags

// buildCmd builds every entity under the scan root
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build sprite sheets for every entity folder under --root",
	Long: `Scans the immediate sub-folders of --root, classifies each by prefix, and
stitches one sheet per entity when any source frame is newer than the sheet.

Examples:
  spritegg build
  spritegg build --only W_Sword --rebuild-all
  spritegg build --items-only --backend native
  spritegg build --frames-per-view walk=6 --dry-run`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	addStitchFlags(buildCmd, &buildOpts)
	buildCmd.Flags().BoolVar(&buildOpts.dryRun, "dry-run", false, "Show what would be built without writing anything")
	buildCmd.Flags().BoolVar(&buildOpts.rebuildAll, "rebuild-all", false, "Rebuild every sheet regardless of timestamps")
	buildCmd.Flags().BoolVar(&buildOpts.prompt, "prompt", false, "Ask whether to rebuild everything (terminal only)")
	buildCmd.Flags().StringVar(&buildOpts.only, "only", "", "Build only this folder name (case-insensitive)")
	buildCmd.Flags().BoolVar(&buildOpts.itemsOnly, "items-only", false, "Build only item folders")
}

// addStitchFlags registers the flags that configure scanning and stitching.
func addStitchFlags(cmd *cobra.Command, f *buildFlags) {
	cmd.Flags().StringVar(&f.root, "root", "", "Scan root (default: current directory)")
	cmd.Flags().IntVar(&f.timeout, "timeout", 300, "Timeout in seconds for each backend call")
	cmd.Flags().BoolVar(&f.precheck, "precheck", false, "Validate every frame before stitching")
	cmd.Flags().StringVar(&f.stitchMode, "stitch", "", "Stitch mode: montage or append (default from config)")
	cmd.Flags().StringVar(&f.backend, "backend", "", "Backend: magick or native (default from config)")
	cmd.Flags().StringArrayVar(&f.framesPerView, "frames-per-view", nil, "Override frames per view as action=N (repeatable)")
	cmd.Flags().BoolVar(&f.includeItems, "include-items", false, "Include item folders")
}

func runBuild(cmd *cobra.Command, args []string) error {
	c := currentConfig()

	overrides, err := config.ParseFramesPerViewOverrides(buildOpts.framesPerView)
	if err != nil {
		return err
	}
	engine, err := newEngine(cmd, c, buildOpts)
	if err != nil {
		return err
	}

	force := buildOpts.rebuildAll
	if buildOpts.prompt && !force && isTerminal(os.Stdin) {
		force = confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Rebuild all sprite sheets? [y/N] ")
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	runner := build.NewRunner(c, engine, cmd.OutOrStdout(), cmd.ErrOrStderr())
	runner.Verbose = verbose
	summary, err := runner.Run(ctx, build.Options{
		Root:            buildOpts.root,
		Only:            buildOpts.only,
		ItemsOnly:       buildOpts.itemsOnly,
		IncludeItems:    buildOpts.includeItems,
		Force:           force,
		DryRun:          buildOpts.dryRun,
		FramesOverrides: overrides,
	})
	if err != nil {
		return err
	}
	if summary.Failed() {
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(fmt.Sprintf("%d folder(s) failed", summary.Errors)))
		return errRunFailed
	}
	return nil
}

// newEngine resolves backend, mode, precheck and timeout from flags over
// config. A missing ImageMagick aborts here, before any entity is touched.
func newEngine(cmd *cobra.Command, c *config.Config, f buildFlags) (*stitch.Engine, error) {
	modeName := c.Stitch.Mode
	if f.stitchMode != "" {
		modeName = f.stitchMode
	}
	mode, err := stitch.ParseMode(modeName)
	if err != nil {
		return nil, err
	}

	timeout := c.GetStitchTimeout()
	if cmd.Flags().Changed("timeout") {
		if f.timeout <= 0 {
			return nil, fmt.Errorf("--timeout must be positive, got %d", f.timeout)
		}
		timeout = time.Duration(f.timeout) * time.Second
	}

	backendName := c.Stitch.Backend
	if f.backend != "" {
		backendName = f.backend
	}
	var backend stitch.Backend
	switch strings.ToLower(backendName) {
	case config.BackendMagick:
		cmds, err := magick.Discover(nil)
		if err != nil {
			return nil, err
		}
		backend = magick.New(cmds, nil)
	case config.BackendNative:
		backend = raster.New()
	default:
		return nil, fmt.Errorf("invalid backend: %s (valid: %s, %s)", backendName, config.BackendMagick, config.BackendNative)
	}

	logging.BootDebug("engine: backend=%s mode=%s precheck=%v timeout=%s", backend.Name(), mode, f.precheck || c.Stitch.Precheck, timeout)
	return &stitch.Engine{
		Backend:  backend,
		Mode:     mode,
		Precheck: f.precheck || c.Stitch.Precheck,
		Timeout:  timeout,
	}, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// confirm asks a yes/no question; anything but y or yes is no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprint(out, warningStyle.Render(question))
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// signalContext returns the command context canceled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
