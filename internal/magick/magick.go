// Package magick implements the stitch backend on top of the ImageMagick
// command line tools.
package magick

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"spritegg/internal/logging"
	"spritegg/internal/sprite"
	"spritegg/internal/stitch"
	"spritegg/internal/tactile"
)

// pngWriteFlags keep every written PNG free of metadata and auxiliary chunks.
var pngWriteFlags = []string{"-quiet", "-define", "png:exclude-chunks=all", "-strip"}

// Commands holds the argv prefix of each tool. Identify may be nil.
type Commands struct {
	Convert  []string
	Montage  []string
	Identify []string
}

// Discover locates ImageMagick. A single "magick" binary is preferred; the
// legacy convert and montage pair is accepted as a fallback. A nil lookPath
// uses exec.LookPath.
func Discover(lookPath func(string) (string, error)) (Commands, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if magick, err := lookPath("magick"); err == nil {
		return Commands{
			Convert:  []string{magick},
			Montage:  []string{magick, "montage"},
			Identify: []string{magick, "identify"},
		}, nil
	}

	montage, errMontage := lookPath("montage")
	convert, errConvert := lookPath("convert")
	if errMontage != nil || errConvert != nil {
		return Commands{}, fmt.Errorf("%w: ImageMagick (magick or convert) is required", sprite.ErrMissingBackend)
	}
	cmds := Commands{Convert: []string{convert}, Montage: []string{montage}}
	if identify, err := lookPath("identify"); err == nil {
		cmds.Identify = []string{identify}
	}
	return cmds, nil
}

// Backend runs ImageMagick through a tactile.Executor.
type Backend struct {
	cmds     Commands
	executor tactile.Executor
}

// New creates a backend. A nil executor uses a DirectExecutor.
func New(cmds Commands, executor tactile.Executor) *Backend {
	if executor == nil {
		executor = tactile.NewDirectExecutor()
	}
	return &Backend{cmds: cmds, executor: executor}
}

var _ stitch.Backend = (*Backend)(nil)

func (b *Backend) Name() string { return "magick" }

func (b *Backend) Canvas(ctx context.Context, width, height int, output string) error {
	args := []string{"-size", fmt.Sprintf("%dx%d", width, height), "xc:none"}
	args = append(args, pngWriteFlags...)
	return b.run(ctx, b.cmds.Convert, append(args, output)...)
}

func (b *Backend) AppendHorizontal(ctx context.Context, inputs []string, output string) error {
	return b.appendImages(ctx, "+append", inputs, output)
}

func (b *Backend) AppendVertical(ctx context.Context, inputs []string, output string) error {
	return b.appendImages(ctx, "-append", inputs, output)
}

func (b *Backend) appendImages(ctx context.Context, op string, inputs []string, output string) error {
	if len(inputs) == 0 {
		return errors.New("no images to append")
	}
	args := make([]string, 0, len(inputs)+len(pngWriteFlags)+2)
	args = append(args, inputs...)
	args = append(args, op)
	args = append(args, pngWriteFlags...)
	return b.run(ctx, b.cmds.Convert, append(args, output)...)
}

func (b *Backend) Montage(ctx context.Context, req stitch.MontageRequest) error {
	args := append([]string(nil), pngWriteFlags...)
	args = append(args,
		"-background", "none",
		"-tile", req.Tile(),
		"-geometry", req.Geometry(),
		"@"+req.ListFile,
		req.Output,
	)
	return b.run(ctx, b.cmds.Montage, args...)
}

func (b *Backend) Validate(ctx context.Context, path string) error {
	if len(b.cmds.Identify) == 0 {
		return errors.New("ImageMagick identify is required for precheck")
	}
	return b.run(ctx, b.cmds.Identify, "-quiet", "-ping", path)
}

func (b *Backend) run(ctx context.Context, base []string, args ...string) error {
	if len(base) == 0 {
		return sprite.ErrMissingBackend
	}

	cmd := tactile.Command{
		Binary:    base[0],
		Arguments: append(append([]string(nil), base[1:]...), args...),
	}
	// The engine owns the per-call deadline; without one the call is
	// unbounded rather than falling back to the executor default.
	cmd.Timeout = tactile.NoTimeout
	if deadline, ok := ctx.Deadline(); ok {
		cmd.Timeout = time.Until(deadline)
	}

	result, err := b.executor.Execute(ctx, cmd)
	if err != nil {
		return err
	}
	if result.IsError() {
		logging.BackendWarn("%s failed: %s", cmd.CommandString(), result.Reason())
		return fmt.Errorf("%s: %s", base[len(base)-1], result.Reason())
	}
	return nil
}
