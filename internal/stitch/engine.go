package stitch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spritegg/internal/logging"
	"spritegg/internal/sprite"
)

// Mode selects the composition strategy.
type Mode string

const (
	// ModeMontage tiles every cell in one backend call.
	ModeMontage Mode = "montage"
	// ModeAppend builds each row then stacks the rows.
	ModeAppend Mode = "append"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMontage:
		return ModeMontage, nil
	case ModeAppend:
		return ModeAppend, nil
	}
	return "", fmt.Errorf("invalid stitch mode: %s (valid: montage, append)", s)
}

// Engine drives a Backend to turn a grid into one sheet.
type Engine struct {
	Backend  Backend
	Mode     Mode
	Precheck bool
	// Timeout bounds every single backend call; zero means unbounded.
	Timeout time.Duration
}

// Stitch composes grid into outputPath. Intermediate files live in a scratch
// directory removed before returning, and the final image is renamed into
// place only once complete, so outputPath never holds a partial sheet.
func (e *Engine) Stitch(ctx context.Context, grid *sprite.Grid, outputPath string, frame Size) error {
	if grid == nil || len(grid.Rows) == 0 {
		return fmt.Errorf("%w for %s", sprite.ErrEmptyGrid, outputPath)
	}
	if e.Backend == nil {
		return sprite.ErrMissingBackend
	}

	scratch, err := os.MkdirTemp("", "spritegg-")
	if err != nil {
		return fmt.Errorf("%w: create scratch dir: %w", sprite.ErrStitchFailed, err)
	}
	defer os.RemoveAll(scratch)

	filler := filepath.Join(scratch, "blank.png")
	if err := e.call(ctx, "canvas", func(ctx context.Context) error {
		return e.Backend.Canvas(ctx, frame.Width, frame.Height, filler)
	}); err != nil {
		return err
	}

	if e.Precheck {
		if err := e.precheck(ctx, grid, outputPath); err != nil {
			return err
		}
	}

	partial, err := reservePartial(outputPath)
	if err != nil {
		return fmt.Errorf("%w: %w", sprite.ErrStitchFailed, err)
	}
	defer os.Remove(partial)

	switch e.Mode {
	case ModeAppend:
		err = e.stitchAppend(ctx, grid, scratch, filler, partial)
	case ModeMontage, "":
		err = e.stitchMontage(ctx, grid, scratch, filler, partial, frame)
	default:
		err = fmt.Errorf("%w: unknown mode %q", sprite.ErrStitchFailed, e.Mode)
	}
	if err != nil {
		return err
	}

	if err := os.Rename(partial, outputPath); err != nil {
		return fmt.Errorf("%w: move sheet into place: %w", sprite.ErrStitchFailed, err)
	}
	return nil
}

func (e *Engine) precheck(ctx context.Context, grid *sprite.Grid, outputPath string) error {
	sources := grid.Sources()
	logging.Stitch("Precheck start: %s (%d files)", outputPath, len(sources))
	for _, src := range sources {
		if err := e.call(ctx, "validate "+src, func(ctx context.Context) error {
			return e.Backend.Validate(ctx, src)
		}); err != nil {
			return err
		}
	}
	logging.Stitch("Precheck done: %s", outputPath)
	return nil
}

func (e *Engine) stitchMontage(ctx context.Context, grid *sprite.Grid, scratch, filler, output string, frame Size) error {
	cells := grid.Cells(filler)
	listFile := filepath.Join(scratch, "filelist.txt")
	if err := writeListFile(listFile, cells); err != nil {
		return fmt.Errorf("%w: %w", sprite.ErrStitchFailed, err)
	}

	req := MontageRequest{
		Cells:      cells,
		ListFile:   listFile,
		Columns:    grid.Columns,
		Rows:       grid.RowCount(),
		CellWidth:  frame.Width,
		CellHeight: frame.Height,
		Output:     output,
	}
	logging.Stitch("Montage start: %s tile=%s frames=%d", output, req.Tile(), len(cells))
	timer := logging.StartTimer(logging.CategoryStitch, "montage "+req.Tile())
	defer timer.Stop()

	return e.call(ctx, "montage", func(ctx context.Context) error {
		return e.Backend.Montage(ctx, req)
	})
}

func (e *Engine) stitchAppend(ctx context.Context, grid *sprite.Grid, scratch, filler, output string) error {
	logging.Stitch("Append start: %s rows=%d cols=%d", output, grid.RowCount(), grid.Columns)
	timer := logging.StartTimer(logging.CategoryStitch, "append")
	defer timer.Stop()

	rowPaths := make([]string, 0, grid.RowCount())
	for i := range grid.Rows {
		rowPath := filepath.Join(scratch, fmt.Sprintf("row_%03d.png", i))
		cells := grid.PaddedRow(i, filler)
		if err := e.call(ctx, fmt.Sprintf("append row %d", i), func(ctx context.Context) error {
			return e.Backend.AppendHorizontal(ctx, cells, rowPath)
		}); err != nil {
			return err
		}
		rowPaths = append(rowPaths, rowPath)
	}

	return e.call(ctx, "append rows", func(ctx context.Context) error {
		return e.Backend.AppendVertical(ctx, rowPaths, output)
	})
}

// call runs one backend operation under the per-call timeout and maps any
// failure to ErrStitchFailed.
func (e *Engine) call(ctx context.Context, op string, fn func(context.Context) error) error {
	callCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	err := fn(callCtx)
	if err == nil {
		return nil
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		logging.StitchWarn("%s timed out after %s", op, e.Timeout)
		return fmt.Errorf("%w: %s timed out after %s: %w", sprite.ErrStitchFailed, op, e.Timeout, err)
	}
	return fmt.Errorf("%w: %s: %w", sprite.ErrStitchFailed, op, err)
}

// reservePartial creates the hidden file the sheet is written to before
// being renamed onto outputPath.
func reservePartial(outputPath string) (string, error) {
	dir, base := filepath.Split(outputPath)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+strings.TrimSuffix(base, filepath.Ext(base))+"-*.png")
	if err != nil {
		return "", fmt.Errorf("reserve output: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// writeListFile writes one path per line. Paths with whitespace are quoted
// so list readers that split on whitespace keep them whole.
func writeListFile(path string, cells []string) error {
	var b strings.Builder
	for _, c := range cells {
		if strings.ContainsAny(c, " \t") {
			b.WriteString(`"` + strings.ReplaceAll(c, `"`, `\"`) + `"`)
		} else {
			b.WriteString(c)
		}
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}
