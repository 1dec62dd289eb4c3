// Package stitch composes a planned frame grid into one sheet image through
// a pluggable compositing backend.
package stitch

import (
	"context"
	"fmt"
)

// Backend is the narrow set of compositing operations the engine needs.
// Every method blocks until the output file is written or the context ends.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Canvas writes a fully transparent width x height image to output.
	Canvas(ctx context.Context, width, height int, output string) error

	// AppendHorizontal concatenates inputs left to right.
	AppendHorizontal(ctx context.Context, inputs []string, output string) error

	// AppendVertical concatenates inputs top to bottom.
	AppendVertical(ctx context.Context, inputs []string, output string) error

	// Montage tiles cells into one image.
	Montage(ctx context.Context, req MontageRequest) error

	// Validate checks that path is a readable image.
	Validate(ctx context.Context, path string) error
}

// MontageRequest describes one tiled composition.
type MontageRequest struct {
	// Cells are the cell sources in row-major order, already padded.
	Cells []string
	// ListFile holds Cells one per line, for backends that read a list.
	ListFile string

	Columns int
	Rows    int

	// Cell geometry; cells are placed with no gutter on a transparent background.
	CellWidth  int
	CellHeight int

	Output string
}

// Tile returns the tile geometry, e.g. "9x12".
func (r MontageRequest) Tile() string {
	return fmt.Sprintf("%dx%d", r.Columns, r.Rows)
}

// Geometry returns the per-cell geometry, e.g. "128x128+0+0".
func (r MontageRequest) Geometry() string {
	return fmt.Sprintf("%dx%d+0+0", r.CellWidth, r.CellHeight)
}

// Size is a frame size in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
