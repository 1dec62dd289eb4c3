// Package raster is an in-process stitch backend. It needs no external tools
// and writes plain PNGs with no ancillary chunks.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"spritegg/internal/logging"
	"spritegg/internal/stitch"
)

var transparent = color.NRGBA{}

// Backend composes sheets with imaging and x/image/draw.
type Backend struct{}

// New creates a native backend.
func New() *Backend {
	return &Backend{}
}

var _ stitch.Backend = (*Backend)(nil)

func (b *Backend) Name() string { return "native" }

func (b *Backend) Canvas(ctx context.Context, width, height int, output string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	return save(imaging.New(width, height, transparent), output)
}

func (b *Backend) AppendHorizontal(ctx context.Context, inputs []string, output string) error {
	return b.appendImages(ctx, inputs, output, true)
}

func (b *Backend) AppendVertical(ctx context.Context, inputs []string, output string) error {
	return b.appendImages(ctx, inputs, output, false)
}

// appendImages places inputs edge to edge, aligned to the top-left like
// ImageMagick's +append and -append.
func (b *Backend) appendImages(ctx context.Context, inputs []string, output string, horizontal bool) error {
	if len(inputs) == 0 {
		return errors.New("no images to append")
	}

	images := make([]image.Image, 0, len(inputs))
	width, height := 0, 0
	for _, path := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := imaging.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		size := img.Bounds().Size()
		if horizontal {
			width += size.X
			height = max(height, size.Y)
		} else {
			width = max(width, size.X)
			height += size.Y
		}
		images = append(images, img)
	}

	dst := imaging.New(width, height, transparent)
	offset := image.Point{}
	for _, img := range images {
		dst = imaging.Paste(dst, img, offset)
		if horizontal {
			offset.X += img.Bounds().Dx()
		} else {
			offset.Y += img.Bounds().Dy()
		}
	}
	return save(dst, output)
}

// Montage tiles req.Cells. Cells that do not match the cell geometry are
// scaled to fit with nearest-neighbour sampling and centered.
func (b *Backend) Montage(ctx context.Context, req stitch.MontageRequest) error {
	if req.Columns <= 0 || req.Rows <= 0 || req.CellWidth <= 0 || req.CellHeight <= 0 {
		return fmt.Errorf("invalid montage geometry %s / %s", req.Tile(), req.Geometry())
	}
	if len(req.Cells) > req.Columns*req.Rows {
		return fmt.Errorf("%d cells do not fit tile %s", len(req.Cells), req.Tile())
	}

	dst := imaging.New(req.Columns*req.CellWidth, req.Rows*req.CellHeight, transparent)
	cache := make(map[string]image.Image)
	for i, path := range req.Cells {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, ok := cache[path]
		if !ok {
			var err error
			img, err = imaging.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			cache[path] = img
		}

		cellOrigin := image.Pt((i%req.Columns)*req.CellWidth, (i/req.Columns)*req.CellHeight)
		target := fitRect(img.Bounds().Size(), req.CellWidth, req.CellHeight).Add(cellOrigin)
		draw.NearestNeighbor.Scale(dst, target, img, img.Bounds(), draw.Over, nil)
	}

	logging.BackendDebug("native montage %s: %d cells", req.Tile(), len(req.Cells))
	return save(dst, req.Output)
}

// fitRect returns the rectangle, relative to the cell origin, that an image of
// size src occupies when fitted into a w x h cell preserving aspect ratio.
func fitRect(src image.Point, w, h int) image.Rectangle {
	if src.X == w && src.Y == h {
		return image.Rect(0, 0, w, h)
	}
	if src.X <= 0 || src.Y <= 0 {
		return image.Rectangle{}
	}
	tw, th := w, src.Y*w/src.X
	if th > h {
		tw, th = src.X*h/src.Y, h
	}
	x := (w - tw) / 2
	y := (h - th) / 2
	return image.Rect(x, y, x+tw, y+th)
}

// Validate decodes only the image header.
func (b *Backend) Validate(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("%s: empty image", path)
	}
	return nil
}

func save(img image.Image, output string) error {
	if err := imaging.Save(img, output, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return fmt.Errorf("save %s: %w", output, err)
	}
	return nil
}
