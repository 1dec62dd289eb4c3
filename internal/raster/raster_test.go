package raster

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spritegg/internal/stitch"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func writeSolid(t *testing.T, dir, name string, w, h int, c color.NRGBA) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(imaging.New(w, h, c), path))
	return path
}

func load(t *testing.T, path string) *image.NRGBA {
	t.Helper()
	img, err := imaging.Open(path)
	require.NoError(t, err)
	return imaging.Clone(img)
}

func TestCanvas(t *testing.T) {
	out := filepath.Join(t.TempDir(), "blank.png")
	require.NoError(t, New().Canvas(context.Background(), 8, 4, out))

	img := load(t, out)
	assert.Equal(t, image.Pt(8, 4), img.Bounds().Size())
	assert.Equal(t, uint8(0), img.NRGBAAt(3, 2).A)

	assert.Error(t, New().Canvas(context.Background(), 0, 4, out))
}

func TestAppend(t *testing.T) {
	dir := t.TempDir()
	a := writeSolid(t, dir, "a.png", 4, 4, red)
	b := writeSolid(t, dir, "b.png", 2, 3, blue)
	backend := New()
	ctx := context.Background()

	row := filepath.Join(dir, "row.png")
	require.NoError(t, backend.AppendHorizontal(ctx, []string{a, b}, row))
	img := load(t, row)
	assert.Equal(t, image.Pt(6, 4), img.Bounds().Size())
	assert.Equal(t, red, img.NRGBAAt(0, 0))
	assert.Equal(t, blue, img.NRGBAAt(4, 0))
	assert.Equal(t, uint8(0), img.NRGBAAt(5, 3).A, "short image leaves transparent space below")

	col := filepath.Join(dir, "col.png")
	require.NoError(t, backend.AppendVertical(ctx, []string{b, a}, col))
	img = load(t, col)
	assert.Equal(t, image.Pt(4, 7), img.Bounds().Size())
	assert.Equal(t, blue, img.NRGBAAt(1, 2))
	assert.Equal(t, red, img.NRGBAAt(3, 6))

	assert.Error(t, backend.AppendVertical(ctx, nil, col))
	assert.Error(t, backend.AppendVertical(ctx, []string{filepath.Join(dir, "missing.png")}, col))
}

func TestMontage(t *testing.T) {
	dir := t.TempDir()
	a := writeSolid(t, dir, "a.png", 4, 4, red)
	b := writeSolid(t, dir, "b.png", 4, 4, blue)
	big := writeSolid(t, dir, "big.png", 8, 4, blue)
	blank := filepath.Join(dir, "blank.png")
	require.NoError(t, New().Canvas(context.Background(), 4, 4, blank))

	out := filepath.Join(dir, "sheet.png")
	err := New().Montage(context.Background(), stitch.MontageRequest{
		Cells:   []string{a, b, a, big, blank, blank},
		Columns: 3, Rows: 2, CellWidth: 4, CellHeight: 4,
		Output: out,
	})
	require.NoError(t, err)

	img := load(t, out)
	assert.Equal(t, image.Pt(12, 8), img.Bounds().Size())
	assert.Equal(t, red, img.NRGBAAt(1, 1))
	assert.Equal(t, blue, img.NRGBAAt(5, 1))
	assert.Equal(t, red, img.NRGBAAt(9, 1))
	// 8x4 fitted into 4x4 becomes 4x2, centered vertically.
	assert.Equal(t, uint8(0), img.NRGBAAt(1, 4).A)
	assert.Equal(t, blue, img.NRGBAAt(1, 5))
	assert.Equal(t, uint8(0), img.NRGBAAt(1, 7).A)
	assert.Equal(t, uint8(0), img.NRGBAAt(10, 6).A)
}

func TestMontage_InvalidGeometry(t *testing.T) {
	err := New().Montage(context.Background(), stitch.MontageRequest{
		Cells: []string{"a", "b", "c"}, Columns: 1, Rows: 2, CellWidth: 4, CellHeight: 4,
	})
	assert.Error(t, err)

	err = New().Montage(context.Background(), stitch.MontageRequest{Columns: 0, Rows: 1, CellWidth: 1, CellHeight: 1})
	assert.Error(t, err)
}

func TestFitRect(t *testing.T) {
	assert.Equal(t, image.Rect(0, 0, 4, 4), fitRect(image.Pt(4, 4), 4, 4))
	assert.Equal(t, image.Rect(0, 1, 4, 3), fitRect(image.Pt(8, 4), 4, 4))
	assert.Equal(t, image.Rect(1, 0, 3, 4), fitRect(image.Pt(1, 2), 4, 4))
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeSolid(t, dir, "good.png", 2, 2, red)
	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0644))

	backend := New()
	assert.NoError(t, backend.Validate(context.Background(), good))
	assert.Error(t, backend.Validate(context.Background(), bad))
	assert.Error(t, backend.Validate(context.Background(), filepath.Join(dir, "missing.png")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, backend.Validate(ctx, good), context.Canceled)
}

func TestEngineEndToEnd(t *testing.T) {
	dir := t.TempDir()
	a := writeSolid(t, dir, "a.png", 4, 4, red)
	b := writeSolid(t, dir, "b.png", 4, 4, blue)

	grid := gridOf([][]string{{a, b, a}, {b}})
	for _, mode := range []stitch.Mode{stitch.ModeMontage, stitch.ModeAppend} {
		t.Run(string(mode), func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "sheet.png")
			engine := &stitch.Engine{Backend: New(), Mode: mode, Precheck: true}
			require.NoError(t, engine.Stitch(context.Background(), grid, out, stitch.Size{Width: 4, Height: 4}))

			img := load(t, out)
			assert.Equal(t, image.Pt(12, 8), img.Bounds().Size())
			assert.Equal(t, red, img.NRGBAAt(0, 0))
			assert.Equal(t, blue, img.NRGBAAt(4, 0))
			assert.Equal(t, blue, img.NRGBAAt(0, 4))
			assert.Equal(t, uint8(0), img.NRGBAAt(6, 6).A, "padding is transparent")
		})
	}
}
