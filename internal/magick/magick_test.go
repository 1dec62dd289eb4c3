package magick

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spritegg/internal/sprite"
	"spritegg/internal/stitch"
	"spritegg/internal/tactile"
)

func fakeLookPath(found ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestDiscover(t *testing.T) {
	t.Run("magick binary", func(t *testing.T) {
		cmds, err := Discover(fakeLookPath("magick", "convert", "montage"))
		require.NoError(t, err)
		assert.Equal(t, []string{"/usr/bin/magick"}, cmds.Convert)
		assert.Equal(t, []string{"/usr/bin/magick", "montage"}, cmds.Montage)
		assert.Equal(t, []string{"/usr/bin/magick", "identify"}, cmds.Identify)
	})

	t.Run("legacy tools without identify", func(t *testing.T) {
		cmds, err := Discover(fakeLookPath("convert", "montage"))
		require.NoError(t, err)
		assert.Equal(t, []string{"/usr/bin/convert"}, cmds.Convert)
		assert.Equal(t, []string{"/usr/bin/montage"}, cmds.Montage)
		assert.Nil(t, cmds.Identify)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Discover(fakeLookPath("convert", "identify"))
		assert.ErrorIs(t, err, sprite.ErrMissingBackend)
	})
}

// recorder captures every command and answers with a fixed result.
type recorder struct {
	commands []tactile.Command
	result   tactile.ExecutionResult
}

func (r *recorder) executor() tactile.Executor {
	return tactile.ExecutorFunc(func(ctx context.Context, cmd tactile.Command) (*tactile.ExecutionResult, error) {
		r.commands = append(r.commands, cmd)
		res := r.result
		return &res, nil
	})
}

func newRecorded() (*Backend, *recorder) {
	rec := &recorder{result: tactile.ExecutionResult{Success: true}}
	cmds := Commands{
		Convert:  []string{"magick"},
		Montage:  []string{"magick", "montage"},
		Identify: []string{"magick", "identify"},
	}
	return New(cmds, rec.executor()), rec
}

func argv(c tactile.Command) []string {
	return append([]string{c.Binary}, c.Arguments...)
}

func TestBackend_CommandLines(t *testing.T) {
	ctx := context.Background()
	b, rec := newRecorded()

	require.NoError(t, b.Canvas(ctx, 128, 64, "/tmp/blank.png"))
	require.NoError(t, b.AppendHorizontal(ctx, []string{"a.png", "b.png"}, "/tmp/row_000.png"))
	require.NoError(t, b.AppendVertical(ctx, []string{"/tmp/row_000.png"}, "out.png"))
	require.NoError(t, b.Montage(ctx, stitch.MontageRequest{
		ListFile: "/tmp/filelist.txt", Columns: 9, Rows: 12,
		CellWidth: 128, CellHeight: 128, Output: "sheet.png",
	}))
	require.NoError(t, b.Validate(ctx, "a.png"))

	want := [][]string{
		{"magick", "-size", "128x64", "xc:none", "-quiet", "-define", "png:exclude-chunks=all", "-strip", "/tmp/blank.png"},
		{"magick", "a.png", "b.png", "+append", "-quiet", "-define", "png:exclude-chunks=all", "-strip", "/tmp/row_000.png"},
		{"magick", "/tmp/row_000.png", "-append", "-quiet", "-define", "png:exclude-chunks=all", "-strip", "out.png"},
		{"magick", "montage", "-quiet", "-define", "png:exclude-chunks=all", "-strip",
			"-background", "none", "-tile", "9x12", "-geometry", "128x128+0+0", "@/tmp/filelist.txt", "sheet.png"},
		{"magick", "identify", "-quiet", "-ping", "a.png"},
	}
	var got [][]string
	for _, c := range rec.commands {
		got = append(got, argv(c))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("command lines mismatch (-want +got):\n%s", diff)
	}
}

func TestBackend_TimeoutFromDeadline(t *testing.T) {
	b, rec := newRecorded()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	require.NoError(t, b.Validate(ctx, "a.png"))
	require.Len(t, rec.commands, 1)
	assert.Greater(t, rec.commands[0].Timeout, 50*time.Second)
	assert.LessOrEqual(t, rec.commands[0].Timeout, time.Minute)
}

func TestBackend_NoDeadlineIsUnbounded(t *testing.T) {
	b, rec := newRecorded()

	require.NoError(t, b.Validate(context.Background(), "a.png"))
	require.Len(t, rec.commands, 1)
	assert.Equal(t, tactile.NoTimeout, rec.commands[0].Timeout)
}

func TestBackend_Failures(t *testing.T) {
	ctx := context.Background()

	b, rec := newRecorded()
	rec.result = tactile.ExecutionResult{Success: true, ExitCode: 1, Stderr: "montage: unable to open image\n"}
	err := b.Montage(ctx, stitch.MontageRequest{ListFile: "l", Output: "o"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to open image")

	rec.result = tactile.ExecutionResult{Success: true, Killed: true, KillReason: "timeout after 1s"}
	err = b.Canvas(ctx, 1, 1, "o")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")

	noIdentify := New(Commands{Convert: []string{"convert"}, Montage: []string{"montage"}}, rec.executor())
	err = noIdentify.Validate(ctx, "a.png")
	assert.ErrorContains(t, err, "identify is required")

	err = b.AppendHorizontal(ctx, nil, "o")
	assert.Error(t, err)
}
