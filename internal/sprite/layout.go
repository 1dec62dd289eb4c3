package sprite

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"spritegg/internal/config"
	"spritegg/internal/logging"
)

// ListFrames returns the .png regular files of dir sorted by name.
func ListFrames(dir string) ([]Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var frames []Frame
	for _, e := range entries {
		if !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		frames = append(frames, Frame{Path: path, ModTime: info.ModTime()})
	}
	sort.Slice(frames, func(i, j int) bool {
		return filepath.Base(frames[i].Path) < filepath.Base(frames[j].Path)
	})
	return frames, nil
}

// Plan reads the frames of every entry and lays them out as rows: one row per
// profile row direction per entry. It also returns the newest modification
// time of every inspected frame file.
func Plan(entityDir string, entries []ActionEntry, inputOrder []string, profile config.Profile) (*Grid, time.Time, error) {
	var newest time.Time
	if len(inputOrder) == 0 {
		return nil, newest, fmt.Errorf("%w: input direction order must have at least 1 entry", ErrFrameCountMismatch)
	}

	grid := &Grid{}
	for _, entry := range entries {
		dir := filepath.Join(entityDir, entry.Folder)
		frames, err := ListFrames(dir)
		if err != nil {
			return nil, newest, err
		}
		if len(frames) == 0 {
			return nil, newest, fmt.Errorf("%w: %s", ErrEmptyFolder, dir)
		}
		for _, f := range frames {
			if f.ModTime.After(newest) {
				newest = f.ModTime
			}
		}

		if len(frames)%len(inputOrder) != 0 {
			return nil, newest, fmt.Errorf("%w: %d PNGs in %s not divisible by %d",
				ErrFrameCountMismatch, len(frames), dir, len(inputOrder))
		}
		total := len(frames) / len(inputOrder)
		desired := profile.Frames(entry.FramesKey).Resolve(total)
		if desired > total {
			return nil, newest, fmt.Errorf("%w for %s in %s (need %d, have %d)",
				ErrInsufficientFrames, entry.Folder, entityDir, desired, total)
		}

		byDirection := make(map[string][]Frame, len(inputOrder))
		for i, direction := range inputOrder {
			byDirection[direction] = frames[i*total : (i+1)*total]
		}

		for _, direction := range profile.RowDirectionOrder {
			chunk, ok := byDirection[direction]
			if !ok {
				return nil, newest, fmt.Errorf("%w: %s for %s", ErrMissingDirection, direction, entry.Folder)
			}
			row := Row{
				Action:    entry.Action,
				Folder:    entry.Folder,
				Direction: direction,
				Frames:    make([]string, 0, desired),
			}
			for _, f := range chunk[:desired] {
				row.Frames = append(row.Frames, f.Path)
			}
			grid.Rows = append(grid.Rows, row)
			if len(row.Frames) > grid.Columns {
				grid.Columns = len(row.Frames)
			}
		}
	}

	if len(grid.Rows) == 0 {
		return nil, newest, fmt.Errorf("%w for %s", ErrEmptyGrid, entityDir)
	}

	logging.PlanDebug("%s: grid %dx%d", entityDir, grid.Columns, len(grid.Rows))
	return grid, newest, nil
}
