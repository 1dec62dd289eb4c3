// Package publish decides when a sheet is stale and copies finished sheets
// into the game's asset trees.
package publish

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"spritegg/internal/logging"
	"spritegg/internal/sprite"
)

// NeedsRebuild reports whether the sheet at outputPath must be rebuilt: when
// forced, when it is missing, or when it is strictly older than newest.
func NeedsRebuild(outputPath string, newest time.Time, force bool) bool {
	if force {
		return true
	}
	info, err := os.Stat(outputPath)
	if err != nil || !info.Mode().IsRegular() {
		return true
	}
	return info.ModTime().Before(newest)
}

// Bucket returns the asset sub-directory for an entity type.
func Bucket(t sprite.EntityType) string {
	switch t {
	case sprite.Enemy:
		return "enemys"
	case sprite.NPC:
		return "NPC"
	case sprite.Item:
		return "items"
	case sprite.Hero:
		return "character"
	default:
		return "weapons"
	}
}

// Distributor copies sheets into GameRoot/<target>/<bucket>/.
type Distributor struct {
	GameRoot string
	Targets  []string
}

// Enabled reports whether there is anywhere to distribute to.
func (d *Distributor) Enabled() bool {
	return d != nil && d.GameRoot != "" && len(d.Targets) > 0
}

func (d *Distributor) destinations(outputName string, t sprite.EntityType) []string {
	if !d.Enabled() {
		return nil
	}
	bucket := Bucket(t)
	out := make([]string, 0, len(d.Targets))
	for _, target := range d.Targets {
		out = append(out, filepath.Join(d.GameRoot, target, bucket, outputName))
	}
	return out
}

// Distribute copies outputPath to every target bucket whose copy is missing or
// strictly older. Copies keep the source modification time.
func (d *Distributor) Distribute(outputPath, outputName string, t sprite.EntityType) error {
	src, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("distribute %s: %w", outputName, err)
	}

	var errs []error
	for _, dest := range d.destinations(outputName, t) {
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			errs = append(errs, err)
			continue
		}
		if info, err := os.Stat(dest); err == nil && !info.ModTime().Before(src.ModTime()) {
			logging.PublishDebug("%s is current", dest)
			continue
		}
		if err := copyFile(outputPath, dest, src.ModTime()); err != nil {
			errs = append(errs, fmt.Errorf("copy to %s: %w", dest, err))
			continue
		}
		logging.Publish("copied %s -> %s", outputName, dest)
	}
	return errors.Join(errs...)
}

// Remove deletes outputPath and every distributed copy of it.
func (d *Distributor) Remove(outputPath, outputName string, t sprite.EntityType) error {
	var errs []error
	for _, path := range append([]string{outputPath}, d.destinations(outputName, t)...) {
		err := os.Remove(path)
		switch {
		case err == nil:
			logging.PublishDebug("removed %s", path)
		case !errors.Is(err, os.ErrNotExist):
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// copyFile writes src to dest through a temporary sibling and stamps mtime.
func copyFile(src, dest string, mtime time.Time) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chtimes(tmp.Name(), mtime, mtime); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
