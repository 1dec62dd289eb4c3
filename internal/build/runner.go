// Package build runs the sequential per-entity build loop: classify, resolve,
// plan, decide, stitch, distribute.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spritegg/internal/config"
	"spritegg/internal/logging"
	"spritegg/internal/publish"
	"spritegg/internal/sprite"
	"spritegg/internal/stitch"
)

// ErrNoMatch is returned when an --only or --items-only filter selects nothing.
var ErrNoMatch = errors.New("no matching folder")

// Stitcher composes one grid into a sheet. *stitch.Engine implements it.
type Stitcher interface {
	Stitch(ctx context.Context, grid *sprite.Grid, outputPath string, frame stitch.Size) error
}

// Options select what a run processes.
type Options struct {
	// Root is the scan root; empty means the working directory.
	Root string
	// Only restricts the run to one folder name, case-insensitively.
	Only         string
	ItemsOnly    bool
	IncludeItems bool
	// Force rebuilds every selected entity regardless of timestamps.
	Force  bool
	DryRun bool
	// FramesOverrides replace profile frames per view by action.
	FramesOverrides map[string]int
}

// Runner processes entities one at a time.
type Runner struct {
	Config      *config.Config
	Stitcher    Stitcher
	Distributor *publish.Distributor

	// Out receives progress lines, Err receives errors and the final tally.
	Out     io.Writer
	Err     io.Writer
	Verbose bool
}

// NewRunner wires a runner from configuration.
func NewRunner(cfg *config.Config, stitcher Stitcher, out, errOut io.Writer) *Runner {
	return &Runner{
		Config:      cfg,
		Stitcher:    stitcher,
		Distributor: &publish.Distributor{GameRoot: cfg.GameRoot, Targets: cfg.Targets},
		Out:         out,
		Err:         errOut,
	}
}

type candidate struct {
	entity  sprite.Entity
	typ     sprite.EntityType
	profile config.Profile
}

// Run discovers entities under opts.Root and builds them in name order.
// Per-entity failures are counted in the summary; the returned error is
// reserved for problems that stop the whole run.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	if r.Stitcher == nil {
		return nil, sprite.ErrMissingBackend
	}
	root := opts.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = wd
	}

	entities, err := sprite.DiscoverEntities(root)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	var candidates []candidate
	for _, e := range entities {
		typ, ok := sprite.Classify(e.Name, r.Config.TypeOverrides)
		profile, hasProfile := r.Config.Profile(string(typ))
		if !ok || !hasProfile {
			r.skip(summary, e, typ, "unknown or unsupported prefix")
			continue
		}
		if typ == sprite.Item && !(opts.ItemsOnly || opts.IncludeItems) {
			r.skip(summary, e, typ, "items are not included by default")
			continue
		}
		candidates = append(candidates, candidate{entity: e, typ: typ, profile: profile})
	}

	switch {
	case opts.Only != "":
		var matched []candidate
		for _, c := range candidates {
			if strings.EqualFold(c.entity.Name, opts.Only) {
				matched = append(matched, c)
			}
		}
		if len(matched) == 0 {
			return summary, fmt.Errorf("%w for --only '%s'", ErrNoMatch, opts.Only)
		}
		candidates = matched
	case opts.ItemsOnly:
		var items []candidate
		for _, c := range candidates {
			if c.typ == sprite.Item {
				items = append(items, c)
			}
		}
		if len(items) == 0 {
			return summary, fmt.Errorf("%w: no item folders found for --items-only", ErrNoMatch)
		}
		candidates = items
	}

	total := len(candidates)
	if total == 0 {
		fmt.Fprintln(r.Err, "No valid folders found.")
		return summary, nil
	}

	logging.Scan("Run start: root=%s candidates=%d force=%v dry_run=%v", root, total, opts.Force, opts.DryRun)
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		fmt.Fprintf(r.Out, "[%d/%d] Checking %s (built %d, skipped %d, errors %d)\n",
			i+1, total, c.entity.Name, summary.Built, summary.Skipped, summary.Errors)

		outcome := r.buildEntity(ctx, c, i+1, total, opts)
		if outcome.Status == StatusFailed {
			fmt.Fprintf(r.Err, "Error in %s: %v\n", c.entity.Name, outcome.Err)
			logging.Get(logging.CategoryScan).With("entity", c.entity.Name).Error("Error in %s: %v", c.entity.Name, outcome.Err)
		}
		summary.Add(outcome)
	}

	fmt.Fprintf(r.Err, "Done. %s\n", summary)
	logging.Scan("Done. %s", summary)
	return summary, nil
}

func (r *Runner) skip(summary *Summary, e sprite.Entity, typ sprite.EntityType, reason string) {
	fmt.Fprintf(r.Out, "Skipping %s: %s\n", e.Name, reason)
	logging.ScanDebug("Skipping %s: %s", e.Name, reason)
	summary.Add(Outcome{Entity: e, Type: typ, Status: StatusSkipped, Reason: reason})
}

// buildEntity runs the pipeline for one entity and never panics on bad input;
// every failure comes back as a StatusFailed outcome.
func (r *Runner) buildEntity(ctx context.Context, c candidate, idx, total int, opts Options) Outcome {
	out := Outcome{Entity: c.entity, Type: c.typ}
	fail := func(err error) Outcome {
		out.Status = StatusFailed
		out.Err = err
		return out
	}

	name, err := sprite.OutputName(c.entity.Name)
	if err != nil {
		return fail(err)
	}
	out.OutputName = name
	out.OutputPath = filepath.Join(c.entity.Path, name)

	profile := c.profile.WithFramesOverrides(opts.FramesOverrides)
	folders, err := sprite.ReadFolderSet(c.entity.Path)
	if err != nil {
		return fail(err)
	}
	entries, err := sprite.ResolveActions(sprite.ResolveInput{
		EntityName:     c.entity.Name,
		Folders:        folders,
		Actions:        profile.Actions,
		AttackPriority: r.Config.AttackFolderPriority,
		ExtraFolders:   r.Config.AttackExtraFolders,
	})
	if err != nil {
		return fail(err)
	}
	grid, newest, err := sprite.Plan(c.entity.Path, entries, profile.InputOrder(r.Config.InputDirectionOrder), profile)
	if err != nil {
		return fail(err)
	}
	out.Newest = newest
	if r.Verbose {
		fmt.Fprintf(r.Out, "  %s: type=%s output=%s entries=%d grid=%dx%d\n",
			c.entity.Name, c.typ, name, len(entries), grid.Columns, grid.RowCount())
	}

	if !publish.NeedsRebuild(out.OutputPath, newest, opts.Force) {
		if !opts.DryRun {
			if err := r.Distributor.Distribute(out.OutputPath, name, c.typ); err != nil {
				return fail(err)
			}
		}
		out.Status = StatusSkipped
		out.Reason = "up to date"
		return out
	}

	if opts.DryRun {
		fmt.Fprintf(r.Out, "Would build: %s (%d/%d)\n", c.entity.Name, idx, total)
		out.Status = StatusWouldBuild
		return out
	}

	if opts.Force {
		if err := r.Distributor.Remove(out.OutputPath, name, c.typ); err != nil {
			return fail(err)
		}
	}

	fmt.Fprintf(r.Out, "Building %s (%d/%d)...\n", c.entity.Name, idx, total)
	logging.Stitch("Start build: %s", c.entity.Name)
	start := time.Now()
	frame := stitch.Size{Width: r.Config.FrameWidth(), Height: r.Config.FrameHeight()}
	if err := r.Stitcher.Stitch(ctx, grid, out.OutputPath, frame); err != nil {
		return fail(err)
	}
	out.Duration = time.Since(start)
	fmt.Fprintf(r.Out, "Built %s in %.1fs\n", name, out.Duration.Seconds())
	logging.Stitch("Built %s in %.1fs", name, out.Duration.Seconds())

	if err := r.Distributor.Distribute(out.OutputPath, name, c.typ); err != nil {
		return fail(err)
	}
	out.Status = StatusBuilt
	return out
}
