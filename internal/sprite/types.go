// Package sprite holds the layout engine: classification of entity folders,
// action folder resolution, and frame grid planning.
package sprite

import (
	"fmt"
	"sort"
	"time"
)

// EntityType is the kind of game object an entity folder holds.
type EntityType string

const (
	Hero   EntityType = "hero"
	Enemy  EntityType = "enemy"
	NPC    EntityType = "npc"
	Item   EntityType = "item"
	Weapon EntityType = "weapon"
)

func (t EntityType) String() string {
	return string(t)
}

// Action names with special handling.
const (
	ActionAttack      = "attack"
	ActionAttackExtra = "attack_extra"
)

// Entity is one immediate sub-directory of a scan root.
type Entity struct {
	Name string
	Path string
}

// ActionEntry is one resolved (action, folder, frames key) triple.
type ActionEntry struct {
	Action    string
	Folder    string
	FramesKey string
}

func (e ActionEntry) String() string {
	return fmt.Sprintf("%s <- %s (frames: %s)", e.Action, e.Folder, e.FramesKey)
}

// Frame is a single frame file.
type Frame struct {
	Path    string
	ModTime time.Time
}

// Row is one direction of one action as placed in the sheet.
type Row struct {
	Action    string
	Folder    string
	Direction string
	Frames    []string
}

// Grid is the ordered rows of a sheet. Columns is the longest row length;
// short rows are padded only when composed.
type Grid struct {
	Rows    []Row
	Columns int
}

// RowCount returns the number of rows.
func (g *Grid) RowCount() int {
	return len(g.Rows)
}

// PaddedRow returns row i padded with filler up to Columns.
func (g *Grid) PaddedRow(i int, filler string) []string {
	frames := g.Rows[i].Frames
	out := make([]string, 0, g.Columns)
	out = append(out, frames...)
	for len(out) < g.Columns {
		out = append(out, filler)
	}
	return out
}

// Cells returns every cell in row-major order, short rows padded with filler.
func (g *Grid) Cells(filler string) []string {
	cells := make([]string, 0, g.Columns*len(g.Rows))
	for i := range g.Rows {
		cells = append(cells, g.PaddedRow(i, filler)...)
	}
	return cells
}

// Sources returns the distinct frame paths of the grid, sorted.
func (g *Grid) Sources() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, row := range g.Rows {
		for _, f := range row.Frames {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}
