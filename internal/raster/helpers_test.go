package raster

import "spritegg/internal/sprite"

func gridOf(rows [][]string) *sprite.Grid {
	g := &sprite.Grid{}
	for _, frames := range rows {
		g.Rows = append(g.Rows, sprite.Row{Frames: frames})
		g.Columns = max(g.Columns, len(frames))
	}
	return g
}
