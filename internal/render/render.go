// Package render rasterises a commit graph layout onto a grid of runes for
// terminal output. Lane l occupies column 2*l and row i occupies line i, so
// the odd columns carry diagonal edges between neighbouring lanes.
package render

import (
	"strings"

	"github.com/xvierd/gitlanes/internal/domain"
)

const (
	NodeRune       = '●'
	VerticalRune   = '│'
	HorizontalRune = '─'
	FallRune       = '╲'
	RiseRune       = '╱'
)

// NoColor marks a cell that carries no palette color.
const NoColor = -1

// Cell is one character of the rasterised graph.
type Cell struct {
	Rune  rune
	Color int
}

// Blank reports whether nothing was drawn in the cell.
func (c Cell) Blank() bool {
	return c.Rune == ' '
}

// Grid is a rasterised layout, one line per commit row.
type Grid struct {
	Width  int
	Height int
	Cells  [][]Cell
	rows   map[string]int
}

// Rasterize draws the nodes and edges of layout. Nodes always win over edges
// sharing a cell.
func Rasterize(layout *domain.Layout) *Grid {
	if layout.IsEmpty() {
		return &Grid{rows: map[string]int{}}
	}
	g := layout.Geometry

	width := 2*(layout.Lanes()-1) + 1
	height := layout.Len()
	grid := &Grid{
		Width:  width,
		Height: height,
		Cells:  make([][]Cell, height),
		rows:   make(map[string]int, height),
	}
	for y := range grid.Cells {
		line := make([]Cell, width)
		for x := range line {
			line[x] = Cell{Rune: ' ', Color: NoColor}
		}
		grid.Cells[y] = line
	}

	for _, e := range layout.Edges {
		child := layout.Nodes[e.Child]
		parent := layout.Nodes[e.Parent]
		grid.line(2*child.Lane, child.Row(g), 2*parent.Lane, parent.Row(g), e.ColorIndex)
	}

	for _, hash := range layout.Order {
		n := layout.Nodes[hash]
		row := n.Row(g)
		grid.Cells[row][2*n.Lane] = Cell{Rune: NodeRune, Color: n.ColorIndex}
		grid.rows[hash] = row
	}

	return grid
}

// Row returns the line a commit was drawn on.
func (g *Grid) Row(hash string) (int, bool) {
	row, ok := g.rows[hash]
	return row, ok
}

// Lines returns the grid as plain strings, trailing blanks trimmed.
func (g *Grid) Lines() []string {
	lines := make([]string, g.Height)
	for y, row := range g.Cells {
		var b strings.Builder
		for _, c := range row {
			b.WriteRune(c.Rune)
		}
		lines[y] = strings.TrimRight(b.String(), " ")
	}
	return lines
}

// String joins Lines with newlines.
func (g *Grid) String() string {
	return strings.Join(g.Lines(), "\n")
}

// CellToPoint maps a grid cell back onto the layout surface, the inverse of
// the lane and row mapping used by Rasterize.
func CellToPoint(geometry domain.Geometry, col, row int) domain.Point {
	return domain.Point{
		X: geometry.OffsetX + col*geometry.ColumnSpacing/2,
		Y: geometry.RowY(row),
	}
}

// line draws the segment between two cells with Bresenham, leaving both
// endpoints to the nodes.
func (g *Grid) line(x0, y0, x1, y1, color int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	err := dx + dy

	x, y := x0, y0
	for x != x1 || y != y1 {
		px, py := x, y
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
		if x == x1 && y == y1 {
			return
		}
		g.set(x, y, stroke(x-px, y-py), color)
	}
}

func (g *Grid) set(x, y int, r rune, color int) {
	if y < 0 || y >= g.Height || x < 0 || x >= g.Width {
		return
	}
	cell := &g.Cells[y][x]
	if cell.Rune == NodeRune {
		return
	}
	// A vertical line passing through keeps the lane readable.
	if cell.Rune == VerticalRune && r != VerticalRune {
		return
	}
	*cell = Cell{Rune: r, Color: color}
}

// stroke picks the rune for a single step of a segment.
func stroke(dx, dy int) rune {
	switch {
	case dx == 0:
		return VerticalRune
	case dy == 0:
		return HorizontalRune
	case dx*dy > 0:
		return FallRune
	default:
		return RiseRune
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
