package domain

import "fmt"

// Geometry holds the drawing constants the layout engine positions nodes with.
type Geometry struct {
	NodeRadius     int
	ColumnSpacing  int
	RowSpacing     int
	OffsetX        int
	OffsetY        int
	ClickTolerance float64 // multiple of NodeRadius accepted as a hit
	PaletteSize    int
	MinWidth       int
	MinHeight      int
}

// DefaultGeometry returns the stock node size, spacing and palette length.
func DefaultGeometry() Geometry {
	return Geometry{
		NodeRadius:     5,
		ColumnSpacing:  25,
		RowSpacing:     30,
		OffsetX:        20,
		OffsetY:        25,
		ClickTolerance: 1.5,
		PaletteSize:    16,
		MinWidth:       150,
		MinHeight:      200,
	}
}

// Validate checks that the geometry can produce a usable layout.
func (g Geometry) Validate() error {
	switch {
	case g.ColumnSpacing <= 0:
		return fmt.Errorf("%w: column spacing must be positive", ErrInvalidGeometry)
	case g.RowSpacing <= 0:
		return fmt.Errorf("%w: row spacing must be positive", ErrInvalidGeometry)
	case g.PaletteSize <= 0:
		return fmt.Errorf("%w: palette must have at least one color", ErrInvalidGeometry)
	case g.NodeRadius < 0 || g.ClickTolerance < 0:
		return fmt.Errorf("%w: radius and tolerance cannot be negative", ErrInvalidGeometry)
	}
	return nil
}

// LaneX returns the x position of a lane.
func (g Geometry) LaneX(lane int) int {
	return g.OffsetX + lane*g.ColumnSpacing
}

// RowY returns the y position of the i-th row.
func (g Geometry) RowY(row int) int {
	return g.OffsetY + row*g.RowSpacing
}

// HitRadius returns the distance from a node center that still selects it.
func (g Geometry) HitRadius() float64 {
	return float64(g.NodeRadius) * g.ClickTolerance
}

// Point is a position on the drawing surface.
type Point struct {
	X int
	Y int
}

// Size is the width and height of the drawing surface.
type Size struct {
	Width  int
	Height int
}

// LayoutNode is the positioned, colored representation of one commit.
type LayoutNode struct {
	Hash       string
	X          int
	Y          int
	Lane       int
	ColorIndex int
}

// Row returns the zero-based row index of the node.
func (n LayoutNode) Row(g Geometry) int {
	return (n.Y - g.OffsetY) / g.RowSpacing
}

// Edge connects a commit to one of its parents. ColorIndex is the child's.
type Edge struct {
	Child      string
	Parent     string
	ColorIndex int
}

// Layout is the result of one layout pass. It is never mutated after the
// engine returns it.
type Layout struct {
	Geometry Geometry
	Nodes    map[string]LayoutNode
	Order    []string
	Edges    []Edge
	MaxX     int
	MaxY     int
	Skipped  []string
}

// Node returns the node for a commit hash.
func (l *Layout) Node(hash string) (LayoutNode, bool) {
	if l == nil {
		return LayoutNode{}, false
	}
	n, ok := l.Nodes[hash]
	return n, ok
}

// Len returns the number of laid-out commits.
func (l *Layout) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Order)
}

// IsEmpty returns true if no commit was laid out.
func (l *Layout) IsEmpty() bool {
	return l.Len() == 0
}

// Lanes returns the number of lanes in use.
func (l *Layout) Lanes() int {
	lanes := 0
	for _, hash := range l.Order {
		if n := l.Nodes[hash]; n.Lane+1 > lanes {
			lanes = n.Lane + 1
		}
	}
	return lanes
}

// Surface returns the size of the area needed to draw the layout, never
// smaller than the geometry minimum.
func (l *Layout) Surface() Size {
	g := l.Geometry
	if l.IsEmpty() {
		return Size{Width: g.MinWidth, Height: g.MinHeight}
	}
	return Size{
		Width:  max(l.MaxX+g.ColumnSpacing+2*g.OffsetX, g.MinWidth),
		Height: max(l.MaxY+g.RowSpacing+g.OffsetY, g.MinHeight),
	}
}

// EdgesFrom returns the edges whose child is the given commit.
func (l *Layout) EdgesFrom(hash string) []Edge {
	var edges []Edge
	for _, e := range l.Edges {
		if e.Child == hash {
			edges = append(edges, e)
		}
	}
	return edges
}
