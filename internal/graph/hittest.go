package graph

import "github.com/xvierd/gitlanes/internal/domain"

// HitTest returns the commit whose node lies within the click tolerance of
// point. Nodes are checked in row order and the first match wins.
func HitTest(layout *domain.Layout, point domain.Point) (string, bool) {
	if layout.IsEmpty() {
		return "", false
	}
	radius := layout.Geometry.HitRadius()
	limit := radius * radius

	for _, hash := range layout.Order {
		n := layout.Nodes[hash]
		dx := float64(point.X - n.X)
		dy := float64(point.Y - n.Y)
		if dx*dx+dy*dy <= limit {
			return hash, true
		}
	}
	return "", false
}

// Selection tracks the selected commit across hit tests. A miss leaves the
// current selection unchanged.
type Selection struct {
	hash string
}

// Hash returns the selected commit, or "" when nothing is selected.
func (s *Selection) Hash() string {
	return s.hash
}

// Click hit-tests point and reports whether the selection changed.
func (s *Selection) Click(layout *domain.Layout, point domain.Point) bool {
	hash, ok := HitTest(layout, point)
	if !ok || hash == s.hash {
		return false
	}
	s.hash = hash
	return true
}

// Set selects hash directly, e.g. from keyboard navigation.
func (s *Selection) Set(hash string) {
	s.hash = hash
}

// Reset clears the selection, as happens whenever a new batch is laid out.
func (s *Selection) Reset() {
	s.hash = ""
}
