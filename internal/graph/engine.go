// Package graph lays out a batch of commits as lanes and rows and answers
// hit tests against the result.
//
// The layout is a single forward pass over the commits sorted newest first.
// It keeps a linear chain in one column and pushes diverging branches into
// the lowest free lane. Merges and crossing branches are drawn as straight
// edges; there is no crossing minimisation.
package graph

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/xvierd/gitlanes/internal/domain"
)

// Engine computes commit graph layouts. It holds configuration only, so one
// engine can serve any number of layout calls.
type Engine struct {
	geometry domain.Geometry
	logger   zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for duplicate-hash warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a layout engine for the given geometry.
func NewEngine(geometry domain.Geometry, opts ...Option) *Engine {
	e := &Engine{
		geometry: geometry,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Geometry returns the geometry the engine lays out with.
func (e *Engine) Geometry() domain.Geometry {
	return e.geometry
}

// Layout positions every commit of the batch and connects each one to the
// parents that are also in the batch. Records repeating an earlier hash are
// skipped. The records must already be valid.
func (e *Engine) Layout(records []domain.CommitRecord) *domain.Layout {
	g := e.geometry
	layout := &domain.Layout{
		Geometry: g,
		Nodes:    make(map[string]domain.LayoutNode, len(records)),
		Order:    make([]string, 0, len(records)),
	}

	commits := e.dedupe(records, layout)
	if len(commits) == 0 {
		return layout
	}
	sortNewestFirst(commits)

	inBatch := make(map[string]bool, len(commits))
	for _, c := range commits {
		inBatch[c.Hash] = true
	}

	p := pass{
		laneLastRow: make(map[int]int),
		laneAwaits:  make(map[int]string),
		commitLane:  make(map[string]int, len(commits)),
		inBatch:     inBatch,
	}

	for i, c := range commits {
		row := g.RowY(i)
		lane := p.selectLane(c, row)

		node := domain.LayoutNode{
			Hash:       c.Hash,
			X:          g.LaneX(lane),
			Y:          row,
			Lane:       lane,
			ColorIndex: lane % g.PaletteSize,
		}
		layout.Nodes[c.Hash] = node
		layout.Order = append(layout.Order, c.Hash)

		p.commitLane[c.Hash] = lane
		p.laneLastRow[lane] = row
		p.laneAwaits[lane] = c.FirstParent()

		layout.MaxX = max(layout.MaxX, node.X)
		layout.MaxY = row
	}

	for _, c := range commits {
		child := layout.Nodes[c.Hash]
		for _, parent := range c.Parents {
			if _, ok := layout.Nodes[parent]; !ok {
				// Parent lies outside the loaded history.
				continue
			}
			layout.Edges = append(layout.Edges, domain.Edge{
				Child:      c.Hash,
				Parent:     parent,
				ColorIndex: child.ColorIndex,
			})
		}
	}

	e.logger.Debug().
		Int("nodes", len(layout.Nodes)).
		Int("edges", len(layout.Edges)).
		Int("max_x", layout.MaxX).
		Int("max_y", layout.MaxY).
		Msg("layout assigned")

	return layout
}

// dedupe keeps the first record of each hash.
func (e *Engine) dedupe(records []domain.CommitRecord, layout *domain.Layout) []domain.CommitRecord {
	seen := make(map[string]bool, len(records))
	commits := make([]domain.CommitRecord, 0, len(records))
	for _, r := range records {
		if seen[r.Hash] {
			e.logger.Warn().Str("hash", r.Hash).Msg("duplicate commit hash skipped in layout")
			layout.Skipped = append(layout.Skipped, r.Hash)
			continue
		}
		seen[r.Hash] = true
		commits = append(commits, r)
	}
	return commits
}

// sortNewestFirst orders by timestamp descending, then hash ascending, so the
// result only depends on the batch contents.
func sortNewestFirst(commits []domain.CommitRecord) {
	sort.SliceStable(commits, func(i, j int) bool {
		if commits[i].Timestamp != commits[j].Timestamp {
			return commits[i].Timestamp > commits[j].Timestamp
		}
		return commits[i].Hash < commits[j].Hash
	})
}

// pass is the bookkeeping of a single layout call.
type pass struct {
	nextLane    int
	laneLastRow map[int]int
	// laneAwaits holds the first parent the lane's line still runs down to.
	laneAwaits map[int]string
	commitLane map[string]int
	inBatch    map[string]bool
}

func (p *pass) selectLane(c domain.CommitRecord, row int) int {
	// Only the first parent may pass its lane on.
	if parent := c.FirstParent(); parent != "" {
		if lane, ok := p.commitLane[parent]; ok && p.free(lane, c.Hash, row) {
			return lane
		}
	}

	for lane := 0; lane < p.nextLane; lane++ {
		if p.free(lane, c.Hash, row) {
			return lane
		}
	}

	lane := p.nextLane
	p.nextLane++
	return lane
}

// free reports whether hash may take lane at row. A lane stays occupied while
// its line has not yet reached the first parent of its last commit, unless
// hash is that parent.
func (p *pass) free(lane int, hash string, row int) bool {
	last, used := p.laneLastRow[lane]
	if used && last >= row {
		return false
	}
	awaited := p.laneAwaits[lane]
	if awaited == "" || awaited == hash || !p.inBatch[awaited] {
		return true
	}
	_, placed := p.commitLane[awaited]
	return placed
}
