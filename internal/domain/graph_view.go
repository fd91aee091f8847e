package domain

// GraphView is what the history pane shows: either a ready graph or the
// reason there is none. The two variants are GraphReady and GraphUnavailable.
type GraphView interface {
	graphView()
}

// GraphReady carries a finished layout and the records it was built from.
type GraphReady struct {
	Layout  *Layout
	Commits map[string]CommitRecord
}

// GraphUnavailable explains why no graph can be shown.
type GraphUnavailable struct {
	Reason string
}

func (GraphReady) graphView()       {}
func (GraphUnavailable) graphView() {}

// NewGraphReady indexes records by hash alongside the layout.
func NewGraphReady(layout *Layout, records []CommitRecord) GraphReady {
	commits := make(map[string]CommitRecord, len(records))
	for _, r := range records {
		if _, seen := commits[r.Hash]; !seen {
			commits[r.Hash] = r
		}
	}
	return GraphReady{Layout: layout, Commits: commits}
}

// Commit returns the record behind a laid-out node.
func (g GraphReady) Commit(hash string) (CommitRecord, bool) {
	c, ok := g.Commits[hash]
	return c, ok
}

// Rows returns the records in row order.
func (g GraphReady) Rows() []CommitRecord {
	if g.Layout == nil {
		return nil
	}
	rows := make([]CommitRecord, 0, len(g.Layout.Order))
	for _, hash := range g.Layout.Order {
		rows = append(rows, g.Commits[hash])
	}
	return rows
}
