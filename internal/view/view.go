// Package view converts graph layouts, status reports and repository info
// into the JSON documents served by the web viewer, the MCP server and the
// CLI's --json output.
package view

import (
	"strconv"

	"github.com/xvierd/gitlanes/internal/domain"
)

const (
	GraphStateReady       = "ready"
	GraphStateUnavailable = "unavailable"
)

// Node is one positioned commit.
type Node struct {
	Hash      string   `json:"hash"`
	Short     string   `json:"short"`
	Parents   []string `json:"parents"`
	Author    string   `json:"author"`
	Timestamp int64    `json:"timestamp"`
	Subject   string   `json:"subject"`
	Row       int      `json:"row"`
	Lane      int      `json:"lane"`
	X         int      `json:"x"`
	Y         int      `json:"y"`
	Color     string   `json:"color"`
}

// Edge is one child to parent connection, drawn in the child's color.
type Edge struct {
	Child  string `json:"child"`
	Parent string `json:"parent"`
	Color  string `json:"color"`
}

// Bounds is the drawing surface.
type Bounds struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	MaxX   int `json:"max_x"`
	MaxY   int `json:"max_y"`
}

// Graph is the JSON form of a domain.GraphView.
type Graph struct {
	State   string   `json:"state"`
	Reason  string   `json:"reason,omitempty"`
	Nodes   []Node   `json:"nodes"`
	Edges   []Edge   `json:"edges"`
	Bounds  Bounds   `json:"bounds"`
	Lanes   int      `json:"lanes"`
	Skipped []string `json:"skipped,omitempty"`
}

// Palette maps color indices to color strings. A nil palette renders the
// index itself.
type Palette []string

// Color returns the color for an index, wrapping around the palette.
func (p Palette) Color(index int) string {
	if len(p) == 0 {
		return strconv.Itoa(index)
	}
	return p[index%len(p)]
}

// NewGraph converts a graph view. Nodes are listed in row order.
func NewGraph(gv domain.GraphView, palette Palette) Graph {
	switch g := gv.(type) {
	case domain.GraphReady:
		return newReadyGraph(g, palette)
	case domain.GraphUnavailable:
		return Graph{State: GraphStateUnavailable, Reason: g.Reason, Nodes: []Node{}, Edges: []Edge{}}
	}
	return Graph{State: GraphStateUnavailable, Reason: "no graph loaded", Nodes: []Node{}, Edges: []Edge{}}
}

func newReadyGraph(g domain.GraphReady, palette Palette) Graph {
	layout := g.Layout
	if layout == nil {
		layout = &domain.Layout{Geometry: domain.DefaultGeometry()}
	}
	surface := layout.Surface()

	out := Graph{
		State:   GraphStateReady,
		Nodes:   make([]Node, 0, layout.Len()),
		Edges:   make([]Edge, 0, len(layout.Edges)),
		Bounds:  Bounds{Width: surface.Width, Height: surface.Height, MaxX: layout.MaxX, MaxY: layout.MaxY},
		Lanes:   layout.Lanes(),
		Skipped: layout.Skipped,
	}

	for row, hash := range layout.Order {
		n := layout.Nodes[hash]
		c, _ := g.Commit(hash)
		parents := c.Parents
		if parents == nil {
			parents = []string{}
		}
		out.Nodes = append(out.Nodes, Node{
			Hash:      hash,
			Short:     domain.ShortHash(hash),
			Parents:   parents,
			Author:    c.Author,
			Timestamp: c.Timestamp,
			Subject:   c.Subject,
			Row:       row,
			Lane:      n.Lane,
			X:         n.X,
			Y:         n.Y,
			Color:     palette.Color(n.ColorIndex),
		})
	}
	for _, e := range layout.Edges {
		out.Edges = append(out.Edges, Edge{Child: e.Child, Parent: e.Parent, Color: palette.Color(e.ColorIndex)})
	}
	return out
}

// File is one status entry.
type File struct {
	Code string `json:"code"`
	Path string `json:"path"`
	From string `json:"from,omitempty"`
}

// Status is the JSON form of a status report.
type Status struct {
	Clean     bool   `json:"clean"`
	Staged    []File `json:"staged"`
	Unstaged  []File `json:"unstaged"`
	Untracked []File `json:"untracked"`
}

// NewStatus converts a status report. A nil report is a clean tree.
func NewStatus(report *domain.StatusReport) Status {
	if report == nil {
		report = &domain.StatusReport{}
	}
	return Status{
		Clean:     report.IsClean(),
		Staged:    files(report.Staged),
		Unstaged:  files(report.Unstaged),
		Untracked: files(report.Untracked),
	}
}

func files(entries []domain.FileEntry) []File {
	out := make([]File, 0, len(entries))
	for _, e := range entries {
		out = append(out, File{Code: e.Code, Path: e.Path, From: e.OrigPath})
	}
	return out
}

// Branch is a local branch.
type Branch struct {
	Name   string `json:"name"`
	Hash   string `json:"hash"`
	IsHead bool   `json:"is_head"`
}

// Repository is the JSON form of repository info.
type Repository struct {
	Root     string   `json:"root"`
	Name     string   `json:"name"`
	Branch   string   `json:"branch"`
	Head     string   `json:"head"`
	Detached bool     `json:"detached"`
	Branches []Branch `json:"branches"`
}

// NewRepository converts repository info.
func NewRepository(info *domain.RepositoryInfo) Repository {
	if info == nil {
		return Repository{Branches: []Branch{}}
	}
	out := Repository{
		Root:     info.Root,
		Name:     info.Name,
		Branch:   info.Branch,
		Head:     info.Head,
		Detached: info.Detached,
		Branches: make([]Branch, 0, len(info.Branches)),
	}
	for _, b := range info.Branches {
		out.Branches = append(out.Branches, Branch{Name: b.Name, Hash: b.Hash, IsHead: b.IsHead})
	}
	return out
}

// Selection is the result of a hit test.
type Selection struct {
	X     int   `json:"x"`
	Y     int   `json:"y"`
	Found bool  `json:"found"`
	Node  *Node `json:"node,omitempty"`
}

// FindNode returns the node for a hash in a converted graph.
func (g Graph) FindNode(hash string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.Hash == hash {
			return n, true
		}
	}
	return Node{}, false
}
