package motionplan

import "github.com/golang/geo/r2"

// Graph is the exploration graph of a single planning cycle. Vertices live in a contiguous arena and are
// referenced by index; edges are directed and stored as per-vertex adjacency lists in insertion order.
type Graph struct {
	positions []r2.Point
	adjacency [][]int
	start     int
	goal      int
}

func newGraph() *Graph {
	return &Graph{start: -1, goal: -1}
}

func (g *Graph) addVertex(p r2.Point) int {
	g.positions = append(g.positions, p)
	g.adjacency = append(g.adjacency, nil)
	return len(g.positions) - 1
}

func (g *Graph) addEdge(from, to int) {
	g.adjacency[from] = append(g.adjacency[from], to)
}

// NumVertices returns the number of vertices.
func (g *Graph) NumVertices() int {
	return len(g.positions)
}

// Position returns the position of vertex v.
func (g *Graph) Position(v int) r2.Point {
	return g.positions[v]
}

// Adjacent returns the successors of vertex v. The returned slice must not be modified.
func (g *Graph) Adjacent(v int) []int {
	return g.adjacency[v]
}

// Start returns the index of the start vertex.
func (g *Graph) Start() int {
	return g.start
}

// Goal returns the index of the goal vertex.
func (g *Graph) Goal() int {
	return g.goal
}

// NumEdges returns the number of directed edges.
func (g *Graph) NumEdges() int {
	n := 0
	for _, adj := range g.adjacency {
		n += len(adj)
	}
	return n
}

// Edges returns every edge as a pair of positions, for drawing.
func (g *Graph) Edges() [][2]r2.Point {
	edges := make([][2]r2.Point, 0, g.NumEdges())
	for from, adj := range g.adjacency {
		for _, to := range adj {
			edges = append(edges, [2]r2.Point{g.positions[from], g.positions[to]})
		}
	}
	return edges
}

// pathPoints maps a vertex sequence onto positions.
func (g *Graph) pathPoints(path []int) []r2.Point {
	pts := make([]r2.Point, len(path))
	for i, v := range path {
		pts[i] = g.positions[v]
	}
	return pts
}
