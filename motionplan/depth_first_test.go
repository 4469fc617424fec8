package motionplan

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

// diamondGraph returns
//
//	    1
//	  /   \
//	0 - 2 - 4
//	  \   /
//	    3
//
// with every edge pointing right and an extra edge 2 -> 1.
func diamondGraph() *Graph {
	g := newGraph()
	g.start = g.addVertex(r2.Point{X: 0, Y: 0})
	v1 := g.addVertex(r2.Point{X: 1, Y: 1})
	v2 := g.addVertex(r2.Point{X: 1, Y: 0})
	v3 := g.addVertex(r2.Point{X: 1, Y: -1})
	g.goal = g.addVertex(r2.Point{X: 2, Y: 0})
	g.addEdge(g.start, v1)
	g.addEdge(g.start, v2)
	g.addEdge(g.start, v3)
	g.addEdge(v2, v1)
	g.addEdge(v1, g.goal)
	g.addEdge(v2, g.goal)
	g.addEdge(v3, g.goal)
	return g
}

func TestEnumeratePaths(t *testing.T) {
	g := diamondGraph()
	var paths [][]int
	enumeratePaths(g, func() bool { return false }, func(path []int) {
		paths = append(paths, path)
	})

	test.That(t, paths, test.ShouldResemble, [][]int{
		{0, 1, 4},
		{0, 2, 4},
		{0, 2, 1, 4},
		{0, 3, 4},
	})
}

func TestEnumeratePathsDirectGoal(t *testing.T) {
	g := newGraph()
	g.start = g.addVertex(r2.Point{})
	g.goal = g.addVertex(r2.Point{X: 1})
	g.addEdge(g.start, g.goal)

	var paths [][]int
	enumeratePaths(g, func() bool { return false }, func(path []int) {
		paths = append(paths, path)
	})
	test.That(t, paths, test.ShouldResemble, [][]int{{0, 1}})
}

func TestEnumeratePathsStopsWhenFull(t *testing.T) {
	g := diamondGraph()
	found := 0
	enumeratePaths(g, func() bool { return found >= 2 }, func(path []int) {
		found++
	})
	test.That(t, found, test.ShouldEqual, 2)

	// full from the very start
	found = 0
	enumeratePaths(g, func() bool { return true }, func(path []int) {
		found++
	})
	test.That(t, found, test.ShouldEqual, 0)
}

func TestEnumeratePathsCycle(t *testing.T) {
	// 0 -> 1 <-> 2 -> 3, paths must stay simple
	g := newGraph()
	g.start = g.addVertex(r2.Point{})
	v1 := g.addVertex(r2.Point{X: 1})
	v2 := g.addVertex(r2.Point{X: 2})
	g.goal = g.addVertex(r2.Point{X: 3})
	g.addEdge(g.start, v1)
	g.addEdge(v1, v2)
	g.addEdge(v2, v1)
	g.addEdge(v2, g.goal)

	var paths [][]int
	enumeratePaths(g, func() bool { return false }, func(path []int) {
		paths = append(paths, path)
	})
	test.That(t, paths, test.ShouldResemble, [][]int{{0, 1, 2, 3}})
}

func TestEnumeratePathsNilGraph(t *testing.T) {
	called := false
	enumeratePaths(nil, func() bool { return false }, func(path []int) { called = true })
	test.That(t, called, test.ShouldBeFalse)
}
