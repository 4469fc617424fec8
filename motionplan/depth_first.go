package motionplan

type dfsFrame struct {
	vertex  int
	next    int
	entered bool
}

// enumeratePaths walks the simple start->goal paths of g depth first without recursion. Each time a vertex is
// entered, full is consulted and the branch is abandoned if it returns true. Otherwise, if the goal is an
// unvisited successor, the path closed at the goal is handed to found once. Then every unvisited non-goal
// successor is descended into in adjacency order. found owns the slice it is given.
func enumeratePaths(g *Graph, full func() bool, found func(path []int)) {
	if g == nil || g.start < 0 || g.goal < 0 {
		return
	}
	onPath := make([]bool, g.NumVertices())
	path := []int{g.start}
	onPath[g.start] = true
	stack := []dfsFrame{{vertex: g.start}}

	pop := func() {
		top := stack[len(stack)-1]
		onPath[top.vertex] = false
		path = path[:len(path)-1]
		stack = stack[:len(stack)-1]
	}

	for len(stack) > 0 {
		idx := len(stack) - 1
		v := stack[idx].vertex
		adj := g.Adjacent(v)

		if !stack[idx].entered {
			stack[idx].entered = true
			if full() {
				pop()
				continue
			}
			for _, w := range adj {
				if w == g.goal && !onPath[w] {
					closed := make([]int, len(path), len(path)+1)
					copy(closed, path)
					found(append(closed, w))
					break
				}
			}
		}

		descended := false
		for stack[idx].next < len(adj) {
			w := adj[stack[idx].next]
			stack[idx].next++
			if onPath[w] || w == g.goal {
				continue
			}
			onPath[w] = true
			path = append(path, w)
			stack = append(stack, dfsFrame{vertex: w})
			descended = true
			break
		}
		if !descended {
			pop()
		}
	}
}
