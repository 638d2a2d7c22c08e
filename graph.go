package crann

// Graph is the dependency graph of a definition set. Nodes are the ids of
// identified definitions; an edge from a to b means b must be realized
// before a.
type Graph struct {
	nodes []string
	known map[string]bool
	edges map[string][]string
}

// NewGraph builds the dependency graph of defs. Anonymous definitions are not
// nodes. Only class and factory definitions have outgoing edges: one per
// reference found in their constructor arguments and call arguments, in
// declaration order, including references nested in structures.
func NewGraph(defs []*Definition) *Graph {
	g := &Graph{
		known: make(map[string]bool, len(defs)),
		edges: make(map[string][]string, len(defs)),
	}

	for _, def := range defs {
		if def == nil || def.Anonymous() {
			continue
		}
		g.nodes = append(g.nodes, def.id)
		g.known[def.id] = true
	}

	for _, def := range defs {
		if def == nil || !def.constructible() {
			continue
		}
		for _, arg := range def.args {
			g.addEdges(def.id, arg.references())
		}
		for _, call := range def.calls {
			for _, arg := range call.Args {
				g.addEdges(def.id, arg.references())
			}
		}
	}

	return g
}

func (g *Graph) addEdges(from string, targets []string) {
	for _, to := range targets {
		if !contains(g.edges[from], to) {
			g.edges[from] = append(g.edges[from], to)
		}
	}
}

// Nodes returns the node ids in registration order.
func (g *Graph) Nodes() []string {
	nodes := make([]string, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// DependenciesOf returns the direct dependencies of id.
func (g *Graph) DependenciesOf(id string) []string {
	deps := g.edges[id]
	result := make([]string, len(deps))
	copy(result, deps)
	return result
}

// DependentsOf returns the ids that directly depend on id.
func (g *Graph) DependentsOf(id string) []string {
	var dependents []string
	for _, node := range g.nodes {
		if contains(g.edges[node], id) {
			dependents = append(dependents, node)
		}
	}
	return dependents
}

// Order returns every node such that each id comes after all of its
// dependencies. Ties follow registration order, so the result is
// deterministic.
//
// Returns an error if:
//   - A reference targets an id that is not a node (UnknownDefinitionError)
//   - The graph contains a cycle (CyclicDependencyError)
func (g *Graph) Order() ([]string, error) {
	for _, node := range g.nodes {
		for _, dep := range g.edges[node] {
			if !g.known[dep] {
				return nil, &UnknownDefinitionError{ID: dep, ReferencedBy: node}
			}
		}
	}

	s := &sorter{
		graph:    g,
		visited:  make(map[string]bool, len(g.nodes)),
		visiting: make(map[string]bool),
		result:   make([]string, 0, len(g.nodes)),
	}
	for _, node := range g.nodes {
		if err := s.visit(node); err != nil {
			return nil, err
		}
	}
	return s.result, nil
}

// sorter performs a depth-first topological sort.
type sorter struct {
	graph    *Graph
	visited  map[string]bool
	visiting map[string]bool
	stack    []string
	result   []string
}

func (s *sorter) visit(id string) error {
	if s.visited[id] {
		return nil
	}

	if s.visiting[id] {
		return &CyclicDependencyError{Path: s.cycleFrom(id)}
	}

	s.visiting[id] = true
	s.stack = append(s.stack, id)

	// Visit all dependencies first
	for _, dep := range s.graph.edges[id] {
		if err := s.visit(dep); err != nil {
			return err
		}
	}

	s.stack = s.stack[:len(s.stack)-1]
	s.visiting[id] = false
	s.visited[id] = true

	// Add to result after all dependencies
	s.result = append(s.result, id)
	return nil
}

// cycleFrom returns the part of the current stack that closes a cycle on id.
func (s *sorter) cycleFrom(id string) []string {
	for i, node := range s.stack {
		if node == id {
			path := make([]string, 0, len(s.stack)-i+1)
			path = append(path, s.stack[i:]...)
			return append(path, id)
		}
	}
	return []string{id, id}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
