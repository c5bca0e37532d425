package entities

// DependencyGraph maps a package name to its direct intra-fleet dependencies.
type DependencyGraph map[string][]string

// IsCircular reports whether a cycle is reachable from name. The walk is an
// iterative depth-first traversal that stops at the first revisited node, so
// any cycle downstream of name counts, not only one passing through it.
func (g DependencyGraph) IsCircular(name string) bool {
	visited := make(map[string]struct{}, len(g))
	stack := []string{name}
	for len(stack) > 0 {
		last := len(stack) - 1
		current := stack[last]
		stack = stack[:last]

		if _, seen := visited[current]; seen {
			return true
		}
		visited[current] = struct{}{}
		stack = append(stack, g[current]...)
	}
	return false
}

// Dependents returns the packages that list name as a direct dependency, in
// the order given by names.
func (g DependencyGraph) Dependents(name string, names []string) []string {
	var dependents []string
	for _, candidate := range names {
		for _, dep := range g[candidate] {
			if dep == name {
				dependents = append(dependents, candidate)
				break
			}
		}
	}
	return dependents
}
