package pkggraph

// NameResolver produces a human-readable dotted path from the root
// package to any package reachable from it, for use in error messages
// that need to tell a user which manifest entry a failing dependency
// came from (spec.md §10's "root.<name1>.<name2>..." form).
type NameResolver struct {
	root *Package
}

// NewNameResolver returns a resolver rooted at root.
func NewNameResolver(root *Package) *NameResolver {
	return &NameResolver{root: root}
}

// edge records how a package was first reached during Resolve's
// breadth-first search: from which parent, under which local name.
type edge struct {
	from *Package
	name string
}

// Resolve returns the shortest dotted path from the root package to
// target, found by a breadth-first search of the local name tables.
// If target is unreachable from root, Resolve returns "<unnamed>" (spec.md
// §4.12) rather than failing outright — the caller is already in the
// middle of reporting an error and should not fail harder while doing so.
func (n *NameResolver) Resolve(target *Package) string {
	if target == n.root {
		return "root"
	}

	parent := map[*Package]edge{n.root: {}}
	queue := []*Package{n.root}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for name, child := range cur.Table() {
			if _, seen := parent[child]; seen {
				continue
			}
			parent[child] = edge{from: cur, name: name}
			if child == target {
				return buildPath(parent, target)
			}
			queue = append(queue, child)
		}
	}

	return "<unnamed>"
}

// buildPath walks parent pointers from target back to the root,
// accumulating edge names, and renders them as a dotted path.
func buildPath(parent map[*Package]edge, target *Package) string {
	var names []string
	for cur := target; ; {
		e, ok := parent[cur]
		if !ok || e.from == nil {
			break
		}
		names = append(names, e.name)
		cur = e.from
	}

	path := "root"
	for i := len(names) - 1; i >= 0; i-- {
		path += "." + names[i]
	}
	return path
}
