package core

// Node is a graph vertex: the owning reference (nil for the root), its
// loaded recipe, its resolved public/private dependency edges (the Public
// and Private lists below), a back-link to the node whose expansion created
// it (walked for diagnostic attribution, cycle detection and override
// lookup), and the derived Info record written in Pass 2.
type Node struct {
	Ref    *Reference
	Recipe *Recipe

	Settings     *Settings
	Options      *Options
	Requirements *Requirements

	Parent *Node

	// Public and Private list this node's own outgoing edges, split by
	// visibility, in the order they were resolved during expansion. This
	// mirrors how dependencies are walked for Pass 2 and for rendering a
	// node's requires views; the canonical edge set remains Graph.Edges.
	Public  []*Node
	Private []*Node

	// Overrides records, for this node, any requirement declared with
	// Override=true: package name -> the reference it pins. Pass 1 walks
	// a node's ancestor chain through these maps to resolve a version
	// conflict.
	Overrides map[string]Reference

	Info *Info
}

// String renders the node's reference, or "root" for the root node.
func (n *Node) String() string {
	if n.Ref == nil {
		return "root"
	}
	return n.Ref.String()
}

// FindOverride walks from n up through Parent looking for an override
// pinning package name, returning the first one found.
func (n *Node) FindOverride(name string) (Reference, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Overrides == nil {
			continue
		}
		if ref, ok := cur.Overrides[name]; ok {
			return ref, true
		}
	}
	return Reference{}, false
}

// Edge is an ordered pair (From, To) plus its visibility.
type Edge struct {
	From, To   *Node
	Visibility Visibility
}

// Equal compares both endpoints and visibility.
func (e Edge) Equal(o Edge) bool {
	return e.From == o.From && e.To == o.To && e.Visibility == o.Visibility
}

// Graph is a set of nodes and edges built by the Builder. Root has
// Ref == nil. At most one public node exists per package name; private
// edges bypass that rule.
type Graph struct {
	Root  *Node
	Nodes []*Node
	Edges []Edge

	// publicByName is the dedup index: package name -> the one public
	// node currently representing it.
	publicByName map[string]*Node
}

// NewGraph creates an empty graph rooted at root.
func NewGraph(root *Node) *Graph {
	g := &Graph{
		Root:         root,
		publicByName: map[string]*Node{},
	}
	g.addNode(root)
	return g
}

func (g *Graph) addNode(n *Node) {
	g.Nodes = append(g.Nodes, n)
}

// AddPublicNode registers n in both the node list and the public dedup
// index under its own package name.
func (g *Graph) AddPublicNode(n *Node) {
	g.addNode(n)
	g.publicByName[n.Ref.Name] = n
}

// AddPrivateNode registers n in the node list only; private nodes never
// participate in the dedup index.
func (g *Graph) AddPrivateNode(n *Node) {
	g.addNode(n)
}

// PublicNode looks up the one public node currently bound to a package
// name, if any.
func (g *Graph) PublicNode(name string) (*Node, bool) {
	n, ok := g.publicByName[name]
	return n, ok
}

// AddEdge records an edge from -> to with the given visibility and updates
// the endpoints' Public/Private adjacency lists.
func (g *Graph) AddEdge(from, to *Node, vis Visibility) {
	g.Edges = append(g.Edges, Edge{From: from, To: to, Visibility: vis})
	if vis == Private {
		from.Private = append(from.Private, to)
	} else {
		from.Public = append(from.Public, to)
	}
}

// ReplacePublicNode repoints every edge that reached old at repl and prunes
// old — plus anything only reachable through it — from the graph. Called when
// an override replaces an already-bound public node, so the one-public-node-
// per-name invariant survives the swap.
func (g *Graph) ReplacePublicNode(old, repl *Node) {
	for i := range g.Edges {
		if g.Edges[i].To == old {
			g.Edges[i].To = repl
		}
	}
	for _, n := range g.Nodes {
		for i, c := range n.Public {
			if c == old {
				n.Public[i] = repl
			}
		}
		for i, c := range n.Private {
			if c == old {
				n.Private[i] = repl
			}
		}
	}
	g.prune()
}

// prune drops nodes no longer reachable from the root, together with their
// edges and any dedup-index entries pointing at them.
func (g *Graph) prune() {
	reachable := map[*Node]bool{}
	var visit func(n *Node)
	visit = func(n *Node) {
		if reachable[n] {
			return
		}
		reachable[n] = true
		for _, c := range n.Public {
			visit(c)
		}
		for _, c := range n.Private {
			visit(c)
		}
	}
	visit(g.Root)

	nodes := g.Nodes[:0]
	for _, n := range g.Nodes {
		if reachable[n] {
			nodes = append(nodes, n)
		}
	}
	g.Nodes = nodes

	edges := g.Edges[:0]
	for _, e := range g.Edges {
		if reachable[e.From] && reachable[e.To] {
			edges = append(edges, e)
		}
	}
	g.Edges = edges

	for name, n := range g.publicByName {
		if !reachable[n] {
			delete(g.publicByName, name)
		}
	}
}

// PostOrder returns all non-root nodes in post-order relative to the
// expansion tree implied by Graph.Edges (children before parents), followed
// by the root last. This is the traversal order Pass 2 uses to compute Info
// records bottom-up.
func (g *Graph) PostOrder() []*Node {
	visited := make(map[*Node]bool, len(g.Nodes))
	var order []*Node
	var visit func(n *Node)
	visit = func(n *Node) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, c := range n.Public {
			visit(c)
		}
		for _, c := range n.Private {
			visit(c)
		}
		order = append(order, n)
	}
	visit(g.Root)
	return order
}
