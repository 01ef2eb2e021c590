package core

import (
	"sort"

	"github.com/depgraph/depgraph/log"
)

// Builder runs the two-pass expansion algorithm:
// Pass 1 grows the dependency graph depth-first, propagating settings and
// options and resolving conflicts; Pass 2 walks the finished graph
// post-order computing each node's Info record and package id.
type Builder struct {
	retriever Retriever
	sink      *log.Logger

	// scopePool is the tree-wide registry of scoped option assignments
	// ("pkg:opt=val") declared anywhere above a node, keyed by the target
	// package name. It is what lets a default_options entry declared on
	// one node reach a dependency several levels below it, and it is
	// where cross-branch OptionConflicts are actually detected.
	scopePool *Options
}

// NewBuilder constructs a Builder bound to retriever for fetching
// dependency recipes and sink for non-fatal diagnostics.
func NewBuilder(retriever Retriever, sink *log.Logger) *Builder {
	return &Builder{
		retriever: retriever,
		sink:      sink,
		scopePool: NewOptions("", nil, nil),
	}
}

// Build expands rootRecipe into a complete Graph and computes every node's
// package id. rootSettings carries the already-applied initial settings
// values (e.g. read from a project file); cliOptions carries the initial
// scoped/unscoped option assignments (e.g. from -o flags), applied with
// highest precedence.
func (b *Builder) Build(rootRecipe *Recipe, rootSettings *Settings, cliOptions []KV) (*Graph, error) {
	root := &Node{
		Recipe:       rootRecipe,
		Settings:     rootSettings.RestrictTo(rootRecipe.SettingsKeys),
		Options:      NewOptions("root", rootRecipe.OptionsSchema, rootRecipe.OptionsOrder),
		Requirements: NewRequirements(),
		Overrides:    map[string]Reference{},
	}

	for _, kv := range cliOptions {
		if _, err := b.setOption(root, kv.Key, kv.Value, "cli"); err != nil {
			return nil, err
		}
	}
	if err := b.applyDefaultOptions(root); err != nil {
		return nil, err
	}

	g := NewGraph(root)

	if err := b.expand(g, root); err != nil {
		return nil, err
	}

	for _, n := range g.PostOrder() {
		if err := b.computeInfo(n); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// setOption applies name=value to node's own Options (first-write-wins
// locally) and, if name is scoped, also registers it in the tree-wide scope
// pool so the assignment can reach the target package wherever it appears.
// Any tri-state conflict is written to the sink rather than returned as an
// error; an OptionConflict never aborts expansion.
func (b *Builder) setOption(node *Node, name, value, writer string) (*OptionConflict, error) {
	conflict, err := node.Options.Set(name, value, writer)
	if err != nil {
		return nil, b.withRef(node, err)
	}
	if conflict != nil {
		b.sink.LogConflict("%s", conflict)
	}

	if pkg, opt, scoped := ParseScoped(name); scoped {
		if poolConflict := b.scopePool.setForeign(pkg, opt, value, writer); poolConflict != nil {
			b.sink.LogConflict("%s", poolConflict)
			return poolConflict, nil
		}
	}
	return conflict, nil
}

// applyDefaultOptions seeds node's options from its recipe's default_options.
// Unscoped entries are this package's own defaults, the lowest-precedence
// assignment (any real writer above replaces them without conflict); scoped
// entries are the recipe's contribution to its dependencies' options and go
// through the tree-wide scope pool like any other downstream write.
func (b *Builder) applyDefaultOptions(node *Node) error {
	for _, kv := range node.Recipe.DefaultOptions {
		if _, _, scoped := ParseScoped(kv.Key); scoped {
			if _, err := b.setOption(node, kv.Key, kv.Value, node.String()); err != nil {
				return b.withRef(node, err)
			}
			continue
		}
		if err := node.Options.SetDefault(kv.Key, kv.Value); err != nil {
			return b.withRef(node, err)
		}
	}
	return nil
}

// withRef stamps the owning node's reference onto a ValidationError that was
// raised without one, so the fatal error names the offending recipe.
func (b *Builder) withRef(node *Node, err error) error {
	if verr, ok := err.(*ValidationError); ok && verr.Ref == "" {
		verr.Ref = node.String()
	}
	return err
}

// applyInheritedOptions pulls any scope-pool entries addressed to node's own
// package name and applies them as this node's own option values, in
// lexicographic option-name order for determinism.
func (b *Builder) applyInheritedOptions(node *Node) error {
	if node.Ref == nil {
		return nil
	}
	inherited := b.scopePool.ForeignScopedFor(node.Ref.Name)
	if len(inherited) == 0 {
		return nil
	}
	names := make([]string, 0, len(inherited))
	for n := range inherited {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, name := range names {
		writer := b.scopePool.foreignWriter[node.Ref.Name][name]
		if _, err := node.Options.setOwn(name, inherited[name], writer); err != nil {
			return b.withRef(node, err)
		}
	}
	return nil
}

// expand implements Pass 1 for one node: apply inherited config, run hooks,
// collect requirements, and resolve each one into an edge.
func (b *Builder) expand(g *Graph, node *Node) error {
	if err := b.applyInheritedOptions(node); err != nil {
		return err
	}

	if node.Recipe.Hooks.Config != nil {
		if err := node.Recipe.Hooks.Config(node); err != nil {
			return err
		}
	}

	for _, decl := range node.Recipe.Requires {
		if !decl.Included(node.Options) {
			continue
		}
		node.Requirements.Add(Requirement{Ref: decl.Ref, Visibility: decl.Visibility, Override: decl.Override})
	}
	if node.Recipe.Hooks.Requirements != nil {
		if err := node.Recipe.Hooks.Requirements(node); err != nil {
			return err
		}
	}

	reqs := node.Requirements.List()

	// Register every override first, so a conflict check against a
	// sibling declared earlier in the list still sees it.
	for _, req := range reqs {
		if req.Override {
			node.Overrides[req.Ref.Name] = req.Ref
		}
	}

	for _, req := range reqs {
		if req.Override {
			continue
		}
		if err := b.resolveRequirement(g, node, req); err != nil {
			return err
		}
	}

	return nil
}

func (b *Builder) resolveRequirement(g *Graph, parent *Node, req Requirement) error {
	if req.Visibility == Private {
		if cycle, path := parent.ancestorPath(req.Ref); cycle {
			return &CycleError{Ref: req.Ref.String(), Path: path}
		}
		child, err := b.fetchChild(parent, req)
		if err != nil {
			return err
		}
		g.AddPrivateNode(child)
		g.AddEdge(parent, child, Private)
		return b.expand(g, child)
	}

	// An override pins a package name for the whole subtree below wherever
	// it was declared, whether or not that package has been bound yet:
	// resolve it before touching the dedup index so the
	// first sighting of an overridden package is already the override, not
	// just later conflicting ones.
	effectiveRef := req.Ref
	overrideRef, overridden := parent.FindOverride(req.Ref.Name)
	if overridden {
		effectiveRef = overrideRef
	}

	existing, ok := g.PublicNode(req.Ref.Name)
	if !ok {
		if cycle, path := parent.ancestorPath(effectiveRef); cycle {
			return &CycleError{Ref: effectiveRef.String(), Path: path}
		}
		child, err := b.fetchChild(parent, Requirement{Ref: effectiveRef, Visibility: Public})
		if err != nil {
			return err
		}
		g.AddPublicNode(child)
		g.AddEdge(parent, child, Public)
		if overridden && !effectiveRef.Equal(req.Ref) {
			b.sink.LogNotice("%s", &OverrideNotice{Parent: parent.String(), Old: req.Ref.String(), New: effectiveRef.String()})
		}
		return b.expand(g, child)
	}

	if existing.Ref.Equal(effectiveRef) {
		if cycle, path := parent.ancestorPath(*existing.Ref); cycle {
			return &CycleError{Ref: existing.Ref.String(), Path: path}
		}
		g.AddEdge(parent, existing, Public)
		return nil
	}

	if overridden {
		child, err := b.fetchChild(parent, Requirement{Ref: effectiveRef, Visibility: Public})
		if err != nil {
			return err
		}
		// The override pins the whole graph to the new reference: every edge
		// that reached the old binding is repointed and the old subtree is
		// pruned, so at most one public node per package name survives.
		g.AddPublicNode(child)
		g.ReplacePublicNode(existing, child)
		g.AddEdge(parent, child, Public)
		b.sink.LogNotice("%s", &OverrideNotice{Parent: parent.String(), Old: existing.Ref.String(), New: effectiveRef.String()})
		return b.expand(g, child)
	}

	b.sink.LogConflict("%s", &VersionConflict{Parent: parent.String(), New: req.Ref.String(), Old: existing.Ref.String()})
	if cycle, path := parent.ancestorPath(*existing.Ref); cycle {
		return &CycleError{Ref: existing.Ref.String(), Path: path}
	}
	g.AddEdge(parent, existing, Public)
	return nil
}

func (b *Builder) fetchChild(parent *Node, req Requirement) (*Node, error) {
	recipe, err := b.retriever.Fetch(req.Ref)
	if err != nil {
		return nil, &MissingRequirementError{Ref: req.Ref.String(), Parent: parent.String()}
	}

	ref := req.Ref
	child := &Node{
		Ref:          &ref,
		Recipe:       recipe,
		Settings:     parent.Settings.RestrictTo(recipe.SettingsKeys),
		Options:      NewOptions(ref.String(), recipe.OptionsSchema, recipe.OptionsOrder),
		Requirements: NewRequirements(),
		Parent:       parent,
		Overrides:    map[string]Reference{},
	}

	if err := b.applyDefaultOptions(child); err != nil {
		return nil, err
	}

	return child, nil
}

// computeInfo builds node's Info record: the Full* view from what was
// actually applied during Pass 1, the reduced view seeded from it, then
// gives the recipe's ConanInfo hook a chance to reshape the reduced view
// before the package id is derived.
func (b *Builder) computeInfo(node *Node) error {
	fullRequires := b.fullRequires(node)

	reduced := b.reducedRequires(node)

	node.Info = newInfo(node, node.Settings, node.Options, fullRequires, reduced)

	if node.Recipe.Hooks.ConanInfo != nil {
		if err := node.Recipe.Hooks.ConanInfo(node.Info); err != nil {
			return err
		}
	}

	return nil
}

// fullRequires collects the transitive closure over public edges, plus this
// node's directly-required private dependencies (and their own public
// closures). A descendant's private dependencies stay hidden from its
// consumers.
func (b *Builder) fullRequires(node *Node) []FullRequireEntry {
	seen := map[*Node]bool{}
	var entries []FullRequireEntry
	add := func(c *Node) bool {
		if seen[c] {
			return false
		}
		seen[c] = true
		entries = append(entries, FullRequireEntry{Ref: *c.Ref, PackageID: c.Info.PackageID()})
		return true
	}
	var walkPublic func(n *Node)
	walkPublic = func(n *Node) {
		for _, c := range n.Public {
			if add(c) {
				walkPublic(c)
			}
		}
	}
	walkPublic(node)
	for _, c := range node.Private {
		if add(c) {
			walkPublic(c)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Ref.String() < entries[j].Ref.String() })
	return entries
}

func (b *Builder) reducedRequires(node *Node) []requireEntry {
	var out []requireEntry
	for _, req := range node.Requirements.List() {
		if req.Override {
			out = append(out, requireEntry{Name: req.Ref.Name, Version: req.Ref.Patch()})
			continue
		}
		bound, ok := node.boundChild(req.Ref.Name)
		if !ok {
			continue
		}
		if req.Visibility == Private {
			out = append(out, requireEntry{Name: bound.Ref.Name, Version: bound.Ref.Patch()})
		} else {
			out = append(out, requireEntry{Name: bound.Ref.Name, Version: bound.Ref.Semver()})
		}
	}
	return out
}

// ancestorPath walks n's Parent chain looking for ref; it returns whether
// found and, for diagnostics, the chain of references from n up to (and
// including) the match.
func (n *Node) ancestorPath(ref Reference) (bool, []string) {
	var path []string
	for cur := n; cur != nil; cur = cur.Parent {
		path = append(path, cur.String())
		if cur.Ref != nil && cur.Ref.Equal(ref) {
			return true, path
		}
	}
	return false, nil
}

// boundChild returns the child node that actually ended up bound for
// package name, i.e. the one reachable through this node's own Public or
// Private adjacency list.
func (n *Node) boundChild(name string) (*Node, bool) {
	for _, c := range n.Public {
		if c.Ref.Name == name {
			return c, true
		}
	}
	for _, c := range n.Private {
		if c.Ref.Name == name {
			return c, true
		}
	}
	return nil, false
}
