package maven

import (
	"cmp"
	"context"
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/dominikbraun/graph"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/git-pkgs/classpath/internal/core"
)

// collection is a dependency graph in which every node is reachable through
// exactly one edge: the nearest declaration of its Key().
type collection struct {
	graph  graph.Graph[string, core.Dependency]
	root   string
	direct []string
	nodes  []core.Dependency
	order  map[string]int
}

type pending struct {
	dep        core.Dependency
	parents    []core.Dependency
	exclusions []core.Exclusion
}

func dependencyHash(d core.Dependency) string {
	return d.Artifact.Key()
}

// propagate returns the scope a transitive dependency takes on below parent.
func propagate(parent, child core.Scope) core.Scope {
	switch parent.Normalize() {
	case core.Provided, core.Test, core.Runtime:
		return parent.Normalize()
	default:
		return child.Normalize()
	}
}

func manage(d, managed core.Dependency) core.Dependency {
	d = d.WithArtifact(d.Artifact)
	if managed.Artifact.Version != "" {
		d.Artifact.Version = managed.Artifact.Version
	}
	if managed.Scope != "" {
		d.Scope = managed.Scope
	}
	d.Exclusions = append(d.Exclusions, managed.Exclusions...)
	return d
}

// collect walks the request breadth first so the first declaration reached
// for a Key() is also the nearest.
func (r *Resolver) collect(ctx context.Context, req core.ResolveRequest) (*collection, error) {
	c := &collection{
		graph: graph.New(dependencyHash, graph.Directed()),
		order: make(map[string]int),
	}
	managed := core.ManagedIndex(req.Managed)

	if req.Root != nil {
		root := core.NewDependency(*req.Root, core.Compile)
		c.root = dependencyHash(root)
		if err := c.graph.AddVertex(root); err != nil {
			return nil, err
		}
	}

	accept := func(d core.Dependency, parents []core.Dependency, exclusions []core.Exclusion, from string) (bool, error) {
		for _, e := range exclusions {
			if e.Matches(d.Artifact) {
				return false, nil
			}
		}
		if req.Filter != nil && !req.Filter.Accept(d, parents) {
			return false, nil
		}
		key := dependencyHash(d)
		if err := c.graph.AddVertex(d); err != nil {
			if errors.Is(err, graph.ErrVertexAlreadyExists) {
				return false, nil
			}
			return false, err
		}
		if from != "" {
			if err := c.graph.AddEdge(from, key); err != nil {
				return false, err
			}
		}
		c.order[key] = len(c.nodes)
		c.nodes = append(c.nodes, d)
		return true, nil
	}

	var queue []pending
	for _, d := range req.Direct {
		d = d.WithScope(d.Scope.Normalize())
		if m, ok := managed[d.Artifact.Key()]; ok && d.Artifact.Version == "" {
			d.Artifact.Version = m.Artifact.Version
		}
		ok, err := accept(d, nil, req.Exclusions, c.root)
		if err != nil {
			return nil, err
		}
		if ok {
			c.direct = append(c.direct, dependencyHash(d))
			queue = append(queue, pending{
				dep:        d,
				exclusions: append(slices.Clone(req.Exclusions), d.Exclusions...),
			})
		}
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := queue[0]
		queue = queue[1:]
		if n.dep.Scope == core.System {
			continue
		}

		children, err := r.DirectDependencies(ctx, n.dep.Artifact)
		if err != nil {
			return nil, &core.ResolutionError{Artifacts: []core.Artifact{n.dep.Artifact}, Err: err}
		}
		parents := append([]core.Dependency{n.dep}, n.parents...)
		for _, child := range children {
			if child.Optional {
				continue
			}
			if m, ok := managed[child.Artifact.Key()]; ok {
				child = manage(child, m)
			}
			if !child.Scope.Transitive() {
				continue
			}
			child.Scope = propagate(n.dep.Scope, child.Scope)

			ok, err := accept(child, parents, n.exclusions, dependencyHash(n.dep))
			if err != nil {
				return nil, err
			}
			if ok {
				queue = append(queue, pending{
					dep:        child,
					parents:    parents,
					exclusions: append(slices.Clone(n.exclusions), child.Exclusions...),
				})
			}
		}
	}

	r.logger.Debug("collected dependency graph",
		zap.Int("direct", len(c.direct)),
		zap.Int("nodes", len(c.nodes)))
	return c, nil
}

// ResolveDependencies collects the request's graph and downloads every node,
// returning the files in collection order.
func (r *Resolver) ResolveDependencies(ctx context.Context, req core.ResolveRequest) ([]string, error) {
	c, err := r.collect(ctx, req)
	if err != nil {
		var resErr *core.ResolutionError
		if errors.As(err, &resErr) {
			return nil, err
		}
		artifacts := make([]core.Artifact, len(req.Direct))
		for i, d := range req.Direct {
			artifacts[i] = d.Artifact
		}
		return nil, &core.ResolutionError{Artifacts: artifacts, Err: err}
	}

	paths := make([]string, len(c.nodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, d := range c.nodes {
		g.Go(func() error {
			resolved, err := r.ResolveArtifact(gctx, d.Artifact)
			if err != nil {
				return &core.ResolutionError{Artifacts: []core.Artifact{d.Artifact}, Err: err}
			}
			paths[i] = resolved.File
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("resolved dependencies", zap.Int("files", len(paths)))
	return paths, nil
}

// Tree renders the graph collected for req in the layout of mvn dependency:tree.
func (r *Resolver) Tree(ctx context.Context, req core.ResolveRequest) (string, error) {
	c, err := r.collect(ctx, req)
	if err != nil {
		return "", err
	}
	adj, err := c.graph.AdjacencyMap()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if c.root != "" {
		root, err := c.graph.Vertex(c.root)
		if err != nil {
			return "", err
		}
		b.WriteString(root.Artifact.String())
		b.WriteByte('\n')
		c.write(&b, adj, c.root, "")
		return b.String(), nil
	}

	for _, key := range c.direct {
		b.WriteString(c.nodes[c.order[key]].String())
		b.WriteByte('\n')
		c.write(&b, adj, key, "")
	}
	return b.String(), nil
}

func (c *collection) write(b *strings.Builder, adj map[string]map[string]graph.Edge[string], key, indent string) {
	children := slices.Collect(maps.Keys(adj[key]))
	slices.SortFunc(children, func(x, y string) int {
		return cmp.Compare(c.order[x], c.order[y])
	})
	for i, child := range children {
		branch, next := "+- ", "|  "
		if i == len(children)-1 {
			branch, next = `\- `, "   "
		}
		b.WriteString(indent + branch + c.nodes[c.order[child]].String())
		b.WriteByte('\n')
		c.write(b, adj, child, indent+next)
	}
}
