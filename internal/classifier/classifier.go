package classifier

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/git-pkgs/classpath/internal/core"
)

// Classifier computes classpath layers using a DependencyResolver.
// It keeps no state between calls and is safe for concurrent use.
type Classifier struct {
	resolver core.DependencyResolver
	logger   *zap.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a classifier backed by resolver.
func New(resolver core.DependencyResolver, opts ...Option) *Classifier {
	c := &Classifier{
		resolver: resolver,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify resolves the root artifact's dependencies and splits them into layers.
//
// Resolver calls happen in a fixed order: direct dependencies, descriptor,
// container walk, application walk, one walk per plugin, then one single
// artifact resolution per shared library in declaration order. The container
// walk always happens, with no roots when nothing is provided. Shared library,
// plugin and application declarations are validated before the descriptor is
// read. Any failure aborts the call without a partial result.
func (c *Classifier) Classify(ctx context.Context, cc *Context) (*Classification, error) {
	if cc == nil {
		return nil, errors.New("classification context is nil")
	}
	root := cc.RootArtifact
	log := c.logger.With(zap.String("root", root.String()))

	direct, err := c.resolver.DirectDependencies(ctx, root)
	if err != nil {
		return nil, descriptorError(root, err)
	}
	log.Debug("read direct dependencies", zap.Int("count", len(direct)))

	sharedLibs, err := matchDeclared(direct, cc.SharedPluginLibCoordinates, "shared library", core.Test)
	if err != nil {
		return nil, err
	}
	plugins, err := matchDeclared(direct, cc.PluginCoordinates, "plugin", "")
	if err != nil {
		return nil, err
	}
	application, err := matchDeclared(direct, cc.ApplicationCoordinates, "application dependency", "")
	if err != nil {
		return nil, err
	}
	exclusions, err := cc.exclusions()
	if err != nil {
		return nil, err
	}

	descriptor, err := c.resolver.ReadArtifactDescriptor(ctx, root)
	if err != nil {
		return nil, descriptorError(root, err)
	}
	var managed []core.Dependency
	if descriptor != nil {
		managed = descriptor.ManagedDependencies
	}
	direct = applyManaged(direct, core.ManagedIndex(managed))
	log.Debug("read descriptor", zap.Int("managed", len(managed)))

	filter := cc.filter()

	container := newURLSet()
	eligible, nonContainer := partition(direct)
	files, err := c.resolve(ctx, core.ResolveRequest{
		Direct:     eligible,
		Managed:    managed,
		Exclusions: exclusions,
		Filter:     core.AndFilter(filter, excludeTransitively(nonContainer)),
	})
	if err != nil {
		return nil, err
	}
	if err := container.addAll(files); err != nil {
		return nil, err
	}

	applicationURLs := newURLSet()
	if appDirect := applicationDependencies(direct, application, cc.IncludeTestDependencies, sharedLibs, plugins); len(appDirect) > 0 {
		files, err := c.resolve(ctx, core.ResolveRequest{
			Direct:     appDirect,
			Managed:    managed,
			Exclusions: exclusions,
			Filter:     filter,
		})
		if err != nil {
			return nil, err
		}
		if err := applicationURLs.addAll(files, container); err != nil {
			return nil, err
		}
	}

	sharedExclusions := make([]core.Exclusion, len(sharedLibs))
	for i, idx := range sharedLibs {
		sharedExclusions[i] = exclusionOf(direct[idx].Artifact)
	}

	var pluginURLs []PluginURLClassification
	for _, idx := range plugins {
		plugin := direct[idx]
		files, err := c.resolve(ctx, core.ResolveRequest{
			Direct:     []core.Dependency{plugin.WithScope(core.Compile)},
			Managed:    managed,
			Exclusions: exclusions,
			Filter:     core.AndFilter(filter, excludeTransitively(sharedExclusions)),
		})
		if err != nil {
			return nil, err
		}
		set := newURLSet()
		if err := set.addAll(files, container); err != nil {
			return nil, err
		}
		pluginURLs = append(pluginURLs, PluginURLClassification{
			Name: plugin.Artifact.Coordinates(),
			URLs: set.urls,
		})
	}

	shared := newURLSet()
	for _, idx := range sharedLibs {
		lib := direct[idx].Artifact
		resolved, err := c.resolver.ResolveArtifact(ctx, lib)
		if err != nil {
			return nil, resolutionError([]core.Artifact{lib}, err)
		}
		if resolved.File == "" {
			return nil, resolutionError([]core.Artifact{lib}, fmt.Errorf("resolved without a file"))
		}
		if err := shared.add(resolved.File); err != nil {
			return nil, err
		}
	}

	log.Debug("classified",
		zap.Int("container", len(container.urls)),
		zap.Int("application", len(applicationURLs.urls)),
		zap.Int("plugins", len(pluginURLs)),
		zap.Int("sharedLibs", len(shared.urls)))

	return &Classification{
		ContainerURLs:            container.urls,
		ApplicationURLs:          applicationURLs.urls,
		PluginClassificationURLs: pluginURLs,
		PluginSharedLibURLs:      shared.urls,
	}, nil
}

func (c *Classifier) resolve(ctx context.Context, req core.ResolveRequest) ([]string, error) {
	files, err := c.resolver.ResolveDependencies(ctx, req)
	if err != nil {
		artifacts := make([]core.Artifact, len(req.Direct))
		for i, d := range req.Direct {
			artifacts[i] = d.Artifact
		}
		return nil, resolutionError(artifacts, err)
	}
	return files, nil
}

// matchDeclared parses each coordinate and returns the index of the first direct
// dependency with the same group and artifact id, restricted to scope when set.
func matchDeclared(direct []core.Dependency, coordinates []string, kind string, scope core.Scope) ([]int, error) {
	indexes := make([]int, 0, len(coordinates))
	for _, s := range coordinates {
		coords, err := core.ParseCoordinates(s)
		if err != nil {
			return nil, err
		}
		idx := -1
		for i, d := range direct {
			if coords.Matches(d.Artifact) && (scope == "" || d.Scope.Normalize() == scope) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, &core.UndeclaredLibraryError{Coordinates: coords.String(), Kind: kind, Scope: scope}
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

// applyManaged fills missing versions and scopes of direct dependencies from
// managed entries. Declared dependencies are not modified.
func applyManaged(direct []core.Dependency, managed map[string]core.Dependency) []core.Dependency {
	if len(managed) == 0 {
		return direct
	}
	out := make([]core.Dependency, len(direct))
	for i, d := range direct {
		out[i] = d
		m, ok := managed[d.Artifact.Key()]
		if !ok {
			continue
		}
		if d.Artifact.Version == "" {
			out[i] = out[i].WithArtifact(d.Artifact.WithVersion(m.Artifact.Version))
		}
		if d.Scope == "" && m.Scope != "" {
			out[i] = out[i].WithScope(m.Scope)
		}
	}
	return out
}

// partition promotes provided dependencies to compile for the container walk and
// returns the remaining direct dependencies as exclusions for it.
func partition(direct []core.Dependency) (eligible []core.Dependency, rest []core.Exclusion) {
	for _, d := range direct {
		if d.Scope.Normalize() == core.Provided {
			eligible = append(eligible, d.WithScope(core.Compile))
			continue
		}
		rest = append(rest, exclusionOf(d.Artifact))
	}
	return eligible, rest
}

func applicationDependencies(direct []core.Dependency, designated []int, includeTests bool, sharedLibs, plugins []int) []core.Dependency {
	taken := make(map[int]bool)
	for _, idx := range sharedLibs {
		taken[idx] = true
	}
	for _, idx := range plugins {
		taken[idx] = true
	}

	var deps []core.Dependency
	added := make(map[int]bool)
	for _, idx := range designated {
		if added[idx] {
			continue
		}
		added[idx] = true
		deps = append(deps, direct[idx].WithScope(core.Compile))
	}
	if includeTests {
		for i, d := range direct {
			if d.Scope.Normalize() != core.Test || taken[i] || added[i] {
				continue
			}
			added[i] = true
			deps = append(deps, d.WithScope(core.Compile))
		}
	}
	return deps
}

func exclusionOf(a core.Artifact) core.Exclusion {
	return core.Exclusion{GroupID: a.GroupID, ArtifactID: a.ArtifactID}
}

// excludeTransitively rejects transitive nodes matching exclusions while leaving
// direct dependencies alone, so a coordinate declared twice in different scopes
// keeps its own entry.
func excludeTransitively(exclusions []core.Exclusion) core.DependencyFilter {
	if len(exclusions) == 0 {
		return nil
	}
	matches := core.ExclusionsFilter(exclusions...)
	return core.FilterFunc(func(node core.Dependency, parents []core.Dependency) bool {
		return len(parents) == 0 || !matches.Accept(node, parents)
	})
}

func descriptorError(a core.Artifact, err error) error {
	var descErr *core.DescriptorError
	if errors.As(err, &descErr) {
		return err
	}
	return &core.DescriptorError{Artifact: a, Err: err}
}

func resolutionError(artifacts []core.Artifact, err error) error {
	var resErr *core.ResolutionError
	if errors.As(err, &resErr) {
		return err
	}
	return &core.ResolutionError{Artifacts: artifacts, Err: err}
}
