// Package classifier splits a root artifact's resolved dependencies into the
// isolated classpath layers used to run it: container, application, plugins
// and plugin shared libraries.
package classifier

import "github.com/git-pkgs/classpath/internal/core"

// Context holds the inputs of one classification. It is not modified by Classify.
type Context struct {
	RootArtifact core.Artifact

	// SharedPluginLibCoordinates are "groupId:artifactId" references to test-scoped
	// direct dependencies shared by every plugin.
	SharedPluginLibCoordinates []string

	// PluginCoordinates are "groupId:artifactId" references to direct dependencies
	// classified each in their own layer.
	PluginCoordinates []string

	// ApplicationCoordinates are "groupId:artifactId" references to direct dependencies
	// that belong to the application layer.
	ApplicationCoordinates []string

	// ExcludedArtifacts are "groupId:artifactId" patterns, "*" allowed, removed from every walk.
	ExcludedArtifacts []string

	// Filter applies to every transitive walk. core.DefaultFilter() when nil.
	Filter core.DependencyFilter

	// Transitive follows transitive dependencies; false keeps every walk to direct dependencies.
	Transitive bool

	// IncludeTestDependencies adds test-scoped direct dependencies that are neither plugins
	// nor shared libraries to the application layer.
	IncludeTestDependencies bool
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithSharedPluginLibs declares plugin shared libraries.
func WithSharedPluginLibs(coordinates ...string) ContextOption {
	return func(c *Context) {
		c.SharedPluginLibCoordinates = append(c.SharedPluginLibCoordinates, coordinates...)
	}
}

// WithPlugins declares plugin dependencies.
func WithPlugins(coordinates ...string) ContextOption {
	return func(c *Context) {
		c.PluginCoordinates = append(c.PluginCoordinates, coordinates...)
	}
}

// WithApplicationDependencies designates direct dependencies for the application layer.
func WithApplicationDependencies(coordinates ...string) ContextOption {
	return func(c *Context) {
		c.ApplicationCoordinates = append(c.ApplicationCoordinates, coordinates...)
	}
}

// WithExcludedArtifacts removes matching artifacts from every layer.
func WithExcludedArtifacts(patterns ...string) ContextOption {
	return func(c *Context) {
		c.ExcludedArtifacts = append(c.ExcludedArtifacts, patterns...)
	}
}

// WithFilter replaces the default dependency filter.
func WithFilter(f core.DependencyFilter) ContextOption {
	return func(c *Context) {
		c.Filter = f
	}
}

// WithTransitive controls whether dependencies of dependencies are resolved.
func WithTransitive(transitive bool) ContextOption {
	return func(c *Context) {
		c.Transitive = transitive
	}
}

// WithTestDependencies adds test-scoped direct dependencies that are neither
// plugins nor shared libraries to the application layer.
func WithTestDependencies(include bool) ContextOption {
	return func(c *Context) {
		c.IncludeTestDependencies = include
	}
}

// NewContext creates a transitive classification context for root.
func NewContext(root core.Artifact, opts ...ContextOption) *Context {
	c := &Context{
		RootArtifact: root,
		Transitive:   true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) filter() core.DependencyFilter {
	f := c.Filter
	if f == nil {
		f = core.DefaultFilter()
	}
	if !c.Transitive {
		f = core.AndFilter(f, core.DirectOnlyFilter)
	}
	return f
}

func (c *Context) exclusions() ([]core.Exclusion, error) {
	exclusions := make([]core.Exclusion, 0, len(c.ExcludedArtifacts))
	for _, pattern := range c.ExcludedArtifacts {
		e, err := core.ParseExclusion(pattern)
		if err != nil {
			return nil, err
		}
		exclusions = append(exclusions, e)
	}
	return exclusions, nil
}
