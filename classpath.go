// Package classpath splits the dependencies of a Maven artifact into the
// class loader layers of a plugin based container.
//
// A root artifact declares everything it runs with: provided dependencies form
// the container layer, designated dependencies form the application layer,
// each designated plugin gets its own layer, and shared libraries are handed
// to every plugin without their transitive dependencies.
//
// Basic usage:
//
//	import (
//		"context"
//		"github.com/git-pkgs/classpath"
//	)
//
//	resolver, closer, err := classpath.NewMavenResolver(nil, "")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer closer.Close()
//
//	root, _ := classpath.ParseArtifact("org.example:my-app:pom:1.0.0")
//	cc := classpath.NewContext(root,
//		classpath.WithPlugins("org.example:audit-plugin"),
//		classpath.WithSharedPluginLibs("org.apache.derby:derby"),
//	)
//
//	result, err := classpath.NewClassifier(resolver).Classify(context.Background(), cc)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, u := range result.ContainerURLs {
//		fmt.Println(u)
//	}
package classpath

import (
	"io"

	"go.uber.org/zap"

	"github.com/git-pkgs/classpath/fetch"
	"github.com/git-pkgs/classpath/internal/classifier"
	"github.com/git-pkgs/classpath/internal/core"
	"github.com/git-pkgs/classpath/internal/maven"
)

// Re-export types from internal/core
type (
	// Artifact identifies a file in a Maven repository.
	Artifact = core.Artifact

	// Coordinates is a version-less "groupId:artifactId" reference.
	Coordinates = core.Coordinates

	// Dependency is an artifact together with its scope, optional flag and exclusions.
	Dependency = core.Dependency

	// Scope controls on which classpaths a dependency appears.
	Scope = core.Scope

	// Exclusion removes matching artifacts from a dependency's subtree.
	Exclusion = core.Exclusion

	// Descriptor holds what an artifact's POM declares.
	Descriptor = core.Descriptor

	// DependencyFilter decides whether a node of the dependency graph is kept.
	DependencyFilter = core.DependencyFilter

	// FilterFunc adapts a function to DependencyFilter.
	FilterFunc = core.FilterFunc

	// DependencyResolver is the repository access used by the classifier.
	DependencyResolver = core.DependencyResolver

	// ResolveRequest describes one dependency graph walk.
	ResolveRequest = core.ResolveRequest
)

// Re-export types from internal/classifier
type (
	// Classifier computes classifications against a DependencyResolver.
	Classifier = classifier.Classifier

	// ClassifierOption configures a Classifier.
	ClassifierOption = classifier.Option

	// Context holds the inputs of a single classification.
	Context = classifier.Context

	// ContextOption configures a Context.
	ContextOption = classifier.ContextOption

	// Classification is the result of classifying a root artifact.
	Classification = classifier.Classification

	// PluginURLClassification is the class loader layer of one plugin.
	PluginURLClassification = classifier.PluginURLClassification
)

// Re-export types from internal/maven
type (
	// MavenResolver resolves artifacts and dependency graphs from Maven 2 layout repositories.
	MavenResolver = maven.Resolver

	// LocalRepository caches downloaded artifacts in the Maven 2 layout.
	LocalRepository = maven.LocalRepository

	// MavenOption configures a MavenResolver.
	MavenOption = maven.Option
)

// Re-export constants
const (
	ScopeCompile  = core.Compile
	ScopeProvided = core.Provided
	ScopeRuntime  = core.Runtime
	ScopeTest     = core.Test
	ScopeSystem   = core.System
	ScopeImport   = core.Import
)

// Re-export errors
var (
	ErrInvalidCoordinates = core.ErrInvalidCoordinates
	ErrUndeclaredLibrary  = core.ErrUndeclaredLibrary
	ErrDescriptor         = core.ErrDescriptor
	ErrResolution         = core.ErrResolution
	ErrNotFound           = core.ErrNotFound
)

// Re-export error types
type (
	InvalidCoordinatesError = core.InvalidCoordinatesError
	UndeclaredLibraryError  = core.UndeclaredLibraryError
	DescriptorError         = core.DescriptorError
	ResolutionError         = core.ResolutionError
	NotFoundError           = core.NotFoundError
)

// NewClassifier creates a Classifier that resolves through resolver.
func NewClassifier(resolver DependencyResolver, opts ...ClassifierOption) *Classifier {
	return classifier.New(resolver, opts...)
}

// WithLogger sets the logger a Classifier reports progress to.
func WithLogger(l *zap.Logger) ClassifierOption {
	return classifier.WithLogger(l)
}

// NewContext creates a transitive classification context for root.
func NewContext(root Artifact, opts ...ContextOption) *Context {
	return classifier.NewContext(root, opts...)
}

// WithSharedPluginLibs designates test scoped direct dependencies shared by all plugins.
func WithSharedPluginLibs(coordinates ...string) ContextOption {
	return classifier.WithSharedPluginLibs(coordinates...)
}

// WithPlugins designates direct dependencies that get their own layer.
func WithPlugins(coordinates ...string) ContextOption {
	return classifier.WithPlugins(coordinates...)
}

// WithApplicationDependencies designates direct dependencies of the application layer.
func WithApplicationDependencies(coordinates ...string) ContextOption {
	return classifier.WithApplicationDependencies(coordinates...)
}

// WithExcludedArtifacts removes matching artifacts from every layer.
func WithExcludedArtifacts(patterns ...string) ContextOption {
	return classifier.WithExcludedArtifacts(patterns...)
}

// WithFilter replaces the default dependency filter.
func WithFilter(f DependencyFilter) ContextOption {
	return classifier.WithFilter(f)
}

// WithTransitive controls whether transitive dependencies are followed.
func WithTransitive(transitive bool) ContextOption {
	return classifier.WithTransitive(transitive)
}

// WithTestDependencies adds test scoped direct dependencies to the application layer.
func WithTestDependencies(include bool) ContextOption {
	return classifier.WithTestDependencies(include)
}

// ParseArtifact parses "groupId:artifactId[:extension[:classifier]]:version".
func ParseArtifact(s string) (Artifact, error) {
	return core.ParseArtifact(s)
}

// ParseCoordinates parses "groupId:artifactId".
func ParseCoordinates(s string) (Coordinates, error) {
	return core.ParseCoordinates(s)
}

// DefaultFilter keeps non-optional compile and runtime dependencies.
func DefaultFilter() DependencyFilter {
	return core.DefaultFilter()
}

// NewMavenResolver creates a resolver over repositories, Maven Central when
// empty, caching downloads in localDir, ~/.m2/repository when empty. The
// returned Closer releases the underlying HTTP resources.
func NewMavenResolver(repositories []string, localDir string, opts ...MavenOption) (*MavenResolver, io.Closer, error) {
	if len(repositories) == 0 {
		repositories = []string{fetch.DefaultRepository}
	}

	local := maven.NewLocalRepository(localDir)
	if localDir == "" {
		var err error
		if local, err = maven.DefaultLocalRepository(); err != nil {
			return nil, nil, err
		}
	}

	f := fetch.NewFetcher()
	return maven.New(repositories, local, fetch.NewCircuitBreakerFetcher(f), opts...), f, nil
}
