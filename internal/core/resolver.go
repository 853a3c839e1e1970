package core

import "context"

// DependencyResolver is the repository-facing collaborator used to classify a classpath.
type DependencyResolver interface {
	// DirectDependencies returns the dependencies declared by an artifact, in declaration order.
	DirectDependencies(ctx context.Context, artifact Artifact) ([]Dependency, error)

	// ReadArtifactDescriptor returns an artifact's declared and managed dependencies.
	ReadArtifactDescriptor(ctx context.Context, artifact Artifact) (*Descriptor, error)

	// ResolveDependencies resolves the transitive closure of a request to file paths.
	ResolveDependencies(ctx context.Context, req ResolveRequest) ([]string, error)

	// ResolveArtifact resolves a single artifact without its dependencies.
	// The returned artifact has File set.
	ResolveArtifact(ctx context.Context, artifact Artifact) (Artifact, error)
}

// ResolveRequest describes a transitive resolution.
type ResolveRequest struct {
	// Root is the artifact the request is made for. It is not resolved itself and may be nil.
	Root *Artifact

	// Direct are the roots of the walk.
	Direct []Dependency

	// Managed overrides versions and scopes of transitive nodes by Key().
	Managed []Dependency

	// Exclusions are removed from the whole walk.
	Exclusions []Exclusion

	// Filter rejects nodes, and everything below them. Nil accepts all.
	Filter DependencyFilter
}
