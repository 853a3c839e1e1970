// Package maven resolves artifacts, descriptors and dependency graphs against
// Maven 2 layout repositories.
package maven

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/git-pkgs/classpath/fetch"
	"github.com/git-pkgs/classpath/internal/core"
)

// DefaultConcurrency bounds parallel artifact downloads.
const DefaultConcurrency = 8

// Resolver implements core.DependencyResolver over remote repositories,
// caching every downloaded file in a local repository.
type Resolver struct {
	layout      *fetch.Resolver
	local       *LocalRepository
	fetcher     fetch.FetcherInterface
	logger      *zap.Logger
	concurrency int

	mu       sync.Mutex
	projects map[string]*project
	models   map[string]*Model
}

var _ core.DependencyResolver = (*Resolver)(nil)

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithConcurrency sets how many artifacts are downloaded at once.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// New creates a resolver over the given repository base URLs, tried in order.
// Maven Central is used when none are given.
func New(repositories []string, local *LocalRepository, fetcher fetch.FetcherInterface, opts ...Option) *Resolver {
	r := &Resolver{
		layout:      fetch.NewResolver(repositories...),
		local:       local,
		fetcher:     fetcher,
		logger:      zap.NewNop(),
		concurrency: DefaultConcurrency,
		projects:    make(map[string]*project),
		models:      make(map[string]*Model),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Repositories returns the remote repositories in lookup order.
func (r *Resolver) Repositories() []string {
	return r.layout.Repositories()
}

// DirectDependencies returns the dependencies the artifact's effective POM declares.
func (r *Resolver) DirectDependencies(ctx context.Context, a core.Artifact) ([]core.Dependency, error) {
	m, err := r.EffectiveModel(ctx, a)
	if err != nil {
		return nil, &core.DescriptorError{Artifact: a, Err: err}
	}
	return slices.Clone(m.Dependencies), nil
}

// ReadArtifactDescriptor returns the declared and managed dependencies of the artifact.
func (r *Resolver) ReadArtifactDescriptor(ctx context.Context, a core.Artifact) (*core.Descriptor, error) {
	m, err := r.EffectiveModel(ctx, a)
	if err != nil {
		return nil, &core.DescriptorError{Artifact: a, Err: err}
	}
	return &core.Descriptor{
		Artifact:            a,
		Dependencies:        slices.Clone(m.Dependencies),
		ManagedDependencies: slices.Clone(m.Managed),
	}, nil
}

// ResolveArtifact returns a with File set, downloading it into the local
// repository unless it is already there.
func (r *Resolver) ResolveArtifact(ctx context.Context, a core.Artifact) (core.Artifact, error) {
	a, err := r.resolveVersion(ctx, a)
	if err != nil {
		return a, err
	}

	if p, ok := r.local.Find(a); ok {
		return a.WithFile(p), nil
	}

	infos, err := r.layout.Resolve(a)
	if err != nil {
		return a, err
	}
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return a, err
		}
		art, err := r.fetcher.Fetch(ctx, info.URL)
		if errors.Is(err, fetch.ErrNotFound) {
			continue
		}
		if err != nil {
			return a, fmt.Errorf("downloading %s from %s: %w", a, info.Repository, err)
		}
		p, err := r.local.Store(a, art.Body)
		_ = art.Body.Close()
		if err != nil {
			return a, err
		}
		r.logger.Debug("downloaded artifact",
			zap.String("artifact", a.String()),
			zap.String("repository", info.Repository))
		return a.WithFile(p), nil
	}

	return a, &core.NotFoundError{Artifact: a, Repositories: r.layout.Repositories()}
}

func (r *Resolver) loadProject(ctx context.Context, pom core.Artifact) (*project, error) {
	key := modelKey(pom)

	r.mu.Lock()
	p, ok := r.projects[key]
	r.mu.Unlock()
	if ok {
		return p, nil
	}

	resolved, err := r.ResolveArtifact(ctx, pom)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved.File)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", resolved.File, err)
	}
	p, err = parsePOM(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pom, err)
	}

	r.mu.Lock()
	r.projects[key] = p
	r.mu.Unlock()
	return p, nil
}
