package maven

import (
	"context"
	"fmt"
	"maps"

	"github.com/git-pkgs/classpath/internal/core"
)

const (
	maxParentDepth = 16
	maxImportDepth = 16
)

// Model is the effective model of a POM: parents merged, properties
// interpolated, BOMs imported and dependency versions filled from management.
type Model struct {
	Artifact     core.Artifact
	Packaging    string
	Parent       *core.Artifact
	Properties   map[string]string
	Dependencies []core.Dependency
	Managed      []core.Dependency
}

func modelKey(a core.Artifact) string {
	return a.GroupID + ":" + a.ArtifactID + ":" + a.Version
}

func pomOf(a core.Artifact) core.Artifact {
	return core.Artifact{GroupID: a.GroupID, ArtifactID: a.ArtifactID, Version: a.Version, Extension: "pom"}
}

// EffectiveModel builds the effective model of an artifact's POM.
func (r *Resolver) EffectiveModel(ctx context.Context, a core.Artifact) (*Model, error) {
	return r.buildModel(ctx, a, nil)
}

// buildModel keeps the chain of BOM imports being expanded in importing to detect cycles.
func (r *Resolver) buildModel(ctx context.Context, a core.Artifact, importing []string) (*Model, error) {
	key := modelKey(a)

	r.mu.Lock()
	cached, ok := r.models[key]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	if len(importing) > maxImportDepth {
		return nil, fmt.Errorf("imports of %s nested deeper than %d", a, maxImportDepth)
	}
	for _, k := range importing {
		if k == key {
			return nil, fmt.Errorf("import cycle at %s", key)
		}
	}

	chain, err := r.lineage(ctx, a)
	if err != nil {
		return nil, err
	}

	m := merge(chain)
	if m.Artifact.Version == "" {
		m.Artifact.Version = a.Version
	}

	managed, err := r.importBOMs(ctx, m.Managed, append(importing, key))
	if err != nil {
		return nil, fmt.Errorf("importing boms of %s: %w", a, err)
	}
	m.Managed = managed

	index := core.ManagedIndex(m.Managed)
	for i, d := range m.Dependencies {
		if mgd, ok := index[d.Artifact.Key()]; ok {
			if d.Artifact.Version == "" {
				d.Artifact.Version = mgd.Artifact.Version
			}
			if d.Scope == "" {
				d.Scope = mgd.Scope
			}
			if len(d.Exclusions) == 0 && len(mgd.Exclusions) > 0 {
				d.Exclusions = append([]core.Exclusion(nil), mgd.Exclusions...)
			}
		}
		if d.Artifact.Version == "" {
			return nil, fmt.Errorf("%s: version of dependency %s is missing", a, d.Artifact.Key())
		}
		d.Scope = d.Scope.Normalize()
		m.Dependencies[i] = d
	}

	r.mu.Lock()
	r.models[key] = m
	r.mu.Unlock()
	return m, nil
}

// lineage returns the project followed by its ancestors, nearest first.
func (r *Resolver) lineage(ctx context.Context, a core.Artifact) ([]*project, error) {
	var chain []*project
	visited := make(map[string]bool)
	cur := pomOf(a)
	for {
		if len(chain) == maxParentDepth {
			return nil, fmt.Errorf("parent chain of %s deeper than %d", a, maxParentDepth)
		}
		if visited[modelKey(cur)] {
			return nil, fmt.Errorf("parent cycle at %s", cur)
		}
		visited[modelKey(cur)] = true

		p, err := r.loadProject(ctx, cur)
		if err != nil {
			return nil, err
		}
		chain = append(chain, p)
		if p.Parent == nil {
			return chain, nil
		}
		cur = p.Parent.artifact()
	}
}

// merge folds a lineage into one model. The nearest declaration wins.
func merge(chain []*project) *Model {
	child := chain[0]
	m := &Model{Properties: make(map[string]string)}

	for i := len(chain) - 1; i >= 0; i-- {
		maps.Copy(m.Properties, chain[i].Properties)
	}

	groupID, version := child.GroupID, child.Version
	if child.Parent != nil {
		if groupID == "" {
			groupID = child.Parent.GroupID
		}
		if version == "" {
			version = child.Parent.Version
		}
		m.Properties["project.parent.groupId"] = child.Parent.GroupID
		m.Properties["project.parent.artifactId"] = child.Parent.ArtifactID
		m.Properties["project.parent.version"] = child.Parent.Version
		parent := child.Parent.artifact()
		m.Parent = &parent
	}
	m.Packaging = child.Packaging
	if m.Packaging == "" {
		m.Packaging = core.DefaultExtension
	}

	for _, prefix := range []string{"project.", "pom.", ""} {
		m.Properties[prefix+"groupId"] = groupID
		m.Properties[prefix+"artifactId"] = child.ArtifactID
		m.Properties[prefix+"version"] = version
	}
	m.Properties["project.packaging"] = m.Packaging

	m.Artifact = core.Artifact{
		GroupID:    interpolate(groupID, m.Properties),
		ArtifactID: interpolate(child.ArtifactID, m.Properties),
		Version:    interpolate(version, m.Properties),
		Extension:  "pom",
	}

	var deps, managed []pomDependency
	seenDeps, seenManaged := make(map[string]bool), make(map[string]bool)
	for _, p := range chain {
		for _, d := range p.Dependencies {
			if !seenDeps[d.key()] {
				seenDeps[d.key()] = true
				deps = append(deps, d)
			}
		}
		for _, d := range p.Managed {
			if !seenManaged[d.key()] {
				seenManaged[d.key()] = true
				managed = append(managed, d)
			}
		}
	}

	for _, d := range deps {
		m.Dependencies = append(m.Dependencies, d.dependency(m.Properties))
	}
	for _, d := range managed {
		m.Managed = append(m.Managed, d.dependency(m.Properties))
	}
	return m
}

// importBOMs replaces import-scoped pom entries with the managed dependencies
// of the imported POMs. Entries declared directly take precedence.
func (r *Resolver) importBOMs(ctx context.Context, managed []core.Dependency, importing []string) ([]core.Dependency, error) {
	var own, imported []core.Dependency
	for _, d := range managed {
		if d.Scope != core.Import || d.Artifact.Ext() != "pom" {
			own = append(own, d)
			continue
		}
		bom, err := r.buildModel(ctx, d.Artifact, importing)
		if err != nil {
			return nil, err
		}
		imported = append(imported, bom.Managed...)
	}
	return append(own, imported...), nil
}
