// Package core provides shared artifact types, dependency filters and the resolver contract.
package core

import "strings"

// DefaultExtension is the packaging assumed when an artifact declares none.
const DefaultExtension = "jar"

// Artifact identifies a Maven artifact. Once resolved, File holds its absolute location.
// Equality is by coordinate; File never takes part in it.
type Artifact struct {
	GroupID    string
	ArtifactID string
	Version    string
	Classifier string
	Extension  string // "jar" when empty
	File       string
}

// NewArtifact returns a jar artifact with the given coordinates.
func NewArtifact(groupID, artifactID, version string) Artifact {
	return Artifact{GroupID: groupID, ArtifactID: artifactID, Version: version, Extension: DefaultExtension}
}

// Ext returns the artifact extension, defaulting to jar.
func (a Artifact) Ext() string {
	if a.Extension == "" {
		return DefaultExtension
	}
	return a.Extension
}

// Coordinates returns "groupId:artifactId".
func (a Artifact) Coordinates() string {
	return a.GroupID + ":" + a.ArtifactID
}

// Key returns the version-independent identity used for conflict resolution:
// "groupId:artifactId:extension[:classifier]".
func (a Artifact) Key() string {
	key := a.GroupID + ":" + a.ArtifactID + ":" + a.Ext()
	if a.Classifier != "" {
		key += ":" + a.Classifier
	}
	return key
}

// String returns "groupId:artifactId[:extension[:classifier]]:version".
func (a Artifact) String() string {
	var b strings.Builder
	b.WriteString(a.GroupID)
	b.WriteByte(':')
	b.WriteString(a.ArtifactID)
	if a.Classifier != "" || a.Ext() != DefaultExtension {
		b.WriteByte(':')
		b.WriteString(a.Ext())
		if a.Classifier != "" {
			b.WriteByte(':')
			b.WriteString(a.Classifier)
		}
	}
	b.WriteByte(':')
	b.WriteString(a.Version)
	return b.String()
}

// Equal reports whether both artifacts have the same coordinates.
func (a Artifact) Equal(o Artifact) bool {
	return a.Key() == o.Key() && a.Version == o.Version
}

// WithFile returns a copy of the artifact located at path.
func (a Artifact) WithFile(path string) Artifact {
	a.File = path
	return a
}

// WithVersion returns a copy of the artifact with a different version.
func (a Artifact) WithVersion(version string) Artifact {
	a.Version = version
	return a
}

// Scope indicates which classpath a dependency belongs to.
type Scope string

const (
	Compile  Scope = "compile"
	Provided Scope = "provided"
	Runtime  Scope = "runtime"
	Test     Scope = "test"
	System   Scope = "system"
	Import   Scope = "import"
)

// Normalize maps the empty scope to compile.
func (s Scope) Normalize() Scope {
	if s == "" {
		return Compile
	}
	return s
}

// Transitive reports whether dependencies of a node in this scope are followed.
func (s Scope) Transitive() bool {
	switch s.Normalize() {
	case Provided, Test, System, Import:
		return false
	default:
		return true
	}
}

// Exclusion removes matching artifacts from a transitive walk. "*" matches anything.
type Exclusion struct {
	GroupID    string
	ArtifactID string
}

// Matches reports whether the exclusion applies to a.
func (e Exclusion) Matches(a Artifact) bool {
	return (e.GroupID == "*" || e.GroupID == a.GroupID) &&
		(e.ArtifactID == "*" || e.ArtifactID == a.ArtifactID)
}

func (e Exclusion) String() string {
	return e.GroupID + ":" + e.ArtifactID
}

// Dependency is an artifact declared with a scope.
type Dependency struct {
	Artifact   Artifact
	Scope      Scope
	Optional   bool
	Exclusions []Exclusion
}

// NewDependency returns a non-optional dependency on a.
func NewDependency(a Artifact, scope Scope) Dependency {
	return Dependency{Artifact: a, Scope: scope}
}

// WithScope returns a copy of the dependency in a different scope.
// The receiver and its exclusions are left untouched.
func (d Dependency) WithScope(scope Scope) Dependency {
	d.Scope = scope
	if d.Exclusions != nil {
		d.Exclusions = append([]Exclusion(nil), d.Exclusions...)
	}
	return d
}

// WithArtifact returns a copy of the dependency on a different artifact.
func (d Dependency) WithArtifact(a Artifact) Dependency {
	d.Artifact = a
	if d.Exclusions != nil {
		d.Exclusions = append([]Exclusion(nil), d.Exclusions...)
	}
	return d
}

// Equal compares artifact coordinates, scope and optionality.
func (d Dependency) Equal(o Dependency) bool {
	return d.Artifact.Equal(o.Artifact) && d.Scope.Normalize() == o.Scope.Normalize() && d.Optional == o.Optional
}

func (d Dependency) String() string {
	s := d.Artifact.String() + " (" + string(d.Scope.Normalize())
	if d.Optional {
		s += "?"
	}
	return s + ")"
}

// Descriptor is what an artifact's POM declares.
type Descriptor struct {
	Artifact            Artifact
	Dependencies        []Dependency
	ManagedDependencies []Dependency
}

// ManagedIndex maps Key() to the managed entry. Later entries do not override earlier ones.
func ManagedIndex(managed []Dependency) map[string]Dependency {
	index := make(map[string]Dependency, len(managed))
	for _, m := range managed {
		if _, ok := index[m.Artifact.Key()]; !ok {
			index[m.Artifact.Key()] = m
		}
	}
	return index
}
