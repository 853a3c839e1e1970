package fetch

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/git-pkgs/classpath/internal/core"
)

var ErrNoRepositories = errors.New("no repositories configured")

// DefaultRepository is Maven Central.
const DefaultRepository = "https://repo1.maven.org/maven2"

// Resolver maps artifacts to download URLs in Maven 2 layout repositories.
type Resolver struct {
	repositories []string
}

// NewResolver creates a resolver over the given repository base URLs, tried in order.
// Maven Central is used when none are given.
func NewResolver(repositories ...string) *Resolver {
	if len(repositories) == 0 {
		repositories = []string{DefaultRepository}
	}
	repos := make([]string, len(repositories))
	for i, r := range repositories {
		repos[i] = strings.TrimSuffix(r, "/")
	}
	return &Resolver{repositories: repos}
}

// Repositories returns the configured repository base URLs.
func (r *Resolver) Repositories() []string {
	return append([]string(nil), r.repositories...)
}

// ArtifactInfo contains information about a downloadable file.
type ArtifactInfo struct {
	Repository string
	URL        string
	Filename   string
	Path       string // repository-relative path, also used by local repositories
}

// Resolve returns one candidate location per repository for the artifact file.
func (r *Resolver) Resolve(a core.Artifact) ([]ArtifactInfo, error) {
	p, err := ArtifactPath(a)
	if err != nil {
		return nil, err
	}
	return r.candidates(p), nil
}

// ResolvePOM returns one candidate location per repository for the artifact's POM.
func (r *Resolver) ResolvePOM(a core.Artifact) ([]ArtifactInfo, error) {
	pom := core.Artifact{GroupID: a.GroupID, ArtifactID: a.ArtifactID, Version: a.Version, Extension: "pom"}
	return r.Resolve(pom)
}

// ResolveMetadata returns one candidate location per repository for the
// artifact-level maven-metadata.xml.
func (r *Resolver) ResolveMetadata(groupID, artifactID string) []ArtifactInfo {
	p := path.Join(groupPath(groupID), artifactID, "maven-metadata.xml")
	return r.candidates(p)
}

func (r *Resolver) candidates(p string) []ArtifactInfo {
	infos := make([]ArtifactInfo, len(r.repositories))
	for i, repo := range r.repositories {
		infos[i] = ArtifactInfo{
			Repository: repo,
			URL:        repo + "/" + p,
			Filename:   path.Base(p),
			Path:       p,
		}
	}
	return infos
}

// ArtifactPath returns the Maven 2 layout path of an artifact, e.g.
// "org/apache/derby/derby/10.11.1.1/derby-10.11.1.1.jar".
func ArtifactPath(a core.Artifact) (string, error) {
	if a.GroupID == "" || a.ArtifactID == "" || a.Version == "" {
		return "", fmt.Errorf("%w: incomplete coordinates %s", core.ErrInvalidCoordinates, a)
	}
	return path.Join(groupPath(a.GroupID), a.ArtifactID, a.Version, Filename(a)), nil
}

// Filename returns "artifactId-version[-classifier].extension".
func Filename(a core.Artifact) string {
	name := a.ArtifactID + "-" + a.Version
	if a.Classifier != "" {
		name += "-" + a.Classifier
	}
	return name + "." + a.Ext()
}

func groupPath(groupID string) string {
	return strings.ReplaceAll(groupID, ".", "/")
}
