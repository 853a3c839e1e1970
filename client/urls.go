// Package client builds the public URLs under which an artifact can be found.
package client

import (
	"github.com/git-pkgs/classpath/fetch"
	"github.com/git-pkgs/classpath/internal/core"
)

const (
	searchURL = "https://central.sonatype.com/artifact"
	docsURL   = "https://javadoc.io/doc"
)

// URLBuilder constructs URLs for an artifact.
type URLBuilder interface {
	Registry(a core.Artifact) string
	Download(a core.Artifact) string
	Documentation(a core.Artifact) string
	PURL(a core.Artifact) string
}

// MavenURLs builds URLs against one Maven 2 layout repository.
type MavenURLs struct {
	Repository string
}

// NewMavenURLs returns a builder for repository, Maven Central when empty.
func NewMavenURLs(repository string) *MavenURLs {
	if repository == "" {
		repository = fetch.DefaultRepository
	}
	return &MavenURLs{Repository: repository}
}

func (m *MavenURLs) Registry(a core.Artifact) string {
	if a.GroupID == "" || a.ArtifactID == "" {
		return ""
	}
	u := searchURL + "/" + a.GroupID + "/" + a.ArtifactID
	if a.Version != "" {
		u += "/" + a.Version
	}
	return u
}

func (m *MavenURLs) Download(a core.Artifact) string {
	infos, err := fetch.NewResolver(m.Repository).Resolve(a)
	if err != nil {
		return ""
	}
	return infos[0].URL
}

func (m *MavenURLs) Documentation(a core.Artifact) string {
	if a.GroupID == "" || a.ArtifactID == "" {
		return ""
	}
	u := docsURL + "/" + a.GroupID + "/" + a.ArtifactID
	if a.Version != "" {
		u += "/" + a.Version
	}
	return u
}

func (m *MavenURLs) PURL(a core.Artifact) string {
	if a.GroupID == "" || a.ArtifactID == "" {
		return ""
	}
	return a.PURL()
}

// BuildURLs returns a map of all non-empty URLs for an artifact.
// Keys are "registry", "download", "docs", and "purl".
func BuildURLs(urls URLBuilder, a core.Artifact) map[string]string {
	result := make(map[string]string)

	if v := urls.Registry(a); v != "" {
		result["registry"] = v
	}
	if v := urls.Download(a); v != "" {
		result["download"] = v
	}
	if v := urls.Documentation(a); v != "" {
		result["docs"] = v
	}
	if v := urls.PURL(a); v != "" {
		result["purl"] = v
	}

	return result
}
