package maven

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/git-pkgs/classpath/fetch"
	"github.com/git-pkgs/classpath/internal/core"
)

// Meta-versions resolved through maven-metadata.xml.
const (
	Latest  = "LATEST"
	Release = "RELEASE"
)

type metadata struct {
	Versioning struct {
		Latest   string   `xml:"latest"`
		Release  string   `xml:"release"`
		Versions []string `xml:"versions>version"`
	} `xml:"versioning"`
}

func (m *metadata) pick(meta string) string {
	v := m.Versioning.Release
	if meta == Latest && m.Versioning.Latest != "" {
		v = m.Versioning.Latest
	}
	if v == "" && len(m.Versioning.Versions) > 0 {
		v = m.Versioning.Versions[len(m.Versioning.Versions)-1]
	}
	return v
}

// resolveVersion replaces LATEST and RELEASE with the version the first
// repository carrying metadata for the artifact names.
func (r *Resolver) resolveVersion(ctx context.Context, a core.Artifact) (core.Artifact, error) {
	if a.Version != Latest && a.Version != Release {
		return a, nil
	}

	for _, info := range r.layout.ResolveMetadata(a.GroupID, a.ArtifactID) {
		art, err := r.fetcher.Fetch(ctx, info.URL)
		if errors.Is(err, fetch.ErrNotFound) {
			continue
		}
		if err != nil {
			return a, fmt.Errorf("fetching metadata of %s: %w", a.Coordinates(), err)
		}
		data, err := io.ReadAll(art.Body)
		_ = art.Body.Close()
		if err != nil {
			return a, fmt.Errorf("reading metadata of %s: %w", a.Coordinates(), err)
		}

		var m metadata
		if err := xml.Unmarshal(data, &m); err != nil {
			return a, fmt.Errorf("parsing metadata of %s: %w", a.Coordinates(), err)
		}
		if v := m.pick(a.Version); v != "" {
			return a.WithVersion(v), nil
		}
	}

	return a, &core.NotFoundError{Artifact: a, Repositories: r.layout.Repositories()}
}
