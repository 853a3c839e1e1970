package core

import (
	"fmt"

	packageurl "github.com/package-url/packageurl-go"
)

// PURL renders the artifact as a Package URL, e.g.
// "pkg:maven/org.apache.derby/derby@10.11.1.1" or
// "pkg:maven/org.foo/foo-core@1.0?classifier=tests&type=test-jar".
func (a Artifact) PURL() string {
	var qualifiers packageurl.Qualifiers
	if a.Classifier != "" {
		qualifiers = append(qualifiers, packageurl.Qualifier{Key: "classifier", Value: a.Classifier})
	}
	if a.Ext() != DefaultExtension {
		qualifiers = append(qualifiers, packageurl.Qualifier{Key: "type", Value: a.Ext()})
	}
	p := packageurl.NewPackageURL(packageurl.TypeMaven, a.GroupID, a.ArtifactID, a.Version, qualifiers, "")
	return p.ToString()
}

// ArtifactFromPURL parses a maven Package URL into an artifact.
func ArtifactFromPURL(purl string) (Artifact, error) {
	p, err := packageurl.FromString(purl)
	if err != nil {
		return Artifact{}, err
	}
	if p.Type != packageurl.TypeMaven {
		return Artifact{}, fmt.Errorf("PURL type %q is not maven: %s", p.Type, purl)
	}
	if p.Namespace == "" || p.Version == "" {
		return Artifact{}, fmt.Errorf("PURL has no group or version: %s", purl)
	}

	q := p.Qualifiers.Map()
	a := Artifact{
		GroupID:    p.Namespace,
		ArtifactID: p.Name,
		Version:    p.Version,
		Classifier: q["classifier"],
		Extension:  q["type"],
	}
	if a.Extension == "" {
		a.Extension = DefaultExtension
	}
	return a, nil
}
