package maven

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/git-pkgs/classpath/internal/core"
)

// project is the subset of a pom.xml the resolver needs.
type project struct {
	XMLName      xml.Name        `xml:"project"`
	Parent       *parentRef      `xml:"parent"`
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Packaging    string          `xml:"packaging"`
	Properties   properties      `xml:"properties"`
	Managed      []pomDependency `xml:"dependencyManagement>dependencies>dependency"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
}

type parentRef struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

func (p parentRef) artifact() core.Artifact {
	return core.Artifact{GroupID: p.GroupID, ArtifactID: p.ArtifactID, Version: p.Version, Extension: "pom"}
}

type pomDependency struct {
	GroupID    string         `xml:"groupId"`
	ArtifactID string         `xml:"artifactId"`
	Version    string         `xml:"version"`
	Type       string         `xml:"type"`
	Classifier string         `xml:"classifier"`
	Scope      string         `xml:"scope"`
	Optional   string         `xml:"optional"`
	Exclusions []pomExclusion `xml:"exclusions>exclusion"`
}

type pomExclusion struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

// key identifies a declaration for inheritance merging, before interpolation.
func (d pomDependency) key() string {
	return d.GroupID + ":" + d.ArtifactID + ":" + d.Type + ":" + d.Classifier
}

// dependency converts the declaration with every ${...} expression replaced from props.
func (d pomDependency) dependency(props map[string]string) core.Dependency {
	ext, classifier := typeExtension(interpolate(d.Type, props))
	if c := interpolate(d.Classifier, props); c != "" {
		classifier = c
	}
	dep := core.Dependency{
		Artifact: core.Artifact{
			GroupID:    interpolate(d.GroupID, props),
			ArtifactID: interpolate(d.ArtifactID, props),
			Version:    interpolate(d.Version, props),
			Classifier: classifier,
			Extension:  ext,
		},
		Scope:    core.Scope(interpolate(d.Scope, props)),
		Optional: strings.EqualFold(interpolate(d.Optional, props), "true"),
	}
	for _, e := range d.Exclusions {
		dep.Exclusions = append(dep.Exclusions, core.Exclusion{
			GroupID:    interpolate(e.GroupID, props),
			ArtifactID: interpolate(e.ArtifactID, props),
		})
	}
	return dep
}

// properties holds the free-form <properties> block.
type properties map[string]string

func (p *properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	*p = properties{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			(*p)[t.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			return nil
		}
	}
}

func parsePOM(data []byte) (*project, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	var p project
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parsing pom: %w", err)
	}
	return &p, nil
}

// charsetReader accepts the single-byte encodings old POMs declare.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1", "windows-1252", "cp1252", "us-ascii", "ascii":
		data, err := io.ReadAll(input)
		if err != nil {
			return nil, err
		}
		runes := make([]rune, len(data))
		for i, b := range data {
			runes[i] = rune(b)
		}
		return strings.NewReader(string(runes)), nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}

// typeExtension maps a dependency type to the file extension and implied classifier.
func typeExtension(t string) (ext, classifier string) {
	switch t {
	case "", "jar", "maven-plugin", "ejb", "ejb-client", "bundle":
		return core.DefaultExtension, ""
	case "test-jar":
		return core.DefaultExtension, "tests"
	case "java-source":
		return core.DefaultExtension, "sources"
	case "javadoc":
		return core.DefaultExtension, "javadoc"
	default:
		return t, ""
	}
}

const maxInterpolationDepth = 10

// interpolate replaces ${name} expressions with values from props. Unknown
// expressions are left in place. Values may themselves contain expressions.
func interpolate(s string, props map[string]string) string {
	for range maxInterpolationDepth {
		if !strings.Contains(s, "${") {
			return s
		}
		var b strings.Builder
		changed := false
		rest := s
		for {
			start := strings.Index(rest, "${")
			if start < 0 {
				b.WriteString(rest)
				break
			}
			end := strings.IndexByte(rest[start:], '}')
			if end < 0 {
				b.WriteString(rest)
				break
			}
			end += start
			b.WriteString(rest[:start])
			if v, ok := props[rest[start+2:end]]; ok {
				b.WriteString(v)
				changed = true
			} else {
				b.WriteString(rest[start : end+1])
			}
			rest = rest[end+1:]
		}
		s = b.String()
		if !changed {
			return s
		}
	}
	return s
}
