package core

import "strings"

// Coordinates is a version-less "groupId:artifactId" reference.
type Coordinates struct {
	GroupID    string
	ArtifactID string
}

func (c Coordinates) String() string {
	return c.GroupID + ":" + c.ArtifactID
}

// Matches reports whether a has the same group and artifact id.
func (c Coordinates) Matches(a Artifact) bool {
	return c.GroupID == a.GroupID && c.ArtifactID == a.ArtifactID
}

// ParseCoordinates parses "groupId:artifactId". Anything else, including a version, is rejected.
func ParseCoordinates(s string) (Coordinates, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Coordinates{}, &InvalidCoordinatesError{Input: s, Expected: "<groupId>:<artifactId>"}
	}
	return Coordinates{GroupID: parts[0], ArtifactID: parts[1]}, nil
}

// ParseArtifact parses "groupId:artifactId[:extension[:classifier]]:version".
func ParseArtifact(s string) (Artifact, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 || len(parts) > 5 {
		return Artifact{}, &InvalidCoordinatesError{Input: s, Expected: "<groupId>:<artifactId>[:<extension>[:<classifier>]]:<version>"}
	}
	for _, p := range parts {
		if p == "" {
			return Artifact{}, &InvalidCoordinatesError{Input: s, Expected: "<groupId>:<artifactId>[:<extension>[:<classifier>]]:<version>"}
		}
	}

	a := Artifact{
		GroupID:    parts[0],
		ArtifactID: parts[1],
		Version:    parts[len(parts)-1],
		Extension:  DefaultExtension,
	}
	if len(parts) >= 4 {
		a.Extension = parts[2]
	}
	if len(parts) == 5 {
		a.Classifier = parts[3]
	}
	return a, nil
}

// ParseExclusion parses "groupId:artifactId" where either part may be "*".
func ParseExclusion(s string) (Exclusion, error) {
	c, err := ParseCoordinates(s)
	if err != nil {
		return Exclusion{}, err
	}
	return Exclusion{GroupID: c.GroupID, ArtifactID: c.ArtifactID}, nil
}
