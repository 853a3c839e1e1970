package core

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		input      string
		groupID    string
		artifactID string
		wantErr    bool
	}{
		{"org.apache.derby:derby", "org.apache.derby", "derby", false},
		{"org.foo.tools:foo-repository", "org.foo.tools", "foo-repository", false},

		{"foo-repository", "", "", true},
		{"org.apache.derby:derby:10.11.1.1", "", "", true},
		{":derby", "", "", true},
		{"org.apache.derby:", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := ParseCoordinates(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCoordinates(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCoordinates) {
					t.Errorf("expected ErrInvalidCoordinates, got %v", err)
				}
				if !strings.Contains(err.Error(), "not a valid format") {
					t.Errorf("error %q does not mention the format", err)
				}
				return
			}
			if c.GroupID != tt.groupID || c.ArtifactID != tt.artifactID {
				t.Errorf("ParseCoordinates(%q) = (%q, %q), want (%q, %q)",
					tt.input, c.GroupID, c.ArtifactID, tt.groupID, tt.artifactID)
			}
		})
	}
}

func TestParseArtifact(t *testing.T) {
	tests := []struct {
		input   string
		want    Artifact
		wantErr bool
	}{
		{"org.foo:foo-root:1.0-SNAPSHOT", NewArtifact("org.foo", "foo-root", "1.0-SNAPSHOT"), false},
		{"org.foo:foo-bom:pom:2.0", Artifact{GroupID: "org.foo", ArtifactID: "foo-bom", Version: "2.0", Extension: "pom"}, false},
		{"org.foo:foo-core:jar:tests:1.0", Artifact{GroupID: "org.foo", ArtifactID: "foo-core", Version: "1.0", Extension: "jar", Classifier: "tests"}, false},

		{"org.foo:foo-root", Artifact{}, true},
		{"a:b:c:d:e:f", Artifact{}, true},
		{"org.foo::1.0", Artifact{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseArtifact(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseArtifact(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseArtifact(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestArtifactStringRoundTrip(t *testing.T) {
	for _, s := range []string{
		"org.foo:foo-root:1.0-SNAPSHOT",
		"org.foo:foo-bom:pom:2.0",
		"org.foo:foo-core:jar:tests:1.0",
	} {
		a, err := ParseArtifact(s)
		if err != nil {
			t.Fatalf("ParseArtifact(%q) failed: %v", s, err)
		}
		if a.String() != s {
			t.Errorf("String() = %q, want %q", a.String(), s)
		}
	}
}

func TestParseExclusion(t *testing.T) {
	e, err := ParseExclusion("org.foo:*")
	if err != nil {
		t.Fatalf("ParseExclusion failed: %v", err)
	}
	if !e.Matches(NewArtifact("org.foo", "anything", "1")) {
		t.Error("expected wildcard exclusion to match")
	}
	if e.Matches(NewArtifact("org.bar", "anything", "1")) {
		t.Error("expected exclusion not to match another group")
	}
}
