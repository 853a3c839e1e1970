package maven

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/git-pkgs/classpath/internal/core"
)

func TestEffectiveModelInheritsFromParent(t *testing.T) {
	repo := newTestRepository(t)
	repo.publishPOM("org.foo", "parent", "1.0", `<project>
  <groupId>org.foo</groupId>
  <artifactId>parent</artifactId>
  <version>1.0</version>
  <packaging>pom</packaging>
  <properties>
    <guava.version>32.1.0-jre</guava.version>
  </properties>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>com.google.guava</groupId>
        <artifactId>guava</artifactId>
        <version>${guava.version}</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
  <dependencies>
    <dependency>
      <groupId>junit</groupId>
      <artifactId>junit</artifactId>
      <version>4.13</version>
      <scope>test</scope>
    </dependency>
  </dependencies>
</project>`)
	repo.publishPOM("org.foo", "child", "1.0", `<project>
  <parent>
    <groupId>org.foo</groupId>
    <artifactId>parent</artifactId>
    <version>1.0</version>
  </parent>
  <artifactId>child</artifactId>
  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>guava</artifactId>
    </dependency>
    <dependency>
      <groupId>${project.groupId}</groupId>
      <artifactId>sibling</artifactId>
      <version>${project.parent.version}</version>
    </dependency>
  </dependencies>
</project>`)

	r := newTestResolver(t, repo.URL())
	m, err := r.EffectiveModel(context.Background(), core.NewArtifact("org.foo", "child", "1.0"))
	if err != nil {
		t.Fatalf("EffectiveModel failed: %v", err)
	}

	if m.Artifact.GroupID != "org.foo" || m.Artifact.Version != "1.0" {
		t.Errorf("expected coordinates inherited from parent, got %s", m.Artifact)
	}
	if m.Parent == nil || m.Parent.ArtifactID != "parent" {
		t.Errorf("unexpected parent %v", m.Parent)
	}

	got := make([]string, len(m.Dependencies))
	for i, d := range m.Dependencies {
		got[i] = d.String()
	}
	want := []string{
		"com.google.guava:guava:32.1.0-jre (compile)",
		"org.foo:sibling:1.0 (compile)",
		"junit:junit:4.13 (test)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestEffectiveModelImportsBOM(t *testing.T) {
	repo := newTestRepository(t)
	repo.publish("org.foo", "bom", "1.0", `<packaging>pom</packaging>
<dependencyManagement>`+dependencies(
		dependency("com.google.guava", "guava", "30.0", ""),
		dependency("org.slf4j", "slf4j-api", "2.0.9", ""),
	)+`</dependencyManagement>`)
	repo.publish("org.foo", "app", "1.0", `<dependencyManagement>`+dependencies(
		dependency("com.google.guava", "guava", "31.0", ""),
		dependency("org.foo", "bom", "1.0", "import", "<type>pom</type>"),
	)+`</dependencyManagement>`+dependencies(
		dependency("com.google.guava", "guava", "", ""),
		dependency("org.slf4j", "slf4j-api", "", "runtime"),
	))

	r := newTestResolver(t, repo.URL())
	desc, err := r.ReadArtifactDescriptor(context.Background(), core.NewArtifact("org.foo", "app", "1.0"))
	if err != nil {
		t.Fatalf("ReadArtifactDescriptor failed: %v", err)
	}

	got := make([]string, len(desc.Dependencies))
	for i, d := range desc.Dependencies {
		got[i] = d.String()
	}
	want := []string{
		"com.google.guava:guava:31.0 (compile)",
		"org.slf4j:slf4j-api:2.0.9 (runtime)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}

	for _, m := range desc.ManagedDependencies {
		if m.Scope == core.Import {
			t.Errorf("import entry %s left in managed dependencies", m)
		}
	}
	if len(desc.ManagedDependencies) != 3 {
		t.Errorf("expected 3 managed dependencies, got %d", len(desc.ManagedDependencies))
	}
}

func TestEffectiveModelParentCycle(t *testing.T) {
	repo := newTestRepository(t)
	repo.publish("org.foo", "a", "1.0", `<parent><groupId>org.foo</groupId><artifactId>b</artifactId><version>1.0</version></parent>`)
	repo.publish("org.foo", "b", "1.0", `<parent><groupId>org.foo</groupId><artifactId>a</artifactId><version>1.0</version></parent>`)

	r := newTestResolver(t, repo.URL())
	_, err := r.EffectiveModel(context.Background(), core.NewArtifact("org.foo", "a", "1.0"))
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("expected parent cycle error, got %v", err)
	}
}

func TestEffectiveModelMissingVersion(t *testing.T) {
	repo := newTestRepository(t)
	repo.publish("org.foo", "a", "1.0", dependencies(dependency("org.foo", "unversioned", "", "")))

	r := newTestResolver(t, repo.URL())
	_, err := r.EffectiveModel(context.Background(), core.NewArtifact("org.foo", "a", "1.0"))
	if err == nil || !strings.Contains(err.Error(), "version of dependency") {
		t.Errorf("expected missing version error, got %v", err)
	}
}

func TestEffectiveModelIsCached(t *testing.T) {
	repo := newTestRepository(t)
	repo.publish("org.foo", "a", "1.0", "")

	r := newTestResolver(t, repo.URL())
	for range 3 {
		if _, err := r.EffectiveModel(context.Background(), core.NewArtifact("org.foo", "a", "1.0")); err != nil {
			t.Fatalf("EffectiveModel failed: %v", err)
		}
	}
	if repo.hits.Load() != 1 {
		t.Errorf("expected one request, got %d", repo.hits.Load())
	}
}
