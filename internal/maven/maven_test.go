package maven

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/git-pkgs/classpath/fetch"
	"github.com/git-pkgs/classpath/internal/core"
)

// testRepository serves a Maven 2 layout from memory.
type testRepository struct {
	files  map[string]string
	hits   atomic.Int32
	server *httptest.Server
}

func newTestRepository(t *testing.T) *testRepository {
	t.Helper()
	repo := &testRepository{files: make(map[string]string)}
	repo.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		repo.hits.Add(1)
		body, ok := repo.files[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(repo.server.Close)
	return repo
}

func (repo *testRepository) URL() string {
	return repo.server.URL
}

func (repo *testRepository) base(g, a, v string) string {
	return strings.ReplaceAll(g, ".", "/") + "/" + a + "/" + v + "/" + a + "-" + v
}

// publish adds a pom with the given inner XML and a jar.
func (repo *testRepository) publish(g, a, v, inner string) {
	base := repo.base(g, a, v)
	repo.files[base+".pom"] = fmt.Sprintf(
		`<project><groupId>%s</groupId><artifactId>%s</artifactId><version>%s</version>%s</project>`, g, a, v, inner)
	repo.files[base+".jar"] = "jar " + g + ":" + a + ":" + v
}

func (repo *testRepository) publishPOM(g, a, v, pom string) {
	repo.files[repo.base(g, a, v)+".pom"] = pom
}

func dependency(g, a, v, scope string, extra ...string) string {
	s := "<dependency><groupId>" + g + "</groupId><artifactId>" + a + "</artifactId>"
	if v != "" {
		s += "<version>" + v + "</version>"
	}
	if scope != "" {
		s += "<scope>" + scope + "</scope>"
	}
	return s + strings.Join(extra, "") + "</dependency>"
}

func dependencies(deps ...string) string {
	return "<dependencies>" + strings.Join(deps, "") + "</dependencies>"
}

func newTestResolver(t *testing.T, repos ...string) *Resolver {
	t.Helper()
	f := fetch.NewFetcher(fetch.WithMaxRetries(0))
	t.Cleanup(func() { _ = f.Close() })
	return New(repos, NewLocalRepository(t.TempDir()), f)
}

func direct(g, a, v string, scope core.Scope) core.Dependency {
	return core.NewDependency(core.NewArtifact(g, a, v), scope)
}

func basenames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

func TestResolveDependenciesFollowsScopes(t *testing.T) {
	repo := newTestRepository(t)
	repo.publish("org.foo", "a", "1.0", dependencies(
		dependency("org.foo", "b", "1.0", ""),
		dependency("org.foo", "c", "1.0", "test"),
		dependency("org.foo", "d", "1.0", "", "<optional>true</optional>"),
		dependency("org.foo", "e", "1.0", "runtime"),
		dependency("org.foo", "f", "1.0", "provided"),
	))
	for _, name := range []string{"b", "c", "d", "e", "f"} {
		repo.publish("org.foo", name, "1.0", "")
	}

	r := newTestResolver(t, repo.URL())
	paths, err := r.ResolveDependencies(context.Background(), core.ResolveRequest{
		Direct: []core.Dependency{direct("org.foo", "a", "1.0", core.Compile)},
		Filter: core.DefaultFilter(),
	})
	if err != nil {
		t.Fatalf("ResolveDependencies failed: %v", err)
	}

	want := []string{"a-1.0.jar", "b-1.0.jar", "e-1.0.jar"}
	if diff := cmp.Diff(want, basenames(paths)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			t.Errorf("expected absolute path, got %q", p)
		}
	}
}

func TestScopePropagation(t *testing.T) {
	repo := newTestRepository(t)
	repo.publish("org.foo", "x", "1.0", dependencies(dependency("org.foo", "y", "1.0", "")))
	repo.publish("org.foo", "y", "1.0", dependencies(dependency("org.foo", "z", "1.0", "runtime")))
	repo.publish("org.foo", "z", "1.0", "")
	repo.publish("org.foo", "r", "1.0", dependencies(dependency("org.foo", "s", "1.0", "")))
	repo.publish("org.foo", "s", "1.0", "")

	r := newTestResolver(t, repo.URL())
	tree, err := r.Tree(context.Background(), core.ResolveRequest{
		Direct: []core.Dependency{
			direct("org.foo", "x", "1.0", core.Provided),
			direct("org.foo", "r", "1.0", core.Runtime),
		},
	})
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}

	want := `org.foo:x:1.0 (provided)
\- org.foo:y:1.0 (provided)
   \- org.foo:z:1.0 (provided)
org.foo:r:1.0 (runtime)
\- org.foo:s:1.0 (runtime)
`
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestTreeWithRoot(t *testing.T) {
	repo := newTestRepository(t)
	repo.publish("org.foo", "a", "1.0", dependencies(dependency("org.foo", "b", "1.0", "")))
	repo.publish("org.foo", "b", "1.0", "")
	repo.publish("org.foo", "g", "1.0", "")

	root := core.NewArtifact("org.foo", "app", "1.0")
	r := newTestResolver(t, repo.URL())
	tree, err := r.Tree(context.Background(), core.ResolveRequest{
		Root: &root,
		Direct: []core.Dependency{
			direct("org.foo", "a", "1.0", core.Compile),
			direct("org.foo", "g", "1.0", core.Compile),
		},
	})
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}

	want := `org.foo:app:1.0
+- org.foo:a:1.0 (compile)
|  \- org.foo:b:1.0 (compile)
\- org.foo:g:1.0 (compile)
`
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestNearestWins(t *testing.T) {
	repo := newTestRepository(t)
	repo.publish("org.foo", "a", "1.0", dependencies(dependency("org.foo", "x", "1.0", "")))
	repo.publish("org.foo", "b", "1.0", dependencies(dependency("org.foo", "y", "1.0", "")))
	repo.publish("org.foo", "y", "1.0", dependencies(dependency("org.foo", "x", "2.0", "")))
	repo.publish("org.foo", "x", "1.0", "")
	repo.publish("org.foo", "x", "2.0", "")

	r := newTestResolver(t, repo.URL())
	paths, err := r.ResolveDependencies(context.Background(), core.ResolveRequest{
		Direct: []core.Dependency{
			direct("org.foo", "a", "1.0", core.Compile),
			direct("org.foo", "b", "1.0", core.Compile),
		},
	})
	if err != nil {
		t.Fatalf("ResolveDependencies failed: %v", err)
	}

	want := []string{"a-1.0.jar", "b-1.0.jar", "x-1.0.jar", "y-1.0.jar"}
	if diff := cmp.Diff(want, basenames(paths)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestExclusions(t *testing.T) {
	repo := newTestRepository(t)
	repo.publish("org.foo", "a", "1.0", dependencies(
		dependency("org.foo", "b", "1.0", ""),
		dependency("org.foo", "c", "1.0", "", "<exclusions><exclusion><groupId>org.foo</groupId><artifactId>e</artifactId></exclusion></exclusions>"),
		dependency("org.bar", "d", "1.0", ""),
	))
	repo.publish("org.foo", "b", "1.0", "")
	repo.publish("org.foo", "c", "1.0", dependencies(dependency("org.foo", "e", "1.0", "")))
	repo.publish("org.foo", "e", "1.0", "")
	repo.publish("org.bar", "d", "1.0", "")

	a := direct("org.foo", "a", "1.0", core.Compile)
	a.Exclusions = []core.Exclusion{{GroupID: "org.foo", ArtifactID: "b"}}

	r := newTestResolver(t, repo.URL())
	paths, err := r.ResolveDependencies(context.Background(), core.ResolveRequest{
		Direct:     []core.Dependency{a},
		Exclusions: []core.Exclusion{{GroupID: "org.bar", ArtifactID: "*"}},
	})
	if err != nil {
		t.Fatalf("ResolveDependencies failed: %v", err)
	}

	want := []string{"a-1.0.jar", "c-1.0.jar"}
	if diff := cmp.Diff(want, basenames(paths)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestManagedOverridesTransitiveVersion(t *testing.T) {
	repo := newTestRepository(t)
	repo.publish("org.foo", "a", "1.0", dependencies(dependency("org.foo", "c", "1.0", "")))
	repo.publish("org.foo", "c", "1.0", "")
	repo.publish("org.foo", "c", "2.0", "")

	r := newTestResolver(t, repo.URL())
	paths, err := r.ResolveDependencies(context.Background(), core.ResolveRequest{
		Direct:  []core.Dependency{direct("org.foo", "a", "1.0", core.Compile)},
		Managed: []core.Dependency{direct("org.foo", "c", "2.0", "")},
	})
	if err != nil {
		t.Fatalf("ResolveDependencies failed: %v", err)
	}

	want := []string{"a-1.0.jar", "c-2.0.jar"}
	if diff := cmp.Diff(want, basenames(paths)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterSeesParents(t *testing.T) {
	repo := newTestRepository(t)
	repo.publish("org.foo", "a", "1.0", dependencies(dependency("org.foo", "b", "1.0", "")))
	repo.publish("org.foo", "b", "1.0", dependencies(dependency("org.foo", "c", "1.0", "")))
	repo.publish("org.foo", "c", "1.0", "")

	var seen []string
	filter := core.FilterFunc(func(node core.Dependency, parents []core.Dependency) bool {
		path := node.Artifact.ArtifactID
		for _, p := range parents {
			path += "<" + p.Artifact.ArtifactID
		}
		seen = append(seen, path)
		return node.Artifact.ArtifactID != "b"
	})

	r := newTestResolver(t, repo.URL())
	paths, err := r.ResolveDependencies(context.Background(), core.ResolveRequest{
		Direct: []core.Dependency{direct("org.foo", "a", "1.0", core.Compile)},
		Filter: filter,
	})
	if err != nil {
		t.Fatalf("ResolveDependencies failed: %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b<a"}, seen); diff != "" {
		t.Errorf("filter calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a-1.0.jar"}, basenames(paths)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveArtifactFallsBackToNextRepository(t *testing.T) {
	empty := newTestRepository(t)
	repo := newTestRepository(t)
	repo.publish("org.apache.derby", "derby", "10.11.1.1", "")

	r := newTestResolver(t, empty.URL(), repo.URL())
	resolved, err := r.ResolveArtifact(context.Background(), core.NewArtifact("org.apache.derby", "derby", "10.11.1.1"))
	if err != nil {
		t.Fatalf("ResolveArtifact failed: %v", err)
	}
	if filepath.Base(resolved.File) != "derby-10.11.1.1.jar" {
		t.Errorf("File = %q", resolved.File)
	}
	if empty.hits.Load() != 1 || repo.hits.Load() != 1 {
		t.Errorf("hits = %d/%d, want 1/1", empty.hits.Load(), repo.hits.Load())
	}
}

func TestResolveArtifactNotFound(t *testing.T) {
	first := newTestRepository(t)
	second := newTestRepository(t)

	r := newTestResolver(t, first.URL(), second.URL())
	_, err := r.ResolveArtifact(context.Background(), core.NewArtifact("org.foo", "missing", "1.0"))

	var notFound *core.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if len(notFound.Repositories) != 2 {
		t.Errorf("expected both repositories in error, got %v", notFound.Repositories)
	}
	if !errors.Is(err, core.ErrNotFound) {
		t.Error("expected errors.Is(err, ErrNotFound)")
	}
}

func TestResolveDependenciesMissingDescriptor(t *testing.T) {
	repo := newTestRepository(t)

	r := newTestResolver(t, repo.URL())
	_, err := r.ResolveDependencies(context.Background(), core.ResolveRequest{
		Direct: []core.Dependency{direct("org.foo", "missing", "1.0", core.Compile)},
	})
	if !errors.Is(err, core.ErrResolution) {
		t.Errorf("expected ErrResolution, got %v", err)
	}
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound in chain, got %v", err)
	}
}

func TestResolveArtifactUsesLocalRepository(t *testing.T) {
	repo := newTestRepository(t)
	local := NewLocalRepository(t.TempDir())
	a := core.NewArtifact("org.foo", "cached", "1.0")
	if _, err := local.Store(a, strings.NewReader("cached jar")); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	f := fetch.NewFetcher(fetch.WithMaxRetries(0))
	t.Cleanup(func() { _ = f.Close() })
	r := New([]string{repo.URL()}, local, f)

	resolved, err := r.ResolveArtifact(context.Background(), a)
	if err != nil {
		t.Fatalf("ResolveArtifact failed: %v", err)
	}
	if filepath.Base(resolved.File) != "cached-1.0.jar" {
		t.Errorf("File = %q", resolved.File)
	}
	if repo.hits.Load() != 0 {
		t.Errorf("expected no requests, got %d", repo.hits.Load())
	}
}

func TestResolveReleaseVersion(t *testing.T) {
	repo := newTestRepository(t)
	repo.files["org/foo/lib/maven-metadata.xml"] = `<metadata>
  <groupId>org.foo</groupId>
  <artifactId>lib</artifactId>
  <versioning>
    <latest>1.3-SNAPSHOT</latest>
    <release>1.2</release>
    <versions><version>1.1</version><version>1.2</version></versions>
  </versioning>
</metadata>`
	repo.publish("org.foo", "lib", "1.2", "")
	repo.publish("org.foo", "lib", "1.3-SNAPSHOT", "")

	r := newTestResolver(t, repo.URL())

	tests := []struct {
		version string
		want    string
	}{
		{Release, "1.2"},
		{Latest, "1.3-SNAPSHOT"},
		{"1.2", "1.2"},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			resolved, err := r.ResolveArtifact(context.Background(), core.NewArtifact("org.foo", "lib", tt.version))
			if err != nil {
				t.Fatalf("ResolveArtifact failed: %v", err)
			}
			if resolved.Version != tt.want {
				t.Errorf("Version = %q, want %q", resolved.Version, tt.want)
			}
		})
	}
}

func TestDirectDependenciesDescriptorError(t *testing.T) {
	repo := newTestRepository(t)
	repo.publishPOM("org.foo", "broken", "1.0", "<project><dependencies>")

	r := newTestResolver(t, repo.URL())
	_, err := r.DirectDependencies(context.Background(), core.NewArtifact("org.foo", "broken", "1.0"))
	if !errors.Is(err, core.ErrDescriptor) {
		t.Errorf("expected ErrDescriptor, got %v", err)
	}
}

func TestResolveDependenciesCancelled(t *testing.T) {
	repo := newTestRepository(t)
	repo.publish("org.foo", "a", "1.0", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestResolver(t, repo.URL())
	_, err := r.ResolveDependencies(ctx, core.ResolveRequest{
		Direct: []core.Dependency{direct("org.foo", "a", "1.0", core.Compile)},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
