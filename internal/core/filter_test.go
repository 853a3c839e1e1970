package core

import "testing"

func TestFilters(t *testing.T) {
	parent := NewDependency(NewArtifact("org.foo", "foo-core", "1.0"), Compile)
	guava := NewDependency(NewArtifact("org.google", "guava", "18.0"), Compile)
	derby := NewDependency(NewArtifact("org.apache.derby", "derby", "10.11.1.1"), Test)
	optional := Dependency{Artifact: NewArtifact("ch.qos.logback", "logback-classic", "1.4.11"), Scope: Compile, Optional: true}
	via := []Dependency{parent}

	tests := []struct {
		name    string
		filter  DependencyFilter
		node    Dependency
		parents []Dependency
		want    bool
	}{
		{"scope accepts compile", ScopeFilter(Compile, Runtime), guava, nil, true},
		{"scope rejects test", ScopeFilter(Compile, Runtime), derby, nil, false},
		{"empty scope is compile", ScopeFilter(Compile), Dependency{Artifact: guava.Artifact}, nil, true},
		{"optional direct kept", NonOptionalFilter, optional, nil, true},
		{"optional transitive dropped", NonOptionalFilter, optional, via, false},
		{"direct only keeps direct", DirectOnlyFilter, guava, nil, true},
		{"direct only drops transitive", DirectOnlyFilter, guava, via, false},
		{"exclusion matches", ExclusionsFilter(Exclusion{GroupID: "org.google", ArtifactID: "*"}), guava, nil, true},
		{"not exclusion drops", NotFilter(ExclusionsFilter(Exclusion{GroupID: "org.google", ArtifactID: "guava"})), guava, via, false},
		{"and with nil", AndFilter(nil, ScopeFilter(Compile)), guava, nil, true},
		{"default drops test", DefaultFilter(), derby, nil, false},
		{"default drops optional transitive", DefaultFilter(), optional, via, false},
		{"default keeps runtime", DefaultFilter(), guava.WithScope(Runtime), via, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Accept(tt.node, tt.parents); got != tt.want {
				t.Errorf("Accept(%s) = %v, want %v", tt.node, got, tt.want)
			}
		})
	}
}
