package core

// DependencyFilter decides whether a node takes part in a dependency walk.
// parents is the path back to the direct dependency: parents[0] is the
// immediate parent, and it is empty for direct dependencies.
type DependencyFilter interface {
	Accept(node Dependency, parents []Dependency) bool
}

// FilterFunc adapts a function to DependencyFilter.
type FilterFunc func(node Dependency, parents []Dependency) bool

func (f FilterFunc) Accept(node Dependency, parents []Dependency) bool {
	return f(node, parents)
}

// ScopeFilter accepts nodes whose scope is one of scopes.
func ScopeFilter(scopes ...Scope) DependencyFilter {
	allowed := make(map[Scope]bool, len(scopes))
	for _, s := range scopes {
		allowed[s.Normalize()] = true
	}
	return FilterFunc(func(node Dependency, _ []Dependency) bool {
		return allowed[node.Scope.Normalize()]
	})
}

// AndFilter accepts a node only when every filter does. Nil filters are skipped.
func AndFilter(filters ...DependencyFilter) DependencyFilter {
	return FilterFunc(func(node Dependency, parents []Dependency) bool {
		for _, f := range filters {
			if f != nil && !f.Accept(node, parents) {
				return false
			}
		}
		return true
	})
}

// NotFilter inverts f.
func NotFilter(f DependencyFilter) DependencyFilter {
	return FilterFunc(func(node Dependency, parents []Dependency) bool {
		return !f.Accept(node, parents)
	})
}

// ExclusionsFilter accepts nodes matched by any of the exclusions. Combine with
// NotFilter to drop them.
func ExclusionsFilter(exclusions ...Exclusion) DependencyFilter {
	return FilterFunc(func(node Dependency, _ []Dependency) bool {
		for _, e := range exclusions {
			if e.Matches(node.Artifact) {
				return true
			}
		}
		return false
	})
}

// NonOptionalFilter rejects optional transitive dependencies. Optional direct
// dependencies are kept.
var NonOptionalFilter DependencyFilter = FilterFunc(func(node Dependency, parents []Dependency) bool {
	return len(parents) == 0 || !node.Optional
})

// DirectOnlyFilter accepts direct dependencies only.
var DirectOnlyFilter DependencyFilter = FilterFunc(func(_ Dependency, parents []Dependency) bool {
	return len(parents) == 0
})

// DefaultFilter keeps compile and runtime nodes that are not optional transitive ones.
func DefaultFilter() DependencyFilter {
	return AndFilter(ScopeFilter(Compile, Runtime), NonOptionalFilter)
}
