package dispatch

import (
	"fmt"
	"sort"

	"github.com/watzon/hookline/internal/registry"
)

// order sorts the matched entries so every hook runs after the
// prerequisites that are also present in the set. Edges to hooks
// outside the set are ignored; an absent prerequisite is treated as
// satisfied. Ties break on load order, so runs are deterministic.
//
// The registry rejects cyclic depends_on chains at load time, so the
// cycle branch here guards against an inconsistent entry set rather
// than user input.
func order(entries []*registry.Entry) ([]*registry.Entry, error) {
	present := make(map[string]*registry.Entry, len(entries))
	for _, e := range entries {
		present[e.Def.Name] = e
	}

	indegree := make(map[string]int, len(entries))
	dependents := make(map[string][]*registry.Entry, len(entries))
	for _, e := range entries {
		dep := e.Def.DependsOn
		if dep == "" {
			continue
		}
		if _, ok := present[dep]; !ok {
			continue
		}
		indegree[e.Def.Name]++
		dependents[dep] = append(dependents[dep], e)
	}

	ready := make([]*registry.Entry, 0, len(entries))
	for _, e := range entries {
		if indegree[e.Def.Name] == 0 {
			ready = append(ready, e)
		}
	}

	ordered := make([]*registry.Entry, 0, len(entries))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].Index < ready[j].Index })
		next := ready[0]
		ready = ready[1:]
		ordered = append(ordered, next)

		for _, dep := range dependents[next.Def.Name] {
			indegree[dep.Def.Name]--
			if indegree[dep.Def.Name] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(ordered) != len(entries) {
		stuck := make([]string, 0)
		for _, e := range entries {
			if indegree[e.Def.Name] > 0 {
				stuck = append(stuck, e.Def.Name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w among %v", registry.ErrCyclicDependency, stuck)
	}
	return ordered, nil
}
