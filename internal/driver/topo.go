package driver

import (
	"fmt"
	"strings"

	"github.com/sunholo/bloodc/internal/ids"
)

// reexportDeps returns the ModuleIds m's `pub use path::*` globs depend
// on: m is ordered after each of them (§4.E). The driver only uses these
// edges for ordering; it does not copy re-exported names into m.
func (m *moduleEntry) reexportDeps(byPath map[string]*moduleEntry) []ids.ModuleId {
	var deps []ids.ModuleId
	for _, imp := range m.imports {
		if !imp.Public || !imp.Glob {
			continue
		}
		if src, ok := byPath[modulePathKey(imp.Path)]; ok && src.id != m.id {
			deps = append(deps, src.id)
		}
	}
	return deps
}

// CyclicReexportError reports a cycle in the `pub use X::*` dependency
// graph (§4.E, §7's DriverError::CyclicReexport, §8's CyclicReexport
// testable property).
type CyclicReexportError struct {
	Cycle []string
}

func (e *CyclicReexportError) Error() string {
	return fmt.Sprintf("cyclic glob re-export: %s", strings.Join(e.Cycle, " -> "))
}

// topoSort computes a Kahn-style topological order over every discovered
// module, using the re-export glob graph as dependency edges. The
// resulting order is the order in which modules are handed to
// internal/check (and so its body-checking enqueue order); no separate
// re-export materialization pass runs over it.
func (d *Driver) topoSort() ([]ids.ModuleId, error) {
	indegree := make(map[ids.ModuleId]int, len(d.modules))
	dependents := make(map[ids.ModuleId][]ids.ModuleId)
	for _, m := range d.modules {
		indegree[m.id] = 0
	}
	for _, m := range d.modules {
		for _, depID := range m.reexportDeps(d.byPath) {
			indegree[m.id]++
			dependents[depID] = append(dependents[depID], m.id)
		}
	}

	var queue []ids.ModuleId
	for _, m := range d.modules {
		if indegree[m.id] == 0 {
			queue = append(queue, m.id)
		}
	}

	order := make([]ids.ModuleId, 0, len(d.modules))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(d.modules) {
		return nil, d.cycleError(indegree)
	}
	return order, nil
}

// cycleError names every module still owing an in-edge after Kahn's
// algorithm stalls: exactly the set participating in one or more cycles.
func (d *Driver) cycleError(indegree map[ids.ModuleId]int) error {
	var cycle []string
	for _, m := range d.modules {
		if indegree[m.id] > 0 {
			cycle = append(cycle, m.path)
		}
	}
	return &CyclicReexportError{Cycle: cycle}
}
