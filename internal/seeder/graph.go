package seeder

import "fmt"

// DependencyGraph holds entity types and the parents each one references.
// Entities are kept in registration order so that orderings are stable
// from run to run.
type DependencyGraph struct {
	deps  map[Entity][]Entity
	names []Entity
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		deps: make(map[Entity][]Entity),
	}
}

func (g *DependencyGraph) AddEntity(name Entity, deps ...Entity) {
	if _, exists := g.deps[name]; !exists {
		g.names = append(g.names, name)
	}
	g.deps[name] = append([]Entity(nil), deps...)
}

func (g *DependencyGraph) Has(name Entity) bool {
	_, ok := g.deps[name]
	return ok
}

func (g *DependencyGraph) Entities() []Entity {
	return append([]Entity(nil), g.names...)
}

func (g *DependencyGraph) Dependencies(name Entity) []Entity {
	return append([]Entity(nil), g.deps[name]...)
}

// InsertionOrder returns every entity after all of its dependencies.
func (g *DependencyGraph) InsertionOrder() ([]Entity, error) {
	visited := make(map[Entity]bool)
	temp := make(map[Entity]bool)
	var order []Entity

	var visit func(Entity, []Entity) error
	visit = func(name Entity, path []Entity) error {
		if temp[name] {
			return &ConfigurationError{
				Reason: fmt.Sprintf("circular dependency detected involving %s", name),
				Cycle:  append(path, name),
			}
		}
		if visited[name] {
			return nil
		}
		deps, known := g.deps[name]
		if !known {
			return &ConfigurationError{Reason: fmt.Sprintf("%s depends on unregistered entity %s", path[len(path)-1], name)}
		}

		temp[name] = true
		for _, dep := range deps {
			if dep == name {
				continue
			}
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		temp[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	for _, name := range g.names {
		if !visited[name] {
			if err := visit(name, nil); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// DeletionOrder is the reverse of InsertionOrder: dependents before parents.
func (g *DependencyGraph) DeletionOrder() ([]Entity, error) {
	order, err := g.InsertionOrder()
	if err != nil {
		return nil, err
	}
	reversed := make([]Entity, len(order))
	for i, name := range order {
		reversed[len(order)-1-i] = name
	}
	return reversed, nil
}

// Subgraph returns the graph restricted to names and everything they
// depend on, transitively.
func (g *DependencyGraph) Subgraph(names ...Entity) (*DependencyGraph, error) {
	keep := make(map[Entity]bool)
	var walk func(Entity) error
	walk = func(name Entity) error {
		if keep[name] {
			return nil
		}
		deps, ok := g.deps[name]
		if !ok {
			return &ConfigurationError{Reason: fmt.Sprintf("unknown entity %s", name)}
		}
		keep[name] = true
		for _, dep := range deps {
			if err := walk(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range names {
		if err := walk(name); err != nil {
			return nil, err
		}
	}

	sub := NewDependencyGraph()
	for _, name := range g.names {
		if keep[name] {
			sub.AddEntity(name, g.deps[name]...)
		}
	}
	return sub, nil
}

// Dependents returns names plus every entity that depends on them,
// transitively, in registration order.
func (g *DependencyGraph) Dependents(names ...Entity) []Entity {
	marked := make(map[Entity]bool)
	for _, name := range names {
		marked[name] = true
	}
	for changed := true; changed; {
		changed = false
		for _, name := range g.names {
			if marked[name] {
				continue
			}
			for _, dep := range g.deps[name] {
				if marked[dep] {
					marked[name] = true
					changed = true
					break
				}
			}
		}
	}

	var out []Entity
	for _, name := range g.names {
		if marked[name] {
			out = append(out, name)
		}
	}
	return out
}
