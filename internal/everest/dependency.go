package everest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// dependencyGraphNonNodes are names the BFS never enqueues even when they
// appear as a dependency, since Everest itself is not a mod entry in the
// graph.
var dependencyGraphNonNodes = map[string]struct{}{
	"Everest":     {},
	"EverestCore": {},
}

// ModDependency is one mod's entry in mod_dependency_graph.yaml.
type ModDependency struct {
	Dependencies         []Dependency `yaml:"Dependencies"`
	OptionalDependencies []Dependency `yaml:"OptionalDependencies"`
	URL                  string       `yaml:"URL"`
}

// DependencyGraph maps mod name to its dependency record.
type DependencyGraph map[string]ModDependency

// ParseDependencyGraph parses raw as mod_dependency_graph.yaml.
func ParseDependencyGraph(raw []byte) (DependencyGraph, error) {
	var graph DependencyGraph
	if err := yaml.Unmarshal(raw, &graph); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryParse, err)
	}
	return graph, nil
}

// CollectDependenciesBFS returns the transitive closure of modName's
// required (non-optional) dependencies, including modName itself. Everest
// and EverestCore are treated as non-nodes and never enqueued; cycles are
// safe since a visited name is never re-enqueued.
func (g DependencyGraph) CollectDependenciesBFS(modName string) map[string]struct{} {
	visited := map[string]struct{}{}
	queue := []string{modName}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		dep, ok := g[current]
		if !ok {
			continue
		}
		for _, d := range dep.Dependencies {
			if _, excluded := dependencyGraphNonNodes[d.Name]; excluded {
				continue
			}
			queue = append(queue, d.Name)
		}
	}

	return visited
}
