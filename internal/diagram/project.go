package diagram

import (
	"fmt"
	"sort"

	"github.com/rohankatakam/codevision/internal/graph"
	"github.com/rohankatakam/codevision/internal/models"
)

// Project builds the intermediate representation of g for kind. Every
// slice it emits is explicitly ordered, so equal graphs project equally
// regardless of the order their entities were extracted in.
func Project(g *models.Graph, kind Kind) *Diagram {
	if g == nil {
		g = &models.Graph{}
	}
	switch kind {
	case KindDependency:
		return projectDependencies(g)
	case KindComponent:
		return projectComponents(g)
	default:
		return projectClasses(g)
	}
}

// sortedClasses orders classes by (name, module, line)
func sortedClasses(classes []models.ClassEntity) []models.ClassEntity {
	out := make([]models.ClassEntity, len(classes))
	copy(out, classes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		if out[i].Module != out[j].Module {
			return out[i].Module < out[j].Module
		}
		return out[i].Line < out[j].Line
	})
	return out
}

func classKind(c models.ClassEntity) NodeKind {
	switch {
	case c.IsInterface:
		return NodeInterface
	case c.IsAbstract:
		return NodeAbstract
	default:
		return NodeClass
	}
}

// classNode projects a class with its members truncated to the caps
func classNode(id string, c models.ClassEntity) Node {
	attrs := c.Attributes
	if len(attrs) > MaxAttributes {
		attrs = attrs[:MaxAttributes]
	}
	methods := c.Methods
	if len(methods) > MaxMethods {
		methods = methods[:MaxMethods]
	}
	return Node{
		ID:         id,
		Label:      c.Name,
		Kind:       classKind(c),
		Module:     c.Module,
		Attributes: append([]string{}, attrs...),
		Methods:    append([]models.Method{}, methods...),
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortEdges(edges []Edge) {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
}

func projectClasses(g *models.Graph) *Diagram {
	d := &Diagram{Kind: KindClass}
	known := graph.ClassNames(g)
	classes := sortedClasses(g.Classes)

	externals := make(map[string]bool)
	for _, c := range classes {
		d.Nodes = append(d.Nodes, classNode(c.Name, c))

		for _, base := range c.Bases {
			d.Edges = append(d.Edges, Edge{Source: base, Target: c.Name, Kind: EdgeInheritance, Label: "extends"})
			if !known[base] {
				externals[base] = true
			}
		}
		for _, iface := range c.Implements {
			d.Edges = append(d.Edges, Edge{Source: iface, Target: c.Name, Kind: EdgeImplementation, Label: "implements"})
			if !known[iface] {
				externals[iface] = true
			}
		}
	}

	for _, name := range sortedKeys(externals) {
		d.Nodes = append(d.Nodes, Node{ID: name, Label: name, Kind: NodeExternal})
	}

	// Uses edges link an importing module to an imported name that is a
	// known class. Whole-module imports carry no class names.
	seen := make(map[[2]string]bool)
	var uses []Edge
	sources := make(map[string]bool)
	for _, dep := range g.Dependencies {
		if dep.Kind == models.ImportModule || dep.Source == "" {
			continue
		}
		for _, name := range dep.Names {
			if !known[name] {
				continue
			}
			key := [2]string{dep.Source, name}
			if seen[key] {
				continue
			}
			seen[key] = true
			uses = append(uses, Edge{Source: dep.Source, Target: name, Kind: EdgeDependency, Label: "uses"})
			if !known[dep.Source] {
				sources[dep.Source] = true
			}
		}
	}
	sortEdges(uses)
	d.Edges = append(d.Edges, uses...)

	for _, name := range sortedKeys(sources) {
		if externals[name] {
			continue
		}
		d.Nodes = append(d.Nodes, Node{ID: name, Label: name, Kind: NodeModule, Module: name})
	}

	return d
}

func projectDependencies(g *models.Graph) *Diagram {
	d := &Diagram{Kind: KindDependency}
	modules := graph.ModuleNames(g)
	inbound := graph.InboundCounts(g)

	for _, name := range sortedKeys(modules) {
		kind := NodeModule
		if inbound[name] >= 3 {
			kind = NodeCore
		}
		d.Nodes = append(d.Nodes, Node{ID: name, Label: name, Kind: kind, Module: name})
	}

	seen := make(map[[2]string]bool)
	externals := make(map[string]bool)
	for _, dep := range g.Dependencies {
		if dep.Source == "" || dep.Target == "" {
			continue
		}
		key := [2]string{dep.Source, dep.Target}
		if seen[key] {
			continue
		}
		seen[key] = true

		if modules[dep.Target] {
			d.Edges = append(d.Edges, Edge{Source: dep.Source, Target: dep.Target, Kind: EdgeAssociation, Label: "imports"})
			continue
		}
		externals[dep.Target] = true
		d.Edges = append(d.Edges, Edge{Source: dep.Source, Target: dep.Target, Kind: EdgeDependency, Label: "imports"})
	}
	sortEdges(d.Edges)

	for _, name := range sortedKeys(externals) {
		d.Nodes = append(d.Nodes, Node{ID: name, Label: name, Kind: NodeExternal})
	}

	return d
}

func projectComponents(g *models.Graph) *Diagram {
	d := &Diagram{Kind: KindComponent}

	functionCounts := make(map[string]int)
	modules := make(map[string]bool)
	for _, m := range g.Modules {
		if m.Name == "" {
			continue
		}
		modules[m.Name] = true
		functionCounts[m.Name] += m.FunctionCount
	}

	byModule := graph.ClassesByModule(g)
	var orphans []models.ClassEntity
	for module, classes := range byModule {
		if !modules[module] {
			orphans = append(orphans, classes...)
		}
	}

	for _, name := range sortedKeys(modules) {
		container := Container{ID: name, Label: name}
		classes := sortedClasses(byModule[name])

		switch {
		case len(classes) > 0:
			for _, c := range classes {
				node := classNode(name+"_"+c.Name, c)
				node.Attributes, node.Methods = nil, nil
				container.Nodes = append(container.Nodes, node)
			}
		case functionCounts[name] > 0:
			container.Nodes = append(container.Nodes, Node{
				ID:     name + "_functions",
				Label:  fmt.Sprintf("%d functions", functionCounts[name]),
				Kind:   NodeFunctions,
				Module: name,
				Count:  functionCounts[name],
			})
		default:
			container.Nodes = append(container.Nodes, Node{
				ID:     name + "_empty",
				Label:  "Empty module",
				Kind:   NodeEmptyModule,
				Module: name,
			})
		}
		d.Containers = append(d.Containers, container)
	}

	// Classes whose module was never extracted are drawn flat
	for _, c := range sortedClasses(orphans) {
		node := classNode(c.Name, c)
		node.Attributes, node.Methods = nil, nil
		d.Nodes = append(d.Nodes, node)
	}

	return d
}
