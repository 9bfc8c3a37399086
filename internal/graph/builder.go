package graph

import (
	"github.com/rohankatakam/codevision/internal/models"
)

// Builder assembles per-file extraction results into one run-scoped graph.
// Results are concatenated in the order they are added; nothing is
// de-duplicated, so same-named classes from different modules stay
// distinct records. A Builder is not safe for concurrent use.
type Builder struct {
	graph *models.Graph
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{graph: &models.Graph{
		Modules:      []models.Module{},
		Classes:      []models.ClassEntity{},
		Functions:    []models.FunctionEntity{},
		Dependencies: []models.DependencyEdge{},
	}}
}

// Add appends one file's entities. A nil result is ignored.
func (b *Builder) Add(result *models.FileResult) {
	if result == nil {
		return
	}
	b.graph.Modules = append(b.graph.Modules, result.Module)
	b.graph.Classes = append(b.graph.Classes, result.Classes...)
	b.graph.Functions = append(b.graph.Functions, result.Functions...)
	b.graph.Dependencies = append(b.graph.Dependencies, result.Dependencies...)
}

// Build returns the assembled graph
func (b *Builder) Build() *models.Graph {
	return b.graph
}

// Assemble is a convenience for building a graph from an ordered result list
func Assemble(results []*models.FileResult) *models.Graph {
	b := NewBuilder()
	for _, r := range results {
		b.Add(r)
	}
	return b.Build()
}

// ClassNames returns the set of bare class names in g
func ClassNames(g *models.Graph) map[string]bool {
	names := make(map[string]bool, len(g.Classes))
	for _, c := range g.Classes {
		names[c.Name] = true
	}
	return names
}

// ModuleNames returns the set of non-empty module names in g
func ModuleNames(g *models.Graph) map[string]bool {
	names := make(map[string]bool, len(g.Modules))
	for _, m := range g.Modules {
		if m.Name != "" {
			names[m.Name] = true
		}
	}
	return names
}

// InboundCounts counts dependency edges per non-empty target name
func InboundCounts(g *models.Graph) map[string]int {
	counts := make(map[string]int)
	for _, d := range g.Dependencies {
		if d.Target != "" {
			counts[d.Target]++
		}
	}
	return counts
}

// ClassesByModule groups classes under their owning module, keeping
// first-seen order within each module
func ClassesByModule(g *models.Graph) map[string][]models.ClassEntity {
	grouped := make(map[string][]models.ClassEntity)
	for _, c := range g.Classes {
		grouped[c.Module] = append(grouped[c.Module], c)
	}
	return grouped
}
