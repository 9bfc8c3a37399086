package diagram

import (
	"fmt"

	"github.com/rohankatakam/codevision/internal/logging"
	"github.com/rohankatakam/codevision/internal/models"
)

// JSONNode is one node of the generic node/edge structure
type JSONNode struct {
	ID         string   `json:"id" yaml:"id"`
	Label      string   `json:"label" yaml:"label"`
	Type       string   `json:"type" yaml:"type"`
	Module     string   `json:"module" yaml:"module"`
	Methods    []string `json:"methods" yaml:"methods"`
	Attributes []string `json:"attributes" yaml:"attributes"`
	Container  string   `json:"container,omitempty" yaml:"container,omitempty"`
	X          int      `json:"x" yaml:"x"`
	Y          int      `json:"y" yaml:"y"`
}

// JSONEdge is one edge of the generic node/edge structure
type JSONEdge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Type   string `json:"type" yaml:"type"`
	Label  string `json:"label" yaml:"label"`
}

// Document is the generic node/edge structure for interactive front ends
type Document struct {
	Nodes []JSONNode `json:"nodes" yaml:"nodes"`
	Edges []JSONEdge `json:"edges" yaml:"edges"`
}

// Bundle carries one projection rendered into every notation
type Bundle struct {
	Type         Kind     `json:"type" yaml:"type"`
	PlantUMLText string   `json:"plantuml_text" yaml:"plantuml_text"`
	DOTText      string   `json:"dot_text" yaml:"dot_text"`
	MermaidText  string   `json:"mermaid_text" yaml:"mermaid_text"`
	JSON         Document `json:"json" yaml:"json"`
	NodeCount    int      `json:"node_count" yaml:"node_count"`
	EdgeCount    int      `json:"edge_count" yaml:"edge_count"`
}

// gridPosition is the placeholder layout: five columns, 200 by 150 apart
func gridPosition(i int) (int, int) {
	return (i % 5) * 200, (i / 5) * 150
}

// RenderJSON builds the generic structure. Containers contribute a node
// each followed by their nested nodes. The class view carries inheritance
// edges only.
func RenderJSON(d *Diagram) Document {
	doc := Document{Nodes: []JSONNode{}, Edges: []JSONEdge{}}

	if d.IsEmpty() {
		doc.Nodes = append(doc.Nodes, JSONNode{
			ID:         PlaceholderID,
			Label:      PlaceholderLabel,
			Type:       "placeholder",
			Methods:    []string{},
			Attributes: []string{},
		})
		return doc
	}

	add := func(n Node, container string) {
		x, y := gridPosition(len(doc.Nodes))
		methods := make([]string, 0, len(n.Methods))
		for _, m := range n.Methods {
			methods = append(methods, m.Name)
		}
		attrs := n.Attributes
		if attrs == nil {
			attrs = []string{}
		}
		doc.Nodes = append(doc.Nodes, JSONNode{
			ID:         n.ID,
			Label:      n.Label,
			Type:       string(n.Kind),
			Module:     n.Module,
			Methods:    methods,
			Attributes: attrs,
			Container:  container,
			X:          x,
			Y:          y,
		})
	}

	for _, c := range d.Containers {
		add(Node{ID: c.ID, Label: c.Label, Kind: NodeModule, Module: c.ID}, "")
		for _, n := range c.Nodes {
			add(n, c.ID)
		}
	}
	for _, n := range d.Nodes {
		add(n, "")
	}

	for _, e := range d.Edges {
		if d.Kind == KindClass && e.Kind != EdgeInheritance {
			continue
		}
		doc.Edges = append(doc.Edges, JSONEdge{
			ID:     fmt.Sprintf("e%d", len(doc.Edges)),
			Source: e.Source,
			Target: e.Target,
			Type:   string(e.Kind),
			Label:  e.Label,
		})
	}

	return doc
}

// Synthesize projects g for kind and renders every notation. It is a pure
// function of its inputs.
func Synthesize(g *models.Graph, kind Kind) *Bundle {
	d := Project(g, kind)

	bundle := &Bundle{
		Type:         d.Kind,
		PlantUMLText: RenderPlantUML(d),
		DOTText:      RenderDOT(d),
		MermaidText:  RenderMermaid(d),
		JSON:         RenderJSON(d),
		NodeCount:    d.NodeCount(),
		EdgeCount:    d.EdgeCount(),
	}

	logging.Debug("diagram synthesized",
		"kind", d.Kind,
		"nodes", bundle.NodeCount,
		"edges", bundle.EdgeCount,
	)
	return bundle
}

// SynthesizeSelector is Synthesize with a textual kind. Unknown selectors
// are logged and fall back to the class view.
func SynthesizeSelector(g *models.Graph, selector string) *Bundle {
	kind, err := ParseKind(selector)
	if err != nil {
		logging.Warn("diagram kind fallback", "selector", selector, "error", err)
	}
	return Synthesize(g, kind)
}

// Notation returns the text of one notation by name
func (b *Bundle) Notation(name string) (string, bool) {
	switch name {
	case "plantuml", "puml", "uml":
		return b.PlantUMLText, true
	case "dot", "graphviz":
		return b.DOTText, true
	case "mermaid", "mmd":
		return b.MermaidText, true
	}
	return "", false
}
