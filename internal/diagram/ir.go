package diagram

import (
	"strings"

	cverrors "github.com/rohankatakam/codevision/internal/errors"
	"github.com/rohankatakam/codevision/internal/models"
)

// Kind selects which projection of the entity graph is rendered
type Kind string

const (
	KindClass      Kind = "class"
	KindDependency Kind = "dependency"
	KindComponent  Kind = "component"
)

// Kinds lists the supported diagram kinds
var Kinds = []Kind{KindClass, KindDependency, KindComponent}

// ParseKind maps a selector to a Kind. Unknown selectors return KindClass
// together with a validation error the caller may log.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindClass, KindDependency, KindComponent:
		return k, nil
	case "":
		return KindClass, nil
	default:
		return KindClass, cverrors.ValidationErrorf("unknown diagram kind %q, using class", s)
	}
}

// NodeKind tags a node variant; renderers style nodes by it
type NodeKind string

const (
	NodeClass     NodeKind = "class"
	NodeAbstract  NodeKind = "abstract"
	NodeInterface NodeKind = "interface"
	NodeModule    NodeKind = "module"
	NodeCore      NodeKind = "core"
	// NodeExternal is a base class or import target never extracted in this run
	NodeExternal NodeKind = "external"
	// NodeFunctions stands in for a module that has functions but no classes
	NodeFunctions NodeKind = "function"
	// NodeEmptyModule stands in for a module with neither classes nor functions
	NodeEmptyModule NodeKind = "empty"
)

// EdgeKind types an edge; renderers pick line and arrow styles by it
type EdgeKind string

const (
	EdgeInheritance    EdgeKind = "inheritance"
	EdgeImplementation EdgeKind = "implementation"
	EdgeDependency     EdgeKind = "dependency"
	EdgeAssociation    EdgeKind = "association"
	EdgeComposition    EdgeKind = "composition"
)

// Colors by node kind
var Colors = map[NodeKind]string{
	NodeClass:       "#A8D5BA",
	NodeAbstract:    "#F4D03F",
	NodeInterface:   "#AED6F1",
	NodeModule:      "#D7BDE2",
	NodeCore:        "#D7BDE2",
	NodeExternal:    "#D5D8DC",
	NodeFunctions:   "#FAD7A0",
	NodeEmptyModule: "#FFFFFF",
}

// edgeStyle is the graph-layout line style and arrowhead for an edge kind
type edgeStyle struct {
	line  string
	arrow string
}

var edgeStyles = map[EdgeKind]edgeStyle{
	EdgeInheritance:    {line: "solid", arrow: "empty"},
	EdgeImplementation: {line: "dashed", arrow: "empty"},
	EdgeDependency:     {line: "dashed", arrow: "vee"},
	EdgeAssociation:    {line: "solid", arrow: "normal"},
	EdgeComposition:    {line: "solid", arrow: "diamond"},
}

// Placeholder identity used when a projection has no nodes
const (
	PlaceholderID    = "NoEntitiesFound"
	PlaceholderLabel = "No entities found"
)

// Member caps applied once by the class projection
const (
	MaxAttributes = 10
	MaxMethods    = 15
)

// Node is one diagram node. Identity is the bare ID; same-named classes
// from different modules share an ID and collide in the text notations.
type Node struct {
	ID         string
	Label      string
	Kind       NodeKind
	Module     string
	Attributes []string
	Methods    []models.Method
	// Count is the function count carried by a NodeFunctions placeholder
	Count int
}

// Edge is one typed relationship between node IDs
type Edge struct {
	Source string
	Target string
	Kind   EdgeKind
	Label  string
}

// Container groups the nodes of one module in the component view
type Container struct {
	ID    string
	Label string
	Nodes []Node
}

// Diagram is the intermediate representation every notation renders from
type Diagram struct {
	Kind       Kind
	Nodes      []Node
	Edges      []Edge
	Containers []Container
}

// NodeCount counts every projected node, containers and nested nodes included
func (d *Diagram) NodeCount() int {
	n := len(d.Nodes)
	for _, c := range d.Containers {
		n += 1 + len(c.Nodes)
	}
	return n
}

// EdgeCount counts every projected edge
func (d *Diagram) EdgeCount() int {
	return len(d.Edges)
}

// IsEmpty reports whether the projection produced nothing to draw
func (d *Diagram) IsEmpty() bool {
	return len(d.Nodes) == 0 && len(d.Containers) == 0
}

// NodesOfKind returns the top-level nodes tagged k
func (d *Diagram) NodesOfKind(k NodeKind) []Node {
	var out []Node
	for _, n := range d.Nodes {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// EdgesOfKind returns the edges typed k
func (d *Diagram) EdgesOfKind(k EdgeKind) []Edge {
	var out []Edge
	for _, e := range d.Edges {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}
