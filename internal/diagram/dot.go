package diagram

import (
	"fmt"
	"strings"
)

// RenderDOT renders d in the graph-layout description language
func RenderDOT(d *Diagram) string {
	var sb strings.Builder

	if d.IsEmpty() {
		sb.WriteString("digraph Empty {\n")
		fmt.Fprintf(&sb, "    %s [label=%s, shape=box, style=dashed, fontname=\"Helvetica\"];\n", quote(PlaceholderID), quote(PlaceholderLabel))
		sb.WriteString("}")
		return sb.String()
	}

	switch d.Kind {
	case KindDependency:
		sb.WriteString("digraph Dependencies {\n")
		sb.WriteString("    rankdir=LR;\n")
		sb.WriteString("    node [shape=box, fontname=\"Helvetica\", style=filled];\n")
		sb.WriteString("    edge [color=\"#6366f1\"];\n\n")
		for _, n := range d.Nodes {
			writeDOTBox(&sb, n, "    ")
		}
	case KindComponent:
		sb.WriteString("digraph Components {\n")
		sb.WriteString("    rankdir=TB;\n")
		sb.WriteString("    compound=true;\n")
		sb.WriteString("    node [shape=box, fontname=\"Helvetica\", style=filled];\n\n")
		for _, c := range d.Containers {
			fmt.Fprintf(&sb, "    subgraph cluster_%s {\n", SanitizeID(c.ID))
			fmt.Fprintf(&sb, "        label=%s;\n", quote(c.Label))
			fmt.Fprintf(&sb, "        style=filled;\n        fillcolor=%s;\n", quote(Colors[NodeModule]))
			for _, n := range c.Nodes {
				writeDOTBox(&sb, n, "        ")
			}
			sb.WriteString("    }\n")
		}
		for _, n := range d.Nodes {
			writeDOTBox(&sb, n, "    ")
		}
	default:
		sb.WriteString("digraph ClassDiagram {\n")
		sb.WriteString("    rankdir=TB;\n")
		sb.WriteString("    node [shape=record, fontname=\"Helvetica\", fontsize=10, style=filled];\n")
		sb.WriteString("    edge [fontname=\"Helvetica\", fontsize=9];\n\n")
		for _, n := range d.Nodes {
			fmt.Fprintf(&sb, "    %s [label=\"%s\", fillcolor=%s];\n", quote(n.ID), recordLabel(n), quote(Colors[n.Kind]))
		}
	}

	if len(d.Edges) > 0 {
		sb.WriteString("\n")
	}
	for _, e := range d.Edges {
		style := edgeStyles[e.Kind]
		attrs := fmt.Sprintf("arrowhead=%s, style=%s", style.arrow, style.line)
		if e.Kind == EdgeDependency && d.Kind == KindClass {
			attrs += ", label=" + quote(e.Label)
		}
		fmt.Fprintf(&sb, "    %s -> %s [%s];\n", quote(e.Source), quote(e.Target), attrs)
	}

	sb.WriteString("}")
	return sb.String()
}

func writeDOTBox(sb *strings.Builder, n Node, indent string) {
	attrs := fmt.Sprintf("label=%s, fillcolor=%s", quote(n.Label), quote(Colors[n.Kind]))
	switch n.Kind {
	case NodeCore:
		attrs += ", penwidth=2"
	case NodeExternal:
		attrs += ", style=\"filled,dashed\""
	case NodeEmptyModule:
		attrs += ", shape=ellipse"
	}
	fmt.Fprintf(sb, "%s%s [%s];\n", indent, quote(n.ID), attrs)
}

// recordLabel joins the name, attributes and methods into a record label
// with left-justified line breaks
func recordLabel(n Node) string {
	var sb strings.Builder
	sb.WriteString("{")
	switch n.Kind {
	case NodeInterface:
		sb.WriteString(escapeRecord("<<interface>>") + `\n`)
	case NodeAbstract:
		sb.WriteString(escapeRecord("<<abstract>>") + `\n`)
	case NodeExternal:
		sb.WriteString(escapeRecord("<<external>>") + `\n`)
	}
	sb.WriteString(escapeRecord(n.Label))

	if len(n.Attributes) > 0 {
		sb.WriteString("|")
		for _, attr := range n.Attributes {
			sb.WriteString(visibilityMarker(attr, false, false) + " " + escapeRecord(attr) + `\l`)
		}
	}
	if len(n.Methods) > 0 {
		sb.WriteString("|")
		for _, m := range n.Methods {
			marker := methodVisibility(m)
			if m.IsStatic {
				marker = "{static} " + marker
			}
			sb.WriteString(escapeRecord(marker+" "+m.Name+"()") + `\l`)
		}
	}
	sb.WriteString("}")
	return sb.String()
}
