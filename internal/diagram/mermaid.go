package diagram

import (
	"fmt"
	"strings"
)

// RenderMermaid renders d in the web-rendering dialect. Every identifier
// passes through SanitizeID and every label through SanitizeLabel.
func RenderMermaid(d *Diagram) string {
	var sb strings.Builder

	switch d.Kind {
	case KindDependency:
		sb.WriteString("flowchart LR\n")
	case KindComponent:
		sb.WriteString("flowchart TB\n")
	default:
		sb.WriteString("classDiagram\n")
	}

	if d.IsEmpty() {
		if d.Kind == KindClass {
			fmt.Fprintf(&sb, "    class %s {\n        +%s\n    }", PlaceholderID, SanitizeLabel(PlaceholderLabel))
		} else {
			fmt.Fprintf(&sb, "    %s[\"%s\"]", PlaceholderID, SanitizeLabel(PlaceholderLabel))
		}
		return sb.String()
	}

	switch d.Kind {
	case KindDependency:
		writeMermaidDependencies(&sb, d)
	case KindComponent:
		writeMermaidComponents(&sb, d)
	default:
		writeMermaidClasses(&sb, d)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func mermaidAnnotation(k NodeKind) string {
	switch k {
	case NodeInterface:
		return "<<interface>>"
	case NodeAbstract:
		return "<<abstract>>"
	case NodeExternal:
		return "<<external>>"
	case NodeModule:
		return "<<module>>"
	}
	return ""
}

func writeMermaidClasses(sb *strings.Builder, d *Diagram) {
	sb.WriteString("    direction TB\n\n")

	for _, n := range d.Nodes {
		fmt.Fprintf(sb, "    class %s {\n", SanitizeID(n.ID))
		if a := mermaidAnnotation(n.Kind); a != "" {
			fmt.Fprintf(sb, "        %s\n", a)
		}
		for _, attr := range n.Attributes {
			label := SanitizeLabel(attr)
			fmt.Fprintf(sb, "        %s%s\n", visibilityMarker(label, false, false), label)
		}
		for _, m := range n.Methods {
			var params []string
			for _, p := range m.ParameterNames() {
				if p == "" || p == "self" || p == "cls" {
					continue
				}
				params = append(params, SanitizeLabel(p))
				if len(params) == 3 {
					break
				}
			}
			suffix := ""
			if m.IsStatic {
				suffix = "$"
			}
			fmt.Fprintf(sb, "        %s%s(%s)%s\n", methodVisibility(m), SanitizeLabel(m.Name), strings.Join(params, ", "), suffix)
		}
		sb.WriteString("    }\n")
	}

	if len(d.Edges) > 0 {
		sb.WriteString("\n    %% Relationships\n")
	}
	for _, e := range d.Edges {
		arrow := "..>"
		switch e.Kind {
		case EdgeInheritance:
			arrow = "<|--"
		case EdgeImplementation:
			arrow = "<|.."
		}
		fmt.Fprintf(sb, "    %s %s %s : %s\n", SanitizeID(e.Source), arrow, SanitizeID(e.Target), SanitizeLabel(e.Label))
	}
}

const mermaidDependencyStyles = `    classDef module fill:#D7BDE2,stroke:#8b5cf6,stroke-width:2px
    classDef external fill:#D5D8DC,stroke:#6b7280,stroke-width:1px,stroke-dasharray:5
    classDef core fill:#10b981,stroke:#059669,color:#fff,stroke-width:2px

`

func writeMermaidDependencies(sb *strings.Builder, d *Diagram) {
	sb.WriteString(mermaidDependencyStyles)

	for _, n := range d.Nodes {
		fmt.Fprintf(sb, "    %s[\"%s\"]:::%s\n", SanitizeID(n.ID), SanitizeLabel(n.Label), n.Kind)
	}
	if len(d.Edges) > 0 {
		sb.WriteString("\n")
	}
	for _, e := range d.Edges {
		arrow := "-->"
		if e.Kind == EdgeDependency {
			arrow = "-.->"
		}
		fmt.Fprintf(sb, "    %s %s %s\n", SanitizeID(e.Source), arrow, SanitizeID(e.Target))
	}
}

const mermaidComponentStyles = `    classDef classNode fill:#A8D5BA,stroke:#059669
    classDef abstractNode fill:#F4D03F,stroke:#b7950b
    classDef interfaceNode fill:#AED6F1,stroke:#2e86c1
    classDef funcNode fill:#FAD7A0,stroke:#d97706

`

func mermaidComponentClass(k NodeKind) string {
	switch k {
	case NodeAbstract:
		return "abstractNode"
	case NodeInterface:
		return "interfaceNode"
	default:
		return "classNode"
	}
}

func writeMermaidComponentNode(sb *strings.Builder, n Node, indent string) {
	id, label := SanitizeID(n.ID), SanitizeLabel(n.Label)
	switch n.Kind {
	case NodeFunctions:
		fmt.Fprintf(sb, "%s%s[\"%s\"]:::funcNode\n", indent, id, label)
	case NodeEmptyModule:
		fmt.Fprintf(sb, "%s%s([\"%s\"])\n", indent, id, label)
	default:
		fmt.Fprintf(sb, "%s%s[\"%s\"]:::%s\n", indent, id, label, mermaidComponentClass(n.Kind))
	}
}

func writeMermaidComponents(sb *strings.Builder, d *Diagram) {
	sb.WriteString(mermaidComponentStyles)

	for _, c := range d.Containers {
		fmt.Fprintf(sb, "    subgraph %s[\"%s\"]\n", SanitizeID(c.ID), SanitizeLabel(c.Label))
		sb.WriteString("        direction TB\n")
		for _, n := range c.Nodes {
			writeMermaidComponentNode(sb, n, "        ")
		}
		sb.WriteString("    end\n\n")
	}
	for _, n := range d.Nodes {
		writeMermaidComponentNode(sb, n, "    ")
	}
}
