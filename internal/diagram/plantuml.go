package diagram

import (
	"fmt"
	"strings"

	"github.com/rohankatakam/codevision/internal/models"
)

const plantUMLHeader = `@startuml
skinparam classAttributeIconSize 0
skinparam class {
    BackgroundColor #E8F4FD
    BorderColor #2E86AB
    ArrowColor #2E86AB
}
`

// RenderPlantUML renders d in the record-style UML dialect
func RenderPlantUML(d *Diagram) string {
	var sb strings.Builder
	sb.WriteString(plantUMLHeader)

	if d.IsEmpty() {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "rectangle %s as %s\n", quote(PlaceholderLabel), PlaceholderID)
		sb.WriteString("@enduml")
		return sb.String()
	}

	switch d.Kind {
	case KindDependency:
		writePlantUMLDependencies(&sb, d)
	case KindComponent:
		writePlantUMLComponents(&sb, d)
	default:
		writePlantUMLClasses(&sb, d)
	}

	sb.WriteString("@enduml")
	return sb.String()
}

func plantUMLKeyword(k NodeKind) string {
	switch k {
	case NodeAbstract:
		return "abstract class"
	case NodeInterface:
		return "interface"
	default:
		return "class"
	}
}

func methodVisibility(m models.Method) string {
	return visibilityMarker(m.Name, m.Visibility == models.VisibilityPrivate, m.Visibility == models.VisibilityProtected)
}

// umlSignature renders "name(p1, p2, p3): ret" using the first three
// parameter names
func umlSignature(m models.Method) string {
	names := m.ParameterNames()
	if len(names) > 3 {
		names = names[:3]
	}
	sig := fmt.Sprintf("%s(%s)", m.Name, strings.Join(names, ", "))
	if m.ReturnType != "" {
		sig += ": " + m.ReturnType
	}
	return sig
}

func writePlantUMLClassBody(sb *strings.Builder, n Node, indent string) {
	for _, attr := range n.Attributes {
		fmt.Fprintf(sb, "%s    %s %s\n", indent, visibilityMarker(attr, false, false), attr)
	}
	if len(n.Attributes) > 0 && len(n.Methods) > 0 {
		fmt.Fprintf(sb, "%s    --\n", indent)
	}
	for _, m := range n.Methods {
		marker := methodVisibility(m)
		if m.IsStatic {
			marker = "{static} " + marker
		}
		fmt.Fprintf(sb, "%s    %s %s\n", indent, marker, umlSignature(m))
	}
}

func writePlantUMLClasses(sb *strings.Builder, d *Diagram) {
	sb.WriteString("\n")
	for _, n := range d.Nodes {
		switch n.Kind {
		case NodeExternal:
			fmt.Fprintf(sb, "class %s <<external>> %s\n\n", quote(n.ID), Colors[NodeExternal])
		case NodeModule:
			fmt.Fprintf(sb, "class %s <<module>> %s\n\n", quote(n.ID), Colors[NodeModule])
		default:
			fmt.Fprintf(sb, "%s %s %s {\n", plantUMLKeyword(n.Kind), quote(n.ID), Colors[n.Kind])
			writePlantUMLClassBody(sb, n, "")
			sb.WriteString("}\n\n")
		}
	}

	for _, e := range d.Edges {
		switch e.Kind {
		case EdgeInheritance:
			fmt.Fprintf(sb, "%s <|-- %s\n", quote(e.Source), quote(e.Target))
		case EdgeImplementation:
			fmt.Fprintf(sb, "%s <|.. %s\n", quote(e.Source), quote(e.Target))
		default:
			fmt.Fprintf(sb, "%s ..> %s : %s\n", quote(e.Source), quote(e.Target), e.Label)
		}
	}
}

func writePlantUMLDependencies(sb *strings.Builder, d *Diagram) {
	sb.WriteString("\n")
	for _, n := range d.Nodes {
		stereotype := ""
		switch n.Kind {
		case NodeCore:
			stereotype = " <<core>>"
		case NodeExternal:
			stereotype = " <<external>>"
		}
		fmt.Fprintf(sb, "component %s%s %s\n", quote(n.ID), stereotype, Colors[n.Kind])
	}
	sb.WriteString("\n")

	for _, e := range d.Edges {
		arrow := "-->"
		if e.Kind == EdgeDependency {
			arrow = "..>"
		}
		fmt.Fprintf(sb, "%s %s %s\n", quote(e.Source), arrow, quote(e.Target))
	}
}

func writePlantUMLComponents(sb *strings.Builder, d *Diagram) {
	sb.WriteString("allowmixing\n\n")
	for _, c := range d.Containers {
		fmt.Fprintf(sb, "package %s %s {\n", quote(c.Label), Colors[NodeModule])
		for _, n := range c.Nodes {
			writePlantUMLNested(sb, n)
		}
		sb.WriteString("}\n\n")
	}
	for _, n := range d.Nodes {
		fmt.Fprintf(sb, "%s %s as %s %s\n", plantUMLKeyword(n.Kind), quote(n.Label), SanitizeID(n.ID), Colors[n.Kind])
	}
}

func writePlantUMLNested(sb *strings.Builder, n Node) {
	switch n.Kind {
	case NodeFunctions, NodeEmptyModule:
		fmt.Fprintf(sb, "    rectangle %s as %s %s\n", quote(n.Label), SanitizeID(n.ID), Colors[n.Kind])
	default:
		fmt.Fprintf(sb, "    %s %s as %s %s\n", plantUMLKeyword(n.Kind), quote(n.Label), SanitizeID(n.ID), Colors[n.Kind])
	}
}
