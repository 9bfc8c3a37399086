package diagram

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/codevision/internal/models"
)

func userModelGraph() *models.Graph {
	return &models.Graph{
		Modules: []models.Module{
			{Name: "models", FilePath: "models.py", Language: "python", ClassCount: 2},
		},
		Classes: []models.ClassEntity{
			{
				Name:       "BaseModel",
				Module:     "models",
				Attributes: []string{"id"},
				Methods: []models.Method{
					{Name: "save", Parameters: []models.Parameter{{Name: "self"}}, Visibility: models.VisibilityPublic, Line: 3},
				},
				Line: 1,
			},
			{
				Name:       "UserModel",
				Module:     "models",
				Bases:      []string{"BaseModel"},
				Attributes: []string{"name", "_secret"},
				Methods: []models.Method{
					{Name: "__init__", Parameters: []models.Parameter{{Name: "self"}, {Name: "name"}}, Visibility: models.VisibilityPublic, IsMagic: true},
					{Name: "create", Parameters: []models.Parameter{{Name: "cls"}, {Name: "data"}}, IsStatic: true, Visibility: models.VisibilityPublic},
				},
				Line: 6,
			},
		},
	}
}

func dependencyGraph() *models.Graph {
	return &models.Graph{
		Modules: []models.Module{
			{Name: "main", FilePath: "main.py", FunctionCount: 1},
			{Name: "models", FilePath: "models.py", ClassCount: 1},
		},
		Classes: []models.ClassEntity{
			{Name: "User", Module: "models", Line: 1},
		},
		Dependencies: []models.DependencyEdge{
			{Source: "main", Target: "models", Kind: models.ImportFrom, Names: []string{"User"}},
		},
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"class", KindClass, false},
		{"dependency", KindDependency, false},
		{"Component", KindComponent, false},
		{"", KindClass, false},
		{"sequence", KindClass, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			got, err := ParseKind(tt.input)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSynthesize_InheritanceScenario(t *testing.T) {
	b := Synthesize(userModelGraph(), KindClass)

	assert.Equal(t, KindClass, b.Type)
	assert.Contains(t, b.PlantUMLText, `"BaseModel" <|-- "UserModel"`)
	assert.Contains(t, b.DOTText, `"BaseModel" -> "UserModel" [arrowhead=empty, style=solid];`)
	assert.Contains(t, b.MermaidText, "BaseModel <|-- UserModel : extends")

	var matches int
	for _, e := range b.JSON.Edges {
		if e.Source == "BaseModel" && e.Target == "UserModel" {
			matches++
			assert.Equal(t, "inheritance", e.Type)
		}
	}
	assert.Equal(t, 1, matches)
	assert.Len(t, b.JSON.Edges, 1)
	assert.Equal(t, 2, b.NodeCount)
	assert.Equal(t, 1, b.EdgeCount)
}

func TestSynthesize_EveryBasePairInEveryNotation(t *testing.T) {
	g := &models.Graph{
		Classes: []models.ClassEntity{
			{Name: "Animal", Module: "zoo"},
			{Name: "Dog", Module: "zoo", Bases: []string{"Animal", "Serializable"}},
			{Name: "Cat", Module: "zoo", Bases: []string{"Animal"}},
			{Name: "Puppy", Module: "zoo", Bases: []string{"Dog"}},
		},
	}

	b := Synthesize(g, KindClass)

	for _, c := range g.Classes {
		for _, base := range c.Bases {
			t.Run(base+"->"+c.Name, func(t *testing.T) {
				assert.Contains(t, b.PlantUMLText, fmt.Sprintf("%q <|-- %q", base, c.Name))
				assert.Contains(t, b.DOTText, fmt.Sprintf("%q -> %q [arrowhead=empty", base, c.Name))
				assert.Contains(t, b.MermaidText, fmt.Sprintf("%s <|-- %s", base, c.Name))

				count := 0
				for _, e := range b.JSON.Edges {
					if e.Source == base && e.Target == c.Name {
						count++
					}
				}
				assert.Equal(t, 1, count)
			})
		}
	}

	// Serializable was never extracted
	ext := Project(g, KindClass).NodesOfKind(NodeExternal)
	require.Len(t, ext, 1)
	assert.Equal(t, "Serializable", ext[0].ID)
	assert.Contains(t, b.PlantUMLText, `class "Serializable" <<external>>`)
}

func TestSynthesize_DependencyScenario(t *testing.T) {
	t.Run("internal import", func(t *testing.T) {
		d := Project(dependencyGraph(), KindDependency)

		assert.Len(t, d.EdgesOfKind(EdgeAssociation), 1)
		assert.Empty(t, d.EdgesOfKind(EdgeDependency))
		assert.Empty(t, d.NodesOfKind(NodeExternal))

		b := Synthesize(dependencyGraph(), KindDependency)
		assert.Contains(t, b.PlantUMLText, `"main" --> "models"`)
		assert.Contains(t, b.MermaidText, "main --> models")
	})

	t.Run("external import", func(t *testing.T) {
		g := dependencyGraph()
		g.Dependencies = []models.DependencyEdge{
			{Source: "main", Target: "requests", Kind: models.ImportModule, Names: []string{"requests"}},
		}
		d := Project(g, KindDependency)

		ext := d.NodesOfKind(NodeExternal)
		require.Len(t, ext, 1)
		assert.Equal(t, "requests", ext[0].ID)

		deps := d.EdgesOfKind(EdgeDependency)
		require.Len(t, deps, 1)
		assert.Equal(t, "main", deps[0].Source)
		assert.Equal(t, "requests", deps[0].Target)

		b := Synthesize(g, KindDependency)
		assert.Contains(t, b.PlantUMLText, `"main" ..> "requests"`)
		assert.Contains(t, b.DOTText, `"main" -> "requests" [arrowhead=vee, style=dashed];`)
		assert.Contains(t, b.MermaidText, "main -.-> requests")
	})

	t.Run("duplicate imports collapse", func(t *testing.T) {
		g := dependencyGraph()
		g.Dependencies = append(g.Dependencies, g.Dependencies[0])
		assert.Equal(t, 1, Synthesize(g, KindDependency).EdgeCount)
	})
}

func TestProject_CoreModules(t *testing.T) {
	g := &models.Graph{
		Modules: []models.Module{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "core"}},
		Dependencies: []models.DependencyEdge{
			{Source: "a", Target: "core", Kind: models.ImportModule},
			{Source: "b", Target: "core", Kind: models.ImportModule},
			{Source: "c", Target: "core", Kind: models.ImportModule},
		},
	}

	d := Project(g, KindDependency)
	core := d.NodesOfKind(NodeCore)
	require.Len(t, core, 1)
	assert.Equal(t, "core", core[0].ID)
	assert.Len(t, d.NodesOfKind(NodeModule), 3)
}

func TestProject_ClassUsesEdges(t *testing.T) {
	g := dependencyGraph()
	d := Project(g, KindClass)

	uses := d.EdgesOfKind(EdgeDependency)
	require.Len(t, uses, 1)
	assert.Equal(t, Edge{Source: "main", Target: "User", Kind: EdgeDependency, Label: "uses"}, uses[0])

	mods := d.NodesOfKind(NodeModule)
	require.Len(t, mods, 1)
	assert.Equal(t, "main", mods[0].ID)

	// whole-module imports carry no class names
	g.Dependencies[0].Kind = models.ImportModule
	assert.Empty(t, Project(g, KindClass).EdgesOfKind(EdgeDependency))
}

func TestProject_MemberCaps(t *testing.T) {
	c := models.ClassEntity{Name: "Big", Module: "m"}
	for i := 0; i < 20; i++ {
		c.Attributes = append(c.Attributes, fmt.Sprintf("a%d", i))
		c.Methods = append(c.Methods, models.Method{Name: fmt.Sprintf("m%d", i)})
	}

	d := Project(&models.Graph{Classes: []models.ClassEntity{c}}, KindClass)
	require.Len(t, d.Nodes, 1)
	assert.Len(t, d.Nodes[0].Attributes, MaxAttributes)
	assert.Len(t, d.Nodes[0].Methods, MaxMethods)
}

func TestProject_Components(t *testing.T) {
	g := &models.Graph{
		Modules: []models.Module{
			{Name: "models", ClassCount: 1},
			{Name: "utils", FunctionCount: 3},
			{Name: "empty"},
		},
		Classes: []models.ClassEntity{
			{Name: "User", Module: "models", Methods: []models.Method{{Name: "save"}}},
			{Name: "Stray", Module: "missing"},
		},
	}

	d := Project(g, KindComponent)
	require.Len(t, d.Containers, 3)

	byID := make(map[string]Container)
	for _, c := range d.Containers {
		byID[c.ID] = c
	}

	require.Len(t, byID["models"].Nodes, 1)
	assert.Equal(t, "models_User", byID["models"].Nodes[0].ID)
	assert.Empty(t, byID["models"].Nodes[0].Methods)

	require.Len(t, byID["utils"].Nodes, 1)
	assert.Equal(t, NodeFunctions, byID["utils"].Nodes[0].Kind)
	assert.Equal(t, "3 functions", byID["utils"].Nodes[0].Label)
	assert.Equal(t, 3, byID["utils"].Nodes[0].Count)

	require.Len(t, byID["empty"].Nodes, 1)
	assert.Equal(t, NodeEmptyModule, byID["empty"].Nodes[0].Kind)

	require.Len(t, d.Nodes, 1)
	assert.Equal(t, "Stray", d.Nodes[0].ID)

	b := Synthesize(g, KindComponent)
	assert.Contains(t, b.PlantUMLText, `package "models"`)
	assert.Contains(t, b.DOTText, "subgraph cluster_models {")
	assert.Contains(t, b.MermaidText, `subgraph utils["utils"]`)
	assert.Contains(t, b.MermaidText, `utils_functions["3 functions"]:::funcNode`)
	assert.Contains(t, b.MermaidText, `empty_empty(["Empty module"])`)
	assert.Equal(t, 7, b.NodeCount)
	assert.Equal(t, 0, b.EdgeCount)

	var containers int
	for _, n := range b.JSON.Nodes {
		if n.Container == "models" {
			containers++
		}
	}
	assert.Equal(t, 1, containers)
}

func TestSynthesize_EmptyGraph(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			b := Synthesize(&models.Graph{}, kind)

			assert.Contains(t, b.PlantUMLText, "@startuml")
			assert.Contains(t, b.PlantUMLText, PlaceholderID)
			assert.True(t, strings.HasSuffix(b.PlantUMLText, "@enduml"))
			assert.Contains(t, b.DOTText, "digraph Empty {")
			assert.Contains(t, b.DOTText, PlaceholderLabel)
			assert.Contains(t, b.MermaidText, PlaceholderID)

			require.Len(t, b.JSON.Nodes, 1)
			assert.Equal(t, "placeholder", b.JSON.Nodes[0].Type)
			assert.Empty(t, b.JSON.Edges)
			assert.Zero(t, b.NodeCount)
			assert.Zero(t, b.EdgeCount)
		})
	}

	assert.NotPanics(t, func() { Synthesize(nil, KindClass) })
}

func TestSynthesize_Deterministic(t *testing.T) {
	g := userModelGraph()
	g.Classes = append(g.Classes, models.ClassEntity{Name: "Admin", Module: "models", Bases: []string{"UserModel", "Auditable"}})
	g.Dependencies = []models.DependencyEdge{
		{Source: "views", Target: "models", Kind: models.ImportFrom, Names: []string{"UserModel", "Admin"}},
		{Source: "views", Target: "flask", Kind: models.ImportFrom, Names: []string{"Flask"}},
	}

	shuffled := &models.Graph{
		Modules:      g.Modules,
		Classes:      []models.ClassEntity{g.Classes[2], g.Classes[0], g.Classes[1]},
		Dependencies: []models.DependencyEdge{g.Dependencies[1], g.Dependencies[0]},
	}

	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			first := Synthesize(g, kind)
			assert.Equal(t, first, Synthesize(g, kind))
			assert.Equal(t, first, Synthesize(shuffled, kind))

			a, err := json.Marshal(first)
			require.NoError(t, err)
			b, err := json.Marshal(Synthesize(shuffled, kind))
			require.NoError(t, err)
			assert.JSONEq(t, string(a), string(b))
		})
	}
}

func TestRenderMermaid_Sanitizes(t *testing.T) {
	g := &models.Graph{
		Classes: []models.ClassEntity{
			{
				Name:       "Repo<T>",
				Module:     "store",
				Bases:      []string{"base.Model"},
				Attributes: []string{`items: Map<string, "x">`},
				Methods: []models.Method{
					{Name: "get", Parameters: []models.Parameter{{Name: "self"}, {Name: "key"}}},
				},
			},
		},
	}

	out := Synthesize(g, KindClass).MermaidText

	assert.Contains(t, out, "class Repo_T_ {")
	assert.Contains(t, out, "class base_Model {")
	assert.Contains(t, out, "base_Model <|-- Repo_T_ : extends")
	assert.Contains(t, out, "+items_ Mapstring, 'x'")
	assert.Contains(t, out, "+get(key)")
	assert.NotContains(t, out, "Repo<T>")
}

func TestRenderMermaid_ReservedModuleNames(t *testing.T) {
	g := &models.Graph{
		Modules: []models.Module{
			{Name: "end", FilePath: "end.py"},
			{Name: "graph", FilePath: "graph.py"},
		},
		Dependencies: []models.DependencyEdge{
			{Source: "graph", Target: "end", Kind: models.ImportFrom, Names: []string{"finish"}},
		},
	}

	out := Synthesize(g, KindDependency).MermaidText

	assert.Contains(t, out, "_graph --> _end")
	assert.Contains(t, out, `_end["end"]`)
	assert.NotContains(t, out, "    end[")
	assert.NotContains(t, out, "--> end\n")
}

func TestSanitize(t *testing.T) {
	ids := []struct {
		in, want string
	}{
		{"User", "User"},
		{"my-module", "my_module"},
		{"pkg.Class", "pkg_Class"},
		{"2fa", "_2fa"},
		{"", "unnamed"},
		{"Ünïcode", "_n_code"},
		{"end", "_end"},
		{"End", "End"},
		{"Class", "Class"},
		{"graph", "_graph"},
		{"subgraph", "_subgraph"},
		{"class", "_class"},
		{"endpoint", "endpoint"},
		{"api.end", "api_end"},
	}
	for _, tt := range ids {
		t.Run("id "+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeID(tt.in))
		})
	}

	labels := []struct {
		in, want string
	}{
		{`say "hi"`, "say 'hi'"},
		{"List<int>", "Listint"},
		{"a: int", "a_ int"},
		{"a | b", "a _ b"},
	}
	for _, tt := range labels {
		t.Run("label "+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeLabel(tt.in))
		})
	}
}

func TestRenderPlantUML_Members(t *testing.T) {
	out := Synthesize(userModelGraph(), KindClass).PlantUMLText

	assert.Contains(t, out, `class "UserModel" #A8D5BA {`)
	assert.Contains(t, out, "    - _secret")
	assert.Contains(t, out, "    - __init__(self, name)")
	assert.Contains(t, out, "    {static} + create(cls, data)")
	assert.Contains(t, out, "    --\n")
}

func TestRenderDOT_RecordEscaping(t *testing.T) {
	g := &models.Graph{
		Classes: []models.ClassEntity{
			{Name: "Shape", Module: "geo", IsInterface: true, Methods: []models.Method{{Name: "area"}}},
		},
	}

	out := Synthesize(g, KindClass).DOTText
	assert.Contains(t, out, `"Shape" [label="{\<\<interface\>\>\nShape|+ area()\l}", fillcolor="#AED6F1"];`)
}

func TestBundle_Notation(t *testing.T) {
	b := Synthesize(userModelGraph(), KindClass)

	for _, name := range []string{"plantuml", "puml", "dot", "graphviz", "mermaid", "mmd"} {
		t.Run(name, func(t *testing.T) {
			text, ok := b.Notation(name)
			assert.True(t, ok)
			assert.NotEmpty(t, text)
		})
	}

	_, ok := b.Notation("svg")
	assert.False(t, ok)
}

func TestSynthesizeSelector_FallsBack(t *testing.T) {
	b := SynthesizeSelector(userModelGraph(), "unknown")
	assert.Equal(t, KindClass, b.Type)
}
