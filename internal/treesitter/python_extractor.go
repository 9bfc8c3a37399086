package treesitter

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	cverrors "github.com/rohankatakam/codevision/internal/errors"
	"github.com/rohankatakam/codevision/internal/models"
)

// PythonExtractor derives classes, functions and imports from Python source
// using the tree-sitter grammar
type PythonExtractor struct{}

// NewPythonExtractor creates a Python extractor
func NewPythonExtractor() *PythonExtractor {
	return &PythonExtractor{}
}

// Language returns the language tag recorded on extracted modules
func (e *PythonExtractor) Language() string {
	return "python"
}

// Extract parses one file. A file containing syntax errors yields a parse
// error and no result.
func (e *PythonExtractor) Extract(filePath string, code []byte) (*models.FileResult, error) {
	lp, err := NewLanguageParser("python")
	if err != nil {
		return nil, cverrors.InternalError(err, "failed to create python parser")
	}
	defer lp.Close()

	tree, err := lp.Parse(code)
	if err != nil {
		return nil, cverrors.ParseError(err, "failed to parse").
			WithContext("path", filePath)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, cverrors.ParseErrorf("syntax error at line %d", firstErrorLine(root)).
			WithContext("path", filePath)
	}

	f := &pythonFile{
		code:   code,
		module: models.ModuleName(filePath),
	}

	result := &models.FileResult{
		Module: models.Module{
			Name:      f.module,
			FilePath:  filePath,
			Language:  e.Language(),
			LineCount: countLines(code),
			Docstring: f.docstring(root),
		},
	}

	f.walk(root, result)
	result.Functions = f.functions(root)
	result.Finalize()
	return result, nil
}

// firstErrorLine returns the line of the first ERROR or MISSING node
func firstErrorLine(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	if node.Kind() == "ERROR" || node.IsMissing() {
		return lineOf(node)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.HasError() {
			if line := firstErrorLine(child); line > 0 {
				return line
			}
		}
	}
	return lineOf(node)
}

type pythonFile struct {
	code   []byte
	module string
}

func (f *pythonFile) text(node *sitter.Node) string {
	return getNodeText(node, f.code)
}

// walk visits every node in source order collecting classes (at any depth)
// and import statements (at any depth)
func (f *pythonFile) walk(node *sitter.Node, result *models.FileResult) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "class_definition":
		result.Classes = append(result.Classes, f.class(node))
	case "import_statement":
		result.Dependencies = append(result.Dependencies, f.importStatement(node)...)
	case "import_from_statement", "future_import_statement":
		result.Dependencies = append(result.Dependencies, f.fromImport(node))
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		f.walk(node.NamedChild(i), result)
	}
}

func (f *pythonFile) class(node *sitter.Node) models.ClassEntity {
	cls := models.ClassEntity{
		Name:       f.text(node.ChildByFieldName("name")),
		Module:     f.module,
		Bases:      []string{},
		Methods:    []models.Method{},
		Attributes: []string{},
		Decorators: f.decorators(node),
		Line:       lineOf(node),
	}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for _, arg := range namedChildren(supers) {
			switch arg.Kind() {
			case "identifier", "attribute":
				base := f.annotation(arg)
				cls.Bases = append(cls.Bases, base)
				if base == "ABC" || base == "abc.ABC" {
					cls.IsAbstract = true
				}
			case "keyword_argument":
				if f.text(arg.ChildByFieldName("name")) == "metaclass" &&
					strings.HasSuffix(f.text(arg.ChildByFieldName("value")), "ABCMeta") {
					cls.IsAbstract = true
				}
			}
		}
	}

	body := node.ChildByFieldName("body")
	cls.Docstring = f.docstring(body)

	seen := make(map[string]bool)
	for _, stmt := range namedChildren(body) {
		switch stmt.Kind() {
		case "function_definition":
			cls.Methods = append(cls.Methods, f.callable(stmt))
		case "decorated_definition":
			if def := stmt.ChildByFieldName("definition"); def != nil && def.Kind() == "function_definition" {
				cls.Methods = append(cls.Methods, f.callable(def))
			}
		case "expression_statement":
			for _, expr := range namedChildren(stmt) {
				if expr.Kind() != "assignment" {
					continue
				}
				for _, name := range f.assignedNames(expr) {
					if !seen[name] {
						seen[name] = true
						cls.Attributes = append(cls.Attributes, name)
					}
				}
			}
		}
	}

	for _, m := range cls.Methods {
		for _, d := range m.Decorators {
			if d == "abstractmethod" || strings.HasSuffix(d, ".abstractmethod") {
				cls.IsAbstract = true
			}
		}
	}

	return cls
}

// assignedNames returns the plain-name targets of an assignment, following
// chained assignments (a = b = 1)
func (f *pythonFile) assignedNames(node *sitter.Node) []string {
	var names []string
	for node != nil && node.Kind() == "assignment" {
		if left := node.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
			names = append(names, f.text(left))
		}
		node = node.ChildByFieldName("right")
	}
	return names
}

// functions returns the module-level function definitions
func (f *pythonFile) functions(root *sitter.Node) []models.FunctionEntity {
	var out []models.FunctionEntity
	for _, stmt := range namedChildren(root) {
		def := stmt
		if stmt.Kind() == "decorated_definition" {
			def = stmt.ChildByFieldName("definition")
		}
		if def == nil || def.Kind() != "function_definition" {
			continue
		}
		out = append(out, models.FunctionEntity{
			Method: f.callable(def),
			Module: f.module,
		})
	}
	return out
}

func (f *pythonFile) callable(node *sitter.Node) models.Method {
	name := f.text(node.ChildByFieldName("name"))
	m := models.Method{
		Name:       name,
		Parameters: f.parameters(node.ChildByFieldName("parameters")),
		ReturnType: f.annotation(node.ChildByFieldName("return_type")),
		IsAsync:    hasChildToken(node, "async"),
		IsMagic:    isDunder(name),
		Visibility: pythonVisibility(name),
		Decorators: f.decorators(node),
		Docstring:  f.docstring(node.ChildByFieldName("body")),
		Line:       lineOf(node),
	}
	for _, d := range m.Decorators {
		if d == "staticmethod" {
			m.IsStatic = true
		}
	}
	return m
}

func (f *pythonFile) parameters(node *sitter.Node) []models.Parameter {
	params := []models.Parameter{}
	for _, p := range namedChildren(node) {
		switch p.Kind() {
		case "identifier":
			params = append(params, models.Parameter{Name: f.text(p)})
		case "list_splat_pattern", "dictionary_splat_pattern":
			params = append(params, models.Parameter{Name: f.paramName(p)})
		case "typed_parameter":
			var name string
			if inner := namedChildren(p); len(inner) > 0 {
				name = f.paramName(inner[0])
			}
			params = append(params, models.Parameter{
				Name: name,
				Type: f.annotation(p.ChildByFieldName("type")),
			})
		case "default_parameter":
			params = append(params, models.Parameter{
				Name:    f.text(p.ChildByFieldName("name")),
				Default: f.text(p.ChildByFieldName("value")),
			})
		case "typed_default_parameter":
			params = append(params, models.Parameter{
				Name:    f.text(p.ChildByFieldName("name")),
				Type:    f.annotation(p.ChildByFieldName("type")),
				Default: f.text(p.ChildByFieldName("value")),
			})
		case "tuple_pattern":
			params = append(params, models.Parameter{Name: f.text(p)})
		}
	}
	return params
}

// paramName renders identifiers and their variadic forms (*args, **kwargs)
func (f *pythonFile) paramName(node *sitter.Node) string {
	switch node.Kind() {
	case "list_splat_pattern":
		if inner := namedChildren(node); len(inner) > 0 {
			return "*" + f.text(inner[0])
		}
	case "dictionary_splat_pattern":
		if inner := namedChildren(node); len(inner) > 0 {
			return "**" + f.text(inner[0])
		}
	}
	return f.text(node)
}

// annotation rebuilds a type annotation as a string with a structural walk
func (f *pythonFile) annotation(node *sitter.Node) string {
	if node == nil {
		return ""
	}

	switch node.Kind() {
	case "type", "parenthesized_expression":
		if inner := namedChildren(node); len(inner) == 1 {
			return f.annotation(inner[0])
		}
		return f.text(node)

	case "identifier", "integer", "float", "true", "false", "none", "ellipsis":
		return f.text(node)

	case "string", "concatenated_string":
		return unquote(f.text(node))

	case "attribute":
		// attribute nodes nest to the left; collect the chain then reverse it
		var parts []string
		current := node
		for current != nil && current.Kind() == "attribute" {
			parts = append(parts, f.text(current.ChildByFieldName("attribute")))
			current = current.ChildByFieldName("object")
		}
		if current != nil {
			parts = append(parts, f.annotation(current))
		}
		for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
			parts[i], parts[j] = parts[j], parts[i]
		}
		return strings.Join(parts, ".")

	case "member_type":
		inner := namedChildren(node)
		if len(inner) == 2 {
			return f.annotation(inner[0]) + "." + f.text(inner[1])
		}
		return f.text(node)

	case "subscript":
		inner := namedChildren(node)
		if len(inner) < 2 {
			return f.text(node)
		}
		return f.annotation(inner[0]) + "[" + f.joined(inner[1:], ", ") + "]"

	case "generic_type":
		inner := namedChildren(node)
		if len(inner) != 2 {
			return f.text(node)
		}
		return f.text(inner[0]) + "[" + f.annotation(inner[1]) + "]"

	case "type_parameter", "tuple", "expression_list", "pattern_list":
		return f.joined(namedChildren(node), ", ")

	case "list":
		return "[" + f.joined(namedChildren(node), ", ") + "]"

	case "union_type":
		return f.joined(namedChildren(node), " | ")

	case "binary_operator":
		if f.text(node.ChildByFieldName("operator")) == "|" {
			return f.annotation(node.ChildByFieldName("left")) + " | " + f.annotation(node.ChildByFieldName("right"))
		}
	}

	return f.text(node)
}

func (f *pythonFile) joined(nodes []*sitter.Node, sep string) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, f.annotation(n))
	}
	return strings.Join(parts, sep)
}

// decorators returns the decorator names attached to a class or function
// definition, read from the enclosing decorated_definition
func (f *pythonFile) decorators(def *sitter.Node) []string {
	parent := def.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return nil
	}

	var names []string
	for _, child := range namedChildren(parent) {
		if child.Kind() != "decorator" {
			continue
		}
		inner := namedChildren(child)
		if len(inner) == 0 {
			continue
		}
		expr := inner[0]
		if expr.Kind() == "call" {
			expr = expr.ChildByFieldName("function")
		}
		names = append(names, f.annotation(expr))
	}
	return names
}

// docstring returns the cleaned leading string literal of a block or module
func (f *pythonFile) docstring(body *sitter.Node) string {
	stmts := namedChildren(body)
	if len(stmts) == 0 || stmts[0].Kind() != "expression_statement" {
		return ""
	}
	inner := namedChildren(stmts[0])
	if len(inner) != 1 || inner[0].Kind() != "string" {
		return ""
	}
	return cleanDocstring(unquote(f.text(inner[0])))
}

func (f *pythonFile) importStatement(node *sitter.Node) []models.DependencyEdge {
	var deps []models.DependencyEdge
	for _, child := range namedChildren(node) {
		var full, alias string
		switch child.Kind() {
		case "dotted_name":
			full = f.text(child)
		case "aliased_import":
			full = f.text(child.ChildByFieldName("name"))
			alias = f.text(child.ChildByFieldName("alias"))
		default:
			continue
		}
		deps = append(deps, models.DependencyEdge{
			Source: f.module,
			Target: strings.SplitN(full, ".", 2)[0],
			Kind:   models.ImportModule,
			Names:  []string{full},
			Alias:  alias,
			Line:   lineOf(node),
		})
	}
	return deps
}

// fromImport handles `from x import y`, relative forms and __future__ imports
func (f *pythonFile) fromImport(node *sitter.Node) models.DependencyEdge {
	var module string
	level := 0

	moduleNode := node.ChildByFieldName("module_name")
	switch {
	case node.Kind() == "future_import_statement":
		module = "__future__"
	case moduleNode != nil && moduleNode.Kind() == "relative_import":
		for _, part := range namedChildren(moduleNode) {
			switch part.Kind() {
			case "import_prefix":
				level = strings.Count(f.text(part), ".")
			case "dotted_name":
				module = f.text(part)
			}
		}
	case moduleNode != nil:
		module = f.text(moduleNode)
	}

	names := []string{}
	for _, child := range namedChildren(node) {
		if sameNode(child, moduleNode) {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			names = append(names, f.text(child))
		case "aliased_import":
			names = append(names, f.text(child.ChildByFieldName("name")))
		case "wildcard_import":
			names = append(names, "*")
		}
	}

	kind := models.ImportFrom
	if level > 0 {
		kind = models.ImportRelative
	}

	return models.DependencyEdge{
		Source: f.module,
		Target: strings.SplitN(module, ".", 2)[0],
		Kind:   kind,
		Names:  names,
		Level:  level,
		Line:   lineOf(node),
	}
}

func isDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// pythonVisibility follows the underscore convention: dunder names are
// public, a double underscore prefix is private, a single one protected
func pythonVisibility(name string) models.Visibility {
	switch {
	case isDunder(name):
		return models.VisibilityPublic
	case strings.HasPrefix(name, "__"):
		return models.VisibilityPrivate
	case strings.HasPrefix(name, "_"):
		return models.VisibilityProtected
	default:
		return models.VisibilityPublic
	}
}
