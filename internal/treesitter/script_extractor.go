package treesitter

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	cverrors "github.com/rohankatakam/codevision/internal/errors"
	"github.com/rohankatakam/codevision/internal/models"
)

// ScriptExtractor is the grammar-accurate JavaScript/TypeScript extractor.
// It produces the same shape of result as the line-pattern extractor and
// is selected when extract.script_mode is "treesitter".
type ScriptExtractor struct {
	grammar string
}

// NewScriptExtractor creates an extractor for "javascript", "typescript" or "tsx"
func NewScriptExtractor(grammar string) *ScriptExtractor {
	return &ScriptExtractor{grammar: grammar}
}

// Language returns the language tag recorded on extracted modules
func (e *ScriptExtractor) Language() string {
	if e.grammar == "tsx" {
		return "typescript"
	}
	return e.grammar
}

// Extract parses one file. Files with syntax errors yield a parse error.
func (e *ScriptExtractor) Extract(filePath string, code []byte) (*models.FileResult, error) {
	lp, err := NewLanguageParser(e.grammar)
	if err != nil {
		return nil, cverrors.InternalError(err, "failed to create script parser")
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

	f := &scriptFile{code: code, module: models.ModuleName(filePath)}
	result := &models.FileResult{
		Module: models.Module{
			Name:      f.module,
			FilePath:  filePath,
			Language:  e.Language(),
			LineCount: countLines(code),
		},
	}

	for _, stmt := range namedChildren(root) {
		f.statement(stmt, false, result)
	}

	result.Finalize()
	return result, nil
}

type scriptFile struct {
	code   []byte
	module string
}

func (f *scriptFile) text(node *sitter.Node) string {
	return getNodeText(node, f.code)
}

// statement handles one top-level statement. Only top-level declarations
// are extracted; nested functions stay inside their parent.
func (f *scriptFile) statement(node *sitter.Node, exported bool, result *models.FileResult) {
	switch node.Kind() {
	case "export_statement":
		if decl := node.ChildByFieldName("declaration"); decl != nil {
			result.Module.Exports = append(result.Module.Exports, f.declaredNames(decl)...)
			f.statement(decl, true, result)
			return
		}
		for _, child := range namedChildren(node) {
			switch child.Kind() {
			case "export_clause":
				for _, spec := range namedChildren(child) {
					if spec.Kind() == "export_specifier" {
						result.Module.Exports = append(result.Module.Exports, f.text(spec.ChildByFieldName("name")))
					}
				}
			case "class_declaration", "class", "function_declaration", "function_expression":
				f.statement(child, true, result)
			}
		}

	case "class_declaration", "abstract_class_declaration", "class":
		if node.ChildByFieldName("name") != nil {
			result.Classes = append(result.Classes, f.class(node))
		}

	case "interface_declaration":
		result.Classes = append(result.Classes, f.iface(node))

	case "function_declaration", "generator_function_declaration", "function_expression":
		if name := node.ChildByFieldName("name"); name != nil {
			fn := f.callable(node, f.text(name))
			result.Functions = append(result.Functions, models.FunctionEntity{Method: fn, Module: f.module, Exported: exported})
		}

	case "lexical_declaration", "variable_declaration":
		for _, decl := range namedChildren(node) {
			if decl.Kind() != "variable_declarator" {
				continue
			}
			value := decl.ChildByFieldName("value")
			if value == nil {
				continue
			}
			switch value.Kind() {
			case "arrow_function", "function_expression", "function":
				fn := f.callable(value, f.text(decl.ChildByFieldName("name")))
				fn.Line = lineOf(node)
				result.Functions = append(result.Functions, models.FunctionEntity{Method: fn, Module: f.module, Exported: exported})
			case "call_expression":
				if dep, ok := f.require(decl, value); ok {
					result.Dependencies = append(result.Dependencies, dep)
				}
			}
		}

	case "import_statement":
		result.Dependencies = append(result.Dependencies, f.importStatement(node))
	}
}

// declaredNames returns the names a declaration introduces
func (f *scriptFile) declaredNames(decl *sitter.Node) []string {
	if name := decl.ChildByFieldName("name"); name != nil {
		return []string{f.text(name)}
	}
	var names []string
	for _, child := range namedChildren(decl) {
		if child.Kind() == "variable_declarator" {
			names = append(names, f.text(child.ChildByFieldName("name")))
		}
	}
	return names
}

func (f *scriptFile) class(node *sitter.Node) models.ClassEntity {
	cls := models.ClassEntity{
		Name:       f.text(node.ChildByFieldName("name")),
		Module:     f.module,
		Bases:      []string{},
		Methods:    []models.Method{},
		Attributes: []string{},
		Line:       lineOf(node),
		IsAbstract: node.Kind() == "abstract_class_declaration",
	}

	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "decorator":
			if inner := namedChildren(child); len(inner) > 0 {
				cls.Decorators = append(cls.Decorators, f.text(inner[0]))
			}
		case "class_heritage":
			f.heritage(child, &cls)
		}
	}

	seen := make(map[string]bool)
	for _, member := range namedChildren(node.ChildByFieldName("body")) {
		switch member.Kind() {
		case "method_definition", "method_signature", "abstract_method_signature":
			cls.Methods = append(cls.Methods, f.method(member))
			if member.Kind() == "abstract_method_signature" {
				cls.IsAbstract = true
			}
		case "public_field_definition", "field_definition":
			name := member.ChildByFieldName("name")
			if name == nil {
				name = member.ChildByFieldName("property")
			}
			if n := f.text(name); n != "" && !seen[n] {
				seen[n] = true
				cls.Attributes = append(cls.Attributes, n)
			}
		}
	}
	return cls
}

// heritage reads `extends` and `implements` clauses. The JavaScript grammar
// puts the base expression directly under class_heritage.
func (f *scriptFile) heritage(node *sitter.Node, cls *models.ClassEntity) {
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "extends_clause":
			for _, base := range namedChildren(child) {
				if base.Kind() != "type_arguments" {
					cls.Bases = append(cls.Bases, f.text(base))
				}
			}
		case "implements_clause":
			for _, iface := range namedChildren(child) {
				cls.Implements = append(cls.Implements, f.text(iface))
			}
		default:
			cls.Bases = append(cls.Bases, f.text(child))
		}
	}
}

func (f *scriptFile) iface(node *sitter.Node) models.ClassEntity {
	cls := models.ClassEntity{
		Name:        f.text(node.ChildByFieldName("name")),
		Module:      f.module,
		Bases:       []string{},
		Methods:     []models.Method{},
		Attributes:  []string{},
		Line:        lineOf(node),
		IsAbstract:  true,
		IsInterface: true,
	}

	for _, child := range namedChildren(node) {
		if child.Kind() == "extends_type_clause" {
			for _, base := range namedChildren(child) {
				cls.Bases = append(cls.Bases, f.text(base))
			}
		}
	}

	for _, member := range namedChildren(node.ChildByFieldName("body")) {
		switch member.Kind() {
		case "property_signature":
			cls.Attributes = append(cls.Attributes, f.text(member.ChildByFieldName("name")))
		case "method_signature":
			cls.Methods = append(cls.Methods, f.method(member))
		}
	}
	return cls
}

func (f *scriptFile) method(node *sitter.Node) models.Method {
	name := f.text(node.ChildByFieldName("name"))
	m := f.callable(node, name)
	m.IsStatic = hasChildToken(node, "static")

	modifier := ""
	for _, child := range namedChildren(node) {
		if child.Kind() == "accessibility_modifier" {
			modifier = f.text(child)
		}
	}
	m.Visibility = scriptVisibility(modifier, name)
	return m
}

func (f *scriptFile) callable(node *sitter.Node, name string) models.Method {
	m := models.Method{
		Name:       name,
		Parameters: f.parameters(node.ChildByFieldName("parameters")),
		ReturnType: typeText(f.text(node.ChildByFieldName("return_type"))),
		IsAsync:    hasChildToken(node, "async"),
		Visibility: scriptVisibility("", name),
		Line:       lineOf(node),
	}
	if m.Parameters == nil {
		// single bare arrow parameter: x => x
		if p := node.ChildByFieldName("parameter"); p != nil {
			m.Parameters = []models.Parameter{{Name: f.text(p)}}
		} else {
			m.Parameters = []models.Parameter{}
		}
	}
	return m
}

func (f *scriptFile) parameters(node *sitter.Node) []models.Parameter {
	if node == nil {
		return nil
	}
	params := []models.Parameter{}
	for _, p := range namedChildren(node) {
		switch p.Kind() {
		case "required_parameter", "optional_parameter":
			params = append(params, models.Parameter{
				Name:    f.text(p.ChildByFieldName("pattern")),
				Type:    typeText(f.text(p.ChildByFieldName("type"))),
				Default: f.text(p.ChildByFieldName("value")),
			})
		case "assignment_pattern":
			params = append(params, models.Parameter{
				Name:    f.text(p.ChildByFieldName("left")),
				Default: f.text(p.ChildByFieldName("right")),
			})
		default:
			params = append(params, models.Parameter{Name: f.text(p)})
		}
	}
	return params
}

func (f *scriptFile) importStatement(node *sitter.Node) models.DependencyEdge {
	spec := unquote(f.text(node.ChildByFieldName("source")))
	target, kind := models.ScriptImportTarget(spec)

	names := []string{}
	for _, child := range namedChildren(node) {
		if child.Kind() != "import_clause" {
			continue
		}
		for _, part := range namedChildren(child) {
			switch part.Kind() {
			case "identifier":
				names = append(names, f.text(part))
			case "namespace_import":
				if inner := namedChildren(part); len(inner) > 0 {
					names = append(names, f.text(inner[0]))
				}
			case "named_imports":
				for _, spec := range namedChildren(part) {
					if spec.Kind() == "import_specifier" {
						names = append(names, f.text(spec.ChildByFieldName("name")))
					}
				}
			}
		}
	}

	return models.DependencyEdge{
		Source: f.module,
		Target: target,
		Kind:   kind,
		Names:  names,
		Line:   lineOf(node),
	}
}

// require turns `const x = require('y')` into a dependency edge
func (f *scriptFile) require(decl, call *sitter.Node) (models.DependencyEdge, bool) {
	if f.text(call.ChildByFieldName("function")) != "require" {
		return models.DependencyEdge{}, false
	}
	args := namedChildren(call.ChildByFieldName("arguments"))
	if len(args) != 1 || args[0].Kind() != "string" {
		return models.DependencyEdge{}, false
	}

	target, kind := models.ScriptImportTarget(unquote(f.text(args[0])))
	nameNode := decl.ChildByFieldName("name")
	names := []string{}
	if nameNode != nil && nameNode.Kind() == "object_pattern" {
		for _, prop := range namedChildren(nameNode) {
			names = append(names, f.text(prop))
		}
	} else if nameNode != nil {
		names = append(names, f.text(nameNode))
	}

	return models.DependencyEdge{
		Source: f.module,
		Target: target,
		Kind:   kind,
		Names:  names,
		Line:   lineOf(decl),
	}, true
}

// typeText strips the leading colon of a type annotation
func typeText(annotation string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(annotation), ":"))
}

// scriptVisibility prefers an explicit modifier, then the # and _ naming
// conventions
func scriptVisibility(modifier, name string) models.Visibility {
	switch modifier {
	case "private":
		return models.VisibilityPrivate
	case "protected":
		return models.VisibilityProtected
	case "public":
		return models.VisibilityPublic
	}
	if strings.HasPrefix(name, "#") || strings.HasPrefix(name, "_") {
		return models.VisibilityPrivate
	}
	return models.VisibilityPublic
}
