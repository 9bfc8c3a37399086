package extract

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rohankatakam/codevision/internal/models"
)

// Line-anchored declaration patterns for JavaScript and TypeScript
var (
	scriptClassRe = regexp.MustCompile(`(?m)^(?:export[ \t]+)?(?:default[ \t]+)?(abstract[ \t]+)?class[ \t]+(\w+)(?:<[^>{]*>)?(?:\s+extends\s+([\w.]+)(?:<[^{]*?>)?)?(?:\s+implements\s+([\w.,\s<>]+?))?\s*\{`)

	scriptInterfaceRe = regexp.MustCompile(`(?m)^(?:export[ \t]+)?(?:default[ \t]+)?interface[ \t]+(\w+)(?:<[^>{]*>)?(?:\s+extends\s+([\w.,\s<>]+?))?\s*\{`)

	scriptFunctionRe = regexp.MustCompile(`(?m)^(export[ \t]+)?(?:default[ \t]+)?(async[ \t]+)?function[ \t]*\*?[ \t]*(\w+)\s*(?:<[^>(]*>)?\s*\(([^)]*)\)(?:\s*:\s*([^{]+?))?\s*\{`)

	scriptArrowRe = regexp.MustCompile(`(?m)^(export[ \t]+)?(?:const|let|var)[ \t]+(\w+)(?:[ \t]*:[ \t]*[^=\n]+)?[ \t]*=[ \t]*(async[ \t]+)?(?:\(([^)]*)\)|(\w+))(?:[ \t]*:[ \t]*([^=\n]+?))?[ \t]*=>`)

	scriptMethodRe = regexp.MustCompile(`(?m)^[ \t]+((?:(?:public|private|protected|static|async|readonly|abstract|override|get|set)[ \t]+)*)(#?\w+)[ \t]*(?:<[^>(\n]*>)?\(([^)]*)\)(?:[ \t]*:[ \t]*([^{;\n]+?))?[ \t]*(?:\{|;)`)

	scriptPropertyRe = regexp.MustCompile(`(?m)^[ \t]+((?:(?:public|private|protected|static|readonly|declare|override)[ \t]+)*)(#?\w+)[?!]?(?:[ \t]*:[ \t]*([^;=\n]+?))?[ \t]*(?:=[^;\n]*)?;?[ \t]*$`)

	scriptImportRe = regexp.MustCompile(`(?m)^import[ \t]+(?:type[ \t]+)?(?:(\w+)[ \t]*,?[ \t]*)?(?:\{([^}]*)\}|\*[ \t]*as[ \t]+(\w+))?[ \t]*(?:from[ \t]*)?['"]([^'"]+)['"]`)

	scriptRequireRe = regexp.MustCompile(`(?m)^(?:const|let|var)[ \t]+(?:\{([^}]*)\}|(\w+))[ \t]*=[ \t]*require\([ \t]*['"]([^'"]+)['"][ \t]*\)`)

	scriptExportRe = regexp.MustCompile(`(?m)^export[ \t]+(?:default[ \t]+)?(?:abstract[ \t]+)?(?:async[ \t]+)?(?:class|function\*?|const|let|var|interface|type|enum)[ \t]+(\w+)`)

	scriptExportListRe = regexp.MustCompile(`(?m)^export[ \t]*\{([^}]*)\}`)
)

// reservedCallables are control-flow keywords a grammar-less function
// pattern would otherwise report as functions or methods
var reservedCallables = map[string]bool{
	"if":     true,
	"for":    true,
	"while":  true,
	"switch": true,
	"catch":  true,
}

// reservedProperties are statement keywords the property pattern can match
var reservedProperties = map[string]bool{
	"if": true, "for": true, "while": true, "return": true, "const": true, "let": true,
	"var": true, "else": true, "break": true, "continue": true, "case": true,
	"default": true, "try": true, "finally": true, "do": true, "throw": true,
}

// ScriptExtractor is the line-pattern JavaScript/TypeScript extractor.
// Class bodies are isolated by brace counting; scope decisions are
// heuristics and may misclassify deeply nested or malformed input.
type ScriptExtractor struct{}

// NewScriptExtractor creates the heuristic script extractor
func NewScriptExtractor() *ScriptExtractor {
	return &ScriptExtractor{}
}

// Language returns the language group this extractor handles
func (e *ScriptExtractor) Language() string {
	return "javascript"
}

// Extract scans one file. Partial pattern matches degrade to fewer
// entities; this extractor never returns an error.
func (e *ScriptExtractor) Extract(filePath string, code []byte) (*models.FileResult, error) {
	source := string(code)
	module := models.ModuleName(filePath)

	result := &models.FileResult{
		Module: models.Module{
			Name:      module,
			FilePath:  filePath,
			Language:  scriptLanguage(filePath),
			LineCount: len(strings.Split(source, "\n")),
		},
	}
	if source == "" {
		result.Module.LineCount = 0
	}

	result.Classes = append(result.Classes, scriptClasses(source, module)...)
	result.Classes = append(result.Classes, scriptInterfaces(source, module)...)
	result.Module.Exports = scriptExports(source)
	result.Functions = scriptFunctions(source, module, result.Module.Exports)
	result.Dependencies = scriptImports(source, module)

	result.Finalize()
	return result, nil
}

func scriptLanguage(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return "typescript"
	case ".vue":
		return "vue"
	default:
		return "javascript"
	}
}

// ExtractBlock returns the text from the `{` at start to its matching `}`
// inclusive. An unbalanced block runs to the end of the source.
func ExtractBlock(source string, start int) string {
	if start < 0 || start >= len(source) || source[start] != '{' {
		return ""
	}

	depth := 0
	for i := start; i < len(source); i++ {
		switch source[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return source[start : i+1]
			}
		}
	}
	return source[start:]
}

// IsInsideClass reports whether pos follows at least one class header and
// sits under more open braces than closed ones
func IsInsideClass(source string, pos int) bool {
	return newClassScope(source).contains(pos)
}

// classScope answers IsInsideClass for many offsets of one source after a
// single pass over it
type classScope struct {
	firstClassEnd int
	opens         []int
	closes        []int
}

func newClassScope(source string) *classScope {
	cs := &classScope{firstClassEnd: -1}
	if loc := scriptClassRe.FindStringIndex(source); loc != nil {
		cs.firstClassEnd = loc[1]
	}
	for i := 0; i < len(source); i++ {
		switch source[i] {
		case '{':
			cs.opens = append(cs.opens, i)
		case '}':
			cs.closes = append(cs.closes, i)
		}
	}
	return cs
}

func (cs *classScope) contains(pos int) bool {
	if cs.firstClassEnd < 0 || pos < cs.firstClassEnd {
		return false
	}
	return sort.SearchInts(cs.opens, pos) > sort.SearchInts(cs.closes, pos)
}

// lineIndex maps byte offsets to 1-based line numbers
type lineIndex []int

func newLineIndex(source string) lineIndex {
	var starts lineIndex
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			starts = append(starts, i)
		}
	}
	return starts
}

func (l lineIndex) at(pos int) int {
	return sort.SearchInts(l, pos) + 1
}

// lineAt returns the 1-based line number of a byte offset
func lineAt(source string, pos int) int {
	return strings.Count(source[:pos], "\n") + 1
}

// blockDepths records the brace and paren depth in effect at every byte of
// a class block. The block's own opening brace puts members at depth 1.
func blockDepths(block string) (braces, parens []int) {
	braces = make([]int, len(block)+1)
	parens = make([]int, len(block)+1)
	b, p := 0, 0
	for i := 0; i < len(block); i++ {
		braces[i], parens[i] = b, p
		switch block[i] {
		case '{':
			b++
		case '}':
			b--
		case '(':
			p++
		case ')':
			if p > 0 {
				p--
			}
		}
	}
	braces[len(block)], parens[len(block)] = b, p
	return braces, parens
}

func scriptClasses(source, module string) []models.ClassEntity {
	var classes []models.ClassEntity

	for _, m := range scriptClassRe.FindAllStringSubmatchIndex(source, -1) {
		cls := models.ClassEntity{
			Name:       source[m[4]:m[5]],
			Module:     module,
			Bases:      []string{},
			Line:       lineAt(source, m[0]),
			IsAbstract: m[2] >= 0,
		}
		if m[6] >= 0 {
			cls.Bases = append(cls.Bases, source[m[6]:m[7]])
		}
		if m[8] >= 0 {
			cls.Implements = splitTypeList(source[m[8]:m[9]])
		}

		block := ExtractBlock(source, m[1]-1)
		cls.Methods = scriptMethods(block, lineAt(source, m[1]-1))
		cls.Attributes = scriptProperties(block)
		classes = append(classes, cls)
	}

	return classes
}

func scriptInterfaces(source, module string) []models.ClassEntity {
	var ifaces []models.ClassEntity

	for _, m := range scriptInterfaceRe.FindAllStringSubmatchIndex(source, -1) {
		cls := models.ClassEntity{
			Name:        source[m[2]:m[3]],
			Module:      module,
			Bases:       []string{},
			Methods:     []models.Method{},
			Line:        lineAt(source, m[0]),
			IsAbstract:  true,
			IsInterface: true,
		}
		if m[4] >= 0 {
			cls.Bases = splitTypeList(source[m[4]:m[5]])
		}

		block := ExtractBlock(source, m[1]-1)
		cls.Attributes = interfaceProperties(block)
		ifaces = append(ifaces, cls)
	}

	return ifaces
}

// splitTypeList splits "A, B<T>, C" into bare names
func splitTypeList(list string) []string {
	out := []string{}
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if i := strings.Index(part, "<"); i >= 0 {
			part = strings.TrimSpace(part[:i])
		}
		if part != "" && !strings.ContainsAny(part, "<>") {
			out = append(out, part)
		}
	}
	return out
}

// scriptMethods re-scans a class block for method headers at member depth
func scriptMethods(block string, firstLine int) []models.Method {
	methods := []models.Method{}
	braces, parens := blockDepths(block)

	for _, m := range scriptMethodRe.FindAllStringSubmatchIndex(block, -1) {
		nameStart := m[4]
		if braces[nameStart] != 1 || parens[nameStart] != 0 {
			continue
		}
		name := block[m[4]:m[5]]
		if reservedCallables[name] {
			continue
		}

		modifiers := strings.Fields(block[m[2]:m[3]])
		method := models.Method{
			Name:       name,
			Parameters: SplitParameters(block[m[6]:m[7]]),
			Line:       firstLine + strings.Count(block[:nameStart], "\n"),
		}
		if m[8] >= 0 {
			method.ReturnType = strings.TrimSpace(block[m[8]:m[9]])
		}

		modifier := ""
		for _, mod := range modifiers {
			switch mod {
			case "static":
				method.IsStatic = true
			case "async":
				method.IsAsync = true
			case "private", "protected", "public":
				modifier = mod
			}
		}
		method.Visibility = visibilityFor(modifier, name)
		methods = append(methods, method)
	}

	return methods
}

// scriptProperties re-scans a class block for field declarations at member
// depth, de-duplicated in first-seen order
func scriptProperties(block string) []string {
	props := []string{}
	seen := make(map[string]bool)
	braces, parens := blockDepths(block)

	for _, m := range scriptPropertyRe.FindAllStringSubmatchIndex(block, -1) {
		nameStart := m[4]
		if braces[nameStart] != 1 || parens[nameStart] != 0 {
			continue
		}
		name := block[m[4]:m[5]]
		if reservedProperties[name] || seen[name] {
			continue
		}
		seen[name] = true
		props = append(props, name)
	}

	return props
}

var interfacePropertyRe = regexp.MustCompile(`(?m)^[ \t]*(?:readonly[ \t]+)?(\w+)\??[ \t]*:`)

func interfaceProperties(block string) []string {
	props := []string{}
	braces, _ := blockDepths(block)
	for _, m := range interfacePropertyRe.FindAllStringSubmatchIndex(block, -1) {
		if braces[m[2]] == 1 {
			props = append(props, block[m[2]:m[3]])
		}
	}
	return props
}

func scriptFunctions(source, module string, exports []string) []models.FunctionEntity {
	exported := make(map[string]bool, len(exports))
	for _, name := range exports {
		exported[name] = true
	}

	functions := []models.FunctionEntity{}
	scope := newClassScope(source)
	lines := newLineIndex(source)

	for _, m := range scriptFunctionRe.FindAllStringSubmatchIndex(source, -1) {
		if scope.contains(m[0]) {
			continue
		}
		name := source[m[6]:m[7]]
		if reservedCallables[name] {
			continue
		}
		fn := models.FunctionEntity{
			Method: models.Method{
				Name:       name,
				Parameters: SplitParameters(source[m[8]:m[9]]),
				IsAsync:    m[4] >= 0,
				Visibility: visibilityFor("", name),
				Line:       lines.at(m[0]),
			},
			Module:   module,
			Exported: m[2] >= 0 || exported[name],
		}
		if m[10] >= 0 {
			fn.ReturnType = strings.TrimSpace(source[m[10]:m[11]])
		}
		functions = append(functions, fn)
	}

	for _, m := range scriptArrowRe.FindAllStringSubmatchIndex(source, -1) {
		if scope.contains(m[0]) {
			continue
		}
		name := source[m[4]:m[5]]
		fn := models.FunctionEntity{
			Method: models.Method{
				Name:       name,
				Parameters: []models.Parameter{},
				IsAsync:    m[6] >= 0,
				Visibility: visibilityFor("", name),
				Line:       lines.at(m[0]),
			},
			Module:   module,
			Exported: m[2] >= 0 || exported[name],
		}
		switch {
		case m[8] >= 0:
			fn.Parameters = SplitParameters(source[m[8]:m[9]])
		case m[10] >= 0:
			fn.Parameters = []models.Parameter{{Name: source[m[10]:m[11]]}}
		}
		if m[12] >= 0 {
			fn.ReturnType = strings.TrimSpace(source[m[12]:m[13]])
		}
		functions = append(functions, fn)
	}

	return functions
}

func scriptImports(source, module string) []models.DependencyEdge {
	deps := []models.DependencyEdge{}

	for _, m := range scriptImportRe.FindAllStringSubmatchIndex(source, -1) {
		names := []string{}
		if m[2] >= 0 {
			names = append(names, source[m[2]:m[3]])
		}
		if m[4] >= 0 {
			names = append(names, importedNames(source[m[4]:m[5]])...)
		}
		if m[6] >= 0 {
			names = append(names, "* as "+source[m[6]:m[7]])
		}

		target, kind := models.ScriptImportTarget(source[m[8]:m[9]])
		deps = append(deps, models.DependencyEdge{
			Source: module,
			Target: target,
			Kind:   kind,
			Names:  names,
			Line:   lineAt(source, m[0]),
		})
	}

	for _, m := range scriptRequireRe.FindAllStringSubmatchIndex(source, -1) {
		names := []string{}
		if m[2] >= 0 {
			names = importedNames(source[m[2]:m[3]])
		}
		if m[4] >= 0 {
			names = append(names, source[m[4]:m[5]])
		}

		target, kind := models.ScriptImportTarget(source[m[6]:m[7]])
		deps = append(deps, models.DependencyEdge{
			Source: module,
			Target: target,
			Kind:   kind,
			Names:  names,
			Line:   lineAt(source, m[0]),
		})
	}

	return deps
}

// importedNames splits a braced import list, dropping aliases and type markers
func importedNames(list string) []string {
	names := []string{}
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "type ")
		if name, _, ok := strings.Cut(part, " as "); ok {
			part = name
		}
		if name, _, ok := strings.Cut(part, ":"); ok {
			part = name
		}
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

func scriptExports(source string) []string {
	var exports []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			exports = append(exports, name)
		}
	}

	for _, m := range scriptExportRe.FindAllStringSubmatch(source, -1) {
		add(m[1])
	}
	for _, m := range scriptExportListRe.FindAllStringSubmatch(source, -1) {
		for _, name := range importedNames(m[1]) {
			add(name)
		}
	}
	return exports
}

// visibilityFor prefers an explicit modifier keyword, then the # and _
// naming conventions
func visibilityFor(modifier, name string) models.Visibility {
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
