package extract

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rohankatakam/codevision/internal/models"
)

// genericRule holds the three patterns one fallback language is scanned with.
// Group 1 is the entity name; classRe may capture a single base in group 2
// and importRe may capture the target in either group 1 or group 2.
type genericRule struct {
	classRe  *regexp.Regexp
	funcRe   *regexp.Regexp
	importRe *regexp.Regexp
	// include strips a file extension from the import target (C headers)
	include bool
}

var (
	javaRule = genericRule{
		classRe:  regexp.MustCompile(`(?:public\s+)?(?:abstract\s+)?class\s+(\w+)(?:\s+extends\s+(\w+))?(?:\s+implements\s+[\w,\s]+)?`),
		funcRe:   regexp.MustCompile(`(?:public|private|protected)?\s*(?:static\s+)?(?:\w+)\s+(\w+)\s*\([^)]*\)`),
		importRe: regexp.MustCompile(`import\s+([\w.]+)`),
	}
	cRule = genericRule{
		classRe:  regexp.MustCompile(`class\s+(\w+)(?:\s*:\s*(?:public|private|protected)\s+(\w+))?`),
		funcRe:   regexp.MustCompile(`(?:\w+\s+)+(\w+)\s*\([^)]*\)\s*{`),
		importRe: regexp.MustCompile(`#include\s*[<"]([^>"]+)[>"]`),
		include:  true,
	}
)

// genericRules is the dispatch table for languages without a dedicated extractor
var genericRules = map[string]genericRule{
	".java": javaRule,
	".kt":   javaRule,
	".go": {
		classRe:  regexp.MustCompile(`type\s+(\w+)\s+struct`),
		funcRe:   regexp.MustCompile(`func\s+(?:\([^)]+\)\s+)?(\w+)\s*\(`),
		importRe: regexp.MustCompile(`import\s+(?:"([^"]+)"|\(\s*"([^"]+)")`),
	},
	".rs": {
		classRe:  regexp.MustCompile(`(?:pub\s+)?struct\s+(\w+)`),
		funcRe:   regexp.MustCompile(`(?:pub\s+)?fn\s+(\w+)`),
		importRe: regexp.MustCompile(`use\s+([\w:]+)`),
	},
	".rb": {
		classRe:  regexp.MustCompile(`class\s+(\w+)(?:\s*<\s*(\w+))?`),
		funcRe:   regexp.MustCompile(`def\s+(\w+)`),
		importRe: regexp.MustCompile(`require\s+['"]([^'"]+)['"]`),
	},
	".php": {
		classRe:  regexp.MustCompile(`class\s+(\w+)(?:\s+extends\s+(\w+))?`),
		funcRe:   regexp.MustCompile(`(?:public|private|protected)?\s*function\s+(\w+)`),
		importRe: regexp.MustCompile(`use\s+([\w\\]+)`),
	},
	".cs": {
		classRe:  regexp.MustCompile(`(?:public\s+)?(?:abstract\s+)?class\s+(\w+)(?:\s*:\s*(\w+))?`),
		funcRe:   regexp.MustCompile(`(?:public|private|protected)?\s*(?:static\s+)?(?:\w+)\s+(\w+)\s*\(`),
		importRe: regexp.MustCompile(`using\s+([\w.]+)`),
	},
	".swift": {
		classRe:  regexp.MustCompile(`class\s+(\w+)(?:\s*:\s*(\w+))?`),
		funcRe:   regexp.MustCompile(`func\s+(\w+)`),
		importRe: regexp.MustCompile(`import\s+(\w+)`),
	},
	".c":   cRule,
	".cpp": cRule,
	".h":   cRule,
	".hpp": cRule,
}

// genericSkipNames are keywords the loose function patterns pick up
var genericSkipNames = map[string]bool{
	"if":     true,
	"for":    true,
	"while":  true,
	"switch": true,
	"catch":  true,
	"return": true,
	"new":    true,
}

// GenericExtractor scans a file with one language's fallback patterns.
// It reports names, single bases and module imports only.
type GenericExtractor struct {
	ext   string
	rules genericRule
}

// NewGenericExtractor returns the fallback extractor for ext, or false when
// the extension has no rule
func NewGenericExtractor(ext string) (*GenericExtractor, bool) {
	ext = strings.ToLower(ext)
	rules, ok := genericRules[ext]
	if !ok {
		return nil, false
	}
	return &GenericExtractor{ext: ext, rules: rules}, true
}

// Language is the extension without its dot
func (g *GenericExtractor) Language() string {
	return strings.TrimPrefix(g.ext, ".")
}

// Extract never fails; unmatched constructs are simply absent
func (g *GenericExtractor) Extract(filePath string, code []byte) (*models.FileResult, error) {
	source := string(code)
	module := models.ModuleName(filePath)

	result := &models.FileResult{
		Module: models.Module{
			Name:      module,
			FilePath:  filePath,
			Language:  g.Language(),
			LineCount: len(strings.Split(source, "\n")),
		},
	}

	for _, m := range g.rules.classRe.FindAllStringSubmatchIndex(source, -1) {
		cls := models.ClassEntity{
			Name:       source[m[2]:m[3]],
			Module:     module,
			Bases:      []string{},
			Methods:    []models.Method{},
			Attributes: []string{},
			Line:       lineAt(source, m[0]),
		}
		if len(m) > 5 && m[4] >= 0 {
			cls.Bases = append(cls.Bases, source[m[4]:m[5]])
		}
		result.Classes = append(result.Classes, cls)
	}

	for _, m := range g.rules.funcRe.FindAllStringSubmatchIndex(source, -1) {
		name := source[m[2]:m[3]]
		if genericSkipNames[name] {
			continue
		}
		result.Functions = append(result.Functions, models.FunctionEntity{
			Method: models.Method{
				Name:       name,
				Parameters: []models.Parameter{},
				Visibility: models.VisibilityPublic,
				Line:       lineAt(source, m[0]),
			},
			Module: module,
		})
	}

	for _, m := range g.rules.importRe.FindAllStringSubmatchIndex(source, -1) {
		spec := ""
		switch {
		case m[2] >= 0:
			spec = source[m[2]:m[3]]
		case len(m) > 5 && m[4] >= 0:
			spec = source[m[4]:m[5]]
		}
		target := GenericImportTarget(spec, g.rules.include)
		if target == "" {
			continue
		}
		result.Dependencies = append(result.Dependencies, models.DependencyEdge{
			Source: module,
			Target: target,
			Kind:   models.ImportModule,
			Names:  []string{spec},
			Line:   lineAt(source, m[0]),
		})
	}

	result.Finalize()
	return result, nil
}

// GenericImportTarget reduces an import path to its last segment, splitting
// on `.`, `::`, `/` and `\`. Header includes lose their extension first.
func GenericImportTarget(spec string, include bool) string {
	spec = strings.TrimSpace(spec)
	if include {
		spec = strings.TrimSuffix(spec, filepath.Ext(spec))
	}
	spec = strings.ReplaceAll(spec, "::", "/")
	spec = strings.ReplaceAll(spec, "\\", "/")
	spec = strings.ReplaceAll(spec, ".", "/")

	parts := strings.Split(spec, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if p := strings.TrimSpace(parts[i]); p != "" {
			return p
		}
	}
	return ""
}
