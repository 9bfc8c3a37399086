package models

import (
	"path/filepath"
	"strings"
)

// ModuleName derives a module name from a file path: the file stem, or the
// parent directory name for a package initializer (__init__.py)
func ModuleName(filePath string) string {
	base := filepath.Base(filePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "__init__" {
		parent := filepath.Base(filepath.Dir(filePath))
		if parent != "." && parent != string(filepath.Separator) && parent != "" {
			return parent
		}
	}
	return stem
}

// Visibility of a method or function
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
)

// ImportKind classifies a dependency edge by the import form that produced it
type ImportKind string

const (
	ImportModule   ImportKind = "module"   // import a.b
	ImportFrom     ImportKind = "from"     // from a import b
	ImportRelative ImportKind = "relative" // from . import b, import x from './y'
	ImportPackage  ImportKind = "package"  // import x from 'pkg', use a::b, #include <x>
)

// Module is one parsed source file
type Module struct {
	Name          string   `json:"name" yaml:"name"`
	FilePath      string   `json:"file_path" yaml:"file_path"`
	Language      string   `json:"language" yaml:"language"`
	LineCount     int      `json:"line_count" yaml:"line_count"`
	ClassCount    int      `json:"class_count" yaml:"class_count"`
	FunctionCount int      `json:"function_count" yaml:"function_count"`
	Docstring     string   `json:"docstring,omitempty" yaml:"docstring,omitempty"`
	Exports       []string `json:"exports,omitempty" yaml:"exports,omitempty"`
}

// Parameter of a method or function
type Parameter struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Method is a class-scoped callable
type Method struct {
	Name       string      `json:"name" yaml:"name"`
	Parameters []Parameter `json:"parameters" yaml:"parameters"`
	ReturnType string      `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	IsAsync    bool        `json:"is_async" yaml:"is_async"`
	IsStatic   bool        `json:"is_static" yaml:"is_static"`
	IsMagic    bool        `json:"is_magic,omitempty" yaml:"is_magic,omitempty"`
	Visibility Visibility  `json:"visibility" yaml:"visibility"`
	Decorators []string    `json:"decorators,omitempty" yaml:"decorators,omitempty"`
	Docstring  string      `json:"docstring,omitempty" yaml:"docstring,omitempty"`
	Line       int         `json:"line" yaml:"line"`
}

// ParameterNames returns parameter names in declaration order
func (m Method) ParameterNames() []string {
	names := make([]string, 0, len(m.Parameters))
	for _, p := range m.Parameters {
		names = append(names, p.Name)
	}
	return names
}

// FunctionEntity is a module-scoped callable
type FunctionEntity struct {
	Method   `yaml:",inline"`
	Module   string `json:"module" yaml:"module"`
	Exported bool   `json:"exported" yaml:"exported"`
}

// ClassEntity is a class, or an interface in dialects that declare them.
// Bases are kept as written and may not resolve to any extracted class.
type ClassEntity struct {
	Name        string   `json:"name" yaml:"name"`
	Module      string   `json:"module" yaml:"module"`
	Bases       []string `json:"bases" yaml:"bases"`
	Implements  []string `json:"implements,omitempty" yaml:"implements,omitempty"`
	Methods     []Method `json:"methods" yaml:"methods"`
	Attributes  []string `json:"attributes" yaml:"attributes"`
	Decorators  []string `json:"decorators,omitempty" yaml:"decorators,omitempty"`
	Docstring   string   `json:"docstring,omitempty" yaml:"docstring,omitempty"`
	Line        int      `json:"line" yaml:"line"`
	IsAbstract  bool     `json:"is_abstract" yaml:"is_abstract"`
	IsInterface bool     `json:"is_interface,omitempty" yaml:"is_interface,omitempty"`
}

// DependencyEdge is one import statement seen in a module
type DependencyEdge struct {
	Source string     `json:"source" yaml:"source"`
	Target string     `json:"target" yaml:"target"`
	Kind   ImportKind `json:"import_type" yaml:"import_type"`
	Names  []string   `json:"names" yaml:"names"`
	Alias  string     `json:"alias,omitempty" yaml:"alias,omitempty"`
	Level  int        `json:"level,omitempty" yaml:"level,omitempty"`
	Line   int        `json:"line,omitempty" yaml:"line,omitempty"`
}

// FileResult is the output of extracting a single file
type FileResult struct {
	Module       Module           `json:"module" yaml:"module"`
	Classes      []ClassEntity    `json:"classes" yaml:"classes"`
	Functions    []FunctionEntity `json:"functions" yaml:"functions"`
	Dependencies []DependencyEdge `json:"dependencies" yaml:"dependencies"`
}

// Finalize fills in the derived module counts
func (r *FileResult) Finalize() {
	r.Module.ClassCount = len(r.Classes)
	r.Module.FunctionCount = len(r.Functions)
	if r.Classes == nil {
		r.Classes = []ClassEntity{}
	}
	if r.Functions == nil {
		r.Functions = []FunctionEntity{}
	}
	if r.Dependencies == nil {
		r.Dependencies = []DependencyEdge{}
	}
}

// Graph is the run-scoped aggregate of every extracted file
type Graph struct {
	Modules      []Module         `json:"modules" yaml:"modules"`
	Classes      []ClassEntity    `json:"classes" yaml:"classes"`
	Functions    []FunctionEntity `json:"functions" yaml:"functions"`
	Dependencies []DependencyEdge `json:"dependencies" yaml:"dependencies"`
}

// IsEmpty reports whether the graph has neither modules nor classes
func (g *Graph) IsEmpty() bool {
	return g == nil || (len(g.Modules) == 0 && len(g.Classes) == 0)
}

// ScriptImportTarget maps a script module specifier to a dependency target
// and kind. Relative specifiers ("./models/user") use their first non-dot
// segment, scoped packages drop the "@".
func ScriptImportTarget(spec string) (string, ImportKind) {
	kind := ImportPackage
	if strings.HasPrefix(spec, ".") {
		kind = ImportRelative
	}

	for _, segment := range strings.Split(spec, "/") {
		if segment == "" || segment == "." || segment == ".." {
			continue
		}
		return strings.TrimPrefix(segment, "@"), kind
	}
	return "", kind
}
