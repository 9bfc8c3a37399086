package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	cverrors "github.com/rohankatakam/codevision/internal/errors"
	"github.com/rohankatakam/codevision/internal/logging"
	"github.com/rohankatakam/codevision/internal/models"
	"github.com/rohankatakam/codevision/internal/treesitter"
)

// Extractor converts one source file into normalized entities. Extractors
// hold no per-file state, so one instance serves concurrent calls.
type Extractor interface {
	Language() string
	Extract(filePath string, code []byte) (*models.FileResult, error)
}

// ErrUnsupported is returned for files no extractor is registered for
var ErrUnsupported = errors.New("no extractor registered for extension")

// Options selects between interchangeable extractor implementations
type Options struct {
	// ScriptMode is "heuristic" (line patterns) or "treesitter" (grammar)
	ScriptMode string
}

// Registry is the dispatch table from file extension to extractor
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Extractor)}
}

// Register binds an extension (with or without the leading dot) to an extractor
func (r *Registry) Register(ext string, e Extractor) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.byExt[ext] = e
}

// Lookup returns the extractor registered for the file's extension
func (r *Registry) Lookup(filePath string) (Extractor, bool) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(filePath))]
	return e, ok
}

// Supports reports whether any extractor handles the file
func (r *Registry) Supports(filePath string) bool {
	_, ok := r.Lookup(filePath)
	return ok
}

// Extensions returns the registered extensions in sorted order
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract runs the registered extractor for one file. Panics inside an
// extractor are converted to errors so one file cannot abort a batch.
// A nil result with a nil error means the file produced nothing.
func (r *Registry) Extract(filePath string, code []byte) (result *models.FileResult, err error) {
	e, ok := r.Lookup(filePath)
	if !ok {
		return nil, ErrUnsupported
	}

	defer func() {
		if rec := recover(); rec != nil {
			logging.Warn("extractor panicked", "path", filePath, "language", e.Language(), "panic", rec)
			result = nil
			err = cverrors.ParseErrorf("extractor panicked: %v", rec).WithContext("path", filePath)
		}
	}()

	result, err = e.Extract(filePath, code)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result, nil
}

// DefaultRegistry wires every supported dialect:
// Python to the tree-sitter grammar, JS/TS to the line-pattern extractor
// (or the grammar when opts.ScriptMode is "treesitter"), and the remaining
// languages to the generic fallback table.
func DefaultRegistry(opts Options) *Registry {
	r := NewRegistry()

	python := treesitter.NewPythonExtractor()
	for _, ext := range []string{".py", ".pyi", ".pyw"} {
		r.Register(ext, python)
	}

	heuristic := NewScriptExtractor()
	for _, ext := range []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts", ".vue"} {
		r.Register(ext, heuristic)
	}
	if opts.ScriptMode == "treesitter" {
		for _, ext := range []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts"} {
			r.Register(ext, treesitter.NewScriptExtractor(treesitter.DetectLanguage("x"+ext)))
		}
	}

	for ext, rules := range genericRules {
		r.Register(ext, &GenericExtractor{ext: ext, rules: rules})
	}

	logging.Debug("extractor registry ready", "extensions", len(r.byExt), "script_mode", opts.ScriptMode)
	return r
}

// String lists the registry for diagnostics
func (r *Registry) String() string {
	var sb strings.Builder
	for _, ext := range r.Extensions() {
		sb.WriteString(fmt.Sprintf("%s=%s ", ext, r.byExt[ext].Language()))
	}
	return strings.TrimSpace(sb.String())
}
