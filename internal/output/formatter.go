package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/codevision/internal/diagram"
	cverrors "github.com/rohankatakam/codevision/internal/errors"
)

// Formatter writes a diagram bundle in one output format
type Formatter interface {
	Format(b *diagram.Bundle, w io.Writer) error
}

// Output format names
const (
	FormatPlantUML = "plantuml"
	FormatDOT      = "dot"
	FormatMermaid  = "mermaid"
	FormatJSON     = "json"
	FormatBundle   = "bundle"
	FormatYAML     = "yaml"
)

// Formats lists the accepted format names
var Formats = []string{FormatPlantUML, FormatDOT, FormatMermaid, FormatJSON, FormatBundle, FormatYAML}

// NewFormatter returns the formatter for name
func NewFormatter(name string) (Formatter, error) {
	switch strings.ToLower(name) {
	case FormatPlantUML, "puml", "uml":
		return &NotationFormatter{notation: FormatPlantUML}, nil
	case FormatDOT, "graphviz":
		return &NotationFormatter{notation: FormatDOT}, nil
	case FormatMermaid, "mmd":
		return &NotationFormatter{notation: FormatMermaid}, nil
	case FormatJSON:
		return &DocumentFormatter{}, nil
	case FormatBundle, "":
		return &BundleFormatter{}, nil
	case FormatYAML, "yml":
		return &BundleFormatter{yaml: true}, nil
	default:
		return nil, cverrors.ValidationErrorf("unknown output format %q (want one of %s)", name, strings.Join(Formats, ", "))
	}
}

// NotationFormatter writes the raw text of one notation
type NotationFormatter struct {
	notation string
}

func (f *NotationFormatter) Format(b *diagram.Bundle, w io.Writer) error {
	text, ok := b.Notation(f.notation)
	if !ok {
		return cverrors.InternalErrorf("bundle has no %s notation", f.notation)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

// DocumentFormatter writes the generic node/edge structure as JSON
type DocumentFormatter struct{}

func (f *DocumentFormatter) Format(b *diagram.Bundle, w io.Writer) error {
	return writeJSON(w, b.JSON)
}

// BundleFormatter writes the whole bundle as JSON or YAML
type BundleFormatter struct {
	yaml bool
}

func (f *BundleFormatter) Format(b *diagram.Bundle, w io.Writer) error {
	if f.yaml {
		return writeYAML(w, b)
	}
	return writeJSON(w, b)
}

// WriteData encodes any result (extraction dumps, run stats, store
// listings) as indented JSON or as YAML
func WriteData(w io.Writer, v interface{}, format string) error {
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		return writeYAML(w, v)
	case FormatJSON, "":
		return writeJSON(w, v)
	default:
		return cverrors.ValidationErrorf("unknown data format %q (want json or yaml)", format)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
