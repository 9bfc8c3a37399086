package extract

import (
	"strings"

	"github.com/rohankatakam/codevision/internal/models"
)

// SplitParameters splits a parameter list on commas at bracket depth zero.
// `<`, `(` and `[` open a level and their counterparts close it, so
// generic argument lists stay intact.
func SplitParameters(params string) []models.Parameter {
	out := []models.Parameter{}
	if strings.TrimSpace(params) == "" {
		return out
	}

	depth := 0
	var current strings.Builder
	flush := func() {
		if token := strings.TrimSpace(current.String()); token != "" {
			out = append(out, ParseParameter(token))
		}
		current.Reset()
	}

	var prev rune
	for _, r := range params {
		switch r {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			// the arrow of a function type is not a closing bracket
			if !(r == '>' && prev == '=') && depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush()
				continue
			}
		}
		current.WriteRune(r)
		prev = r
	}
	flush()

	return out
}

// ParseParameter splits one parameter token into name, type and default.
// The first `:` separates the type; an `=` left in the name part separates
// the default value.
func ParseParameter(token string) models.Parameter {
	p := models.Parameter{Name: strings.TrimSpace(token)}

	if name, typ, ok := strings.Cut(p.Name, ":"); ok {
		p.Name = strings.TrimSpace(name)
		p.Type = strings.TrimSpace(typ)
	}

	if name, def, ok := strings.Cut(p.Name, "="); ok {
		p.Name = strings.TrimSpace(name)
		p.Default = strings.TrimSpace(def)
	}

	// `b: number = 3` keeps the default on the type side of the split
	if typ, def, ok := strings.Cut(p.Type, "="); ok && p.Default == "" && !strings.Contains(p.Type, "=>") {
		p.Type = strings.TrimSpace(typ)
		p.Default = strings.TrimSpace(def)
	}

	return p
}
