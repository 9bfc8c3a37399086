package diagram

import (
	"strings"
	"unicode"
)

// reservedIDs are web dialect keywords that end or open a block when used
// as a bare node id
var reservedIDs = map[string]bool{
	"end":       true,
	"graph":     true,
	"subgraph":  true,
	"flowchart": true,
	"class":     true,
	"classDef":  true,
	"style":     true,
	"linkStyle": true,
	"click":     true,
	"direction": true,
}

// SanitizeID reduces name to the web dialect's identifier set: ASCII
// letters, digits and underscore, never starting with a digit and never a
// reserved keyword
func SanitizeID(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	id := sb.String()
	if id == "" {
		return "unnamed"
	}
	if (id[0] >= '0' && id[0] <= '9') || reservedIDs[id] {
		id = "_" + id
	}
	return id
}

var labelReplacer = strings.NewReplacer(
	`"`, "'",
	"<", "",
	">", "",
	":", "_",
	"|", "_",
)

// SanitizeLabel strips the characters that break web dialect blocks
func SanitizeLabel(text string) string {
	return labelReplacer.Replace(text)
}

// quote escapes a name for a double-quoted string in the UML and
// graph-layout dialects
func quote(s string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
}

var recordReplacer = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"{", `\{`,
	"}", `\}`,
	"|", `\|`,
	"<", `\<`,
	">", `\>`,
)

// escapeRecord escapes text placed inside a graph-layout record label
func escapeRecord(s string) string {
	return recordReplacer.Replace(s)
}

// visibilityMarker is "-" for underscore-prefixed or private names, "#" for
// protected ones and "+" otherwise
func visibilityMarker(name string, private, protected bool) string {
	switch {
	case strings.HasPrefix(name, "_") || strings.HasPrefix(name, "#") || private:
		return "-"
	case protected:
		return "#"
	default:
		return "+"
	}
}
