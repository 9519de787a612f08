package generator

import (
	"regexp"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/mcncl/yapigen/internal/models"
	"github.com/mcncl/yapigen/internal/schema"
)

// indentUnit is one level of declaration indentation.
const indentUnit = "  "

var identifierRegex = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// basicTypes maps scalar keywords to declaration types.
var basicTypes = map[schema.Kind]string{
	schema.KindBoolean: "boolean",
	schema.KindInteger: "number",
	schema.KindNull:    "null",
	schema.KindNumber:  "number",
	schema.KindString:  "string",
	schema.KindLong:    "string | number",
}

// unionTypes extends basicTypes with the forms complex kinds take inside a
// union.
var unionTypes = map[schema.Kind]string{
	schema.KindArray:  "any[]",
	schema.KindObject: "Record<string, any>",
}

// Render renders a node as a declaration type expression.
func Render(n TypeNode) string {
	return render(n, 0)
}

func render(n TypeNode, tab int) string {
	switch v := n.(type) {
	case *Scalar:
		return scalarType(v.Kinds)
	case *Object:
		return renderObject(v, tab)
	case *Array:
		// Array items stay at the current level.
		item := render(v.Items, tab)
		if _, ok := v.Items.(*Scalar); ok && strings.Contains(item, "|") {
			item = "(" + item + ")"
		}
		return item + "[]"
	default:
		return "any"
	}
}

func renderObject(o *Object, tab int) string {
	if len(o.Properties) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{")
	for _, m := range o.Properties {
		b.WriteString(formatComment(m.Type.Meta().Description, tab))
		b.WriteString("\n")
		b.WriteString(strings.Repeat(indentUnit, tab+1))
		b.WriteString(encodeKey(m.Name))
		if o.IsRequired(m.Name) {
			b.WriteString(": ")
		} else {
			b.WriteString("?: ")
		}
		b.WriteString(render(m.Type, tab+1))
		b.WriteString(";")
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat(indentUnit, tab))
	b.WriteString("}")
	return b.String()
}

// scalarType maps keywords to a type. A union is produced only when every
// keyword maps; anything unfamiliar becomes any.
func scalarType(kinds []string) string {
	switch len(kinds) {
	case 0:
		return "any"
	case 1:
		if t, ok := basicTypes[schema.ParseKind(kinds[0])]; ok {
			return t
		}
		return "any"
	}

	seen := make(map[string]bool, len(kinds))
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		kind := schema.ParseKind(k)
		t, ok := basicTypes[kind]
		if !ok {
			t, ok = unionTypes[kind]
		}
		if !ok {
			return "any"
		}
		if !seen[t] {
			seen[t] = true
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " | ")
}

// formatComment renders a doc comment line one level inside tab, or
// nothing for an empty description.
func formatComment(desc string, tab int) string {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return ""
	}
	desc = strings.ReplaceAll(desc, "*/", "*\\/")
	desc = strings.Join(strings.Fields(desc), " ")
	return "\n" + strings.Repeat(indentUnit, tab+1) + "/** " + desc + " */"
}

// encodeKey quotes property names that are not bare identifiers.
func encodeKey(key string) string {
	if identifierRegex.MatchString(key) {
		return key
	}
	quoted, err := gojson.Marshal(key)
	if err != nil {
		return `"` + key + `"`
	}
	return string(quoted)
}

// isBraceBlock reports whether rendered text is a single object block.
func isBraceBlock(text string) bool {
	return strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}")
}

// Declaration names a rendered node. Brace blocks become interfaces;
// everything else (basic types, arrays, unions) becomes a type alias.
func Declaration(name string, n TypeNode) string {
	text := Render(n)
	if isBraceBlock(text) {
		return "interface " + name + " " + text
	}
	return "type " + name + " = " + text + ";"
}

// QueryDeclaration renders a flat parameter list. Every member is a string;
// a Required flag of "0" makes it optional.
func QueryDeclaration(name string, params []models.Param) string {
	var b strings.Builder
	b.WriteString("interface ")
	b.WriteString(name)
	b.WriteString(" {")
	for _, p := range params {
		b.WriteString(formatComment(p.Desc, 0))
		b.WriteString("\n")
		b.WriteString(indentUnit)
		b.WriteString(encodeKey(p.Name))
		if p.IsOptional() {
			b.WriteString("?: ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString("string;")
	}
	b.WriteString("\n}")
	return b.String()
}
