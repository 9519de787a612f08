// Package projector turns normalized rows back into a plain JSON template,
// either bare type names or annotated with descriptions.
package projector

import (
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/mcncl/yapigen/internal/models"
	"github.com/mcncl/yapigen/internal/schema"
	"github.com/mcncl/yapigen/internal/table"
)

// CommentPrefix starts the plain-string form of a Comment.
const CommentPrefix = "//"

// Comment is the synthetic array element that carries an array's
// description. It is a distinct type so data strings that happen to start
// with CommentPrefix are never read as comments.
type Comment string

// String returns the plain-string form, CommentPrefix followed by the text.
func (c Comment) String() string {
	return CommentPrefix + string(c)
}

// MarshalJSON encodes the comment in its plain-string form.
func (c Comment) MarshalJSON() ([]byte, error) {
	return gojson.MarshalNoEscape(c.String())
}

// RequiredMarker is appended to annotated leaves of required members.
const RequiredMarker = "<required>"

// Options controls projection output.
type Options struct {
	// TypesOnly renders bare type names instead of annotated text.
	TypesOnly bool
	// ArrayComments prefixes arrays of objects or arrays with a Comment
	// element holding the array's description. Ignored when TypesOnly is
	// set.
	ArrayComments bool
}

// Project renders rows as a JSON value. A member list becomes an object; a
// single unnamed root row becomes its own value.
func Project(rows []*table.Node, opts Options) models.JSONValue {
	p := projector{opts: opts}
	if len(rows) == 1 && !rows[0].Member {
		return p.value(rows[0])
	}
	return p.object(rows)
}

type projector struct {
	opts Options
}

func (p projector) object(rows []*table.Node) *models.JSONObject {
	obj := models.NewJSONObject()
	for _, r := range rows {
		obj.Set(r.Name, p.value(r))
	}
	return obj
}

func (p projector) value(r *table.Node) models.JSONValue {
	if r.Type.IsMulti() {
		return p.leaf(r, r.Type.Join("|"))
	}
	switch r.Kind() {
	case schema.KindObject:
		return p.object(r.Children)
	case schema.KindArray:
		return p.array(r)
	default:
		return p.leaf(r, typeName(r.Type))
	}
}

func (p projector) array(r *table.Node) models.JSONValue {
	var itemType schema.SchemaType
	if af, ok := r.Sub.(*table.ArrayFacet); ok {
		itemType = af.ItemType
	}

	switch {
	case itemType.IsMulti():
		return models.JSONArray{p.leaf(r, itemType.Join("|"))}
	case itemType.Kind() == schema.KindObject:
		return p.withComment(r, p.object(r.Children))
	case itemType.Kind() == schema.KindArray:
		var inner models.JSONValue = models.JSONArray{}
		if len(r.Children) > 0 {
			inner = p.value(r.Children[0])
		}
		return p.withComment(r, inner)
	default:
		return models.JSONArray{p.leaf(r, typeName(itemType))}
	}
}

func (p projector) withComment(r *table.Node, item models.JSONValue) models.JSONArray {
	out := models.JSONArray{}
	if p.opts.ArrayComments && !p.opts.TypesOnly {
		if desc := p.annotate(r, ""); desc != "" {
			out = append(out, Comment(desc))
		}
	}
	return append(out, item)
}

func (p projector) leaf(r *table.Node, typ string) string {
	if p.opts.TypesOnly {
		return typ
	}
	return p.annotate(r, typ)
}

// annotate composes "<desc> <enumDesc> <type> <required>", dropping empty
// segments.
func (p projector) annotate(r *table.Node, typ string) string {
	parts := make([]string, 0, 4)
	if d := strings.TrimSpace(r.Desc); d != "" {
		parts = append(parts, d)
	}
	if r.Sub != nil {
		if e := strings.TrimSpace(r.Sub.EnumText()); e != "" {
			parts = append(parts, e)
		}
	}
	if typ != "" {
		parts = append(parts, "<"+typ+">")
	}
	if r.Required {
		parts = append(parts, RequiredMarker)
	}
	return strings.Join(parts, " ")
}

// typeName returns the keyword of a single type, or "any" when none was
// given.
func typeName(t schema.SchemaType) string {
	if !t.IsSet() {
		return "any"
	}
	return t.Primary()
}
