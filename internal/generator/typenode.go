package generator

import (
	"fmt"

	"github.com/mcncl/yapigen/internal/errors"
	"github.com/mcncl/yapigen/internal/schema"
)

// TypeNode is the declaration AST. Implementations are *Scalar, *Object
// and *Array.
type TypeNode interface {
	Meta() Meta
}

// Meta holds the documentation shared by every node.
type Meta struct {
	Description string
}

// Scalar is a leaf. Kinds holds every type keyword as written; more than one
// makes a union.
type Scalar struct {
	Doc   Meta
	Kinds []string
}

// Member is one named property of an Object.
type Member struct {
	Name string
	Type TypeNode
}

// Object is a brace block. Required lists the members that render without
// the optional marker.
type Object struct {
	Doc        Meta
	Properties []Member
	Required   []string
}

// Array renders as its item type followed by [].
type Array struct {
	Doc   Meta
	Items TypeNode
}

func (s *Scalar) Meta() Meta { return s.Doc }
func (o *Object) Meta() Meta { return o.Doc }
func (a *Array) Meta() Meta  { return a.Doc }

// IsRequired reports whether the member called name is required.
func (o *Object) IsRequired(name string) bool {
	for _, r := range o.Required {
		if r == name {
			return true
		}
	}
	return false
}

// FromSchema builds the declaration AST of a schema document. Member
// requiredness is settled here with schema.MemberRequired, so declarations
// agree with normalized tables. A maxDepth of zero or less uses
// schema.DefaultMaxDepth.
func FromSchema(n *schema.Node, maxDepth int) (TypeNode, error) {
	if n == nil {
		return nil, errors.NewMalformedError("schema is empty", errors.ErrNotAnObject)
	}
	if maxDepth <= 0 {
		maxDepth = schema.DefaultMaxDepth
	}
	return fromSchema(n, "$", 0, maxDepth)
}

func fromSchema(n *schema.Node, path string, depth, maxDepth int) (TypeNode, error) {
	if depth > maxDepth {
		return nil, errors.NewRecursionError(
			fmt.Sprintf("type at %s is nested deeper than %d levels", path, maxDepth),
			errors.ErrDepthExceeded,
		)
	}
	doc := Meta{Description: n.Description}
	t := n.EffectiveType()
	if t.IsMulti() {
		return &Scalar{Doc: doc, Kinds: t.Types}, nil
	}

	switch t.Kind() {
	case schema.KindObject:
		obj := &Object{Doc: doc, Properties: make([]Member, 0, len(n.Properties))}
		for _, p := range n.Properties {
			child, err := fromSchema(p.Schema, path+"."+p.Name, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			obj.Properties = append(obj.Properties, Member{Name: p.Name, Type: child})
			if schema.MemberRequired(n, p.Name, p.Schema) {
				obj.Required = append(obj.Required, p.Name)
			}
		}
		return obj, nil
	case schema.KindArray:
		items := n.Items
		if items == nil {
			items = &schema.Node{Type: schema.Single("string")}
		}
		child, err := fromSchema(items, path+".items", depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		return &Array{Doc: doc, Items: child}, nil
	default:
		return &Scalar{Doc: doc, Kinds: t.Types}, nil
	}
}
