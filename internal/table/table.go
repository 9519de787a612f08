// Package table normalizes schema documents into an ordered tree of typed
// rows, each carrying the type-specific attributes of its schema.
package table

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mcncl/yapigen/internal/config"
	"github.com/mcncl/yapigen/internal/errors"
	"github.com/mcncl/yapigen/internal/logging"
	"github.com/mcncl/yapigen/internal/models"
	"github.com/mcncl/yapigen/internal/schema"
)

// RootKey is the key of the root row, and the prefix of root member keys.
const RootKey = "0"

// Node is one normalized row. Name and Required only apply to object
// members; Sub is nil for object rows.
type Node struct {
	Key      string            `json:"key"`
	Name     string            `json:"name,omitempty"`
	Member   bool              `json:"-"`
	Required bool              `json:"required,omitempty"`
	Type     schema.SchemaType `json:"type"`
	Desc     string            `json:"desc,omitempty"`
	Default  models.JSONValue  `json:"default,omitempty"`
	Sub      Facet             `json:"sub,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// Kind returns the kind of a single-keyword row type.
func (n *Node) Kind() schema.Kind {
	return n.Type.Kind()
}

// Builder normalizes schema documents. The array row counter is owned by
// the Builder and only ever increases, so wrapper keys stay unique across
// calls and goroutines sharing one Builder.
type Builder struct {
	counter  atomic.Uint64
	maxDepth int
	logger   *zap.Logger
}

// NewBuilder creates a Builder using the configured depth limit.
func NewBuilder(cfg *config.Config, logger *zap.Logger) *Builder {
	maxDepth := schema.DefaultMaxDepth
	if cfg != nil && cfg.Limits.MaxDepth > 0 {
		maxDepth = cfg.Limits.MaxDepth
	}
	return &Builder{
		maxDepth: maxDepth,
		logger:   logging.OrNop(logger),
	}
}

// Normalize converts a schema into rows. An object root yields its member
// list; any other root yields a single row keyed RootKey. On failure no
// rows are returned.
func (b *Builder) Normalize(root *schema.Node) ([]*Node, error) {
	if root == nil {
		return nil, errors.NewMalformedError("schema is empty", errors.ErrNotAnObject)
	}
	var (
		rows []*Node
		err  error
	)
	if root.EffectiveType().Kind() == schema.KindObject {
		rows, err = b.members(root, RootKey, 0)
	} else {
		var row *Node
		row, err = b.build(root, RootKey, 0)
		rows = []*Node{row}
	}
	if err != nil {
		b.logger.Debug("normalization failed", zap.Error(err))
		return nil, err
	}
	return rows, nil
}

func (b *Builder) nextArrayKey() string {
	return "array-" + strconv.FormatUint(b.counter.Add(1), 10)
}

func (b *Builder) checkDepth(key string, depth int) error {
	if depth > b.maxDepth {
		return errors.NewRecursionError(
			fmt.Sprintf("row %s is nested deeper than %d levels", key, b.maxDepth),
			errors.ErrDepthExceeded,
		)
	}
	return nil
}

// build normalizes a non-object schema into a single row.
func (b *Builder) build(n *schema.Node, key string, depth int) (*Node, error) {
	if err := b.checkDepth(key, depth); err != nil {
		return nil, err
	}
	t := n.EffectiveType()
	row := &Node{
		Key:     key,
		Type:    t,
		Desc:    n.Desc(),
		Default: n.Default,
	}

	switch t.Kind() {
	case schema.KindString:
		row.Sub = stringFacet(n)
	case schema.KindNumber, schema.KindInteger:
		row.Sub = numberFacet(n)
	case schema.KindBoolean:
		row.Sub = &BooleanFacet{Enum: n.Enum, Mock: n.Mock}
	case schema.KindArray:
		sub, children, err := b.array(n, key, depth)
		if err != nil {
			return nil, err
		}
		row.Sub = sub
		row.Children = children
	case schema.KindObject:
		children, err := b.members(n, key, depth)
		if err != nil {
			return nil, err
		}
		row.Children = children
	default:
		row.Sub = &OtherFacet{Mock: n.Mock}
	}
	return row, nil
}

// array builds the facet and children of an array row. Object items
// contribute their members keyed off the array's key; any other item
// becomes one wrapper row with a counter key.
func (b *Builder) array(n *schema.Node, key string, depth int) (*ArrayFacet, []*Node, error) {
	items := n.Items
	if items == nil {
		items = &schema.Node{Type: schema.Single("string")}
	}
	itemType := items.EffectiveType()
	sub := &ArrayFacet{
		MinItems:    n.MinItems,
		MaxItems:    n.MaxItems,
		UniqueItems: n.UniqueItems,
		ItemType:    itemType,
	}
	if itemType.Kind() == schema.KindString {
		sub.ItemFormat = items.Format
	}

	if itemType.Kind() == schema.KindObject {
		children, err := b.members(items, key, depth+1)
		if err != nil {
			return nil, nil, err
		}
		return sub, children, nil
	}

	child, err := b.build(items, key, depth+1)
	if err != nil {
		return nil, nil, err
	}
	child.Key = b.nextArrayKey()
	return sub, []*Node{child}, nil
}

// members normalizes the properties of an object schema in declaration
// order.
func (b *Builder) members(parent *schema.Node, key string, depth int) ([]*Node, error) {
	if err := b.checkDepth(key, depth); err != nil {
		return nil, err
	}
	rows := make([]*Node, 0, len(parent.Properties))
	for i, p := range parent.Properties {
		childKey := key + "-" + strconv.Itoa(i)
		m := p.Schema
		row := &Node{
			Key:      childKey,
			Name:     p.Name,
			Member:   true,
			Required: schema.MemberRequired(parent, p.Name, m),
			Desc:     m.Desc(),
		}

		if m.EffectiveType().Kind() == schema.KindObject {
			children, err := b.members(m, childKey, depth+1)
			if err != nil {
				return nil, err
			}
			row.Type = schema.Single("object")
			row.Children = children
		} else {
			built, err := b.build(m, childKey, depth+1)
			if err != nil {
				return nil, err
			}
			row.Type = built.Type
			row.Default = built.Default
			row.Sub = built.Sub
			row.Children = built.Children
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func stringFacet(n *schema.Node) *StringFacet {
	return &StringFacet{
		MinLength: n.MinLength,
		MaxLength: n.MaxLength,
		Enum:      n.Enum,
		EnumDesc:  n.EnumDesc,
		Format:    n.Format,
		Mock:      n.Mock,
	}
}

func numberFacet(n *schema.Node) *NumberFacet {
	return &NumberFacet{
		Minimum:  n.Minimum,
		Maximum:  n.Maximum,
		Enum:     n.Enum,
		EnumDesc: n.EnumDesc,
		Format:   n.Format,
		Mock:     n.Mock,
	}
}
