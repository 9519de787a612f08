// Package schema provides the schema document model shared by every
// transformation: decoding from ordered JSON values, encoding back, and the
// required-membership rule.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mcncl/yapigen/internal/errors"
	"github.com/mcncl/yapigen/internal/models"
	"github.com/mcncl/yapigen/internal/parser"
)

// DefaultMaxDepth bounds nesting when no explicit limit is configured.
const DefaultMaxDepth = parser.DefaultMaxDepth

// Property is one named member of an object schema.
type Property struct {
	Name   string
	Schema *Node
}

// Node represents one schema document node. Nodes are read-only once
// decoded; every transformation builds new values instead of editing them.
type Node struct {
	Type        SchemaType
	Title       string
	Description string

	Default models.JSONValue
	Enum    []models.JSONValue
	// EnumDesc is the free-text explanation of the enum values.
	EnumDesc string
	Format   string
	// Mock is the directive stored under mock.mock.
	Mock string

	// Numeric constraints
	Minimum *float64
	Maximum *float64

	// String constraints
	MinLength *int
	MaxLength *int

	// Array constraints
	MinItems    *int
	MaxItems    *int
	UniqueItems bool

	// Object members in declaration order. PropertiesSet records that a
	// properties object was present, even an empty one.
	Properties    []Property
	PropertiesSet bool
	Required      []string
	// RequiredFlag is a member-level scalar required marker such as "0",
	// "1" or true. Nil when absent.
	RequiredFlag *bool

	Items *Node

	// Extra keeps unknown keys in document order.
	Extra *models.JSONObject
}

// ParseString parses a schema document, accepting relaxed JSON.
func ParseString(content string, maxDepth int) (*Node, error) {
	ir, err := parser.NewParser(maxDepth).ParseLenient(content)
	if err != nil {
		return nil, err
	}
	return FromValue(ir.Root, maxDepth)
}

// ParseFile reads and parses a schema document from a file.
func ParseFile(path string, maxDepth int) (*Node, error) {
	ir, err := parser.NewParser(maxDepth).ParseFile(path)
	if err != nil {
		return nil, err
	}
	return FromValue(ir.Root, maxDepth)
}

// FromValue decodes an ordered JSON value into a Node. A maxDepth of zero or
// less uses DefaultMaxDepth.
func FromValue(v models.JSONValue, maxDepth int) (*Node, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	d := &decoder{maxDepth: maxDepth}
	return d.node(v, "$", 0)
}

type decoder struct {
	maxDepth int
}

func (d *decoder) node(v models.JSONValue, path string, depth int) (*Node, error) {
	if depth > d.maxDepth {
		return nil, errors.NewRecursionError(
			fmt.Sprintf("schema at %s is nested deeper than %d levels", path, d.maxDepth),
			errors.ErrDepthExceeded,
		)
	}
	obj, ok := v.(*models.JSONObject)
	if !ok {
		return nil, errors.NewMalformedError(
			fmt.Sprintf("schema at %s is %s, want an object", path, describe(v)),
			errors.ErrNotAnObject,
		)
	}

	n := &Node{}
	for _, key := range obj.Keys() {
		raw, _ := obj.Get(key)
		fieldPath := path + "." + key
		if raw == nil {
			continue
		}
		var err error
		switch key {
		case "type":
			n.Type, err = decodeType(raw, fieldPath)
		case "title":
			n.Title, err = decodeString(raw, fieldPath)
		case "description":
			n.Description, err = decodeString(raw, fieldPath)
		case "default":
			n.Default = raw
		case "enum":
			arr, ok := raw.(models.JSONArray)
			if !ok {
				err = invalidField(fieldPath, "an array", raw)
				break
			}
			n.Enum = arr
		case "enumDesc":
			n.EnumDesc, err = decodeString(raw, fieldPath)
		case "format":
			n.Format, err = decodeString(raw, fieldPath)
		case "mock":
			n.Mock, err = decodeMock(raw, fieldPath)
		case "minimum":
			n.Minimum, err = decodeFloat(raw, fieldPath)
		case "maximum":
			n.Maximum, err = decodeFloat(raw, fieldPath)
		case "minLength":
			n.MinLength, err = decodeInt(raw, fieldPath)
		case "maxLength":
			n.MaxLength, err = decodeInt(raw, fieldPath)
		case "minItems":
			n.MinItems, err = decodeInt(raw, fieldPath)
		case "maxItems":
			n.MaxItems, err = decodeInt(raw, fieldPath)
		case "uniqueItems":
			b, ok := raw.(bool)
			if !ok {
				err = invalidField(fieldPath, "a boolean", raw)
				break
			}
			n.UniqueItems = b
		case "required":
			err = d.required(n, raw, fieldPath)
		case "properties":
			err = d.properties(n, raw, fieldPath, depth)
		case "items":
			n.Items, err = d.items(raw, fieldPath, depth)
		default:
			if n.Extra == nil {
				n.Extra = models.NewJSONObject()
			}
			n.Extra.Set(key, raw)
		}
		if err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (d *decoder) required(n *Node, raw models.JSONValue, path string) error {
	switch r := raw.(type) {
	case models.JSONArray:
		names := make([]string, 0, len(r))
		for i, item := range r {
			name, ok := item.(string)
			if !ok {
				return invalidField(fmt.Sprintf("%s[%d]", path, i), "a string", item)
			}
			names = append(names, name)
		}
		n.Required = names
	case bool:
		n.RequiredFlag = &r
	case string:
		flag := r != "0" && !strings.EqualFold(r, "false") && r != ""
		n.RequiredFlag = &flag
	case json.Number:
		flag := r.String() != "0"
		n.RequiredFlag = &flag
	default:
		return invalidField(path, "a list of names or a flag", raw)
	}
	return nil
}

func (d *decoder) properties(n *Node, raw models.JSONValue, path string, depth int) error {
	props, ok := raw.(*models.JSONObject)
	if !ok {
		return invalidField(path, "an object", raw)
	}
	n.PropertiesSet = true
	n.Properties = make([]Property, 0, props.Len())
	for _, name := range props.Keys() {
		pv, _ := props.Get(name)
		child, err := d.node(pv, path+"."+name, depth+1)
		if err != nil {
			return err
		}
		n.Properties = append(n.Properties, Property{Name: name, Schema: child})
	}
	return nil
}

// items accepts a single schema or the tuple form, of which only the first
// entry is used.
func (d *decoder) items(raw models.JSONValue, path string, depth int) (*Node, error) {
	if arr, ok := raw.(models.JSONArray); ok {
		if len(arr) == 0 {
			return nil, nil
		}
		raw = arr[0]
		path += "[0]"
	}
	return d.node(raw, path, depth+1)
}

func decodeType(raw models.JSONValue, path string) (SchemaType, error) {
	switch t := raw.(type) {
	case string:
		return Single(t), nil
	case models.JSONArray:
		names := make([]string, 0, len(t))
		for i, item := range t {
			name, ok := item.(string)
			if !ok {
				return SchemaType{}, invalidField(fmt.Sprintf("%s[%d]", path, i), "a string", item)
			}
			names = append(names, name)
		}
		return SchemaType{Types: names}, nil
	default:
		return SchemaType{}, invalidField(path, "a string or array of strings", raw)
	}
}

func decodeString(raw models.JSONValue, path string) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", invalidField(path, "a string", raw)
	}
	return s, nil
}

func decodeMock(raw models.JSONValue, path string) (string, error) {
	switch m := raw.(type) {
	case string:
		return m, nil
	case *models.JSONObject:
		inner, ok := m.Get("mock")
		if !ok || inner == nil {
			return "", nil
		}
		return decodeString(inner, path+".mock")
	default:
		return "", invalidField(path, "an object or string", raw)
	}
}

func decodeFloat(raw models.JSONValue, path string) (*float64, error) {
	num, ok := raw.(json.Number)
	if !ok {
		return nil, invalidField(path, "a number", raw)
	}
	f, err := num.Float64()
	if err != nil {
		return nil, invalidField(path, "a number", raw)
	}
	return &f, nil
}

func decodeInt(raw models.JSONValue, path string) (*int, error) {
	f, err := decodeFloat(raw, path)
	if err != nil {
		return nil, err
	}
	if *f != math.Trunc(*f) {
		return nil, invalidField(path, "an integer", raw)
	}
	// -MinInt is a power of two, so both bounds are exact as float64.
	if *f < float64(math.MinInt) || *f >= -float64(math.MinInt) {
		return nil, invalidField(path, "an integer in range", raw)
	}
	i := int(*f)
	return &i, nil
}

func invalidField(path, want string, got models.JSONValue) error {
	return errors.NewMalformedError(
		fmt.Sprintf("%s is %s, want %s", path, describe(got), want),
		errors.ErrInvalidField,
	)
}

func describe(v models.JSONValue) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number:
		return "a number"
	case models.JSONArray:
		return "an array"
	case *models.JSONObject:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// EffectiveType returns the declared type, defaulting to object when the
// type is absent but properties are present.
func (n *Node) EffectiveType() SchemaType {
	if !n.Type.IsSet() && n.PropertiesSet {
		return Single("object")
	}
	return n.Type
}

// Property returns the member schema registered under name.
func (n *Node) Property(name string) (*Node, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// IsRequired reports whether name appears in the node's required list.
func (n *Node) IsRequired(name string) bool {
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}

// MemberRequired decides whether the member called name of parent is
// required. The member's own scalar flag wins when present; otherwise the
// parent's required list decides. A member's own required list describes
// its children and is not consulted here.
func MemberRequired(parent *Node, name string, member *Node) bool {
	if member != nil && member.RequiredFlag != nil {
		return *member.RequiredFlag
	}
	return parent != nil && parent.IsRequired(name)
}

// Desc joins title and description the way table rows and comments show
// them.
func (n *Node) Desc() string {
	return strings.TrimSpace(n.Title + "\n" + n.Description)
}

// Value encodes the node back into an ordered JSON object. Known fields
// come first in a fixed order, unknown keys follow in document order.
func (n *Node) Value() *models.JSONObject {
	obj := models.NewJSONObject()
	switch {
	case n.Type.IsMulti():
		arr := make(models.JSONArray, len(n.Type.Types))
		for i, t := range n.Type.Types {
			arr[i] = t
		}
		obj.Set("type", arr)
	case n.Type.IsSet():
		obj.Set("type", n.Type.Primary())
	}
	if n.Title != "" {
		obj.Set("title", n.Title)
	}
	if n.Description != "" {
		obj.Set("description", n.Description)
	}
	if n.Default != nil {
		obj.Set("default", n.Default)
	}
	if n.Enum != nil {
		obj.Set("enum", models.JSONArray(n.Enum))
	}
	if n.EnumDesc != "" {
		obj.Set("enumDesc", n.EnumDesc)
	}
	if n.Format != "" {
		obj.Set("format", n.Format)
	}
	if n.Mock != "" {
		m := models.NewJSONObject()
		m.Set("mock", n.Mock)
		obj.Set("mock", m)
	}
	setFloat(obj, "minimum", n.Minimum)
	setFloat(obj, "maximum", n.Maximum)
	setInt(obj, "minLength", n.MinLength)
	setInt(obj, "maxLength", n.MaxLength)
	setInt(obj, "minItems", n.MinItems)
	setInt(obj, "maxItems", n.MaxItems)
	if n.UniqueItems {
		obj.Set("uniqueItems", true)
	}
	switch {
	case n.RequiredFlag != nil:
		obj.Set("required", *n.RequiredFlag)
	case n.Required != nil:
		arr := make(models.JSONArray, len(n.Required))
		for i, r := range n.Required {
			arr[i] = r
		}
		obj.Set("required", arr)
	}
	if n.PropertiesSet || len(n.Properties) > 0 {
		props := models.NewJSONObject()
		for _, p := range n.Properties {
			props.Set(p.Name, p.Schema.Value())
		}
		obj.Set("properties", props)
	}
	if n.Items != nil {
		obj.Set("items", n.Items.Value())
	}
	for _, k := range n.Extra.Keys() {
		v, _ := n.Extra.Get(k)
		obj.Set(k, v)
	}
	return obj
}

func setFloat(obj *models.JSONObject, key string, f *float64) {
	if f != nil {
		obj.Set(key, models.Number(strconv.FormatFloat(*f, 'f', -1, 64)))
	}
}

func setInt(obj *models.JSONObject, key string, i *int) {
	if i != nil {
		obj.Set(key, models.Number(strconv.Itoa(*i)))
	}
}
