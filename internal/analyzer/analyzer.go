package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mcncl/yapigen/internal/config"
	"github.com/mcncl/yapigen/internal/errors"
	"github.com/mcncl/yapigen/internal/logging"
	"github.com/mcncl/yapigen/internal/models"
	"github.com/mcncl/yapigen/internal/schema"
)

// RequiredPrefix marks a sample key as required.
const RequiredPrefix = "*"

// supportedTypes are the keywords a sample may use to describe itself.
var supportedTypes = map[string]struct{}{
	"string":  {},
	"number":  {},
	"array":   {},
	"object":  {},
	"boolean": {},
	"integer": {},
}

// Classification tells how an object found in a sample is read.
type Classification int

const (
	// RawSample objects describe their members by example.
	RawSample Classification = iota
	// SchemaLiteral objects already carry a supported type keyword and
	// are kept as written.
	SchemaLiteral
)

func (c Classification) String() string {
	if c == SchemaLiteral {
		return "schema literal"
	}
	return "raw sample"
}

// Classify reports whether obj is a schema literal or a raw sample.
func Classify(obj *models.JSONObject) Classification {
	t, ok := obj.Get("type")
	if !ok {
		return RawSample
	}
	name, ok := t.(string)
	if !ok {
		return RawSample
	}
	if _, ok := supportedTypes[name]; ok {
		return SchemaLiteral
	}
	return RawSample
}

// Analyzer derives schema documents from JSON samples
type Analyzer struct {
	maxDepth int
	logger   *zap.Logger
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithConfig(config.NewConfig(), nil)
}

// NewAnalyzerWithConfig creates a new Analyzer instance with custom configuration.
func NewAnalyzerWithConfig(cfg *config.Config, logger *zap.Logger) *Analyzer {
	maxDepth := schema.DefaultMaxDepth
	if cfg != nil && cfg.Limits.MaxDepth > 0 {
		maxDepth = cfg.Limits.MaxDepth
	}
	return &Analyzer{
		maxDepth: maxDepth,
		logger:   logging.OrNop(logger),
	}
}

// Infer derives a schema from a sample value.
func (a *Analyzer) Infer(v models.JSONValue) (*schema.Node, error) {
	node, err := a.inferNode(v, "$", 0)
	if err != nil {
		return nil, err
	}
	return node, nil
}

// InferIR derives a schema from a parsed document.
func (a *Analyzer) InferIR(ir models.IntermediateRepresentation) (*schema.Node, error) {
	return a.Infer(ir.Root)
}

func (a *Analyzer) inferNode(v models.JSONValue, path string, depth int) (*schema.Node, error) {
	if depth > a.maxDepth {
		return nil, errors.NewRecursionError(
			fmt.Sprintf("sample at %s is nested deeper than %d levels", path, a.maxDepth),
			errors.ErrDepthExceeded,
		)
	}

	switch val := v.(type) {
	case models.JSONArray:
		return a.inferArray(val, path, depth)
	case *models.JSONObject:
		if Classify(val) == SchemaLiteral {
			return a.inferLiteral(val, path, depth)
		}
		return a.inferObject(val, path, depth)
	default:
		return &schema.Node{Type: schema.Single(scalarType(val))}, nil
	}
}

func (a *Analyzer) inferArray(arr models.JSONArray, path string, depth int) (*schema.Node, error) {
	var first models.JSONValue
	if len(arr) > 0 {
		first = arr[0]
	}
	items, err := a.inferNode(first, path+"[0]", depth+1)
	if err != nil {
		return nil, err
	}
	return &schema.Node{Type: schema.Single("array"), Items: items}, nil
}

func (a *Analyzer) inferObject(obj *models.JSONObject, path string, depth int) (*schema.Node, error) {
	node := &schema.Node{
		Type:          schema.Single("object"),
		Required:      []string{},
		PropertiesSet: true,
	}
	if err := a.inferMembers(node, obj, path, depth); err != nil {
		return nil, err
	}
	return node, nil
}

// inferMembers reads every key of obj as a sample member of node.
func (a *Analyzer) inferMembers(node *schema.Node, obj *models.JSONObject, path string, depth int) error {
	for _, key := range obj.Keys() {
		raw, _ := obj.Get(key)
		name := key
		if strings.HasPrefix(key, RequiredPrefix) {
			name = strings.TrimPrefix(key, RequiredPrefix)
			if !node.IsRequired(name) {
				node.Required = append(node.Required, name)
			}
		}
		child, err := a.inferNode(raw, path+"."+name, depth+1)
		if err != nil {
			return err
		}
		setProperty(node, name, child)
	}
	return nil
}

// inferLiteral keeps the literal's own fields. Its properties are read as
// sample members and its items as a sample.
func (a *Analyzer) inferLiteral(obj *models.JSONObject, path string, depth int) (*schema.Node, error) {
	own := models.NewJSONObject()
	for _, key := range obj.Keys() {
		if key == "properties" || key == "items" {
			continue
		}
		v, _ := obj.Get(key)
		own.Set(key, v)
	}
	node, err := schema.FromValue(own, a.maxDepth)
	if err != nil {
		return nil, err
	}

	switch node.Type.Primary() {
	case "object":
		raw, ok := obj.Get("properties")
		if !ok || raw == nil {
			break
		}
		props, ok := raw.(*models.JSONObject)
		if !ok {
			return nil, errors.NewMalformedError(
				fmt.Sprintf("%s.properties must be an object", path),
				errors.ErrInvalidField,
			)
		}
		node.PropertiesSet = true
		if node.Required == nil {
			node.Required = []string{}
		}
		if err := a.inferMembers(node, props, path, depth); err != nil {
			return nil, err
		}
	case "array":
		raw, _ := obj.Get("items")
		items, err := a.inferNode(raw, path+".items", depth+1)
		if err != nil {
			return nil, err
		}
		node.Items = items
	}

	a.logger.Debug("kept schema literal", zap.String("path", path), zap.String("type", node.Type.Primary()))
	return node, nil
}

// setProperty adds or replaces the member called name, keeping the
// position of an existing member.
func setProperty(node *schema.Node, name string, child *schema.Node) {
	for i := range node.Properties {
		if node.Properties[i].Name == name {
			node.Properties[i].Schema = child
			return
		}
	}
	node.Properties = append(node.Properties, schema.Property{Name: name, Schema: child})
}

// scalarType maps a scalar sample to its type keyword. Strings that are
// themselves keywords describe their own type.
func scalarType(v models.JSONValue) string {
	switch val := v.(type) {
	case nil:
		return "string"
	case bool:
		return "boolean"
	case string:
		if _, ok := supportedTypes[val]; ok {
			return val
		}
		return "string"
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return "integer"
		}
		return "number"
	default:
		return "string"
	}
}
