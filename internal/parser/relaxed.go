package parser

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mcncl/yapigen/internal/models"
)

// parseRelaxed reads hand-written, JSON-like documents (unquoted keys,
// single quotes) through the YAML flow syntax, which is a
// superset of that style. Mapping order is preserved from the node tree.
func parseRelaxed(content string, maxNesting int) (models.JSONValue, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("relaxed parse failed: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("relaxed parse found no document")
	}
	root := doc.Content[0]
	// A bare word is a valid YAML scalar; only containers count as a
	// successful relaxed reading.
	if root.Kind != yaml.MappingNode && root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("relaxed parse found a scalar, not an object or array")
	}
	return fromNode(root, 0, maxNesting)
}

func fromNode(n *yaml.Node, depth, maxNesting int) (models.JSONValue, error) {
	if depth > maxNesting {
		return nil, depthError(maxNesting)
	}
	switch n.Kind {
	case yaml.AliasNode:
		return fromNode(n.Alias, depth+1, maxNesting)
	case yaml.MappingNode:
		obj := models.NewJSONObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: object key must be a scalar", keyNode.Line)
			}
			val, err := fromNode(valNode, depth+1, maxNesting)
			if err != nil {
				return nil, err
			}
			obj.Set(keyNode.Value, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make(models.JSONArray, 0, len(n.Content))
		for _, item := range n.Content {
			val, err := fromNode(item, depth+1, maxNesting)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case yaml.ScalarNode:
		return scalarValue(n), nil
	default:
		return nil, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}

func scalarValue(n *yaml.Node) models.JSONValue {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		return strings.EqualFold(n.Value, "true")
	case "!!int", "!!float":
		if _, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return models.Number(n.Value)
		}
		// YAML spellings such as 0x1F or 1_000
		var f float64
		if err := n.Decode(&f); err == nil {
			return models.Number(strconv.FormatFloat(f, 'g', -1, 64))
		}
		return n.Value
	default:
		return n.Value
	}
}
