package projector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/yapigen/internal/config"
	"github.com/mcncl/yapigen/internal/models"
	"github.com/mcncl/yapigen/internal/schema"
	"github.com/mcncl/yapigen/internal/table"
)

const orderSchema = `{
	"type": "object",
	"required": ["id", "items"],
	"properties": {
		"id": {"type": "integer", "description": "order id"},
		"status": {"type": "string", "description": "state", "enumDesc": "0: new, 1: paid"},
		"note": {"type": ["string", "null"]},
		"when": {"type": "date"},
		"anything": {},
		"codes": {"type": "array", "description": "codes", "items": {"type": "string"}},
		"items": {
			"type": "array",
			"description": "line items",
			"items": {"type": "object", "properties": {"sku": {"type": "string"}, "qty": {"type": "integer"}}}
		},
		"grid": {"type": "array", "items": {"type": "array", "items": {"type": "number"}}},
		"meta": {"type": "object", "properties": {"tag": {"type": "string"}}}
	}
}`

func rows(t *testing.T, input string) []*table.Node {
	t.Helper()
	s, err := schema.ParseString(input, 0)
	require.NoError(t, err)
	out, err := table.NewBuilder(config.NewConfig(), nil).Normalize(s)
	require.NoError(t, err)
	return out
}

func marshal(t *testing.T, v models.JSONValue) string {
	t.Helper()
	switch val := v.(type) {
	case *models.JSONObject:
		data, err := val.MarshalJSON()
		require.NoError(t, err)
		return string(data)
	default:
		t.Fatalf("unexpected root %T", v)
		return ""
	}
}

func TestProject_TypesOnly(t *testing.T) {
	got := Project(rows(t, orderSchema), Options{TypesOnly: true, ArrayComments: true})

	assert.JSONEq(t, `{
		"id": "integer",
		"status": "string",
		"note": "string|null",
		"when": "date",
		"anything": "any",
		"codes": ["string"],
		"items": [{"sku": "string", "qty": "integer"}],
		"grid": [["number"]],
		"meta": {"tag": "string"}
	}`, marshal(t, got))

	assert.Equal(t,
		[]string{"id", "status", "note", "when", "anything", "codes", "items", "grid", "meta"},
		got.(*models.JSONObject).Keys())
}

func TestProject_Annotated(t *testing.T) {
	got := Project(rows(t, orderSchema), Options{ArrayComments: true})

	assert.JSONEq(t, `{
		"id": "order id <integer> <required>",
		"status": "state 0: new, 1: paid <string>",
		"note": "<string|null>",
		"when": "<date>",
		"anything": "<any>",
		"codes": ["codes <string>"],
		"items": ["//line items <required>", {"sku": "<string>", "qty": "<integer>"}],
		"grid": [["<number>"]],
		"meta": {"tag": "<string>"}
	}`, marshal(t, got))
}

func TestProject_AnnotatedWithoutComments(t *testing.T) {
	got := Project(rows(t, orderSchema), Options{})
	obj := got.(*models.JSONObject)

	items, _ := obj.Get("items")
	require.Len(t, items, 1)
	assert.IsType(t, &models.JSONObject{}, items.(models.JSONArray)[0])
}

func TestProject_RootArray(t *testing.T) {
	got := Project(rows(t, `{"type": "array", "items": {"type": "object", "properties": {"a": {"type": "boolean"}}}}`),
		Options{TypesOnly: true})

	arr, ok := got.(models.JSONArray)
	require.True(t, ok)
	require.Len(t, arr, 1)
	assert.Equal(t, []string{"a"}, arr[0].(*models.JSONObject).Keys())
}

func TestProject_RootScalar(t *testing.T) {
	got := Project(rows(t, `{"type": "string", "description": "token"}`), Options{})
	assert.Equal(t, "token <string>", got)
}

func TestProject_EmptyObject(t *testing.T) {
	got := Project(rows(t, `{"type": "object", "properties": {}}`), Options{})
	assert.Equal(t, 0, got.(*models.JSONObject).Len())
}

// shape reduces a projection to its keys and array nesting.
func shape(v models.JSONValue) models.JSONValue {
	switch val := v.(type) {
	case *models.JSONObject:
		out := models.NewJSONObject()
		for _, k := range val.Keys() {
			child, _ := val.Get(k)
			out.Set(k, shape(child))
		}
		return out
	case models.JSONArray:
		out := models.JSONArray{}
		for _, item := range val {
			if _, ok := item.(Comment); ok {
				continue
			}
			out = append(out, shape(item))
		}
		return out
	default:
		return ""
	}
}

func TestProject_TypesOnlyAndAnnotatedShareShape(t *testing.T) {
	r := rows(t, orderSchema)
	typesOnly := Project(r, Options{TypesOnly: true})
	annotated := Project(r, Options{ArrayComments: true})

	assert.Equal(t, shape(typesOnly), shape(annotated))
}

func TestProject_CommentElement(t *testing.T) {
	got := Project(rows(t, `{"type": "object", "properties": {
		"urls": {"type": "array", "description": "//cdn links", "items": {"type": "string"}},
		"lines": {"type": "array", "description": "//lines", "items": {"type": "object", "properties": {"a": {"type": "string"}}}}
	}}`), Options{ArrayComments: true})
	obj := got.(*models.JSONObject)

	urls, _ := obj.Get("urls")
	assert.Equal(t, models.JSONArray{"//cdn links <string>"}, urls)

	lines, _ := obj.Get("lines")
	arr := lines.(models.JSONArray)
	require.Len(t, arr, 2)
	assert.Equal(t, Comment("//lines"), arr[0])
	assert.Equal(t, "////lines", arr[0].(Comment).String())
}
