package table

import (
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/yapigen/internal/config"
	"github.com/mcncl/yapigen/internal/errors"
	"github.com/mcncl/yapigen/internal/models"
	"github.com/mcncl/yapigen/internal/schema"
)

func mustSchema(t *testing.T, input string) *schema.Node {
	t.Helper()
	node, err := schema.ParseString(input, 0)
	require.NoError(t, err)
	return node
}

func newBuilder() *Builder {
	return NewBuilder(config.NewConfig(), nil)
}

const userSchema = `{
	"type": "object",
	"required": ["id", "tags"],
	"properties": {
		"id": {"type": "integer", "title": "ID", "description": "primary key", "minimum": 1},
		"name": {"type": "string", "description": "display name", "maxLength": 32, "mock": {"mock": "@name"}},
		"role": {"type": "string", "enum": ["a", "u"], "enumDesc": "a: admin, u: user", "default": "u"},
		"active": {"type": "boolean", "required": "1"},
		"tags": {"type": "array", "items": {"type": "string", "format": "slug"}},
		"profile": {
			"type": "object",
			"required": ["age"],
			"properties": {"age": {"type": "integer"}}
		}
	}
}`

func TestNormalize_ObjectRoot(t *testing.T) {
	rows, err := newBuilder().Normalize(mustSchema(t, userSchema))
	require.NoError(t, err)
	require.Len(t, rows, 6)

	names := make([]string, len(rows))
	keys := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
		keys[i] = r.Key
		assert.True(t, r.Member)
	}
	assert.Equal(t, []string{"id", "name", "role", "active", "tags", "profile"}, names)
	assert.Equal(t, []string{"0-0", "0-1", "0-2", "0-3", "0-4", "0-5"}, keys)

	id := rows[0]
	assert.True(t, id.Required)
	assert.Equal(t, "ID\nprimary key", id.Desc)
	assert.Equal(t, schema.KindInteger, id.Kind())
	require.IsType(t, &NumberFacet{}, id.Sub)
	assert.Equal(t, 1.0, *id.Sub.(*NumberFacet).Minimum)

	name := rows[1]
	assert.False(t, name.Required)
	assert.Equal(t, "display name", name.Desc)
	sf := name.Sub.(*StringFacet)
	assert.Equal(t, 32, *sf.MaxLength)
	assert.Equal(t, "@name", sf.Mock)

	role := rows[2]
	assert.Equal(t, "u", role.Default)
	assert.Equal(t, "a: admin, u: user", role.Sub.EnumText())
	assert.Equal(t, []models.JSONValue{"a", "u"}, role.Sub.(*StringFacet).Enum)

	active := rows[3]
	assert.True(t, active.Required, "a member's own flag overrides the parent list")
	assert.IsType(t, &BooleanFacet{}, active.Sub)

	tags := rows[4]
	assert.True(t, tags.Required)
	af := tags.Sub.(*ArrayFacet)
	assert.Equal(t, "string", af.ItemType.Primary())
	assert.Equal(t, "slug", af.ItemFormat)
	require.Len(t, tags.Children, 1)
	assert.True(t, strings.HasPrefix(tags.Children[0].Key, "array-"))
	assert.Equal(t, schema.KindString, tags.Children[0].Kind())

	profile := rows[5]
	assert.False(t, profile.Required)
	assert.Equal(t, schema.KindObject, profile.Kind())
	assert.Nil(t, profile.Sub)
	require.Len(t, profile.Children, 1)
	assert.Equal(t, "0-5-0", profile.Children[0].Key)
	assert.True(t, profile.Children[0].Required)
}

func TestNormalize_NonObjectRoot(t *testing.T) {
	rows, err := newBuilder().Normalize(mustSchema(t, `{"type": "string", "title": "token"}`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, RootKey, rows[0].Key)
	assert.False(t, rows[0].Member)
	assert.Equal(t, "token", rows[0].Desc)
	assert.IsType(t, &StringFacet{}, rows[0].Sub)
}

func TestNormalize_DefaultsToObjectWithProperties(t *testing.T) {
	rows, err := newBuilder().Normalize(mustSchema(t, `{"properties": {"a": {"properties": {"b": {"type": "string"}}}}}`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].Name)
	assert.Equal(t, schema.KindObject, rows[0].Kind())
	require.Len(t, rows[0].Children, 1)
	assert.Equal(t, "b", rows[0].Children[0].Name)
}

func TestNormalize_ArrayOfObjects(t *testing.T) {
	input := `{"type": "object", "properties": {
		"list": {"type": "array", "description": "entries", "items": {
			"type": "object", "required": ["x"], "properties": {"x": {"type": "number"}, "y": {"type": "string"}}
		}}
	}}`
	rows, err := newBuilder().Normalize(mustSchema(t, input))
	require.NoError(t, err)

	list := rows[0]
	assert.Equal(t, "entries", list.Desc)
	assert.Equal(t, "object", list.Sub.(*ArrayFacet).ItemType.Primary())
	require.Len(t, list.Children, 2)
	assert.Equal(t, "0-0-0", list.Children[0].Key)
	assert.Equal(t, "x", list.Children[0].Name)
	assert.True(t, list.Children[0].Required)
	assert.Equal(t, "0-0-1", list.Children[1].Key)
	assert.False(t, list.Children[1].Required)
}

func TestNormalize_ArrayDefaultsToStringItems(t *testing.T) {
	rows, err := newBuilder().Normalize(mustSchema(t, `{"type": "array"}`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "string", rows[0].Sub.(*ArrayFacet).ItemType.Primary())
	require.Len(t, rows[0].Children, 1)
	assert.Equal(t, schema.KindString, rows[0].Children[0].Kind())
}

func TestNormalize_NestedArrays(t *testing.T) {
	input := `{"type": "array", "items": {"type": "array", "items": {"type": "string"}}}`
	rows, err := newBuilder().Normalize(mustSchema(t, input))
	require.NoError(t, err)

	outer := rows[0]
	require.Len(t, outer.Children, 1)
	inner := outer.Children[0]
	assert.Equal(t, schema.KindArray, inner.Kind())
	assert.True(t, strings.HasPrefix(inner.Key, "array-"))
	require.Len(t, inner.Children, 1)
	leaf := inner.Children[0]
	assert.Equal(t, schema.KindString, leaf.Kind())
	assert.NotEqual(t, inner.Key, leaf.Key)
}

func TestNormalize_MultiKindUsesOtherFacet(t *testing.T) {
	input := `{"type": "object", "properties": {"v": {"type": ["string", "null"], "mock": {"mock": "@word"}}, "n": {"type": "null"}}}`
	rows, err := newBuilder().Normalize(mustSchema(t, input))
	require.NoError(t, err)

	assert.Equal(t, []string{"string", "null"}, rows[0].Type.Types)
	assert.Equal(t, &OtherFacet{Mock: "@word"}, rows[0].Sub)
	assert.IsType(t, &OtherFacet{}, rows[1].Sub)
}

func TestNormalize_CounterIsMonotonic(t *testing.T) {
	b := newBuilder()
	s := mustSchema(t, `{"type": "array", "items": {"type": "integer"}}`)

	first, err := b.Normalize(s)
	require.NoError(t, err)
	second, err := b.Normalize(s)
	require.NoError(t, err)

	assert.Equal(t, "array-1", first[0].Children[0].Key)
	assert.Equal(t, "array-2", second[0].Children[0].Key)

	other := newBuilder()
	third, err := other.Normalize(s)
	require.NoError(t, err)
	assert.Equal(t, "array-1", third[0].Children[0].Key, "each Builder owns its counter")
}

func TestNormalize_ConcurrentKeysAreUnique(t *testing.T) {
	b := newBuilder()
	s := mustSchema(t, `{"type": "array", "items": {"type": "integer"}}`)

	const workers = 16
	keys := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := b.Normalize(s)
			if err != nil {
				return
			}
			keys <- rows[0].Children[0].Key
		}()
	}
	wg.Wait()
	close(keys)

	seen := make(map[string]bool)
	for k := range keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
	assert.Len(t, seen, workers)
}

func TestNormalize_StableShape(t *testing.T) {
	b := newBuilder()
	s := mustSchema(t, userSchema)

	first, err := b.Normalize(s)
	require.NoError(t, err)
	second, err := b.Normalize(s)
	require.NoError(t, err)

	assert.Equal(t, stripArrayKeys(first), stripArrayKeys(second))
}

func stripArrayKeys(rows []*Node) []*Node {
	out := make([]*Node, len(rows))
	for i, r := range rows {
		c := *r
		if strings.HasPrefix(c.Key, "array-") {
			c.Key = "array"
		}
		c.Children = stripArrayKeys(r.Children)
		out[i] = &c
	}
	return out
}

func TestNormalize_DoesNotMutateSchema(t *testing.T) {
	s := mustSchema(t, userSchema)
	before, err := s.Value().MarshalJSON()
	require.NoError(t, err)

	_, err = newBuilder().Normalize(s)
	require.NoError(t, err)

	after, err := s.Value().MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestNormalize_SharedSubSchema(t *testing.T) {
	shared := &schema.Node{Type: schema.Single("string"), Description: "shared"}
	root := &schema.Node{
		Type:     schema.Single("object"),
		Required: []string{"b"},
		Properties: []schema.Property{
			{Name: "a", Schema: shared},
			{Name: "b", Schema: shared},
		},
	}

	rows, err := newBuilder().Normalize(root)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].Required)
	assert.True(t, rows[1].Required)
	assert.Equal(t, "shared", rows[0].Desc)
	assert.NotSame(t, rows[0].Sub, rows[1].Sub)
}

func TestNormalize_Failures(t *testing.T) {
	t.Run("nil schema", func(t *testing.T) {
		rows, err := newBuilder().Normalize(nil)
		assert.Nil(t, rows)
		assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeMalformed}))
	})

	t.Run("too deep", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Limits.MaxDepth = 3
		node := &schema.Node{Type: schema.Single("string")}
		for i := 0; i < 5; i++ {
			node = &schema.Node{Type: schema.Single("array"), Items: node}
		}

		rows, err := NewBuilder(cfg, nil).Normalize(node)
		assert.Nil(t, rows)
		assert.True(t, stderrors.Is(err, errors.ErrDepthExceeded))
	})
}
