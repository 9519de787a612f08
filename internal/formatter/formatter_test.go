package formatter

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/yapigen/internal/config"
	"github.com/mcncl/yapigen/internal/errors"
	"github.com/mcncl/yapigen/internal/models"
	"github.com/mcncl/yapigen/internal/projector"
)

func sampleValue() *models.JSONObject {
	item := models.NewJSONObject()
	item.Set("sku", "<string>")

	obj := models.NewJSONObject()
	obj.Set("name", "bob <string>")
	obj.Set("items", models.JSONArray{projector.Comment("line items"), item})
	obj.Set("empty", models.NewJSONObject())
	obj.Set("list", models.JSONArray{})
	obj.Set("price", models.Number("1.50"))
	obj.Set("ok", true)
	obj.Set("gone", nil)
	return obj
}

func TestFormat_Indented(t *testing.T) {
	out, err := NewFormatter().Format(sampleValue())
	require.NoError(t, err)

	expected := `{
  "name": "bob <string>",
  "items": [
    /* line items */
    {
      "sku": "<string>"
    }
  ],
  "empty": {},
  "list": [],
  "price": 1.50,
  "ok": true,
  "gone": null
}`
	assert.Equal(t, expected, out)
}

func TestFormat_CommentsOff(t *testing.T) {
	out, err := NewFormatter().WithComments(false).Format(models.JSONArray{projector.Comment("note"), "x"})
	require.NoError(t, err)
	assert.Equal(t, "[\n  \"//note\",\n  \"x\"\n]", out)
}

func TestFormat_ConfiguredIndent(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Output.Indent = 4

	obj := models.NewJSONObject()
	obj.Set("a", models.JSONArray{models.Number("1")})

	out, err := NewFormatterWithConfig(cfg).Format(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"a\": [\n        1\n    ]\n}", out)
}

func TestFormat_Compact(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Output.Indent = 0

	obj := models.NewJSONObject()
	obj.Set("a", models.JSONArray{projector.Comment("c"), models.Number("1"), models.Number("2")})
	obj.Set("b", "x")

	out, err := NewFormatterWithConfig(cfg).Format(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[/* c */1,2],"b":"x"}`, out)
}

func TestFormat_CommentBetweenValues(t *testing.T) {
	out, err := NewFormatter().Format(models.JSONArray{"a", projector.Comment(" b */ c"), "d"})
	require.NoError(t, err)
	assert.Equal(t, "[\n  \"a\",\n  /* b *\\/ c */\n  \"d\"\n]", out)
}

func TestFormat_SlashStringsStayData(t *testing.T) {
	obj := models.NewJSONObject()
	obj.Set("urls", models.JSONArray{"//cdn links <string>"})
	obj.Set("rows", models.JSONArray{projector.Comment("//rows"), "//x"})

	out, err := NewFormatter().Format(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"urls\": [\n    \"//cdn links <string>\"\n  ],\n  \"rows\": [\n    /* //rows */\n    \"//x\"\n  ]\n}", out)
}

func TestFormat_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		input models.JSONValue
		want  string
	}{
		{name: "null", input: nil, want: "null"},
		{name: "false", input: false, want: "false"},
		{name: "number", input: models.Number("-3e2"), want: "-3e2"},
		{name: "string escapes quotes", input: `say "hi"`, want: `"say \"hi\""`},
		{name: "markup kept", input: "<a&b>", want: `"<a&b>"`},
		{name: "plain int", input: 7, want: "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewFormatter().Format(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestFormat_Unsupported(t *testing.T) {
	_, err := NewFormatter().Format(make(chan int))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeFormat}))
}
