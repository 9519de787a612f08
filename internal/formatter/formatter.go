package formatter

import (
	"encoding/json"
	"fmt"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/mcncl/yapigen/internal/config"
	"github.com/mcncl/yapigen/internal/errors"
	"github.com/mcncl/yapigen/internal/models"
	"github.com/mcncl/yapigen/internal/projector"
)

// Formatter writes JSON values as indented text with object keys in
// document order
type Formatter struct {
	indent string
	// comments renders projector.Comment elements as /* ... */ blocks
	// instead of string elements.
	comments bool
}

// NewFormatter creates a new Formatter instance
func NewFormatter() *Formatter {
	return &Formatter{indent: "  ", comments: true}
}

// NewFormatterWithConfig creates a Formatter using the output settings.
func NewFormatterWithConfig(cfg *config.Config) *Formatter {
	if cfg == nil {
		return NewFormatter()
	}
	return &Formatter{indent: cfg.IndentString(), comments: true}
}

// WithComments toggles comment rendering. With comments off the output is
// always valid JSON.
func (f *Formatter) WithComments(on bool) *Formatter {
	f.comments = on
	return f
}

// Format renders v. An empty indent produces compact output.
func (f *Formatter) Format(v models.JSONValue) (string, error) {
	var b strings.Builder
	if err := f.write(&b, v, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (f *Formatter) write(b *strings.Builder, v models.JSONValue, level int) error {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case json.Number:
		b.WriteString(val.String())
	case string:
		return f.scalar(b, val)
	case projector.Comment:
		return f.scalar(b, val.String())
	case *models.JSONObject:
		return f.object(b, val, level)
	case models.JSONArray:
		return f.array(b, val, level)
	default:
		return f.scalar(b, val)
	}
	return nil
}

func (f *Formatter) object(b *strings.Builder, obj *models.JSONObject, level int) error {
	keys := obj.Keys()
	if len(keys) == 0 {
		b.WriteString("{}")
		return nil
	}
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		f.newline(b, level+1)
		if err := f.scalar(b, k); err != nil {
			return err
		}
		b.WriteString(":")
		if f.indent != "" {
			b.WriteString(" ")
		}
		v, _ := obj.Get(k)
		if err := f.write(b, v, level+1); err != nil {
			return err
		}
	}
	f.newline(b, level)
	b.WriteString("}")
	return nil
}

func (f *Formatter) array(b *strings.Builder, arr models.JSONArray, level int) error {
	if len(arr) == 0 {
		b.WriteString("[]")
		return nil
	}
	b.WriteString("[")
	// Comment blocks take no separator of their own.
	pending := false
	for _, v := range arr {
		if text, ok := f.comment(v); ok {
			if pending {
				b.WriteString(",")
				pending = false
			}
			f.newline(b, level+1)
			b.WriteString("/* " + text + " */")
			continue
		}
		if pending {
			b.WriteString(",")
		}
		f.newline(b, level+1)
		if err := f.write(b, v, level+1); err != nil {
			return err
		}
		pending = true
	}
	f.newline(b, level)
	b.WriteString("]")
	return nil
}

// comment reports whether v is a projector.Comment to render as a block
// and returns its text.
func (f *Formatter) comment(v models.JSONValue) (string, bool) {
	if !f.comments {
		return "", false
	}
	c, ok := v.(projector.Comment)
	if !ok {
		return "", false
	}
	text := strings.TrimSpace(string(c))
	return strings.ReplaceAll(text, "*/", "*\\/"), true
}

func (f *Formatter) newline(b *strings.Builder, level int) {
	if f.indent == "" {
		return
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat(f.indent, level))
}

func (f *Formatter) scalar(b *strings.Builder, v any) error {
	out, err := gojson.MarshalNoEscape(v)
	if err != nil {
		return errors.NewFormatError(fmt.Sprintf("cannot encode %T", v), err)
	}
	b.Write(out)
	return nil
}
