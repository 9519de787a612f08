package schema

import (
	"strings"

	gojson "github.com/goccy/go-json"
)

// Kind is the closed set of type keywords a schema document may use.
type Kind int

const (
	KindUnknown Kind = iota
	KindString
	KindNumber
	KindInteger
	KindBoolean
	KindNull
	KindLong
	KindArray
	KindObject
)

var kindNames = map[Kind]string{
	KindString:  "string",
	KindNumber:  "number",
	KindInteger: "integer",
	KindBoolean: "boolean",
	KindNull:    "null",
	KindLong:    "long",
	KindArray:   "array",
	KindObject:  "object",
}

// ParseKind maps a type keyword to its Kind. Matching ignores case;
// unfamiliar keywords map to KindUnknown.
func ParseKind(name string) Kind {
	switch strings.ToLower(name) {
	case "string":
		return KindString
	case "number":
		return KindNumber
	case "integer":
		return KindInteger
	case "boolean":
		return KindBoolean
	case "null":
		return KindNull
	case "long":
		return KindLong
	case "array":
		return KindArray
	case "object":
		return KindObject
	default:
		return KindUnknown
	}
}

// String returns the type keyword, or "" for KindUnknown.
func (k Kind) String() string {
	return kindNames[k]
}

// IsBasic reports whether k is a scalar leaf type.
func (k Kind) IsBasic() bool {
	switch k {
	case KindString, KindNumber, KindInteger, KindBoolean, KindNull, KindLong:
		return true
	default:
		return false
	}
}

// IsComplex reports whether k has nested structure.
func (k Kind) IsComplex() bool {
	return k == KindArray || k == KindObject
}

// SchemaType handles the type field, which can be a string or an array of
// strings. Names are kept as written so unfamiliar keywords survive a
// round trip.
type SchemaType struct {
	Types []string
}

// Single returns a SchemaType holding one keyword.
func Single(name string) SchemaType {
	return SchemaType{Types: []string{name}}
}

// IsSet reports whether any type keyword was given.
func (st SchemaType) IsSet() bool {
	return len(st.Types) > 0
}

// IsMulti reports whether more than one keyword was given.
func (st SchemaType) IsMulti() bool {
	return len(st.Types) > 1
}

// Primary returns the primary (first) type, or empty string if none
func (st SchemaType) Primary() string {
	if len(st.Types) > 0 {
		return st.Types[0]
	}
	return ""
}

// Kind returns the Kind of a single-keyword type. Unset and multi-keyword
// types report KindUnknown.
func (st SchemaType) Kind() Kind {
	if len(st.Types) != 1 {
		return KindUnknown
	}
	return ParseKind(st.Types[0])
}

// Join renders the keywords separated by sep.
func (st SchemaType) Join(sep string) string {
	return strings.Join(st.Types, sep)
}

// MarshalJSON writes a single keyword as a string and several as an array.
func (st SchemaType) MarshalJSON() ([]byte, error) {
	switch len(st.Types) {
	case 0:
		return []byte("null"), nil
	case 1:
		return gojson.Marshal(st.Types[0])
	default:
		return gojson.Marshal(st.Types)
	}
}
