package table

import (
	"github.com/mcncl/yapigen/internal/models"
	"github.com/mcncl/yapigen/internal/schema"
)

// Facet holds the type-specific attributes of a row. The set of
// implementations is closed.
type Facet interface {
	isFacet()
	// EnumText returns the enum explanation, if the facet has one.
	EnumText() string
}

// StringFacet describes a string row.
type StringFacet struct {
	MinLength *int               `json:"minLength,omitempty"`
	MaxLength *int               `json:"maxLength,omitempty"`
	Enum      []models.JSONValue `json:"enum,omitempty"`
	EnumDesc  string             `json:"enumDesc,omitempty"`
	Format    string             `json:"format,omitempty"`
	Mock      string             `json:"mock,omitempty"`
}

// NumberFacet describes a number or integer row.
type NumberFacet struct {
	Minimum  *float64           `json:"minimum,omitempty"`
	Maximum  *float64           `json:"maximum,omitempty"`
	Enum     []models.JSONValue `json:"enum,omitempty"`
	EnumDesc string             `json:"enumDesc,omitempty"`
	Format   string             `json:"format,omitempty"`
	Mock     string             `json:"mock,omitempty"`
}

// BooleanFacet describes a boolean row.
type BooleanFacet struct {
	Enum []models.JSONValue `json:"enum,omitempty"`
	Mock string             `json:"mock,omitempty"`
}

// ArrayFacet describes an array row. ItemFormat is only set for string
// items.
type ArrayFacet struct {
	MinItems    *int              `json:"minItems,omitempty"`
	MaxItems    *int              `json:"maxItems,omitempty"`
	UniqueItems bool              `json:"uniqueItems,omitempty"`
	ItemType    schema.SchemaType `json:"itemType"`
	ItemFormat  string            `json:"itemFormat,omitempty"`
}

// OtherFacet describes rows of any other type, including multi-kind rows.
type OtherFacet struct {
	Mock string `json:"mock,omitempty"`
}

func (*StringFacet) isFacet()  {}
func (*NumberFacet) isFacet()  {}
func (*BooleanFacet) isFacet() {}
func (*ArrayFacet) isFacet()   {}
func (*OtherFacet) isFacet()   {}

func (f *StringFacet) EnumText() string { return f.EnumDesc }
func (f *NumberFacet) EnumText() string { return f.EnumDesc }
func (*BooleanFacet) EnumText() string  { return "" }
func (*ArrayFacet) EnumText() string    { return "" }
func (*OtherFacet) EnumText() string    { return "" }
