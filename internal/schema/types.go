package schema

import (
	"errors"
	"sort"
	"strings"
	"unicode"
)

// Canonical field kinds shared by every parser and formatter
const (
	KindString  = "string"
	KindNumber  = "number"
	KindFloat   = "float"
	KindBoolean = "boolean"
	KindDate    = "date"
	KindMixed   = "mixed"
)

// Format is the stable tag of a supported schema language
type Format string

// Supported formats, in detection priority order
const (
	FormatPrisma     Format = "prisma"
	FormatMongoose   Format = "mongoose"
	FormatSequelize  Format = "sequelize"
	FormatSQL        Format = "sql"
	FormatTypeScript Format = "typescript"
	FormatJSONSchema Format = "jsonschema"
	FormatZod        Format = "zod"
	FormatGraphQL    Format = "graphql"
	FormatOpenAPI    Format = "openapi"
	FormatDjango     Format = "django"
)

var (
	// ErrUnrecognizedFormat is returned for a format tag outside the supported set
	ErrUnrecognizedFormat = errors.New("unrecognized format")

	// ErrMalformedDocument is returned when a structured document (JSON, YAML, OpenAPI) cannot be decoded
	ErrMalformedDocument = errors.New("malformed document")
)

// Formats returns every supported format tag in detection priority order
func Formats() []Format {
	return []Format{
		FormatPrisma, FormatMongoose, FormatSequelize, FormatSQL, FormatTypeScript,
		FormatJSONSchema, FormatZod, FormatGraphQL, FormatOpenAPI, FormatDjango,
	}
}

// Valid reports whether f is a supported format tag
func (f Format) Valid() bool {
	for _, known := range Formats() {
		if f == known {
			return true
		}
	}
	return false
}

// Model represents one schema entity (table, collection, type or class)
type Model struct {
	Name   string              `json:"name"`
	Fields []Field             `json:"fields"`
	Enums  map[string][]string `json:"enums,omitempty"`
}

// Field represents a named, typed property of a Model
type Field struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"` // canonical kind or the name of another Model
	Required     bool     `json:"required"`
	Unique       bool     `json:"unique"`
	IsID         bool     `json:"isId"`
	IsArray      bool     `json:"isArray"`
	Enum         []string `json:"enum,omitempty"`
	DefaultValue *string  `json:"defaultValue,omitempty"`
}

// HasID reports whether the model declares a primary key field
func (m Model) HasID() bool {
	for _, f := range m.Fields {
		if f.IsID || f.Name == "id" {
			return true
		}
	}
	return false
}

// EnumNames returns the declared enum names in sorted order
func (m Model) EnumNames() []string {
	names := make([]string, 0, len(m.Enums))
	for name := range m.Enums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Placeholder returns the model list used when a parser finds nothing
func Placeholder() []Model {
	return []Model{{
		Name:   "Example",
		Fields: []Field{{Name: "id", Type: KindNumber}},
	}}
}

// ModelSet indexes model names for relation lookups
type ModelSet map[string]bool

// NewModelSet builds a ModelSet from a model list
func NewModelSet(models []Model) ModelSet {
	set := make(ModelSet, len(models))
	for _, m := range models {
		set[m.Name] = true
	}
	return set
}

// IsRelation reports whether the field's type names a model in the set
func (s ModelSet) IsRelation(f Field) bool {
	return s[f.Type]
}

// StrPtr returns a pointer to s
func StrPtr(s string) *string {
	return &s
}

// Capitalize upper-cases the first rune of s
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Lower lower-cases the first rune of s
func Lower(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// SanitizeIdentifier rewrites name into a word-character identifier
func SanitizeIdentifier(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	out := sb.String()
	if out == "" {
		return "_"
	}
	if unicode.IsDigit([]rune(out)[0]) {
		out = "_" + out
	}
	return out
}
