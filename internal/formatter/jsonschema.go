package formatter

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

const jsonSchemaDraft = "http://json-schema.org/draft-07/schema#"

var jsonSchemaTypes = map[string]string{
	schema.KindString:  "string",
	schema.KindNumber:  "integer",
	schema.KindFloat:   "number",
	schema.KindBoolean: "boolean",
	schema.KindDate:    "string",
	schema.KindMixed:   "object",
}

// JSONSchemaFormatter renders models as a draft-07 document with one definition per model
type JSONSchemaFormatter struct {
	writer io.Writer
	opts   Options
}

// NewJSONSchemaFormatter creates a new JSON Schema formatter
func NewJSONSchemaFormatter(w io.Writer, opts Options) *JSONSchemaFormatter {
	return &JSONSchemaFormatter{writer: w, opts: opts}
}

// Format writes the pretty-printed document
func (f *JSONSchemaFormatter) Format(models []schema.Model) error {
	set := f.opts.modelSet(models)
	defs := jsonObject{}
	for _, m := range models {
		defs = append(defs, jsonMember{ident(m.Name), jsonSchemaModel(m, set)})
	}

	doc := jsonObject{
		{"$schema", jsonSchemaDraft},
		{"title", "Schema generated by schemaconv"},
	}
	if !f.opts.GeneratedAt.IsZero() {
		doc = append(doc, jsonMember{"$comment", generatedOn(f.opts)})
	}
	doc = append(doc, jsonMember{"definitions", defs})
	return writeJSON(f.writer, doc)
}

func jsonSchemaModel(m schema.Model, set schema.ModelSet) jsonObject {
	props := jsonObject{}
	required := []string{}
	pk := primaryKey(m)
	for _, field := range m.Fields {
		name := ident(field.Name)
		props = append(props, jsonMember{name, jsonSchemaProperty(field, set, "#/definitions/")})
		if field.Required || field.Name == pk {
			required = append(required, name)
		}
	}

	obj := jsonObject{
		{"type", "object"},
		{"properties", props},
	}
	if len(required) > 0 {
		obj = append(obj, jsonMember{"required", required})
	}
	return obj
}

// jsonSchemaProperty renders one field; refPrefix locates sibling models
func jsonSchemaProperty(field schema.Field, set schema.ModelSet, refPrefix string) jsonObject {
	var item jsonObject
	if set.IsRelation(field) {
		item = jsonObject{{"$ref", refPrefix + ident(field.Type)}}
	} else {
		typ, ok := jsonSchemaTypes[field.Type]
		if !ok {
			typ = "string"
		}
		item = jsonObject{{"type", typ}}
		if field.Type == schema.KindDate {
			item = append(item, jsonMember{"format", "date-time"})
		}
		if len(field.Enum) > 0 {
			item = append(item, jsonMember{"enum", field.Enum})
		}
	}

	prop := item
	if field.IsArray {
		prop = jsonObject{{"type", "array"}, {"items", item}}
	}
	if def, ok := jsonDefault(field); ok {
		prop = append(prop, jsonMember{"default", def})
	}
	return prop
}

func jsonDefault(field schema.Field) (any, bool) {
	if field.DefaultValue == nil || field.IsArray {
		return nil, false
	}
	v := defaultText(field)
	switch {
	case strings.HasSuffix(v, "()"):
		return nil, false
	case isLiteral(field.Type, v):
		return json.RawMessage(v), true
	case field.Type == schema.KindString:
		return v, true
	}
	return nil, false
}

// jsonObject is a JSON object that keeps its members in insertion order
type jsonObject []jsonMember

type jsonMember struct {
	Key   string
	Value any
}

// MarshalJSON implements json.Marshaler
func (o jsonObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalJSON(m.Key)
		if err != nil {
			return nil, err
		}
		value, err := marshalJSON(m.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalJSON encodes v without HTML escaping
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// writeJSON writes v indented by two spaces
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
