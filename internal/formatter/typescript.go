package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

var typeScriptTypes = map[string]string{
	schema.KindString:  "string",
	schema.KindNumber:  "number",
	schema.KindFloat:   "number",
	schema.KindBoolean: "boolean",
	schema.KindDate:    "Date",
	schema.KindMixed:   "Record<string, unknown>",
}

// TypeScriptFormatter renders models as exported interfaces
type TypeScriptFormatter struct {
	writer io.Writer
	opts   Options
}

// NewTypeScriptFormatter creates a new TypeScript formatter
func NewTypeScriptFormatter(w io.Writer, opts Options) *TypeScriptFormatter {
	return &TypeScriptFormatter{writer: w, opts: opts}
}

// Format writes one interface per model
func (f *TypeScriptFormatter) Format(models []schema.Model) error {
	writeHeader(f.writer, f.opts, "//", "TypeScript interfaces generated by schemaconv")

	set := f.opts.modelSet(models)
	for i, m := range models {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer)
		}
		_, _ = fmt.Fprintf(f.writer, "export interface %s {\n", ident(m.Name))
		pk := primaryKey(m)
		for _, field := range m.Fields {
			optional := "?"
			if field.Required || field.Name == pk {
				optional = ""
			}
			_, _ = fmt.Fprintf(f.writer, "  %s%s: %s;\n", ident(field.Name), optional, typeScriptType(field, set))
		}
		_, _ = fmt.Fprintln(f.writer, "}")
	}
	return nil
}

func typeScriptType(field schema.Field, set schema.ModelSet) string {
	var typ string
	switch {
	case set.IsRelation(field):
		typ = ident(field.Type)
	case len(field.Enum) > 0:
		literals := make([]string, len(field.Enum))
		for i, v := range field.Enum {
			literals[i] = quoteSingle(v)
		}
		typ = strings.Join(literals, " | ")
		if field.IsArray {
			typ = "(" + typ + ")"
		}
	default:
		var ok bool
		if typ, ok = typeScriptTypes[field.Type]; !ok {
			typ = "string"
		}
	}
	if field.IsArray {
		typ += "[]"
	}
	return typ
}
