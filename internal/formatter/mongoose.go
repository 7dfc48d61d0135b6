package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

const mongooseObjectID = "mongoose.Schema.Types.ObjectId"

var mongooseTypes = map[string]string{
	schema.KindString:  "String",
	schema.KindNumber:  "Number",
	schema.KindFloat:   "Number",
	schema.KindBoolean: "Boolean",
	schema.KindDate:    "Date",
	schema.KindMixed:   "mongoose.Schema.Types.Mixed",
}

// MongooseFormatter renders models as Mongoose schemas
type MongooseFormatter struct {
	writer io.Writer
	opts   Options
}

// NewMongooseFormatter creates a new Mongoose formatter
func NewMongooseFormatter(w io.Writer, opts Options) *MongooseFormatter {
	return &MongooseFormatter{writer: w, opts: opts}
}

// Format writes one schema and model per entry
func (f *MongooseFormatter) Format(models []schema.Model) error {
	writeHeader(f.writer, f.opts, "//", "Mongoose models generated by schemaconv")
	_, _ = fmt.Fprintln(f.writer, "const mongoose = require('mongoose');")

	// Enum constants are shared by every schema that references them
	for _, e := range collectEnums(models) {
		_, _ = fmt.Fprintf(f.writer, "\nconst %s = {\n", e.Name)
		_, _ = fmt.Fprintf(f.writer, "  values: [%s],\n", quotedList(e.Values, quoteSingle))
		_, _ = fmt.Fprintln(f.writer, "  message: 'enum validator failed for path `{PATH}` with value `{VALUE}`'")
		_, _ = fmt.Fprintln(f.writer, "};")
	}

	set := f.opts.modelSet(models)
	names := make([]string, 0, len(models))
	for _, m := range models {
		name := ident(m.Name)
		names = append(names, name)

		var entries []string
		for _, field := range m.Fields {
			// MongoDB supplies _id
			if field.IsID && field.Name == "id" && field.Type == schema.KindNumber {
				continue
			}
			entries = append(entries, f.formatField(m, field, set))
		}

		variable := schema.Lower(name) + "Schema"
		_, _ = fmt.Fprintf(f.writer, "\nconst %s = new mongoose.Schema({\n", variable)
		_, _ = fmt.Fprint(f.writer, strings.Join(entries, ",\n"))
		if len(entries) > 0 {
			_, _ = fmt.Fprintln(f.writer)
		}
		_, _ = fmt.Fprintln(f.writer, "}, { timestamps: true });")
		_, _ = fmt.Fprintf(f.writer, "\nconst %s = mongoose.model('%s', %s);\n", name, name, variable)
	}

	_, _ = fmt.Fprintf(f.writer, "\nmodule.exports = { %s };\n", strings.Join(names, ", "))
	return nil
}

func (f *MongooseFormatter) formatField(m schema.Model, field schema.Field, set schema.ModelSet) string {
	name := ident(field.Name)

	if set.IsRelation(field) {
		ref := fmt.Sprintf("{ type: %s, ref: '%s' }", mongooseObjectID, ident(field.Type))
		if field.IsArray {
			return fmt.Sprintf("  %s: [%s]", name, ref)
		}
		return fmt.Sprintf("  %s: %s", name, ref)
	}

	typ, ok := mongooseTypes[field.Type]
	if !ok {
		typ = "String"
	}
	if field.IsArray {
		typ = "[" + typ + "]"
	}

	var opts []string
	if field.Required {
		opts = append(opts, "required: true")
	}
	if field.Unique {
		opts = append(opts, "unique: true")
	}
	if len(field.Enum) > 0 {
		opts = append(opts, fmt.Sprintf("enum: %s.values", enumName(m, field)))
	}
	if field.DefaultValue != nil {
		opts = append(opts, "default: "+mongooseDefault(field))
	}
	if len(opts) == 0 {
		return fmt.Sprintf("  %s: %s", name, typ)
	}

	lines := append([]string{"type: " + typ}, opts...)
	return fmt.Sprintf("  %s: {\n    %s\n  }", name, strings.Join(lines, ",\n    "))
}

func mongooseDefault(field schema.Field) string {
	v := defaultText(field)
	switch {
	case field.Type == schema.KindDate && strings.EqualFold(strings.TrimSuffix(v, "()"), "now"):
		return "Date.now"
	case isLiteral(field.Type, v):
		return v
	}
	return quoteSingle(v)
}

// quotedList joins values rendered by quote with ", "
func quotedList(values []string, quote func(string) string) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = quote(v)
	}
	return strings.Join(out, ", ")
}
