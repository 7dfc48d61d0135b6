package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

var zodTypes = map[string]string{
	schema.KindString:  "z.string()",
	schema.KindNumber:  "z.number().int()",
	schema.KindFloat:   "z.number()",
	schema.KindBoolean: "z.boolean()",
	schema.KindDate:    "z.date()",
	schema.KindMixed:   "z.unknown()",
}

// ZodFormatter renders models as Zod object schemas with inferred types
type ZodFormatter struct {
	writer io.Writer
	opts   Options
}

// NewZodFormatter creates a new Zod formatter
func NewZodFormatter(w io.Writer, opts Options) *ZodFormatter {
	return &ZodFormatter{writer: w, opts: opts}
}

// Format writes one schema constant and inferred type per model
func (f *ZodFormatter) Format(models []schema.Model) error {
	writeHeader(f.writer, f.opts, "//", "Zod schemas generated by schemaconv")
	_, _ = fmt.Fprintln(f.writer, "import { z } from 'zod';")

	set := f.opts.modelSet(models)
	for _, m := range models {
		name := ident(m.Name)
		_, _ = fmt.Fprintf(f.writer, "\nexport const %sSchema = z.object({\n", name)
		pk := primaryKey(m)
		for _, field := range m.Fields {
			if field.Name == pk {
				field.Required = true
			}
			_, _ = fmt.Fprintf(f.writer, "  %s: %s,\n", ident(field.Name), zodExpr(field, set))
		}
		_, _ = fmt.Fprintln(f.writer, "});")
		_, _ = fmt.Fprintf(f.writer, "\nexport type %s = z.infer<typeof %sSchema>;\n", name, name)
	}
	return nil
}

func zodExpr(field schema.Field, set schema.ModelSet) string {
	var expr string
	switch {
	case set.IsRelation(field):
		expr = fmt.Sprintf("z.lazy(() => %sSchema)", ident(field.Type))
	case len(field.Enum) > 0:
		expr = fmt.Sprintf("z.enum([%s])", quotedList(field.Enum, quoteSingle))
	default:
		var ok bool
		if expr, ok = zodTypes[field.Type]; !ok {
			expr = "z.string()"
		}
	}

	var chain strings.Builder
	chain.WriteString(expr)
	if field.IsArray {
		chain.WriteString(".array()")
	}
	def := zodDefault(field)
	switch {
	case def != "":
		chain.WriteString(".default(" + def + ")")
	case !field.Required:
		chain.WriteString(".optional()")
	}
	return chain.String()
}

func zodDefault(field schema.Field) string {
	if field.DefaultValue == nil || field.IsArray {
		return ""
	}
	v := defaultText(field)
	switch {
	case strings.HasSuffix(v, "()"):
		if field.Type == schema.KindDate && strings.EqualFold(v, "now()") {
			return "() => new Date()"
		}
		return ""
	case isLiteral(field.Type, v):
		return v
	case field.Type == schema.KindString:
		return quoteSingle(v)
	}
	return ""
}
