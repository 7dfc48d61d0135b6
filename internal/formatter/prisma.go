package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

var prismaTypes = map[string]string{
	schema.KindString:  "String",
	schema.KindNumber:  "Int",
	schema.KindFloat:   "Float",
	schema.KindBoolean: "Boolean",
	schema.KindDate:    "DateTime",
	schema.KindMixed:   "Json",
}

// PrismaFormatter renders models as a Prisma schema
type PrismaFormatter struct {
	writer io.Writer
	opts   Options
}

// NewPrismaFormatter creates a new Prisma formatter
func NewPrismaFormatter(w io.Writer, opts Options) *PrismaFormatter {
	return &PrismaFormatter{writer: w, opts: opts}
}

// Format writes the Prisma schema
func (f *PrismaFormatter) Format(models []schema.Model) error {
	writeHeader(f.writer, f.opts, "//", "Prisma schema generated by schemaconv")
	_, _ = fmt.Fprint(f.writer, `generator client {
  provider = "prisma-client-js"
}

datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}
`)

	for _, e := range collectEnums(models) {
		_, _ = fmt.Fprintf(f.writer, "\nenum %s {\n", e.Name)
		for _, v := range e.Values {
			_, _ = fmt.Fprintf(f.writer, "  %s\n", ident(v))
		}
		_, _ = fmt.Fprintln(f.writer, "}")
	}

	set := f.opts.modelSet(models)
	for _, m := range models {
		_, _ = fmt.Fprintf(f.writer, "\nmodel %s {\n", ident(m.Name))
		if !m.HasID() {
			_, _ = fmt.Fprintln(f.writer, "  id Int @id @default(autoincrement())")
		}
		pk := primaryKey(m)
		for _, field := range m.Fields {
			field.IsID = field.Name == pk
			_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatField(m, field, set))
		}
		_, _ = fmt.Fprintln(f.writer, "}")
	}
	return nil
}

func (f *PrismaFormatter) formatField(m schema.Model, field schema.Field, set schema.ModelSet) string {
	name := ident(field.Name)

	// Relations
	if set.IsRelation(field) {
		if field.IsArray {
			return fmt.Sprintf("%s %s[]", name, ident(field.Type))
		}
		return fmt.Sprintf("%s %s?", name, ident(field.Type))
	}

	typ, ok := prismaTypes[field.Type]
	if !ok {
		typ = "String"
	}
	if len(field.Enum) > 0 {
		typ = enumName(m, field)
	}
	switch {
	case field.IsArray:
		typ += "[]"
	case !field.Required && !field.IsID:
		typ += "?"
	}

	parts := []string{name, typ}
	if field.IsID {
		parts = append(parts, "@id")
	}
	if field.Unique && !field.IsID {
		parts = append(parts, "@unique")
	}
	if def := f.defaultValue(field); def != "" {
		parts = append(parts, "@default("+def+")")
	} else if field.IsID && field.Type == schema.KindNumber {
		parts = append(parts, "@default(autoincrement())")
	}
	return strings.Join(parts, " ")
}

func (f *PrismaFormatter) defaultValue(field schema.Field) string {
	if field.DefaultValue == nil || *field.DefaultValue == "" {
		return ""
	}
	v := defaultText(field)
	switch {
	case strings.HasSuffix(v, "()"):
		return v
	case len(field.Enum) > 0:
		return ident(v)
	case isLiteral(field.Type, v):
		return v
	case field.Type == schema.KindString:
		return strconv.Quote(v)
	}
	return ""
}
