package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

// TextFormatter formats parsed models as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the models in compact text format
func (f *TextFormatter) Format(models []schema.Model) error {
	set := schema.NewModelSet(models)
	for i, m := range models {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between models
		}
		f.formatModel(m, set)
	}
	return nil
}

func (f *TextFormatter) formatModel(m schema.Model, set schema.ModelSet) {
	// Model header with primary key
	pkStr := ""
	if pk := primaryKey(m); pk != "" {
		pkStr = fmt.Sprintf(" (PK: %s)", pk)
	}
	_, _ = fmt.Fprintf(f.writer, "MODEL %s%s\n", m.Name, pkStr)

	var relations []schema.Field
	for _, field := range m.Fields {
		if set.IsRelation(field) {
			relations = append(relations, field)
		}
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatField(field))
	}

	if len(relations) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONS:")
		for _, rel := range relations {
			_, _ = fmt.Fprintf(f.writer, "    %s → %s (%s)\n", rel.Name, rel.Type, Cardinality(rel))
		}
	}

	// Declared enums
	if names := m.EnumNames(); len(names) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  ENUMS:")
		for _, name := range names {
			_, _ = fmt.Fprintf(f.writer, "    %s (%s)\n", name, strings.Join(m.Enums[name], "|"))
		}
	}
}

func (f *TextFormatter) formatField(field schema.Field) string {
	parts := []string{field.Name + ":"}

	// Type with enum values if present
	typeStr := field.Type
	if field.IsArray {
		typeStr += "[]"
	}
	if len(field.Enum) > 0 {
		typeStr = fmt.Sprintf("%s (%s)", typeStr, strings.Join(field.Enum, "|"))
	}
	parts = append(parts, typeStr)

	if field.IsID {
		parts = append(parts, "ID")
	}
	if field.Unique {
		parts = append(parts, "UNIQUE")
	}
	if field.Required {
		parts = append(parts, "REQUIRED")
	}
	if field.DefaultValue != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", *field.DefaultValue))
	}

	return strings.Join(parts, " ")
}

// Cardinality describes a relation field from its owner's side
func Cardinality(field schema.Field) string {
	if field.IsArray {
		return "one-to-many"
	}
	return "many-to-one"
}
