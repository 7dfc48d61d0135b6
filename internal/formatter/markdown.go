package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

// MarkdownFormatter formats parsed models as markdown documentation
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the models in markdown format
func (f *MarkdownFormatter) Format(models []schema.Model) error {
	_, _ = fmt.Fprintln(f.writer, "# Schema")
	_, _ = fmt.Fprintln(f.writer)

	set := schema.NewModelSet(models)
	for _, m := range models {
		f.FormatModel(m, set)
	}
	return nil
}

// FormatModel formats a single model (exported for use by multifile formatter)
func (f *MarkdownFormatter) FormatModel(m schema.Model, set schema.ModelSet) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", m.Name)

	_, _ = fmt.Fprintln(f.writer, "### Fields")
	_, _ = fmt.Fprintln(f.writer)
	if len(m.Fields) == 0 {
		_, _ = fmt.Fprintln(f.writer, "_none_")
	}

	pk := primaryKey(m)
	var relations []schema.Field
	for _, field := range m.Fields {
		if set.IsRelation(field) {
			relations = append(relations, field)
		}
		typeStr := field.Type
		if field.IsArray {
			typeStr += "[]"
		}
		if len(field.Enum) > 0 {
			typeStr = fmt.Sprintf("%s (%s)", typeStr, strings.Join(field.Enum, "|"))
		}

		constraintStr := f.formatConstraints(field, field.Name == pk)
		if constraintStr != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", field.Name, typeStr, constraintStr)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", field.Name, typeStr)
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	if len(relations) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, rel := range relations {
			_, _ = fmt.Fprintf(f.writer, "- %s → %s (%s)\n", rel.Name, rel.Type, Cardinality(rel))
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func (f *MarkdownFormatter) formatConstraints(field schema.Field, isPK bool) string {
	var constraints []string

	if isPK {
		constraints = append(constraints, "PK")
	}

	if field.Unique && !isPK {
		constraints = append(constraints, "UNIQUE")
	}

	if field.Required {
		constraints = append(constraints, "REQUIRED")
	}

	if field.DefaultValue != nil {
		constraints = append(constraints, fmt.Sprintf("DEFAULT %s", *field.DefaultValue))
	}

	return strings.Join(constraints, ", ")
}
