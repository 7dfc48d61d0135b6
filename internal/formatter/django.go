package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

var djangoTypes = map[string]string{
	schema.KindString:  "CharField",
	schema.KindNumber:  "IntegerField",
	schema.KindFloat:   "FloatField",
	schema.KindBoolean: "BooleanField",
	schema.KindDate:    "DateTimeField",
	schema.KindMixed:   "JSONField",
}

// DjangoFormatter renders models as Django ORM classes
type DjangoFormatter struct {
	writer io.Writer
	opts   Options
}

// NewDjangoFormatter creates a new Django formatter
func NewDjangoFormatter(w io.Writer, opts Options) *DjangoFormatter {
	return &DjangoFormatter{writer: w, opts: opts}
}

// Format writes one models.Model subclass per model
func (f *DjangoFormatter) Format(models []schema.Model) error {
	writeHeader(f.writer, f.opts, "#", "Django models generated by schemaconv")
	_, _ = fmt.Fprintln(f.writer, "from django.db import models")

	set := f.opts.modelSet(models)
	for _, m := range models {
		name := ident(m.Name)
		_, _ = fmt.Fprintf(f.writer, "\n\nclass %s(models.Model):\n", name)

		pk := primaryKey(m)
		wrote := false
		for _, field := range m.Fields {
			field.IsID = field.Name == pk
			// Django adds the integer id itself
			if field.IsID && field.Name == "id" && field.Type == schema.KindNumber {
				continue
			}
			_, _ = fmt.Fprintf(f.writer, "    %s = %s\n", ident(field.Name), djangoField(field, set))
			wrote = true
		}
		if wrote {
			_, _ = fmt.Fprintln(f.writer)
		}

		_, _ = fmt.Fprintln(f.writer, "    class Meta:")
		_, _ = fmt.Fprintf(f.writer, "        db_table = '%s'\n", TableName(m.Name))
		_, _ = fmt.Fprintf(f.writer, "        verbose_name = '%s'\n", name)
		_, _ = fmt.Fprintf(f.writer, "        verbose_name_plural = '%ss'\n", name)
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "    def __str__(self):")
		_, _ = fmt.Fprintf(f.writer, "        return f\"%s {self.pk}\"\n", name)
	}
	return nil
}

func djangoField(field schema.Field, set schema.ModelSet) string {
	if set.IsRelation(field) {
		target := quoteSingle(ident(field.Type))
		if field.IsArray {
			return fmt.Sprintf("models.ManyToManyField(%s, blank=True)", target)
		}
		args := []string{target, "on_delete=models.CASCADE"}
		if !field.Required {
			args = append(args, "blank=True", "null=True")
		}
		return fmt.Sprintf("models.ForeignKey(%s)", strings.Join(args, ", "))
	}

	typ, ok := djangoTypes[field.Type]
	if !ok {
		typ = "CharField"
	}
	var args []string
	switch {
	case field.IsArray:
		typ = "JSONField"
		args = append(args, "default=list")
	case typ == "CharField":
		args = append(args, "max_length=255")
	}

	if field.IsID {
		args = append(args, "primary_key=True")
	} else {
		if !field.Required {
			args = append(args, "blank=True", "null=True")
		}
		if field.Unique {
			args = append(args, "unique=True")
		}
	}
	if def := djangoDefault(field); def != "" {
		args = append(args, "default="+def)
	}
	if len(field.Enum) > 0 {
		choices := make([]string, len(field.Enum))
		for i, v := range field.Enum {
			choices[i] = fmt.Sprintf("(%s, %s)", quoteSingle(v), quoteSingle(schema.Capitalize(v)))
		}
		args = append(args, fmt.Sprintf("choices=[%s]", strings.Join(choices, ", ")))
	}
	return fmt.Sprintf("models.%s(%s)", typ, strings.Join(args, ", "))
}

func djangoDefault(field schema.Field) string {
	if field.DefaultValue == nil || field.IsArray {
		return ""
	}
	v := defaultText(field)
	switch {
	case strings.HasSuffix(v, "()"):
		return ""
	case field.Type == schema.KindBoolean && isLiteral(field.Type, v):
		return schema.Capitalize(v)
	case isLiteral(field.Type, v):
		return v
	case field.Type == schema.KindString:
		return quoteSingle(v)
	}
	return ""
}
