package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

var sqlTypes = map[string]string{
	schema.KindString:  "VARCHAR(255)",
	schema.KindNumber:  "INT",
	schema.KindFloat:   "DECIMAL(10,2)",
	schema.KindBoolean: "BOOLEAN",
	schema.KindDate:    "TIMESTAMP",
	schema.KindMixed:   "JSON",
}

// SQLFormatter renders models as CREATE TABLE statements
type SQLFormatter struct {
	writer io.Writer
	opts   Options
}

// NewSQLFormatter creates a new SQL DDL formatter
func NewSQLFormatter(w io.Writer, opts Options) *SQLFormatter {
	return &SQLFormatter{writer: w, opts: opts}
}

// TableName returns the table generated for a model
func TableName(model string) string {
	return strings.ToLower(ident(model)) + "s"
}

// Format writes one CREATE TABLE statement per model
func (f *SQLFormatter) Format(models []schema.Model) error {
	writeHeader(f.writer, f.opts, "--", "SQL DDL generated by schemaconv")

	set := f.opts.modelSet(models)
	for i, m := range models {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer)
		}
		table := TableName(m.Name)

		var defs, constraints, notes []string
		if !m.HasID() {
			defs = append(defs, "id INT PRIMARY KEY AUTO_INCREMENT")
		}
		pk := primaryKey(m)
		for _, field := range m.Fields {
			field.IsID = field.Name == pk
			if !set.IsRelation(field) {
				defs = append(defs, f.formatColumn(field))
				continue
			}

			target := TableName(field.Type)
			if field.IsArray {
				notes = append(notes, fmt.Sprintf("-- %s.%s: one-to-many, the foreign key lives on %s", table, ident(field.Name), target))
				continue
			}
			column := ident(field.Name) + "_id"
			if !hasColumn(m, column) {
				defs = append(defs, column+" INT")
			}
			constraints = append(constraints, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(id)", column, target))
		}

		for _, note := range notes {
			_, _ = fmt.Fprintln(f.writer, note)
		}
		_, _ = fmt.Fprintf(f.writer, "CREATE TABLE %s (\n", table)
		_, _ = fmt.Fprintf(f.writer, "  %s\n", strings.Join(append(defs, constraints...), ",\n  "))
		_, _ = fmt.Fprintln(f.writer, ");")
	}
	return nil
}

func (f *SQLFormatter) formatColumn(field schema.Field) string {
	typ, ok := sqlTypes[field.Type]
	if !ok {
		typ = "VARCHAR(255)"
	}
	if field.IsArray {
		typ = "JSON"
	}

	name := ident(field.Name)
	parts := []string{name, typ}
	if field.IsID {
		parts = append(parts, "PRIMARY KEY")
		if autoIncrement(field) {
			parts = append(parts, "AUTO_INCREMENT")
		}
	} else {
		if field.Required {
			parts = append(parts, "NOT NULL")
		}
		if field.Unique {
			parts = append(parts, "UNIQUE")
		}
	}
	if def := sqlDefault(field); def != "" {
		parts = append(parts, "DEFAULT "+def)
	}
	if len(field.Enum) > 0 {
		parts = append(parts, fmt.Sprintf("CHECK (%s IN (%s))", name, quotedList(field.Enum, quoteSQL)))
	}
	return strings.Join(parts, " ")
}

func sqlDefault(field schema.Field) string {
	if field.DefaultValue == nil {
		return ""
	}
	v := defaultText(field)
	switch {
	case strings.HasSuffix(v, "()"):
		// only the clock has a portable spelling
		if field.Type == schema.KindDate {
			return "CURRENT_TIMESTAMP"
		}
		return ""
	case isLiteral(field.Type, v):
		return strings.ToUpper(v)
	}
	return quoteSQL(v)
}

// quoteSQL renders s as a SQL string literal
func quoteSQL(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func hasColumn(m schema.Model, name string) bool {
	for _, f := range m.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
