// Package db reads table metadata from live PostgreSQL, MySQL and SQLite
// databases and lifts it into the shared model list.
package db

import (
	"context"
	"regexp"
	"strings"

	"github.com/tordrt/schemaconv/internal/parser"
	"github.com/tordrt/schemaconv/internal/schema"
)

var identRe = regexp.MustCompile(`^\w+$`)

// Extractor reads table metadata from a connected database.
// An empty tables list selects every table in the schema.
type Extractor interface {
	ExtractTables(ctx context.Context, tables []string) ([]Table, error)
}

// Table is the raw metadata of one database table
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

// Column is the raw metadata of one table column
type Column struct {
	Name       string
	Type       string // database spelling, e.g. varchar(255), integer[], enum('a','b')
	Nullable   bool
	Unique     bool
	Default    *string
	EnumValues []string
}

// ForeignKey is a single-column reference to another table
type ForeignKey struct {
	Column       string
	TargetTable  string
	TargetColumn string
}

// ExtractModels runs the extractor and converts its tables to models
func ExtractModels(ctx context.Context, e Extractor, tables []string) ([]schema.Model, error) {
	extracted, err := e.ExtractTables(ctx, tables)
	if err != nil {
		return nil, err
	}
	return BuildModels(extracted), nil
}

// BuildModels converts table metadata to models. Foreign keys whose target
// table is part of the list become to-one relation fields.
func BuildModels(tables []Table) []schema.Model {
	names := make(map[string]bool, len(tables))
	for _, t := range tables {
		names[t.Name] = true
	}

	models := make([]schema.Model, 0, len(tables))
	for _, t := range tables {
		model := schema.Model{Name: t.Name}
		for _, col := range t.Columns {
			model.Fields = append(model.Fields, buildField(col, t.PrimaryKey))
			// named enum types (PostgreSQL) keep their name
			if len(col.EnumValues) > 0 && identRe.MatchString(col.Type) {
				if model.Enums == nil {
					model.Enums = make(map[string][]string)
				}
				model.Enums[col.Type] = col.EnumValues
			}
		}

		for _, fk := range t.ForeignKeys {
			if !names[fk.TargetTable] {
				continue
			}
			name := parser.RelationName(fk.Column, fk.TargetTable)
			if hasField(model, name) {
				continue
			}
			model.Fields = append(model.Fields, schema.Field{Name: name, Type: fk.TargetTable})
		}
		models = append(models, model)
	}
	return models
}

func buildField(col Column, primaryKey []string) schema.Field {
	typ := strings.TrimSpace(col.Type)
	isArray := strings.HasSuffix(typ, "[]")
	typ = strings.TrimSuffix(typ, "[]")

	field := schema.Field{
		Name:     col.Name,
		Type:     parser.SQLKind(typ),
		Required: !col.Nullable,
		Unique:   col.Unique,
		IsArray:  isArray,
		Enum:     col.EnumValues,
	}
	// MySQL reports BOOLEAN as tinyint(1)
	if strings.EqualFold(typ, "tinyint(1)") {
		field.Type = schema.KindBoolean
	}
	if len(field.Enum) > 0 {
		field.Type = schema.KindString
	}
	if len(primaryKey) == 1 && primaryKey[0] == col.Name {
		field.IsID = true
		field.Unique = true
		field.Required = true
	}
	if col.Default != nil {
		field.DefaultValue = schema.StrPtr(normalizeDefault(*col.Default))
	}
	return field
}

// normalizeDefault rewrites a catalog default expression into the value
// spelling the formatters understand
func normalizeDefault(raw string) string {
	v := strings.TrimSpace(raw)
	lower := strings.ToLower(v)
	switch {
	case strings.HasPrefix(lower, "nextval("):
		return "autoincrement()"
	case lower == "now()", strings.HasPrefix(lower, "current_timestamp"):
		return "now()"
	}

	// 'value'::character varying
	if idx := strings.LastIndex(v, "::"); idx > 0 && !strings.Contains(v[idx:], "'") {
		v = strings.TrimSpace(v[:idx])
	}
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		v = strings.ReplaceAll(v[1:len(v)-1], "''", "'")
	}
	return v
}

func hasField(model schema.Model, name string) bool {
	for _, f := range model.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
