package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/schemaconv/internal/schema"
)

var graphQLTypes = map[string]string{
	schema.KindString:  "String",
	schema.KindNumber:  "Int",
	schema.KindFloat:   "Float",
	schema.KindBoolean: "Boolean",
	schema.KindDate:    "DateTime",
	schema.KindMixed:   "JSON",
}

// GraphQLFormatter renders models as GraphQL SDL with CRUD roots
type GraphQLFormatter struct {
	writer io.Writer
	opts   Options
}

// NewGraphQLFormatter creates a new GraphQL formatter
func NewGraphQLFormatter(w io.Writer, opts Options) *GraphQLFormatter {
	return &GraphQLFormatter{writer: w, opts: opts}
}

// Format writes scalars, enums, object and input types, then Query and Mutation
func (f *GraphQLFormatter) Format(models []schema.Model) error {
	writeHeader(f.writer, f.opts, "#", "GraphQL schema generated by schemaconv")

	scalars := false
	for _, scalar := range usedScalars(models) {
		_, _ = fmt.Fprintf(f.writer, "scalar %s\n", scalar)
		scalars = true
	}
	if scalars {
		_, _ = fmt.Fprintln(f.writer)
	}

	for _, e := range collectEnums(models) {
		_, _ = fmt.Fprintf(f.writer, "enum %s {\n", e.Name)
		for _, v := range e.Values {
			_, _ = fmt.Fprintf(f.writer, "  %s\n", ident(v))
		}
		_, _ = fmt.Fprint(f.writer, "}\n\n")
	}

	set := f.opts.modelSet(models)
	var withInput []string
	for _, m := range models {
		name := ident(m.Name)
		pk := primaryKey(m)

		_, _ = fmt.Fprintf(f.writer, "type %s {\n", name)
		if pk == "" {
			_, _ = fmt.Fprintln(f.writer, "  id: ID!")
		}
		for _, field := range m.Fields {
			typ := "ID!"
			if field.Name != pk {
				typ = graphQLType(m, field, set)
			}
			_, _ = fmt.Fprintf(f.writer, "  %s: %s\n", ident(field.Name), typ)
		}
		_, _ = fmt.Fprint(f.writer, "}\n\n")

		var inputs []string
		for _, field := range m.Fields {
			if field.Name == pk {
				continue
			}
			inputs = append(inputs, graphQLInputField(m, field, set))
		}
		if len(inputs) == 0 {
			continue
		}
		withInput = append(withInput, name)
		_, _ = fmt.Fprintf(f.writer, "input %sInput {\n", name)
		for _, in := range inputs {
			_, _ = fmt.Fprintf(f.writer, "  %s\n", in)
		}
		_, _ = fmt.Fprint(f.writer, "}\n\n")
	}

	if len(models) == 0 {
		return nil
	}
	_, _ = fmt.Fprintln(f.writer, "type Query {")
	for _, m := range models {
		name := ident(m.Name)
		_, _ = fmt.Fprintf(f.writer, "  %s(id: ID!): %s\n", schema.Lower(name), name)
		_, _ = fmt.Fprintf(f.writer, "  %ss: [%s!]!\n", schema.Lower(name), name)
	}
	_, _ = fmt.Fprintln(f.writer, "}")

	if len(withInput) == 0 {
		return nil
	}
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer, "type Mutation {")
	for _, name := range withInput {
		_, _ = fmt.Fprintf(f.writer, "  create%s(input: %sInput!): %s!\n", name, name, name)
		_, _ = fmt.Fprintf(f.writer, "  update%s(id: ID!, input: %sInput!): %s!\n", name, name, name)
		_, _ = fmt.Fprintf(f.writer, "  delete%s(id: ID!): Boolean!\n", name)
	}
	_, _ = fmt.Fprintln(f.writer, "}")
	return nil
}

func graphQLType(m schema.Model, field schema.Field, set schema.ModelSet) string {
	if set.IsRelation(field) {
		if field.IsArray {
			return fmt.Sprintf("[%s!]!", ident(field.Type))
		}
		if field.Required {
			return ident(field.Type) + "!"
		}
		return ident(field.Type)
	}
	return graphQLScalar(m, field)
}

func graphQLScalar(m schema.Model, field schema.Field) string {
	typ, ok := graphQLTypes[field.Type]
	if !ok {
		typ = "String"
	}
	if len(field.Enum) > 0 {
		typ = enumName(m, field)
	}
	if field.IsArray {
		typ = "[" + typ + "!]"
	}
	if field.Required {
		typ += "!"
	}
	return typ
}

// graphQLInputField renders a field of the XInput type; relations are passed by id
func graphQLInputField(m schema.Model, field schema.Field, set schema.ModelSet) string {
	name := ident(field.Name)
	switch {
	case set.IsRelation(field) && field.IsArray:
		return name + "Ids: [ID!]"
	case set.IsRelation(field):
		return name + "Id: ID"
	}
	return fmt.Sprintf("%s: %s", name, graphQLScalar(m, field))
}

// usedScalars lists the custom scalars the models need, in a fixed order
func usedScalars(models []schema.Model) []string {
	var date, mixed bool
	for _, m := range models {
		for _, f := range m.Fields {
			date = date || f.Type == schema.KindDate
			mixed = mixed || f.Type == schema.KindMixed
		}
	}
	var out []string
	if date {
		out = append(out, "DateTime")
	}
	if mixed {
		out = append(out, "JSON")
	}
	return out
}
